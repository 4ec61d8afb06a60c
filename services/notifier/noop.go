package notifier

import (
	"context"

	"pricewatch/internal/tracker"
	"pricewatch/logger"
)

// NoopNotifier logs the alert instead of delivering it. Used when alerts are
// disabled in configuration.
type NoopNotifier struct{}

var _ Notifier = (*NoopNotifier)(nil)

// NewNoopNotifier creates a new no-op notifier.
func NewNoopNotifier() *NoopNotifier {
	return &NoopNotifier{}
}

// Notify logs the event and reports success.
func (n *NoopNotifier) Notify(ctx context.Context, event tracker.AlertEvent) error {
	logger.ForNotifier().Info().
		Str("product", event.ProductID).
		Float64("new_price", event.NewPrice).
		Float64("target_price", event.TargetPrice).
		Msg("Alerting disabled; price drop logged only")
	return nil
}
