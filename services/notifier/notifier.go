package notifier

import (
	"context"

	"pricewatch/internal/tracker"
)

// Notifier delivers price-drop alerts. Delivery failure never rolls back the
// history update that preceded it; the tracker only logs it.
type Notifier interface {
	// Notify delivers one message for the given alert event.
	Notify(ctx context.Context, event tracker.AlertEvent) error
}
