package tracker

import "time"

// ProductSpec describes one monitored product. Specs are built by the
// configuration layer, validated there, and never mutated afterwards.
type ProductSpec struct {
	ID            string
	URL           string
	PriceSelector string
	NameSelector  string
	Name          string
	TargetPrice   float64
	UserAgent     string
	RequestDelay  time.Duration
}

// DisplayName returns the configured name, falling back to the product id.
func (p ProductSpec) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}
	return p.ID
}

// PriceRecord is the last successful observation persisted for a product.
// At most one record exists per product id.
type PriceRecord struct {
	ProductID     string
	LastPrice     float64
	LastCheckedAt time.Time
}

// AlertEvent is produced when the drop rule fires. It lives only long enough
// to be handed to the notifier.
type AlertEvent struct {
	ProductID   string
	Name        string
	URL         string
	OldPrice    *float64
	NewPrice    float64
	TargetPrice float64
}
