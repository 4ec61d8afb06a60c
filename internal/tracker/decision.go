package tracker

// ShouldAlert is the drop-detection rule. It fires only when the new price is
// strictly below the target AND strictly below the last recorded price. With
// no prior record there is no drop to detect, so the first observation of a
// product never alerts. Equality on either comparison does not alert.
func ShouldAlert(last *PriceRecord, newPrice, targetPrice float64) bool {
	if last == nil {
		return false
	}
	return newPrice < targetPrice && newPrice < last.LastPrice
}

// NewAlertEvent builds the event handed to the notifier when ShouldAlert
// fired for spec.
func NewAlertEvent(spec ProductSpec, name string, last *PriceRecord, newPrice float64) AlertEvent {
	ev := AlertEvent{
		ProductID:   spec.ID,
		Name:        name,
		URL:         spec.URL,
		NewPrice:    newPrice,
		TargetPrice: spec.TargetPrice,
	}
	if name == "" {
		ev.Name = spec.DisplayName()
	}
	if last != nil {
		old := last.LastPrice
		ev.OldPrice = &old
	}
	return ev
}
