package tracker

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func record(price float64) *PriceRecord {
	return &PriceRecord{
		ProductID:     "p1",
		LastPrice:     price,
		LastCheckedAt: time.Now(),
	}
}

func TestShouldAlertFirstObservationNeverAlerts(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	for i := 0; i < 1000; i++ {
		price := rnd.Float64() * 10000
		target := rnd.Float64() * 10000
		assert.False(t, ShouldAlert(nil, price, target))
	}
}

func TestShouldAlertConjunction(t *testing.T) {
	// Alert iff new < target AND last exists AND new < last, for random triples.
	rnd := rand.New(rand.NewSource(42))
	for i := 0; i < 10000; i++ {
		last := rnd.Float64() * 2000
		newPrice := rnd.Float64() * 2000
		target := rnd.Float64() * 2000

		want := newPrice < target && newPrice < last
		assert.Equal(t, want, ShouldAlert(record(last), newPrice, target),
			"last=%v new=%v target=%v", last, newPrice, target)
	}
}

func TestShouldAlertBoundaryEqualities(t *testing.T) {
	tests := []struct {
		name     string
		last     float64
		newPrice float64
		target   float64
		want     bool
	}{
		{"below both", 1200, 950, 1000, true},
		{"equal to target", 1200, 1000, 1000, false},
		{"equal to last", 950, 950, 1000, false},
		{"equal to both", 1000, 1000, 1000, false},
		{"below target only", 900, 950, 1000, false},
		{"below last only", 1200, 1100, 1000, false},
		{"above both", 900, 1100, 1000, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ShouldAlert(record(tt.last), tt.newPrice, tt.target))
		})
	}
}

// Three consecutive cycles: first observation records without alerting, a
// qualifying drop alerts, re-observing the same price does not alert again.
func TestShouldAlertDropScenario(t *testing.T) {
	target := 1000.0

	assert.False(t, ShouldAlert(nil, 1200, target))

	assert.True(t, ShouldAlert(record(1200), 950, target))

	assert.False(t, ShouldAlert(record(950), 950, target))
}

func TestNewAlertEvent(t *testing.T) {
	spec := ProductSpec{
		ID:          "p1",
		URL:         "https://example.com/item",
		Name:        "Configured Name",
		TargetPrice: 1000,
	}

	ev := NewAlertEvent(spec, "Extracted Name", record(1200), 950)
	assert.Equal(t, "p1", ev.ProductID)
	assert.Equal(t, "Extracted Name", ev.Name)
	assert.Equal(t, "https://example.com/item", ev.URL)
	assert.Equal(t, 950.0, ev.NewPrice)
	assert.Equal(t, 1000.0, ev.TargetPrice)
	if assert.NotNil(t, ev.OldPrice) {
		assert.Equal(t, 1200.0, *ev.OldPrice)
	}

	// Fallback to the spec name when extraction produced none
	ev = NewAlertEvent(spec, "", record(1200), 950)
	assert.Equal(t, "Configured Name", ev.Name)
}
