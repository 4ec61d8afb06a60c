package history

import (
	"context"
	"time"

	"pricewatch/internal/tracker"
)

// Store persists the last known price per product. Implementations must make
// Put durable before returning: a crash right after Put must not lose the
// update on the next start.
type Store interface {
	// GetLast returns the last recorded observation for productID, or
	// (nil, nil) when the product has never been observed.
	GetLast(ctx context.Context, productID string) (*tracker.PriceRecord, error)

	// Put upserts the record for productID, overwriting any prior one.
	Put(ctx context.Context, productID string, price float64, checkedAt time.Time) error

	// Close releases the underlying storage handle.
	Close() error
}
