package fetcher

import (
	"context"
	stderrors "errors"
	"net"

	"pricewatch/pkg/errors"
)

// PageFetcher retrieves raw page markup for a URL. Implementations must be
// side-effect-free and bound their wait; the tracker treats every failure the
// same way (log, skip the product for the cycle).
type PageFetcher interface {
	// Fetch returns the page markup for url, identifying as userAgent.
	Fetch(ctx context.Context, url, userAgent string) (string, error)
}

// classify maps a transport error onto the fetch error taxonomy.
func classify(product string, err error) error {
	if isTimeout(err) {
		return errors.NewTimeout(product, "fetch timed out", err)
	}
	return errors.NewNetwork(product, "fetch failed", err)
}

func blocked(message string) error {
	return errors.NewBlocked("", message, nil)
}

func isTimeout(err error) bool {
	if stderrors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return stderrors.As(err, &netErr) && netErr.Timeout()
}
