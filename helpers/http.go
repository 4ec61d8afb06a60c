package helpers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/net/html/charset"
)

// FetchHTML sends an HTTP GET request with browser-like headers, converts the
// response body to UTF-8 if needed, and returns it together with the response
// status code. A non-nil error means the request did not complete; status
// handling is left to the caller.
func FetchHTML(ctx context.Context, client *http.Client, url, userAgent string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Pragma", "no-cache")
	req.Header.Set("Upgrade-Insecure-Requests", "1")

	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read response body: %w", err)
	}

	// Determine the encoding from Content-Type header and body content
	encoding, name, _ := charset.DetermineEncoding(bodyBytes, resp.Header.Get("Content-Type"))
	if name == "utf-8" || name == "UTF-8" {
		return bodyBytes, resp.StatusCode, nil
	}

	utf8Bytes, err := io.ReadAll(encoding.NewDecoder().Reader(bytes.NewReader(bodyBytes)))
	if err != nil {
		// Fall back to the raw bytes when decoding fails
		return bodyBytes, resp.StatusCode, nil
	}
	return utf8Bytes, resp.StatusCode, nil
}
