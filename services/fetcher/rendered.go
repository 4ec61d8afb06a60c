package fetcher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// RenderedFetcher implements PageFetcher by asking a headless-chrome HTTP
// service (browserless-style /function endpoint) to render the page and
// return its final markup. It is selected for products whose price element
// only exists after client-side rendering; the orchestrator does not know the
// difference.
type RenderedFetcher struct {
	client     *http.Client
	chromeAddr string
}

var _ PageFetcher = (*RenderedFetcher)(nil)

// NewRenderedFetcher creates a fetcher backed by the chrome service at chromeAddr.
func NewRenderedFetcher(chromeAddr string, timeout time.Duration) *RenderedFetcher {
	return &RenderedFetcher{
		client:     &http.Client{Timeout: timeout},
		chromeAddr: strings.TrimRight(chromeAddr, "/"),
	}
}

const renderScript = `module.exports = async ({ page, context }) => {
	await page.setViewport({ width: 1280, height: 800 });
	await page.setUserAgent(context.userAgent);
	await page.goto(context.url, { waitUntil: 'domcontentloaded', timeout: 30000 });
	await page.waitForTimeout(2000);
	return await page.content();
}`

// Fetch renders the page and returns its markup.
func (f *RenderedFetcher) Fetch(ctx context.Context, pageURL, userAgent string) (string, error) {
	payload := map[string]interface{}{
		"code": renderScript,
		"context": map[string]interface{}{
			"url":       pageURL,
			"userAgent": userAgent,
		},
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return "", classify("", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.chromeAddr+"/function", bytes.NewBuffer(data))
	if err != nil {
		return "", classify("", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", classify("", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", blocked(fmt.Sprintf("chrome service returned status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", classify("", err)
	}

	content := string(body)
	// Some chrome services wrap the result in a JSON envelope.
	if strings.HasPrefix(strings.TrimSpace(content), "{") {
		var result map[string]interface{}
		if json.Unmarshal(body, &result) == nil {
			if data, ok := result["data"].(string); ok && data != "" {
				content = data
			} else if data, ok := result["result"].(string); ok && data != "" {
				content = data
			}
		}
	}

	if !strings.Contains(content, "<html") && !strings.Contains(content, "<body") {
		return "", blocked("chrome service returned no document")
	}
	return content, nil
}
