package fetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pricewatch/pkg/errors"
	"pricewatch/services/cache"
)

func TestHTTPFetcherReturnsMarkup(t *testing.T) {
	var gotAgent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAgent = r.Header.Get("User-Agent")
		w.Write([]byte("<html><body>ok</body></html>"))
	}))
	defer srv.Close()

	f := NewHTTPFetcher(5*time.Second, nil, 0)
	markup, err := f.Fetch(context.Background(), srv.URL, "test-agent/1.0")
	require.NoError(t, err)
	assert.Contains(t, markup, "<body>ok</body>")
	assert.Equal(t, "test-agent/1.0", gotAgent)
}

func TestHTTPFetcherBlockedOnNon2xx(t *testing.T) {
	for _, status := range []int{http.StatusForbidden, http.StatusTooManyRequests, http.StatusServiceUnavailable} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))

		f := NewHTTPFetcher(5*time.Second, nil, 0)
		_, err := f.Fetch(context.Background(), srv.URL, "test-agent")
		assert.True(t, errors.IsBlocked(err), "status %d must map to blocked", status)
		srv.Close()
	}
}

func TestHTTPFetcherNetworkError(t *testing.T) {
	// Closed server: connection refused
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	f := NewHTTPFetcher(time.Second, nil, 0)
	_, err := f.Fetch(context.Background(), srv.URL, "test-agent")
	require.Error(t, err)
	assert.Equal(t, errors.ErrorTypeNetwork, errors.TypeOf(err))
}

func TestHTTPFetcherTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	defer srv.Close()

	f := NewHTTPFetcher(50*time.Millisecond, nil, 0)
	_, err := f.Fetch(context.Background(), srv.URL, "test-agent")
	require.Error(t, err)
	assert.Equal(t, errors.ErrorTypeTimeout, errors.TypeOf(err))
}

func TestHTTPFetcherCooldownAfterBlock(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	f := NewHTTPFetcher(5*time.Second, cache.NewMemoryService(), time.Minute)

	_, err := f.Fetch(context.Background(), srv.URL, "test-agent")
	assert.True(t, errors.IsBlocked(err))
	assert.Equal(t, 1, hits)

	// Second attempt fails fast without touching the network
	_, err = f.Fetch(context.Background(), srv.URL, "test-agent")
	assert.True(t, errors.IsBlocked(err))
	assert.Equal(t, 1, hits)
}
