package worker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pricewatch/internal/tracker"
	"pricewatch/pkg/errors"
	"pricewatch/services/fetcher"
	"pricewatch/services/history"
	"pricewatch/services/notifier"
)

// MockFetcher implements the fetcher.PageFetcher interface for testing
type MockFetcher struct {
	mu    sync.Mutex
	pages map[string]string
	errs  map[string]error
	calls []string
}

var _ fetcher.PageFetcher = (*MockFetcher)(nil)

func NewMockFetcher() *MockFetcher {
	return &MockFetcher{
		pages: make(map[string]string),
		errs:  make(map[string]error),
	}
}

func (m *MockFetcher) Fetch(ctx context.Context, url, userAgent string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, url)
	if err, ok := m.errs[url]; ok {
		return "", err
	}
	return m.pages[url], nil
}

// MockStore implements the history.Store interface for testing
type MockStore struct {
	mu      sync.Mutex
	records map[string]tracker.PriceRecord
	getErr  error
	putErr  error
	puts    []string
}

var _ history.Store = (*MockStore)(nil)

func NewMockStore() *MockStore {
	return &MockStore{records: make(map[string]tracker.PriceRecord)}
}

func (m *MockStore) GetLast(ctx context.Context, productID string) (*tracker.PriceRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	rec, ok := m.records[productID]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (m *MockStore) Put(ctx context.Context, productID string, price float64, checkedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.putErr != nil {
		return m.putErr
	}
	m.records[productID] = tracker.PriceRecord{
		ProductID:     productID,
		LastPrice:     price,
		LastCheckedAt: checkedAt,
	}
	m.puts = append(m.puts, productID)
	return nil
}

func (m *MockStore) Close() error {
	return nil
}

func (m *MockStore) lastPrice(t *testing.T, productID string) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[productID]
	require.True(t, ok, "no record for %s", productID)
	return rec.LastPrice
}

// MockNotifier implements the notifier.Notifier interface for testing
type MockNotifier struct {
	mu     sync.Mutex
	events []tracker.AlertEvent
	err    error
}

var _ notifier.Notifier = (*MockNotifier)(nil)

func (m *MockNotifier) Notify(ctx context.Context, event tracker.AlertEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return m.err
}

func spec(id, url string, target float64) tracker.ProductSpec {
	return tracker.ProductSpec{
		ID:            id,
		URL:           url,
		PriceSelector: ".price",
		TargetPrice:   target,
		UserAgent:     "test-agent",
	}
}

func page(price string) string {
	return `<html><body><span class="price">` + price + `</span></body></html>`
}

func singleRunWorker(products []tracker.ProductSpec, f *MockFetcher, s *MockStore, n *MockNotifier) *Worker {
	// interval <= 0 selects single-run mode
	return NewWorker(context.Background(), products, f, s, n, 0)
}

func TestWorkerRecordsWithoutAlertOnFirstObservation(t *testing.T) {
	f := NewMockFetcher()
	f.pages["https://shop/a"] = page("$1,200.00")
	s := NewMockStore()
	n := &MockNotifier{}

	w := singleRunWorker([]tracker.ProductSpec{spec("a", "https://shop/a", 1000)}, f, s, n)
	require.NoError(t, w.Start())

	assert.Equal(t, 1200.0, s.lastPrice(t, "a"))
	assert.Empty(t, n.events)
}

func TestWorkerAlertsOnQualifyingDrop(t *testing.T) {
	f := NewMockFetcher()
	f.pages["https://shop/a"] = page("$950.00")
	s := NewMockStore()
	s.records["a"] = tracker.PriceRecord{ProductID: "a", LastPrice: 1200, LastCheckedAt: time.Now()}
	n := &MockNotifier{}

	w := singleRunWorker([]tracker.ProductSpec{spec("a", "https://shop/a", 1000)}, f, s, n)
	require.NoError(t, w.Start())

	assert.Equal(t, 950.0, s.lastPrice(t, "a"))
	require.Len(t, n.events, 1)
	ev := n.events[0]
	assert.Equal(t, "a", ev.ProductID)
	assert.Equal(t, 950.0, ev.NewPrice)
	assert.Equal(t, 1000.0, ev.TargetPrice)
	require.NotNil(t, ev.OldPrice)
	assert.Equal(t, 1200.0, *ev.OldPrice)
}

func TestWorkerUnchangedPriceDoesNotAlertAgain(t *testing.T) {
	f := NewMockFetcher()
	f.pages["https://shop/a"] = page("$950.00")
	s := NewMockStore()
	s.records["a"] = tracker.PriceRecord{ProductID: "a", LastPrice: 950, LastCheckedAt: time.Now()}
	n := &MockNotifier{}

	w := singleRunWorker([]tracker.ProductSpec{spec("a", "https://shop/a", 1000)}, f, s, n)
	require.NoError(t, w.Start())

	assert.Empty(t, n.events)
	assert.Equal(t, 950.0, s.lastPrice(t, "a"))
}

func TestWorkerFaultIsolation(t *testing.T) {
	f := NewMockFetcher()
	f.errs["https://shop/a"] = errors.NewNetwork("a", "fetch failed", nil)
	f.pages["https://shop/b"] = page("$500.00")
	s := NewMockStore()
	n := &MockNotifier{}

	products := []tracker.ProductSpec{
		spec("a", "https://shop/a", 1000),
		spec("b", "https://shop/b", 1000),
	}
	w := singleRunWorker(products, f, s, n)
	require.NoError(t, w.Start())

	// B was checked and recorded even though A failed first
	assert.Equal(t, 500.0, s.lastPrice(t, "b"))
	_, ok := s.records["a"]
	assert.False(t, ok, "failed product must not touch history")
	assert.Equal(t, []string{"https://shop/a", "https://shop/b"}, f.calls)
}

func TestWorkerExtractFailureSkipsHistory(t *testing.T) {
	f := NewMockFetcher()
	f.pages["https://shop/a"] = `<html><body><p>no price here</p></body></html>`
	s := NewMockStore()
	n := &MockNotifier{}

	w := singleRunWorker([]tracker.ProductSpec{spec("a", "https://shop/a", 1000)}, f, s, n)
	require.NoError(t, w.Start())

	assert.Empty(t, s.records)
	assert.Empty(t, n.events)
}

func TestWorkerStoreReadFailureSkipsProduct(t *testing.T) {
	f := NewMockFetcher()
	f.pages["https://shop/a"] = page("$950.00")
	s := NewMockStore()
	s.getErr = errors.NewStore("a", "read failed", nil)
	n := &MockNotifier{}

	w := singleRunWorker([]tracker.ProductSpec{spec("a", "https://shop/a", 1000)}, f, s, n)
	require.NoError(t, w.Start())

	assert.Empty(t, s.puts)
	assert.Empty(t, n.events)
}

func TestWorkerNotifyFailureKeepsHistoryUpdate(t *testing.T) {
	f := NewMockFetcher()
	f.pages["https://shop/a"] = page("$950.00")
	s := NewMockStore()
	s.records["a"] = tracker.PriceRecord{ProductID: "a", LastPrice: 1200, LastCheckedAt: time.Now()}
	n := &MockNotifier{err: errors.NewNotify("a", "smtp down", nil)}

	w := singleRunWorker([]tracker.ProductSpec{spec("a", "https://shop/a", 1000)}, f, s, n)
	require.NoError(t, w.Start())

	// The observation is committed regardless of the delivery failure
	assert.Equal(t, 950.0, s.lastPrice(t, "a"))
	assert.Len(t, n.events, 1)
}

func TestWorkerProcessesProductsInConfigOrder(t *testing.T) {
	f := NewMockFetcher()
	s := NewMockStore()
	n := &MockNotifier{}

	var products []tracker.ProductSpec
	urls := []string{"https://shop/c", "https://shop/a", "https://shop/b"}
	for i, u := range urls {
		f.pages[u] = page("$100.00")
		products = append(products, spec(string(rune('x'+i)), u, 50))
	}

	w := singleRunWorker(products, f, s, n)
	require.NoError(t, w.Start())

	assert.Equal(t, urls, f.calls)
}

func TestWorkerDropScenarioAcrossCycles(t *testing.T) {
	// target=1000: 1200 records silently, 950 alerts, 950 again stays quiet.
	f := NewMockFetcher()
	s := NewMockStore()
	n := &MockNotifier{}
	products := []tracker.ProductSpec{spec("a", "https://shop/a", 1000)}

	f.pages["https://shop/a"] = page("1200")
	require.NoError(t, singleRunWorker(products, f, s, n).Start())
	assert.Empty(t, n.events)
	assert.Equal(t, 1200.0, s.lastPrice(t, "a"))

	f.pages["https://shop/a"] = page("950")
	require.NoError(t, singleRunWorker(products, f, s, n).Start())
	assert.Len(t, n.events, 1)
	assert.Equal(t, 950.0, s.lastPrice(t, "a"))

	require.NoError(t, singleRunWorker(products, f, s, n).Start())
	assert.Len(t, n.events, 1)
	assert.Equal(t, 950.0, s.lastPrice(t, "a"))
}

func TestWorkerStopsOnCancellation(t *testing.T) {
	f := NewMockFetcher()
	f.pages["https://shop/a"] = page("$100.00")
	s := NewMockStore()
	n := &MockNotifier{}

	ctx, cancel := context.WithCancel(context.Background())
	w := NewWorker(ctx, []tracker.ProductSpec{spec("a", "https://shop/a", 50)}, f, s, n, time.Hour)

	done := make(chan error, 1)
	go func() { done <- w.Start() }()

	// Let the first cycle run, then cancel mid inter-cycle sleep
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop after cancellation")
	}

	assert.Equal(t, 100.0, s.lastPrice(t, "a"))
}

func TestWorkerCancellationDuringPolitenessDelay(t *testing.T) {
	f := NewMockFetcher()
	f.pages["https://shop/a"] = page("$100.00")
	f.pages["https://shop/b"] = page("$100.00")
	s := NewMockStore()
	n := &MockNotifier{}

	specB := spec("b", "https://shop/b", 50)
	specB.RequestDelay = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	w := NewWorker(ctx, []tracker.ProductSpec{spec("a", "https://shop/a", 50), specB}, f, s, n, 0)

	done := make(chan error, 1)
	go func() { done <- w.Start() }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop during politeness delay")
	}

	// A completed before the delay; B was never fetched
	assert.Equal(t, []string{"https://shop/a"}, f.calls)
}
