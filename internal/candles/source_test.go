package candles

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	cachekeys "finsight-api/internal/cache"
	"finsight-api/internal/config"
	"finsight-api/pkg/marketdata"
)

type memoryStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemoryStore() *memoryStore {
	return &memoryStore{data: map[string][]byte{}}
}

func (m *memoryStore) Get(_ context.Context, key string, v interface{}) bool {
	m.mu.Lock()
	_, ok := m.data[key]
	m.mu.Unlock()
	if !ok {
		return false
	}
	switch target := v.(type) {
	case *marketdata.CandleSeries:
		*target = marketdata.CandleSeries{Closes: []float64{42}, Timestamps: []int64{1}}
	case *marketdata.Quote:
		*target = marketdata.Quote{Price: 42}
	default:
		return false
	}
	return true
}

func (m *memoryStore) Set(_ context.Context, key string, _ interface{}, _ time.Duration) {
	m.mu.Lock()
	m.data[key] = []byte{1}
	m.mu.Unlock()
}

type countingProvider struct {
	candleCalls int32
	quoteCalls  int32
	quote       *marketdata.Quote
	block       chan struct{}
}

func (p *countingProvider) Candles(context.Context, string, string, int) (*marketdata.CandleSeries, error) {
	atomic.AddInt32(&p.candleCalls, 1)
	if p.block != nil {
		<-p.block
	}
	return &marketdata.CandleSeries{Closes: []float64{1, 2}, Timestamps: []int64{10, 20}}, nil
}

func (p *countingProvider) LastQuote(context.Context, string) (*marketdata.Quote, error) {
	atomic.AddInt32(&p.quoteCalls, 1)
	return p.quote, nil
}

func testTTL() cachekeys.TTLSet {
	return cachekeys.NewTTLSet(config.CacheTTL{Short: 15, Medium: 60, Long: 300})
}

func TestCandlesCachedAfterFirstFetch(t *testing.T) {
	provider := &countingProvider{}
	store := newMemoryStore()
	source := NewSource(provider, store, testTTL())

	ctx := context.Background()
	first, err := source.Candles(ctx, "AAPL", "D", 30)
	require.NoError(t, err)
	require.Equal(t, 2, first.Len())

	second, err := source.Candles(ctx, "AAPL", "D", 30)
	require.NoError(t, err)
	require.Equal(t, 1, second.Len()) // served from the fake store payload
	require.Equal(t, int32(1), atomic.LoadInt32(&provider.candleCalls))
}

func TestCandlesDistinctKeysFetchSeparately(t *testing.T) {
	provider := &countingProvider{}
	source := NewSource(provider, newMemoryStore(), testTTL())

	ctx := context.Background()
	_, err := source.Candles(ctx, "AAPL", "D", 30)
	require.NoError(t, err)
	_, err = source.Candles(ctx, "AAPL", "D", 60)
	require.NoError(t, err)
	require.Equal(t, int32(2), atomic.LoadInt32(&provider.candleCalls))
}

func TestConcurrentCandleRequestsCollapse(t *testing.T) {
	provider := &countingProvider{block: make(chan struct{})}
	source := NewSource(provider, NopStore{}, testTTL())

	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := source.Candles(ctx, "AAPL", "D", 30)
			require.NoError(t, err)
		}()
	}
	// Give the goroutines time to pile onto the in-flight call.
	time.Sleep(50 * time.Millisecond)
	close(provider.block)
	wg.Wait()

	require.Equal(t, int32(1), atomic.LoadInt32(&provider.candleCalls))
}

func TestQuoteAbsenceNotCached(t *testing.T) {
	provider := &countingProvider{quote: nil}
	store := newMemoryStore()
	source := NewSource(provider, store, testTTL())

	ctx := context.Background()
	quote, err := source.LastQuote(ctx, "ZZZZ")
	require.NoError(t, err)
	require.Nil(t, quote)

	quote, err = source.LastQuote(ctx, "ZZZZ")
	require.NoError(t, err)
	require.Nil(t, quote)
	require.Equal(t, int32(2), atomic.LoadInt32(&provider.quoteCalls))
}

func TestQuotePresentCached(t *testing.T) {
	provider := &countingProvider{quote: &marketdata.Quote{Price: 189.95, AsOf: time.Now()}}
	store := newMemoryStore()
	source := NewSource(provider, store, testTTL())

	ctx := context.Background()
	first, err := source.LastQuote(ctx, "AAPL")
	require.NoError(t, err)
	require.NotNil(t, first)

	second, err := source.LastQuote(ctx, "AAPL")
	require.NoError(t, err)
	require.NotNil(t, second)
	require.Equal(t, int32(1), atomic.LoadInt32(&provider.quoteCalls))
}
