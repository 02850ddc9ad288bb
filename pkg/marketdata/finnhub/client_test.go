package finnhub

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"finsight-api/pkg/marketdata"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(
		WithBaseURL(server.URL),
		WithAPIKey("test-token"),
		WithMaxRetries(0),
	)
}

func TestGetCandles(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/stock/candle", r.URL.Path)
		require.Equal(t, "AAPL", r.URL.Query().Get("symbol"))
		require.Equal(t, "D", r.URL.Query().Get("resolution"))
		require.Equal(t, "30", r.URL.Query().Get("count"))
		require.Equal(t, "test-token", r.URL.Query().Get("token"))
		w.Write([]byte(`{"c":[150.1,151.2,149.8],"t":[1700000000,1700086400,1700172800],"s":"ok"}`))
	})

	series, err := client.GetCandles(context.Background(), "AAPL", "D", 30)
	require.NoError(t, err)
	require.Equal(t, 3, series.Len())
	require.Equal(t, []float64{150.1, 151.2, 149.8}, series.Closes)
	require.Equal(t, []int64{1700000000, 1700086400, 1700172800}, series.Timestamps)
}

func TestGetCandlesNoData(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"s":"no_data"}`))
	})

	_, err := client.GetCandles(context.Background(), "AAPL", "D", 30)
	require.ErrorIs(t, err, marketdata.ErrMalformedData)
}

func TestGetCandlesMismatchedArrays(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"c":[150.1,151.2],"t":[1700000000],"s":"ok"}`))
	})

	_, err := client.GetCandles(context.Background(), "AAPL", "D", 30)
	require.ErrorIs(t, err, marketdata.ErrMalformedData)
}

func TestGetCandlesServerError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	})

	_, err := client.GetCandles(context.Background(), "AAPL", "D", 30)
	require.ErrorIs(t, err, marketdata.ErrUpstreamUnavailable)
}

func TestGetCandlesRejectsBadResolution(t *testing.T) {
	client := NewClient()
	_, err := client.GetCandles(context.Background(), "AAPL", "2h", 30)
	require.Error(t, err)
}

func TestGetCandlesCapsCount(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "500", r.URL.Query().Get("count"))
		w.Write([]byte(`{"c":[1],"t":[1700000000],"s":"ok"}`))
	})

	_, err := client.GetCandles(context.Background(), "AAPL", "D", 9000)
	require.NoError(t, err)
}

func TestGetQuote(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/quote", r.URL.Path)
		require.Equal(t, "AAPL", r.URL.Query().Get("symbol"))
		w.Write([]byte(`{"c":189.95,"t":1700000000}`))
	})

	quote, err := client.GetQuote(context.Background(), "AAPL")
	require.NoError(t, err)
	require.NotNil(t, quote)
	require.InDelta(t, 189.95, quote.Price, 1e-9)
	require.Equal(t, int64(1700000000), quote.AsOf.Unix())
}

func TestGetQuoteAbsent(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"c":0,"t":0}`))
	})

	quote, err := client.GetQuote(context.Background(), "ZZZZ")
	require.NoError(t, err)
	require.Nil(t, quote)
}

func TestRetryOnTransientFailure(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			http.Error(w, "flaky", http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"c":[1],"t":[1700000000],"s":"ok"}`))
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL), WithMaxRetries(2))
	_, err := client.GetCandles(context.Background(), "AAPL", "D", 10)
	require.NoError(t, err)
	require.Equal(t, 2, attempts)
}
