package finnhub

import (
	"context"
	"errors"
	"net/http"
	"time"

	"finsight-api/pkg/marketdata"
)

const defaultRequestTimeout = 8 * time.Second

// Provider adapts the Finnhub client to the marketdata.Provider contract
// with a per-request timeout.
type Provider struct {
	client  *Client
	timeout time.Duration
}

var _ marketdata.Provider = (*Provider)(nil)

func init() {
	marketdata.RegisterProvider("finnhub", func(name string, cfg *marketdata.ProviderConfig) (marketdata.Provider, error) {
		if cfg.APIKey == "" {
			return nil, errors.New("finnhub: api_key is required")
		}
		opts := []Option{WithAPIKey(cfg.APIKey)}
		if cfg.BaseURL != "" {
			opts = append(opts, WithBaseURL(cfg.BaseURL))
		}
		if cfg.MaxRetries > 0 {
			opts = append(opts, WithMaxRetries(cfg.MaxRetries))
		}
		if cfg.HTTPTimeout > 0 {
			opts = append(opts, WithHTTPClient(&http.Client{Timeout: cfg.HTTPTimeout}))
		}
		provider := &Provider{client: NewClient(opts...), timeout: defaultRequestTimeout}
		if cfg.Timeout > 0 {
			provider.timeout = cfg.Timeout
		}
		return provider, nil
	})
}

// NewProvider wraps an existing client. Used by tests and direct wiring.
func NewProvider(client *Client, timeout time.Duration) *Provider {
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	return &Provider{client: client, timeout: timeout}
}

// Candles implements marketdata.Provider.
func (p *Provider) Candles(ctx context.Context, symbol, resolution string, count int) (*marketdata.CandleSeries, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	return p.client.GetCandles(ctx, symbol, resolution, count)
}

// LastQuote implements marketdata.Provider.
func (p *Provider) LastQuote(ctx context.Context, symbol string) (*marketdata.Quote, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	return p.client.GetQuote(ctx, symbol)
}
