// Package cache centralises redis key construction and TTL policy.
package cache

import (
	"strconv"
	"strings"
	"time"

	"finsight-api/internal/config"
)

// Namespace is the redis key prefix for the FinSight analytics core.
const Namespace = "finsight"

// TTLClass represents a config-driven TTL bucket.
type TTLClass string

const (
	TTLShort  TTLClass = "short"
	TTLMedium TTLClass = "medium"
	TTLLong   TTLClass = "long"
)

// TTLSet normalises cache TTLs from config into time.Duration values.
type TTLSet struct {
	Short  time.Duration
	Medium time.Duration
	Long   time.Duration
}

// NewTTLSet converts config TTLs (in seconds) into durations.
func NewTTLSet(cfg config.CacheTTL) TTLSet {
	return TTLSet{
		Short:  durationOrDefault(cfg.Short, 15*time.Second),
		Medium: durationOrDefault(cfg.Medium, time.Minute),
		Long:   durationOrDefault(cfg.Long, 5*time.Minute),
	}
}

func durationOrDefault(seconds int, fallback time.Duration) time.Duration {
	if seconds < 0 {
		return 0
	}
	if seconds == 0 {
		return fallback
	}
	return time.Duration(seconds) * time.Second
}

// Duration returns the configured duration for the given TTL class.
func (t TTLSet) Duration(class TTLClass) time.Duration {
	switch class {
	case TTLShort:
		return t.Short
	case TTLMedium:
		return t.Medium
	case TTLLong:
		return t.Long
	default:
		return 0
	}
}

func formatKey(parts ...string) string {
	values := make([]string, 0, len(parts)+1)
	values = append(values, Namespace)
	for _, part := range parts {
		clean := strings.TrimSpace(part)
		if clean == "" {
			continue
		}
		values = append(values, clean)
	}
	return strings.Join(values, ":")
}

// CandleKey identifies a cached candle series. One key per
// (symbol, resolution, count) triple so distinct requests never collide.
func CandleKey(symbol, resolution string, count int) string {
	return formatKey("candles", symbol, resolution, strconv.Itoa(count))
}

// QuoteKey identifies a cached live quote for a symbol.
func QuoteKey(symbol string) string {
	return formatKey("quote", symbol)
}

// CandleTTL returns the TTL for cached candle series.
func CandleTTL(ttl TTLSet) time.Duration {
	return ttl.Duration(TTLMedium)
}

// QuoteTTL returns the short-lived TTL for live quotes.
func QuoteTTL(ttl TTLSet) time.Duration {
	return ttl.Duration(TTLShort)
}
