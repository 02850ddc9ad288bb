// Package indicators provides pure technical indicator math over close-price
// series. Functions are deterministic and perform no I/O. Warm-up indices,
// where an indicator is mathematically undefined, are returned as math.NaN.
package indicators

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrInvalidPeriod indicates a period that cannot be computed over the
	// supplied series. Callers are expected to sanitize periods first.
	ErrInvalidPeriod = errors.New("indicators: invalid period")
	// ErrNullPrice indicates a NaN close in the input series.
	ErrNullPrice = errors.New("indicators: price series contains null close")
)

// SMA computes the simple moving average. The value at index i is the mean of
// closes[i-period+1..i]; indices before period-1 are NaN. Runs in O(n) via a
// sliding window sum.
func SMA(closes []float64, period int) ([]float64, error) {
	if err := validate(closes, period); err != nil {
		return nil, err
	}
	result := warmup(len(closes))
	sum := 0.0
	for i, price := range closes {
		sum += price
		if i >= period {
			sum -= closes[i-period]
		}
		if i >= period-1 {
			result[i] = sum / float64(period)
		}
	}
	return result, nil
}

// EMA computes the exponential moving average with multiplier 2/(period+1).
// The first defined value, at index period-1, is seeded with the arithmetic
// mean of the first period closes rather than the recurrence.
func EMA(closes []float64, period int) ([]float64, error) {
	if err := validate(closes, period); err != nil {
		return nil, err
	}
	result := warmup(len(closes))
	multiplier := 2.0 / float64(period+1)
	ema := 0.0
	for i, price := range closes {
		switch {
		case i < period-1:
			ema += price
		case i == period-1:
			ema = (ema + price) / float64(period)
			result[i] = ema
		default:
			ema = (price-ema)*multiplier + ema
			result[i] = ema
		}
	}
	return result, nil
}

// RSI computes Wilder's Relative Strength Index. Requires period >= 2. The
// seed averages accumulate over indices 1..period-1 and the first value is
// emitted at index period-1; later values use Wilder smoothing.
func RSI(closes []float64, period int) ([]float64, error) {
	if err := validate(closes, period); err != nil {
		return nil, err
	}
	if period < 2 {
		return nil, fmt.Errorf("%w: RSI period must be >= 2, got %d", ErrInvalidPeriod, period)
	}
	result := warmup(len(closes))
	var avgGain, avgLoss float64
	for i := 1; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		gain := math.Max(change, 0)
		loss := math.Max(-change, 0)

		if i < period {
			avgGain += gain
			avgLoss += loss
			if i == period-1 {
				avgGain /= float64(period)
				avgLoss /= float64(period)
				result[i] = computeRSI(avgGain, avgLoss)
			}
			continue
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
		result[i] = computeRSI(avgGain, avgLoss)
	}
	return result, nil
}

func computeRSI(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100.0
	}
	rs := avgGain / avgLoss
	return 100.0 - (100.0 / (1.0 + rs))
}

func warmup(n int) []float64 {
	result := make([]float64, n)
	for i := range result {
		result[i] = math.NaN()
	}
	return result
}

func validate(closes []float64, period int) error {
	if len(closes) == 0 {
		return fmt.Errorf("%w: price series is empty", ErrInvalidPeriod)
	}
	if period <= 0 {
		return fmt.Errorf("%w: period must be greater than zero, got %d", ErrInvalidPeriod, period)
	}
	if period > len(closes) {
		return fmt.Errorf("%w: period %d exceeds series length %d", ErrInvalidPeriod, period, len(closes))
	}
	for _, price := range closes {
		if math.IsNaN(price) {
			return ErrNullPrice
		}
	}
	return nil
}
