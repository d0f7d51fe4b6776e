package indicators

import (
	"math"

	"MarketLens/internal/domain/models"
)

const (
	RSIPeriod       = 14
	MACDFast        = 12
	MACDSlow        = 26
	MACDCrossWindow = 30
	BollingerPeriod = 20
	MomentumPeriod  = 10
	SMAMid          = 20
	SMALong         = 50
)

// SMA returns the mean of the period closes ending at idx, or 0 when fewer than period points
// exist up to idx.
func SMA(closes []float64, period, idx int) float64 {
	if period <= 0 || idx < period-1 || idx >= len(closes) {
		return 0
	}
	sum := 0.0
	for i := idx - period + 1; i <= idx; i++ {
		sum += closes[i]
	}
	return sum / float64(period)
}

// EMA returns the exponential moving average aligned with values. It is seeded at index
// period-1 with the simple mean of the first period values; earlier entries are 0.
func EMA(values []float64, period int) []float64 {
	out := make([]float64, len(values))
	if period <= 0 || len(values) < period {
		return out
	}
	k := 2.0 / float64(period+1)
	ema := SMA(values, period, period-1)
	out[period-1] = ema
	for i := period; i < len(values); i++ {
		ema = (values[i]-ema)*k + ema
		out[i] = ema
	}
	return out
}

// RSI uses simple averages of gains and losses over the trailing period deltas. It returns 50
// with fewer than period+1 closes and exactly 100 when there were no losses.
func RSI(closes []float64, period int) float64 {
	if period <= 0 || len(closes) < period+1 {
		return 50
	}
	var gain, loss float64
	for i := len(closes) - period; i < len(closes); i++ {
		d := closes[i] - closes[i-1]
		if d > 0 {
			gain += d
		} else {
			loss -= d
		}
	}
	avgGain := gain / float64(period)
	avgLoss := loss / float64(period)
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

// MACDLine returns EMA(fast) - EMA(slow) for every index from slow-1 on.
func MACDLine(closes []float64) []float64 {
	if len(closes) < MACDSlow {
		return nil
	}
	fast := EMA(closes, MACDFast)
	slow := EMA(closes, MACDSlow)
	out := make([]float64, 0, len(closes)-MACDSlow+1)
	for i := MACDSlow - 1; i < len(closes); i++ {
		out = append(out, fast[i]-slow[i])
	}
	return out
}

// MACDSignal reads the most recent zero crossing inside the trailing window; without one it
// follows the line's direction against its prior value, and a flat line follows its sign.
func MACDSignal(line []float64) models.Signal {
	n := len(line)
	if n == 0 {
		return models.Neutral
	}
	from := n - MACDCrossWindow
	if from < 1 {
		from = 1
	}
	for i := n - 1; i >= from; i-- {
		prev, cur := Sign(line[i-1], zeroTol), Sign(line[i], zeroTol)
		if prev <= 0 && cur > 0 {
			return models.Bullish
		}
		if prev >= 0 && cur < 0 {
			return models.Bearish
		}
	}
	last := line[n-1]
	if n > 1 {
		d := last - line[n-2]
		tol := 1e-9 * math.Max(1, math.Abs(last))
		switch {
		case d > tol:
			return models.Bullish
		case d < -tol:
			return models.Bearish
		}
	}
	switch Sign(last, zeroTol) {
	case 1:
		return models.Bullish
	case -1:
		return models.Bearish
	}
	return models.Neutral
}

// values closer to zero than this are rounding noise
const zeroTol = 1e-9

// Sign returns -1, 0 or 1, treating |x| <= tol as zero.
func Sign(x, tol float64) int {
	switch {
	case x > tol:
		return 1
	case x < -tol:
		return -1
	}
	return 0
}

// PercentB places the last close inside the Bollinger band of period closes using the
// population standard deviation. A flat window yields 0.5. ok is false with too few closes.
func PercentB(closes []float64, period int) (pb float64, ok bool) {
	n := len(closes)
	if period <= 0 || n < period {
		return 0, false
	}
	mean := SMA(closes, period, n-1)
	v := 0.0
	for i := n - period; i < n; i++ {
		v += (closes[i] - mean) * (closes[i] - mean)
	}
	sigma := math.Sqrt(v / float64(period))
	if sigma == 0 {
		return 0.5, true
	}
	lower := mean - 2*sigma
	return (closes[n-1] - lower) / (4 * sigma), true
}

// RateOfChange is the percent change of the last close over period bars.
func RateOfChange(closes []float64, period int) (float64, bool) {
	n := len(closes)
	if period <= 0 || n <= period || closes[n-1-period] == 0 {
		return 0, false
	}
	base := closes[n-1-period]
	return (closes[n-1] - base) / base * 100, true
}
