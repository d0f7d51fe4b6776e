package marketdata

import (
	"math"
	"math/rand"
	"time"

	"MarketLens/internal/domain/models"
	"MarketLens/pkg/util"
)

// Seed derives a stable seed from the symbol's characters.
func Seed(symbol string) int64 {
	var h uint64 = 7
	for _, r := range util.NormalizeSymbol(symbol) {
		h = h*31 + uint64(r)
	}
	return int64(h & math.MaxInt64)
}

// Synthetic returns exactly days candles ending on now's date. Prices depend only on symbol
// and days, so repeated calls agree; they are a placeholder, not market data.
func Synthetic(symbol string, days int, now time.Time) models.Series {
	if days <= 0 {
		return models.Series{}
	}
	seed := Seed(symbol)
	rng := rand.New(rand.NewSource(seed))
	price := 20 + float64(seed%480)
	baseVol := 1e5 + float64(seed%9)*1e5

	start := util.Day(now).AddDate(0, 0, -(days - 1))
	out := make(models.Series, days)
	for i := 0; i < days; i++ {
		open := price
		ret := (rng.Float64() - 0.49) * 0.04
		closeP := open * (1 + ret)
		hi := math.Max(open, closeP) * (1 + rng.Float64()*0.01)
		lo := math.Min(open, closeP) * (1 - rng.Float64()*0.01)
		out[i] = models.Candle{
			Date:   start.AddDate(0, 0, i),
			Open:   round2(open),
			High:   round2(hi),
			Low:    round2(lo),
			Close:  round2(closeP),
			Volume: math.Round(baseVol * (0.5 + rng.Float64())),
		}
		// rounding can pull a bound inside the body
		c := &out[i]
		c.High = math.Max(c.High, math.Max(c.Open, c.Close))
		c.Low = math.Min(c.Low, math.Min(c.Open, c.Close))
		price = closeP
	}
	return out
}

func round2(x float64) float64 { return math.Round(x*100) / 100 }
