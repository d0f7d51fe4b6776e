package features

import (
	"math"

	"MarketLens/internal/domain/models"
)

// Bars per year for daily candles: equities trade on business days, crypto every day.
const (
	StockBarsPerYear  = 252
	CryptoBarsPerYear = 365
)

// BarsPerYear returns the annualisation factor for daily bars of the asset class.
func BarsPerYear(class models.AssetClass) float64 {
	if class == models.AssetCrypto {
		return CryptoBarsPerYear
	}
	return StockBarsPerYear
}

// ComputeLogReturns computes log returns r_t = ln(C_t / C_{t-1}).
// It returns a slice of length len(closes)-1, or nil if insufficient data.
func ComputeLogReturns(closes []float64) []float64 {
	if len(closes) < 2 {
		return nil
	}
	out := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		prev, cur := closes[i-1], closes[i]
		if prev <= 0 || cur <= 0 {
			out = append(out, 0)
			continue
		}
		out = append(out, math.Log(cur/prev))
	}
	return out
}

// SimpleReturns computes (C_t - C_{t-1}) / C_{t-1}.
func SimpleReturns(closes []float64) []float64 {
	if len(closes) < 2 {
		return nil
	}
	out := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		if closes[i-1] == 0 {
			out = append(out, 0)
			continue
		}
		out = append(out, (closes[i]-closes[i-1])/closes[i-1])
	}
	return out
}

// RealizedVolatility computes annualized realized volatility over the trailing window
// using the provided number of bars per year.
func RealizedVolatility(logReturns []float64, window int, barsPerYear float64) float64 {
	if window <= 1 || len(logReturns) < window {
		return 0
	}
	sum := 0.0
	sum2 := 0.0
	for i := len(logReturns) - window; i < len(logReturns); i++ {
		r := logReturns[i]
		sum += r
		sum2 += r * r
	}
	n := float64(window)
	mean := sum / n
	variance := (sum2 - n*mean*mean) / (n - 1)
	if variance < 0 {
		variance = 0
	}
	return math.Sqrt(variance * barsPerYear)
}

func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	s := 0.0
	for _, x := range xs {
		s += x
	}
	return s / float64(len(xs))
}

// StdDev is the population standard deviation.
func StdDev(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	m := Mean(xs)
	v := 0.0
	for _, x := range xs {
		v += (x - m) * (x - m)
	}
	return math.Sqrt(v / float64(len(xs)))
}

// Fit is an ordinary least squares line y = Intercept + Slope*x.
type Fit struct {
	Slope     float64
	Intercept float64
	R2        float64
}

// LinearRegression fits ys against their indices 0..n-1. R2 is 0 when ys is constant or has
// fewer than two points.
func LinearRegression(ys []float64) Fit {
	n := float64(len(ys))
	if len(ys) < 2 {
		return Fit{Intercept: Mean(ys)}
	}
	var sx, sy, sxy, sxx float64
	for i, y := range ys {
		x := float64(i)
		sx += x
		sy += y
		sxy += x * y
		sxx += x * x
	}
	den := n*sxx - sx*sx
	slope := (n*sxy - sx*sy) / den
	icept := (sy - slope*sx) / n

	mean := sy / n
	var ssTot, ssRes float64
	for i, y := range ys {
		pred := icept + slope*float64(i)
		ssRes += (y - pred) * (y - pred)
		ssTot += (y - mean) * (y - mean)
	}
	r2 := 0.0
	if ssTot > 0 {
		r2 = 1 - ssRes/ssTot
		if r2 < 0 {
			r2 = 0
		}
	}
	return Fit{Slope: slope, Intercept: icept, R2: r2}
}
