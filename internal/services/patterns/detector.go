package patterns

import (
	"fmt"
	"math"
	"sort"

	"MarketLens/internal/domain/models"
	"MarketLens/internal/services/features"
	"MarketLens/internal/services/indicators"
)

const (
	MinCandles    = 30
	PivotRadius   = 2
	MaxLevels     = 3
	TrendWindow   = 20
	PoleLen       = 10
	FlagLen       = 5
	CupWindow     = 60
	CrossLookback = 5

	// per-bar slope, relative to price, below which a trendline counts as flat
	flatSlope = 0.0005
)

// Base strengths per pattern kind.
var baseStrength = map[models.PatternType]float64{
	models.PatternSupport:                 0.6,
	models.PatternResistance:              0.6,
	models.PatternHeadAndShoulders:        0.75,
	models.PatternInverseHeadAndShoulders: 0.75,
	models.PatternDoubleTop:               0.7,
	models.PatternDoubleBottom:            0.7,
	models.PatternAscendingTriangle:       0.65,
	models.PatternDescendingTriangle:      0.65,
	models.PatternSymmetricalTriangle:     0.5,
	models.PatternBullFlag:                0.65,
	models.PatternBearFlag:                0.65,
	models.PatternRisingWedge:             0.6,
	models.PatternFallingWedge:            0.6,
	models.PatternCupAndHandle:            0.7,
	models.PatternGoldenCross:             0.7,
	models.PatternDeathCross:              0.7,
}

// Detector implements service.PatternDetector. Every heuristic reports at most its most recent
// match; matches of different kinds may overlap and are all kept.
type Detector struct{}

func New() *Detector { return &Detector{} }

type scan func(s models.Series) []models.PatternMatch

func (d *Detector) Detect(s models.Series) []models.PatternMatch {
	out := []models.PatternMatch{}
	if len(s) < MinCandles {
		return out
	}
	for _, fn := range []scan{levels, headAndShoulders, doubleTops, trendlines, flags, cupAndHandle, crosses} {
		out = append(out, fn(s)...)
	}
	return out
}

func match(t models.PatternType, sig models.Signal, s models.Series, from, to int, level float64, desc string) models.PatternMatch {
	return models.PatternMatch{
		Type:        t,
		Signal:      sig,
		Strength:    baseStrength[t],
		Level:       level,
		Start:       s[from].Date,
		End:         s[to].Date,
		Description: desc,
	}
}

// pivots returns indices whose low (high) is strictly below (above) the PivotRadius candles on
// each side.
func pivots(s models.Series) (lows, highs []int) {
	for i := PivotRadius; i < len(s)-PivotRadius; i++ {
		isLow, isHigh := true, true
		for j := 1; j <= PivotRadius; j++ {
			if !(s[i].Low < s[i-j].Low && s[i].Low < s[i+j].Low) {
				isLow = false
			}
			if !(s[i].High > s[i-j].High && s[i].High > s[i+j].High) {
				isHigh = false
			}
		}
		if isLow {
			lows = append(lows, i)
		}
		if isHigh {
			highs = append(highs, i)
		}
	}
	return lows, highs
}

type level struct {
	price float64
	idx   int
}

// nearest keeps up to MaxLevels distinct levels, closest to price first.
func nearest(cands []level, price float64) []level {
	sort.SliceStable(cands, func(i, j int) bool {
		return math.Abs(cands[i].price-price) < math.Abs(cands[j].price-price)
	})
	out := make([]level, 0, MaxLevels)
	seen := map[float64]bool{}
	for _, c := range cands {
		if seen[c.price] {
			continue
		}
		seen[c.price] = true
		out = append(out, c)
		if len(out) == MaxLevels {
			break
		}
	}
	return out
}

func levels(s models.Series) []models.PatternMatch {
	lows, highs := pivots(s)
	last := s[len(s)-1].Close
	end := len(s) - 1

	var sup, res []level
	for _, i := range lows {
		if s[i].Low < last {
			sup = append(sup, level{s[i].Low, i})
		}
	}
	for _, i := range highs {
		if s[i].High > last {
			res = append(res, level{s[i].High, i})
		}
	}
	var out []models.PatternMatch
	for _, l := range nearest(sup, last) {
		out = append(out, match(models.PatternSupport, models.Bullish, s, l.idx, end, l.price,
			fmt.Sprintf("Support near %.2f", l.price)))
	}
	for _, l := range nearest(res, last) {
		out = append(out, match(models.PatternResistance, models.Bearish, s, l.idx, end, l.price,
			fmt.Sprintf("Resistance near %.2f", l.price)))
	}
	return out
}

func minLow(s models.Series, from, to int) float64 {
	m := math.Inf(1)
	for i := from; i <= to; i++ {
		m = math.Min(m, s[i].Low)
	}
	return m
}

func maxHigh(s models.Series, from, to int) float64 {
	m := math.Inf(-1)
	for i := from; i <= to; i++ {
		m = math.Max(m, s[i].High)
	}
	return m
}

func within(a, b, tol float64) bool {
	return math.Abs(a-b)/math.Max(a, b) <= tol
}

func headAndShoulders(s models.Series) []models.PatternMatch {
	lows, highs := pivots(s)
	var out []models.PatternMatch
	for k := len(highs) - 1; k >= 2; k-- {
		a, b, c := highs[k-2], highs[k-1], highs[k]
		l, h, r := s[a].High, s[b].High, s[c].High
		if h > l*1.02 && h > r*1.02 && within(l, r, 0.05) {
			neck := minLow(s, a, c)
			out = append(out, match(models.PatternHeadAndShoulders, models.Bearish, s, a, c, neck,
				fmt.Sprintf("Head and shoulders with neckline %.2f", neck)))
			break
		}
	}
	for k := len(lows) - 1; k >= 2; k-- {
		a, b, c := lows[k-2], lows[k-1], lows[k]
		l, h, r := s[a].Low, s[b].Low, s[c].Low
		if h < l*0.98 && h < r*0.98 && within(l, r, 0.05) {
			neck := maxHigh(s, a, c)
			out = append(out, match(models.PatternInverseHeadAndShoulders, models.Bullish, s, a, c, neck,
				fmt.Sprintf("Inverse head and shoulders with neckline %.2f", neck)))
			break
		}
	}
	return out
}

func doubleTops(s models.Series) []models.PatternMatch {
	lows, highs := pivots(s)
	var out []models.PatternMatch
	if m, ok := twinPeaks(s, highs, true); ok {
		out = append(out, m)
	}
	if m, ok := twinPeaks(s, lows, false); ok {
		out = append(out, m)
	}
	return out
}

// twinPeaks finds the most recent pair of pivots at least 5 bars apart, within 2% of each other,
// separated by a retracement of at least 3%.
func twinPeaks(s models.Series, idx []int, top bool) (models.PatternMatch, bool) {
	for b := len(idx) - 1; b > 0; b-- {
		for a := b - 1; a >= 0; a-- {
			i, j := idx[a], idx[b]
			if j-i < 5 {
				continue
			}
			if top {
				p1, p2 := s[i].High, s[j].High
				trough := minLow(s, i, j)
				if within(p1, p2, 0.02) && trough <= math.Min(p1, p2)*0.97 {
					return match(models.PatternDoubleTop, models.Bearish, s, i, j, trough,
						fmt.Sprintf("Double top near %.2f", math.Max(p1, p2))), true
				}
				continue
			}
			p1, p2 := s[i].Low, s[j].Low
			peak := maxHigh(s, i, j)
			if within(p1, p2, 0.02) && peak >= math.Max(p1, p2)*1.03 {
				return match(models.PatternDoubleBottom, models.Bullish, s, i, j, peak,
					fmt.Sprintf("Double bottom near %.2f", math.Min(p1, p2))), true
			}
		}
	}
	return models.PatternMatch{}, false
}

// trendlines classifies triangles and wedges from the regression slopes of highs and lows over
// the trailing window.
func trendlines(s models.Series) []models.PatternMatch {
	from := len(s) - TrendWindow
	w := s[from:]
	highs := make([]float64, len(w))
	lows := make([]float64, len(w))
	for i, c := range w {
		highs[i], lows[i] = c.High, c.Low
	}
	mean := features.Mean(w.Closes())
	if mean <= 0 {
		return nil
	}
	hs := features.LinearRegression(highs).Slope / mean
	ls := features.LinearRegression(lows).Slope / mean
	flat := func(x float64) bool { return math.Abs(x) < flatSlope }
	up := func(x float64) bool { return x >= flatSlope }
	down := func(x float64) bool { return x <= -flatSlope }

	end := len(s) - 1
	var t models.PatternType
	var sig models.Signal
	switch {
	case flat(hs) && up(ls):
		t, sig = models.PatternAscendingTriangle, models.Bullish
	case flat(ls) && down(hs):
		t, sig = models.PatternDescendingTriangle, models.Bearish
	case down(hs) && up(ls):
		t, sig = models.PatternSymmetricalTriangle, models.Neutral
	case up(hs) && up(ls) && ls > hs:
		t, sig = models.PatternRisingWedge, models.Bearish
	case down(hs) && down(ls) && hs < ls:
		t, sig = models.PatternFallingWedge, models.Bullish
	default:
		return nil
	}
	return []models.PatternMatch{match(t, sig, s, from, end, 0,
		fmt.Sprintf("%s over the last %d sessions", t, TrendWindow))}
}

func flags(s models.Series) []models.PatternMatch {
	n := len(s)
	poleStart, poleEnd := n-1-FlagLen-PoleLen, n-1-FlagLen
	base := s[poleStart].Close
	top := s[poleEnd].Close
	if base <= 0 || top <= 0 {
		return nil
	}
	pole := (top - base) / base
	rng := (maxHigh(s, poleEnd+1, n-1) - minLow(s, poleEnd+1, n-1)) / top
	drift := (s[n-1].Close - top) / top
	if rng > 0.05 {
		return nil
	}
	switch {
	case pole >= 0.08 && drift <= 0.01 && drift >= -0.05:
		return []models.PatternMatch{match(models.PatternBullFlag, models.Bullish, s, poleStart, n-1, top,
			fmt.Sprintf("Bull flag after a %.1f%% pole", pole*100))}
	case pole <= -0.08 && drift >= -0.01 && drift <= 0.05:
		return []models.PatternMatch{match(models.PatternBearFlag, models.Bearish, s, poleStart, n-1, top,
			fmt.Sprintf("Bear flag after a %.1f%% pole", pole*100))}
	}
	return nil
}

func cupAndHandle(s models.Series) []models.PatternMatch {
	n := len(s)
	size := CupWindow
	if n < size {
		size = n
	}
	from := n - size
	handleFrom := n - FlagLen
	third := (handleFrom - from) / 3
	if third < 3 {
		return nil
	}
	leftRim := maxHigh(s, from, from+third-1)
	bottom := minLow(s, from+third, from+2*third-1)
	rightRim := maxHigh(s, from+2*third, handleFrom-1)
	rim := math.Min(leftRim, rightRim)
	if !within(leftRim, rightRim, 0.05) {
		return nil
	}
	depth := (rim - bottom) / rim
	if depth < 0.12 || depth > 0.5 {
		return nil
	}
	if minLow(s, handleFrom, n-1) <= bottom+(rim-bottom)/2 || maxHigh(s, handleFrom, n-1) > rightRim*1.01 {
		return nil
	}
	return []models.PatternMatch{match(models.PatternCupAndHandle, models.Bullish, s, from, n-1, rightRim,
		fmt.Sprintf("Cup and handle, %.1f%% deep, rim %.2f", depth*100, rightRim))}
}

// crosses reports SMA20 crossing SMA50 within the last CrossLookback bars.
func crosses(s models.Series) []models.PatternMatch {
	closes := s.Closes()
	n := len(closes)
	for i := n - 1; i >= n-CrossLookback && i >= indicators.SMALong; i-- {
		tol := 1e-9 * closes[i]
		prev := indicators.Sign(indicators.SMA(closes, indicators.SMAMid, i-1)-indicators.SMA(closes, indicators.SMALong, i-1), tol)
		cur := indicators.Sign(indicators.SMA(closes, indicators.SMAMid, i)-indicators.SMA(closes, indicators.SMALong, i), tol)
		switch {
		case prev <= 0 && cur > 0:
			return []models.PatternMatch{match(models.PatternGoldenCross, models.Bullish, s, i-1, i, closes[i],
				"SMA20 crossed above SMA50")}
		case prev >= 0 && cur < 0:
			return []models.PatternMatch{match(models.PatternDeathCross, models.Bearish, s, i-1, i, closes[i],
				"SMA20 crossed below SMA50")}
		}
	}
	return nil
}
