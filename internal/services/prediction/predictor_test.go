package prediction

import (
	"math"
	"testing"
	"time"

	"MarketLens/internal/domain/models"
)

func series(closes ...float64) models.Series {
	d := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s := make(models.Series, len(closes))
	for i, c := range closes {
		s[i] = models.Candle{Date: d.AddDate(0, 0, i), Open: c, High: c, Low: c, Close: c}
	}
	return s
}

func TestPredictLinearTrend(t *testing.T) {
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	patterns := []models.PatternMatch{
		{Type: models.PatternSupport, Level: 120},
		{Type: models.PatternSupport, Level: 135},
		{Type: models.PatternResistance, Level: 140},
		{Type: models.PatternResistance, Level: 125},
		{Type: models.PatternDoubleTop, Level: 150},
	}
	p := New().Predict(series(closes...), patterns, "90d", 129)

	if p.IsDefault {
		t.Fatalf("computed prediction flagged as default")
	}
	if math.Abs(p.Slope-1) > 1e-9 || math.Abs(p.R2-1) > 1e-9 {
		t.Fatalf("fit slope=%v r2=%v", p.Slope, p.R2)
	}
	if math.Abs(p.TargetPrice-129*1.1) > 1e-6 {
		t.Fatalf("target = %v", p.TargetPrice)
	}
	if p.Probability <= 0 || p.Probability > 1 {
		t.Fatalf("probability = %v", p.Probability)
	}
	if p.Trend != models.TrendUp {
		t.Fatalf("trend = %s", p.Trend)
	}
	if len(p.SupportLevels) != 1 || p.SupportLevels[0] != 120 {
		t.Fatalf("supports = %v", p.SupportLevels)
	}
	if len(p.ResistanceLevels) != 1 || p.ResistanceLevels[0] != 140 {
		t.Fatalf("resistances = %v", p.ResistanceLevels)
	}
}

func TestPredictProbabilityClampedByVolatility(t *testing.T) {
	// returns alternate between +300% and -75%, so volatility exceeds 1
	p := New().Predict(series(10, 40, 10, 40, 10, 40, 10, 40), nil, "30d", 0)
	if p.Probability != 0 {
		t.Fatalf("probability = %v, want 0", p.Probability)
	}
	if p.Trend != models.TrendUp && p.Trend != models.TrendSideways {
		t.Fatalf("trend = %s", p.Trend)
	}
}

func TestPredictDefault(t *testing.T) {
	p := New().Predict(series(50), nil, "30d", 0)
	if !p.IsDefault || p.TargetPrice != 50 || p.Probability != 0.5 {
		t.Fatalf("unexpected default %+v", p)
	}
	if math.Abs(p.SupportLevels[0]-45) > 1e-9 || math.Abs(p.ResistanceLevels[0]-55) > 1e-9 {
		t.Fatalf("bands = %v %v", p.SupportLevels, p.ResistanceLevels)
	}
	empty := New().Predict(nil, nil, "1y", 200)
	if !empty.IsDefault || empty.TargetPrice != 200 || empty.Trend != models.TrendSideways {
		t.Fatalf("unexpected default %+v", empty)
	}
}

func TestPredictSlopeIsInPriceUnits(t *testing.T) {
	linear := func(start, step float64) models.Series {
		closes := make([]float64, 30)
		for i := range closes {
			closes[i] = start + step*float64(i)
		}
		return series(closes...)
	}
	// same 1% per bar drift at two price levels
	cheap := New().Predict(linear(5, 0.05), nil, "30d", 0)
	dear := New().Predict(linear(50000, 500), nil, "30d", 0)

	if math.Abs(cheap.ExpectedMovePct-0.5) > 1e-6 {
		t.Fatalf("cheap move = %v%%, want 0.5%%", cheap.ExpectedMovePct)
	}
	if math.Abs(dear.ExpectedMovePct-5000) > 1e-6 {
		t.Fatalf("dear move = %v%%, want 5000%%", dear.ExpectedMovePct)
	}
	if cheap.Trend != models.TrendUp || dear.Trend != models.TrendUp {
		t.Fatalf("trend = %s / %s", cheap.Trend, dear.Trend)
	}
}
