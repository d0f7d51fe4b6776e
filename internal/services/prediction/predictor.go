package prediction

import (
	"MarketLens/internal/domain/models"
	"MarketLens/internal/services/features"
)

const (
	slopeWeight = 0.1
	// relative per-bar slope separating a trend from sideways drift
	trendSlope  = 0.001
	defaultBand = 0.10
	defaultProb = 0.5
)

// Predictor implements service.Predictor with a least-squares trend over the closes.
type Predictor struct{}

func New() *Predictor { return &Predictor{} }

// Predict projects lastClose*(1+slope*0.1), where slope is the fitted price change per bar, and
// scores it by R2*(1-volatility). With fewer than two closes it returns the IsDefault record.
//
// The slope is in raw price units, not a fraction, so the projected move scales with the price
// level: a $50,000 asset drifting $500 a bar projects a 5000% move while a $5 stock drifting
// $0.05 a bar projects 0.5%. Trend classification divides by the mean close and is not affected.
func (p *Predictor) Predict(s models.Series, patterns []models.PatternMatch, timeframe string, currentPrice float64) models.Prediction {
	closes := s.Closes()
	if len(closes) < 2 {
		price := currentPrice
		if price <= 0 && len(closes) == 1 {
			price = closes[0]
		}
		return Default(price, timeframe)
	}

	fit := features.LinearRegression(closes)
	vol := features.StdDev(features.SimpleReturns(closes))
	last := closes[len(closes)-1]
	target := last * (1 + fit.Slope*slopeWeight)

	pred := models.Prediction{
		TargetPrice:      target,
		Timeframe:        timeframe,
		Probability:      clamp01(fit.R2 * (1 - vol)),
		SupportLevels:    []float64{},
		ResistanceLevels: []float64{},
		Trend:            trend(fit.Slope, features.Mean(closes)),
		Slope:            fit.Slope,
		R2:               fit.R2,
		Volatility:       vol,
	}
	if last != 0 {
		pred.ExpectedMovePct = (target - last) / last * 100
	}
	for _, m := range patterns {
		switch {
		case m.Type == models.PatternSupport && m.Level > 0 && m.Level < last:
			pred.SupportLevels = append(pred.SupportLevels, m.Level)
		case m.Type == models.PatternResistance && m.Level > last:
			pred.ResistanceLevels = append(pred.ResistanceLevels, m.Level)
		}
	}
	return pred
}

// Default is the neutral record centred on price with ±10% bands.
func Default(price float64, timeframe string) models.Prediction {
	return models.Prediction{
		TargetPrice:      price,
		Timeframe:        timeframe,
		Probability:      defaultProb,
		SupportLevels:    []float64{price * (1 - defaultBand)},
		ResistanceLevels: []float64{price * (1 + defaultBand)},
		Trend:            models.TrendSideways,
		IsDefault:        true,
	}
}

func trend(slope, mean float64) models.Trend {
	if mean == 0 {
		return models.TrendSideways
	}
	switch rel := slope / mean; {
	case rel > trendSlope:
		return models.TrendUp
	case rel < -trendSlope:
		return models.TrendDown
	}
	return models.TrendSideways
}

func clamp01(x float64) float64 {
	switch {
	case x < 0:
		return 0
	case x > 1:
		return 1
	}
	return x
}
