package models

// Trend is the direction of the fitted regression line.
type Trend string

const (
	TrendUp       Trend = "up"
	TrendDown     Trend = "down"
	TrendSideways Trend = "sideways"
)

// Prediction is recomputed for every request. IsDefault marks the neutral fallback built when
// fewer than two closes exist; its numbers are placeholders, not a fit.
type Prediction struct {
	TargetPrice      float64   `json:"target_price"`
	Timeframe        string    `json:"timeframe"`
	Probability      float64   `json:"probability"`
	ExpectedMovePct  float64   `json:"expected_move_pct"`
	SupportLevels    []float64 `json:"support_levels"`
	ResistanceLevels []float64 `json:"resistance_levels"`
	Trend            Trend     `json:"trend"`
	Slope            float64   `json:"slope"`
	R2               float64   `json:"r2"`
	Volatility       float64   `json:"volatility"`
	IsDefault        bool      `json:"is_default"`
}
