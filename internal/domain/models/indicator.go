package models

import "time"

// Signal is the direction an indicator or pattern points to.
type Signal string

const (
	Bullish Signal = "bullish"
	Bearish Signal = "bearish"
	Neutral Signal = "neutral"
)

type Indicator struct {
	Name        string  `json:"name"`
	Value       float64 `json:"value"`
	Signal      Signal  `json:"signal"`
	Description string  `json:"description"`
}

// SMAPoint aligns the moving averages with the candle of the same date. Zero means undefined.
type SMAPoint struct {
	Date  time.Time `json:"date"`
	SMA20 float64   `json:"sma20"`
	SMA50 float64   `json:"sma50"`
}
