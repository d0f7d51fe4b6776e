package models

import "time"

// Analysis is the full pipeline output for one request.
type Analysis struct {
	RequestID   string          `json:"request_id"`
	Symbol      string          `json:"symbol"`
	Class       AssetClass      `json:"asset_class"`
	Timeframe   string          `json:"timeframe"`
	Series      Series          `json:"series"`
	SMA         []SMAPoint      `json:"sma"`
	Indicators  []Indicator     `json:"indicators"`
	Patterns    []PatternMatch  `json:"patterns"`
	Prediction  Prediction      `json:"prediction"`
	Quote       Asset           `json:"quote"`
	News        []NewsItem      `json:"news,omitempty"`
	OnChain     *OnChainMetrics `json:"on_chain,omitempty"`
	Provenance  Provenance      `json:"provenance"`
	Sources     []SourceReport  `json:"sources"`
	GeneratedAt time.Time       `json:"generated_at"`
}

// SeriesResult is the reconciled series with its provenance, without analytics.
type SeriesResult struct {
	Symbol     string         `json:"symbol"`
	Class      AssetClass     `json:"asset_class"`
	Timeframe  string         `json:"timeframe"`
	Series     Series         `json:"series"`
	SMA        []SMAPoint     `json:"sma"`
	Provenance Provenance     `json:"provenance"`
	Sources    []SourceReport `json:"sources"`
}
