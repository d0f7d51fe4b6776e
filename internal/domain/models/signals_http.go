package models

// Requests for the analysis HTTP endpoints and the kafka request topic.

type AnalysisRequest struct {
	Symbol    string `query:"symbol" json:"symbol" validate:"required,max=20"`
	Asset     string `query:"asset" json:"asset" default:"stock" validate:"oneof=stock crypto"`
	Timeframe string `query:"timeframe" json:"timeframe" default:"90d" validate:"oneof=30d 90d 1y"`
	News      bool   `query:"news" json:"news"`
}

type QuoteRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required,max=20"`
	Asset  string `query:"asset" json:"asset" default:"stock" validate:"oneof=stock crypto"`
}

type NewsRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required,max=20"`
	Asset  string `query:"asset" json:"asset" default:"stock" validate:"oneof=stock crypto"`
}
