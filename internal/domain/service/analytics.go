package service

import (
	"time"

	"MarketLens/internal/domain/models"
)

// IndicatorEngine computes indicators from a reconciled series.
type IndicatorEngine interface {
	Compute(s models.Series, class models.AssetClass, onChain *models.OnChainMetrics) []models.Indicator
	SMASeries(s models.Series) []models.SMAPoint
}

// PatternDetector scans a series for levels and chart patterns.
type PatternDetector interface {
	Detect(s models.Series) []models.PatternMatch
}

// SentimentFuser adjusts pattern strengths from scored news as of now.
type SentimentFuser interface {
	Fuse(patterns []models.PatternMatch, news []models.NewsItem, now time.Time) []models.PatternMatch
}

// Predictor synthesizes a prediction from closes and detected levels.
type Predictor interface {
	Predict(s models.Series, patterns []models.PatternMatch, timeframe string, currentPrice float64) models.Prediction
}
