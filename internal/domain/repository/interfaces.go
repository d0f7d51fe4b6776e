package repository

import (
	"context"
	"time"

	"MarketLens/internal/domain/models"
)

// HistoryQuery asks an adapter for daily candles covering [From, To].
type HistoryQuery struct {
	Symbol string
	Class  models.AssetClass
	Days   int
	From   time.Time
	To     time.Time
}

// NewsQuery asks for headlines published after Since.
type NewsQuery struct {
	Symbol string
	Class  models.AssetClass
	Since  time.Time
	Limit  int
}

// HistoryProvider returns daily candles. Implementations skip rows missing any OHLC value and
// report every other problem as an error.
type HistoryProvider interface {
	Name() string
	Supports(class models.AssetClass) bool
	FetchHistory(ctx context.Context, q HistoryQuery) (models.Series, error)
}

type QuoteProvider interface {
	Name() string
	Supports(class models.AssetClass) bool
	FetchQuote(ctx context.Context, symbol string, class models.AssetClass) (models.Asset, error)
}

type NewsProvider interface {
	Name() string
	FetchNews(ctx context.Context, q NewsQuery) ([]models.NewsItem, error)
}

type OnChainProvider interface {
	Name() string
	FetchOnChain(ctx context.Context, symbol string) (models.OnChainMetrics, error)
}

// Publisher emits completed analyses to downstream consumers.
type Publisher interface {
	PublishAnalysis(ctx context.Context, a *models.Analysis) error
	Close() error
}

type Metrics interface {
	RecordProviderCall(provider, kind string, ok bool, seconds float64)
	RecordFallback(class string)
	RecordSeriesPoints(class string, n int)
	RecordError(kind string)
	RecordLastPrice(symbol string, price float64)
	RecordLatency(op string, seconds float64)
}
