package usecase

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"MarketLens/internal/domain/models"
	domrepo "MarketLens/internal/domain/repository"
	"MarketLens/internal/services/indicators"
	"MarketLens/internal/services/patterns"
	"MarketLens/internal/services/prediction"
	"MarketLens/internal/services/sentiment"
	pkgmetrics "MarketLens/pkg/metrics"
)

var testNow = time.Date(2024, 6, 30, 15, 0, 0, 0, time.UTC)

var errDown = errors.New("upstream down")

type fakeHistory struct {
	name    string
	classes []models.AssetClass
	series  models.Series
	err     error
	delay   time.Duration
	panics  bool
	calls   atomic.Int32
	lastQ   atomic.Value
}

func (f *fakeHistory) Name() string { return f.name }

func (f *fakeHistory) Supports(c models.AssetClass) bool {
	if len(f.classes) == 0 {
		return true
	}
	for _, x := range f.classes {
		if x == c {
			return true
		}
	}
	return false
}

func (f *fakeHistory) FetchHistory(ctx context.Context, q domrepo.HistoryQuery) (models.Series, error) {
	f.calls.Add(1)
	f.lastQ.Store(q)
	if f.panics {
		panic("boom")
	}
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.series, nil
}

type fakeQuote struct {
	name  string
	price float64
	err   error
	calls atomic.Int32
}

func (f *fakeQuote) Name() string                    { return f.name }
func (f *fakeQuote) Supports(models.AssetClass) bool { return true }

func (f *fakeQuote) FetchQuote(_ context.Context, symbol string, class models.AssetClass) (models.Asset, error) {
	f.calls.Add(1)
	if f.err != nil {
		return models.Asset{}, f.err
	}
	return models.Asset{Symbol: symbol, Class: class, Price: f.price, Source: f.name}, nil
}

type fakeNews struct {
	name  string
	items []models.NewsItem
	err   error
	calls atomic.Int32
}

func (f *fakeNews) Name() string { return f.name }

func (f *fakeNews) FetchNews(context.Context, domrepo.NewsQuery) ([]models.NewsItem, error) {
	f.calls.Add(1)
	return f.items, f.err
}

type fakeOnChain struct {
	m   models.OnChainMetrics
	err error
}

func (f *fakeOnChain) Name() string { return "onchain" }

func (f *fakeOnChain) FetchOnChain(context.Context, string) (models.OnChainMetrics, error) {
	return f.m, f.err
}

type capturePublisher struct {
	got []*models.Analysis
	err error
}

func (p *capturePublisher) PublishAnalysis(_ context.Context, a *models.Analysis) error {
	p.got = append(p.got, a)
	return p.err
}

func (p *capturePublisher) Close() error { return nil }

// daily builds n valid candles ending on the day of testNow, closes starting at base.
func daily(n int, base float64) models.Series {
	end := time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)
	out := make(models.Series, n)
	for i := 0; i < n; i++ {
		c := base + float64(i)
		out[i] = models.Candle{
			Date:   end.AddDate(0, 0, i-n+1),
			Open:   c,
			High:   c + 1,
			Low:    c - 1,
			Close:  c,
			Volume: 1000,
		}
	}
	return out
}

func newTestOrchestrator() *Orchestrator {
	return NewOrchestrator(200*time.Millisecond, nil, pkgmetrics.Nop{}, nil)
}

func newTestHistory(orch *Orchestrator, entries ...HistoryEntry) *HistoryUseCase {
	return NewHistoryUseCase(orch, entries, 10, pkgmetrics.Nop{}, nil).WithClock(func() time.Time { return testNow })
}

func newTestAnalysis(orch *Orchestrator, hist *HistoryUseCase, quotes []QuoteEntry, news *NewsUseCase, onChain []OnChainEntry) *AnalysisUseCase {
	return NewAnalysisUseCase(AnalysisDeps{
		Orchestrator: orch,
		History:      hist,
		Quotes:       quotes,
		News:         news,
		OnChain:      onChain,
		Indicators:   indicators.New(),
		Patterns:     patterns.New(),
		Fuser:        sentiment.NewFuser(0),
		Predictor:    prediction.New(),
		Metrics:      pkgmetrics.Nop{},
	}).WithClock(func() time.Time { return testNow })
}
