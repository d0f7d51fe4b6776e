package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"MarketLens/internal/domain/models"
	domrepo "MarketLens/internal/domain/repository"
	domsvc "MarketLens/internal/domain/service"
	applogger "MarketLens/pkg/logger"
	"MarketLens/pkg/util"

	"github.com/google/uuid"
)

// AnalysisUseCase runs the whole pipeline for one symbol.
type AnalysisUseCase struct {
	orch       *Orchestrator
	history    *HistoryUseCase
	quotes     []QuoteEntry
	news       *NewsUseCase
	onChain    []OnChainEntry
	indicators domsvc.IndicatorEngine
	patterns   domsvc.PatternDetector
	fuser      domsvc.SentimentFuser
	predictor  domsvc.Predictor
	metrics    domrepo.Metrics
	l          *applogger.Logger
	now        func() time.Time
}

type AnalysisDeps struct {
	Orchestrator *Orchestrator
	History      *HistoryUseCase
	Quotes       []QuoteEntry
	News         *NewsUseCase
	OnChain      []OnChainEntry
	Indicators   domsvc.IndicatorEngine
	Patterns     domsvc.PatternDetector
	Fuser        domsvc.SentimentFuser
	Predictor    domsvc.Predictor
	Metrics      domrepo.Metrics
	Logger       *applogger.Logger
}

func NewAnalysisUseCase(d AnalysisDeps) *AnalysisUseCase {
	l := d.Logger
	if l == nil {
		l = applogger.NewNop()
	}
	quotes := append([]QuoteEntry(nil), d.Quotes...)
	SortEntries(quotes)
	onChain := append([]OnChainEntry(nil), d.OnChain...)
	SortEntries(onChain)
	return &AnalysisUseCase{
		orch:       d.Orchestrator,
		history:    d.History,
		quotes:     quotes,
		news:       d.News,
		onChain:    onChain,
		indicators: d.Indicators,
		patterns:   d.Patterns,
		fuser:      d.Fuser,
		predictor:  d.Predictor,
		metrics:    d.Metrics,
		l:          l,
		now:        time.Now,
	}
}

// WithClock replaces the time source.
func (uc *AnalysisUseCase) WithClock(now func() time.Time) *AnalysisUseCase {
	uc.now = now
	return uc
}

type AnalyzeParams struct {
	RequestID   string
	Symbol      string
	Class       models.AssetClass
	Timeframe   domrepo.Timeframe
	IncludeNews bool
}

func (p *AnalyzeParams) normalize() error {
	p.Symbol = util.NormalizeSymbol(p.Symbol)
	if p.Symbol == "" {
		return fmt.Errorf("symbol required")
	}
	if p.Class != models.AssetCrypto {
		p.Class = models.AssetStock
	}
	p.Timeframe = domrepo.NormalizeTimeframe(string(p.Timeframe))
	if p.RequestID == "" {
		p.RequestID = uuid.NewString()
	}
	return nil
}

// Analyze resolves to a complete analysis for any valid params; provider failures only show up
// in Sources and, when nothing usable came back, in a synthetic provenance.
func (uc *AnalysisUseCase) Analyze(ctx context.Context, p AnalyzeParams) (*models.Analysis, error) {
	if err := p.normalize(); err != nil {
		return nil, err
	}
	start := time.Now()

	var (
		wg      sync.WaitGroup
		hist    *GetHistoryResult
		histErr error
		quotes  []Outcome[models.Asset]
		news    []models.NewsItem
		onChain *models.OnChainMetrics
	)
	wg.Add(3)
	go func() {
		defer wg.Done()
		hist, histErr = uc.history.GetHistory(ctx, GetHistoryParams{Symbol: p.Symbol, Class: p.Class, Days: p.Timeframe.Days()})
	}()
	go func() {
		defer wg.Done()
		quotes = uc.orch.Quotes(ctx, p.Symbol, p.Class, uc.quotes)
	}()
	go func() {
		defer wg.Done()
		if uc.news != nil {
			news, _ = uc.news.GetNews(ctx, p.Symbol, p.Class)
		}
	}()
	if p.Class == models.AssetCrypto && len(uc.onChain) > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			outs := uc.orch.OnChain(ctx, p.Symbol, uc.onChain)
			if m, _, ok := FirstSuccessful(outs, func() models.OnChainMetrics { return models.OnChainMetrics{} }); ok {
				onChain = &m
			}
		}()
	}
	wg.Wait()
	if histErr != nil {
		return nil, histErr
	}

	series := hist.Series
	quote, _, _ := FirstSuccessful(quotes, func() models.Asset {
		return DeriveQuote(p.Symbol, p.Class, series, string(hist.Provenance))
	})

	now := uc.now()
	patterns := uc.patterns.Detect(series)
	fused := uc.fuser.Fuse(patterns, news, now)

	a := &models.Analysis{
		RequestID:   p.RequestID,
		Symbol:      p.Symbol,
		Class:       p.Class,
		Timeframe:   string(p.Timeframe),
		Series:      series,
		SMA:         uc.indicators.SMASeries(series),
		Indicators:  uc.indicators.Compute(series, p.Class, onChain),
		Patterns:    fused,
		Prediction:  uc.predictor.Predict(series, fused, string(p.Timeframe), quote.Price),
		Quote:       quote,
		OnChain:     onChain,
		Provenance:  hist.Provenance,
		Sources:     hist.Sources,
		GeneratedAt: now.UTC(),
	}
	if p.IncludeNews {
		a.News = news
	}

	elapsed := time.Since(start)
	if uc.metrics != nil {
		uc.metrics.RecordLatency("analysis", elapsed.Seconds())
		if quote.Price > 0 {
			uc.metrics.RecordLastPrice(p.Symbol, quote.Price)
		}
	}
	uc.l.Info("analysis complete",
		applogger.String("request_id", p.RequestID),
		applogger.String("symbol", p.Symbol),
		applogger.String("provenance", string(a.Provenance)),
		applogger.Int("points", len(series)),
		applogger.Int("patterns", len(fused)),
		applogger.Int64("duration_ms", elapsed.Milliseconds()),
	)
	return a, nil
}

// Series returns the reconciled series and its SMA overlay without analytics.
func (uc *AnalysisUseCase) Series(ctx context.Context, symbol string, class models.AssetClass, tf domrepo.Timeframe) (*models.SeriesResult, error) {
	tf = domrepo.NormalizeTimeframe(string(tf))
	h, err := uc.history.GetHistory(ctx, GetHistoryParams{Symbol: symbol, Class: class, Days: tf.Days()})
	if err != nil {
		return nil, err
	}
	if class != models.AssetCrypto {
		class = models.AssetStock
	}
	return &models.SeriesResult{
		Symbol:     util.NormalizeSymbol(symbol),
		Class:      class,
		Timeframe:  string(tf),
		Series:     h.Series,
		SMA:        uc.indicators.SMASeries(h.Series),
		Provenance: h.Provenance,
		Sources:    h.Sources,
	}, nil
}
