package usecase

import (
	"context"
	"fmt"
	"time"

	"MarketLens/internal/domain/models"
	domrepo "MarketLens/internal/domain/repository"
	"MarketLens/internal/services/marketdata"
	applogger "MarketLens/pkg/logger"
	"MarketLens/pkg/util"
)

// HistoryUseCase produces one reconciled daily series per request.
type HistoryUseCase struct {
	orch      *Orchestrator
	primary   []HistoryEntry
	broadened []HistoryEntry
	minPoints int
	metrics   domrepo.Metrics
	l         *applogger.Logger
	now       func() time.Time
}

func NewHistoryUseCase(orch *Orchestrator, entries []HistoryEntry, minPoints int, metrics domrepo.Metrics, l *applogger.Logger) *HistoryUseCase {
	if minPoints < 1 {
		minPoints = marketdata.DefaultMinPoints
	}
	if l == nil {
		l = applogger.NewNop()
	}
	uc := &HistoryUseCase{orch: orch, minPoints: minPoints, metrics: metrics, l: l, now: time.Now}
	sorted := append([]HistoryEntry(nil), entries...)
	SortEntries(sorted)
	for _, e := range sorted {
		if e.Broadened {
			uc.broadened = append(uc.broadened, e)
		} else {
			uc.primary = append(uc.primary, e)
		}
	}
	return uc
}

// WithClock replaces the time source.
func (uc *HistoryUseCase) WithClock(now func() time.Time) *HistoryUseCase {
	uc.now = now
	return uc
}

type GetHistoryParams struct {
	Symbol string
	Class  models.AssetClass
	Days   int
}

type GetHistoryResult struct {
	Series     models.Series
	Provenance models.Provenance
	Sources    []models.SourceReport
}

func (p *GetHistoryParams) normalize() error {
	p.Symbol = util.NormalizeSymbol(p.Symbol)
	if p.Symbol == "" {
		return fmt.Errorf("symbol required")
	}
	if p.Class != models.AssetCrypto {
		p.Class = models.AssetStock
	}
	if p.Days <= 0 {
		p.Days = domrepo.DefaultTimeframe().Days()
	}
	return nil
}

// GetHistory never fails once the params are valid: when neither pass yields enough points the
// series is synthetic and the provenance says so.
func (uc *HistoryUseCase) GetHistory(ctx context.Context, p GetHistoryParams) (*GetHistoryResult, error) {
	if err := p.normalize(); err != nil {
		return nil, err
	}
	now := uc.now()
	from, to := marketdata.Window(now, p.Days)
	q := domrepo.HistoryQuery{Symbol: p.Symbol, Class: p.Class, Days: p.Days, From: from, To: now}

	results := uc.orch.History(ctx, q, uc.primary)
	res := &GetHistoryResult{Provenance: models.ProvenanceLive}
	for _, r := range results {
		res.Sources = append(res.Sources, r.Report(false))
	}
	series := marketdata.Merge(results, from, to)

	if len(series) < uc.minPoints {
		wide := q
		wide.Days = 2 * p.Days
		wide.From = util.Cutoff(now, wide.Days)
		retry := uc.broadPass(results)
		if len(retry) > 0 {
			more := uc.orch.History(ctx, wide, retry)
			for _, r := range more {
				res.Sources = append(res.Sources, r.Report(true))
			}
			results = append(results, more...)
			series = marketdata.Merge(results, from, to)
		}
	}

	if len(series) < uc.minPoints {
		uc.l.Warn("history fallback to synthetic",
			applogger.String("symbol", p.Symbol),
			applogger.String("asset_class", string(p.Class)),
			applogger.Int("points", len(series)),
			applogger.Int("min_points", uc.minPoints),
		)
		if uc.metrics != nil {
			uc.metrics.RecordFallback(string(p.Class))
		}
		series = marketdata.Synthetic(p.Symbol, p.Days, now)
		res.Provenance = models.ProvenanceSynthetic
	}

	if uc.metrics != nil {
		uc.metrics.RecordSeriesPoints(string(p.Class), len(series))
	}
	res.Series = series
	return res, nil
}

// broadPass is every broadened entry plus each primary entry that failed or came back empty.
func (uc *HistoryUseCase) broadPass(first []models.ProviderResult) []HistoryEntry {
	failed := make(map[string]bool, len(first))
	for _, r := range first {
		if !r.OK() || len(r.Series) == 0 {
			failed[r.Source] = true
		}
	}
	out := make([]HistoryEntry, 0, len(uc.broadened)+len(failed))
	for _, e := range uc.primary {
		if failed[e.Provider.Name()] {
			out = append(out, e)
		}
	}
	out = append(out, uc.broadened...)
	SortEntries(out)
	return out
}
