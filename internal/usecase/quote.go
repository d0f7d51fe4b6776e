package usecase

import (
	"context"
	"fmt"

	"MarketLens/internal/domain/models"
	"MarketLens/pkg/util"
)

// QuoteUseCase resolves a snapshot from the quote registry, falling back to the series.
type QuoteUseCase struct {
	orch    *Orchestrator
	entries []QuoteEntry
	history *HistoryUseCase
}

func NewQuoteUseCase(orch *Orchestrator, entries []QuoteEntry, history *HistoryUseCase) *QuoteUseCase {
	sorted := append([]QuoteEntry(nil), entries...)
	SortEntries(sorted)
	return &QuoteUseCase{orch: orch, entries: sorted, history: history}
}

type GetQuoteResult struct {
	Quote      models.Asset
	Provenance models.Provenance
}

// GetQuote asks every quote adapter. When none answers, the quote is derived from the last candle
// of a freshly reconciled 30 day series and carries that series' provenance.
func (uc *QuoteUseCase) GetQuote(ctx context.Context, symbol string, class models.AssetClass) (*GetQuoteResult, error) {
	symbol = util.NormalizeSymbol(symbol)
	if symbol == "" {
		return nil, fmt.Errorf("symbol required")
	}
	if class != models.AssetCrypto {
		class = models.AssetStock
	}
	outs := uc.orch.Quotes(ctx, symbol, class, uc.entries)
	prov := models.ProvenanceLive
	q, _, _ := FirstSuccessful(outs, func() models.Asset {
		h, err := uc.history.GetHistory(ctx, GetHistoryParams{Symbol: symbol, Class: class, Days: 30})
		if err != nil {
			return models.Asset{Symbol: symbol, Class: class, Derived: true}
		}
		prov = h.Provenance
		return DeriveQuote(symbol, class, h.Series, string(h.Provenance))
	})
	return &GetQuoteResult{Quote: q, Provenance: prov}, nil
}

// DeriveQuote builds a snapshot from the last two candles of s.
func DeriveQuote(symbol string, class models.AssetClass, s models.Series, source string) models.Asset {
	a := models.Asset{Symbol: symbol, Class: class, Source: source, Derived: true}
	last, ok := s.Last()
	if !ok {
		return a
	}
	a.Price = last.Close
	a.Volume = last.Volume
	a.AsOf = last.Date
	if len(s) > 1 {
		prev := s[len(s)-2].Close
		a.Change = last.Close - prev
		if prev != 0 {
			a.ChangePct = a.Change / prev * 100
		}
	}
	return a
}
