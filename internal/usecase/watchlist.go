package usecase

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"MarketLens/internal/domain/models"
	applogger "MarketLens/pkg/logger"
	"MarketLens/pkg/util"
)

// WatchItem is one configured symbol.
type WatchItem struct {
	Symbol string
	Class  models.AssetClass
}

// ParseWatchlist reads "AAPL,BTC:crypto,MSFT:stock". Unknown classes default to stock and
// repeated symbols are kept once.
func ParseWatchlist(s string) []WatchItem {
	var out []WatchItem
	seen := map[WatchItem]bool{}
	for _, part := range strings.Split(s, ",") {
		sym, class, _ := strings.Cut(strings.TrimSpace(part), ":")
		sym = util.NormalizeSymbol(sym)
		if sym == "" {
			continue
		}
		it := WatchItem{Symbol: sym, Class: models.AssetStock}
		if strings.EqualFold(strings.TrimSpace(class), string(models.AssetCrypto)) {
			it.Class = models.AssetCrypto
		}
		if seen[it] {
			continue
		}
		seen[it] = true
		out = append(out, it)
	}
	return out
}

// WatchlistUseCase keeps quote snapshots for a fixed set of symbols. The store is independent of
// the analysis pipeline; it only reads from it.
type WatchlistUseCase struct {
	items  []WatchItem
	quotes *QuoteUseCase
	news   *NewsUseCase
	l      *applogger.Logger
	now    func() time.Time

	mu      sync.RWMutex
	entries map[WatchItem]models.WatchlistEntry
}

func NewWatchlistUseCase(items []WatchItem, quotes *QuoteUseCase, news *NewsUseCase, l *applogger.Logger) *WatchlistUseCase {
	if l == nil {
		l = applogger.NewNop()
	}
	return &WatchlistUseCase{
		items:   items,
		quotes:  quotes,
		news:    news,
		l:       l,
		now:     time.Now,
		entries: make(map[WatchItem]models.WatchlistEntry, len(items)),
	}
}

// Refresh updates every snapshot and warms the news cache. Symbols are refreshed concurrently.
func (uc *WatchlistUseCase) Refresh(ctx context.Context) {
	var wg sync.WaitGroup
	for _, it := range uc.items {
		wg.Add(1)
		go func(it WatchItem) {
			defer wg.Done()
			res, err := uc.quotes.GetQuote(ctx, it.Symbol, it.Class)
			if err != nil {
				uc.l.Warn("watchlist refresh failed", applogger.String("symbol", it.Symbol), applogger.Error(err))
				return
			}
			uc.mu.Lock()
			uc.entries[it] = models.WatchlistEntry{Asset: res.Quote, Provenance: res.Provenance, UpdatedAt: uc.now().UTC()}
			uc.mu.Unlock()
			if uc.news != nil {
				_, _ = uc.news.GetNews(ctx, it.Symbol, it.Class)
			}
		}(it)
	}
	wg.Wait()
	uc.l.Info("watchlist refreshed", applogger.Int("symbols", len(uc.items)))
}

// Snapshot returns the refreshed entries sorted by symbol.
func (uc *WatchlistUseCase) Snapshot() []models.WatchlistEntry {
	uc.mu.RLock()
	out := make([]models.WatchlistEntry, 0, len(uc.entries))
	for _, e := range uc.entries {
		out = append(out, e)
	}
	uc.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].Symbol == out[j].Symbol {
			return out[i].Class < out[j].Class
		}
		return out[i].Symbol < out[j].Symbol
	})
	return out
}
