package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"MarketLens/internal/domain/models"
	domrepo "MarketLens/internal/domain/repository"
	"MarketLens/internal/service/cache"
	"MarketLens/internal/services/sentiment"
	applogger "MarketLens/pkg/logger"
	"MarketLens/pkg/util"
)

const (
	DefaultNewsTTL   = 30 * time.Minute
	DefaultNewsLimit = 50
)

// NewsUseCase gathers, scores and caches headlines per (symbol, asset class).
type NewsUseCase struct {
	orch    *Orchestrator
	entries []NewsEntry
	cache   cache.BytesCache
	ttl     time.Duration
	window  time.Duration
	limit   int
	l       *applogger.Logger
	now     func() time.Time
}

func NewNewsUseCase(orch *Orchestrator, entries []NewsEntry, c cache.BytesCache, ttl, window time.Duration, l *applogger.Logger) *NewsUseCase {
	if c == nil {
		c = cache.NewTTLCache()
	}
	if ttl <= 0 {
		ttl = DefaultNewsTTL
	}
	if window <= 0 {
		window = sentiment.DefaultWindow
	}
	if l == nil {
		l = applogger.NewNop()
	}
	sorted := append([]NewsEntry(nil), entries...)
	SortEntries(sorted)
	return &NewsUseCase{orch: orch, entries: sorted, cache: c, ttl: ttl, window: window, limit: DefaultNewsLimit, l: l, now: time.Now}
}

// WithClock replaces the time source.
func (uc *NewsUseCase) WithClock(now func() time.Time) *NewsUseCase {
	uc.now = now
	return uc
}

func newsKey(symbol string, class models.AssetClass) string {
	return "news|" + string(class) + "|" + symbol
}

// WithLimit caps the number of returned items.
func (uc *NewsUseCase) WithLimit(n int) *NewsUseCase {
	if n > 0 {
		uc.limit = n
	}
	return uc
}

// GetNews returns scored items, newest first. An empty list is a valid answer; only a missing
// symbol is an error. Results are cached only when at least one adapter answered.
func (uc *NewsUseCase) GetNews(ctx context.Context, symbol string, class models.AssetClass) ([]models.NewsItem, error) {
	symbol = util.NormalizeSymbol(symbol)
	if symbol == "" {
		return nil, fmt.Errorf("symbol required")
	}
	if class != models.AssetCrypto {
		class = models.AssetStock
	}
	key := newsKey(symbol, class)
	if b, ok, err := uc.cache.GetBytes(ctx, key); err != nil {
		uc.l.Warn("news cache read failed", applogger.String("key", key), applogger.Error(err))
	} else if ok {
		var items []models.NewsItem
		if err := json.Unmarshal(b, &items); err == nil {
			return items, nil
		}
	}

	q := domrepo.NewsQuery{Symbol: symbol, Class: class, Since: uc.now().Add(-uc.window), Limit: uc.limit}
	outs := uc.orch.News(ctx, q, uc.entries)

	answered := false
	seen := map[string]bool{}
	items := make([]models.NewsItem, 0)
	for _, o := range outs {
		if !o.OK() {
			continue
		}
		answered = true
		for _, it := range o.Value {
			k := dedupeKey(it)
			if k == "" || seen[k] {
				continue
			}
			seen[k] = true
			items = append(items, sentiment.ScoreItem(it, symbol))
		}
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].Published.After(items[j].Published) })
	if len(items) > uc.limit {
		items = items[:uc.limit]
	}

	if answered {
		if b, err := json.Marshal(items); err == nil {
			if err := uc.cache.SetBytes(ctx, key, b, uc.ttl); err != nil {
				uc.l.Warn("news cache write failed", applogger.String("key", key), applogger.Error(err))
			}
		}
	}
	return items, nil
}

func dedupeKey(it models.NewsItem) string {
	if l := strings.TrimSpace(it.Link); l != "" {
		return "l:" + strings.ToLower(l)
	}
	if t := strings.TrimSpace(it.Title); t != "" {
		return "t:" + strings.ToLower(t)
	}
	return ""
}
