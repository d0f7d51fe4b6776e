package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"MarketLens/internal/domain/models"
	domrepo "MarketLens/internal/domain/repository"
	"MarketLens/internal/service/ratelimit"
	applogger "MarketLens/pkg/logger"
)

// ErrThrottled is returned for a call rejected by the local token bucket.
var ErrThrottled = errors.New("provider throttled locally")

// Entry registers one adapter. Lower Rank is more reliable. Broadened entries only run in the
// second pass. RPS/Burst bound calls per provider; zero Burst disables the bucket.
type Entry[P any] struct {
	Provider  P
	Rank      int
	Broadened bool
	RPS       float64
	Burst     float64
}

type (
	HistoryEntry = Entry[domrepo.HistoryProvider]
	QuoteEntry   = Entry[domrepo.QuoteProvider]
	NewsEntry    = Entry[domrepo.NewsProvider]
	OnChainEntry = Entry[domrepo.OnChainProvider]
)

// SortEntries orders a registry by rank, keeping the configured order for ties.
func SortEntries[P any](entries []Entry[P]) {
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Rank < entries[j].Rank })
}

// Outcome is one settled call.
type Outcome[T any] struct {
	Source  string
	Rank    int
	Value   T
	Err     error
	Elapsed time.Duration
}

func (o Outcome[T]) OK() bool { return o.Err == nil }

type call[T any] struct {
	name  string
	rank  int
	rps   float64
	burst float64
	fn    func(ctx context.Context) (T, error)
}

// Orchestrator runs adapter calls concurrently and waits for every one of them.
type Orchestrator struct {
	timeout time.Duration
	limiter *ratelimit.Limiter
	metrics domrepo.Metrics
	l       *applogger.Logger
}

func NewOrchestrator(timeout time.Duration, limiter *ratelimit.Limiter, metrics domrepo.Metrics, l *applogger.Logger) *Orchestrator {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if limiter == nil {
		limiter = ratelimit.New()
	}
	if l == nil {
		l = applogger.NewNop()
	}
	return &Orchestrator{timeout: timeout, limiter: limiter, metrics: metrics, l: l}
}

// settleAll starts every call in its own goroutine with its own deadline and returns all
// outcomes in input order. Errors and panics become failed outcomes.
func settleAll[T any](ctx context.Context, o *Orchestrator, kind, symbol string, calls []call[T]) []Outcome[T] {
	out := make([]Outcome[T], len(calls))
	if len(calls) == 0 {
		return out
	}

	type item struct {
		idx int
		res Outcome[T]
	}
	ch := make(chan item, len(calls))
	var wg sync.WaitGroup

	for i, c := range calls {
		wg.Add(1)
		go func(i int, c call[T]) {
			defer wg.Done()
			res := Outcome[T]{Source: c.name, Rank: c.rank}
			if !o.limiter.Allow(kind+":"+c.name, c.burst, c.rps) {
				res.Err = ErrThrottled
				ch <- item{i, res}
				return
			}
			cctx, cancel := context.WithTimeout(ctx, o.timeout)
			defer cancel()
			start := time.Now()
			res.Value, res.Err = invoke(cctx, c.fn)
			res.Elapsed = time.Since(start)
			ch <- item{i, res}
		}(i, c)
	}

	go func() { wg.Wait(); close(ch) }()

	for it := range ch {
		out[it.idx] = it.res
		r := it.res
		if o.metrics != nil && !errors.Is(r.Err, ErrThrottled) {
			o.metrics.RecordProviderCall(r.Source, kind, r.Err == nil, r.Elapsed.Seconds())
		}
		if r.Err != nil {
			o.l.Warn("provider call failed",
				applogger.String("provider", r.Source),
				applogger.String("symbol", symbol),
				applogger.String("kind", kind),
				applogger.Error(r.Err),
			)
		}
	}
	return out
}

// invoke runs fn and returns when it finishes or ctx ends, whichever is first, so an adapter that
// ignores its context cannot hold the join past its deadline.
func invoke[T any](ctx context.Context, fn func(context.Context) (T, error)) (T, error) {
	type res struct {
		v   T
		err error
	}
	ch := make(chan res, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- res{err: fmt.Errorf("panic: %v", r)}
			}
		}()
		v, err := fn(ctx)
		ch <- res{v: v, err: err}
	}()
	select {
	case r := <-ch:
		return r.v, r.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// FirstSuccessful returns the first successful outcome's value in the given order, else the
// synthesized value. ok reports whether a live value was found.
func FirstSuccessful[T any](outs []Outcome[T], synthesize func() T) (v T, source string, ok bool) {
	for _, o := range outs {
		if o.OK() {
			return o.Value, o.Source, true
		}
	}
	return synthesize(), "", false
}

// History calls every eligible history adapter for q.
func (o *Orchestrator) History(ctx context.Context, q domrepo.HistoryQuery, entries []HistoryEntry) []models.ProviderResult {
	calls := make([]call[models.Series], 0, len(entries))
	for _, e := range entries {
		p := e.Provider
		if !p.Supports(q.Class) {
			continue
		}
		calls = append(calls, call[models.Series]{
			name: p.Name(), rank: e.Rank, rps: e.RPS, burst: e.Burst,
			fn: func(ctx context.Context) (models.Series, error) { return p.FetchHistory(ctx, q) },
		})
	}
	outs := settleAll(ctx, o, "history", q.Symbol, calls)
	results := make([]models.ProviderResult, len(outs))
	for i, r := range outs {
		results[i] = models.ProviderResult{Source: r.Source, Rank: r.Rank, Series: r.Value, Err: r.Err, Elapsed: r.Elapsed}
	}
	return results
}

// Quotes calls every eligible quote adapter; outcomes keep registry order.
func (o *Orchestrator) Quotes(ctx context.Context, symbol string, class models.AssetClass, entries []QuoteEntry) []Outcome[models.Asset] {
	calls := make([]call[models.Asset], 0, len(entries))
	for _, e := range entries {
		p := e.Provider
		if !p.Supports(class) {
			continue
		}
		calls = append(calls, call[models.Asset]{
			name: p.Name(), rank: e.Rank, rps: e.RPS, burst: e.Burst,
			fn: func(ctx context.Context) (models.Asset, error) { return p.FetchQuote(ctx, symbol, class) },
		})
	}
	return settleAll(ctx, o, "quote", symbol, calls)
}

// News calls every news adapter.
func (o *Orchestrator) News(ctx context.Context, q domrepo.NewsQuery, entries []NewsEntry) []Outcome[[]models.NewsItem] {
	calls := make([]call[[]models.NewsItem], 0, len(entries))
	for _, e := range entries {
		p := e.Provider
		calls = append(calls, call[[]models.NewsItem]{
			name: p.Name(), rank: e.Rank, rps: e.RPS, burst: e.Burst,
			fn: func(ctx context.Context) ([]models.NewsItem, error) { return p.FetchNews(ctx, q) },
		})
	}
	return settleAll(ctx, o, "news", q.Symbol, calls)
}

// OnChain calls every on-chain adapter.
func (o *Orchestrator) OnChain(ctx context.Context, symbol string, entries []OnChainEntry) []Outcome[models.OnChainMetrics] {
	calls := make([]call[models.OnChainMetrics], 0, len(entries))
	for _, e := range entries {
		p := e.Provider
		calls = append(calls, call[models.OnChainMetrics]{
			name: p.Name(), rank: e.Rank, rps: e.RPS, burst: e.Burst,
			fn: func(ctx context.Context) (models.OnChainMetrics, error) { return p.FetchOnChain(ctx, symbol) },
		})
	}
	return settleAll(ctx, o, "onchain", symbol, calls)
}
