package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"MarketLens/internal/domain/models"
	domrepo "MarketLens/internal/domain/repository"
	"MarketLens/internal/service/ratelimit"
	pkgmetrics "MarketLens/pkg/metrics"
)

func TestHistorySettlesAllInRegistryOrder(t *testing.T) {
	orch := newTestOrchestrator()
	slow := &fakeHistory{name: "slow", delay: 5 * time.Second, series: daily(5, 1)}
	bad := &fakeHistory{name: "bad", panics: true}
	good := &fakeHistory{name: "good", series: daily(12, 10)}
	stockOnly := &fakeHistory{name: "stock-only", classes: []models.AssetClass{models.AssetStock}}

	start := time.Now()
	res := orch.History(context.Background(), domrepo.HistoryQuery{Symbol: "BTC", Class: models.AssetCrypto}, []HistoryEntry{
		{Provider: slow, Rank: 1},
		{Provider: bad, Rank: 2},
		{Provider: stockOnly, Rank: 3},
		{Provider: good, Rank: 4},
	})
	if time.Since(start) > 2*time.Second {
		t.Fatalf("join waited on the slow adapter past its timeout")
	}
	if len(res) != 3 {
		t.Fatalf("results=%d want 3 (ineligible adapter skipped)", len(res))
	}
	if stockOnly.calls.Load() != 0 {
		t.Fatalf("ineligible adapter was called")
	}
	want := []string{"slow", "bad", "good"}
	for i, r := range res {
		if r.Source != want[i] {
			t.Fatalf("result %d from %s want %s", i, r.Source, want[i])
		}
	}
	if !errors.Is(res[0].Err, context.DeadlineExceeded) {
		t.Errorf("slow adapter err=%v want deadline exceeded", res[0].Err)
	}
	if res[1].Err == nil {
		t.Errorf("panicking adapter should fail")
	}
	if !res[2].OK() || len(res[2].Series) != 12 || res[2].Rank != 4 {
		t.Errorf("good adapter result=%+v", res[2])
	}
}

func TestInvokeReturnsWhenAdapterIgnoresContext(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	block := make(chan struct{})
	defer close(block)
	_, err := invoke(ctx, func(context.Context) (int, error) {
		<-block
		return 1, nil
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err=%v want deadline exceeded", err)
	}
}

func TestLocalThrottleFailsFast(t *testing.T) {
	now := time.Unix(0, 0)
	lim := ratelimit.New().WithClock(func() time.Time { return now })
	orch := NewOrchestrator(time.Second, lim, pkgmetrics.Nop{}, nil)
	p := &fakeHistory{name: "p", series: daily(3, 1)}
	entries := []HistoryEntry{{Provider: p, Rank: 1, RPS: 1, Burst: 1}}
	q := domrepo.HistoryQuery{Symbol: "AAPL", Class: models.AssetStock}

	if res := orch.History(context.Background(), q, entries); !res[0].OK() {
		t.Fatalf("first call throttled: %v", res[0].Err)
	}
	res := orch.History(context.Background(), q, entries)
	if !errors.Is(res[0].Err, ErrThrottled) {
		t.Fatalf("err=%v want ErrThrottled", res[0].Err)
	}
	if p.calls.Load() != 1 {
		t.Fatalf("throttled call reached the adapter")
	}
}

func TestFirstSuccessful(t *testing.T) {
	outs := []Outcome[int]{
		{Source: "a", Err: errDown},
		{Source: "b", Value: 2},
		{Source: "c", Value: 3},
	}
	synthCalled := false
	v, src, ok := FirstSuccessful(outs, func() int { synthCalled = true; return -1 })
	if v != 2 || src != "b" || !ok || synthCalled {
		t.Fatalf("got %d %s %v synth=%v", v, src, ok, synthCalled)
	}

	v, src, ok = FirstSuccessful(outs[:1], func() int { return -1 })
	if v != -1 || src != "" || ok {
		t.Fatalf("fallback got %d %q %v", v, src, ok)
	}
}

func TestSortEntriesKeepsTieOrder(t *testing.T) {
	a := &fakeQuote{name: "a"}
	b := &fakeQuote{name: "b"}
	c := &fakeQuote{name: "c"}
	entries := []QuoteEntry{{Provider: a, Rank: 2}, {Provider: b, Rank: 1}, {Provider: c, Rank: 2}}
	SortEntries(entries)
	got := entries[0].Provider.Name() + entries[1].Provider.Name() + entries[2].Provider.Name()
	if got != "bac" {
		t.Fatalf("order=%s want bac", got)
	}
}
