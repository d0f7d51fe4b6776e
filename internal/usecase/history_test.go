package usecase

import (
	"context"
	"testing"

	"MarketLens/internal/domain/models"
	domrepo "MarketLens/internal/domain/repository"
)

func TestGetHistoryMergesByRank(t *testing.T) {
	orch := newTestOrchestrator()
	a := &fakeHistory{name: "a", series: daily(20, 100)}
	b := &fakeHistory{name: "b", series: daily(40, 500)}
	uc := newTestHistory(orch, HistoryEntry{Provider: b, Rank: 2}, HistoryEntry{Provider: a, Rank: 1})

	res, err := uc.GetHistory(context.Background(), GetHistoryParams{Symbol: "aapl", Class: models.AssetStock, Days: 90})
	if err != nil {
		t.Fatalf("GetHistory: %v", err)
	}
	if res.Provenance != models.ProvenanceLive {
		t.Fatalf("provenance=%s", res.Provenance)
	}
	if len(res.Series) != 40 {
		t.Fatalf("points=%d want 40", len(res.Series))
	}
	if !res.Series.Monotonic() {
		t.Fatalf("series not strictly increasing")
	}
	if res.Series[0].Close != 500 {
		t.Errorf("first close=%v want 500 from b", res.Series[0].Close)
	}
	if last, _ := res.Series.Last(); last.Close != 119 {
		t.Errorf("last close=%v want 119 from a", last.Close)
	}
	if len(res.Sources) != 2 || res.Sources[0].Source != "a" {
		t.Errorf("sources=%+v", res.Sources)
	}
	if b.calls.Load() != 1 || a.calls.Load() != 1 {
		t.Errorf("calls a=%d b=%d", a.calls.Load(), b.calls.Load())
	}
}

func TestGetHistoryBroadenedPass(t *testing.T) {
	orch := newTestOrchestrator()
	short := &fakeHistory{name: "short", series: daily(5, 100)}
	failing := &fakeHistory{name: "failing", err: errDown}
	wh := &fakeHistory{name: "warehouse", series: daily(30, 50)}
	uc := newTestHistory(orch,
		HistoryEntry{Provider: short, Rank: 1},
		HistoryEntry{Provider: failing, Rank: 2},
		HistoryEntry{Provider: wh, Rank: 5, Broadened: true},
	)

	res, err := uc.GetHistory(context.Background(), GetHistoryParams{Symbol: "MSFT", Days: 30})
	if err != nil {
		t.Fatalf("GetHistory: %v", err)
	}
	if res.Provenance != models.ProvenanceLive {
		t.Fatalf("provenance=%s want live", res.Provenance)
	}
	if len(res.Series) != 30 {
		t.Fatalf("points=%d want 30", len(res.Series))
	}
	if last, _ := res.Series.Last(); last.Close != 104 {
		t.Errorf("last close=%v want 104 from the primary source", last.Close)
	}
	if wh.calls.Load() != 1 {
		t.Fatalf("broadened provider calls=%d want 1", wh.calls.Load())
	}
	if q := wh.lastQ.Load().(domrepo.HistoryQuery); q.Days != 60 {
		t.Errorf("broadened days=%d want 60", q.Days)
	}
	if failing.calls.Load() != 2 || short.calls.Load() != 1 {
		t.Errorf("calls failing=%d short=%d, want 2 and 1", failing.calls.Load(), short.calls.Load())
	}
	broadened := 0
	for _, s := range res.Sources {
		if s.Broadened {
			broadened++
		}
	}
	if broadened != 2 {
		t.Errorf("broadened reports=%d want 2", broadened)
	}
}

func TestGetHistoryAllFailIsSynthetic(t *testing.T) {
	orch := newTestOrchestrator()
	uc := newTestHistory(orch,
		HistoryEntry{Provider: &fakeHistory{name: "a", err: errDown}, Rank: 1},
		HistoryEntry{Provider: &fakeHistory{name: "b", err: errDown}, Rank: 2},
	)
	res, err := uc.GetHistory(context.Background(), GetHistoryParams{Symbol: "ZZZ", Days: 90})
	if err != nil {
		t.Fatalf("GetHistory: %v", err)
	}
	if res.Provenance != models.ProvenanceSynthetic {
		t.Fatalf("provenance=%s want synthetic", res.Provenance)
	}
	if len(res.Series) != 90 {
		t.Fatalf("points=%d want 90", len(res.Series))
	}
	for _, c := range res.Series {
		if !c.Valid() {
			t.Fatalf("invalid synthetic candle %+v", c)
		}
	}
	for _, s := range res.Sources {
		if s.Error == "" {
			t.Errorf("source %s reported no error", s.Source)
		}
	}
}

func TestGetHistoryRequiresSymbol(t *testing.T) {
	uc := newTestHistory(newTestOrchestrator())
	if _, err := uc.GetHistory(context.Background(), GetHistoryParams{Symbol: "  "}); err == nil {
		t.Fatalf("expected error for empty symbol")
	}
}
