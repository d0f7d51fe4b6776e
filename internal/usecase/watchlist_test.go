package usecase

import (
	"context"
	"testing"

	"MarketLens/internal/domain/models"
)

func TestParseWatchlist(t *testing.T) {
	got := ParseWatchlist(" aapl, BTC:crypto ,msft:stock,,AAPL, eth:CRYPTO, x:bond")
	want := []WatchItem{
		{"AAPL", models.AssetStock},
		{"BTC", models.AssetCrypto},
		{"MSFT", models.AssetStock},
		{"ETH", models.AssetCrypto},
		{"X", models.AssetStock},
	}
	if len(got) != len(want) {
		t.Fatalf("got %+v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("item %d = %+v want %+v", i, got[i], want[i])
		}
	}
}

func TestWatchlistRefresh(t *testing.T) {
	orch := newTestOrchestrator()
	hist := newTestHistory(orch, HistoryEntry{Provider: &fakeHistory{name: "h", err: errDown}, Rank: 1})
	live := &fakeQuote{name: "live", price: 10}
	quotes := NewQuoteUseCase(orch, []QuoteEntry{{Provider: live, Rank: 1}}, hist)
	uc := NewWatchlistUseCase(ParseWatchlist("MSFT,AAPL"), quotes, nil, nil)

	if len(uc.Snapshot()) != 0 {
		t.Fatalf("snapshot before refresh should be empty")
	}
	uc.Refresh(context.Background())
	snap := uc.Snapshot()
	if len(snap) != 2 || snap[0].Symbol != "AAPL" || snap[1].Symbol != "MSFT" {
		t.Fatalf("snapshot=%+v", snap)
	}
	for _, e := range snap {
		if e.Price != 10 || e.Provenance != models.ProvenanceLive || e.UpdatedAt.IsZero() {
			t.Errorf("entry=%+v", e)
		}
	}
}

func TestQuoteFallsBackToSeries(t *testing.T) {
	orch := newTestOrchestrator()
	hist := newTestHistory(orch, HistoryEntry{Provider: &fakeHistory{name: "h", series: daily(30, 100)}, Rank: 1})
	quotes := NewQuoteUseCase(orch, []QuoteEntry{{Provider: &fakeQuote{name: "q", err: errDown}, Rank: 1}}, hist)

	res, err := quotes.GetQuote(context.Background(), "aapl", models.AssetStock)
	if err != nil {
		t.Fatalf("GetQuote: %v", err)
	}
	q := res.Quote
	if !q.Derived || q.Price != 129 || q.Change != 1 || res.Provenance != models.ProvenanceLive {
		t.Fatalf("quote=%+v provenance=%s", q, res.Provenance)
	}
}
