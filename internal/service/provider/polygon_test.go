package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	rmodels "github.com/polygon-io/client-go/rest/models"

	"MarketLens/internal/domain/models"
	drepo "MarketLens/internal/domain/repository"
)

func TestAggCandle(t *testing.T) {
	ts := time.Date(2024, 2, 5, 5, 0, 0, 0, time.UTC)
	c, ok := aggCandle(rmodels.Agg{Open: 10, High: 12, Low: 9, Close: 11, Volume: 500, Timestamp: rmodels.Millis(ts)})
	if !ok {
		t.Fatalf("expected candle")
	}
	if !c.Date.Equal(time.Date(2024, 2, 5, 0, 0, 0, 0, time.UTC)) || c.Close != 11 || c.Volume != 500 {
		t.Fatalf("unexpected candle %+v", c)
	}
	if _, ok := aggCandle(rmodels.Agg{Open: 10, High: 12, Low: 9, Timestamp: rmodels.Millis(ts)}); ok {
		t.Fatalf("agg without close must be skipped")
	}
}

func TestPolygonNews(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/reference/news" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("ticker"); got != "AAPL" {
			t.Errorf("ticker = %s", got)
		}
		if r.URL.Query().Get("apiKey") != "k" {
			t.Errorf("api key not sent")
		}
		_, _ = w.Write([]byte(`{"results":[
		  {"title":"Apple breaks out","description":"bullish rally","article_url":"https://x/1","published_utc":"2024-02-05T13:00:00Z","publisher":{"name":"Wire"}},
		  {"title":"","article_url":"https://x/2","published_utc":"2024-02-05T13:00:00Z"},
		  {"title":"No date","article_url":"https://x/3"}
		]}`))
	}))
	defer srv.Close()

	items, err := NewPolygonNews(newTestFetcher(0), srv.URL, "k").FetchNews(context.Background(), drepo.NewsQuery{
		Symbol: "aapl", Class: models.AssetStock, Since: time.Now().AddDate(0, 0, -7), Limit: 10,
	})
	if err != nil {
		t.Fatalf("FetchNews: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 valid item, got %d", len(items))
	}
	if items[0].Source != "Wire" || items[0].Summary != "bullish rally" {
		t.Fatalf("unexpected item %+v", items[0])
	}
}

func TestPolygonNewsRequiresKey(t *testing.T) {
	if _, err := NewPolygonNews(newTestFetcher(0), "http://unused", "").FetchNews(context.Background(), drepo.NewsQuery{Symbol: "AAPL"}); err == nil {
		t.Fatalf("expected error without key")
	}
}

func TestPolygonNewsCryptoTicker(t *testing.T) {
	if got := polygonNewsTicker("btc", models.AssetCrypto); got != "X:BTCUSD" {
		t.Fatalf("ticker = %s", got)
	}
}
