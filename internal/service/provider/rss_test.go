package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"MarketLens/internal/domain/models"
	drepo "MarketLens/internal/domain/repository"
)

func TestRSSFiltersOldItemsAndSubstitutesSymbol(t *testing.T) {
	recent := time.Now().Add(-2 * time.Hour).UTC().Format(time.RFC1123Z)
	old := time.Now().AddDate(0, 0, -20).UTC().Format(time.RFC1123Z)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("s") != "TSLA" {
			t.Errorf("symbol not substituted: %s", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprintf(w, `<?xml version="1.0"?>
<rss version="2.0"><channel><title>Markets</title>
<item><title>Tesla forms bull flag</title><link>https://n/1</link><description>shares rally</description><pubDate>%s</pubDate></item>
<item><title>Old story</title><link>https://n/2</link><pubDate>%s</pubDate></item>
</channel></rss>`, recent, old)
	}))
	defer srv.Close()

	r := NewRSS([]string{srv.URL + "/rss?s=%s"}, 2*time.Second, "test")
	items, err := r.FetchNews(context.Background(), drepo.NewsQuery{Symbol: "TSLA", Class: models.AssetStock, Since: time.Now().AddDate(0, 0, -7)})
	if err != nil {
		t.Fatalf("FetchNews: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 recent item, got %d", len(items))
	}
	if items[0].Source != "Markets" || items[0].Link != "https://n/1" {
		t.Fatalf("unexpected item %+v", items[0])
	}
}

func TestRSSAllFeedsFailing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	if _, err := NewRSS([]string{srv.URL}, time.Second, "").FetchNews(context.Background(), drepo.NewsQuery{Symbol: "X"}); err == nil {
		t.Fatalf("expected error when every feed fails")
	}
}
