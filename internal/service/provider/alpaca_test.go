package provider

import (
	"strings"
	"testing"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
)

func TestBarCandle(t *testing.T) {
	ts := time.Date(2024, 1, 3, 5, 0, 0, 0, time.UTC)
	c, ok := barCandle(marketdata.Bar{Timestamp: ts, Open: 1, High: 2, Low: 0.5, Close: 1.5, Volume: 42})
	if !ok || c.Volume != 42 || c.Date.Hour() != 0 {
		t.Fatalf("unexpected candle %+v ok=%v", c, ok)
	}
	if _, ok := barCandle(marketdata.Bar{Timestamp: ts, High: 2, Low: 0.5, Close: 1.5}); ok {
		t.Fatalf("bar without open must be skipped")
	}
}

func TestAlpacaNewsItemFallsBackToContent(t *testing.T) {
	item := alpacaNewsItem(marketdata.News{
		Headline:  "Chipmaker rallies",
		Content:   strings.Repeat("x", 800),
		URL:       "https://n/1",
		Source:    "benzinga",
		CreatedAt: time.Date(2024, 1, 3, 10, 0, 0, 0, time.UTC),
	})
	if len([]rune(item.Summary)) != 500 {
		t.Fatalf("summary length = %d", len(item.Summary))
	}
	if item.Title != "Chipmaker rallies" || item.Source != "benzinga" {
		t.Fatalf("unexpected item %+v", item)
	}
}
