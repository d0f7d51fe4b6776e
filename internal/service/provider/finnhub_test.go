package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"MarketLens/internal/domain/models"
)

func finnhubServer(t *testing.T, frames ...string) *httptest.Server {
	t.Helper()
	up := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("token") != "key" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		conn, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		var sub map[string]string
		if err := conn.ReadJSON(&sub); err != nil {
			return
		}
		if sub["type"] != "subscribe" {
			t.Errorf("first frame = %v", sub)
		}
		for _, f := range frames {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(f)); err != nil {
				return
			}
		}
		// drain until the client hangs up
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
}

func wsURL(srv *httptest.Server) string { return "ws" + strings.TrimPrefix(srv.URL, "http") }

func TestFinnhubFirstTradeForSymbol(t *testing.T) {
	srv := finnhubServer(t,
		`{"type":"ping"}`,
		`{"type":"trade","data":[{"s":"MSFT","p":400.1,"v":1,"t":1704300000000}]}`,
		`{"type":"trade","data":[{"s":"AAPL","p":185.25,"v":30,"t":1704300001000}]}`,
	)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	q, err := NewFinnhub("key", wsURL(srv), time.Second).FetchQuote(ctx, "AAPL", models.AssetStock)
	if err != nil {
		t.Fatalf("FetchQuote: %v", err)
	}
	if q.Price != 185.25 || q.Volume != 30 || q.Source != "finnhub" {
		t.Fatalf("unexpected quote %+v", q)
	}
}

func TestFinnhubTimesOutWithoutTrades(t *testing.T) {
	srv := finnhubServer(t, `{"type":"ping"}`)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()
	start := time.Now()
	if _, err := NewFinnhub("key", wsURL(srv), time.Second).FetchQuote(ctx, "AAPL", models.AssetStock); err == nil {
		t.Fatalf("expected timeout error")
	}
	if time.Since(start) > time.Second {
		t.Fatalf("read was not bounded by the context")
	}
}

func TestFinnhubCryptoStreamSymbol(t *testing.T) {
	if got := NewFinnhub("k", "", time.Second).streamSymbol("eth", models.AssetCrypto); got != "BINANCE:ETHUSDT" {
		t.Fatalf("stream symbol = %s", got)
	}
}
