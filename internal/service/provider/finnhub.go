package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"MarketLens/internal/domain/models"
)

const finnhubDefaultWebSocketURL = "wss://ws.finnhub.io"

// Finnhub answers quote requests from the trade stream: it subscribes to one symbol and returns the
// first trade seen for it.
type Finnhub struct {
	apiKey       string
	websocketURL string
	dialer       *websocket.Dialer
}

func NewFinnhub(apiKey, websocketURL string, handshakeTimeout time.Duration) *Finnhub {
	if websocketURL == "" {
		websocketURL = finnhubDefaultWebSocketURL
	}
	return &Finnhub{
		apiKey:       apiKey,
		websocketURL: websocketURL,
		dialer:       &websocket.Dialer{HandshakeTimeout: handshakeTimeout},
	}
}

func (c *Finnhub) Name() string { return "finnhub" }

func (c *Finnhub) Supports(models.AssetClass) bool { return true }

func (c *Finnhub) streamSymbol(symbol string, class models.AssetClass) string {
	if class == models.AssetCrypto {
		return "BINANCE:" + cryptoBase(symbol) + "USDT"
	}
	return strings.ToUpper(symbol)
}

type fhTrade struct {
	S string  `json:"s"`
	P float64 `json:"p"`
	V float64 `json:"v"`
	T int64   `json:"t"` // ms
}

type fhMessage struct {
	Type string    `json:"type"`
	Data []fhTrade `json:"data"`
}

func (c *Finnhub) FetchQuote(ctx context.Context, symbol string, class models.AssetClass) (models.Asset, error) {
	if c.apiKey == "" {
		return models.Asset{}, fmt.Errorf("finnhub: api key not configured")
	}
	u := fmt.Sprintf("%s?token=%s", c.websocketURL, c.apiKey)
	conn, _, err := c.dialer.DialContext(ctx, u, nil)
	if err != nil {
		return models.Asset{}, fmt.Errorf("finnhub connect: %w", err)
	}
	defer conn.Close()

	stream := c.streamSymbol(symbol, class)
	if err := conn.WriteJSON(map[string]string{"type": "subscribe", "symbol": stream}); err != nil {
		return models.Asset{}, fmt.Errorf("finnhub subscribe %s: %w", stream, err)
	}
	defer func() {
		_ = conn.WriteJSON(map[string]string{"type": "unsubscribe", "symbol": stream})
	}()

	// unblock ReadMessage when ctx ends
	stop := context.AfterFunc(ctx, func() { _ = conn.SetReadDeadline(time.Now()) })
	defer stop()
	if dl, ok := ctx.Deadline(); ok {
		_ = conn.SetReadDeadline(dl)
	}

	for {
		_, b, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return models.Asset{}, fmt.Errorf("finnhub read: %w", ctx.Err())
			}
			return models.Asset{}, fmt.Errorf("finnhub read: %w", err)
		}
		var m fhMessage
		if err := json.Unmarshal(b, &m); err != nil || m.Type != "trade" {
			// pings and non-trade frames
			continue
		}
		for _, d := range m.Data {
			if d.S != stream || d.P <= 0 {
				continue
			}
			return models.Asset{
				Symbol: symbol,
				Class:  class,
				Price:  d.P,
				Volume: d.V,
				Source: c.Name(),
				AsOf:   time.UnixMilli(d.T).UTC(),
			}, nil
		}
	}
}
