package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"MarketLens/internal/domain/models"
	drepo "MarketLens/internal/domain/repository"
	xhttp "MarketLens/pkg/http"
)

const binanceDefaultBaseURL = "https://api.binance.com"

// Binance serves crypto klines and 24h tickers against the USDT pair.
type Binance struct {
	fetch   *Fetcher
	baseURL string
}

func NewBinance(fetch *Fetcher, baseURL string) *Binance {
	if baseURL == "" {
		baseURL = binanceDefaultBaseURL
	}
	return &Binance{fetch: fetch, baseURL: strings.TrimRight(baseURL, "/")}
}

func (b *Binance) Name() string { return "binance" }

func (b *Binance) Supports(class models.AssetClass) bool { return class == models.AssetCrypto }

func (b *Binance) pair(symbol string) string { return cryptoBase(symbol) + "USDT" }

func (b *Binance) FetchHistory(ctx context.Context, q drepo.HistoryQuery) (models.Series, error) {
	limit := q.Days + 1
	if limit > 1000 {
		limit = 1000
	}
	var rows [][]json.RawMessage
	err := b.fetch.Get(ctx, &xhttp.RequestOptions{
		URL: b.baseURL + "/api/v3/klines",
		QueryParams: map[string][]string{
			"symbol":    {b.pair(q.Symbol)},
			"interval":  {"1d"},
			"startTime": {strconv.FormatInt(q.From.UnixMilli(), 10)},
			"endTime":   {strconv.FormatInt(q.To.UnixMilli(), 10)},
			"limit":     {strconv.Itoa(limit)},
		},
	}, &rows)
	if err != nil {
		return nil, fmt.Errorf("binance klines: %w", err)
	}
	series := make(models.Series, 0, len(rows))
	for _, row := range rows {
		if c, ok := klineCandle(row); ok {
			series = append(series, c)
		}
	}
	return series, nil
}

// klineCandle maps [openTime, "open", "high", "low", "close", "volume", ...].
func klineCandle(row []json.RawMessage) (models.Candle, bool) {
	if len(row) < 6 {
		return models.Candle{}, false
	}
	var openTime int64
	if err := json.Unmarshal(row[0], &openTime); err != nil {
		return models.Candle{}, false
	}
	vals := make([]*float64, 5)
	for i := range vals {
		var s string
		if err := json.Unmarshal(row[i+1], &s); err != nil {
			continue
		}
		if v, ok := decimalFloat(s); ok {
			vals[i] = ptr(v)
		}
	}
	var vol float64
	if vals[4] != nil {
		vol = *vals[4]
	}
	return candle(time.UnixMilli(openTime), vals[0], vals[1], vals[2], vals[3], vol)
}

func decimalFloat(s string) (float64, bool) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, false
	}
	return d.InexactFloat64(), true
}

type binanceTicker struct {
	LastPrice          string `json:"lastPrice"`
	PriceChange        string `json:"priceChange"`
	PriceChangePercent string `json:"priceChangePercent"`
	Volume             string `json:"volume"`
	CloseTime          int64  `json:"closeTime"`
}

func (b *Binance) FetchQuote(ctx context.Context, symbol string, class models.AssetClass) (models.Asset, error) {
	var t binanceTicker
	err := b.fetch.Get(ctx, &xhttp.RequestOptions{
		URL:         b.baseURL + "/api/v3/ticker/24hr",
		QueryParams: map[string][]string{"symbol": {b.pair(symbol)}},
	}, &t)
	if err != nil {
		return models.Asset{}, fmt.Errorf("binance ticker: %w", err)
	}
	price, ok := decimalFloat(t.LastPrice)
	if !ok || price <= 0 {
		return models.Asset{}, fmt.Errorf("binance ticker: bad last price %q", t.LastPrice)
	}
	change, _ := decimalFloat(t.PriceChange)
	pct, _ := decimalFloat(t.PriceChangePercent)
	vol, _ := decimalFloat(t.Volume)
	return models.Asset{
		Symbol:    symbol,
		Class:     class,
		Price:     price,
		Change:    change,
		ChangePct: pct,
		Volume:    vol,
		Source:    b.Name(),
		AsOf:      time.UnixMilli(t.CloseTime).UTC(),
	}, nil
}
