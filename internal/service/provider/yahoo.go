package provider

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"MarketLens/internal/domain/models"
	drepo "MarketLens/internal/domain/repository"
	xhttp "MarketLens/pkg/http"
)

const yahooDefaultBaseURL = "https://query1.finance.yahoo.com"

// Yahoo reads the public chart endpoint for both history and quotes.
type Yahoo struct {
	fetch     *Fetcher
	baseURL   string
	symbolMap map[string]string
}

func NewYahoo(fetch *Fetcher, baseURL string) *Yahoo {
	if baseURL == "" {
		baseURL = yahooDefaultBaseURL
	}
	return &Yahoo{
		fetch:   fetch,
		baseURL: strings.TrimRight(baseURL, "/"),
		symbolMap: map[string]string{
			"SPX":    "^GSPC",
			"SPX500": "^GSPC",
			"NDX":    "^NDX",
		},
	}
}

func (y *Yahoo) Name() string { return "yahoo" }

func (y *Yahoo) Supports(models.AssetClass) bool { return true }

func (y *Yahoo) ticker(symbol string, class models.AssetClass) string {
	if mapped, ok := y.symbolMap[symbol]; ok {
		return mapped
	}
	if class == models.AssetCrypto {
		return cryptoBase(symbol) + "-USD"
	}
	return symbol
}

type yahooChart struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol             string  `json:"symbol"`
				RegularMarketPrice float64 `json:"regularMarketPrice"`
				RegularMarketTime  int64   `json:"regularMarketTime"`
				ChartPreviousClose float64 `json:"chartPreviousClose"`
				RegularMarketVol   float64 `json:"regularMarketVolume"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func (y *Yahoo) chart(ctx context.Context, ticker string, params map[string][]string) (*yahooChart, error) {
	var out yahooChart
	err := y.fetch.Get(ctx, &xhttp.RequestOptions{
		URL:         fmt.Sprintf("%s/v8/finance/chart/%s", y.baseURL, url.PathEscape(ticker)),
		QueryParams: params,
	}, &out)
	if err != nil {
		return nil, fmt.Errorf("yahoo chart: %w", err)
	}
	if out.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo chart: %s", out.Chart.Error.Description)
	}
	if len(out.Chart.Result) == 0 {
		return nil, fmt.Errorf("yahoo chart: no result for %s", ticker)
	}
	return &out, nil
}

func (y *Yahoo) FetchHistory(ctx context.Context, q drepo.HistoryQuery) (models.Series, error) {
	out, err := y.chart(ctx, y.ticker(q.Symbol, q.Class), map[string][]string{
		"interval": {"1d"},
		"period1":  {strconv.FormatInt(q.From.Unix(), 10)},
		"period2":  {strconv.FormatInt(q.To.Unix(), 10)},
	})
	if err != nil {
		return nil, err
	}
	res := out.Chart.Result[0]
	if len(res.Indicators.Quote) == 0 {
		return nil, fmt.Errorf("yahoo chart: no quote block")
	}
	quote := res.Indicators.Quote[0]
	at := func(xs []*float64, i int) *float64 {
		if i < len(xs) {
			return xs[i]
		}
		return nil
	}
	series := make(models.Series, 0, len(res.Timestamp))
	for i, ts := range res.Timestamp {
		var vol float64
		if v := at(quote.Volume, i); v != nil {
			vol = *v
		}
		c, ok := candle(time.Unix(ts, 0), at(quote.Open, i), at(quote.High, i), at(quote.Low, i), at(quote.Close, i), vol)
		if !ok {
			continue
		}
		series = append(series, c)
	}
	return series, nil
}

func (y *Yahoo) FetchQuote(ctx context.Context, symbol string, class models.AssetClass) (models.Asset, error) {
	out, err := y.chart(ctx, y.ticker(symbol, class), map[string][]string{
		"interval": {"1d"},
		"range":    {"5d"},
	})
	if err != nil {
		return models.Asset{}, err
	}
	meta := out.Chart.Result[0].Meta
	if meta.RegularMarketPrice <= 0 {
		return models.Asset{}, fmt.Errorf("yahoo quote: no price for %s", symbol)
	}
	a := models.Asset{
		Symbol: symbol,
		Class:  class,
		Price:  meta.RegularMarketPrice,
		Volume: meta.RegularMarketVol,
		Source: y.Name(),
		AsOf:   time.Unix(meta.RegularMarketTime, 0).UTC(),
	}
	if meta.ChartPreviousClose > 0 {
		a.Change = a.Price - meta.ChartPreviousClose
		a.ChangePct = a.Change / meta.ChartPreviousClose * 100
	}
	return a, nil
}
