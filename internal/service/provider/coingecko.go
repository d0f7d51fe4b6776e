package provider

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"MarketLens/internal/domain/models"
	drepo "MarketLens/internal/domain/repository"
	xhttp "MarketLens/pkg/http"
	"MarketLens/pkg/util"
)

const coinGeckoDefaultBaseURL = "https://api.coingecko.com/api/v3"

var coinGeckoIDs = map[string]string{
	"BTC":   "bitcoin",
	"ETH":   "ethereum",
	"SOL":   "solana",
	"BNB":   "binancecoin",
	"XRP":   "ripple",
	"ADA":   "cardano",
	"DOGE":  "dogecoin",
	"DOT":   "polkadot",
	"AVAX":  "avalanche-2",
	"LINK":  "chainlink",
	"LTC":   "litecoin",
	"MATIC": "matic-network",
}

// the ohlc endpoint only accepts these day counts
var coinGeckoDays = []int{1, 7, 14, 30, 90, 180, 365}

// CoinGecko reads /coins/{id}/ohlc. Its bars are coarser than daily beyond 30 days; they are
// folded into calendar-day buckets and carry no volume.
type CoinGecko struct {
	fetch   *Fetcher
	baseURL string
	apiKey  string
}

func NewCoinGecko(fetch *Fetcher, baseURL, apiKey string) *CoinGecko {
	if baseURL == "" {
		baseURL = coinGeckoDefaultBaseURL
	}
	return &CoinGecko{fetch: fetch, baseURL: strings.TrimRight(baseURL, "/"), apiKey: apiKey}
}

func (g *CoinGecko) Name() string { return "coingecko" }

func (g *CoinGecko) Supports(class models.AssetClass) bool { return class == models.AssetCrypto }

func coinGeckoID(symbol string) string {
	base := cryptoBase(symbol)
	if id, ok := coinGeckoIDs[base]; ok {
		return id
	}
	return strings.ToLower(base)
}

func coinGeckoRange(days int) string {
	for _, d := range coinGeckoDays {
		if days <= d {
			return fmt.Sprint(d)
		}
	}
	return "max"
}

func (g *CoinGecko) FetchHistory(ctx context.Context, q drepo.HistoryQuery) (models.Series, error) {
	opts := &xhttp.RequestOptions{
		URL: fmt.Sprintf("%s/coins/%s/ohlc", g.baseURL, coinGeckoID(q.Symbol)),
		QueryParams: map[string][]string{
			"vs_currency": {"usd"},
			"days":        {coinGeckoRange(q.Days)},
		},
	}
	if g.apiKey != "" {
		opts.Headers = map[string]string{"x-cg-demo-api-key": g.apiKey}
	}
	var body []byte
	if err := g.fetch.Get(ctx, opts, &body); err != nil {
		return nil, fmt.Errorf("coingecko ohlc: %w", err)
	}
	root := gjson.ParseBytes(body)
	if !root.IsArray() {
		return nil, fmt.Errorf("coingecko ohlc: unexpected payload %s", util.Truncate(root.Raw, 120))
	}
	return foldDaily(root.Array()), nil
}

// foldDaily merges intraday [ms, o, h, l, c] rows into one candle per UTC day.
func foldDaily(rows []gjson.Result) models.Series {
	byDay := make(map[time.Time]*models.Candle)
	for _, r := range rows {
		f := r.Array()
		if len(f) < 5 {
			continue
		}
		var vals [4]*float64
		for i := range vals {
			if f[i+1].Type == gjson.Number {
				vals[i] = ptr(f[i+1].Float())
			}
		}
		c, ok := candle(time.UnixMilli(f[0].Int()), vals[0], vals[1], vals[2], vals[3], 0)
		if !ok {
			continue
		}
		agg, seen := byDay[c.Date]
		if !seen {
			cc := c
			byDay[c.Date] = &cc
			continue
		}
		agg.High = math.Max(agg.High, c.High)
		agg.Low = math.Min(agg.Low, c.Low)
		agg.Close = c.Close
	}
	out := make(models.Series, 0, len(byDay))
	for _, c := range byDay {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}
