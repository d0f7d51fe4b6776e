package provider

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"MarketLens/internal/domain/models"
	xhttp "MarketLens/pkg/http"
	"MarketLens/pkg/util"
)

const coinMetricsDefaultBaseURL = "https://community-api.coinmetrics.io/v4"

// CoinMetrics reads daily active addresses and transaction counts from the community API.
type CoinMetrics struct {
	fetch   *Fetcher
	baseURL string
}

func NewCoinMetrics(fetch *Fetcher, baseURL string) *CoinMetrics {
	if baseURL == "" {
		baseURL = coinMetricsDefaultBaseURL
	}
	return &CoinMetrics{fetch: fetch, baseURL: strings.TrimRight(baseURL, "/")}
}

func (m *CoinMetrics) Name() string { return "coinmetrics" }

func (m *CoinMetrics) FetchOnChain(ctx context.Context, symbol string) (models.OnChainMetrics, error) {
	asset := strings.ToLower(cryptoBase(symbol))
	var body []byte
	err := m.fetch.Get(ctx, &xhttp.RequestOptions{
		URL: m.baseURL + "/timeseries/asset-metrics",
		QueryParams: map[string][]string{
			"assets":     {asset},
			"metrics":    {"AdrActCnt,TxCnt"},
			"frequency":  {"1d"},
			"start_time": {util.DayKey(time.Now().AddDate(0, 0, -8))},
			"page_size":  {"10"},
		},
	}, &body)
	if err != nil {
		return models.OnChainMetrics{}, fmt.Errorf("coinmetrics asset-metrics: %w", err)
	}
	rows := gjson.GetBytes(body, "data").Array()
	if len(rows) == 0 {
		return models.OnChainMetrics{}, fmt.Errorf("coinmetrics asset-metrics: no rows for %s", asset)
	}
	last := rows[len(rows)-1]
	date, ok := util.ParseTime(last.Get("time").String())
	if !ok {
		return models.OnChainMetrics{}, fmt.Errorf("coinmetrics asset-metrics: bad time %q", last.Get("time").String())
	}
	out := models.OnChainMetrics{
		Asset:           strings.ToUpper(asset),
		Date:            util.Day(date),
		ActiveAddresses: last.Get("AdrActCnt").Float(),
		TxCount:         last.Get("TxCnt").Float(),
		Source:          m.Name(),
	}
	if out.ActiveAddresses <= 0 {
		return models.OnChainMetrics{}, fmt.Errorf("coinmetrics asset-metrics: no active address count for %s", asset)
	}
	if len(rows) >= 8 {
		out.PrevActiveAddresses = rows[len(rows)-8].Get("AdrActCnt").Float()
	}
	return out, nil
}
