package provider

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	polygonrest "github.com/polygon-io/client-go/rest"
	rmodels "github.com/polygon-io/client-go/rest/models"
	"github.com/tidwall/gjson"

	"MarketLens/internal/domain/models"
	drepo "MarketLens/internal/domain/repository"
	xhttp "MarketLens/pkg/http"
	"MarketLens/pkg/util"
)

// Polygon serves daily aggregates for equities through the official REST client.
type Polygon struct {
	rest    *polygonrest.Client
	backoff time.Duration
}

func NewPolygon(apiKey string, timeout, backoff time.Duration) *Polygon {
	return &Polygon{
		rest:    polygonrest.NewWithClient(apiKey, &http.Client{Timeout: timeout}),
		backoff: backoff,
	}
}

func (p *Polygon) Name() string { return "polygon" }

func (p *Polygon) Supports(class models.AssetClass) bool { return class == models.AssetStock }

func (p *Polygon) FetchHistory(ctx context.Context, q drepo.HistoryQuery) (models.Series, error) {
	var series models.Series
	err := retryOnce(ctx, p.backoff, func() error {
		series = series[:0]
		params := &rmodels.ListAggsParams{
			Ticker:     strings.ToUpper(q.Symbol),
			Timespan:   rmodels.Day,
			Multiplier: 1,
			From:       rmodels.Millis(q.From),
			To:         rmodels.Millis(q.To),
		}
		asc := rmodels.Asc
		adj := true
		params.Order = &asc
		params.Adjusted = &adj

		iter := p.rest.ListAggs(ctx, params)
		for iter.Next() {
			if c, ok := aggCandle(iter.Item()); ok {
				series = append(series, c)
			}
		}
		return iter.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("polygon aggs: %w", err)
	}
	return series, nil
}

func aggCandle(a rmodels.Agg) (models.Candle, bool) {
	if a.Open == 0 || a.High == 0 || a.Low == 0 || a.Close == 0 {
		return models.Candle{}, false
	}
	return candle(time.Time(a.Timestamp), ptr(a.Open), ptr(a.High), ptr(a.Low), ptr(a.Close), a.Volume)
}

const polygonDefaultBaseURL = "https://api.polygon.io"

// PolygonNews reads /v2/reference/news.
type PolygonNews struct {
	fetch   *Fetcher
	baseURL string
	apiKey  string
}

func NewPolygonNews(fetch *Fetcher, baseURL, apiKey string) *PolygonNews {
	if baseURL == "" {
		baseURL = polygonDefaultBaseURL
	}
	return &PolygonNews{fetch: fetch, baseURL: strings.TrimRight(baseURL, "/"), apiKey: apiKey}
}

func (p *PolygonNews) Name() string { return "polygon-news" }

func (p *PolygonNews) FetchNews(ctx context.Context, q drepo.NewsQuery) ([]models.NewsItem, error) {
	if p.apiKey == "" {
		return nil, fmt.Errorf("polygon news: api key not configured")
	}
	limit := q.Limit
	if limit <= 0 || limit > 1000 {
		limit = 50
	}
	var body []byte
	err := p.fetch.Get(ctx, &xhttp.RequestOptions{
		URL: p.baseURL + "/v2/reference/news",
		QueryParams: map[string][]string{
			"ticker":            {polygonNewsTicker(q.Symbol, q.Class)},
			"published_utc.gte": {q.Since.UTC().Format(time.RFC3339)},
			"order":             {"desc"},
			"sort":              {"published_utc"},
			"limit":             {fmt.Sprint(limit)},
			"apiKey":            {p.apiKey},
		},
	}, &body)
	if err != nil {
		return nil, fmt.Errorf("polygon news: %w", err)
	}

	results := gjson.GetBytes(body, "results").Array()
	out := make([]models.NewsItem, 0, len(results))
	for _, r := range results {
		title := r.Get("title").String()
		link := r.Get("article_url").String()
		pub, ok := util.ParseTime(r.Get("published_utc").String())
		if title == "" || link == "" || !ok {
			continue
		}
		out = append(out, models.NewsItem{
			Title:     title,
			Summary:   r.Get("description").String(),
			Link:      link,
			Source:    r.Get("publisher.name").String(),
			Published: pub,
		})
	}
	return out, nil
}

func polygonNewsTicker(symbol string, class models.AssetClass) string {
	if class == models.AssetCrypto {
		return "X:" + cryptoBase(symbol) + "USD"
	}
	return strings.ToUpper(symbol)
}
