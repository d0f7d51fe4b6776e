package provider

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"MarketLens/internal/domain/models"
	drepo "MarketLens/internal/domain/repository"
	"MarketLens/pkg/util"
)

// Alpaca wraps the market data client for daily stock bars and news. The client takes no context,
// so calls are abandoned, not cancelled, when ctx ends.
type Alpaca struct {
	client  *marketdata.Client
	backoff time.Duration
}

func NewAlpaca(apiKey, apiSecret, baseURL string, backoff time.Duration) *Alpaca {
	return &Alpaca{
		client: marketdata.NewClient(marketdata.ClientOpts{
			APIKey:    apiKey,
			APISecret: apiSecret,
			BaseURL:   baseURL,
		}),
		backoff: backoff,
	}
}

func (a *Alpaca) Name() string { return "alpaca" }

func (a *Alpaca) Supports(class models.AssetClass) bool { return class == models.AssetStock }

func (a *Alpaca) FetchHistory(ctx context.Context, q drepo.HistoryQuery) (models.Series, error) {
	var bars []marketdata.Bar
	err := retryOnce(ctx, a.backoff, func() error {
		var err error
		bars, err = await(ctx, func() ([]marketdata.Bar, error) {
			return a.client.GetBars(strings.ToUpper(q.Symbol), marketdata.GetBarsRequest{
				TimeFrame:  marketdata.OneDay,
				Adjustment: marketdata.Split,
				Start:      q.From,
				End:        q.To,
			})
		})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("alpaca bars: %w", err)
	}
	series := make(models.Series, 0, len(bars))
	for _, b := range bars {
		if c, ok := barCandle(b); ok {
			series = append(series, c)
		}
	}
	return series, nil
}

func barCandle(b marketdata.Bar) (models.Candle, bool) {
	if b.Open == 0 || b.High == 0 || b.Low == 0 || b.Close == 0 {
		return models.Candle{}, false
	}
	return candle(b.Timestamp, ptr(b.Open), ptr(b.High), ptr(b.Low), ptr(b.Close), float64(b.Volume))
}

// AlpacaNews exposes the Alpaca news feed as a news source.
type AlpacaNews struct{ *Alpaca }

func (a AlpacaNews) Name() string { return "alpaca-news" }

func (a AlpacaNews) FetchNews(ctx context.Context, q drepo.NewsQuery) ([]models.NewsItem, error) {
	symbol := strings.ToUpper(q.Symbol)
	if q.Class == models.AssetCrypto {
		symbol = cryptoBase(symbol) + "USD"
	}
	limit := q.Limit
	if limit <= 0 {
		limit = 50
	}
	news, err := await(ctx, func() ([]marketdata.News, error) {
		return a.client.GetNews(marketdata.GetNewsRequest{
			Symbols:    []string{symbol},
			Start:      q.Since,
			End:        time.Now(),
			TotalLimit: limit,
			Sort:       marketdata.SortDesc,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("alpaca news: %w", err)
	}
	out := make([]models.NewsItem, 0, len(news))
	for _, n := range news {
		out = append(out, alpacaNewsItem(n))
	}
	return out, nil
}

func alpacaNewsItem(n marketdata.News) models.NewsItem {
	summary := n.Summary
	if summary == "" {
		summary = util.Truncate(n.Content, 500)
	}
	return models.NewsItem{
		Title:     n.Headline,
		Summary:   summary,
		Link:      n.URL,
		Source:    n.Source,
		Published: n.CreatedAt.UTC(),
	}
}
