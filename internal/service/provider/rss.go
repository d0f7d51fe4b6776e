package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"MarketLens/internal/domain/models"
	drepo "MarketLens/internal/domain/repository"
)

// RSS reads a list of feeds. A "%s" in a feed URL is replaced by the symbol.
type RSS struct {
	feeds  []string
	parser *gofeed.Parser
}

func NewRSS(feeds []string, timeout time.Duration, userAgent string) *RSS {
	p := gofeed.NewParser()
	p.Client = &http.Client{Timeout: timeout}
	p.UserAgent = userAgent
	return &RSS{feeds: feeds, parser: p}
}

func (r *RSS) Name() string { return "rss" }

func (r *RSS) FetchNews(ctx context.Context, q drepo.NewsQuery) ([]models.NewsItem, error) {
	var (
		out  []models.NewsItem
		errs []string
	)
	for _, f := range r.feeds {
		u := f
		if strings.Contains(f, "%s") {
			u = fmt.Sprintf(f, url.QueryEscape(q.Symbol))
		}
		feed, err := r.parser.ParseURLWithContext(u, ctx)
		if err != nil {
			errs = append(errs, err.Error())
			continue
		}
		for _, it := range feed.Items {
			if it == nil || it.Title == "" {
				continue
			}
			pub := time.Time{}
			switch {
			case it.PublishedParsed != nil:
				pub = *it.PublishedParsed
			case it.UpdatedParsed != nil:
				pub = *it.UpdatedParsed
			}
			if !q.Since.IsZero() && !pub.IsZero() && pub.Before(q.Since) {
				continue
			}
			source := feed.Title
			if source == "" {
				source = r.Name()
			}
			out = append(out, models.NewsItem{
				Title:     strings.TrimSpace(it.Title),
				Summary:   strings.TrimSpace(it.Description),
				Link:      it.Link,
				Source:    source,
				Published: pub.UTC(),
			})
		}
	}
	if len(out) == 0 && len(errs) > 0 {
		return nil, fmt.Errorf("rss: %s", strings.Join(errs, "; "))
	}
	return out, nil
}
