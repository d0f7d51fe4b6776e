package provider

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"MarketLens/internal/domain/models"
	xhttp "MarketLens/pkg/http"
)

// Scrape pulls a last price out of an HTML quote page. It is the last-resort quote source and is
// off unless configured.
type Scrape struct {
	fetch       *Fetcher
	urlTemplate string
	selector    string
}

func NewScrape(fetch *Fetcher, urlTemplate, selector string) *Scrape {
	return &Scrape{fetch: fetch, urlTemplate: urlTemplate, selector: selector}
}

func (s *Scrape) Name() string { return "scrape" }

func (s *Scrape) Supports(models.AssetClass) bool { return true }

func (s *Scrape) FetchQuote(ctx context.Context, symbol string, class models.AssetClass) (models.Asset, error) {
	if s.urlTemplate == "" || s.selector == "" {
		return models.Asset{}, fmt.Errorf("scrape: url template or selector not configured")
	}
	var body []byte
	err := s.fetch.Get(ctx, &xhttp.RequestOptions{
		URL: fmt.Sprintf(s.urlTemplate, url.PathEscape(symbol)),
	}, &body)
	if err != nil {
		return models.Asset{}, fmt.Errorf("scrape fetch: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return models.Asset{}, fmt.Errorf("scrape parse: %w", err)
	}
	sel := doc.Find(s.selector).First()
	if sel.Length() == 0 {
		return models.Asset{}, fmt.Errorf("scrape: selector %q matched nothing", s.selector)
	}
	raw := sel.AttrOr("value", "")
	if raw == "" {
		raw = sel.Text()
	}
	price, ok := parsePrice(raw)
	if !ok {
		return models.Asset{}, fmt.Errorf("scrape: unparsable price %q", strings.TrimSpace(raw))
	}
	return models.Asset{
		Symbol: symbol,
		Class:  class,
		Price:  price,
		Source: s.Name(),
		AsOf:   time.Now().UTC(),
	}, nil
}

// parsePrice accepts "1,234.56", "$ 1234.56" and similar.
func parsePrice(raw string) (float64, bool) {
	clean := strings.Map(func(r rune) rune {
		switch {
		case r >= '0' && r <= '9', r == '.':
			return r
		default:
			return -1
		}
	}, raw)
	v, ok := decimalFloat(clean)
	if !ok || v <= 0 {
		return 0, false
	}
	return v, true
}
