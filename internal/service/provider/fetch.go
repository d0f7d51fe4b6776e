package provider

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"MarketLens/internal/domain/models"
	xhttp "MarketLens/pkg/http"
	"MarketLens/pkg/util"
)

// DefaultUserAgents is the identity rotation used when none is configured.
var DefaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 14_4) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64; rv:125.0) Gecko/20100101 Firefox/125.0",
}

// Identities hands out request identities round-robin.
type Identities struct {
	list []string
	next atomic.Uint32
}

func NewIdentities(list []string) *Identities {
	if len(list) == 0 {
		list = DefaultUserAgents
	}
	return &Identities{list: list}
}

func (i *Identities) Next() string {
	n := i.next.Add(1) - 1
	return i.list[int(n)%len(i.list)]
}

// Fetcher is the HTTP transport shared by the REST adapters.
type Fetcher struct {
	client  *xhttp.Client
	ids     *Identities
	backoff time.Duration
}

func NewFetcher(client *xhttp.Client, ids *Identities, backoff time.Duration) *Fetcher {
	if ids == nil {
		ids = NewIdentities(nil)
	}
	return &Fetcher{client: client, ids: ids, backoff: backoff}
}

// Get sends a GET and decodes into dest. A 429 is retried exactly once, after the backoff and
// under the next identity; the second outcome is final.
func (f *Fetcher) Get(ctx context.Context, opts *xhttp.RequestOptions, dest interface{}) error {
	send := func() error {
		o := *opts
		o.Headers = make(map[string]string, len(opts.Headers)+1)
		for k, v := range opts.Headers {
			o.Headers[k] = v
		}
		o.Headers["User-Agent"] = f.ids.Next()
		return f.client.SendAndParse(ctx, &o, dest)
	}
	return retryOnce(ctx, f.backoff, send)
}

func retryOnce(ctx context.Context, backoff time.Duration, fn func() error) error {
	err := fn()
	if err == nil || !rateLimited(err) {
		return err
	}
	t := time.NewTimer(backoff)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return errors.Join(err, ctx.Err())
	case <-t.C:
	}
	return fn()
}

// rateLimited recognises a 429 from our own client or from a vendor SDK error string.
func rateLimited(err error) bool {
	if xhttp.IsStatus(err, http.StatusTooManyRequests) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "429") || strings.Contains(msg, "too many requests")
}

// await runs a blocking SDK call that takes no context, abandoning it once ctx is done.
func await[T any](ctx context.Context, fn func() (T, error)) (T, error) {
	type result struct {
		v   T
		err error
	}
	ch := make(chan result, 1)
	go func() {
		v, err := fn()
		ch <- result{v, err}
	}()
	select {
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	case r := <-ch:
		return r.v, r.err
	}
}

// candle builds a day candle from nullable OHLC values. ok is false when any price is missing;
// such rows are skipped rather than zero-filled.
func candle(t time.Time, o, h, l, c *float64, v float64) (models.Candle, bool) {
	if o == nil || h == nil || l == nil || c == nil {
		return models.Candle{}, false
	}
	return models.Candle{Date: util.Day(t), Open: *o, High: *h, Low: *l, Close: *c, Volume: v}, true
}

func ptr(v float64) *float64 { return &v }

// cryptoBase strips common quote suffixes: "BTC-USD", "BTCUSDT" and "BTC/USD" all become "BTC".
func cryptoBase(symbol string) string {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	for _, sep := range []string{"-", "/"} {
		if i := strings.Index(s, sep); i > 0 {
			return s[:i]
		}
	}
	for _, q := range []string{"USDT", "USDC", "USD"} {
		if len(s) > len(q) && strings.HasSuffix(s, q) {
			return strings.TrimSuffix(s, q)
		}
	}
	return s
}
