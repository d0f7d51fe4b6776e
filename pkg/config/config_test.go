package config

import (
	"strings"
	"testing"
	"time"
)

const minimal = `
environment: test
providers:
  yahoo:
    enabled: true
    rank: 1
`

func TestParseAppliesDefaults(t *testing.T) {
	c, err := Parse([]byte(minimal))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if c.Server.Port != 8080 {
		t.Fatalf("port = %d", c.Server.Port)
	}
	if c.Pipeline.ProviderTimeout != 10*time.Second {
		t.Fatalf("provider timeout = %v", c.Pipeline.ProviderTimeout)
	}
	if c.Pipeline.RetryBackoff != 2*time.Second {
		t.Fatalf("retry backoff = %v", c.Pipeline.RetryBackoff)
	}
	if c.Pipeline.MinPoints != 10 {
		t.Fatalf("min points = %d", c.Pipeline.MinPoints)
	}
	if c.News.CacheTTL != 30*time.Minute {
		t.Fatalf("news ttl = %v", c.News.CacheTTL)
	}
	if !c.Providers.Yahoo.Enabled || c.Providers.Yahoo.Rank != 1 {
		t.Fatalf("yahoo section not decoded: %+v", c.Providers.Yahoo)
	}
}

func TestParseInlineProviderSections(t *testing.T) {
	c, err := Parse([]byte(`
environment: test
providers:
  alpaca:
    enabled: true
    rank: 3
    api_key: k
    api_secret: s
  scrape:
    enabled: false
    url_template: "https://example.com/quote/%s"
`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if c.Providers.Alpaca.Rank != 3 || c.Providers.Alpaca.APISecret != "s" {
		t.Fatalf("alpaca = %+v", c.Providers.Alpaca)
	}
	if c.Providers.Scrape.URLTemplate == "" {
		t.Fatalf("scrape template not decoded")
	}
}

func TestValidateRejectsMissingEnvironment(t *testing.T) {
	_, err := Parse([]byte("server:\n  port: 9000\n"))
	if err == nil || !strings.Contains(err.Error(), "environment") {
		t.Fatalf("expected environment error, got %v", err)
	}
}

func TestValidateKafkaNeedsBrokers(t *testing.T) {
	_, err := Parse([]byte("environment: test\nkafka:\n  enabled: true\n"))
	if err == nil || !strings.Contains(err.Error(), "kafka.brokers") {
		t.Fatalf("expected brokers error, got %v", err)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("POLYGON_API_KEY", "pk")
	t.Setenv("WATCHLIST", "AAPL, MSFT,,BTC")

	c, err := Parse([]byte(minimal))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	c.applyEnv()

	if c.Providers.Polygon.APIKey != "pk" || c.News.Polygon.APIKey != "pk" {
		t.Fatalf("polygon key not applied")
	}
	if got := strings.Join(c.Scheduler.Watchlist, "|"); got != "AAPL|MSFT|BTC" {
		t.Fatalf("watchlist = %q", got)
	}
}
