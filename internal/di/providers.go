package di

import (
	"context"
	"fmt"
	"strings"
	"time"

	"MarketLens/internal/domain/repository"
	"MarketLens/internal/handler/api"
	internalrepo "MarketLens/internal/repository"
	"MarketLens/internal/service/cache"
	"MarketLens/internal/service/provider"
	"MarketLens/internal/service/ratelimit"
	"MarketLens/internal/services/indicators"
	"MarketLens/internal/services/patterns"
	"MarketLens/internal/services/prediction"
	"MarketLens/internal/services/sentiment"
	"MarketLens/internal/usecase"
	pkgch "MarketLens/pkg/clickhouse"
	"MarketLens/pkg/config"
	xhttp "MarketLens/pkg/http"
	pkgkafka "MarketLens/pkg/kafka"
	applogger "MarketLens/pkg/logger"
	"MarketLens/pkg/metrics"
	"MarketLens/pkg/server"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds the ranked adapters built from the providers section.
type Registry struct {
	History []usecase.HistoryEntry
	Quotes  []usecase.QuoteEntry
	News    []usecase.NewsEntry
	OnChain []usecase.OnChainEntry
}

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: cfg.Log.Output})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l.With(applogger.String("env", cfg.Environment)), nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New(prometheus.DefaultRegisterer)
}

// ProvideFetcher creates the HTTP transport shared by REST adapters.
func ProvideFetcher(cfg *config.Config) *provider.Fetcher {
	ids := provider.NewIdentities(cfg.Pipeline.UserAgents)
	client := xhttp.NewClient(
		xhttp.WithTimeout(cfg.Pipeline.ProviderTimeout),
		xhttp.WithUserAgent(ids.Next()),
	)
	return provider.NewFetcher(client, ids, cfg.Pipeline.RetryBackoff)
}

// ProvideClickHouseClient creates a ClickHouse client when the warehouse adapter is enabled.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if !cfg.Providers.ClickHouse.Enabled {
		return nil, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.Health(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse health: %w", err)
	}
	return client, nil
}

func entry[P any](p P, pc config.ProviderConfig) usecase.Entry[P] {
	return usecase.Entry[P]{Provider: p, Rank: pc.Rank, Broadened: pc.Broadened, RPS: pc.RPS, Burst: pc.Burst}
}

// ProvideRegistry builds every enabled adapter. Changing the order is a rank change in config.
func ProvideRegistry(cfg *config.Config, fetch *provider.Fetcher, ch *pkgch.Client, l *applogger.Logger) (*Registry, error) {
	p := cfg.Providers
	timeout, backoff := cfg.Pipeline.ProviderTimeout, cfg.Pipeline.RetryBackoff
	reg := &Registry{}

	if p.Yahoo.Enabled {
		y := provider.NewYahoo(fetch, p.Yahoo.BaseURL)
		reg.History = append(reg.History, entry[repository.HistoryProvider](y, p.Yahoo))
		reg.Quotes = append(reg.Quotes, entry[repository.QuoteProvider](y, p.Yahoo))
	}
	if p.Polygon.Enabled && p.Polygon.APIKey != "" {
		reg.History = append(reg.History, entry[repository.HistoryProvider](provider.NewPolygon(p.Polygon.APIKey, timeout, backoff), p.Polygon))
	}
	var alpaca *provider.Alpaca
	if p.Alpaca.APIKey != "" && (p.Alpaca.Enabled || cfg.News.Alpaca.Enabled) {
		alpaca = provider.NewAlpaca(p.Alpaca.APIKey, p.Alpaca.APISecret, p.Alpaca.DataURL, backoff)
	}
	if p.Alpaca.Enabled && alpaca != nil {
		reg.History = append(reg.History, entry[repository.HistoryProvider](alpaca, p.Alpaca.ProviderConfig))
	}
	if p.Binance.Enabled {
		b := provider.NewBinance(fetch, p.Binance.BaseURL)
		reg.History = append(reg.History, entry[repository.HistoryProvider](b, p.Binance))
		reg.Quotes = append(reg.Quotes, entry[repository.QuoteProvider](b, p.Binance))
	}
	if p.CoinGecko.Enabled {
		reg.History = append(reg.History, entry[repository.HistoryProvider](provider.NewCoinGecko(fetch, p.CoinGecko.BaseURL, p.CoinGecko.APIKey), p.CoinGecko))
	}
	if p.Finnhub.Enabled && p.Finnhub.APIKey != "" {
		f := provider.NewFinnhub(p.Finnhub.APIKey, p.Finnhub.WebSocketURL, timeout)
		reg.Quotes = append(reg.Quotes, entry[repository.QuoteProvider](f, p.Finnhub.ProviderConfig))
	}
	if p.Scrape.Enabled && p.Scrape.URLTemplate != "" {
		s := provider.NewScrape(fetch, p.Scrape.URLTemplate, p.Scrape.Selector)
		reg.Quotes = append(reg.Quotes, entry[repository.QuoteProvider](s, p.Scrape.ProviderConfig))
	}
	if p.OnChain.Enabled {
		reg.OnChain = append(reg.OnChain, entry[repository.OnChainProvider](provider.NewCoinMetrics(fetch, p.OnChain.BaseURL), p.OnChain))
	}
	if ch != nil {
		wh, err := internalrepo.NewCHHistory(ch, qualify(cfg.ClickHouse.Database, p.ClickHouse.Table))
		if err != nil {
			return nil, err
		}
		wh.SetLogger(l)
		reg.History = append(reg.History, entry[repository.HistoryProvider](wh, p.ClickHouse.ProviderConfig))
	}

	n := cfg.News
	if n.RSS.Enabled && len(n.RSS.Feeds) > 0 {
		ua := provider.NewIdentities(cfg.Pipeline.UserAgents).Next()
		reg.News = append(reg.News, usecase.NewsEntry{Provider: provider.NewRSS(n.RSS.Feeds, timeout, ua), Rank: 1})
	}
	if n.Polygon.Enabled && n.Polygon.APIKey != "" {
		reg.News = append(reg.News, entry[repository.NewsProvider](provider.NewPolygonNews(fetch, n.Polygon.BaseURL, n.Polygon.APIKey), n.Polygon))
	}
	if n.Alpaca.Enabled && alpaca != nil {
		reg.News = append(reg.News, entry[repository.NewsProvider](provider.AlpacaNews{Alpaca: alpaca}, n.Alpaca))
	}

	l.Info("provider registry built",
		applogger.Strings("history", historyNames(reg.History)),
		applogger.Int("quote", len(reg.Quotes)),
		applogger.Int("news", len(reg.News)),
		applogger.Int("onchain", len(reg.OnChain)),
	)
	return reg, nil
}

func qualify(db, table string) string {
	if db == "" || strings.Contains(table, ".") {
		return table
	}
	return db + "." + table
}

func historyNames(es []usecase.HistoryEntry) []string {
	out := make([]string, 0, len(es))
	for _, e := range es {
		out = append(out, e.Provider.Name())
	}
	return out
}

// ProvideNewsCache creates the local TTL cache, backed by Redis when configured.
func ProvideNewsCache(cfg *config.Config, l *applogger.Logger) cache.BytesCache {
	local := cache.NewTTLCache()
	r := cfg.News.Redis
	if !r.Enabled || r.Addr == "" {
		return local
	}
	remote := cache.NewRedisCache(cache.RedisConfig{Addr: r.Addr, Password: r.Password, DB: r.DB, Prefix: r.Prefix})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := remote.Ping(ctx); err != nil {
		l.Warn("redis unavailable, news cache is local only", applogger.String("addr", r.Addr), applogger.Error(err))
		_ = remote.Close()
		return local
	}
	return cache.NewTiered(local, remote, cfg.News.CacheTTL)
}

// ProvideOrchestrator creates the settle-all fetch orchestrator.
// ProvideLogCollector batches warn/error events onto the logs topic. Nil without a producer or topic.
func ProvideLogCollector(cfg *config.Config, producer *pkgkafka.Producer) *applogger.Collector {
	if producer == nil || cfg.Kafka.Logs.Topic == "" {
		return nil
	}
	return applogger.NewCollector(applogger.CollectorConfig{
		Interval:  cfg.Kafka.Logs.Interval,
		Threshold: cfg.Kafka.Logs.Threshold,
		Topic:     cfg.Kafka.Logs.Topic,
		Publisher: producer,
	})
}

// ProvideOrchestrator feeds provider-failure warnings to the collector when one is configured.
func ProvideOrchestrator(cfg *config.Config, m repository.Metrics, l *applogger.Logger, lc *applogger.Collector) *usecase.Orchestrator {
	return usecase.NewOrchestrator(cfg.Pipeline.ProviderTimeout, ratelimit.New(), m, l.WithCollector(lc))
}

func ProvideHistoryUseCase(orch *usecase.Orchestrator, reg *Registry, cfg *config.Config, m repository.Metrics, l *applogger.Logger) *usecase.HistoryUseCase {
	return usecase.NewHistoryUseCase(orch, reg.History, cfg.Pipeline.MinPoints, m, l)
}

func ProvideQuoteUseCase(orch *usecase.Orchestrator, reg *Registry, hist *usecase.HistoryUseCase) *usecase.QuoteUseCase {
	return usecase.NewQuoteUseCase(orch, reg.Quotes, hist)
}

func ProvideNewsUseCase(orch *usecase.Orchestrator, reg *Registry, c cache.BytesCache, cfg *config.Config, l *applogger.Logger) *usecase.NewsUseCase {
	return usecase.NewNewsUseCase(orch, reg.News, c, cfg.News.CacheTTL, cfg.News.RecentWindow, l).WithLimit(cfg.News.Limit)
}

func ProvideAnalysisUseCase(
	orch *usecase.Orchestrator,
	reg *Registry,
	hist *usecase.HistoryUseCase,
	news *usecase.NewsUseCase,
	cfg *config.Config,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.AnalysisUseCase {
	return usecase.NewAnalysisUseCase(usecase.AnalysisDeps{
		Orchestrator: orch,
		History:      hist,
		Quotes:       reg.Quotes,
		News:         news,
		OnChain:      reg.OnChain,
		Indicators:   indicators.New(),
		Patterns:     patterns.New(),
		Fuser:        sentiment.NewFuser(cfg.News.RecentWindow),
		Predictor:    prediction.New(),
		Metrics:      m,
		Logger:       l,
	})
}

func ProvideWatchlistUseCase(cfg *config.Config, quotes *usecase.QuoteUseCase, news *usecase.NewsUseCase, l *applogger.Logger) *usecase.WatchlistUseCase {
	items := usecase.ParseWatchlist(strings.Join(cfg.Scheduler.Watchlist, ","))
	return usecase.NewWatchlistUseCase(items, quotes, news, l)
}

func ProvideHTTPHandler(
	cfg *config.Config,
	l *applogger.Logger,
	analysis *usecase.AnalysisUseCase,
	quotes *usecase.QuoteUseCase,
	news *usecase.NewsUseCase,
	watchlist *usecase.WatchlistUseCase,
) *api.AnalysisEchoHandler {
	limit := api.ClientLimit{Burst: cfg.Server.ClientBurst, RPS: cfg.Server.ClientRPS}
	return api.NewAnalysisEchoHandler(l, analysis, quotes, news, watchlist, limit)
}

// ProvideKafkaProducer creates a Kafka producer when kafka is enabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.BatchTimeout),
		pkgkafka.WithWriteTimeout(cfg.Kafka.Producer.WriteTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvidePublisher publishes analyses to the results topic, or drops them when kafka is off.
func ProvidePublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.Publisher {
	if producer == nil {
		return internalrepo.NopPublisher{}
	}
	return internalrepo.NewKafkaPublisher(producer, cfg.Kafka.ResultsTopic)
}

// ProvideKafkaConsumer creates a Kafka consumer configured from YAML.
func ProvideKafkaConsumer(cfg *config.Config, m repository.Metrics, l *applogger.Logger) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerLogger(l),
		pkgkafka.WithConsumerHook(usecase.NewAnalysisConsumerHook(m, l)),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideKafkaAnalysisHandler handles the analysis request topic.
func ProvideKafkaAnalysisHandler(cfg *config.Config, analysis *usecase.AnalysisUseCase, pub repository.Publisher, m repository.Metrics) *usecase.KafkaAnalysisHandler {
	return usecase.NewKafkaAnalysisHandler(cfg.Kafka.RequestsTopic, analysis, pub, m)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	handler *api.AnalysisEchoHandler,
	consumer *pkgkafka.Consumer,
	kh *usecase.KafkaAnalysisHandler,
	pub repository.Publisher,
	watchlist *usecase.WatchlistUseCase,
	chClient *pkgch.Client,
	lc *applogger.Collector,
) *server.App {
	return server.New(server.Deps{
		Config:    cfg,
		Logger:    l,
		Handler:   handler,
		Consumer:  consumer,
		Kafka:     kh,
		Publisher: pub,
		Watchlist: watchlist,
		CH:        chClient,
		Logs:      lc,
	})
}
