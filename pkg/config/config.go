package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ProviderConfig is shared by every adapter section.
type ProviderConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Rank      int    `yaml:"rank"`
	Broadened bool   `yaml:"broadened"`
	BaseURL   string `yaml:"base_url"`
	APIKey    string `yaml:"api_key"`
	// RPS and Burst feed the local token bucket; zero disables it.
	RPS   float64 `yaml:"rps"`
	Burst float64 `yaml:"burst"`
}

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
		DisableCORS     bool          `yaml:"disable_cors"`
		// ClientRPS limits /api requests per remote address.
		ClientRPS   float64 `yaml:"client_rps"`
		ClientBurst float64 `yaml:"client_burst"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"log"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	Pipeline struct {
		ProviderTimeout time.Duration `yaml:"provider_timeout"`
		RetryBackoff    time.Duration `yaml:"retry_backoff"`
		MinPoints       int           `yaml:"min_points"`
		UserAgents      []string      `yaml:"user_agents"`
	} `yaml:"pipeline"`
	Providers struct {
		Yahoo   ProviderConfig `yaml:"yahoo"`
		Polygon ProviderConfig `yaml:"polygon"`
		Alpaca  struct {
			ProviderConfig `yaml:",inline"`
			APISecret      string `yaml:"api_secret"`
			DataURL        string `yaml:"data_url"`
		} `yaml:"alpaca"`
		Binance   ProviderConfig `yaml:"binance"`
		CoinGecko ProviderConfig `yaml:"coingecko"`
		Finnhub   struct {
			ProviderConfig `yaml:",inline"`
			WebSocketURL   string `yaml:"websocket_url"`
		} `yaml:"finnhub"`
		Scrape struct {
			ProviderConfig `yaml:",inline"`
			URLTemplate    string `yaml:"url_template"`
			Selector       string `yaml:"selector"`
		} `yaml:"scrape"`
		OnChain    ProviderConfig `yaml:"onchain"`
		ClickHouse struct {
			ProviderConfig `yaml:",inline"`
			Table          string `yaml:"table"`
		} `yaml:"clickhouse"`
	} `yaml:"providers"`
	News struct {
		CacheTTL     time.Duration `yaml:"cache_ttl"`
		RecentWindow time.Duration `yaml:"recent_window"`
		Limit        int           `yaml:"limit"`
		RSS          struct {
			Enabled bool     `yaml:"enabled"`
			Feeds   []string `yaml:"feeds"`
		} `yaml:"rss"`
		Polygon ProviderConfig `yaml:"polygon"`
		Alpaca  ProviderConfig `yaml:"alpaca"`
		Redis   struct {
			Enabled  bool   `yaml:"enabled"`
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix"`
		} `yaml:"redis"`
	} `yaml:"news"`
	Kafka struct {
		Enabled       bool     `yaml:"enabled"`
		Brokers       []string `yaml:"brokers"`
		RequestsTopic string   `yaml:"requests_topic"`
		ResultsTopic  string   `yaml:"results_topic"`
		RequiredAcks  int      `yaml:"required_acks"`
		Compression   string   `yaml:"compression"`
		// Logs aggregates provider-failure warnings onto a topic.
		Logs          struct {
			Topic     string        `yaml:"topic"`
			Interval  time.Duration `yaml:"interval"`
			Threshold int           `yaml:"threshold"`
		} `yaml:"logs"`
		Producer      struct {
			MaxAttempts  int           `yaml:"max_attempts"`
			BatchTimeout time.Duration `yaml:"batch_timeout"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
		} `yaml:"producer"`
		Consumer struct {
			GroupID    string        `yaml:"group_id"`
			Workers    int           `yaml:"workers"`
			BufferSize int           `yaml:"buffer_size"`
			RetryMax   int           `yaml:"retry_max"`
			BackoffMin time.Duration `yaml:"backoff_min"`
			BackoffMax time.Duration `yaml:"backoff_max"`
			DLQTopic   string        `yaml:"dlq_topic"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Host        string        `yaml:"host"`
		Port        int           `yaml:"port"`
		Database    string        `yaml:"database"`
		User        string        `yaml:"user"`
		Password    string        `yaml:"password"`
		UseHTTP     bool          `yaml:"use_http"`
		DialTimeout time.Duration `yaml:"dial_timeout"`
		ReadTimeout time.Duration `yaml:"read_timeout"`
	} `yaml:"clickhouse"`
	Scheduler struct {
		Enabled   bool     `yaml:"enabled"`
		Spec      string   `yaml:"spec"`
		Watchlist []string `yaml:"watchlist"`
	} `yaml:"scheduler"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

// Parse decodes YAML, applies defaults and validates.
func Parse(b []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &c, nil
}

// LoadWithEnv loads .env (if present), then the YAML file, then environment overrides.
func LoadWithEnv(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	c, err := Load(path)
	if err != nil {
		return nil, err
	}
	c.applyEnv()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("POLYGON_API_KEY"); v != "" {
		c.Providers.Polygon.APIKey = v
		c.News.Polygon.APIKey = v
	}
	if v := os.Getenv("ALPACA_API_KEY"); v != "" {
		c.Providers.Alpaca.APIKey = v
	}
	if v := os.Getenv("ALPACA_API_SECRET"); v != "" {
		c.Providers.Alpaca.APISecret = v
	}
	if v := os.Getenv("FINNHUB_API_KEY"); v != "" {
		c.Providers.Finnhub.APIKey = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = splitList(v)
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.News.Redis.Addr = v
	}
	if v := os.Getenv("WATCHLIST"); v != "" {
		c.Scheduler.Watchlist = splitList(v)
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	if c.Log.Output == "" {
		c.Log.Output = "stdout"
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
	if c.Pipeline.ProviderTimeout == 0 {
		c.Pipeline.ProviderTimeout = 10 * time.Second
	}
	if c.Pipeline.RetryBackoff == 0 {
		c.Pipeline.RetryBackoff = 2 * time.Second
	}
	if c.Pipeline.MinPoints == 0 {
		c.Pipeline.MinPoints = 10
	}
	if c.News.CacheTTL == 0 {
		c.News.CacheTTL = 30 * time.Minute
	}
	if c.News.RecentWindow == 0 {
		c.News.RecentWindow = 7 * 24 * time.Hour
	}
	if c.News.Limit == 0 {
		c.News.Limit = 50
	}
	if c.News.Redis.Prefix == "" {
		c.News.Redis.Prefix = "marketlens:news:"
	}
	if c.Kafka.RequestsTopic == "" {
		c.Kafka.RequestsTopic = "analysis.requests"
	}
	if c.Kafka.ResultsTopic == "" {
		c.Kafka.ResultsTopic = "analysis.results"
	}
	if c.Kafka.Consumer.GroupID == "" {
		c.Kafka.Consumer.GroupID = "marketlens"
	}
	if c.Providers.ClickHouse.Table == "" {
		c.Providers.ClickHouse.Table = "daily_candles"
	}
	if c.Scheduler.Spec == "" {
		c.Scheduler.Spec = "0 */15 * * * *"
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be positive, got %d", c.Server.Port)
	}
	if c.Pipeline.ProviderTimeout <= 0 {
		return fmt.Errorf("pipeline.provider_timeout must be positive")
	}
	if c.Pipeline.MinPoints < 1 {
		return fmt.Errorf("pipeline.min_points must be at least 1")
	}
	if c.News.CacheTTL <= 0 {
		return fmt.Errorf("news.cache_ttl must be positive")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	if c.Providers.ClickHouse.Enabled && c.ClickHouse.Host == "" {
		return fmt.Errorf("clickhouse.host is required when the clickhouse provider is enabled")
	}
	if c.Scheduler.Enabled && len(c.Scheduler.Watchlist) == 0 {
		return fmt.Errorf("scheduler.watchlist cannot be empty when the scheduler is enabled")
	}
	return nil
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
