package config

import (
	"fmt"
	"os"
	"time"

	"PivotScreener/pkg/util"

	"github.com/creasty/defaults"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string           `yaml:"environment" default:"development"`
	Server      ServerConfig     `yaml:"server"`
	Log         LogConfig        `yaml:"log"`
	Metrics     MetricsConfig    `yaml:"metrics"`
	Screener    ScreenerConfig   `yaml:"screener"`
	Exchange    ExchangeConfig   `yaml:"exchange"`
	Cache       CacheConfig      `yaml:"cache"`
	Kafka       KafkaConfig      `yaml:"kafka"`
	ClickHouse  ClickHouseConfig `yaml:"clickhouse"`
	Schedule    ScheduleConfig   `yaml:"schedule"`
}

type ServerConfig struct {
	Port            int           `yaml:"port" default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
	// CORSOrigins may call the API from a browser; empty disables CORS.
	CORSOrigins []string `yaml:"cors_origins" default:"[\"*\"]"`
	// TrustProxy reads the client IP from X-Forwarded-For (private hops only).
	TrustProxy bool `yaml:"trust_proxy"`
	// Per-client throttle on /api/report and /api/detail.
	RateCapacity int     `yaml:"rate_capacity" default:"5"`
	RateRefill   float64 `yaml:"rate_refill_per_sec" default:"1"`
	// MaxSymbols caps the symbols one report request may screen.
	MaxSymbols int `yaml:"max_symbols" default:"50"`
}

type LogConfig struct {
	Level  string `yaml:"level" default:"info"`
	Format string `yaml:"format" default:"console"`
	Output string `yaml:"output" default:"stdout"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" default:"true"`
	Path    string `yaml:"path" default:"/metrics"`
}

type ScreenerConfig struct {
	Symbols   []string `yaml:"symbols" default:"[\"BTC/USDT\",\"ETH/USDT\"]"`
	Timeframe string   `yaml:"timeframe" default:"1d"`
	Limit     int      `yaml:"limit" default:"365"`
	Workers   int      `yaml:"workers" default:"4"`
	// Source selects the MarketData collaborator: exchange or clickhouse.
	Source string `yaml:"source" default:"exchange"`
}

type ExchangeConfig struct {
	BaseURL      string        `yaml:"base_url" default:"https://api.binance.com"`
	Timeout      time.Duration `yaml:"timeout" default:"10s"`
	MaxRetries   int           `yaml:"max_retries" default:"3"`
	RetryBackoff time.Duration `yaml:"retry_backoff" default:"500ms"`
	// Token bucket shared by all outbound requests.
	RateCapacity int     `yaml:"rate_capacity" default:"10"`
	RateRefill   float64 `yaml:"rate_refill_per_sec" default:"5"`
}

type CacheConfig struct {
	Enabled    bool          `yaml:"enabled" default:"true"`
	Backend    string        `yaml:"backend" default:"memory"`
	BarsTTL    time.Duration `yaml:"bars_ttl" default:"1m"`
	SymbolsTTL time.Duration `yaml:"symbols_ttl" default:"1h"`
	Redis      struct {
		Addr     string `yaml:"addr" default:"localhost:6379"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix" default:"pivot-screener"`
	} `yaml:"redis"`
}

type KafkaConfig struct {
	Enabled      bool     `yaml:"enabled"`
	Brokers      []string `yaml:"brokers" default:"[\"localhost:9092\"]"`
	ReportTopic  string   `yaml:"report_topic" default:"screener.reports"`
	RequestTopic string   `yaml:"request_topic" default:"screener.requests"`
	RequiredAcks int      `yaml:"required_acks" default:"-1"`
	Compression  string   `yaml:"compression" default:"snappy"`
	Producer     struct {
		MaxAttempts  int           `yaml:"max_attempts" default:"5"`
		Linger       time.Duration `yaml:"linger" default:"10ms"`
		BatchBytes   int           `yaml:"batch_bytes" default:"1048576"`
		BatchSize    int           `yaml:"batch_size" default:"100"`
		WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
		ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
	} `yaml:"producer"`
	Consumer struct {
		GroupID    string        `yaml:"group_id" default:"pivot-screener"`
		Workers    int           `yaml:"workers" default:"2"`
		BufferSize int           `yaml:"buffer_size" default:"100"`
		RetryMax   int           `yaml:"retry_max" default:"3"`
		BackoffMin time.Duration `yaml:"backoff_min" default:"100ms"`
		BackoffMax time.Duration `yaml:"backoff_max" default:"2s"`
		DLQTopic   string        `yaml:"dlq_topic" default:"screener.requests.dlq"`
		MinBytes   int           `yaml:"min_bytes" default:"1"`
		MaxBytes   int           `yaml:"max_bytes" default:"10485760"`
	} `yaml:"consumer"`
}

type ClickHouseConfig struct {
	Host             string        `yaml:"host" default:"localhost"`
	Port             int           `yaml:"port" default:"9000"`
	Database         string        `yaml:"database" default:"market"`
	User             string        `yaml:"user" default:"default"`
	Password         string        `yaml:"password"`
	UseHTTP          bool          `yaml:"use_http"`
	DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
	ReadTimeout      time.Duration `yaml:"read_timeout" default:"30s"`
	WriteTimeout     time.Duration `yaml:"write_timeout" default:"30s"`
	MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"60s"`
}

type ScheduleConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Cron       string `yaml:"cron" default:"0 5 0 * * *"`
	RunOnStart bool   `yaml:"run_on_start"`
}

// Default returns a Config populated from struct tag defaults only.
func Default() (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("config defaults: %w", err)
	}
	return &c, nil
}

// Load reads and parses a YAML configuration file on top of the defaults.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

// Parse decodes YAML bytes on top of the defaults and validates the result.
func Parse(b []byte) (*Config, error) {
	c, err := Default()
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
// A missing file is not an error; defaults plus environment are used instead.
func LoadWithEnv(path string) (*Config, error) {
	var (
		c   *Config
		err error
	)
	if _, statErr := os.Stat(path); statErr == nil {
		c, err = Load(path)
	} else {
		c, err = Default()
	}
	if err != nil {
		return nil, err
	}

	c.ApplyEnv(os.Getenv)
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// ApplyEnv overrides fields from environment lookups.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv("SCREENER_SYMBOLS"); v != "" {
		c.Screener.Symbols = util.SplitList(v)
	}
	if v := getenv("SCREENER_SOURCE"); v != "" {
		c.Screener.Source = v
	}
	if v := getenv("EXCHANGE_BASE_URL"); v != "" {
		c.Exchange.BaseURL = v
	}
	if v := getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = util.SplitList(v)
	}
	if v := getenv("REDIS_ADDR"); v != "" {
		c.Cache.Redis.Addr = v
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	switch c.Screener.Timeframe {
	case "1d", "1h", "1w", "1m":
	default:
		return fmt.Errorf("screener.timeframe must be one of 1d, 1h, 1w, 1m, got '%s'", c.Screener.Timeframe)
	}
	if c.Screener.Limit < 1 || c.Screener.Limit > 1000 {
		return fmt.Errorf("screener.limit must be within [1, 1000], got %d", c.Screener.Limit)
	}
	if c.Server.MaxSymbols < 1 {
		return fmt.Errorf("server.max_symbols must be positive")
	}
	if c.Screener.Workers < 1 {
		return fmt.Errorf("screener.workers must be positive")
	}
	if c.Screener.Source != "exchange" && c.Screener.Source != "clickhouse" {
		return fmt.Errorf("screener.source must be 'exchange' or 'clickhouse', got '%s'", c.Screener.Source)
	}
	switch c.Cache.Backend {
	case "memory", "redis", "layered":
	default:
		return fmt.Errorf("cache.backend must be 'memory', 'redis' or 'layered', got '%s'", c.Cache.Backend)
	}
	if c.Screener.Source == "exchange" && c.Exchange.BaseURL == "" {
		return fmt.Errorf("exchange.base_url is required")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	if c.Schedule.Enabled && c.Schedule.Cron == "" {
		return fmt.Errorf("schedule.cron is required when the schedule is enabled")
	}
	return nil
}
