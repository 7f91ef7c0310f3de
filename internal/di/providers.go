package di

import (
	"context"
	"fmt"
	"time"

	"PivotScreener/internal/domain/models"
	"PivotScreener/internal/domain/repository"
	"PivotScreener/internal/handler/api"
	internalrepo "PivotScreener/internal/repository"
	"PivotScreener/internal/scheduler"
	"PivotScreener/internal/service/exchange"
	imetrics "PivotScreener/internal/service/metrics"
	"PivotScreener/internal/service/ratelimit"
	"PivotScreener/internal/usecase"
	"PivotScreener/pkg/cache"
	pkgch "PivotScreener/pkg/clickhouse"
	"PivotScreener/pkg/config"
	xhttp "PivotScreener/pkg/http"
	pkgkafka "PivotScreener/pkg/kafka"
	applogger "PivotScreener/pkg/logger"
	"PivotScreener/pkg/metrics"
	"PivotScreener/pkg/server"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// ProvideLogger creates the application logger from the log section.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l.With(applogger.String("env", cfg.Environment)), nil
}

// ProvideRegistry creates the Prometheus registry served on the metrics path.
// Kafka collectors are pointed at it as well.
func ProvideRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	pkgkafka.SetMetricsRegisterer(reg)
	return reg
}

// ProvideMetrics creates the screener metrics recorder.
func ProvideMetrics(reg *prometheus.Registry) repository.Metrics {
	return metrics.NewWithRegisterer(reg)
}

// ProvideExchangeClient creates the Binance REST client. Its limiter is private
// so nothing a caller sends can reach the exchange bucket.
func ProvideExchangeClient(cfg *config.Config, reg *prometheus.Registry, l *applogger.Logger) *exchange.Client {
	return exchange.New(cfg.Exchange.BaseURL,
		exchange.WithHTTPClient(xhttp.NewClient(
			xhttp.WithTimeout(cfg.Exchange.Timeout),
			xhttp.WithUserAgent("pivot-screener"),
		)),
		exchange.WithRateLimit(ratelimit.New(), float64(cfg.Exchange.RateCapacity), cfg.Exchange.RateRefill),
		exchange.WithRetry(cfg.Exchange.MaxRetries, cfg.Exchange.RetryBackoff),
		exchange.WithMetrics(imetrics.NewExchange(reg)),
		exchange.WithLogger(l.With(applogger.String("component", "exchange"))),
	)
}

// ProvideClickHouseClient creates a ClickHouse client and makes sure the bar
// tables exist. It returns nil when bars are not read from ClickHouse.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, func(), error) {
	if cfg.Screener.Source != "clickhouse" {
		return nil, func() {}, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := client.InitSchema(ctx, internalrepo.SchemaStatements(cfg.ClickHouse.Database)); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return client, func() { _ = client.Close() }, nil
}

// ProvideCache creates the bar cache backend, or nil when caching is off.
func ProvideCache(cfg *config.Config) (cache.Service, func(), error) {
	c, err := newCache(cfg)
	if err != nil || c == nil {
		return nil, func() {}, err
	}
	return c, func() { _ = c.Close() }, nil
}

func newCache(cfg *config.Config) (cache.Service, error) {
	if !cfg.Cache.Enabled {
		return nil, nil
	}
	switch cfg.Cache.Backend {
	case "memory":
		return cache.NewMemoryCache(
			cache.WithMemoryMaxSize(1000),
			cache.WithMemoryCleanup(cfg.Cache.BarsTTL),
		), nil
	case "redis", "layered":
		rc, err := cache.NewRedisCache(
			cache.WithRedisAddr(cfg.Cache.Redis.Addr),
			cache.WithRedisPassword(cfg.Cache.Redis.Password),
			cache.WithRedisDB(cfg.Cache.Redis.DB),
			cache.WithRedisPool(10, 2, 30*time.Second),
			cache.WithRedisPrefix(cfg.Cache.Redis.Prefix),
		)
		if err != nil {
			return nil, fmt.Errorf("redis cache: %w", err)
		}
		if cfg.Cache.Backend == "redis" {
			return rc, nil
		}
		return cache.NewLayeredCache(rc,
			cache.WithLayeredMemorySize(1000),
			cache.WithLayeredMemoryTTL(cfg.Cache.BarsTTL),
		), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Cache.Backend)
	}
}

// ProvideMarketData selects the bar source and puts the cache in front of it.
func ProvideMarketData(cfg *config.Config, ex *exchange.Client, ch *pkgch.Client, c cache.Service, l *applogger.Logger) repository.MarketData {
	var src repository.MarketData = ex
	if cfg.Screener.Source == "clickhouse" && ch != nil {
		src = internalrepo.NewCHBarStore(ch, l.With(applogger.String("component", "clickhouse")))
	}
	if c == nil {
		return src
	}
	return internalrepo.NewCachedMarketData(src, c, cfg.Cache.BarsTTL, cfg.Cache.SymbolsTTL, l)
}

// ProvideScreener creates the screener use case.
func ProvideScreener(cfg *config.Config, md repository.MarketData, m repository.Metrics, l *applogger.Logger) *usecase.Screener {
	return usecase.NewScreener(md,
		usecase.WithWorkers(cfg.Screener.Workers),
		usecase.WithSymbolTimeout(cfg.Exchange.Timeout*time.Duration(cfg.Exchange.MaxRetries+1)),
		usecase.WithScreenerMetrics(m),
		usecase.WithScreenerLogger(l.With(applogger.String("component", "screener"))),
	)
}

// ProvideKafkaProducer creates a Kafka producer, or nil when Kafka is off.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, func(), error) {
	if !cfg.Kafka.Enabled {
		return nil, func() {}, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithHashByKey(true),
		pkgkafka.WithAutoCreateTopics(cfg.Environment == "development"),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, func() { _ = producer.Close() }, nil
}

// ProvideReportPublisher wraps the producer. A nil producer yields a nil
// publisher so reports are only logged.
func ProvideReportPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.ReportPublisher {
	if producer == nil {
		return nil
	}
	return internalrepo.NewKafkaReportPublisher(producer, cfg.Kafka.ReportTopic)
}

// ProvideKafkaConsumer creates the screen request consumer, or nil when Kafka is off.
// The cleanup is a no-op once the app has stopped the consumer.
func ProvideKafkaConsumer(cfg *config.Config, l *applogger.Logger) (*pkgkafka.Consumer, func(), error) {
	if !cfg.Kafka.Enabled {
		return nil, func() {}, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
		pkgkafka.WithConsumerLogger(l),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("kafka consumer: %w", err)
	}
	consumer.WithConsumerHook(pkgkafka.NewHookChain(pkgkafka.TraceHook(), pkgkafka.LoggingHook(l)))
	cleanup := func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		_ = consumer.Stop(ctx)
	}
	return consumer, cleanup, nil
}

// ProvideScreenRequestHandler handles screen requests arriving on the request topic.
func ProvideScreenRequestHandler(cfg *config.Config, s *usecase.Screener, pub repository.ReportPublisher, m repository.Metrics, l *applogger.Logger) *usecase.ScreenRequestHandler {
	if pub == nil {
		return nil
	}
	return usecase.NewScreenRequestHandler(cfg.Kafka.RequestTopic, s, pub, m, l)
}

// ProvideScheduler creates the periodic report job, or nil when scheduling is off.
func ProvideScheduler(cfg *config.Config, s *usecase.Screener, pub repository.ReportPublisher, l *applogger.Logger) (*scheduler.Scheduler, error) {
	if !cfg.Schedule.Enabled {
		return nil, nil
	}
	sch := scheduler.NewScheduler(s, pub, l.With(applogger.String("component", "scheduler")))
	if err := sch.Register(scheduler.Job{
		Spec:      cfg.Schedule.Cron,
		Symbols:   cfg.Screener.Symbols,
		Timeframe: models.Timeframe(cfg.Screener.Timeframe),
		Limit:     cfg.Screener.Limit,
	}); err != nil {
		return nil, err
	}
	return sch, nil
}

// ProvideHTTPHandler creates the screener API handler with its own per-client
// limiter.
func ProvideHTTPHandler(cfg *config.Config, s *usecase.Screener, l *applogger.Logger) xhttp.Handler {
	h := api.NewScreenerEchoHandler(l, s, cfg.Screener.Symbols)
	h.SetRateLimit(ratelimit.New(ratelimit.WithIdleTTL(10*time.Minute)), float64(cfg.Server.RateCapacity), cfg.Server.RateRefill)
	h.SetMaxSymbols(cfg.Server.MaxSymbols)
	return h
}

// ProvideHTTPServer creates the Echo server with the metrics endpoint.
func ProvideHTTPServer(cfg *config.Config, h xhttp.Handler, reg *prometheus.Registry, l *applogger.Logger) *xhttp.Server {
	path := ""
	if cfg.Metrics.Enabled {
		path = cfg.Metrics.Path
	}
	return xhttp.NewServer(h,
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithMetrics(path, reg, reg),
		xhttp.WithCORS(cfg.Server.CORSOrigins...),
		xhttp.WithTrustProxy(cfg.Server.TrustProxy),
		xhttp.WithLogger(l),
	)
}

// ProvideApp assembles the application. Clients are closed by the injector's
// cleanup, after the app has shut down.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	httpServer *xhttp.Server,
	consumer *pkgkafka.Consumer,
	rh *usecase.ScreenRequestHandler,
	sch *scheduler.Scheduler,
) *server.App {
	app := server.New(cfg, l, httpServer)
	if consumer != nil && rh != nil {
		app.SetConsumer(consumer, rh)
	}
	if sch != nil {
		app.SetScheduler(sch)
	}
	return app
}
