package di

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/MiguelT18/trading-bot/internal/domain/repository"
	"github.com/MiguelT18/trading-bot/internal/handler/api"
	mid "github.com/MiguelT18/trading-bot/internal/middleware"
	internalrepo "github.com/MiguelT18/trading-bot/internal/repository"
	"github.com/MiguelT18/trading-bot/internal/service/deriv"
	"github.com/MiguelT18/trading-bot/internal/service/ratelimit"
	"github.com/MiguelT18/trading-bot/internal/usecase"
	pkgcache "github.com/MiguelT18/trading-bot/pkg/cache"
	"github.com/MiguelT18/trading-bot/pkg/config"
	xhttp "github.com/MiguelT18/trading-bot/pkg/http"
	pkgkafka "github.com/MiguelT18/trading-bot/pkg/kafka"
	"github.com/MiguelT18/trading-bot/pkg/logger"
	"github.com/MiguelT18/trading-bot/pkg/metrics"
	"github.com/MiguelT18/trading-bot/pkg/rabbitmq"
	"github.com/MiguelT18/trading-bot/pkg/server"
)

// ProvideLogger creates the application logger from the log section.
func ProvideLogger(cfg *config.Config) (*logger.Logger, error) {
	l, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		Compress:   cfg.Log.Compress,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l.With(logger.String("env", cfg.Environment)), nil
}

// ProvideRegistry creates a private registry carrying the Go and process collectors.
func ProvideRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics(reg *prometheus.Registry) repository.Metrics {
	return metrics.New(reg)
}

// ProvideStreamFeed creates the store the Kafka ticks consumer writes into.
func ProvideStreamFeed() *internalrepo.StreamFeed {
	return internalrepo.NewStreamFeed()
}

// ProvidePriceFeed selects the Deriv websocket client or the Kafka-backed stream feed.
func ProvidePriceFeed(cfg *config.Config, log *logger.Logger, stream *internalrepo.StreamFeed) repository.PriceFeed {
	if cfg.Feed.Type == config.FeedKafka {
		return stream
	}
	return deriv.New(
		deriv.WithURL(cfg.Deriv.WebSocketURL),
		deriv.WithAppID(cfg.Deriv.AppID),
		deriv.WithAPIToken(cfg.Deriv.APIToken),
		deriv.WithReconnectDelay(cfg.Deriv.ReconnectDelay),
		deriv.WithPingInterval(cfg.Deriv.PingInterval),
		deriv.WithRequestTimeout(cfg.Deriv.RequestTimeout),
		deriv.WithLogger(log),
	)
}

// ProvideIngest creates the ticks consumer when the feed type is kafka.
func ProvideIngest(cfg *config.Config, log *logger.Logger, stream *internalrepo.StreamFeed, m repository.Metrics) (server.Ingest, error) {
	if cfg.Feed.Type != config.FeedKafka {
		return server.Ingest{}, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
		pkgkafka.WithConsumerLogger(log),
	)
	if err != nil {
		return server.Ingest{}, fmt.Errorf("kafka consumer: %w", err)
	}
	return server.Ingest{
		Consumer: consumer,
		Handler:  usecase.NewTicksHandler(cfg.Kafka.TicksTopic, stream, m),
	}, nil
}

// ProvideDelivery builds every configured sink. Sinks that can fail
// downstream get their own retry pipeline.
func ProvideDelivery(cfg *config.Config, log *logger.Logger, m repository.Metrics, reg *prometheus.Registry) (server.Delivery, error) {
	var (
		sinks     []repository.IntentSink
		pipelines mid.PipelineGroup
	)
	fail := func(err error) (server.Delivery, error) {
		closeErr := internalrepo.NewMultiSink(sinks...).Close()
		return server.Delivery{}, errors.Join(err, closeErr)
	}
	buffered := func(name string, s repository.IntentSink) {
		p := mid.NewIntentPipeline(s, m,
			mid.WithBufferSize(cfg.Pipeline.BufferSize),
			mid.WithBackoff(cfg.Pipeline.BackoffMin, cfg.Pipeline.BackoffMax),
			mid.WithPipelineLogger(log.With(logger.String("sink", name))),
		)
		pipelines = append(pipelines, p)
		sinks = append(sinks, p)
	}

	for _, name := range cfg.Sinks {
		switch name {
		case config.SinkLog:
			sinks = append(sinks, internalrepo.NewLogIntentSink(log))
		case config.SinkKafka:
			producer, err := pkgkafka.NewProducer(
				pkgkafka.WithBrokers(cfg.Kafka.Brokers),
				pkgkafka.WithCompression(cfg.Kafka.Compression),
				pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
				pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
				pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.BatchTimeout),
				pkgkafka.WithWriteTimeout(cfg.Kafka.Producer.WriteTimeout),
				pkgkafka.WithHashByKey(true),
				pkgkafka.WithProducerRegisterer(reg),
			)
			if err != nil {
				return fail(fmt.Errorf("kafka producer: %w", err))
			}
			buffered(name, internalrepo.NewKafkaIntentPublisher(producer, cfg.Kafka.IntentsTopic))
		case config.SinkRedis:
			rc, err := pkgcache.NewRedisCache(
				pkgcache.WithRedisAddr(cfg.Redis.Addr),
				pkgcache.WithRedisPassword(cfg.Redis.Password),
				pkgcache.WithRedisDB(cfg.Redis.DB),
			)
			if err != nil {
				return fail(fmt.Errorf("redis sink: %w", err))
			}
			buffered(name, internalrepo.NewRedisIntentPublisher(rc, cfg.Redis.ChannelPrefix, cfg.Redis.LastIntentTTL))
		case config.SinkRabbitMQ:
			conn := rabbitmq.NewConnection(rabbitmq.Config{URL: cfg.RabbitMQ.URL}, log)
			if err := conn.Connect(); err != nil {
				return fail(fmt.Errorf("rabbitmq sink: %w", err))
			}
			pub := rabbitmq.NewPublisher(conn, cfg.RabbitMQ.Exchange, rabbitmq.DefaultExchangeOptions())
			buffered(name, internalrepo.NewRabbitIntentPublisher(pub, cfg.RabbitMQ.RoutingKey, conn.Close))
		default:
			return fail(fmt.Errorf("%w: unknown sink %q", config.ErrInvalid, name))
		}
	}

	log.Info("intent sinks ready", logger.Strings("sinks", cfg.Sinks))
	return server.Delivery{Sink: internalrepo.NewMultiSink(sinks...), Pipelines: pipelines}, nil
}

// ProvideJournal creates the in-memory evaluation ring.
func ProvideJournal(cfg *config.Config) *usecase.Journal {
	return usecase.NewJournal(cfg.Trading.JournalSize)
}

// ProvideTradingLoop creates the trading loop use case.
func ProvideTradingLoop(
	cfg *config.Config,
	feed repository.PriceFeed,
	delivery server.Delivery,
	journal *usecase.Journal,
	m repository.Metrics,
	log *logger.Logger,
) (*usecase.TradingLoop, error) {
	return usecase.NewTradingLoop(cfg.Trading, feed,
		usecase.WithSink(delivery.Sink),
		usecase.WithJournal(journal),
		usecase.WithMetrics(m),
		usecase.WithLogger(log),
		usecase.WithFetchTimeout(cfg.Feed.FetchTimeout),
	)
}

// ProvideRateLimiter creates the per-client limiter of the status API.
func ProvideRateLimiter(cfg *config.Config) *ratelimit.Limiter {
	return ratelimit.New(cfg.Server.RateLimit.Capacity, cfg.Server.RateLimit.RefillPerSec)
}

// ProvideStatusHandler creates the status API handler.
func ProvideStatusHandler(
	cfg *config.Config,
	log *logger.Logger,
	loop *usecase.TradingLoop,
	journal *usecase.Journal,
	feed repository.PriceFeed,
	delivery server.Delivery,
	limiter *ratelimit.Limiter,
) *api.StatusEchoHandler {
	var conn api.ConnectionChecker
	if cf, ok := feed.(repository.ConnectedFeed); ok {
		conn = cf
	}
	return api.NewStatusEchoHandler(log, loop, journal,
		api.WithFeed(cfg.Feed.Type, conn),
		api.WithPending(delivery.Pipelines),
		api.WithRateLimit(limiter),
	)
}

// ProvideHTTPServer creates the echo server hosting the status API and /metrics.
func ProvideHTTPServer(cfg *config.Config, log *logger.Logger, h *api.StatusEchoHandler, reg *prometheus.Registry) *xhttp.Server {
	opts := []xhttp.ServerOption{
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithServerLogger(log),
	}
	if cfg.Metrics.Enabled {
		opts = append(opts, xhttp.WithMetrics(cfg.Metrics.Path, reg, reg))
	}
	return xhttp.NewServer([]xhttp.Handler{h}, opts...)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	log *logger.Logger,
	feed repository.PriceFeed,
	ingest server.Ingest,
	delivery server.Delivery,
	loop *usecase.TradingLoop,
	srv *xhttp.Server,
) *server.App {
	return server.New(log, feed, ingest, delivery, loop, srv, cfg.Server.ShutdownTimeout)
}
