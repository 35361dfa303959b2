package di

import (
	"context"
	"fmt"
	"time"

	"MarketPulse/internal/domain/repository"
	"MarketPulse/internal/handler/api"
	internalrepo "MarketPulse/internal/repository"
	"MarketPulse/internal/usecase"
	"MarketPulse/pkg/cache"
	"MarketPulse/pkg/config"
	xhttp "MarketPulse/pkg/http"
	pkgkafka "MarketPulse/pkg/kafka"
	applogger "MarketPulse/pkg/logger"
	"MarketPulse/pkg/metrics"
	pkgpg "MarketPulse/pkg/postgres"
	"MarketPulse/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	lcfg := &applogger.Config{
		Level:  cfg.Logger.Level,
		Format: cfg.Logger.Format,
		Output: cfg.Logger.Output,
	}
	if lcfg.Level == "" {
		lcfg.Level = "info"
	}
	if lcfg.Format == "" {
		lcfg.Format = "console"
	}
	if lcfg.Output == "" {
		lcfg.Output = "stdout"
	}
	return applogger.New(lcfg)
}

// ProvidePostgresClient creates a PostgreSQL client and applies the schema.
func ProvidePostgresClient(cfg *config.Config) (*pkgpg.Client, error) {
	client, err := pkgpg.NewClient(
		pkgpg.WithHost(cfg.Postgres.Host),
		pkgpg.WithPort(cfg.Postgres.Port),
		pkgpg.WithDatabase(cfg.Postgres.Database),
		pkgpg.WithCredentials(cfg.Postgres.User, cfg.Postgres.Password),
		pkgpg.WithSSLMode(cfg.Postgres.SSLMode),
		pkgpg.WithMaxConnections(cfg.Postgres.MaxOpenConns, cfg.Postgres.MaxIdleConns),
		pkgpg.WithConnLifetimes(cfg.Postgres.ConnMaxLifetime, cfg.Postgres.ConnMaxIdleTime),
		pkgpg.WithDialTimeout(cfg.Postgres.DialTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("postgres client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := client.InitSchema(ctx, internalrepo.DDLStatements()); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("postgres schema: %w", err)
	}

	return client, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideCache creates the registry listing cache per configuration.
func ProvideCache(cfg *config.Config) (cache.Service, error) {
	if cfg.Cache.Backend == "redis" {
		c, err := cache.NewRedisCache(
			cache.WithRedisHost(cfg.Cache.Redis.Host),
			cache.WithRedisPort(cfg.Cache.Redis.Port),
			cache.WithRedisPassword(cfg.Cache.Redis.Password),
			cache.WithRedisDB(cfg.Cache.Redis.DB),
		)
		if err != nil {
			return nil, fmt.Errorf("redis cache: %w", err)
		}
		return c, nil
	}
	return cache.NewMemoryCache(), nil
}

// ProvideMarketRepository creates the PostgreSQL market repository.
func ProvideMarketRepository(client *pkgpg.Client, cfg *config.Config) repository.MarketRepository {
	return internalrepo.NewMarketRepo(client.DB(), queryTimeout(cfg))
}

// ProvidePulseRepository creates the PostgreSQL pulse repository.
func ProvidePulseRepository(client *pkgpg.Client, cfg *config.Config) repository.PulseRepository {
	return internalrepo.NewPulseRepo(client.DB(), queryTimeout(cfg))
}

// ProvideMarketRegistry creates the market registry use case.
func ProvideMarketRegistry(
	repo repository.MarketRepository,
	c cache.Service,
	m repository.Metrics,
	l *applogger.Logger,
	cfg *config.Config,
) *usecase.MarketRegistry {
	ttl := cfg.Cache.TTL
	if ttl <= 0 {
		ttl = time.Minute
	}
	return usecase.NewMarketRegistry(repo, c, ttl, m, l)
}

// ProvidePulseStore creates the pulse store use case.
func ProvidePulseStore(
	pulses repository.PulseRepository,
	markets repository.MarketRepository,
	registry *usecase.MarketRegistry,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.PulseStore {
	return usecase.NewPulseStore(pulses, markets, registry, m, l)
}

// ProvideHTTPHandler creates the echo route handler.
func ProvideHTTPHandler(l *applogger.Logger, registry *usecase.MarketRegistry, store *usecase.PulseStore) xhttp.Handler {
	return api.NewPulseHandler(l, registry, store)
}

// ProvideKafkaConsumer creates a Kafka consumer configured from YAML. Returns
// nil when ingestion is disabled.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvidePulseIngestHandler registers the ingest handler for the pulse topic.
func ProvidePulseIngestHandler(
	store *usecase.PulseStore,
	m repository.Metrics,
	l *applogger.Logger,
	cfg *config.Config,
) pkgkafka.MessageHandler {
	if !cfg.Kafka.Enabled {
		return nil
	}
	return usecase.NewPulseIngestHandler(cfg.Kafka.Topic, store, m, l)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	handler xhttp.Handler,
	consumer *pkgkafka.Consumer,
	ingest pkgkafka.MessageHandler,
	pgClient *pkgpg.Client,
	c cache.Service,
) *server.App {
	return server.New(cfg, l, handler, consumer, ingest, pgClient, c)
}

func queryTimeout(cfg *config.Config) time.Duration {
	if cfg.Postgres.QueryTimeout > 0 {
		return cfg.Postgres.QueryTimeout
	}
	return 5 * time.Second
}
