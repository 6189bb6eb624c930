// Package bootstrap assembles the service graph from configuration.  It is
// shared by cmd/apiserver, cmd/worker, and the CLI serve command so all entry
// points wire the same components the same way.
package bootstrap

import (
	"context"
	"net/http"

	"github.com/structflo/structflo-ner/internal/application/annotation"
	"github.com/structflo/structflo-ner/internal/config"
	"github.com/structflo/structflo-ner/internal/infrastructure/database/postgres"
	"github.com/structflo/structflo-ner/internal/infrastructure/database/postgres/repositories"
	"github.com/structflo/structflo-ner/internal/infrastructure/database/redis"
	"github.com/structflo/structflo-ner/internal/infrastructure/messaging/kafka"
	"github.com/structflo/structflo-ner/internal/infrastructure/monitoring/logging"
	"github.com/structflo/structflo-ner/internal/infrastructure/monitoring/prometheus"
	httpiface "github.com/structflo/structflo-ner/internal/interfaces/http"
	"github.com/structflo/structflo-ner/internal/interfaces/http/handlers"
	"github.com/structflo/structflo-ner/internal/ner"
)

// App holds the assembled service graph and its teardown hooks.
type App struct {
	Config  *config.Config
	Logger  logging.Logger
	Service *annotation.Service

	Collector prometheus.MetricsCollector
	Metrics   *prometheus.AppMetrics

	Redis    *redis.Client
	Postgres *postgres.Connection
	Producer *kafka.Producer

	Reloader *annotation.Reloader

	closers []func() error
}

// NewLogger builds the process logger from config.
func NewLogger(cfg config.LogConfig) (logging.Logger, error) {
	return logging.NewLogger(logging.LogConfig{
		Level:       cfg.Level,
		Format:      cfg.Format,
		OutputPaths: []string{cfg.Output},
	})
}

// Options tunes which optional components New assembles.
type Options struct {
	// Producer connects the Kafka producer when kafka.enabled is set.
	// The API server uses it to emit results; the CLI does not.
	Producer bool
	// Persistence connects PostgreSQL and runs migrations when
	// database.enabled is set.
	Persistence bool
	// Source labels events published by this process.
	Source string
}

// New assembles the application graph.  Optional backends are connected only
// when both the config enables them and opts asks for them.
func New(cfg *config.Config, log logging.Logger, opts Options) (*App, error) {
	app := &App{Config: cfg, Logger: log}

	if cfg.Metrics.Enabled {
		collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{
			Namespace: cfg.Metrics.Namespace,
		}, log)
		if err != nil {
			return nil, err
		}
		app.Collector = collector
		app.Metrics = prometheus.NewAppMetrics(collector)
	}

	nerOpts := ner.Options{
		FuzzyThreshold: &cfg.NER.FuzzyThreshold,
		GazetteerDir:   cfg.NER.GazetteerDir,
	}
	extractor, err := ner.New(nerOpts)
	if err != nil {
		return nil, err
	}

	deps := annotation.Deps{
		Extractor:    extractor,
		Options:      &nerOpts,
		Metrics:      app.Metrics,
		Logger:       log,
		MaxTextBytes: cfg.NER.MaxTextBytes,
		MaxBatchDocs: cfg.NER.MaxBatchDocs,
		BatchWorkers: cfg.NER.BatchWorkers,
	}

	if cfg.Redis.Enabled {
		client, err := redis.NewClient(cfg.Redis, log)
		if err != nil {
			app.Close()
			return nil, err
		}
		app.Redis = client
		app.closers = append(app.closers, client.Close)
		deps.Redis = client
		deps.CachePrefix = cfg.Redis.KeyPrefix
		deps.CacheTTL = cfg.Redis.DefaultTTL
	}

	if opts.Persistence && cfg.Database.Enabled {
		conn, err := postgres.NewConnection(cfg.Database, log)
		if err != nil {
			app.Close()
			return nil, err
		}
		app.Postgres = conn
		app.closers = append(app.closers, conn.Close)

		if cfg.Database.MigrationPath != "" {
			if err := postgres.NewMigrator(conn, cfg.Database.MigrationPath, log).Up(); err != nil {
				app.Close()
				return nil, err
			}
		}
		deps.Repository = repositories.NewAnnotationRepository(conn.DB(), log)
	}

	if opts.Producer && cfg.Kafka.Enabled {
		producer, err := kafka.NewProducer(cfg.Kafka, opts.Source, log)
		if err != nil {
			app.Close()
			return nil, err
		}
		app.Producer = producer
		app.closers = append(app.closers, producer.Close)
		deps.Producer = producer
		deps.ResultTopic = cfg.Kafka.ResultTopic
	}

	svc, err := annotation.NewService(deps)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Service = svc

	if cfg.NER.WatchGazetteers && cfg.NER.GazetteerDir != "" {
		reloader, err := annotation.NewReloader(svc, cfg.NER.GazetteerDir, log)
		if err != nil {
			app.Close()
			return nil, err
		}
		app.Reloader = reloader
		app.closers = append(app.closers, reloader.Close)
	}

	return app, nil
}

// Router builds the HTTP server over the assembled service.
func (a *App) Router() *httpiface.Server {
	return httpiface.NewServer(a.Config.Server, a.Handler(), a.Logger)
}

// Handler builds the HTTP route tree over the assembled service.
func (a *App) Handler() http.Handler {
	checks := []handlers.ReadinessCheck{
		{Name: "store", Check: func(context.Context) error {
			_ = a.Service.Extractor().Store().TermCount()
			return nil
		}},
	}
	if a.Redis != nil {
		checks = append(checks, handlers.ReadinessCheck{Name: "redis", Check: a.Redis.Ping})
	}
	if a.Postgres != nil {
		checks = append(checks, handlers.ReadinessCheck{Name: "postgres", Check: a.Postgres.HealthCheck})
	}

	return httpiface.NewRouter(httpiface.RouterConfig{
		ExtractHandler:   handlers.NewExtractHandler(a.Service),
		GazetteerHandler: handlers.NewGazetteerHandler(a.Service),
		HealthHandler:    handlers.NewHealthHandler(checks...),
		Logger:           a.Logger,
		Metrics:          a.Metrics,
		MetricsCollector: a.Collector,
		Mode:             a.Config.Server.Mode,
	})
}

// Close tears down every connected backend in reverse order.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.Logger.Warn("shutdown error", logging.Err(err))
		}
	}
	a.closers = nil
}
