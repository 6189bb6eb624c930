// Command worker consumes extraction requests from Kafka, runs the
// extraction pipeline, persists the results, and publishes the outcome
// to the result topic.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/structflo/structflo-ner/internal/bootstrap"
	"github.com/structflo/structflo-ner/internal/config"
	"github.com/structflo/structflo-ner/internal/infrastructure/messaging/kafka"
	"github.com/structflo/structflo-ner/internal/infrastructure/monitoring/logging"
	"github.com/structflo/structflo-ner/internal/infrastructure/monitoring/prometheus"
	apperrors "github.com/structflo/structflo-ner/pkg/errors"
)

func main() {
	configPath := flag.String("config", "", "path to the configuration file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "worker: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.Load(configPath)
	} else {
		cfg, err = config.LoadFromEnv()
	}
	if err != nil {
		return err
	}
	if !cfg.Kafka.Enabled {
		return apperrors.New(apperrors.ErrCodeConfigInvalid, "worker requires kafka.enabled")
	}

	log, err := bootstrap.NewLogger(cfg.Log)
	if err != nil {
		return err
	}
	log = log.Named("worker")

	app, err := bootstrap.New(cfg, log, bootstrap.Options{
		Producer:    true,
		Persistence: true,
		Source:      "sfner-worker",
	})
	if err != nil {
		return err
	}
	defer app.Close()

	handler := newExtractHandler(app, cfg.Kafka.ExtractTopic, log)
	consumer, err := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.ExtractTopic, handler, log)
	if err != nil {
		return err
	}
	defer consumer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if app.Reloader != nil {
		go func() {
			if err := app.Reloader.Run(ctx); err != nil {
				log.Warn("gazetteer watcher stopped", logging.Err(err))
			}
		}()
	}

	if app.Collector != nil && cfg.Metrics.Enabled {
		go serveMetrics(ctx, cfg, app.Collector, log)
	}

	log.Info("worker consuming",
		logging.String("topic", cfg.Kafka.ExtractTopic),
		logging.String("group", cfg.Kafka.GroupID))

	err = consumer.Run(ctx)
	if ctx.Err() != nil {
		log.Info("shutdown signal received")
		return nil
	}
	return err
}

// newExtractHandler adapts the annotation service to the consumer loop.
func newExtractHandler(app *bootstrap.App, topic string, log logging.Logger) kafka.Handler {
	return func(ctx context.Context, env *kafka.EventEnvelope) error {
		if env.EventType != kafka.EventTypeExtractRequested {
			log.Debug("ignoring event", logging.String("event_type", env.EventType))
			return nil
		}

		var payload kafka.ExtractRequestPayload
		if err := env.DecodePayload(&payload); err != nil {
			return err
		}

		start := time.Now()
		result, err := app.Service.ProcessDocument(ctx, payload.DocumentID, payload.Text)
		if app.Metrics != nil {
			outcome := "ok"
			if err != nil {
				outcome = "error"
			}
			app.Metrics.MessagesConsumedTotal.WithLabelValues(topic, outcome).Inc()
			app.Metrics.MessageProcessDuration.WithLabelValues(topic).Observe(time.Since(start).Seconds())
		}
		if err != nil {
			return err
		}

		log.Info("document processed",
			logging.String("document_id", payload.DocumentID),
			logging.Int("entities", len(result.Entities)),
			logging.Duration("took", time.Since(start)))
		return nil
	}
}

// serveMetrics exposes the Prometheus endpoint on the configured HTTP port.
func serveMetrics(ctx context.Context, cfg *config.Config, collector prometheus.MetricsCollector, log logging.Logger) {
	mux := http.NewServeMux()
	path := cfg.Metrics.Path
	if path == "" {
		path = "/metrics"
	}
	mux.Handle(path, collector.Handler())

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: mux,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Info("metrics endpoint listening", logging.String("addr", srv.Addr))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Warn("metrics endpoint stopped", logging.Err(err))
	}
}
