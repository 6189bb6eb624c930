// Command apiserver runs the extraction HTTP API with its configured
// backends: Redis result cache, PostgreSQL persistence, and the Kafka
// result producer.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/structflo/structflo-ner/internal/bootstrap"
	"github.com/structflo/structflo-ner/internal/config"
	"github.com/structflo/structflo-ner/internal/infrastructure/monitoring/logging"
)

func main() {
	configPath := flag.String("config", "", "path to the configuration file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "apiserver: %v\n", err)
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

	log, err := bootstrap.NewLogger(cfg.Log)
	if err != nil {
		return err
	}
	log = log.Named("apiserver")

	app, err := bootstrap.New(cfg, log, bootstrap.Options{
		Producer:    true,
		Persistence: true,
		Source:      "sfner-apiserver",
	})
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if app.Reloader != nil {
		go func() {
			if err := app.Reloader.Run(ctx); err != nil {
				log.Warn("gazetteer watcher stopped", logging.Err(err))
			}
		}()
	}

	server := app.Router()
	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutdown signal received, draining requests")
	return server.Shutdown(context.Background())
}
