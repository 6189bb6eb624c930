package cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/structflo/structflo-ner/internal/bootstrap"
	"github.com/structflo/structflo-ner/internal/infrastructure/monitoring/logging"
)

func newServeCmd(root *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the extraction HTTP API server",
		Long:  "Serve loads configuration, assembles the extraction service with its\nconfigured backends, and runs the HTTP API until interrupted.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, root)
		},
	}
}

func runServe(cmd *cobra.Command, root *RootOptions) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	if root.GazetteerDir != "" {
		cfg.NER.GazetteerDir = root.GazetteerDir
	}

	log, err := bootstrap.NewLogger(cfg.Log)
	if err != nil {
		return err
	}

	app, err := bootstrap.New(cfg, log, bootstrap.Options{
		Producer:    true,
		Persistence: true,
		Source:      "sfner-serve",
	})
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
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

	log.Info("shutdown signal received")
	if err := server.Shutdown(context.Background()); err != nil {
		log.Error("graceful shutdown failed", logging.Err(err))
		return err
	}
	return nil
}
