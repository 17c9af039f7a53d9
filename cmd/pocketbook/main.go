package main

import (
	"context"
	"errors"
	"os"
	"sync"
	"time"

	"pocketbook/internal/backend"
	"pocketbook/internal/cli"
	"pocketbook/internal/log"
	"pocketbook/internal/menu"
	"pocketbook/internal/services"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig(cli.SetupLogger("info"))
	logger := cli.ConfigureLogger(cfg)

	logger.Info("Starting pocketbook",
		log.FieldOperation, log.OpStartup,
		log.FieldBackend, cfg.DataBackend,
		"events_enabled", cfg.EventsEnabled(),
		"sheets_enabled", cfg.SheetsEnabled())

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}

	result, err := backend.NewFactory(logger).CreateBackend(context.Background(), backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err)
		os.Exit(1)
	}

	var once sync.Once
	cleanup := func() {
		once.Do(func() {
			if err := result.Cleanup(); err != nil {
				logger.Error("Cleanup failed", log.FieldOperation, log.OpShutdown, log.FieldError, err)
			}
		})
	}

	ctx, done := cli.GracefulShutdown(logger, 10*time.Second, cleanup)

	svc, err := services.NewLedgerService(ctx, result.Gateway, cli.Hasher(cfg), result.Publisher, logger)
	if err != nil {
		logger.Error("Failed to load ledger",
			log.FieldOperation, log.OpLoad,
			log.FieldError, err,
			log.FieldErrorType, log.ErrorType(err))
		cleanup()
		os.Exit(1)
	}

	m := menu.New(svc, result.Exporters, os.Stdin, os.Stdout, logger)
	menuErr := make(chan error, 1)
	go func() { menuErr <- m.Run(ctx) }()

	select {
	case err := <-menuErr:
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Menu stopped", log.FieldError, err)
			cleanup()
			os.Exit(1)
		}
		cleanup()
	case <-done:
	}
}
