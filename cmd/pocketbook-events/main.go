package main

import (
	"context"
	"errors"
	"os"
	"time"

	"pocketbook/internal/amqp"
	"pocketbook/internal/cli"
	"pocketbook/internal/log"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig(cli.SetupLogger("info").WithComponent(log.ComponentEvents))
	logger := cli.ConfigureLogger(cfg).WithComponent(log.ComponentEvents)

	if !cfg.EventsEnabled() {
		logger.Error("AMQP_URL is required to consume ledger events")
		os.Exit(1)
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}

	ctx, done := cli.GracefulShutdown(logger, 10*time.Second, func() {
		if err := client.Close(); err != nil {
			logger.Warn("Failed to close AMQP client", log.FieldError, err)
		}
	})

	logger.Info("Consuming ledger events",
		log.FieldOperation, log.OpStartup,
		"exchange", cfg.AMQPExchange,
		"queue", cfg.AMQPQueue)

	err = client.ConsumeLedgerEvents(ctx, func(ctx context.Context, ev *amqp.LedgerEvent) error {
		logger.InfoContext(ctx, "Ledger event",
			"event_id", ev.ID,
			"event_type", ev.Type,
			log.FieldUsername, ev.Username,
			log.FieldAmountCents, ev.AmountCents,
			log.FieldCategory, ev.Category,
			log.FieldFrequency, ev.Frequency,
			"timestamp", ev.Timestamp)
		return nil
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", log.FieldError, err)
		client.Close()
		os.Exit(1)
	}
	<-done
}
