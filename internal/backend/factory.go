package backend

import (
	"context"
	"errors"
	"fmt"

	"pocketbook/internal/amqp"
	"pocketbook/internal/export"
	"pocketbook/internal/log"
	"pocketbook/internal/storage"
	"pocketbook/internal/storage/memory"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.Discard()
	}
	return &DefaultFactory{
		logger: logger.WithComponent(log.ComponentBackend),
	}
}

// CreateBackend opens the gateway, then the optional publisher and exporters.
// Optional collaborators that fail to start are logged and skipped.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	result := &BackendResult{}
	var closers []func() error
	storageLog := f.logger.WithComponent(log.ComponentStorage)
	amqpLog := f.logger.WithComponent(log.ComponentAMQP)
	exportLog := f.logger.WithComponent(log.ComponentExport)

	switch config.Type {
	case JSONBackend:
		result.Gateway = storage.NewFileGateway(config.DataFile)
		storageLog.Info("Initialized JSON file backend", log.FieldPath, config.DataFile)
	case SQLiteBackend:
		gw, err := storage.NewSQLiteGateway(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite gateway: %w", err)
		}
		result.Gateway = gw
		closers = append(closers, gw.Close)
		storageLog.Info("Initialized SQLite backend",
			log.FieldPath, config.SQLiteDBPath,
			"schema_version", gw.SchemaVersion())
	case MemoryBackend:
		result.Gateway = memory.New()
		storageLog.Warn("Initialized memory backend, nothing will be persisted")
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}

	if config.AMQPURL != "" {
		client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
		if err != nil {
			amqpLog.Warn("Failed to initialize AMQP client, continuing without ledger events", log.FieldError, err)
		} else {
			result.Publisher = client
			closers = append(closers, client.Close)
			amqpLog.Info("Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
		}
	}

	result.Exporters = append(result.Exporters, export.NewCSVExporter(config.ExportDir))
	if config.GoogleSpreadsheetID != "" {
		sheets, err := export.NewSheetsExporter(ctx, export.SheetsConfig{
			SpreadsheetID:      config.GoogleSpreadsheetID,
			SheetName:          config.GoogleSheetName,
			ServiceAccountFile: config.GoogleServiceAccountFile,
			ServiceAccountJSON: config.GoogleServiceAccountJSON,
			RequestTimeout:     config.GoogleRequestTimeout,
		})
		if err != nil {
			exportLog.Warn("Failed to initialize Google Sheets export, continuing with CSV only", log.FieldError, err)
		} else {
			result.Exporters = append(result.Exporters, sheets)
			exportLog.Info("Initialized Google Sheets export", "sheet", config.GoogleSheetName)
		}
	}

	result.Cleanup = func() error {
		var errs []error
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}
	return result, nil
}
