package backend

import (
	"context"
	"fmt"
	"io"

	"rupeetrack/internal/amqp"
	applog "rupeetrack/internal/log"
	"rupeetrack/internal/services"
	"rupeetrack/internal/storage"
	"rupeetrack/internal/store"
	"rupeetrack/internal/upload"
)

type persister interface {
	store.Persister
	io.Closer
}

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *applog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *applog.Logger) Factory {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &DefaultFactory{
		logger: logger.WithComponent(applog.ComponentBackend),
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	p, err := f.createPersister(config)
	if err != nil {
		return nil, err
	}

	txs, err := store.NewTransactions(ctx, p)
	if err != nil {
		_ = p.Close()
		return nil, fmt.Errorf("failed to load transactions: %w", err)
	}

	saver, err := upload.NewSaver(config.UploadDir)
	if err != nil {
		_ = p.Close()
		return nil, fmt.Errorf("failed to prepare upload directory: %w", err)
	}

	// The publisher is optional; startup continues without events.
	var publisher services.EventPublisher
	if config.AMQPURL != "" {
		client, err := amqp.NewClient(ctx, config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without events", "error", err)
		} else {
			publisher = client
			f.logger.Info("Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
		}
	}

	svc := services.NewTransactionService(txs, store.NewCategories(), saver, upload.URLPath, publisher)
	svc.AddCloser(p)

	f.logger.Info("Initialized backend",
		"type", config.Type.String(),
		"upload_dir", saver.Dir(),
		applog.FieldTxCount, txs.Len(),
		"amqp_enabled", publisher != nil)

	return &BackendResult{
		Backend: svc,
		Cleanup: svc.Close,
	}, nil
}

func (f *DefaultFactory) createPersister(config Config) (persister, error) {
	switch config.Type {
	case FileBackend:
		f.logger.Info("Using JSON file mirror", "path", config.TransactionsFile)
		return storage.NewJSONFile(config.TransactionsFile), nil
	case SQLiteBackend:
		repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		f.logger.Info("Using SQLite mirror", "db_path", config.SQLiteDBPath)
		return repo, nil
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}
