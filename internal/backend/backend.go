// Package backend builds the transaction and account stores selected by
// DATA_BACKEND.
package backend

import (
	"context"
	"fmt"
	"log/slog"

	"myrupee/internal/amqp"
	"myrupee/internal/auth"
	"myrupee/internal/config"
	"myrupee/internal/docstore"
	"myrupee/internal/docstore/memory"
	"myrupee/internal/storage"
)

// Result is a ready backend. Run, when set, must be kept running for live
// updates to reach subscribers. Cleanup releases connections.
type Result struct {
	Collection docstore.Collection
	Profiles   docstore.Profiles
	Accounts   auth.AccountStore
	Ready      func(ctx context.Context) error
	Run        func(ctx context.Context) error
	Cleanup    func() error
}

// Factory creates backends.
type Factory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) *Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &Factory{logger: logger}
}

// Create builds the backend named by cfg.DataBackend.
func (f *Factory) Create(cfg *config.Config) (*Result, error) {
	if cfg == nil {
		return nil, fmt.Errorf("app config is nil")
	}
	switch cfg.DataBackend {
	case config.BackendSQLite:
		return f.createSQLiteBackend(cfg)
	case config.BackendMemory, "":
		return f.createMemoryBackend(cfg), nil
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", cfg.DataBackend)
	}
}

func (f *Factory) createSQLiteBackend(cfg *config.Config) (*Result, error) {
	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	var (
		notifier   docstore.Notifier = docstore.NewLocalNotifier()
		amqpClient *amqp.Client
	)
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			repo.Close()
			return nil, fmt.Errorf("failed to initialize AMQP client: %w", err)
		}
		notifier = amqpClient
		f.logger.Info("Initialized AMQP client", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	}

	rt := docstore.NewRealtime(repo, notifier, f.logger)
	f.logger.Info("Initialized SQLite backend", "db_path", cfg.SQLiteDBPath, "amqp_enabled", amqpClient != nil)

	return &Result{
		Collection: rt,
		Profiles:   rt,
		Accounts:   repo,
		Ready:      repo.Ping,
		Run:        rt.Run,
		Cleanup: func() error {
			if amqpClient != nil {
				if err := amqpClient.Close(); err != nil {
					f.logger.Warn("Failed to close AMQP client", "error", err)
				}
			}
			return repo.Close()
		},
	}, nil
}

func (f *Factory) createMemoryBackend(cfg *config.Config) *Result {
	if cfg.AMQPURL != "" {
		f.logger.Warn("AMQP_URL is ignored by the memory backend")
	}
	store := memory.New()
	f.logger.Info("Initialized memory backend")
	return &Result{
		Collection: store,
		Profiles:   store,
		Accounts:   store,
	}
}
