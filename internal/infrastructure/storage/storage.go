package storage

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/fastygo/taskboard/internal/config"
	pgInfra "github.com/fastygo/taskboard/internal/infrastructure/postgres"
	"github.com/fastygo/taskboard/repository"
	boltRepo "github.com/fastygo/taskboard/repository/bolt"
	pgRepo "github.com/fastygo/taskboard/repository/postgres"
)

// Storage bundles the repositories of the configured driver.
type Storage struct {
	Driver string
	Users  repository.UserRepository
	Tasks  repository.TaskRepository

	ping  func(ctx context.Context) error
	close func() error
}

// Ping reports whether the backing store answers.
func (s *Storage) Ping(ctx context.Context) error {
	return s.ping(ctx)
}

func (s *Storage) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

// Open connects to the store selected by cfg.Storage.Driver. Postgres
// migrations run first when enabled.
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Storage, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	switch cfg.Storage.Driver {
	case config.StorageDriverPostgres:
		if err := pgInfra.RunMigrations(cfg, logger); err != nil {
			return nil, fmt.Errorf("migrations: %w", err)
		}
		pool, err := pgInfra.NewPool(ctx, cfg.Database, logger)
		if err != nil {
			return nil, err
		}
		return &Storage{
			Driver: config.StorageDriverPostgres,
			Users:  pgRepo.NewUserRepository(pool),
			Tasks:  pgRepo.NewTaskRepository(pool),
			ping:   pool.Ping,
			close: func() error {
				pool.Close()
				return nil
			},
		}, nil

	case config.StorageDriverBolt:
		store, err := boltRepo.Open(cfg.Storage.BoltPath)
		if err != nil {
			return nil, err
		}
		logger.Info("opened bolt store", zap.String("path", cfg.Storage.BoltPath))
		return &Storage{
			Driver: config.StorageDriverBolt,
			Users:  boltRepo.NewUserRepository(store),
			Tasks:  boltRepo.NewTaskRepository(store),
			ping:   store.Ping,
			close:  store.Close,
		}, nil
	}

	return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
}
