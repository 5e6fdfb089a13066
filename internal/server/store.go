package server

import (
	"context"
	"fmt"

	"github.com/iudanet/checkkeeper/internal/server/config"
	"github.com/iudanet/checkkeeper/internal/server/storage"
	"github.com/iudanet/checkkeeper/internal/server/storage/boltdb"
	"github.com/iudanet/checkkeeper/internal/server/storage/sqlstore"
)

// OpenStore opens the record store selected by cfg.Driver
func OpenStore(ctx context.Context, cfg config.StorageConfig) (storage.Store, error) {
	// Ошибку проверяем до приведения к интерфейсу, чтобы не вернуть typed nil
	switch cfg.Driver {
	case config.DriverBolt, "":
		s, err := boltdb.New(ctx, cfg.Path)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.DriverSQLite:
		s, err := sqlstore.NewSQLite(ctx, cfg.Path)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.DriverPostgres:
		s, err := sqlstore.NewPostgres(ctx, cfg.DSN)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.Driver)
	}
}
