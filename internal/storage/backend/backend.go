// Package backend selects and opens the storage.KV implementation named by
// STORE_MODE.
package backend

import (
	"context"
	"fmt"

	"github.com/fdg312/nutrition-ledger/internal/blob"
	"github.com/fdg312/nutrition-ledger/internal/config"
	"github.com/fdg312/nutrition-ledger/internal/storage"
	"github.com/fdg312/nutrition-ledger/internal/storage/blobkv"
	"github.com/fdg312/nutrition-ledger/internal/storage/memory"
	"github.com/fdg312/nutrition-ledger/internal/storage/postgres"
	"github.com/fdg312/nutrition-ledger/internal/storage/sqlite"
)

type Logger interface {
	Printf(format string, v ...any)
}

// Open returns the KV backend and the mode actually in use.
//
// auto: postgres when a database URL is set, else sqlite when SQLITE_PATH is
// set, else memory. A postgres connection failure in auto mode falls back to
// memory; in forced modes every failure is returned.
func Open(ctx context.Context, cfg *config.Config, logger Logger) (storage.KV, string, error) {
	switch cfg.Store.Mode {
	case config.StoreModeMemory:
		logf(logger, "INFO store: mode=memory (forced)")
		return memory.NewKV(), config.StoreModeMemory, nil

	case config.StoreModeSQLite:
		path := cfg.Store.SQLitePath
		if path == "" {
			path = config.DefaultSQLitePath()
		}
		kv, err := sqlite.Open(path)
		if err != nil {
			return nil, "", fmt.Errorf("STORE_MODE=sqlite init failed: %w", err)
		}
		logf(logger, "INFO store: mode=sqlite path=%s", path)
		return kv, config.StoreModeSQLite, nil

	case config.StoreModePostgres:
		if cfg.DatabaseURL == "" {
			return nil, "", fmt.Errorf("STORE_MODE=postgres requires DATABASE_URL")
		}
		kv, err := postgres.NewKV(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, "", fmt.Errorf("STORE_MODE=postgres init failed: %w", err)
		}
		logf(logger, "INFO store: mode=postgres")
		return kv, config.StoreModePostgres, nil

	case config.StoreModeS3:
		s3, err := blob.OpenS3(cfg.Blob.S3, logger)
		if err != nil {
			return nil, "", fmt.Errorf("STORE_MODE=s3 init failed: %w", err)
		}
		logf(logger, "INFO store: mode=s3 prefix=%s", cfg.Blob.S3.Prefix)
		return blobkv.New(s3, cfg.Blob.S3.Prefix), config.StoreModeS3, nil

	case config.StoreModeAuto, "":
		return openAuto(ctx, cfg, logger)

	default:
		return nil, "", fmt.Errorf("unsupported store mode: %s", cfg.Store.Mode)
	}
}

func openAuto(ctx context.Context, cfg *config.Config, logger Logger) (storage.KV, string, error) {
	if cfg.DatabaseURL != "" {
		kv, err := postgres.NewKV(ctx, cfg.DatabaseURL)
		if err == nil {
			logf(logger, "INFO store: mode=postgres (auto, DATABASE_URL set)")
			return kv, config.StoreModePostgres, nil
		}
		logf(logger, "WARN store: postgres init_failed=%q, fallback=memory", err.Error())
		return memory.NewKV(), config.StoreModeMemory, nil
	}

	if cfg.Store.SQLitePath != "" {
		kv, err := sqlite.Open(cfg.Store.SQLitePath)
		if err != nil {
			return nil, "", fmt.Errorf("sqlite init failed: %w", err)
		}
		logf(logger, "INFO store: mode=sqlite (auto) path=%s", cfg.Store.SQLitePath)
		return kv, config.StoreModeSQLite, nil
	}

	logf(logger, "INFO store: mode=memory (auto, nothing configured)")
	return memory.NewKV(), config.StoreModeMemory, nil
}

func logf(logger Logger, format string, v ...any) {
	if logger == nil {
		return
	}
	logger.Printf(format, v...)
}
