package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// historyLimit — сколько предыдущих значений хранить на ключ
const historyLimit = 20

// KVStore — Postgres реализация storage.KV поверх таблицы ledger_kv
type KVStore struct {
	pool *pgxpool.Pool
}

// NewKV подключается к БД и проверяет соединение
func NewKV(ctx context.Context, databaseURL string) (*KVStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return &KVStore{pool: pool}, nil
}

func (s *KVStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := s.pool.QueryRow(ctx, `SELECT value FROM ledger_kv WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get %s: %w", key, err)
	}
	return value, true, nil
}

// Put сохраняет значение; предыдущее уходит в ledger_kv_history
func (s *KVStore) Put(ctx context.Context, key string, value []byte) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO ledger_kv_history (key, value)
		SELECT key, value FROM ledger_kv WHERE key = $1
	`, key)
	if err != nil {
		return fmt.Errorf("failed to archive %s: %w", key, err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO ledger_kv (key, value, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key)
		DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to put %s: %w", key, err)
	}

	_, err = tx.Exec(ctx, `
		DELETE FROM ledger_kv_history
		WHERE key = $1 AND id NOT IN (
			SELECT id FROM ledger_kv_history WHERE key = $1 ORDER BY id DESC LIMIT $2
		)
	`, key, historyLimit)
	if err != nil {
		return fmt.Errorf("failed to prune history of %s: %w", key, err)
	}

	return tx.Commit(ctx)
}

func (s *KVStore) Close() error {
	s.pool.Close()
	return nil
}
