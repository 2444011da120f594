package postgres

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"sort"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/BuzzLyutic/task-registry/internal/kv"
)

//go:embed migrations/*.sql
var migrations embed.FS

// writerLockID is the advisory lock every writing transaction takes, so
// registry mutations are applied one after another.
const writerLockID int64 = 0x7461736b

type Store struct { // Хранилище записей реестра в PostgreSQL
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{
		pool: pool,
	}
}

// Connect opens a pool for the given URL and checks it is reachable.
func Connect(ctx context.Context, url string) (*Store, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return NewStore(pool), nil
}

// Migrate applies the embedded schema files in name order.
func (s *Store) Migrate(ctx context.Context) error {
	names, err := fs.Glob(migrations, "migrations/*.up.sql")
	if err != nil {
		return err
	}
	sort.Strings(names)

	for _, name := range names {
		stmt, err := migrations.ReadFile(name)
		if err != nil {
			return err
		}
		if _, err := s.pool.Exec(ctx, string(stmt)); err != nil {
			return fmt.Errorf("apply %s: %w", name, err)
		}
	}
	return nil
}

func (s *Store) Update(ctx context.Context, fn func(tx kv.Tx) error) error {
	return pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", writerLockID); err != nil {
			return fmt.Errorf("acquire writer lock: %w", err)
		}
		return fn(&pgTx{tx: tx})
	})
}

func (s *Store) View(ctx context.Context, fn func(tx kv.Tx) error) error {
	opts := pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}
	return pgx.BeginTxFunc(ctx, s.pool, opts, func(tx pgx.Tx) error {
		return fn(&pgTx{tx: tx, readOnly: true})
	})
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

type pgTx struct {
	tx       pgx.Tx
	readOnly bool
}

func (t *pgTx) Get(ctx context.Context, key kv.Key) ([]byte, bool, error) {
	var value []byte
	err := t.tx.QueryRow(ctx, `
		SELECT record_value
		FROM registry_kv
		WHERE record_key = $1
	`, string(key)).Scan(&value)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get %s: %w", key, err)
	}
	return value, true, nil
}

func (t *pgTx) Set(ctx context.Context, key kv.Key, value []byte) error {
	if t.readOnly {
		return kv.ErrReadOnly
	}
	_, err := t.tx.Exec(ctx, `
		INSERT INTO registry_kv (record_key, record_value)
		VALUES ($1, $2)
		ON CONFLICT (record_key)
		DO UPDATE SET record_value = EXCLUDED.record_value, updated_at = now()
	`, string(key), value)
	if err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}
