// Package postgres implements the storage interfaces over PostgreSQL using
// pgx. All repositories share one pgxpool.Pool; transactional methods take a
// storage.Tx handle created by TxManager so their statements run on the
// transaction's connection.
package postgres

import (
	"context"

	"github.com/go-faster/errors"
	pgxdecimal "github.com/jackc/pgx-shopspring-decimal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nmarkelov/storehouse/db"
	"github.com/nmarkelov/storehouse/internal/storage"
)

// NewPool creates a pgxpool.Pool configured with shopspring/decimal support
// for NUMERIC columns.
func NewPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, errors.Wrap(err, "parsing database config")
	}

	cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		pgxdecimal.Register(conn.TypeMap())
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, errors.Wrap(err, "creating connection pool")
	}

	return pool, nil
}

// RunMigrations executes the embedded DDL schema against the pool.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, db.Schema); err != nil {
		return errors.Wrap(err, "running migrations")
	}
	return nil
}

var _ storage.TxManager = (*TxManager)(nil)

// TxManager implements storage.TxManager over a pgx pool.
type TxManager struct {
	pool *pgxpool.Pool
}

// NewTxManager returns a TxManager that begins transactions on the given pool.
func NewTxManager(pool *pgxpool.Pool) *TxManager {
	return &TxManager{pool: pool}
}

// Begin opens a transaction. The returned handle holds one pooled connection
// until Commit or Rollback.
func (m *TxManager) Begin(ctx context.Context) (storage.Tx, error) {
	tx, err := m.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	return &Txn{tx: tx}, nil
}

var _ storage.Tx = (*Txn)(nil)

// Txn wraps a pgx transaction as a storage.Tx handle.
type Txn struct {
	tx pgx.Tx
}

func (t *Txn) Commit(ctx context.Context) error {
	return t.tx.Commit(ctx)
}

// Rollback undoes the transaction. Rolling back an already-finished
// transaction is a no-op, which keeps best-effort rollback paths quiet.
func (t *Txn) Rollback(ctx context.Context) error {
	if err := t.tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return err
	}
	return nil
}

// txFrom unwraps a storage.Tx produced by this package. Passing a handle from
// another backend (or nil) is a programming error.
func txFrom(tx storage.Tx) (pgx.Tx, error) {
	t, ok := tx.(*Txn)
	if !ok || t == nil {
		return nil, errors.New("storage: tx is not an open postgres transaction")
	}
	return t.tx, nil
}
