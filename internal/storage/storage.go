// Package storage defines the persistence transaction contract shared by all
// repositories. A Tx handle pins every statement issued through it to one
// underlying connection, so row locks and uncommitted writes stay scoped to
// that transaction until Commit or Rollback releases them.
package storage

import "context"

// Tx is a handle to an open database transaction. Exactly one of Commit or
// Rollback must be called on every handle; both release the underlying
// connection and any row locks held.
type Tx interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TxManager begins transactions. Begin may block waiting for a free
// connection from the pool.
type TxManager interface {
	Begin(ctx context.Context) (Tx, error)
}
