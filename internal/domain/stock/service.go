package stock

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/nmarkelov/storehouse/internal/domain/product"
	"github.com/nmarkelov/storehouse/internal/storage"
)

// Service runs the stock-request workflow and direct stock top-ups.
type Service struct {
	txm      storage.TxManager
	requests Repository
	ledger   product.Ledger
}

// NewService creates a stock Service with the required dependencies.
func NewService(txm storage.TxManager, requests Repository, ledger product.Ledger) *Service {
	return &Service{
		txm:      txm,
		requests: requests,
		ledger:   ledger,
	}
}

// Create files a new pending request.
func (s *Service) Create(ctx context.Context, productID, employeeID int64, qty int) error {
	if qty <= 0 {
		return errors.New("quantity must be greater than 0")
	}
	return s.requests.Create(ctx, productID, employeeID, qty)
}

// List returns all requests, newest first.
func (s *Service) List(ctx context.Context) ([]Request, error) {
	return s.requests.List(ctx)
}

// Approve transitions a pending request to approved and increments the
// product ledger by the requested quantity, atomically. A request that has
// already been processed fails with ErrAlreadyProcessed and the ledger is
// untouched.
func (s *Service) Approve(ctx context.Context, id int64) (*Request, error) {
	var approved *Request
	err := s.transact(ctx, func(tx storage.Tx) error {
		req, err := s.requests.GetForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if req.Status != StatusPending {
			return ErrAlreadyProcessed
		}

		if err := s.requests.SetStatus(ctx, tx, id, StatusApproved); err != nil {
			return errors.Wrap(err, "set status")
		}
		if err := s.ledger.Increment(ctx, tx, req.ProductID, req.Quantity); err != nil {
			return errors.Wrap(err, "increment stock")
		}

		req.Status = StatusApproved
		approved = req
		return nil
	})
	if err != nil {
		return nil, err
	}
	return approved, nil
}

// Reject transitions a pending request to rejected. No ledger effect.
func (s *Service) Reject(ctx context.Context, id int64) error {
	return s.transact(ctx, func(tx storage.Tx) error {
		req, err := s.requests.GetForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if req.Status != StatusPending {
			return ErrAlreadyProcessed
		}
		return s.requests.SetStatus(ctx, tx, id, StatusRejected)
	})
}

// AddStock increments a product's stock directly, outside the request
// workflow. Used by the admin top-up endpoint.
func (s *Service) AddStock(ctx context.Context, productID int64, qty int) error {
	if qty <= 0 {
		return errors.New("quantity must be greater than 0")
	}
	return s.transact(ctx, func(tx storage.Tx) error {
		_, exists, err := s.ledger.ReadForUpdate(ctx, tx, productID)
		if err != nil {
			return err
		}
		if !exists {
			return product.ErrNotFound
		}
		return s.ledger.Increment(ctx, tx, productID, qty)
	})
}

// transact runs fn inside a transaction, committing on success and rolling
// back on failure. Rollback is best-effort and logged.
func (s *Service) transact(ctx context.Context, fn func(tx storage.Tx) error) error {
	tx, err := s.txm.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, "begin transaction")
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			zctx.From(ctx).Error("rollback failed", zap.Error(rbErr))
		}
		return err
	}
	return tx.Commit(ctx)
}
