package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nmarkelov/storehouse/internal/domain/stock"
	"github.com/nmarkelov/storehouse/internal/storage"
)

var _ stock.Repository = (*StockRequestRepository)(nil)

// StockRequestRepository implements stock.Repository backed by PostgreSQL.
type StockRequestRepository struct {
	pool *pgxpool.Pool
}

// NewStockRequestRepository returns a StockRequestRepository that uses the
// given pool.
func NewStockRequestRepository(pool *pgxpool.Pool) *StockRequestRepository {
	return &StockRequestRepository{pool: pool}
}

// Create inserts a new pending request.
func (r *StockRequestRepository) Create(ctx context.Context, productID, employeeID int64, qty int) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO stock_requests (product_id, employee_id, quantity)
		VALUES ($1, $2, $3)`,
		productID, employeeID, qty,
	)
	if err != nil {
		return errors.Wrap(err, "creating stock request")
	}
	return nil
}

// List returns all requests joined with product and employee names, newest
// first.
func (r *StockRequestRepository) List(ctx context.Context) ([]stock.Request, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT sr.id, sr.product_id, COALESCE(p.name, ''), sr.employee_id, COALESCE(e.name, ''),
		       sr.quantity, sr.status, sr.created_at
		FROM stock_requests sr
		LEFT JOIN products p ON sr.product_id = p.id
		LEFT JOIN employees e ON sr.employee_id = e.id
		ORDER BY sr.created_at DESC`,
	)
	if err != nil {
		return nil, errors.Wrap(err, "listing stock requests")
	}
	defer rows.Close()

	var out []stock.Request
	for rows.Next() {
		var req stock.Request
		if err := rows.Scan(&req.ID, &req.ProductID, &req.ProductName, &req.EmployeeID, &req.EmployeeName,
			&req.Quantity, &req.Status, &req.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "scanning stock request")
		}
		out = append(out, req)
	}
	return out, rows.Err()
}

// GetForUpdate reads one request on the caller's transaction and locks its
// row so the pending check and the terminal transition are atomic.
func (r *StockRequestRepository) GetForUpdate(ctx context.Context, tx storage.Tx, id int64) (*stock.Request, error) {
	pgtx, err := txFrom(tx)
	if err != nil {
		return nil, err
	}

	var req stock.Request
	err = pgtx.QueryRow(ctx, `
		SELECT id, product_id, employee_id, quantity, status, created_at
		FROM stock_requests
		WHERE id = $1
		FOR UPDATE`,
		id,
	).Scan(&req.ID, &req.ProductID, &req.EmployeeID, &req.Quantity, &req.Status, &req.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, stock.ErrNotFound
		}
		return nil, errors.Wrapf(err, "locking stock request %d", id)
	}
	return &req, nil
}

// SetStatus records the terminal transition on the caller's transaction.
func (r *StockRequestRepository) SetStatus(ctx context.Context, tx storage.Tx, id int64, status stock.Status) error {
	pgtx, err := txFrom(tx)
	if err != nil {
		return err
	}
	_, err = pgtx.Exec(ctx, "UPDATE stock_requests SET status = $2 WHERE id = $1", id, status)
	if err != nil {
		return errors.Wrapf(err, "updating stock request %d", id)
	}
	return nil
}
