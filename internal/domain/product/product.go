package product

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/nmarkelov/storehouse/internal/storage"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// Product represents a catalog item available for ordering.
type Product struct {
	ID        int64
	Name      string
	Category  string
	Price     decimal.Decimal
	Stock     int
	Enabled   bool
	CreatedAt time.Time
}

// Update carries the mutable catalog fields of a product. Nil fields are left
// unchanged.
type Update struct {
	Name     *string
	Category *string
	Price    *decimal.Decimal
}

// Empty reports whether the update carries no fields at all.
func (u Update) Empty() bool {
	return u.Name == nil && u.Category == nil && u.Price == nil
}

// Repository defines catalog operations for products. Stock quantity is not
// writable through this interface; all stock mutation goes through Ledger.
type Repository interface {
	List(ctx context.Context) ([]Product, error)
	GetByID(ctx context.Context, id int64) (*Product, error)
	Create(ctx context.Context, p *Product) (int64, error)
	Update(ctx context.Context, id int64, u Update) (*Product, error)
	SetEnabled(ctx context.Context, id int64, enabled bool) error
}

// Ledger owns the authoritative per-product stock quantity. Every method must
// be called with a Tx obtained from the same storage backend; the
// read-check-decrement sequence for one product must run under a single
// ReadForUpdate lock to prevent lost updates.
type Ledger interface {
	// ReadForUpdate reads the current stock for a product and takes an
	// exclusive row lock held until the enclosing transaction ends.
	// A missing product is reported via exists=false, not an error.
	ReadForUpdate(ctx context.Context, tx storage.Tx, productID int64) (stock int, exists bool, err error)

	// Decrement reduces stock by qty. The caller must already have verified
	// stock >= qty under the lock taken by ReadForUpdate in the same
	// transaction; Decrement does not re-check.
	Decrement(ctx context.Context, tx storage.Tx, productID int64, qty int) error

	// Increment raises stock by qty. There is no stock ceiling.
	Increment(ctx context.Context, tx storage.Tx, productID int64, qty int) error
}
