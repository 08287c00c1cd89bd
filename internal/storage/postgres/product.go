package postgres

import (
	"context"
	"strconv"
	"strings"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nmarkelov/storehouse/internal/domain/product"
	"github.com/nmarkelov/storehouse/internal/storage"
)

var (
	_ product.Repository = (*ProductRepository)(nil)
	_ product.Ledger     = (*ProductRepository)(nil)
)

// ProductRepository implements the product catalog and the stock ledger
// backed by PostgreSQL. Catalog reads and writes run on the pool; ledger
// operations run on the caller's transaction.
type ProductRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository returns a ProductRepository that uses the given pool.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

const productColumns = "id, name, category, price, stock, enabled, created_at"

func scanProduct(row pgx.Row) (*product.Product, error) {
	var p product.Product
	err := row.Scan(&p.ID, &p.Name, &p.Category, &p.Price, &p.Stock, &p.Enabled, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// List returns all products ordered by id.
func (r *ProductRepository) List(ctx context.Context) ([]product.Product, error) {
	rows, err := r.pool.Query(ctx, "SELECT "+productColumns+" FROM products ORDER BY id")
	if err != nil {
		return nil, errors.Wrap(err, "listing products")
	}
	defer rows.Close()

	var products []product.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scanning product")
		}
		products = append(products, *p)
	}
	return products, rows.Err()
}

// GetByID returns a single product by its identifier.
func (r *ProductRepository) GetByID(ctx context.Context, id int64) (*product.Product, error) {
	row := r.pool.QueryRow(ctx, "SELECT "+productColumns+" FROM products WHERE id = $1", id)
	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, product.ErrNotFound
		}
		return nil, errors.Wrapf(err, "getting product %d", id)
	}
	return p, nil
}

// Create inserts a new product and returns the generated id.
func (r *ProductRepository) Create(ctx context.Context, p *product.Product) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO products (name, category, price, stock, enabled)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		p.Name, p.Category, p.Price, p.Stock, p.Enabled,
	).Scan(&id)
	if err != nil {
		return 0, errors.Wrap(err, "creating product")
	}
	return id, nil
}

// Update applies the non-nil fields of u and returns the updated row.
func (r *ProductRepository) Update(ctx context.Context, id int64, u product.Update) (*product.Product, error) {
	set := make([]string, 0, 3)
	args := make([]any, 0, 4)
	if u.Name != nil {
		args = append(args, *u.Name)
		set = append(set, "name = $"+strconv.Itoa(len(args)))
	}
	if u.Category != nil {
		args = append(args, *u.Category)
		set = append(set, "category = $"+strconv.Itoa(len(args)))
	}
	if u.Price != nil {
		args = append(args, *u.Price)
		set = append(set, "price = $"+strconv.Itoa(len(args)))
	}
	if len(set) == 0 {
		return r.GetByID(ctx, id)
	}
	args = append(args, id)

	row := r.pool.QueryRow(ctx,
		"UPDATE products SET "+strings.Join(set, ", ")+
			" WHERE id = $"+strconv.Itoa(len(args))+
			" RETURNING "+productColumns,
		args...,
	)
	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, product.ErrNotFound
		}
		return nil, errors.Wrapf(err, "updating product %d", id)
	}
	return p, nil
}

// SetEnabled flips the enabled flag for a product.
func (r *ProductRepository) SetEnabled(ctx context.Context, id int64, enabled bool) error {
	ct, err := r.pool.Exec(ctx, "UPDATE products SET enabled = $2 WHERE id = $1", id, enabled)
	if err != nil {
		return errors.Wrapf(err, "toggling product %d", id)
	}
	if ct.RowsAffected() == 0 {
		return product.ErrNotFound
	}
	return nil
}

// ReadForUpdate reads the current stock for a product and takes an exclusive
// row lock held until the enclosing transaction ends. A concurrent
// transaction locking the same row blocks here until the first one finishes.
func (r *ProductRepository) ReadForUpdate(ctx context.Context, tx storage.Tx, productID int64) (int, bool, error) {
	pgtx, err := txFrom(tx)
	if err != nil {
		return 0, false, err
	}

	var stock int
	err = pgtx.QueryRow(ctx, "SELECT stock FROM products WHERE id = $1 FOR UPDATE", productID).Scan(&stock)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, errors.Wrapf(err, "locking product %d", productID)
	}
	return stock, true, nil
}

// Decrement reduces stock by qty on the caller's transaction. Callers verify
// sufficiency under the ReadForUpdate lock first.
func (r *ProductRepository) Decrement(ctx context.Context, tx storage.Tx, productID int64, qty int) error {
	pgtx, err := txFrom(tx)
	if err != nil {
		return err
	}
	_, err = pgtx.Exec(ctx, "UPDATE products SET stock = stock - $2 WHERE id = $1", productID, qty)
	if err != nil {
		return errors.Wrapf(err, "decrementing stock for product %d", productID)
	}
	return nil
}

// Increment raises stock by qty on the caller's transaction.
func (r *ProductRepository) Increment(ctx context.Context, tx storage.Tx, productID int64, qty int) error {
	pgtx, err := txFrom(tx)
	if err != nil {
		return err
	}
	_, err = pgtx.Exec(ctx, "UPDATE products SET stock = stock + $2 WHERE id = $1", productID, qty)
	if err != nil {
		return errors.Wrapf(err, "incrementing stock for product %d", productID)
	}
	return nil
}
