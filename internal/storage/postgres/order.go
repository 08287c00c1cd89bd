package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/nmarkelov/storehouse/internal/domain/order"
	"github.com/nmarkelov/storehouse/internal/storage"
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// CreateOrder inserts the order header on the caller's transaction and
// returns the generated id.
func (r *OrderRepository) CreateOrder(ctx context.Context, tx storage.Tx, userID int64, customerName string, total decimal.Decimal, paymentMethod string) (int64, error) {
	pgtx, err := txFrom(tx)
	if err != nil {
		return 0, err
	}

	var id int64
	err = pgtx.QueryRow(ctx, `
		INSERT INTO orders (user_id, customer_name, total, payment_method)
		VALUES ($1, $2, $3, $4)
		RETURNING id`,
		userID, customerName, total, paymentMethod,
	).Scan(&id)
	if err != nil {
		return 0, errors.Wrap(err, "inserting order")
	}
	return id, nil
}

// AddLine inserts one order line on the caller's transaction.
func (r *OrderRepository) AddLine(ctx context.Context, tx storage.Tx, orderID, productID int64, qty int, unitPrice decimal.Decimal) error {
	pgtx, err := txFrom(tx)
	if err != nil {
		return err
	}

	_, err = pgtx.Exec(ctx, `
		INSERT INTO order_items (order_id, product_id, quantity, price)
		VALUES ($1, $2, $3, $4)`,
		orderID, productID, qty, unitPrice,
	)
	if err != nil {
		return errors.Wrapf(err, "inserting line for order %d", orderID)
	}
	return nil
}

// ListByUser returns the orders of one user with their lines, newest first.
func (r *OrderRepository) ListByUser(ctx context.Context, userID int64) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT o.id, o.user_id, o.customer_name, o.total, o.payment_method, o.created_at,
		       oi.product_id, p.name, oi.quantity, oi.price
		FROM orders o
		JOIN order_items oi ON o.id = oi.order_id
		JOIN products p ON oi.product_id = p.id
		WHERE o.user_id = $1
		ORDER BY o.created_at DESC, oi.id ASC`,
		userID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "listing orders")
	}
	defer rows.Close()

	return collectOrders(rows, false)
}

// ListAll returns every order with its lines and the owning employee name,
// newest first.
func (r *OrderRepository) ListAll(ctx context.Context) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT o.id, o.user_id, e.name, o.customer_name, o.total, o.payment_method, o.created_at,
		       oi.product_id, p.name, oi.quantity, oi.price
		FROM orders o
		JOIN order_items oi ON o.id = oi.order_id
		JOIN products p ON oi.product_id = p.id
		LEFT JOIN employees e ON o.user_id = e.id
		ORDER BY o.created_at DESC, oi.id ASC`,
	)
	if err != nil {
		return nil, errors.Wrap(err, "listing all orders")
	}
	defer rows.Close()

	return collectOrders(rows, true)
}

// collectOrders folds joined order/line rows into orders. Rows arrive sorted
// by order, so one pass with a lookup map keeps line order stable.
func collectOrders(rows pgx.Rows, withUserName bool) ([]order.Order, error) {
	var (
		out   []order.Order
		index = make(map[int64]int)
	)
	for rows.Next() {
		var (
			o        order.Order
			line     order.Line
			userName *string
		)
		var err error
		if withUserName {
			err = rows.Scan(&o.ID, &o.UserID, &userName, &o.CustomerName, &o.Total, &o.PaymentMethod, &o.CreatedAt,
				&line.ProductID, &line.ProductName, &line.Quantity, &line.Price)
		} else {
			err = rows.Scan(&o.ID, &o.UserID, &o.CustomerName, &o.Total, &o.PaymentMethod, &o.CreatedAt,
				&line.ProductID, &line.ProductName, &line.Quantity, &line.Price)
		}
		if err != nil {
			return nil, errors.Wrap(err, "scanning order row")
		}
		if userName != nil {
			o.UserName = *userName
		}

		i, ok := index[o.ID]
		if !ok {
			i = len(out)
			index[o.ID] = i
			out = append(out, o)
		}
		out[i].Lines = append(out[i].Lines, line)
	}
	return out, rows.Err()
}
