package order

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nmarkelov/storehouse/internal/storage"
)

// Order represents a placed order. Orders are created exactly once per
// successful placement and are immutable thereafter.
type Order struct {
	ID            int64
	UserID        int64
	UserName      string
	CustomerName  string
	Total         decimal.Decimal
	PaymentMethod string
	CreatedAt     time.Time
	Lines         []Line
}

// Line is one order line. The price is a snapshot captured at order time;
// later catalog price changes do not affect it.
type Line struct {
	ProductID   int64
	ProductName string
	Quantity    int
	Price       decimal.Decimal
}

// CartItem is one line of an incoming placement request. Name and UnitPrice
// come from the request body as supplied by the client.
type CartItem struct {
	ProductID int64
	Name      string
	Quantity  int
	UnitPrice decimal.Decimal
}

// Repository defines persistence operations for orders. CreateOrder and
// AddLine run inside the placement transaction; the read methods run on the
// pool directly.
type Repository interface {
	// CreateOrder inserts the order header and returns the generated id.
	CreateOrder(ctx context.Context, tx storage.Tx, userID int64, customerName string, total decimal.Decimal, paymentMethod string) (int64, error)

	// AddLine inserts one order line tied to orderID.
	AddLine(ctx context.Context, tx storage.Tx, orderID, productID int64, qty int, unitPrice decimal.Decimal) error

	// ListByUser returns the orders of one user with their lines, newest first.
	ListByUser(ctx context.Context, userID int64) ([]Order, error)

	// ListAll returns every order with its lines, newest first.
	ListAll(ctx context.Context) ([]Order, error)
}
