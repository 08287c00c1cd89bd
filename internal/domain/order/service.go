package order

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/nmarkelov/storehouse/internal/domain/product"
	"github.com/nmarkelov/storehouse/internal/storage"
)

// Sentinel errors for placement validation. Validation failures are reported
// before any transaction is opened.
var (
	ErrEmptyCart       = errors.New("cart is empty")
	ErrInvalidQuantity = errors.New("quantity must be greater than 0")
)

// InsufficientStockError indicates a cart line could not be satisfied: the
// product is missing or its stock is below the requested quantity. Either way
// the whole placement is rolled back.
type InsufficientStockError struct {
	ProductID int64
	Name      string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("not enough stock for %s", e.Name)
}

// PlaceOrderRequest holds the input for placing an order. UnitPrice on each
// cart item is the client-supplied snapshot used for line inserts and the
// order total.
type PlaceOrderRequest struct {
	UserID        int64
	CustomerName  string
	PaymentMethod string
	Cart          []CartItem
}

// PlaceOrderResult holds the output of a successfully placed order.
type PlaceOrderResult struct {
	OrderID int64
	Total   decimal.Decimal
}

// Service coordinates order placement: one transaction per request, a locked
// stock read per cart line, and an all-or-nothing commit.
type Service struct {
	txm    storage.TxManager
	ledger product.Ledger
	orders Repository
}

// NewService creates an order Service with the required dependencies.
func NewService(txm storage.TxManager, ledger product.Ledger, orders Repository) *Service {
	return &Service{
		txm:    txm,
		ledger: ledger,
		orders: orders,
	}
}

// PlaceOrder validates the cart, then runs the placement transaction: insert
// the order header, and for each cart line take a row lock on the product,
// check stock sufficiency, insert the line, and decrement stock. Any
// insufficiency or persistence failure rolls back everything written so far;
// no partial order is ever visible.
//
// Two concurrent placements touching the same product serialize at the row
// lock, so stock checks never run against a stale quantity.
func (s *Service) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*PlaceOrderResult, error) {
	if len(req.Cart) == 0 {
		return nil, ErrEmptyCart
	}
	for _, item := range req.Cart {
		if item.Quantity <= 0 {
			return nil, errors.Wrapf(ErrInvalidQuantity, "product %d", item.ProductID)
		}
	}

	total := decimal.Zero
	for _, item := range req.Cart {
		total = total.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	req.PaymentMethod = strings.ToUpper(req.PaymentMethod)

	tx, err := s.txm.Begin(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "begin transaction")
	}

	orderID, err := s.placeInTx(ctx, tx, req, total)
	if err != nil {
		s.rollback(ctx, tx)
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		s.rollback(ctx, tx)
		return nil, errors.Wrap(err, "commit")
	}

	return &PlaceOrderResult{OrderID: orderID, Total: total}, nil
}

// placeInTx performs every write of the placement under the given
// transaction. The caller owns commit and rollback.
func (s *Service) placeInTx(ctx context.Context, tx storage.Tx, req PlaceOrderRequest, total decimal.Decimal) (int64, error) {
	orderID, err := s.orders.CreateOrder(ctx, tx, req.UserID, req.CustomerName, total, req.PaymentMethod)
	if err != nil {
		return 0, errors.Wrap(err, "create order")
	}

	// Cart order is preserved for deterministic lock acquisition.
	for _, item := range req.Cart {
		stock, exists, err := s.ledger.ReadForUpdate(ctx, tx, item.ProductID)
		if err != nil {
			return 0, errors.Wrapf(err, "lock stock for product %d", item.ProductID)
		}
		if !exists || stock < item.Quantity {
			return 0, &InsufficientStockError{
				ProductID: item.ProductID,
				Name:      item.Name,
				Requested: item.Quantity,
				Available: stock,
			}
		}

		if err := s.orders.AddLine(ctx, tx, orderID, item.ProductID, item.Quantity, item.UnitPrice); err != nil {
			return 0, errors.Wrapf(err, "add line for product %d", item.ProductID)
		}
		if err := s.ledger.Decrement(ctx, tx, item.ProductID, item.Quantity); err != nil {
			return 0, errors.Wrapf(err, "decrement stock for product %d", item.ProductID)
		}
	}

	return orderID, nil
}

// rollback is best-effort: its own failure is logged, not returned, so it
// never masks the error that triggered it.
func (s *Service) rollback(ctx context.Context, tx storage.Tx) {
	if err := tx.Rollback(ctx); err != nil {
		zctx.From(ctx).Error("rollback failed", zap.Error(err))
	}
}
