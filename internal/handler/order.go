package handler

import (
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/nmarkelov/storehouse/internal/domain/order"
)

type cartItemRequest struct {
	ID    int64           `json:"id"`
	Name  string          `json:"name"`
	Qty   int             `json:"qty"`
	Price decimal.Decimal `json:"price"`
}

type placeOrderRequest struct {
	UserID        int64             `json:"userId"`
	CustomerName  string            `json:"customerName"`
	PaymentMethod string            `json:"paymentMethod"`
	Cart          []cartItemRequest `json:"cart"`
}

type orderLineResponse struct {
	ProductID int64   `json:"productId"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
}

type orderResponse struct {
	OrderID       int64               `json:"orderId"`
	UserID        int64               `json:"userId"`
	UserName      string              `json:"userName,omitempty"`
	CustomerName  string              `json:"customerName"`
	Total         float64             `json:"total"`
	PaymentMethod string              `json:"paymentMethod"`
	CreatedAt     time.Time           `json:"createdAt"`
	Items         []orderLineResponse `json:"items"`
}

// PlaceOrder runs the placement transaction and maps its typed failures to
// the JSON error contract: 400 for an empty cart or insufficient stock,
// 500 for anything unexpected.
func (h *Handler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req placeOrderRequest
	if !decode(w, r, &req) {
		return
	}

	cart := make([]order.CartItem, len(req.Cart))
	for i, item := range req.Cart {
		cart[i] = order.CartItem{
			ProductID: item.ID,
			Name:      item.Name,
			Quantity:  item.Qty,
			UnitPrice: item.Price,
		}
	}

	result, err := h.orders.PlaceOrder(r.Context(), order.PlaceOrderRequest{
		UserID:        req.UserID,
		CustomerName:  req.CustomerName,
		PaymentMethod: req.PaymentMethod,
		Cart:          cart,
	})
	if err != nil {
		var insufficientErr *order.InsufficientStockError
		switch {
		case errors.Is(err, order.ErrEmptyCart):
			respondMessage(w, http.StatusBadRequest, "Cart is empty")
		case errors.Is(err, order.ErrInvalidQuantity):
			respondMessage(w, http.StatusBadRequest, "Quantity must be greater than 0")
		case errors.As(err, &insufficientErr):
			respondMessage(w, http.StatusBadRequest, "Not enough stock for "+insufficientErr.Name)
		default:
			respondInternal(w, r, err, "Internal server error while creating order")
		}
		return
	}

	respond(w, http.StatusCreated, map[string]any{
		"orderId": result.OrderID,
		"message": "Order placed successfully",
	})
}

// ListMyOrders returns the orders of the authenticated user.
func (h *Handler) ListMyOrders(w http.ResponseWriter, r *http.Request) {
	p, ok := PrincipalFromContext(r.Context())
	if !ok {
		respondMessage(w, http.StatusUnauthorized, "Not authorized, please log in")
		return
	}

	orders, err := h.orderList.ListByUser(r.Context(), p.ID)
	if err != nil {
		respondInternal(w, r, err, "Failed to fetch orders")
		return
	}
	respond(w, http.StatusOK, map[string]any{"orders": toOrderResponses(orders)})
}

// ListAllOrders returns every order with the owning employee's name.
func (h *Handler) ListAllOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orderList.ListAll(r.Context())
	if err != nil {
		respondInternal(w, r, err, "Failed to fetch all orders")
		return
	}
	respond(w, http.StatusOK, map[string]any{"orders": toOrderResponses(orders)})
}

func toOrderResponses(orders []order.Order) []orderResponse {
	out := make([]orderResponse, len(orders))
	for i, o := range orders {
		items := make([]orderLineResponse, len(o.Lines))
		for j, line := range o.Lines {
			items[j] = orderLineResponse{
				ProductID: line.ProductID,
				Name:      line.ProductName,
				Quantity:  line.Quantity,
				Price:     line.Price.InexactFloat64(),
			}
		}
		out[i] = orderResponse{
			OrderID:       o.ID,
			UserID:        o.UserID,
			UserName:      o.UserName,
			CustomerName:  o.CustomerName,
			Total:         o.Total.InexactFloat64(),
			PaymentMethod: o.PaymentMethod,
			CreatedAt:     o.CreatedAt,
			Items:         items,
		}
	}
	return out
}
