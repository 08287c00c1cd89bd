package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nmarkelov/storehouse/internal/domain/employee"
	"github.com/nmarkelov/storehouse/internal/domain/order"
)

func placeOrderBody(qty int) map[string]any {
	return map[string]any{
		"userId":        1,
		"customerName":  "Walk-in",
		"paymentMethod": "card",
		"cart": []map[string]any{
			{"id": 10, "name": "Latte", "qty": qty, "price": "4.50"},
		},
	}
}

func TestPlaceOrderEndpoint(t *testing.T) {
	h, f := newTestHandler(t)
	e := f.seedEmployee(t, "Alice", "alice@example.com", "hunter22", employee.RoleEmployee)
	f.store.stock[10] = 5

	req := jsonRequest(t, http.MethodPost, "/orders/", placeOrderBody(2))
	req.AddCookie(f.sessionCookie(t, e))
	rec := serve(h, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "Order placed successfully", body["message"])
	assert.Equal(t, float64(1), body["orderId"])

	assert.Equal(t, 3, f.store.stock[10])
	require.Len(t, f.store.placed, 1)
	assert.Equal(t, "CARD", f.store.placed[0].PaymentMethod)
	assert.True(t, decimal.RequireFromString("9.00").Equal(f.store.placed[0].Total))
}

func TestPlaceOrderEndpoint_EmptyCart(t *testing.T) {
	h, f := newTestHandler(t)
	e := f.seedEmployee(t, "Alice", "alice@example.com", "hunter22", employee.RoleEmployee)

	req := jsonRequest(t, http.MethodPost, "/orders/", map[string]any{
		"userId": 1, "customerName": "Walk-in", "paymentMethod": "cash", "cart": []any{},
	})
	req.AddCookie(f.sessionCookie(t, e))
	rec := serve(h, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Cart is empty", decodeBody(t, rec)["message"])
}

func TestPlaceOrderEndpoint_InsufficientStock(t *testing.T) {
	h, f := newTestHandler(t)
	e := f.seedEmployee(t, "Alice", "alice@example.com", "hunter22", employee.RoleEmployee)
	f.store.stock[10] = 1

	req := jsonRequest(t, http.MethodPost, "/orders/", placeOrderBody(3))
	req.AddCookie(f.sessionCookie(t, e))
	rec := serve(h, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Not enough stock for Latte", decodeBody(t, rec)["message"])
	assert.Equal(t, 1, f.store.stock[10], "failed placement leaves stock untouched")
}

func TestPlaceOrderEndpoint_InvalidQuantity(t *testing.T) {
	h, f := newTestHandler(t)
	e := f.seedEmployee(t, "Alice", "alice@example.com", "hunter22", employee.RoleEmployee)

	req := jsonRequest(t, http.MethodPost, "/orders/", placeOrderBody(0))
	req.AddCookie(f.sessionCookie(t, e))
	rec := serve(h, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Quantity must be greater than 0", decodeBody(t, rec)["message"])
}

func TestPlaceOrderEndpoint_MalformedBody(t *testing.T) {
	h, f := newTestHandler(t)
	e := f.seedEmployee(t, "Alice", "alice@example.com", "hunter22", employee.RoleEmployee)

	req := httptest.NewRequest(http.MethodPost, "/orders/", nil)
	req.AddCookie(f.sessionCookie(t, e))
	rec := serve(h, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListMyOrders(t *testing.T) {
	h, f := newTestHandler(t)
	e := f.seedEmployee(t, "Alice", "alice@example.com", "hunter22", employee.RoleEmployee)
	f.store.byUser[e.ID] = []order.Order{{
		ID:            7,
		UserID:        e.ID,
		CustomerName:  "Walk-in",
		Total:         decimal.RequireFromString("9.00"),
		PaymentMethod: "CASH",
		CreatedAt:     time.Now(),
		Lines: []order.Line{{
			ProductID:   10,
			ProductName: "Latte",
			Quantity:    2,
			Price:       decimal.RequireFromString("4.50"),
		}},
	}}

	req := httptest.NewRequest(http.MethodGet, "/orders/", nil)
	req.AddCookie(f.sessionCookie(t, e))
	rec := serve(h, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	orders, ok := body["orders"].([]any)
	require.True(t, ok)
	require.Len(t, orders, 1)

	first := orders[0].(map[string]any)
	assert.Equal(t, float64(7), first["orderId"])
	assert.Equal(t, "Walk-in", first["customerName"])
	assert.Equal(t, 9.0, first["total"])

	items := first["items"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, "Latte", items[0].(map[string]any)["name"])
}

func TestListAllOrders(t *testing.T) {
	h, f := newTestHandler(t)
	e := f.seedEmployee(t, "Alice", "alice@example.com", "hunter22", employee.RoleManager)
	f.store.allOrders = []order.Order{
		{ID: 2, UserID: 5, UserName: "Bob", Total: decimal.RequireFromString("3.00")},
		{ID: 1, UserID: e.ID, UserName: "Alice", Total: decimal.RequireFromString("12.00")},
	}

	req := httptest.NewRequest(http.MethodGet, "/orders/all", nil)
	req.AddCookie(f.sessionCookie(t, e))
	rec := serve(h, req)

	require.Equal(t, http.StatusOK, rec.Code)
	orders := decodeBody(t, rec)["orders"].([]any)
	require.Len(t, orders, 2)
	assert.Equal(t, "Bob", orders[0].(map[string]any)["userName"])
}
