package handler

import (
	"net/http"
	"time"

	"github.com/go-faster/errors"

	"github.com/nmarkelov/storehouse/internal/domain/product"
	"github.com/nmarkelov/storehouse/internal/domain/stock"
)

type createStockRequest struct {
	ProductID  int64 `json:"productId"`
	EmployeeID int64 `json:"employeeId"`
	Quantity   int   `json:"quantity"`
}

// CreateStockRequest files a new pending stock request.
func (h *Handler) CreateStockRequest(w http.ResponseWriter, r *http.Request) {
	var req createStockRequest
	if !decode(w, r, &req) {
		return
	}

	if err := h.stock.Create(r.Context(), req.ProductID, req.EmployeeID, req.Quantity); err != nil {
		respondInternal(w, r, err, "Internal server error while creating request")
		return
	}
	respondMessage(w, http.StatusOK, "Request sent successfully!")
}

type stockRequestResponse struct {
	ID           int64        `json:"id"`
	ProductID    int64        `json:"productId"`
	ProductName  string       `json:"productName"`
	EmployeeID   int64        `json:"employeeId"`
	EmployeeName string       `json:"employeeName"`
	Quantity     int          `json:"quantity"`
	Status       stock.Status `json:"status"`
	CreatedAt    time.Time    `json:"createdAt"`
}

// ListStockRequests returns all requests, newest first.
func (h *Handler) ListStockRequests(w http.ResponseWriter, r *http.Request) {
	requests, err := h.stock.List(r.Context())
	if err != nil {
		respondInternal(w, r, err, "Internal server error")
		return
	}

	out := make([]stockRequestResponse, len(requests))
	for i, req := range requests {
		out[i] = stockRequestResponse{
			ID:           req.ID,
			ProductID:    req.ProductID,
			ProductName:  req.ProductName,
			EmployeeID:   req.EmployeeID,
			EmployeeName: req.EmployeeName,
			Quantity:     req.Quantity,
			Status:       req.Status,
			CreatedAt:    req.CreatedAt,
		}
	}
	respond(w, http.StatusOK, map[string]any{"rows": out})
}

// ApproveStockRequest approves a pending request and tops up the product's
// stock. A request that already left the pending state is rejected with 400.
func (h *Handler) ApproveStockRequest(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	req, err := h.stock.Approve(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, stock.ErrNotFound):
			respondMessage(w, http.StatusNotFound, "Request not found")
		case errors.Is(err, stock.ErrAlreadyProcessed):
			respondMessage(w, http.StatusBadRequest, "Request already processed")
		default:
			respondInternal(w, r, err, "Internal server error")
		}
		return
	}

	respond(w, http.StatusOK, map[string]any{
		"productId": req.ProductID,
		"quantity":  req.Quantity,
		"status":    req.Status,
		"message":   "Request approved and stock updated",
	})
}

// RejectStockRequest rejects a pending request. No stock effect.
func (h *Handler) RejectStockRequest(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.stock.Reject(r.Context(), id); err != nil {
		switch {
		case errors.Is(err, stock.ErrNotFound):
			respondMessage(w, http.StatusNotFound, "Request not found")
		case errors.Is(err, stock.ErrAlreadyProcessed):
			respondMessage(w, http.StatusBadRequest, "Request already processed")
		default:
			respondInternal(w, r, err, "Internal server error while rejecting request")
		}
		return
	}

	respond(w, http.StatusOK, map[string]any{
		"status":  stock.StatusRejected,
		"message": "Request rejected",
	})
}

type addStockRequest struct {
	Quantity int `json:"quantity"`
}

// AddStock tops up a product's stock directly, outside the request workflow.
func (h *Handler) AddStock(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req addStockRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Quantity <= 0 {
		respondMessage(w, http.StatusBadRequest, "Quantity must be greater than 0")
		return
	}

	if err := h.stock.AddStock(r.Context(), id, req.Quantity); err != nil {
		if errors.Is(err, product.ErrNotFound) {
			respondMessage(w, http.StatusNotFound, "Product not found")
			return
		}
		respondInternal(w, r, err, "Internal server error while adding stock")
		return
	}

	p, err := h.products.GetByID(r.Context(), id)
	if err != nil {
		respondInternal(w, r, err, "Internal server error while adding stock")
		return
	}
	respond(w, http.StatusOK, map[string]any{
		"product": toProductResponse(p),
		"message": "Stock added successfully",
	})
}
