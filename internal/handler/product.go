package handler

import (
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/nmarkelov/storehouse/internal/domain/product"
)

type productResponse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Category  string    `json:"category"`
	Price     float64   `json:"price"`
	Stock     int       `json:"stock"`
	Enabled   bool      `json:"enabled"`
	CreatedAt time.Time `json:"createdAt"`
}

func toProductResponse(p *product.Product) productResponse {
	return productResponse{
		ID:        p.ID,
		Name:      p.Name,
		Category:  p.Category,
		Price:     p.Price.InexactFloat64(),
		Stock:     p.Stock,
		Enabled:   p.Enabled,
		CreatedAt: p.CreatedAt,
	}
}

// ListProducts returns every product in the catalog.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.List(r.Context())
	if err != nil {
		respondInternal(w, r, err, "Internal server error")
		return
	}

	out := make([]productResponse, len(products))
	for i := range products {
		out[i] = toProductResponse(&products[i])
	}
	respond(w, http.StatusOK, map[string]any{"product": out})
}

type createProductRequest struct {
	Name     string          `json:"name"`
	Category string          `json:"category"`
	Price    decimal.Decimal `json:"price"`
	Stock    int             `json:"stock"`
}

// CreateProduct inserts a new catalog item.
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req createProductRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Name == "" || req.Price.IsNegative() || req.Stock < 0 {
		respondMessage(w, http.StatusBadRequest, "Name and a non-negative price and stock are required")
		return
	}

	p := &product.Product{
		Name:     req.Name,
		Category: req.Category,
		Price:    req.Price,
		Stock:    req.Stock,
		Enabled:  true,
	}
	id, err := h.products.Create(r.Context(), p)
	if err != nil {
		respondInternal(w, r, err, "Internal server error while inserting product")
		return
	}
	p.ID = id

	respond(w, http.StatusOK, map[string]any{
		"product": toProductResponse(p),
		"message": "Product inserted successfully",
	})
}

type updateProductRequest struct {
	Name     *string          `json:"name"`
	Category *string          `json:"category"`
	Price    *decimal.Decimal `json:"price"`
}

// UpdateProduct edits catalog fields. A body with no fields at all is a
// no-op rejected with 400.
func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req updateProductRequest
	if !decode(w, r, &req) {
		return
	}

	u := product.Update{Name: req.Name, Category: req.Category, Price: req.Price}
	if u.Empty() {
		respondMessage(w, http.StatusBadRequest, "No update fields provided")
		return
	}

	p, err := h.products.Update(r.Context(), id, u)
	if err != nil {
		if errors.Is(err, product.ErrNotFound) {
			respondMessage(w, http.StatusNotFound, "Product not found")
			return
		}
		respondInternal(w, r, err, "Internal server error while editing product")
		return
	}

	respond(w, http.StatusOK, map[string]any{
		"product": toProductResponse(p),
		"message": "Product updated successfully",
	})
}

type toggleProductRequest struct {
	Enabled bool `json:"enabled"`
}

// ToggleProduct sets the enabled flag of a product.
func (h *Handler) ToggleProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req toggleProductRequest
	if !decode(w, r, &req) {
		return
	}

	if err := h.products.SetEnabled(r.Context(), id, req.Enabled); err != nil {
		if errors.Is(err, product.ErrNotFound) {
			respondMessage(w, http.StatusNotFound, "Product not found")
			return
		}
		respondInternal(w, r, err, "Internal server error while toggling product")
		return
	}

	respond(w, http.StatusOK, map[string]any{"enabled": req.Enabled})
}
