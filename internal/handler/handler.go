// Package handler exposes the HTTP API: auth, employees, products, stock
// requests, and order placement. Handlers decode JSON bodies, delegate to the
// domain services and repositories, and map domain errors to the JSON error
// contract ({"message": ...}).
package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/nmarkelov/storehouse/internal/auth"
	"github.com/nmarkelov/storehouse/internal/domain/employee"
	"github.com/nmarkelov/storehouse/internal/domain/order"
	"github.com/nmarkelov/storehouse/internal/domain/product"
	"github.com/nmarkelov/storehouse/internal/domain/stock"
)

// Config holds non-dependency configuration for the Handler.
type Config struct {
	// SecureCookies sets the Secure flag on session cookies. Enable behind
	// TLS; disable for plain-HTTP local development.
	SecureCookies bool
}

// Handler carries the dependencies shared by all HTTP handlers.
type Handler struct {
	employees employee.Repository
	products  product.Repository
	orders    *order.Service
	orderList order.Repository
	stock     *stock.Service
	tokens    *auth.Tokens

	secureCookies bool
}

// New constructs a Handler with the required domain dependencies.
func New(
	cfg Config,
	employees employee.Repository,
	products product.Repository,
	orders *order.Service,
	orderList order.Repository,
	stockSvc *stock.Service,
	tokens *auth.Tokens,
) *Handler {
	return &Handler{
		employees:     employees,
		products:      products,
		orders:        orders,
		orderList:     orderList,
		stock:         stockSvc,
		tokens:        tokens,
		secureCookies: cfg.SecureCookies,
	}
}

// Routes returns the API router. Auth endpoints are public; everything else
// requires a valid session cookie.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)
		r.With(h.OptionalAuth).Get("/me", h.Me)
	})

	r.Group(func(r chi.Router) {
		r.Use(h.RequireAuth)

		r.Route("/employees", func(r chi.Router) {
			r.Get("/", h.ListEmployees)
			r.Put("/{id}", h.UpdateEmployee)
			r.Delete("/{id}", h.DeleteEmployee)
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", h.ListProducts)
			r.Post("/", h.CreateProduct)
			r.Put("/{id}", h.UpdateProduct)
			r.Put("/{id}/toggle", h.ToggleProduct)
		})

		r.Route("/stock", func(r chi.Router) {
			r.Post("/requests", h.CreateStockRequest)
			r.Get("/requests", h.ListStockRequests)
			r.Put("/requests/{id}/approve", h.ApproveStockRequest)
			r.Put("/requests/{id}/reject", h.RejectStockRequest)
			r.Put("/add/{id}", h.AddStock)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", h.PlaceOrder)
			r.Get("/", h.ListMyOrders)
			r.Get("/all", h.ListAllOrders)
		})
	})

	return r
}

// respond writes v as a JSON response with the given status.
func respond(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// respondMessage writes the standard {"message": ...} body.
func respondMessage(w http.ResponseWriter, status int, message string) {
	respond(w, status, map[string]string{"message": message})
}

// respondInternal logs err and returns an opaque 500 body.
func respondInternal(w http.ResponseWriter, r *http.Request, err error, message string) {
	zctx.From(r.Context()).Error("request failed",
		zap.String("path", r.URL.Path),
		zap.Error(err),
	)
	respondMessage(w, http.StatusInternalServerError, message)
}

// decode parses the request body into v, reporting a 400 on malformed JSON.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondMessage(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// pathID parses the {id} path parameter, reporting a 400 when it is not a
// positive integer.
func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		respondMessage(w, http.StatusBadRequest, "Invalid id")
		return 0, false
	}
	return id, true
}
