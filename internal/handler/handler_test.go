package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/nmarkelov/storehouse/internal/auth"
	"github.com/nmarkelov/storehouse/internal/domain/employee"
	"github.com/nmarkelov/storehouse/internal/domain/order"
	"github.com/nmarkelov/storehouse/internal/domain/product"
	"github.com/nmarkelov/storehouse/internal/domain/stock"
	"github.com/nmarkelov/storehouse/internal/storage"
)

// --- Fakes ---

type stubTx struct{}

func (stubTx) Commit(context.Context) error   { return nil }
func (stubTx) Rollback(context.Context) error { return nil }

type fakeEmployees struct {
	mu     sync.Mutex
	byID   map[int64]*employee.Employee
	nextID int64
}

func newFakeEmployees() *fakeEmployees {
	return &fakeEmployees{byID: make(map[int64]*employee.Employee)}
}

func (f *fakeEmployees) Create(_ context.Context, e *employee.Employee) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.byID {
		if existing.Email == e.Email {
			return 0, employee.ErrEmailTaken
		}
	}
	f.nextID++
	cp := *e
	cp.ID = f.nextID
	f.byID[cp.ID] = &cp
	return cp.ID, nil
}

func (f *fakeEmployees) GetByID(_ context.Context, id int64) (*employee.Employee, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.byID[id]
	if !ok {
		return nil, employee.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (f *fakeEmployees) GetByEmail(_ context.Context, email string) (*employee.Employee, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.byID {
		if e.Email == email {
			cp := *e
			return &cp, nil
		}
	}
	return nil, employee.ErrNotFound
}

func (f *fakeEmployees) List(_ context.Context) ([]employee.Employee, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]employee.Employee, 0, len(f.byID))
	for _, e := range f.byID {
		if e.Role != employee.RoleAdmin {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (f *fakeEmployees) Update(_ context.Context, id int64, u employee.Update) (*employee.Employee, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.byID[id]
	if !ok {
		return nil, employee.ErrNotFound
	}
	if u.Name != nil {
		e.Name = *u.Name
	}
	if u.Salary != nil {
		e.Salary = *u.Salary
	}
	if u.Role != nil {
		e.Role = *u.Role
	}
	cp := *e
	return &cp, nil
}

func (f *fakeEmployees) Delete(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[id]; !ok {
		return employee.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

type fakeProducts struct {
	mu     sync.Mutex
	byID   map[int64]*product.Product
	nextID int64
}

func newFakeProducts(products ...*product.Product) *fakeProducts {
	f := &fakeProducts{byID: make(map[int64]*product.Product)}
	for _, p := range products {
		f.byID[p.ID] = p
		if p.ID > f.nextID {
			f.nextID = p.ID
		}
	}
	return f
}

func (f *fakeProducts) List(_ context.Context) ([]product.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]product.Product, 0, len(f.byID))
	for _, p := range f.byID {
		out = append(out, *p)
	}
	return out, nil
}

func (f *fakeProducts) GetByID(_ context.Context, id int64) (*product.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byID[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProducts) Create(_ context.Context, p *product.Product) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	cp := *p
	cp.ID = f.nextID
	f.byID[cp.ID] = &cp
	return cp.ID, nil
}

func (f *fakeProducts) Update(_ context.Context, id int64, u product.Update) (*product.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byID[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	if u.Name != nil {
		p.Name = *u.Name
	}
	if u.Category != nil {
		p.Category = *u.Category
	}
	if u.Price != nil {
		p.Price = *u.Price
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProducts) SetEnabled(_ context.Context, id int64, enabled bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byID[id]
	if !ok {
		return product.ErrNotFound
	}
	p.Enabled = enabled
	return nil
}

// fakeOrderStore backs the order and stock services in handler tests: it is
// the transaction manager, the stock ledger, and the order repository at once.
// Transactions are no-ops; mutations apply immediately.
type fakeOrderStore struct {
	mu        sync.Mutex
	stock     map[int64]int
	nextID    int64
	placed    []order.Order
	byUser    map[int64][]order.Order
	allOrders []order.Order
}

func newFakeOrderStore(stock map[int64]int) *fakeOrderStore {
	return &fakeOrderStore{
		stock:  stock,
		byUser: make(map[int64][]order.Order),
	}
}

func (f *fakeOrderStore) Begin(context.Context) (storage.Tx, error) { return stubTx{}, nil }

func (f *fakeOrderStore) ReadForUpdate(_ context.Context, _ storage.Tx, productID int64) (int, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stock, ok := f.stock[productID]
	return stock, ok, nil
}

func (f *fakeOrderStore) Decrement(_ context.Context, _ storage.Tx, productID int64, qty int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stock[productID] -= qty
	return nil
}

func (f *fakeOrderStore) Increment(_ context.Context, _ storage.Tx, productID int64, qty int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stock[productID] += qty
	return nil
}

func (f *fakeOrderStore) CreateOrder(_ context.Context, _ storage.Tx, userID int64, customerName string, total decimal.Decimal, paymentMethod string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.placed = append(f.placed, order.Order{
		ID:            f.nextID,
		UserID:        userID,
		CustomerName:  customerName,
		Total:         total,
		PaymentMethod: paymentMethod,
	})
	return f.nextID, nil
}

func (f *fakeOrderStore) AddLine(_ context.Context, _ storage.Tx, orderID, productID int64, qty int, unitPrice decimal.Decimal) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.placed {
		if f.placed[i].ID == orderID {
			f.placed[i].Lines = append(f.placed[i].Lines, order.Line{
				ProductID: productID,
				Quantity:  qty,
				Price:     unitPrice,
			})
			return nil
		}
	}
	return errors.Errorf("order %d not found", orderID)
}

func (f *fakeOrderStore) ListByUser(_ context.Context, userID int64) ([]order.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.byUser[userID], nil
}

func (f *fakeOrderStore) ListAll(context.Context) ([]order.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.allOrders, nil
}

type fakeStockRequests struct {
	mu       sync.Mutex
	byID     map[int64]*stock.Request
	nextID   int64
	statuses map[int64]stock.Status
}

func newFakeStockRequests(requests ...*stock.Request) *fakeStockRequests {
	f := &fakeStockRequests{
		byID:     make(map[int64]*stock.Request),
		statuses: make(map[int64]stock.Status),
	}
	for _, r := range requests {
		f.byID[r.ID] = r
	}
	return f
}

func (f *fakeStockRequests) Create(_ context.Context, productID, employeeID int64, qty int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.byID[f.nextID] = &stock.Request{
		ID:         f.nextID,
		ProductID:  productID,
		EmployeeID: employeeID,
		Quantity:   qty,
		Status:     stock.StatusPending,
	}
	return nil
}

func (f *fakeStockRequests) List(context.Context) ([]stock.Request, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]stock.Request, 0, len(f.byID))
	for _, r := range f.byID {
		out = append(out, *r)
	}
	return out, nil
}

func (f *fakeStockRequests) GetForUpdate(_ context.Context, _ storage.Tx, id int64) (*stock.Request, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.byID[id]
	if !ok {
		return nil, stock.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (f *fakeStockRequests) SetStatus(_ context.Context, _ storage.Tx, id int64, status stock.Status) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.byID[id]; ok {
		r.Status = status
	}
	f.statuses[id] = status
	return nil
}

var (
	_ employee.Repository = (*fakeEmployees)(nil)
	_ product.Repository  = (*fakeProducts)(nil)
	_ storage.TxManager   = (*fakeOrderStore)(nil)
	_ product.Ledger      = (*fakeOrderStore)(nil)
	_ order.Repository    = (*fakeOrderStore)(nil)
	_ stock.Repository    = (*fakeStockRequests)(nil)
)

// --- Test harness ---

type fixtures struct {
	employees *fakeEmployees
	products  *fakeProducts
	store     *fakeOrderStore
	requests  *fakeStockRequests
	tokens    *auth.Tokens
}

func newTestHandler(t *testing.T) (*Handler, *fixtures) {
	t.Helper()
	f := &fixtures{
		employees: newFakeEmployees(),
		products:  newFakeProducts(),
		store:     newFakeOrderStore(make(map[int64]int)),
		requests:  newFakeStockRequests(),
		tokens:    auth.NewTokens([]byte("test-secret"), time.Hour),
	}
	h := New(Config{},
		f.employees,
		f.products,
		order.NewService(f.store, f.store, f.store),
		f.store,
		stock.NewService(f.store, f.requests, f.store),
		f.tokens,
	)
	return h, f
}

func (f *fixtures) seedEmployee(t *testing.T, name, email, password, role string) *employee.Employee {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	e := &employee.Employee{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
	}
	id, err := f.employees.Create(context.Background(), e)
	require.NoError(t, err)
	e.ID = id
	return e
}

func (f *fixtures) sessionCookie(t *testing.T, e *employee.Employee) *http.Cookie {
	t.Helper()
	token, err := f.tokens.Issue(e.ID, e.Role)
	require.NoError(t, err)
	return &http.Cookie{Name: sessionCookie, Value: token}
}

func serve(h *Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)
	return rec
}

func jsonRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	buf, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(method, target, bytes.NewReader(buf))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m))
	return m
}

func findCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}
