// Package stock implements the stock-request workflow: employees file
// requests for more stock, and an approver either approves them (which
// increments the product ledger) or rejects them. A request leaves the
// pending state exactly once.
package stock

import (
	"context"
	"time"

	"github.com/go-faster/errors"

	"github.com/nmarkelov/storehouse/internal/storage"
)

// Status is the lifecycle state of a stock request.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

var (
	// ErrNotFound is returned when a stock request id does not resolve.
	ErrNotFound = errors.New("stock request not found")

	// ErrAlreadyProcessed is returned when approving or rejecting a request
	// that has already left the pending state.
	ErrAlreadyProcessed = errors.New("request already processed")
)

// Request is one stock request row.
type Request struct {
	ID           int64
	ProductID    int64
	ProductName  string
	EmployeeID   int64
	EmployeeName string
	Quantity     int
	Status       Status
	CreatedAt    time.Time
}

// Repository defines persistence operations for stock requests. GetForUpdate
// and SetStatus run inside the approval transaction so the pending check and
// the terminal transition are atomic.
type Repository interface {
	Create(ctx context.Context, productID, employeeID int64, qty int) error
	List(ctx context.Context) ([]Request, error)

	// GetForUpdate reads one request and takes a row lock held until the
	// enclosing transaction ends. Returns ErrNotFound if the id is unknown.
	GetForUpdate(ctx context.Context, tx storage.Tx, id int64) (*Request, error)

	// SetStatus records the terminal transition for a request.
	SetStatus(ctx context.Context, tx storage.Tx, id int64, status Status) error
}
