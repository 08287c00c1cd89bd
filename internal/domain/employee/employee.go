package employee

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound is returned when an employee id or email does not resolve.
	ErrNotFound = errors.New("employee not found")

	// ErrEmailTaken is returned when registering an email that already exists.
	ErrEmailTaken = errors.New("email already registered")
)

// Roles known to the system. Role checks happen at the HTTP layer.
const (
	RoleEmployee = "employee"
	RoleManager  = "manager"
	RoleAdmin    = "admin"
)

// Employee is a staff account. PasswordHash is a bcrypt hash and is never
// serialized in responses.
type Employee struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
	Role         string
	Salary       decimal.Decimal
	CreatedAt    time.Time
}

// Update carries the mutable fields of an employee. Nil fields are left
// unchanged.
type Update struct {
	Name   *string
	Salary *decimal.Decimal
	Role   *string
}

// Empty reports whether the update carries no fields at all.
func (u Update) Empty() bool {
	return u.Name == nil && u.Salary == nil && u.Role == nil
}

// Repository defines persistence operations for employees.
type Repository interface {
	Create(ctx context.Context, e *Employee) (int64, error)
	GetByID(ctx context.Context, id int64) (*Employee, error)
	GetByEmail(ctx context.Context, email string) (*Employee, error)
	List(ctx context.Context) ([]Employee, error)
	Update(ctx context.Context, id int64, u Update) (*Employee, error)
	Delete(ctx context.Context, id int64) error
}
