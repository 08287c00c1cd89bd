package postgres

import (
	"context"
	"strconv"
	"strings"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nmarkelov/storehouse/internal/domain/employee"
)

var _ employee.Repository = (*EmployeeRepository)(nil)

// EmployeeRepository implements employee.Repository backed by PostgreSQL.
type EmployeeRepository struct {
	pool *pgxpool.Pool
}

// NewEmployeeRepository returns an EmployeeRepository that uses the given pool.
func NewEmployeeRepository(pool *pgxpool.Pool) *EmployeeRepository {
	return &EmployeeRepository{pool: pool}
}

const employeeColumns = "id, name, email, password_hash, role, salary, created_at"

func scanEmployee(row pgx.Row) (*employee.Employee, error) {
	var e employee.Employee
	err := row.Scan(&e.ID, &e.Name, &e.Email, &e.PasswordHash, &e.Role, &e.Salary, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// Create inserts a new employee and returns the generated id. A duplicate
// email maps to employee.ErrEmailTaken.
func (r *EmployeeRepository) Create(ctx context.Context, e *employee.Employee) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO employees (name, email, password_hash, role, salary)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		e.Name, e.Email, e.PasswordHash, e.Role, e.Salary,
	).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return 0, employee.ErrEmailTaken
		}
		return 0, errors.Wrap(err, "creating employee")
	}
	return id, nil
}

// GetByID returns a single employee by id.
func (r *EmployeeRepository) GetByID(ctx context.Context, id int64) (*employee.Employee, error) {
	row := r.pool.QueryRow(ctx, "SELECT "+employeeColumns+" FROM employees WHERE id = $1", id)
	e, err := scanEmployee(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, employee.ErrNotFound
		}
		return nil, errors.Wrapf(err, "getting employee %d", id)
	}
	return e, nil
}

// GetByEmail returns a single employee by email.
func (r *EmployeeRepository) GetByEmail(ctx context.Context, email string) (*employee.Employee, error) {
	row := r.pool.QueryRow(ctx, "SELECT "+employeeColumns+" FROM employees WHERE email = $1", email)
	e, err := scanEmployee(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, employee.ErrNotFound
		}
		return nil, errors.Wrapf(err, "getting employee by email")
	}
	return e, nil
}

// List returns all non-admin employees ordered by id.
func (r *EmployeeRepository) List(ctx context.Context) ([]employee.Employee, error) {
	rows, err := r.pool.Query(ctx,
		"SELECT "+employeeColumns+" FROM employees WHERE role <> $1 ORDER BY id",
		employee.RoleAdmin,
	)
	if err != nil {
		return nil, errors.Wrap(err, "listing employees")
	}
	defer rows.Close()

	var out []employee.Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scanning employee")
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

// Update applies the non-nil fields of u and returns the updated row.
func (r *EmployeeRepository) Update(ctx context.Context, id int64, u employee.Update) (*employee.Employee, error) {
	set := make([]string, 0, 3)
	args := make([]any, 0, 4)
	if u.Name != nil {
		args = append(args, *u.Name)
		set = append(set, "name = $"+strconv.Itoa(len(args)))
	}
	if u.Salary != nil {
		args = append(args, *u.Salary)
		set = append(set, "salary = $"+strconv.Itoa(len(args)))
	}
	if u.Role != nil {
		args = append(args, *u.Role)
		set = append(set, "role = $"+strconv.Itoa(len(args)))
	}
	if len(set) == 0 {
		return r.GetByID(ctx, id)
	}
	args = append(args, id)

	row := r.pool.QueryRow(ctx,
		"UPDATE employees SET "+strings.Join(set, ", ")+
			" WHERE id = $"+strconv.Itoa(len(args))+
			" RETURNING "+employeeColumns,
		args...,
	)
	e, err := scanEmployee(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, employee.ErrNotFound
		}
		return nil, errors.Wrapf(err, "updating employee %d", id)
	}
	return e, nil
}

// Delete removes an employee.
func (r *EmployeeRepository) Delete(ctx context.Context, id int64) error {
	ct, err := r.pool.Exec(ctx, "DELETE FROM employees WHERE id = $1", id)
	if err != nil {
		return errors.Wrapf(err, "deleting employee %d", id)
	}
	if ct.RowsAffected() == 0 {
		return employee.ErrNotFound
	}
	return nil
}
