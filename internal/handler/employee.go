package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/nmarkelov/storehouse/internal/domain/employee"
)

type employeeResponse struct {
	ID     int64   `json:"id"`
	Name   string  `json:"name"`
	Email  string  `json:"email"`
	Role   string  `json:"role"`
	Salary float64 `json:"salary"`
}

func toEmployeeResponse(e *employee.Employee) employeeResponse {
	return employeeResponse{
		ID:     e.ID,
		Name:   e.Name,
		Email:  e.Email,
		Role:   e.Role,
		Salary: e.Salary.InexactFloat64(),
	}
}

// ListEmployees returns all non-admin employees.
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.employees.List(r.Context())
	if err != nil {
		respondInternal(w, r, err, "Internal server error")
		return
	}

	out := make([]employeeResponse, len(employees))
	for i := range employees {
		out[i] = toEmployeeResponse(&employees[i])
	}
	respond(w, http.StatusOK, map[string]any{"employees": out})
}

type updateEmployeeRequest struct {
	Name   *string          `json:"name"`
	Salary *decimal.Decimal `json:"salary"`
	Role   *string          `json:"role"`
}

// UpdateEmployee edits an employee. A body with no fields at all is a no-op
// rejected with 400.
func (h *Handler) UpdateEmployee(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req updateEmployeeRequest
	if !decode(w, r, &req) {
		return
	}

	u := employee.Update{Name: req.Name, Salary: req.Salary, Role: req.Role}
	if u.Empty() {
		respondMessage(w, http.StatusBadRequest, "No update fields provided")
		return
	}

	e, err := h.employees.Update(r.Context(), id, u)
	if err != nil {
		if errors.Is(err, employee.ErrNotFound) {
			respondMessage(w, http.StatusNotFound, "Employee not found")
			return
		}
		respondInternal(w, r, err, "Internal server error while editing employee")
		return
	}

	respond(w, http.StatusOK, map[string]any{
		"employee": toEmployeeResponse(e),
		"message":  "Employee updated successfully",
	})
}

// DeleteEmployee removes an employee account.
func (h *Handler) DeleteEmployee(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.employees.Delete(r.Context(), id); err != nil {
		if errors.Is(err, employee.ErrNotFound) {
			respondMessage(w, http.StatusNotFound, "Employee not found")
			return
		}
		respondInternal(w, r, err, "Internal server error while deleting employee")
		return
	}

	respondMessage(w, http.StatusOK, "Employee removed successfully")
}
