package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/nmarkelov/storehouse/internal/domain/employee"
)

// sessionCookie is the name of the session cookie carrying the signed token.
const sessionCookie = "token"

// principalKey is the context key for the authenticated employee.
type principalKey struct{}

// Principal is the authenticated identity attached to a request context.
type Principal struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// PrincipalFromContext extracts the authenticated principal, if any.
func PrincipalFromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(*Principal)
	return p, ok
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register creates a new employee account and logs it in. If the email is
// already registered and the password matches, the existing account is logged
// in instead.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Name == "" || req.Email == "" || len(req.Password) < 6 {
		respondMessage(w, http.StatusBadRequest, "Name, email and a password of at least 6 characters are required")
		return
	}

	if existing, err := h.employees.GetByEmail(r.Context(), req.Email); err == nil {
		if bcrypt.CompareHashAndPassword([]byte(existing.PasswordHash), []byte(req.Password)) != nil {
			respondMessage(w, http.StatusBadRequest, "Invalid credentials")
			return
		}
		h.startSession(w, r, existing, http.StatusOK, "User already exists, logged in successfully")
		return
	} else if !errors.Is(err, employee.ErrNotFound) {
		respondInternal(w, r, err, "Internal server error")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		respondInternal(w, r, err, "Internal server error")
		return
	}

	e := &employee.Employee{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         employee.RoleEmployee,
	}
	id, err := h.employees.Create(r.Context(), e)
	if err != nil {
		if errors.Is(err, employee.ErrEmailTaken) {
			respondMessage(w, http.StatusBadRequest, "Email already registered")
			return
		}
		respondInternal(w, r, err, "Internal server error")
		return
	}
	e.ID = id

	h.startSession(w, r, e, http.StatusCreated, "User registered and logged-in successfully")
}

// Login authenticates an employee by email and password.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decode(w, r, &req) {
		return
	}

	e, err := h.employees.GetByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, employee.ErrNotFound) {
			respondMessage(w, http.StatusBadRequest, "User does not exist")
			return
		}
		respondInternal(w, r, err, "Internal server error")
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(e.PasswordHash), []byte(req.Password)) != nil {
		respondMessage(w, http.StatusBadRequest, "Invalid credentials")
		return
	}

	h.startSession(w, r, e, http.StatusOK, "User logged in successfully")
}

// Logout clears the session cookie.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteStrictMode,
	})
	respondMessage(w, http.StatusOK, "Logged out successfully")
}

// Me returns the authenticated principal, or {"user": null} when the request
// carries no valid session.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	p, ok := PrincipalFromContext(r.Context())
	if !ok {
		respond(w, http.StatusOK, map[string]any{"user": nil})
		return
	}
	respond(w, http.StatusOK, map[string]any{
		"user":    p,
		"message": "User authenticated successfully",
	})
}

// startSession issues a token, sets the session cookie, and writes the login
// response.
func (h *Handler) startSession(w http.ResponseWriter, r *http.Request, e *employee.Employee, status int, message string) {
	token, err := h.tokens.Issue(e.ID, e.Role)
	if err != nil {
		respondInternal(w, r, err, "Internal server error")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(h.tokens.TTL()),
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteStrictMode,
	})

	respond(w, status, map[string]any{
		"user": Principal{
			ID:    e.ID,
			Name:  e.Name,
			Email: e.Email,
			Role:  e.Role,
		},
		"message": message,
	})
}

// RequireAuth verifies the session cookie, loads the employee row, and
// attaches the principal to the request context. Requests without a valid
// session get a 401.
func (h *Handler) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, err := h.authenticate(r)
		if err != nil {
			respondMessage(w, http.StatusUnauthorized, "Not authorized, please log in")
			return
		}
		ctx := context.WithValue(r.Context(), principalKey{}, p)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// OptionalAuth is like RequireAuth but lets unauthenticated requests through
// without a principal.
func (h *Handler) OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if p, err := h.authenticate(r); err == nil {
			r = r.WithContext(context.WithValue(r.Context(), principalKey{}, p))
		}
		next.ServeHTTP(w, r)
	})
}

// authenticate resolves the session cookie to a live employee row. Loading
// the row on every request picks up role changes and deletions immediately.
func (h *Handler) authenticate(r *http.Request) (*Principal, error) {
	c, err := r.Cookie(sessionCookie)
	if err != nil {
		return nil, errors.New("no session cookie")
	}

	claims, err := h.tokens.Verify(c.Value)
	if err != nil {
		return nil, errors.Wrap(err, "verify token")
	}

	e, err := h.employees.GetByID(r.Context(), claims.UserID)
	if err != nil {
		return nil, errors.Wrap(err, "load employee")
	}

	return &Principal{
		ID:    e.ID,
		Name:  e.Name,
		Email: e.Email,
		Role:  e.Role,
	}, nil
}
