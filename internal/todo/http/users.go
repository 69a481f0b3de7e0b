package http

import (
	"encoding/json"
	"net/http"

	"github.com/tasklet-dev/tasklet/internal/todo/domain"
	"github.com/tasklet-dev/tasklet/internal/todo/service"
	"github.com/tasklet-dev/tasklet/pkg/httpx"
)

// UsersHandler serves account sign-up and the admin-only account management
// endpoints.
type UsersHandler struct {
	Users *service.UserService
}

type userPayload struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
	Role     *string `json:"role"`
}

func decodeUserPayload(w http.ResponseWriter, r *http.Request) (userPayload, bool) {
	var p userPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		httpx.WriteJSON(w, http.StatusBadRequest, httpx.ErrorResponse{
			Error:   "invalid_input",
			Message: "malformed JSON body",
		})
		return userPayload{}, false
	}
	return p, true
}

func (p userPayload) draft() domain.UserDraft {
	var draft domain.UserDraft
	if p.Username != nil {
		draft.Username = *p.Username
	}
	if p.Email != nil {
		draft.Email = *p.Email
	}
	if p.Password != nil {
		draft.Password = *p.Password
	}
	return draft
}

// Create registers a new account. The role is always USER, regardless of
// what the payload claims.
// POST /v1/users
func (h *UsersHandler) Create(w http.ResponseWriter, r *http.Request) {
	p, ok := decodeUserPayload(w, r)
	if !ok {
		return
	}

	user, err := h.Users.CreateAsUser(r.Context(), p.draft())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, user.Public())
}

// CreateAsAdmin registers a new account with a caller-chosen role.
// POST /v1/admin/users
func (h *UsersHandler) CreateAsAdmin(w http.ResponseWriter, r *http.Request) {
	p, ok := decodeUserPayload(w, r)
	if !ok {
		return
	}

	var role domain.Role
	if p.Role != nil {
		parsed, err := domain.ParseRole(*p.Role)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		role = parsed
	}

	user, err := h.Users.CreateAsAdmin(r.Context(), p.draft(), role)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, user.Public())
}

// Get returns a single account by id.
// GET /v1/users/{id}
func (h *UsersHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, err := h.Users.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, user.Public())
}

// List returns every account.
// GET /v1/users
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.Users.List(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	out := make([]domain.PublicUser, len(users))
	for i, u := range users {
		out[i] = u.Public()
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

// Update merges a partial patch over an existing account.
// PATCH /v1/users/{id}
func (h *UsersHandler) Update(w http.ResponseWriter, r *http.Request) {
	p, ok := decodeUserPayload(w, r)
	if !ok {
		return
	}

	patch := domain.UserPatch{
		Username: p.Username,
		Email:    p.Email,
		Password: p.Password,
	}
	if p.Role != nil {
		role, err := domain.ParseRole(*p.Role)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		patch.Role = &role
	}

	user, err := h.Users.Update(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, user.Public())
}

// Delete is reserved. Account removal needs a task reassignment story for
// shared tasks before it can ship, so the route answers 501.
// DELETE /v1/users/{id}
func (h *UsersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Users.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AdminMiddleware rejects callers whose session does not carry the ADMIN
// role. It must run inside SessionMiddleware so the token is on the context.
func AdminMiddleware(authorize *service.AuthorizeService) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := tokenFromCtx(r.Context())
			if !ok {
				writeBearerError(w, "missing bearer token")
				return
			}
			if err := authorize.RequireAdmin(token); err != nil {
				writeDomainError(w, r, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
