package http

import (
	"encoding/json"
	"net/http"

	"github.com/tasklet-dev/tasklet/internal/todo/domain"
	"github.com/tasklet-dev/tasklet/internal/todo/service"
	"github.com/tasklet-dev/tasklet/pkg/httpx"
	"github.com/tasklet-dev/tasklet/pkg/slogx"
)

// AuthHandler serves login/logout and session maintenance.
type AuthHandler struct {
	Users    *service.UserService
	Sessions *service.SessionService
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string            `json:"token"`
	User  domain.PublicUser `json:"user"`
}

// Login authenticates a username/password pair and opens a session.
// POST /v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteJSON(w, http.StatusBadRequest, httpx.ErrorResponse{
			Error:   "invalid_input",
			Message: "malformed JSON body",
		})
		return
	}

	user, err := h.Users.Login(ctx, req.Username, req.Password)
	if err != nil {
		log.Warn("login failed", "username", req.Username)
		writeDomainError(w, r, err)
		return
	}

	token, err := h.Sessions.Create(user)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	log.Info("session created", "user_id", user.ID)
	httpx.WriteJSON(w, http.StatusCreated, loginResponse{
		Token: token,
		User:  user.Public(),
	})
}

// Logout invalidates the current session.
// POST /v1/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token, ok := tokenFromCtx(r.Context())
	if !ok {
		writeBearerError(w, "missing bearer token")
		return
	}

	if err := h.Sessions.Invalidate(token); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Renew extends the current session's expiry by a full TTL.
// POST /v1/auth/renew
func (h *AuthHandler) Renew(w http.ResponseWriter, r *http.Request) {
	token, ok := tokenFromCtx(r.Context())
	if !ok {
		writeBearerError(w, "missing bearer token")
		return
	}

	if err := h.Sessions.Renew(token); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Me returns the user snapshot behind the current session.
// GET /v1/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromCtx(r.Context())
	if !ok {
		writeBearerError(w, "missing bearer token")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, user.Public())
}
