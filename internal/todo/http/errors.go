package http

import (
	"errors"
	"net/http"

	"github.com/tasklet-dev/tasklet/internal/todo/domain"
	"github.com/tasklet-dev/tasklet/pkg/httpx"
	"github.com/tasklet-dev/tasklet/pkg/slogx"
)

// writeDomainError maps the core failure kinds onto HTTP statuses. Anything
// that is not a known kind is an unexpected collaborator failure and becomes
// an opaque 500; the original error goes to the log, never to the wire.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var code int
	var kind string

	switch {
	case errors.Is(err, domain.ErrNotFound):
		code, kind = http.StatusNotFound, "not_found"
	case errors.Is(err, domain.ErrExpired):
		code, kind = http.StatusUnauthorized, "session_expired"
	case errors.Is(err, domain.ErrForbidden):
		code, kind = http.StatusForbidden, "forbidden"
	case errors.Is(err, domain.ErrInvalidInput):
		code, kind = http.StatusBadRequest, "invalid_input"
	case errors.Is(err, domain.ErrConflict):
		code, kind = http.StatusConflict, "conflict"
	case errors.Is(err, domain.ErrInvalidCredential):
		code, kind = http.StatusUnauthorized, "invalid_credentials"
	case errors.Is(err, domain.ErrUnimplemented):
		code, kind = http.StatusNotImplemented, "not_implemented"
	default:
		slogx.FromContext(r.Context()).Error("unexpected failure", "error", err)
		httpx.WriteJSON(w, http.StatusInternalServerError, httpx.ErrorResponse{
			Error:   "server_error",
			Message: "internal server error",
		})
		return
	}

	httpx.WriteJSON(w, code, httpx.ErrorResponse{
		Error:   kind,
		Message: err.Error(),
	})
}
