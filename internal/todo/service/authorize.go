package service

import (
	"fmt"

	"github.com/tasklet-dev/tasklet/internal/todo/domain"
)

// AuthorizeService derives access decisions from session tokens. It is a
// pure guard: it either fails or does nothing.
type AuthorizeService struct {
	Sessions *SessionService
}

// RequireAdmin resolves the token and fails with Forbidden unless the
// session's user holds the ADMIN role. NotFound and Expired from the
// registry propagate untouched.
func (s *AuthorizeService) RequireAdmin(token string) error {
	user, err := s.Sessions.Resolve(token)
	if err != nil {
		return err
	}
	if user.Role != domain.RoleAdmin {
		return fmt.Errorf("admin access required: %w", domain.ErrForbidden)
	}
	return nil
}
