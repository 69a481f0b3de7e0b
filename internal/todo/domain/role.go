package domain

import (
	"fmt"
	"strings"
)

// Role is the closed set of access levels a user can hold. The system uses a
// single role per user rather than a role set.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
	RoleGuest Role = "GUEST"
)

// ParseRole normalises and validates a role string (case-insensitive).
func ParseRole(s string) (Role, error) {
	switch Role(strings.ToUpper(strings.TrimSpace(s))) {
	case RoleUser:
		return RoleUser, nil
	case RoleAdmin:
		return RoleAdmin, nil
	case RoleGuest:
		return RoleGuest, nil
	default:
		return "", fmt.Errorf("unknown role %q: %w", s, ErrInvalidInput)
	}
}

// Valid reports whether r is a member of the enumeration.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin, RoleGuest:
		return true
	}
	return false
}

func (r Role) String() string { return string(r) }
