package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/tasklet-dev/tasklet/internal/todo/domain"
	"github.com/tasklet-dev/tasklet/internal/todo/store"
	"github.com/tasklet-dev/tasklet/pkg/cryptox"
	"github.com/tasklet-dev/tasklet/pkg/idx"
)

var (
	usernameRe = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)
	emailRe    = regexp.MustCompile(`^[\w.-]+@[\w-]+(\.[\w-]+)+$`)
	passwordRe = regexp.MustCompile(`^[a-zA-Z0-9!@#$%^&*()\-_=+]+$`)
)

// UserService validates and mutates user accounts. Uniqueness of username
// and email is not pre-checked here: the store enforces it atomically on
// insert and its rejection surfaces as Conflict.
type UserService struct {
	Store store.Store
	Now   func() time.Time // test hook, defaults to time.Now
}

func (s *UserService) nowUTC() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// CreateAsUser registers an account with the default non-privileged role,
// regardless of what the draft asked for.
func (s *UserService) CreateAsUser(ctx context.Context, draft domain.UserDraft) (domain.User, error) {
	draft.Role = domain.RoleUser
	return s.create(ctx, draft)
}

// CreateAsAdmin registers an account with a caller-supplied role. The HTTP
// boundary gates this behind AuthorizeService.RequireAdmin.
func (s *UserService) CreateAsAdmin(ctx context.Context, draft domain.UserDraft, role domain.Role) (domain.User, error) {
	if !role.Valid() {
		return domain.User{}, fmt.Errorf("role %q: %w", role, domain.ErrInvalidInput)
	}
	draft.Role = role
	return s.create(ctx, draft)
}

func (s *UserService) create(ctx context.Context, draft domain.UserDraft) (domain.User, error) {
	if err := s.Validate(draft); err != nil {
		return domain.User{}, err
	}

	hash, err := cryptox.HashPassword(draft.Password)
	if err != nil {
		return domain.User{}, err
	}

	now := s.nowUTC()
	user := domain.User{
		ID:           idx.New().String(),
		Username:     draft.Username,
		Email:        draft.Email,
		PasswordHash: hash,
		Role:         draft.Role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.Store.Users().CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.User{}, fmt.Errorf("username or email taken: %w", domain.ErrConflict)
		}
		return domain.User{}, err
	}
	return user, nil
}

// Get returns a single account by id.
func (s *UserService) Get(ctx context.Context, id string) (domain.User, error) {
	user, err := s.Store.Users().GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, fmt.Errorf("user %s: %w", id, domain.ErrNotFound)
		}
		return domain.User{}, err
	}
	return user, nil
}

// List returns every account, in id order. ULIDs sort by creation time, so
// this is oldest first.
func (s *UserService) List(ctx context.Context) ([]domain.User, error) {
	return s.Store.Users().ListUsers(ctx)
}

// Update merges the patch over the stored account. Nil fields keep their
// value; the password is re-hashed only when a new non-empty one arrives.
// Unlike creation, uniqueness is not re-validated here beyond the store's
// own constraints.
func (s *UserService) Update(ctx context.Context, id string, patch domain.UserPatch) (domain.User, error) {
	user, err := s.Store.Users().GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, fmt.Errorf("user %s: %w", id, domain.ErrNotFound)
		}
		return domain.User{}, err
	}

	if patch.Username != nil {
		if err := validateUsername(*patch.Username); err != nil {
			return domain.User{}, err
		}
		user.Username = *patch.Username
	}
	if patch.Email != nil {
		if err := validateEmail(*patch.Email); err != nil {
			return domain.User{}, err
		}
		user.Email = *patch.Email
	}
	if patch.Password != nil && *patch.Password != "" {
		if err := validatePassword(*patch.Password); err != nil {
			return domain.User{}, err
		}
		hash, err := cryptox.HashPassword(*patch.Password)
		if err != nil {
			return domain.User{}, err
		}
		user.PasswordHash = hash
	}
	if patch.Role != nil {
		if !patch.Role.Valid() {
			return domain.User{}, fmt.Errorf("role %q: %w", *patch.Role, domain.ErrInvalidInput)
		}
		user.Role = *patch.Role
	}
	user.UpdatedAt = s.nowUTC()

	if err := s.Store.Users().UpdateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.User{}, fmt.Errorf("username or email taken: %w", domain.ErrConflict)
		}
		return domain.User{}, err
	}
	return user, nil
}

// Login authenticates a username/password pair. Unknown usernames report
// NotFound; a failed verify reports InvalidCredential. The returned user
// still carries its hash internally; callers must serialize it via Public().
func (s *UserService) Login(ctx context.Context, username, password string) (domain.User, error) {
	user, err := s.Store.Users().GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, fmt.Errorf("user %s: %w", username, domain.ErrNotFound)
		}
		return domain.User{}, err
	}

	if err := cryptox.VerifyPassword(password, user.PasswordHash); err != nil {
		if errors.Is(err, cryptox.ErrMismatch) {
			return domain.User{}, fmt.Errorf("login: %w", domain.ErrInvalidCredential)
		}
		return domain.User{}, err
	}
	return user, nil
}

// Delete is deliberately unimplemented: the product never decided whether
// removing an account orphans or cascades its tasks. It fails loudly rather
// than pretending to succeed.
func (s *UserService) Delete(ctx context.Context, id string) error {
	return fmt.Errorf("user deletion: %w", domain.ErrUnimplemented)
}

// Validate enforces the account shape rules: username 5-30 chars from a
// restricted charset, an RFC-shaped email, password 6-29 chars from a
// restricted charset, and a role from the enumeration.
func (s *UserService) Validate(draft domain.UserDraft) error {
	if draft.Username == "" || draft.Password == "" || draft.Email == "" {
		return fmt.Errorf("username, password and email are required: %w", domain.ErrInvalidInput)
	}
	if err := validateUsername(draft.Username); err != nil {
		return err
	}
	if err := validateEmail(draft.Email); err != nil {
		return err
	}
	if err := validatePassword(draft.Password); err != nil {
		return err
	}
	if !draft.Role.Valid() {
		return fmt.Errorf("role %q: %w", draft.Role, domain.ErrInvalidInput)
	}
	return nil
}

func validateUsername(username string) error {
	if len(username) < 5 || len(username) > 30 {
		return fmt.Errorf("username must be between 5 and 30 characters: %w", domain.ErrInvalidInput)
	}
	if !usernameRe.MatchString(username) {
		return fmt.Errorf("username may only contain alphanumerics, dots, hyphens and underscores: %w", domain.ErrInvalidInput)
	}
	return nil
}

func validateEmail(email string) error {
	if !emailRe.MatchString(email) {
		return fmt.Errorf("email format is invalid: %w", domain.ErrInvalidInput)
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < 6 || len(password) > 29 {
		return fmt.Errorf("password must be between 6 and 29 characters: %w", domain.ErrInvalidInput)
	}
	if !passwordRe.MatchString(password) {
		return fmt.Errorf("password contains disallowed characters: %w", domain.ErrInvalidInput)
	}
	return nil
}
