package store

import (
	"context"
	"errors"

	"github.com/tasklet-dev/tasklet/internal/todo/domain"
)

var (
	// ErrNotFound signals absence as a sentinel so callers can distinguish
	// "no such record" from an I/O failure.
	ErrNotFound = errors.New("store: not found")

	// ErrAlreadyExists signals a uniqueness violation (username/email). The
	// constraint lives in the store so that create is an atomic
	// check-and-insert rather than a racy check-then-write.
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite)
// implement this. It exposes sub-repositories to keep concerns tidy and
// testable.
type Store interface {
	Users() Users
	Tasks() Tasks

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx runs fn inside a transaction, committing when fn returns nil
	// and rolling back otherwise. Prefer this over Tx directly.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases the underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It carries the same repos plus Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	// GetUserByID returns a user by id.
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByUsername is used during login.
	GetUserByUsername(ctx context.Context, username string) (domain.User, error)

	// GetUserByEmail returns a user by email.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// ListUsers returns every account. Order is store-defined.
	ListUsers(ctx context.Context) ([]domain.User, error)

	// CreateUser inserts a new user (id is provided by the app via ULID).
	// Returns ErrAlreadyExists when the username or email is taken.
	CreateUser(ctx context.Context, u domain.User) error

	// UpdateUser overwrites the mutable fields of an existing user and
	// bumps updated_at.
	UpdateUser(ctx context.Context, u domain.User) error
}

type Tasks interface {
	// GetByOwner returns every task whose owner list contains ownerID.
	// Order is store-defined.
	GetByOwner(ctx context.Context, ownerID string) ([]domain.Task, error)

	// GetByOwnerAndID returns a single task, scoped to the owner. A task
	// not owned by ownerID is indistinguishable from an absent one.
	GetByOwnerAndID(ctx context.Context, ownerID, taskID string) (domain.Task, error)

	// Insert writes a new task and its owner rows.
	Insert(ctx context.Context, t domain.Task) error

	// Save overwrites the mutable fields of an existing task.
	Save(ctx context.Context, t domain.Task) error

	// DeleteByOwnerAndID removes a task under the same owner scoping as
	// GetByOwnerAndID. Returns ErrNotFound when nothing matched.
	DeleteByOwnerAndID(ctx context.Context, ownerID, taskID string) error
}
