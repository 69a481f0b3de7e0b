package domain

import "time"

type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string // argon2id PHC encoded
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsZero reports whether the user carries no identity at all.
func (u User) IsZero() bool {
	return u.ID == "" && u.Username == ""
}

// UserDraft is the input for account creation. The password is plaintext
// here and only ever stored hashed.
type UserDraft struct {
	Username string
	Email    string
	Password string
	Role     Role
}

// UserPatch is a partial update. Nil fields mean "keep the existing value".
// The password, when present and non-empty, is re-hashed before storage.
type UserPatch struct {
	Username *string
	Email    *string
	Password *string
	Role     *Role
}

// PublicUser is the caller-facing projection of a user. It deliberately has
// no password hash field so one can never leak into a response.
type PublicUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     Role   `json:"role"`
}

// Public strips the credential material from a user.
func (u User) Public() PublicUser {
	return PublicUser{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		Role:     u.Role,
	}
}
