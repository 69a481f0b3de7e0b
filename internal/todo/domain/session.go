package domain

import "time"

// Session is an entry in the in-memory session table. User is a snapshot
// taken at login: later changes to the account do not propagate into an
// existing session.
type Session struct {
	Token     string
	User      User
	ExpiresAt time.Time
}
