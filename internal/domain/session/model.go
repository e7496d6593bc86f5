package session

import "time"

type Session struct {
	UserID    int
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Identity is what a valid session resolves to. It is threaded through the
// request context instead of living in any global state.
type Identity struct {
	Token     string
	UserID    int
	ExpiresAt time.Time
}
