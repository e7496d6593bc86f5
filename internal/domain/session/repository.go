package session

import (
	"context"
	"time"
)

// Repository persists sessions keyed by the hex SHA-256 of the token.
// Find returns ErrInvalidSession when no live row matches.
type Repository interface {
	Create(ctx context.Context, tokenHash string, s Session) error
	Find(ctx context.Context, tokenHash string, now time.Time) (Session, error)
	Delete(ctx context.Context, tokenHash string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
