package session

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"golang.org/x/exp/slog"
)

const DefaultTTL = 24 * time.Hour

type Servicer interface {
	Create(ctx context.Context, userID int) (Identity, error)
	Validate(ctx context.Context, token string) (Identity, error)
	Revoke(ctx context.Context, token string) error
}

type Service struct {
	repo Repository
	ttl  time.Duration
	now  func() time.Time
	log  *slog.Logger
}

func NewService(repo Repository, ttl time.Duration, log *slog.Logger) *Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Service{
		repo: repo,
		ttl:  ttl,
		now:  time.Now,
		log:  log.With("component", "session_service"),
	}
}

func (s *Service) TTL() time.Duration {
	return s.ttl
}

func (s *Service) Create(ctx context.Context, userID int) (Identity, error) {
	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return Identity{}, fmt.Errorf("generate token: %w", err)
	}
	token := base64.URLEncoding.EncodeToString(tokenBytes)

	now := s.now().UTC()
	sess := Session{
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.repo.Create(ctx, hashToken(token), sess); err != nil {
		return Identity{}, fmt.Errorf("save session: %w", err)
	}

	return Identity{Token: token, UserID: userID, ExpiresAt: sess.ExpiresAt}, nil
}

// Validate resolves a token. Unknown or expired tokens yield ErrInvalidSession;
// any other error comes from the store.
func (s *Service) Validate(ctx context.Context, token string) (Identity, error) {
	if token == "" {
		return Identity{}, ErrInvalidSession
	}

	sess, err := s.repo.Find(ctx, hashToken(token), s.now().UTC())
	if err != nil {
		if errors.Is(err, ErrInvalidSession) {
			return Identity{}, ErrInvalidSession
		}
		return Identity{}, fmt.Errorf("find session: %w", err)
	}

	return Identity{Token: token, UserID: sess.UserID, ExpiresAt: sess.ExpiresAt}, nil
}

// Revoke deletes the session. Revoking an unknown token is not an error.
func (s *Service) Revoke(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.repo.Delete(ctx, hashToken(token)); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *Service) PurgeExpired(ctx context.Context) (int64, error) {
	n, err := s.repo.DeleteExpired(ctx, s.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("purge sessions: %w", err)
	}
	if n > 0 {
		s.log.Info("expired sessions purged", "count", n)
	}
	return n, nil
}

// RunPurger calls PurgeExpired every interval until ctx is done.
func (s *Service) RunPurger(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.PurgeExpired(ctx); err != nil {
				s.log.Error("session purge failed", "error", err)
			}
		}
	}
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
