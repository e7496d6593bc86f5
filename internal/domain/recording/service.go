package recording

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/exp/slog"

	"voicedrop/internal/domain/user"
)

type Servicer interface {
	Upload(ctx context.Context, up Upload) (Recording, error)
	List(ctx context.Context, username string) ([]Recording, error)
}

type Service struct {
	repo     Repository
	stager   Stager
	maxBytes int64
	now      func() time.Time
	log      *slog.Logger
}

func NewService(repo Repository, stager Stager, maxBytes int64, log *slog.Logger) *Service {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Service{
		repo:     repo,
		stager:   stager,
		maxBytes: maxBytes,
		now:      time.Now,
		log:      log.With("component", "recording_service"),
	}
}

func (s *Service) MaxBytes() int64 {
	return s.maxBytes
}

// Upload stages the audio, inserts it for the target and removes the staged
// artifact whatever the outcome. The uploader's own session plays no part.
func (s *Service) Upload(ctx context.Context, up Upload) (Recording, error) {
	owner := user.NormalizeUsername(up.Target)
	if owner == "" {
		return Recording{}, ErrInvalidTarget
	}
	if up.Body == nil {
		return Recording{}, ErrMissingAudio
	}

	contentType, err := audioContentType(up.ContentType)
	if err != nil {
		return Recording{}, err
	}
	if up.Size > s.maxBytes {
		return Recording{}, ErrPayloadTooLarge
	}

	art, err := s.stager.Stage(up.Body, s.maxBytes)
	if err != nil {
		if errors.Is(err, ErrPayloadTooLarge) {
			return Recording{}, err
		}
		return Recording{}, fmt.Errorf("%w: stage upload: %v", ErrStorage, err)
	}
	defer func() {
		if err := art.Remove(); err != nil {
			s.log.Error("failed to remove staged upload", "error", err)
		}
	}()

	data, err := art.Bytes()
	if err != nil {
		return Recording{}, fmt.Errorf("%w: read staged upload: %v", ErrStorage, err)
	}

	createdAt := up.Timestamp
	if createdAt.IsZero() {
		createdAt = s.now()
	}

	rec := &Recording{
		ID:          uuid.New(),
		Owner:       owner,
		Audio:       data,
		ContentType: contentType,
		Duration:    up.Duration,
		CreatedAt:   createdAt.UTC(),
	}
	if err := s.repo.Insert(ctx, rec); err != nil {
		s.log.Error("failed to insert recording", "owner", owner, "error", err)
		return Recording{}, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	s.log.Info("recording stored", "owner", owner, "id", rec.ID, "size", len(data))
	return *rec, nil
}

// List returns the recordings addressed to username, newest first.
func (s *Service) List(ctx context.Context, username string) ([]Recording, error) {
	owner := user.NormalizeUsername(username)
	if owner == "" {
		return nil, ErrInvalidTarget
	}

	recs, err := s.repo.ListByOwner(ctx, owner)
	if err != nil {
		s.log.Error("failed to list recordings", "owner", owner, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	slices.SortStableFunc(recs, func(a, b Recording) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return recs, nil
}

func audioContentType(ct string) (string, error) {
	mediaType, _, err := mime.ParseMediaType(ct)
	if err != nil || !strings.HasPrefix(mediaType, "audio/") {
		return "", ErrUnsupportedMediaType
	}
	return ct, nil
}
