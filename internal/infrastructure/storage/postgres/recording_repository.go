package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/exp/slog"

	"voicedrop/internal/domain/recording"
)

type RecordingRepository struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

func NewRecordingRepository(pool *pgxpool.Pool, log *slog.Logger) *RecordingRepository {
	return &RecordingRepository{
		pool: pool,
		log:  log.With("component", "recording_repository"),
	}
}

// Insert is a single-statement append; rows are never updated.
func (r *RecordingRepository) Insert(ctx context.Context, rec *recording.Recording) error {
	const query = `
		INSERT INTO recordings (id, username, audio, content_type, duration, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.pool.Exec(ctx, query,
		rec.ID, rec.Owner, rec.Audio, rec.ContentType, rec.Duration, rec.CreatedAt)
	if err != nil {
		r.log.Error("failed to insert recording", "owner", rec.Owner, "error", err)
		return fmt.Errorf("insert recording: %w", err)
	}
	return nil
}

func (r *RecordingRepository) ListByOwner(ctx context.Context, owner string) ([]recording.Recording, error) {
	const query = `
		SELECT id, username, audio, content_type, duration, created_at
		FROM recordings
		WHERE username = $1
		ORDER BY created_at DESC, id DESC`

	rows, err := r.pool.Query(ctx, query, owner)
	if err != nil {
		r.log.Error("failed to list recordings", "owner", owner, "error", err)
		return nil, fmt.Errorf("list recordings: %w", err)
	}

	recs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (recording.Recording, error) {
		var rec recording.Recording
		err := row.Scan(&rec.ID, &rec.Owner, &rec.Audio, &rec.ContentType, &rec.Duration, &rec.CreatedAt)
		return rec, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan recordings: %w", err)
	}
	return recs, nil
}
