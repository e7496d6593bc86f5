package client

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"voicedrop/internal/app/client/playback"
)

// SQLiteStorage caches the last fetched inbox of each account so
// recordings can be replayed offline.
type SQLiteStorage struct {
	db *sql.DB
}

func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open inbox cache: %w", err)
	}

	storage := &SQLiteStorage{db: db}

	if err := storage.initTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init inbox cache: %w", err)
	}

	return storage, nil
}

func (s *SQLiteStorage) initTables() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS inbox (
			owner TEXT NOT NULL,
			id TEXT NOT NULL,
			audio TEXT NOT NULL,
			content_type TEXT NOT NULL DEFAULT '',
			duration REAL NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL,
			PRIMARY KEY (owner, id)
		);

		CREATE INDEX IF NOT EXISTS idx_inbox_owner_created ON inbox(owner, created_at DESC);
	`)

	return err
}

// SaveInbox replaces the cached inbox of owner with items.
func (s *SQLiteStorage) SaveInbox(owner string, items []playback.Item) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM inbox WHERE owner = ?`, owner); err != nil {
		return fmt.Errorf("clear inbox: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO inbox (owner, id, audio, content_type, duration, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, it := range items {
		if _, err := stmt.Exec(owner, it.ID, it.Audio, it.ContentType, it.Duration, it.CreatedAt.UTC()); err != nil {
			return fmt.Errorf("insert %s: %w", it.ID, err)
		}
	}

	return tx.Commit()
}

// LoadInbox returns the cached inbox of owner, newest first.
func (s *SQLiteStorage) LoadInbox(owner string) ([]playback.Item, error) {
	rows, err := s.db.Query(`
		SELECT id, audio, content_type, duration, created_at
		FROM inbox
		WHERE owner = ?
		ORDER BY created_at DESC, id DESC
	`, owner)
	if err != nil {
		return nil, fmt.Errorf("query inbox: %w", err)
	}
	defer rows.Close()

	var items []playback.Item
	for rows.Next() {
		var it playback.Item
		var created time.Time
		if err := rows.Scan(&it.ID, &it.Audio, &it.ContentType, &it.Duration, &created); err != nil {
			return nil, fmt.Errorf("scan inbox row: %w", err)
		}
		it.CreatedAt = created.UTC()
		items = append(items, it)
	}

	return items, rows.Err()
}

func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
