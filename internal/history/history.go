// package history persists upload history and user preferences in SQLite.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/tcx/internal/shared"
)

// Upload is one recorded upload.
type Upload struct {
	ID          string    `json:"id"`
	File        string    `json:"file"`
	HouseholdID string    `json:"household_id"`
	TonieID     string    `json:"tonie_id"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

// Store provides upload history and preference persistence.
type Store struct {
	db *sql.DB
}

// NewStore wraps an open database and applies pending migrations.
func NewStore(db *sql.DB) (*Store, error) {
	if err := runMigrations(db); err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// Open opens (or creates) the database at path with the given pool limits
// and returns a migrated store.
func Open(path string, maxOpenConns, maxIdleConns int) (*Store, error) {
	db, err := shared.OpenDatabase(path, maxOpenConns, maxIdleConns)
	if err != nil {
		return nil, err
	}

	store, err := NewStore(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// RecordUpload appends one upload to the history.
func (s *Store) RecordUpload(ctx context.Context, file, householdID, tonieID string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO uploads (id, file, household_id, tonie_id, uploaded_at) VALUES (?, ?, ?, ?, ?)",
		shared.GenerateID(), file, householdID, tonieID, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to record upload: %w", err)
	}
	return nil
}

// RecentUploads returns the newest uploads, most recent first.
func (s *Store) RecentUploads(ctx context.Context, limit int) ([]Upload, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, file, household_id, tonie_id, uploaded_at FROM uploads ORDER BY uploaded_at DESC, id LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query uploads: %w", err)
	}
	defer rows.Close()

	var uploads []Upload
	for rows.Next() {
		var u Upload
		if err := rows.Scan(&u.ID, &u.File, &u.HouseholdID, &u.TonieID, &u.UploadedAt); err != nil {
			return nil, fmt.Errorf("failed to scan upload: %w", err)
		}
		uploads = append(uploads, u)
	}
	return uploads, rows.Err()
}

// SetPreference stores or replaces a preference value.
func (s *Store) SetPreference(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO preferences (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to set preference: %w", err)
	}
	return nil
}

// Preference returns a stored preference value, or "" when unset.
func (s *Store) Preference(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM preferences WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read preference: %w", err)
	}
	return value, nil
}
