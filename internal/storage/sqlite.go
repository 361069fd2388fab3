// Package storage provides the data persistence layer: the append-only
// feedback log, the training corpus, and the reference embedding store.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/transactly/transactly/internal/model"
)

// FeedbackStore persists user corrections in SQLite. The single-connection
// WAL setup serializes appends, so concurrent feedback submissions cannot
// corrupt or lose records, and the autoincrement key preserves insertion
// order for the retraining pipeline.
type FeedbackStore struct {
	db     *sql.DB
	dbPath string
}

// NewFeedbackStore opens (creating if necessary) the feedback database.
func NewFeedbackStore(dbPath string) (*FeedbackStore, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("dbPath cannot be empty")
	}

	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite doesn't benefit from multiple connections.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &FeedbackStore{db: db, dbPath: dbPath}
	if err := s.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *FeedbackStore) migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS feedback (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			description TEXT NOT NULL,
			predicted_category TEXT NOT NULL,
			corrected_category TEXT NOT NULL,
			method TEXT NOT NULL,
			confidence REAL NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to migrate feedback table: %w", err)
	}
	return nil
}

// Append stores one correction. Records accumulate regardless of whether
// they change the model's immediate behavior; they are never deleted here.
func (s *FeedbackStore) Append(ctx context.Context, rec model.FeedbackRecord) error {
	if rec.Description == "" {
		return fmt.Errorf("feedback description cannot be empty")
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO feedback (description, predicted_category, corrected_category, method, confidence, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, rec.Description, rec.PredictedCategory, rec.CorrectedCategory, rec.Method, rec.Confidence, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save feedback: %w", err)
	}
	return nil
}

// All returns every feedback record in insertion order.
func (s *FeedbackStore) All(ctx context.Context) ([]model.FeedbackRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, description, predicted_category, corrected_category, method, confidence, created_at
		FROM feedback
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query feedback: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []model.FeedbackRecord
	for rows.Next() {
		var rec model.FeedbackRecord
		if err := rows.Scan(&rec.ID, &rec.Description, &rec.PredictedCategory,
			&rec.CorrectedCategory, &rec.Method, &rec.Confidence, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan feedback row: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate feedback rows: %w", err)
	}
	return records, nil
}

// Count returns the number of stored feedback records.
func (s *FeedbackStore) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM feedback`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count feedback: %w", err)
	}
	return count, nil
}

// Close closes the database connection.
func (s *FeedbackStore) Close() error {
	return s.db.Close()
}
