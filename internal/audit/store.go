package audit

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

const (
	DefaultLimit = 50
	MaxLimit     = 500
)

// Record is one validation attempt.
type Record struct {
	ID         int64     `json:"id"`
	RequestID  string    `json:"request_id"`
	RawInput   string    `json:"raw_input"`
	Identifier string    `json:"identifier,omitempty"`
	Outcome    string    `json:"outcome"`
	Error      string    `json:"error,omitempty"`
	DurationMS int64     `json:"duration_ms"`
	CreatedAt  time.Time `json:"created_at"`
}

// Store persists validation attempts next to the WhatsApp device store.
type Store struct {
	db      *sql.DB
	dialect string
}

func NewStore(db *sql.DB, dialect string) *Store {
	return &Store{db: db, dialect: dialect}
}

// Upgrade creates the table when it does not exist yet.
func (s *Store) Upgrade(ctx context.Context) error {
	if s == nil || s.db == nil {
		return errors.New("audit store not initialized")
	}

	idColumn := "id INTEGER PRIMARY KEY AUTOINCREMENT"
	if s.dialect == "postgres" {
		idColumn = "id BIGSERIAL PRIMARY KEY"
	}
	statements := []string{
		`CREATE TABLE IF NOT EXISTS number_validations (
			` + idColumn + `,
			request_id  TEXT NOT NULL DEFAULT '',
			raw_input   TEXT NOT NULL,
			identifier  TEXT NOT NULL DEFAULT '',
			outcome     TEXT NOT NULL,
			error       TEXT NOT NULL DEFAULT '',
			duration_ms BIGINT NOT NULL DEFAULT 0,
			created_at  BIGINT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS number_validations_created_at_idx ON number_validations (created_at)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) Record(ctx context.Context, r Record) error {
	if s == nil || s.db == nil {
		return nil
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO number_validations (request_id, raw_input, identifier, outcome, error, duration_ms, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, r.RequestID, r.RawInput, r.Identifier, r.Outcome, r.Error, r.DurationMS, r.CreatedAt.UnixMilli())
	return err
}

// Recent returns the latest records, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Record, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("audit store not initialized")
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, request_id, raw_input, identifier, outcome, error, duration_ms, created_at
		FROM number_validations
		ORDER BY created_at DESC, id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]Record, 0, limit)
	for rows.Next() {
		var r Record
		var createdAt int64
		if err := rows.Scan(&r.ID, &r.RequestID, &r.RawInput, &r.Identifier, &r.Outcome, &r.Error, &r.DurationMS, &createdAt); err != nil {
			return nil, err
		}
		r.CreatedAt = time.UnixMilli(createdAt)
		records = append(records, r)
	}
	return records, rows.Err()
}

// Prune deletes records older than maxAge and returns how many were removed.
func (s *Store) Prune(ctx context.Context, maxAge time.Duration) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM number_validations WHERE created_at < $1`, time.Now().Add(-maxAge).UnixMilli())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
