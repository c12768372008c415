package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/jonathan/kredible/internal/types"
)

// sqliteTime is fixed-width so that text ordering matches chronological ordering.
const sqliteTime = "2006-01-02T15:04:05.000000000Z"

// SQLiteStore persists records in a single-file SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path and applies migrations.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	// modernc sqlite uses DSN like: file:foo.db?_pragma=busy_timeout(5000)
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", path)

	pool, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	pool.SetMaxOpenConns(1)
	pool.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := pool.PingContext(pingCtx); err != nil {
		_ = pool.Close()
		return nil, fmt.Errorf("failed to ping sqlite: %w", err)
	}

	if err := MigrateSQLite(ctx, pool); err != nil {
		_ = pool.Close()
		return nil, err
	}
	return &SQLiteStore{db: pool}, nil
}

// MigrateSQLite brings the schema up to date, tracking the version in PRAGMA user_version.
func MigrateSQLite(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin migration: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var v int
	if err := tx.QueryRowContext(ctx, `PRAGMA user_version;`).Scan(&v); err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	if v >= 1 {
		return tx.Commit()
	}

	if _, err := tx.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS recruiter_requests (
  id TEXT PRIMARY KEY,
  token TEXT NOT NULL UNIQUE,
  first_name TEXT NOT NULL,
  last_name TEXT NOT NULL,
  email TEXT NOT NULL,
  company TEXT NOT NULL,
  job_title TEXT NOT NULL,
  company_size TEXT NOT NULL DEFAULT '',
  candidate_name TEXT NOT NULL,
  candidate_email TEXT NOT NULL,
  position_title TEXT NOT NULL,
  additional_notes TEXT NOT NULL DEFAULT '',
  status TEXT NOT NULL,
  created_at TEXT NOT NULL,
  expires_at TEXT NOT NULL,
  candidate_data TEXT
);
`); err != nil {
		return fmt.Errorf("failed to create recruiter_requests: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
CREATE INDEX IF NOT EXISTS idx_recruiter_requests_status
ON recruiter_requests(status);
`); err != nil {
		return fmt.Errorf("failed to create status index: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `PRAGMA user_version = 1;`); err != nil {
		return fmt.Errorf("failed to set schema version: %w", err)
	}
	return tx.Commit()
}

const sqliteColumns = `id, token, first_name, last_name, email, company, job_title, company_size,
  candidate_name, candidate_email, position_title, additional_notes,
  status, created_at, expires_at, candidate_data`

// Save implements Store.
func (s *SQLiteStore) Save(ctx context.Context, req *types.RecruiterRequest) error {
	candidate, err := encodeCandidateData(req.CandidateData)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO recruiter_requests (`+sqliteColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
  token = excluded.token,
  first_name = excluded.first_name,
  last_name = excluded.last_name,
  email = excluded.email,
  company = excluded.company,
  job_title = excluded.job_title,
  company_size = excluded.company_size,
  candidate_name = excluded.candidate_name,
  candidate_email = excluded.candidate_email,
  position_title = excluded.position_title,
  additional_notes = excluded.additional_notes,
  status = excluded.status,
  created_at = excluded.created_at,
  expires_at = excluded.expires_at,
  candidate_data = excluded.candidate_data`,
		req.ID, req.Token, req.FirstName, req.LastName, req.Email, req.Company, req.JobTitle, req.CompanySize,
		req.CandidateName, req.CandidateEmail, req.PositionTitle, req.AdditionalNotes,
		string(req.Status), formatSQLiteTime(req.CreatedAt), formatSQLiteTime(req.ExpiresAt), candidate,
	)
	if err != nil {
		return fmt.Errorf("failed to save request: %w", err)
	}
	return nil
}

// FindByToken implements Store.
func (s *SQLiteStore) FindByToken(ctx context.Context, token string) (*types.RecruiterRequest, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+sqliteColumns+` FROM recruiter_requests WHERE token = ?`, token)
	req, err := scanSQLiteRequest(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find request by token: %w", err)
	}
	return req, nil
}

// ListAll implements Store.
func (s *SQLiteStore) ListAll(ctx context.Context) ([]*types.RecruiterRequest, error) {
	return s.list(ctx, `SELECT `+sqliteColumns+` FROM recruiter_requests ORDER BY created_at, id`)
}

// ListCompleted implements Store.
func (s *SQLiteStore) ListCompleted(ctx context.Context) ([]*types.RecruiterRequest, error) {
	return s.list(ctx, `SELECT `+sqliteColumns+` FROM recruiter_requests
WHERE status = 'completed' AND candidate_data IS NOT NULL
ORDER BY created_at, id`)
}

func (s *SQLiteStore) list(ctx context.Context, query string) ([]*types.RecruiterRequest, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make([]*types.RecruiterRequest, 0)
	for rows.Next() {
		req, err := scanSQLiteRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan request: %w", err)
		}
		out = append(out, req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating requests: %w", err)
	}
	return out, nil
}

// CompletePending implements Store.
func (s *SQLiteStore) CompletePending(ctx context.Context, id string, data *types.CandidateData) error {
	candidate, err := encodeCandidateData(data)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `
UPDATE recruiter_requests SET status = 'completed', candidate_data = ?
WHERE id = ? AND status = 'pending'`, candidate, id)
	if err != nil {
		return fmt.Errorf("failed to complete request: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to complete request: %w", err)
	}
	if n == 1 {
		return nil
	}

	var status string
	err = s.db.QueryRowContext(ctx, `SELECT status FROM recruiter_requests WHERE id = ?`, id).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to read request status: %w", err)
	}
	return ErrAlreadyCompleted
}

// Delete implements Store.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM recruiter_requests WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete request: %w", err)
	}
	return nil
}

// Clear implements Store.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM recruiter_requests`); err != nil {
		return fmt.Errorf("failed to clear requests: %w", err)
	}
	return nil
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteRequest(row rowScanner) (*types.RecruiterRequest, error) {
	var (
		req                  types.RecruiterRequest
		status               string
		createdAt, expiresAt string
		candidate            sql.NullString
	)
	if err := row.Scan(
		&req.ID, &req.Token, &req.FirstName, &req.LastName, &req.Email, &req.Company, &req.JobTitle, &req.CompanySize,
		&req.CandidateName, &req.CandidateEmail, &req.PositionTitle, &req.AdditionalNotes,
		&status, &createdAt, &expiresAt, &candidate,
	); err != nil {
		return nil, err
	}
	req.Status = types.Status(status)

	var err error
	if req.CreatedAt, err = time.Parse(sqliteTime, createdAt); err != nil {
		return nil, fmt.Errorf("bad created_at %q: %w", createdAt, err)
	}
	if req.ExpiresAt, err = time.Parse(sqliteTime, expiresAt); err != nil {
		return nil, fmt.Errorf("bad expires_at %q: %w", expiresAt, err)
	}
	if candidate.Valid {
		if req.CandidateData, err = decodeCandidateData([]byte(candidate.String)); err != nil {
			return nil, err
		}
	}
	return &req, nil
}

func formatSQLiteTime(t time.Time) string {
	return t.UTC().Format(sqliteTime)
}

// encodeCandidateData returns nil for absent data so the column stores NULL.
func encodeCandidateData(data *types.CandidateData) (any, error) {
	if data == nil {
		return nil, nil
	}
	b, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to encode candidate data: %w", err)
	}
	return string(b), nil
}

func decodeCandidateData(b []byte) (*types.CandidateData, error) {
	var data types.CandidateData
	if err := json.Unmarshal(b, &data); err != nil {
		return nil, fmt.Errorf("failed to decode candidate data: %w", err)
	}
	return &data, nil
}
