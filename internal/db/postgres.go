package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jonathan/kredible/internal/types"
)

// PostgresStore wraps a PostgreSQL connection pool
type PostgresStore struct {
	pool *pgxpool.Pool
}

// Connect establishes a connection pool to the database and ensures the schema exists
func Connect(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &PostgresStore{pool: pool}
	if err := s.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// Migrate creates the recruiter_requests table if it does not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
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
  created_at TIMESTAMPTZ NOT NULL,
  expires_at TIMESTAMPTZ NOT NULL,
  candidate_data JSONB
)`)
	if err != nil {
		return fmt.Errorf("failed to migrate recruiter_requests: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`CREATE INDEX IF NOT EXISTS idx_recruiter_requests_status ON recruiter_requests(status)`)
	if err != nil {
		return fmt.Errorf("failed to create status index: %w", err)
	}
	return nil
}

const pgColumns = `id, token, first_name, last_name, email, company, job_title, company_size,
  candidate_name, candidate_email, position_title, additional_notes,
  status, created_at, expires_at, candidate_data`

// Save implements Store.
func (s *PostgresStore) Save(ctx context.Context, req *types.RecruiterRequest) error {
	candidate, err := encodeCandidateData(req.CandidateData)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `
INSERT INTO recruiter_requests (`+pgColumns+`)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
ON CONFLICT (id) DO UPDATE SET
  token = EXCLUDED.token,
  first_name = EXCLUDED.first_name,
  last_name = EXCLUDED.last_name,
  email = EXCLUDED.email,
  company = EXCLUDED.company,
  job_title = EXCLUDED.job_title,
  company_size = EXCLUDED.company_size,
  candidate_name = EXCLUDED.candidate_name,
  candidate_email = EXCLUDED.candidate_email,
  position_title = EXCLUDED.position_title,
  additional_notes = EXCLUDED.additional_notes,
  status = EXCLUDED.status,
  created_at = EXCLUDED.created_at,
  expires_at = EXCLUDED.expires_at,
  candidate_data = EXCLUDED.candidate_data`,
		req.ID, req.Token, req.FirstName, req.LastName, req.Email, req.Company, req.JobTitle, req.CompanySize,
		req.CandidateName, req.CandidateEmail, req.PositionTitle, req.AdditionalNotes,
		string(req.Status), req.CreatedAt, req.ExpiresAt, candidate,
	)
	if err != nil {
		return fmt.Errorf("failed to save request: %w", err)
	}
	return nil
}

// FindByToken implements Store.
func (s *PostgresStore) FindByToken(ctx context.Context, token string) (*types.RecruiterRequest, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+pgColumns+` FROM recruiter_requests WHERE token = $1`, token)
	req, err := scanPgRequest(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find request by token: %w", err)
	}
	return req, nil
}

// ListAll implements Store.
func (s *PostgresStore) ListAll(ctx context.Context) ([]*types.RecruiterRequest, error) {
	return s.list(ctx, `SELECT `+pgColumns+` FROM recruiter_requests ORDER BY created_at, id`)
}

// ListCompleted implements Store.
func (s *PostgresStore) ListCompleted(ctx context.Context) ([]*types.RecruiterRequest, error) {
	return s.list(ctx, `SELECT `+pgColumns+` FROM recruiter_requests
WHERE status = 'completed' AND candidate_data IS NOT NULL
ORDER BY created_at, id`)
}

func (s *PostgresStore) list(ctx context.Context, query string) ([]*types.RecruiterRequest, error) {
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}
	defer rows.Close()

	out := make([]*types.RecruiterRequest, 0)
	for rows.Next() {
		req, err := scanPgRequest(rows)
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
func (s *PostgresStore) CompletePending(ctx context.Context, id string, data *types.CandidateData) error {
	candidate, err := encodeCandidateData(data)
	if err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx, `
UPDATE recruiter_requests SET status = 'completed', candidate_data = $1
WHERE id = $2 AND status = 'pending'`, candidate, id)
	if err != nil {
		return fmt.Errorf("failed to complete request: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	var status string
	err = s.pool.QueryRow(ctx, `SELECT status FROM recruiter_requests WHERE id = $1`, id).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to read request status: %w", err)
	}
	return ErrAlreadyCompleted
}

// Delete implements Store.
func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM recruiter_requests WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete request: %w", err)
	}
	return nil
}

// Clear implements Store.
func (s *PostgresStore) Clear(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM recruiter_requests`); err != nil {
		return fmt.Errorf("failed to clear requests: %w", err)
	}
	return nil
}

// Close closes the connection pool
func (s *PostgresStore) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

func scanPgRequest(row rowScanner) (*types.RecruiterRequest, error) {
	var (
		req       types.RecruiterRequest
		status    string
		candidate []byte
	)
	if err := row.Scan(
		&req.ID, &req.Token, &req.FirstName, &req.LastName, &req.Email, &req.Company, &req.JobTitle, &req.CompanySize,
		&req.CandidateName, &req.CandidateEmail, &req.PositionTitle, &req.AdditionalNotes,
		&status, &req.CreatedAt, &req.ExpiresAt, &candidate,
	); err != nil {
		return nil, err
	}
	req.Status = types.Status(status)
	req.CreatedAt = req.CreatedAt.UTC()
	req.ExpiresAt = req.ExpiresAt.UTC()

	if candidate != nil {
		data, err := decodeCandidateData(candidate)
		if err != nil {
			return nil, err
		}
		req.CandidateData = data
	}
	return &req, nil
}
