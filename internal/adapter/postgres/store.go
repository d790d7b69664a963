// Package postgres provides a PostgreSQL-backed job repository.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cwygoda/grabber/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS download_requests (
    id           UUID PRIMARY KEY,
    url          TEXT NOT NULL,
    requested_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    started_at   TIMESTAMPTZ,
    completed_at TIMESTAMPTZ,
    error        TEXT
);
CREATE INDEX IF NOT EXISTS idx_download_requests_unstarted
    ON download_requests(requested_at) WHERE started_at IS NULL;
`

const jobColumns = `id, url, requested_at, started_at, completed_at, error`

// Store implements domain.JobRepository on a pgx connection pool.
type Store struct {
	pool *pgxpool.Pool
}

// Connect establishes a connection pool to the database.
func Connect(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{pool: pool}, nil
}

// Close closes the connection pool.
func (s *Store) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

// Setup creates the table if it does not exist.
func (s *Store) Setup(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Create inserts a new pending job.
func (s *Store) Create(ctx context.Context, url string) (*domain.Job, error) {
	row := s.pool.QueryRow(ctx,
		`INSERT INTO download_requests (id, url)
		 VALUES ($1, $2)
		 RETURNING `+jobColumns,
		uuid.New(), url,
	)
	job, err := scanJob(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create job: %w", err)
	}
	return job, nil
}

// Get retrieves a job by ID.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (*domain.Job, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+jobColumns+` FROM download_requests WHERE id = $1`, id,
	)
	return scanJob(row)
}

// List returns up to limit jobs, most recently requested first.
func (s *Store) List(ctx context.Context, limit int) ([]domain.Job, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+jobColumns+` FROM download_requests ORDER BY requested_at DESC LIMIT $1`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []domain.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *job)
	}
	return jobs, rows.Err()
}

// ClaimNext returns the oldest job that has not been started, or nil.
func (s *Store) ClaimNext(ctx context.Context) (*domain.Job, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+jobColumns+` FROM download_requests
		 WHERE started_at IS NULL
		 ORDER BY requested_at ASC
		 LIMIT 1`,
	)
	job, err := scanJob(row)
	if errors.Is(err, domain.ErrJobNotFound) {
		return nil, nil
	}
	return job, err
}

// MarkStarted stamps started_at. A job already started keeps its first stamp.
func (s *Store) MarkStarted(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE download_requests SET started_at = COALESCE(started_at, NOW()) WHERE id = $1`, id,
	)
	return checkUpdated(tag, err, "mark started")
}

// MarkCompletedSuccess stamps completed_at.
func (s *Store) MarkCompletedSuccess(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE download_requests SET completed_at = NOW() WHERE id = $1`, id,
	)
	return checkUpdated(tag, err, "mark completed")
}

// MarkCompletedError stamps completed_at and records message.
func (s *Store) MarkCompletedError(ctx context.Context, id uuid.UUID, message string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE download_requests SET completed_at = NOW(), error = $2 WHERE id = $1`, id, message,
	)
	return checkUpdated(tag, err, "mark failed")
}

func checkUpdated(tag pgconn.CommandTag, err error, op string) error {
	if err != nil {
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrJobNotFound
	}
	return nil
}

func scanJob(row pgx.Row) (*domain.Job, error) {
	var job domain.Job
	err := row.Scan(&job.ID, &job.URL, &job.RequestedAt, &job.StartedAt, &job.CompletedAt, &job.Error)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrJobNotFound
	}
	if err != nil {
		return nil, err
	}
	job.RequestedAt = job.RequestedAt.UTC()
	return &job, nil
}
