package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/cwygoda/grabber/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS download_requests (
    id           TEXT PRIMARY KEY,
    url          TEXT NOT NULL,
    requested_at TEXT NOT NULL,
    started_at   TEXT,
    completed_at TEXT,
    error        TEXT
);
CREATE INDEX IF NOT EXISTS idx_download_requests_unstarted
    ON download_requests(requested_at) WHERE started_at IS NULL;
`

const jobColumns = `id, url, requested_at, started_at, completed_at, error`

// Repository implements domain.JobRepository using SQLite.
type Repository struct {
	db *sql.DB
}

// New opens the SQLite database at dbPath, creating its directory if needed.
// The schema is created by Setup.
func New(dbPath string) (*Repository, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create database dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, err)
		}
	}

	return &Repository{db: db}, nil
}

// Close closes the database connection.
func (r *Repository) Close() error {
	return r.db.Close()
}

// Setup creates the schema. It is safe to call repeatedly.
func (r *Repository) Setup(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Create inserts a new pending job.
func (r *Repository) Create(ctx context.Context, url string) (*domain.Job, error) {
	job := &domain.Job{
		ID:          uuid.New(),
		URL:         url,
		RequestedAt: time.Now().UTC(),
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO download_requests (id, url, requested_at) VALUES (?, ?, ?)`,
		job.ID.String(), job.URL, formatTime(job.RequestedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("insert job: %w", err)
	}
	return job, nil
}

// Get retrieves a job by ID.
func (r *Repository) Get(ctx context.Context, id uuid.UUID) (*domain.Job, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+jobColumns+` FROM download_requests WHERE id = ?`, id.String(),
	)
	return scanJob(row)
}

// List returns up to limit jobs, most recently requested first.
func (r *Repository) List(ctx context.Context, limit int) ([]domain.Job, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+jobColumns+` FROM download_requests ORDER BY requested_at DESC, rowid DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
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
func (r *Repository) ClaimNext(ctx context.Context) (*domain.Job, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+jobColumns+` FROM download_requests
		 WHERE started_at IS NULL
		 ORDER BY requested_at ASC, rowid ASC
		 LIMIT 1`,
	)
	job, err := scanJob(row)
	if errors.Is(err, domain.ErrJobNotFound) {
		return nil, nil
	}
	return job, err
}

// MarkStarted stamps started_at. A job already started keeps its first stamp.
func (r *Repository) MarkStarted(ctx context.Context, id uuid.UUID) error {
	return r.update(ctx,
		`UPDATE download_requests SET started_at = COALESCE(started_at, ?) WHERE id = ?`,
		formatTime(time.Now().UTC()), id.String(),
	)
}

// MarkCompletedSuccess stamps completed_at.
func (r *Repository) MarkCompletedSuccess(ctx context.Context, id uuid.UUID) error {
	return r.update(ctx,
		`UPDATE download_requests SET completed_at = ? WHERE id = ?`,
		formatTime(time.Now().UTC()), id.String(),
	)
}

// MarkCompletedError stamps completed_at and records message.
func (r *Repository) MarkCompletedError(ctx context.Context, id uuid.UUID, message string) error {
	return r.update(ctx,
		`UPDATE download_requests SET completed_at = ?, error = ? WHERE id = ?`,
		formatTime(time.Now().UTC()), message, id.String(),
	)
}

func (r *Repository) update(ctx context.Context, query string, args ...any) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrJobNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanJob(row scanner) (*domain.Job, error) {
	var (
		id          string
		job         domain.Job
		requestedAt string
		startedAt   sql.NullString
		completedAt sql.NullString
		errMsg      sql.NullString
	)
	err := row.Scan(&id, &job.URL, &requestedAt, &startedAt, &completedAt, &errMsg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrJobNotFound
	}
	if err != nil {
		return nil, err
	}

	if job.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("parse job id %q: %w", id, err)
	}
	if job.RequestedAt, err = parseTime(requestedAt); err != nil {
		return nil, err
	}
	if job.StartedAt, err = parseNullTime(startedAt); err != nil {
		return nil, err
	}
	if job.CompletedAt, err = parseNullTime(completedAt); err != nil {
		return nil, err
	}
	if errMsg.Valid {
		msg := errMsg.String
		job.Error = &msg
	}
	return &job, nil
}

// Timestamps are stored as fixed-width RFC 3339 text so that lexical order
// matches chronological order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t.UTC(), nil
}

func parseNullTime(s sql.NullString) (*time.Time, error) {
	if !s.Valid {
		return nil, nil
	}
	t, err := parseTime(s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
