package domain

import (
	"context"
	"errors"
	"net/url"
)

var (
	ErrInvalidURL   = errors.New("invalid URL")
	ErrJobNotFound  = errors.New("job not found")
	ErrInvalidJobID = errors.New("invalid job ID")
)

// DefaultListLimit bounds List when the caller passes a non-positive limit.
const DefaultListLimit = 50

// JobService is the producer-facing entry point to the job repository.
type JobService struct {
	repo JobRepository
}

// NewJobService creates a new JobService.
func NewJobService(repo JobRepository) *JobService {
	return &JobService{repo: repo}
}

// Submit enqueues a download of rawURL. Only absolute http(s) URLs are accepted.
func (s *JobService) Submit(ctx context.Context, rawURL string) (*Job, error) {
	u, err := url.ParseRequestURI(rawURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, ErrInvalidURL
	}
	return s.repo.Create(ctx, rawURL)
}

// Get retrieves a job by ID string.
func (s *JobService) Get(ctx context.Context, id string) (*Job, error) {
	parsed, err := ParseJobID(id)
	if err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, parsed)
}

// List returns the most recently requested jobs first.
func (s *JobService) List(ctx context.Context, limit int) ([]Job, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	return s.repo.List(ctx, limit)
}
