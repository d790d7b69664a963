package domain

import (
	"context"
	"io"

	"github.com/google/uuid"
)

// JobStore is the driven port the worker claims and transitions jobs through.
// ClaimNext returns (nil, nil) when no unstarted job exists.
type JobStore interface {
	Setup(ctx context.Context) error
	ClaimNext(ctx context.Context) (*Job, error)
	MarkStarted(ctx context.Context, id uuid.UUID) error
	MarkCompletedSuccess(ctx context.Context, id uuid.UUID) error
	MarkCompletedError(ctx context.Context, id uuid.UUID, message string) error
}

// JobRepository extends JobStore with the operations producers need.
type JobRepository interface {
	JobStore
	Create(ctx context.Context, url string) (*Job, error)
	Get(ctx context.Context, id uuid.UUID) (*Job, error)
	List(ctx context.Context, limit int) ([]Job, error)
}

// ArtifactStore persists a byte stream under a name, overwriting any
// existing object of the same name.
type ArtifactStore interface {
	Save(ctx context.Context, name string, r io.Reader) error
}
