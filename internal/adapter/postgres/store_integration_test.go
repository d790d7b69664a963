//go:build integration

package postgres

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwygoda/grabber/internal/domain"
)

// setupStore connects to GRABBER_TEST_DATABASE_URL and empties the table.
func setupStore(t *testing.T) *Store {
	t.Helper()
	url := os.Getenv("GRABBER_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("GRABBER_TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	store, err := Connect(ctx, url)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	require.NoError(t, store.Setup(ctx))
	_, err = store.pool.Exec(ctx, `TRUNCATE download_requests`)
	require.NoError(t, err)
	return store
}

func TestStore_SetupIsIdempotent(t *testing.T) {
	store := setupStore(t)
	assert.NoError(t, store.Setup(context.Background()))
}

func TestStore_CreateAndGet(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	created, err := store.Create(ctx, "https://example.com/v")
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, created.ID)
	assert.Equal(t, domain.StatusPending, created.Status())

	got, err := store.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.URL, got.URL)
	assert.Nil(t, got.StartedAt)

	_, err = store.Get(ctx, uuid.New())
	assert.True(t, errors.Is(err, domain.ErrJobNotFound))
}

func TestStore_ClaimAndComplete(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	first, err := store.Create(ctx, "https://example.com/1")
	require.NoError(t, err)
	second, err := store.Create(ctx, "https://example.com/2")
	require.NoError(t, err)

	job, err := store.ClaimNext(ctx)
	require.NoError(t, err)
	require.NotNil(t, job)
	assert.Equal(t, first.ID, job.ID)

	require.NoError(t, store.MarkStarted(ctx, first.ID))
	require.NoError(t, store.MarkCompletedSuccess(ctx, first.ID))

	job, err = store.ClaimNext(ctx)
	require.NoError(t, err)
	require.NotNil(t, job)
	assert.Equal(t, second.ID, job.ID)

	require.NoError(t, store.MarkStarted(ctx, second.ID))
	require.NoError(t, store.MarkCompletedError(ctx, second.ID, "boom"))

	job, err = store.ClaimNext(ctx)
	require.NoError(t, err)
	assert.Nil(t, job)

	done, err := store.Get(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, done.Status())

	failed, err := store.Get(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, failed.Status())
	assert.Equal(t, "boom", failed.ErrorMessage())

	jobs, err := store.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, second.ID, jobs[0].ID)
}

func TestStore_MarkUnknownJob(t *testing.T) {
	store := setupStore(t)
	err := store.MarkStarted(context.Background(), uuid.New())
	assert.ErrorIs(t, err, domain.ErrJobNotFound)
}
