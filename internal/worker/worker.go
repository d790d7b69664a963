package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cwygoda/grabber/internal/domain"
	"github.com/cwygoda/grabber/internal/snapshot"
)

// Updater refreshes the download tool when due.
type Updater interface {
	MaybeUpdate(ctx context.Context) bool
}

// Worker claims jobs one at a time and processes them.
type Worker struct {
	store     domain.JobStore
	processor *Processor
	updater   Updater
	workDir   string
	idle      time.Duration
	logger    *slog.Logger
}

// New creates a new worker.
func New(store domain.JobStore, processor *Processor, updater Updater, workDir string, idle time.Duration, logger *slog.Logger) *Worker {
	return &Worker{
		store:     store,
		processor: processor,
		updater:   updater,
		workDir:   workDir,
		idle:      idle,
		logger:    logger,
	}
}

// Run sets up the store, updates the tool, records the baseline listing of
// the work directory and then loops until ctx is cancelled. While jobs are
// available they are processed back to back; otherwise the worker updates
// the tool if due and sleeps for the idle interval.
//
// Files already in the work directory at startup are never handed off.
// Run returns nil on cancellation and an error when the job store fails.
func (w *Worker) Run(ctx context.Context) error {
	if err := w.store.Setup(ctx); err != nil {
		return fmt.Errorf("job store setup: %w", err)
	}

	w.updater.MaybeUpdate(ctx)

	baseline, err := snapshot.Take(w.workDir)
	if err != nil {
		return fmt.Errorf("baseline snapshot: %w", err)
	}

	w.logger.Info("worker started",
		"work_dir", baseline.Dir(),
		"baseline_files", baseline.Len(),
		"idle_interval", w.idle,
	)

	for {
		if ctx.Err() != nil {
			w.logger.Info("worker shutting down")
			return nil
		}

		job, err := w.store.ClaimNext(ctx)
		if err != nil {
			if ctx.Err() != nil {
				w.logger.Info("worker shutting down")
				return nil
			}
			return fmt.Errorf("claim next job: %w", err)
		}
		if job != nil {
			if _, err := w.processor.Process(ctx, job, baseline); err != nil {
				return err
			}
			continue
		}

		w.updater.MaybeUpdate(ctx)
		w.logger.Info("pausing as there is no work", "interval", w.idle)
		if !w.sleep(ctx) {
			w.logger.Info("worker shutting down")
			return nil
		}
	}
}

func (w *Worker) sleep(ctx context.Context) bool {
	timer := time.NewTimer(w.idle)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
