package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/cwygoda/grabber/internal/adapter/artifact"
	httpAdapter "github.com/cwygoda/grabber/internal/adapter/http"
	"github.com/cwygoda/grabber/internal/adapter/process"
	"github.com/cwygoda/grabber/internal/config"
	"github.com/cwygoda/grabber/internal/domain"
	"github.com/cwygoda/grabber/internal/handoff"
	"github.com/cwygoda/grabber/internal/worker"
	"github.com/cwygoda/grabber/internal/ytdlp"
)

// lockFileName is created in the work directory while a worker owns it.
const lockFileName = ".grabber.lock"

const shutdownTimeout = 10 * time.Second

func newRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the download worker and the submission endpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runWorker(runCtx, cfg, ctx.logger)
		},
	}
}

func runWorker(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	workDir, err := filepath.Abs(cfg.WorkDir)
	if err != nil {
		return fmt.Errorf("resolve work dir: %w", err)
	}
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return fmt.Errorf("create work dir: %w", err)
	}

	lock, err := acquireWorkDirLock(workDir)
	if err != nil {
		return err
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			logger.Warn("failed to release work dir lock", "lock", lock.Path(), "error", err)
		}
	}()

	repo, err := openRepository(ctx, cfg)
	if err != nil {
		return err
	}
	defer repo.Close()

	artifacts, err := artifact.New(ctx, cfg.Artifacts)
	if err != nil {
		return fmt.Errorf("open artifact store: %w", err)
	}

	tool := ytdlp.NewTool(process.NewRunner(logger), workDir, cfg.YtDlp)
	updater := ytdlp.NewUpdater(tool, logger)
	processor := worker.NewProcessor(repo, tool, handoff.New(artifacts, logger), logger)
	w := worker.New(repo, processor, updater, workDir, cfg.IdleInterval(), logger)

	logger.Info("starting grabber",
		"work_dir", workDir,
		"store", cfg.Store.Driver,
		"artifacts", cfg.Artifacts.Backend,
		"idle_interval", cfg.IdleInterval(),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return w.Run(gctx)
	})

	if cfg.HTTP.Port > 0 {
		srv := httpAdapter.NewServer(domain.NewJobService(repo), fmt.Sprintf(":%d", cfg.HTTP.Port), cfg.HTTP.Secret, logger)
		g.Go(func() error {
			logger.Info("HTTP server listening", "addr", srv.Addr())
			return srv.ListenAndServe()
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	err = g.Wait()
	logger.Info("shutdown complete")
	return err
}

// acquireWorkDirLock ensures a single worker per work directory, since
// artifact discovery attributes every new file in the directory to the
// running job.
func acquireWorkDirLock(workDir string) (*flock.Flock, error) {
	lock := flock.New(filepath.Join(workDir, lockFileName))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire work dir lock: %w", err)
	}
	if !ok {
		return nil, errors.New("another grabber worker is already using " + workDir)
	}
	return lock, nil
}
