package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/cwygoda/grabber/internal/adapter/postgres"
	"github.com/cwygoda/grabber/internal/adapter/sqlite"
	"github.com/cwygoda/grabber/internal/config"
	"github.com/cwygoda/grabber/internal/domain"
	"github.com/cwygoda/grabber/internal/logging"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	logger     *slog.Logger
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		logger, err := logging.NewFromConfig(cfg)
		if err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.logger = logger
	})
	return c.config, c.configErr
}

// repository is a job repository holding an open connection.
type repository interface {
	domain.JobRepository
	io.Closer
}

// openRepository opens the job store selected by the config and creates its
// schema.
func openRepository(ctx context.Context, cfg *config.Config) (repository, error) {
	var (
		repo repository
		err  error
	)
	switch cfg.Store.Driver {
	case config.DriverSQLite:
		repo, err = sqlite.New(cfg.Store.SQLitePath)
	case config.DriverPostgres:
		repo, err = postgres.Connect(ctx, cfg.Store.PostgresURL)
	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.Store.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("open job store: %w", err)
	}

	if err := repo.Setup(ctx); err != nil {
		repo.Close()
		return nil, err
	}
	return repo, nil
}

// withRepository opens the configured job store for the duration of fn.
func (c *commandContext) withRepository(ctx context.Context, fn func(repository) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	repo, err := openRepository(ctx, cfg)
	if err != nil {
		return err
	}
	defer repo.Close()
	return fn(repo)
}
