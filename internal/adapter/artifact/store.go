// Package artifact provides ArtifactStore implementations for downloaded files.
package artifact

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/cwygoda/grabber/internal/config"
	"github.com/cwygoda/grabber/internal/domain"
)

// New returns the artifact store selected by cfg.Backend.
func New(ctx context.Context, cfg config.ArtifactConfig) (domain.ArtifactStore, error) {
	switch cfg.Backend {
	case config.BackendFilesystem, "":
		return NewFileStore(config.ExpandPath(cfg.Dir))
	case config.BackendAzureBlob:
		return NewBlobStore(ctx, cfg.AzureConnectionString, cfg.AzureContainer)
	default:
		return nil, fmt.Errorf("unknown artifact backend %q", cfg.Backend)
	}
}

// FileStore saves artifacts into a local directory.
type FileStore struct {
	dir string
}

// NewFileStore creates the directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("artifact directory not set")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create artifact dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the target directory.
func (s *FileStore) Dir() string {
	return s.dir
}

// Save writes r to <dir>/<name>, replacing any existing file. Readers never
// observe a partially written file.
func (s *FileStore) Save(ctx context.Context, name string, r io.Reader) error {
	if name == "" || name != filepath.Base(name) || name == "." || name == ".." {
		return fmt.Errorf("invalid artifact name %q", name)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dir, "."+name+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", name, err)
	}
	if err := os.Rename(tmpPath, filepath.Join(s.dir, name)); err != nil {
		return fmt.Errorf("rename %s: %w", name, err)
	}
	return nil
}
