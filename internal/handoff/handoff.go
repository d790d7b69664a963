// Package handoff moves downloaded artifacts from local disk into an
// ArtifactStore.
package handoff

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"

	"github.com/cwygoda/grabber/internal/domain"
)

// Report summarises one Transfer call.
type Report struct {
	Saved    []string
	Failed   []string
	Leftover []string
}

// Handoff saves files to an artifact store and always removes the local copy.
type Handoff struct {
	store  domain.ArtifactStore
	logger *slog.Logger
}

// New creates a Handoff writing to store.
func New(store domain.ArtifactStore, logger *slog.Logger) *Handoff {
	return &Handoff{store: store, logger: logger}
}

// Transfer reads each file, saves it under its base name and deletes it
// locally whether or not the save succeeded. Files are independent: a failure
// on one does not stop the rest. A failed save loses the file.
func (h *Handoff) Transfer(ctx context.Context, paths []string) Report {
	var report Report
	for _, path := range paths {
		saved := h.transferOne(ctx, path)
		if saved {
			report.Saved = append(report.Saved, path)
		} else {
			report.Failed = append(report.Failed, path)
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			h.logger.Error("failed to delete local file", "file", path, "error", err)
			report.Leftover = append(report.Leftover, path)
			continue
		}
		h.logger.Info("deleted local file", "file", path)
	}
	return report
}

func (h *Handoff) transferOne(ctx context.Context, path string) bool {
	name := filepath.Base(path)
	h.logger.Info("transferring artifact", "file", path)

	data, err := os.ReadFile(path)
	if err != nil {
		h.logger.Error("failed to read artifact", "file", path, "error", err)
		return false
	}

	if err := h.store.Save(ctx, name, bytes.NewReader(data)); err != nil {
		h.logger.Error("failed to transfer artifact to storage", "file", path, "name", name, "error", err)
		return false
	}

	h.logger.Info("artifact stored", "name", name, "size", humanize.Bytes(uint64(len(data))))
	return true
}
