package ytdlp

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/cwygoda/grabber/internal/adapter/process"
)

// SelfUpdater is the part of Tool the Updater needs.
type SelfUpdater interface {
	Update(ctx context.Context) (process.Result, error)
}

// Updater refreshes yt-dlp at most once per UTC calendar day.
// It is not safe for concurrent use.
type Updater struct {
	tool        SelfUpdater
	logger      *slog.Logger
	now         func() time.Time
	lastAttempt time.Time
}

// NewUpdater creates an Updater that has never run.
func NewUpdater(tool SelfUpdater, logger *slog.Logger) *Updater {
	return &Updater{tool: tool, logger: logger, now: time.Now}
}

// LastAttempt returns when the last update was attempted, zero if never.
func (u *Updater) LastAttempt() time.Time { return u.lastAttempt }

// Due reports whether an update should run now.
func (u *Updater) Due() bool {
	if u.lastAttempt.IsZero() {
		return true
	}
	return utcDate(u.lastAttempt).Before(utcDate(u.now()))
}

// MaybeUpdate runs the self-update when due and reports whether it ran.
// The attempt is recorded whatever the outcome, so a broken update is not
// retried until the next day. Failures are logged, never returned.
func (u *Updater) MaybeUpdate(ctx context.Context) bool {
	if !u.Due() {
		return false
	}

	u.logger.Info("updating yt-dlp binary")
	res, err := u.tool.Update(ctx)
	u.lastAttempt = u.now()

	if err != nil {
		u.logger.Warn("yt-dlp update could not run", "error", err)
		return true
	}
	if out := strings.TrimSpace(res.Stdout); out != "" {
		u.logger.Info(out)
	}
	if errOut := strings.TrimSpace(res.Stderr); errOut != "" {
		u.logger.Info(errOut)
	}
	if !res.Success {
		u.logger.Warn("yt-dlp update exited non-zero", "exit_code", res.ExitCode)
	}
	return true
}

func utcDate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
