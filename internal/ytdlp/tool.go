// Package ytdlp wraps the yt-dlp command line.
package ytdlp

import (
	"context"

	"github.com/cwygoda/grabber/internal/adapter/process"
	"github.com/cwygoda/grabber/internal/config"
)

// Runner executes a command and captures its output.
type Runner interface {
	Run(ctx context.Context, dir, name string, args ...string) (process.Result, error)
}

// Tool invokes yt-dlp in a fixed working directory.
type Tool struct {
	runner         Runner
	binary         string
	workDir        string
	format         string
	ffmpegLocation string
}

// NewTool creates a Tool from the ytdlp config section. Empty values fall
// back to the package defaults.
func NewTool(runner Runner, workDir string, cfg config.YtDlpConfig) *Tool {
	t := &Tool{
		runner:         runner,
		binary:         cfg.Binary,
		workDir:        workDir,
		format:         cfg.Format,
		ffmpegLocation: cfg.FFmpegLocation,
	}
	if t.binary == "" {
		t.binary = config.DefaultYtDlpBinary
	}
	if t.format == "" {
		t.format = config.DefaultFormat
	}
	if t.ffmpegLocation == "" {
		t.ffmpegLocation = config.DefaultFFmpegLocation
	}
	return t
}

// WorkDir returns the directory downloads are written to.
func (t *Tool) WorkDir() string { return t.workDir }

// DownloadArgs returns the arguments used to download url.
func (t *Tool) DownloadArgs(url string) []string {
	return []string{"-f", t.format, "--ffmpeg-location", t.ffmpegLocation, url}
}

// Download fetches url into the working directory.
func (t *Tool) Download(ctx context.Context, url string) (process.Result, error) {
	return t.runner.Run(ctx, t.workDir, t.binary, t.DownloadArgs(url)...)
}

// Update asks yt-dlp to replace itself with the latest release.
func (t *Tool) Update(ctx context.Context) (process.Result, error) {
	return t.runner.Run(ctx, t.workDir, t.binary, "-U")
}
