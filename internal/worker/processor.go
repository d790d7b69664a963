package worker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cwygoda/grabber/internal/adapter/process"
	"github.com/cwygoda/grabber/internal/domain"
	"github.com/cwygoda/grabber/internal/handoff"
	"github.com/cwygoda/grabber/internal/snapshot"
)

// ToolFailedMessage is recorded on a job when yt-dlp exits non-zero.
const ToolFailedMessage = "YT-DLP returned with a failed result but no exception."

// Downloader runs the download tool for one URL.
type Downloader interface {
	Download(ctx context.Context, url string) (process.Result, error)
}

// Transferrer hands discovered files off to durable storage.
type Transferrer interface {
	Transfer(ctx context.Context, paths []string) handoff.Report
}

// OutcomeKind classifies a download attempt.
type OutcomeKind int

const (
	// OutcomeSucceeded means the tool ran and exited zero.
	OutcomeSucceeded OutcomeKind = iota
	// OutcomeToolFailed means the tool ran and exited non-zero.
	OutcomeToolFailed
	// OutcomeLaunchFailed means the tool could not be run to completion.
	OutcomeLaunchFailed
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSucceeded:
		return "succeeded"
	case OutcomeToolFailed:
		return "tool_failed"
	case OutcomeLaunchFailed:
		return "launch_failed"
	default:
		return fmt.Sprintf("OutcomeKind(%d)", int(k))
	}
}

// Outcome is the classified result of one download attempt. Message is the
// error text recorded on the job and is empty on success.
type Outcome struct {
	Kind    OutcomeKind
	Message string
	Result  process.Result
}

// Classify maps a runner result and error to an Outcome.
func Classify(res process.Result, err error) Outcome {
	switch {
	case err != nil:
		return Outcome{Kind: OutcomeLaunchFailed, Message: err.Error(), Result: res}
	case !res.Success:
		return Outcome{Kind: OutcomeToolFailed, Message: ToolFailedMessage, Result: res}
	default:
		return Outcome{Kind: OutcomeSucceeded, Result: res}
	}
}

// Processor drives a single job from claimed to a terminal state.
type Processor struct {
	store   domain.JobStore
	tool    Downloader
	handoff Transferrer
	logger  *slog.Logger
}

// NewProcessor creates a Processor.
func NewProcessor(store domain.JobStore, tool Downloader, handoff Transferrer, logger *slog.Logger) *Processor {
	return &Processor{store: store, tool: tool, handoff: handoff, logger: logger}
}

// Process marks the job started, downloads it, hands any new files in the
// baseline's directory to storage and records exactly one completion.
//
// Job-local failures are recorded on the job and not returned. The returned
// error is always a job store failure, which the caller treats as fatal.
// The job runs detached from ctx's cancellation so a shutdown never leaves
// it half recorded.
func (p *Processor) Process(ctx context.Context, job *domain.Job, baseline snapshot.Snapshot) (Outcome, error) {
	ctx = context.WithoutCancel(ctx)
	log := p.logger.With("job_id", job.ID.String(), "url", job.URL)

	if err := p.store.MarkStarted(ctx, job.ID); err != nil {
		return Outcome{}, fmt.Errorf("mark job %s started: %w", job.ID, err)
	}

	log.Info("booting yt-dlp")
	res, err := p.tool.Download(ctx, job.URL)
	outcome := Classify(res, err)

	if outcome.Kind != OutcomeSucceeded {
		log.Warn("download failed",
			"outcome", outcome.Kind.String(),
			"error", outcome.Message,
			"exit_code", res.ExitCode,
			"output", res.Output(),
		)
		if err := p.store.MarkCompletedError(ctx, job.ID, outcome.Message); err != nil {
			return outcome, fmt.Errorf("mark job %s failed: %w", job.ID, err)
		}
		return outcome, nil
	}

	log.Info("download finished", "duration", res.Duration)
	log.Debug("yt-dlp output", "output", res.Output())
	p.collectArtifacts(ctx, baseline, log)

	if err := p.store.MarkCompletedSuccess(ctx, job.ID); err != nil {
		return outcome, fmt.Errorf("mark job %s completed: %w", job.ID, err)
	}
	log.Info("job completed")
	return outcome, nil
}

// collectArtifacts never fails the job: a listing or storage error is logged
// and the job is still recorded as successful.
func (p *Processor) collectArtifacts(ctx context.Context, baseline snapshot.Snapshot, log *slog.Logger) {
	current, err := snapshot.Take(baseline.Dir())
	if err != nil {
		log.Error("failed to list work directory", "dir", baseline.Dir(), "error", err)
		return
	}

	files := snapshot.Diff(baseline, current)
	if len(files) == 0 {
		log.Warn("download produced no new files", "dir", baseline.Dir())
		return
	}

	report := p.handoff.Transfer(ctx, files)
	log.Info("artifact handoff finished",
		"saved", len(report.Saved),
		"failed", len(report.Failed),
		"leftover", len(report.Leftover),
	)
}
