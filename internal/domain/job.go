package domain

import (
	"time"

	"github.com/google/uuid"
)

// JobStatus is the lifecycle state derived from a job's timestamps.
type JobStatus string

const (
	StatusPending   JobStatus = "pending"
	StatusStarted   JobStatus = "started"
	StatusCompleted JobStatus = "completed"
	StatusFailed    JobStatus = "failed"
)

// Job is a request to download one URL.
type Job struct {
	ID          uuid.UUID
	URL         string
	RequestedAt time.Time
	StartedAt   *time.Time
	CompletedAt *time.Time
	Error       *string
}

// Status derives the job state. A completed job carrying an error is failed.
func (j *Job) Status() JobStatus {
	switch {
	case j.CompletedAt != nil && j.Error != nil:
		return StatusFailed
	case j.CompletedAt != nil:
		return StatusCompleted
	case j.StartedAt != nil:
		return StatusStarted
	default:
		return StatusPending
	}
}

// Terminal reports whether the job will never be processed again.
func (j *Job) Terminal() bool {
	return j.CompletedAt != nil
}

// ErrorMessage returns the recorded error or "".
func (j *Job) ErrorMessage() string {
	if j.Error == nil {
		return ""
	}
	return *j.Error
}

// ParseJobID parses the textual form of a job ID.
func ParseJobID(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, ErrInvalidJobID
	}
	return id, nil
}
