package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/cwygoda/grabber/internal/domain"
)

func writeTestConfig(t *testing.T) string {
	t.Helper()
	base := t.TempDir()
	path := filepath.Join(base, "config.toml")
	content := fmt.Sprintf(`work_dir = %q

[http]
port = 0

[store]
driver = "sqlite"
sqlite_path = %q

[artifacts]
backend = "filesystem"
dir = %q

[log]
level = "error"
format = "json"
`, filepath.Join(base, "work"), filepath.Join(base, "jobs.db"), filepath.Join(base, "videos"))

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestSubmitAndListJobs(t *testing.T) {
	configPath := writeTestConfig(t)

	out, err := execute(t, "--config", configPath, "submit", "https://example.com/v")
	if err != nil {
		t.Fatalf("submit error = %v", err)
	}
	id := strings.TrimSpace(out)
	if _, err := uuid.Parse(id); err != nil {
		t.Fatalf("submit printed %q, want a job ID", out)
	}

	out, err = execute(t, "--config", configPath, "jobs")
	if err != nil {
		t.Fatalf("jobs error = %v", err)
	}
	for _, want := range []string{id, "pending", "https://example.com/v"} {
		if !strings.Contains(out, want) {
			t.Errorf("jobs output missing %q:\n%s", want, out)
		}
	}
}

func TestSubmitRejectsInvalidURL(t *testing.T) {
	configPath := writeTestConfig(t)

	_, err := execute(t, "--config", configPath, "submit", "not a url")
	if err == nil {
		t.Fatal("submit error = nil, want invalid URL error")
	}
	if !strings.Contains(err.Error(), domain.ErrInvalidURL.Error()) {
		t.Errorf("submit error = %v, want %v", err, domain.ErrInvalidURL)
	}
}

func TestJobsEmpty(t *testing.T) {
	configPath := writeTestConfig(t)

	out, err := execute(t, "--config", configPath, "jobs")
	if err != nil {
		t.Fatalf("jobs error = %v", err)
	}
	if strings.TrimSpace(out) != "No jobs" {
		t.Errorf("jobs output = %q, want %q", out, "No jobs")
	}
}

func TestMissingConfigFile(t *testing.T) {
	_, err := execute(t, "--config", filepath.Join(t.TempDir(), "missing.toml"), "jobs")
	if err == nil {
		t.Fatal("expected error for missing explicit config")
	}
}

func TestAcquireWorkDirLock(t *testing.T) {
	dir := t.TempDir()

	lock, err := acquireWorkDirLock(dir)
	if err != nil {
		t.Fatalf("first lock error = %v", err)
	}
	defer lock.Unlock()

	if _, err := os.Stat(filepath.Join(dir, lockFileName)); err != nil {
		t.Errorf("lock file not created: %v", err)
	}

	if _, err := acquireWorkDirLock(dir); err == nil {
		t.Error("second lock error = nil, want already in use")
	}

	lock.Unlock()
	again, err := acquireWorkDirLock(dir)
	if err != nil {
		t.Fatalf("lock after unlock error = %v", err)
	}
	again.Unlock()
}

func TestRenderJobsTable(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	done := now.Add(-time.Minute)
	msg := "boom"
	jobs := []domain.Job{
		{ID: uuid.New(), URL: "https://a.example", RequestedAt: now.Add(-2 * time.Hour)},
		{ID: uuid.New(), URL: "https://b.example", RequestedAt: now.Add(-time.Hour), StartedAt: &done, CompletedAt: &done, Error: &msg},
	}

	out := renderJobsTable(jobs, now)
	for _, want := range []string{"ID", "pending", "failed", "boom", "https://a.example", "2 hours ago"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
}
