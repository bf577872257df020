// Package report turns a finished run into a machine-readable JSON
// document written next to the downloaded files.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bytedance/sonic"

	"github.com/schrebra/storeappx/internal/batch"
	"github.com/schrebra/storeappx/internal/shared/id"
)

// FileRecord is one finished file, successful or not.
type FileRecord struct {
	Target string `json:"target"`
	File   string `json:"file"`
	Path   string `json:"path"`
	Bytes  int64  `json:"bytes,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Report is the serialized outcome of one run.
type Report struct {
	RunID            string       `json:"run_id"`
	StartedAt        time.Time    `json:"started_at"`
	FinishedAt       time.Time    `json:"finished_at"`
	DurationSeconds  float64      `json:"duration_seconds"`
	State            string       `json:"state"`
	NoWorkNeeded     bool         `json:"no_work_needed"`
	PartialFailure   bool         `json:"partial_failure"`
	Architecture     string       `json:"architecture"`
	Destination      string       `json:"destination"`
	TargetsAttempted int          `json:"targets_attempted"`
	TargetsWithWork  int          `json:"targets_with_work"`
	FilesDownloaded  int          `json:"files_downloaded"`
	FilesSkipped     int          `json:"files_skipped"`
	Files            []FileRecord `json:"files,omitempty"`
	Errors           []string     `json:"errors,omitempty"`
}

// Builder accumulates per-file events while a run streams them, then
// folds in the final result.
type Builder struct {
	report Report
}

func NewBuilder(runID, architecture, destination string, started time.Time) *Builder {
	return &Builder{report: Report{
		RunID:        runID,
		StartedAt:    started,
		Architecture: architecture,
		Destination:  destination,
	}}
}

// Observe records a progress event. Only file events carry report data;
// status events are ignored.
func (b *Builder) Observe(ev batch.ProgressEvent) {
	if ev.Kind != batch.EventFileProgress {
		return
	}
	b.report.Files = append(b.report.Files, FileRecord{
		Target: ev.Target,
		File:   ev.File,
		Path:   ev.Path,
		Bytes:  ev.Bytes,
		Error:  ev.Error,
	})
}

// Finalize folds the terminal result into the report.
func (b *Builder) Finalize(res batch.Result) Report {
	b.report.FinishedAt = b.report.StartedAt.Add(res.Duration)
	b.report.DurationSeconds = res.Duration.Seconds()
	b.report.State = string(res.State)
	b.report.NoWorkNeeded = res.NoWorkNeeded()
	b.report.PartialFailure = res.Partial()
	b.report.TargetsAttempted = res.TargetsAttempted
	b.report.TargetsWithWork = res.TargetsWithWork
	b.report.FilesDownloaded = res.FilesDownloaded
	b.report.FilesSkipped = res.FilesSkipped
	for _, terr := range res.Errors {
		b.report.Errors = append(b.report.Errors, terr.Error())
	}
	return b.report
}

// DefaultPath is where a run's report lands when no explicit path is
// given.
func DefaultPath(destination, runID string) string {
	return filepath.Join(destination, fmt.Sprintf("storeappx-run-%s.json", id.Short(runID)))
}

// Write serializes rep to path.
func Write(path string, rep Report) error {
	data, err := sonic.ConfigDefault.MarshalIndent(rep, "", "  ")
	if err != nil {
		return fmt.Errorf("cannot encode run report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("cannot write run report: %w", err)
	}
	return nil
}
