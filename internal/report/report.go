// Package report is the write-only reporting side of the harness: structured
// summaries of a run plus named JSON attachments (request and response
// bodies) captured while scenarios execute.
//
// Attachments fan out to every configured sink. A sink failure is logged
// and ignored — losing an artifact must never change a test outcome.
package report

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// ScenarioResult is the reported outcome of one scenario.
type ScenarioResult struct {
	Name       string   `json:"name"`
	Status     string   `json:"status"` // "passed" | "failed" | "skipped"
	Reason     string   `json:"reason,omitempty"`
	Violations []string `json:"violations,omitempty"`
	Duration   string   `json:"duration"`
}

// RunSummary is the reported outcome of a whole run.
type RunSummary struct {
	RunID     string           `json:"run_id"`
	StartedAt time.Time        `json:"started_at"`
	Duration  string           `json:"duration"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Skipped   int              `json:"skipped"`
	Cleanup   CleanupSummary   `json:"cleanup"`
	Scenarios []ScenarioResult `json:"scenarios"`
}

// CleanupSummary mirrors the fixture flush stats into the report.
type CleanupSummary struct {
	Attempted int `json:"attempted"`
	Deleted   int `json:"deleted"`
	Failed    int `json:"failed"`
}

// Sink stores one named artifact. Implementations: DiskSink, S3Sink.
type Sink interface {
	Put(path string, content []byte) error
}

// Reporter fans attachments and summaries out to the configured sinks.
type Reporter struct {
	runID   string
	sinks   []Sink
	archive *MongoArchive
	log     *slog.Logger
}

// NewReporter creates a Reporter for runID. archive may be nil.
func NewReporter(runID string, log *slog.Logger, archive *MongoArchive, sinks ...Sink) *Reporter {
	if log == nil {
		log = slog.Default()
	}
	return &Reporter{runID: runID, sinks: sinks, archive: archive, log: log}
}

// Attach stores a named JSON blob under the current run and scenario, e.g.
// the response body that failed a contract check.
func (r *Reporter) Attach(scenario, name string, blob []byte) {
	path := filepath.Join(r.runID, scenario, name+".json")
	for _, sink := range r.sinks {
		if err := sink.Put(path, blob); err != nil {
			r.log.Warn("report: attachment dropped", "path", path, "error", err)
		}
	}
}

// AttachValue marshals v and attaches it.
func (r *Reporter) AttachValue(scenario, name string, v interface{}) {
	blob, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		r.log.Warn("report: attachment marshal failed", "name", name, "error", err)
		return
	}
	r.Attach(scenario, name, blob)
}

// Finish writes the run summary to every sink and the Mongo archive.
func (r *Reporter) Finish(sum RunSummary) {
	blob, err := json.MarshalIndent(sum, "", "  ")
	if err != nil {
		r.log.Error("report: summary marshal failed", "error", err)
		return
	}

	path := filepath.Join(r.runID, "summary.json")
	for _, sink := range r.sinks {
		if err := sink.Put(path, blob); err != nil {
			r.log.Warn("report: summary dropped", "path", path, "error", err)
		}
	}

	if r.archive != nil {
		if err := r.archive.Store(sum); err != nil {
			r.log.Warn("report: archive store failed", "error", err)
		}
	}
}

// ─── DiskSink ─────────────────────────────────────────────────────────────────

// DiskSink writes artifacts under a local directory, typically collected by
// the CI system after the run.
type DiskSink struct {
	root string
}

// NewDiskSink creates a DiskSink rooted at dir.
func NewDiskSink(dir string) (*DiskSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("report: create artifact dir %q: %w", dir, err)
	}
	return &DiskSink{root: dir}, nil
}

func (d *DiskSink) Put(path string, content []byte) error {
	full := filepath.Join(d.root, path)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("report: mkdir: %w", err)
	}
	if err := os.WriteFile(full, content, 0o644); err != nil {
		return fmt.Errorf("report: write %s: %w", path, err)
	}
	return nil
}
