package build

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ReportSchemaVersion is bumped when the JSON report changes incompatibly.
const ReportSchemaVersion = 1

// Outcome is the final state of a build.
type Outcome string

const (
	OutcomeSuccess  Outcome = "success"
	OutcomeWarning  Outcome = "warning"
	OutcomeFailed   Outcome = "failed"
	OutcomeCanceled Outcome = "canceled"
)

// Warning is a recoverable problem. The named source was left out of the site.
type Warning struct {
	Stage   StageName `json:"stage"`
	Source  string    `json:"source"`
	Message string    `json:"message"`
}

// Report captures what one build did.
type Report struct {
	SchemaVersion int       `json:"schema_version"`
	BuildID       string    `json:"build_id"`
	Start         time.Time `json:"start"`
	End           time.Time `json:"end"`
	Outcome       Outcome   `json:"outcome"`
	Error         string    `json:"error,omitempty"`

	Documents   int `json:"documents"`
	Published   int `json:"published"`
	Drafts      int `json:"drafts"`
	Skipped     int `json:"skipped"`
	Pages       int `json:"pages"`
	FeedItems   int `json:"feed_items"`
	LinkedFiles int `json:"linked_files"`
	StaticFiles int `json:"static_files"`

	StageDurations map[StageName]time.Duration `json:"-"`
	Warnings       []Warning                   `json:"warnings"`
	// Fingerprints maps each published source to its content fingerprint.
	Fingerprints map[string]string `json:"fingerprints"`
}

func newReport(buildID string, start time.Time) *Report {
	return &Report{
		SchemaVersion:  ReportSchemaVersion,
		BuildID:        buildID,
		Start:          start,
		StageDurations: make(map[StageName]time.Duration),
		Warnings:       []Warning{},
		Fingerprints:   make(map[string]string),
	}
}

func (r *Report) addWarning(stage StageName, source string, err error) {
	r.Warnings = append(r.Warnings, Warning{Stage: stage, Source: source, Message: err.Error()})
}

// finish stamps the end time and derives the outcome from err and warnings.
func (r *Report) finish(err error, canceled bool) {
	r.End = time.Now()
	switch {
	case canceled:
		r.Outcome = OutcomeCanceled
	case err != nil:
		r.Outcome = OutcomeFailed
	case len(r.Warnings) > 0:
		r.Outcome = OutcomeWarning
	default:
		r.Outcome = OutcomeSuccess
	}
	if err != nil {
		r.Error = err.Error()
	}
}

// Duration is the wall time of the build.
func (r *Report) Duration() time.Duration { return r.End.Sub(r.Start) }

// MarshalJSON renders stage durations in milliseconds.
func (r *Report) MarshalJSON() ([]byte, error) {
	type plain Report
	stages := make(map[string]int64, len(r.StageDurations))
	for k, v := range r.StageDurations {
		stages[string(k)] = v.Milliseconds()
	}
	return json.Marshal(struct {
		*plain
		DurationMS       int64            `json:"duration_ms"`
		StageDurationsMS map[string]int64 `json:"stage_durations_ms"`
	}{(*plain)(r), r.Duration().Milliseconds(), stages})
}

// Summary returns a one-line human readable description.
func (r *Report) Summary() string {
	stages := make([]string, 0, len(r.StageDurations))
	for _, s := range Stages {
		if d, ok := r.StageDurations[s]; ok {
			stages = append(stages, fmt.Sprintf("%s=%s", s, d.Round(time.Millisecond)))
		}
	}
	return fmt.Sprintf("outcome=%s documents=%d published=%d drafts=%d skipped=%d pages=%d feed_items=%d warnings=%d duration=%s stages[%s]",
		r.Outcome, r.Documents, r.Published, r.Drafts, r.Skipped, r.Pages, r.FeedItems, len(r.Warnings),
		r.Duration().Round(time.Millisecond), strings.Join(stages, " "))
}

// Persist writes the report as JSON into dir, replacing any previous report.
func (r *Report) Persist(dir, name string) error {
	if name == "" {
		return nil
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report json: %w", err)
	}
	path := filepath.Join(dir, name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write temp report json: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("atomic rename json: %w", err)
	}
	return nil
}
