// Package eventstore records build history as an append-only event log in
// SQLite and projects it into per-build summaries.
package eventstore

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// Build statuses.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// BuildSummary is a read model summarizing a completed or in-progress build.
type BuildSummary struct {
	BuildID     string        `json:"build_id"`
	Status      string        `json:"status"`
	Outcome     string        `json:"outcome,omitempty"`
	StartedAt   time.Time     `json:"started_at"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
	Duration    time.Duration `json:"duration,omitempty"`
	ContentDir  string        `json:"content_dir,omitempty"`
	Documents   int           `json:"documents"`
	Pages       int           `json:"pages"`
	Skipped     []string      `json:"skipped,omitempty"`
	Warnings    int           `json:"warnings"`
	ErrorStage  string        `json:"error_stage,omitempty"`
	ErrorMsg    string        `json:"error_message,omitempty"`
}

// BuildHistoryProjection maintains an in-memory view of build history,
// reconstructed from events stored in the event store.
type BuildHistoryProjection struct {
	mu      sync.RWMutex
	store   Store
	builds  map[string]*BuildSummary
	order   []string // build ids in first-seen order
	maxSize int
}

// NewBuildHistoryProjection creates a new projection backed by the given store.
func NewBuildHistoryProjection(store Store, maxHistorySize int) *BuildHistoryProjection {
	if maxHistorySize <= 0 {
		maxHistorySize = 100
	}
	return &BuildHistoryProjection{
		store:   store,
		builds:  make(map[string]*BuildSummary),
		maxSize: maxHistorySize,
	}
}

// Rebuild reconstructs the projection from all events in the store.
func (p *BuildHistoryProjection) Rebuild(ctx context.Context) error {
	events, err := p.store.GetRange(ctx, time.Time{}, time.Now().Add(time.Hour))
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.builds = make(map[string]*BuildSummary)
	p.order = nil
	for _, event := range events {
		p.applyEventLocked(event)
	}
	return nil
}

// Apply processes a single event and updates the projection.
func (p *BuildHistoryProjection) Apply(event Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.applyEventLocked(event)
}

func (p *BuildHistoryProjection) applyEventLocked(event Event) {
	buildID := event.BuildID()
	if buildID == "" {
		return
	}

	summary, exists := p.builds[buildID]
	if !exists {
		summary = &BuildSummary{BuildID: buildID, Status: StatusRunning, StartedAt: event.Timestamp()}
		p.builds[buildID] = summary
		p.order = append(p.order, buildID)
	}

	switch event.Type() {
	case TypeBuildStarted:
		summary.StartedAt = event.Timestamp()
		summary.Status = StatusRunning
		var payload BuildStartedMeta
		if err := json.Unmarshal(event.Payload(), &payload); err == nil {
			summary.ContentDir = payload.ContentDir
		}

	case TypeDocumentSkipped:
		var payload struct {
			Path string `json:"path"`
		}
		if err := json.Unmarshal(event.Payload(), &payload); err == nil {
			summary.Skipped = append(summary.Skipped, payload.Path)
		}

	case TypeBuildCompleted:
		summary.finish(event.Timestamp(), StatusCompleted)
		var payload struct {
			Outcome    string `json:"outcome"`
			Documents  int    `json:"documents"`
			Pages      int    `json:"pages"`
			Warnings   int    `json:"warnings"`
			DurationMS int64  `json:"duration_ms"`
		}
		if err := json.Unmarshal(event.Payload(), &payload); err == nil {
			summary.Outcome = payload.Outcome
			summary.Documents = payload.Documents
			summary.Pages = payload.Pages
			summary.Warnings = payload.Warnings
			summary.Duration = time.Duration(payload.DurationMS) * time.Millisecond
		}

	case TypeBuildFailed:
		summary.finish(event.Timestamp(), StatusFailed)
		summary.Outcome = StatusFailed
		var payload struct {
			Stage      string `json:"stage"`
			Error      string `json:"error"`
			DurationMS int64  `json:"duration_ms"`
		}
		if err := json.Unmarshal(event.Payload(), &payload); err == nil {
			summary.ErrorStage = payload.Stage
			summary.ErrorMsg = payload.Error
			summary.Duration = time.Duration(payload.DurationMS) * time.Millisecond
		}
	}
}

func (s *BuildSummary) finish(at time.Time, status string) {
	s.CompletedAt = &at
	s.Status = status
}

// History returns up to limit builds, most recently started first. A limit of 0 or less
// uses the projection's maximum size.
func (p *BuildHistoryProjection) History(limit int) []*BuildSummary {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if limit <= 0 || limit > p.maxSize {
		limit = p.maxSize
	}
	out := make([]*BuildSummary, 0, min(limit, len(p.order)))
	for i := len(p.order) - 1; i >= 0 && len(out) < limit; i-- {
		cp := *p.builds[p.order[i]]
		out = append(out, &cp)
	}
	return out
}

// GetBuild returns the summary for a specific build.
func (p *BuildHistoryProjection) GetBuild(buildID string) (*BuildSummary, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	summary, exists := p.builds[buildID]
	if !exists {
		return nil, false
	}
	cp := *summary
	return &cp, true
}
