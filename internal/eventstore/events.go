package eventstore

import (
	"encoding/json"
	"time"

	"git.home.luguber.info/inful/blogbuilder/internal/foundation/errors"
)

// Event types recorded for every build.
const (
	TypeBuildStarted    = "build.started"
	TypeDocumentSkipped = "document.skipped"
	TypeBuildCompleted  = "build.completed"
	TypeBuildFailed     = "build.failed"
)

// BuildStartedMeta describes the inputs of a build.
type BuildStartedMeta struct {
	ContentDir    string `json:"content_dir"`
	OutputDir     string `json:"output_dir"`
	IncludeDrafts bool   `json:"include_drafts"`
	Version       string `json:"version,omitempty"`
}

// BuildStarted is emitted when a build begins.
type BuildStarted struct {
	BaseEvent
	Meta BuildStartedMeta
}

// NewBuildStarted creates a BuildStarted event.
func NewBuildStarted(buildID string, meta BuildStartedMeta) (*BuildStarted, error) {
	payload, err := marshalPayload(buildID, TypeBuildStarted, meta)
	if err != nil {
		return nil, err
	}
	return &BuildStarted{BaseEvent: newBase(buildID, TypeBuildStarted, payload), Meta: meta}, nil
}

// DocumentSkipped is emitted for each source document left out of a build.
type DocumentSkipped struct {
	BaseEvent
	Path   string
	Stage  string
	Reason string
}

// NewDocumentSkipped creates a DocumentSkipped event.
func NewDocumentSkipped(buildID, path, stage, reason string) (*DocumentSkipped, error) {
	e := &DocumentSkipped{Path: path, Stage: stage, Reason: reason}
	payload, err := marshalPayload(buildID, TypeDocumentSkipped, map[string]string{
		"path":   path,
		"stage":  stage,
		"reason": reason,
	})
	if err != nil {
		return nil, err
	}
	e.BaseEvent = newBase(buildID, TypeDocumentSkipped, payload)
	return e, nil
}

// BuildCompletedMeta summarizes a successful build.
type BuildCompletedMeta struct {
	Outcome   string        `json:"outcome"`
	Duration  time.Duration `json:"-"`
	Documents int           `json:"documents"`
	Pages     int           `json:"pages"`
	Warnings  int           `json:"warnings"`
}

// MarshalJSON stores the duration in milliseconds.
func (m BuildCompletedMeta) MarshalJSON() ([]byte, error) {
	type plain BuildCompletedMeta
	return json.Marshal(struct {
		plain
		DurationMS int64 `json:"duration_ms"`
	}{plain(m), m.Duration.Milliseconds()})
}

// BuildCompleted is emitted when a build promoted its output.
type BuildCompleted struct {
	BaseEvent
	Meta BuildCompletedMeta
}

// NewBuildCompleted creates a BuildCompleted event.
func NewBuildCompleted(buildID string, meta BuildCompletedMeta) (*BuildCompleted, error) {
	payload, err := marshalPayload(buildID, TypeBuildCompleted, meta)
	if err != nil {
		return nil, err
	}
	return &BuildCompleted{BaseEvent: newBase(buildID, TypeBuildCompleted, payload), Meta: meta}, nil
}

// BuildFailed is emitted when a build aborts.
type BuildFailed struct {
	BaseEvent
	Stage    string
	Category string
	Error    string
	Duration time.Duration
}

// NewBuildFailed creates a BuildFailed event.
func NewBuildFailed(buildID, stage, category, message string, duration time.Duration) (*BuildFailed, error) {
	e := &BuildFailed{Stage: stage, Category: category, Error: message, Duration: duration}
	payload, err := marshalPayload(buildID, TypeBuildFailed, map[string]any{
		"stage":       stage,
		"category":    category,
		"error":       message,
		"duration_ms": duration.Milliseconds(),
	})
	if err != nil {
		return nil, err
	}
	e.BaseEvent = newBase(buildID, TypeBuildFailed, payload)
	return e, nil
}

func newBase(buildID, eventType string, payload []byte) BaseEvent {
	return BaseEvent{
		EventBuildID:   buildID,
		EventType:      eventType,
		EventTimestamp: time.Now().UTC(),
		EventPayload:   payload,
	}
}

func marshalPayload(buildID, eventType string, v any) ([]byte, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryHistory, "failed to marshal event payload").
			WithContext("build_id", buildID).
			WithContext("event_type", eventType).
			Build()
	}
	return payload, nil
}
