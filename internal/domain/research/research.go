// Package research defines the research task domain entities.
package research

import (
	"errors"
	"strings"
	"time"
)

// Status represents the lifecycle state of a research task.
type Status string

const (
	StatusInitialized Status = "initialized"
	StatusRunning     Status = "running"
	StatusCompleted   Status = "completed"
	StatusError       Status = "error"
)

// Terminal reports whether s is a terminal state.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusError
}

// Task is one end-to-end research request and its accumulated state.
// A task is mutated only by the orchestrator goroutine that owns it;
// everyone else reads copies through Snapshot.
type Task struct {
	ID        string    `json:"id"`
	Query     string    `json:"query"`
	Status    Status    `json:"status"`
	Thoughts  []string  `json:"thoughts"`
	Progress  int       `json:"progress"`
	Report    string    `json:"report"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewTask creates a task in the initialized state.
func NewTask(id, query string) *Task {
	now := time.Now().UTC()
	return &Task{
		ID:        id,
		Query:     query,
		Status:    StatusInitialized,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Snapshot is a point-in-time copy of a task's observable state.
type Snapshot struct {
	TaskID   string   `json:"task_id"`
	Query    string   `json:"query"`
	Status   Status   `json:"status"`
	Thoughts []string `json:"thoughts"`
	Progress int      `json:"progress"`
	Report   string   `json:"report"`
}

// Snapshot copies the task's observable state. The caller must hold
// whatever exclusion protects the task.
func (t *Task) Snapshot() Snapshot {
	thoughts := make([]string, len(t.Thoughts))
	copy(thoughts, t.Thoughts)
	return Snapshot{
		TaskID:   t.ID,
		Query:    t.Query,
		Status:   t.Status,
		Thoughts: thoughts,
		Progress: t.Progress,
		Report:   t.Report,
	}
}

// Finding is one unit of synthesized information tied to a source.
type Finding struct {
	Source  string `json:"source"`
	URL     string `json:"url"`
	Summary string `json:"summary"`
}

// SourceNotApplicable is the sentinel URL for findings without a real source.
const SourceNotApplicable = "N/A"

// SubmitRequest is the input for starting a research task.
type SubmitRequest struct {
	Query string `json:"query"`
}

// Validate checks that the request carries a non-blank query.
func (r *SubmitRequest) Validate() error {
	if strings.TrimSpace(r.Query) == "" {
		return errors.New("query is required")
	}
	return nil
}
