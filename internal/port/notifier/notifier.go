// Package notifier defines the port for publishing live task events to
// subscribers. It decouples the orchestrator from the transport.
package notifier

import "context"

// Event names published per task. Names are the wire contract.
const (
	EventThought        = "thought"
	EventProgress       = "progress"
	EventReportComplete = "report_complete"
	EventError          = "error"
)

// ThoughtEvent is published for every reasoning-narrative line.
type ThoughtEvent struct {
	Thought string `json:"thought"`
	TaskID  string `json:"task_id"`
}

// ProgressEvent is published whenever task progress advances.
type ProgressEvent struct {
	Progress int    `json:"progress"`
	TaskID   string `json:"task_id"`
}

// ReportCompleteEvent is published once, when the final report is ready.
type ReportCompleteEvent struct {
	TaskID string `json:"task_id"`
	Report string `json:"report"`
}

// ErrorEvent is published when a task fails outside all stage handlers.
type ErrorEvent struct {
	TaskID string `json:"task_id"`
	Error  string `json:"error"`
}

// Notifier publishes one event for one task. Implementations must not
// block task execution on slow subscribers and must not return errors to
// the orchestrator; delivery is best-effort.
type Notifier interface {
	Publish(ctx context.Context, taskID, event string, payload any)
}

// Multi fans one event out to several notifiers in order.
type Multi []Notifier

// Publish delivers the event to every wrapped notifier.
func (m Multi) Publish(ctx context.Context, taskID, event string, payload any) {
	for _, n := range m {
		n.Publish(ctx, taskID, event, payload)
	}
}

// Noop discards all events. Useful in tests.
type Noop struct{}

// Publish discards the event.
func (Noop) Publish(context.Context, string, string, any) {}
