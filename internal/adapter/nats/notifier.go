package nats

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/deepscout/deepscout/internal/port/messagequeue"
	"github.com/deepscout/deepscout/internal/port/notifier"
)

// Notifier mirrors task events onto the JetStream stream, one subject
// per task and event type.
type Notifier struct {
	queue messagequeue.Queue
}

var _ notifier.Notifier = (*Notifier)(nil)

// NewNotifier creates a queue-backed notifier.
func NewNotifier(queue messagequeue.Queue) *Notifier {
	return &Notifier{queue: queue}
}

// Publish marshals the payload and publishes it to the task's event
// subject. Failures are logged, never surfaced; delivery is best-effort
// and must not interrupt the research pipeline.
func (n *Notifier) Publish(ctx context.Context, taskID, event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("marshal task event", "event", event, "task_id", taskID, "error", err)
		return
	}

	subject := messagequeue.TaskEventSubject(taskID, event)
	if err := n.queue.Publish(ctx, subject, data); err != nil {
		slog.Warn("publish task event failed", "subject", subject, "error", err)
	}
}
