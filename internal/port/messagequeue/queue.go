// Package messagequeue defines the message bus port and subject layout.
package messagequeue

import "context"

// Subjects for research task events. Per-task events use
// TaskEventSubject so consumers can filter on one task id.
const (
	SubjectTaskSubmitted = "research.task.submitted"
	SubjectTaskPrefix    = "research.task."
)

// TaskEventSubject builds the subject for a live event of one task,
// e.g. "research.task.<id>.thought".
func TaskEventSubject(taskID, event string) string {
	return SubjectTaskPrefix + taskID + "." + event
}

// Handler processes one message. Returning an error triggers redelivery.
type Handler func(subject string, data []byte) error

// Queue is the port interface for the message bus.
type Queue interface {
	Publish(ctx context.Context, subject string, data []byte) error
	Subscribe(ctx context.Context, subject string, handler Handler) (func(), error)
	Close() error
}
