// Package taskstore defines the pluggable registry port for research tasks.
package taskstore

import (
	"context"

	"github.com/deepscout/deepscout/internal/domain/research"
)

// Store is the task registry. Implementations must support concurrent
// Create and Snapshot without corruption, and must apply each mutator
// under the same exclusion used by Snapshot so that the thoughts and
// progress observed by readers form a consistent prefix of what the
// owning orchestrator has emitted.
//
// Mutators return domain.ErrNotFound (wrapped) for unknown ids.
type Store interface {
	// Create registers a new task. The store owns its copy afterwards.
	Create(ctx context.Context, t *research.Task) error

	// Snapshot returns a point-in-time copy of the task's state.
	Snapshot(ctx context.Context, id string) (research.Snapshot, error)

	// List returns snapshots of every registered task.
	List(ctx context.Context) ([]research.Snapshot, error)

	// AppendThought appends one narrative line to the task's thought log.
	AppendThought(ctx context.Context, id, thought string) error

	// SetProgress updates the task's progress percentage.
	SetProgress(ctx context.Context, id string, progress int) error

	// SetStatus transitions the task's lifecycle state.
	SetStatus(ctx context.Context, id string, status research.Status) error

	// SetReport stores the final report text.
	SetReport(ctx context.Context, id, report string) error
}
