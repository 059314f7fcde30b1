// Package memstore implements the task registry port in process memory.
// Retention is unbounded for the process lifetime; eviction is a future
// concern behind the taskstore.Store port.
package memstore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/deepscout/deepscout/internal/domain"
	"github.com/deepscout/deepscout/internal/domain/research"
	"github.com/deepscout/deepscout/internal/port/taskstore"
)

// entry pairs a task with its own lock. Mutators and Snapshot share the
// entry lock, which gives readers a consistent prefix of the thought log
// without serializing unrelated tasks against each other.
type entry struct {
	mu   sync.RWMutex
	task *research.Task
}

// Store is an in-memory taskstore.Store.
type Store struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

var _ taskstore.Store = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{entries: make(map[string]*entry)}
}

// Create registers a new task.
func (s *Store) Create(_ context.Context, t *research.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[t.ID]; exists {
		return fmt.Errorf("create task %s: already registered", t.ID)
	}
	s.entries[t.ID] = &entry{task: t}
	return nil
}

// Snapshot returns a point-in-time copy of the task's state.
func (s *Store) Snapshot(_ context.Context, id string) (research.Snapshot, error) {
	e, err := s.lookup(id)
	if err != nil {
		return research.Snapshot{}, err
	}

	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.task.Snapshot(), nil
}

// List returns snapshots of every registered task.
func (s *Store) List(_ context.Context) ([]research.Snapshot, error) {
	s.mu.RLock()
	entries := make([]*entry, 0, len(s.entries))
	for _, e := range s.entries {
		entries = append(entries, e)
	}
	s.mu.RUnlock()

	snaps := make([]research.Snapshot, 0, len(entries))
	for _, e := range entries {
		e.mu.RLock()
		snaps = append(snaps, e.task.Snapshot())
		e.mu.RUnlock()
	}
	return snaps, nil
}

// AppendThought appends one narrative line to the task's thought log.
func (s *Store) AppendThought(_ context.Context, id, thought string) error {
	return s.update(id, func(t *research.Task) {
		t.Thoughts = append(t.Thoughts, thought)
	})
}

// SetProgress updates the task's progress percentage.
func (s *Store) SetProgress(_ context.Context, id string, progress int) error {
	return s.update(id, func(t *research.Task) {
		t.Progress = progress
	})
}

// SetStatus transitions the task's lifecycle state.
func (s *Store) SetStatus(_ context.Context, id string, status research.Status) error {
	return s.update(id, func(t *research.Task) {
		t.Status = status
	})
}

// SetReport stores the final report text.
func (s *Store) SetReport(_ context.Context, id, report string) error {
	return s.update(id, func(t *research.Task) {
		t.Report = report
	})
}

func (s *Store) lookup(id string) (*entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[id]
	if !ok {
		return nil, fmt.Errorf("task %s: %w", id, domain.ErrNotFound)
	}
	return e, nil
}

func (s *Store) update(id string, fn func(*research.Task)) error {
	e, err := s.lookup(id)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	fn(e.task)
	e.task.UpdatedAt = time.Now().UTC()
	return nil
}
