package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/deepscout/deepscout/internal/domain"
	"github.com/deepscout/deepscout/internal/domain/research"
	"github.com/deepscout/deepscout/internal/port/messagequeue"
	"github.com/deepscout/deepscout/internal/port/taskstore"
)

// Research is the task lifecycle service: it accepts research queries,
// registers tasks, and launches the pipeline in the background. Submit
// returns as soon as the task is registered; all progress flows through
// the store and the notifier.
type Research struct {
	store taskstore.Store
	orch  *Orchestrator
	queue messagequeue.Queue
	sem   *semaphore.Weighted
}

// NewResearch creates the service. queue may be nil to skip mirroring
// submissions onto the message queue. maxConcurrent caps how many
// pipelines run at once; submissions beyond the cap queue up.
func NewResearch(store taskstore.Store, orch *Orchestrator, queue messagequeue.Queue, maxConcurrent int64) *Research {
	if maxConcurrent <= 0 {
		maxConcurrent = 4
	}
	return &Research{
		store: store,
		orch:  orch,
		queue: queue,
		sem:   semaphore.NewWeighted(maxConcurrent),
	}
}

// submittedMessage is the queue payload announcing a new task.
type submittedMessage struct {
	TaskID string `json:"task_id"`
	Query  string `json:"query"`
}

// Submit validates the query, registers a new task and starts the
// pipeline on a background goroutine. It returns the task id
// immediately; callers observe progress via Status and the notifier.
func (s *Research) Submit(ctx context.Context, req research.SubmitRequest) (string, error) {
	if err := req.Validate(); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	taskID := uuid.NewString()
	task := research.NewTask(taskID, req.Query)

	if err := s.store.Create(ctx, task); err != nil {
		return "", fmt.Errorf("register task: %w", err)
	}

	if s.queue != nil {
		data, _ := json.Marshal(submittedMessage{TaskID: taskID, Query: req.Query})
		if err := s.queue.Publish(ctx, messagequeue.SubjectTaskSubmitted, data); err != nil {
			slog.Warn("publish task submitted failed", "task_id", taskID, "error", err)
		}
	}

	slog.Info("research task submitted", "task_id", taskID, "query", req.Query)

	// Detach from the request context: the pipeline outlives the
	// submitting request.
	go func() {
		bg := context.Background()
		if err := s.sem.Acquire(bg, 1); err != nil {
			return
		}
		defer s.sem.Release(1)
		s.orch.Run(bg, taskID, req.Query)
	}()

	return taskID, nil
}

// Status returns a point-in-time snapshot of the task.
func (s *Research) Status(ctx context.Context, taskID string) (research.Snapshot, error) {
	return s.store.Snapshot(ctx, taskID)
}

// List returns snapshots of all known tasks.
func (s *Research) List(ctx context.Context) ([]research.Snapshot, error) {
	return s.store.List(ctx)
}

// DownloadReport returns the completed report text. It fails with
// domain.ErrNotFound for unknown tasks and domain.ErrUnavailable while
// the task has not produced a report.
func (s *Research) DownloadReport(ctx context.Context, taskID string) (string, error) {
	snap, err := s.store.Snapshot(ctx, taskID)
	if err != nil {
		return "", err
	}
	if snap.Status != research.StatusCompleted || snap.Report == "" {
		return "", fmt.Errorf("report for task %s: %w", taskID, domain.ErrUnavailable)
	}
	return snap.Report, nil
}

// ReportFilename is the attachment name for a task's downloaded report.
func ReportFilename(taskID string) string {
	short := taskID
	if len(short) > 8 {
		short = short[:8]
	}
	return fmt.Sprintf("research_report_%s.txt", short)
}
