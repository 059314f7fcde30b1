package otel

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "deepscout"

// Metrics holds the pipeline's metric instruments.
type Metrics struct {
	TasksStarted   metric.Int64Counter
	TasksCompleted metric.Int64Counter
	TasksFailed    metric.Int64Counter
	LLMCalls       metric.Int64Counter
	TaskDuration   metric.Float64Histogram
}

// NewMetrics creates all metric instruments.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	m.TasksStarted, err = meter.Int64Counter("deepscout.tasks.started",
		metric.WithDescription("Number of research tasks started"))
	if err != nil {
		return nil, err
	}

	m.TasksCompleted, err = meter.Int64Counter("deepscout.tasks.completed",
		metric.WithDescription("Number of research tasks completed"))
	if err != nil {
		return nil, err
	}

	m.TasksFailed, err = meter.Int64Counter("deepscout.tasks.failed",
		metric.WithDescription("Number of research tasks that ended in error"))
	if err != nil {
		return nil, err
	}

	m.LLMCalls, err = meter.Int64Counter("deepscout.llm.calls",
		metric.WithDescription("Number of text generation calls"))
	if err != nil {
		return nil, err
	}

	m.TaskDuration, err = meter.Float64Histogram("deepscout.task.duration_seconds",
		metric.WithDescription("Research task duration in seconds"))
	if err != nil {
		return nil, err
	}

	return m, nil
}
