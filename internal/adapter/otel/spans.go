package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "deepscout"

// StartTaskSpan starts the root span for a research task.
func StartTaskSpan(ctx context.Context, taskID, query string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "research.task",
		trace.WithAttributes(
			attribute.String("task.id", taskID),
			attribute.String("task.query", query),
		),
	)
}

// StartDecomposeSpan starts a span for query decomposition.
func StartDecomposeSpan(ctx context.Context, taskID string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "research.decompose",
		trace.WithAttributes(attribute.String("task.id", taskID)),
	)
}

// StartSubQuestionSpan starts a span covering one sub-question's
// search, extraction and summarization.
func StartSubQuestionSpan(ctx context.Context, taskID string, index int, question string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "research.subquestion",
		trace.WithAttributes(
			attribute.String("task.id", taskID),
			attribute.Int("subquestion.index", index),
			attribute.String("subquestion.text", question),
		),
	)
}

// StartSynthesizeSpan starts a span for report synthesis.
func StartSynthesizeSpan(ctx context.Context, taskID string, findings int) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "research.synthesize",
		trace.WithAttributes(
			attribute.String("task.id", taskID),
			attribute.Int("findings.count", findings),
		),
	)
}
