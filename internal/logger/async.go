package logger

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
)

// Closer flushes and stops a handler that buffers records.
type Closer interface {
	Close()
}

// nopCloser is returned in synchronous mode.
type nopCloser struct{}

func (nopCloser) Close() {}

// asyncState is the buffering machinery shared across derived handlers.
// WithAttrs and WithGroup wrap a new inner handler but must keep
// feeding the same channel, otherwise Close would only drain one of
// the copies.
type asyncState struct {
	ch      chan slog.Record
	wg      sync.WaitGroup
	dropped atomic.Int64
}

// AsyncHandler decouples log emission from the inner handler by
// queueing records onto a bounded channel. When the channel is full
// the record is dropped rather than blocking the caller.
type AsyncHandler struct {
	inner slog.Handler
	st    *asyncState
}

// NewAsyncHandler starts workers goroutines draining a channel of the
// given capacity into inner.
func NewAsyncHandler(inner slog.Handler, capacity, workers int) *AsyncHandler {
	st := &asyncState{ch: make(chan slog.Record, capacity)}
	h := &AsyncHandler{inner: inner, st: st}
	for range workers {
		st.wg.Add(1)
		go h.worker()
	}
	return h
}

func (h *AsyncHandler) worker() {
	defer h.st.wg.Done()
	for rec := range h.st.ch {
		_ = h.inner.Handle(context.Background(), rec)
	}
}

func (h *AsyncHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle enqueues the record, dropping it if the buffer is full.
func (h *AsyncHandler) Handle(_ context.Context, rec slog.Record) error { //nolint:gocritic // signature fixed by slog.Handler
	select {
	case h.st.ch <- rec:
	default:
		h.st.dropped.Add(1)
	}
	return nil
}

func (h *AsyncHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &AsyncHandler{inner: h.inner.WithAttrs(attrs), st: h.st}
}

func (h *AsyncHandler) WithGroup(name string) slog.Handler {
	return &AsyncHandler{inner: h.inner.WithGroup(name), st: h.st}
}

// DroppedCount reports how many records were discarded on a full buffer.
func (h *AsyncHandler) DroppedCount() int64 {
	return h.st.dropped.Load()
}

// Close stops accepting records and blocks until the workers finish.
func (h *AsyncHandler) Close() {
	close(h.st.ch)
	h.st.wg.Wait()
}
