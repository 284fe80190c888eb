// Package worker drains the notification queue and fans each notification
// out to a fixed list of sinks.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/okian/handbeat/internal/domain/model"
	"github.com/okian/handbeat/pkg/logger"
	"github.com/okian/handbeat/pkg/metrics"
)

// Sentinel kinds for worker errors.
var (
	ErrShutdownTimeout = errors.New("worker shutdown timed out")
)

// Notification is what the worker reads off the queue.
type Notification = model.Notification

// Queue defines how the worker receives notifications.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Notification
}

// Sink consumes notifications. Sinks run on the worker goroutine, in order.
type Sink interface {
	Name() string
	Handle(ctx context.Context, n Notification) error
}

// Worker delivers queued notifications to its sinks.
type Worker struct {
	queue Queue
	sinks []Sink
	name  string

	shutdown chan struct{}
	stopOnce sync.Once
	done     chan struct{}

	logger logger.Logger
}

// New creates a worker with configuration options.
func New(queue Queue, sinks []Sink, opts ...Option) *Worker {
	w := &Worker{
		queue:    queue,
		sinks:    sinks,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
	}

	for _, opt := range opts {
		opt(w)
	}

	if w.logger == nil {
		w.logger = logger.Get().Named(w.name)
	}

	return w
}

// Run delivers notifications until the queue is closed and drained, ctx is
// canceled or Shutdown gives up waiting.
func (w *Worker) Run(ctx context.Context) {
	defer close(w.done)

	in := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case n, ok := <-in:
			if !ok {
				return
			}
			w.deliver(ctx, n)
		}
	}
}

// Shutdown waits for Run to drain a closed queue. If ctx ends first the
// worker is stopped and the remaining notifications are abandoned.
func (w *Worker) Shutdown(ctx context.Context) error {
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.stopOnce.Do(func() { close(w.shutdown) })
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("%w: %w", ErrShutdownTimeout, ctx.Err())
	}
}

// deliver hands n to every sink. A failing sink does not stop the others.
func (w *Worker) deliver(ctx context.Context, n Notification) { //nolint:gocritic // hugeParam: passed by value for channel semantics
	for _, s := range w.sinks {
		if err := s.Handle(ctx, n); err != nil {
			metrics.RecordSinkError(s.Name())
			metrics.RecordErrorByComponent("worker", s.Name())
			w.logger.Error(ctx, "sink failed",
				logger.String("sink", s.Name()),
				logger.Error(err),
			)
		}
	}
}

// LogSink writes judge events at debug and transitions at info.
type LogSink struct {
	logger logger.Logger
}

// NewLogSink creates a sink writing to log.
func NewLogSink(log logger.Logger) *LogSink {
	return &LogSink{logger: log}
}

// Name implements Sink.
func (s *LogSink) Name() string { return "log" }

// Handle implements Sink.
func (s *LogSink) Handle(ctx context.Context, n Notification) error { //nolint:gocritic // hugeParam
	switch n.Kind {
	case model.KindJudgement:
		e := n.Judgement
		fields := []logger.Field{
			logger.String("session", n.SessionID),
			logger.String("outcome", e.Outcome.String()),
			logger.Float64("at", e.At),
		}
		if e.Note != nil {
			fields = append(fields, logger.String("note", e.Note.Target.ID), logger.Float64("offset", e.At-e.Note.Target.ArrivalTime))
		}
		if e.Outcome == model.Hit {
			fields = append(fields, logger.String("quality", e.Quality.String()))
		}
		s.logger.Debug(ctx, "note judged", fields...)
	case model.KindTransition:
		fields := []logger.Field{
			logger.String("session", n.SessionID),
			logger.String("from", n.Transition.From.String()),
			logger.String("to", n.Transition.To.String()),
		}
		if n.Transition.Err != nil {
			fields = append(fields, logger.Error(n.Transition.Err))
		}
		if sum := n.Summary; sum != nil {
			fields = append(fields,
				logger.Int("score", sum.Score),
				logger.Int("max_combo", sum.MaxCombo),
				logger.Float64("accuracy", sum.Accuracy),
				logger.Duration("played", sum.EndedAt.Sub(sum.StartedAt).Round(time.Millisecond)),
			)
		}
		s.logger.Info(ctx, "phase changed", fields...)
	}
	return nil
}

// Saver persists finished sessions.
type Saver interface {
	Save(ctx context.Context, s model.Summary) error
}

// RecorderSink persists the summary carried by terminal transitions.
type RecorderSink struct {
	store Saver
}

// NewRecorderSink creates a sink saving into store.
func NewRecorderSink(store Saver) *RecorderSink {
	return &RecorderSink{store: store}
}

// Name implements Sink.
func (s *RecorderSink) Name() string { return "recorder" }

// Handle implements Sink.
func (s *RecorderSink) Handle(ctx context.Context, n Notification) error { //nolint:gocritic // hugeParam
	if n.Kind != model.KindTransition || n.Summary == nil || !n.Transition.To.Terminal() {
		return nil
	}
	if err := s.store.Save(ctx, *n.Summary); err != nil {
		return fmt.Errorf("save session %s: %w", n.Summary.SessionID, err)
	}
	return nil
}
