package worker_test

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/okian/handbeat/internal/adapters/mq/queue"
	"github.com/okian/handbeat/internal/adapters/mq/worker"
	"github.com/okian/handbeat/internal/domain/model"
	"github.com/okian/handbeat/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

type recordingSink struct {
	mu   sync.Mutex
	seen []model.Notification
	err  error
}

func (s *recordingSink) Name() string { return "recording" }

func (s *recordingSink) Handle(_ context.Context, n model.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seen = append(s.seen, n)
	return s.err
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.seen)
}

type memorySaver struct {
	mu    sync.Mutex
	saved []model.Summary
	err   error
}

func (m *memorySaver) Save(_ context.Context, s model.Summary) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.saved = append(m.saved, s)
	return nil
}

func terminal(to model.Phase) model.Notification {
	return model.Notification{
		Kind:       model.KindTransition,
		SessionID:  "s1",
		Transition: model.Transition{From: model.PhasePlaying, To: to},
		Summary:    &model.Summary{SessionID: "s1", Outcome: to, Score: 900},
	}
}

func TestWorker(t *testing.T) {
	convey.Convey("Given a worker over an in-memory queue", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(16))
		first, second := &recordingSink{err: errors.New("down")}, &recordingSink{}
		w := worker.New(q, []worker.Sink{first, second}, worker.WithLogger(logger.Nop()))
		ctx := context.Background()
		go w.Run(ctx)

		convey.Convey("When notifications are queued and the queue is closed", func() {
			q.Publish(ctx, model.Notification{Kind: model.KindJudgement})
			q.Publish(ctx, terminal(model.PhaseVictory))
			convey.So(q.Close(), convey.ShouldBeNil)

			shutdownCtx, cancel := context.WithTimeout(ctx, time.Second)
			defer cancel()
			err := w.Shutdown(shutdownCtx)

			convey.Convey("Then every sink sees every notification even when one fails", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(first.count(), convey.ShouldEqual, 2)
				convey.So(second.count(), convey.ShouldEqual, 2)
				convey.So(second.seen[1].Transition.To, convey.ShouldEqual, model.PhaseVictory)
			})
		})

		convey.Convey("When shutdown is requested on an open queue", func() {
			shutdownCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
			defer cancel()
			err := w.Shutdown(shutdownCtx)

			convey.Convey("Then it gives up and stops the worker", func() {
				convey.So(errors.Is(err, worker.ErrShutdownTimeout), convey.ShouldBeTrue)
				convey.So(w.Shutdown(context.Background()), convey.ShouldBeNil)
			})
		})
	})
}

func TestRecorderSink(t *testing.T) {
	convey.Convey("Given a recorder sink", t, func() {
		store := &memorySaver{}
		sink := worker.NewRecorderSink(store)
		ctx := context.Background()

		convey.Convey("Terminal transitions with a summary are saved", func() {
			convey.So(sink.Handle(ctx, terminal(model.PhaseGameOver)), convey.ShouldBeNil)
			convey.So(len(store.saved), convey.ShouldEqual, 1)
			convey.So(store.saved[0].Outcome, convey.ShouldEqual, model.PhaseGameOver)
		})

		convey.Convey("Other notifications are ignored", func() {
			start := model.Notification{Kind: model.KindTransition, Transition: model.Transition{From: model.PhaseIdle, To: model.PhasePlaying}}
			convey.So(sink.Handle(ctx, start), convey.ShouldBeNil)
			convey.So(sink.Handle(ctx, model.Notification{Kind: model.KindJudgement}), convey.ShouldBeNil)
			convey.So(store.saved, convey.ShouldBeEmpty)
		})

		convey.Convey("Store failures are returned", func() {
			store.err = errors.New("disk full")
			err := sink.Handle(ctx, terminal(model.PhaseVictory))
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(err.Error(), convey.ShouldContainSubstring, "s1")
		})
	})
}

func TestLogSink(t *testing.T) {
	convey.Convey("Given a log sink over a buffer", t, func() {
		convey.So(logger.SetLevelString("debug"), convey.ShouldBeNil)
		defer func() { _ = logger.SetLevelString("info") }()

		var buf bytes.Buffer
		sink := worker.NewLogSink(logger.New(&buf))
		ctx := context.Background()

		note := model.NewNote(model.Target{ID: "n7", ArrivalTime: 2}, 0)
		convey.So(sink.Handle(ctx, model.Notification{
			Kind:      model.KindJudgement,
			Judgement: model.JudgeEvent{Note: note, Outcome: model.Hit, Quality: model.QualityGood, At: 2},
		}), convey.ShouldBeNil)
		convey.So(sink.Handle(ctx, terminal(model.PhaseVictory)), convey.ShouldBeNil)

		out := buf.String()
		convey.So(out, convey.ShouldContainSubstring, "note=n7")
		convey.So(out, convey.ShouldContainSubstring, "quality=good")
		convey.So(out, convey.ShouldContainSubstring, "to=victory")
		convey.So(out, convey.ShouldContainSubstring, "score=900")
	})
}
