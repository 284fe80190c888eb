package queue

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/okian/handbeat/internal/domain/model"
)

func transition(from, to model.Phase) Notification {
	return Notification{Kind: model.KindTransition, Transition: model.Transition{From: from, To: to}}
}

func TestInMemoryQueue_BasicOperations(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}

	if !q.Enqueue(ctx, transition(model.PhaseIdle, model.PhasePlaying)) {
		t.Error("expected enqueue to succeed")
	}
	if l := q.Len(ctx); l != 1 {
		t.Errorf("expected length 1, got %d", l)
	}

	n := <-q.Dequeue(ctx)
	if n.Transition.To != model.PhasePlaying {
		t.Errorf("expected transition to playing, got %v", n.Transition.To)
	}
	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}
}

func TestInMemoryQueue_DropsWhenFull(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if !q.Enqueue(ctx, transition(model.PhaseIdle, model.PhasePlaying)) {
			t.Fatal("expected enqueue to succeed")
		}
	}

	done := make(chan bool)
	go func() { done <- q.Enqueue(ctx, transition(model.PhasePlaying, model.PhaseVictory)) }()

	select {
	case ok := <-done:
		if ok {
			t.Error("expected enqueue to fail when full")
		}
	case <-time.After(time.Second):
		t.Fatal("enqueue blocked on a full queue")
	}

	if l := q.Len(ctx); l != 2 {
		t.Errorf("expected length 2, got %d", l)
	}
}

func TestInMemoryQueue_PreservesOrder(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(16))
	ctx := context.Background()

	phases := []model.Phase{model.PhaseIdle, model.PhasePlaying, model.PhaseGameOver, model.PhaseIdle}
	for i := 1; i < len(phases); i++ {
		q.Publish(ctx, transition(phases[i-1], phases[i]))
	}
	if err := q.Close(); err != nil {
		t.Fatal(err)
	}

	var got []model.Phase
	for n := range q.Dequeue(ctx) {
		got = append(got, n.Transition.To)
	}
	if len(got) != 3 || got[0] != model.PhasePlaying || got[1] != model.PhaseGameOver || got[2] != model.PhaseIdle {
		t.Errorf("unexpected order %v", got)
	}
}

func TestInMemoryQueue_Close(t *testing.T) {
	q := NewInMemoryQueue()
	ctx := context.Background()

	if err := q.Close(); err != nil {
		t.Fatal(err)
	}
	if err := q.Close(); err != nil {
		t.Errorf("second close should be a no-op, got %v", err)
	}
	if !q.IsClosed() {
		t.Error("expected queue to report closed")
	}
	if q.Enqueue(ctx, transition(model.PhaseIdle, model.PhasePlaying)) {
		t.Error("expected enqueue after close to fail")
	}
}

func TestInMemoryQueue_ConcurrentAccess(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(1000))
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				q.Enqueue(ctx, transition(model.PhaseIdle, model.PhasePlaying))
			}
		}()
	}

	received := 0
	out := q.Dequeue(ctx)
	go func() {
		wg.Wait()
		_ = q.Close()
	}()
	for range out {
		received++
	}

	if received != 1000 {
		t.Errorf("expected 1000 notifications, got %d", received)
	}
}
