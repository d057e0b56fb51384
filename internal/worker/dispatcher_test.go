package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/hyperengineering/questboard/internal/types"
)

// mockSender records delivered events. block, when set, holds every send
// until it is closed or the send's context ends.
type mockSender struct {
	mu     sync.Mutex
	events []types.ActivityEvent
	err    error
	block  chan struct{}
	calls  int
}

func (m *mockSender) PostActivity(ctx context.Context, ev types.ActivityEvent) error {
	m.mu.Lock()
	m.calls++
	block := m.block
	m.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, ev)
	return nil
}

func (m *mockSender) getEvents() []types.ActivityEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]types.ActivityEvent(nil), m.events...)
}

func (m *mockSender) getCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func event(taskID string) types.ActivityEvent {
	return types.ActivityEvent{Type: types.ActivityTask, TaskID: taskID}
}

func TestDispatcher_SendsInOrder(t *testing.T) {
	sender := &mockSender{}
	d := NewDispatcher(sender, 10, time.Second)
	go d.Run(context.Background())

	for _, id := range []string{"morning-1", "morning-2", "morning-3"} {
		if !d.Enqueue(event(id)) {
			t.Fatalf("Enqueue(%s) rejected", id)
		}
	}
	if !d.Drain(time.Second) {
		t.Fatal("dispatcher did not drain")
	}

	got := sender.getEvents()
	if len(got) != 3 {
		t.Fatalf("sent %d events, want 3", len(got))
	}
	for i, id := range []string{"morning-1", "morning-2", "morning-3"} {
		if got[i].TaskID != id {
			t.Errorf("event %d = %s, want %s", i, got[i].TaskID, id)
		}
	}
}

func TestDispatcher_DropsWhenFull(t *testing.T) {
	// No Run: nothing consumes the queue.
	d := NewDispatcher(&mockSender{}, 2, time.Second)

	if !d.Enqueue(event("a")) || !d.Enqueue(event("b")) {
		t.Fatal("queue rejected events below capacity")
	}
	if d.Enqueue(event("c")) {
		t.Error("Enqueue accepted event beyond capacity")
	}
	d.Close()
}

func TestDispatcher_DropsAfterClose(t *testing.T) {
	d := NewDispatcher(&mockSender{}, 2, time.Second)
	d.Close()
	d.Close()

	if d.Enqueue(event("a")) {
		t.Error("Enqueue accepted event after Close")
	}
}

func TestDispatcher_FailureIsDropped(t *testing.T) {
	sender := &mockSender{err: errors.New("backend down")}
	d := NewDispatcher(sender, 10, time.Second)
	go d.Run(context.Background())

	d.Enqueue(event("a"))
	d.Enqueue(event("b"))
	if !d.Drain(time.Second) {
		t.Fatal("dispatcher did not drain")
	}

	// One attempt each, no retries.
	if calls := sender.getCalls(); calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}

func TestDispatcher_SendTimeout(t *testing.T) {
	sender := &mockSender{block: make(chan struct{})}
	defer close(sender.block)

	d := NewDispatcher(sender, 10, 20*time.Millisecond)
	go d.Run(context.Background())

	d.Enqueue(event("slow"))
	if !d.Drain(time.Second) {
		t.Fatal("per-send timeout did not release the worker")
	}
	if len(sender.getEvents()) != 0 {
		t.Error("timed-out send recorded as delivered")
	}
}

func TestDispatcher_DrainTimeout(t *testing.T) {
	sender := &mockSender{block: make(chan struct{})}
	ctx, cancel := context.WithCancel(context.Background())

	d := NewDispatcher(sender, 10, time.Minute)
	go d.Run(ctx)

	d.Enqueue(event("stuck"))
	if d.Drain(20 * time.Millisecond) {
		t.Fatal("Drain reported success while a send was blocked")
	}

	cancel()
	select {
	case <-d.Done():
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancel")
	}
	close(sender.block)
}

func TestDispatcher_AssignsJobIDs(t *testing.T) {
	d := NewDispatcher(&mockSender{}, 2, time.Second)
	d.Enqueue(event("a"))
	d.Enqueue(event("b"))
	d.Close()

	first, second := <-d.jobs, <-d.jobs
	if first.id == "" || first.id == second.id {
		t.Errorf("job ids = %q, %q", first.id, second.id)
	}
}
