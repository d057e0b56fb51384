package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/hyperengineering/questboard/internal/types"
	"github.com/oklog/ulid/v2"
)

// ActivitySender delivers one activity event. Implemented by backend.Client.
type ActivitySender interface {
	PostActivity(ctx context.Context, ev types.ActivityEvent) error
}

type activityJob struct {
	id    string
	event types.ActivityEvent
}

// Dispatcher sends activity events in the background. Enqueue never blocks:
// events are dropped when the queue is full or closed. Each event gets one
// attempt; failures are logged at debug and forgotten.
type Dispatcher struct {
	sender  ActivitySender
	timeout time.Duration

	mu     sync.Mutex
	closed bool
	jobs   chan activityJob
	done   chan struct{}
}

// NewDispatcher creates a Dispatcher holding up to queueSize pending events.
// timeout bounds each send.
func NewDispatcher(sender ActivitySender, queueSize int, timeout time.Duration) *Dispatcher {
	if queueSize < 1 {
		queueSize = 1
	}
	return &Dispatcher{
		sender:  sender,
		timeout: timeout,
		jobs:    make(chan activityJob, queueSize),
		done:    make(chan struct{}),
	}
}

// Enqueue queues ev and reports whether it was accepted.
func (d *Dispatcher) Enqueue(ev types.ActivityEvent) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		slog.Debug("activity dropped",
			"component", "worker",
			"worker", "activity-dispatcher",
			"reason", "closed",
			"type", ev.Type,
		)
		return false
	}

	job := activityJob{id: ulid.Make().String(), event: ev}
	select {
	case d.jobs <- job:
		return true
	default:
		slog.Debug("activity dropped",
			"component", "worker",
			"worker", "activity-dispatcher",
			"reason", "queue_full",
			"job_id", job.id,
			"type", ev.Type,
		)
		return false
	}
}

// Close stops intake. Events already queued are still sent by Run.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.closed {
		d.closed = true
		close(d.jobs)
	}
}

// Done is closed when Run returns.
func (d *Dispatcher) Done() <-chan struct{} {
	return d.done
}

// Run sends queued events until Close has been called and the queue is
// drained, or ctx is cancelled. Call it once.
func (d *Dispatcher) Run(ctx context.Context) {
	defer close(d.done)

	slog.Debug("activity dispatcher started",
		"component", "worker",
		"worker", "activity-dispatcher",
		"queue_size", cap(d.jobs),
	)

	for {
		select {
		case <-ctx.Done():
			slog.Debug("activity dispatcher stopped",
				"component", "worker",
				"worker", "activity-dispatcher",
				"reason", "context_cancelled",
				"pending", len(d.jobs),
			)
			return
		case job, ok := <-d.jobs:
			if !ok {
				slog.Debug("activity dispatcher stopped",
					"component", "worker",
					"worker", "activity-dispatcher",
					"reason", "drained",
				)
				return
			}
			d.send(ctx, job)
		}
	}
}

// Drain closes the dispatcher and waits up to timeout for Run to finish.
// It reports whether the queue drained in time.
func (d *Dispatcher) Drain(timeout time.Duration) bool {
	d.Close()
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-d.done:
		return true
	case <-timer.C:
		return false
	}
}

func (d *Dispatcher) send(ctx context.Context, job activityJob) {
	sendCtx := ctx
	if d.timeout > 0 {
		var cancel context.CancelFunc
		sendCtx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	start := time.Now()
	if err := d.sender.PostActivity(sendCtx, job.event); err != nil {
		slog.Debug("activity send failed",
			"component", "worker",
			"worker", "activity-dispatcher",
			"job_id", job.id,
			"type", job.event.Type,
			"error", err,
		)
		return
	}
	slog.Debug("activity sent",
		"component", "worker",
		"worker", "activity-dispatcher",
		"job_id", job.id,
		"type", job.event.Type,
		"duration_ms", time.Since(start).Milliseconds(),
	)
}
