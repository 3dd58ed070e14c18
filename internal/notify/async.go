package notify

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
)

// DefaultQueueSize is the number of events Async buffers.
const DefaultQueueSize = 64

var (
	// ErrQueueFull is returned by Async.Notify when the buffer is full.
	// The event is dropped.
	ErrQueueFull = errors.New("notification queue is full")

	// ErrClosed is returned by Async.Notify after Close.
	ErrClosed = errors.New("notifier is closed")
)

// Async hands events to a background goroutine, so that callers never wait
// for a slow or unreachable notifier. Each delivery is bounded by
// DispatchTimeout; failures are logged.
type Async struct {
	next   Notifier
	logger *slog.Logger
	queue  chan Event
	done   chan struct{}

	mu     sync.RWMutex
	closed bool
}

// AsyncOption configures an Async notifier.
type AsyncOption func(*asyncOptions)

type asyncOptions struct {
	logger *slog.Logger
	size   int
}

// WithAsyncLogger sets where delivery failures are logged.
func WithAsyncLogger(logger *slog.Logger) AsyncOption {
	return func(o *asyncOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithQueueSize sets how many events may wait for delivery.
func WithQueueSize(n int) AsyncOption {
	return func(o *asyncOptions) {
		if n > 0 {
			o.size = n
		}
	}
}

// NewAsync starts delivering events to next in the background.
// Call Close to flush and stop it.
func NewAsync(next Notifier, opts ...AsyncOption) *Async {
	o := asyncOptions{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		size:   DefaultQueueSize,
	}
	for _, opt := range opts {
		opt(&o)
	}

	a := &Async{
		next:   next,
		logger: o.logger,
		queue:  make(chan Event, o.size),
		done:   make(chan struct{}),
	}
	go a.run()
	return a
}

// Notify queues ev and returns without waiting for delivery.
func (a *Async) Notify(_ context.Context, ev Event) error {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.closed {
		return ErrClosed
	}
	select {
	case a.queue <- ev:
		return nil
	default:
		return ErrQueueFull
	}
}

func (a *Async) run() {
	defer close(a.done)

	for ev := range a.queue {
		ctx, cancel := context.WithTimeout(context.Background(), DispatchTimeout)
		err := a.next.Notify(ctx, ev)
		cancel()
		if err != nil {
			a.logger.Warn("failed to deliver notification",
				"event_id", ev.ID.String(),
				"kind", string(ev.Kind),
				"task_id", ev.TaskID,
				"error", err,
			)
		}
	}
}

// Close stops accepting events and waits until the queued ones are
// delivered or ctx is done.
func (a *Async) Close(ctx context.Context) error {
	a.mu.Lock()
	if !a.closed {
		a.closed = true
		close(a.queue)
	}
	a.mu.Unlock()

	select {
	case <-a.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
