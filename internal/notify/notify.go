package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Kind names a lifecycle event.
type Kind string

const (
	// KindDeliverableSubmitted tells the supervisor a deliverable was submitted.
	KindDeliverableSubmitted Kind = "deliverable.submitted"

	// KindCriteriaProvided tells the student new feedback criteria are available.
	KindCriteriaProvided Kind = "criteria.provided"

	// KindCriteriaEvaluated tells the supervisor a compliance evaluation finished.
	KindCriteriaEvaluated Kind = "criteria.evaluated"
)

// Event is a request to notify one user about a task.
type Event struct {
	ID          uuid.UUID         `json:"id"`
	Kind        Kind              `json:"kind"`
	TaskID      int64             `json:"task_id"`
	RecipientID int64             `json:"recipient_id"`
	OccurredAt  time.Time         `json:"occurred_at"`
	Payload     map[string]string `json:"payload,omitempty"`
}

// NewEvent creates an event with a fresh ID.
func NewEvent(kind Kind, taskID, recipientID int64, occurredAt time.Time) Event {
	return Event{
		ID:          uuid.New(),
		Kind:        kind,
		TaskID:      taskID,
		RecipientID: recipientID,
		OccurredAt:  occurredAt.UTC(),
		Payload:     map[string]string{},
	}
}

// With returns a copy of the event with key set in the payload.
func (e Event) With(key string, value any) Event {
	payload := make(map[string]string, len(e.Payload)+1)
	for k, v := range e.Payload {
		payload[k] = v
	}
	switch v := value.(type) {
	case string:
		payload[key] = v
	case int:
		payload[key] = strconv.Itoa(v)
	case int64:
		payload[key] = strconv.FormatInt(v, 10)
	default:
		payload[key] = fmt.Sprint(v)
	}
	e.Payload = payload
	return e
}

// Notifier delivers events.
type Notifier interface {
	Notify(ctx context.Context, ev Event) error
}

var (
	_ Notifier = Nop{}
	_ Notifier = (*Logger)(nil)
	_ Notifier = Multi(nil)
	_ Notifier = (*Redis)(nil)
	_ Notifier = (*Async)(nil)
)

// Nop discards every event.
type Nop struct{}

// Notify implements Notifier.
func (Nop) Notify(context.Context, Event) error { return nil }

// Logger writes events to a slog logger. It is the default notifier of the CLI.
type Logger struct {
	logger *slog.Logger
}

// NewLogger returns a notifier logging events at info level.
func NewLogger(logger *slog.Logger) *Logger {
	return &Logger{logger: logger}
}

// Notify implements Notifier.
func (l *Logger) Notify(ctx context.Context, ev Event) error {
	l.logger.InfoContext(ctx, "notification",
		"event_id", ev.ID.String(),
		"kind", string(ev.Kind),
		"task_id", ev.TaskID,
		"recipient_id", ev.RecipientID,
	)
	return nil
}

// Multi fans an event out to several notifiers. Every notifier is tried;
// the failures are joined.
type Multi []Notifier

// Notify implements Notifier.
func (m Multi) Notify(ctx context.Context, ev Event) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// DispatchTimeout bounds how long Dispatch waits for a notifier.
const DispatchTimeout = 5 * time.Second

// Dispatch delivers ev and logs a failure instead of returning it.
// It runs detached from the cancellation of ctx, because the change the event
// reports has already been committed. The caller waits at most
// DispatchTimeout; wrap network notifiers in Async to keep delivery off the
// caller's path entirely.
func Dispatch(ctx context.Context, n Notifier, logger *slog.Logger, ev Event) {
	if n == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), DispatchTimeout)
	defer cancel()

	if err := n.Notify(ctx, ev); err != nil && logger != nil {
		logger.WarnContext(ctx, "failed to deliver notification",
			"event_id", ev.ID.String(),
			"kind", string(ev.Kind),
			"task_id", ev.TaskID,
			"error", err,
		)
	}
}
