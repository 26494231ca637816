package reconcile

import (
	"context"
	"time"

	"github.com/nhle/duetask/internal/model"
)

// NotificationProvider books, sends and cancels push notifications.
// Implementations return errors; the engine logs them and carries on.
type NotificationProvider interface {
	// ScheduleAt books a notification for sendAt and returns its id.
	ScheduleAt(ctx context.Context, heading, body string, sendAt time.Time) (string, error)

	// SendNow delivers a notification immediately.
	SendNow(ctx context.Context, heading, body string) error

	// Cancel removes a booked notification.
	Cancel(ctx context.Context, notificationID string) error
}

// TrackingStore remembers which provider notifications were booked for
// which (date, tag) key.
type TrackingStore interface {
	RecordSent(ctx context.Context, key model.Key, notificationID string) error
	ListForDate(ctx context.Context, date model.Date) ([]model.Record, error)
	DeleteForDate(ctx context.Context, date model.Date) error
}

// TaskSource reads the current state of the tasks table.
type TaskSource interface {
	// ActiveTasksOn returns the tasks due on date that are not complete.
	ActiveTasksOn(ctx context.Context, date model.Date) ([]model.Task, error)
}

// Summarizer renders notification text.
type Summarizer interface {
	Summarize(tasks []model.Task) string
	Completed(task model.Task) (heading, body string)
}
