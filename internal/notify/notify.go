// Package notify delivers fired reminders: by email, into the inbox table, to
// the log, or to several of those at once.
package notify

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/fentz26/taskmaster/internal/models"
)

// Signature opens every reminder body.
const Signature = "Reminder sent by TaskMaster"

// Message is the rendered form of a reminder.
type Message struct {
	Subject string
	Body    string
}

// Compose renders r. Nudges read "Nudge: <name>"; other firings are prefixed
// with their frequency label when they have one.
func Compose(r models.Reminder) Message {
	var subject string
	switch {
	case r.IsNudge():
		subject = "Nudge: " + r.Name
	case r.Frequency.Label() != "":
		subject = fmt.Sprintf("%s Reminder: %s", r.Frequency.Label(), r.Name)
	default:
		subject = "Reminder: " + r.Name
	}

	body := Signature
	if r.URL != "" {
		body += "\n\nSee " + r.URL
	}
	return Message{Subject: subject, Body: body}
}

// Dispatcher is implemented by every channel in this package.
type Dispatcher interface {
	Dispatch(ctx context.Context, r models.Reminder) error
}

// Multi sends to every dispatcher and joins their errors. One failing channel
// does not stop the others.
type Multi []Dispatcher

// Dispatch implements Dispatcher.
func (m Multi) Dispatch(ctx context.Context, r models.Reminder) error {
	var errs []error
	for _, d := range m {
		if err := d.Dispatch(ctx, r); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Log writes reminders to a logger. It is the channel used when nothing else
// is configured.
type Log struct {
	logger *zap.Logger
}

// NewLog creates a log dispatcher.
func NewLog(logger *zap.Logger) *Log {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Log{logger: logger}
}

// Dispatch implements Dispatcher.
func (l *Log) Dispatch(_ context.Context, r models.Reminder) error {
	msg := Compose(r)
	l.logger.Info(msg.Subject,
		zap.String("task", r.Name),
		zap.String("url", r.URL),
		zap.String("frequency", string(r.Frequency)),
		zap.Time("fired_at", r.FiredAt),
	)
	return nil
}
