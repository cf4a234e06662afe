package notify

import (
	"context"
	"fmt"

	"github.com/fentz26/taskmaster/internal/models"
)

// DefaultGroup is the inbox group reminders are filed under.
const DefaultGroup = "Recurring"

// InboxStore persists inbox items. store.Store satisfies it.
type InboxStore interface {
	AddReminder(group, title, details, dueDate string) (*models.InboxItem, error)
}

// Inbox files each reminder as a to-do due on the day it fired.
type Inbox struct {
	store InboxStore
	group string
}

// NewInbox creates an inbox dispatcher. An empty group means DefaultGroup.
func NewInbox(s InboxStore, group string) *Inbox {
	if group == "" {
		group = DefaultGroup
	}
	return &Inbox{store: s, group: group}
}

// Dispatch implements Dispatcher.
func (i *Inbox) Dispatch(_ context.Context, r models.Reminder) error {
	msg := Compose(r)
	if _, err := i.store.AddReminder(i.group, msg.Subject, msg.Body, r.FiredAt.Format("2006-01-02")); err != nil {
		return fmt.Errorf("file reminder for %q: %w", r.Name, err)
	}
	return nil
}
