package notify

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/fentz26/taskmaster/internal/models"
)

var firedAt = time.Date(2030, 3, 14, 9, 0, 0, 0, time.UTC)

func TestCompose(t *testing.T) {
	tests := []struct {
		name    string
		r       models.Reminder
		subject string
		body    string
	}{
		{"nudge", models.Reminder{Name: "Call Sam", Frequency: models.FrequencyNudge},
			"Nudge: Call Sam", "Reminder sent by TaskMaster"},
		{"weekday", models.Reminder{Name: "Standup", Frequency: models.FrequencyWeekdays, URL: "https://meet.example/s"},
			"Weekday Reminder: Standup", "Reminder sent by TaskMaster\n\nSee https://meet.example/s"},
		{"monthly", models.Reminder{Name: "Rent", Frequency: models.FrequencyMonthly},
			"Monthly Reminder: Rent", "Reminder sent by TaskMaster"},
		{"untagged", models.Reminder{Name: "Dentist"},
			"Reminder: Dentist", "Reminder sent by TaskMaster"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := Compose(tt.r)
			assert.Equal(t, tt.subject, msg.Subject)
			assert.Equal(t, tt.body, msg.Body)
		})
	}
}

type sentMail struct {
	addr string
	auth smtp.Auth
	from string
	to   []string
	msg  string
	at   time.Time
}

func TestEmailDispatch(t *testing.T) {
	var sent []sentMail
	e := NewEmail(EmailConfig{
		To:           "me@example.com",
		From:         "taskmaster@example.com",
		Host:         "smtp.example.com",
		Port:         587,
		Username:     "me",
		Password:     "secret",
		SendInterval: 50 * time.Millisecond,
	}, nil)
	e.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		sent = append(sent, sentMail{addr, a, from, to, string(msg), time.Now()})
		return nil
	}

	r := models.Reminder{Name: "Stretch", Frequency: models.FrequencyDaily, FiredAt: firedAt}
	require.NoError(t, e.Dispatch(context.Background(), r))
	require.NoError(t, e.Dispatch(context.Background(), r))

	require.Len(t, sent, 2)
	assert.Equal(t, "smtp.example.com:587", sent[0].addr)
	assert.NotNil(t, sent[0].auth)
	assert.Equal(t, []string{"me@example.com"}, sent[0].to)
	assert.Contains(t, sent[0].msg, "Subject: Daily Reminder: Stretch\r\n")
	assert.True(t, strings.HasSuffix(sent[0].msg, "\r\n\r\nReminder sent by TaskMaster\r\n"))
	assert.GreaterOrEqual(t, sent[1].at.Sub(sent[0].at), 40*time.Millisecond)
}

func TestEmailDispatchErrors(t *testing.T) {
	e := NewEmail(EmailConfig{To: "me@example.com", Host: "localhost"}, nil)
	e.send = func(string, smtp.Auth, string, []string, []byte) error {
		return errors.New("connection refused")
	}

	err := e.Dispatch(context.Background(), models.Reminder{Name: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")

	slow := NewEmail(EmailConfig{To: "me@example.com", Host: "localhost", SendInterval: time.Hour}, nil)
	slow.send = func(string, smtp.Auth, string, []string, []byte) error { return nil }
	require.NoError(t, slow.Dispatch(context.Background(), models.Reminder{Name: "x"}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, slow.Dispatch(ctx, models.Reminder{Name: "y"}))
}

type fakeInbox struct {
	group, title, details, due string
	err                        error
}

func (f *fakeInbox) AddReminder(group, title, details, dueDate string) (*models.InboxItem, error) {
	f.group, f.title, f.details, f.due = group, title, details, dueDate
	return &models.InboxItem{Group: group, Title: title}, f.err
}

func TestInboxDispatch(t *testing.T) {
	store := &fakeInbox{}
	in := NewInbox(store, "")

	r := models.Reminder{Name: "Trash", URL: "https://city.example", Frequency: models.FrequencyWeekly, FiredAt: firedAt}
	require.NoError(t, in.Dispatch(context.Background(), r))
	assert.Equal(t, "Recurring", store.group)
	assert.Equal(t, "Weekly Reminder: Trash", store.title)
	assert.Equal(t, "Reminder sent by TaskMaster\n\nSee https://city.example", store.details)
	assert.Equal(t, "2030-03-14", store.due)

	store.err = errors.New("disk full")
	assert.ErrorContains(t, in.Dispatch(context.Background(), r), "disk full")
}

type stubDispatcher struct {
	calls int
	err   error
}

func (s *stubDispatcher) Dispatch(context.Context, models.Reminder) error {
	s.calls++
	return s.err
}

func TestMulti(t *testing.T) {
	bad := &stubDispatcher{err: errors.New("smtp down")}
	good := &stubDispatcher{}

	err := Multi{bad, good}.Dispatch(context.Background(), models.Reminder{Name: "x"})
	assert.ErrorContains(t, err, "smtp down")
	assert.Equal(t, 1, bad.calls)
	assert.Equal(t, 1, good.calls)

	assert.NoError(t, Multi{good}.Dispatch(context.Background(), models.Reminder{Name: "x"}))
}

func TestLogDispatch(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	l := NewLog(zap.New(core))

	require.NoError(t, l.Dispatch(context.Background(), models.Reminder{Name: "Call Sam", Frequency: models.FrequencyNudge}))
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "Nudge: Call Sam", logs.All()[0].Message)
}
