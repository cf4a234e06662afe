package notify

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/fentz26/taskmaster/internal/models"
)

// EmailConfig holds SMTP settings.
type EmailConfig struct {
	To           string
	From         string
	Host         string
	Port         int
	Username     string
	Password     string
	SendInterval time.Duration
}

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// Email sends each reminder as a plain-text mail. Sends are spaced at least
// SendInterval apart so a pass that fires many tasks does not burst the relay.
type Email struct {
	cfg     EmailConfig
	limiter *rate.Limiter
	send    sendFunc
	logger  *zap.Logger
}

// NewEmail creates an email dispatcher.
func NewEmail(cfg EmailConfig, logger *zap.Logger) *Email {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Port == 0 {
		cfg.Port = 25
	}
	limit := rate.Inf
	if cfg.SendInterval > 0 {
		limit = rate.Every(cfg.SendInterval)
	}
	return &Email{
		cfg:     cfg,
		limiter: rate.NewLimiter(limit, 1),
		send:    smtp.SendMail,
		logger:  logger,
	}
}

// Dispatch implements Dispatcher.
func (e *Email) Dispatch(ctx context.Context, r models.Reminder) error {
	if err := e.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("wait for send slot: %w", err)
	}

	msg := Compose(r)
	addr := net.JoinHostPort(e.cfg.Host, strconv.Itoa(e.cfg.Port))

	var auth smtp.Auth
	if e.cfg.Username != "" {
		auth = smtp.PlainAuth("", e.cfg.Username, e.cfg.Password, e.cfg.Host)
	}

	if err := e.send(addr, auth, e.cfg.From, []string{e.cfg.To}, e.render(msg, r.FiredAt)); err != nil {
		return fmt.Errorf("send email for %q: %w", r.Name, err)
	}
	e.logger.Debug("email sent", zap.String("to", e.cfg.To), zap.String("subject", msg.Subject))
	return nil
}

func (e *Email) render(msg Message, at time.Time) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", e.cfg.From)
	fmt.Fprintf(&b, "To: %s\r\n", e.cfg.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	fmt.Fprintf(&b, "Date: %s\r\n", at.Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(msg.Body, "\n", "\r\n"))
	b.WriteString("\r\n")
	return []byte(b.String())
}
