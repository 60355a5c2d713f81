// Package notify delivers side-channel messages produced by executed
// actions, such as interview invitations.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"
	"sync"
)

// Email is one outbound message. The body is HTML.
type Email struct {
	To      string
	Subject string
	HTML    string
}

// Notifier sends messages. Delivery failures never fail the action that
// produced them; callers log and move on.
type Notifier interface {
	SendEmail(ctx context.Context, e Email) error
}

// SMTPConfig holds mail relay settings.
type SMTPConfig struct {
	Host     string
	Port     int
	From     string
	Username string
	Password string
}

// SMTPNotifier sends mail through a plain SMTP relay.
type SMTPNotifier struct {
	cfg SMTPConfig
}

// NewSMTPNotifier returns a notifier bound to the given relay.
func NewSMTPNotifier(cfg SMTPConfig) (*SMTPNotifier, error) {
	if cfg.Host == "" || cfg.From == "" {
		return nil, fmt.Errorf("smtp host and from address are required")
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	return &SMTPNotifier{cfg: cfg}, nil
}

func (n *SMTPNotifier) SendEmail(ctx context.Context, e Email) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", n.cfg.From)
	fmt.Fprintf(&msg, "To: %s\r\n", e.To)
	fmt.Fprintf(&msg, "Subject: %s\r\n", e.Subject)
	msg.WriteString("MIME-Version: 1.0\r\nContent-Type: text/html; charset=utf-8\r\n\r\n")
	msg.WriteString(e.HTML)

	addr := fmt.Sprintf("%s:%d", n.cfg.Host, n.cfg.Port)
	var auth smtp.Auth
	if n.cfg.Username != "" {
		auth = smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, n.cfg.Host)
	}
	return smtp.SendMail(addr, auth, n.cfg.From, []string{e.To}, []byte(msg.String()))
}

// LogNotifier writes messages to the log instead of delivering them. It is
// the default when no relay is configured.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier returns a log-only notifier.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) SendEmail(ctx context.Context, e Email) error {
	n.logger.Info("email suppressed, no relay configured",
		"to", e.To,
		"subject", e.Subject)
	return nil
}

// Recorder captures messages for assertions in tests.
type Recorder struct {
	mu   sync.Mutex
	sent []Email
}

// NewRecorder returns an empty recorder.
func NewRecorder() *Recorder { return &Recorder{} }

func (r *Recorder) SendEmail(ctx context.Context, e Email) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, e)
	return nil
}

// Sent returns a copy of everything recorded so far.
func (r *Recorder) Sent() []Email {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Email(nil), r.sent...)
}
