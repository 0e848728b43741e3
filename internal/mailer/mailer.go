// Package mailer sends notification email over SMTP.
//
// # Usage
//
//	sender := mailer.New(cfg.Mail)
//	err := sender.Send(ctx, mailer.Message{
//		To:      []string{"reader@example.com"},
//		Subject: "Your loans are due soon",
//		Body:    html,
//		HTML:    true,
//	})
//
// With MAIL_ENABLED=false, New returns a LogSender that only logs the
// envelope, which suits development without an SMTP relay.
package mailer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	mail "github.com/go-mail/mail/v2"

	"github.com/pranshh/library-management-mad2/internal/config"
)

var (
	ErrNoRecipients = errors.New("message has no recipients")
	ErrNoSender     = errors.New("message has no sender address")
)

// Attachment is a file sent along with a message.
type Attachment struct {
	Name string
	Data []byte
}

// Message is an outgoing email. Body is sent as text/html when HTML is set
// and as text/plain otherwise.
type Message struct {
	From        string
	To          []string
	Subject     string
	Body        string
	HTML        bool
	Attachments []Attachment
}

// Sender delivers messages.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// New returns an SMTP sender, or a LogSender when mail is disabled.
func New(cfg config.Mail) Sender {
	if !cfg.Enabled {
		log.Printf("[MAIL] Mail disabled, messages will be logged only")
		return &LogSender{From: cfg.From}
	}
	return NewSMTPSender(cfg)
}

// SMTPSender sends messages through an SMTP relay.
type SMTPSender struct {
	dialer *mail.Dialer
	from   string
}

// NewSMTPSender creates a sender for the configured relay. Credentials are
// optional; a relay such as MailHog accepts unauthenticated mail.
func NewSMTPSender(cfg config.Mail) *SMTPSender {
	d := mail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	d.StartTLSPolicy = mail.OpportunisticStartTLS
	d.Timeout = 30 * time.Second
	return &SMTPSender{dialer: d, from: cfg.From}
}

// Send dials the relay and delivers msg.
func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m, err := buildMessage(msg, s.from)
	if err != nil {
		return err
	}
	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send mail to %s: %w", strings.Join(msg.To, ","), err)
	}
	log.Printf("[MAIL] Sent %q to %s", msg.Subject, strings.Join(msg.To, ","))
	return nil
}

// LogSender logs messages instead of sending them.
type LogSender struct {
	From string
}

func (s *LogSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := buildMessage(msg, s.From); err != nil {
		return err
	}
	log.Printf("[MAIL] (not sent) to=%s subject=%q attachments=%d",
		strings.Join(msg.To, ","), msg.Subject, len(msg.Attachments))
	return nil
}

// Render writes msg as a MIME document. It is used for previews and tests.
func Render(msg Message, defaultFrom string) ([]byte, error) {
	m, err := buildMessage(msg, defaultFrom)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if _, err := m.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to render message: %w", err)
	}
	return buf.Bytes(), nil
}

func buildMessage(msg Message, defaultFrom string) (*mail.Message, error) {
	if len(msg.To) == 0 {
		return nil, ErrNoRecipients
	}
	from := msg.From
	if from == "" {
		from = defaultFrom
	}
	if from == "" {
		return nil, ErrNoSender
	}

	m := mail.NewMessage()
	m.SetHeader("From", from)
	m.SetHeader("To", msg.To...)
	m.SetHeader("Subject", msg.Subject)

	contentType := "text/plain"
	if msg.HTML {
		contentType = "text/html"
	}
	m.SetBody(contentType, msg.Body)

	for _, a := range msg.Attachments {
		m.AttachReader(a.Name, bytes.NewReader(a.Data))
	}
	return m, nil
}
