package mailer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pranshh/library-management-mad2/internal/config"
)

func TestNew_DisabledReturnsLogSender(t *testing.T) {
	sender := New(config.Mail{Enabled: false, From: "librarian@iitm.in"})

	_, ok := sender.(*LogSender)
	assert.True(t, ok)
}

func TestNew_EnabledReturnsSMTPSender(t *testing.T) {
	sender := New(config.Mail{Enabled: true, Host: "localhost", Port: 1025, From: "librarian@iitm.in"})

	smtp, ok := sender.(*SMTPSender)
	require.True(t, ok)
	assert.Equal(t, "localhost", smtp.dialer.Host)
	assert.Equal(t, 1025, smtp.dialer.Port)
}

func TestLogSender_Send(t *testing.T) {
	sender := &LogSender{From: "librarian@iitm.in"}

	err := sender.Send(context.Background(), Message{To: []string{"reader@example.com"}, Subject: "Hi", Body: "Hello"})
	assert.NoError(t, err)

	err = sender.Send(context.Background(), Message{Subject: "Hi"})
	assert.ErrorIs(t, err, ErrNoRecipients)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = sender.Send(ctx, Message{To: []string{"reader@example.com"}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRender_PlainText(t *testing.T) {
	raw, err := Render(Message{
		To:      []string{"reader@example.com"},
		Subject: "Reminder",
		Body:    "Return your books",
	}, "librarian@iitm.in")
	require.NoError(t, err)

	out := string(raw)
	assert.Contains(t, out, "From: librarian@iitm.in")
	assert.Contains(t, out, "To: reader@example.com")
	assert.Contains(t, out, "Subject: Reminder")
	assert.Contains(t, out, "Content-Type: text/plain")
	assert.Contains(t, out, "Return your books")
}

func TestRender_HTMLWithAttachment(t *testing.T) {
	raw, err := Render(Message{
		From:        "reports@iitm.in",
		To:          []string{"librarian@iitm.in"},
		Subject:     "Monthly report",
		Body:        "<h1>Report</h1>",
		HTML:        true,
		Attachments: []Attachment{{Name: "report.html", Data: []byte("<p>data</p>")}},
	}, "fallback@iitm.in")
	require.NoError(t, err)

	out := string(raw)
	assert.Contains(t, out, "From: reports@iitm.in")
	assert.Contains(t, out, "Content-Type: text/html")
	assert.Contains(t, out, "multipart/mixed")
	assert.Contains(t, out, `filename="report.html"`)
}

func TestRender_RequiresSender(t *testing.T) {
	_, err := Render(Message{To: []string{"reader@example.com"}}, "")

	assert.ErrorIs(t, err, ErrNoSender)
}
