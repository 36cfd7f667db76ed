package email

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) *SMTPEmailService {
	t.Helper()
	s, err := NewSMTPEmailService(SMTPConfig{Host: "localhost", Port: 1025}, "https://samplebase.test/", slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return s
}

func TestPlanLabel(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"pro", "Pro"},
		{"starter", "Starter"},
		{"starter_annual", "Starter Annual"},
		{"Pro Monthly", "Pro Monthly"},
		{"", "Samplebase"},
		{"  ", "Samplebase"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, PlanLabel(tt.in))
		})
	}
}

func TestNewSMTPEmailService_Defaults(t *testing.T) {
	s := newTestService(t)
	assert.Equal(t, DefaultFromEmail, s.config.From)
	assert.Equal(t, DefaultFromName, s.config.FromName)
	assert.Equal(t, "https://samplebase.test", s.baseURL)
}

func TestPaymentFailedEmail(t *testing.T) {
	s := newTestService(t)

	msg, err := s.paymentFailedEmail("ada@example.com", "Ada", "pro", 2)
	require.NoError(t, err)

	assert.Equal(t, "ada@example.com", msg.To)
	assert.Contains(t, msg.Subject, "payment failed")
	assert.Contains(t, msg.HTMLBody, "Hi Ada,")
	assert.Contains(t, msg.HTMLBody, "<strong>Pro</strong>")
	assert.Contains(t, msg.HTMLBody, "(attempt 2)")
	assert.Contains(t, msg.HTMLBody, "https://samplebase.test/account/billing")
	assert.Contains(t, msg.TextBody, "your Pro plan")
}

func TestPaymentFailedEmail_FirstAttemptOmitsCount(t *testing.T) {
	s := newTestService(t)

	msg, err := s.paymentFailedEmail("ada@example.com", "", "starter", 1)
	require.NoError(t, err)
	assert.NotContains(t, msg.HTMLBody, "attempt 1")
	assert.Contains(t, msg.HTMLBody, "Hi there,")
}

func TestCancellationScheduledEmail(t *testing.T) {
	s := newTestService(t)
	end := time.Date(2026, 11, 30, 0, 0, 0, 0, time.UTC)

	msg, err := s.cancellationScheduledEmail("ada@example.com", "Ada", "pro", end)
	require.NoError(t, err)
	assert.Contains(t, msg.HTMLBody, "November 30, 2026")
	assert.Contains(t, msg.TextBody, "November 30, 2026")
}

func TestSubscriptionCanceledAndPlanChangedEmails(t *testing.T) {
	s := newTestService(t)

	canceled, err := s.subscriptionCanceledEmail("ada@example.com", "Ada", "pro")
	require.NoError(t, err)
	assert.Contains(t, canceled.HTMLBody, "has ended")

	changed, err := s.planChangedEmail("ada@example.com", "Ada", "starter")
	require.NoError(t, err)
	assert.Equal(t, "You're now on Samplebase Starter", changed.Subject)
}

func TestBuildMessage(t *testing.T) {
	s := newTestService(t)

	raw := string(s.buildMessage(Email{
		To:       "ada@example.com",
		Subject:  "Hello",
		HTMLBody: "<p>hi</p>",
		TextBody: "hi",
	}))

	assert.True(t, strings.HasPrefix(raw, "From: Samplebase <billing@samplebase.io>\r\n"))
	assert.Contains(t, raw, "To: ada@example.com\r\n")
	assert.Contains(t, raw, "Content-Type: multipart/alternative")
	assert.Contains(t, raw, "<p>hi</p>")
}

func TestSend_CanceledContext(t *testing.T) {
	s := newTestService(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.send(ctx, Email{To: "ada@example.com"})
	assert.ErrorIs(t, err, context.Canceled)
}
