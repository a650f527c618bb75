package mailer

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wneessen/go-mail"

	"gitlab.com/sellcourse/sellcourse-backend/internal/domain/valueobject/mails"
	"gitlab.com/sellcourse/sellcourse-backend/pkg/errorx"
)

func TestBuildMessage(t *testing.T) {
	msg, err := buildMessage("no-reply@sellcourse.dev", mails.Payload{
		To:      "a@b.com",
		Subject: "Xác minh email",
		Body:    "<p>hi</p>",
	})
	require.NoError(t, err)

	rcpts, err := msg.GetRecipients()
	require.NoError(t, err)
	assert.Equal(t, []string{"a@b.com"}, rcpts)
	assert.Equal(t, []string{"Xác minh email"}, msg.GetGenHeader(mail.HeaderSubject))

	var buf bytes.Buffer
	_, err = msg.WriteTo(&buf)
	require.NoError(t, err)
	raw := buf.String()
	assert.Contains(t, raw, "no-reply@sellcourse.dev")
	assert.Contains(t, raw, "text/html")
	assert.Contains(t, raw, "<p>hi</p>")
	assert.NotContains(t, raw, "Subject: Xác", "non-ascii subject is encoded")
}

func TestBuildMessage_InvalidAddress(t *testing.T) {
	_, err := buildMessage("no-reply@sellcourse.dev", mails.Payload{To: "not an address"})
	assert.Error(t, err)

	_, err = buildMessage("", mails.Payload{To: "a@b.com"})
	assert.Error(t, err)
}

func newTestSMTP(t *testing.T) *SMTP {
	t.Helper()
	s, err := NewSMTP(SMTPConfig{
		Host:     "smtp.local",
		Port:     2525,
		Username: "mailer",
		Password: "secret",
		From:     "no-reply@sellcourse.dev",
	})
	require.NoError(t, err)
	return s
}

func TestSMTP_SendMail(t *testing.T) {
	s := newTestSMTP(t)

	var got []*mail.Msg
	s.send = func(_ context.Context, msgs ...*mail.Msg) error {
		got = append(got, msgs...)
		return nil
	}

	require.NoError(t, s.SendMail(t.Context(), mails.Payload{To: "a@b.com", Subject: "s", Body: "b"}))
	require.Len(t, got, 1)
	rcpts, err := got[0].GetRecipients()
	require.NoError(t, err)
	assert.Equal(t, []string{"a@b.com"}, rcpts)

	s.send = func(context.Context, ...*mail.Msg) error { return errors.New("421 busy") }
	err = s.SendMail(t.Context(), mails.Payload{To: "a@b.com"})
	assert.True(t, errorx.IsCode(err, errorx.CodeMailDeliveryFailed))
}

func TestSMTP_SendMailHonoursContext(t *testing.T) {
	s := newTestSMTP(t)
	s.send = func(ctx context.Context, _ ...*mail.Msg) error {
		<-ctx.Done()
		return ctx.Err()
	}

	ctx, cancel := context.WithTimeout(t.Context(), 20*time.Millisecond)
	defer cancel()

	err := s.SendMail(ctx, mails.Payload{To: "a@b.com", Subject: "s", Body: "b"})
	require.Error(t, err)
	assert.True(t, errorx.IsCode(err, errorx.CodeMailDeliveryFailed))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSMTP_InvalidRecipientIsNotSent(t *testing.T) {
	s := newTestSMTP(t)
	called := false
	s.send = func(context.Context, ...*mail.Msg) error {
		called = true
		return nil
	}

	err := s.SendMail(t.Context(), mails.Payload{To: "nope"})
	assert.True(t, errorx.IsCode(err, errorx.CodeMailDeliveryFailed))
	assert.False(t, called)
}

func TestLog(t *testing.T) {
	l := NewLog(slog.New(slog.DiscardHandler))
	require.NoError(t, l.SendMail(t.Context(), mails.Payload{To: "a@b.com"}))
	assert.Len(t, l.Sent(), 1)
}
