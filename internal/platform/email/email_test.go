package email

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/mailjet/mailjet-apiv3-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentmeroom/internal/platform/config"
)

type fakeMailjet struct {
	sent   *mailjet.MessagesV31
	status string
	err    error
}

func (f *fakeMailjet) send(data *mailjet.MessagesV31) (*mailjet.ResultsV31, error) {
	f.sent = data
	if f.err != nil {
		return nil, f.err
	}
	return &mailjet.ResultsV31{ResultsV31: []mailjet.ResultV31{{Status: f.status}}}, nil
}

func TestMailjet_SendOTP(t *testing.T) {
	cfg := config.MailConfig{FromEmail: "no-reply@example.com", FromName: "RentMeRoom"}

	t.Run("builds message with code", func(t *testing.T) {
		fake := &fakeMailjet{status: "success"}
		m := NewMailjetWithSender(fake.send, cfg)
		require.NoError(t, m.SendOTP(context.Background(), "sita@example.com", "042817"))

		require.Len(t, fake.sent.Info, 1)
		msg := fake.sent.Info[0]
		assert.Equal(t, "no-reply@example.com", msg.From.Email)
		assert.Equal(t, "sita@example.com", (*msg.To)[0].Email)
		assert.Contains(t, msg.TextPart, "042817")
	})

	t.Run("non-success status is an error", func(t *testing.T) {
		m := NewMailjetWithSender((&fakeMailjet{status: "error"}).send, cfg)
		assert.Error(t, m.SendOTP(context.Background(), "sita@example.com", "000001"))
	})

	t.Run("transport error is wrapped", func(t *testing.T) {
		cause := errors.New("dial tcp: timeout")
		m := NewMailjetWithSender((&fakeMailjet{err: cause}).send, cfg)
		err := m.SendOTP(context.Background(), "sita@example.com", "000001")
		assert.ErrorIs(t, err, cause)
	})
}

func TestLog_DoesNotLogCodeAtInfo(t *testing.T) {
	var buf bytes.Buffer
	l := NewLog(slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})))
	require.NoError(t, l.SendOTP(context.Background(), "sita@example.com", "123456"))
	assert.NotContains(t, buf.String(), "123456")
	assert.NotContains(t, buf.String(), "sita@example.com")
}
