// Package email delivers one-time registration codes.
package email

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mailjet/mailjet-apiv3-go"

	"rentmeroom/internal/platform/config"
	emailutil "rentmeroom/pkg/email"
)

const otpSubject = "Your RentMeRoom verification code"

// SendFunc submits a batch to the Mailjet v3.1 send API.
type SendFunc func(data *mailjet.MessagesV31) (*mailjet.ResultsV31, error)

// Mailjet sends OTP emails through the Mailjet v3.1 send API.
type Mailjet struct {
	send      SendFunc
	fromEmail string
	fromName  string
}

func NewMailjet(cfg config.MailConfig) *Mailjet {
	client := mailjet.NewMailjetClient(cfg.APIKey, cfg.SecretKey)
	return NewMailjetWithSender(func(data *mailjet.MessagesV31) (*mailjet.ResultsV31, error) {
		return client.SendMailV31(data)
	}, cfg)
}

func NewMailjetWithSender(send SendFunc, cfg config.MailConfig) *Mailjet {
	return &Mailjet{send: send, fromEmail: cfg.FromEmail, fromName: cfg.FromName}
}

func (m *Mailjet) SendOTP(ctx context.Context, to, code string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	messages := mailjet.MessagesV31{Info: []mailjet.InfoMessagesV31{{
		From:     &mailjet.RecipientV31{Email: m.fromEmail, Name: m.fromName},
		To:       &mailjet.RecipientsV31{mailjet.RecipientV31{Email: to}},
		Subject:  otpSubject,
		TextPart: fmt.Sprintf("Your verification code is %s. It expires in 5 minutes.", code),
		HTMLPart: fmt.Sprintf("<p>Your verification code is <strong>%s</strong>.</p><p>It expires in 5 minutes.</p>", code),
	}}}
	res, err := m.send(&messages)
	if err != nil {
		return fmt.Errorf("mailjet send: %w", err)
	}
	for _, r := range res.ResultsV31 {
		if r.Status != "success" {
			return fmt.Errorf("mailjet send: status %s", r.Status)
		}
	}
	return nil
}

// Log writes a line instead of sending mail. The code itself is only logged at
// debug level so it never lands in production logs.
type Log struct {
	logger *slog.Logger
}

func NewLog(logger *slog.Logger) *Log {
	return &Log{logger: logger}
}

func (l *Log) SendOTP(ctx context.Context, to, code string) error {
	l.logger.InfoContext(ctx, "otp email suppressed: no mail provider configured", "to", emailutil.Mask(to))
	l.logger.DebugContext(ctx, "otp code", "to", emailutil.Mask(to), "code", code)
	return nil
}
