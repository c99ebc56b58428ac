package mail

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

type SendGridMailer struct {
	client *sendgrid.Client
	from   *sgmail.Email
}

func NewSendGridMailer(apiKey, sender string) *SendGridMailer {
	return &SendGridMailer{
		client: sendgrid.NewSendClient(apiKey),
		from:   sgmail.NewEmail("", sender),
	}
}

func (m *SendGridMailer) Send(ctx context.Context, to, subject, plain, html string) error {
	msg := sgmail.NewSingleEmail(m.from, subject, sgmail.NewEmail("", to), plain, html)

	resp, err := m.client.SendWithContext(ctx, msg)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("send email: sendgrid responded %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}

// APIキーが無いとき。送らずにログだけ出す。
type LogMailer struct {
	logger *slog.Logger
}

func NewLogMailer(logger *slog.Logger) *LogMailer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogMailer{logger: logger}
}

func (m *LogMailer) Send(ctx context.Context, to, subject, plain, html string) error {
	m.logger.InfoContext(ctx, "email skipped", "to", to, "subject", subject)
	return nil
}
