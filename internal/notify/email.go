package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"
)

// EmailConfig holds SendGrid settings.  An empty APIKey puts the notifier
// in mock mode: sends are logged but not delivered, which is what dev and
// test environments want.
type EmailConfig struct {
	APIKey    string
	FromEmail string
	FromName  string
}

// EmailNotifier delivers passcodes over SendGrid.
type EmailNotifier struct {
	logger   *zap.Logger
	config   EmailConfig
	client   *sendgrid.Client
	mockMode bool
}

func NewEmailNotifier(logger *zap.Logger, cfg EmailConfig) *EmailNotifier {
	mockMode := cfg.APIKey == ""

	var client *sendgrid.Client
	if !mockMode {
		client = sendgrid.NewSendClient(cfg.APIKey)
	}

	return &EmailNotifier{
		logger:   logger,
		config:   cfg,
		client:   client,
		mockMode: mockMode,
	}
}

func (n *EmailNotifier) SendPasscode(ctx context.Context, p Passcode) error {
	if p.Email == "" {
		return nil
	}

	subject := fmt.Sprintf("Your door code for %s", p.BuildingName)
	text := fmt.Sprintf(
		"Hello %s,\n\nYour door entry code is %s.\nIt is valid from %s until %s.\n",
		p.RecipientName, p.Code,
		p.ValidFrom.Format(time.RFC1123), p.ValidUntil.Format(time.RFC1123),
	)

	if n.mockMode {
		n.logger.Info("passcode email sent (mock)",
			zap.String("to", p.Email),
			zap.String("subject", subject))
		return nil
	}

	from := mail.NewEmail(n.config.FromName, n.config.FromEmail)
	to := mail.NewEmail(p.RecipientName, p.Email)
	msg := mail.NewSingleEmail(from, subject, to, text, "")

	sendCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	resp, err := n.client.SendWithContext(sendCtx, msg)
	if err != nil {
		return fmt.Errorf("send passcode email: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("send passcode email: status %d", resp.StatusCode)
	}

	n.logger.Info("passcode email sent",
		zap.String("to", p.Email),
		zap.Int("status_code", resp.StatusCode))
	return nil
}
