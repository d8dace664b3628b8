package mailer

import (
	"bytes"
	"context"
	"fmt"

	mail "github.com/wneessen/go-mail"

	"pricetrawl/config"
	"pricetrawl/logger"
	"pricetrawl/pkg/errors"
)

// Attachment is a file delivered with a report email
type Attachment struct {
	Filename string
	Data     []byte
}

// Mailer delivers report emails over SMTP with STARTTLS
type Mailer struct {
	cfg config.SMTPConfig
	log *logger.Logger
}

// New creates a Mailer for the given SMTP configuration
func New(cfg config.SMTPConfig) *Mailer {
	return &Mailer{
		cfg: cfg,
		log: logger.ForMailer(),
	}
}

// Send delivers a plain-text message with the given attachments
func (m *Mailer) Send(ctx context.Context, subject, body string, attachments []Attachment) error {
	if !m.cfg.Complete() {
		return errors.NewConfig("smtp configuration incomplete; cannot send email", nil)
	}

	msg := mail.NewMsg()
	if err := msg.From(m.cfg.From); err != nil {
		return fmt.Errorf("failed to set sender address: %w", err)
	}
	if err := msg.To(m.cfg.To); err != nil {
		return fmt.Errorf("failed to set recipient address: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)

	for _, att := range attachments {
		if err := msg.AttachReader(att.Filename, bytes.NewReader(att.Data)); err != nil {
			return fmt.Errorf("failed to attach %s: %w", att.Filename, err)
		}
	}

	client, err := mail.NewClient(m.cfg.Host,
		mail.WithPort(m.cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(m.cfg.User),
		mail.WithPassword(m.cfg.Pass),
		mail.WithTLSPolicy(mail.TLSMandatory),
	)
	if err != nil {
		return fmt.Errorf("failed to create smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	m.log.Info().
		Str("to", m.cfg.To).
		Str("subject", subject).
		Int("attachments", len(attachments)).
		Msg("Report email sent")
	return nil
}
