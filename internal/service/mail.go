package service

import (
	"context"
	"devfolio/portfolio-api/config"
	"errors"
	"fmt"

	"github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

// Mail is a single plain text message
type Mail struct {
	To      string
	Subject string
	Body    string
}

// Mailer delivers outgoing mail. Implementations must not retry on their
// own, a failed Send is reported to the caller as is.
type Mailer interface {
	Send(ctx context.Context, m Mail) error
}

type SMTPMailer struct {
	cfg config.MailConfig
}

func NewSMTPMailer(cfg config.MailConfig) (*SMTPMailer, error) {
	if cfg.Host == "" {
		return nil, errors.New("mail.host is required")
	}

	if cfg.From == "" {
		cfg.From = cfg.Username
	}

	if cfg.From == "" {
		return nil, errors.New("mail.from is required")
	}

	return &SMTPMailer{cfg: cfg}, nil
}

func (s *SMTPMailer) Send(ctx context.Context, m Mail) error {
	msg := mail.NewMsg()

	if s.cfg.FromName != "" {
		if err := msg.FromFormat(s.cfg.FromName, s.cfg.From); err != nil {
			return fmt.Errorf("failed to set sender address, %w", err)
		}
	} else if err := msg.From(s.cfg.From); err != nil {
		return fmt.Errorf("failed to set sender address, %w", err)
	}

	if err := msg.To(m.To); err != nil {
		return fmt.Errorf("failed to set recipient address, %w", err)
	}

	msg.Subject(m.Subject)
	msg.SetBodyString(mail.TypeTextPlain, m.Body)

	client, err := mail.NewClient(s.cfg.Host, s.options()...)
	if err != nil {
		return fmt.Errorf("failed to create mail client, %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("failed to send mail, %w", err)
	}

	zap.L().Debug("Mail sent", zap.String("subject", m.Subject))
	return nil
}

func (s *SMTPMailer) options() []mail.Option {
	opts := []mail.Option{
		mail.WithPort(s.cfg.Port),
	}

	if s.cfg.TLS {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
		// Implicit TLS on the submissions port, STARTTLS everywhere else
		if s.cfg.Port == 465 {
			opts = append(opts, mail.WithSSL())
		}
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
	}

	if s.cfg.Username != "" && s.cfg.Password != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.cfg.Username),
			mail.WithPassword(s.cfg.Password),
		)
	}

	return opts
}
