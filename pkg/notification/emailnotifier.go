package notification

import (
	"crypto/tls"
	"log/slog"

	"github.com/wneessen/go-mail"

	"github.com/verisafe/authcore/pkg/config"
)

// EmailNotifier sends security alerts over SMTP.
type EmailNotifier struct {
	cfg    config.EmailConfig
	client *mail.Client
}

// NewEmailNotifier creates an SMTP-backed notifier from email config.
func NewEmailNotifier(cfg config.EmailConfig) (*EmailNotifier, error) {
	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTimeout(30),
	}

	if cfg.Username != "" && cfg.Password != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthLogin),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}

	if cfg.NoTLS {
		opts = append(opts,
			mail.WithTLSConfig(&tls.Config{InsecureSkipVerify: true}),
			mail.WithTLSPolicy(mail.NoTLS),
		)
	} else {
		opts = append(opts,
			mail.WithTLSPolicy(mail.TLSMandatory),
		)
	}

	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		slog.Error("Failed to create mail client", "err", err)
		return nil, err
	}

	return &EmailNotifier{cfg: cfg, client: client}, nil
}

// SendSecurityAlert renders and sends one alert mail.
func (e *EmailNotifier) SendSecurityAlert(alert SecurityAlert) error {
	subject, err := subjectFor(alert.Kind)
	if err != nil {
		return err
	}

	msg := mail.NewMsg()
	if err := msg.From(e.cfg.From); err != nil {
		slog.Error("Failed to set from address", "err", err)
		return err
	}
	if err := msg.To(alert.Email); err != nil {
		slog.Error("Failed to set to address", "err", err)
		return err
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, bodyFor(alert))

	if err := e.client.DialAndSend(msg); err != nil {
		slog.Error("Failed to send security alert", "err", err, "kind", alert.Kind)
		return err
	}

	slog.Info("Security alert sent", "kind", alert.Kind, "host", e.cfg.Host)
	return nil
}

// NoopNotifier discards alerts. Useful where no SMTP server is wired.
type NoopNotifier struct{}

// SendSecurityAlert implements Notifier.
func (NoopNotifier) SendSecurityAlert(alert SecurityAlert) error {
	return nil
}
