// Package notify turns user lifecycle events into email notifications.
package notify

import (
	"context"

	"github.com/joeshaw/envdecode"
	"github.com/wneessen/go-mail"
)

// Message is a plain-text email.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Mailer sends messages. Implementations must be safe for concurrent use.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPConfig configures the SMTP mailer. Defaults can be loaded via envdecode.
type SMTPConfig struct {
	Host     string `env:"SMTP_HOST,default=localhost"`
	Port     int    `env:"SMTP_PORT,default=587"`
	Username string `env:"SMTP_USERNAME"`
	Password string `env:"SMTP_PASSWORD"`
	From     string `env:"SMTP_FROM,default=no-reply@localhost"`
}

// SMTPConfigFromEnv populates the config from the environment.
func SMTPConfigFromEnv() (SMTPConfig, error) {
	var cfg SMTPConfig
	err := envdecode.Decode(&cfg)
	return cfg, err
}

// SMTPMailer delivers messages over SMTP.
type SMTPMailer struct {
	client *mail.Client
	from   string
}

// NewSMTPMailer creates an SMTP mailer.
func NewSMTPMailer(cfg SMTPConfig) (*SMTPMailer, error) {
	opts := []mail.Option{
		mail.WithPort(cfg.Port),
	}

	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}

	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, err
	}

	return &SMTPMailer{
		client: client,
		from:   cfg.From,
	}, nil
}

// Send delivers the message.
func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	email := mail.NewMsg()
	if err := email.From(m.from); err != nil {
		return err
	}
	if err := email.To(msg.To); err != nil {
		return err
	}
	email.Subject(msg.Subject)
	email.SetBodyString(mail.TypeTextPlain, msg.Body)

	return m.client.DialAndSendWithContext(ctx, email)
}

var _ Mailer = (*SMTPMailer)(nil)
