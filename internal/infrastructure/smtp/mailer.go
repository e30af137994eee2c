// Package smtp is the email channel handler.
package smtp

import (
	"context"
	"fmt"

	"github.com/go-notify-api/internal/config"
	"github.com/go-notify-api/internal/domain"
	"github.com/wneessen/go-mail"
)

type sendClient interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

// Mailer delivers messages handed to the email destination.
type Mailer struct {
	from      string
	newClient func() (sendClient, error)
}

func NewMailer(cfg *config.Config) *Mailer {
	policy, implicitTLS := tlsFromEncryption(cfg.SMTPEncryption)
	opts := []mail.Option{
		mail.WithPort(cfg.SMTPPort),
		mail.WithTLSPolicy(policy),
	}
	if implicitTLS {
		opts = append(opts, mail.WithSSL())
	}
	if cfg.SMTPUsername != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.SMTPUsername),
			mail.WithPassword(cfg.SMTPPassword),
		)
	}
	return &Mailer{
		from: cfg.SMTPFrom,
		newClient: func() (sendClient, error) {
			return mail.NewClient(cfg.SMTPHost, opts...)
		},
	}
}

// Handle sends msg to the address to. The body is sent as HTML when msg.HTML is set.
func (m *Mailer) Handle(ctx context.Context, to string, msg domain.Message) error {
	mm, err := m.buildMsg(to, msg)
	if err != nil {
		return err
	}
	c, err := m.newClient()
	if err != nil {
		return fmt.Errorf("failed to create mail client: %w", err)
	}
	if err := c.DialAndSendWithContext(ctx, mm); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	return nil
}

func (m *Mailer) buildMsg(to string, msg domain.Message) (*mail.Msg, error) {
	mm := mail.NewMsg()
	if err := mm.From(m.from); err != nil {
		return nil, fmt.Errorf("invalid from address: %w", err)
	}
	if err := mm.To(to); err != nil {
		return nil, fmt.Errorf("invalid recipient %q: %w", to, domain.ErrBadRequest)
	}
	mm.Subject(msg.Subject)
	if msg.HTML {
		mm.SetBodyString(mail.TypeTextHTML, msg.Body)
	} else {
		mm.SetBodyString(mail.TypeTextPlain, msg.Body)
	}
	return mm, nil
}

// tlsFromEncryption converts the SMTP_ENCRYPTION value to a go-mail TLSPolicy
// and reports whether the connection must start in TLS (SMTPS).
// "starttls" refuses to fall back to plaintext when the server lacks STARTTLS.
func tlsFromEncryption(enc string) (policy mail.TLSPolicy, implicitTLS bool) {
	switch enc {
	case "ssl_tls":
		return mail.TLSMandatory, true
	case "starttls":
		return mail.TLSMandatory, false
	default:
		return mail.NoTLS, false
	}
}
