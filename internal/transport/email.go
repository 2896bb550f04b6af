package transport

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/wneessen/go-mail"
	"go.uber.org/zap"

	"github.com/sells-group/outreach-cli/internal/config"
)

// SMTPSender implements EmailSender over authenticated SMTP.
type SMTPSender struct {
	client *mail.Client
	from   string
}

// NewSMTPSender creates an SMTP email sender from config.
func NewSMTPSender(cfg config.EmailConfig) (*SMTPSender, error) {
	if cfg.SMTPHost == "" {
		return nil, eris.New("transport: smtp host is required")
	}
	if cfg.FromAddress == "" {
		return nil, eris.New("transport: from address is required")
	}

	port := cfg.SMTPPort
	if port == 0 {
		port = 587
	}

	client, err := mail.NewClient(cfg.SMTPHost,
		mail.WithPort(port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(cfg.Username),
		mail.WithPassword(cfg.Password),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	)
	if err != nil {
		return nil, eris.Wrap(err, "transport: create smtp client")
	}

	return &SMTPSender{client: client, from: cfg.FromAddress}, nil
}

func (s *SMTPSender) Send(ctx context.Context, to, subject, body string) error {
	msg := mail.NewMsg()
	if err := msg.From(s.from); err != nil {
		return eris.Wrap(err, "transport: set from address")
	}
	if err := msg.To(to); err != nil {
		return eris.Wrapf(err, "transport: set recipient %s", to)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)

	if err := s.client.DialAndSendWithContext(ctx, msg); err != nil {
		return eris.Wrapf(err, "transport: send email to %s", to)
	}

	zap.L().Debug("email sent", zap.String("to", to), zap.String("subject", subject))
	return nil
}
