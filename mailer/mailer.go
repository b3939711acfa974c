// Package mailer delivers account notification email. Delivery is best
// effort: the registration flow enqueues a message and moves on, and a
// failed send is logged, never surfaced to the caller.
package mailer

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"net/http"
	"strings"

	"github.com/gofiber/template/django/v3"
	"github.com/goliatone/go-errors"
	mail "github.com/wneessen/go-mail"
)

//go:embed templates
var templatesFS embed.FS

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Sender delivers a single activation message.
type Sender interface {
	SendActivationLink(ctx context.Context, email, token string) error
}

// SMTPConfig holds the outbound mail options, built once at process start.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	// BaseURL is the public root the activation path is appended to,
	// e.g. https://api.imagix.dev
	BaseURL string
}

// SMTPSender renders the activation email and sends it over SMTP.
type SMTPSender struct {
	cfg    SMTPConfig
	client *mail.Client
	views  *django.Engine
}

// NewSMTPSender creates a sender against the configured SMTP relay.
func NewSMTPSender(cfg SMTPConfig) (*SMTPSender, error) {
	client, err := mail.NewClient(cfg.Host,
		mail.WithPort(cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(cfg.Username),
		mail.WithPassword(cfg.Password),
	)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to create SMTP client")
	}

	views := django.NewFileSystem(http.FS(templatesFS), ".django")
	if err := views.Load(); err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to load mail templates")
	}

	return &SMTPSender{
		cfg:    cfg,
		client: client,
		views:  views,
	}, nil
}

// SendActivationLink renders and delivers the activation email for a newly
// registered address.
func (s *SMTPSender) SendActivationLink(ctx context.Context, email, token string) error {
	body, err := s.renderActivation(email, token)
	if err != nil {
		return err
	}

	msg := mail.NewMsg()
	if err := msg.From(s.cfg.From); err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "invalid mail sender address")
	}
	if err := msg.To(email); err != nil {
		return errors.Wrap(err, errors.CategoryBadInput, "invalid mail recipient address")
	}

	msg.Subject("Activate your Imagix account")
	msg.SetBodyString(mail.TypeTextHTML, body)

	if err := s.client.DialAndSendWithContext(ctx, msg); err != nil {
		return errors.Wrap(err, errors.CategoryOperation, "failed to send activation email")
	}

	return nil
}

// ActivationURL builds the link embedded in the activation email. The path
// matches the activate-by-token endpoint.
func (s *SMTPSender) ActivationURL(token string) string {
	base := strings.TrimRight(s.cfg.BaseURL, "/")
	return fmt.Sprintf("%s/api/v1/user/activate/%s", base, token)
}

func (s *SMTPSender) renderActivation(email, token string) (string, error) {
	var buf bytes.Buffer
	err := s.views.Render(&buf, "templates/activation_email", map[string]any{
		"email": email,
		"link":  s.ActivationURL(token),
	})
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to render activation email")
	}

	return buf.String(), nil
}

var _ Sender = (*SMTPSender)(nil)
