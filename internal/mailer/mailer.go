package mailer

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/smtp"
	"strconv"

	"shiptracker/internal/components/assert"
	"shiptracker/internal/components/telemetry"
	"shiptracker/internal/config"

	"github.com/jordan-wright/email"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("shiptracker.mailer")

// ErrNotify wraps any failure to deliver an email.
var ErrNotify = errors.New("notify error")

const report_mailer_send = "mailer.send"

// Mailer delivers a plain-text notification to the configured recipient.
//
// note: fault injection point
type Mailer interface {
	Send(ctx context.Context, subject, body string) error
}

// SMTP is a Mailer that submits mail over SMTP with STARTTLS, authenticating
// with the sender address and its app password.
type SMTP struct {
	// TLSConfig is used for STARTTLS, nil verifies the server certificate
	// against the system roots.
	TLSConfig *tls.Config

	cfg config.EmailConfig
	tel telemetry.API
}

func NewSMTP(cfg config.EmailConfig, tel telemetry.API) SMTP {
	assert.NotEmptyStr("email.from_email", cfg.FromEmail)
	assert.NotEmptyStr("email.to_email", cfg.ToEmail)
	assert.NotEmptyStr("email.server", cfg.Server)
	assert.NotNil("telemetry", tel)

	return SMTP{
		cfg: cfg,
		tel: telemetry.NewScopedAPI("mailer", tel),
	}
}

// Message builds the single-part text email that Send delivers.
func (m SMTP) Message(subject, body string) *email.Email {
	mail := email.NewEmail()
	mail.From = m.cfg.FromEmail
	mail.To = []string{m.cfg.ToEmail}
	mail.Subject = subject
	mail.Text = []byte(body)
	return mail
}

func (m SMTP) Addr() string {
	return m.cfg.Server + ":" + strconv.Itoa(m.cfg.Port)
}

func (m SMTP) Send(ctx context.Context, subject, body string) (err error) {
	ctx, span := tracer.Start(ctx, "Send")
	defer span.End()
	span.SetAttributes(attribute.String("smtp.addr", m.Addr()))

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrNotify, r)
		}
		if err != nil {
			m.tel.ReportBroken(report_mailer_send, err, subject)
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to send email")
		}
	}()

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrNotify, err)
	}

	tlsConfig := m.TLSConfig
	if tlsConfig == nil {
		tlsConfig = &tls.Config{ServerName: m.cfg.Server}
	}

	auth := smtp.PlainAuth("", m.cfg.FromEmail, m.cfg.AppPassword, m.cfg.Server)
	err = m.Message(subject, body).SendWithStartTLS(m.Addr(), auth, tlsConfig)
	if err != nil {
		return fmt.Errorf("%w: send to %s: %w", ErrNotify, m.Addr(), err)
	}

	m.tel.ReportDebug("email sent", subject)
	return nil
}
