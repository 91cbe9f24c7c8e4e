package mail

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"

	"gopkg.in/gomail.v2"

	"github.com/jhoicas/ereceipt-api/internal/application/notification"
	"github.com/jhoicas/ereceipt-api/pkg/config"
)

var _ notification.EmailSender = (*SMTPSender)(nil)

// ProviderName nombre reportado en /notifications/config.
const ProviderName = "Gmail SMTP"

// SMTPSender envía correos por SMTP con gomail (STARTTLS en 587, TLS implícito en 465).
type SMTPSender struct {
	cfg  config.MailConfig
	send func(*gomail.Message) error
}

// NewSMTPSender construye el adaptador. Sin credenciales queda como no configurado.
func NewSMTPSender(cfg config.MailConfig) *SMTPSender {
	d := gomail.NewDialer(cfg.Server, cfg.Port, cfg.Username, cfg.Password)
	d.SSL = cfg.Port == 465
	if cfg.UseTLS {
		d.TLSConfig = &tls.Config{ServerName: cfg.Server, MinVersion: tls.VersionTLS12}
	}
	return &SMTPSender{cfg: cfg, send: func(m *gomail.Message) error { return d.DialAndSend(m) }}
}

// Configured indica si hay usuario y contraseña SMTP.
func (s *SMTPSender) Configured() bool { return s.cfg.Configured() }

// Provider nombre del proveedor.
func (s *SMTPSender) Provider() string { return ProviderName }

// Send arma el mensaje multipart (texto + HTML + adjuntos) y lo envía.
// gomail no acepta contexto: se corta por ctx o por MailConfig.Timeout, lo que llegue antes.
func (s *SMTPSender) Send(ctx context.Context, msg notification.EmailMessage) error {
	if !s.Configured() {
		return fmt.Errorf("smtp: credenciales no configuradas")
	}
	m := buildMessage(s.cfg.Sender(), msg)

	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}
	done := make(chan error, 1)
	go func() { done <- s.send(m) }()
	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("smtp: %w", err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("smtp: %w", ctx.Err())
	}
}

func buildMessage(from string, msg notification.EmailMessage) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", from)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.Text)
	if msg.HTML != "" {
		m.AddAlternative("text/html", msg.HTML)
	}
	for _, a := range msg.Attachments {
		data := a.Data
		m.Attach(a.Filename,
			gomail.SetCopyFunc(func(w io.Writer) error {
				_, err := w.Write(data)
				return err
			}),
			gomail.SetHeader(map[string][]string{"Content-Type": {a.ContentType}}),
		)
	}
	return m
}
