// Package email implementa el colaborador de envío de emails.
// Nunca se invoca inline desde un request: los services encolan un EmailJob
// y el worker (cmd/emailworker) es quien llama acá.
package email

import (
	"context"
	"crypto/tls"
	"fmt"
	"strconv"

	mail "github.com/go-mail/mail"

	"github.com/dropDatabas3/gatekeep/internal/domain/repository"
	"github.com/dropDatabas3/gatekeep/internal/domain/types"
	"github.com/dropDatabas3/gatekeep/internal/observability/logger"
)

// SMTPSender envía emails por SMTP.
type SMTPSender struct {
	Host               string
	Port               int
	From               string
	User               string
	Pass               string
	TLSMode            string // "auto" | "starttls" | "ssl" | "none"
	InsecureSkipVerify bool
}

// SenderFromSettings arma un sender con la configuración SMTP que vive en
// application_settings, igual que el resto de settings de la app.
func SenderFromSettings(ctx context.Context, settings repository.SettingRepository) (*SMTPSender, error) {
	host, err := settings.Get(ctx, types.SettingSMTPServer)
	if err != nil {
		return nil, fmt.Errorf("email: smtp_server setting: %w", err)
	}
	portStr, err := settings.Get(ctx, types.SettingSMTPPort)
	if err != nil {
		return nil, fmt.Errorf("email: smtp_port setting: %w", err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("email: smtp_port %q: %w", portStr, err)
	}
	user, err := settings.Get(ctx, types.SettingSMTPUsername)
	if err != nil {
		return nil, fmt.Errorf("email: smtp_username setting: %w", err)
	}
	pass, err := settings.Get(ctx, types.SettingSMTPPassword)
	if err != nil {
		return nil, fmt.Errorf("email: smtp_password setting: %w", err)
	}
	return &SMTPSender{
		Host:    host,
		Port:    port,
		From:    user,
		User:    user,
		Pass:    pass,
		TLSMode: "ssl",
	}, nil
}

// Send envía un email HTML a los destinatarios dados.
func (s *SMTPSender) Send(recipients []string, subject, htmlBody string) error {
	log := logger.L().With(
		logger.Component("email.smtp"),
		logger.String("host", s.Host),
		logger.Int("port", s.Port),
		logger.Count(len(recipients)),
	)

	m := mail.NewMessage()
	m.SetHeader("From", s.From)
	m.SetHeader("To", recipients...)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", htmlBody)

	d := mail.NewDialer(s.Host, s.Port, s.User, s.Pass)
	d.TLSConfig = &tls.Config{
		ServerName:         s.Host,
		InsecureSkipVerify: s.InsecureSkipVerify, // solo dev
	}

	switch s.TLSMode {
	case "ssl":
		d.SSL = true
	case "none":
		d.TLSConfig = &tls.Config{InsecureSkipVerify: s.InsecureSkipVerify}
	default:
		// "auto"/"starttls": go-mail negocia STARTTLS si corresponde
	}

	if err := d.DialAndSend(m); err != nil {
		log.Error("smtp send failed", logger.Err(err))
		return fmt.Errorf("smtp send: %w", err)
	}

	log.Info("email sent")
	return nil
}
