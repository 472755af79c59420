package services

import (
	"crypto/tls"
	"errors"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/jmcardona/atalaya/backend/internal/config"
	"github.com/jmcardona/atalaya/backend/internal/logger"
)

var ErrMailNotConfigured = errors.New("smtp not configured")

// ContactMessage is a submission from the contact form.
type ContactMessage struct {
	Name    string
	Email   string
	Subject string
	Body    string
}

// MailService delivers contact-form messages over SMTP.
type MailService struct {
	cfg config.SMTPConfig
}

// NewMailService creates a mail service from static config.
func NewMailService(cfg config.SMTPConfig) *MailService {
	return &MailService{cfg: cfg}
}

// Configured reports whether outbound mail can be sent.
func (s *MailService) Configured() bool {
	return s.cfg.Host != "" && s.cfg.FromAddress != "" && s.cfg.ToAddress != ""
}

// SendContact delivers msg to the configured recipient.
func (s *MailService) SendContact(msg ContactMessage) error {
	if !s.Configured() {
		return ErrMailNotConfigured
	}

	subject := msg.Subject
	if subject == "" {
		subject = "Nuevo mensaje de contacto"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", s.cfg.FromAddress)
	fmt.Fprintf(&b, "To: %s\r\n", s.cfg.ToAddress)
	fmt.Fprintf(&b, "Reply-To: %s\r\n", msg.Email)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")
	fmt.Fprintf(&b, "Nombre: %s\nCorreo: %s\n\n%s\n", msg.Name, msg.Email, msg.Body)

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	if err := s.send(addr, []byte(b.String())); err != nil {
		return fmt.Errorf("send contact mail: %w", err)
	}

	logger.WithFields(map[string]any{"from": msg.Email}).Info("contact message delivered")
	return nil
}

func (s *MailService) send(addr string, body []byte) error {
	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}

	switch s.cfg.Encryption {
	case "ssl":
		return s.sendImplicitTLS(addr, auth, body)
	default:
		// starttls and none both start plaintext; net/smtp upgrades via
		// STARTTLS automatically when the server advertises it.
		return smtp.SendMail(addr, auth, s.cfg.FromAddress, []string{s.cfg.ToAddress}, body)
	}
}

func (s *MailService) sendImplicitTLS(addr string, auth smtp.Auth, body []byte) error {
	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: s.cfg.Host})
	if err != nil {
		return err
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		return err
	}
	defer client.Close()

	if auth != nil {
		if err := client.Auth(auth); err != nil {
			return err
		}
	}
	if err := client.Mail(s.cfg.FromAddress); err != nil {
		return err
	}
	if err := client.Rcpt(s.cfg.ToAddress); err != nil {
		return err
	}
	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(body); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return client.Quit()
}
