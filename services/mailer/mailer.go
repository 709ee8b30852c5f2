// Package mailer sends newsletter mail over SMTP.
package mailer

import (
	"errors"
	"fmt"

	"github.com/cyberbrief/newsroom/config"
	"gopkg.in/gomail.v2"
)

var ErrNotConfigured = errors.New("smtp is not configured")

const welcomeSubject = "Welcome to the CyberBrief newsletter"

type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

type Mailer struct {
	from   string
	dialer dialer
}

// New returns ErrNotConfigured unless host and sender are both set.
func New(cfg config.SMTPConfig) (*Mailer, error) {
	if cfg.Host == "" || cfg.SenderEmail == "" {
		return nil, ErrNotConfigured
	}
	return &Mailer{
		from:   cfg.SenderEmail,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
	}, nil
}

// WelcomeMessage builds the confirmation mail for a new subscriber.
func (m *Mailer) WelcomeMessage(toEmail string) *gomail.Message {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", toEmail)
	msg.SetHeader("Subject", welcomeSubject)
	msg.SetBody("text/plain", "Thanks for subscribing. You will receive the latest cybersecurity and technology briefings at "+toEmail+".")
	return msg
}

func (m *Mailer) SendWelcome(toEmail string) error {
	if err := m.dialer.DialAndSend(m.WelcomeMessage(toEmail)); err != nil {
		return fmt.Errorf("Mailer.SendWelcome: %w", err)
	}
	return nil
}
