package notify

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"
)

// SMTPConfig carries the mail relay settings for OTP delivery.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPSender delivers OTP codes over a configured SMTP relay.
type SMTPSender struct {
	cfg SMTPConfig
}

// NewSMTPSender creates the production OTP delivery adapter.
func NewSMTPSender(cfg SMTPConfig) *SMTPSender {
	return &SMTPSender{cfg: cfg}
}

func (s *SMTPSender) SendOTP(_ context.Context, email, code string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.cfg.From)
	m.SetHeader("To", email)
	m.SetHeader("Subject", "Your login verification code")
	m.SetBody("text/plain", fmt.Sprintf(
		"Your login verification code is: %s\n\nThis code expires shortly and can be used only once.", code))

	d := gomail.NewDialer(s.cfg.Host, s.cfg.Port, s.cfg.Username, s.cfg.Password)
	return d.DialAndSend(m)
}
