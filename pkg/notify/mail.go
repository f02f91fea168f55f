package notify

import (
	"context"
	"strconv"

	"MealVote-Backend/internal/utils"

	"gopkg.in/gomail.v2"
)

type mailNotifier struct {
	host     string
	port     string
	email    string
	password string
}

func NewMailNotifier() Notifier {
	return &mailNotifier{
		host:     utils.GetConfig("SMTP_HOST"),
		port:     utils.GetConfig("SMTP_PORT"),
		email:    utils.GetConfig("SMTP_AUTH_EMAIL"),
		password: utils.GetConfig("SMTP_AUTH_PASSWORD"),
	}
}

func (m *mailNotifier) Send(ctx context.Context, to string, subject string, body string) error {
	mailer := gomail.NewMessage()
	mailer.SetHeader("From", m.email)
	mailer.SetHeader("To", to)
	mailer.SetHeader("Subject", subject)
	mailer.SetBody("text/plain", body)

	port, err := strconv.Atoi(m.port)
	if err != nil {
		return err
	}

	dialer := gomail.NewDialer(m.host, port, m.email, m.password)
	return dialer.DialAndSend(mailer)
}
