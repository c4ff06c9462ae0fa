package email

import (
	"gopkg.in/gomail.v2"
)

func newMessage(email string, subject string, htmlContent string) *gomail.Message {
	msg := gomail.NewMessage()

	from := globalConfig.SMTP.Identity
	if len(from) == 0 {
		from = globalConfig.SMTP.UserName
	}

	msg.SetHeader("From", from)
	msg.SetHeader("To", email)
	msg.SetHeader("Subject", subject)

	msg.SetBody("text/html", htmlContent)
	return msg
}

func SendHtml(email string, subject string, htmlContent string) error {
	if !Enabled() {
		return ErrNotConfigured
	}

	dialer := gomail.NewDialer(
		globalConfig.SMTP.Host,
		globalConfig.SMTP.Port,
		globalConfig.SMTP.UserName,
		globalConfig.SMTP.Password)

	if err := dialer.DialAndSend(newMessage(email, subject, htmlContent)); err != nil {
		return err
	}

	return nil
}
