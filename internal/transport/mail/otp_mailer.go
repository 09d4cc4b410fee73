package mail

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strings"
)

// OTPMailer delivers one-time codes over SMTP. One instance is constructed at
// startup and shared by every flow; it is safe for concurrent use.
type OTPMailer struct {
	host     string
	port     string
	username string
	password string
	from     string
}

func NewOTPMailer(host, port, username, password, from string) *OTPMailer {
	return &OTPMailer{
		host:     strings.TrimSpace(host),
		port:     strings.TrimSpace(port),
		username: username,
		password: password,
		from:     strings.TrimSpace(from),
	}
}

// SendVerificationCode emails the code issued during signup and resend.
func (m *OTPMailer) SendVerificationCode(ctx context.Context, email, otp string) error {
	return m.send(ctx, email, "Verify Your Email", otp)
}

// SendPasswordResetCode emails the code issued by the forgot-password flow.
func (m *OTPMailer) SendPasswordResetCode(ctx context.Context, email, otp string) error {
	return m.send(ctx, email, "Password Reset", otp)
}

func (m *OTPMailer) send(ctx context.Context, email, subject, otp string) error {
	if m == nil {
		return errors.New("mailer not configured")
	}
	if m.host == "" || m.port == "" || m.from == "" {
		return errors.New("mailer missing configuration")
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	body := fmt.Sprintf("<p>Your OTP code is <strong>%s</strong>. It will expire in 15 minutes.</p>", otp)

	message := strings.Builder{}
	message.WriteString(fmt.Sprintf("From: %s\r\n", m.from))
	message.WriteString(fmt.Sprintf("To: %s\r\n", email))
	message.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	message.WriteString("MIME-Version: 1.0\r\n")
	message.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	message.WriteString("Content-Transfer-Encoding: 7bit\r\n\r\n")
	message.WriteString(body)
	message.WriteString("\r\n")

	addr := net.JoinHostPort(m.host, m.port)
	var auth smtp.Auth
	if m.username != "" || m.password != "" {
		auth = smtp.PlainAuth("", m.username, m.password, m.host)
	}

	return smtp.SendMail(addr, auth, m.from, []string{email}, []byte(message.String()))
}
