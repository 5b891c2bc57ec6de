// internal/pkg/email/smtp.go
package email

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/undercontrol/storefront/internal/pkg/apperror"
)

// sendSMTPEmail sends email over SMTP (Gmail, Outlook, or self-hosted). SMTP
// reports no message id, so the generated Message-ID header is returned.
func (s *EmailService) sendSMTPEmail(ctx context.Context, email *Email) (string, error) {
	const op = "email.smtp"
	ec := s.config.External.Email

	auth := smtp.PlainAuth("", ec.SMTPUsername, ec.SMTPPassword, ec.SMTPHost)

	messageID := fmt.Sprintf("<%s@%s>", uuid.NewString(), ec.SMTPHost)
	msg := buildMIMEMessage(s.fromAddress(), ec.ReplyTo, messageID, email)
	serverAddr := net.JoinHostPort(ec.SMTPHost, fmt.Sprint(ec.SMTPPort))

	var err error
	if ec.SMTPUseTLS {
		err = s.sendSMTPWithTLS(ctx, serverAddr, auth, ec.FromEmail, email.To, msg)
	} else {
		err = smtp.SendMail(serverAddr, auth, ec.FromEmail, email.To, msg)
	}
	if err != nil {
		var netErr net.Error
		switch {
		case strings.Contains(err.Error(), "authentication"):
			return "", apperror.Wrap(apperror.KindConfiguration, op, err)
		case errors.As(err, &netErr):
			return "", apperror.Wrap(apperror.KindTransport, op, err)
		default:
			return "", apperror.Wrap(apperror.KindProvider, op, err)
		}
	}
	return messageID, nil
}

// buildMIMEMessage writes headers in a fixed order followed by the HTML body
func buildMIMEMessage(from, replyTo, messageID string, email *Email) []byte {
	var msg bytes.Buffer
	header := func(key, value string) {
		msg.WriteString(key + ": " + value + "\r\n")
	}

	header("From", from)
	header("To", strings.Join(email.To, ", "))
	header("Subject", email.Subject)
	header("Date", time.Now().UTC().Format(time.RFC1123Z))
	header("Message-ID", messageID)
	if replyTo != "" {
		header("Reply-To", replyTo)
	}
	header("MIME-Version", "1.0")
	header("Content-Type", `text/html; charset="utf-8"`)
	msg.WriteString("\r\n")
	msg.WriteString(email.HTMLContent)

	return msg.Bytes()
}

// sendSMTPWithTLS sends email over an implicit TLS connection
func (s *EmailService) sendSMTPWithTLS(ctx context.Context, serverAddr string, auth smtp.Auth, from string, to []string, msg []byte) error {
	dialer := &tls.Dialer{
		NetDialer: &net.Dialer{Timeout: s.client.Timeout},
		Config:    &tls.Config{ServerName: s.config.External.Email.SMTPHost},
	}

	conn, err := dialer.DialContext(ctx, "tcp", serverAddr)
	if err != nil {
		return fmt.Errorf("failed to create TLS connection: %w", err)
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, s.config.External.Email.SMTPHost)
	if err != nil {
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}
	defer client.Quit()

	if auth != nil {
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("SMTP authentication failed: %w", err)
		}
	}

	if err := client.Mail(from); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}

	for _, addr := range to {
		if err := client.Rcpt(addr); err != nil {
			return fmt.Errorf("failed to set recipient %s: %w", addr, err)
		}
	}

	writer, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to send DATA command: %w", err)
	}

	if _, err := writer.Write(msg); err != nil {
		writer.Close()
		return fmt.Errorf("failed to write email content: %w", err)
	}
	return writer.Close()
}
