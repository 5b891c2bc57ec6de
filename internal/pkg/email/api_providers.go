// internal/pkg/email/api_providers.go
package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/undercontrol/storefront/internal/pkg/apperror"
)

// Resend API structures
type ResendEmailRequest struct {
	From    string      `json:"from"`
	To      []string    `json:"to"`
	Subject string      `json:"subject"`
	HTML    string      `json:"html"`
	ReplyTo string      `json:"reply_to,omitempty"`
	Tags    []ResendTag `json:"tags,omitempty"`
}

type ResendTag struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type ResendResponse struct {
	ID string `json:"id"`
}

type resendErrorResponse struct {
	StatusCode int    `json:"statusCode"`
	Name       string `json:"name"`
	Message    string `json:"message"`
}

// SendGrid API structures
type SendGridEmailRequest struct {
	Personalizations []SendGridPersonalization `json:"personalizations"`
	From             SendGridEmail             `json:"from"`
	Subject          string                    `json:"subject"`
	Content          []SendGridContent         `json:"content"`
	ReplyTo          *SendGridEmail            `json:"reply_to,omitempty"`
	Categories       []string                  `json:"categories,omitempty"`
}

type SendGridPersonalization struct {
	To []SendGridEmail `json:"to"`
}

type SendGridEmail struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type SendGridContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// MailerSend API structures
type MailerSendRequest struct {
	From    MailerSendEmail   `json:"from"`
	To      []MailerSendEmail `json:"to"`
	Subject string            `json:"subject"`
	HTML    string            `json:"html"`
	ReplyTo *MailerSendEmail  `json:"reply_to,omitempty"`
	Tags    []string          `json:"tags,omitempty"`
}

type MailerSendEmail struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// sendResendEmail sends email using the Resend API. The idempotency key
// makes a retried send with the same order id deliver only once.
func (s *EmailService) sendResendEmail(ctx context.Context, email *Email) (string, error) {
	const op = "email.resend"

	reqData := ResendEmailRequest{
		From:    s.fromAddress(),
		To:      email.To,
		Subject: email.Subject,
		HTML:    email.HTMLContent,
		ReplyTo: s.config.External.Email.ReplyTo,
		Tags:    []ResendTag{{Name: "type", Value: string(email.Type)}},
	}

	headers := map[string]string{}
	if email.IdempotencyKey != "" {
		headers["Idempotency-Key"] = email.IdempotencyKey
	}

	resp, body, err := s.postJSON(ctx, op, s.endpoints.resend, reqData, headers)
	if err != nil {
		return "", err
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr resendErrorResponse
		_ = json.Unmarshal(body, &apiErr)
		detail := apiErr.Message
		if detail == "" {
			detail = snippet(body)
		}
		return "", apperror.New(apperror.KindProvider, op,
			fmt.Sprintf("Resend API returned status %d: %s", resp.StatusCode, detail))
	}

	var result ResendResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", apperror.Wrapf(apperror.KindProvider, op, err, "unreadable Resend response")
	}
	return result.ID, nil
}

// sendSendGridEmail sends email using the SendGrid API
func (s *EmailService) sendSendGridEmail(ctx context.Context, email *Email) (string, error) {
	const op = "email.sendgrid"

	var to []SendGridEmail
	for _, recipient := range email.To {
		to = append(to, SendGridEmail{Email: recipient})
	}

	var replyTo *SendGridEmail
	if s.config.External.Email.ReplyTo != "" {
		replyTo = &SendGridEmail{Email: s.config.External.Email.ReplyTo}
	}

	reqData := SendGridEmailRequest{
		Personalizations: []SendGridPersonalization{{To: to}},
		From: SendGridEmail{
			Email: s.config.External.Email.FromEmail,
			Name:  s.config.External.Email.FromName,
		},
		Subject:    email.Subject,
		Content:    []SendGridContent{{Type: "text/html", Value: email.HTMLContent}},
		ReplyTo:    replyTo,
		Categories: []string{string(email.Type)},
	}

	resp, body, err := s.postJSON(ctx, op, s.endpoints.sendgrid, reqData, nil)
	if err != nil {
		return "", err
	}

	if resp.StatusCode != http.StatusAccepted {
		return "", apperror.New(apperror.KindProvider, op,
			fmt.Sprintf("SendGrid API returned status %d: %s", resp.StatusCode, snippet(body)))
	}

	return resp.Header.Get("X-Message-Id"), nil
}

// sendMailerSendEmail sends email using the MailerSend API
func (s *EmailService) sendMailerSendEmail(ctx context.Context, email *Email) (string, error) {
	const op = "email.mailersend"

	var to []MailerSendEmail
	for _, recipient := range email.To {
		to = append(to, MailerSendEmail{Email: recipient})
	}

	var replyTo *MailerSendEmail
	if s.config.External.Email.ReplyTo != "" {
		replyTo = &MailerSendEmail{Email: s.config.External.Email.ReplyTo}
	}

	reqData := MailerSendRequest{
		From: MailerSendEmail{
			Email: s.config.External.Email.FromEmail,
			Name:  s.config.External.Email.FromName,
		},
		To:      to,
		Subject: email.Subject,
		HTML:    email.HTMLContent,
		ReplyTo: replyTo,
		Tags:    []string{string(email.Type)},
	}

	resp, body, err := s.postJSON(ctx, op, s.endpoints.mailersend, reqData, nil)
	if err != nil {
		return "", err
	}

	if resp.StatusCode != http.StatusAccepted {
		return "", apperror.New(apperror.KindProvider, op,
			fmt.Sprintf("MailerSend API returned status %d: %s", resp.StatusCode, snippet(body)))
	}

	return resp.Header.Get("X-Message-Id"), nil
}

// postJSON sends an authenticated JSON request and reads the response body
func (s *EmailService) postJSON(ctx context.Context, op, url string, payload interface{}, headers map[string]string) (*http.Response, []byte, error) {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, apperror.Wrapf(apperror.KindUnknown, op, err, "failed to marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return nil, nil, apperror.Wrapf(apperror.KindConfiguration, op, err, "failed to create request")
	}

	req.Header.Set("Authorization", "Bearer "+s.config.External.Email.APIKey)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, nil, transportError(op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return nil, nil, transportError(op, err)
	}
	return resp, body, nil
}

func snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > 200 {
		cut := 200
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		s = s[:cut] + "..."
	}
	if s == "" {
		return "empty response"
	}
	return s
}
