// internal/pkg/email/service.go
package email

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/undercontrol/storefront/internal/config"
	"github.com/undercontrol/storefront/internal/domain/order"
	"github.com/undercontrol/storefront/internal/pkg/apperror"
)

//go:embed templates/*.html
var embeddedTemplates embed.FS

var templateNames = []string{
	"order_confirmation",
}

// ErrNotConfigured is returned when no provider credentials are set
var ErrNotConfigured = apperror.New(apperror.KindConfiguration, "email", "email service is not configured")

// EmailService handles all email operations
type EmailService struct {
	config    *config.Config
	templates map[string]*template.Template
	client    *http.Client
	logger    logrus.FieldLogger
	endpoints providerEndpoints
}

type providerEndpoints struct {
	resend     string
	sendgrid   string
	mailersend string
}

var defaultEndpoints = providerEndpoints{
	resend:     "https://api.resend.com/emails",
	sendgrid:   "https://api.sendgrid.com/v3/mail/send",
	mailersend: "https://api.mailersend.com/v1/email",
}

// NewEmailService creates a new email service
func NewEmailService(cfg *config.Config, logger logrus.FieldLogger) *EmailService {
	timeout := cfg.External.Email.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	service := &EmailService{
		config:    cfg,
		templates: make(map[string]*template.Template),
		client:    &http.Client{Timeout: timeout},
		logger:    logger,
		endpoints: defaultEndpoints,
	}

	service.loadTemplates()
	return service
}

// IsConfigured reports whether the selected provider has credentials
func (s *EmailService) IsConfigured() bool {
	ec := s.config.External.Email
	switch ec.Provider {
	case "smtp":
		return ec.SMTPHost != "" && ec.SMTPUsername != ""
	case "resend", "sendgrid", "mailersend":
		return ec.APIKey != ""
	default:
		return false
	}
}

// SendEmail sends an email using the configured provider and returns the
// provider's message id when it reports one
func (s *EmailService) SendEmail(ctx context.Context, email *Email) (string, error) {
	if !s.IsConfigured() {
		return "", ErrNotConfigured
	}

	switch s.config.External.Email.Provider {
	case "smtp":
		return s.sendSMTPEmail(ctx, email)
	case "resend":
		return s.sendResendEmail(ctx, email)
	case "sendgrid":
		return s.sendSendGridEmail(ctx, email)
	case "mailersend":
		return s.sendMailerSendEmail(ctx, email)
	default:
		return "", apperror.New(apperror.KindConfiguration, "email.SendEmail",
			fmt.Sprintf("unsupported email provider: %s", s.config.External.Email.Provider))
	}
}

// SendOrderConfirmation emails the order to the admin address and, when
// given, the customer. The order id doubles as the idempotency key.
func (s *EmailService) SendOrderConfirmation(ctx context.Context, payload order.Payload) (string, error) {
	if !s.IsConfigured() {
		return "", ErrNotConfigured
	}

	data := OrderConfirmationData{
		EmailTemplateData: GetBaseTemplateData(
			s.config.App.Name,
			s.config.External.Email.BaseURL,
			s.config.App.SupportEmail,
			s.config.App.SupportPhone,
		),
		Order: payload,
	}

	htmlContent, err := s.renderTemplate("order_confirmation", data)
	if err != nil {
		return "", apperror.Wrap(apperror.KindUnknown, "email.SendOrderConfirmation", err)
	}

	email := &Email{
		To:             Recipients(s.config.External.Email.AdminEmail, payload.CustomerEmail()),
		Subject:        OrderSubject(payload),
		HTMLContent:    htmlContent,
		Type:           EmailTypeOrderConfirmation,
		IdempotencyKey: payload.OrderID,
	}

	id, err := s.SendEmail(ctx, email)
	if err != nil {
		s.logger.WithFields(logrus.Fields{
			"order_id":   payload.OrderID,
			"provider":   s.config.External.Email.Provider,
			"error_kind": apperror.KindOf(err),
			"error":      err.Error(),
		}).Error("Failed to send order confirmation")
		return "", err
	}

	s.logger.WithFields(logrus.Fields{
		"order_id":   payload.OrderID,
		"recipients": len(email.To),
		"email_id":   id,
	}).Info("Order confirmation sent")

	return id, nil
}

// OrderSubject is "Order <orderId> · <total>"
func OrderSubject(payload order.Payload) string {
	return fmt.Sprintf("Order %s · %s", payload.OrderID, payload.Total)
}

// Recipients collapses addresses into a unique list, comparing
// case-insensitively and keeping the first spelling and position. Blank
// addresses are skipped.
func Recipients(addresses ...string) []string {
	seen := make(map[string]bool, len(addresses))
	out := make([]string, 0, len(addresses))
	for _, addr := range addresses {
		addr = strings.TrimSpace(addr)
		if addr == "" {
			continue
		}
		key := strings.ToLower(addr)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, addr)
	}
	return out
}

// fromAddress formats the sender as "Name <email>"
func (s *EmailService) fromAddress() string {
	fromEmail := s.config.External.Email.FromEmail
	if fromName := s.config.External.Email.FromName; fromName != "" {
		return fmt.Sprintf("%s <%s>", fromName, fromEmail)
	}
	return fromEmail
}

// loadTemplates parses the embedded templates, preferring a same-named file
// in the configured template directory
func (s *EmailService) loadTemplates() {
	templateDir := s.config.External.Email.TemplateDir

	for _, name := range templateNames {
		if templateDir != "" {
			templatePath := filepath.Join(templateDir, name+".html")
			if _, err := os.Stat(templatePath); err == nil {
				tmpl, err := template.ParseFiles(templatePath)
				if err == nil {
					s.templates[name] = tmpl
					continue
				}
				s.logger.WithFields(logrus.Fields{
					"template": templatePath,
					"error":    err,
				}).Warn("Could not parse email template override, using built-in")
			}
		}

		tmpl, err := template.ParseFS(embeddedTemplates, "templates/"+name+".html")
		if err != nil {
			s.logger.WithFields(logrus.Fields{"template": name, "error": err}).Error("Could not load built-in email template")
			continue
		}
		s.templates[name] = tmpl
	}
}

// renderTemplate renders an email template with data
func (s *EmailService) renderTemplate(templateName string, data interface{}) (string, error) {
	tmpl, exists := s.templates[templateName]
	if !exists {
		return "", fmt.Errorf("template %s not found", templateName)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", templateName, err)
	}

	return buf.String(), nil
}

// transportError classifies an HTTP client failure
func transportError(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return apperror.Wrapf(apperror.KindTransport, op, err, "provider request timed out")
	}
	return apperror.Wrap(apperror.KindTransport, op, err)
}
