// internal/pkg/email/types.go
package email

import (
	"time"

	"github.com/undercontrol/storefront/internal/domain/order"
)

// EmailType represents the type of email being sent
type EmailType string

const (
	EmailTypeOrderConfirmation EmailType = "order_confirmation"
	EmailTypeTest              EmailType = "test"
)

// Email represents an email message
type Email struct {
	To          []string  `json:"to"`
	Subject     string    `json:"subject"`
	HTMLContent string    `json:"html_content"`
	Type        EmailType `json:"type"`
	// IdempotencyKey is forwarded to providers that deduplicate sends
	IdempotencyKey string `json:"idempotency_key,omitempty"`
}

// EmailTemplateData contains common data for all email templates
type EmailTemplateData struct {
	SiteName     string `json:"site_name"`
	SiteURL      string `json:"site_url"`
	SupportEmail string `json:"support_email"`
	SupportPhone string `json:"support_phone"`
	Year         int    `json:"year"`
}

// OrderConfirmationData is rendered into the order confirmation email
type OrderConfirmationData struct {
	EmailTemplateData
	Order order.Payload `json:"order"`
}

// GetBaseTemplateData returns common template data
func GetBaseTemplateData(siteName, siteURL, supportEmail, supportPhone string) EmailTemplateData {
	return EmailTemplateData{
		SiteName:     siteName,
		SiteURL:      siteURL,
		SupportEmail: supportEmail,
		SupportPhone: supportPhone,
		Year:         time.Now().Year(),
	}
}
