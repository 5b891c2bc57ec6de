// internal/pkg/pdf/service.go
package pdf

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"

	"github.com/SebastiaanKlippert/go-wkhtmltopdf"
	"github.com/undercontrol/storefront/internal/config"
	"github.com/undercontrol/storefront/internal/domain/order"
)

// ErrDisabled is returned when PDF rendering is switched off
var ErrDisabled = errors.New("pdf rendering is disabled")

var summaryTmpl = template.Must(template.New("summary").Parse(summaryTemplate))

// Service renders confirmed order drafts as printable summaries
type Service struct {
	config *config.Config
}

// NewService creates a new PDF service
func NewService(cfg *config.Config) *Service {
	return &Service{
		config: cfg,
	}
}

// SummaryData is passed to the summary template
type SummaryData struct {
	SiteName     string
	SupportEmail string
	SupportPhone string
	CreatedAt    string
	Draft        order.Draft
}

// GenerateSummary renders the draft to PDF with wkhtmltopdf
func (s *Service) GenerateSummary(draft order.Draft) (*bytes.Buffer, error) {
	if !s.config.PDF.Enabled {
		return nil, ErrDisabled
	}

	htmlContent, err := s.GenerateHTML(draft)
	if err != nil {
		return nil, err
	}

	pdfg, err := wkhtmltopdf.NewPDFGenerator()
	if err != nil {
		return nil, fmt.Errorf("failed to create PDF generator: %w", err)
	}

	dpi := s.config.PDF.DPI
	if dpi == 0 {
		dpi = 150
	}
	pdfg.Dpi.Set(dpi)
	pdfg.Orientation.Set(wkhtmltopdf.OrientationPortrait)
	pdfg.PageSize.Set(wkhtmltopdf.PageSizeA5)
	pdfg.Title.Set("Order " + draft.OrderID)

	page := wkhtmltopdf.NewPageReader(bytes.NewReader([]byte(htmlContent)))
	page.FooterRight.Set("[page]/[topage]")
	page.FooterFontSize.Set(8)
	pdfg.AddPage(page)

	if err := pdfg.Create(); err != nil {
		return nil, fmt.Errorf("failed to create PDF: %w", err)
	}

	return bytes.NewBuffer(pdfg.Bytes()), nil
}

// GenerateHTML renders the summary page that GenerateSummary converts
func (s *Service) GenerateHTML(draft order.Draft) (string, error) {
	data := SummaryData{
		SiteName:     s.config.App.Name,
		SupportEmail: s.config.App.SupportEmail,
		SupportPhone: s.config.App.SupportPhone,
		CreatedAt:    draft.CreatedAt.UTC().Format("January 2, 2006 15:04 MST"),
		Draft:        draft,
	}

	var buf bytes.Buffer
	if err := summaryTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}
	return buf.String(), nil
}

const summaryTemplate = `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Order {{.Draft.OrderID}}</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 0; padding: 24px; color: #18181b; }
        h1 { font-size: 22px; margin: 0 0 4px; }
        .muted { color: #71717a; font-size: 12px; }
        table { width: 100%; border-collapse: collapse; margin-top: 16px; font-size: 13px; }
        th { text-align: left; border-bottom: 2px solid #e4e4e7; padding: 6px 0; }
        td { padding: 6px 0; border-bottom: 1px solid #f4f4f5; }
        .num { text-align: right; }
        .totals td { border: none; }
        .grand td { font-weight: bold; font-size: 15px; }
        .block { margin-top: 20px; }
    </style>
</head>
<body>
    <h1>{{.SiteName}}</h1>
    <div class="muted">Order #{{.Draft.OrderID}} &middot; {{.CreatedAt}}</div>

    <table>
        <thead>
            <tr><th>Item</th><th>Color</th><th class="num">Qty</th><th class="num">Price</th></tr>
        </thead>
        <tbody>
            {{- range .Draft.Lines}}
            <tr><td>{{.Name}}</td><td>{{.Color}}</td><td class="num">{{.Quantity}}</td><td class="num">{{.Price}}</td></tr>
            {{- end}}
        </tbody>
    </table>

    <table class="totals">
        <tr><td>Subtotal</td><td class="num">{{.Draft.Subtotal}}</td></tr>
        <tr><td>Shipping</td><td class="num">{{.Draft.Shipping}}</td></tr>
        <tr class="grand"><td>Total</td><td class="num">{{.Draft.Total}}</td></tr>
    </table>

    <div class="block">
        <strong>Ship to</strong><br>
        {{.Draft.CustomerName}}<br>
        {{.Draft.ShippingAddress.Street}}, {{.Draft.ShippingAddress.City}}<br>
        {{.Draft.ShippingAddress.Phone}}
        {{- if .Draft.ShippingAddress.Email}}<br>{{.Draft.ShippingAddress.Email}}{{end}}
    </div>

    <div class="block">
        <strong>Payment</strong><br>{{.Draft.PaymentMethod}}
        {{- if .Draft.Notes}}
        <div class="block"><strong>Notes</strong><br>{{.Draft.Notes}}</div>
        {{- end}}
    </div>

    <p class="muted block">Questions? {{.SupportEmail}} &middot; {{.SupportPhone}}</p>
</body>
</html>
`
