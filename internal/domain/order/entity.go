// internal/domain/order/entity.go
package order

import (
	"strings"
	"time"

	"github.com/undercontrol/storefront/internal/pkg/money"
)

// Placeholders used when a checkout form field is left blank
const (
	DefaultCustomerName  = "Friend"
	DefaultStreet        = "—"
	DefaultCity          = "Lebanon"
	DefaultPhone         = "Not provided"
	DefaultPaymentMethod = "Cash On Delivery"
)

// FormInput is the checkout form as submitted by the customer
type FormInput struct {
	FullName      string `form:"full_name" json:"full_name"`
	Street        string `form:"street" json:"street"`
	City          string `form:"city" json:"city"`
	Phone         string `form:"phone" json:"phone"`
	Email         string `form:"email" json:"email"`
	Notes         string `form:"notes" json:"notes"`
	PaymentMethod string `form:"payment_method" json:"payment_method"`
}

// Normalize trims every field and fills blank required fields with their
// placeholders. Email and notes stay empty when blank.
func (f FormInput) Normalize() FormInput {
	return FormInput{
		FullName:      orDefault(f.FullName, DefaultCustomerName),
		Street:        orDefault(f.Street, DefaultStreet),
		City:          orDefault(f.City, DefaultCity),
		Phone:         orDefault(f.Phone, DefaultPhone),
		Email:         strings.TrimSpace(f.Email),
		Notes:         strings.TrimSpace(f.Notes),
		PaymentMethod: orDefault(f.PaymentMethod, DefaultPaymentMethod),
	}
}

func orDefault(value, fallback string) string {
	if v := strings.TrimSpace(value); v != "" {
		return v
	}
	return fallback
}

// Address is where the order ships
type Address struct {
	Street string `json:"street"`
	City   string `json:"city"`
	Phone  string `json:"phone"`
	Email  string `json:"email,omitempty"`
}

// Line is one assembled order line. Price is the formatted line total.
type Line struct {
	Name     string `json:"name"`
	Color    string `json:"color"`
	Quantity int    `json:"quantity"`
	Price    string `json:"price"`
}

// Draft is a confirmed order awaiting submission. It is built once and
// never modified; use Clone before handing it to another owner.
type Draft struct {
	OrderID         string      `json:"order_id"`
	CustomerName    string      `json:"customer_name"`
	ShippingAddress Address     `json:"shipping_address"`
	Notes           string      `json:"notes,omitempty"`
	PaymentMethod   string      `json:"payment_method"`
	Lines           []Line      `json:"lines"`
	Subtotal        string      `json:"subtotal"`
	Shipping        string      `json:"shipping"`
	Total           string      `json:"total"`
	TotalCents      money.Cents `json:"total_cents"`
	ItemCount       int         `json:"item_count"`
	CreatedAt       time.Time   `json:"created_at"`
}

// Clone returns a copy that shares no memory with d
func (d Draft) Clone() Draft {
	out := d
	out.Lines = append([]Line(nil), d.Lines...)
	return out
}

// Payload converts the draft to the document posted to the order
// submission endpoint. Notes and payment method are not part of it.
func (d Draft) Payload() Payload {
	return Payload{
		CustomerName:    d.CustomerName,
		OrderID:         d.OrderID,
		Subtotal:        d.Subtotal,
		Total:           d.Total,
		Shipping:        d.Shipping,
		Lines:           append([]Line(nil), d.Lines...),
		ShippingAddress: d.ShippingAddress,
	}
}

// Payload is the order submission wire document
type Payload struct {
	CustomerName    string  `json:"customerName"`
	OrderID         string  `json:"orderId"`
	Subtotal        string  `json:"subtotal"`
	Total           string  `json:"total"`
	Shipping        string  `json:"shipping"`
	Lines           []Line  `json:"lines"`
	ShippingAddress Address `json:"shippingAddress"`
}

// CustomerEmail is the optional customer address
func (p Payload) CustomerEmail() string {
	return strings.TrimSpace(p.ShippingAddress.Email)
}
