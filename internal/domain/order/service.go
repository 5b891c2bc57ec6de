// internal/domain/order/service.go
package order

import (
	"strconv"
	"strings"
	"time"

	"github.com/undercontrol/storefront/internal/domain/cart"
	"github.com/undercontrol/storefront/internal/domain/catalogue"
	"github.com/undercontrol/storefront/internal/domain/pricing"
	"github.com/undercontrol/storefront/internal/pkg/apperror"
)

// Assembler turns a cart and a checkout form into an order draft
type Assembler struct {
	catalogue *catalogue.Catalogue
	policy    pricing.ShippingPolicy
	now       func() time.Time
}

// NewAssembler creates an assembler that prices against cat with policy
func NewAssembler(cat *catalogue.Catalogue, policy pricing.ShippingPolicy) *Assembler {
	return &Assembler{
		catalogue: cat,
		policy:    policy,
		now:       time.Now,
	}
}

// WithClock replaces the time source used for order ids
func (a *Assembler) WithClock(now func() time.Time) *Assembler {
	a.now = now
	return a
}

// Pricing returns the current pricing snapshot for state
func (a *Assembler) Pricing(state cart.State) pricing.Snapshot {
	return pricing.Compute(state, a.catalogue, a.policy)
}

// Assemble builds a draft from state and form. It fails with
// apperror.ErrEmptyCart when no catalogue item is in the cart; blank form
// fields never fail.
func (a *Assembler) Assemble(state cart.State, form FormInput) (Draft, error) {
	snap := a.Pricing(state)
	if snap.Empty() {
		return Draft{}, &apperror.Error{
			Kind:    apperror.KindValidation,
			Op:      "order.Assemble",
			Message: apperror.ErrEmptyCart.Message,
		}
	}

	form = form.Normalize()
	createdAt := a.now()

	lines := make([]Line, 0, len(snap.Lines))
	for _, l := range snap.Lines {
		lines = append(lines, Line{
			Name:     l.Item.Name,
			Color:    catalogue.FormatColorLabel(l.Color),
			Quantity: l.Quantity,
			Price:    l.LineTotal.String(),
		})
	}

	return Draft{
		OrderID:      NewOrderID(createdAt),
		CustomerName: form.FullName,
		ShippingAddress: Address{
			Street: form.Street,
			City:   form.City,
			Phone:  form.Phone,
			Email:  form.Email,
		},
		Notes:         form.Notes,
		PaymentMethod: form.PaymentMethod,
		Lines:         lines,
		Subtotal:      snap.SubtotalDiscounted.String(),
		Shipping:      snap.ShippingLabel(),
		Total:         snap.OrderTotal.String(),
		TotalCents:    snap.OrderTotal,
		ItemCount:     snap.ItemCount,
		CreatedAt:     createdAt.UTC(),
	}, nil
}

// NewOrderID formats t as "UC-" followed by its unix milliseconds in
// upper-case base 36. Two ids minted in the same millisecond collide.
func NewOrderID(t time.Time) string {
	return "UC-" + strings.ToUpper(strconv.FormatInt(t.UnixMilli(), 36))
}
