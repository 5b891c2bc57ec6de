// Package pricing derives cart totals from a cart and the catalogue. Every
// function here is pure: the same inputs always give the same snapshot.
package pricing

import (
	"github.com/undercontrol/storefront/internal/domain/cart"
	"github.com/undercontrol/storefront/internal/domain/catalogue"
	"github.com/undercontrol/storefront/internal/pkg/money"
)

// ShippingPolicy waives the flat fee when the discounted subtotal is
// strictly greater than FreeThreshold.
type ShippingPolicy struct {
	FreeThreshold money.Cents
	FlatFee       money.Cents
}

// DefaultShippingPolicy is $2.00 shipping, free above $30.00
var DefaultShippingPolicy = ShippingPolicy{FreeThreshold: 3000, FlatFee: 200}

// Fee returns the shipping fee for a discounted subtotal
func (p ShippingPolicy) Fee(subtotalDiscounted money.Cents) money.Cents {
	if subtotalDiscounted == 0 {
		return 0
	}
	if subtotalDiscounted > p.FreeThreshold {
		return 0
	}
	return p.FlatFee
}

// Line is one priced cart entry
type Line struct {
	Item          catalogue.Item `json:"item"`
	Quantity      int            `json:"quantity"`
	Color         string         `json:"color"`
	UnitList      money.Cents    `json:"unit_list"`
	UnitPrice     money.Cents    `json:"unit_price"`
	LineTotal     money.Cents    `json:"line_total"`
	LineListTotal money.Cents    `json:"line_list_total"`
}

// Snapshot is derived on every read and never persisted
type Snapshot struct {
	Lines              []Line      `json:"lines"`
	ItemCount          int         `json:"item_count"`
	SubtotalListPrice  money.Cents `json:"subtotal_list_price"`
	SubtotalDiscounted money.Cents `json:"subtotal_discounted"`
	DiscountAmount     money.Cents `json:"discount_amount"`
	ShippingFee        money.Cents `json:"shipping_fee"`
	OrderTotal         money.Cents `json:"order_total"`
}

// ShippingLabel is "Free" or the formatted fee
func (s Snapshot) ShippingLabel() string {
	if s.ShippingFee == 0 {
		return "Free"
	}
	return s.ShippingFee.String()
}

// Empty reports whether no catalogue item is in the cart
func (s Snapshot) Empty() bool {
	return len(s.Lines) == 0
}

// Compute prices state against cat. Entries for ids the catalogue does not
// know are skipped. Lines follow catalogue order.
func Compute(state cart.State, cat *catalogue.Catalogue, policy ShippingPolicy) Snapshot {
	snap := Snapshot{Lines: []Line{}}

	for _, item := range cat.Items() {
		entry, ok := state[item.ID]
		if !ok || entry.Quantity <= 0 {
			continue
		}

		unitList := money.ParsePrice(item.Price)
		unitPrice := money.ParsePrice(item.EffectivePrice())
		line := Line{
			Item:          item,
			Quantity:      entry.Quantity,
			Color:         entry.Color,
			UnitList:      unitList,
			UnitPrice:     unitPrice,
			LineTotal:     unitPrice.Mul(entry.Quantity),
			LineListTotal: unitList.Mul(entry.Quantity),
		}

		snap.Lines = append(snap.Lines, line)
		snap.ItemCount += entry.Quantity
		snap.SubtotalListPrice += line.LineListTotal
		snap.SubtotalDiscounted += line.LineTotal
	}

	snap.DiscountAmount = money.Max(0, snap.SubtotalListPrice-snap.SubtotalDiscounted)
	snap.ShippingFee = policy.Fee(snap.SubtotalDiscounted)
	snap.OrderTotal = snap.SubtotalDiscounted + snap.ShippingFee

	return snap
}
