package pricing

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/undercontrol/storefront/internal/domain/cart"
	"github.com/undercontrol/storefront/internal/domain/catalogue"
	"github.com/undercontrol/storefront/internal/pkg/money"
)

func mustCatalogue(t *testing.T, items ...catalogue.Item) *catalogue.Catalogue {
	t.Helper()
	c, err := catalogue.New(items)
	require.NoError(t, err)
	return c
}

func TestComputeDiscountedGrips(t *testing.T) {
	state := cart.State{"grip": {Quantity: 2, Color: "black"}}

	snap := Compute(state, catalogue.Default(), DefaultShippingPolicy)

	assert.Equal(t, money.Cents(2598), snap.SubtotalListPrice)
	assert.Equal(t, money.Cents(1398), snap.SubtotalDiscounted)
	assert.Equal(t, money.Cents(1200), snap.DiscountAmount)
	assert.Equal(t, money.Cents(200), snap.ShippingFee)
	assert.Equal(t, money.Cents(1598), snap.OrderTotal)
	assert.Equal(t, 2, snap.ItemCount)
	require.Len(t, snap.Lines, 1)
	assert.Equal(t, "black", snap.Lines[0].Color)
	assert.Equal(t, money.Cents(1398), snap.Lines[0].LineTotal)
	assert.Equal(t, "$2.00", snap.ShippingLabel())
}

func TestComputeEmptyCart(t *testing.T) {
	snap := Compute(cart.State{}, catalogue.Default(), DefaultShippingPolicy)

	assert.True(t, snap.Empty())
	assert.Zero(t, snap.ShippingFee)
	assert.Zero(t, snap.OrderTotal)
	assert.Equal(t, "Free", snap.ShippingLabel())
}

func TestComputeSkipsUnknownItems(t *testing.T) {
	state := cart.State{
		"ghost": {Quantity: 4, Color: "black"},
		"light": {Quantity: 1, Color: "black"},
	}

	snap := Compute(state, catalogue.Default(), DefaultShippingPolicy)

	require.Len(t, snap.Lines, 1)
	assert.Equal(t, "light", snap.Lines[0].Item.ID)
	assert.Equal(t, 1, snap.ItemCount)
	assert.Equal(t, money.Cents(1499), snap.SubtotalDiscounted)
}

func TestComputeLinesFollowCatalogueOrder(t *testing.T) {
	state := cart.State{
		"light": {Quantity: 1, Color: "black"},
		"grip":  {Quantity: 1, Color: "gray"},
	}

	snap := Compute(state, catalogue.Default(), DefaultShippingPolicy)

	require.Len(t, snap.Lines, 2)
	assert.Equal(t, "grip", snap.Lines[0].Item.ID)
	assert.Equal(t, "light", snap.Lines[1].Item.ID)
}

func TestFreeShippingBoundaryIsExclusive(t *testing.T) {
	cat := mustCatalogue(t,
		catalogue.Item{ID: "even", Name: "Even", Price: "$15.00", Colors: []string{"black"}},
		catalogue.Item{ID: "over", Name: "Over", Price: "$15.01", Colors: []string{"black"}},
	)

	atThreshold := Compute(cart.State{"even": {Quantity: 2, Color: "black"}}, cat, DefaultShippingPolicy)
	assert.Equal(t, money.Cents(3000), atThreshold.SubtotalDiscounted)
	assert.Equal(t, money.Cents(200), atThreshold.ShippingFee, "exactly the threshold still pays shipping")
	assert.Equal(t, money.Cents(3200), atThreshold.OrderTotal)

	overThreshold := Compute(cart.State{"over": {Quantity: 2, Color: "black"}}, cat, DefaultShippingPolicy)
	assert.Zero(t, overThreshold.ShippingFee)
	assert.Equal(t, money.Cents(3002), overThreshold.OrderTotal)
}

func TestDiscountClampedAtZero(t *testing.T) {
	cat := mustCatalogue(t,
		catalogue.Item{ID: "odd", Name: "Odd", Price: "$5.00", NewPrice: "$9.00", Colors: []string{"red"}},
	)

	snap := Compute(cart.State{"odd": {Quantity: 1, Color: "red"}}, cat, DefaultShippingPolicy)

	assert.Zero(t, snap.DiscountAmount)
	assert.Equal(t, money.Cents(900), snap.SubtotalDiscounted)
}

func TestUnparsablePriceCountsAsZero(t *testing.T) {
	cat := mustCatalogue(t,
		catalogue.Item{ID: "gift", Name: "Gift", Price: "free!", Colors: []string{"red"}},
	)

	snap := Compute(cart.State{"gift": {Quantity: 3, Color: "red"}}, cat, DefaultShippingPolicy)

	assert.Zero(t, snap.SubtotalDiscounted)
	assert.Zero(t, snap.ShippingFee, "a zero subtotal ships free")
	assert.Equal(t, 3, snap.ItemCount)
}

func TestPricingProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	itemsGen := gen.SliceOfN(3, gen.IntRange(0, 10000))
	discountGen := gen.SliceOfN(3, gen.IntRange(0, 12000))
	qtyGen := gen.SliceOfN(3, gen.IntRange(0, 9))

	build := func(list, discounted, qty []int) (*catalogue.Catalogue, cart.State) {
		items := make([]catalogue.Item, 0, len(list))
		state := cart.State{}
		for i := range list {
			id := fmt.Sprintf("item-%d", i)
			items = append(items, catalogue.Item{
				ID:       id,
				Name:     id,
				Price:    money.Cents(list[i]).String(),
				NewPrice: money.Cents(discounted[i]).String(),
				Colors:   []string{"black"},
			})
			if qty[i] > 0 {
				state[id] = cart.Entry{Quantity: qty[i], Color: "black"}
			}
		}
		cat, _ := catalogue.New(items)
		return cat, state
	}

	properties.Property("discount and total are never negative", prop.ForAll(
		func(list, discounted, qty []int) bool {
			cat, state := build(list, discounted, qty)
			snap := Compute(state, cat, DefaultShippingPolicy)
			return snap.DiscountAmount >= 0 &&
				snap.OrderTotal >= 0 &&
				snap.OrderTotal == snap.SubtotalDiscounted+snap.ShippingFee
		},
		itemsGen, discountGen, qtyGen,
	))

	properties.Property("pricing is deterministic", prop.ForAll(
		func(list, discounted, qty []int) bool {
			cat, state := build(list, discounted, qty)
			return reflect.DeepEqual(
				Compute(state, cat, DefaultShippingPolicy),
				Compute(state, cat, DefaultShippingPolicy),
			)
		},
		itemsGen, discountGen, qtyGen,
	))

	properties.TestingRun(t)
}
