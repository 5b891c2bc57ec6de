// internal/interfaces/http/handlers/cart.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/undercontrol/storefront/internal/domain/cart"
	"github.com/undercontrol/storefront/internal/domain/catalogue"
	"github.com/undercontrol/storefront/internal/domain/checkout"
	"github.com/undercontrol/storefront/internal/domain/order"
	"github.com/undercontrol/storefront/internal/domain/pricing"
	"github.com/undercontrol/storefront/internal/domain/session"
)

// CartHandler handles cart endpoints
type CartHandler struct {
	catalogue *catalogue.Catalogue
	assembler *order.Assembler
}

// NewCartHandler creates a new cart handler
func NewCartHandler(cat *catalogue.Catalogue, assembler *order.Assembler) *CartHandler {
	return &CartHandler{catalogue: cat, assembler: assembler}
}

// CartResponse is the cart as the storefront renders it
type CartResponse struct {
	Items          cart.State        `json:"items"`
	SelectedColors map[string]string `json:"selected_colors"`
	Count          int               `json:"count"`
	Pricing        pricing.Snapshot  `json:"pricing"`
	ShippingLabel  string            `json:"shipping_label"`
}

// ColorRequest carries an optional color choice
type ColorRequest struct {
	Color string `json:"color" form:"color"`
}

func (h *CartHandler) respond(store *cart.Store) CartResponse {
	state := store.Snapshot()
	snap := h.assembler.Pricing(state)
	return CartResponse{
		Items:          state,
		SelectedColors: store.SelectedColors(),
		Count:          state.Count(),
		Pricing:        snap,
		ShippingLabel:  snap.ShippingLabel(),
	}
}

// GetCart handles GET /cart
func (h *CartHandler) GetCart(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}

	var resp CartResponse
	sess.Do(func(store *cart.Store) {
		resp = h.respond(store)
	})

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart retrieved successfully",
		"data":    resp,
	})
}

// Increment handles POST /cart/items/:id/increment
func (h *CartHandler) Increment(c *gin.Context) {
	item, ok := h.lookupItem(c)
	if !ok {
		return
	}

	var req ColorRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBind(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "Invalid request data",
				"details": err.Error(),
			})
			return
		}
	}
	if req.Color != "" && !hasColor(item, req.Color) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Unknown color for this item",
		})
		return
	}

	sess, ok := currentSession(c)
	if !ok || rejectWhileSending(c, sess) {
		return
	}

	var resp CartResponse
	sess.Do(func(store *cart.Store) {
		store.Increment(c.Request.Context(), item.ID, req.Color)
		resp = h.respond(store)
	})

	c.JSON(http.StatusOK, gin.H{
		"message": "Item added to cart successfully",
		"data":    resp,
	})
}

// Decrement handles POST /cart/items/:id/decrement. Decrementing an item
// that is not in the cart changes nothing.
func (h *CartHandler) Decrement(c *gin.Context) {
	item, ok := h.lookupItem(c)
	if !ok {
		return
	}

	sess, ok := currentSession(c)
	if !ok || rejectWhileSending(c, sess) {
		return
	}

	var resp CartResponse
	sess.Do(func(store *cart.Store) {
		store.Decrement(c.Request.Context(), item.ID)
		resp = h.respond(store)
	})

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart item updated successfully",
		"data":    resp,
	})
}

// SelectColor handles PUT /cart/items/:id/color
func (h *CartHandler) SelectColor(c *gin.Context) {
	item, ok := h.lookupItem(c)
	if !ok {
		return
	}

	var req ColorRequest
	if err := c.ShouldBind(&req); err != nil || req.Color == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "A color is required",
		})
		return
	}
	if !hasColor(item, req.Color) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Unknown color for this item",
		})
		return
	}

	sess, ok := currentSession(c)
	if !ok || rejectWhileSending(c, sess) {
		return
	}

	var resp CartResponse
	sess.Do(func(store *cart.Store) {
		store.SelectColor(c.Request.Context(), item.ID, req.Color)
		resp = h.respond(store)
	})

	c.JSON(http.StatusOK, gin.H{
		"message": "Color updated successfully",
		"data":    resp,
	})
}

// rejectWhileSending answers 409 when the session's order is being sent.
// The commit clears the cart, so edits made now would be lost unsent.
func rejectWhileSending(c *gin.Context, sess *session.Session) bool {
	if sess.Pipeline().State() != checkout.StateSending {
		return false
	}
	respondPipelineError(c, checkout.ErrSubmissionInFlight)
	return true
}

func (h *CartHandler) lookupItem(c *gin.Context) (catalogue.Item, bool) {
	item, ok := h.catalogue.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Item not found",
		})
		return catalogue.Item{}, false
	}
	return item, true
}

// hasColor accepts the item's declared colors, or the fallback for items
// that declare none
func hasColor(item catalogue.Item, color string) bool {
	if len(item.Colors) == 0 {
		return color == catalogue.FallbackColor
	}
	for _, c := range item.Colors {
		if c == color {
			return true
		}
	}
	return false
}
