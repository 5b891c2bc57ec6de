// internal/interfaces/http/handlers/checkout.go
package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/undercontrol/storefront/internal/domain/checkout"
	"github.com/undercontrol/storefront/internal/domain/order"
	"github.com/undercontrol/storefront/internal/domain/pricing"
	"github.com/undercontrol/storefront/internal/pkg/pdf"
)

// CheckoutHandler handles checkout endpoints
type CheckoutHandler struct {
	assembler *order.Assembler
	pdf       *pdf.Service
}

// NewCheckoutHandler creates a new checkout handler
func NewCheckoutHandler(assembler *order.Assembler, pdfService *pdf.Service) *CheckoutHandler {
	return &CheckoutHandler{assembler: assembler, pdf: pdfService}
}

// CheckoutResponse combines the pipeline view with live pricing
type CheckoutResponse struct {
	checkout.View
	Pricing       pricing.Snapshot `json:"pricing"`
	ShippingLabel string           `json:"shipping_label"`
}

// GetCheckout handles GET /checkout
func (h *CheckoutHandler) GetCheckout(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}

	snap := h.assembler.Pricing(sess.Snapshot())
	c.JSON(http.StatusOK, gin.H{
		"message": "Checkout retrieved successfully",
		"data": CheckoutResponse{
			View:          sess.Pipeline().Observe(),
			Pricing:       snap,
			ShippingLabel: snap.ShippingLabel(),
		},
	})
}

// Confirm handles POST /checkout/confirm. The form may be JSON or
// urlencoded; blank fields get placeholders.
func (h *CheckoutHandler) Confirm(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}

	var form order.FormInput
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBind(&form); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "Invalid request data",
				"details": err.Error(),
			})
			return
		}
	}

	draft, err := sess.Pipeline().Confirm(form)
	if err != nil {
		respondPipelineError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Order confirmed",
		"data":    draft,
	})
}

// Cancel handles POST /checkout/cancel
func (h *CheckoutHandler) Cancel(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}

	if err := sess.Pipeline().Cancel(); err != nil {
		respondPipelineError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Order cancelled",
		"data":    sess.Pipeline().Observe(),
	})
}

// PassOrder handles POST /checkout/pass
func (h *CheckoutHandler) PassOrder(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}

	receipt, err := sess.Pipeline().PassOrder(c.Request.Context())
	if err != nil {
		respondPipelineError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Order placed",
		"data":    receipt,
	})
}

// Reset handles POST /checkout/reset
func (h *CheckoutHandler) Reset(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}

	if err := sess.Pipeline().Reset(); err != nil {
		respondPipelineError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Checkout reset",
		"data":    sess.Pipeline().Observe(),
	})
}

// DraftPDF handles GET /checkout/draft.pdf
func (h *CheckoutHandler) DraftPDF(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}

	view := sess.Pipeline().Observe()
	if view.Draft == nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "There is no confirmed order",
		})
		return
	}

	buf, err := h.pdf.GenerateSummary(*view.Draft)
	if err != nil {
		_ = c.Error(err)
		if errors.Is(err, pdf.ErrDisabled) {
			c.JSON(http.StatusNotImplemented, gin.H{
				"error": "Order summaries are not available",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to generate order summary",
		})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`inline; filename="%s.pdf"`, view.Draft.OrderID))
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}
