package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/undercontrol/storefront/internal/domain/order"
	"github.com/undercontrol/storefront/internal/pkg/apperror"
)

// OrderMailer sends order confirmations
type OrderMailer interface {
	IsConfigured() bool
	SendOrderConfirmation(ctx context.Context, payload order.Payload) (string, error)
}

// OrderEmailHandler is the order submission endpoint
type OrderEmailHandler struct {
	mailer OrderMailer
	logger logrus.FieldLogger
}

// NewOrderEmailHandler creates a new order email handler
func NewOrderEmailHandler(mailer OrderMailer, logger logrus.FieldLogger) *OrderEmailHandler {
	return &OrderEmailHandler{mailer: mailer, logger: logger}
}

// Send handles POST /api/order-email
func (h *OrderEmailHandler) Send(c *gin.Context) {
	if !h.mailer.IsConfigured() {
		h.logger.Error("Order email requested but no email provider is configured")
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Email service is not configured",
		})
		return
	}

	raw, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid order payload",
		})
		return
	}

	payload, err := order.ValidatePayload(raw)
	if err != nil {
		h.logger.WithField("error", err.Error()).Warn("Rejected malformed order payload")
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid order payload",
		})
		return
	}

	id, err := h.mailer.SendOrderConfirmation(c.Request.Context(), payload)
	if err != nil {
		_ = c.Error(err)
		switch apperror.KindOf(err) {
		case apperror.KindProvider:
			c.JSON(http.StatusBadGateway, gin.H{
				"success": false,
				"error":   "Failed to send order email",
			})
		case apperror.KindConfiguration:
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error":   "Email service is not configured",
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error":   "Unexpected error while sending the order email",
			})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"id":      id,
	})
}
