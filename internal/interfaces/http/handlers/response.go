// Package handlers adapts the storefront domain to HTTP
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/undercontrol/storefront/internal/domain/checkout"
	"github.com/undercontrol/storefront/internal/domain/session"
	"github.com/undercontrol/storefront/internal/interfaces/http/middleware"
	"github.com/undercontrol/storefront/internal/pkg/apperror"
)

// currentSession returns the request's session or writes a 500
func currentSession(c *gin.Context) (*session.Session, bool) {
	sess, ok := middleware.SessionFromContext(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Session unavailable",
		})
		return nil, false
	}
	return sess, true
}

// respondPipelineError maps checkout failures to status codes and
// customer-facing text. Operator detail stays in the logs.
func respondPipelineError(c *gin.Context, err error) {
	_ = c.Error(err)

	switch {
	case errors.Is(err, apperror.ErrEmptyCart):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":   "EmptyCart",
			"message": checkout.MessageEmptyCart,
		})
	case errors.Is(err, checkout.ErrSubmissionInFlight):
		c.JSON(http.StatusConflict, gin.H{
			"error": "Your order is being sent",
		})
	case errors.Is(err, checkout.ErrNoDraft):
		c.JSON(http.StatusConflict, gin.H{
			"error": "There is no confirmed order to send",
		})
	case errors.Is(err, checkout.ErrCommitted):
		c.JSON(http.StatusConflict, gin.H{
			"error": "This order was already placed",
		})
	default:
		c.JSON(http.StatusBadGateway, gin.H{
			"error":     checkout.UserMessage(err),
			"retryable": apperror.Retryable(err),
		})
	}
}
