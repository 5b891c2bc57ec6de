package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/undercontrol/storefront/internal/domain/catalogue"
)

// CatalogueHandler serves the product list
type CatalogueHandler struct {
	catalogue *catalogue.Catalogue
}

// NewCatalogueHandler creates a new catalogue handler
func NewCatalogueHandler(cat *catalogue.Catalogue) *CatalogueHandler {
	return &CatalogueHandler{catalogue: cat}
}

// List handles GET /catalogue
func (h *CatalogueHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Catalogue retrieved successfully",
		"data":    h.catalogue.Items(),
	})
}
