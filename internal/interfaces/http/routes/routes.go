// internal/interfaces/http/routes/routes.go
package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/undercontrol/storefront/internal/config"
	"github.com/undercontrol/storefront/internal/domain/catalogue"
	"github.com/undercontrol/storefront/internal/domain/order"
	"github.com/undercontrol/storefront/internal/domain/session"
	"github.com/undercontrol/storefront/internal/interfaces/http/handlers"
	"github.com/undercontrol/storefront/internal/interfaces/http/middleware"
	"github.com/undercontrol/storefront/internal/pkg/auth"
	"github.com/undercontrol/storefront/internal/pkg/pdf"
)

// Dependencies are the collaborators the routes are built from
type Dependencies struct {
	Catalogue *catalogue.Catalogue
	Assembler *order.Assembler
	Registry  *session.Registry
	Tokens    *auth.SessionTokens
	Mailer    handlers.OrderMailer
	PDF       *pdf.Service
	Storage   handlers.Pinger
	// Redis backs rate limiting when set
	Redis  *redis.Client
	Logger logrus.FieldLogger
}

// SetupHealthRoutes sets up liveness and readiness probes
func SetupHealthRoutes(r gin.IRoutes, deps Dependencies, cfg *config.Config) {
	health := handlers.NewHealthHandler(cfg, deps.Storage)
	r.GET("/health", health.Health)
	r.GET("/ready", health.Ready)
}

// SetupCatalogueRoutes sets up catalogue routes
func SetupCatalogueRoutes(rg *gin.RouterGroup, deps Dependencies) {
	catalogueHandler := handlers.NewCatalogueHandler(deps.Catalogue)
	rg.GET("/catalogue", catalogueHandler.List)
}

// SetupCartRoutes sets up cart routes
func SetupCartRoutes(rg *gin.RouterGroup, deps Dependencies) {
	cartHandler := handlers.NewCartHandler(deps.Catalogue, deps.Assembler)

	cart := rg.Group("/cart")
	{
		cart.GET("", cartHandler.GetCart)
		cart.POST("/items/:id/increment", cartHandler.Increment)
		cart.POST("/items/:id/decrement", cartHandler.Decrement)
		cart.PUT("/items/:id/color", cartHandler.SelectColor)
	}
}

// SetupCheckoutRoutes sets up checkout routes
func SetupCheckoutRoutes(rg *gin.RouterGroup, deps Dependencies) {
	checkoutHandler := handlers.NewCheckoutHandler(deps.Assembler, deps.PDF)

	checkout := rg.Group("/checkout")
	{
		checkout.GET("", checkoutHandler.GetCheckout)
		checkout.POST("/confirm", checkoutHandler.Confirm)
		checkout.POST("/cancel", checkoutHandler.Cancel)
		checkout.POST("/pass", checkoutHandler.PassOrder)
		checkout.POST("/reset", checkoutHandler.Reset)
		checkout.GET("/draft.pdf", checkoutHandler.DraftPDF)
	}
}

// SetupOrderEmailRoutes sets up the order submission endpoint
func SetupOrderEmailRoutes(rg *gin.RouterGroup, deps Dependencies) {
	orderEmailHandler := handlers.NewOrderEmailHandler(deps.Mailer, deps.Logger)
	rg.POST("/order-email", orderEmailHandler.Send)
}

// SetupRoutes wires every route. Session-scoped routes live under /api/v1;
// the order submission endpoint is stateless.
func SetupRoutes(engine *gin.Engine, deps Dependencies, cfg *config.Config) {
	SetupHealthRoutes(engine, deps, cfg)

	api := engine.Group("/api")
	SetupOrderEmailRoutes(api, deps)

	apiV1 := api.Group("/v1")
	SetupCatalogueRoutes(apiV1, deps)

	sessioned := apiV1.Group("")
	sessioned.Use(middleware.Session(cfg, deps.Tokens, deps.Registry, deps.Logger))
	SetupCartRoutes(sessioned, deps)
	SetupCheckoutRoutes(sessioned, deps)
}
