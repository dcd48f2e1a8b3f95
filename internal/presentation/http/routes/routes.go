package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/resona/rental-api/internal/config"
	domainRepo "github.com/resona/rental-api/internal/domain/repository"
	"github.com/resona/rental-api/internal/infrastructure/database"
	"github.com/resona/rental-api/internal/presentation/http/handler"
	"github.com/resona/rental-api/internal/presentation/http/middleware"
	"github.com/resona/rental-api/pkg/utils"
)

// Handlers holds all the HTTP handlers used for route registration.
type Handlers struct {
	Auth         *handler.AuthHandler
	Product      *handler.ProductHandler
	Quote        *handler.QuoteHandler
	QuoteRequest *handler.QuoteRequestHandler
	Order        *handler.OrderHandler
	User         *handler.UserHandler
}

// Deps holds shared dependencies needed by the routes.
type Deps struct {
	JWTManager      *utils.JWTManager
	Cfg             *config.Config
	IdempotencyRepo domainRepo.IdempotencyRepository
	Revocation      middleware.RevocationChecker
	RateLimiter     *middleware.IPRateLimiter
}

// Setup creates the Gin router and registers all routes.
func Setup(h *Handlers, deps *Deps) *gin.Engine {
	router := gin.New()

	// Global middleware
	router.Use(gin.Recovery())
	router.Use(middleware.LoggerMiddleware())
	router.Use(middleware.CORSMiddleware(&deps.Cfg.CORS))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": deps.Cfg.App.Name,
		})
	})

	rateLimiter := deps.RateLimiter
	if rateLimiter == nil {
		rateLimiter = middleware.NewIPRateLimiter(deps.Cfg.RateLimit)
	}

	v1 := router.Group("/api/v1")
	{
		registerPublicRoutes(v1, h, rateLimiter)

		protected := v1.Group("")
		protected.Use(middleware.AuthMiddleware(deps.JWTManager, deps.Revocation))
		protected.POST("/auth/logout", h.Auth.Logout)
		protected.GET("/profile", h.Auth.GetProfile)

		admin := protected.Group("/admin")
		admin.Use(middleware.RequireRole(database.RoleSuperAdmin, database.RoleAdmin, database.RoleStaff))
		registerAdminRoutes(admin, h, deps)
	}

	return router
}

func registerPublicRoutes(v1 *gin.RouterGroup, h *Handlers, rateLimiter *middleware.IPRateLimiter) {
	auth := v1.Group("/auth")
	{
		auth.POST("/login", h.Auth.Login)
		auth.POST("/refresh", h.Auth.RefreshToken)
	}

	v1.GET("/categories", h.Product.ListCategories)
	v1.GET("/products", h.Product.List)
	v1.GET("/products/:id", h.Product.Get)

	v1.POST("/quote-requests", rateLimiter.Middleware(), h.QuoteRequest.Submit)
}

func registerAdminRoutes(admin *gin.RouterGroup, h *Handlers, deps *Deps) {
	manageProducts := middleware.RequirePermission(database.PermManageProducts)
	admin.POST("/products", manageProducts, h.Product.Create)
	admin.PUT("/products/:id", manageProducts, h.Product.Update)
	admin.DELETE("/products/:id", manageProducts, h.Product.Delete)
	admin.POST("/categories", middleware.RequirePermission(database.PermManageCategories), h.Product.CreateCategory)

	quotes := admin.Group("/quotes")
	quotes.Use(middleware.RequirePermission(database.PermManageQuotes))
	{
		quotes.POST("/calculate", h.Quote.Calculate)
		quotes.POST("/calculate/export", h.Quote.ExportBreakdown)
		quotes.POST("/pdf", h.Quote.DraftPDF)
		quotes.POST("", middleware.Idempotency(middleware.IdempotencyConfig{Repo: deps.IdempotencyRepo}), h.Quote.Create)
	}

	quoteRequests := admin.Group("/quote-requests")
	quoteRequests.Use(middleware.RequirePermission(database.PermManageQuotes))
	{
		quoteRequests.GET("", h.QuoteRequest.List)
		quoteRequests.GET("/stats", h.QuoteRequest.Stats)
		quoteRequests.GET("/:id", h.QuoteRequest.Get)
		quoteRequests.PUT("/:id", h.QuoteRequest.Update)
		quoteRequests.DELETE("/:id", h.QuoteRequest.Delete)
		quoteRequests.GET("/:id/pdf", h.QuoteRequest.PDF)
		quoteRequests.POST("/:id/convert",
			middleware.RequirePermission(database.PermConvertQuotes),
			middleware.Idempotency(middleware.IdempotencyConfig{Repo: deps.IdempotencyRepo, Required: true}),
			h.QuoteRequest.Convert,
		)
	}

	orders := admin.Group("/orders")
	orders.Use(middleware.RequirePermission(database.PermViewOrders))
	{
		orders.GET("", h.Order.List)
		orders.GET("/:id", h.Order.Get)
	}

	users := admin.Group("")
	users.Use(middleware.RequirePermission(database.PermManageUsers))
	{
		users.GET("/roles", h.User.ListRoles)
		users.GET("/users", h.User.List)
		users.POST("/users", h.User.Create)
		users.GET("/users/:id", h.User.Get)
		users.PUT("/users/:id/roles", h.User.UpdateRoles)
		users.PATCH("/users/:id/status", h.User.UpdateStatus)
	}
}
