package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/vocanote/vocanote-backend/internal/config"
	"github.com/vocanote/vocanote-backend/internal/handlers"
	"github.com/vocanote/vocanote-backend/internal/middleware"
	"gorm.io/gorm"
)

func Setup(
	app *fiber.App,
	cfg *config.Config,
	db *gorm.DB,
	authHandler *handlers.AuthHandler,
	healthHandler *handlers.HealthHandler,
	usageHandler *handlers.UsageHandler,
	noteHandler *handlers.NoteHandler,
	billingHandler *handlers.BillingHandler,
	webhookHandler *handlers.WebhookHandler,
	adminHandler *handlers.AdminHandler,
) {
	api := app.Group("/api")

	// General API rate limiter: 60 req/min per IP
	api.Use(limiter.New(limiter.Config{
		Max:               60,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	// Health (public)
	api.Get("/health", healthHandler.Check)

	// Plan catalog (public)
	api.Get("/billing/plans", billingHandler.Plans)

	// Auth — public, with a stricter rate limit: 10 req/min per IP
	auth := api.Group("/auth")
	auth.Use(limiter.New(limiter.Config{
		Max:               10,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Post("/refresh", authHandler.Refresh)

	// Protected auth routes
	api.Post("/auth/logout", middleware.JWTProtected(cfg), authHandler.Logout)
	api.Delete("/auth/account", middleware.JWTProtected(cfg), authHandler.DeleteAccount)

	// Webhooks — vendor-signed, no JWT
	api.Post("/webhooks/stripe", webhookHandler.HandleStripe)

	// Usage and billing (JWT required)
	api.Get("/usage/today", middleware.JWTProtected(cfg), usageHandler.Today)
	api.Get("/billing/entitlement", middleware.JWTProtected(cfg), billingHandler.Entitlement)
	api.Get("/billing/history", middleware.JWTProtected(cfg), billingHandler.History)
	api.Post("/billing/checkout", middleware.JWTProtected(cfg), billingHandler.CreateCheckout)
	api.Post("/billing/confirm", middleware.JWTProtected(cfg), billingHandler.ConfirmCheckout)

	// Voice notes (JWT required)
	notes := api.Group("/notes", middleware.JWTProtected(cfg))
	notes.Post("/", noteHandler.Create)
	notes.Get("/", noteHandler.List)
	notes.Get("/:id", noteHandler.GetByID)
	notes.Delete("/:id", noteHandler.Delete)

	// Admin panel (protected + admin required)
	admin := api.Group("/admin", middleware.JWTProtected(cfg), middleware.AdminRequired(db, cfg))
	admin.Get("/payments", adminHandler.ListPaymentEvents)
	admin.Get("/users/:user_id/usage", adminHandler.UserUsage)
}
