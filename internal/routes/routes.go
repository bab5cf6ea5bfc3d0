package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/imagenwiz/backend/internal/config"
	"github.com/imagenwiz/backend/internal/handlers"
	"github.com/imagenwiz/backend/internal/middleware"
	"gorm.io/gorm"
)

func Setup(
	app *fiber.App,
	cfg *config.Config,
	db *gorm.DB,
	authHandler *handlers.AuthHandler,
	healthHandler *handlers.HealthHandler,
	billingHandler *handlers.BillingHandler,
	imageHandler *handlers.ImageHandler,
	userHandler *handlers.UserHandler,
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

	// Public
	api.Get("/health", healthHandler.Check)
	api.Get("/packages", billingHandler.ListPackages)

	// Stripe webhook: no JWT, authenticated by signature over the raw body
	api.Post("/payments/webhook", billingHandler.HandleWebhook)

	// Auth — public, stricter rate limit: 10 req/min per IP
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

	// Protected routes (JWT required) - apply middleware per route so the
	// public routes above stay public
	api.Post("/auth/logout", middleware.JWTProtected(cfg), authHandler.Logout)
	api.Delete("/auth/account", middleware.JWTProtected(cfg), authHandler.DeleteAccount)

	api.Get("/users/me", middleware.JWTProtected(cfg), userHandler.Me)
	api.Get("/profile", middleware.JWTProtected(cfg), userHandler.GetProfile)
	api.Put("/profile", middleware.JWTProtected(cfg), userHandler.UpdateProfile)

	api.Get("/credits/balance", middleware.JWTProtected(cfg), billingHandler.Balance)
	api.Get("/credits/history", middleware.JWTProtected(cfg), billingHandler.History)
	api.Post("/payments/checkout", middleware.JWTProtected(cfg), billingHandler.CreateCheckout)

	images := api.Group("/images", middleware.JWTProtected(cfg))
	images.Post("/uploads", imageHandler.CreateUpload)
	images.Post("/", imageHandler.Create)
	images.Get("/", imageHandler.List)
	images.Get("/:id", imageHandler.Get)
	images.Delete("/:id", imageHandler.Delete)

	// Admin (JWT + DB role check)
	admin := api.Group("/admin", middleware.JWTProtected(cfg), middleware.AdminRequired(db))
	admin.Get("/users", adminHandler.ListUsers)
	admin.Get("/reconcile/:user_id", adminHandler.Reconcile)

	// Internal callback for the processing backend (shared token, no JWT)
	internal := api.Group("/internal", middleware.InternalOnly(cfg))
	internal.Post("/images/:id/result", imageHandler.SetResult)
}
