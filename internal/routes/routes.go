package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/example/otpauth/internal/config"
	"github.com/example/otpauth/internal/handlers"
	"github.com/example/otpauth/internal/middleware"
	"github.com/example/otpauth/internal/services"
)

// Register wires up all HTTP routes.
func Register(app *fiber.App, identity *services.IdentityService, cfg *config.Config) {
	authHandler := handlers.NewAuthHandler(identity)
	resetHandler := handlers.NewPasswordResetHandler(identity)

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	app.Post("/register", authHandler.Register)
	app.Post("/verify-otp", authHandler.VerifyOTP)
	app.Post("/login", authHandler.Login)
	app.Post("/forgot-password", resetHandler.ForgotPassword)
	app.Post("/reset-password", resetHandler.ResetPassword)

	app.Get("/me", middleware.AuthMiddleware(cfg), authHandler.Me)
}
