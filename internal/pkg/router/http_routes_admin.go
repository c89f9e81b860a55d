package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/qaura-app/qaura/app/controllers"
	"github.com/qaura-app/qaura/internal/pkg/middleware"
)

func registerAdminRoutes(app *fiber.App) {
	// Open until the first admin exists, locks itself afterwards
	app.Post("/admin/setup", middleware.RequireAPISessionAuth, controllers.HandleAdminSetup)

	admin := app.Group("/admin", middleware.RequireAPIAdminAuth)

	admin.Get("/dashboard", controllers.HandleAdminDashboard)
	admin.Get("/metrics", controllers.HandleAdminMetrics)

	admin.Get("/users", controllers.HandleAdminUsers)
	admin.Put("/users/:id", controllers.HandleAdminUserUpdate)
	admin.Delete("/users/:id", controllers.HandleAdminUserDelete)
	admin.Post("/users/:id/resend-activation", controllers.HandleAdminResendActivation)

	admin.Get("/subscriptions", controllers.HandleAdminSubscriptions)
	admin.Get("/webhook-events", controllers.HandleAdminWebhookEvents)

	admin.Get("/settings", controllers.HandleAdminSettings)
	admin.Put("/settings", controllers.HandleAdminSettingsUpdate)
}
