package router

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/qaura-app/qaura/app/controllers"
	"github.com/qaura-app/qaura/internal/pkg/middleware"
)

type ApiRouter struct{}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", limiter.New(limiter.Config{
		Max:        60,
		Expiration: 1 * time.Minute,
	}))

	v1 := api.Group("/v1")

	v1.Get("/config/public-key", controllers.HandleGetPublicKey)

	auth := v1.Group("/auth")
	auth.Post("/register", controllers.HandleAuthRegister)
	auth.Get("/activate", controllers.HandleAuthActivate)
	auth.Post("/login", controllers.HandleAuthLogin)
	auth.Post("/logout", controllers.HandleAuthLogout)

	checkout := v1.Group("/checkout", middleware.RequireAPISessionAuth)
	checkout.Post("/preference", controllers.HandleCreateCheckoutPreference)
	checkout.Get("/pix/:id", controllers.HandleGetCheckoutPix)

	user := v1.Group("/user", middleware.RequireAPISessionAuth)
	user.Get("/account", controllers.HandleGetUserAccount)
	user.Put("/profile", controllers.HandleUpdateUserProfile)
	user.Get("/subscription", controllers.HandleGetUserSubscription)
	user.Post("/api-key", controllers.HandleIssueAPIKey)

	// Programmatic access authenticated by API key instead of a session
	ext := v1.Group("/ext", middleware.APIKeyAuthMiddleware())
	ext.Get("/account", controllers.HandleGetUserAccount)
	ext.Get("/subscription", controllers.HandleGetUserSubscription)
}
