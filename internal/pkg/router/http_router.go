package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"

	"github.com/qaura-app/qaura/app/controllers"
	"github.com/qaura-app/qaura/internal/pkg/env"
	"github.com/qaura-app/qaura/internal/pkg/middleware"
	"github.com/qaura-app/qaura/internal/pkg/oauth"
	"github.com/qaura-app/qaura/internal/pkg/session"
)

type HttpRouter struct{}

func NewHttpRouter() *HttpRouter {
	return &HttpRouter{}
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	session.NewSessionStore()

	oauth.Setup()

	app.Use(cors.New(cors.Config{
		AllowOrigins:     env.GetEnv("STOREFRONT_URL", "http://localhost:5173"),
		AllowHeaders:     "Origin, Content-Type, Accept, X-Csrf-Token, X-Idempotency-Key, X-API-Key, Authorization",
		AllowMethods:     "GET, POST, PUT, DELETE, OPTIONS",
		AllowCredentials: true,
	}))
	app.Use(middleware.UserContextMiddleware)

	controllers.InitializeAdminController()

	registerPublicRoutes(app)
	registerCsrfRoutes(app)
	registerAdminRoutes(app)
}
