package router

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"

	"github.com/qaura-app/qaura/app/controllers"
	"github.com/qaura-app/qaura/internal/pkg/constants"
	"github.com/qaura-app/qaura/internal/pkg/session"
)

func registerCsrfRoutes(app *fiber.App) {
	app.Use(csrf.New(csrf.Config{
		Next: func(c *fiber.Ctx) bool {
			// API calls authenticate via session cookie plus JSON body or
			// API key, the webhook and OAuth callbacks carry no session.
			p := c.Path()
			return strings.HasPrefix(p, "/api/") ||
				strings.HasPrefix(p, "/auth/") ||
				strings.HasPrefix(p, "/webhooks/")
		},
		KeyLookup:      "header:X-Csrf-Token",
		CookieName:     "csrf_",
		CookieHTTPOnly: true,
		CookieSameSite: "Lax",
		Expiration:     1 * time.Hour,
		Session:        session.GetSessionStore(),
	}))

	app.Get(constants.PublicRoute, controllers.HandleStart)
}
