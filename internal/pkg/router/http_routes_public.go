package router

import (
	"github.com/gofiber/fiber/v2"
	gothfiber "github.com/shareed2k/goth_fiber"

	"github.com/qaura-app/qaura/app/controllers"
	"github.com/qaura-app/qaura/internal/pkg/constants"
)

// Routes that are exempt from CSRF: provider callbacks, the payment
// webhook and the hosted checkout back-URLs.
func registerPublicRoutes(app *fiber.App) {
	app.Get("/ping", controllers.HandlePing)

	// OAuth login flow
	app.Get("/auth/:provider", gothfiber.BeginAuthHandler)
	app.Get("/auth/:provider/callback", controllers.HandleOAuthCallback)

	// Mercado Pago notifications, always answered with 200
	app.Post(constants.WebhookRoute, controllers.HandleMercadoPagoWebhook)

	// Buyer returns from the hosted checkout
	app.Get(constants.CheckoutSuccessRoute, controllers.HandleCheckoutReturn("success"))
	app.Get(constants.CheckoutFailureRoute, controllers.HandleCheckoutReturn("failure"))
	app.Get(constants.CheckoutPendingRoute, controllers.HandleCheckoutReturn("pending"))
}
