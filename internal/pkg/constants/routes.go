package constants

// Static route constants
const (
	CheckoutSuccessRoute = "/checkout/success"
	CheckoutFailureRoute = "/checkout/failure"
	CheckoutPendingRoute = "/checkout/pending"
	WebhookRoute         = "/webhooks/mercadopago"
	PublicRoute          = "/"
)
