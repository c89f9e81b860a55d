package payments

import (
	"context"

	"github.com/qaura-app/qaura/internal/pkg/mercadopago"
)

// CheckoutInput carries the buyer contact fields collected by the checkout
// form plus the authenticated caller identity.
type CheckoutInput struct {
	UserID         uint
	Name           string
	Email          string
	Phone          string
	Whatsapp       string
	CPF            string
	PaymentMethod  string
	IdempotencyKey string
}

// CheckoutResult is what the client needs to send the buyer to the
// provider's hosted checkout.
type CheckoutResult struct {
	SubscriptionID uint   `json:"subscription_id"`
	PreferenceID   string `json:"preference_id"`
	InitPoint      string `json:"init_point"`
	// Reused is true when an idempotency key matched an existing pending
	// subscription and no new preference was created.
	Reused bool `json:"reused,omitempty"`
}

// WebhookDelivery is one provider notification as received over HTTP: the
// raw body plus the headers and query parameter that feed signature
// verification.
type WebhookDelivery struct {
	Body      []byte
	Signature string
	RequestID string
	DataID    string
}

// ReconcileResult describes what a webhook delivery did, for logging.
type ReconcileResult struct {
	Ignored        bool
	Duplicate      bool
	SubscriptionID uint
	Status         string
}

// ProviderClient is the slice of the Mercado Pago API the service uses.
type ProviderClient interface {
	CreatePreference(ctx context.Context, pref *mercadopago.PreferenceRequest) (*mercadopago.Preference, error)
	GetPayment(ctx context.Context, paymentID string) (*mercadopago.Payment, error)
}

// ProviderFactory builds a provider client for the access token read from
// settings on each invocation, so a rotated credential applies without a
// restart.
type ProviderFactory func(accessToken string) ProviderClient
