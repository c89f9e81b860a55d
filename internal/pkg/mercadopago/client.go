package mercadopago

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultAPIBaseURL = "https://api.mercadopago.com"

// Payment status values returned by the payment lookup endpoint.
const (
	PaymentStatusApproved  = "approved"
	PaymentStatusRejected  = "rejected"
	PaymentStatusPending   = "pending"
	PaymentStatusInProcess = "in_process"
)

// Client talks to the Mercado Pago REST API with a bearer access token.
type Client struct {
	AccessToken string
	APIBaseURL  string

	HTTPClient *http.Client
}

// NewClient creates a client for the given access token. Outbound calls are
// bounded by the HTTP client timeout; a hanging provider call is reported as
// an error instead of blocking the invocation indefinitely.
func NewClient(accessToken string) *Client {
	return &Client{
		AccessToken: strings.TrimSpace(accessToken),
		APIBaseURL:  defaultAPIBaseURL,
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// APIError is a non-2xx answer from the provider. The raw body is kept for
// diagnostics since Mercado Pago encodes the cause there.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("mercadopago request failed: status=%d body=%s", e.StatusCode, e.Body)
}

type PreferenceItem struct {
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	Quantity    int     `json:"quantity"`
	CurrencyID  string  `json:"currency_id"`
	UnitPrice   float64 `json:"unit_price"`
}

type PreferencePayer struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Phone struct {
		Number string `json:"number,omitempty"`
	} `json:"phone,omitempty"`
}

type PreferenceBackURLs struct {
	Success string `json:"success,omitempty"`
	Failure string `json:"failure,omitempty"`
	Pending string `json:"pending,omitempty"`
}

// PreferenceRequest is the checkout preference sent to the provider.
type PreferenceRequest struct {
	Items             []PreferenceItem   `json:"items"`
	Payer             PreferencePayer    `json:"payer"`
	BackURLs          PreferenceBackURLs `json:"back_urls"`
	AutoReturn        string             `json:"auto_return,omitempty"`
	NotificationURL   string             `json:"notification_url,omitempty"`
	ExternalReference string             `json:"external_reference,omitempty"`
	Metadata          map[string]any     `json:"metadata,omitempty"`
}

// Preference is the provider-side checkout object returned on creation.
type Preference struct {
	ID               string `json:"id"`
	InitPoint        string `json:"init_point"`
	SandboxInitPoint string `json:"sandbox_init_point"`
}

// Payment is the authoritative payment state from the lookup endpoint.
type Payment struct {
	ID                 int64          `json:"id"`
	Status             string         `json:"status"`
	StatusDetail       string         `json:"status_detail"`
	ExternalReference  string         `json:"external_reference"`
	PaymentMethodID    string         `json:"payment_method_id"`
	PaymentTypeID      string         `json:"payment_type_id"`
	TransactionAmount  float64        `json:"transaction_amount"`
	Metadata           map[string]any `json:"metadata"`
	PointOfInteraction struct {
		TransactionData struct {
			QRCode       string `json:"qr_code"`
			QRCodeBase64 string `json:"qr_code_base64"`
			TicketURL    string `json:"ticket_url"`
		} `json:"transaction_data"`
	} `json:"point_of_interaction"`
}

// CreatePreference registers a checkout preference and returns the hosted
// checkout URL and preference id.
func (c *Client) CreatePreference(ctx context.Context, pref *PreferenceRequest) (*Preference, error) {
	if strings.TrimSpace(c.AccessToken) == "" {
		return nil, errors.New("mercadopago access token is required")
	}
	if pref == nil || len(pref.Items) == 0 {
		return nil, errors.New("preference needs at least one item")
	}

	payload, err := json.Marshal(pref)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimRight(c.APIBaseURL, "/")+"/checkout/preferences", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.AccessToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var out Preference
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, err
	}
	if strings.TrimSpace(out.ID) == "" && strings.TrimSpace(out.InitPoint) == "" {
		return nil, errors.New("mercadopago preference response missing id and init_point")
	}
	return &out, nil
}

// GetPayment fetches a payment by the id carried in a webhook notification.
func (c *Client) GetPayment(ctx context.Context, paymentID string) (*Payment, error) {
	if strings.TrimSpace(c.AccessToken) == "" {
		return nil, errors.New("mercadopago access token is required")
	}
	id := strings.TrimSpace(paymentID)
	if id == "" {
		return nil, errors.New("payment id is required")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		strings.TrimRight(c.APIBaseURL, "/")+"/v1/payments/"+id, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.AccessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var out Payment
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, err
	}
	if out.ID == 0 {
		return nil, errors.New("mercadopago payment response missing id")
	}
	return &out, nil
}

// WebhookNotification is the body Mercado Pago posts to the notification URL.
// Only payment-type notifications trigger reconciliation; every other type is
// acknowledged and ignored.
type WebhookNotification struct {
	ID     json.Number `json:"id"`
	Type   string      `json:"type"`
	Action string      `json:"action"`
	Data   struct {
		ID json.Number `json:"id"`
	} `json:"data"`
}

// ParseWebhookNotification decodes a webhook body. Unknown fields are
// tolerated; the provider adds fields without notice.
func ParseWebhookNotification(payload []byte) (*WebhookNotification, error) {
	var n WebhookNotification
	if err := json.Unmarshal(payload, &n); err != nil {
		return nil, err
	}
	return &n, nil
}

// IsPayment reports whether the notification refers to a payment event.
func (n *WebhookNotification) IsPayment() bool {
	return strings.EqualFold(strings.TrimSpace(n.Type), "payment")
}

// PaymentID returns the referenced payment id, empty when absent.
func (n *WebhookNotification) PaymentID() string {
	return strings.TrimSpace(n.Data.ID.String())
}
