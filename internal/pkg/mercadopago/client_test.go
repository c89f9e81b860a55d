package mercadopago

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreatePreference(t *testing.T) {
	var gotAuth string
	var gotBody PreferenceRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/checkout/preferences", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"pref-1","init_point":"https://mp/init","sandbox_init_point":"https://mp/sandbox"}`))
	}))
	defer server.Close()

	client := NewClient("TEST-token")
	client.APIBaseURL = server.URL

	pref, err := client.CreatePreference(context.Background(), &PreferenceRequest{
		Items: []PreferenceItem{{Title: "Assinatura Q-aura - Mensal", Quantity: 1, CurrencyID: "BRL", UnitPrice: 9.90}},
	})
	require.NoError(t, err)

	assert.Equal(t, "Bearer TEST-token", gotAuth)
	assert.Equal(t, "pref-1", pref.ID)
	assert.Equal(t, "https://mp/init", pref.InitPoint)
	require.Len(t, gotBody.Items, 1)
	assert.Equal(t, 9.90, gotBody.Items[0].UnitPrice)
}

func TestCreatePreferenceAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"invalid access token"}`))
	}))
	defer server.Close()

	client := NewClient("bad")
	client.APIBaseURL = server.URL

	_, err := client.CreatePreference(context.Background(), &PreferenceRequest{
		Items: []PreferenceItem{{Title: "Assinatura Q-aura - Mensal", Quantity: 1, CurrencyID: "BRL", UnitPrice: 9.90}},
	})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Contains(t, apiErr.Body, "invalid access token")
}

func TestGetPayment(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v1/payments/42", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": 42,
			"status": "approved",
			"status_detail": "accredited",
			"external_reference": "7",
			"payment_method_id": "pix",
			"transaction_amount": 9.9,
			"point_of_interaction": {"transaction_data": {"qr_code": "000201pix"}}
		}`))
	}))
	defer server.Close()

	client := NewClient("TEST-token")
	client.APIBaseURL = server.URL

	payment, err := client.GetPayment(context.Background(), "42")
	require.NoError(t, err)

	assert.Equal(t, int64(42), payment.ID)
	assert.Equal(t, "approved", payment.Status)
	assert.Equal(t, "7", payment.ExternalReference)
	assert.Equal(t, "pix", payment.PaymentMethodID)
	assert.Equal(t, "000201pix", payment.PointOfInteraction.TransactionData.QRCode)
}

func TestGetPaymentNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"Payment not found"}`))
	}))
	defer server.Close()

	client := NewClient("TEST-token")
	client.APIBaseURL = server.URL

	_, err := client.GetPayment(context.Background(), "999")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
}

func TestParseWebhookNotification(t *testing.T) {
	tests := []struct {
		name      string
		payload   string
		isPayment bool
		paymentID string
		wantErr   bool
	}{
		{
			name:      "payment with numeric data id",
			payload:   `{"id":100,"type":"payment","action":"payment.updated","data":{"id":42}}`,
			isPayment: true,
			paymentID: "42",
		},
		{
			name:      "payment with string data id",
			payload:   `{"id":100,"type":"payment","data":{"id":"42"}}`,
			isPayment: true,
			paymentID: "42",
		},
		{
			name:      "merchant order ignored",
			payload:   `{"id":101,"type":"merchant_order","data":{"id":"555"}}`,
			isPayment: false,
			paymentID: "555",
		},
		{
			name:    "malformed",
			payload: `{"type":`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			notif, err := ParseWebhookNotification([]byte(tt.payload))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.isPayment, notif.IsPayment())
			assert.Equal(t, tt.paymentID, notif.PaymentID())
		})
	}
}
