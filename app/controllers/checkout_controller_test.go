package controllers

import (
	"errors"
	"fmt"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qaura-app/qaura/internal/pkg/payments"
)

func TestHandleCheckoutReturnRedirectsToStorefront(t *testing.T) {
	t.Setenv("STOREFRONT_URL", "https://app.qaura.test")

	app := fiber.New()
	app.Get("/checkout/success", HandleCheckoutReturn("success"))
	app.Get("/checkout/failure", HandleCheckoutReturn("failure"))
	app.Get("/checkout/pending", HandleCheckoutReturn("pending"))

	for _, outcome := range []string{"success", "failure", "pending"} {
		resp, err := app.Test(httptest.NewRequest("GET", "/checkout/"+outcome, nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
		assert.Equal(t, "https://app.qaura.test/?payment="+outcome, resp.Header.Get("Location"))
	}
}

func TestRespondCheckoutErrorStatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"auth", &payments.AuthError{Reason: "no session"}, fiber.StatusUnauthorized},
		{"validation", &payments.ValidationError{Field: "cpf", Reason: "length"}, fiber.StatusUnprocessableEntity},
		{"config", &payments.ConfigError{Key: "mercadopago_access_token"}, fiber.StatusServiceUnavailable},
		{"provider", &payments.ProviderError{Op: "create preference", Err: errors.New("boom")}, fiber.StatusBadGateway},
		{"unknown", errors.New("boom"), fiber.StatusInternalServerError},
	}

	for i, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			app := fiber.New()
			path := fmt.Sprintf("/err/%d", i)
			err := tc.err
			app.Get(path, func(c *fiber.Ctx) error {
				return respondCheckoutError(c, err)
			})

			resp, reqErr := app.Test(httptest.NewRequest("GET", path, nil))
			require.NoError(t, reqErr)
			assert.Equal(t, tc.wantStatus, resp.StatusCode)
		})
	}
}
