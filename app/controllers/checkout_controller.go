package controllers

import (
	"context"
	"errors"
	"log"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/qaura-app/qaura/app/models"
	"github.com/qaura-app/qaura/app/repository"
	"github.com/qaura-app/qaura/internal/pkg/database"
	"github.com/qaura-app/qaura/internal/pkg/env"
	"github.com/qaura-app/qaura/internal/pkg/metrics/counter"
	"github.com/qaura-app/qaura/internal/pkg/payments"
	"github.com/qaura-app/qaura/internal/pkg/usercontext"
)

// Static PIX code shown while the provider QR code is not available
const pixStaticCode = "00020126580014br.gov.bcb.pix0136123e4567-e12b-12d1-a456-42665544000027040000530398654049.905802BR5925QAURA EDUCACIONAL LTDA6009SAO PAULO61080540900062070503***6304"

type checkoutRequest struct {
	Name          string `json:"name"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	Whatsapp      string `json:"whatsapp"`
	CPF           string `json:"cpf"`
	PaymentMethod string `json:"payment_method"`
}

// HandleCreateCheckoutPreference creates the payment preference for the
// logged-in buyer and returns the hosted checkout URL.
func HandleCreateCheckoutPreference(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Faça login para assinar"})
	}

	if settings := models.GetAppSettings(); settings != nil && !settings.IsCheckoutEnabled() {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "checkout_disabled", "message": "Novas assinaturas estão temporariamente suspensas"})
	}

	var req checkoutRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_payload", "message": "Dados de pagamento inválidos"})
	}

	svc := payments.NewServiceFromDB(database.GetDB())
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	result, err := svc.CreateCheckout(ctx, payments.CheckoutInput{
		UserID:         userCtx.UserID,
		Name:           req.Name,
		Email:          req.Email,
		Phone:          req.Phone,
		Whatsapp:       req.Whatsapp,
		CPF:            req.CPF,
		PaymentMethod:  req.PaymentMethod,
		IdempotencyKey: c.Get("X-Idempotency-Key"),
	})
	if err != nil {
		return respondCheckoutError(c, err)
	}

	if !result.Reused {
		if err := counter.AddCheckout(); err != nil {
			log.Printf("checkout counter increment failed: %v", err)
		}
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"subscription_id": result.SubscriptionID,
		"preference_id":   result.PreferenceID,
		"init_point":      result.InitPoint,
		"amount":          models.SubscriptionPrice,
		"reused":          result.Reused,
	})
}

// HandleGetCheckoutPix returns the PIX copy-and-paste code for a pending
// subscription owned by the caller.
func HandleGetCheckoutPix(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Faça login para continuar"})
	}

	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_id", "message": "Assinatura inválida"})
	}

	subRepo := repository.GetGlobalFactory().GetSubscriptionRepository()
	sub, err := subRepo.GetByID(uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Assinatura não encontrada"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Não foi possível carregar a assinatura"})
	}
	if sub.UserID != userCtx.UserID {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Assinatura não encontrada"})
	}

	qrCode := sub.PixQRCode
	static := false
	if qrCode == "" {
		qrCode = pixStaticCode
		static = true
	}

	return c.JSON(fiber.Map{
		"subscription_id": sub.ID,
		"status":          sub.Status,
		"amount":          sub.Amount,
		"qr_code":         qrCode,
		"static":          static,
	})
}

// HandleCheckoutReturn lands provider back-URLs and forwards the buyer to the
// storefront with the outcome in the query string.
func HandleCheckoutReturn(outcome string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		front := env.GetEnv("STOREFRONT_URL", env.GetEnv("PUBLIC_DOMAIN", "/"))
		return c.Redirect(front+"/?payment="+outcome, fiber.StatusSeeOther)
	}
}

func respondCheckoutError(c *fiber.Ctx, err error) error {
	var authErr *payments.AuthError
	var valErr *payments.ValidationError
	var cfgErr *payments.ConfigError
	var provErr *payments.ProviderError

	switch {
	case errors.As(err, &authErr):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Faça login para assinar"})
	case errors.As(err, &valErr):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error":   "validation_failed",
			"field":   valErr.Field,
			"message": "Verifique os dados informados e tente novamente",
		})
	case errors.As(err, &cfgErr):
		log.Printf("checkout unavailable: %v", err)
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "checkout_unavailable", "message": "Pagamentos temporariamente indisponíveis. Tente novamente em instantes."})
	case errors.As(err, &provErr):
		log.Printf("provider call failed: %v", err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "provider_error", "message": "Não foi possível iniciar o pagamento. Tente novamente."})
	default:
		log.Printf("checkout failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Erro ao processar o pagamento"})
	}
}
