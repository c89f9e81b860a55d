package controllers

import (
	"context"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/qaura-app/qaura/app/models"
	"github.com/qaura-app/qaura/internal/pkg/database"
	"github.com/qaura-app/qaura/internal/pkg/metrics/counter"
	"github.com/qaura-app/qaura/internal/pkg/payments"
)

// HandleMercadoPagoWebhook receives provider notifications and reconciles
// them against local subscriptions. The provider retries on non-2xx, so the
// endpoint acknowledges every delivery and keeps failures in the event log.
func HandleMercadoPagoWebhook(c *fiber.Ctx) error {
	rawBody := append([]byte(nil), c.BodyRaw()...)

	if err := counter.AddWebhook(); err != nil {
		log.Printf("webhook counter increment failed: %v", err)
	}

	svc := payments.NewServiceFromDB(database.GetDB())
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	result, err := svc.Reconcile(ctx, payments.WebhookDelivery{
		Body:      rawBody,
		Signature: c.Get("x-signature"),
		RequestID: c.Get("x-request-id"),
		DataID:    c.Query("data.id"),
	})
	if err != nil {
		log.Printf("webhook reconciliation failed: %v", err)
	} else if result != nil && result.Status == models.SubscriptionStatusActive && !result.Duplicate {
		if err := counter.AddActivation(); err != nil {
			log.Printf("activation counter increment failed: %v", err)
		}
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"received": true})
}
