package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/qaura-app/qaura/app/models"
	"github.com/qaura-app/qaura/app/repository"
)

// HandleGetPublicKey exposes the Mercado Pago public key for the browser
// SDK. The access token is never served here.
func HandleGetPublicKey(c *fiber.Ctx) error {
	settingRepo := repository.GetGlobalFactory().GetSettingRepository()

	publicKey, err := settingRepo.GetValue(models.SettingKeyMPPublicKey)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Não foi possível carregar a configuração"})
	}

	return c.JSON(fiber.Map{"public_key": publicKey})
}
