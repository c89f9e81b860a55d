package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/qaura-app/qaura/app/models"
)

// HandleStart describes the service for API consumers.
func HandleStart(c *fiber.Ctx) error {
	settings := models.GetAppSettings()
	title := "Q-aura"
	description := ""
	if settings != nil {
		title = settings.GetSiteTitle()
		description = settings.GetSiteDescription()
	}

	return c.JSON(fiber.Map{
		"name":        title,
		"description": description,
		"plan": fiber.Map{
			"title":    "Assinatura Q-aura - Mensal",
			"amount":   models.SubscriptionPrice,
			"currency": "BRL",
		},
		"logged_in": isLoggedIn(c),
		"username":  ExtractUsername(c),
	})
}

// HandlePing is the health probe for load balancers.
func HandlePing(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}
