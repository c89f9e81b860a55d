package controllers

import (
	"github.com/qaura-app/qaura/app/repository"
	"github.com/gofiber/fiber/v2"
)

// Global admin controller instance
var adminController *AdminController

// InitializeAdminController initializes the global admin controller with repositories
func InitializeAdminController() {
	repos := repository.GetGlobalRepositories()
	adminController = NewAdminController(repos)
}

// GetAdminController returns the global admin controller instance
func GetAdminController() *AdminController {
	if adminController == nil {
		InitializeAdminController()
	}
	return adminController
}

// Adapter functions to maintain compatibility with existing router

// HandleAdminDashboard - Adapter for admin dashboard
func HandleAdminDashboard(c *fiber.Ctx) error {
	return GetAdminController().HandleDashboard(c)
}

// HandleAdminUsers - Adapter for user management
func HandleAdminUsers(c *fiber.Ctx) error {
	return GetAdminController().HandleUsers(c)
}

// HandleAdminUserUpdate - Adapter for user update
func HandleAdminUserUpdate(c *fiber.Ctx) error {
	return GetAdminController().HandleUserUpdate(c)
}

// HandleAdminUserDelete - Adapter for user delete
func HandleAdminUserDelete(c *fiber.Ctx) error {
	return GetAdminController().HandleUserDelete(c)
}

// HandleAdminResendActivation - Adapter for resend activation
func HandleAdminResendActivation(c *fiber.Ctx) error {
	return GetAdminController().HandleResendActivation(c)
}

// HandleAdminSubscriptions - Adapter for subscription list
func HandleAdminSubscriptions(c *fiber.Ctx) error {
	return GetAdminController().HandleSubscriptions(c)
}

// HandleAdminWebhookEvents - Adapter for webhook event log
func HandleAdminWebhookEvents(c *fiber.Ctx) error {
	return GetAdminController().HandleWebhookEvents(c)
}

// HandleAdminSetup - Adapter for first-admin bootstrap
func HandleAdminSetup(c *fiber.Ctx) error {
	return GetAdminController().HandleSetup(c)
}

// HandleAdminMetrics - Adapter for funnel metrics readout
func HandleAdminMetrics(c *fiber.Ctx) error {
	return GetAdminController().HandleMetrics(c)
}

// HandleAdminSettings - Adapter for settings readout
func HandleAdminSettings(c *fiber.Ctx) error {
	return GetAdminController().HandleSettings(c)
}

// HandleAdminSettingsUpdate - Adapter for settings update
func HandleAdminSettingsUpdate(c *fiber.Ctx) error {
	return GetAdminController().HandleSettingsUpdate(c)
}
