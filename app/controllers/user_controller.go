package controllers

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/qaura-app/qaura/app/models"
	"github.com/qaura-app/qaura/app/repository"
	"github.com/qaura-app/qaura/internal/pkg/usercontext"
)

// HandleGetUserAccount returns account information for the authenticated user (API key or session).
func HandleGetUserAccount(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Missing or invalid authentication"})
	}

	repos := repository.GetGlobalFactory().GetRepositories()
	account, err := repos.User.GetByID(userCtx.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "User not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load user"})
	}

	subscription := subscriptionSummary(repos.Subscription, account.ID)

	return c.JSON(fiber.Map{
		"id":             account.ID,
		"name":           account.Name,
		"email":          account.Email,
		"phone":          account.Phone,
		"whatsapp":       account.Whatsapp,
		"status":         account.Status,
		"is_admin":       account.Role == models.ROLE_ADMIN,
		"api_key_prefix": account.APIKeyPrefix,
		"created_at":     account.CreatedAt.UTC().Format(time.RFC3339),
		"last_login_at":  formatTimePtr(account.LastLoginAt),
		"subscription":   subscription,
	})
}

// HandleUpdateUserProfile updates the mutable profile fields.
func HandleUpdateUserProfile(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Missing or invalid authentication"})
	}

	var req struct {
		Name     string `json:"name"`
		Phone    string `json:"phone"`
		Whatsapp string `json:"whatsapp"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_payload", "message": "Dados inválidos"})
	}

	userRepo := repository.GetGlobalFactory().GetUserRepository()
	user, err := userRepo.GetByID(userCtx.UserID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load user"})
	}

	if name := strings.TrimSpace(req.Name); name != "" {
		user.Name = name
	}
	user.Phone = strings.TrimSpace(req.Phone)
	user.Whatsapp = strings.TrimSpace(req.Whatsapp)
	if err := user.Validate(); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "validation_failed", "message": err.Error()})
	}
	if err := userRepo.Update(user); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to save profile"})
	}

	return c.JSON(fiber.Map{"message": "Perfil atualizado"})
}

// HandleGetUserSubscription returns the caller's subscription status and history.
func HandleGetUserSubscription(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Missing or invalid authentication"})
	}

	subRepo := repository.GetGlobalFactory().GetSubscriptionRepository()
	subs, err := subRepo.GetByUserID(userCtx.UserID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load subscriptions"})
	}

	history := make([]fiber.Map, 0, len(subs))
	for _, sub := range subs {
		history = append(history, fiber.Map{
			"id":             sub.ID,
			"status":         sub.Status,
			"amount":         sub.Amount,
			"payment_method": sub.PaymentMethod,
			"expires_at":     formatTimePtr(sub.ExpiresAt),
			"created_at":     sub.CreatedAt.UTC().Format(time.RFC3339),
		})
	}

	return c.JSON(fiber.Map{
		"current": subscriptionSummary(subRepo, userCtx.UserID),
		"history": history,
	})
}

// HandleIssueAPIKey generates a fresh API key; the raw key is returned exactly once.
func HandleIssueAPIKey(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Missing or invalid authentication"})
	}

	userRepo := repository.GetGlobalFactory().GetUserRepository()
	user, err := userRepo.GetByID(userCtx.UserID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load user"})
	}

	rawKey, err := user.IssueAPIKey()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to generate key"})
	}
	if err := userRepo.Update(user); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to save key"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"api_key":        rawKey,
		"api_key_prefix": user.APIKeyPrefix,
		"message":        "Guarde esta chave, ela não será exibida novamente",
	})
}

func subscriptionSummary(repo repository.SubscriptionRepository, userID uint) fiber.Map {
	now := time.Now()
	if sub, err := repo.GetActiveByUser(userID, now); err == nil {
		return fiber.Map{
			"id":         sub.ID,
			"status":     sub.Status,
			"paid_up":    sub.IsPaidUp(now),
			"expires_at": formatTimePtr(sub.ExpiresAt),
		}
	}
	if sub, err := repo.GetLatestByUser(userID); err == nil {
		return fiber.Map{
			"id":         sub.ID,
			"status":     sub.Status,
			"paid_up":    sub.IsPaidUp(now),
			"expires_at": formatTimePtr(sub.ExpiresAt),
		}
	}
	return fiber.Map{"status": "none", "paid_up": false}
}
