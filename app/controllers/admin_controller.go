package controllers

import (
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/qaura-app/qaura/app/models"
	"github.com/qaura-app/qaura/app/repository"
	"github.com/qaura-app/qaura/internal/pkg/cache"
	"github.com/qaura-app/qaura/internal/pkg/database"
	"github.com/qaura-app/qaura/internal/pkg/mail"
	"github.com/qaura-app/qaura/internal/pkg/metrics/counter"
	"github.com/qaura-app/qaura/internal/pkg/session"
	"github.com/qaura-app/qaura/internal/pkg/usercontext"
)

// AdminController handles admin-related HTTP requests using repository pattern
type AdminController struct {
	repos *repository.Repositories
}

// NewAdminController creates a new admin controller with repository dependencies
func NewAdminController(repos *repository.Repositories) *AdminController {
	return &AdminController{
		repos: repos,
	}
}

// HandleDashboard returns the admin dashboard metrics
func (ac *AdminController) HandleDashboard(c *fiber.Ctx) error {
	totalUsers, err := ac.repos.User.Count()
	if err != nil {
		return ac.handleError(c, "Failed to get user count", err)
	}

	totalSubs, err := ac.repos.Subscription.Count()
	if err != nil {
		return ac.handleError(c, "Failed to get subscription count", err)
	}
	activeSubs, err := ac.repos.Subscription.CountByStatus(models.SubscriptionStatusActive)
	if err != nil {
		return ac.handleError(c, "Failed to get active subscription count", err)
	}
	pendingSubs, err := ac.repos.Subscription.CountByStatus(models.SubscriptionStatusPending)
	if err != nil {
		return ac.handleError(c, "Failed to get pending subscription count", err)
	}
	cancelledSubs, err := ac.repos.Subscription.CountByStatus(models.SubscriptionStatusCancelled)
	if err != nil {
		return ac.handleError(c, "Failed to get cancelled subscription count", err)
	}

	revenue, err := ac.repos.Subscription.TotalRevenue()
	if err != nil {
		return ac.handleError(c, "Failed to calculate revenue", err)
	}

	recentUsers, err := ac.repos.User.List(0, 5)
	if err != nil {
		return ac.handleError(c, "Failed to get recent users", err)
	}
	recent := make([]fiber.Map, 0, len(recentUsers))
	for _, u := range recentUsers {
		recent = append(recent, fiber.Map{
			"id":         u.ID,
			"name":       u.Name,
			"email":      u.Email,
			"status":     u.Status,
			"created_at": u.CreatedAt.UTC().Format(time.RFC3339),
		})
	}

	return c.JSON(fiber.Map{
		"users": fiber.Map{
			"total":         totalUsers,
			"daily_signups": ac.getLastSevenDaysStats("users"),
		},
		"subscriptions": fiber.Map{
			"total":             totalSubs,
			"active":            activeSubs,
			"pending":           pendingSubs,
			"cancelled":         cancelledSubs,
			"revenue":           revenue,
			"daily_activations": ac.getLastSevenDaysStats("activations"),
		},
		"recent_users": recent,
	})
}

// HandleUsers returns the paginated user list with subscription info
func (ac *AdminController) HandleUsers(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	if page < 1 {
		page = 1
	}
	perPage := 20
	offset := (page - 1) * perPage

	totalUsers, err := ac.repos.User.Count()
	if err != nil {
		return ac.handleError(c, "Failed to get user count", err)
	}

	var users []repository.UserWithSubscription
	if query := strings.TrimSpace(c.Query("q")); query != "" {
		users, err = ac.repos.User.SearchWithSubscription(query)
	} else {
		users, err = ac.repos.User.GetWithSubscription(offset, perPage)
	}
	if err != nil {
		return ac.handleError(c, "Failed to get users", err)
	}

	totalPages := int(totalUsers) / perPage
	if int(totalUsers)%perPage > 0 {
		totalPages++
	}

	result := make([]fiber.Map, 0, len(users))
	for _, entry := range users {
		item := fiber.Map{
			"id":         entry.User.ID,
			"name":       entry.User.Name,
			"email":      entry.User.Email,
			"role":       entry.User.Role,
			"status":     entry.User.Status,
			"created_at": entry.User.CreatedAt.UTC().Format(time.RFC3339),
		}
		if entry.Subscription != nil {
			item["subscription"] = fiber.Map{
				"id":         entry.Subscription.ID,
				"status":     entry.Subscription.Status,
				"expires_at": formatTimePtr(entry.Subscription.ExpiresAt),
			}
		}
		result = append(result, item)
	}

	return c.JSON(fiber.Map{
		"users":       result,
		"page":        page,
		"total_pages": totalPages,
		"total":       totalUsers,
	})
}

// HandleUserUpdate updates a user's profile, role and status
func (ac *AdminController) HandleUserUpdate(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_id", "message": "Invalid user id"})
	}

	user, err := ac.repos.User.GetByID(uint(id))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "User not found"})
	}

	var req struct {
		Name   string `json:"name"`
		Email  string `json:"email"`
		Role   string `json:"role"`
		Status string `json:"status"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_payload", "message": "Invalid body"})
	}

	user.Name = req.Name
	user.Email = req.Email
	user.Role = req.Role
	user.Status = req.Status

	if err := user.Validate(); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "validation_failed", "message": err.Error()})
	}
	if err := ac.repos.User.Update(user); err != nil {
		return ac.handleError(c, "Failed to update user", err)
	}

	return c.JSON(fiber.Map{"message": "User updated"})
}

// HandleUserDelete soft deletes a user
func (ac *AdminController) HandleUserDelete(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_id", "message": "Invalid user id"})
	}

	// Prevent self-deletion
	sess, _ := session.GetSessionStore().Get(c)
	if currentUserID, ok := sess.Get(usercontext.KeyUserID).(uint); ok && currentUserID == uint(id) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "self_delete", "message": "You cannot delete your own account"})
	}

	if err := ac.repos.User.Delete(uint(id)); err != nil {
		return ac.handleError(c, "Failed to delete user", err)
	}

	return c.JSON(fiber.Map{"message": "User deleted"})
}

// HandleResendActivation regenerates the activation token and resends the mail
func (ac *AdminController) HandleResendActivation(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_id", "message": "Invalid user id"})
	}

	user, err := ac.repos.User.GetByID(uint(id))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "User not found"})
	}

	if err := user.GenerateActivationToken(); err != nil {
		return ac.handleError(c, "Failed to generate activation token", err)
	}
	if err := ac.repos.User.Update(user); err != nil {
		return ac.handleError(c, "Failed to save activation token", err)
	}
	if err := mail.SendActivationMail(user.Email, user.Name, user.ActivationToken); err != nil {
		return ac.handleError(c, "Failed to send activation mail", err)
	}

	return c.JSON(fiber.Map{"message": "Activation mail sent"})
}

// HandleSubscriptions returns the paginated subscription list
func (ac *AdminController) HandleSubscriptions(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	if page < 1 {
		page = 1
	}
	perPage := 20
	offset := (page - 1) * perPage

	var subs []models.Subscription
	var err error
	if status := strings.TrimSpace(c.Query("status")); status != "" {
		subs, err = ac.repos.Subscription.ListByStatus(status, offset, perPage)
	} else {
		subs, err = ac.repos.Subscription.List(offset, perPage)
	}
	if err != nil {
		return ac.handleError(c, "Failed to list subscriptions", err)
	}

	result := make([]fiber.Map, 0, len(subs))
	for _, sub := range subs {
		result = append(result, fiber.Map{
			"id":                 sub.ID,
			"user_id":            sub.UserID,
			"status":             sub.Status,
			"amount":             sub.Amount,
			"payment_method":     sub.PaymentMethod,
			"preference_id":      sub.PreferenceID,
			"payment_id":         sub.PaymentID,
			"external_reference": sub.ExternalReference,
			"expires_at":         formatTimePtr(sub.ExpiresAt),
			"created_at":         sub.CreatedAt.UTC().Format(time.RFC3339),
		})
	}

	return c.JSON(fiber.Map{"subscriptions": result, "page": page})
}

// HandleWebhookEvents returns recent webhook deliveries for troubleshooting
func (ac *AdminController) HandleWebhookEvents(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit", "50"))
	if limit < 1 || limit > 200 {
		limit = 50
	}

	var events []models.PaymentWebhookEvent
	if err := database.GetDB().Order("created_at DESC").Limit(limit).Find(&events).Error; err != nil {
		return ac.handleError(c, "Failed to list webhook events", err)
	}

	result := make([]fiber.Map, 0, len(events))
	for _, event := range events {
		result = append(result, fiber.Map{
			"id":                event.ID,
			"provider_event_id": event.ProviderEventID,
			"event_type":        event.EventType,
			"payment_id":        event.PaymentID,
			"processed_at":      formatTimePtr(event.ProcessedAt),
			"processing_error":  event.ProcessingError,
			"created_at":        event.CreatedAt.UTC().Format(time.RFC3339),
		})
	}

	return c.JSON(fiber.Map{"events": result})
}

// HandleSetup promotes the calling user to admin as long as no admin exists
// yet. It bootstraps a fresh install and locks itself afterwards.
func (ac *AdminController) HandleSetup(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Faça login para continuar"})
	}

	admins, err := ac.repos.User.CountByRole(models.ROLE_ADMIN)
	if err != nil {
		return ac.handleError(c, "Failed to count admins", err)
	}
	if admins > 0 {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "already_configured", "message": "Um administrador já foi configurado"})
	}

	user, err := ac.repos.User.GetByID(userCtx.UserID)
	if err != nil {
		return ac.handleError(c, "Failed to load user", err)
	}

	user.Role = models.ROLE_ADMIN
	if err := ac.repos.User.Update(user); err != nil {
		return ac.handleError(c, "Failed to promote user", err)
	}

	if sess, sessErr := session.GetSessionStore().Get(c); sessErr == nil {
		sess.Set(USER_IS_ADMIN, true)
		if err := sess.Save(); err != nil {
			log.Printf("session update after admin setup failed: %v", err)
		}
	}

	return c.JSON(fiber.Map{"message": "Administrador configurado", "is_admin": true})
}

// HandleMetrics returns the checkout funnel counters per day. Pending Redis
// counters are flushed first so the readout includes the current interval.
func (ac *AdminController) HandleMetrics(c *fiber.Ctx) error {
	days, _ := strconv.Atoi(c.Query("days", "30"))
	if days < 1 || days > 365 {
		days = 30
	}

	if err := counter.FlushAll(); err != nil {
		log.Printf("counter flush before readout failed: %v", err)
	}

	since := time.Now().UTC().AddDate(0, 0, -days).Format("2006-01-02")
	var rows []models.DailyMetric
	if err := database.GetDB().Where("date >= ?", since).Order("date DESC").Find(&rows).Error; err != nil {
		return ac.handleError(c, "Failed to load metrics", err)
	}

	result := make([]fiber.Map, 0, len(rows))
	for _, row := range rows {
		result = append(result, fiber.Map{
			"date":        row.Date,
			"checkouts":   row.Checkouts,
			"webhooks":    row.Webhooks,
			"activations": row.Activations,
		})
	}

	return c.JSON(fiber.Map{"metrics": result, "days": days})
}

// HandleSettings returns the current application settings, credentials masked
func (ac *AdminController) HandleSettings(c *fiber.Ctx) error {
	settings, err := ac.repos.Setting.Get()
	if err != nil {
		return ac.handleError(c, "Failed to get settings", err)
	}

	publicKey, _ := ac.repos.Setting.GetValue(models.SettingKeyMPPublicKey)
	accessToken, _ := ac.repos.Setting.GetValue(models.SettingKeyMPAccessToken)
	webhookSecret, _ := ac.repos.Setting.GetValue(models.SettingKeyMPWebhookSecret)

	return c.JSON(fiber.Map{
		"site_title":                         settings.SiteTitle,
		"site_description":                   settings.SiteDescription,
		"checkout_enabled":                   settings.CheckoutEnabled,
		"mercadopago_public_key":             publicKey,
		"mercadopago_token_present":          strings.TrimSpace(accessToken) != "",
		"mercadopago_webhook_secret_present": strings.TrimSpace(webhookSecret) != "",
	})
}

// HandleSettingsUpdate saves application settings and provider credentials
func (ac *AdminController) HandleSettingsUpdate(c *fiber.Ctx) error {
	var req struct {
		SiteTitle       string  `json:"site_title"`
		SiteDescription string  `json:"site_description"`
		CheckoutEnabled bool    `json:"checkout_enabled"`
		MPPublicKey     *string `json:"mercadopago_public_key"`
		MPAccessToken   *string `json:"mercadopago_access_token"`
		MPWebhookSecret *string `json:"mercadopago_webhook_secret"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_payload", "message": "Invalid body"})
	}

	newSettings := &models.AppSettings{
		SiteTitle:       req.SiteTitle,
		SiteDescription: req.SiteDescription,
		CheckoutEnabled: req.CheckoutEnabled,
	}
	if err := ac.repos.Setting.Save(newSettings); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "validation_failed", "message": err.Error()})
	}

	// Credentials are only written when the field is present in the payload,
	// so saving the general settings never wipes them
	if req.MPPublicKey != nil {
		if err := ac.repos.Setting.SetValue(models.SettingKeyMPPublicKey, strings.TrimSpace(*req.MPPublicKey)); err != nil {
			return ac.handleError(c, "Failed to save public key", err)
		}
	}
	if req.MPAccessToken != nil {
		if err := ac.repos.Setting.SetValue(models.SettingKeyMPAccessToken, strings.TrimSpace(*req.MPAccessToken)); err != nil {
			return ac.handleError(c, "Failed to save access token", err)
		}
		// drop the cached credential so the rotation applies immediately
		if err := cache.Delete("settings:" + models.SettingKeyMPAccessToken); err != nil {
			log.Printf("credential cache invalidation failed: %v", err)
		}
	}
	if req.MPWebhookSecret != nil {
		if err := ac.repos.Setting.SetValue(models.SettingKeyMPWebhookSecret, strings.TrimSpace(*req.MPWebhookSecret)); err != nil {
			return ac.handleError(c, "Failed to save webhook secret", err)
		}
	}

	return c.JSON(fiber.Map{"message": "Settings saved"})
}

// handleError handles errors consistently
func (ac *AdminController) handleError(c *fiber.Ctx, message string, err error) error {
	log.Printf("Admin Controller Error: %s - %v", message, err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": message})
}

// getLastSevenDaysStats generates statistics for the last 7 days using repositories
func (ac *AdminController) getLastSevenDaysStats(statsType string) []repository.DailyStat {
	now := time.Now()
	startDate := now.AddDate(0, 0, -6).Truncate(24 * time.Hour)
	endDate := now.Truncate(24 * time.Hour).Add(24*time.Hour - time.Nanosecond)

	var stats []repository.DailyStat
	var err error

	switch statsType {
	case "users":
		stats, err = ac.repos.User.GetDailySignups(startDate, endDate)
	case "activations":
		stats, err = ac.repos.Subscription.GetDailyActivations(startDate, endDate)
	default:
		return ac.createEmptyDailyStats(7)
	}

	if err != nil {
		log.Printf("Error getting daily stats for %s: %v", statsType, err)
		return ac.createEmptyDailyStats(7)
	}

	return ac.fillStatGaps(stats, startDate, 7)
}

// createEmptyDailyStats creates a slice of DailyStat with zero counts for the last n days
func (ac *AdminController) createEmptyDailyStats(days int) []repository.DailyStat {
	result := make([]repository.DailyStat, days)
	now := time.Now()

	for i := 0; i < days; i++ {
		date := now.AddDate(0, 0, -(days - 1 - i))
		result[i] = repository.DailyStat{Date: date.Format("2006-01-02"), Count: 0}
	}

	return result
}

// fillStatGaps fills missing dates in stats with zero counts
func (ac *AdminController) fillStatGaps(stats []repository.DailyStat, startDate time.Time, days int) []repository.DailyStat {
	result := make([]repository.DailyStat, days)
	statsMap := make(map[string]int)

	for _, stat := range stats {
		statsMap[stat.Date] = stat.Count
	}

	for i := 0; i < days; i++ {
		date := startDate.AddDate(0, 0, i)
		dateStr := date.Format("2006-01-02")
		result[i] = repository.DailyStat{Date: dateStr, Count: statsMap[dateStr]}
	}

	return result
}
