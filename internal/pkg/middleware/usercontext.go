package middleware

import (
	"errors"
	"strings"

	"github.com/qaura-app/qaura/app/controllers"
	"github.com/qaura-app/qaura/app/repository"
	"github.com/qaura-app/qaura/internal/pkg/session"
	"github.com/qaura-app/qaura/internal/pkg/usercontext"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// UserContextMiddleware sets up the complete user context for every request
// This centralizes user session handling and eliminates code duplication
func UserContextMiddleware(c *fiber.Ctx) error {
	// Goth uses its own fiber session store and relies on per-request locals.
	// Skip our app session on /auth/* to prevent cross-store collisions.
	if strings.HasPrefix(c.Path(), "/auth/") {
		return c.Next()
	}

	sess, err := session.GetSessionStore().Get(c)
	if err != nil {
		setAnonymousContext(c)
		return c.Next()
	}

	userID := sess.Get(controllers.USER_ID)
	if userID == nil {
		setAnonymousContext(c)
		return c.Next()
	}

	username := session.GetSessionValue(c, controllers.USER_NAME)
	isAdmin := sess.Get(controllers.USER_IS_ADMIN)

	// Resolved from the database on every request so a webhook activation
	// shows up on the very next call, with no session copy to go stale.
	subRepo := repository.GetGlobalFactory().GetSubscriptionRepository()
	status := subscriptionStatus(subRepo, userID.(uint))

	userCtx := usercontext.UserContext{
		UserID:       userID.(uint),
		Username:     username,
		IsLoggedIn:   true,
		IsAdmin:      isAdmin != nil && isAdmin.(bool),
		Subscription: status,
	}
	c.Locals("USER_CONTEXT", userCtx)

	// Legacy compatibility locals used by the controllers
	c.Locals(controllers.FROM_PROTECTED, true)
	c.Locals(controllers.USER_NAME, username)
	c.Locals(controllers.USER_ID, userID.(uint))
	c.Locals(controllers.USER_IS_ADMIN, userCtx.IsAdmin)

	return c.Next()
}

func setAnonymousContext(c *fiber.Ctx) {
	c.Locals("USER_CONTEXT", usercontext.UserContext{
		IsLoggedIn: false,
		IsAdmin:    false,
	})
	c.Locals(controllers.FROM_PROTECTED, false)
	c.Locals(controllers.USER_IS_ADMIN, false)
}

// subscriptionStatus derives the user's current subscription state. "none"
// means no subscription row exists; an empty string signals a lookup failure.
func subscriptionStatus(repo repository.SubscriptionRepository, userID uint) string {
	sub, err := repo.GetLatestByUser(userID)
	if err == nil {
		return sub.Status
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "none"
	}
	return ""
}
