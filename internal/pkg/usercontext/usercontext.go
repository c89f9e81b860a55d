package usercontext

import "github.com/gofiber/fiber/v2"

// UserContext represents the complete user context for a request
type UserContext struct {
	UserID       uint   `json:"user_id"`
	Username     string `json:"username"`
	IsLoggedIn   bool   `json:"is_logged_in"`
	IsAdmin      bool   `json:"is_admin"`
	Subscription string `json:"subscription"`
}

// GetUserContext retrieves the user context from fiber context
// Returns a default anonymous context if none is set
func GetUserContext(c *fiber.Ctx) UserContext {
	if ctx := c.Locals("USER_CONTEXT"); ctx != nil {
		return ctx.(UserContext)
	}
	return UserContext{IsLoggedIn: false, IsAdmin: false}
}
