package controllers

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/qaura-app/qaura/app/models"
	"github.com/qaura-app/qaura/app/repository"
	"github.com/qaura-app/qaura/internal/pkg/mail"
	"github.com/qaura-app/qaura/internal/pkg/session"
)

const (
	AUTH_KEY       string = "authenticated"
	USER_ID        string = "user_id"
	USER_NAME      string = "username"
	USER_IS_ADMIN  string = "isAdmin"
	FROM_PROTECTED string = "from_protected"
)

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
	Whatsapp string `json:"whatsapp"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleAuthRegister creates an inactive account and sends the activation mail.
func HandleAuthRegister(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_payload", "message": "Dados de cadastro inválidos"})
	}

	userRepo := repository.GetGlobalFactory().GetUserRepository()
	if _, err := userRepo.GetByEmail(strings.TrimSpace(req.Email)); err == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "email_taken", "message": "Este e-mail já está cadastrado"})
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Não foi possível concluir o cadastro"})
	}

	user, err := models.CreateUser(strings.TrimSpace(req.Name), strings.TrimSpace(req.Email), req.Password)
	if err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "validation_failed", "message": "Dados de cadastro inválidos: " + err.Error()})
	}
	user.Phone = strings.TrimSpace(req.Phone)
	user.Whatsapp = strings.TrimSpace(req.Whatsapp)
	if err := user.GenerateActivationToken(); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Não foi possível concluir o cadastro"})
	}

	if err := userRepo.Create(user); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Não foi possível concluir o cadastro"})
	}

	// Best-effort; the activation link can be resent later
	if err := mail.SendActivationMail(user.Email, user.Name, user.ActivationToken); err != nil {
		log.Printf("activation mail for user %d failed: %v", user.ID, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"id":      user.ID,
		"email":   user.Email,
		"status":  user.Status,
		"message": "Cadastro realizado. Verifique seu e-mail para ativar a conta.",
	})
}

// HandleAuthActivate activates an account via the mailed token.
func HandleAuthActivate(c *fiber.Ctx) error {
	token := strings.TrimSpace(c.Query("token"))
	if token == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_token", "message": "Token de ativação ausente"})
	}

	userRepo := repository.GetGlobalFactory().GetUserRepository()
	user, err := userRepo.GetByActivationToken(token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "invalid_token", "message": "Token de ativação inválido"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Não foi possível ativar a conta"})
	}

	user.Status = models.STATUS_ACTIVE
	user.ActivationToken = ""
	if err := userRepo.Update(user); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Não foi possível ativar a conta"})
	}

	return c.JSON(fiber.Map{"message": "Conta ativada com sucesso"})
}

// HandleAuthLogin checks credentials and establishes the session.
func HandleAuthLogin(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_payload", "message": "Dados de login inválidos"})
	}

	// Deliberately the same message for unknown email and wrong password
	failed := fiber.Map{"error": "invalid_credentials", "message": "E-mail ou senha incorretos"}

	userRepo := repository.GetGlobalFactory().GetUserRepository()
	user, err := userRepo.GetByEmail(strings.TrimSpace(req.Email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusUnauthorized).JSON(failed)
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Não foi possível fazer login"})
	}

	if !models.CheckPasswordHash(req.Password, user.Password) {
		return c.Status(fiber.StatusUnauthorized).JSON(failed)
	}
	if user.Status != models.STATUS_ACTIVE {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "account_inactive", "message": "Conta ainda não ativada"})
	}

	sess, err := session.GetSessionStore().Get(c)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Não foi possível iniciar a sessão"})
	}
	sess.Set(AUTH_KEY, true)
	sess.Set(USER_ID, user.ID)
	sess.Set(USER_NAME, user.Name)
	sess.Set(USER_IS_ADMIN, user.Role == models.ROLE_ADMIN)
	if err := sess.Save(); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Não foi possível iniciar a sessão"})
	}

	now := time.Now()
	user.LastLoginAt = &now
	if err := userRepo.Update(user); err != nil {
		ipv4, _ := GetClientIP(c)
		log.Printf("last login update failed for user %d (ip %s): %v", user.ID, ipv4, err)
	}

	return c.JSON(fiber.Map{
		"id":       user.ID,
		"name":     user.Name,
		"email":    user.Email,
		"is_admin": user.Role == models.ROLE_ADMIN,
	})
}

// HandleAuthLogout destroys the session.
func HandleAuthLogout(c *fiber.Ctx) error {
	sess, err := session.GetSessionStore().Get(c)
	if err != nil {
		return c.JSON(fiber.Map{"message": "Sessão encerrada"})
	}
	if err := sess.Destroy(); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Não foi possível encerrar a sessão"})
	}
	c.Locals(FROM_PROTECTED, false)
	return c.JSON(fiber.Map{"message": "Sessão encerrada"})
}
