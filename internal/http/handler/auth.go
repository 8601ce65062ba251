package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"archiveapi/internal/service"
)

// AuthHandler exposes registration and session endpoints.
type AuthHandler struct {
	svc service.AuthService
}

// NewAuthHandler constructs a new AuthHandler.
func NewAuthHandler(svc service.AuthService) *AuthHandler {
	return &AuthHandler{svc: svc}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register creates a new user account.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req credentialsRequest
	if err := c.BodyParser(&req); err != nil {
		return writeError(c, fiber.StatusBadRequest, "BAD_REQUEST", "invalid request body")
	}
	if req.Email == "" || req.Password == "" {
		return writeError(c, fiber.StatusBadRequest, "VALIDATION_ERROR", "email and password are required")
	}

	u, err := h.svc.Register(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "user registered successfully",
		"user":    fiber.Map{"email": u.Email},
	})
}

// Login verifies credentials and issues a bearer token. The token is also set
// as a cookie for browser clients.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req credentialsRequest
	if err := c.BodyParser(&req); err != nil {
		return writeError(c, fiber.StatusBadRequest, "BAD_REQUEST", "invalid request body")
	}

	token, u, err := h.svc.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return writeServiceError(c, err)
	}

	c.Cookie(&fiber.Cookie{
		Name:     "access_token",
		Value:    token,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return c.JSON(fiber.Map{
		"message":      "login successful",
		"access_token": token,
		"user":         fiber.Map{"email": u.Email},
	})
}

// Logout clears the session cookie. Tokens are stateless, so this only
// affects browser clients.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	c.Cookie(&fiber.Cookie{
		Name:     "access_token",
		Value:    "",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return c.JSON(fiber.Map{"message": "logout successful"})
}
