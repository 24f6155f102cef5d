package http

import (
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"
	"unicode"

	"chessgame/internal/core"
	"chessgame/internal/service"
	"chessgame/internal/storage"

	"github.com/gofiber/fiber/v2"
)

var (
	emailRegex    = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_]{1,40}$`)
)

// RegisterRequest defines the user registration payload
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=1,max=40"`
	Email    string `json:"email" validate:"omitempty,max=255"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

// LoginRequest defines the authentication payload
type LoginRequest struct {
	Identifier string `json:"identifier" validate:"required,max=255"` // username or email
	Password   string `json:"password" validate:"required,max=128"`
}

// AuthResponse contains the token and user information
type AuthResponse struct {
	Token     string    `json:"token"`
	UserID    string    `json:"userId"`
	Username  string    `json:"username"`
	Email     string    `json:"email,omitempty"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// parseAuthBody parses and validates an auth payload, writing the 400 itself.
func parseAuthBody(c *fiber.Ctx, req any) bool {
	if err := c.BodyParser(req); err != nil {
		c.Status(fiber.StatusBadRequest).JSON(core.ErrorResponse{
			Error:   "invalid request body",
			Code:    core.ErrInvalidRequest,
			Details: err.Error(),
		})
		return false
	}
	if err := validate.Struct(req); err != nil {
		c.Status(fiber.StatusBadRequest).JSON(core.ErrorResponse{
			Error:   "validation failed",
			Code:    core.ErrInvalidRequest,
			Details: describeValidation(err),
		})
		return false
	}
	return true
}

func storageDisabled(c *fiber.Ctx) error {
	return c.Status(fiber.StatusServiceUnavailable).JSON(core.ErrorResponse{
		Error:   "accounts unavailable",
		Code:    core.ErrResourceLimit,
		Details: "server runs without storage",
	})
}

// RegisterHandler creates a new user account
func (h *HTTPHandler) RegisterHandler(c *fiber.Ctx) error {
	var req RegisterRequest
	if !parseAuthBody(c, &req) {
		return nil
	}

	if !usernameRegex.MatchString(req.Username) {
		return c.Status(fiber.StatusBadRequest).JSON(core.ErrorResponse{
			Error:   "invalid username format",
			Code:    core.ErrInvalidRequest,
			Details: "username must be 1-40 characters, alphanumeric and underscore only",
		})
	}
	if req.Email != "" && !emailRegex.MatchString(req.Email) {
		return c.Status(fiber.StatusBadRequest).JSON(core.ErrorResponse{
			Error:   "invalid email format",
			Code:    core.ErrInvalidRequest,
			Details: "email must be a valid email address",
		})
	}
	if err := validatePassword(req.Password); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(core.ErrorResponse{
			Error:   "weak password",
			Code:    core.ErrInvalidRequest,
			Details: err.Error(),
		})
	}

	// stored lowercase; lookups are case-insensitive
	req.Username = strings.ToLower(req.Username)
	req.Email = strings.ToLower(req.Email)

	user, err := h.svc.CreateUser(req.Username, req.Email, req.Password)
	switch {
	case errors.Is(err, service.ErrStorageDisabled):
		return storageDisabled(c)
	case errors.Is(err, service.ErrUserExists):
		return c.Status(fiber.StatusConflict).JSON(core.ErrorResponse{
			Error:   "user already exists",
			Code:    core.ErrInvalidRequest,
			Details: "username or email already taken",
		})
	case err != nil:
		log.Printf("Register %s: %v", req.Username, err)
		return c.Status(fiber.StatusInternalServerError).JSON(core.ErrorResponse{
			Error: "failed to create user",
			Code:  core.ErrInternalError,
		})
	}

	return h.issueToken(c, user, fiber.StatusCreated)
}

func (h *HTTPHandler) issueToken(c *fiber.Ctx, user *service.User, status int) error {
	token, expiresAt, err := h.svc.GenerateUserToken(user.UserID)
	if err != nil {
		log.Printf("Token for %s: %v", user.UserID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(core.ErrorResponse{
			Error: "failed to generate token",
			Code:  core.ErrInternalError,
		})
	}

	return c.Status(status).JSON(AuthResponse{
		Token:     token,
		UserID:    user.UserID,
		Username:  user.Username,
		Email:     user.Email,
		ExpiresAt: expiresAt,
	})
}

// validatePassword requires at least one letter and one number.
func validatePassword(password string) error {
	const (
		minPasswordLength = 8
		maxPasswordLength = 128
	)
	if len(password) < minPasswordLength {
		return fmt.Errorf("password must be at least %d characters", minPasswordLength)
	}
	if len(password) > maxPasswordLength {
		return fmt.Errorf("password must not exceed %d characters", maxPasswordLength)
	}

	var hasLetter, hasNumber bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsNumber(r):
			hasNumber = true
		}
	}
	if !hasLetter || !hasNumber {
		return fmt.Errorf("password must contain at least one letter and one number")
	}
	return nil
}

// LoginHandler authenticates by username or email and returns a token
func (h *HTTPHandler) LoginHandler(c *fiber.Ctx) error {
	var req LoginRequest
	if !parseAuthBody(c, &req) {
		return nil
	}

	user, err := h.svc.AuthenticateUser(strings.ToLower(req.Identifier), req.Password)
	switch {
	case errors.Is(err, service.ErrStorageDisabled):
		return storageDisabled(c)
	case err != nil:
		// same answer for unknown users and wrong passwords
		return c.Status(fiber.StatusUnauthorized).JSON(core.ErrorResponse{
			Error: "invalid credentials",
			Code:  core.ErrUnauthorized,
		})
	}

	if err := h.svc.UpdateLastLogin(user.UserID); err != nil {
		log.Printf("Login %s: %v", user.UserID, err)
	}

	return h.issueToken(c, user, fiber.StatusOK)
}

// GetCurrentUserHandler returns the authenticated user
func (h *HTTPHandler) GetCurrentUserHandler(c *fiber.Ctx) error {
	id := userID(c)
	if id == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(core.ErrorResponse{
			Error: "unauthorized",
			Code:  core.ErrUnauthorized,
		})
	}

	user, err := h.svc.GetUserByID(id)
	switch {
	case errors.Is(err, service.ErrStorageDisabled):
		return storageDisabled(c)
	case errors.Is(err, storage.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(core.ErrorResponse{
			Error: "user not found",
			Code:  core.ErrInvalidRequest,
		})
	case err != nil:
		return c.Status(fiber.StatusInternalServerError).JSON(core.ErrorResponse{
			Error: "failed to load user",
			Code:  core.ErrInternalError,
		})
	}

	return c.JSON(user)
}
