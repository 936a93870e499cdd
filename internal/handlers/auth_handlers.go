package handlers

import (
	"net/http"

	"firmbill/internal/common"
	"firmbill/internal/middleware"
	"firmbill/internal/models"
	"firmbill/internal/services"

	"github.com/labstack/echo/v4"
)

// AuthHandlers handles authentication-related HTTP requests
type AuthHandlers struct {
	authService services.AuthService
}

// NewAuthHandlers creates a new auth handlers instance
func NewAuthHandlers(authService services.AuthService) *AuthHandlers {
	return &AuthHandlers{authService: authService}
}

// LoginResponse represents the login response
type LoginResponse struct {
	models.TokenResponse
	User *models.User `json:"user"`
}

// Login handles POST /auth/login
func (h *AuthHandlers) Login(c echo.Context) error {
	ctx := c.Request().Context()

	var req models.LoginRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}
	if err := common.ValidateRequiredString(req.Email, "email"); err != nil {
		return common.SendServiceError(c, "user", err)
	}
	if err := common.ValidateRequiredString(req.Password, "password"); err != nil {
		return common.SendServiceError(c, "user", err)
	}

	token, err := h.authService.Login(ctx, req.Email, req.Password)
	if err != nil {
		return common.SendServiceError(c, "user", err)
	}
	claims, err := h.authService.ValidateToken(ctx, token.AccessToken)
	if err != nil {
		return common.SendServiceError(c, "user", err)
	}
	userID, err := common.ValidateUUID(claims.UserID, "user_id")
	if err != nil {
		return common.SendServerError(c, "Issued token carries an invalid subject")
	}
	user, err := h.authService.Me(ctx, userID)
	if err != nil {
		return common.SendServiceError(c, "user", err)
	}

	return c.JSON(http.StatusOK, LoginResponse{TokenResponse: *token, User: user})
}

// Me handles GET /auth/me
func (h *AuthHandlers) Me(c echo.Context) error {
	ctx := c.Request().Context()
	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	user, err := h.authService.Me(ctx, userID)
	if err != nil {
		return common.SendServiceError(c, "user", err)
	}
	return c.JSON(http.StatusOK, user)
}

// Logout handles POST /auth/logout, revoking the presented token
func (h *AuthHandlers) Logout(c echo.Context) error {
	claims, ok := middleware.ClaimsFromContext(c)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	if err := h.authService.Logout(c.Request().Context(), claims); err != nil {
		return common.SendServiceError(c, "token", err)
	}
	return c.NoContent(http.StatusNoContent)
}
