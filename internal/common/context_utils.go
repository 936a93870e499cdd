package common

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type contextKey string

const (
	UserIDKey  contextKey = "user_id"
	TokenIDKey contextKey = "token_id"
)

// DateLayout is the wire format for calendar dates
const DateLayout = "2006-01-02"

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Error struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Details map[string]string `json:"details,omitempty"`
	} `json:"error"`
}

// CreateErrorResponse creates a standardized error response
func CreateErrorResponse(code string, message string, details map[string]string) *ErrorResponse {
	var resp ErrorResponse
	resp.Error.Code = code
	resp.Error.Message = message
	resp.Error.Details = details
	return &resp
}

// SendValidationError sends a validation error response
func SendValidationError(c echo.Context, field, message string) error {
	details := map[string]string{
		field: message,
	}
	return c.JSON(http.StatusBadRequest, CreateErrorResponse("VALIDATION_ERROR", "Validation failed", details))
}

// SendClientError sends a client error response
func SendClientError(c echo.Context, message string) error {
	return c.JSON(http.StatusBadRequest, CreateErrorResponse("CLIENT_ERROR", message, nil))
}

// SendConflictError sends a state conflict response
func SendConflictError(c echo.Context, message string) error {
	return c.JSON(http.StatusConflict, CreateErrorResponse("INVALID_STATE", message, nil))
}

// SendServerError sends a server error response
func SendServerError(c echo.Context, message string) error {
	return c.JSON(http.StatusInternalServerError, CreateErrorResponse("SERVER_ERROR", message, nil))
}

// SendNotFoundError sends a not found error response
func SendNotFoundError(c echo.Context, resource string) error {
	return c.JSON(http.StatusNotFound, CreateErrorResponse("NOT_FOUND", fmt.Sprintf("%s not found", resource), nil))
}

// SendUnauthorizedError sends an unauthorized error response
func SendUnauthorizedError(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, CreateErrorResponse("UNAUTHORIZED", "Unauthorized access", nil))
}

// SendServiceError maps an error kind onto the matching response
func SendServiceError(c echo.Context, resource string, err error) error {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		return SendValidationError(c, verr.Field, verr.Message)
	case errors.Is(err, ErrNotFound):
		return SendNotFoundError(c, resource)
	case errors.Is(err, ErrInvalidState):
		return SendConflictError(c, err.Error())
	case errors.Is(err, ErrValidation):
		return SendClientError(c, err.Error())
	case errors.Is(err, ErrUnauthorized):
		return SendUnauthorizedError(c)
	case errors.Is(err, ErrRenderFailure), errors.Is(err, ErrDeliveryFailure):
		return c.JSON(http.StatusBadGateway, CreateErrorResponse("UPSTREAM_ERROR", err.Error(), nil))
	default:
		return SendServerError(c, err.Error())
	}
}

// ParseIDParam reads a UUID path parameter
func ParseIDParam(c echo.Context, name string) (uuid.UUID, error) {
	return ValidateUUID(c.Param(name), name)
}

// ValidateUUID validates UUID format
func ValidateUUID(idStr string, fieldName string) (uuid.UUID, error) {
	idStr = strings.TrimSpace(idStr)
	if idStr == "" {
		return uuid.Nil, Validation(fieldName, "is required")
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		return uuid.Nil, Validation(fieldName, "must be a valid UUID")
	}
	return id, nil
}

// ValidateRequiredString validates required string fields
func ValidateRequiredString(value, fieldName string) error {
	if strings.TrimSpace(value) == "" {
		return Validation(fieldName, "is required")
	}
	return nil
}

// ValidateEmail validates a single address
func ValidateEmail(value, fieldName string) error {
	if strings.TrimSpace(value) == "" {
		return Validation(fieldName, "is required")
	}
	if _, err := mail.ParseAddress(value); err != nil {
		return Validation(fieldName, "must be a valid email address")
	}
	return nil
}

// ValidateEmailList validates every address in a list
func ValidateEmailList(values []string, fieldName string) error {
	for i, v := range values {
		if err := ValidateEmail(v, fmt.Sprintf("%s[%d]", fieldName, i)); err != nil {
			return err
		}
	}
	return nil
}

// ParseDate parses a YYYY-MM-DD string as a UTC calendar date
func ParseDate(value, fieldName string) (time.Time, error) {
	d, err := time.Parse(DateLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, Validation(fieldName, "must be in YYYY-MM-DD format")
	}
	return d, nil
}

// ParseOptionalDate parses a date pointer, nil stays nil
func ParseOptionalDate(value *string, fieldName string) (*time.Time, error) {
	if value == nil || strings.TrimSpace(*value) == "" {
		return nil, nil
	}
	d, err := ParseDate(*value, fieldName)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// ValidatePaginationParams validates pagination parameters
func ValidatePaginationParams(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 500 {
		limit = 500
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// GetUserIDFromContext extracts the user ID from the request context
func GetUserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	userID, ok := ctx.Value(UserIDKey).(uuid.UUID)
	return userID, ok
}

// GetTokenIDFromContext extracts the token id (jti) from the request context
func GetTokenIDFromContext(ctx context.Context) (string, bool) {
	tokenID, ok := ctx.Value(TokenIDKey).(string)
	return tokenID, ok
}
