package middleware

import (
	"context"
	"errors"

	"firmbill/internal/common"
	"firmbill/internal/services"

	"github.com/google/uuid"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
)

// ClaimsContextKey is where the validated claims are stored on the echo context
const ClaimsContextKey = "claims"

var errMalformedSubject = errors.New("token subject is not a user id")

// JWTConfig builds the echo-jwt configuration for the protected route group.
// Parsing goes through the auth service so revoked tokens are refused.
func JWTConfig(authService services.AuthService) echojwt.Config {
	return echojwt.Config{
		ContextKey: ClaimsContextKey,
		ParseTokenFunc: func(c echo.Context, auth string) (interface{}, error) {
			claims, err := authService.ValidateToken(c.Request().Context(), auth)
			if err != nil {
				return nil, err
			}
			userID, err := uuid.Parse(claims.UserID)
			if err != nil {
				return nil, errMalformedSubject
			}

			ctx := context.WithValue(c.Request().Context(), common.UserIDKey, userID)
			ctx = context.WithValue(ctx, common.TokenIDKey, claims.ID)
			c.SetRequest(c.Request().WithContext(ctx))
			return claims, nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return common.SendUnauthorizedError(c)
		},
	}
}

// JWTMiddleware guards a route group with bearer tokens
func JWTMiddleware(authService services.AuthService) echo.MiddlewareFunc {
	return echojwt.WithConfig(JWTConfig(authService))
}

// ClaimsFromContext returns the claims placed by JWTMiddleware
func ClaimsFromContext(c echo.Context) (*services.TokenClaims, bool) {
	claims, ok := c.Get(ClaimsContextKey).(*services.TokenClaims)
	return claims, ok
}
