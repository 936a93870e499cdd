package models

import "time"

// TokenResponse is returned by login
type TokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresIn   int       `json:"expires_in"`
	UserID      string    `json:"user_id"`
	TokenID     string    `json:"token_id"`
	IssuedAt    time.Time `json:"issued_at"`
}

// LoginRequest carries administrator credentials
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
