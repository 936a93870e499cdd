package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"firmbill/internal/caching"
	"firmbill/internal/common"
	"firmbill/internal/models"
	"firmbill/internal/repositories"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	tokenIssuer   = "firmbill-auth"
	tokenAudience = "firmbill-api"

	minPasswordLength = 8
)

// AuthService handles admin login and JWT management
type AuthService interface {
	Login(ctx context.Context, email, password string) (*models.TokenResponse, error)
	ValidateToken(ctx context.Context, token string) (*TokenClaims, error)
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
	Logout(ctx context.Context, claims *TokenClaims) error
	Me(ctx context.Context, userID uuid.UUID) (*models.User, error)
	CreateAdmin(ctx context.Context, email, name, password string) (*models.User, error)
}

type authService struct {
	userRepo  repositories.UserRepository
	cacheSvc  caching.CacheService
	jwtSecret []byte
	tokenTTL  time.Duration
	now       func() time.Time
}

// TokenClaims represents JWT claims
type TokenClaims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// NewAuthService creates a new authentication service
func NewAuthService(userRepo repositories.UserRepository, cacheSvc caching.CacheService, jwtSecret string, tokenTTL time.Duration) AuthService {
	return &authService{
		userRepo:  userRepo,
		cacheSvc:  cacheSvc,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  tokenTTL,
		now:       time.Now,
	}
}

func revokedKey(tokenID string) string {
	return fmt.Sprintf("firmbill:revoked:%s", tokenID)
}

// Login verifies credentials and issues an access token
func (s *authService) Login(ctx context.Context, email, password string) (*models.TokenResponse, error) {
	user, err := s.userRepo.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.Wrap("login", common.ErrUnauthorized, errors.New("invalid email or password"))
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, common.Wrap("login", common.ErrUnauthorized, errors.New("invalid email or password"))
	}
	return s.issue(user)
}

func (s *authService) issue(user *models.User) (*models.TokenResponse, error) {
	now := s.now()
	tokenID := uuid.NewString()

	claims := TokenClaims{
		UserID: user.ID.String(),
		Email:  user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   user.ID.String(),
			Audience:  jwt.ClaimStrings{tokenAudience},
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        tokenID,
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign JWT: %w", err)
	}

	return &models.TokenResponse{
		AccessToken: signed,
		TokenType:   "Bearer",
		ExpiresIn:   int(s.tokenTTL.Seconds()),
		UserID:      user.ID.String(),
		TokenID:     tokenID,
		IssuedAt:    now,
	}, nil
}

// ValidateToken parses and verifies an access token, rejecting revoked ones
func (s *authService) ValidateToken(ctx context.Context, token string) (*TokenClaims, error) {
	parsed, err := jwt.ParseWithClaims(token, &TokenClaims{}, func(t *jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithAudience(tokenAudience),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, common.Wrap("validate token", common.ErrUnauthorized, err)
	}

	claims, ok := parsed.Claims.(*TokenClaims)
	if !ok || !parsed.Valid {
		return nil, common.Wrap("validate token", common.ErrUnauthorized, errors.New("invalid token claims"))
	}

	revoked, err := s.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, common.Wrap("validate token", common.ErrUnauthorized, errors.New("token has been revoked"))
	}
	return claims, nil
}

func (s *authService) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	val, err := s.cacheSvc.GetString(ctx, revokedKey(tokenID))
	if err != nil {
		return false, fmt.Errorf("failed to check token revocation: %w", err)
	}
	return val != "", nil
}

// Logout revokes the token until it would have expired anyway
func (s *authService) Logout(ctx context.Context, claims *TokenClaims) error {
	if claims == nil || claims.ID == "" {
		return common.Wrap("logout", common.ErrUnauthorized, errors.New("missing token id"))
	}
	ttl := s.tokenTTL
	if claims.ExpiresAt != nil {
		ttl = claims.ExpiresAt.Sub(s.now())
	}
	if ttl <= 0 {
		return nil
	}
	return s.cacheSvc.SetString(ctx, revokedKey(claims.ID), "1", ttl)
}

func (s *authService) Me(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	return s.userRepo.GetByID(ctx, userID)
}

// CreateAdmin bootstraps an administrator account
func (s *authService) CreateAdmin(ctx context.Context, email, name, password string) (*models.User, error) {
	if err := common.ValidateEmail(email, "email"); err != nil {
		return nil, err
	}
	if err := common.ValidateRequiredString(name, "name"); err != nil {
		return nil, err
	}
	if len(password) < minPasswordLength {
		return nil, common.Validation("password", fmt.Sprintf("must be at least %d characters", minPasswordLength))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		ID:           uuid.New(),
		Email:        strings.ToLower(strings.TrimSpace(email)),
		Name:         strings.TrimSpace(name),
		PasswordHash: string(hash),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}
