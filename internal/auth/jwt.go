package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/smartsecurity/access-register/internal/config"
	"github.com/smartsecurity/access-register/internal/identity"
	"github.com/smartsecurity/access-register/internal/models"
)

// JWTManager manages JWT tokens
type JWTManager struct {
	config *config.JWTConfig
	now    func() time.Time
}

// NewJWTManager creates a new JWT manager
func NewJWTManager(cfg *config.JWTConfig) *JWTManager {
	return &JWTManager{
		config: cfg,
		now:    time.Now,
	}
}

// Token types carried in the typ claim. Both tokens share one signing key,
// so each parser only accepts its own type.
const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

// Claims represents JWT claims
type Claims struct {
	jwt.RegisteredClaims
	TokenType string      `json:"typ"`
	UserID    uuid.UUID   `json:"user_id"`
	Email     string      `json:"email"`
	Role      models.Role `json:"role"`
	TenantID  *uuid.UUID  `json:"tenant_id,omitempty"`
}

type refreshClaims struct {
	jwt.RegisteredClaims
	TokenType string `json:"typ"`
}

// Identity resolves the caller carried by the claims.
func (c *Claims) Identity() identity.Identity {
	return identity.New(c.UserID, c.Role, c.TenantID)
}

// TokenPair is what a successful login returns.
type TokenPair struct {
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
	ExpiresAt    time.Time    `json:"expiresAt"`
	User         *models.User `json:"user"`
}

// GenerateTokenPair generates access and refresh tokens
func (m *JWTManager) GenerateTokenPair(user *models.User) (*TokenPair, error) {
	now := m.now()
	expiresAt := now.Add(m.config.AccessTokenTTL)

	accessClaims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    m.config.Issuer,
		},
		TokenType: tokenTypeAccess,
		UserID:    user.ID,
		Email:     user.Email,
		Role:      user.Role,
		TenantID:  user.TenantID,
	}

	accessToken := jwt.NewWithClaims(jwt.SigningMethodHS256, accessClaims)
	accessTokenString, err := accessToken.SignedString([]byte(m.config.Secret))
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}

	rc := refreshClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.config.RefreshTokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    m.config.Issuer,
			ID:        uuid.New().String(),
		},
		TokenType: tokenTypeRefresh,
	}

	refreshToken := jwt.NewWithClaims(jwt.SigningMethodHS256, rc)
	refreshTokenString, err := refreshToken.SignedString([]byte(m.config.Secret))
	if err != nil {
		return nil, fmt.Errorf("sign refresh token: %w", err)
	}

	return &TokenPair{
		AccessToken:  accessTokenString,
		RefreshToken: refreshTokenString,
		ExpiresAt:    expiresAt,
		User:         user,
	}, nil
}

// ValidateToken validates an access token
func (m *JWTManager) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, m.keyFunc)
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	if claims.TokenType != tokenTypeAccess {
		return nil, fmt.Errorf("not an access token")
	}
	if !claims.Role.Valid() {
		return nil, fmt.Errorf("invalid role in token")
	}

	return claims, nil
}

// ParseRefreshToken validates a refresh token and returns the user id it was
// issued for
func (m *JWTManager) ParseRefreshToken(tokenString string) (uuid.UUID, error) {
	token, err := jwt.ParseWithClaims(tokenString, &refreshClaims{}, m.keyFunc)
	if err != nil {
		return uuid.Nil, err
	}

	claims, ok := token.Claims.(*refreshClaims)
	if !ok || !token.Valid || claims.TokenType != tokenTypeRefresh {
		return uuid.Nil, fmt.Errorf("invalid refresh token")
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid user ID in token")
	}
	return userID, nil
}

func (m *JWTManager) keyFunc(token *jwt.Token) (interface{}, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
	}
	return []byte(m.config.Secret), nil
}
