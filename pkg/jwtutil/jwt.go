package jwtutil

import (
	"errors"
	"fmt"
	"time"

	"hub-service/pkg/config"

	"github.com/golang-jwt/jwt/v4"
)

var (
	// ErrTokenExpired is returned when a token's expiry is in the past
	ErrTokenExpired = errors.New("token_expired")
	// ErrInvalidToken is returned for malformed or tampered tokens
	ErrInvalidToken = errors.New("invalid_token")
)

var jwtConfig *config.JWTConfig

// Initialize sets the JWT configuration used for signing and validation
func Initialize(cfg *config.JWTConfig) {
	jwtConfig = cfg
}

// UserType describes the user's type within the platform hierarchy
type UserType struct {
	ID             uint   `json:"id"`
	Slug           string `json:"slug"`
	HierarchyLevel int    `json:"hierarchy_level"`
}

// SessionClaims represents the JWT claims for an authenticated session.
// TenantID is always the numeric tenant id; the subdomain identifier never
// appears in a token.
type SessionClaims struct {
	UserID       uint     `json:"user_id"`
	TenantID     uint     `json:"tenant_id"`
	Email        string   `json:"email"`
	Role         string   `json:"role"`
	Schema       string   `json:"schema"`
	Timezone     string   `json:"timezone"`
	Locale       string   `json:"locale"`
	AllowedApps  []string `json:"allowed_apps"`
	UserType     UserType `json:"user_type"`
	PlatformRole *string  `json:"platform_role,omitempty"`
	jwt.RegisteredClaims
}

// GenerateToken creates a signed session token from the given claims,
// stamping a fresh issued-at and expiry
func GenerateToken(claims SessionClaims) (string, error) {
	if jwtConfig == nil {
		return "", errors.New("JWT configuration not provided")
	}

	now := time.Now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(jwtConfig.ExpirationHours) * time.Hour)),
		IssuedAt:  jwt.NewNumericDate(now),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(jwtConfig.SigningKey))
}

// ValidateToken validates and parses the session token
func ValidateToken(tokenString string) (*SessionClaims, error) {
	if jwtConfig == nil {
		return nil, errors.New("JWT configuration not provided")
	}

	token, err := jwt.ParseWithClaims(
		tokenString,
		&SessionClaims{},
		func(token *jwt.Token) (interface{}, error) {
			// Validate the signing method
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(jwtConfig.SigningKey), nil
		},
	)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}

	if claims, ok := token.Claims.(*SessionClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, ErrInvalidToken
}

// RefreshToken re-issues a token with a fresh issued-at and expiry. The
// presented token must still be valid.
func RefreshToken(tokenString string) (string, error) {
	claims, err := ValidateToken(tokenString)
	if err != nil {
		return "", err
	}
	return GenerateToken(*claims)
}
