// Package auth issues and validates the service tokens that guard the API.
package auth

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"fakturscan/internal/config"
	"fakturscan/internal/domain"
)

// Audience is the audience claim every API token carries.
const Audience = "fakturscan-api"

// Claims represents the JWT claims of a service token.
type Claims struct {
	jwt.RegisteredClaims
}

// TokenManager signs and verifies HS256 service tokens.
type TokenManager struct {
	secret []byte
	issuer string
	expiry time.Duration
	now    func() time.Time
}

// NewTokenManager creates a TokenManager from the JWT settings.
func NewTokenManager(cfg config.JWTConfig) *TokenManager {
	expiry := cfg.AccessExpiry
	if expiry <= 0 {
		expiry = 24 * time.Hour
	}
	return &TokenManager{
		secret: []byte(cfg.Secret),
		issuer: cfg.Issuer,
		expiry: expiry,
		now:    time.Now,
	}
}

// Issue signs a token for subject. ttl <= 0 uses the configured expiry.
func (m *TokenManager) Issue(subject string, ttl time.Duration) (string, time.Time, error) {
	if subject == "" {
		return "", time.Time{}, fmt.Errorf("%w: subject is required", domain.ErrInvalidInput)
	}
	if ttl <= 0 {
		ttl = m.expiry
	}
	now := m.now()
	expiresAt := now.Add(ttl)
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.New().String(),
			Audience:  jwt.ClaimStrings{Audience},
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("signing token: %w", err)
	}
	return signed, expiresAt, nil
}

// Validate parses tokenString and checks signature, expiry, issuer and
// audience. Every failure wraps domain.ErrUnauthorized.
func (m *TokenManager) Validate(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithIssuer(m.issuer), jwt.WithTimeFunc(m.now))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrUnauthorized, err)
	}
	if !token.Valid {
		return nil, domain.ErrUnauthorized
	}

	aud, _ := claims.GetAudience()
	if !slices.Contains(aud, Audience) {
		return nil, fmt.Errorf("%w: %w", domain.ErrUnauthorized, errors.New("token audience mismatch"))
	}
	return claims, nil
}

// SetClock replaces the time source. It is meant for tests.
func (m *TokenManager) SetClock(now func() time.Time) {
	m.now = now
}
