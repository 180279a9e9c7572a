//services/authentication-service/internal/ports/crypto/jwt.crypto.go

package crypto

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	domainErr "github.com/tradeguard/platform/services/authentication-service/internal/domain/errors"
)

// DefaultTokenTTL matches the 90 minute session the web client expects.
const DefaultTokenTTL = 90 * time.Minute

type tokenClaims struct {
	UserID         string `json:"user_id"`
	Email          string `json:"email"`
	UserRole       string `json:"userRole"`
	RegNumber      string `json:"regNumber"`
	PrimaryCountry string `json:"primaryCountry"`
	CreatedAt      string `json:"created_at"`
	jwt.RegisteredClaims
}

type hmacSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewHMACSigner signs HS256 tokens with secret. A zero ttl means DefaultTokenTTL.
func NewHMACSigner(secret []byte, ttl time.Duration) (TokenSigner, error) {
	return newHMACSigner(secret, ttl, time.Now)
}

func newHMACSigner(secret []byte, ttl time.Duration, now func() time.Time) (*hmacSigner, error) {
	if len(secret) == 0 {
		return nil, errors.New("jwt secret is empty")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &hmacSigner{secret: secret, ttl: ttl, now: now}, nil
}

func (s *hmacSigner) SignAccessToken(ctx context.Context, c AccessClaims) (string, time.Duration, error) {
	now := s.now()
	claims := tokenClaims{
		UserID:         c.UserID.String(),
		Email:          c.UserEmail,
		UserRole:       c.Role,
		RegNumber:      c.RegNumber,
		PrimaryCountry: c.PrimaryCountry,
		CreatedAt:      c.CreatedAt.UTC().Format(time.RFC3339),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   c.UserID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", 0, fmt.Errorf("sign token: %w", err)
	}
	return signed, s.ttl, nil
}

func (s *hmacSigner) VerifyAccessToken(ctx context.Context, token string) (AccessClaims, error) {
	var claims tokenClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return AccessClaims{}, domainErr.ErrTokenExpired
	case err != nil:
		return AccessClaims{}, domainErr.ErrTokenInvalid
	}

	id, err := uuid.Parse(claims.UserID)
	if err != nil {
		return AccessClaims{}, domainErr.ErrTokenInvalid
	}
	created, _ := time.Parse(time.RFC3339, claims.CreatedAt)

	return AccessClaims{
		UserID:         id,
		UserEmail:      claims.Email,
		Role:           claims.UserRole,
		RegNumber:      claims.RegNumber,
		PrimaryCountry: claims.PrimaryCountry,
		CreatedAt:      created,
	}, nil
}
