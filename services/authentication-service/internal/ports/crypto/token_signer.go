package crypto

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// services/authentication-service/internal/ports/crypto/token_signer.go

// AccessClaims defines the data baked into access tokens. The web client
// decodes the same names.
type AccessClaims struct {
	UserID         uuid.UUID
	UserEmail      string
	Role           string
	RegNumber      string
	PrimaryCountry string
	CreatedAt      time.Time
}

// TokenSigner mints and checks stateless access tokens.
type TokenSigner interface {
	// SignAccessToken returns the token and how long it stays valid.
	SignAccessToken(ctx context.Context, claims AccessClaims) (token string, expiresIn time.Duration, err error)
	// VerifyAccessToken fails with ErrTokenExpired or ErrTokenInvalid.
	VerifyAccessToken(ctx context.Context, token string) (AccessClaims, error)
}
