// services/authentication-service/internal/app/queries/current_user.query.go
package queries

import (
	"context"
	"strings"

	domainErr "github.com/tradeguard/platform/services/authentication-service/internal/domain/errors"
	"github.com/tradeguard/platform/services/authentication-service/internal/domain/user"
	"github.com/tradeguard/platform/services/authentication-service/internal/ports/crypto"
	"github.com/tradeguard/platform/services/authentication-service/internal/ports/repository"
)

// CurrentUserHandler turns a presented access token into the user it was
// issued to. The user is re-read on every call so role and status changes
// apply to tokens that are already out.
type CurrentUserHandler struct {
	userRepo    repository.UserStore
	tokenSigner crypto.TokenSigner
}

func NewCurrentUserHandler(userRepo repository.UserStore, tokenSigner crypto.TokenSigner) *CurrentUserHandler {
	return &CurrentUserHandler{userRepo: userRepo, tokenSigner: tokenSigner}
}

// Handle accepts "Bearer <token>" or the raw token.
func (h *CurrentUserHandler) Handle(ctx context.Context, authorization string) (*user.User, error) {
	token := strings.TrimSpace(authorization)
	if scheme, rest, ok := strings.Cut(token, " "); ok && strings.EqualFold(scheme, "Bearer") {
		token = strings.TrimSpace(rest)
	}
	if token == "" {
		return nil, domainErr.ErrTokenMissing
	}

	claims, err := h.tokenSigner.VerifyAccessToken(ctx, token)
	if err != nil {
		return nil, err
	}

	u, err := h.userRepo.GetUserByID(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	if u.Status != user.UserStatusActive {
		return nil, domainErr.ErrUserNotFound
	}
	return u, nil
}
