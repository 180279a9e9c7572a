// services/authentication-service/internal/app/commands/login_user.commands.go
package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tradeguard/platform/services/authentication-service/internal/domain/audit"
	domainErr "github.com/tradeguard/platform/services/authentication-service/internal/domain/errors"
	"github.com/tradeguard/platform/services/authentication-service/internal/domain/session"
	"github.com/tradeguard/platform/services/authentication-service/internal/domain/user"
	"github.com/tradeguard/platform/services/authentication-service/internal/ports/crypto"
	"github.com/tradeguard/platform/services/authentication-service/internal/ports/repository"
)

type LoginUserHandler struct {
	userRepo     repository.UserStore
	passwordHash crypto.PasswordHasher
	tokenSigner  crypto.TokenSigner
	auditRepo    repository.AuditStore
}

func NewLoginUserHandler(
	userRepo repository.UserStore,
	passwordHash crypto.PasswordHasher,
	tokenSigner crypto.TokenSigner,
	auditRepo repository.AuditStore,
) *LoginUserHandler {
	return &LoginUserHandler{
		userRepo:     userRepo,
		passwordHash: passwordHash,
		tokenSigner:  tokenSigner,
		auditRepo:    auditRepo,
	}
}

type LoginParams struct {
	Email     string
	Password  string
	IPAddress string
}

func (h *LoginUserHandler) Handle(ctx context.Context, params LoginParams) (*session.Session, error) {
	u, err := h.userRepo.GetUserByEmail(ctx, user.NormalizeEmail(params.Email))
	if errors.Is(err, domainErr.ErrUserNotFound) {
		return nil, domainErr.ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}

	match, err := h.passwordHash.VerifyPassword(ctx, params.Password, u.PasswordHash)
	if err != nil || !match {
		return nil, domainErr.ErrInvalidCredentials
	}

	switch u.Status {
	case user.UserStatusSuspended:
		return nil, domainErr.ErrUserSuspended
	case user.UserStatusDeleted:
		return nil, domainErr.ErrUserDeleted
	}

	issuedAt := time.Now().UTC()
	token, ttl, err := h.tokenSigner.SignAccessToken(ctx, crypto.AccessClaims{
		UserID:         u.UserID,
		UserEmail:      u.UserEmail,
		Role:           string(u.Role),
		RegNumber:      u.RegNumber,
		PrimaryCountry: u.PrimaryCountry,
		CreatedAt:      u.CreatedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}

	_ = h.auditRepo.Append(ctx, audit.NewUserEvent(audit.ActionUserLoggedIn, u.UserID, params.IPAddress, issuedAt))

	return &session.Session{
		AccessToken: token,
		IssuedAt:    issuedAt,
		ExpiresAt:   issuedAt.Add(ttl),
		User:        *u,
	}, nil
}
