// services/authentication-service/internal/app/commands/edit_profile.commands.go
package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tradeguard/platform/services/authentication-service/internal/domain/audit"
	domainErr "github.com/tradeguard/platform/services/authentication-service/internal/domain/errors"
	"github.com/tradeguard/platform/services/authentication-service/internal/domain/user"
	"github.com/tradeguard/platform/services/authentication-service/internal/ports/crypto"
	"github.com/tradeguard/platform/services/authentication-service/internal/ports/repository"
)

type EditProfileHandler struct {
	userRepo     repository.UserStore
	txManager    repository.TransactionManager
	passwordHash crypto.PasswordHasher
	auditRepo    repository.AuditStore
}

func NewEditProfileHandler(
	userRepo repository.UserStore,
	txManager repository.TransactionManager,
	passwordHash crypto.PasswordHasher,
	auditRepo repository.AuditStore,
) *EditProfileHandler {
	return &EditProfileHandler{
		userRepo:     userRepo,
		txManager:    txManager,
		passwordHash: passwordHash,
		auditRepo:    auditRepo,
	}
}

type EditProfileParams struct {
	ActorID  uuid.UUID // from the verified token
	TargetID uuid.UUID // from the request body
	Update   user.ProfileUpdate

	// Both must be set to change the password.
	CurrentPassword string
	NewPassword     string

	IPAddress string
}

func (h *EditProfileHandler) Handle(ctx context.Context, params EditProfileParams) error {
	if params.ActorID != params.TargetID {
		return domainErr.ErrNotProfileOwner
	}
	if params.NewPassword != "" && params.CurrentPassword == "" {
		return domainErr.ErrPasswordChangeAuth
	}

	now := time.Now().UTC()
	passwordChanged := false

	err := h.txManager.RunInTx(ctx, func(ctx context.Context) error {
		u, err := h.userRepo.GetUserByID(ctx, params.ActorID)
		if err != nil {
			return err
		}

		if params.NewPassword != "" {
			match, err := h.passwordHash.VerifyPassword(ctx, params.CurrentPassword, u.PasswordHash)
			if err != nil {
				return fmt.Errorf("verify password: %w", err)
			}
			if !match {
				return domainErr.ErrWrongPassword
			}
			hash, err := h.passwordHash.HashPassword(ctx, params.NewPassword)
			if err != nil {
				return fmt.Errorf("failed to hash password: %w", err)
			}
			if err := h.userRepo.SetPasswordHash(ctx, u.UserID, hash); err != nil {
				return err
			}
			passwordChanged = true
		}

		if err := params.Update.Apply(u, now); err != nil {
			return err
		}
		return h.userRepo.UpdateProfile(ctx, u)
	})
	if err != nil {
		return err
	}

	_ = h.auditRepo.Append(ctx, audit.NewUserEvent(audit.ActionProfileUpdated, params.ActorID, params.IPAddress, now))
	if passwordChanged {
		_ = h.auditRepo.Append(ctx, audit.NewUserEvent(audit.ActionPasswordChanged, params.ActorID, params.IPAddress, now))
	}
	return nil
}
