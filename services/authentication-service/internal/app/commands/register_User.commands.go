// services/authentication-service/internal/app/commands/register_User.commands.go
package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tradeguard/platform/services/authentication-service/internal/domain/audit"
	domainErr "github.com/tradeguard/platform/services/authentication-service/internal/domain/errors"
	"github.com/tradeguard/platform/services/authentication-service/internal/domain/user"
	"github.com/tradeguard/platform/services/authentication-service/internal/ports/crypto"
	"github.com/tradeguard/platform/services/authentication-service/internal/ports/repository"
)

type RegisterUserHandler struct {
	UserRepo     repository.UserStore
	passwordHash crypto.PasswordHasher
	auditRepo    repository.AuditStore
}

func NewRegisterUserHandler(
	userRepo repository.UserStore,
	passwordHash crypto.PasswordHasher,
	auditRepo repository.AuditStore,
) *RegisterUserHandler {
	return &RegisterUserHandler{
		UserRepo:     userRepo,
		passwordHash: passwordHash,
		auditRepo:    auditRepo,
	}
}

type RegisterUserParams struct {
	Email          string
	FirstName      string
	LastName       string
	PhoneNumber    string
	CompanyName    string
	UserRole       string
	CompanyType    string // optional
	RegNumber      string // optional
	PrimaryCountry string
	ShippingVolume string // optional
	Password       string
	IPAddress      string
}

func (p RegisterUserParams) missingRequired() bool {
	for _, v := range []string{p.FirstName, p.LastName, p.Email, p.PhoneNumber, p.CompanyName, p.UserRole, p.PrimaryCountry, p.Password} {
		if strings.TrimSpace(v) == "" {
			return true
		}
	}
	return false
}

func (h *RegisterUserHandler) Handle(ctx context.Context, params RegisterUserParams) (uuid.UUID, error) {
	if params.missingRequired() {
		return uuid.Nil, domainErr.ErrMissingFields
	}
	role, err := user.ParseRole(params.UserRole)
	if err != nil {
		return uuid.Nil, err
	}
	companyType, err := user.ParseCompanyType(params.CompanyType)
	if err != nil {
		return uuid.Nil, err
	}
	volume, err := user.ParseShippingVolume(params.ShippingVolume)
	if err != nil {
		return uuid.Nil, err
	}

	//  Hash Password (CPU Intensive)
	// We do this BEFORE touching the store to keep any transaction short.
	passwordHash, err := h.passwordHash.HashPassword(ctx, params.Password)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now().UTC()
	newUser := &user.User{
		UserID:         uuid.New(),
		UserEmail:      user.NormalizeEmail(params.Email),
		FirstName:      params.FirstName,
		LastName:       params.LastName,
		PhoneNumber:    params.PhoneNumber,
		CompanyName:    params.CompanyName,
		CompanyType:    companyType,
		Role:           role,
		RegNumber:      params.RegNumber,
		PrimaryCountry: params.PrimaryCountry,
		ShippingVolume: volume,
		PasswordHash:   passwordHash,
		Status:         user.UserStatusActive,
		Notifs:         true,
		Alerts:         true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	// The store returns ErrEmailAlreadyExists on the unique constraint.
	if err := h.UserRepo.CreateUser(ctx, newUser); err != nil {
		return uuid.Nil, err
	}

	_ = h.auditRepo.Append(ctx, audit.NewUserEvent(audit.ActionUserRegistered, newUser.UserID, params.IPAddress, now))

	return newUser.UserID, nil
}
