// services/authentication-service/internal/ports/repository/user_Store.go
package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/tradeguard/platform/services/authentication-service/internal/domain/user"
)

type UserStore interface {
	// CreateUser returns ErrEmailAlreadyExists when the email is taken.
	CreateUser(ctx context.Context, user *user.User) error
	GetUserByEmail(ctx context.Context, email string) (*user.User, error)
	GetUserByID(ctx context.Context, userID uuid.UUID) (*user.User, error)
	// UpdateProfile writes every profile and preference column of u.
	UpdateProfile(ctx context.Context, u *user.User) error
	SetPasswordHash(ctx context.Context, id uuid.UUID, passwordHash string) error
}

// Key rules:
// context.Context always first
// No sql.ErrNoRows leaks → return domain errors
// No optional params → explicit methods
