package auth

import (
	stdErrors "errors"

	domainErr "github.com/tradeguard/platform/services/authentication-service/internal/domain/errors"
	"github.com/tradeguard/platform/shared/apperrors"
)

// We must prevent user enumeration. If an attacker tries admin@example.com
// and gets "wrong password" but random@example.com gets "user not found",
// they learn which accounts exist. MapLoginError flattens those errors.
//
// The application layer owns this translation: the domain knows nothing
// about HTTP and the transport holds no business rules.

func MapLoginError(err error) error {
	if err == nil {
		return nil
	}
	if stdErrors.Is(err, domainErr.ErrInvalidCredentials) || stdErrors.Is(err, domainErr.ErrUserNotFound) {
		return apperrors.ErrUnauthorized("Invalid credentials").Wrap(err)
	}
	// Account state errors (intentional leakage for UX/support)
	if stdErrors.Is(err, domainErr.ErrUserSuspended) {
		return apperrors.ErrForbidden("Account suspended").Wrap(err)
	}
	if stdErrors.Is(err, domainErr.ErrUserDeleted) {
		return apperrors.ErrForbidden("Account deleted").Wrap(err)
	}
	return apperrors.ErrInternal("").Wrap(err)
}

// MapTokenError renders token middleware failures. Every token problem is a
// 403 with the message the web client shows; a token for a user who no
// longer exists is a 404.
func MapTokenError(err error) error {
	switch {
	case err == nil:
		return nil
	case stdErrors.Is(err, domainErr.ErrTokenMissing):
		return apperrors.ErrForbidden("Token is missing").Wrap(err)
	case stdErrors.Is(err, domainErr.ErrTokenExpired):
		return apperrors.ErrForbidden("Token has expired").Wrap(err)
	case stdErrors.Is(err, domainErr.ErrTokenInvalid):
		return apperrors.ErrForbidden("Token is invalid").Wrap(err)
	case stdErrors.Is(err, domainErr.ErrUserNotFound):
		return apperrors.ErrNotFound("User not found").Wrap(err)
	}
	return apperrors.ErrInternal("").Wrap(err)
}

// MapError covers registration and profile edits.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	for _, m := range []struct {
		target error
		render func() *apperrors.AppError
	}{
		{domainErr.ErrMissingFields, func() *apperrors.AppError { return apperrors.ErrValidation("Missing required fields") }},
		{domainErr.ErrInvalidRole, func() *apperrors.AppError { return apperrors.ErrValidation("Invalid user role") }},
		{domainErr.ErrInvalidCompanyType, func() *apperrors.AppError { return apperrors.ErrValidation("Invalid company type") }},
		{domainErr.ErrInvalidShippingVolume, func() *apperrors.AppError { return apperrors.ErrValidation("Invalid shipping volume") }},
		{domainErr.ErrInvalidInput, func() *apperrors.AppError { return apperrors.ErrValidation("Invalid input") }},
		{domainErr.ErrPasswordChangeAuth, func() *apperrors.AppError {
			return apperrors.ErrValidation("Current password is required to set a new password")
		}},
		{domainErr.ErrEmailAlreadyExists, func() *apperrors.AppError { return apperrors.ErrConflict("Email already exists") }},
		{domainErr.ErrNotProfileOwner, func() *apperrors.AppError { return apperrors.ErrForbidden("You can only edit your own profile") }},
		{domainErr.ErrWrongPassword, func() *apperrors.AppError { return apperrors.ErrUnauthorized("Current password is incorrect") }},
		{domainErr.ErrUserNotFound, func() *apperrors.AppError { return apperrors.ErrNotFound("User not found") }},
	} {
		if stdErrors.Is(err, m.target) {
			return m.render().Wrap(err)
		}
	}
	return apperrors.ErrInternal("").Wrap(err)
}
