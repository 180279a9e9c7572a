// services/authentication-service/internal/domain/errors/errors.domain.go
package errors

import "errors"

// Standard Sentinel Errors
// These allow the transport layer to map internal logic to status codes
// (e.g., ErrInvalidCredentials -> 401).

var (
	// Authentication Errors
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserSuspended      = errors.New("user account is suspended")
	ErrUserDeleted        = errors.New("user account is deleted")
	ErrEmailAlreadyExists = errors.New("email already exists")

	// Token Errors
	ErrTokenMissing = errors.New("token is missing")
	ErrTokenExpired = errors.New("token has expired")
	ErrTokenInvalid = errors.New("token is invalid")

	// Profile Errors
	ErrNotProfileOwner    = errors.New("you can only edit your own profile")
	ErrWrongPassword      = errors.New("current password is incorrect")
	ErrPasswordChangeAuth = errors.New("current password is required to set a new password")

	// System/Validation Errors
	ErrMissingFields         = errors.New("missing required fields")
	ErrInvalidRole           = errors.New("invalid user role")
	ErrInvalidCompanyType    = errors.New("invalid company type")
	ErrInvalidShippingVolume = errors.New("invalid shipping volume")
	ErrInvalidInput          = errors.New("invalid input arguments")
)
