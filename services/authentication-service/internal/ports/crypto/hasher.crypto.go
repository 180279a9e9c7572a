//services/authentication-service/internal/ports/crypto/hasher.crypto.go

package crypto

import "context"

// PasswordHasher defines the contract for password security.
// We use an interface so the commands don't care about the algorithm.
type PasswordHasher interface {
	HashPassword(ctx context.Context, password string) (string, error)
	// VerifyPassword returns (false, nil) for a wrong password and an error
	// only when the stored hash cannot be parsed.
	VerifyPassword(ctx context.Context, password, encodedHash string) (bool, error)
}
