// services/authentication-service/internal/domain/session/session.domain.go
package session

import (
	"time"

	"github.com/tradeguard/platform/services/authentication-service/internal/domain/user"
)

// Session is what a successful login hands back: a signed, stateless access
// token and the user it was issued to. Nothing is stored server side; the
// token is checked on every request and the user re-read so that role
// changes apply immediately.
type Session struct {
	AccessToken string
	IssuedAt    time.Time
	ExpiresAt   time.Time
	User        user.User
}

// ExpiresIn is the remaining lifetime at issue time.
func (s Session) ExpiresIn() time.Duration {
	return s.ExpiresAt.Sub(s.IssuedAt)
}
