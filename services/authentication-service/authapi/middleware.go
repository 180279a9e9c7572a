package authapi

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tradeguard/platform/services/authentication-service/internal/app/auth"
)

const contextKeyPrincipal = "principal"

// Principal is the authenticated caller, as read from the user store on
// this request.
type Principal struct {
	UserID         uuid.UUID
	Email          string
	Role           string
	RegNumber      string
	PrimaryCountry string
	CreatedAt      time.Time
}

// RequireToken rejects requests without a valid token from the
// Authorization header ("Bearer <token>" or the raw token) and stores the
// Principal for PrincipalFrom.
func (m *Module) RequireToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		u, err := m.currentUser.Handle(c.Request.Context(), c.GetHeader("Authorization"))
		if err != nil {
			_ = c.Error(auth.MapTokenError(err))
			c.Abort()
			return
		}
		c.Set(contextKeyPrincipal, Principal{
			UserID:         u.UserID,
			Email:          u.UserEmail,
			Role:           string(u.Role),
			RegNumber:      u.RegNumber,
			PrimaryCountry: u.PrimaryCountry,
			CreatedAt:      u.CreatedAt,
		})
		c.Next()
	}
}

// PrincipalFrom returns the caller RequireToken resolved.
func PrincipalFrom(c *gin.Context) (Principal, bool) {
	v, ok := c.Get(contextKeyPrincipal)
	if !ok {
		return Principal{}, false
	}
	p, ok := v.(Principal)
	return p, ok
}
