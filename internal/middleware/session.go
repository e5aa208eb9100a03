package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"webnotes/internal/session"
)

const (
	// CookieName is the browser cookie carrying the opaque session id.
	CookieName = "session_id"
	// IdentityKey is the gin context key the resolved identity is stored under.
	IdentityKey = "identity"
)

// SessionResolver resolves an opaque session id to an identity. A (nil, nil)
// result means unauthenticated.
type SessionResolver interface {
	Resolve(ctx context.Context, sessionID string) (*session.Identity, error)
}

// RequireSession rejects requests without a resolvable session cookie and
// attaches the identity to the context for downstream handlers.
func RequireSession(resolver SessionResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID, err := c.Cookie(CookieName)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
			c.Abort()
			return
		}

		identity, err := resolver.Resolve(c.Request.Context(), sessionID)
		if err != nil || identity == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
			c.Abort()
			return
		}

		c.Set(IdentityKey, identity)
		c.Next()
	}
}

// GetIdentity extracts the identity placed in the context by RequireSession.
func GetIdentity(c *gin.Context) (*session.Identity, error) {
	value, exists := c.Get(IdentityKey)
	if !exists {
		return nil, errors.New("no identity in context")
	}
	identity, ok := value.(*session.Identity)
	if !ok {
		return nil, errors.New("invalid identity in context")
	}
	return identity, nil
}
