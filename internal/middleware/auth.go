package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"terramap/api/internal/auth"
	"terramap/api/internal/config"
	"terramap/api/internal/models"
	"terramap/api/internal/security"
	"terramap/api/internal/session"
)

const (
	identityKey = "identity"
	sessionKey  = "session_id"
)

type UserSource interface {
	GetByID(ctx context.Context, id string) (models.User, error)
}

type SessionSource interface {
	Get(ctx context.Context, id string) (session.Session, error)
}

// Identify resolves the request to an authenticated identity or aborts with
// 401. The token must reference a live session and the stored role is read
// fresh on every request, so role changes and logouts take effect
// immediately.
func Identify(cfg *config.AppConfig, users UserSource, sessions SessionSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			abortDenied(c, http.StatusUnauthorized)
			return
		}

		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
		claims, err := security.ParseAccessToken(tokenStr, cfg.Security.TokenSecret)
		if err != nil {
			abortDenied(c, http.StatusUnauthorized)
			return
		}

		sess, err := sessions.Get(c.Request.Context(), claims.SessionID)
		if err != nil || sess.UserID != claims.UserID {
			abortDenied(c, http.StatusUnauthorized)
			return
		}

		user, err := users.GetByID(c.Request.Context(), claims.UserID)
		if err != nil {
			abortDenied(c, http.StatusUnauthorized)
			return
		}

		c.Set(identityKey, auth.NewIdentity(user.ID, user.Role))
		c.Set(sessionKey, sess.ID)

		c.Next()
	}
}

// RequireAdmin gates admin-only routes. Runs after Identify.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !CurrentIdentity(c).Admin() {
			abortDenied(c, http.StatusForbidden)
			return
		}
		c.Next()
	}
}

// CurrentIdentity returns the resolved identity, or Anonymous when the
// route carries no Identify middleware.
func CurrentIdentity(c *gin.Context) auth.Identity {
	if val, ok := c.Get(identityKey); ok {
		if identity, ok := val.(auth.Identity); ok {
			return identity
		}
	}
	return auth.Anonymous
}

// CurrentSessionID returns the session behind the request's token, if any.
func CurrentSessionID(c *gin.Context) string {
	return c.GetString(sessionKey)
}

func abortDenied(c *gin.Context, status int) {
	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"message": "access denied",
	})
}
