// Package jwtmw issues and verifies bearer tokens and protects gin routes with them.
package jwtmw

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"
)

// Keys under which the verified identity is stored on the gin context.
const (
	ContextUserID = "userID"
	ContextRole   = "role"
)

// TokenVerifier validates a token and returns its claims.
type TokenVerifier interface {
	Verify(token string) (*Claims, error)
}

// Identity is the verified subject of a request.
type Identity struct {
	UserID string
	Role   string
}

type identityKey struct{}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext returns the identity attached by AuthRequired.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}

// IdentityFrom reads the identity attached to a gin context.
func IdentityFrom(c *gin.Context) (Identity, bool) {
	userID := c.GetString(ContextUserID)
	role := c.GetString(ContextRole)
	if userID == "" || role == "" {
		return Identity{}, false
	}
	return Identity{UserID: userID, Role: role}, true
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header value.
func BearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, prefix))
	if token == "" {
		return "", false
	}
	return token, true
}

func abort(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"success": false, "message": message})
}

// AuthRequired returns a Gin middleware function that validates bearer tokens
// and restricts access to authenticated users only.
func AuthRequired(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. Get Authorization header
		token, ok := BearerToken(c.GetHeader("Authorization"))
		if !ok {
			abort(c, http.StatusUnauthorized, "missing bearer token")
			return
		}

		// 2. Verify signature and expiry
		claims, err := verifier.Verify(token)
		if err != nil {
			slog.Warn("token rejected", "error", err, "path", c.FullPath(), "remote_addr", c.ClientIP())
			msg := "invalid token"
			if errors.Is(err, ErrTokenExpired) {
				msg = "token expired"
			}
			abort(c, http.StatusUnauthorized, msg)
			return
		}

		// 3. Attach identity for downstream handlers
		id := Identity{UserID: claims.Subject, Role: claims.Role}
		c.Set(ContextUserID, id.UserID)
		c.Set(ContextRole, id.Role)
		c.Request = c.Request.WithContext(WithIdentity(c.Request.Context(), id))

		c.Next()
	}
}

// Authorize returns a middleware that admits only identities whose role is in roles.
// It must run after AuthRequired; without a verified identity it answers 401.
func Authorize(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := IdentityFrom(c)
		if !ok {
			abort(c, http.StatusUnauthorized, "authentication required")
			return
		}
		if !slices.Contains(roles, id.Role) {
			slog.Warn("role not permitted", "user_id", id.UserID, "role", id.Role, "required", roles, "path", c.FullPath())
			abort(c, http.StatusForbidden, "you do not have permission to access this resource")
			return
		}
		c.Next()
	}
}
