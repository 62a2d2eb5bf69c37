package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"parking-lease-backend/internal/model"
)

const identityKey = "identity"

// Identity is what the auth layer establishes about the caller.
type Identity struct {
	UserID         uint64
	Role           model.Role
	ApprovalStatus model.ApprovalStatus
}

// IsAdmin reports whether the caller has admin privileges.
func (i Identity) IsAdmin() bool { return i.Role == model.RoleAdmin }

// CanLease reports whether the caller may request or manage leases.
func (i Identity) CanLease() bool {
	return i.Role == model.RoleAdmin || i.ApprovalStatus == model.ApprovalApproved
}

// UserLoader resolves a user id from a validated token to the account row.
type UserLoader interface {
	GetUser(ctx context.Context, id uint64) (*model.User, error)
}

// Middleware validates the Bearer token and attaches the caller's Identity
// to the request context.
func Middleware(secret string, users UserLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}

		userID, err := ParseToken(secret, tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		user, err := users.GetUser(c.Request.Context(), userID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unknown user"})
			return
		}

		c.Set(identityKey, Identity{
			UserID:         user.ID,
			Role:           user.Role,
			ApprovalStatus: user.ApprovalStatus,
		})
		c.Next()
	}
}

// RequireAdmin aborts requests from non-admin callers. Must run after
// Middleware.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		ident, ok := CurrentIdentity(c)
		if !ok || !ident.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin only"})
			return
		}
		c.Next()
	}
}

// CurrentIdentity returns the caller's identity established by Middleware.
func CurrentIdentity(c *gin.Context) (Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return Identity{}, false
	}
	ident, ok := v.(Identity)
	return ident, ok
}
