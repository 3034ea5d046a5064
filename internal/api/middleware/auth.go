package middleware

import (
	"log"
	"net/http"
	"strings"

	"github.com/TheGojiOG/mcadmin/internal/auth"
	"github.com/TheGojiOG/mcadmin/internal/permissions"
	"github.com/gin-gonic/gin"
)

// Context keys set by Auth.
const (
	ContextClaims  = "claims"
	ContextSubject = "subject"
	ContextRoles   = "roles"
)

// Auth validates the bearer token and stores the caller's role set for the
// rest of the request.
func Auth(jwtManager *auth.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header format"})
			c.Abort()
			return
		}

		claims, err := jwtManager.ValidateAccessToken(parts[1])
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			c.Abort()
			return
		}

		c.Set(ContextClaims, claims)
		c.Set(ContextSubject, claims.Subject)
		c.Set(ContextRoles, claims.RoleSet())

		c.Next()
	}
}

// RequireTier rejects callers whose roles do not reach the action's
// minimum tier.
func RequireTier(action string) gin.HandlerFunc {
	if _, ok := permissions.MinimumTier(action); !ok {
		panic("middleware: unknown action " + action)
	}

	return func(c *gin.Context) {
		if _, exists := c.Get(ContextRoles); !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
			c.Abort()
			return
		}

		roles := Roles(c)
		if !permissions.Allowed(action, roles) {
			log.Printf("[RBAC] denied: subject=%s roles=%q action=%s", Subject(c), roles.String(), action)
			c.JSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions"})
			c.Abort()
			return
		}

		c.Next()
	}
}

// Roles returns the caller's role set, or an empty set before Auth ran.
func Roles(c *gin.Context) auth.RoleSet {
	if value, ok := c.Get(ContextRoles); ok {
		if roles, ok := value.(auth.RoleSet); ok {
			return roles
		}
	}
	return auth.NewRoleSet()
}

// Subject returns the token subject.
func Subject(c *gin.Context) string {
	return c.GetString(ContextSubject)
}
