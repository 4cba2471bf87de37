package middleware

import (
	"log/slog"
	"net/http"

	"github.com/clubhouse-dev/clubhouse/internal/auth"
	"github.com/clubhouse-dev/clubhouse/internal/rbac"
	"github.com/gin-gonic/gin"
)

// RequireAccess lets the request through only when the authenticated user's
// base role is granted act on area by the console policy. PENDING and
// SUSPENDED users have no grants and stop here.
func RequireAccess(policy *rbac.Policy, area, act string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := auth.UserFromContext(c)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			c.Abort()
			return
		}

		allowed, err := policy.CanAccess(user.BaseRole, area, act)
		if err != nil {
			slog.Error("Failed to evaluate console policy", "area", area, "action", act, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to evaluate access policy"})
			c.Abort()
			return
		}
		if !allowed {
			c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
			c.Abort()
			return
		}

		c.Next()
	}
}

// RequireConsole is RequireAccess for the console as a whole.
func RequireConsole(policy *rbac.Policy) gin.HandlerFunc {
	return RequireAccess(policy, rbac.AreaConsole, rbac.ActionAccess)
}
