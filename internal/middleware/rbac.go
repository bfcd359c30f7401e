package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/learnflow/learnflow-backend/internal/model"
	"github.com/learnflow/learnflow-backend/internal/response"
)

// RequireRole lets the request through only when the token's role is one of
// roles. Anyone else is pointed back at their own dashboard.
func RequireRole(roles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}

		for _, r := range roles {
			if claims.Role == r {
				c.Next()
				return
			}
		}

		response.AbortRedirect(c, http.StatusForbidden, response.ErrRoleMismatch, claims.Role.DashboardPath())
	}
}
