package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/learnflow/learnflow-backend/internal/response"
	"github.com/learnflow/learnflow-backend/internal/service"
)

// ContextKeyClaims is the Gin context key for JWT claims.
const ContextKeyClaims = "claims"

// tokenSource says where a token may be read from.
type tokenSource uint8

const (
	fromHeader tokenSource = 1 << iota
	fromQuery
)

// RequireJWT validates a bearer token and stores the claims on the context.
// ?token= is accepted too, since browser downloads of the grade export
// cannot set headers.
func RequireJWT(authService *service.AuthService) gin.HandlerFunc {
	return authenticate(authService, fromHeader|fromQuery)
}

// RequireWSAuth validates ?token= on WebSocket upgrade requests.
func RequireWSAuth(authService *service.AuthService) gin.HandlerFunc {
	return authenticate(authService, fromQuery)
}

func authenticate(authService *service.AuthService, src tokenSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := tokenFrom(c, src)
		if token == "" {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}

		claims, err := authService.ValidateToken(token)
		if err != nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenInvalid)
			return
		}

		c.Set(ContextKeyClaims, claims)
		c.Next()
	}
}

func tokenFrom(c *gin.Context, src tokenSource) string {
	if src&fromHeader != 0 {
		scheme, token, ok := strings.Cut(c.GetHeader("Authorization"), " ")
		if ok && strings.EqualFold(scheme, "bearer") {
			if token = strings.TrimSpace(token); token != "" {
				return token
			}
		}
	}
	if src&fromQuery != 0 {
		return c.Query("token")
	}
	return ""
}

// GetClaims retrieves the JWT claims from the Gin context.
func GetClaims(c *gin.Context) *service.Claims {
	val, exists := c.Get(ContextKeyClaims)
	if !exists {
		return nil
	}
	claims, _ := val.(*service.Claims)
	return claims
}
