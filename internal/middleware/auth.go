package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/fridgewatch/fridgewatch/backend/internal/types"
)

const (
	ContextUserID = "user_id"
	ContextToken  = "token"
)

// TokenValidator is an interface for validating JWT tokens
type TokenValidator interface {
	ValidateToken(token string) (*types.TokenClaims, error)
}

// AuthMiddleware validates the bearer token and stores the user ID and the
// raw token in the context. The raw token is forwarded to the store backend.
// EventSource clients cannot set headers, so an access_token query parameter
// is accepted as well.
func AuthMiddleware(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or malformed authorization header"})
			return
		}

		claims, err := validator.ValidateToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}

		c.Set(ContextUserID, string(claims.UserID))
		c.Set(ContextToken, token)
		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	if header := c.GetHeader("Authorization"); header != "" {
		scheme, token, found := strings.Cut(header, " ")
		if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			return "", false
		}
		return strings.TrimSpace(token), true
	}
	if token := c.Query("access_token"); token != "" {
		return token, true
	}
	return "", false
}

// UserID returns the authenticated user's ID.
func UserID(c *gin.Context) string {
	return c.GetString(ContextUserID)
}

// Token returns the authenticated request's raw bearer token.
func Token(c *gin.Context) string {
	return c.GetString(ContextToken)
}
