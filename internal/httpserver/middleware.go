package httpserver

import (
	"context"
	"net/http"
	"strings"

	"bookshop/internal/domain"
	"github.com/gin-gonic/gin"
)

type ctxKey string

const identityCtxKey ctxKey = "identity"

// authMiddleware resolves the bearer token into a domain.Identity stored on
// the request context. allowQuery also accepts ?token= for websocket upgrades.
func authMiddleware(tokens TokenVerifier, allowQuery bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" && allowQuery {
			token = c.Query("token")
		}
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
			return
		}
		id, err := tokens.Parse(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}
		c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), identityCtxKey, id))
		c.Next()
	}
}

func requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !identityFrom(c).IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": domain.ErrForbidden.Error()})
			return
		}
		c.Next()
	}
}

func identityFrom(c *gin.Context) domain.Identity {
	id, _ := c.Request.Context().Value(identityCtxKey).(domain.Identity)
	return id
}

func bearerToken(header string) string {
	const prefix = "bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
