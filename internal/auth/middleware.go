package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const principalKey = "principal_id"

type principalCtxKey struct{}

// Verifier turns a bearer token into a principal id.
type Verifier interface {
	Verify(token string) (uint, error)
}

// RequireAuth rejects requests without a valid bearer token with 401 {"message":"Unauthorized"}.
func RequireAuth(v Verifier, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := parseBearer(c.GetHeader("Authorization"))
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
			return
		}

		userID, err := v.Verify(token)
		if err != nil {
			logger.Debug("rejected bearer token", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
			return
		}

		c.Set(principalKey, userID)
		c.Request = c.Request.WithContext(WithPrincipal(c.Request.Context(), userID))
		c.Next()
	}
}

// PrincipalID returns the authenticated user id, if any.
func PrincipalID(c *gin.Context) (uint, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok
}

func WithPrincipal(ctx context.Context, userID uint) context.Context {
	return context.WithValue(ctx, principalCtxKey{}, userID)
}

func PrincipalFromContext(ctx context.Context) (uint, bool) {
	id, ok := ctx.Value(principalCtxKey{}).(uint)
	return id, ok
}

func parseBearer(header string) string {
	fields := strings.Fields(header)
	if len(fields) != 2 || !strings.EqualFold(fields[0], "Bearer") {
		return ""
	}
	return fields[1]
}
