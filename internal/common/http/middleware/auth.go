package middleware

import (
	"context"
	"strings"

	pkgerrors "sqlquest/pkg/errors"
	"sqlquest/pkg/utils/contextkey"
	"sqlquest/pkg/utils/response"

	"github.com/gin-gonic/gin"
)

const (
	userIDContextKey    = "user_id"
	userLoginContextKey = "user_login"
)

// AuthInfo identifies an authenticated user.
type AuthInfo struct {
	UserID int64
	Login  string
}

// TokenAuthenticator resolves a bearer token to an authenticated user.
type TokenAuthenticator interface {
	Authenticate(ctx context.Context, token string) (*AuthInfo, error)
}

// AuthMiddleware enforces JWT bearer authentication for protected routes.
func AuthMiddleware(authenticator TokenAuthenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if authenticator == nil {
			response.AbortWithErrorCode(c, pkgerrors.ServiceUnavailable, "auth service unavailable")
			return
		}

		token := extractBearerToken(c.GetHeader("Authorization"))
		if token == "" {
			response.AbortWithErrorCode(c, pkgerrors.Unauthorized, "missing bearer token")
			return
		}

		info, err := authenticator.Authenticate(c.Request.Context(), token)
		if err != nil {
			response.AbortWithError(c, err)
			return
		}

		c.Set(userIDContextKey, info.UserID)
		c.Set(userLoginContextKey, info.Login)
		ctx := context.WithValue(c.Request.Context(), contextkey.UserID, info.UserID)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// CurrentUserID returns the authenticated user id stored by AuthMiddleware.
func CurrentUserID(c *gin.Context) (int64, bool) {
	value, exists := c.Get(userIDContextKey)
	if !exists {
		return 0, false
	}
	id, ok := value.(int64)
	return id, ok
}

func extractBearerToken(authHeader string) string {
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
