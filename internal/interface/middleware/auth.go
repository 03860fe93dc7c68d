package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/movemate/movesync/internal/identity"
	"github.com/movemate/movesync/pkg/helpers"
	"github.com/movemate/movesync/pkg/response"
)

// Auth validates the bearer access token and ensures an active session exists
// in Redis. On success the principal id is stamped onto the request context so
// repositories can resolve it through the identity provider.
func Auth(rdb *redis.Client, jwt *helpers.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			response.Error[any](c, http.StatusUnauthorized, "missing access token", nil)
			c.Abort()
			return
		}
		claims, err := jwt.ParseAccessToken(token)
		if err != nil {
			response.Error[any](c, http.StatusUnauthorized, "invalid access token", err.Error())
			c.Abort()
			return
		}

		if rdb != nil {
			ok, err := helpers.SessionExists(c.Request.Context(), rdb, claims.UserID)
			if err != nil || !ok {
				response.Error[any](c, http.StatusUnauthorized, "session not found", nil)
				c.Abort()
				return
			}
		}

		c.Set("userID", claims.UserID)
		c.Request = c.Request.WithContext(identity.WithPrincipal(c.Request.Context(), claims.UserID))
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	// mobile clients send the header; browser clients may still carry a cookie
	if t, err := c.Cookie("access_token"); err == nil {
		return t
	}
	return ""
}
