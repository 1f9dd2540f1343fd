package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/nulzo/unillm/pkg/api"
)

// Auth checks for a valid Bearer token (or X-API-Key header) against the
// configured static keys. With no keys configured the API is open.
func Auth(staticKeys []string) gin.HandlerFunc {
	keys := make([][]byte, 0, len(staticKeys))
	for _, k := range staticKeys {
		if k != "" {
			keys = append(keys, []byte(k))
		}
	}

	return func(c *gin.Context) {
		if len(keys) == 0 {
			c.Next()
			return
		}

		token := c.GetHeader("X-API-Key")
		if token == "" {
			authHeader := c.GetHeader("Authorization")
			if authHeader == "" {
				abortUnauthorized(c, "Missing Authorization header")
				return
			}
			scheme, value, ok := strings.Cut(authHeader, " ")
			if !ok || scheme != "Bearer" || value == "" {
				abortUnauthorized(c, "Invalid Authorization header format")
				return
			}
			token = value
		}

		for _, k := range keys {
			if subtle.ConstantTimeCompare(k, []byte(token)) == 1 {
				c.Next()
				return
			}
		}
		abortUnauthorized(c, "Invalid API Key")
	}
}

func abortUnauthorized(c *gin.Context, detail string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, api.NewProblem(http.StatusUnauthorized, "Unauthorized", detail))
}
