package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// ManagementAuth guards operator endpoints. The key is read from
// Authorization: Bearer, X-Management-Key or the key query parameter.
// A nil validator leaves the route open.
func ManagementAuth(validate func(string) bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if validate == nil {
			c.Next()
			return
		}

		provided := extractKey(c)
		if provided == "" {
			respondUnauthorized(c, "Management key not provided")
			return
		}
		if !validate(provided) {
			respondUnauthorized(c, "Invalid management key")
			return
		}
		c.Next()
	}
}

func extractKey(c *gin.Context) string {
	if auth := strings.TrimSpace(c.GetHeader("Authorization")); auth != "" {
		if strings.HasPrefix(strings.ToLower(auth), "bearer ") {
			return strings.TrimSpace(auth[7:])
		}
		return auth
	}
	if v := strings.TrimSpace(c.GetHeader("X-Management-Key")); v != "" {
		return v
	}
	return strings.TrimSpace(c.Query("key"))
}
