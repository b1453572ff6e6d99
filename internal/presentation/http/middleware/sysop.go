package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/webfutureiorepo/supabase/internal/infrastructure/observability/logging"
	"github.com/webfutureiorepo/supabase/internal/infrastructure/security"
)

// SysopAuthMiddleware protects the sysop endpoints with the bcrypt hash of the
// sysop password. With no hash configured the endpoints are open.
func SysopAuthMiddleware(passwordHash string, logger *logging.ChanneledLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if passwordHash == "" {
			c.Next()
			return
		}

		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" || !security.CheckPassword(passwordHash, token) {
			logger.LogAuthOperation("sysop", "", false)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.Next()
	}
}
