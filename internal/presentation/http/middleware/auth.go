package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/webfutureiorepo/supabase/internal/infrastructure/observability/logging"
	"github.com/webfutureiorepo/supabase/internal/infrastructure/security"
)

const userIDKey = "userID"

// AuthMiddleware requires a valid visitor JWT and exposes its subject through
// GetUserID.
func AuthMiddleware(jwtSecret string, logger *logging.ChanneledLogger) gin.HandlerFunc {
	return authenticate(jwtSecret, true, logger)
}

// OptionalAuthMiddleware lets anonymous requests through. A token that is
// present must still be valid.
func OptionalAuthMiddleware(jwtSecret string, logger *logging.ChanneledLogger) gin.HandlerFunc {
	return authenticate(jwtSecret, false, logger)
}

func authenticate(jwtSecret string, required bool, logger *logging.ChanneledLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			if required {
				logger.Auth().Warn("Missing bearer token", "path", c.Request.URL.Path)
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
				return
			}
			c.Next()
			return
		}

		claims, err := security.ValidateJWT(token, jwtSecret)
		if err != nil {
			logger.Auth().Warn("Rejected visitor token", "error", err.Error(), "path", c.Request.URL.Path)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}
		userID, err := security.SubjectFromClaims(claims)
		if err != nil {
			logger.Auth().Warn("Rejected visitor token", "error", err.Error(), "path", c.Request.URL.Path)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}

		logger.Auth().Debug("Visitor token accepted", "userId", logging.MaskID(userID))
		c.Set(userIDKey, userID)
		c.Next()
	}
}

// GetUserID returns the authenticated visitor, or "" for anonymous requests.
func GetUserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}

func bearerToken(header string) string {
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}
