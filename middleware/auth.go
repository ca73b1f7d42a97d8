package middleware

import (
	"strings"

	"notecheck/utils"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// ResetAuthMiddleware guards the bulk reset route. With an empty secret every
// request passes; otherwise a bearer token minted from the secret is required.
func ResetAuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" {
			c.Next()
			return
		}

		// Get the token from the header
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			utils.TrackError("auth", "missing_reset_token")
			utils.Unauthorized(c, "Missing or invalid token")
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if err := utils.VerifyResetToken(secret, tokenString); err != nil {
			log.Ctx(c.Request.Context()).Warn().Err(err).Msg("reset token rejected")
			utils.TrackError("auth", "invalid_reset_token")
			utils.Unauthorized(c, "Invalid token")
			return
		}

		c.Next()
	}
}
