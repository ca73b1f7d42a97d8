package middleware

import (
	"net/http"
	"runtime/debug"

	"notecheck/utils"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// EnhancedRecoveryMiddleware turns a panic into a 500 and logs the stack.
func EnhancedRecoveryMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				if err == http.ErrAbortHandler {
					panic(err)
				}
				log.Ctx(c.Request.Context()).Error().
					Interface("panic", err).
					Bytes("stack", debug.Stack()).
					Str("path", c.Request.URL.Path).
					Msg("recovered from panic")
				utils.TrackError("http", "panic")
				if !c.Writer.Written() {
					utils.InternalError(c, "internal server error")
				}
				c.Abort()
			}
		}()
		c.Next()
	}
}
