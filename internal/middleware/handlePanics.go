package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

func HandlePanics(log zerolog.Logger) gin.RecoveryFunc {
	return func(c *gin.Context, recovered any) {
		if err, ok := recovered.(error); ok {
			log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("Handler panicked")
		} else {
			log.Error().Interface("recovered", recovered).Str("path", c.Request.URL.Path).Msg("Handler panicked")
		}
		c.AbortWithStatus(http.StatusInternalServerError)
	}
}
