package ratelimit

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lshigami/examhall/internal/dto"
	"github.com/rs/zerolog/log"
)

// Middleware limits requests per key. keyFunc returning "" skips limiting.
// Limiter errors let the request through.
func Middleware(limiter Limiter, scope string, keyFunc func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := keyFunc(c)
		if key == "" {
			c.Next()
			return
		}
		allowed, err := limiter.Allow(c.Request.Context(), scope+":"+key)
		if err != nil {
			log.Warn().Err(err).Str("scope", scope).Msg("rate limiter unavailable")
			c.Next()
			return
		}
		if !allowed {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, dto.ErrorResponse{
				Error: "too many requests",
				Kind:  "rate_limited",
			})
			return
		}
		c.Next()
	}
}
