package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/lshigami/examhall/internal/apperror"
	"github.com/lshigami/examhall/internal/dto"
	"github.com/lshigami/examhall/internal/model"
	"github.com/rs/zerolog/log"
)

const callerKey = "caller"

// Middleware rejects requests without a valid bearer token and stores the
// caller in both the gin and the request context.
func (m *TokenManager) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			unauthorized(c)
			return
		}
		claims, err := m.Parse(strings.TrimSpace(strings.TrimPrefix(header, "Bearer ")))
		if err != nil {
			log.Debug().Err(err).Str("path", c.FullPath()).Msg("rejected bearer token")
			unauthorized(c)
			return
		}
		caller := claims.Caller()
		c.Set(callerKey, caller)
		c.Request = c.Request.WithContext(model.ContextWithCaller(c.Request.Context(), caller))
		c.Next()
	}
}

// RequireRoles lets the request through only for the given roles.
func RequireRoles(roles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := CallerFrom(c)
		if ok {
			for _, r := range roles {
				if caller.Role == r {
					c.Next()
					return
				}
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, dto.ErrorResponse{
			Error: "access restricted",
			Kind:  string(apperror.KindAuthorization),
		})
	}
}

// CallerFrom returns the caller stored by Middleware.
func CallerFrom(c *gin.Context) (model.Caller, bool) {
	v, ok := c.Get(callerKey)
	if !ok {
		return model.Caller{}, false
	}
	caller, ok := v.(model.Caller)
	return caller, ok
}

func unauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{
		Error: "authentication required",
		Kind:  "authentication",
	})
}
