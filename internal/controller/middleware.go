package controller

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	RequestIDKey    = "request_id"
	RequestIDHeader = "X-Request-ID"
)

// RequestID propagates the caller's X-Request-ID or assigns a new one.
func RequestID() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		id := ctx.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		ctx.Set(RequestIDKey, id)
		ctx.Header(RequestIDHeader, id)
		ctx.Next()
	}
}

// RequestLogger logs one line per request through zerolog.
func RequestLogger() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()

		event := log.Info()
		if ctx.Writer.Status() >= 500 {
			event = log.Error()
		}
		event.
			Str("request_id", ctx.GetString(RequestIDKey)).
			Str("client_ip", ctx.ClientIP()).
			Str("method", ctx.Request.Method).
			Str("path", ctx.Request.URL.Path).
			Int("status_code", ctx.Writer.Status()).
			Dur("latency", time.Since(start)).
			Str("user_agent", ctx.Request.UserAgent()).
			Str("error_message", ctx.Errors.ByType(gin.ErrorTypePrivate).String()).
			Msg("gin_request")
	}
}
