package ratelimit

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/lshigami/examhall/config"
	"github.com/stretchr/testify/assert"
)

type countingLimiter struct {
	limit int
	hits  map[string]int
	err   error
}

func (l *countingLimiter) Allow(_ context.Context, key string) (bool, error) {
	if l.err != nil {
		return false, l.err
	}
	l.hits[key]++
	return l.hits[key] <= l.limit, nil
}

func newEngine(l Limiter) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/submit", Middleware(l, "submit", func(c *gin.Context) string {
		return c.GetHeader("X-User")
	}), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func post(r *gin.Engine, user string) int {
	req := httptest.NewRequest(http.MethodPost, "/submit", nil)
	if user != "" {
		req.Header.Set("X-User", user)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Code
}

func TestMiddlewareLimitsPerKey(t *testing.T) {
	l := &countingLimiter{limit: 2, hits: map[string]int{}}
	r := newEngine(l)

	assert.Equal(t, http.StatusOK, post(r, "s1"))
	assert.Equal(t, http.StatusOK, post(r, "s1"))
	assert.Equal(t, http.StatusTooManyRequests, post(r, "s1"))
	assert.Equal(t, http.StatusOK, post(r, "s2"))
	assert.Equal(t, 3, l.hits["submit:s1"])

	assert.Equal(t, http.StatusOK, post(r, ""))
	assert.Equal(t, http.StatusOK, post(r, ""))
	assert.Equal(t, http.StatusOK, post(r, ""))
}

func TestMiddlewareFailsOpen(t *testing.T) {
	r := newEngine(&countingLimiter{err: errors.New("connection refused")})
	assert.Equal(t, http.StatusOK, post(r, "s1"))
}

func TestNewWithoutRedisAllowsEverything(t *testing.T) {
	cfg := &config.Config{RateLimit: config.RateLimit{SubmitLimit: 1}}
	l := New(cfg, nil)
	for i := 0; i < 5; i++ {
		ok, err := l.Allow(context.Background(), "k")
		assert.NoError(t, err)
		assert.True(t, ok)
	}
}
