package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/lshigami/examhall/config"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"go.uber.org/fx"
)

// Limiter counts hits per key in fixed windows.
type Limiter interface {
	// Allow records one hit for key and reports whether it is within the limit.
	Allow(ctx context.Context, key string) (bool, error)
}

type redisLimiter struct {
	client *redis.Client
	limit  int64
	window time.Duration
	now    func() time.Time
}

// NewRedisLimiter counts hits in Redis so every instance shares the budget.
func NewRedisLimiter(client *redis.Client, limit int, window time.Duration) Limiter {
	return &redisLimiter{client: client, limit: int64(limit), window: window, now: time.Now}
}

func (l *redisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	bucket := l.now().UnixNano() / int64(l.window)
	redisKey := fmt.Sprintf("ratelimit:%s:%d", key, bucket)

	var incr *redis.IntCmd
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, redisKey)
		pipe.Expire(ctx, redisKey, l.window)
		return nil
	})
	if err != nil {
		return false, err
	}
	return incr.Val() <= l.limit, nil
}

type noopLimiter struct{}

func (noopLimiter) Allow(context.Context, string) (bool, error) { return true, nil }

// New returns the Redis limiter when a client is configured and a limiter
// that allows everything otherwise.
func New(cfg *config.Config, client *redis.Client) Limiter {
	if client == nil || cfg.RateLimit.SubmitLimit <= 0 || cfg.RateLimit.SubmitWindow <= 0 {
		log.Info().Msg("Submit rate limiting disabled")
		return noopLimiter{}
	}
	return NewRedisLimiter(client, cfg.RateLimit.SubmitLimit, cfg.RateLimit.SubmitWindow)
}

// NewRedisClient returns nil when REDIS_ADDR is empty.
func NewRedisClient(lc fx.Lifecycle, cfg *config.Config) *redis.Client {
	if cfg.Redis.Addr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := client.Ping(ctx).Err(); err != nil {
				log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("Redis unreachable; rate limiting fails open")
				return nil
			}
			log.Info().Str("addr", cfg.Redis.Addr).Msg("Redis connection established")
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return client.Close()
		},
	})
	return client
}
