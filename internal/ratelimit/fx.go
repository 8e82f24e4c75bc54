package ratelimit

import (
	"strings"

	redis "github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/clubcore/clubcore/internal/config"
)

// RedisClient wraps the shared redis connection. Client is nil when no
// redis address is configured.
type RedisClient struct {
	Client *redis.Client
}

func NewRedisClient(cfg config.Config) RedisClient {
	addr := strings.TrimSpace(cfg.RedisAddr)
	if addr == "" {
		return RedisClient{}
	}
	return RedisClient{Client: redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: strings.TrimSpace(cfg.RedisPassword),
		DB:       cfg.RedisDB,
	})}
}

var Module = fx.Module("rate.limit",
	fx.Provide(NewRedisClient),
	fx.Provide(NewLoginLimiter),
)
