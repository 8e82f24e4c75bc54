package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/clubcore/clubcore/internal/config"
)

const keyLoginIP = "login:ip:%s"

// LoginLimiter throttles credential attempts per client IP. It reads the
// rate and burst from governance config on every call, so a config reload
// takes effect without a restart. Without a redis address the limiter is
// disabled and every attempt is allowed.
type LoginLimiter struct {
	bucket     *TokenBucket
	governance *config.GovernanceHolder
	log        *zap.Logger
}

func NewLoginLimiter(client RedisClient, governance *config.GovernanceHolder, log *zap.Logger) *LoginLimiter {
	return &LoginLimiter{
		bucket:     NewTokenBucket(client.Client),
		governance: governance,
		log:        log.Named("ratelimit.login"),
	}
}

func (l *LoginLimiter) Enabled() bool {
	return l != nil && l.bucket != nil
}

// AllowLogin reports whether another login attempt from ip may proceed.
// A redis outage fails open: blocking every login because the limiter
// store is down would be worse than briefly losing throttling.
func (l *LoginLimiter) AllowLogin(ctx context.Context, ip string) (*Result, error) {
	if !l.Enabled() {
		return &Result{Allowed: true}, nil
	}

	ip = strings.TrimSpace(ip)
	if ip == "" {
		ip = "unknown"
	}

	cfg := l.governance.Get()
	rate := float64(cfg.LoginRatePerMin) / 60.0
	burst := cfg.LoginBurst

	res, err := l.bucket.Allow(ctx, fmt.Sprintf(keyLoginIP, ip), rate, burst)
	if err != nil {
		l.log.Warn("login rate limit check failed, allowing request",
			zap.String("ip", ip),
			zap.Error(err),
		)
		return &Result{Allowed: true}, nil
	}

	if !res.Allowed {
		l.log.Info("login attempt throttled",
			zap.String("ip", ip),
			zap.Duration("retry_after", res.RetryAfter.Round(time.Millisecond)),
		)
	}
	return res, nil
}
