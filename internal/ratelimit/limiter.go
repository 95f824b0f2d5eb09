// internal/ratelimit/limiter.go
// Package ratelimit bounds assessment submissions per client with a Redis sliding window.
package ratelimit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"aiq-assessment/internal/common/errors"
	"aiq-assessment/internal/common/logger"
	"aiq-assessment/internal/common/metrics"
)

const (
	DefaultMaxRequests = 10
	DefaultWindow      = time.Hour
	DefaultKeyPrefix   = "aiq:ratelimit:"
)

// slidingWindow prunes entries outside the window, then records the request only when
// the remaining count is below the limit. Scores are unix milliseconds.
var slidingWindow = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
local member = ARGV[4]
local ttl = tonumber(ARGV[5])

redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)
local count = redis.call('ZCARD', key)
if count >= limit then
  local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
  return {0, count, tonumber(oldest[2])}
end

redis.call('ZADD', key, now, member)
redis.call('PEXPIRE', key, ttl)
return {1, count + 1, 0}
`)

// Config bounds a Limiter. Zero values take the defaults.
type Config struct {
	MaxRequests int
	Window      time.Duration
	KeyPrefix   string
}

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

type Limiter struct {
	client redis.UniversalClient
	cfg    Config
	logger logger.Logger
	now    func() time.Time
}

func New(client redis.UniversalClient, cfg Config, log logger.Logger) *Limiter {
	if cfg.MaxRequests <= 0 {
		cfg.MaxRequests = DefaultMaxRequests
	}
	if cfg.Window <= 0 {
		cfg.Window = DefaultWindow
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = DefaultKeyPrefix
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}

	return &Limiter{
		client: client,
		cfg:    cfg,
		logger: log,
		now:    time.Now,
	}
}

// ClientKey hashes a client address so raw IPs are never stored.
func ClientKey(ip string) string {
	sum := sha256.Sum256([]byte(ip))
	return hex.EncodeToString(sum[:])[:16]
}

// Allow records a request from ip if it is within budget. Store failures allow the
// request.
func (l *Limiter) Allow(ctx context.Context, ip string) Decision {
	decision, err := l.check(ctx, ClientKey(ip))
	if err != nil {
		metrics.RateLimitStoreErrors.Inc()
		l.logger.WithError(err).Warn("rate limit check failed, allowing request", map[string]interface{}{
			"clientKey": ClientKey(ip),
		})
		return Decision{Allowed: true, Remaining: l.cfg.MaxRequests - 1}
	}
	return decision
}

func (l *Limiter) check(ctx context.Context, clientKey string) (Decision, error) {
	now := l.now().UnixMilli()
	window := l.cfg.Window.Milliseconds()

	res, err := slidingWindow.Run(ctx, l.client,
		[]string{l.cfg.KeyPrefix + clientKey},
		now,
		window,
		l.cfg.MaxRequests,
		fmt.Sprintf("%d-%s", now, uuid.NewString()),
		2*window,
	).Int64Slice()
	if err != nil {
		return Decision{}, errors.NewRateLimitCheckFailedError(err)
	}
	if len(res) != 3 {
		return Decision{}, errors.NewRateLimitCheckFailedError(fmt.Errorf("unexpected script reply %v", res))
	}

	if res[0] == 1 {
		return Decision{Allowed: true, Remaining: l.cfg.MaxRequests - int(res[1])}, nil
	}

	retryAfter := time.Duration(res[2]+window-now) * time.Millisecond
	if retryAfter < 0 {
		retryAfter = 0
	}
	return Decision{Allowed: false, Remaining: 0, RetryAfter: retryAfter}, nil
}

// Cleanup deletes client records whose newest entry is older than twice the window and
// returns how many were removed.
func (l *Limiter) Cleanup(ctx context.Context) (int, error) {
	cutoff := float64(l.now().Add(-2 * l.cfg.Window).UnixMilli())
	removed := 0

	iter := l.client.Scan(ctx, 0, l.cfg.KeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()

		newest, err := l.client.ZRevRangeWithScores(ctx, key, 0, 0).Result()
		if err != nil {
			return removed, fmt.Errorf("read %s: %w", key, err)
		}
		if len(newest) > 0 && newest[0].Score >= cutoff {
			continue
		}

		if err := l.client.Del(ctx, key).Err(); err != nil {
			return removed, fmt.Errorf("delete %s: %w", key, err)
		}
		removed++
	}
	if err := iter.Err(); err != nil {
		return removed, fmt.Errorf("scan rate limit keys: %w", err)
	}

	return removed, nil
}

// RunCleanup calls Cleanup every interval until ctx is done.
func (l *Limiter) RunCleanup(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			removed, err := l.Cleanup(ctx)
			if err != nil {
				l.logger.WithError(err).Warn("rate limit cleanup failed", nil)
				continue
			}
			l.logger.Debug("rate limit cleanup finished", map[string]interface{}{"removed": removed})
		}
	}
}
