package memberauth

import (
	"context"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
	"github.com/redis/go-redis/v9"
)

// RateLimitConfig holds rate limiter tuning parameters. The effective budget
// for a request is BaseLimit multiplied by the principal's tier factor, so
// higher membership tiers get proportionally more headroom.
type RateLimitConfig struct {
	// BaseLimit is the per-window request budget for anonymous clients.
	BaseLimit int
	// Window is the fixed counting window.
	Window time.Duration
	// TierMultipliers scales BaseLimit per membership tier. Missing tiers
	// fall back to a factor of 1.
	TierMultipliers map[MembershipTier]int
	// KeyPrefix namespaces the counter keys, defaults to "rl".
	KeyPrefix string
}

// DefaultTierMultipliers is the standard tier scaling.
var DefaultTierMultipliers = map[MembershipTier]int{
	TierNone:       1,
	TierCommunity:  2,
	TierSupporting: 4,
	TierSustaining: 8,
}

// RateLimiter enforces a fixed-window request budget using Redis counters.
// Authenticated requests are counted per user, anonymous requests per IP.
type RateLimiter struct {
	redis  redis.UniversalClient
	config RateLimitConfig
	logger Logger
}

// NewRateLimiter creates a [RateLimiter] backed by the given Redis client.
func NewRateLimiter(redisClient redis.UniversalClient, cfg RateLimitConfig) *RateLimiter {
	if cfg.BaseLimit <= 0 {
		cfg.BaseLimit = 60
	}

	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}

	if cfg.TierMultipliers == nil {
		cfg.TierMultipliers = DefaultTierMultipliers
	}

	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "rl"
	}

	return &RateLimiter{
		redis:  redisClient,
		config: cfg,
		logger: defLogger{},
	}
}

func (l *RateLimiter) WithLogger(logger Logger) *RateLimiter {
	l.logger = logger
	return l
}

// Allow consumes one unit of the caller's window budget. It returns a rate
// limited rejection once the budget is spent, and a retryable infrastructure
// error when the counter backend is unreachable.
func (l *RateLimiter) Allow(ctx context.Context, principal *Principal, ip string) error {
	key := l.counterKey(principal, ip)
	limit := l.limitFor(principal)

	count, err := l.incrementWithTTL(ctx, key, l.config.Window)
	if err != nil {
		return err
	}

	if count > int64(limit) {
		return errors.New("request rate limit exceeded", errors.CategoryRateLimit).
			WithTextCode(TextCodeRateLimited).
			WithMetadata(map[string]any{
				"limit":  limit,
				"window": l.config.Window.String(),
			})
	}

	return nil
}

// LimitFor reports the effective per-window budget for a principal.
func (l *RateLimiter) LimitFor(principal *Principal) int {
	return l.limitFor(principal)
}

func (l *RateLimiter) limitFor(principal *Principal) int {
	if !principal.Authenticated() {
		return l.config.BaseLimit
	}

	factor := 1
	if m, ok := l.config.TierMultipliers[principal.Tier]; ok && m > 0 {
		factor = m
	}

	return l.config.BaseLimit * factor
}

func (l *RateLimiter) counterKey(principal *Principal, ip string) string {
	if principal.Authenticated() {
		return l.config.KeyPrefix + ":user:" + principal.UserID
	}
	return l.config.KeyPrefix + ":ip:" + ip
}

func (l *RateLimiter) incrementWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return 0, errors.Wrap(err, errors.CategoryOperation, "rate limit counter unavailable")
	}

	// Fixed-window semantics: set TTL only for the first hit in the window.
	if count == 1 {
		if err := l.redis.Expire(ctx, key, ttl).Err(); err != nil {
			return 0, errors.Wrap(err, errors.CategoryOperation, "rate limit counter unavailable")
		}
	}

	return count, nil
}

// Throttle builds a middleware enforcing the limiter on every request that
// passes through it. Backend outages fail open: throttling is best effort
// and must not take the site down with it.
func Throttle(limiter *RateLimiter, errorHandler ...router.ErrorHandler) router.MiddlewareFunc {
	handler := defaultThrottleErrorHandler
	if len(errorHandler) > 0 && errorHandler[0] != nil {
		handler = errorHandler[0]
	}

	return func(hf router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			principal, _ := PrincipalFromRouter(ctx)

			if err := limiter.Allow(ctx.Context(), principal, ctx.IP()); err != nil {
				if IsRateLimited(err) {
					return handler(ctx, err)
				}
				limiter.logger.Warn("rate limit backend error, failing open", "error", err)
			}

			return ctx.Next()
		}
	}
}

func defaultThrottleErrorHandler(ctx router.Context, err error) error {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		richErr = ErrRateLimited
	}
	return ctx.Status(429).SendString(richErr.Message)
}
