package middleware

import (
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	stdlibmw "github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	memorystore "github.com/ulule/limiter/v3/drivers/store/memory"
	redisstore "github.com/ulule/limiter/v3/drivers/store/redis"
	"go.uber.org/zap"

	logpkg "github.com/benvon/selfspeak/internal/logger"
	"github.com/benvon/selfspeak/internal/request"
)

const (
	// DefaultRateLimit is used when no rate is configured (5 requests per second)
	DefaultRateLimit = "5-S"

	rateLimitPrefix = "selfspeak_ratelimit"
)

// NewLimiterStore returns a Redis-backed store when a client is given and a
// process-local store otherwise.
func NewLimiterStore(redisClient *redis.Client) (limiter.Store, error) {
	opts := limiter.StoreOptions{Prefix: rateLimitPrefix, CleanUpInterval: time.Minute}
	if redisClient == nil {
		return memorystore.NewStoreWithOptions(opts), nil
	}
	return redisstore.NewStoreWithOptions(redisClient, opts)
}

// RateLimit returns middleware that limits each caller to rate, in ulule
// format such as "5-S" or "100-M". Authenticated callers are keyed by user
// id, others by client IP.
func RateLimit(store limiter.Store, rate string, logger *zap.Logger) (func(http.Handler) http.Handler, error) {
	if rate == "" {
		rate = DefaultRateLimit
	}
	parsed, err := limiter.NewRateFromFormatted(rate)
	if err != nil {
		return nil, err
	}
	instance := limiter.New(store, parsed)

	mw := stdlibmw.NewMiddleware(instance,
		stdlibmw.WithKeyGetter(rateLimitKey),
		stdlibmw.WithLimitReachedHandler(func(w http.ResponseWriter, r *http.Request) {
			respondErrorJSON(w, r, http.StatusTooManyRequests, "rate_limited", "Too many requests, slow down", logger)
		}),
		stdlibmw.WithErrorHandler(func(w http.ResponseWriter, r *http.Request, err error) {
			logger.Error("rate_limit_store_error",
				zap.String("path", logpkg.SanitizePath(r.URL.Path)),
				zap.String("error", logpkg.SanitizeError(err)),
			)
			respondErrorJSON(w, r, http.StatusInternalServerError, "internal_error", "Rate limiter unavailable", logger)
		}),
	)
	return mw.Handler, nil
}

func rateLimitKey(r *http.Request) string {
	if user := request.UserFromContext(r); user != nil && user.ID != "" {
		return "user:" + user.ID
	}
	return "ip:" + request.ClientIP(r)
}
