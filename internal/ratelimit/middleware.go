package ratelimit

import (
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	"github.com/noah-isme/backend-irnby/internal/common"
)

// Limiter applies a per-client-IP rate limit, intended for the checkout
// session endpoint which calls out to the payment provider.
type Limiter struct {
	limiter *limiter.Limiter
	logger  zerolog.Logger
}

// New builds an in-memory limiter allowing limit requests per period.
func New(limit int64, period time.Duration, logger zerolog.Logger) *Limiter {
	if limit <= 0 {
		limit = 10
	}
	if period <= 0 {
		period = time.Minute
	}
	rate := limiter.Rate{Period: period, Limit: limit}
	return &Limiter{
		limiter: limiter.New(memory.NewStore(), rate),
		logger:  logger,
	}
}

// Middleware enforces the limit and annotates responses with the standard
// X-RateLimit-* headers. On overflow it answers 429 with a Retry-After hint.
func (l *Limiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := common.ClientIP(r)
		lctx, err := l.limiter.Get(r.Context(), key)
		if err != nil {
			// fail open, the limiter store should never take the
			// endpoint down
			l.logger.Error().Err(err).Msg("rate limiter store failure")
			next.ServeHTTP(w, r)
			return
		}

		h := w.Header()
		h.Set("X-RateLimit-Limit", strconv.FormatInt(lctx.Limit, 10))
		h.Set("X-RateLimit-Remaining", strconv.FormatInt(lctx.Remaining, 10))
		h.Set("X-RateLimit-Reset", strconv.FormatInt(lctx.Reset, 10))

		if lctx.Reached {
			retryAfter := lctx.Reset - time.Now().Unix()
			if retryAfter < 1 {
				retryAfter = 1
			}
			h.Set("Retry-After", strconv.FormatInt(retryAfter, 10))
			l.logger.Warn().Str("ip", key).Msg("rate limit exceeded")
			common.JSONError(w, http.StatusTooManyRequests, "RATE_LIMITED", "too many requests, slow down", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}
