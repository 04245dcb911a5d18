package middleware

import (
	"net"
	"net/http"
	"rental/shared"
	"rental/shared/constant"
	"rental/transport/http/response"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	cacheKeyRateLimit = "limiter"
	unknownUserAgent  = "unknown"
	headerRetryAfter  = "Retry-After"
)

// RateLimit counts requests per client in fixed windows. When the counter store is down the
// request goes through.
func (a *appMiddleware) RateLimit() func(http.Handler) http.Handler {
	limits := a.config.App.RateLimiter

	return func(next http.Handler) http.Handler {
		if !limits.Enable || limits.WindowSeconds <= 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			window := time.Now().Unix() / int64(limits.WindowSeconds)
			key := shared.BuildCacheKey(cacheKeyRateLimit, clientIP(r), a.getUA(r), window)

			count, err := a.cache.Increment(r.Context(), key, limits.WindowSeconds)
			if err != nil {
				log.Warn().Err(err).Str("key", key).Msg("rate limiter unavailable, allowing request")
				next.ServeHTTP(w, r)

				return
			}

			remaining := max(0, int64(limits.MaxRequests)-count)

			w.Header().Set(constant.RequestHeaderRateLimit, strconv.Itoa(limits.MaxRequests))
			w.Header().Set(constant.RequestHeaderRateLimitRemaining, strconv.FormatInt(remaining, 10))
			w.Header().Set(constant.RequestHeaderRateLimitWindow, strconv.Itoa(limits.WindowSeconds))

			if count > int64(limits.MaxRequests) {
				resetAt := (window + 1) * int64(limits.WindowSeconds)
				w.Header().Set(headerRetryAfter, strconv.FormatInt(max(1, resetAt-time.Now().Unix()), 10))
				response.WithRequestLimitExceeded(w)

				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func (a *appMiddleware) getUA(r *http.Request) string {
	if ua := r.Header.Get(constant.RequestHeaderUserAgent); ua != "" {
		return ua
	}

	return unknownUserAgent
}

// clientIP relies on the RealIP middleware having already rewritten RemoteAddr from proxy headers.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}

	return host
}
