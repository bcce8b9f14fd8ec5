package httpapi

import (
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/logger"
)

// rateLimitWindow is the fixed window over which requests are counted.
const rateLimitWindow = time.Minute

// rateLimit returns middleware enforcing a fixed-window request budget
// per client address, counted in the shared cache. A cache failure
// lets the request through: losing the limiter must not take down the
// API.
func rateLimit(cache driven.KVCache, perMinute int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := fmt.Sprintf("ratelimit:%s", clientAddr(r))

			count, err := cache.Incr(r.Context(), key)
			if err != nil {
				logger.Warn("rate limiter unavailable: %v", err)
				next.ServeHTTP(w, r)
				return
			}
			if count == 1 {
				if err := cache.Expire(r.Context(), key, rateLimitWindow); err != nil {
					logger.Warn("rate limiter expire failed: %v", err)
				}
			}
			if count > int64(perMinute) {
				writeJSON(w, http.StatusTooManyRequests, map[string]string{
					"error": "rate limited, try again later",
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
