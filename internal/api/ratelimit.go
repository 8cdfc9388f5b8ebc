package api

import (
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/profilehue/profilehue-server/internal/ratelimit"
)

// NewRateLimiter creates a per-client limiter allowing perMinute requests
// per minute with a burst of the same size. It returns nil when perMinute
// is not positive, which disables limiting.
func NewRateLimiter(perMinute int) *ratelimit.KeyedRateLimiter {
	if perMinute <= 0 {
		return nil
	}
	rps := float64(perMinute) / time.Minute.Seconds()
	return ratelimit.New(rps, perMinute)
}

// rateLimit is an operation middleware that limits requests by client IP.
// Returns 429 Too Many Requests when limit is exceeded.
func (s *Server) rateLimit(ctx huma.Context, next func(huma.Context)) {
	if s.limiter == nil {
		next(ctx)
		return
	}

	key := getClientIP(ctx)
	if !s.limiter.Allow(key) {
		s.logger.Warn("Rate limit exceeded",
			"ip", key,
			"path", ctx.URL().Path,
		)
		_ = huma.WriteErr(s.api, ctx, http.StatusTooManyRequests, "Too many requests. Please try again later.")
		return
	}

	next(ctx)
}

// getClientIP extracts the client IP from the request.
// Checks X-Forwarded-For and X-Real-IP headers before falling back to RemoteAddr.
func getClientIP(ctx huma.Context) string {
	// Check X-Forwarded-For (may contain multiple IPs, first is client).
	if xff := ctx.Header("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}

	if xri := ctx.Header("X-Real-IP"); xri != "" {
		return xri
	}

	// Fall back to RemoteAddr (strip port).
	addr := ctx.RemoteAddr()
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}
