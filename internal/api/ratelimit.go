package api

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/recipebox/recipebox-server/internal/ratelimit"
)

// NewLoginRateLimiter creates the per-IP limiter used for token requests.
func NewLoginRateLimiter(perMinute, burst int) *ratelimit.KeyedRateLimiter {
	return ratelimit.New(perMinute, time.Minute, burst)
}

// limitByIP is a huma middleware that rejects callers over the login rate
// with 429 and a Retry-After header.
func (s *Server) limitByIP(ctx huma.Context, next func(huma.Context)) {
	key := clientIP(ctx.RemoteAddr())

	if !s.loginLimiter.Allow(key) {
		wait := s.loginLimiter.RetryAfter(key)
		ctx.SetHeader("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
		s.metrics.rateLimitRejects.Inc()

		s.logger.Warn("rate limit exceeded",
			"ip", key,
			"path", ctx.URL().Path,
		)
		_ = huma.WriteErr(s.api, ctx, http.StatusTooManyRequests, "Too many requests. Please try again later.")
		return
	}

	next(ctx)
}

// clientIP strips the port from a remote address. chi's RealIP middleware has
// already replaced it with X-Forwarded-For or X-Real-IP when present.
func clientIP(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}
