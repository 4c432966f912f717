package middleware

import (
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/httprate"
	"github.com/hartwood-buildings/crm-api/internal/auth"
	"github.com/hartwood-buildings/crm-api/internal/config"
	"go.uber.org/zap"
)

// trackingPathPrefix covers the unauthenticated endpoints hit by email open
// pixels, quote view links and the website visit beacon.
const trackingPathPrefix = "/api/v1/public/"

// RateLimiter caps request rates per caller. The public tracking endpoints
// carry no credentials and get replayed by mail scanners, so they share a
// per-IP bucket sized to absorb those bursts. Everything else is staff
// traffic, keyed by the authenticated user once the bearer token has been
// verified and by IP before that. Health probes, the swagger UI and
// operator-listed callers are never throttled.
type RateLimiter struct {
	cfg            *config.RateLimitConfig
	logger         *zap.Logger
	trackingBucket func(http.Handler) http.Handler
	staffBucket    func(http.Handler) http.Handler
	exemptIPs      map[string]struct{}
	exemptPaths    map[string]struct{}
	exemptPrefixes []string
}

func NewRateLimiter(cfg *config.RateLimitConfig, logger *zap.Logger) *RateLimiter {
	rl := &RateLimiter{
		cfg:         cfg,
		logger:      logger,
		exemptIPs:   make(map[string]struct{}, len(cfg.WhitelistIPs)),
		exemptPaths: make(map[string]struct{}),
	}

	for _, ip := range cfg.WhitelistIPs {
		rl.exemptIPs[ip] = struct{}{}
	}
	// Entries ending in /* exempt a whole subtree, anything else is an
	// exact path.
	for _, p := range cfg.WhitelistPaths {
		if prefix, ok := strings.CutSuffix(p, "/*"); ok {
			rl.exemptPrefixes = append(rl.exemptPrefixes, prefix)
			continue
		}
		rl.exemptPaths[p] = struct{}{}
	}

	// Outlook safe-links and similar scanners fetch the open pixel several
	// times per message, so the tracking bucket gets the burst allowance on
	// top of the base rate.
	rl.trackingBucket = httprate.Limit(
		cfg.RequestsPerMinute+cfg.BurstSize,
		time.Minute,
		httprate.WithKeyFuncs(rl.keyByCallerIP),
		httprate.WithLimitHandler(rl.throttled),
	)

	rl.staffBucket = httprate.Limit(
		cfg.RequestsPerMinuteAuth,
		time.Minute,
		httprate.WithKeyFuncs(rl.keyByStaffUser),
		httprate.WithLimitHandler(rl.throttled),
	)

	logger.Info("Rate limiter initialized",
		zap.Int("tracking_per_minute", cfg.RequestsPerMinute+cfg.BurstSize),
		zap.Int("staff_per_minute", cfg.RequestsPerMinuteAuth),
		zap.Strings("exempt_ips", cfg.WhitelistIPs),
		zap.Strings("exempt_paths", cfg.WhitelistPaths),
	)

	return rl
}

// Throttle routes each request into its bucket. It sits ahead of
// authentication in the chain, so staff requests fall back to per-IP keys
// until the token middleware has populated the user context.
func (rl *RateLimiter) Throttle(next http.Handler) http.Handler {
	if !rl.cfg.Enabled {
		return next
	}

	tracking := rl.trackingBucket(next)
	staff := rl.staffBucket(next)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rl.isExemptPath(r.URL.Path) || rl.isExemptCaller(r) {
			next.ServeHTTP(w, r)
			return
		}
		if strings.HasPrefix(r.URL.Path, trackingPathPrefix) {
			tracking.ServeHTTP(w, r)
			return
		}
		staff.ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) keyByCallerIP(r *http.Request) (string, error) {
	return "ip:" + callerIP(r), nil
}

func (rl *RateLimiter) keyByStaffUser(r *http.Request) (string, error) {
	if userCtx, ok := auth.FromContext(r.Context()); ok && userCtx != nil {
		return "user:" + userCtx.UserID.String(), nil
	}
	return "ip:" + callerIP(r), nil
}

// Health probes and the swagger UI stay reachable regardless of config.
func (rl *RateLimiter) isExemptPath(path string) bool {
	if path == "/health" || strings.HasPrefix(path, "/health/") || strings.HasPrefix(path, "/swagger/") {
		return true
	}
	if _, ok := rl.exemptPaths[path]; ok {
		return true
	}
	for _, prefix := range rl.exemptPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

func (rl *RateLimiter) isExemptCaller(r *http.Request) bool {
	if len(rl.exemptIPs) == 0 {
		return false
	}
	_, ok := rl.exemptIPs[callerIP(r)]
	return ok
}

// callerIP resolves the originating address behind the reverse proxy: first
// X-Forwarded-For hop, then X-Real-IP, then the socket address.
func callerIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

func (rl *RateLimiter) throttled(w http.ResponseWriter, r *http.Request) {
	fields := []zap.Field{
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.String("caller_ip", callerIP(r)),
	}
	if userCtx, ok := auth.FromContext(r.Context()); ok && userCtx != nil {
		fields = append(fields, zap.String("user_id", userCtx.UserID.String()))
	}
	rl.logger.Warn("request rate limit exceeded", fields...)

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Retry-After", "60")
	w.WriteHeader(http.StatusTooManyRequests)
	_, _ = w.Write([]byte(`{"error":"Too Many Requests","message":"Request rate limit exceeded, retry shortly."}`))
}
