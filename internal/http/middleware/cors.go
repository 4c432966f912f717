package middleware

import (
	"net/http"
	"slices"

	"github.com/go-chi/cors"
	"github.com/hartwood-buildings/crm-api/internal/config"
	"go.uber.org/zap"
)

// CORS admits browser traffic from the staff portal origins listed in
// config. Development falls back to allowing any origin so the portal can
// run off localhost ports; outside development an empty or wildcard origin
// list denies or warns rather than silently opening up.
func CORS(cfg *config.CORSConfig, environment string, logger *zap.Logger) func(http.Handler) http.Handler {
	options := cors.Options{
		AllowedMethods:   cfg.AllowedMethods,
		AllowedHeaders:   cfg.AllowedHeaders,
		ExposedHeaders:   cfg.ExposedHeaders,
		AllowCredentials: cfg.AllowCredentials,
		MaxAge:           cfg.MaxAge,
	}

	isDev := environment == "development" || environment == "local" || environment == ""
	allowAny := func(r *http.Request, origin string) bool { return origin != "" }

	switch {
	case slices.Contains(cfg.AllowedOrigins, "*"):
		if !isDev {
			logger.Warn("CORS wildcard origin outside development",
				zap.String("environment", environment))
		}
		options.AllowOriginFunc = allowAny

	case len(cfg.AllowedOrigins) > 0:
		options.AllowedOrigins = cfg.AllowedOrigins
		logger.Info("CORS restricted to staff portal origins",
			zap.Strings("origins", cfg.AllowedOrigins))

	case isDev:
		options.AllowOriginFunc = allowAny
		logger.Info("CORS open for development")

	default:
		// The cors package treats an empty AllowedOrigins as "*", so an
		// explicit deny func is needed to actually refuse everything.
		options.AllowOriginFunc = func(r *http.Request, origin string) bool { return false }
		logger.Warn("CORS has no allowed origins, cross-origin requests will be denied",
			zap.String("environment", environment))
	}

	return cors.Handler(options)
}
