package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hartwood-buildings/crm-api/internal/auth"
	"github.com/hartwood-buildings/crm-api/internal/config"
	"github.com/hartwood-buildings/crm-api/internal/database"
	"github.com/hartwood-buildings/crm-api/internal/http/handler"
	"github.com/hartwood-buildings/crm-api/internal/http/middleware"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	_ "github.com/hartwood-buildings/crm-api/docs" // Import generated swagger docs
)

type Router struct {
	cfg                *config.Config
	logger             *zap.Logger
	db                 *gorm.DB
	authMiddleware     *auth.Middleware
	rateLimiter        *middleware.RateLimiter
	authHandler        *handler.AuthHandler
	customerHandler    *handler.CustomerHandler
	leadHandler        *handler.LeadHandler
	activityHandler    *handler.ActivityHandler
	quoteHandler       *handler.QuoteHandler
	discountHandler    *handler.DiscountHandler
	opportunityHandler *handler.OpportunityHandler
	reminderHandler    *handler.ReminderHandler
	documentHandler    *handler.QuoteDocumentHandler
	productHandler     *handler.ProductHandler
}

func NewRouter(
	cfg *config.Config,
	logger *zap.Logger,
	db *gorm.DB,
	authMiddleware *auth.Middleware,
	rateLimiter *middleware.RateLimiter,
	authHandler *handler.AuthHandler,
	customerHandler *handler.CustomerHandler,
	leadHandler *handler.LeadHandler,
	activityHandler *handler.ActivityHandler,
	quoteHandler *handler.QuoteHandler,
	discountHandler *handler.DiscountHandler,
	opportunityHandler *handler.OpportunityHandler,
	reminderHandler *handler.ReminderHandler,
	documentHandler *handler.QuoteDocumentHandler,
	productHandler *handler.ProductHandler,
) *Router {
	return &Router{
		cfg:                cfg,
		logger:             logger,
		db:                 db,
		authMiddleware:     authMiddleware,
		rateLimiter:        rateLimiter,
		authHandler:        authHandler,
		customerHandler:    customerHandler,
		leadHandler:        leadHandler,
		activityHandler:    activityHandler,
		quoteHandler:       quoteHandler,
		discountHandler:    discountHandler,
		opportunityHandler: opportunityHandler,
		reminderHandler:    reminderHandler,
		documentHandler:    documentHandler,
		productHandler:     productHandler,
	}
}

func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(rt.logger))
	r.Use(middleware.Logging(rt.logger))
	r.Use(middleware.SecurityHeaders(&rt.cfg.Security))
	r.Use(middleware.CORS(&rt.cfg.CORS, rt.cfg.App.Environment, rt.logger))
	r.Use(rt.rateLimiter.Throttle)

	// Health check (basic liveness probe)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Database health check (readiness probe with detailed stats)
	r.Get("/health/db", func(w http.ResponseWriter, r *http.Request) {
		stats, err := database.HealthCheckWithStats(rt.db)
		if err != nil {
			rt.logger.Error("Database health check failed", zap.Error(err))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"status":  "unhealthy",
				"error":   err.Error(),
				"service": "database",
			})
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":  "healthy",
			"service": "database",
			"stats": map[string]interface{}{
				"max_open_connections": stats.MaxOpenConnections,
				"open_connections":     stats.OpenConnections,
				"in_use":               stats.InUse,
				"idle":                 stats.Idle,
				"wait_count":           stats.WaitCount,
				"wait_duration_ms":     stats.WaitDuration.Milliseconds(),
				"max_idle_closed":      stats.MaxIdleClosed,
				"max_lifetime_closed":  stats.MaxLifetimeClosed,
			},
		})
	})

	// Combined readiness check (checks all dependencies)
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		checks := make(map[string]interface{})
		allHealthy := true

		// Check database
		if err := database.HealthCheck(rt.db); err != nil {
			rt.logger.Error("Database health check failed", zap.Error(err))
			checks["database"] = map[string]interface{}{
				"status": "unhealthy",
				"error":  err.Error(),
			}
			allHealthy = false
		} else {
			checks["database"] = map[string]interface{}{
				"status": "healthy",
			}
		}

		w.Header().Set("Content-Type", "application/json")
		if allHealthy {
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"status": "healthy",
				"checks": checks,
			})
		} else {
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"status": "unhealthy",
				"checks": checks,
			})
		}
	})

	// Swagger documentation
	if rt.cfg.Server.EnableSwagger {
		r.Get("/swagger/*", httpSwagger.Handler(
			httpSwagger.URL("/swagger/doc.json"),
		))
	}

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Public routes (no auth, hit by email pixels and the website)
		r.Post("/auth/login", rt.authHandler.Login)
		r.Route("/public", func(r chi.Router) {
			r.Post("/quotes/{id}/view", rt.quoteHandler.PublicView)
			r.Post("/quote-emails/{emailId}/open", rt.quoteHandler.EmailOpenPixel)
			r.Post("/customers/{id}/visit", rt.customerHandler.WebsitePixel)
		})

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(rt.authMiddleware.Authenticate)

			// Auth
			r.Get("/auth/me", rt.authHandler.Me)
			r.Get("/users", rt.authHandler.ListUsers)

			// Customers
			r.Route("/customers", func(r chi.Router) {
				r.Get("/", rt.customerHandler.List)
				r.Post("/", rt.customerHandler.Create)
				r.Get("/{id}", rt.customerHandler.GetByID)
				r.Put("/{id}", rt.customerHandler.Update)
				r.Get("/{id}/activities", rt.customerHandler.ListActivities)
			})

			// Leads
			r.Route("/leads", func(r chi.Router) {
				r.Get("/", rt.leadHandler.List)
				r.Post("/", rt.leadHandler.Create)
				r.Get("/{id}", rt.leadHandler.GetByID)
				r.Put("/{id}", rt.leadHandler.Update)
				r.Post("/{id}/transition", rt.leadHandler.Transition)
				r.Get("/{id}/history", rt.leadHandler.History)
				r.Put("/{id}/customer/{customerId}", rt.leadHandler.AttachCustomer)
				r.Get("/{id}/activities", rt.activityHandler.ListByLead)
			})

			// Activities
			r.Post("/activities", rt.activityHandler.Create)

			// Quotes
			r.Route("/quotes", func(r chi.Router) {
				r.Get("/", rt.quoteHandler.List)
				r.Post("/", rt.quoteHandler.Create)
				r.Get("/{id}", rt.quoteHandler.GetByID)
				r.Put("/{id}", rt.quoteHandler.Update)

				// Lifecycle endpoints
				r.Post("/{id}/send", rt.quoteHandler.Send)
				r.Post("/{id}/accept", rt.quoteHandler.Accept)
				r.Post("/{id}/reject", rt.quoteHandler.Reject)
				r.Post("/{id}/clone", rt.quoteHandler.Clone)

				// Pricing
				r.Post("/{id}/discounts", rt.quoteHandler.ApplyDiscounts)
				r.Put("/{id}/deposit", rt.quoteHandler.SetDeposit)
				r.Post("/{id}/discount-requests", rt.discountHandler.CreateRequest)

				// Deal tracking
				r.Put("/{id}/opportunity", rt.opportunityHandler.Update)

				// Documents
				r.Get("/{id}/documents", rt.documentHandler.List)
				r.Post("/{id}/documents", rt.documentHandler.Upload)
			})

			// Quote documents
			r.Get("/documents/{id}/download", rt.documentHandler.Download)

			// Opportunities
			r.Get("/opportunities", rt.opportunityHandler.List)

			// ERP product catalogue
			r.Get("/products", rt.productHandler.Search)
			r.Get("/products/{code}", rt.productHandler.GetByCode)

			// Discount catalogue and approvals
			r.Route("/discount-templates", func(r chi.Router) {
				r.Get("/", rt.discountHandler.ListTemplates)
				r.With(rt.authMiddleware.RequireManager).Post("/", rt.discountHandler.CreateTemplate)
				r.With(rt.authMiddleware.RequireManager).Put("/{id}", rt.discountHandler.UpdateTemplate)
			})
			r.With(rt.authMiddleware.RequireManager).
				Post("/discount-requests/{id}/review", rt.discountHandler.ReviewRequest)

			// Reminders
			r.Route("/reminders", func(r chi.Router) {
				r.Get("/", rt.reminderHandler.List)
				r.Post("/{id}/dismiss", rt.reminderHandler.Dismiss)
				r.Post("/{id}/acted", rt.reminderHandler.MarkActedUpon)
				r.With(rt.authMiddleware.RequireManager).Post("/sweep", rt.reminderHandler.TriggerSweep)
			})
			r.Route("/reminder-rules", func(r chi.Router) {
				r.Get("/", rt.reminderHandler.ListRules)
				r.With(rt.authMiddleware.RequireManager).Post("/", rt.reminderHandler.CreateRule)
			})
		})
	})

	return r
}
