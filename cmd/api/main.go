package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hartwood-buildings/crm-api/docs"
	"github.com/hartwood-buildings/crm-api/internal/auth"
	"github.com/hartwood-buildings/crm-api/internal/config"
	"github.com/hartwood-buildings/crm-api/internal/database"
	"github.com/hartwood-buildings/crm-api/internal/erp"
	"github.com/hartwood-buildings/crm-api/internal/events"
	"github.com/hartwood-buildings/crm-api/internal/http/handler"
	"github.com/hartwood-buildings/crm-api/internal/http/middleware"
	"github.com/hartwood-buildings/crm-api/internal/http/router"
	"github.com/hartwood-buildings/crm-api/internal/jobs"
	"github.com/hartwood-buildings/crm-api/internal/logger"
	"github.com/hartwood-buildings/crm-api/internal/repository"
	"github.com/hartwood-buildings/crm-api/internal/service"
	"github.com/hartwood-buildings/crm-api/internal/storage"
	"go.uber.org/zap"
)

// @title Hartwood Buildings CRM API
// @version 1.0
// @description Sales CRM API for leads, quotes, discounts and follow-up reminders

// @contact.name API Support
// @contact.email support@hartwoodbuildings.co.uk

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT Bearer token

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	// Load basic configuration first (for logging setup)
	basicCfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	log, err := logger.NewLogger(&basicCfg.Logging, &basicCfg.App)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting application",
		zap.String("app", basicCfg.App.Name),
		zap.String("env", basicCfg.App.Environment),
		zap.Int("port", basicCfg.App.Port),
	)

	// Configure Swagger host based on environment
	switch basicCfg.App.Environment {
	case "staging":
		docs.SwaggerInfo.Host = "crm-staging.hartwoodbuildings.co.uk"
	case "production":
		docs.SwaggerInfo.Host = "crm.hartwoodbuildings.co.uk"
	default:
		docs.SwaggerInfo.Host = fmt.Sprintf("localhost:%d", basicCfg.App.Port)
	}

	// Load full configuration with secrets
	// In development: uses environment variables
	// In staging/production: fetches from Azure Key Vault
	cfg, err := config.LoadWithSecrets(ctx, log)
	if err != nil {
		return fmt.Errorf("failed to load secrets: %w", err)
	}

	// Connect to database
	db, err := database.NewDatabase(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	// Schema migrations run through cmd/migrate (goose) in staging and
	// production; development keeps the schema current automatically.
	if cfg.App.Environment == "development" || cfg.App.Environment == "local" {
		if err := database.AutoMigrate(db); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
	}

	// Initialize document storage
	docStorage, err := storage.New(&cfg.Storage, log)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	log.Info("Storage initialized", zap.String("mode", cfg.Storage.Mode))

	// Initialize the ERP product catalogue connection (optional, read-only).
	// The app continues without it: quote lines can be entered by hand.
	var erpClient *erp.Client
	if cfg.ERP.Enabled {
		erpClient, err = erp.NewClient(&cfg.ERP, log)
		if err != nil {
			log.Warn("ERP connection failed, continuing without product catalogue",
				zap.Error(err),
			)
		}
	} else {
		log.Info("ERP product catalogue not configured, skipping")
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	customerRepo := repository.NewCustomerRepository(db)
	leadRepo := repository.NewLeadRepository(db)
	historyRepo := repository.NewLeadStatusHistoryRepository(db)
	activityRepo := repository.NewActivityRepository(db)
	quoteRepo := repository.NewQuoteRepository(db)
	quoteEmailRepo := repository.NewQuoteEmailRepository(db)
	quoteDocumentRepo := repository.NewQuoteDocumentRepository(db)
	templateRepo := repository.NewDiscountTemplateRepository(db)
	requestRepo := repository.NewDiscountRequestRepository(db)
	reminderRepo := repository.NewReminderRepository(db)
	ruleRepo := repository.NewReminderRuleRepository(db)
	numberSequenceRepo := repository.NewNumberSequenceRepository(db)

	// Initialize auth
	tokenManager, err := auth.NewTokenManager(&cfg.Auth)
	if err != nil {
		return fmt.Errorf("failed to create token manager: %w", err)
	}
	authMiddleware := auth.NewMiddleware(tokenManager, log)

	// Event bus decouples the quote lifecycle from the lead workflow
	bus := events.NewBus(log)

	// Initialize services
	numberSequenceService := service.NewNumberSequenceService(numberSequenceRepo, log, nil)
	workflowService := service.NewLeadWorkflowService(db, leadRepo, historyRepo, customerRepo, activityRepo, quoteRepo, numberSequenceService, bus, log, nil)
	pricingService := service.NewQuotePricingService(db, quoteRepo, templateRepo, requestRepo, &cfg.Pipeline, log, nil)
	temperatureService := service.NewTemperatureService(quoteRepo, bus, &cfg.Pipeline, log, nil)
	quoteService := service.NewQuoteService(db, quoteRepo, quoteEmailRepo, numberSequenceService, pricingService, temperatureService, bus, &cfg.Pipeline, log, nil)
	reminderService := service.NewReminderService(reminderRepo, ruleRepo, leadRepo, quoteRepo, activityRepo, userRepo, &cfg.Pipeline, log, nil)
	customerService := service.NewCustomerService(customerRepo, numberSequenceService, workflowService, log)
	leadService := service.NewLeadService(leadRepo, historyRepo, log)
	activityService := service.NewActivityService(activityRepo, customerRepo, workflowService, bus, log)
	templateService := service.NewDiscountTemplateService(templateRepo, log)
	userService := service.NewUserService(userRepo, tokenManager, log)
	documentService := service.NewQuoteDocumentService(quoteDocumentRepo, quoteRepo, docStorage, log)

	// Initialize middleware and handlers
	rateLimiter := middleware.NewRateLimiter(&cfg.RateLimit, log)

	authHandler := handler.NewAuthHandler(userService, log)
	customerHandler := handler.NewCustomerHandler(customerService, activityService, log)
	leadHandler := handler.NewLeadHandler(leadService, workflowService, log)
	activityHandler := handler.NewActivityHandler(activityService, log)
	quoteHandler := handler.NewQuoteHandler(quoteService, pricingService, log)
	discountHandler := handler.NewDiscountHandler(templateService, pricingService, log)
	opportunityHandler := handler.NewOpportunityHandler(quoteService, log)
	reminderHandler := handler.NewReminderHandler(reminderService, log)
	documentHandler := handler.NewQuoteDocumentHandler(documentService, cfg.Storage.MaxUploadSizeMB, log)
	productHandler := handler.NewProductHandler(erpClient, log)

	// Setup router
	rt := router.NewRouter(
		cfg,
		log,
		db,
		authMiddleware,
		rateLimiter,
		authHandler,
		customerHandler,
		leadHandler,
		activityHandler,
		quoteHandler,
		discountHandler,
		opportunityHandler,
		reminderHandler,
		documentHandler,
		productHandler,
	)

	// Initialize and start scheduler for background jobs
	var scheduler *jobs.Scheduler
	if cfg.Jobs.Enabled {
		scheduler = jobs.NewScheduler(log)
		timeout := time.Duration(cfg.Jobs.SweepTimeoutSecs) * time.Second

		if err := jobs.RegisterReminderSweepJob(
			scheduler,
			reminderService,
			log,
			cfg.Jobs.ReminderSweepCron,
			timeout,
			true, // surface stale work right after deployment
		); err != nil {
			log.Error("Failed to register reminder sweep job", zap.Error(err))
		}

		if err := jobs.RegisterQuoteExpiryJob(
			scheduler,
			quoteService,
			log,
			cfg.Jobs.QuoteExpiryCron,
			timeout,
		); err != nil {
			log.Error("Failed to register quote expiry job", zap.Error(err))
		}

		scheduler.Start()
		log.Info("Scheduler started",
			zap.String("reminder_sweep_cron", cfg.Jobs.ReminderSweepCron),
			zap.String("quote_expiry_cron", cfg.Jobs.QuoteExpiryCron),
			zap.Duration("timeout", timeout),
		)
	} else {
		log.Info("Background jobs disabled")
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      rt.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeoutDuration(),
		WriteTimeout: cfg.Server.WriteTimeoutDuration(),
	}

	// Start server in goroutine
	serverErrors := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		serverErrors <- srv.ListenAndServe()
	}()

	// Wait for interrupt signal
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		log.Info("Shutdown signal received", zap.String("signal", sig.String()))

		// Stop scheduler if running
		if scheduler != nil {
			ctx := scheduler.Stop()
			<-ctx.Done()
			log.Info("Scheduler stopped")
		}

		// Graceful shutdown with timeout
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("Failed to shutdown gracefully", zap.Error(err))
			return err
		}

		// Close ERP connection if initialized
		if erpClient != nil {
			if err := erpClient.Close(); err != nil {
				log.Warn("Error closing ERP connection", zap.Error(err))
			}
		}

		log.Info("Server stopped gracefully")
	}

	return nil
}
