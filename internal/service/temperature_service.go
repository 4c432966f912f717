package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/hartwood-buildings/crm-api/internal/config"
	"github.com/hartwood-buildings/crm-api/internal/domain"
	"github.com/hartwood-buildings/crm-api/internal/events"
	"github.com/hartwood-buildings/crm-api/internal/repository"
	"go.uber.org/zap"
)

// TemperatureService derives the engagement heat of sent quotes from email
// opens and view recency. Cold/warm/hot is a display signal; it never gates
// any other operation.
type TemperatureService struct {
	quoteRepo *repository.QuoteRepository
	pipeline  *config.PipelineConfig
	logger    *zap.Logger
	now       func() time.Time
}

// NewTemperatureService creates the service and subscribes the website
// pixel trigger to the event bus.
func NewTemperatureService(
	quoteRepo *repository.QuoteRepository,
	bus *events.Bus,
	pipeline *config.PipelineConfig,
	logger *zap.Logger,
	now func() time.Time,
) *TemperatureService {
	if now == nil {
		now = time.Now
	}
	s := &TemperatureService{
		quoteRepo: quoteRepo,
		pipeline:  pipeline,
		logger:    logger,
		now:       now,
	}
	bus.Subscribe(events.EventWebsiteVisit, s.onWebsiteVisit)
	return s
}

// Recompute derives the temperature for a quote in memory and reports
// whether it changed. Only sent quotes are recomputed; the quote's Emails
// must be loaded. The caller persists.
func (s *TemperatureService) Recompute(quote *domain.Quote) bool {
	if quote.Status != domain.QuoteStatusSent && quote.Status != domain.QuoteStatusViewed {
		return false
	}

	totalOpens := 0
	for i := range quote.Emails {
		totalOpens += quote.Emails[i].OpenCount
	}

	var candidate domain.QuoteTemperature
	switch {
	case totalOpens >= 3:
		candidate = domain.TemperatureHot
	case totalOpens >= 1 || quote.ViewedAt != nil:
		candidate = domain.TemperatureWarm
	default:
		candidate = domain.TemperatureCold
	}

	// Cooling overrides based on view recency.
	if quote.LastViewedAt != nil {
		daysSinceView := int(s.now().UTC().Sub(*quote.LastViewedAt).Hours() / 24)
		if daysSinceView >= s.pipeline.TemperatureColdDays {
			candidate = domain.TemperatureCold
		} else if daysSinceView >= s.pipeline.TemperatureWarmDays && candidate == domain.TemperatureHot {
			candidate = domain.TemperatureWarm
		}
	}

	if candidate == quote.Temperature {
		return false
	}
	quote.Temperature = candidate
	return true
}

// onWebsiteVisit warms the customer's cold sent quotes to warm. A pixel hit
// is weaker evidence than an email open, so it never produces hot.
func (s *TemperatureService) onWebsiteVisit(ctx context.Context, event events.Event) error {
	e, ok := event.(events.WebsiteVisit)
	if !ok {
		return nil
	}
	return s.WarmFromWebsiteVisit(ctx, e.CustomerID)
}

// WarmFromWebsiteVisit applies the website pixel trigger for a customer.
func (s *TemperatureService) WarmFromWebsiteVisit(ctx context.Context, customerID uuid.UUID) error {
	quotes, err := s.quoteRepo.ListSentByCustomer(ctx, customerID)
	if err != nil {
		return err
	}
	for i := range quotes {
		quote := &quotes[i]
		if quote.Temperature != domain.TemperatureCold && quote.Temperature != "" {
			continue
		}
		quote.Temperature = domain.TemperatureWarm
		if err := s.quoteRepo.Update(ctx, quote); err != nil {
			s.logger.Warn("failed to warm quote from website visit",
				zap.String("quote_id", quote.ID.String()),
				zap.Error(err))
			continue
		}
		s.logger.Info("quote warmed by website visit",
			zap.String("quote_id", quote.ID.String()),
			zap.String("customer_id", customerID.String()))
	}
	return nil
}
