package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/hartwood-buildings/crm-api/internal/auth"
	"github.com/hartwood-buildings/crm-api/internal/config"
	"github.com/hartwood-buildings/crm-api/internal/domain"
	"github.com/hartwood-buildings/crm-api/internal/events"
	"github.com/hartwood-buildings/crm-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// QuoteService owns the quote lifecycle: creation, draft edits, sending,
// the public view callback, accept/reject decisions, expiry and revision
// cloning. Pricing math is delegated to QuotePricingService; temperature
// to TemperatureService.
type QuoteService struct {
	db          *gorm.DB
	quoteRepo   *repository.QuoteRepository
	emailRepo   *repository.QuoteEmailRepository
	numbers     *NumberSequenceService
	pricing     *QuotePricingService
	temperature *TemperatureService
	bus         *events.Bus
	pipeline    *config.PipelineConfig
	logger      *zap.Logger
	now         func() time.Time
}

// NewQuoteService creates a new QuoteService
func NewQuoteService(
	db *gorm.DB,
	quoteRepo *repository.QuoteRepository,
	emailRepo *repository.QuoteEmailRepository,
	numbers *NumberSequenceService,
	pricing *QuotePricingService,
	temperature *TemperatureService,
	bus *events.Bus,
	pipeline *config.PipelineConfig,
	logger *zap.Logger,
	now func() time.Time,
) *QuoteService {
	if now == nil {
		now = time.Now
	}
	return &QuoteService{
		db:          db,
		quoteRepo:   quoteRepo,
		emailRepo:   emailRepo,
		numbers:     numbers,
		pricing:     pricing,
		temperature: temperature,
		bus:         bus,
		pipeline:    pipeline,
		logger:      logger,
		now:         now,
	}
}

// GetQuote returns a quote with items, discounts and email sends loaded.
func (s *QuoteService) GetQuote(ctx context.Context, id uuid.UUID) (*domain.Quote, error) {
	return s.quoteRepo.GetByID(ctx, id)
}

// ListQuotes returns a page of quotes matching the filter.
func (s *QuoteService) ListQuotes(ctx context.Context, page, pageSize int, filter repository.QuoteFilter) ([]domain.Quote, int64, error) {
	return s.quoteRepo.List(ctx, page, pageSize, filter)
}

// CreateQuote allocates a quote number, builds the line items, applies any
// requested discount templates and publishes the created event so the
// owning lead can cascade to quoted.
func (s *QuoteService) CreateQuote(ctx context.Context, actor *auth.UserContext, req *domain.CreateQuoteRequest) (*domain.Quote, error) {
	quoteNumber, err := s.numbers.GenerateQuoteNumber(ctx)
	if err != nil {
		return nil, err
	}

	quote := &domain.Quote{
		QuoteNumber:   quoteNumber,
		CustomerID:    req.CustomerID,
		LeadID:        req.LeadID,
		Version:       1,
		Status:        domain.QuoteStatusDraft,
		Temperature:   domain.TemperatureCold,
		CreatedByID:   actor.UserID,
		CreatedByName: actor.DisplayName,
		Notes:         req.Notes,
		ValidUntil:    req.ValidUntil,
		Items:         buildQuoteItems(req.Items),
	}
	s.pricing.RecomputeTotals(quote, req.Deposit)

	if err := s.quoteRepo.Create(ctx, quote); err != nil {
		return nil, err
	}

	if len(req.TemplateIDs) > 0 {
		quote, err = s.pricing.ApplyTemplatesLenient(ctx, quote.ID, req.TemplateIDs, actor, req.Deposit)
		if err != nil {
			return nil, err
		}
	}

	s.logger.Info("quote created",
		zap.String("quote_id", quote.ID.String()),
		zap.String("quote_number", quote.QuoteNumber),
		zap.Float64("total", quote.TotalAmount))

	s.bus.Publish(ctx, events.QuoteCreated{
		QuoteID:    quote.ID,
		CustomerID: quote.CustomerID,
		LeadID:     quote.LeadID,
	})

	return s.quoteRepo.GetByID(ctx, quote.ID)
}

// buildQuoteItems turns item requests into line items with computed totals.
func buildQuoteItems(reqs []domain.CreateQuoteItemRequest) []domain.QuoteItem {
	items := make([]domain.QuoteItem, 0, len(reqs))
	for i, ir := range reqs {
		qty := ir.Quantity
		if qty == 0 {
			qty = 1
		}
		lineType := ir.LineType
		if lineType == "" {
			lineType = domain.LineTypeProduct
		}
		lineTotal := qty * ir.UnitPrice
		items = append(items, domain.QuoteItem{
			ProductID:         ir.ProductID,
			ProductCode:       ir.ProductCode,
			Description:       ir.Description,
			LineType:          lineType,
			Quantity:          qty,
			UnitPrice:         ir.UnitPrice,
			LineTotal:         lineTotal,
			FinalLineTotal:    lineTotal,
			ParentQuoteItemID: ir.ParentQuoteItemID,
			DisplayOrder:      i,
		})
	}
	return items
}

// UpdateDraft replaces a draft quote's items and metadata. Existing
// discount applications are discarded with the old items.
func (s *QuoteService) UpdateDraft(ctx context.Context, id uuid.UUID, req *domain.UpdateQuoteRequest) (*domain.Quote, error) {
	quote, err := s.quoteRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if quote.Status != domain.QuoteStatusDraft {
		return nil, ErrQuoteNotDraft
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if req.Items != nil {
			if err := tx.Where("quote_id = ?", quote.ID).Delete(&domain.QuoteItem{}).Error; err != nil {
				return err
			}
			if err := tx.Where("quote_id = ?", quote.ID).Delete(&domain.QuoteDiscount{}).Error; err != nil {
				return err
			}
			quote.Items = buildQuoteItems(req.Items)
			for i := range quote.Items {
				quote.Items[i].QuoteID = quote.ID
			}
			quote.Discounts = nil
			if err := tx.Create(&quote.Items).Error; err != nil {
				return err
			}
		}
		if req.Notes != nil {
			quote.Notes = *req.Notes
		}
		if req.ValidUntil != nil {
			quote.ValidUntil = req.ValidUntil
		}

		s.pricing.RecomputeTotals(quote, req.Deposit)
		quote.UpdatedAt = s.now().UTC()
		return tx.Omit("Items", "Discounts", "Emails", "Customer").Save(quote).Error
	})
	if err != nil {
		return nil, err
	}
	return s.quoteRepo.GetByID(ctx, quote.ID)
}

// SendQuote marks a draft quote as sent, stamps the validity window and
// records the outbound email for open tracking. The actual delivery is
// handled outside the core.
func (s *QuoteService) SendQuote(ctx context.Context, id uuid.UUID, req *domain.SendQuoteRequest) (*domain.Quote, error) {
	quote, err := s.quoteRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if quote.Status != domain.QuoteStatusDraft {
		return nil, ErrQuoteNotDraft
	}

	now := s.now().UTC()
	quote.Status = domain.QuoteStatusSent
	quote.SentAt = &now
	if quote.ValidUntil == nil {
		validUntil := now.AddDate(0, 0, s.pipeline.QuoteValidityDays)
		quote.ValidUntil = &validUntil
	}
	if quote.OpportunityStage != nil && quote.OpportunityStage.IsOpen() {
		stage := domain.OpportunityQuoteSent
		quote.OpportunityStage = &stage
	}

	email := &domain.QuoteEmail{
		QuoteID:        quote.ID,
		RecipientEmail: req.RecipientEmail,
		Subject:        req.Subject,
		SentAt:         &now,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Items", "Discounts", "Emails", "Customer").Save(quote).Error; err != nil {
			return err
		}
		return tx.Create(email).Error
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("quote sent",
		zap.String("quote_id", quote.ID.String()),
		zap.String("recipient", req.RecipientEmail))

	return quote, nil
}

// RecordView handles the public quote-view callback: stamps first/last
// viewed, promotes SENT to VIEWED and recomputes the temperature.
func (s *QuoteService) RecordView(ctx context.Context, id uuid.UUID) (*domain.Quote, error) {
	quote, err := s.quoteRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	if quote.ViewedAt == nil {
		quote.ViewedAt = &now
	}
	quote.LastViewedAt = &now
	if quote.Status == domain.QuoteStatusSent {
		quote.Status = domain.QuoteStatusViewed
	}

	s.temperature.Recompute(quote)

	if err := s.db.WithContext(ctx).Omit("Items", "Discounts", "Emails", "Customer").Save(quote).Error; err != nil {
		return nil, err
	}

	s.bus.Publish(ctx, events.QuoteViewed{QuoteID: quote.ID})
	return quote, nil
}

// RecordEmailOpen handles the tracking-pixel callback for one email send.
func (s *QuoteService) RecordEmailOpen(ctx context.Context, emailID uuid.UUID) error {
	email, err := s.emailRepo.GetByID(ctx, emailID)
	if err != nil {
		return err
	}

	now := s.now().UTC()
	if email.OpenedAt == nil {
		email.OpenedAt = &now
	}
	email.OpenCount++
	if err := s.emailRepo.Update(ctx, email); err != nil {
		return err
	}

	quote, err := s.quoteRepo.GetByID(ctx, email.QuoteID)
	if err != nil {
		return err
	}
	if s.temperature.Recompute(quote) {
		return s.db.WithContext(ctx).Model(&domain.Quote{}).
			Where("id = ?", quote.ID).
			Update("temperature", quote.Temperature).Error
	}
	return nil
}

// Accept marks an open quote as accepted and closes its opportunity won.
func (s *QuoteService) Accept(ctx context.Context, id uuid.UUID) (*domain.Quote, error) {
	return s.decide(ctx, id, true)
}

// Reject marks an open quote as rejected and closes its opportunity lost.
func (s *QuoteService) Reject(ctx context.Context, id uuid.UUID) (*domain.Quote, error) {
	return s.decide(ctx, id, false)
}

func (s *QuoteService) decide(ctx context.Context, id uuid.UUID, accepted bool) (*domain.Quote, error) {
	quote, err := s.quoteRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if quote.Status != domain.QuoteStatusSent && quote.Status != domain.QuoteStatusViewed {
		return nil, ErrQuoteNotOpen
	}

	var stage domain.OpportunityStage
	if accepted {
		quote.Status = domain.QuoteStatusAccepted
		stage = domain.OpportunityWon
	} else {
		quote.Status = domain.QuoteStatusRejected
		stage = domain.OpportunityLost
	}
	if quote.OpportunityStage != nil {
		quote.OpportunityStage = &stage
	}
	quote.UpdatedAt = s.now().UTC()

	if err := s.db.WithContext(ctx).Omit("Items", "Discounts", "Emails", "Customer").Save(quote).Error; err != nil {
		return nil, err
	}

	s.logger.Info("quote decided",
		zap.String("quote_id", quote.ID.String()),
		zap.Bool("accepted", accepted))

	s.bus.Publish(ctx, events.QuoteDecided{
		QuoteID:    quote.ID,
		CustomerID: quote.CustomerID,
		LeadID:     quote.LeadID,
		Accepted:   accepted,
	})

	return quote, nil
}

// ExpireOverdue flips sent and viewed quotes past their validity date to
// expired. Returns the number of quotes expired. Run by the scheduled job.
func (s *QuoteService) ExpireOverdue(ctx context.Context) (int, error) {
	now := s.now().UTC()
	quotes, err := s.quoteRepo.ListExpired(ctx, now)
	if err != nil {
		return 0, err
	}

	expired := 0
	for i := range quotes {
		quote := &quotes[i]
		quote.Status = domain.QuoteStatusExpired
		quote.UpdatedAt = now
		if err := s.db.WithContext(ctx).Omit("Items", "Discounts", "Emails", "Customer").Save(quote).Error; err != nil {
			s.logger.Warn("failed to expire quote",
				zap.String("quote_id", quote.ID.String()),
				zap.Error(err))
			continue
		}
		expired++
	}

	if expired > 0 {
		s.logger.Info("quotes expired", zap.Int("count", expired))
	}
	return expired, nil
}

// CloneRevision creates a new draft carrying the same quote number with the
// version bumped. Items are copied at their undiscounted prices; discount
// applications are not carried over.
func (s *QuoteService) CloneRevision(ctx context.Context, id uuid.UUID, actor *auth.UserContext) (*domain.Quote, error) {
	source, err := s.quoteRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	maxVersion, err := s.quoteRepo.MaxVersionForNumber(ctx, source.QuoteNumber)
	if err != nil {
		return nil, err
	}

	items := make([]domain.QuoteItem, 0, len(source.Items))
	for i := range source.Items {
		src := source.Items[i]
		items = append(items, domain.QuoteItem{
			ProductID:      src.ProductID,
			ProductCode:    src.ProductCode,
			Description:    src.Description,
			LineType:       src.LineType,
			Quantity:       src.Quantity,
			UnitPrice:      src.UnitPrice,
			LineTotal:      src.LineTotal,
			FinalLineTotal: src.LineTotal,
			DisplayOrder:   src.DisplayOrder,
		})
	}

	clone := &domain.Quote{
		QuoteNumber:   source.QuoteNumber,
		CustomerID:    source.CustomerID,
		LeadID:        source.LeadID,
		Version:       maxVersion + 1,
		Status:        domain.QuoteStatusDraft,
		Temperature:   domain.TemperatureCold,
		CreatedByID:   actor.UserID,
		CreatedByName: actor.DisplayName,
		Notes:         source.Notes,
		Items:         items,
	}
	s.pricing.RecomputeTotals(clone, nil)

	if err := s.quoteRepo.Create(ctx, clone); err != nil {
		return nil, err
	}

	s.logger.Info("quote revision created",
		zap.String("quote_number", clone.QuoteNumber),
		zap.Int("version", clone.Version),
		zap.String("source_quote_id", source.ID.String()))

	return s.quoteRepo.GetByID(ctx, clone.ID)
}

// ListOpportunities returns all quotes being worked as open opportunities.
func (s *QuoteService) ListOpportunities(ctx context.Context) ([]domain.Quote, error) {
	return s.quoteRepo.ListOpenOpportunities(ctx)
}

// UpdateOpportunity edits the pipeline metadata on a quote. Setting a stage
// on a quote without one promotes it to an opportunity.
func (s *QuoteService) UpdateOpportunity(ctx context.Context, id uuid.UUID, req *domain.UpdateOpportunityRequest) (*domain.Quote, error) {
	quote, err := s.quoteRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Stage != nil {
		quote.OpportunityStage = req.Stage
	}
	if req.CloseProbability != nil {
		quote.CloseProbability = *req.CloseProbability
	}
	if req.NextAction != nil {
		quote.NextAction = *req.NextAction
	}
	if req.NextActionDueDate != nil {
		quote.NextActionDueDate = req.NextActionDueDate
	}
	if req.ExpectedCloseDate != nil {
		quote.ExpectedCloseDate = req.ExpectedCloseDate
	}
	if req.OwnerID != nil {
		quote.OwnerID = req.OwnerID
	}
	quote.UpdatedAt = s.now().UTC()

	if err := s.db.WithContext(ctx).Omit("Items", "Discounts", "Emails", "Customer").Save(quote).Error; err != nil {
		return nil, err
	}
	return quote, nil
}
