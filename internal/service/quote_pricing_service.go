package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/hartwood-buildings/crm-api/internal/auth"
	"github.com/hartwood-buildings/crm-api/internal/config"
	"github.com/hartwood-buildings/crm-api/internal/domain"
	"github.com/hartwood-buildings/crm-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// QuotePricingService implements the discount engine and the quote totals
// invariants. Discount applications are append-only audit rows; the running
// amounts live on the items and the quote header.
type QuotePricingService struct {
	db           *gorm.DB
	quoteRepo    *repository.QuoteRepository
	templateRepo *repository.DiscountTemplateRepository
	requestRepo  *repository.DiscountRequestRepository
	pipeline     *config.PipelineConfig
	logger       *zap.Logger
	now          func() time.Time
}

// NewQuotePricingService creates a new QuotePricingService
func NewQuotePricingService(
	db *gorm.DB,
	quoteRepo *repository.QuoteRepository,
	templateRepo *repository.DiscountTemplateRepository,
	requestRepo *repository.DiscountRequestRepository,
	pipeline *config.PipelineConfig,
	logger *zap.Logger,
	now func() time.Time,
) *QuotePricingService {
	if now == nil {
		now = time.Now
	}
	return &QuotePricingService{
		db:           db,
		quoteRepo:    quoteRepo,
		templateRepo: templateRepo,
		requestRepo:  requestRepo,
		pipeline:     pipeline,
		logger:       logger,
		now:          now,
	}
}

// discountApplication is one resolved discount to run through the engine,
// either from a template or an approved ad hoc request.
type discountApplication struct {
	TemplateID *uuid.UUID
	Type       domain.DiscountType
	Scope      domain.DiscountScope
	Value      float64
	Giveaway   bool
}

// ApplyTemplates resolves the templates in caller order and applies them to
// the quote, then recomputes totals and persists everything in one
// transaction. A missing or inactive template is a hard error here; the
// quote-creation path uses ApplyTemplatesLenient instead.
func (s *QuotePricingService) ApplyTemplates(ctx context.Context, quoteID uuid.UUID, templateIDs []uuid.UUID, actor *auth.UserContext) (*domain.Quote, error) {
	return s.applyTemplates(ctx, quoteID, templateIDs, actor, true, nil)
}

// ApplyTemplatesLenient behaves like ApplyTemplates but skips missing or
// inactive templates with a warning instead of failing the whole call.
// Used during quote creation, which also threads through the caller's
// explicit deposit when one was supplied.
func (s *QuotePricingService) ApplyTemplatesLenient(ctx context.Context, quoteID uuid.UUID, templateIDs []uuid.UUID, actor *auth.UserContext, explicitDeposit *float64) (*domain.Quote, error) {
	return s.applyTemplates(ctx, quoteID, templateIDs, actor, false, explicitDeposit)
}

func (s *QuotePricingService) applyTemplates(ctx context.Context, quoteID uuid.UUID, templateIDs []uuid.UUID, actor *auth.UserContext, strict bool, explicitDeposit *float64) (*domain.Quote, error) {
	apps := make([]discountApplication, 0, len(templateIDs))
	for _, id := range templateIDs {
		tmpl, err := s.templateRepo.GetActiveByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if tmpl == nil {
			if strict {
				return nil, ErrDiscountTemplateNotFound
			}
			s.logger.Warn("skipping missing or inactive discount template",
				zap.String("template_id", id.String()),
				zap.String("quote_id", quoteID.String()))
			continue
		}
		tid := tmpl.ID
		apps = append(apps, discountApplication{
			TemplateID: &tid,
			Type:       tmpl.Type,
			Scope:      tmpl.Scope,
			Value:      tmpl.Value,
			Giveaway:   tmpl.IsGiveaway,
		})
	}
	return s.apply(ctx, quoteID, apps, actor, explicitDeposit)
}

// apply runs the engine for the resolved applications and persists items,
// audit rows and recomputed totals atomically.
func (s *QuotePricingService) apply(ctx context.Context, quoteID uuid.UUID, apps []discountApplication, actor *auth.UserContext, explicitDeposit *float64) (*domain.Quote, error) {
	quote, err := s.quoteRepo.GetByID(ctx, quoteID)
	if err != nil {
		return nil, err
	}
	if len(quote.Items) == 0 {
		return nil, ErrQuoteHasNoItems
	}

	var newDiscounts []domain.QuoteDiscount
	for _, app := range apps {
		rows := s.applyOne(quote, app, actor)
		newDiscounts = append(newDiscounts, rows...)
		quote.Discounts = append(quote.Discounts, rows...)
	}

	s.RecomputeTotals(quote, explicitDeposit)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range quote.Items {
			if err := tx.Save(&quote.Items[i]).Error; err != nil {
				return err
			}
		}
		if len(newDiscounts) > 0 {
			if err := tx.Create(&newDiscounts).Error; err != nil {
				return err
			}
		}
		return tx.Model(&domain.Quote{}).
			Where("id = ?", quote.ID).
			Updates(map[string]interface{}{
				"discount_total":     quote.DiscountTotal,
				"total_amount":       quote.TotalAmount,
				"deposit_amount":     quote.DepositAmount,
				"deposit_overridden": quote.DepositOverridden,
				"balance_amount":     quote.BalanceAmount,
				"updated_at":         s.now().UTC(),
			}).Error
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("discounts applied",
		zap.String("quote_id", quote.ID.String()),
		zap.Int("applications", len(apps)),
		zap.Float64("discount_total", quote.DiscountTotal))

	return quote, nil
}

// applyOne mutates the quote's items in memory and returns the audit rows
// for one application.
func (s *QuotePricingService) applyOne(quote *domain.Quote, app discountApplication, actor *auth.UserContext) []domain.QuoteDiscount {
	now := s.now().UTC()

	newRow := func(itemID *uuid.UUID, dType domain.DiscountType, scope domain.DiscountScope, value, amount float64) domain.QuoteDiscount {
		return domain.QuoteDiscount{
			QuoteID:       quote.ID,
			QuoteItemID:   itemID,
			TemplateID:    app.TemplateID,
			Type:          dType,
			Scope:         scope,
			Value:         value,
			Amount:        amount,
			AppliedByID:   actor.UserID,
			AppliedByName: actor.DisplayName,
			CreatedAt:     now,
		}
	}

	if app.Giveaway {
		// A giveaway zeroes every item that carries a product reference,
		// recorded as a full percentage application.
		var rows []domain.QuoteDiscount
		for i := range quote.Items {
			item := &quote.Items[i]
			if item.ProductID == nil {
				continue
			}
			computed := item.LineTotal + item.DiscountAmount
			item.DiscountAmount += computed
			item.FinalLineTotal = 0
			itemID := item.ID
			rows = append(rows, newRow(&itemID, domain.DiscountPercentage, domain.ScopeProduct, 100, computed))
		}
		return rows
	}

	switch app.Scope {
	case domain.ScopeProduct:
		var rows []domain.QuoteDiscount
		for i := range quote.Items {
			item := &quote.Items[i]
			if !item.LineType.IsDiscountable() || item.LineTotal <= 0 {
				continue
			}
			base := item.LineTotal + item.DiscountAmount
			var computed float64
			if app.Type == domain.DiscountPercentage {
				computed = base * app.Value / 100
			} else {
				computed = min(app.Value, base)
			}
			item.DiscountAmount += computed
			item.FinalLineTotal = max(0, item.LineTotal-item.DiscountAmount)
			itemID := item.ID
			rows = append(rows, newRow(&itemID, app.Type, app.Scope, app.Value, computed))
		}
		return rows

	case domain.ScopeQuote:
		// Quote-scope discounts compute against the original subtotal, not
		// the running discounted total.
		var computed float64
		if app.Type == domain.DiscountPercentage {
			computed = quote.Subtotal * app.Value / 100
		} else {
			computed = min(app.Value, quote.Subtotal)
		}
		return []domain.QuoteDiscount{newRow(nil, app.Type, app.Scope, app.Value, computed)}
	}
	return nil
}

// RecomputeTotals re-derives the quote header amounts from the items and
// the quote-scope audit rows. explicitDeposit, when non-nil, is clamped to
// the total and remembered; later recomputes without one keep the remembered
// deposit (re-clamped) rather than reverting to the default percentage.
func (s *QuotePricingService) RecomputeTotals(quote *domain.Quote, explicitDeposit *float64) {
	var subtotal, itemDiscounts float64
	for i := range quote.Items {
		subtotal += quote.Items[i].LineTotal
		itemDiscounts += quote.Items[i].DiscountAmount
	}

	var quoteScope float64
	for i := range quote.Discounts {
		if quote.Discounts[i].QuoteItemID == nil {
			quoteScope += quote.Discounts[i].Amount
		}
	}

	quote.Subtotal = subtotal
	quote.DiscountTotal = itemDiscounts + quoteScope
	quote.TotalAmount = max(0, quote.Subtotal-quote.DiscountTotal)

	switch {
	case explicitDeposit != nil:
		quote.DepositAmount = min(*explicitDeposit, quote.TotalAmount)
		quote.DepositOverridden = true
	case quote.DepositOverridden:
		quote.DepositAmount = min(quote.DepositAmount, quote.TotalAmount)
	default:
		quote.DepositAmount = quote.TotalAmount * s.pipeline.DefaultDepositPercent / 100
	}
	quote.BalanceAmount = quote.TotalAmount - quote.DepositAmount
}

// SetDeposit updates the deposit on a draft quote, clamped to the total.
func (s *QuotePricingService) SetDeposit(ctx context.Context, quoteID uuid.UUID, deposit float64) (*domain.Quote, error) {
	quote, err := s.quoteRepo.GetByID(ctx, quoteID)
	if err != nil {
		return nil, err
	}
	if quote.Status != domain.QuoteStatusDraft {
		return nil, ErrQuoteNotDraft
	}

	quote.DepositAmount = min(deposit, quote.TotalAmount)
	quote.DepositOverridden = true
	quote.BalanceAmount = quote.TotalAmount - quote.DepositAmount
	if err := s.quoteRepo.Update(ctx, quote); err != nil {
		return nil, err
	}
	return quote, nil
}

// CreateDiscountRequest opens the approval gate for an ad hoc discount.
// Only draft quotes accept requests and at most one may be pending.
func (s *QuotePricingService) CreateDiscountRequest(ctx context.Context, quoteID uuid.UUID, actor *auth.UserContext, req *domain.CreateDiscountRequestRequest) (*domain.DiscountRequest, error) {
	quote, err := s.quoteRepo.GetByID(ctx, quoteID)
	if err != nil {
		return nil, err
	}
	if quote.Status != domain.QuoteStatusDraft {
		return nil, ErrQuoteNotDraft
	}

	pending, err := s.requestRepo.GetPendingForQuote(ctx, quoteID)
	if err != nil {
		return nil, err
	}
	if pending != nil {
		return nil, ErrPendingDiscountRequestExists
	}

	request := &domain.DiscountRequest{
		QuoteID:         quoteID,
		Type:            req.Type,
		Scope:           req.Scope,
		Value:           req.Value,
		Reason:          req.Reason,
		Status:          domain.DiscountRequestPending,
		RequestedByID:   actor.UserID,
		RequestedByName: actor.DisplayName,
	}
	if err := s.requestRepo.Create(ctx, request); err != nil {
		return nil, err
	}

	s.logger.Info("discount request created",
		zap.String("quote_id", quoteID.String()),
		zap.String("request_id", request.ID.String()),
		zap.String("requested_by", actor.DisplayName))

	return request, nil
}

// ReviewDiscountRequest approves or rejects a pending request. The reviewer
// must hold the override-capable role and must not be the requester.
// Approval runs the requested discount through the engine.
func (s *QuotePricingService) ReviewDiscountRequest(ctx context.Context, requestID uuid.UUID, reviewer *auth.UserContext, approve bool, reviewNotes string) (*domain.DiscountRequest, error) {
	request, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request.Status != domain.DiscountRequestPending {
		return nil, ErrRequestNotPending
	}
	if request.RequestedByID == reviewer.UserID {
		return nil, ErrSelfReview
	}
	if !reviewer.Role.CanOverride() {
		return nil, ErrPermissionDenied
	}

	now := s.now().UTC()
	reviewerID := reviewer.UserID
	request.ReviewedByID = &reviewerID
	request.ReviewedAt = &now
	request.ReviewNotes = reviewNotes

	if !approve {
		request.Status = domain.DiscountRequestRejected
		if err := s.requestRepo.Update(ctx, request); err != nil {
			return nil, err
		}
		return request, nil
	}

	request.Status = domain.DiscountRequestApproved
	if err := s.requestRepo.Update(ctx, request); err != nil {
		return nil, err
	}

	app := discountApplication{
		Type:  request.Type,
		Scope: request.Scope,
		Value: request.Value,
	}
	if _, err := s.apply(ctx, request.QuoteID, []discountApplication{app}, reviewer, nil); err != nil {
		return nil, err
	}

	s.logger.Info("discount request approved and applied",
		zap.String("quote_id", request.QuoteID.String()),
		zap.String("request_id", request.ID.String()),
		zap.String("reviewed_by", reviewer.DisplayName))

	return request, nil
}
