package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/hartwood-buildings/crm-api/internal/auth"
	"github.com/hartwood-buildings/crm-api/internal/domain"
	"github.com/hartwood-buildings/crm-api/internal/events"
	"github.com/hartwood-buildings/crm-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// systemActorName attributes automatic transitions in the status history.
const systemActorName = "System"

// LeadWorkflowService owns the lead status state machine: the per-role
// allow-list, the quote-prerequisite gate in front of the quoted status,
// and the automatic cascades driven by domain events.
type LeadWorkflowService struct {
	db           *gorm.DB
	leadRepo     *repository.LeadRepository
	historyRepo  *repository.LeadStatusHistoryRepository
	customerRepo *repository.CustomerRepository
	activityRepo *repository.ActivityRepository
	quoteRepo    *repository.QuoteRepository
	numbers      *NumberSequenceService
	bus          *events.Bus
	logger       *zap.Logger
	now          func() time.Time
}

// NewLeadWorkflowService creates the workflow service and subscribes its
// cascades to the event bus.
func NewLeadWorkflowService(
	db *gorm.DB,
	leadRepo *repository.LeadRepository,
	historyRepo *repository.LeadStatusHistoryRepository,
	customerRepo *repository.CustomerRepository,
	activityRepo *repository.ActivityRepository,
	quoteRepo *repository.QuoteRepository,
	numbers *NumberSequenceService,
	bus *events.Bus,
	logger *zap.Logger,
	now func() time.Time,
) *LeadWorkflowService {
	if now == nil {
		now = time.Now
	}
	s := &LeadWorkflowService{
		db:           db,
		leadRepo:     leadRepo,
		historyRepo:  historyRepo,
		customerRepo: customerRepo,
		activityRepo: activityRepo,
		quoteRepo:    quoteRepo,
		numbers:      numbers,
		bus:          bus,
		logger:       logger,
		now:          now,
	}

	bus.Subscribe(events.EventCustomerQuoteEligible, s.onCustomerQuoteEligible)
	bus.Subscribe(events.EventQuoteCreated, s.onQuoteCreated)
	bus.Subscribe(events.EventQuoteDecided, s.onQuoteDecided)

	return s
}

// AttemptTransition moves a lead to targetStatus on behalf of the actor.
// Override with a non-empty reason lets a director bypass the role
// allow-list; the quote-prerequisite gate is never bypassed.
func (s *LeadWorkflowService) AttemptTransition(
	ctx context.Context,
	leadID uuid.UUID,
	actor *auth.UserContext,
	targetStatus domain.LeadStatus,
	override bool,
	overrideReason string,
	lostReason string,
) (*domain.Lead, error) {
	lead, err := s.leadRepo.GetByID(ctx, leadID)
	if err != nil {
		return nil, err
	}

	if err := s.checkTransition(ctx, lead, actor.Role, targetStatus, override, overrideReason); err != nil {
		return nil, err
	}

	if err := s.ensureCustomer(ctx, lead, targetStatus); err != nil {
		return nil, err
	}

	if err := s.persistTransition(ctx, lead, targetStatus, actor.UserID, actor.DisplayName, overrideReason, lostReason); err != nil {
		return nil, err
	}

	s.logger.Info("lead status changed",
		zap.String("lead_id", lead.ID.String()),
		zap.String("to_status", string(targetStatus)),
		zap.String("changed_by", actor.DisplayName),
		zap.Bool("override", override))

	return lead, nil
}

// checkTransition is the pure validation step: allow-list (or override
// bypass) followed by the quote gate.
func (s *LeadWorkflowService) checkTransition(
	ctx context.Context,
	lead *domain.Lead,
	role domain.SalesRole,
	targetStatus domain.LeadStatus,
	override bool,
	overrideReason string,
) error {
	usingOverride := override && role.CanOverride() && overrideReason != ""

	if !usingOverride {
		if !domain.IsTransitionAllowed(role, lead.Status, targetStatus) {
			return &domain.TransitionError{
				Code: domain.CodeTransitionNotAllowed,
				From: lead.Status,
				To:   targetStatus,
				Role: role,
			}
		}
	} else if lead.Status.IsTerminal() {
		// Terminal statuses have no outgoing edges, override included.
		return &domain.TransitionError{
			Code: domain.CodeTransitionNotAllowed,
			From: lead.Status,
			To:   targetStatus,
			Role: role,
		}
	}

	if targetStatus == domain.LeadStatusQuoted {
		return s.checkQuoteGate(ctx, lead, targetStatus)
	}
	return nil
}

// checkQuoteGate enforces the customer-completeness and engagement-proof
// prerequisites for the quoted status.
func (s *LeadWorkflowService) checkQuoteGate(ctx context.Context, lead *domain.Lead, targetStatus domain.LeadStatus) error {
	if lead.CustomerID == nil {
		return &domain.TransitionError{
			Code: domain.CodeNoCustomer,
			From: lead.Status,
			To:   targetStatus,
		}
	}

	customer, err := s.customerRepo.GetByID(ctx, *lead.CustomerID)
	if err != nil {
		return err
	}

	if missing := customer.MissingQuoteFields(); len(missing) > 0 {
		return &domain.TransitionError{
			Code:          domain.CodeQuotePrereqsMissing,
			From:          lead.Status,
			To:            targetStatus,
			MissingFields: missing,
		}
	}

	hasProof, err := s.customerRepo.HasEngagementProof(ctx, customer.ID)
	if err != nil {
		return err
	}
	if !hasProof {
		return &domain.TransitionError{
			Code: domain.CodeNoEngagementProof,
			From: lead.Status,
			To:   targetStatus,
		}
	}
	return nil
}

// ensureCustomer creates the customer record when a lead first qualifies,
// seeded from the lead's contact fields. An existing link is never changed.
func (s *LeadWorkflowService) ensureCustomer(ctx context.Context, lead *domain.Lead, targetStatus domain.LeadStatus) error {
	if targetStatus != domain.LeadStatusQualified || lead.CustomerID != nil {
		return nil
	}

	number, err := s.numbers.GenerateCustomerNumber(ctx)
	if err != nil {
		return err
	}

	customer := &domain.Customer{
		CustomerNumber: number,
		Name:           lead.ContactName,
		Email:          lead.ContactEmail,
		Phone:          lead.ContactPhone,
		Source:         string(lead.LeadSource),
	}
	if err := s.customerRepo.Create(ctx, customer); err != nil {
		return err
	}
	lead.CustomerID = &customer.ID

	s.logger.Info("customer created from qualified lead",
		zap.String("lead_id", lead.ID.String()),
		zap.String("customer_id", customer.ID.String()),
		zap.String("customer_number", customer.CustomerNumber))

	return nil
}

// persistTransition writes the new status and the history row in one
// transaction so they are never observed half-written.
func (s *LeadWorkflowService) persistTransition(
	ctx context.Context,
	lead *domain.Lead,
	targetStatus domain.LeadStatus,
	changedByID uuid.UUID,
	changedByName string,
	overrideReason string,
	lostReason string,
) error {
	fromStatus := lead.Status
	now := s.now().UTC()

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		lead.Status = targetStatus
		lead.UpdatedAt = now
		if targetStatus == domain.LeadStatusLost && lostReason != "" {
			lead.LostReason = lostReason
		}
		if err := tx.Save(lead).Error; err != nil {
			return err
		}

		history := &domain.LeadStatusHistory{
			LeadID:         lead.ID,
			FromStatus:     &fromStatus,
			ToStatus:       targetStatus,
			ChangedByID:    changedByID,
			ChangedByName:  changedByName,
			OverrideReason: overrideReason,
			ChangedAt:      now,
		}
		return tx.Create(history).Error
	})
}

// autoTransition runs a cascade transition through the same validation as
// user-driven ones (override path, so the quote gate is re-validated).
// Failures are logged and swallowed: a blocked cascade is not an error.
func (s *LeadWorkflowService) autoTransition(ctx context.Context, lead *domain.Lead, targetStatus domain.LeadStatus, reason string) {
	if err := s.checkTransition(ctx, lead, domain.RoleDirector, targetStatus, true, reason); err != nil {
		s.logger.Debug("auto transition blocked",
			zap.String("lead_id", lead.ID.String()),
			zap.String("to_status", string(targetStatus)),
			zap.Error(err))
		return
	}
	if err := s.ensureCustomer(ctx, lead, targetStatus); err != nil {
		s.logger.Warn("auto transition could not create customer",
			zap.String("lead_id", lead.ID.String()),
			zap.Error(err))
		return
	}
	if err := s.persistTransition(ctx, lead, targetStatus, uuid.Nil, systemActorName, reason, ""); err != nil {
		s.logger.Warn("auto transition failed to persist",
			zap.String("lead_id", lead.ID.String()),
			zap.String("to_status", string(targetStatus)),
			zap.Error(err))
		return
	}
	s.logger.Info("lead auto-transitioned",
		zap.String("lead_id", lead.ID.String()),
		zap.String("to_status", string(targetStatus)),
		zap.String("reason", reason))
}

// onCustomerQuoteEligible promotes the customer's engaged leads to
// qualified and seeds an opportunity on the customer's active quote.
func (s *LeadWorkflowService) onCustomerQuoteEligible(ctx context.Context, event events.Event) error {
	e, ok := event.(events.CustomerQuoteEligible)
	if !ok {
		return nil
	}

	leads, err := s.leadRepo.ListByCustomerAndStatus(ctx, e.CustomerID, domain.LeadStatusEngaged)
	if err != nil {
		return err
	}
	for i := range leads {
		s.autoTransition(ctx, &leads[i], domain.LeadStatusQualified, domain.AutoQualifyReason)
	}

	quote, err := s.quoteRepo.ActiveQuoteForCustomer(ctx, e.CustomerID)
	if err != nil {
		return err
	}
	if quote != nil && quote.OpportunityStage == nil {
		stage := domain.OpportunityDiscovery
		quote.OpportunityStage = &stage
		if err := s.quoteRepo.Update(ctx, quote); err != nil {
			return err
		}
		s.logger.Info("opportunity seeded",
			zap.String("quote_id", quote.ID.String()),
			zap.String("customer_id", e.CustomerID.String()))
	}
	return nil
}

// onQuoteCreated moves the owning qualified lead to quoted.
func (s *LeadWorkflowService) onQuoteCreated(ctx context.Context, event events.Event) error {
	e, ok := event.(events.QuoteCreated)
	if !ok || e.LeadID == nil {
		return nil
	}
	lead, err := s.leadRepo.GetByID(ctx, *e.LeadID)
	if err != nil {
		return err
	}
	if lead.Status == domain.LeadStatusQualified {
		s.autoTransition(ctx, lead, domain.LeadStatusQuoted, "Automatic transition: Quote created")
	}
	return nil
}

// onQuoteDecided closes the owning quoted lead as won or lost.
func (s *LeadWorkflowService) onQuoteDecided(ctx context.Context, event events.Event) error {
	e, ok := event.(events.QuoteDecided)
	if !ok || e.LeadID == nil {
		return nil
	}
	lead, err := s.leadRepo.GetByID(ctx, *e.LeadID)
	if err != nil {
		return err
	}
	if lead.Status != domain.LeadStatusQuoted {
		return nil
	}
	if e.Accepted {
		s.autoTransition(ctx, lead, domain.LeadStatusWon, "Automatic transition: Quote accepted")
	} else {
		s.autoTransition(ctx, lead, domain.LeadStatusLost, "Automatic transition: Quote rejected")
	}
	return nil
}

// CheckQuoteEligibility re-runs the quote-prerequisite check for a customer
// after a profile or activity mutation and publishes the eligibility event
// when it passes. The cascade handlers are idempotent, so publishing on an
// already-eligible customer is harmless.
func (s *LeadWorkflowService) CheckQuoteEligibility(ctx context.Context, customerID uuid.UUID) {
	customer, err := s.customerRepo.GetByID(ctx, customerID)
	if err != nil {
		s.logger.Warn("eligibility check failed to load customer",
			zap.String("customer_id", customerID.String()),
			zap.Error(err))
		return
	}
	if len(customer.MissingQuoteFields()) > 0 {
		return
	}
	hasProof, err := s.customerRepo.HasEngagementProof(ctx, customerID)
	if err != nil {
		s.logger.Warn("eligibility check failed to query activities",
			zap.String("customer_id", customerID.String()),
			zap.Error(err))
		return
	}
	if !hasProof {
		return
	}
	s.bus.Publish(ctx, events.CustomerQuoteEligible{CustomerID: customerID})
}

// SLABadgeFor derives the lead's response-time badge from its activity
// evidence. Read-only.
func (s *LeadWorkflowService) SLABadgeFor(ctx context.Context, lead *domain.Lead) (domain.SLABadge, error) {
	switch lead.Status {
	case domain.LeadStatusNew:
		hasAny, err := s.activityRepo.HasAnyForLead(ctx, lead.ID)
		if err != nil {
			return domain.SLABadgeNone, err
		}
		return domain.ComputeSLABadge(lead, hasAny, false, s.now().UTC()), nil
	case domain.LeadStatusContactAttempted:
		hasProof, err := s.activityRepo.HasEngagementProofForLead(ctx, lead.ID)
		if err != nil {
			return domain.SLABadgeNone, err
		}
		return domain.ComputeSLABadge(lead, true, hasProof, s.now().UTC()), nil
	}
	return domain.SLABadgeNone, nil
}
