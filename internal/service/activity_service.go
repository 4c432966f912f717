package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/hartwood-buildings/crm-api/internal/auth"
	"github.com/hartwood-buildings/crm-api/internal/domain"
	"github.com/hartwood-buildings/crm-api/internal/events"
	"github.com/hartwood-buildings/crm-api/internal/repository"
	"go.uber.org/zap"
)

// ActivityService records the immutable customer event log. Activities are
// append-only: no update or delete exists, the log is the audit trail.
type ActivityService struct {
	activityRepo *repository.ActivityRepository
	customerRepo *repository.CustomerRepository
	workflow     *LeadWorkflowService
	bus          *events.Bus
	logger       *zap.Logger
}

// NewActivityService creates a new ActivityService
func NewActivityService(
	activityRepo *repository.ActivityRepository,
	customerRepo *repository.CustomerRepository,
	workflow *LeadWorkflowService,
	bus *events.Bus,
	logger *zap.Logger,
) *ActivityService {
	return &ActivityService{
		activityRepo: activityRepo,
		customerRepo: customerRepo,
		workflow:     workflow,
		bus:          bus,
		logger:       logger,
	}
}

// CreateActivity logs a customer-facing event. Engagement-proof types
// re-check quote eligibility so a waiting lead can qualify immediately.
func (s *ActivityService) CreateActivity(ctx context.Context, actor *auth.UserContext, req *domain.CreateActivityRequest) (*domain.Activity, error) {
	if _, err := s.customerRepo.GetByID(ctx, req.CustomerID); err != nil {
		return nil, err
	}

	activity := &domain.Activity{
		CustomerID:   req.CustomerID,
		LeadID:       req.LeadID,
		ActivityType: req.ActivityType,
		Notes:        req.Notes,
		CreatorID:    actor.UserID,
		CreatorName:  actor.DisplayName,
	}
	if req.OccurredAt != nil {
		activity.OccurredAt = *req.OccurredAt
	}

	if err := s.activityRepo.Create(ctx, activity); err != nil {
		return nil, err
	}

	s.logger.Info("activity logged",
		zap.String("activity_id", activity.ID.String()),
		zap.String("customer_id", activity.CustomerID.String()),
		zap.String("type", string(activity.ActivityType)))

	if activity.ActivityType.IsEngagementProof() {
		s.workflow.CheckQuoteEligibility(ctx, activity.CustomerID)
	}

	return activity, nil
}

// ListByCustomer returns the customer's activities, newest first.
func (s *ActivityService) ListByCustomer(ctx context.Context, customerID uuid.UUID, limit int) ([]domain.Activity, error) {
	return s.activityRepo.ListByCustomer(ctx, customerID, limit)
}

// ListByLead returns the lead's activities, newest first.
func (s *ActivityService) ListByLead(ctx context.Context, leadID uuid.UUID, limit int) ([]domain.Activity, error) {
	return s.activityRepo.ListByLead(ctx, leadID, limit)
}

// RecordWebsiteVisit handles the website pixel for a known customer. It
// only publishes the event; the temperature trigger is subscribed to it.
func (s *ActivityService) RecordWebsiteVisit(ctx context.Context, customerID uuid.UUID) error {
	if _, err := s.customerRepo.GetByID(ctx, customerID); err != nil {
		return err
	}
	s.bus.Publish(ctx, events.WebsiteVisit{CustomerID: customerID})
	return nil
}
