package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/hartwood-buildings/crm-api/internal/domain"
	"github.com/hartwood-buildings/crm-api/internal/repository"
	"go.uber.org/zap"
)

// LeadService manages lead intake and edits. Status changes go through
// LeadWorkflowService, never through Update.
type LeadService struct {
	leadRepo    *repository.LeadRepository
	historyRepo *repository.LeadStatusHistoryRepository
	logger      *zap.Logger
}

// NewLeadService creates a new LeadService
func NewLeadService(
	leadRepo *repository.LeadRepository,
	historyRepo *repository.LeadStatusHistoryRepository,
	logger *zap.Logger,
) *LeadService {
	return &LeadService{
		leadRepo:    leadRepo,
		historyRepo: historyRepo,
		logger:      logger,
	}
}

// GetLead returns one lead with its assignee and customer loaded.
func (s *LeadService) GetLead(ctx context.Context, id uuid.UUID) (*domain.Lead, error) {
	return s.leadRepo.GetByID(ctx, id)
}

// ListLeads returns a page of leads matching the filter.
func (s *LeadService) ListLeads(ctx context.Context, page, pageSize int, filter repository.LeadFilter) ([]domain.Lead, int64, error) {
	return s.leadRepo.List(ctx, page, pageSize, filter)
}

// CreateLead records a new enquiry. Every lead starts in the new status.
func (s *LeadService) CreateLead(ctx context.Context, req *domain.CreateLeadRequest) (*domain.Lead, error) {
	lead := &domain.Lead{
		ContactName:  req.ContactName,
		ContactEmail: req.ContactEmail,
		ContactPhone: req.ContactPhone,
		Status:       domain.LeadStatusNew,
		LeadType:     req.LeadType,
		LeadSource:   req.LeadSource,
		AssignedToID: req.AssignedToID,
		CustomerID:   req.CustomerID,
		Notes:        req.Notes,
	}
	if lead.LeadType == "" {
		lead.LeadType = domain.LeadTypeOther
	}
	if lead.LeadSource == "" {
		lead.LeadSource = domain.LeadSourceOther
	}

	if err := s.leadRepo.Create(ctx, lead); err != nil {
		return nil, err
	}

	s.logger.Info("lead created",
		zap.String("lead_id", lead.ID.String()),
		zap.String("contact", lead.ContactName),
		zap.String("source", string(lead.LeadSource)))

	return lead, nil
}

// UpdateLead applies a partial update to contact and assignment fields.
func (s *LeadService) UpdateLead(ctx context.Context, id uuid.UUID, req *domain.UpdateLeadRequest) (*domain.Lead, error) {
	lead, err := s.leadRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.ContactName != nil {
		lead.ContactName = *req.ContactName
	}
	if req.ContactEmail != nil {
		lead.ContactEmail = *req.ContactEmail
	}
	if req.ContactPhone != nil {
		lead.ContactPhone = *req.ContactPhone
	}
	if req.LeadType != nil {
		lead.LeadType = *req.LeadType
	}
	if req.LeadSource != nil {
		lead.LeadSource = *req.LeadSource
	}
	if req.AssignedToID != nil {
		lead.AssignedToID = req.AssignedToID
	}
	if req.Notes != nil {
		lead.Notes = *req.Notes
	}

	if err := s.leadRepo.Update(ctx, lead); err != nil {
		return nil, err
	}
	return lead, nil
}

// AttachCustomer links a lead to an existing customer. Once set, the link
// is never changed to a different customer.
func (s *LeadService) AttachCustomer(ctx context.Context, leadID, customerID uuid.UUID) (*domain.Lead, error) {
	lead, err := s.leadRepo.GetByID(ctx, leadID)
	if err != nil {
		return nil, err
	}
	if lead.CustomerID != nil && *lead.CustomerID != customerID {
		return nil, ErrCustomerAlreadySet
	}
	lead.CustomerID = &customerID
	if err := s.leadRepo.Update(ctx, lead); err != nil {
		return nil, err
	}
	return lead, nil
}

// GetStatusHistory returns the lead's transitions, newest first.
func (s *LeadService) GetStatusHistory(ctx context.Context, leadID uuid.UUID) ([]domain.LeadStatusHistory, error) {
	if _, err := s.leadRepo.GetByID(ctx, leadID); err != nil {
		return nil, err
	}
	return s.historyRepo.GetByLeadID(ctx, leadID)
}
