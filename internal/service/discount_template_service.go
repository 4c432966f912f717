package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/hartwood-buildings/crm-api/internal/domain"
	"github.com/hartwood-buildings/crm-api/internal/repository"
	"go.uber.org/zap"
)

// DiscountTemplateService manages the reusable discount catalogue.
// Templates are deactivated rather than deleted so historical quote
// discounts keep their reference.
type DiscountTemplateService struct {
	templateRepo *repository.DiscountTemplateRepository
	logger       *zap.Logger
}

// NewDiscountTemplateService creates a new DiscountTemplateService
func NewDiscountTemplateService(
	templateRepo *repository.DiscountTemplateRepository,
	logger *zap.Logger,
) *DiscountTemplateService {
	return &DiscountTemplateService{
		templateRepo: templateRepo,
		logger:       logger,
	}
}

// GetTemplate returns one template by id, active or not.
func (s *DiscountTemplateService) GetTemplate(ctx context.Context, id uuid.UUID) (*domain.DiscountTemplate, error) {
	return s.templateRepo.GetByID(ctx, id)
}

// ListTemplates returns templates, optionally only active ones.
func (s *DiscountTemplateService) ListTemplates(ctx context.Context, activeOnly bool) ([]domain.DiscountTemplate, error) {
	return s.templateRepo.List(ctx, activeOnly)
}

// CreateTemplate adds a template to the catalogue.
func (s *DiscountTemplateService) CreateTemplate(ctx context.Context, req *domain.CreateDiscountTemplateRequest) (*domain.DiscountTemplate, error) {
	template := &domain.DiscountTemplate{
		Name:       req.Name,
		Type:       req.Type,
		Scope:      req.Scope,
		Value:      req.Value,
		IsGiveaway: req.IsGiveaway,
		IsActive:   true,
	}
	if err := s.templateRepo.Create(ctx, template); err != nil {
		return nil, err
	}

	s.logger.Info("discount template created",
		zap.String("template_id", template.ID.String()),
		zap.String("name", template.Name))

	return template, nil
}

// UpdateTemplate edits name, value or active flag. Type and scope are
// immutable once created; make a new template instead.
func (s *DiscountTemplateService) UpdateTemplate(ctx context.Context, id uuid.UUID, req *domain.UpdateDiscountTemplateRequest) (*domain.DiscountTemplate, error) {
	template, err := s.templateRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		template.Name = *req.Name
	}
	if req.Value != nil {
		template.Value = *req.Value
	}
	if req.IsActive != nil {
		template.IsActive = *req.IsActive
	}

	if err := s.templateRepo.Update(ctx, template); err != nil {
		return nil, err
	}
	return template, nil
}
