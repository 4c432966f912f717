package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/hartwood-buildings/crm-api/internal/domain"
	"gorm.io/gorm"
)

type DiscountTemplateRepository struct {
	db *gorm.DB
}

func NewDiscountTemplateRepository(db *gorm.DB) *DiscountTemplateRepository {
	return &DiscountTemplateRepository{db: db}
}

func (r *DiscountTemplateRepository) Create(ctx context.Context, template *domain.DiscountTemplate) error {
	return r.db.WithContext(ctx).Create(template).Error
}

func (r *DiscountTemplateRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.DiscountTemplate, error) {
	var template domain.DiscountTemplate
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&template).Error
	if err != nil {
		return nil, err
	}
	return &template, nil
}

// GetActiveByID returns the template only when it exists and is active.
func (r *DiscountTemplateRepository) GetActiveByID(ctx context.Context, id uuid.UUID) (*domain.DiscountTemplate, error) {
	var template domain.DiscountTemplate
	err := r.db.WithContext(ctx).
		Where("id = ? AND is_active = ?", id, true).
		First(&template).Error
	if err != nil {
		return nil, err
	}
	return &template, nil
}

func (r *DiscountTemplateRepository) Update(ctx context.Context, template *domain.DiscountTemplate) error {
	return r.db.WithContext(ctx).Save(template).Error
}

func (r *DiscountTemplateRepository) List(ctx context.Context, activeOnly bool) ([]domain.DiscountTemplate, error) {
	var templates []domain.DiscountTemplate
	query := r.db.WithContext(ctx).Order("name ASC")
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	err := query.Find(&templates).Error
	return templates, err
}
