package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/hartwood-buildings/crm-api/internal/domain"
	"gorm.io/gorm"
)

type LeadRepository struct {
	db *gorm.DB
}

func NewLeadRepository(db *gorm.DB) *LeadRepository {
	return &LeadRepository{db: db}
}

func (r *LeadRepository) Create(ctx context.Context, lead *domain.Lead) error {
	return r.db.WithContext(ctx).Create(lead).Error
}

func (r *LeadRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Lead, error) {
	var lead domain.Lead
	err := r.db.WithContext(ctx).
		Preload("AssignedTo").
		Preload("Customer").
		Where("id = ?", id).
		First(&lead).Error
	if err != nil {
		return nil, err
	}
	return &lead, nil
}

func (r *LeadRepository) Update(ctx context.Context, lead *domain.Lead) error {
	return r.db.WithContext(ctx).Save(lead).Error
}

// LeadFilter narrows List results. Zero values mean "no filter".
type LeadFilter struct {
	Status       domain.LeadStatus
	AssignedToID *uuid.UUID
	Search       string
}

func (r *LeadRepository) List(ctx context.Context, page, pageSize int, filter LeadFilter) ([]domain.Lead, int64, error) {
	var leads []domain.Lead
	var total int64

	query := r.db.WithContext(ctx).Model(&domain.Lead{})

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.AssignedToID != nil {
		query = query.Where("assigned_to_id = ?", *filter.AssignedToID)
	}
	if filter.Search != "" {
		searchPattern := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where(
			"LOWER(contact_name) LIKE ? OR LOWER(contact_email) LIKE ? OR LOWER(contact_phone) LIKE ?",
			searchPattern, searchPattern, searchPattern,
		)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.
		Preload("AssignedTo").
		Preload("Customer").
		Offset(offset).Limit(pageSize).
		Order("created_at DESC").
		Find(&leads).Error

	return leads, total, err
}

// ListByCustomerAndStatus returns the customer's leads sitting in the given
// status. Used by the quote-eligibility cascade.
func (r *LeadRepository) ListByCustomerAndStatus(ctx context.Context, customerID uuid.UUID, status domain.LeadStatus) ([]domain.Lead, error) {
	var leads []domain.Lead
	err := r.db.WithContext(ctx).
		Where("customer_id = ? AND status = ?", customerID, status).
		Find(&leads).Error
	return leads, err
}

// ListByStatuses returns all leads in any of the given statuses. Used by
// the reminder sweep.
func (r *LeadRepository) ListByStatuses(ctx context.Context, statuses []domain.LeadStatus) ([]domain.Lead, error) {
	var leads []domain.Lead
	err := r.db.WithContext(ctx).
		Where("status IN ?", statuses).
		Find(&leads).Error
	return leads, err
}

// CountActivities returns the number of activities linked to the lead.
func (r *LeadRepository) CountActivities(ctx context.Context, leadID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Activity{}).
		Where("lead_id = ?", leadID).
		Count(&count).Error
	return count, err
}
