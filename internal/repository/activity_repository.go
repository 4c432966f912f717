package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/hartwood-buildings/crm-api/internal/domain"
	"gorm.io/gorm"
)

type ActivityRepository struct {
	db *gorm.DB
}

func NewActivityRepository(db *gorm.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

func (r *ActivityRepository) Create(ctx context.Context, activity *domain.Activity) error {
	return r.db.WithContext(ctx).Create(activity).Error
}

func (r *ActivityRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Activity, error) {
	var activity domain.Activity
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&activity).Error
	if err != nil {
		return nil, err
	}
	return &activity, nil
}

func (r *ActivityRepository) ListByCustomer(ctx context.Context, customerID uuid.UUID, limit int) ([]domain.Activity, error) {
	var activities []domain.Activity
	query := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("occurred_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&activities).Error
	return activities, err
}

func (r *ActivityRepository) ListByLead(ctx context.Context, leadID uuid.UUID, limit int) ([]domain.Activity, error) {
	var activities []domain.Activity
	query := r.db.WithContext(ctx).
		Where("lead_id = ?", leadID).
		Order("occurred_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&activities).Error
	return activities, err
}

// LatestForLead returns the time of the lead's most recent activity, or nil
// when the lead has none. Used by the staleness sweep.
func (r *ActivityRepository) LatestForLead(ctx context.Context, leadID uuid.UUID) (*time.Time, error) {
	var activity domain.Activity
	err := r.db.WithContext(ctx).
		Where("lead_id = ?", leadID).
		Order("occurred_at DESC").
		First(&activity).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &activity.OccurredAt, nil
}

// LatestForCustomer returns the time of the customer's most recent activity,
// or nil when there is none.
func (r *ActivityRepository) LatestForCustomer(ctx context.Context, customerID uuid.UUID) (*time.Time, error) {
	var activity domain.Activity
	err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("occurred_at DESC").
		First(&activity).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &activity.OccurredAt, nil
}

// HasAnyForLead reports whether the lead has at least one activity.
func (r *ActivityRepository) HasAnyForLead(ctx context.Context, leadID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Activity{}).
		Where("lead_id = ?", leadID).
		Count(&count).Error
	return count > 0, err
}

// HasEngagementProofForLead reports whether the lead has an activity whose
// type counts as engagement proof.
func (r *ActivityRepository) HasEngagementProofForLead(ctx context.Context, leadID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Activity{}).
		Where("lead_id = ? AND activity_type IN ?", leadID, engagementProofTypes()).
		Count(&count).Error
	return count > 0, err
}
