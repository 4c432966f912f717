package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/hartwood-buildings/crm-api/internal/domain"
	"gorm.io/gorm"
)

type LeadStatusHistoryRepository struct {
	db *gorm.DB
}

func NewLeadStatusHistoryRepository(db *gorm.DB) *LeadStatusHistoryRepository {
	return &LeadStatusHistoryRepository{db: db}
}

// Create records a new status transition
func (r *LeadStatusHistoryRepository) Create(ctx context.Context, history *domain.LeadStatusHistory) error {
	return r.db.WithContext(ctx).Create(history).Error
}

// GetByLeadID returns all status history for a lead, newest first
func (r *LeadStatusHistoryRepository) GetByLeadID(ctx context.Context, leadID uuid.UUID) ([]domain.LeadStatusHistory, error) {
	var history []domain.LeadStatusHistory
	err := r.db.WithContext(ctx).
		Where("lead_id = ?", leadID).
		Order("changed_at DESC").
		Find(&history).Error
	return history, err
}

// GetLatestByLeadID returns the most recent status change for a lead
func (r *LeadStatusHistoryRepository) GetLatestByLeadID(ctx context.Context, leadID uuid.UUID) (*domain.LeadStatusHistory, error) {
	var history domain.LeadStatusHistory
	err := r.db.WithContext(ctx).
		Where("lead_id = ?", leadID).
		Order("changed_at DESC").
		First(&history).Error
	if err != nil {
		return nil, err
	}
	return &history, nil
}

// GetTransitionsToStatus returns all transitions into a status within a date
// range. Backs the pipeline conversion report.
func (r *LeadStatusHistoryRepository) GetTransitionsToStatus(ctx context.Context, status domain.LeadStatus, from, to time.Time) ([]domain.LeadStatusHistory, error) {
	var history []domain.LeadStatusHistory
	err := r.db.WithContext(ctx).
		Preload("Lead").
		Where("to_status = ?", status).
		Where("changed_at >= ? AND changed_at <= ?", from, to).
		Order("changed_at DESC").
		Find(&history).Error
	return history, err
}

// CountTransitionsByStatus returns the count of transitions into each status
// within a date range
func (r *LeadStatusHistoryRepository) CountTransitionsByStatus(ctx context.Context, from, to time.Time) (map[domain.LeadStatus]int64, error) {
	type result struct {
		ToStatus domain.LeadStatus
		Count    int64
	}
	var results []result

	err := r.db.WithContext(ctx).Model(&domain.LeadStatusHistory{}).
		Select("to_status, COUNT(*) as count").
		Where("changed_at >= ? AND changed_at <= ?", from, to).
		Group("to_status").
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[domain.LeadStatus]int64)
	for _, r := range results {
		counts[r.ToStatus] = r.Count
	}
	return counts, nil
}

// RecordTransition is a convenience method to create a status history record
func (r *LeadStatusHistoryRepository) RecordTransition(
	ctx context.Context,
	leadID uuid.UUID,
	fromStatus *domain.LeadStatus,
	toStatus domain.LeadStatus,
	changedByID uuid.UUID,
	changedByName string,
	overrideReason string,
	changedAt time.Time,
) error {
	history := &domain.LeadStatusHistory{
		LeadID:         leadID,
		FromStatus:     fromStatus,
		ToStatus:       toStatus,
		ChangedByID:    changedByID,
		ChangedByName:  changedByName,
		OverrideReason: overrideReason,
		ChangedAt:      changedAt,
	}
	return r.Create(ctx, history)
}
