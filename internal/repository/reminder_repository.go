package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/hartwood-buildings/crm-api/internal/domain"
	"gorm.io/gorm"
)

type ReminderRepository struct {
	db *gorm.DB
}

func NewReminderRepository(db *gorm.DB) *ReminderRepository {
	return &ReminderRepository{db: db}
}

func (r *ReminderRepository) Create(ctx context.Context, reminder *domain.Reminder) error {
	return r.db.WithContext(ctx).Create(reminder).Error
}

func (r *ReminderRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Reminder, error) {
	var reminder domain.Reminder
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&reminder).Error
	if err != nil {
		return nil, err
	}
	return &reminder, nil
}

func (r *ReminderRepository) Update(ctx context.Context, reminder *domain.Reminder) error {
	return r.db.WithContext(ctx).Save(reminder).Error
}

// FindActiveForLead returns the lead's non-dismissed reminder of the given
// type, or nil. Dismissed rows are never returned so the sweep cannot
// resurrect them.
func (r *ReminderRepository) FindActiveForLead(ctx context.Context, leadID uuid.UUID, reminderType string) (*domain.Reminder, error) {
	var reminder domain.Reminder
	err := r.db.WithContext(ctx).
		Where("lead_id = ? AND reminder_type = ? AND dismissed_at IS NULL", leadID, reminderType).
		First(&reminder).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &reminder, nil
}

// FindActiveForQuote returns the quote's non-dismissed reminder of the given
// type, or nil.
func (r *ReminderRepository) FindActiveForQuote(ctx context.Context, quoteID uuid.UUID, reminderType string) (*domain.Reminder, error) {
	var reminder domain.Reminder
	err := r.db.WithContext(ctx).
		Where("quote_id = ? AND reminder_type = ? AND dismissed_at IS NULL", quoteID, reminderType).
		First(&reminder).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &reminder, nil
}

// ReminderFilter narrows List results.
type ReminderFilter struct {
	AssignedToID *uuid.UUID
	Priority     domain.ReminderPriority
	IncludeDone  bool
}

func (r *ReminderRepository) List(ctx context.Context, page, pageSize int, filter ReminderFilter) ([]domain.Reminder, int64, error) {
	var reminders []domain.Reminder
	var total int64

	query := r.db.WithContext(ctx).Model(&domain.Reminder{})

	if !filter.IncludeDone {
		query = query.Where("dismissed_at IS NULL AND acted_upon_at IS NULL")
	}
	if filter.AssignedToID != nil {
		query = query.Where("assigned_to_id = ?", *filter.AssignedToID)
	}
	if filter.Priority != "" {
		query = query.Where("priority = ?", filter.Priority)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.
		Offset(offset).Limit(pageSize).
		Order("days_stale DESC, created_at DESC").
		Find(&reminders).Error

	return reminders, total, err
}

// Dismiss marks the reminder dismissed. Dismissed reminders are terminal;
// a later staleness detection creates a fresh row.
func (r *ReminderRepository) Dismiss(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).Model(&domain.Reminder{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"dismissed_at": at,
			"updated_at":   at,
		}).Error
}

// MarkActedUpon records that the assignee handled the reminder.
func (r *ReminderRepository) MarkActedUpon(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).Model(&domain.Reminder{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"acted_upon_at": at,
			"updated_at":    at,
		}).Error
}
