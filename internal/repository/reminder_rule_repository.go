package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/hartwood-buildings/crm-api/internal/domain"
	"gorm.io/gorm"
)

type ReminderRuleRepository struct {
	db *gorm.DB
}

func NewReminderRuleRepository(db *gorm.DB) *ReminderRuleRepository {
	return &ReminderRuleRepository{db: db}
}

func (r *ReminderRuleRepository) Create(ctx context.Context, rule *domain.ReminderRule) error {
	return r.db.WithContext(ctx).Create(rule).Error
}

func (r *ReminderRuleRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.ReminderRule, error) {
	var rule domain.ReminderRule
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&rule).Error
	if err != nil {
		return nil, err
	}
	return &rule, nil
}

func (r *ReminderRuleRepository) Update(ctx context.Context, rule *domain.ReminderRule) error {
	return r.db.WithContext(ctx).Save(rule).Error
}

func (r *ReminderRuleRepository) List(ctx context.Context) ([]domain.ReminderRule, error) {
	var rules []domain.ReminderRule
	err := r.db.WithContext(ctx).Order("entity_type ASC, name ASC").Find(&rules).Error
	return rules, err
}

// ListActiveByEntityType returns active rules scanning the given entity type.
func (r *ReminderRuleRepository) ListActiveByEntityType(ctx context.Context, entityType domain.ReminderEntityType) ([]domain.ReminderRule, error) {
	var rules []domain.ReminderRule
	err := r.db.WithContext(ctx).
		Where("entity_type = ? AND is_active = ?", entityType, true).
		Order("name ASC").
		Find(&rules).Error
	return rules, err
}
