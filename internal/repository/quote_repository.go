package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/hartwood-buildings/crm-api/internal/domain"
	"gorm.io/gorm"
)

type QuoteRepository struct {
	db *gorm.DB
}

func NewQuoteRepository(db *gorm.DB) *QuoteRepository {
	return &QuoteRepository{db: db}
}

func (r *QuoteRepository) Create(ctx context.Context, quote *domain.Quote) error {
	return r.db.WithContext(ctx).Create(quote).Error
}

func (r *QuoteRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Quote, error) {
	var quote domain.Quote
	err := r.db.WithContext(ctx).
		Preload("Customer").
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("display_order ASC, created_at ASC")
		}).
		Preload("Discounts").
		Preload("Emails").
		Where("id = ?", id).
		First(&quote).Error
	if err != nil {
		return nil, err
	}
	return &quote, nil
}

// GetByNumber returns the latest version carrying the quote number.
func (r *QuoteRepository) GetByNumber(ctx context.Context, quoteNumber string) (*domain.Quote, error) {
	var quote domain.Quote
	err := r.db.WithContext(ctx).
		Preload("Customer").
		Preload("Items").
		Where("quote_number = ?", quoteNumber).
		Order("version DESC").
		First(&quote).Error
	if err != nil {
		return nil, err
	}
	return &quote, nil
}

func (r *QuoteRepository) Update(ctx context.Context, quote *domain.Quote) error {
	return r.db.WithContext(ctx).Save(quote).Error
}

// QuoteFilter narrows List results. Zero values mean "no filter".
type QuoteFilter struct {
	CustomerID  *uuid.UUID
	Status      domain.QuoteStatus
	Temperature domain.QuoteTemperature
}

func (r *QuoteRepository) List(ctx context.Context, page, pageSize int, filter QuoteFilter) ([]domain.Quote, int64, error) {
	var quotes []domain.Quote
	var total int64

	query := r.db.WithContext(ctx).Model(&domain.Quote{})

	if filter.CustomerID != nil {
		query = query.Where("customer_id = ?", *filter.CustomerID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Temperature != "" {
		query = query.Where("temperature = ?", filter.Temperature)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.
		Preload("Customer").
		Offset(offset).Limit(pageSize).
		Order("created_at DESC").
		Find(&quotes).Error

	return quotes, total, err
}

// ListByStatuses returns quotes in any of the given statuses. Used by the
// reminder sweep.
func (r *QuoteRepository) ListByStatuses(ctx context.Context, statuses []domain.QuoteStatus) ([]domain.Quote, error) {
	var quotes []domain.Quote
	err := r.db.WithContext(ctx).
		Preload("Emails").
		Where("status IN ?", statuses).
		Find(&quotes).Error
	return quotes, err
}

// ListOpenOpportunities returns quotes carrying an opportunity stage that is
// neither won nor lost.
func (r *QuoteRepository) ListOpenOpportunities(ctx context.Context) ([]domain.Quote, error) {
	var quotes []domain.Quote
	err := r.db.WithContext(ctx).
		Preload("Customer").
		Where("opportunity_stage IS NOT NULL").
		Where("opportunity_stage NOT IN ?", []domain.OpportunityStage{domain.OpportunityWon, domain.OpportunityLost}).
		Find(&quotes).Error
	return quotes, err
}

// ListExpired returns sent or viewed quotes whose validity date has passed.
func (r *QuoteRepository) ListExpired(ctx context.Context, now time.Time) ([]domain.Quote, error) {
	var quotes []domain.Quote
	err := r.db.WithContext(ctx).
		Where("status IN ?", []domain.QuoteStatus{domain.QuoteStatusSent, domain.QuoteStatusViewed}).
		Where("valid_until IS NOT NULL AND valid_until < ?", now).
		Find(&quotes).Error
	return quotes, err
}

// ActiveQuoteForCustomer returns the customer's most recent non-terminal
// quote, or nil when none exists. Used when seeding an opportunity.
func (r *QuoteRepository) ActiveQuoteForCustomer(ctx context.Context, customerID uuid.UUID) (*domain.Quote, error) {
	var quote domain.Quote
	err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Where("status IN ?", []domain.QuoteStatus{domain.QuoteStatusDraft, domain.QuoteStatusSent, domain.QuoteStatusViewed}).
		Order("created_at DESC").
		First(&quote).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &quote, nil
}

// ListSentByCustomer returns the customer's quotes in SENT status. Used by
// the website-pixel warm trigger.
func (r *QuoteRepository) ListSentByCustomer(ctx context.Context, customerID uuid.UUID) ([]domain.Quote, error) {
	var quotes []domain.Quote
	err := r.db.WithContext(ctx).
		Where("customer_id = ? AND status = ?", customerID, domain.QuoteStatusSent).
		Find(&quotes).Error
	return quotes, err
}

// MaxVersionForNumber returns the highest version recorded for a quote
// number, 0 when none exists. Used when cloning a revision.
func (r *QuoteRepository) MaxVersionForNumber(ctx context.Context, quoteNumber string) (int, error) {
	var maxVersion int
	err := r.db.WithContext(ctx).Model(&domain.Quote{}).
		Where("quote_number = ?", quoteNumber).
		Select("COALESCE(MAX(version), 0)").
		Scan(&maxVersion).Error
	return maxVersion, err
}

// Transaction runs fn inside a database transaction, handing it a
// repository bound to the transaction.
func (r *QuoteRepository) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}
