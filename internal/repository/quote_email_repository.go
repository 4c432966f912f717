package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/hartwood-buildings/crm-api/internal/domain"
	"gorm.io/gorm"
)

type QuoteEmailRepository struct {
	db *gorm.DB
}

func NewQuoteEmailRepository(db *gorm.DB) *QuoteEmailRepository {
	return &QuoteEmailRepository{db: db}
}

func (r *QuoteEmailRepository) Create(ctx context.Context, email *domain.QuoteEmail) error {
	return r.db.WithContext(ctx).Create(email).Error
}

func (r *QuoteEmailRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.QuoteEmail, error) {
	var email domain.QuoteEmail
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&email).Error
	if err != nil {
		return nil, err
	}
	return &email, nil
}

func (r *QuoteEmailRepository) Update(ctx context.Context, email *domain.QuoteEmail) error {
	return r.db.WithContext(ctx).Save(email).Error
}

func (r *QuoteEmailRepository) ListByQuote(ctx context.Context, quoteID uuid.UUID) ([]domain.QuoteEmail, error) {
	var emails []domain.QuoteEmail
	err := r.db.WithContext(ctx).
		Where("quote_id = ?", quoteID).
		Order("created_at ASC").
		Find(&emails).Error
	return emails, err
}

// TotalOpens sums the open counts across all sends for the quote.
func (r *QuoteEmailRepository) TotalOpens(ctx context.Context, quoteID uuid.UUID) (int, error) {
	var total int
	err := r.db.WithContext(ctx).Model(&domain.QuoteEmail{}).
		Where("quote_id = ?", quoteID).
		Select("COALESCE(SUM(open_count), 0)").
		Scan(&total).Error
	return total, err
}

// AnyOpened reports whether any send for the quote has been opened.
func (r *QuoteEmailRepository) AnyOpened(ctx context.Context, quoteID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.QuoteEmail{}).
		Where("quote_id = ? AND opened_at IS NOT NULL", quoteID).
		Count(&count).Error
	return count > 0, err
}
