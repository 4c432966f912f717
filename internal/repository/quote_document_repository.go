package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/hartwood-buildings/crm-api/internal/domain"
	"gorm.io/gorm"
)

type QuoteDocumentRepository struct {
	db *gorm.DB
}

func NewQuoteDocumentRepository(db *gorm.DB) *QuoteDocumentRepository {
	return &QuoteDocumentRepository{db: db}
}

func (r *QuoteDocumentRepository) Create(ctx context.Context, doc *domain.QuoteDocument) error {
	return r.db.WithContext(ctx).Create(doc).Error
}

func (r *QuoteDocumentRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.QuoteDocument, error) {
	var doc domain.QuoteDocument
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&doc).Error
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *QuoteDocumentRepository) ListByQuote(ctx context.Context, quoteID uuid.UUID) ([]domain.QuoteDocument, error) {
	var docs []domain.QuoteDocument
	err := r.db.WithContext(ctx).
		Where("quote_id = ?", quoteID).
		Order("created_at DESC").
		Find(&docs).Error
	return docs, err
}

func (r *QuoteDocumentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&domain.QuoteDocument{}, "id = ?", id).Error
}
