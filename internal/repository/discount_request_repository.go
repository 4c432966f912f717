package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/hartwood-buildings/crm-api/internal/domain"
	"gorm.io/gorm"
)

type DiscountRequestRepository struct {
	db *gorm.DB
}

func NewDiscountRequestRepository(db *gorm.DB) *DiscountRequestRepository {
	return &DiscountRequestRepository{db: db}
}

func (r *DiscountRequestRepository) Create(ctx context.Context, request *domain.DiscountRequest) error {
	return r.db.WithContext(ctx).Create(request).Error
}

func (r *DiscountRequestRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.DiscountRequest, error) {
	var request domain.DiscountRequest
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&request).Error
	if err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *DiscountRequestRepository) Update(ctx context.Context, request *domain.DiscountRequest) error {
	return r.db.WithContext(ctx).Save(request).Error
}

// GetPendingForQuote returns the quote's pending request, or nil when there
// is none. At most one pending request may exist per quote.
func (r *DiscountRequestRepository) GetPendingForQuote(ctx context.Context, quoteID uuid.UUID) (*domain.DiscountRequest, error) {
	var request domain.DiscountRequest
	err := r.db.WithContext(ctx).
		Where("quote_id = ? AND status = ?", quoteID, domain.DiscountRequestPending).
		First(&request).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *DiscountRequestRepository) ListByStatus(ctx context.Context, status domain.DiscountRequestStatus) ([]domain.DiscountRequest, error) {
	var requests []domain.DiscountRequest
	err := r.db.WithContext(ctx).
		Where("status = ?", status).
		Order("created_at ASC").
		Find(&requests).Error
	return requests, err
}
