package service

import (
	"context"
	"fmt"
	"time"

	"github.com/hartwood-buildings/crm-api/internal/domain"
	"github.com/hartwood-buildings/crm-api/internal/repository"
	"go.uber.org/zap"
)

// NumberSequenceService generates unique, formatted record numbers.
// Customers and quotes each draw from their own per-year counter.
//
// Format: {PREFIX}-{YEAR}-{SEQUENCE}
// Example: HGB-2026-001, HGB-Q-2026-042
type NumberSequenceService struct {
	repo   *repository.NumberSequenceRepository
	logger *zap.Logger
	now    func() time.Time
}

// NewNumberSequenceService creates a new NumberSequenceService
func NewNumberSequenceService(
	repo *repository.NumberSequenceRepository,
	logger *zap.Logger,
	now func() time.Time,
) *NumberSequenceService {
	if now == nil {
		now = time.Now
	}
	return &NumberSequenceService{
		repo:   repo,
		logger: logger,
		now:    now,
	}
}

// GenerateCustomerNumber allocates the next customer number.
// Format: HGB-YYYY-NNN, assigned when a customer record is first created.
func (s *NumberSequenceService) GenerateCustomerNumber(ctx context.Context) (string, error) {
	return s.generateNumber(ctx, domain.CustomerNumberPrefix, "customer")
}

// GenerateQuoteNumber allocates the next quote number.
// Format: HGB-Q-YYYY-NNN, assigned when a quote is created. Revisions keep
// the number and bump the version instead.
func (s *NumberSequenceService) GenerateQuoteNumber(ctx context.Context) (string, error) {
	return s.generateNumber(ctx, domain.QuoteNumberPrefix, "quote")
}

// generateNumber allocates the next number for a prefix. entityType is used
// only for logging.
func (s *NumberSequenceService) generateNumber(ctx context.Context, prefix, entityType string) (string, error) {
	year := s.now().UTC().Year()

	nextSeq, err := s.repo.GetNextNumber(ctx, prefix, year)
	if err != nil {
		s.logger.Error("failed to get next sequence number",
			zap.String("prefix", prefix),
			zap.Int("year", year),
			zap.String("entityType", entityType),
			zap.Error(err))
		return "", fmt.Errorf("failed to generate %s number: %w", entityType, err)
	}

	// Format: PREFIX-YYYY-NNN (zero-padded to 3 digits)
	number := fmt.Sprintf("%s-%d-%03d", prefix, year, nextSeq)

	s.logger.Info("generated number",
		zap.String("number", number),
		zap.Int("sequence", nextSeq),
		zap.String("entityType", entityType))

	return number, nil
}

// GetCurrentSequence returns the current sequence value for a prefix/year
// without incrementing it. Returns 0 if no sequence exists.
func (s *NumberSequenceService) GetCurrentSequence(ctx context.Context, prefix string, year int) (int, error) {
	return s.repo.GetCurrentSequence(ctx, prefix, year)
}

// InitializeSequence sets the sequence to a specific value, used by data
// migrations to account for records numbered by the previous system.
// The value should be the LAST USED sequence number.
func (s *NumberSequenceService) InitializeSequence(ctx context.Context, prefix string, year, value int) error {
	return s.repo.SetSequence(ctx, prefix, year, value)
}
