package service

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/hartwood-buildings/crm-api/internal/domain"
	"github.com/hartwood-buildings/crm-api/internal/repository"
	"github.com/hartwood-buildings/crm-api/internal/storage"
	"go.uber.org/zap"
)

// QuoteDocumentService stores rendered quote artifacts (PDFs, site plans)
// in the configured storage backend with metadata in the database.
type QuoteDocumentService struct {
	documentRepo *repository.QuoteDocumentRepository
	quoteRepo    *repository.QuoteRepository
	store        storage.DocumentStore
	logger       *zap.Logger
}

func NewQuoteDocumentService(
	documentRepo *repository.QuoteDocumentRepository,
	quoteRepo *repository.QuoteRepository,
	store storage.DocumentStore,
	logger *zap.Logger,
) *QuoteDocumentService {
	return &QuoteDocumentService{
		documentRepo: documentRepo,
		quoteRepo:    quoteRepo,
		store:        store,
		logger:       logger,
	}
}

// Upload stores a document and attaches it to a quote. The store rejects
// content types outside the quote-document allow-list.
func (s *QuoteDocumentService) Upload(ctx context.Context, quoteID uuid.UUID, filename, contentType string, data io.Reader) (*domain.QuoteDocument, error) {
	quote, err := s.quoteRepo.GetByID(ctx, quoteID)
	if err != nil {
		return nil, err
	}

	storagePath, size, err := s.store.Put(ctx, quote.QuoteNumber, contentType, data)
	if err != nil {
		if errors.Is(err, storage.ErrUnsupportedContentType) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to upload document: %w", err)
	}

	doc := &domain.QuoteDocument{
		QuoteID:     quoteID,
		Filename:    filename,
		ContentType: contentType,
		Size:        size,
		StoragePath: storagePath,
	}

	if err := s.documentRepo.Create(ctx, doc); err != nil {
		// Best effort cleanup so the blob does not leak
		if delErr := s.store.Remove(ctx, storagePath); delErr != nil {
			s.logger.Warn("failed to clean up document from storage after DB error",
				zap.Error(delErr),
				zap.String("storage_path", storagePath),
			)
		}
		return nil, fmt.Errorf("failed to create document record: %w", err)
	}

	return doc, nil
}

// ListByQuote returns document metadata for a quote, newest first.
func (s *QuoteDocumentService) ListByQuote(ctx context.Context, quoteID uuid.UUID) ([]domain.QuoteDocument, error) {
	if _, err := s.quoteRepo.GetByID(ctx, quoteID); err != nil {
		return nil, err
	}
	return s.documentRepo.ListByQuote(ctx, quoteID)
}

// Download returns the document content along with its filename and content type.
func (s *QuoteDocumentService) Download(ctx context.Context, id uuid.UUID) (io.ReadCloser, string, string, error) {
	doc, err := s.documentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, "", "", err
	}

	reader, err := s.store.Open(ctx, doc.StoragePath)
	if err != nil {
		return nil, "", "", fmt.Errorf("failed to download document: %w", err)
	}

	return reader, doc.Filename, doc.ContentType, nil
}

// Delete removes a document from storage and the database.
func (s *QuoteDocumentService) Delete(ctx context.Context, id uuid.UUID) error {
	doc, err := s.documentRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.store.Remove(ctx, doc.StoragePath); err != nil {
		s.logger.Warn("failed to delete document from storage",
			zap.Error(err),
			zap.String("storage_path", doc.StoragePath),
			zap.String("document_id", id.String()),
		)
	}

	return s.documentRepo.Delete(ctx, id)
}
