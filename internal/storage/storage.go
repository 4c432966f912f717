// Package storage persists rendered quote artifacts (PDFs, drawings, site
// photos) outside the database. The quote_documents row keeps the path
// returned by Put; the store lays documents out per quote number so every
// artifact for one quote sits under a single prefix.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/hartwood-buildings/crm-api/internal/config"
	"go.uber.org/zap"
)

// ErrUnsupportedContentType rejects uploads outside the quote-document
// allow-list.
var ErrUnsupportedContentType = errors.New("unsupported document content type")

// documentExtensions is the allow-list of content types a quote document may
// carry, mapped to the extension used in the stored path.
var documentExtensions = map[string]string{
	"application/pdf": ".pdf",
	"image/png":       ".png",
	"image/jpeg":      ".jpg",
}

// DocumentStore persists quote artifacts under opaque per-quote paths.
type DocumentStore interface {
	// Put stores one document for the given quote and returns its storage
	// path and size in bytes.
	Put(ctx context.Context, quoteNumber, contentType string, data io.Reader) (string, int64, error)
	// Open streams a previously stored document.
	Open(ctx context.Context, storagePath string) (io.ReadCloser, error)
	// Remove deletes a stored document. A missing document is not an error.
	Remove(ctx context.Context, storagePath string) error
}

// New selects the backend from configuration: "local" keeps documents on
// disk (development), "azure" stores them in Blob Storage.
func New(cfg *config.StorageConfig, logger *zap.Logger) (DocumentStore, error) {
	switch cfg.Mode {
	case "local":
		return NewFileStore(cfg.LocalBasePath, logger)
	case "cloud", "azure":
		if cfg.CloudConnectionString == "" {
			return nil, fmt.Errorf("storage mode %q needs a connection string", cfg.Mode)
		}
		return NewBlobStore(cfg.CloudConnectionString, cfg.CloudContainer, logger)
	default:
		return nil, fmt.Errorf("unknown storage mode %q", cfg.Mode)
	}
}

// documentPath builds the stored key, e.g.
// quotes/HGB-Q-2026-001/9f2c....pdf. The extension comes from the content
// type, never from the user-supplied filename.
func documentPath(quoteNumber, contentType string) (string, error) {
	ext, ok := documentExtensions[contentType]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedContentType, contentType)
	}
	return path.Join("quotes", quoteNumber, uuid.New().String()+ext), nil
}

// FileStore keeps quote documents on the local filesystem. Used in
// development and in the tests.
type FileStore struct {
	root   string
	logger *zap.Logger
}

func NewFileStore(root string, logger *zap.Logger) (*FileStore, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create document root: %w", err)
	}
	return &FileStore{root: root, logger: logger}, nil
}

func (s *FileStore) Put(ctx context.Context, quoteNumber, contentType string, data io.Reader) (string, int64, error) {
	storagePath, err := documentPath(quoteNumber, contentType)
	if err != nil {
		return "", 0, err
	}

	fullPath := filepath.Join(s.root, filepath.FromSlash(storagePath))
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return "", 0, fmt.Errorf("failed to create quote document directory: %w", err)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return "", 0, fmt.Errorf("failed to create document file: %w", err)
	}
	defer file.Close()

	size, err := io.Copy(file, data)
	if err != nil {
		os.Remove(fullPath)
		return "", 0, fmt.Errorf("failed to write document: %w", err)
	}

	s.logger.Debug("quote document stored",
		zap.String("quote_number", quoteNumber),
		zap.String("storage_path", storagePath),
		zap.Int64("size", size))

	return storagePath, size, nil
}

func (s *FileStore) Open(ctx context.Context, storagePath string) (io.ReadCloser, error) {
	file, err := os.Open(filepath.Join(s.root, filepath.FromSlash(storagePath)))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("document not found: %s", storagePath)
		}
		return nil, fmt.Errorf("failed to open document: %w", err)
	}
	return file, nil
}

func (s *FileStore) Remove(ctx context.Context, storagePath string) error {
	err := os.Remove(filepath.Join(s.root, filepath.FromSlash(storagePath)))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove document: %w", err)
	}
	return nil
}
