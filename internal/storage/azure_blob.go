package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"go.uber.org/zap"
)

// BlobStore keeps quote documents in an Azure Blob Storage container. Paths
// from documentPath map directly onto blob names, so the per-quote grouping
// carries over to the container layout.
type BlobStore struct {
	client    *azblob.Client
	container string
	logger    *zap.Logger
}

func NewBlobStore(connectionString, container string, logger *zap.Logger) (*BlobStore, error) {
	client, err := azblob.NewClientFromConnectionString(connectionString, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create blob client: %w", err)
	}

	// First boot against a fresh storage account creates the container.
	if _, err := client.CreateContainer(context.Background(), container, nil); err != nil &&
		!strings.Contains(err.Error(), "ContainerAlreadyExists") {
		return nil, fmt.Errorf("failed to create document container: %w", err)
	}

	logger.Info("quote document blob store ready", zap.String("container", container))

	return &BlobStore{
		client:    client,
		container: container,
		logger:    logger,
	}, nil
}

func (s *BlobStore) Put(ctx context.Context, quoteNumber, contentType string, data io.Reader) (string, int64, error) {
	storagePath, err := documentPath(quoteNumber, contentType)
	if err != nil {
		return "", 0, err
	}

	// UploadStream does not report the size, so count the bytes ourselves
	// for the document metadata row.
	counted := &countingReader{r: data}
	opts := &azblob.UploadStreamOptions{
		HTTPHeaders: &blob.HTTPHeaders{BlobContentType: &contentType},
	}
	if _, err := s.client.UploadStream(ctx, s.container, storagePath, counted, opts); err != nil {
		return "", 0, fmt.Errorf("failed to upload quote document: %w", err)
	}

	s.logger.Info("quote document uploaded",
		zap.String("quote_number", quoteNumber),
		zap.String("storage_path", storagePath),
		zap.String("content_type", contentType),
		zap.Int64("size", counted.count))

	return storagePath, counted.count, nil
}

type countingReader struct {
	r     io.Reader
	count int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.count += int64(n)
	return n, err
}

func (s *BlobStore) Open(ctx context.Context, storagePath string) (io.ReadCloser, error) {
	resp, err := s.client.DownloadStream(ctx, s.container, storagePath, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to download quote document: %w", err)
	}
	return resp.Body, nil
}

func (s *BlobStore) Remove(ctx context.Context, storagePath string) error {
	if _, err := s.client.DeleteBlob(ctx, s.container, storagePath, nil); err != nil {
		if strings.Contains(err.Error(), "BlobNotFound") {
			return nil
		}
		return fmt.Errorf("failed to remove quote document: %w", err)
	}

	s.logger.Info("quote document removed",
		zap.String("storage_path", storagePath),
		zap.String("container", s.container))

	return nil
}
