package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/hartwood-buildings/crm-api/internal/domain"
	"github.com/hartwood-buildings/crm-api/internal/mapper"
	"github.com/hartwood-buildings/crm-api/internal/service"
	"github.com/hartwood-buildings/crm-api/internal/storage"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type QuoteDocumentHandler struct {
	documentService *service.QuoteDocumentService
	maxUploadMB     int64
	logger          *zap.Logger
}

func NewQuoteDocumentHandler(documentService *service.QuoteDocumentService, maxUploadMB int64, logger *zap.Logger) *QuoteDocumentHandler {
	return &QuoteDocumentHandler{
		documentService: documentService,
		maxUploadMB:     maxUploadMB,
		logger:          logger,
	}
}

// Upload godoc
// @Summary Upload quote document
// @Description Attach a rendered artifact (PDF, site plan) to a quote
// @Tags Documents
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Quote ID" format(uuid)
// @Param file formData file true "Document to upload"
// @Success 201 {object} domain.QuoteDocumentDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Failure 413 {object} domain.ErrorResponse
// @Failure 415 {object} domain.ErrorResponse "Content type outside the PDF/PNG/JPEG allow-list"
// @Security BearerAuth
// @Router /quotes/{id}/documents [post]
func (h *QuoteDocumentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	quoteID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid quote ID format",
		})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadMB*1024*1024)
	if err := r.ParseMultipartForm(h.maxUploadMB * 1024 * 1024); err != nil {
		respondJSON(w, http.StatusRequestEntityTooLarge, domain.ErrorResponse{
			Error:   "Request Entity Too Large",
			Message: fmt.Sprintf("File too large: maximum size is %dMB", h.maxUploadMB),
		})
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid file upload: file field is required",
		})
		return
	}
	defer file.Close()

	doc, err := h.documentService.Upload(r.Context(), quoteID, header.Filename, header.Header.Get("Content-Type"), file)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondJSON(w, http.StatusNotFound, domain.ErrorResponse{
				Error:   "Not Found",
				Message: "Quote not found",
			})
			return
		}
		if errors.Is(err, storage.ErrUnsupportedContentType) {
			respondJSON(w, http.StatusUnsupportedMediaType, domain.ErrorResponse{
				Error:   "Unsupported Media Type",
				Message: "Quote documents must be PDF, PNG or JPEG",
			})
			return
		}
		h.logger.Error("failed to upload quote document", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to upload document",
		})
		return
	}

	respondJSON(w, http.StatusCreated, mapper.ToQuoteDocumentDTO(doc))
}

// List godoc
// @Summary List quote documents
// @Description Get metadata for documents attached to a quote
// @Tags Documents
// @Accept json
// @Produce json
// @Param id path string true "Quote ID" format(uuid)
// @Success 200 {array} domain.QuoteDocumentDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /quotes/{id}/documents [get]
func (h *QuoteDocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	quoteID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid quote ID format",
		})
		return
	}

	docs, err := h.documentService.ListByQuote(r.Context(), quoteID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondJSON(w, http.StatusNotFound, domain.ErrorResponse{
				Error:   "Not Found",
				Message: "Quote not found",
			})
			return
		}
		h.logger.Error("failed to list quote documents", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to list documents",
		})
		return
	}

	dtos := make([]domain.QuoteDocumentDTO, 0, len(docs))
	for i := range docs {
		dtos = append(dtos, mapper.ToQuoteDocumentDTO(&docs[i]))
	}
	respondJSON(w, http.StatusOK, dtos)
}

// Download godoc
// @Summary Download quote document
// @Description Stream the stored document bytes
// @Tags Documents
// @Produce application/octet-stream
// @Param id path string true "Document ID" format(uuid)
// @Success 200
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /documents/{id}/download [get]
func (h *QuoteDocumentHandler) Download(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid document ID format",
		})
		return
	}

	reader, filename, contentType, err := h.documentService.Download(r.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondJSON(w, http.StatusNotFound, domain.ErrorResponse{
				Error:   "Not Found",
				Message: "Document not found",
			})
			return
		}
		h.logger.Error("failed to download quote document", zap.Error(err), zap.String("document_id", id.String()))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to download document",
		})
		return
	}
	defer reader.Close()

	w.Header().Set("Content-Disposition", "attachment; filename=\""+filename+"\"")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)

	_, _ = io.Copy(w, reader)
}
