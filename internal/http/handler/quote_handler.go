package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/hartwood-buildings/crm-api/internal/auth"
	"github.com/hartwood-buildings/crm-api/internal/domain"
	"github.com/hartwood-buildings/crm-api/internal/mapper"
	"github.com/hartwood-buildings/crm-api/internal/repository"
	"github.com/hartwood-buildings/crm-api/internal/service"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type QuoteHandler struct {
	quoteService   *service.QuoteService
	pricingService *service.QuotePricingService
	logger         *zap.Logger
}

func NewQuoteHandler(quoteService *service.QuoteService, pricingService *service.QuotePricingService, logger *zap.Logger) *QuoteHandler {
	return &QuoteHandler{
		quoteService:   quoteService,
		pricingService: pricingService,
		logger:         logger,
	}
}

// List godoc
// @Summary List quotes
// @Description Get paginated list of quotes with optional filters
// @Tags Quotes
// @Accept json
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Items per page (max 200)" default(20)
// @Param customerId query string false "Filter by customer" format(uuid)
// @Param status query string false "Filter by status" Enums(draft, sent, viewed, accepted, rejected, expired)
// @Param temperature query string false "Filter by temperature" Enums(cold, warm, hot)
// @Success 200 {object} domain.PaginatedResponse{data=[]domain.QuoteDTO}
// @Failure 401 {object} domain.ErrorResponse
// @Failure 500 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /quotes [get]
func (h *QuoteHandler) List(w http.ResponseWriter, r *http.Request) {
	page, pageSize := parsePaging(r)

	filter := repository.QuoteFilter{
		Status:      domain.QuoteStatus(r.URL.Query().Get("status")),
		Temperature: domain.QuoteTemperature(r.URL.Query().Get("temperature")),
	}
	if customerID := r.URL.Query().Get("customerId"); customerID != "" {
		if id, err := uuid.Parse(customerID); err == nil {
			filter.CustomerID = &id
		}
	}

	quotes, total, err := h.quoteService.ListQuotes(r.Context(), page, pageSize, filter)
	if err != nil {
		h.logger.Error("failed to list quotes", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to list quotes",
		})
		return
	}

	dtos := make([]domain.QuoteDTO, 0, len(quotes))
	for i := range quotes {
		dtos = append(dtos, mapper.ToQuoteDTO(&quotes[i]))
	}
	respondJSON(w, http.StatusOK, domain.NewPaginatedResponse(dtos, total, page, pageSize))
}

// GetByID godoc
// @Summary Get quote by ID
// @Description Get a quote with items, discount applications and opportunity metadata
// @Tags Quotes
// @Accept json
// @Produce json
// @Param id path string true "Quote ID" format(uuid)
// @Success 200 {object} domain.QuoteDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /quotes/{id} [get]
func (h *QuoteHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := parseQuoteID(w, r)
	if !ok {
		return
	}

	quote, err := h.quoteService.GetQuote(r.Context(), id)
	if err != nil {
		h.respondQuoteError(w, err, "Failed to get quote")
		return
	}
	respondJSON(w, http.StatusOK, mapper.ToQuoteDTO(quote))
}

// Create godoc
// @Summary Create quote
// @Description Create a draft quote with line items; a qualified owning lead auto-transitions to quoted
// @Tags Quotes
// @Accept json
// @Produce json
// @Param request body domain.CreateQuoteRequest true "Quote data"
// @Success 201 {object} domain.QuoteDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Failure 500 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /quotes [post]
func (h *QuoteHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateQuoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid request body",
		})
		return
	}

	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	actor := auth.MustFromContext(r.Context())
	quote, err := h.quoteService.CreateQuote(r.Context(), actor, &req)
	if err != nil {
		h.logger.Error("failed to create quote", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to create quote",
		})
		return
	}

	w.Header().Set("Location", "/api/v1/quotes/"+quote.ID.String())
	respondJSON(w, http.StatusCreated, mapper.ToQuoteDTO(quote))
}

// Update godoc
// @Summary Update draft quote
// @Description Replace items and metadata on a draft; existing discounts are discarded with the old items
// @Tags Quotes
// @Accept json
// @Produce json
// @Param id path string true "Quote ID" format(uuid)
// @Param request body domain.UpdateQuoteRequest true "Quote data"
// @Success 200 {object} domain.QuoteDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Failure 409 {object} domain.ErrorResponse "Quote is not a draft"
// @Security BearerAuth
// @Router /quotes/{id} [put]
func (h *QuoteHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseQuoteID(w, r)
	if !ok {
		return
	}

	var req domain.UpdateQuoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid request body",
		})
		return
	}

	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	quote, err := h.quoteService.UpdateDraft(r.Context(), id, &req)
	if err != nil {
		h.respondQuoteError(w, err, "Failed to update quote")
		return
	}
	respondJSON(w, http.StatusOK, mapper.ToQuoteDTO(quote))
}

// Send godoc
// @Summary Send quote
// @Description Mark a draft quote sent, stamp its validity window and record the outbound email
// @Tags Quotes
// @Accept json
// @Produce json
// @Param id path string true "Quote ID" format(uuid)
// @Param request body domain.SendQuoteRequest true "Recipient"
// @Success 200 {object} domain.QuoteDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Failure 409 {object} domain.ErrorResponse "Quote is not a draft"
// @Security BearerAuth
// @Router /quotes/{id}/send [post]
func (h *QuoteHandler) Send(w http.ResponseWriter, r *http.Request) {
	id, ok := parseQuoteID(w, r)
	if !ok {
		return
	}

	var req domain.SendQuoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid request body",
		})
		return
	}

	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	quote, err := h.quoteService.SendQuote(r.Context(), id, &req)
	if err != nil {
		h.respondQuoteError(w, err, "Failed to send quote")
		return
	}
	respondJSON(w, http.StatusOK, mapper.ToQuoteDTO(quote))
}

// ApplyDiscounts godoc
// @Summary Apply discount templates
// @Description Apply templates to a quote in the supplied order and recompute totals
// @Tags Quotes
// @Accept json
// @Produce json
// @Param id path string true "Quote ID" format(uuid)
// @Param request body domain.ApplyDiscountsRequest true "Template IDs"
// @Success 200 {object} domain.QuoteDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Failure 422 {object} domain.ErrorResponse "No items or unknown template"
// @Security BearerAuth
// @Router /quotes/{id}/discounts [post]
func (h *QuoteHandler) ApplyDiscounts(w http.ResponseWriter, r *http.Request) {
	id, ok := parseQuoteID(w, r)
	if !ok {
		return
	}

	var req domain.ApplyDiscountsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid request body",
		})
		return
	}

	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	actor := auth.MustFromContext(r.Context())
	quote, err := h.pricingService.ApplyTemplates(r.Context(), id, req.TemplateIDs, actor)
	if err != nil {
		if errors.Is(err, service.ErrQuoteHasNoItems) {
			respondJSON(w, http.StatusUnprocessableEntity, domain.ErrorResponse{
				Error:   "Unprocessable Entity",
				Message: "Quote has no items",
			})
			return
		}
		if errors.Is(err, service.ErrDiscountTemplateNotFound) {
			respondJSON(w, http.StatusUnprocessableEntity, domain.ErrorResponse{
				Error:   "Unprocessable Entity",
				Message: "Discount template not found or inactive",
			})
			return
		}
		h.respondQuoteError(w, err, "Failed to apply discounts")
		return
	}
	respondJSON(w, http.StatusOK, mapper.ToQuoteDTO(quote))
}

// SetDeposit godoc
// @Summary Set deposit
// @Description Set an explicit deposit on a draft quote, clamped to the total
// @Tags Quotes
// @Accept json
// @Produce json
// @Param id path string true "Quote ID" format(uuid)
// @Param request body domain.SetDepositRequest true "Deposit"
// @Success 200 {object} domain.QuoteDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Failure 409 {object} domain.ErrorResponse "Quote is not a draft"
// @Security BearerAuth
// @Router /quotes/{id}/deposit [put]
func (h *QuoteHandler) SetDeposit(w http.ResponseWriter, r *http.Request) {
	id, ok := parseQuoteID(w, r)
	if !ok {
		return
	}

	var req domain.SetDepositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid request body",
		})
		return
	}

	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	quote, err := h.pricingService.SetDeposit(r.Context(), id, req.Deposit)
	if err != nil {
		h.respondQuoteError(w, err, "Failed to set deposit")
		return
	}
	respondJSON(w, http.StatusOK, mapper.ToQuoteDTO(quote))
}

// Accept godoc
// @Summary Accept quote
// @Description Mark an open quote accepted; the owning quoted lead auto-transitions to won
// @Tags Quotes
// @Produce json
// @Param id path string true "Quote ID" format(uuid)
// @Success 200 {object} domain.QuoteDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Failure 409 {object} domain.ErrorResponse "Quote is not awaiting a decision"
// @Security BearerAuth
// @Router /quotes/{id}/accept [post]
func (h *QuoteHandler) Accept(w http.ResponseWriter, r *http.Request) {
	id, ok := parseQuoteID(w, r)
	if !ok {
		return
	}
	quote, err := h.quoteService.Accept(r.Context(), id)
	if err != nil {
		h.respondQuoteError(w, err, "Failed to accept quote")
		return
	}
	respondJSON(w, http.StatusOK, mapper.ToQuoteDTO(quote))
}

// Reject godoc
// @Summary Reject quote
// @Description Mark an open quote rejected; the owning quoted lead auto-transitions to lost
// @Tags Quotes
// @Produce json
// @Param id path string true "Quote ID" format(uuid)
// @Success 200 {object} domain.QuoteDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Failure 409 {object} domain.ErrorResponse "Quote is not awaiting a decision"
// @Security BearerAuth
// @Router /quotes/{id}/reject [post]
func (h *QuoteHandler) Reject(w http.ResponseWriter, r *http.Request) {
	id, ok := parseQuoteID(w, r)
	if !ok {
		return
	}
	quote, err := h.quoteService.Reject(r.Context(), id)
	if err != nil {
		h.respondQuoteError(w, err, "Failed to reject quote")
		return
	}
	respondJSON(w, http.StatusOK, mapper.ToQuoteDTO(quote))
}

// Clone godoc
// @Summary Clone quote revision
// @Description Create a new draft with the same quote number and the version bumped
// @Tags Quotes
// @Produce json
// @Param id path string true "Quote ID" format(uuid)
// @Success 201 {object} domain.QuoteDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /quotes/{id}/clone [post]
func (h *QuoteHandler) Clone(w http.ResponseWriter, r *http.Request) {
	id, ok := parseQuoteID(w, r)
	if !ok {
		return
	}
	actor := auth.MustFromContext(r.Context())
	quote, err := h.quoteService.CloneRevision(r.Context(), id, actor)
	if err != nil {
		h.respondQuoteError(w, err, "Failed to clone quote")
		return
	}
	respondJSON(w, http.StatusCreated, mapper.ToQuoteDTO(quote))
}

// PublicView godoc
// @Summary Record public quote view
// @Description Called by the public quote page; stamps view timestamps and recomputes temperature
// @Tags Public
// @Produce json
// @Param id path string true "Quote ID" format(uuid)
// @Success 200 {object} domain.QuoteDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Router /public/quotes/{id}/view [post]
func (h *QuoteHandler) PublicView(w http.ResponseWriter, r *http.Request) {
	id, ok := parseQuoteID(w, r)
	if !ok {
		return
	}
	quote, err := h.quoteService.RecordView(r.Context(), id)
	if err != nil {
		h.respondQuoteError(w, err, "Failed to record view")
		return
	}
	respondJSON(w, http.StatusOK, mapper.ToQuoteDTO(quote))
}

// EmailOpenPixel godoc
// @Summary Record email open
// @Description Tracking-pixel endpoint incrementing the open count for one email send
// @Tags Public
// @Param emailId path string true "Quote email ID" format(uuid)
// @Success 204
// @Failure 400 {object} domain.ErrorResponse
// @Router /public/quote-emails/{emailId}/open [post]
func (h *QuoteHandler) EmailOpenPixel(w http.ResponseWriter, r *http.Request) {
	emailID, err := uuid.Parse(chi.URLParam(r, "emailId"))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid email ID format",
		})
		return
	}

	if err := h.quoteService.RecordEmailOpen(r.Context(), emailID); err != nil {
		// Pixels never leak whether the record exists.
		h.logger.Debug("email open pixel ignored", zap.Error(err))
	}
	w.WriteHeader(http.StatusNoContent)
}

// respondQuoteError maps common quote errors to HTTP responses.
func (h *QuoteHandler) respondQuoteError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		respondJSON(w, http.StatusNotFound, domain.ErrorResponse{
			Error:   "Not Found",
			Message: "Quote not found",
		})
	case errors.Is(err, service.ErrQuoteNotDraft):
		respondJSON(w, http.StatusConflict, domain.ErrorResponse{
			Error:   "Conflict",
			Message: "Quote is not in draft status",
		})
	case errors.Is(err, service.ErrQuoteNotOpen):
		respondJSON(w, http.StatusConflict, domain.ErrorResponse{
			Error:   "Conflict",
			Message: "Quote is not awaiting a decision",
		})
	default:
		h.logger.Error(fallback, zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: fallback,
		})
	}
}

func parseQuoteID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid quote ID format",
		})
		return uuid.Nil, false
	}
	return id, true
}
