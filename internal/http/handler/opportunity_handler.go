package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/hartwood-buildings/crm-api/internal/domain"
	"github.com/hartwood-buildings/crm-api/internal/mapper"
	"github.com/hartwood-buildings/crm-api/internal/service"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type OpportunityHandler struct {
	quoteService *service.QuoteService
	logger       *zap.Logger
}

func NewOpportunityHandler(quoteService *service.QuoteService, logger *zap.Logger) *OpportunityHandler {
	return &OpportunityHandler{
		quoteService: quoteService,
		logger:       logger,
	}
}

// List godoc
// @Summary List open opportunities
// @Description Get the pipeline board, every quote carrying an open deal stage
// @Tags Opportunities
// @Accept json
// @Produce json
// @Success 200 {array} domain.OpportunityDTO
// @Failure 401 {object} domain.ErrorResponse
// @Failure 500 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /opportunities [get]
func (h *OpportunityHandler) List(w http.ResponseWriter, r *http.Request) {
	quotes, err := h.quoteService.ListOpportunities(r.Context())
	if err != nil {
		h.logger.Error("failed to list opportunities", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to list opportunities",
		})
		return
	}

	dtos := make([]domain.OpportunityDTO, 0, len(quotes))
	for i := range quotes {
		dtos = append(dtos, mapper.ToOpportunityDTO(&quotes[i]))
	}
	respondJSON(w, http.StatusOK, dtos)
}

// Update godoc
// @Summary Update opportunity
// @Description Edit the deal tracking fields of a quote's opportunity
// @Tags Opportunities
// @Accept json
// @Produce json
// @Param id path string true "Quote ID" format(uuid)
// @Param request body domain.UpdateOpportunityRequest true "Opportunity data"
// @Success 200 {object} domain.OpportunityDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /quotes/{id}/opportunity [put]
func (h *OpportunityHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid quote ID format",
		})
		return
	}

	var req domain.UpdateOpportunityRequest
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

	quote, err := h.quoteService.UpdateOpportunity(r.Context(), id, &req)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondJSON(w, http.StatusNotFound, domain.ErrorResponse{
				Error:   "Not Found",
				Message: "Quote not found",
			})
			return
		}
		h.logger.Error("failed to update opportunity", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to update opportunity",
		})
		return
	}

	respondJSON(w, http.StatusOK, mapper.ToOpportunityDTO(quote))
}
