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
	"github.com/hartwood-buildings/crm-api/internal/service"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type DiscountHandler struct {
	templateService *service.DiscountTemplateService
	pricingService  *service.QuotePricingService
	logger          *zap.Logger
}

func NewDiscountHandler(templateService *service.DiscountTemplateService, pricingService *service.QuotePricingService, logger *zap.Logger) *DiscountHandler {
	return &DiscountHandler{
		templateService: templateService,
		pricingService:  pricingService,
		logger:          logger,
	}
}

// ListTemplates godoc
// @Summary List discount templates
// @Description Get the discount catalogue
// @Tags Discounts
// @Accept json
// @Produce json
// @Param activeOnly query bool false "Only active templates" default(false)
// @Success 200 {array} domain.DiscountTemplateDTO
// @Failure 401 {object} domain.ErrorResponse
// @Failure 500 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /discount-templates [get]
func (h *DiscountHandler) ListTemplates(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("activeOnly") == "true"

	templates, err := h.templateService.ListTemplates(r.Context(), activeOnly)
	if err != nil {
		h.logger.Error("failed to list discount templates", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to list discount templates",
		})
		return
	}

	dtos := make([]domain.DiscountTemplateDTO, 0, len(templates))
	for i := range templates {
		dtos = append(dtos, mapper.ToDiscountTemplateDTO(&templates[i]))
	}
	respondJSON(w, http.StatusOK, dtos)
}

// CreateTemplate godoc
// @Summary Create discount template
// @Description Add a reusable discount to the catalogue
// @Tags Discounts
// @Accept json
// @Produce json
// @Param request body domain.CreateDiscountTemplateRequest true "Template data"
// @Success 201 {object} domain.DiscountTemplateDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Failure 403 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /discount-templates [post]
func (h *DiscountHandler) CreateTemplate(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateDiscountTemplateRequest
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

	template, err := h.templateService.CreateTemplate(r.Context(), &req)
	if err != nil {
		h.logger.Error("failed to create discount template", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to create discount template",
		})
		return
	}

	respondJSON(w, http.StatusCreated, mapper.ToDiscountTemplateDTO(template))
}

// UpdateTemplate godoc
// @Summary Update discount template
// @Description Edit name, value or active flag; deactivate instead of deleting
// @Tags Discounts
// @Accept json
// @Produce json
// @Param id path string true "Template ID" format(uuid)
// @Param request body domain.UpdateDiscountTemplateRequest true "Template data"
// @Success 200 {object} domain.DiscountTemplateDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /discount-templates/{id} [put]
func (h *DiscountHandler) UpdateTemplate(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid template ID format",
		})
		return
	}

	var req domain.UpdateDiscountTemplateRequest
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

	template, err := h.templateService.UpdateTemplate(r.Context(), id, &req)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondJSON(w, http.StatusNotFound, domain.ErrorResponse{
				Error:   "Not Found",
				Message: "Discount template not found",
			})
			return
		}
		h.logger.Error("failed to update discount template", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to update discount template",
		})
		return
	}

	respondJSON(w, http.StatusOK, mapper.ToDiscountTemplateDTO(template))
}

// CreateRequest godoc
// @Summary Request ad hoc discount
// @Description Open the approval gate for a non-template discount on a draft quote
// @Tags Discounts
// @Accept json
// @Produce json
// @Param id path string true "Quote ID" format(uuid)
// @Param request body domain.CreateDiscountRequestRequest true "Request data"
// @Success 201 {object} domain.DiscountRequestDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Failure 409 {object} domain.ErrorResponse "Not a draft, or a pending request already exists"
// @Security BearerAuth
// @Router /quotes/{id}/discount-requests [post]
func (h *DiscountHandler) CreateRequest(w http.ResponseWriter, r *http.Request) {
	quoteID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid quote ID format",
		})
		return
	}

	var req domain.CreateDiscountRequestRequest
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
	request, err := h.pricingService.CreateDiscountRequest(r.Context(), quoteID, actor, &req)
	if err != nil {
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
		case errors.Is(err, service.ErrPendingDiscountRequestExists):
			respondJSON(w, http.StatusConflict, domain.ErrorResponse{
				Error:   "Conflict",
				Message: "Quote already has a pending discount request",
			})
		default:
			h.logger.Error("failed to create discount request", zap.Error(err))
			respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
				Error:   "Internal Server Error",
				Message: "Failed to create discount request",
			})
		}
		return
	}

	respondJSON(w, http.StatusCreated, mapper.ToDiscountRequestDTO(request))
}

// ReviewRequest godoc
// @Summary Review discount request
// @Description Approve or reject a pending request; approval applies the discount. Requires a manager or director other than the requester.
// @Tags Discounts
// @Accept json
// @Produce json
// @Param id path string true "Request ID" format(uuid)
// @Param request body domain.ReviewDiscountRequestRequest true "Decision"
// @Success 200 {object} domain.DiscountRequestDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Failure 403 {object} domain.ErrorResponse "Self-review or insufficient role"
// @Failure 404 {object} domain.ErrorResponse
// @Failure 409 {object} domain.ErrorResponse "Request already decided"
// @Security BearerAuth
// @Router /discount-requests/{id}/review [post]
func (h *DiscountHandler) ReviewRequest(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid request ID format",
		})
		return
	}

	var req domain.ReviewDiscountRequestRequest
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

	reviewer := auth.MustFromContext(r.Context())
	request, err := h.pricingService.ReviewDiscountRequest(r.Context(), id, reviewer, req.Approve, req.ReviewNotes)
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			respondJSON(w, http.StatusNotFound, domain.ErrorResponse{
				Error:   "Not Found",
				Message: "Discount request not found",
			})
		case errors.Is(err, service.ErrSelfReview), errors.Is(err, service.ErrPermissionDenied):
			respondJSON(w, http.StatusForbidden, domain.ErrorResponse{
				Error:   "Forbidden",
				Message: "Discount requests must be reviewed by another privileged user",
			})
		case errors.Is(err, service.ErrRequestNotPending):
			respondJSON(w, http.StatusConflict, domain.ErrorResponse{
				Error:   "Conflict",
				Message: "Discount request was already decided",
			})
		default:
			h.logger.Error("failed to review discount request", zap.Error(err))
			respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
				Error:   "Internal Server Error",
				Message: "Failed to review discount request",
			})
		}
		return
	}

	respondJSON(w, http.StatusOK, mapper.ToDiscountRequestDTO(request))
}
