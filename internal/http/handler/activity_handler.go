package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/hartwood-buildings/crm-api/internal/auth"
	"github.com/hartwood-buildings/crm-api/internal/domain"
	"github.com/hartwood-buildings/crm-api/internal/mapper"
	"github.com/hartwood-buildings/crm-api/internal/service"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ActivityHandler struct {
	activityService *service.ActivityService
	logger          *zap.Logger
}

func NewActivityHandler(activityService *service.ActivityService, logger *zap.Logger) *ActivityHandler {
	return &ActivityHandler{
		activityService: activityService,
		logger:          logger,
	}
}

// Create godoc
// @Summary Log activity
// @Description Record a customer-facing event. Engagement-proof activities can unlock quoting for waiting leads.
// @Tags Activities
// @Accept json
// @Produce json
// @Param request body domain.CreateActivityRequest true "Activity data"
// @Success 201 {object} domain.ActivityDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse "Customer not found"
// @Security BearerAuth
// @Router /activities [post]
func (h *ActivityHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateActivityRequest
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
	activity, err := h.activityService.CreateActivity(r.Context(), actor, &req)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondJSON(w, http.StatusNotFound, domain.ErrorResponse{
				Error:   "Not Found",
				Message: "Customer not found",
			})
			return
		}
		h.logger.Error("failed to create activity", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to create activity",
		})
		return
	}

	respondJSON(w, http.StatusCreated, mapper.ToActivityDTO(activity))
}

// ListByLead godoc
// @Summary List lead activities
// @Description Get the lead's activity log, newest first
// @Tags Activities
// @Accept json
// @Produce json
// @Param id path string true "Lead ID" format(uuid)
// @Param limit query int false "Max entries" default(50)
// @Success 200 {array} domain.ActivityDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /leads/{id}/activities [get]
func (h *ActivityHandler) ListByLead(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid lead ID format",
		})
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 {
		limit = 50
	}

	activities, err := h.activityService.ListByLead(r.Context(), id, limit)
	if err != nil {
		h.logger.Error("failed to list lead activities", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to list activities",
		})
		return
	}

	dtos := make([]domain.ActivityDTO, 0, len(activities))
	for i := range activities {
		dtos = append(dtos, mapper.ToActivityDTO(&activities[i]))
	}
	respondJSON(w, http.StatusOK, dtos)
}
