package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/hartwood-buildings/crm-api/internal/domain"
	"github.com/hartwood-buildings/crm-api/internal/mapper"
	"github.com/hartwood-buildings/crm-api/internal/repository"
	"github.com/hartwood-buildings/crm-api/internal/service"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ReminderHandler struct {
	reminderService *service.ReminderService
	logger          *zap.Logger
}

func NewReminderHandler(reminderService *service.ReminderService, logger *zap.Logger) *ReminderHandler {
	return &ReminderHandler{
		reminderService: reminderService,
		logger:          logger,
	}
}

// List godoc
// @Summary List reminders
// @Description Get follow-up reminders, most urgent first
// @Tags Reminders
// @Accept json
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Items per page (max 200)" default(20)
// @Param assignedTo query string false "Filter by assignee" format(uuid)
// @Param priority query string false "Filter by priority" Enums(LOW, MEDIUM, HIGH, URGENT)
// @Param includeDone query bool false "Include dismissed and acted-upon reminders" default(false)
// @Success 200 {object} domain.PaginatedResponse[domain.ReminderDTO]
// @Failure 401 {object} domain.ErrorResponse
// @Failure 500 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /reminders [get]
func (h *ReminderHandler) List(w http.ResponseWriter, r *http.Request) {
	page, pageSize := parsePaging(r)
	filter := repository.ReminderFilter{
		Priority:    domain.ReminderPriority(r.URL.Query().Get("priority")),
		IncludeDone: r.URL.Query().Get("includeDone") == "true",
	}
	if assignedTo := r.URL.Query().Get("assignedTo"); assignedTo != "" {
		if id, err := uuid.Parse(assignedTo); err == nil {
			filter.AssignedToID = &id
		}
	}

	reminders, total, err := h.reminderService.ListReminders(r.Context(), page, pageSize, filter)
	if err != nil {
		h.logger.Error("failed to list reminders", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to list reminders",
		})
		return
	}

	dtos := make([]domain.ReminderDTO, 0, len(reminders))
	for i := range reminders {
		dtos = append(dtos, mapper.ToReminderDTO(&reminders[i]))
	}
	respondJSON(w, http.StatusOK, domain.NewPaginatedResponse(dtos, total, page, pageSize))
}

// Dismiss godoc
// @Summary Dismiss reminder
// @Description Mark a reminder as dismissed; the sweep will not resurrect it
// @Tags Reminders
// @Accept json
// @Produce json
// @Param id path string true "Reminder ID" format(uuid)
// @Success 204 "No Content"
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /reminders/{id}/dismiss [post]
func (h *ReminderHandler) Dismiss(w http.ResponseWriter, r *http.Request) {
	h.resolve(w, r, h.reminderService.Dismiss, "dismiss")
}

// MarkActedUpon godoc
// @Summary Mark reminder acted upon
// @Description Record that the suggested follow-up was done
// @Tags Reminders
// @Accept json
// @Produce json
// @Param id path string true "Reminder ID" format(uuid)
// @Success 204 "No Content"
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /reminders/{id}/acted [post]
func (h *ReminderHandler) MarkActedUpon(w http.ResponseWriter, r *http.Request) {
	h.resolve(w, r, h.reminderService.MarkActedUpon, "mark acted upon")
}

func (h *ReminderHandler) resolve(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, id uuid.UUID) error, action string) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid reminder ID format",
		})
		return
	}

	if err := fn(r.Context(), id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondJSON(w, http.StatusNotFound, domain.ErrorResponse{
				Error:   "Not Found",
				Message: "Reminder not found",
			})
			return
		}
		h.logger.Error("failed to "+action+" reminder", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to update reminder",
		})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// TriggerSweep godoc
// @Summary Run the reminder sweep now
// @Description Run one staleness sweep immediately instead of waiting for the next scheduled run
// @Tags Reminders
// @Accept json
// @Produce json
// @Success 200 {object} service.SweepResult
// @Failure 401 {object} domain.ErrorResponse
// @Failure 403 {object} domain.ErrorResponse
// @Failure 500 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /reminders/sweep [post]
func (h *ReminderHandler) TriggerSweep(w http.ResponseWriter, r *http.Request) {
	result, err := h.reminderService.Sweep(r.Context())
	if err != nil {
		h.logger.Error("manual reminder sweep failed", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Reminder sweep failed",
		})
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// ListRules godoc
// @Summary List reminder rules
// @Description Get the configured staleness rules
// @Tags Reminders
// @Accept json
// @Produce json
// @Success 200 {array} domain.ReminderRule
// @Failure 401 {object} domain.ErrorResponse
// @Failure 500 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /reminder-rules [get]
func (h *ReminderHandler) ListRules(w http.ResponseWriter, r *http.Request) {
	rules, err := h.reminderService.ListRules(r.Context())
	if err != nil {
		h.logger.Error("failed to list reminder rules", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to list reminder rules",
		})
		return
	}
	respondJSON(w, http.StatusOK, rules)
}

// CreateRule godoc
// @Summary Create reminder rule
// @Description Add a staleness rule picked up by the next sweep
// @Tags Reminders
// @Accept json
// @Produce json
// @Param request body domain.CreateReminderRuleRequest true "Rule data"
// @Success 201 {object} domain.ReminderRule
// @Failure 400 {object} domain.ErrorResponse "Invalid rule configuration"
// @Failure 401 {object} domain.ErrorResponse
// @Failure 403 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /reminder-rules [post]
func (h *ReminderHandler) CreateRule(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateReminderRuleRequest
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

	rule, err := h.reminderService.CreateRule(r.Context(), &req)
	if err != nil {
		var cfgErr *domain.RuleConfigError
		if errors.As(err, &cfgErr) {
			respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
				Error:   "Bad Request",
				Message: cfgErr.Error(),
			})
			return
		}
		h.logger.Error("failed to create reminder rule", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to create reminder rule",
		})
		return
	}

	respondJSON(w, http.StatusCreated, rule)
}
