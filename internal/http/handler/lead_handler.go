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

type LeadHandler struct {
	leadService *service.LeadService
	workflow    *service.LeadWorkflowService
	logger      *zap.Logger
}

func NewLeadHandler(leadService *service.LeadService, workflow *service.LeadWorkflowService, logger *zap.Logger) *LeadHandler {
	return &LeadHandler{
		leadService: leadService,
		workflow:    workflow,
		logger:      logger,
	}
}

// List godoc
// @Summary List leads
// @Description Get paginated list of leads with optional filters
// @Tags Leads
// @Accept json
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Items per page (max 200)" default(20)
// @Param status query string false "Filter by status" Enums(new, contact_attempted, engaged, qualified, quoted, won, lost)
// @Param assignedTo query string false "Filter by assignee" format(uuid)
// @Param search query string false "Search by contact name, email or phone"
// @Success 200 {object} domain.PaginatedResponse{data=[]domain.LeadDTO}
// @Failure 401 {object} domain.ErrorResponse
// @Failure 500 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /leads [get]
func (h *LeadHandler) List(w http.ResponseWriter, r *http.Request) {
	page, pageSize := parsePaging(r)

	filter := repository.LeadFilter{
		Status: domain.LeadStatus(r.URL.Query().Get("status")),
		Search: r.URL.Query().Get("search"),
	}
	if assignedTo := r.URL.Query().Get("assignedTo"); assignedTo != "" {
		if id, err := uuid.Parse(assignedTo); err == nil {
			filter.AssignedToID = &id
		}
	}

	leads, total, err := h.leadService.ListLeads(r.Context(), page, pageSize, filter)
	if err != nil {
		h.logger.Error("failed to list leads", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to list leads",
		})
		return
	}

	role := actorRole(r)
	dtos := make([]domain.LeadDTO, 0, len(leads))
	for i := range leads {
		badge, badgeErr := h.workflow.SLABadgeFor(r.Context(), &leads[i])
		if badgeErr != nil {
			badge = domain.SLABadgeNone
		}
		dtos = append(dtos, mapper.ToLeadDTO(&leads[i], badge, domain.AllowedTargets(role, leads[i].Status)))
	}
	respondJSON(w, http.StatusOK, domain.NewPaginatedResponse(dtos, total, page, pageSize))
}

// GetByID godoc
// @Summary Get lead by ID
// @Description Get a lead with its SLA badge and the statuses the caller may move it to
// @Tags Leads
// @Accept json
// @Produce json
// @Param id path string true "Lead ID" format(uuid)
// @Success 200 {object} domain.LeadDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /leads/{id} [get]
func (h *LeadHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid lead ID format",
		})
		return
	}

	lead, err := h.leadService.GetLead(r.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondJSON(w, http.StatusNotFound, domain.ErrorResponse{
				Error:   "Not Found",
				Message: "Lead not found",
			})
			return
		}
		h.logger.Error("failed to get lead", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to get lead",
		})
		return
	}

	badge, err := h.workflow.SLABadgeFor(r.Context(), lead)
	if err != nil {
		badge = domain.SLABadgeNone
	}
	respondJSON(w, http.StatusOK, mapper.ToLeadDTO(lead, badge, domain.AllowedTargets(actorRole(r), lead.Status)))
}

// Create godoc
// @Summary Create lead
// @Description Record a new enquiry; every lead starts in the new status
// @Tags Leads
// @Accept json
// @Produce json
// @Param request body domain.CreateLeadRequest true "Lead data"
// @Success 201 {object} domain.LeadDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Failure 500 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /leads [post]
func (h *LeadHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateLeadRequest
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

	lead, err := h.leadService.CreateLead(r.Context(), &req)
	if err != nil {
		h.logger.Error("failed to create lead", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to create lead",
		})
		return
	}

	w.Header().Set("Location", "/api/v1/leads/"+lead.ID.String())
	respondJSON(w, http.StatusCreated, mapper.ToLeadDTO(lead, domain.SLABadgeNone, domain.AllowedTargets(actorRole(r), lead.Status)))
}

// Update godoc
// @Summary Update lead
// @Description Update contact and assignment fields; status changes use the transition endpoint
// @Tags Leads
// @Accept json
// @Produce json
// @Param id path string true "Lead ID" format(uuid)
// @Param request body domain.UpdateLeadRequest true "Lead data"
// @Success 200 {object} domain.LeadDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Failure 500 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /leads/{id} [put]
func (h *LeadHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid lead ID format",
		})
		return
	}

	var req domain.UpdateLeadRequest
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

	lead, err := h.leadService.UpdateLead(r.Context(), id, &req)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondJSON(w, http.StatusNotFound, domain.ErrorResponse{
				Error:   "Not Found",
				Message: "Lead not found",
			})
			return
		}
		h.logger.Error("failed to update lead", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to update lead",
		})
		return
	}

	respondJSON(w, http.StatusOK, mapper.ToLeadDTO(lead, domain.SLABadgeNone, domain.AllowedTargets(actorRole(r), lead.Status)))
}

// Transition godoc
// @Summary Transition lead status
// @Description Move a lead through the pipeline. Directors may override the role allow-list with a reason; the quote-prerequisite gate is never bypassed.
// @Tags Leads
// @Accept json
// @Produce json
// @Param id path string true "Lead ID" format(uuid)
// @Param request body domain.TransitionLeadRequest true "Transition"
// @Success 200 {object} domain.LeadDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Failure 422 {object} domain.APIError "Transition not allowed or prerequisites missing"
// @Security BearerAuth
// @Router /leads/{id}/transition [post]
func (h *LeadHandler) Transition(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid lead ID format",
		})
		return
	}

	var req domain.TransitionLeadRequest
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
	lead, err := h.workflow.AttemptTransition(r.Context(), id, actor, req.TargetStatus, req.Override, req.OverrideReason, req.LostReason)
	if err != nil {
		var te *domain.TransitionError
		if errors.As(err, &te) {
			respondJSON(w, http.StatusUnprocessableEntity, domain.APIError{
				Type:          domain.ErrorTypeValidation,
				Title:         te.Code,
				Status:        http.StatusUnprocessableEntity,
				Detail:        te.Error(),
				MissingFields: te.MissingFields,
			})
			return
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondJSON(w, http.StatusNotFound, domain.ErrorResponse{
				Error:   "Not Found",
				Message: "Lead not found",
			})
			return
		}
		h.logger.Error("failed to transition lead", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to transition lead",
		})
		return
	}

	badge, err := h.workflow.SLABadgeFor(r.Context(), lead)
	if err != nil {
		badge = domain.SLABadgeNone
	}
	respondJSON(w, http.StatusOK, mapper.ToLeadDTO(lead, badge, domain.AllowedTargets(actor.Role, lead.Status)))
}

// History godoc
// @Summary Get lead status history
// @Description Get the lead's transitions, newest first
// @Tags Leads
// @Accept json
// @Produce json
// @Param id path string true "Lead ID" format(uuid)
// @Success 200 {array} domain.LeadStatusHistoryDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /leads/{id}/history [get]
func (h *LeadHandler) History(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid lead ID format",
		})
		return
	}

	history, err := h.leadService.GetStatusHistory(r.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondJSON(w, http.StatusNotFound, domain.ErrorResponse{
				Error:   "Not Found",
				Message: "Lead not found",
			})
			return
		}
		h.logger.Error("failed to get lead history", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to get lead history",
		})
		return
	}

	dtos := make([]domain.LeadStatusHistoryDTO, 0, len(history))
	for i := range history {
		dtos = append(dtos, mapper.ToLeadStatusHistoryDTO(&history[i]))
	}
	respondJSON(w, http.StatusOK, dtos)
}

// AttachCustomer godoc
// @Summary Link lead to customer
// @Description Attach an existing customer to a lead; the link cannot be changed once set
// @Tags Leads
// @Accept json
// @Produce json
// @Param id path string true "Lead ID" format(uuid)
// @Param customerId path string true "Customer ID" format(uuid)
// @Success 200 {object} domain.LeadDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Failure 409 {object} domain.ErrorResponse "Lead already linked to a different customer"
// @Security BearerAuth
// @Router /leads/{id}/customer/{customerId} [put]
func (h *LeadHandler) AttachCustomer(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid lead ID format",
		})
		return
	}
	customerID, err := uuid.Parse(chi.URLParam(r, "customerId"))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid customer ID format",
		})
		return
	}

	lead, err := h.leadService.AttachCustomer(r.Context(), id, customerID)
	if err != nil {
		if errors.Is(err, service.ErrCustomerAlreadySet) {
			respondJSON(w, http.StatusConflict, domain.ErrorResponse{
				Error:   "Conflict",
				Message: "Lead is already linked to a different customer",
			})
			return
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondJSON(w, http.StatusNotFound, domain.ErrorResponse{
				Error:   "Not Found",
				Message: "Lead not found",
			})
			return
		}
		h.logger.Error("failed to attach customer", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to attach customer",
		})
		return
	}

	respondJSON(w, http.StatusOK, mapper.ToLeadDTO(lead, domain.SLABadgeNone, domain.AllowedTargets(actorRole(r), lead.Status)))
}

// actorRole reads the authenticated caller's role, defaulting to the most
// restricted role when the context carries none (public routes).
func actorRole(r *http.Request) domain.SalesRole {
	if uc, ok := auth.FromContext(r.Context()); ok {
		return uc.Role
	}
	return domain.RoleSalesRep
}
