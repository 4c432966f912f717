package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/hartwood-buildings/crm-api/internal/auth"
	"github.com/hartwood-buildings/crm-api/internal/domain"
	"github.com/hartwood-buildings/crm-api/internal/mapper"
	"github.com/hartwood-buildings/crm-api/internal/service"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type AuthHandler struct {
	userService *service.UserService
	logger      *zap.Logger
}

func NewAuthHandler(userService *service.UserService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		userService: userService,
		logger:      logger,
	}
}

// Login godoc
// @Summary Log in
// @Description Exchange a known sales user's email for a bearer token
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body domain.LoginRequest true "Credentials"
// @Success 200 {object} domain.LoginResponse
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
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

	token, user, err := h.userService.Login(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) || errors.Is(err, service.ErrPermissionDenied) {
			respondJSON(w, http.StatusUnauthorized, domain.ErrorResponse{
				Error:   "Unauthorized",
				Message: "Unknown or inactive user",
			})
			return
		}
		h.logger.Error("login failed", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Login failed",
		})
		return
	}

	respondJSON(w, http.StatusOK, domain.LoginResponse{
		Token: token,
		User:  mapper.ToUserDTO(user),
	})
}

// Me godoc
// @Summary Current user
// @Description Get the profile of the authenticated user
// @Tags Auth
// @Accept json
// @Produce json
// @Success 200 {object} domain.UserDTO
// @Failure 401 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /auth/me [get]
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	actor := auth.MustFromContext(r.Context())

	user, err := h.userService.GetUser(r.Context(), actor.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondJSON(w, http.StatusNotFound, domain.ErrorResponse{
				Error:   "Not Found",
				Message: "User not found",
			})
			return
		}
		h.logger.Error("failed to load current user", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to load user",
		})
		return
	}

	respondJSON(w, http.StatusOK, mapper.ToUserDTO(user))
}

// ListUsers godoc
// @Summary List active users
// @Description Get the sales team, for assignment pickers
// @Tags Auth
// @Accept json
// @Produce json
// @Success 200 {array} domain.UserDTO
// @Failure 401 {object} domain.ErrorResponse
// @Failure 500 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /users [get]
func (h *AuthHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.userService.ListActive(r.Context())
	if err != nil {
		h.logger.Error("failed to list users", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to list users",
		})
		return
	}

	dtos := make([]domain.UserDTO, 0, len(users))
	for i := range users {
		dtos = append(dtos, mapper.ToUserDTO(&users[i]))
	}
	respondJSON(w, http.StatusOK, dtos)
}
