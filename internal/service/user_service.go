package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/hartwood-buildings/crm-api/internal/auth"
	"github.com/hartwood-buildings/crm-api/internal/domain"
	"github.com/hartwood-buildings/crm-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// UserService manages staff accounts and issues API tokens. Authentication
// is delegated to the company SSO in front of this API; login here only
// exchanges a verified email for a signed token.
type UserService struct {
	userRepo *repository.UserRepository
	tokens   *auth.TokenManager
	logger   *zap.Logger
}

// NewUserService creates a new UserService
func NewUserService(
	userRepo *repository.UserRepository,
	tokens *auth.TokenManager,
	logger *zap.Logger,
) *UserService {
	return &UserService{
		userRepo: userRepo,
		tokens:   tokens,
		logger:   logger,
	}
}

// Login issues a token for an active staff account.
func (s *UserService) Login(ctx context.Context, email string) (string, *domain.User, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, ErrUserNotFound
		}
		return "", nil, err
	}
	if !user.IsActive {
		return "", nil, ErrPermissionDenied
	}

	token, err := s.tokens.IssueToken(user, time.Now().UTC())
	if err != nil {
		return "", nil, err
	}

	s.logger.Info("user logged in",
		zap.String("user_id", user.ID.String()),
		zap.String("role", string(user.Role)))

	return token, user, nil
}

// GetUser returns one staff account.
func (s *UserService) GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// ListActive returns active staff, ordered by display name.
func (s *UserService) ListActive(ctx context.Context) ([]domain.User, error) {
	return s.userRepo.ListActive(ctx)
}
