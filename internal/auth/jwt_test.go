package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hartwood-buildings/crm-api/internal/config"
	"github.com/hartwood-buildings/crm-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) *TokenManager {
	t.Helper()
	manager, err := NewTokenManager(&config.AuthConfig{
		JWTSecret: "test-secret-not-for-production",
		Issuer:    "crm-api-test",
		TokenTTL:  60,
	})
	require.NoError(t, err)
	return manager
}

func testUser() *domain.User {
	return &domain.User{
		BaseModel:   domain.BaseModel{ID: uuid.New()},
		DisplayName: "Sam Carter",
		Email:       "sam@hartwoodbuildings.co.uk",
		Role:        domain.RoleSalesManager,
	}
}

func TestIssueAndValidateToken(t *testing.T) {
	manager := newTestManager(t)
	user := testUser()

	token, err := manager.IssueToken(user, time.Now())
	require.NoError(t, err)

	uc, err := manager.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, uc.UserID)
	assert.Equal(t, user.DisplayName, uc.DisplayName)
	assert.Equal(t, user.Email, uc.Email)
	assert.Equal(t, domain.RoleSalesManager, uc.Role)
}

func TestValidateTokenRejections(t *testing.T) {
	manager := newTestManager(t)

	t.Run("garbage token", func(t *testing.T) {
		_, err := manager.ValidateToken("not.a.jwt")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong signing secret", func(t *testing.T) {
		other, err := NewTokenManager(&config.AuthConfig{
			JWTSecret: "a-different-secret",
			Issuer:    "crm-api-test",
			TokenTTL:  60,
		})
		require.NoError(t, err)

		token, err := other.IssueToken(testUser(), time.Now())
		require.NoError(t, err)

		_, err = manager.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired token", func(t *testing.T) {
		token, err := manager.IssueToken(testUser(), time.Now().Add(-2*time.Hour))
		require.NoError(t, err)

		_, err = manager.ValidateToken(token)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})

	t.Run("unknown role", func(t *testing.T) {
		user := testUser()
		user.Role = "janitor"
		token, err := manager.IssueToken(user, time.Now())
		require.NoError(t, err)

		_, err = manager.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestMissingSecretIsRejected(t *testing.T) {
	_, err := NewTokenManager(&config.AuthConfig{Issuer: "crm-api-test"})
	assert.Error(t, err)
}
