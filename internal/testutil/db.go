// Package testutil provides shared test fixtures: an isolated in-memory
// database per test and factory helpers for the core records.
package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/hartwood-buildings/crm-api/internal/database"
	"github.com/hartwood-buildings/crm-api/internal/domain"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var dbCounter int64

// SetupTestDB creates an isolated in-memory SQLite database with the full
// schema migrated. Each call gets its own database, so tests never share
// state.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	// A unique shared-cache name keeps the database alive across the
	// connections gorm opens while isolating it from other tests.
	dsn := fmt.Sprintf("file:testdb_%d?mode=memory&cache=shared", atomic.AddInt64(&dbCounter, 1))

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err, "failed to open test database")

	require.NoError(t, database.AutoMigrate(db), "failed to migrate test database")

	return db
}

// CreateTestUser inserts an active user with the given role.
func CreateTestUser(t *testing.T, db *gorm.DB, email string, role domain.SalesRole) *domain.User {
	t.Helper()
	user := &domain.User{
		Email:       email,
		DisplayName: "Test " + string(role),
		Role:        role,
		IsActive:    true,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// CreateTestCustomer inserts a customer with a complete quote-ready profile.
func CreateTestCustomer(t *testing.T, db *gorm.DB, name string) *domain.Customer {
	t.Helper()
	customer := &domain.Customer{
		CustomerNumber: fmt.Sprintf("HGB-2026-%03d", atomic.AddInt64(&dbCounter, 1)%1000),
		Name:           name,
		Email:          "customer@example.com",
		Phone:          "01632 840193",
		AddressLine1:   "4 Orchard Lane",
		City:           "Norwich",
		County:         "Norfolk",
		Postcode:       "NR2 1AA",
		Country:        "United Kingdom",
	}
	require.NoError(t, db.Create(customer).Error)
	return customer
}

// CreateTestLead inserts a lead in the given status, optionally linked to a
// customer.
func CreateTestLead(t *testing.T, db *gorm.DB, status domain.LeadStatus, customerID *uuid.UUID) *domain.Lead {
	t.Helper()
	lead := &domain.Lead{
		ContactName:  "Jo Farmer",
		ContactEmail: "jo@example.com",
		ContactPhone: "07700 900123",
		Status:       status,
		LeadType:     domain.LeadTypeStable,
		LeadSource:   domain.LeadSourceWebsite,
		CustomerID:   customerID,
	}
	require.NoError(t, db.Create(lead).Error)
	return lead
}

// CreateEngagementActivity logs an email-received activity for the customer,
// which counts as engagement proof.
func CreateEngagementActivity(t *testing.T, db *gorm.DB, customerID uuid.UUID, leadID *uuid.UUID) *domain.Activity {
	t.Helper()
	activity := &domain.Activity{
		CustomerID:   customerID,
		LeadID:       leadID,
		ActivityType: domain.ActivityEmailReceived,
		Notes:        "Replied asking for delivery times",
		CreatorName:  "Test Rep",
	}
	require.NoError(t, db.Create(activity).Error)
	return activity
}
