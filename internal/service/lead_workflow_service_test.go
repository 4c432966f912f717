package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/hartwood-buildings/crm-api/internal/domain"
	"github.com/hartwood-buildings/crm-api/internal/events"
	"github.com/hartwood-buildings/crm-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttemptTransitionRoleAllowList(t *testing.T) {
	ctx := context.Background()

	t.Run("closer cannot engage a new lead", func(t *testing.T) {
		f := newFixture(t)
		lead := testutil.CreateTestLead(t, f.db, domain.LeadStatusNew, nil)

		_, err := f.workflow.AttemptTransition(ctx, lead.ID, asRole(domain.RoleCloser), domain.LeadStatusEngaged, false, "", "")

		var terr *domain.TransitionError
		require.ErrorAs(t, err, &terr)
		assert.Equal(t, domain.CodeTransitionNotAllowed, terr.Code)
	})

	t.Run("manager skips straight to engaged", func(t *testing.T) {
		f := newFixture(t)
		lead := testutil.CreateTestLead(t, f.db, domain.LeadStatusNew, nil)

		updated, err := f.workflow.AttemptTransition(ctx, lead.ID, asRole(domain.RoleSalesManager), domain.LeadStatusEngaged, false, "", "")
		require.NoError(t, err)
		assert.Equal(t, domain.LeadStatusEngaged, updated.Status)

		history, err := f.historyRepo.GetByLeadID(ctx, lead.ID)
		require.NoError(t, err)
		require.Len(t, history, 1)
		assert.Equal(t, domain.LeadStatusNew, *history[0].FromStatus)
		assert.Equal(t, domain.LeadStatusEngaged, history[0].ToStatus)
	})

	t.Run("lost reason recorded", func(t *testing.T) {
		f := newFixture(t)
		lead := testutil.CreateTestLead(t, f.db, domain.LeadStatusEngaged, nil)

		updated, err := f.workflow.AttemptTransition(ctx, lead.ID, asRole(domain.RoleSalesRep), domain.LeadStatusLost, false, "", "Went with a competitor")
		require.NoError(t, err)
		assert.Equal(t, domain.LeadStatusLost, updated.Status)
		assert.Equal(t, "Went with a competitor", updated.LostReason)
	})
}

func TestAttemptTransitionDirectorOverride(t *testing.T) {
	ctx := context.Background()

	t.Run("director bypasses the allow list with a reason", func(t *testing.T) {
		f := newFixture(t)
		lead := testutil.CreateTestLead(t, f.db, domain.LeadStatusNew, nil)

		updated, err := f.workflow.AttemptTransition(ctx, lead.ID, asRole(domain.RoleDirector), domain.LeadStatusQualified, true, "Known returning customer", "")
		require.NoError(t, err)
		assert.Equal(t, domain.LeadStatusQualified, updated.Status)

		history, err := f.historyRepo.GetByLeadID(ctx, lead.ID)
		require.NoError(t, err)
		require.Len(t, history, 1)
		assert.Equal(t, "Known returning customer", history[0].OverrideReason)
	})

	t.Run("override without a reason falls back to the allow list", func(t *testing.T) {
		f := newFixture(t)
		lead := testutil.CreateTestLead(t, f.db, domain.LeadStatusNew, nil)

		_, err := f.workflow.AttemptTransition(ctx, lead.ID, asRole(domain.RoleDirector), domain.LeadStatusQualified, true, "", "")

		var terr *domain.TransitionError
		require.ErrorAs(t, err, &terr)
		assert.Equal(t, domain.CodeTransitionNotAllowed, terr.Code)
	})

	t.Run("non-director cannot override", func(t *testing.T) {
		f := newFixture(t)
		lead := testutil.CreateTestLead(t, f.db, domain.LeadStatusNew, nil)

		_, err := f.workflow.AttemptTransition(ctx, lead.ID, asRole(domain.RoleSalesManager), domain.LeadStatusQualified, true, "please", "")
		assert.Error(t, err)
	})

	t.Run("terminal statuses resist override", func(t *testing.T) {
		f := newFixture(t)
		lead := testutil.CreateTestLead(t, f.db, domain.LeadStatusWon, nil)

		_, err := f.workflow.AttemptTransition(ctx, lead.ID, asRole(domain.RoleDirector), domain.LeadStatusNew, true, "reopen", "")

		var terr *domain.TransitionError
		require.ErrorAs(t, err, &terr)
		assert.Equal(t, domain.CodeTransitionNotAllowed, terr.Code)
	})
}

func TestQualifiedCreatesCustomer(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	lead := testutil.CreateTestLead(t, f.db, domain.LeadStatusEngaged, nil)

	updated, err := f.workflow.AttemptTransition(ctx, lead.ID, asRole(domain.RoleSalesManager), domain.LeadStatusQualified, false, "", "")
	require.NoError(t, err)
	require.NotNil(t, updated.CustomerID)

	customer, err := f.customerRepo.GetByID(ctx, *updated.CustomerID)
	require.NoError(t, err)
	assert.Equal(t, "HGB-2026-001", customer.CustomerNumber)
	assert.Equal(t, lead.ContactName, customer.Name)
	assert.Equal(t, lead.ContactEmail, customer.Email)
	assert.Equal(t, string(lead.LeadSource), customer.Source)
}

func TestQuoteGate(t *testing.T) {
	ctx := context.Background()

	t.Run("no customer", func(t *testing.T) {
		f := newFixture(t)
		lead := testutil.CreateTestLead(t, f.db, domain.LeadStatusQualified, nil)

		_, err := f.workflow.AttemptTransition(ctx, lead.ID, asRole(domain.RoleSalesManager), domain.LeadStatusQuoted, false, "", "")

		var terr *domain.TransitionError
		require.ErrorAs(t, err, &terr)
		assert.Equal(t, domain.CodeNoCustomer, terr.Code)
	})

	t.Run("incomplete customer profile reports missing fields", func(t *testing.T) {
		f := newFixture(t)
		customer := &domain.Customer{
			Name:  "Jo Farmer",
			Email: "jo@example.com",
			Phone: "01632 840193",
		}
		require.NoError(t, f.db.Create(customer).Error)
		lead := testutil.CreateTestLead(t, f.db, domain.LeadStatusQualified, &customer.ID)

		_, err := f.workflow.AttemptTransition(ctx, lead.ID, asRole(domain.RoleSalesManager), domain.LeadStatusQuoted, false, "", "")

		var terr *domain.TransitionError
		require.ErrorAs(t, err, &terr)
		assert.Equal(t, domain.CodeQuotePrereqsMissing, terr.Code)
		assert.Equal(t, []string{"address_line1", "city", "county", "postcode"}, terr.MissingFields)
	})

	t.Run("complete profile without engagement proof", func(t *testing.T) {
		f := newFixture(t)
		customer := testutil.CreateTestCustomer(t, f.db, "Jo Farmer")
		lead := testutil.CreateTestLead(t, f.db, domain.LeadStatusQualified, &customer.ID)

		_, err := f.workflow.AttemptTransition(ctx, lead.ID, asRole(domain.RoleSalesManager), domain.LeadStatusQuoted, false, "", "")

		var terr *domain.TransitionError
		require.ErrorAs(t, err, &terr)
		assert.Equal(t, domain.CodeNoEngagementProof, terr.Code)
	})

	t.Run("gate passes with proof", func(t *testing.T) {
		f := newFixture(t)
		customer := testutil.CreateTestCustomer(t, f.db, "Jo Farmer")
		lead := testutil.CreateTestLead(t, f.db, domain.LeadStatusQualified, &customer.ID)
		testutil.CreateEngagementActivity(t, f.db, customer.ID, &lead.ID)

		updated, err := f.workflow.AttemptTransition(ctx, lead.ID, asRole(domain.RoleSalesManager), domain.LeadStatusQuoted, false, "", "")
		require.NoError(t, err)
		assert.Equal(t, domain.LeadStatusQuoted, updated.Status)
	})

	t.Run("override never bypasses the gate", func(t *testing.T) {
		f := newFixture(t)
		lead := testutil.CreateTestLead(t, f.db, domain.LeadStatusQualified, nil)

		_, err := f.workflow.AttemptTransition(ctx, lead.ID, asRole(domain.RoleDirector), domain.LeadStatusQuoted, true, "pushing it through", "")

		var terr *domain.TransitionError
		require.ErrorAs(t, err, &terr)
		assert.Equal(t, domain.CodeNoCustomer, terr.Code)
	})
}

func TestQuoteEligibilityCascade(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	customer := testutil.CreateTestCustomer(t, f.db, "Jo Farmer")
	lead := testutil.CreateTestLead(t, f.db, domain.LeadStatusEngaged, &customer.ID)
	testutil.CreateEngagementActivity(t, f.db, customer.ID, &lead.ID)

	f.workflow.CheckQuoteEligibility(ctx, customer.ID)

	updated, err := f.leadRepo.GetByID(ctx, lead.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.LeadStatusQualified, updated.Status)

	history, err := f.historyRepo.GetByLeadID(ctx, lead.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, domain.AutoQualifyReason, history[0].OverrideReason)
	assert.Equal(t, "System", history[0].ChangedByName)

	// Re-running on an already-eligible customer is a no-op.
	f.workflow.CheckQuoteEligibility(ctx, customer.ID)
	history, err = f.historyRepo.GetByLeadID(ctx, lead.ID)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestQuoteDecidedCascade(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T, f *fixture) (*domain.Lead, *domain.Quote) {
		customer := testutil.CreateTestCustomer(t, f.db, "Jo Farmer")
		lead := testutil.CreateTestLead(t, f.db, domain.LeadStatusQuoted, &customer.ID)
		quote := &domain.Quote{
			QuoteNumber: "HGB-Q-2026-001",
			CustomerID:  customer.ID,
			LeadID:      &lead.ID,
			Version:     1,
			Status:      domain.QuoteStatusSent,
			Temperature: domain.TemperatureCold,
		}
		require.NoError(t, f.db.Create(quote).Error)
		return lead, quote
	}

	t.Run("accepted quote wins the lead", func(t *testing.T) {
		f := newFixture(t)
		lead, quote := setup(t, f)

		f.bus.Publish(ctx, events.QuoteDecided{QuoteID: quote.ID, CustomerID: quote.CustomerID, LeadID: &lead.ID, Accepted: true})

		updated, err := f.leadRepo.GetByID(ctx, lead.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.LeadStatusWon, updated.Status)
	})

	t.Run("rejected quote loses the lead", func(t *testing.T) {
		f := newFixture(t)
		lead, quote := setup(t, f)

		f.bus.Publish(ctx, events.QuoteDecided{QuoteID: quote.ID, CustomerID: quote.CustomerID, LeadID: &lead.ID, Accepted: false})

		updated, err := f.leadRepo.GetByID(ctx, lead.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.LeadStatusLost, updated.Status)
	})
}

func TestSLABadgeFor(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	lead := testutil.CreateTestLead(t, f.db, domain.LeadStatusNew, nil)
	require.NoError(t, f.db.Model(lead).Update("created_at", f.clock.Now().Add(-time.Hour)).Error)

	fresh, err := f.leadRepo.GetByID(ctx, lead.ID)
	require.NoError(t, err)

	badge, err := f.workflow.SLABadgeFor(ctx, fresh)
	require.NoError(t, err)
	assert.Equal(t, domain.SLABadgeRed, badge)
}
