package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hartwood-buildings/crm-api/internal/domain"
	"github.com/hartwood-buildings/crm-api/internal/repository"
	"github.com/hartwood-buildings/crm-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createLeadRule(t *testing.T, f *fixture, threshold int, priority domain.ReminderPriority) *domain.ReminderRule {
	t.Helper()
	rule := &domain.ReminderRule{
		Name:            "Stale new lead",
		EntityType:      domain.ReminderEntityLead,
		StatusFilter:    string(domain.LeadStatusNew),
		CheckType:       domain.CheckStatusDuration,
		ThresholdDays:   threshold,
		Priority:        priority,
		SuggestedAction: "Call the prospect",
		IsActive:        true,
	}
	require.NoError(t, f.db.Create(rule).Error)
	return rule
}

// ageLead backdates the lead's updated_at so the staleness checks see it as
// idle.
func ageLead(t *testing.T, f *fixture, leadID uuid.UUID, days int) {
	t.Helper()
	stale := f.clock.Now().AddDate(0, 0, -days)
	require.NoError(t, f.db.Model(&domain.Lead{}).Where("id = ?", leadID).
		UpdateColumn("updated_at", stale).Error)
}

func listAll(t *testing.T, f *fixture) []domain.Reminder {
	t.Helper()
	reminders, _, err := f.reminders.ListReminders(context.Background(), 1, 100, repository.ReminderFilter{IncludeDone: true})
	require.NoError(t, err)
	return reminders
}

func TestSweepCreatesAndDedupsReminders(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	rep := testutil.CreateTestUser(t, f.db, "rep@hartwoodbuildings.co.uk", domain.RoleSalesRep)
	lead := testutil.CreateTestLead(t, f.db, domain.LeadStatusNew, nil)
	require.NoError(t, f.db.Model(&domain.Lead{}).Where("id = ?", lead.ID).
		UpdateColumn("assigned_to_id", rep.ID).Error)
	ageLead(t, f, lead.ID, 9)
	createLeadRule(t, f, 7, domain.PriorityMedium)

	result, err := f.reminders.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Created)
	assert.Zero(t, result.Updated)

	reminders := listAll(t, f)
	require.Len(t, reminders, 1)
	assert.Equal(t, rep.ID, reminders[0].AssignedToID)
	assert.Equal(t, 9, reminders[0].DaysStale)
	assert.Equal(t, domain.PriorityMedium, reminders[0].Priority)
	assert.Equal(t, "Call the prospect", reminders[0].SuggestedAction)

	t.Run("rerun with unchanged staleness is a no-op", func(t *testing.T) {
		result, err := f.reminders.Sweep(ctx)
		require.NoError(t, err)
		assert.Zero(t, result.Created)
		assert.Zero(t, result.Updated)
		assert.Len(t, listAll(t, f), 1)
	})

	t.Run("growing staleness refreshes the row and escalates", func(t *testing.T) {
		f.clock.Advance(6 * 24 * time.Hour) // 15 days stale now

		result, err := f.reminders.Sweep(ctx)
		require.NoError(t, err)
		assert.Zero(t, result.Created)
		assert.Equal(t, 1, result.Updated)

		reminders := listAll(t, f)
		require.Len(t, reminders, 1)
		assert.Equal(t, 15, reminders[0].DaysStale)
		assert.Equal(t, domain.PriorityUrgent, reminders[0].Priority)
	})

	t.Run("dismissed reminders stay dismissed", func(t *testing.T) {
		reminders := listAll(t, f)
		require.NoError(t, f.reminders.Dismiss(ctx, reminders[0].ID))

		f.clock.Advance(24 * time.Hour)
		result, err := f.reminders.Sweep(ctx)
		require.NoError(t, err)
		// A fresh row is created; the dismissed one is never resurrected.
		assert.Equal(t, 1, result.Created)

		all := listAll(t, f)
		require.Len(t, all, 2)
		var dismissed, active int
		for _, r := range all {
			if r.DismissedAt != nil {
				dismissed++
			} else {
				active++
			}
		}
		assert.Equal(t, 1, dismissed)
		assert.Equal(t, 1, active)
	})
}

func TestSweepBelowThresholdIsQuiet(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	rep := testutil.CreateTestUser(t, f.db, "rep@hartwoodbuildings.co.uk", domain.RoleSalesRep)
	lead := testutil.CreateTestLead(t, f.db, domain.LeadStatusNew, nil)
	require.NoError(t, f.db.Model(&domain.Lead{}).Where("id = ?", lead.ID).
		UpdateColumn("assigned_to_id", rep.ID).Error)
	ageLead(t, f, lead.ID, 3)
	createLeadRule(t, f, 7, domain.PriorityMedium)

	result, err := f.reminders.Sweep(ctx)
	require.NoError(t, err)
	assert.Zero(t, result.Created)
	assert.Empty(t, listAll(t, f))
}

func TestSweepAssigneeResolution(t *testing.T) {
	ctx := context.Background()

	t.Run("unassigned lead falls back to the catch-all user", func(t *testing.T) {
		f := newFixture(t)
		fallback := testutil.CreateTestUser(t, f.db, "sales@hartwoodbuildings.co.uk", domain.RoleSalesManager)
		lead := testutil.CreateTestLead(t, f.db, domain.LeadStatusNew, nil)
		ageLead(t, f, lead.ID, 9)
		createLeadRule(t, f, 7, domain.PriorityMedium)

		result, err := f.reminders.Sweep(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, result.Created)

		reminders := listAll(t, f)
		require.Len(t, reminders, 1)
		assert.Equal(t, fallback.ID, reminders[0].AssignedToID)
	})

	t.Run("no assignee and no fallback skips the lead", func(t *testing.T) {
		f := newFixture(t)
		lead := testutil.CreateTestLead(t, f.db, domain.LeadStatusNew, nil)
		ageLead(t, f, lead.ID, 9)
		createLeadRule(t, f, 7, domain.PriorityMedium)

		result, err := f.reminders.Sweep(ctx)
		require.NoError(t, err)
		assert.Zero(t, result.Created)
		assert.Equal(t, 1, result.Skipped)
	})
}

func TestSweepQuoteFollowUpTiers(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T, daysSinceSent int) (*fixture, *domain.Quote) {
		f := newFixture(t)
		owner := testutil.CreateTestUser(t, f.db, "closer@hartwoodbuildings.co.uk", domain.RoleCloser)
		customer := testutil.CreateTestCustomer(t, f.db, "Jo Farmer")

		stage := domain.OpportunityQuoteSent
		sentAt := f.clock.Now().AddDate(0, 0, -daysSinceSent)
		quote := &domain.Quote{
			QuoteNumber:      "HGB-Q-2026-001",
			CustomerID:       customer.ID,
			Version:          1,
			Status:           domain.QuoteStatusSent,
			Temperature:      domain.TemperatureCold,
			OpportunityStage: &stage,
			SentAt:           &sentAt,
			OwnerID:          &owner.ID,
		}
		require.NoError(t, f.db.Create(quote).Error)
		// Recent activity keeps the no-activity check quiet.
		testutil.CreateEngagementActivity(t, f.db, customer.ID, nil)
		return f, quote
	}

	followUp := func(t *testing.T, f *fixture) *domain.Reminder {
		t.Helper()
		for _, r := range listAll(t, f) {
			if r.ReminderType == "opportunity_quote_follow_up" {
				return &r
			}
		}
		return nil
	}

	t.Run("two days gets a gentle nudge", func(t *testing.T) {
		f, _ := setup(t, 3)
		_, err := f.reminders.Sweep(ctx)
		require.NoError(t, err)

		reminder := followUp(t, f)
		require.NotNil(t, reminder)
		assert.Equal(t, domain.PriorityLow, reminder.Priority)
	})

	t.Run("five days firms up", func(t *testing.T) {
		f, _ := setup(t, 6)
		_, err := f.reminders.Sweep(ctx)
		require.NoError(t, err)

		reminder := followUp(t, f)
		require.NotNil(t, reminder)
		assert.Equal(t, domain.PriorityMedium, reminder.Priority)
	})

	t.Run("ten days escalates", func(t *testing.T) {
		f, _ := setup(t, 11)
		_, err := f.reminders.Sweep(ctx)
		require.NoError(t, err)

		reminder := followUp(t, f)
		require.NotNil(t, reminder)
		// Base high, bumped again at ten days stale.
		assert.Equal(t, domain.PriorityUrgent, reminder.Priority)
	})
}

func TestSweepNextActionOverdue(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	owner := testutil.CreateTestUser(t, f.db, "closer@hartwoodbuildings.co.uk", domain.RoleCloser)
	customer := testutil.CreateTestCustomer(t, f.db, "Jo Farmer")

	stage := domain.OpportunityNegotiation
	due := f.clock.Now().AddDate(0, 0, -3)
	quote := &domain.Quote{
		QuoteNumber:       "HGB-Q-2026-001",
		CustomerID:        customer.ID,
		Version:           1,
		Status:            domain.QuoteStatusViewed,
		Temperature:       domain.TemperatureWarm,
		OpportunityStage:  &stage,
		NextAction:        "Send revised drawings",
		NextActionDueDate: &due,
		OwnerID:           &owner.ID,
	}
	require.NoError(t, f.db.Create(quote).Error)
	testutil.CreateEngagementActivity(t, f.db, customer.ID, nil)

	_, err := f.reminders.Sweep(ctx)
	require.NoError(t, err)

	var found *domain.Reminder
	for _, r := range listAll(t, f) {
		if r.ReminderType == "opportunity_next_action_overdue" {
			found = &r
			break
		}
	}
	require.NotNil(t, found)
	assert.Equal(t, 3, found.DaysStale)
	assert.Equal(t, domain.PriorityHigh, found.Priority)
	assert.Equal(t, "Send revised drawings", found.SuggestedAction)
	assert.Equal(t, owner.ID, found.AssignedToID)
}

func TestCreateRuleValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	t.Run("mismatched check type is rejected", func(t *testing.T) {
		_, err := f.reminders.CreateRule(ctx, &domain.CreateReminderRuleRequest{
			Name:          "bad rule",
			EntityType:    domain.ReminderEntityLead,
			StatusFilter:  string(domain.LeadStatusNew),
			CheckType:     domain.CheckSentNotOpened,
			ThresholdDays: 3,
			Priority:      domain.PriorityMedium,
		})
		var cfgErr *domain.RuleConfigError
		assert.ErrorAs(t, err, &cfgErr)
	})

	t.Run("valid rule is active immediately", func(t *testing.T) {
		rule, err := f.reminders.CreateRule(ctx, &domain.CreateReminderRuleRequest{
			Name:          "engaged gone quiet",
			EntityType:    domain.ReminderEntityLead,
			StatusFilter:  string(domain.LeadStatusEngaged),
			CheckType:     domain.CheckLastActivity,
			ThresholdDays: 5,
			Priority:      domain.PriorityMedium,
		})
		require.NoError(t, err)
		assert.True(t, rule.IsActive)

		rules, err := f.reminders.ListRules(ctx)
		require.NoError(t, err)
		assert.Len(t, rules, 1)
	})
}

func TestMarkActedUpon(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	rep := testutil.CreateTestUser(t, f.db, "rep@hartwoodbuildings.co.uk", domain.RoleSalesRep)
	reminder := &domain.Reminder{
		ReminderType: "rule:test",
		AssignedToID: rep.ID,
		Priority:     domain.PriorityMedium,
		DaysStale:    4,
	}
	require.NoError(t, f.db.Create(reminder).Error)

	require.NoError(t, f.reminders.MarkActedUpon(ctx, reminder.ID))

	// Acted-upon reminders drop out of the default list.
	active, _, err := f.reminders.ListReminders(ctx, 1, 100, repository.ReminderFilter{})
	require.NoError(t, err)
	assert.Empty(t, active)

	all := listAll(t, f)
	require.Len(t, all, 1)
	assert.NotNil(t, all[0].ActedUponAt)
}
