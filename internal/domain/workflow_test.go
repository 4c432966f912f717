package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsTransitionAllowed(t *testing.T) {
	tests := []struct {
		name    string
		role    SalesRole
		from    LeadStatus
		to      LeadStatus
		allowed bool
	}{
		{"rep walks one step forward", RoleSalesRep, LeadStatusNew, LeadStatusContactAttempted, true},
		{"rep cannot skip to engaged", RoleSalesRep, LeadStatusNew, LeadStatusEngaged, false},
		{"rep cannot qualify to quoted", RoleSalesRep, LeadStatusQualified, LeadStatusQuoted, false},
		{"rep can lose at any active stage", RoleSalesRep, LeadStatusQuoted, LeadStatusLost, true},
		{"rep cannot close won", RoleSalesRep, LeadStatusQuoted, LeadStatusWon, false},
		{"manager skips new to engaged", RoleSalesManager, LeadStatusNew, LeadStatusEngaged, true},
		{"manager moves qualified to quoted", RoleSalesManager, LeadStatusQualified, LeadStatusQuoted, true},
		{"manager closes won", RoleSalesManager, LeadStatusQuoted, LeadStatusWon, true},
		{"closer cannot touch new leads", RoleCloser, LeadStatusNew, LeadStatusEngaged, false},
		{"closer moves qualified to quoted", RoleCloser, LeadStatusQualified, LeadStatusQuoted, true},
		{"closer closes won", RoleCloser, LeadStatusQuoted, LeadStatusWon, true},
		{"closer cannot lose a qualified lead", RoleCloser, LeadStatusQualified, LeadStatusLost, false},
		{"director shares the manager table", RoleDirector, LeadStatusNew, LeadStatusEngaged, true},
		{"won is terminal", RoleSalesManager, LeadStatusWon, LeadStatusQuoted, false},
		{"lost is terminal", RoleDirector, LeadStatusLost, LeadStatusNew, false},
		{"no backwards edges", RoleSalesManager, LeadStatusQualified, LeadStatusEngaged, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.allowed, IsTransitionAllowed(tc.role, tc.from, tc.to))
		})
	}
}

func TestAllowedTargets(t *testing.T) {
	t.Run("pipeline order", func(t *testing.T) {
		targets := AllowedTargets(RoleSalesManager, LeadStatusNew)
		assert.Equal(t, []LeadStatus{LeadStatusContactAttempted, LeadStatusEngaged, LeadStatusLost}, targets)
	})

	t.Run("terminal status has none", func(t *testing.T) {
		assert.Nil(t, AllowedTargets(RoleSalesManager, LeadStatusWon))
	})

	t.Run("closer has no edges from new", func(t *testing.T) {
		assert.Nil(t, AllowedTargets(RoleCloser, LeadStatusNew))
	})
}

func TestMissingQuoteFields(t *testing.T) {
	t.Run("complete profile", func(t *testing.T) {
		customer := &Customer{
			AddressLine1: "4 Orchard Lane",
			City:         "Norwich",
			County:       "Norfolk",
			Postcode:     "NR2 1AA",
			Email:        "jo@example.com",
			Phone:        "01632 840193",
		}
		assert.Empty(t, customer.MissingQuoteFields())
	})

	t.Run("missing fields reported in order", func(t *testing.T) {
		customer := &Customer{
			Email: "jo@example.com",
			Phone: "01632 840193",
		}
		assert.Equal(t,
			[]string{"address_line1", "city", "county", "postcode"},
			customer.MissingQuoteFields())
	})
}

func TestComputeSLABadge(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

	t.Run("new lead untouched past 15 minutes is red", func(t *testing.T) {
		lead := &Lead{Status: LeadStatusNew}
		lead.CreatedAt = now.Add(-20 * time.Minute)
		assert.Equal(t, SLABadgeRed, ComputeSLABadge(lead, false, false, now))
	})

	t.Run("new lead with any activity is clear", func(t *testing.T) {
		lead := &Lead{Status: LeadStatusNew}
		lead.CreatedAt = now.Add(-2 * time.Hour)
		assert.Equal(t, SLABadgeNone, ComputeSLABadge(lead, true, false, now))
	})

	t.Run("new lead inside the window is clear", func(t *testing.T) {
		lead := &Lead{Status: LeadStatusNew}
		lead.CreatedAt = now.Add(-10 * time.Minute)
		assert.Equal(t, SLABadgeNone, ComputeSLABadge(lead, false, false, now))
	})

	t.Run("contact attempted without proof past 48h is amber", func(t *testing.T) {
		lead := &Lead{Status: LeadStatusContactAttempted}
		lead.UpdatedAt = now.Add(-72 * time.Hour)
		assert.Equal(t, SLABadgeAmber, ComputeSLABadge(lead, true, false, now))
	})

	t.Run("engagement proof clears the amber badge", func(t *testing.T) {
		lead := &Lead{Status: LeadStatusContactAttempted}
		lead.UpdatedAt = now.Add(-72 * time.Hour)
		assert.Equal(t, SLABadgeNone, ComputeSLABadge(lead, true, true, now))
	})

	t.Run("later stages carry no badge", func(t *testing.T) {
		lead := &Lead{Status: LeadStatusQualified}
		lead.UpdatedAt = now.Add(-500 * time.Hour)
		assert.Equal(t, SLABadgeNone, ComputeSLABadge(lead, false, false, now))
	})
}

func TestActivityTypeIsEngagementProof(t *testing.T) {
	proof := []ActivityType{
		ActivitySMSReceived, ActivityEmailReceived, ActivityEmailSent,
		ActivityWhatsAppReceived, ActivityLiveCall,
	}
	for _, at := range proof {
		assert.True(t, at.IsEngagementProof(), "%s should count as engagement proof", at)
	}

	assert.False(t, ActivityCallAttempted.IsEngagementProof())
	assert.False(t, ActivityNote.IsEngagementProof())
}

func TestReminderPriorityBump(t *testing.T) {
	assert.Equal(t, PriorityMedium, PriorityLow.Bump())
	assert.Equal(t, PriorityHigh, PriorityMedium.Bump())
	assert.Equal(t, PriorityUrgent, PriorityHigh.Bump())
	assert.Equal(t, PriorityUrgent, PriorityUrgent.Bump())
}

func TestReminderRuleValidate(t *testing.T) {
	t.Run("lead rule with quote check is rejected", func(t *testing.T) {
		rule := &ReminderRule{
			Name:          "bad",
			EntityType:    ReminderEntityLead,
			StatusFilter:  string(LeadStatusNew),
			CheckType:     CheckSentDate,
			ThresholdDays: 3,
			Priority:      PriorityMedium,
		}
		err := rule.Validate()
		assert.Error(t, err)
		var cfgErr *RuleConfigError
		assert.ErrorAs(t, err, &cfgErr)
	})

	t.Run("misspelled lead status filter is rejected", func(t *testing.T) {
		rule := &ReminderRule{
			Name:          "bad filter",
			EntityType:    ReminderEntityLead,
			StatusFilter:  "enaged",
			CheckType:     CheckLastActivity,
			ThresholdDays: 3,
			Priority:      PriorityMedium,
		}
		err := rule.Validate()
		var cfgErr *RuleConfigError
		require.ErrorAs(t, err, &cfgErr)
		assert.Equal(t, "status_filter", cfgErr.Field)
	})

	t.Run("lead status filter on a quote rule is rejected", func(t *testing.T) {
		rule := &ReminderRule{
			Name:          "bad filter",
			EntityType:    ReminderEntityQuote,
			StatusFilter:  string(LeadStatusEngaged),
			CheckType:     CheckSentDate,
			ThresholdDays: 3,
			Priority:      PriorityMedium,
		}
		err := rule.Validate()
		var cfgErr *RuleConfigError
		require.ErrorAs(t, err, &cfgErr)
		assert.Equal(t, "status_filter", cfgErr.Field)
	})

	t.Run("valid quote rule", func(t *testing.T) {
		rule := &ReminderRule{
			Name:          "quote follow up",
			EntityType:    ReminderEntityQuote,
			StatusFilter:  string(QuoteStatusSent),
			CheckType:     CheckSentNotOpened,
			ThresholdDays: 3,
			Priority:      PriorityMedium,
		}
		assert.NoError(t, rule.Validate())
	})
}
