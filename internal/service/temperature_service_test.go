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

func TestTemperatureRecompute(t *testing.T) {
	f := newFixture(t)
	now := f.clock.Now()
	daysAgo := func(d int) *time.Time {
		ts := now.AddDate(0, 0, -d)
		return &ts
	}
	emails := func(opens ...int) []domain.QuoteEmail {
		result := make([]domain.QuoteEmail, 0, len(opens))
		for _, n := range opens {
			result = append(result, domain.QuoteEmail{OpenCount: n})
		}
		return result
	}

	tests := []struct {
		name    string
		quote   domain.Quote
		want    domain.QuoteTemperature
		changed bool
	}{
		{
			name:    "draft quotes are never recomputed",
			quote:   domain.Quote{Status: domain.QuoteStatusDraft, Temperature: domain.TemperatureCold, Emails: emails(5)},
			want:    domain.TemperatureCold,
			changed: false,
		},
		{
			name:    "sent with no signal stays cold",
			quote:   domain.Quote{Status: domain.QuoteStatusSent, Temperature: domain.TemperatureCold},
			want:    domain.TemperatureCold,
			changed: false,
		},
		{
			name:    "one open warms",
			quote:   domain.Quote{Status: domain.QuoteStatusSent, Temperature: domain.TemperatureCold, Emails: emails(1), LastViewedAt: daysAgo(1)},
			want:    domain.TemperatureWarm,
			changed: true,
		},
		{
			name:    "a view without opens warms",
			quote:   domain.Quote{Status: domain.QuoteStatusViewed, Temperature: domain.TemperatureCold, ViewedAt: daysAgo(2), LastViewedAt: daysAgo(2)},
			want:    domain.TemperatureWarm,
			changed: true,
		},
		{
			name:    "three opens across sends run hot",
			quote:   domain.Quote{Status: domain.QuoteStatusViewed, Temperature: domain.TemperatureWarm, Emails: emails(2, 1), LastViewedAt: daysAgo(3)},
			want:    domain.TemperatureHot,
			changed: true,
		},
		{
			name:    "hot cools to warm after two idle weeks",
			quote:   domain.Quote{Status: domain.QuoteStatusViewed, Temperature: domain.TemperatureHot, Emails: emails(4), LastViewedAt: daysAgo(15)},
			want:    domain.TemperatureWarm,
			changed: true,
		},
		{
			name:    "a month idle forces cold regardless of opens",
			quote:   domain.Quote{Status: domain.QuoteStatusViewed, Temperature: domain.TemperatureHot, Emails: emails(4), LastViewedAt: daysAgo(31)},
			want:    domain.TemperatureCold,
			changed: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			quote := tc.quote
			changed := f.temperature.Recompute(&quote)
			assert.Equal(t, tc.changed, changed)
			assert.Equal(t, tc.want, quote.Temperature)
		})
	}
}

func TestWarmFromWebsiteVisit(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	customer := testutil.CreateTestCustomer(t, f.db, "Jo Farmer")
	cold := &domain.Quote{
		QuoteNumber: "HGB-Q-2026-001",
		CustomerID:  customer.ID,
		Version:     1,
		Status:      domain.QuoteStatusSent,
		Temperature: domain.TemperatureCold,
	}
	hot := &domain.Quote{
		QuoteNumber: "HGB-Q-2026-002",
		CustomerID:  customer.ID,
		Version:     1,
		Status:      domain.QuoteStatusSent,
		Temperature: domain.TemperatureHot,
	}
	draft := &domain.Quote{
		QuoteNumber: "HGB-Q-2026-003",
		CustomerID:  customer.ID,
		Version:     1,
		Status:      domain.QuoteStatusDraft,
		Temperature: domain.TemperatureCold,
	}
	require.NoError(t, f.db.Create(cold).Error)
	require.NoError(t, f.db.Create(hot).Error)
	require.NoError(t, f.db.Create(draft).Error)

	// The pixel endpoint publishes this event.
	f.bus.Publish(ctx, events.WebsiteVisit{CustomerID: customer.ID})

	reload := func(id interface{}) domain.QuoteTemperature {
		var q domain.Quote
		require.NoError(t, f.db.First(&q, "id = ?", id).Error)
		return q.Temperature
	}

	assert.Equal(t, domain.TemperatureWarm, reload(cold.ID))
	// A pixel hit is weaker evidence than an open: hot stays hot.
	assert.Equal(t, domain.TemperatureHot, reload(hot.ID))
	// Draft quotes are not in play.
	assert.Equal(t, domain.TemperatureCold, reload(draft.ID))
}
