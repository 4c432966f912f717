package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hartwood-buildings/crm-api/internal/domain"
	"github.com/hartwood-buildings/crm-api/internal/service"
	"github.com/hartwood-buildings/crm-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateQuote(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	customer := testutil.CreateTestCustomer(t, f.db, "Jo Farmer")
	quote, err := f.quotes.CreateQuote(ctx, asRole(domain.RoleSalesRep), &domain.CreateQuoteRequest{
		CustomerID: customer.ID,
		Items: []domain.CreateQuoteItemRequest{
			stableItem(8000),
			{Description: "Delivery", LineType: domain.LineTypeDelivery, Quantity: 1, UnitPrice: 350},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "HGB-Q-2026-001", quote.QuoteNumber)
	assert.Equal(t, 1, quote.Version)
	assert.Equal(t, domain.QuoteStatusDraft, quote.Status)
	assert.Equal(t, domain.TemperatureCold, quote.Temperature)
	assert.InDelta(t, 8350, quote.Subtotal, 0.001)
	assert.InDelta(t, 8350, quote.TotalAmount, 0.001)
	assert.InDelta(t, 4175, quote.DepositAmount, 0.001)
	require.Len(t, quote.Items, 2)
	assert.Equal(t, 0, quote.Items[0].DisplayOrder)
	assert.Equal(t, 1, quote.Items[1].DisplayOrder)

	second, err := f.quotes.CreateQuote(ctx, asRole(domain.RoleSalesRep), &domain.CreateQuoteRequest{
		CustomerID: customer.ID,
		Items:      []domain.CreateQuoteItemRequest{stableItem(500)},
	})
	require.NoError(t, err)
	assert.Equal(t, "HGB-Q-2026-002", second.QuoteNumber)
}

func TestCreateQuoteCascadesLeadToQuoted(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	customer := testutil.CreateTestCustomer(t, f.db, "Jo Farmer")
	lead := testutil.CreateTestLead(t, f.db, domain.LeadStatusQualified, &customer.ID)
	testutil.CreateEngagementActivity(t, f.db, customer.ID, &lead.ID)

	_, err := f.quotes.CreateQuote(ctx, asRole(domain.RoleSalesRep), &domain.CreateQuoteRequest{
		CustomerID: customer.ID,
		LeadID:     &lead.ID,
		Items:      []domain.CreateQuoteItemRequest{stableItem(8000)},
	})
	require.NoError(t, err)

	updated, err := f.leadRepo.GetByID(ctx, lead.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.LeadStatusQuoted, updated.Status)
}

func TestUpdateDraftKeepsExplicitDeposit(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	quote := createDraftQuote(t, f, []domain.CreateQuoteItemRequest{stableItem(1000)})
	_, err := f.pricing.SetDeposit(ctx, quote.ID, 250)
	require.NoError(t, err)

	notes := "Customer wants the darker stain"
	updated, err := f.quotes.UpdateDraft(ctx, quote.ID, &domain.UpdateQuoteRequest{
		Items: []domain.CreateQuoteItemRequest{stableItem(1200)},
		Notes: &notes,
	})
	require.NoError(t, err)

	assert.InDelta(t, 1200, updated.TotalAmount, 0.001)
	assert.InDelta(t, 250, updated.DepositAmount, 0.001)
	assert.InDelta(t, 950, updated.BalanceAmount, 0.001)
}

func TestSendQuote(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	quote := createDraftQuote(t, f, []domain.CreateQuoteItemRequest{stableItem(8000)})

	sent, err := f.quotes.SendQuote(ctx, quote.ID, &domain.SendQuoteRequest{
		RecipientEmail: "jo@example.com",
		Subject:        "Your stable quote",
	})
	require.NoError(t, err)

	assert.Equal(t, domain.QuoteStatusSent, sent.Status)
	require.NotNil(t, sent.SentAt)
	require.NotNil(t, sent.ValidUntil)
	assert.Equal(t, f.clock.Now().AddDate(0, 0, 30), *sent.ValidUntil)

	emails, err := f.emailRepo.ListByQuote(ctx, quote.ID)
	require.NoError(t, err)
	require.Len(t, emails, 1)
	assert.Equal(t, "jo@example.com", emails[0].RecipientEmail)

	_, err = f.quotes.SendQuote(ctx, quote.ID, &domain.SendQuoteRequest{RecipientEmail: "jo@example.com"})
	assert.ErrorIs(t, err, service.ErrQuoteNotDraft)
}

func TestRecordView(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	quote := createDraftQuote(t, f, []domain.CreateQuoteItemRequest{stableItem(8000)})
	_, err := f.quotes.SendQuote(ctx, quote.ID, &domain.SendQuoteRequest{RecipientEmail: "jo@example.com"})
	require.NoError(t, err)

	viewed, err := f.quotes.RecordView(ctx, quote.ID)
	require.NoError(t, err)

	assert.Equal(t, domain.QuoteStatusViewed, viewed.Status)
	require.NotNil(t, viewed.ViewedAt)
	require.NotNil(t, viewed.LastViewedAt)
	assert.Equal(t, domain.TemperatureWarm, viewed.Temperature)

	// A later view moves last-viewed but keeps first-viewed.
	first := *viewed.ViewedAt
	f.clock.Advance(48 * time.Hour)
	again, err := f.quotes.RecordView(ctx, quote.ID)
	require.NoError(t, err)
	assert.WithinDuration(t, first, *again.ViewedAt, time.Second)
	assert.True(t, again.LastViewedAt.After(first))
}

func TestRecordEmailOpenHeatsQuote(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	quote := createDraftQuote(t, f, []domain.CreateQuoteItemRequest{stableItem(8000)})
	_, err := f.quotes.SendQuote(ctx, quote.ID, &domain.SendQuoteRequest{RecipientEmail: "jo@example.com"})
	require.NoError(t, err)

	emails, err := f.emailRepo.ListByQuote(ctx, quote.ID)
	require.NoError(t, err)
	require.Len(t, emails, 1)

	for i := 0; i < 3; i++ {
		require.NoError(t, f.quotes.RecordEmailOpen(ctx, emails[0].ID))
	}

	email, err := f.emailRepo.GetByID(ctx, emails[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 3, email.OpenCount)
	require.NotNil(t, email.OpenedAt)

	updated, err := f.quoteRepo.GetByID(ctx, quote.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TemperatureHot, updated.Temperature)
}

func TestQuoteDecision(t *testing.T) {
	ctx := context.Background()

	t.Run("accept closes the quote", func(t *testing.T) {
		f := newFixture(t)
		quote := createDraftQuote(t, f, []domain.CreateQuoteItemRequest{stableItem(8000)})
		_, err := f.quotes.SendQuote(ctx, quote.ID, &domain.SendQuoteRequest{RecipientEmail: "jo@example.com"})
		require.NoError(t, err)

		accepted, err := f.quotes.Accept(ctx, quote.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.QuoteStatusAccepted, accepted.Status)
	})

	t.Run("draft quotes cannot be decided", func(t *testing.T) {
		f := newFixture(t)
		quote := createDraftQuote(t, f, []domain.CreateQuoteItemRequest{stableItem(8000)})

		_, err := f.quotes.Reject(ctx, quote.ID)
		assert.ErrorIs(t, err, service.ErrQuoteNotOpen)
	})
}

func TestExpireOverdue(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	quote := createDraftQuote(t, f, []domain.CreateQuoteItemRequest{stableItem(8000)})
	_, err := f.quotes.SendQuote(ctx, quote.ID, &domain.SendQuoteRequest{RecipientEmail: "jo@example.com"})
	require.NoError(t, err)

	t.Run("inside the validity window nothing expires", func(t *testing.T) {
		count, err := f.quotes.ExpireOverdue(ctx)
		require.NoError(t, err)
		assert.Zero(t, count)
	})

	t.Run("past validity the quote expires once", func(t *testing.T) {
		f.clock.Advance(31 * 24 * time.Hour)

		count, err := f.quotes.ExpireOverdue(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, count)

		updated, err := f.quoteRepo.GetByID(ctx, quote.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.QuoteStatusExpired, updated.Status)

		count, err = f.quotes.ExpireOverdue(ctx)
		require.NoError(t, err)
		assert.Zero(t, count)
	})
}

func TestCloneRevision(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	quote := createDraftQuote(t, f, []domain.CreateQuoteItemRequest{stableItem(1000)})
	tmpl := createTemplate(t, f, "Show discount", domain.DiscountPercentage, domain.ScopeProduct, 10, false)
	_, err := f.pricing.ApplyTemplates(ctx, quote.ID, []uuid.UUID{tmpl.ID}, asRole(domain.RoleSalesRep))
	require.NoError(t, err)

	clone, err := f.quotes.CloneRevision(ctx, quote.ID, asRole(domain.RoleSalesRep))
	require.NoError(t, err)

	assert.Equal(t, quote.QuoteNumber, clone.QuoteNumber)
	assert.Equal(t, 2, clone.Version)
	assert.Equal(t, domain.QuoteStatusDraft, clone.Status)
	assert.Empty(t, clone.Discounts)
	require.Len(t, clone.Items, 1)
	// Items come back at their undiscounted prices.
	assert.InDelta(t, 1000, clone.Items[0].FinalLineTotal, 0.001)
	assert.Zero(t, clone.Items[0].DiscountAmount)
	assert.InDelta(t, 1000, clone.TotalAmount, 0.001)
}

func TestUpdateOpportunity(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	quote := createDraftQuote(t, f, []domain.CreateQuoteItemRequest{stableItem(8000)})

	stage := domain.OpportunityNegotiation
	probability := 60
	nextAction := "Call to walk through the revised spec"
	due := f.clock.Now().AddDate(0, 0, 3)

	updated, err := f.quotes.UpdateOpportunity(ctx, quote.ID, &domain.UpdateOpportunityRequest{
		Stage:             &stage,
		CloseProbability:  &probability,
		NextAction:        &nextAction,
		NextActionDueDate: &due,
	})
	require.NoError(t, err)

	require.NotNil(t, updated.OpportunityStage)
	assert.Equal(t, domain.OpportunityNegotiation, *updated.OpportunityStage)
	assert.Equal(t, 60, updated.CloseProbability)
	assert.Equal(t, nextAction, updated.NextAction)

	opportunities, err := f.quotes.ListOpportunities(ctx)
	require.NoError(t, err)
	require.Len(t, opportunities, 1)
	assert.Equal(t, quote.ID, opportunities[0].ID)
}
