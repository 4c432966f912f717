package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/hartwood-buildings/crm-api/internal/domain"
	"github.com/hartwood-buildings/crm-api/internal/service"
	"github.com/hartwood-buildings/crm-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// createDraftQuote builds a draft through the quote service so numbering and
// totals follow the production path.
func createDraftQuote(t *testing.T, f *fixture, items []domain.CreateQuoteItemRequest) *domain.Quote {
	t.Helper()
	customer := testutil.CreateTestCustomer(t, f.db, "Jo Farmer")
	quote, err := f.quotes.CreateQuote(context.Background(), asRole(domain.RoleSalesRep), &domain.CreateQuoteRequest{
		CustomerID: customer.ID,
		Items:      items,
	})
	require.NoError(t, err)
	return quote
}

func stableItem(price float64) domain.CreateQuoteItemRequest {
	productID := uuid.New()
	return domain.CreateQuoteItemRequest{
		ProductID:   &productID,
		ProductCode: "STB-001",
		Description: "12x12 Stable Block",
		LineType:    domain.LineTypeProduct,
		Quantity:    1,
		UnitPrice:   price,
	}
}

func createTemplate(t *testing.T, f *fixture, name string, dType domain.DiscountType, scope domain.DiscountScope, value float64, giveaway bool) *domain.DiscountTemplate {
	t.Helper()
	tmpl := &domain.DiscountTemplate{
		Name:       name,
		Type:       dType,
		Scope:      scope,
		Value:      value,
		IsGiveaway: giveaway,
		IsActive:   true,
	}
	require.NoError(t, f.db.Create(tmpl).Error)
	return tmpl
}

func TestApplyTemplatesProductPercentage(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	quote := createDraftQuote(t, f, []domain.CreateQuoteItemRequest{stableItem(1000)})
	tmpl := createTemplate(t, f, "Show discount", domain.DiscountPercentage, domain.ScopeProduct, 10, false)

	updated, err := f.pricing.ApplyTemplates(ctx, quote.ID, []uuid.UUID{tmpl.ID}, asRole(domain.RoleSalesRep))
	require.NoError(t, err)

	require.Len(t, updated.Items, 1)
	assert.InDelta(t, 100, updated.Items[0].DiscountAmount, 0.001)
	assert.InDelta(t, 900, updated.Items[0].FinalLineTotal, 0.001)
	assert.InDelta(t, 1000, updated.Subtotal, 0.001)
	assert.InDelta(t, 100, updated.DiscountTotal, 0.001)
	assert.InDelta(t, 900, updated.TotalAmount, 0.001)
	// Default deposit is half the total.
	assert.InDelta(t, 450, updated.DepositAmount, 0.001)
	assert.InDelta(t, 450, updated.BalanceAmount, 0.001)

	persisted, err := f.quoteRepo.GetByID(ctx, quote.ID)
	require.NoError(t, err)
	assert.InDelta(t, 900, persisted.TotalAmount, 0.001)
	require.Len(t, persisted.Discounts, 1)
	assert.InDelta(t, 100, persisted.Discounts[0].Amount, 0.001)
}

func TestApplyTemplatesSkipsNonDiscountableLines(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	delivery := domain.CreateQuoteItemRequest{
		Description: "Delivery",
		LineType:    domain.LineTypeDelivery,
		Quantity:    1,
		UnitPrice:   200,
	}
	quote := createDraftQuote(t, f, []domain.CreateQuoteItemRequest{stableItem(1000), delivery})
	tmpl := createTemplate(t, f, "Show discount", domain.DiscountPercentage, domain.ScopeProduct, 10, false)

	updated, err := f.pricing.ApplyTemplates(ctx, quote.ID, []uuid.UUID{tmpl.ID}, asRole(domain.RoleSalesRep))
	require.NoError(t, err)

	assert.InDelta(t, 1200, updated.Subtotal, 0.001)
	// Only the product line is discounted.
	assert.InDelta(t, 100, updated.DiscountTotal, 0.001)
	assert.InDelta(t, 1100, updated.TotalAmount, 0.001)
	for _, item := range updated.Items {
		if item.LineType == domain.LineTypeDelivery {
			assert.Zero(t, item.DiscountAmount)
			assert.InDelta(t, 200, item.FinalLineTotal, 0.001)
		}
	}
}

func TestApplyTemplatesFixedAmountClampsToLine(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	quote := createDraftQuote(t, f, []domain.CreateQuoteItemRequest{stableItem(300)})
	tmpl := createTemplate(t, f, "Mates rates", domain.DiscountFixedAmount, domain.ScopeProduct, 500, false)

	updated, err := f.pricing.ApplyTemplates(ctx, quote.ID, []uuid.UUID{tmpl.ID}, asRole(domain.RoleSalesRep))
	require.NoError(t, err)

	assert.InDelta(t, 300, updated.Items[0].DiscountAmount, 0.001)
	assert.Zero(t, updated.Items[0].FinalLineTotal)
	assert.Zero(t, updated.TotalAmount)
	assert.Zero(t, updated.DepositAmount)
}

func TestApplyTemplatesGiveaway(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	manual := domain.CreateQuoteItemRequest{
		Description: "Custom paint finish",
		LineType:    domain.LineTypeProduct,
		Quantity:    1,
		UnitPrice:   150,
	}
	quote := createDraftQuote(t, f, []domain.CreateQuoteItemRequest{stableItem(1000), manual})
	tmpl := createTemplate(t, f, "Show giveaway", domain.DiscountPercentage, domain.ScopeProduct, 100, true)

	updated, err := f.pricing.ApplyTemplates(ctx, quote.ID, []uuid.UUID{tmpl.ID}, asRole(domain.RoleSalesManager))
	require.NoError(t, err)

	// Only lines carrying a product reference are zeroed.
	for _, item := range updated.Items {
		if item.ProductID != nil {
			assert.Zero(t, item.FinalLineTotal)
		} else {
			assert.InDelta(t, 150, item.FinalLineTotal, 0.001)
		}
	}
	assert.InDelta(t, 150, updated.TotalAmount, 0.001)
}

func TestApplyTemplatesQuoteScopeUsesOriginalSubtotal(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	quote := createDraftQuote(t, f, []domain.CreateQuoteItemRequest{stableItem(1000)})
	product := createTemplate(t, f, "Product 10", domain.DiscountPercentage, domain.ScopeProduct, 10, false)
	whole := createTemplate(t, f, "Quote 5", domain.DiscountPercentage, domain.ScopeQuote, 5, false)

	updated, err := f.pricing.ApplyTemplates(ctx, quote.ID, []uuid.UUID{product.ID, whole.ID}, asRole(domain.RoleSalesManager))
	require.NoError(t, err)

	// The quote-scope 5% computes on the original 1000 subtotal, not the
	// 900 running total.
	assert.InDelta(t, 150, updated.DiscountTotal, 0.001)
	assert.InDelta(t, 850, updated.TotalAmount, 0.001)
}

func TestApplyTemplatesStrictAndLenient(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	quote := createDraftQuote(t, f, []domain.CreateQuoteItemRequest{stableItem(1000)})

	t.Run("strict fails on unknown template", func(t *testing.T) {
		_, err := f.pricing.ApplyTemplates(ctx, quote.ID, []uuid.UUID{uuid.New()}, asRole(domain.RoleSalesRep))
		assert.ErrorIs(t, err, service.ErrDiscountTemplateNotFound)
	})

	t.Run("lenient skips unknown template", func(t *testing.T) {
		updated, err := f.pricing.ApplyTemplatesLenient(ctx, quote.ID, []uuid.UUID{uuid.New()}, asRole(domain.RoleSalesRep), nil)
		require.NoError(t, err)
		assert.InDelta(t, 1000, updated.TotalAmount, 0.001)
	})
}

func TestApplyTemplatesRequiresItems(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	customer := testutil.CreateTestCustomer(t, f.db, "Jo Farmer")
	quote := &domain.Quote{
		QuoteNumber: "HGB-Q-2026-099",
		CustomerID:  customer.ID,
		Version:     1,
		Status:      domain.QuoteStatusDraft,
		Temperature: domain.TemperatureCold,
	}
	require.NoError(t, f.db.Create(quote).Error)
	tmpl := createTemplate(t, f, "Show discount", domain.DiscountPercentage, domain.ScopeProduct, 10, false)

	_, err := f.pricing.ApplyTemplates(ctx, quote.ID, []uuid.UUID{tmpl.ID}, asRole(domain.RoleSalesRep))
	assert.ErrorIs(t, err, service.ErrQuoteHasNoItems)
}

func TestSetDeposit(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	quote := createDraftQuote(t, f, []domain.CreateQuoteItemRequest{stableItem(1000)})

	t.Run("clamped to the total", func(t *testing.T) {
		updated, err := f.pricing.SetDeposit(ctx, quote.ID, 2500)
		require.NoError(t, err)
		assert.InDelta(t, 1000, updated.DepositAmount, 0.001)
		assert.Zero(t, updated.BalanceAmount)
	})

	t.Run("explicit deposit splits the balance", func(t *testing.T) {
		updated, err := f.pricing.SetDeposit(ctx, quote.ID, 250)
		require.NoError(t, err)
		assert.InDelta(t, 250, updated.DepositAmount, 0.001)
		assert.InDelta(t, 750, updated.BalanceAmount, 0.001)
	})

	t.Run("rejected once sent", func(t *testing.T) {
		require.NoError(t, f.db.Model(&domain.Quote{}).Where("id = ?", quote.ID).Update("status", domain.QuoteStatusSent).Error)
		_, err := f.pricing.SetDeposit(ctx, quote.ID, 100)
		assert.ErrorIs(t, err, service.ErrQuoteNotDraft)
	})
}

func TestExplicitDepositSurvivesRepricing(t *testing.T) {
	ctx := context.Background()

	t.Run("later discounts keep the hand-set deposit", func(t *testing.T) {
		f := newFixture(t)
		quote := createDraftQuote(t, f, []domain.CreateQuoteItemRequest{stableItem(1000)})
		_, err := f.pricing.SetDeposit(ctx, quote.ID, 300)
		require.NoError(t, err)

		tmpl := createTemplate(t, f, "Show discount", domain.DiscountPercentage, domain.ScopeProduct, 10, false)
		updated, err := f.pricing.ApplyTemplates(ctx, quote.ID, []uuid.UUID{tmpl.ID}, asRole(domain.RoleSalesRep))
		require.NoError(t, err)

		assert.InDelta(t, 900, updated.TotalAmount, 0.001)
		assert.InDelta(t, 300, updated.DepositAmount, 0.001)
		assert.InDelta(t, 600, updated.BalanceAmount, 0.001)

		persisted, err := f.quoteRepo.GetByID(ctx, quote.ID)
		require.NoError(t, err)
		assert.InDelta(t, 300, persisted.DepositAmount, 0.001)
	})

	t.Run("deposit is re-clamped when the total drops below it", func(t *testing.T) {
		f := newFixture(t)
		quote := createDraftQuote(t, f, []domain.CreateQuoteItemRequest{stableItem(1000)})
		_, err := f.pricing.SetDeposit(ctx, quote.ID, 950)
		require.NoError(t, err)

		tmpl := createTemplate(t, f, "Show discount", domain.DiscountPercentage, domain.ScopeProduct, 10, false)
		updated, err := f.pricing.ApplyTemplates(ctx, quote.ID, []uuid.UUID{tmpl.ID}, asRole(domain.RoleSalesRep))
		require.NoError(t, err)

		assert.InDelta(t, 900, updated.TotalAmount, 0.001)
		assert.InDelta(t, 900, updated.DepositAmount, 0.001)
		assert.Zero(t, updated.BalanceAmount)
	})

	t.Run("untouched quotes still get the default split", func(t *testing.T) {
		f := newFixture(t)
		quote := createDraftQuote(t, f, []domain.CreateQuoteItemRequest{stableItem(1000)})

		tmpl := createTemplate(t, f, "Show discount", domain.DiscountPercentage, domain.ScopeProduct, 10, false)
		updated, err := f.pricing.ApplyTemplates(ctx, quote.ID, []uuid.UUID{tmpl.ID}, asRole(domain.RoleSalesRep))
		require.NoError(t, err)

		assert.InDelta(t, 450, updated.DepositAmount, 0.001)
	})
}

func TestDiscountRequestLifecycle(t *testing.T) {
	ctx := context.Background()

	newRequest := func(t *testing.T, f *fixture, quoteID uuid.UUID) *domain.DiscountRequest {
		t.Helper()
		request, err := f.pricing.CreateDiscountRequest(ctx, quoteID, asRole(domain.RoleSalesRep), &domain.CreateDiscountRequestRequest{
			Type:   domain.DiscountPercentage,
			Scope:  domain.ScopeProduct,
			Value:  15,
			Reason: "Repeat customer asking for a loyalty discount",
		})
		require.NoError(t, err)
		return request
	}

	t.Run("approval applies the discount", func(t *testing.T) {
		f := newFixture(t)
		quote := createDraftQuote(t, f, []domain.CreateQuoteItemRequest{stableItem(1000)})
		request := newRequest(t, f, quote.ID)

		reviewed, err := f.pricing.ReviewDiscountRequest(ctx, request.ID, asRole(domain.RoleDirector), true, "Fair ask")
		require.NoError(t, err)
		assert.Equal(t, domain.DiscountRequestApproved, reviewed.Status)

		updated, err := f.quoteRepo.GetByID(ctx, quote.ID)
		require.NoError(t, err)
		assert.InDelta(t, 850, updated.TotalAmount, 0.001)
	})

	t.Run("rejection leaves totals untouched", func(t *testing.T) {
		f := newFixture(t)
		quote := createDraftQuote(t, f, []domain.CreateQuoteItemRequest{stableItem(1000)})
		request := newRequest(t, f, quote.ID)

		reviewed, err := f.pricing.ReviewDiscountRequest(ctx, request.ID, asRole(domain.RoleDirector), false, "Margin is too thin")
		require.NoError(t, err)
		assert.Equal(t, domain.DiscountRequestRejected, reviewed.Status)
		assert.Equal(t, "Margin is too thin", reviewed.ReviewNotes)

		updated, err := f.quoteRepo.GetByID(ctx, quote.ID)
		require.NoError(t, err)
		assert.InDelta(t, 1000, updated.TotalAmount, 0.001)
	})

	t.Run("requester cannot review their own request", func(t *testing.T) {
		f := newFixture(t)
		quote := createDraftQuote(t, f, []domain.CreateQuoteItemRequest{stableItem(1000)})

		requester := asRole(domain.RoleSalesManager)
		request, err := f.pricing.CreateDiscountRequest(ctx, quote.ID, requester, &domain.CreateDiscountRequestRequest{
			Type:   domain.DiscountPercentage,
			Scope:  domain.ScopeQuote,
			Value:  5,
			Reason: "testing",
		})
		require.NoError(t, err)

		_, err = f.pricing.ReviewDiscountRequest(ctx, request.ID, requester, true, "")
		assert.ErrorIs(t, err, service.ErrSelfReview)
	})

	t.Run("only a director can review", func(t *testing.T) {
		f := newFixture(t)
		quote := createDraftQuote(t, f, []domain.CreateQuoteItemRequest{stableItem(1000)})
		request := newRequest(t, f, quote.ID)

		for _, role := range []domain.SalesRole{domain.RoleCloser, domain.RoleSalesManager} {
			_, err := f.pricing.ReviewDiscountRequest(ctx, request.ID, asRole(role), true, "")
			assert.ErrorIs(t, err, service.ErrPermissionDenied)
		}

		reloaded, err := f.requestRepo.GetByID(ctx, request.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.DiscountRequestPending, reloaded.Status)
	})

	t.Run("one pending request per quote", func(t *testing.T) {
		f := newFixture(t)
		quote := createDraftQuote(t, f, []domain.CreateQuoteItemRequest{stableItem(1000)})
		newRequest(t, f, quote.ID)

		_, err := f.pricing.CreateDiscountRequest(ctx, quote.ID, asRole(domain.RoleSalesRep), &domain.CreateDiscountRequestRequest{
			Type:   domain.DiscountFixedAmount,
			Scope:  domain.ScopeQuote,
			Value:  50,
			Reason: "another one",
		})
		assert.ErrorIs(t, err, service.ErrPendingDiscountRequestExists)
	})

	t.Run("decided requests cannot be re-reviewed", func(t *testing.T) {
		f := newFixture(t)
		quote := createDraftQuote(t, f, []domain.CreateQuoteItemRequest{stableItem(1000)})
		request := newRequest(t, f, quote.ID)

		_, err := f.pricing.ReviewDiscountRequest(ctx, request.ID, asRole(domain.RoleDirector), false, "")
		require.NoError(t, err)

		_, err = f.pricing.ReviewDiscountRequest(ctx, request.ID, asRole(domain.RoleDirector), true, "")
		assert.ErrorIs(t, err, service.ErrRequestNotPending)
	})

	t.Run("only draft quotes accept requests", func(t *testing.T) {
		f := newFixture(t)
		quote := createDraftQuote(t, f, []domain.CreateQuoteItemRequest{stableItem(1000)})
		require.NoError(t, f.db.Model(&domain.Quote{}).Where("id = ?", quote.ID).Update("status", domain.QuoteStatusSent).Error)

		_, err := f.pricing.CreateDiscountRequest(ctx, quote.ID, asRole(domain.RoleSalesRep), &domain.CreateDiscountRequestRequest{
			Type:   domain.DiscountPercentage,
			Scope:  domain.ScopeProduct,
			Value:  10,
			Reason: "too late",
		})
		assert.ErrorIs(t, err, service.ErrQuoteNotDraft)
	})
}
