package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/hartwood-buildings/crm-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateNumbersAreSequential(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	first, err := f.numbers.GenerateCustomerNumber(ctx)
	require.NoError(t, err)
	assert.Equal(t, "HGB-2026-001", first)

	second, err := f.numbers.GenerateCustomerNumber(ctx)
	require.NoError(t, err)
	assert.Equal(t, "HGB-2026-002", second)
}

func TestPrefixesCountIndependently(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	customer, err := f.numbers.GenerateCustomerNumber(ctx)
	require.NoError(t, err)
	assert.Equal(t, "HGB-2026-001", customer)

	quote, err := f.numbers.GenerateQuoteNumber(ctx)
	require.NoError(t, err)
	assert.Equal(t, "HGB-Q-2026-001", quote)

	quote, err = f.numbers.GenerateQuoteNumber(ctx)
	require.NoError(t, err)
	assert.Equal(t, "HGB-Q-2026-002", quote)

	// The quote counter never touched the customer counter.
	customer, err = f.numbers.GenerateCustomerNumber(ctx)
	require.NoError(t, err)
	assert.Equal(t, "HGB-2026-002", customer)
}

func TestSequenceResetsAtYearBoundary(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	number, err := f.numbers.GenerateCustomerNumber(ctx)
	require.NoError(t, err)
	assert.Equal(t, "HGB-2026-001", number)

	f.clock.Advance(200 * 24 * time.Hour) // into 2027

	number, err = f.numbers.GenerateCustomerNumber(ctx)
	require.NoError(t, err)
	assert.Equal(t, "HGB-2027-001", number)
}

func TestGetCurrentSequenceDoesNotIncrement(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	current, err := f.numbers.GetCurrentSequence(ctx, domain.CustomerNumberPrefix, 2026)
	require.NoError(t, err)
	assert.Zero(t, current)

	_, err = f.numbers.GenerateCustomerNumber(ctx)
	require.NoError(t, err)

	current, err = f.numbers.GetCurrentSequence(ctx, domain.CustomerNumberPrefix, 2026)
	require.NoError(t, err)
	assert.Equal(t, 1, current)

	current, err = f.numbers.GetCurrentSequence(ctx, domain.CustomerNumberPrefix, 2026)
	require.NoError(t, err)
	assert.Equal(t, 1, current)
}

func TestInitializeSequence(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	// Seed the counter with the last number used by the previous system.
	require.NoError(t, f.numbers.InitializeSequence(ctx, domain.CustomerNumberPrefix, 2026, 41))

	number, err := f.numbers.GenerateCustomerNumber(ctx)
	require.NoError(t, err)
	assert.Equal(t, "HGB-2026-042", number)

	t.Run("reinitializing never rewinds the counter", func(t *testing.T) {
		require.NoError(t, f.numbers.InitializeSequence(ctx, domain.CustomerNumberPrefix, 2026, 5))

		number, err := f.numbers.GenerateCustomerNumber(ctx)
		require.NoError(t, err)
		assert.Equal(t, "HGB-2026-043", number)
	})
}
