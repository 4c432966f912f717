package events

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestPublishDispatchesInSubscriptionOrder(t *testing.T) {
	bus := NewBus(zap.NewNop())

	var calls []string
	bus.Subscribe(EventQuoteCreated, func(ctx context.Context, event Event) error {
		calls = append(calls, "first")
		return nil
	})
	bus.Subscribe(EventQuoteCreated, func(ctx context.Context, event Event) error {
		calls = append(calls, "second")
		return nil
	})

	bus.Publish(context.Background(), QuoteCreated{QuoteID: uuid.New()})

	assert.Equal(t, []string{"first", "second"}, calls)
}

func TestPublishSwallowsHandlerErrors(t *testing.T) {
	bus := NewBus(zap.NewNop())

	var reached bool
	bus.Subscribe(EventQuoteDecided, func(ctx context.Context, event Event) error {
		return errors.New("cascade failed")
	})
	bus.Subscribe(EventQuoteDecided, func(ctx context.Context, event Event) error {
		reached = true
		return nil
	})

	bus.Publish(context.Background(), QuoteDecided{QuoteID: uuid.New(), Accepted: true})

	assert.True(t, reached)
}

func TestPublishWithoutSubscribersIsNoOp(t *testing.T) {
	bus := NewBus(zap.NewNop())
	bus.Publish(context.Background(), WebsiteVisit{CustomerID: uuid.New()})
}

func TestHandlersReceiveTheTypedEvent(t *testing.T) {
	bus := NewBus(zap.NewNop())
	customerID := uuid.New()

	var got CustomerQuoteEligible
	bus.Subscribe(EventCustomerQuoteEligible, func(ctx context.Context, event Event) error {
		got = event.(CustomerQuoteEligible)
		return nil
	})

	bus.Publish(context.Background(), CustomerQuoteEligible{CustomerID: customerID})

	assert.Equal(t, customerID, got.CustomerID)
}
