package events

import "github.com/google/uuid"

// Event names used for subscription.
const (
	EventCustomerQuoteEligible = "customer.quote_eligible"
	EventQuoteCreated          = "quote.created"
	EventQuoteDecided          = "quote.decided"
	EventQuoteViewed           = "quote.viewed"
	EventWebsiteVisit          = "customer.website_visit"
)

// CustomerQuoteEligible fires when the quote-prerequisite check newly passes
// for a customer, after a customer profile or activity mutation.
type CustomerQuoteEligible struct {
	CustomerID uuid.UUID
}

func (CustomerQuoteEligible) Name() string { return EventCustomerQuoteEligible }

// QuoteCreated fires after a quote is persisted.
type QuoteCreated struct {
	QuoteID    uuid.UUID
	CustomerID uuid.UUID
	LeadID     *uuid.UUID
}

func (QuoteCreated) Name() string { return EventQuoteCreated }

// QuoteDecided fires when a quote reaches accepted or rejected.
type QuoteDecided struct {
	QuoteID    uuid.UUID
	CustomerID uuid.UUID
	LeadID     *uuid.UUID
	Accepted   bool
}

func (QuoteDecided) Name() string { return EventQuoteDecided }

// QuoteViewed fires on every public quote view or PDF download.
type QuoteViewed struct {
	QuoteID uuid.UUID
}

func (QuoteViewed) Name() string { return EventQuoteViewed }

// WebsiteVisit fires when the tracking pixel reports a site visit by a
// known customer.
type WebsiteVisit struct {
	CustomerID uuid.UUID
}

func (WebsiteVisit) Name() string { return EventWebsiteVisit }
