package domain

import "time"

// statusSet is a small set type for transition targets.
type statusSet map[LeadStatus]struct{}

func newStatusSet(statuses ...LeadStatus) statusSet {
	s := make(statusSet, len(statuses))
	for _, st := range statuses {
		s[st] = struct{}{}
	}
	return s
}

// allowedTransitions is the static per-role workflow table, built once and
// never mutated. Sales reps walk the pipeline one step at a time, managers
// may additionally skip early stages and close, closers only work the late
// pipeline. Directors use the override path for anything outside this table.
var allowedTransitions = map[SalesRole]map[LeadStatus]statusSet{
	RoleSalesRep: {
		LeadStatusNew:              newStatusSet(LeadStatusContactAttempted, LeadStatusLost),
		LeadStatusContactAttempted: newStatusSet(LeadStatusEngaged, LeadStatusLost),
		LeadStatusEngaged:          newStatusSet(LeadStatusQualified, LeadStatusLost),
		LeadStatusQualified:        newStatusSet(LeadStatusLost),
		LeadStatusQuoted:           newStatusSet(LeadStatusLost),
	},
	RoleSalesManager: {
		LeadStatusNew:              newStatusSet(LeadStatusContactAttempted, LeadStatusEngaged, LeadStatusLost),
		LeadStatusContactAttempted: newStatusSet(LeadStatusEngaged, LeadStatusQualified, LeadStatusLost),
		LeadStatusEngaged:          newStatusSet(LeadStatusQualified, LeadStatusLost),
		LeadStatusQualified:        newStatusSet(LeadStatusQuoted, LeadStatusLost),
		LeadStatusQuoted:           newStatusSet(LeadStatusWon, LeadStatusLost),
	},
	RoleCloser: {
		LeadStatusQualified: newStatusSet(LeadStatusQuoted),
		LeadStatusQuoted:    newStatusSet(LeadStatusWon, LeadStatusLost),
	},
	// Directors share the manager table for plain transitions; the override
	// path covers everything else.
	RoleDirector: {
		LeadStatusNew:              newStatusSet(LeadStatusContactAttempted, LeadStatusEngaged, LeadStatusLost),
		LeadStatusContactAttempted: newStatusSet(LeadStatusEngaged, LeadStatusQualified, LeadStatusLost),
		LeadStatusEngaged:          newStatusSet(LeadStatusQualified, LeadStatusLost),
		LeadStatusQualified:        newStatusSet(LeadStatusQuoted, LeadStatusLost),
		LeadStatusQuoted:           newStatusSet(LeadStatusWon, LeadStatusLost),
	},
}

// IsTransitionAllowed consults the static workflow table. Terminal statuses
// have no outgoing edges for any role.
func IsTransitionAllowed(role SalesRole, from, to LeadStatus) bool {
	if from.IsTerminal() {
		return false
	}
	targets, ok := allowedTransitions[role][from]
	if !ok {
		return false
	}
	_, ok = targets[to]
	return ok
}

// AllowedTargets returns the statuses the role may move a lead to from the
// given status, in pipeline order. Used by the API to drive the UI.
func AllowedTargets(role SalesRole, from LeadStatus) []LeadStatus {
	targets := allowedTransitions[role][from]
	if len(targets) == 0 {
		return nil
	}
	ordered := []LeadStatus{
		LeadStatusContactAttempted, LeadStatusEngaged, LeadStatusQualified,
		LeadStatusQuoted, LeadStatusWon, LeadStatusLost,
	}
	result := make([]LeadStatus, 0, len(targets))
	for _, st := range ordered {
		if _, ok := targets[st]; ok {
			result = append(result, st)
		}
	}
	return result
}

// QuotePrerequisiteFields are the customer profile fields that must be
// populated before a lead may move to quoted. Order matters: failures
// report missing fields in this order.
var QuotePrerequisiteFields = []string{
	"address_line1", "city", "county", "postcode", "email", "phone",
}

// MissingQuoteFields returns the quote-prerequisite fields the customer has
// not filled in, in reporting order. Empty result means the profile is
// complete.
func (c *Customer) MissingQuoteFields() []string {
	values := map[string]string{
		"address_line1": c.AddressLine1,
		"city":          c.City,
		"county":        c.County,
		"postcode":      c.Postcode,
		"email":         c.Email,
		"phone":         c.Phone,
	}
	var missing []string
	for _, field := range QuotePrerequisiteFields {
		if values[field] == "" {
			missing = append(missing, field)
		}
	}
	return missing
}

// SLABadge is the derived response-time indicator shown on lead lists.
type SLABadge string

const (
	SLABadgeNone  SLABadge = ""
	SLABadgeRed   SLABadge = "red"
	SLABadgeAmber SLABadge = "amber"
)

const (
	// NewLeadResponseSLA is how long a new lead may sit with no activity at
	// all before it is flagged red.
	NewLeadResponseSLA = 15 * time.Minute
	// EngagementSLA is how long a contact-attempted lead may go without an
	// engagement-proof activity before it is flagged amber.
	EngagementSLA = 48 * time.Hour
)

// ComputeSLABadge derives the badge from the lead's status and activity
// evidence. Pure function of its inputs; it never mutates the lead.
func ComputeSLABadge(lead *Lead, hasAnyActivity, hasEngagementProof bool, now time.Time) SLABadge {
	switch lead.Status {
	case LeadStatusNew:
		if !hasAnyActivity && now.Sub(lead.CreatedAt) > NewLeadResponseSLA {
			return SLABadgeRed
		}
	case LeadStatusContactAttempted:
		if !hasEngagementProof && now.Sub(lead.UpdatedAt) > EngagementSLA {
			return SLABadgeAmber
		}
	}
	return SLABadgeNone
}

// Number prefixes for the PREFIX-YYYY-NNN allocation scheme.
const (
	CustomerNumberPrefix = "HGB"
	QuoteNumberPrefix    = "HGB-Q"
)

// AutoQualifyReason is the override reason recorded when the quote gate
// newly passing auto-promotes engaged leads.
const AutoQualifyReason = "Automatic transition: Quote unlocked"
