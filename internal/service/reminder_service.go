package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hartwood-buildings/crm-api/internal/config"
	"github.com/hartwood-buildings/crm-api/internal/domain"
	"github.com/hartwood-buildings/crm-api/internal/repository"
	"go.uber.org/zap"
)

// Hardcoded staleness checks for open opportunities. Rule-driven checks use
// "rule:<id>" so each rule dedups against its own reminders.
const (
	reminderNextActionOverdue = "opportunity_next_action_overdue"
	reminderCloseDateOverdue  = "opportunity_close_date_overdue"
	reminderQuoteFollowUp     = "opportunity_quote_follow_up"
	reminderNoActivity        = "opportunity_no_activity"
)

// SweepResult summarises one reminder sweep run.
type SweepResult struct {
	Created int
	Updated int
	Skipped int
	Errors  int
}

// ReminderService runs the staleness sweep: three detection passes over
// leads, quotes and open opportunities, each feeding the same idempotent
// upsert. One bad entity never aborts the rest of the sweep.
type ReminderService struct {
	reminderRepo *repository.ReminderRepository
	ruleRepo     *repository.ReminderRuleRepository
	leadRepo     *repository.LeadRepository
	quoteRepo    *repository.QuoteRepository
	activityRepo *repository.ActivityRepository
	userRepo     *repository.UserRepository
	pipeline     *config.PipelineConfig
	logger       *zap.Logger
	now          func() time.Time
}

// NewReminderService creates a new ReminderService
func NewReminderService(
	reminderRepo *repository.ReminderRepository,
	ruleRepo *repository.ReminderRuleRepository,
	leadRepo *repository.LeadRepository,
	quoteRepo *repository.QuoteRepository,
	activityRepo *repository.ActivityRepository,
	userRepo *repository.UserRepository,
	pipeline *config.PipelineConfig,
	logger *zap.Logger,
	now func() time.Time,
) *ReminderService {
	if now == nil {
		now = time.Now
	}
	return &ReminderService{
		reminderRepo: reminderRepo,
		ruleRepo:     ruleRepo,
		leadRepo:     leadRepo,
		quoteRepo:    quoteRepo,
		activityRepo: activityRepo,
		userRepo:     userRepo,
		pipeline:     pipeline,
		logger:       logger,
		now:          now,
	}
}

// Sweep runs all three detection passes and upserts the resulting
// reminders. Safe to run repeatedly; reruns with no new staleness are
// no-ops.
func (s *ReminderService) Sweep(ctx context.Context) (*SweepResult, error) {
	result := &SweepResult{}
	fallback := s.resolveFallbackUser(ctx)

	s.sweepLeads(ctx, result, fallback)
	s.sweepQuotes(ctx, result, fallback)
	s.sweepOpportunities(ctx, result, fallback)

	s.logger.Info("reminder sweep finished",
		zap.Int("created", result.Created),
		zap.Int("updated", result.Updated),
		zap.Int("skipped", result.Skipped),
		zap.Int("errors", result.Errors))

	return result, nil
}

// resolveFallbackUser looks up the configured catch-all assignee. Returns
// nil when the account does not exist; affected entities are then skipped.
func (s *ReminderService) resolveFallbackUser(ctx context.Context) *domain.User {
	user, err := s.userRepo.GetByEmail(ctx, s.pipeline.FallbackAssigneeEmail)
	if err != nil {
		s.logger.Warn("fallback reminder assignee not found",
			zap.String("email", s.pipeline.FallbackAssigneeEmail),
			zap.Error(err))
		return nil
	}
	return user
}

// sweepLeads evaluates every active lead rule against the leads matching
// its status filter.
func (s *ReminderService) sweepLeads(ctx context.Context, result *SweepResult, fallback *domain.User) {
	rules, err := s.loadRules(ctx, domain.ReminderEntityLead)
	if err != nil {
		s.logger.Error("failed to load lead reminder rules", zap.Error(err))
		result.Errors++
		return
	}

	for _, rule := range rules {
		leads, err := s.leadRepo.ListByStatuses(ctx, []domain.LeadStatus{domain.LeadStatus(rule.StatusFilter)})
		if err != nil {
			s.logger.Error("lead rule query failed",
				zap.String("rule", rule.Name),
				zap.Error(err))
			result.Errors++
			continue
		}

		for i := range leads {
			lead := &leads[i]
			daysStale, ok := s.leadStaleness(ctx, lead, rule.CheckType)
			if !ok || daysStale < rule.ThresholdDays {
				continue
			}

			assignee := s.resolveLeadAssignee(lead, fallback)
			if assignee == uuid.Nil {
				result.Skipped++
				continue
			}

			s.upsert(ctx, result, &domain.Reminder{
				ReminderType:    ruleReminderType(&rule),
				LeadID:          &lead.ID,
				CustomerID:      lead.CustomerID,
				AssignedToID:    assignee,
				Priority:        escalatePriority(rule.Priority, daysStale),
				DaysStale:       daysStale,
				Message:         fmt.Sprintf("%s: %s has been stale for %d days", rule.Name, lead.ContactName, daysStale),
				SuggestedAction: rule.SuggestedAction,
			})
		}
	}
}

// leadStaleness computes days stale for a lead under a rule's check type.
func (s *ReminderService) leadStaleness(ctx context.Context, lead *domain.Lead, checkType domain.ReminderCheckType) (int, bool) {
	now := s.now().UTC()
	switch checkType {
	case domain.CheckLastActivity:
		since := lead.UpdatedAt
		if since.IsZero() {
			since = lead.CreatedAt
		}
		latest, err := s.activityRepo.LatestForLead(ctx, lead.ID)
		if err != nil {
			s.logger.Warn("failed to load lead activity",
				zap.String("lead_id", lead.ID.String()),
				zap.Error(err))
			return 0, false
		}
		if latest != nil {
			since = *latest
		}
		return daysBetween(since, now), true
	case domain.CheckStatusDuration:
		return daysBetween(lead.UpdatedAt, now), true
	}
	return 0, false
}

// sweepQuotes evaluates every active quote rule against the quotes matching
// its status filter.
func (s *ReminderService) sweepQuotes(ctx context.Context, result *SweepResult, fallback *domain.User) {
	rules, err := s.loadRules(ctx, domain.ReminderEntityQuote)
	if err != nil {
		s.logger.Error("failed to load quote reminder rules", zap.Error(err))
		result.Errors++
		return
	}

	for _, rule := range rules {
		quotes, err := s.quoteRepo.ListByStatuses(ctx, []domain.QuoteStatus{domain.QuoteStatus(rule.StatusFilter)})
		if err != nil {
			s.logger.Error("quote rule query failed",
				zap.String("rule", rule.Name),
				zap.Error(err))
			result.Errors++
			continue
		}

		for i := range quotes {
			quote := &quotes[i]
			daysStale, ok := s.quoteStaleness(quote, rule.CheckType)
			if !ok || daysStale < rule.ThresholdDays {
				continue
			}

			assignee := s.resolveQuoteAssignee(quote, fallback)
			if assignee == uuid.Nil {
				result.Skipped++
				continue
			}

			customerID := quote.CustomerID
			s.upsert(ctx, result, &domain.Reminder{
				ReminderType:    ruleReminderType(&rule),
				QuoteID:         &quote.ID,
				CustomerID:      &customerID,
				AssignedToID:    assignee,
				Priority:        escalatePriority(rule.Priority, daysStale),
				DaysStale:       daysStale,
				Message:         fmt.Sprintf("%s: quote %s has been stale for %d days", rule.Name, quote.QuoteNumber, daysStale),
				SuggestedAction: rule.SuggestedAction,
			})
		}
	}
}

// quoteStaleness computes days stale for a quote under a rule's check type.
// Returns false when the check does not apply to this quote's state.
func (s *ReminderService) quoteStaleness(quote *domain.Quote, checkType domain.ReminderCheckType) (int, bool) {
	now := s.now().UTC()
	switch checkType {
	case domain.CheckSentDate:
		if quote.SentAt == nil {
			return 0, false
		}
		return daysBetween(*quote.SentAt, now), true
	case domain.CheckValidUntil:
		if quote.ValidUntil == nil || !quote.ValidUntil.Before(now) {
			return 0, false
		}
		return daysBetween(*quote.ValidUntil, now), true
	case domain.CheckStatusDuration:
		return daysBetween(quote.UpdatedAt, now), true
	case domain.CheckSentNotOpened:
		if quote.SentAt == nil {
			return 0, false
		}
		for i := range quote.Emails {
			if quote.Emails[i].OpenedAt != nil {
				return 0, false
			}
		}
		return daysBetween(*quote.SentAt, now), true
	case domain.CheckOpenedNoReply:
		if quote.Status != domain.QuoteStatusSent && quote.Status != domain.QuoteStatusViewed {
			return 0, false
		}
		if quote.ViewedAt == nil {
			return 0, false
		}
		return daysBetween(*quote.ViewedAt, now), true
	}
	return 0, false
}

// sweepOpportunities runs the hardcoded checks over open opportunities.
func (s *ReminderService) sweepOpportunities(ctx context.Context, result *SweepResult, fallback *domain.User) {
	quotes, err := s.quoteRepo.ListOpenOpportunities(ctx)
	if err != nil {
		s.logger.Error("failed to load open opportunities", zap.Error(err))
		result.Errors++
		return
	}

	now := s.now().UTC()
	for i := range quotes {
		quote := &quotes[i]
		assignee := s.resolveQuoteAssignee(quote, fallback)
		if assignee == uuid.Nil {
			result.Skipped++
			continue
		}
		customerID := quote.CustomerID

		emit := func(reminderType string, basePriority domain.ReminderPriority, daysStale int, message, action string) {
			s.upsert(ctx, result, &domain.Reminder{
				ReminderType:    reminderType,
				QuoteID:         &quote.ID,
				CustomerID:      &customerID,
				AssignedToID:    assignee,
				Priority:        escalatePriority(basePriority, daysStale),
				DaysStale:       daysStale,
				Message:         message,
				SuggestedAction: action,
			})
		}

		if quote.NextActionDueDate != nil && quote.NextActionDueDate.Before(now) {
			days := daysBetween(*quote.NextActionDueDate, now)
			emit(reminderNextActionOverdue, domain.PriorityHigh, days,
				fmt.Sprintf("Next action on %s is %d days overdue", quote.QuoteNumber, days),
				quote.NextAction)
		}

		if quote.ExpectedCloseDate != nil && quote.ExpectedCloseDate.Before(now) {
			days := daysBetween(*quote.ExpectedCloseDate, now)
			emit(reminderCloseDateOverdue, domain.PriorityMedium, days,
				fmt.Sprintf("Expected close date on %s passed %d days ago", quote.QuoteNumber, days),
				"Update the expected close date or close the opportunity")
		}

		if quote.OpportunityStage != nil && *quote.OpportunityStage == domain.OpportunityQuoteSent && quote.SentAt != nil {
			days := daysBetween(*quote.SentAt, now)
			switch {
			case days >= 10:
				emit(reminderQuoteFollowUp, domain.PriorityHigh, days,
					fmt.Sprintf("Quote %s sent %d days ago with no decision", quote.QuoteNumber, days),
					"Escalate to the sales manager")
			case days >= 5:
				emit(reminderQuoteFollowUp, domain.PriorityMedium, days,
					fmt.Sprintf("Quote %s sent %d days ago, follow up firmly", quote.QuoteNumber, days),
					"Call the customer to discuss the quote")
			case days >= 2:
				emit(reminderQuoteFollowUp, domain.PriorityLow, days,
					fmt.Sprintf("Quote %s sent %d days ago", quote.QuoteNumber, days),
					"Send a gentle nudge")
			}
		}

		days, ok := s.opportunityActivityStaleness(ctx, quote)
		if ok && days >= 7 {
			emit(reminderNoActivity, domain.PriorityMedium, days,
				fmt.Sprintf("No activity on opportunity %s for %d days", quote.QuoteNumber, days),
				"Log a touchpoint or update the stage")
		}
	}
}

// opportunityActivityStaleness is days since the customer's last activity,
// falling back to the quote's creation when there is none.
func (s *ReminderService) opportunityActivityStaleness(ctx context.Context, quote *domain.Quote) (int, bool) {
	latest, err := s.activityRepo.LatestForCustomer(ctx, quote.CustomerID)
	if err != nil {
		s.logger.Warn("failed to load opportunity activity",
			zap.String("quote_id", quote.ID.String()),
			zap.Error(err))
		return 0, false
	}
	since := quote.CreatedAt
	if latest != nil {
		since = *latest
	}
	return daysBetween(since, s.now().UTC()), true
}

// loadRules returns the active rules for an entity type, dropping any that
// fail validation.
func (s *ReminderService) loadRules(ctx context.Context, entityType domain.ReminderEntityType) ([]domain.ReminderRule, error) {
	rules, err := s.ruleRepo.ListActiveByEntityType(ctx, entityType)
	if err != nil {
		return nil, err
	}
	valid := rules[:0]
	for _, rule := range rules {
		if err := rule.Validate(); err != nil {
			s.logger.Warn("rejecting invalid reminder rule",
				zap.String("rule", rule.Name),
				zap.Error(err))
			continue
		}
		valid = append(valid, rule)
	}
	return valid, nil
}

// resolveLeadAssignee picks the lead's assignee, falling back to the
// configured catch-all user. uuid.Nil means unresolvable.
func (s *ReminderService) resolveLeadAssignee(lead *domain.Lead, fallback *domain.User) uuid.UUID {
	if lead.AssignedToID != nil {
		return *lead.AssignedToID
	}
	if fallback != nil {
		return fallback.ID
	}
	return uuid.Nil
}

// resolveQuoteAssignee walks owner, then creator, then the fallback user.
func (s *ReminderService) resolveQuoteAssignee(quote *domain.Quote, fallback *domain.User) uuid.UUID {
	if quote.OwnerID != nil {
		return *quote.OwnerID
	}
	if quote.CreatedByID != uuid.Nil {
		return quote.CreatedByID
	}
	if fallback != nil {
		return fallback.ID
	}
	return uuid.Nil
}

// upsert applies the idempotent write rule: refresh the active reminder for
// the same (entity, type) only when staleness strictly increased, otherwise
// insert a fresh row. Dismissed reminders are never resurrected.
func (s *ReminderService) upsert(ctx context.Context, result *SweepResult, detected *domain.Reminder) {
	var existing *domain.Reminder
	var err error
	if detected.LeadID != nil {
		existing, err = s.reminderRepo.FindActiveForLead(ctx, *detected.LeadID, detected.ReminderType)
	} else if detected.QuoteID != nil {
		existing, err = s.reminderRepo.FindActiveForQuote(ctx, *detected.QuoteID, detected.ReminderType)
	}
	if err != nil {
		s.logger.Warn("reminder lookup failed",
			zap.String("reminder_type", detected.ReminderType),
			zap.Error(err))
		result.Errors++
		return
	}

	if existing != nil {
		if detected.DaysStale <= existing.DaysStale {
			return
		}
		existing.DaysStale = detected.DaysStale
		existing.Priority = detected.Priority
		existing.Message = detected.Message
		existing.SuggestedAction = detected.SuggestedAction
		if err := s.reminderRepo.Update(ctx, existing); err != nil {
			s.logger.Warn("reminder update failed",
				zap.String("reminder_id", existing.ID.String()),
				zap.Error(err))
			result.Errors++
			return
		}
		result.Updated++
		return
	}

	if err := s.reminderRepo.Create(ctx, detected); err != nil {
		s.logger.Warn("reminder insert failed",
			zap.String("reminder_type", detected.ReminderType),
			zap.Error(err))
		result.Errors++
		return
	}
	result.Created++
}

// ListReminders returns a page of reminders matching the filter.
func (s *ReminderService) ListReminders(ctx context.Context, page, pageSize int, filter repository.ReminderFilter) ([]domain.Reminder, int64, error) {
	return s.reminderRepo.List(ctx, page, pageSize, filter)
}

// Dismiss hides a reminder permanently; the next detected staleness after
// dismissal creates a fresh row.
func (s *ReminderService) Dismiss(ctx context.Context, id uuid.UUID) error {
	return s.reminderRepo.Dismiss(ctx, id, s.now().UTC())
}

// MarkActedUpon records that the reminder's suggested action was taken.
func (s *ReminderService) MarkActedUpon(ctx context.Context, id uuid.UUID) error {
	return s.reminderRepo.MarkActedUpon(ctx, id, s.now().UTC())
}

// CreateRule persists a new reminder rule after validating it.
func (s *ReminderService) CreateRule(ctx context.Context, req *domain.CreateReminderRuleRequest) (*domain.ReminderRule, error) {
	rule := &domain.ReminderRule{
		Name:            req.Name,
		EntityType:      req.EntityType,
		StatusFilter:    req.StatusFilter,
		CheckType:       req.CheckType,
		ThresholdDays:   req.ThresholdDays,
		Priority:        req.Priority,
		SuggestedAction: req.SuggestedAction,
		IsActive:        true,
	}
	if err := rule.Validate(); err != nil {
		return nil, err
	}
	if err := s.ruleRepo.Create(ctx, rule); err != nil {
		return nil, err
	}
	return rule, nil
}

// ListRules returns all reminder rules, active and inactive.
func (s *ReminderService) ListRules(ctx context.Context) ([]domain.ReminderRule, error) {
	return s.ruleRepo.List(ctx)
}

// ruleReminderType keys rule-driven reminders by rule id so each rule
// dedups against its own rows.
func ruleReminderType(rule *domain.ReminderRule) string {
	return "rule:" + rule.ID.String()
}

// escalatePriority raises the base priority as staleness grows. Monotonic
// in daysStale.
func escalatePriority(base domain.ReminderPriority, daysStale int) domain.ReminderPriority {
	switch {
	case daysStale >= 14:
		return domain.PriorityUrgent
	case daysStale >= 10:
		return base.Bump()
	case daysStale >= 7 && base == domain.PriorityLow:
		return domain.PriorityMedium
	}
	return base
}

// daysBetween is whole days from t to now, never negative.
func daysBetween(t, now time.Time) int {
	if t.After(now) {
		return 0
	}
	return int(now.Sub(t).Hours() / 24)
}
