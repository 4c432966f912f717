package service_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hartwood-buildings/crm-api/internal/auth"
	"github.com/hartwood-buildings/crm-api/internal/config"
	"github.com/hartwood-buildings/crm-api/internal/domain"
	"github.com/hartwood-buildings/crm-api/internal/events"
	"github.com/hartwood-buildings/crm-api/internal/repository"
	"github.com/hartwood-buildings/crm-api/internal/service"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/hartwood-buildings/crm-api/internal/testutil"
)

// testClock is a settable clock injected into every service under test.
type testClock struct {
	current time.Time
}

func (c *testClock) Now() time.Time { return c.current }

func (c *testClock) Advance(d time.Duration) { c.current = c.current.Add(d) }

// fixture wires the full service graph against an isolated test database,
// mirroring the wiring in cmd/api.
type fixture struct {
	db    *gorm.DB
	bus   *events.Bus
	clock *testClock

	leadRepo     *repository.LeadRepository
	historyRepo  *repository.LeadStatusHistoryRepository
	customerRepo *repository.CustomerRepository
	activityRepo *repository.ActivityRepository
	quoteRepo    *repository.QuoteRepository
	emailRepo    *repository.QuoteEmailRepository
	templateRepo *repository.DiscountTemplateRepository
	requestRepo  *repository.DiscountRequestRepository
	reminderRepo *repository.ReminderRepository
	ruleRepo     *repository.ReminderRuleRepository
	userRepo     *repository.UserRepository

	numbers     *service.NumberSequenceService
	workflow    *service.LeadWorkflowService
	pricing     *service.QuotePricingService
	temperature *service.TemperatureService
	quotes      *service.QuoteService
	reminders   *service.ReminderService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()
	clock := &testClock{current: time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)}
	bus := events.NewBus(logger)

	pipeline := &config.PipelineConfig{
		QuoteValidityDays:     30,
		DefaultDepositPercent: 50,
		TemperatureWarmDays:   14,
		TemperatureColdDays:   30,
		FallbackAssigneeEmail: "sales@hartwoodbuildings.co.uk",
	}

	f := &fixture{
		db:           db,
		bus:          bus,
		clock:        clock,
		leadRepo:     repository.NewLeadRepository(db),
		historyRepo:  repository.NewLeadStatusHistoryRepository(db),
		customerRepo: repository.NewCustomerRepository(db),
		activityRepo: repository.NewActivityRepository(db),
		quoteRepo:    repository.NewQuoteRepository(db),
		emailRepo:    repository.NewQuoteEmailRepository(db),
		templateRepo: repository.NewDiscountTemplateRepository(db),
		requestRepo:  repository.NewDiscountRequestRepository(db),
		reminderRepo: repository.NewReminderRepository(db),
		ruleRepo:     repository.NewReminderRuleRepository(db),
		userRepo:     repository.NewUserRepository(db),
	}

	numberSequenceRepo := repository.NewNumberSequenceRepository(db)
	f.numbers = service.NewNumberSequenceService(numberSequenceRepo, logger, clock.Now)
	f.workflow = service.NewLeadWorkflowService(db, f.leadRepo, f.historyRepo, f.customerRepo, f.activityRepo, f.quoteRepo, f.numbers, bus, logger, clock.Now)
	f.pricing = service.NewQuotePricingService(db, f.quoteRepo, f.templateRepo, f.requestRepo, pipeline, logger, clock.Now)
	f.temperature = service.NewTemperatureService(f.quoteRepo, bus, pipeline, logger, clock.Now)
	f.quotes = service.NewQuoteService(db, f.quoteRepo, f.emailRepo, f.numbers, f.pricing, f.temperature, bus, pipeline, logger, clock.Now)
	f.reminders = service.NewReminderService(f.reminderRepo, f.ruleRepo, f.leadRepo, f.quoteRepo, f.activityRepo, f.userRepo, pipeline, logger, clock.Now)

	return f
}

// asRole builds an authenticated actor for service calls.
func asRole(role domain.SalesRole) *auth.UserContext {
	return &auth.UserContext{
		UserID:      uuid.New(),
		DisplayName: "Test " + string(role),
		Email:       string(role) + "@hartwoodbuildings.co.uk",
		Role:        role,
	}
}
