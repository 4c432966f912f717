package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base model with common fields. IDs are assigned in BeforeCreate so the
// same models work against Postgres and the sqlite test databases.
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// BeforeCreate assigns a UUID when none was provided by the caller.
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// SalesRole represents a staff member's role in the sales organisation
type SalesRole string

const (
	RoleSalesRep     SalesRole = "sales_rep"
	RoleSalesManager SalesRole = "sales_manager"
	RoleCloser       SalesRole = "closer"
	RoleDirector     SalesRole = "director"
)

// IsValid checks if the SalesRole is a valid enum value
func (r SalesRole) IsValid() bool {
	switch r {
	case RoleSalesRep, RoleSalesManager, RoleCloser, RoleDirector:
		return true
	}
	return false
}

// CanOverride reports whether the role may use the override transition path.
func (r SalesRole) CanOverride() bool {
	return r == RoleDirector
}

// User represents a staff member
type User struct {
	BaseModel
	Email       string    `gorm:"type:varchar(255);not null;unique"`
	DisplayName string    `gorm:"type:varchar(200);not null;column:display_name"`
	Role        SalesRole `gorm:"type:varchar(50);not null;default:'sales_rep'"`
	IsActive    bool      `gorm:"not null;default:true;column:is_active"`
}

// Customer represents a (prospective) buyer of a building.
// Customers are created when a lead first qualifies, or directly via import,
// and are never hard-deleted.
type Customer struct {
	BaseModel
	CustomerNumber string     `gorm:"type:varchar(50);unique;index;column:customer_number"`
	Name           string     `gorm:"type:varchar(200);not null;index"`
	Email          string     `gorm:"type:varchar(255)"`
	Phone          string     `gorm:"type:varchar(50)"`
	AddressLine1   string     `gorm:"type:varchar(255);column:address_line1"`
	AddressLine2   string     `gorm:"type:varchar(255);column:address_line2"`
	City           string     `gorm:"type:varchar(100)"`
	County         string     `gorm:"type:varchar(100)"`
	Postcode       string     `gorm:"type:varchar(20)"`
	Country        string     `gorm:"type:varchar(100);not null;default:'United Kingdom'"`
	Source         string     `gorm:"type:varchar(100)"`
	Notes          string     `gorm:"type:text"`
	Leads          []Lead     `gorm:"foreignKey:CustomerID"`
	Quotes         []Quote    `gorm:"foreignKey:CustomerID"`
	Activities     []Activity `gorm:"foreignKey:CustomerID"`
}

// LeadStatus represents where a lead sits in the sales pipeline
type LeadStatus string

const (
	LeadStatusNew              LeadStatus = "new"
	LeadStatusContactAttempted LeadStatus = "contact_attempted"
	LeadStatusEngaged          LeadStatus = "engaged"
	LeadStatusQualified        LeadStatus = "qualified"
	LeadStatusQuoted           LeadStatus = "quoted"
	LeadStatusWon              LeadStatus = "won"
	LeadStatusLost             LeadStatus = "lost"
)

// IsValid checks if the LeadStatus is a valid enum value
func (s LeadStatus) IsValid() bool {
	switch s {
	case LeadStatusNew, LeadStatusContactAttempted, LeadStatusEngaged,
		LeadStatusQualified, LeadStatusQuoted, LeadStatusWon, LeadStatusLost:
		return true
	}
	return false
}

// IsTerminal reports whether the status accepts no further transitions.
func (s LeadStatus) IsTerminal() bool {
	return s == LeadStatusWon || s == LeadStatusLost
}

// LeadType classifies what the prospect is asking about
type LeadType string

const (
	LeadTypeStable LeadType = "stable"
	LeadTypeCabin  LeadType = "cabin"
	LeadTypeShed   LeadType = "shed"
	LeadTypeOther  LeadType = "other"
)

// LeadSource records how the prospect reached us
type LeadSource string

const (
	LeadSourceWebsite   LeadSource = "website"
	LeadSourcePhone     LeadSource = "phone"
	LeadSourceMessenger LeadSource = "messenger"
	LeadSourceShowSite  LeadSource = "show_site"
	LeadSourceReferral  LeadSource = "referral"
	LeadSourceOther     LeadSource = "other"
)

// Lead represents a prospect working through the pipeline. The contact
// fields seed the Customer record created at qualification. Leads are never
// deleted; lost is terminal but retained for reporting.
type Lead struct {
	BaseModel
	ContactName  string     `gorm:"type:varchar(200);not null;column:contact_name"`
	ContactEmail string     `gorm:"type:varchar(255);column:contact_email"`
	ContactPhone string     `gorm:"type:varchar(50);column:contact_phone"`
	Status       LeadStatus `gorm:"type:varchar(50);not null;default:'new';index"`
	LeadType     LeadType   `gorm:"type:varchar(50);not null;default:'other';column:lead_type"`
	LeadSource   LeadSource `gorm:"type:varchar(50);not null;default:'other';column:lead_source"`
	AssignedToID *uuid.UUID `gorm:"type:uuid;index;column:assigned_to_id"`
	AssignedTo   *User      `gorm:"foreignKey:AssignedToID"`
	CustomerID   *uuid.UUID `gorm:"type:uuid;index;column:customer_id"`
	Customer     *Customer  `gorm:"foreignKey:CustomerID"`
	Notes        string     `gorm:"type:text"`
	LostReason   string     `gorm:"type:varchar(500);column:lost_reason"`
}

// LeadStatusHistory tracks lead status changes for audit purposes.
// Append-only: rows are never updated or deleted.
type LeadStatusHistory struct {
	ID             uuid.UUID   `gorm:"type:uuid;primary_key"`
	LeadID         uuid.UUID   `gorm:"type:uuid;not null;index;column:lead_id"`
	Lead           *Lead       `gorm:"foreignKey:LeadID"`
	FromStatus     *LeadStatus `gorm:"type:varchar(50);column:from_status"`
	ToStatus       LeadStatus  `gorm:"type:varchar(50);not null;column:to_status"`
	ChangedByID    uuid.UUID   `gorm:"type:uuid;column:changed_by_id"`
	ChangedByName  string      `gorm:"type:varchar(200);column:changed_by_name"`
	OverrideReason string      `gorm:"type:varchar(500);column:override_reason"`
	ChangedAt      time.Time   `gorm:"not null;default:CURRENT_TIMESTAMP;column:changed_at"`
}

// TableName overrides the default table name
func (LeadStatusHistory) TableName() string {
	return "lead_status_history"
}

// BeforeCreate assigns a UUID when none was provided by the caller.
func (h *LeadStatusHistory) BeforeCreate(tx *gorm.DB) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	return nil
}

// ActivityType represents the type of a customer-facing event
type ActivityType string

const (
	ActivityEmailSent         ActivityType = "email_sent"
	ActivityEmailReceived     ActivityType = "email_received"
	ActivitySMSSent           ActivityType = "sms_sent"
	ActivitySMSReceived       ActivityType = "sms_received"
	ActivityWhatsAppReceived  ActivityType = "whatsapp_received"
	ActivityLiveCall          ActivityType = "live_call"
	ActivityCallAttempted     ActivityType = "call_attempted"
	ActivityMeeting           ActivityType = "meeting"
	ActivityNote              ActivityType = "note"
	ActivitySystem            ActivityType = "system"
	ActivityMessengerReceived ActivityType = "messenger_received"
)

// IsValid checks if the ActivityType is a valid enum value
func (at ActivityType) IsValid() bool {
	switch at {
	case ActivityEmailSent, ActivityEmailReceived, ActivitySMSSent, ActivitySMSReceived,
		ActivityWhatsAppReceived, ActivityLiveCall, ActivityCallAttempted,
		ActivityMeeting, ActivityNote, ActivitySystem, ActivityMessengerReceived:
		return true
	}
	return false
}

// IsEngagementProof reports whether the activity type counts as evidence of
// genuine two-way contact with the customer.
func (at ActivityType) IsEngagementProof() bool {
	switch at {
	case ActivitySMSReceived, ActivityEmailReceived, ActivityEmailSent,
		ActivityWhatsAppReceived, ActivityLiveCall:
		return true
	}
	return false
}

// Activity represents an immutable customer-facing event log entry
type Activity struct {
	ID           uuid.UUID    `gorm:"type:uuid;primary_key"`
	CustomerID   uuid.UUID    `gorm:"type:uuid;not null;index;column:customer_id"`
	Customer     *Customer    `gorm:"foreignKey:CustomerID"`
	LeadID       *uuid.UUID   `gorm:"type:uuid;index;column:lead_id"`
	ActivityType ActivityType `gorm:"type:varchar(50);not null;column:activity_type"`
	Notes        string       `gorm:"type:text"`
	CreatorID    uuid.UUID    `gorm:"type:uuid;column:creator_id"`
	CreatorName  string       `gorm:"type:varchar(200);column:creator_name"`
	OccurredAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP;index;column:occurred_at"`
	CreatedAt    time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// BeforeCreate assigns a UUID when none was provided by the caller.
func (a *Activity) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// QuoteStatus represents the status of a quote
type QuoteStatus string

const (
	QuoteStatusDraft    QuoteStatus = "draft"
	QuoteStatusSent     QuoteStatus = "sent"
	QuoteStatusViewed   QuoteStatus = "viewed"
	QuoteStatusAccepted QuoteStatus = "accepted"
	QuoteStatusRejected QuoteStatus = "rejected"
	QuoteStatusExpired  QuoteStatus = "expired"
)

// IsValid checks if the QuoteStatus is a valid enum value
func (s QuoteStatus) IsValid() bool {
	switch s {
	case QuoteStatusDraft, QuoteStatusSent, QuoteStatusViewed,
		QuoteStatusAccepted, QuoteStatusRejected, QuoteStatusExpired:
		return true
	}
	return false
}

// QuoteTemperature is the engagement-derived heat indicator on a sent quote
type QuoteTemperature string

const (
	TemperatureCold QuoteTemperature = "cold"
	TemperatureWarm QuoteTemperature = "warm"
	TemperatureHot  QuoteTemperature = "hot"
)

// OpportunityStage represents the pipeline stage of a quote being worked
// as an opportunity
type OpportunityStage string

const (
	OpportunityDiscovery   OpportunityStage = "discovery"
	OpportunityQuoteSent   OpportunityStage = "quote_sent"
	OpportunityNegotiation OpportunityStage = "negotiation"
	OpportunityWon         OpportunityStage = "won"
	OpportunityLost        OpportunityStage = "lost"
)

// IsOpen reports whether the opportunity is still in play.
func (s OpportunityStage) IsOpen() bool {
	return s != OpportunityWon && s != OpportunityLost
}

// Quote represents a priced proposal tied to exactly one customer.
// All monetary fields are tax-exclusive.
// Invariants: TotalAmount = max(0, Subtotal - DiscountTotal),
// DepositAmount <= TotalAmount, BalanceAmount = TotalAmount - DepositAmount.
type Quote struct {
	BaseModel
	QuoteNumber   string      `gorm:"type:varchar(50);not null;uniqueIndex:idx_quote_number_version;column:quote_number"`
	CustomerID    uuid.UUID   `gorm:"type:uuid;not null;index;column:customer_id"`
	Customer      *Customer   `gorm:"foreignKey:CustomerID"`
	LeadID        *uuid.UUID  `gorm:"type:uuid;index;column:lead_id"`
	Version       int         `gorm:"not null;default:1;uniqueIndex:idx_quote_number_version"`
	Status        QuoteStatus `gorm:"type:varchar(50);not null;default:'draft';index"`
	Subtotal      float64     `gorm:"type:decimal(15,2);not null;default:0"`
	DiscountTotal float64     `gorm:"type:decimal(15,2);not null;default:0;column:discount_total"`
	TotalAmount   float64     `gorm:"type:decimal(15,2);not null;default:0;column:total_amount"`
	DepositAmount float64     `gorm:"type:decimal(15,2);not null;default:0;column:deposit_amount"`
	// DepositOverridden marks a deposit set by hand; recomputes keep it
	// (re-clamped to the total) instead of reverting to the default percent.
	DepositOverridden bool    `gorm:"not null;default:false;column:deposit_overridden"`
	BalanceAmount     float64 `gorm:"type:decimal(15,2);not null;default:0;column:balance_amount"`
	SentAt        *time.Time  `gorm:"column:sent_at"`
	ViewedAt      *time.Time  `gorm:"column:viewed_at"`
	LastViewedAt  *time.Time  `gorm:"column:last_viewed_at"`
	ValidUntil    *time.Time  `gorm:"column:valid_until"`
	CreatedByID   uuid.UUID   `gorm:"type:uuid;column:created_by_id"`
	CreatedByName string      `gorm:"type:varchar(200);column:created_by_name"`
	Notes         string      `gorm:"type:text"`

	Temperature QuoteTemperature `gorm:"type:varchar(20);not null;default:'cold'"`

	// Opportunity fields: a quote becomes an "opportunity" once a stage is set
	OpportunityStage  *OpportunityStage `gorm:"type:varchar(50);index;column:opportunity_stage"`
	CloseProbability  int               `gorm:"not null;default:0;column:close_probability"`
	NextAction        string            `gorm:"type:varchar(500);column:next_action"`
	NextActionDueDate *time.Time        `gorm:"type:date;column:next_action_due_date"`
	ExpectedCloseDate *time.Time        `gorm:"type:date;column:expected_close_date"`
	OwnerID           *uuid.UUID        `gorm:"type:uuid;column:owner_id"`

	Items     []QuoteItem     `gorm:"foreignKey:QuoteID;constraint:OnDelete:CASCADE"`
	Discounts []QuoteDiscount `gorm:"foreignKey:QuoteID;constraint:OnDelete:CASCADE"`
	Emails    []QuoteEmail    `gorm:"foreignKey:QuoteID;constraint:OnDelete:CASCADE"`
}

// QuoteLineType classifies a quote line for discount purposes.
// Delivery and installation lines count toward the subtotal but are
// excluded from product-scope discounts.
type QuoteLineType string

const (
	LineTypeProduct      QuoteLineType = "product"
	LineTypeDelivery     QuoteLineType = "delivery"
	LineTypeInstallation QuoteLineType = "installation"
)

// IsDiscountable reports whether product-scope discounts apply to the line.
func (lt QuoteLineType) IsDiscountable() bool {
	return lt != LineTypeDelivery && lt != LineTypeInstallation
}

// QuoteItem represents a line on a quote. An optional extra references its
// parent main item, forming a two-level tree used for display grouping only.
// Invariant: FinalLineTotal = max(0, LineTotal - DiscountAmount).
type QuoteItem struct {
	BaseModel
	QuoteID           uuid.UUID     `gorm:"type:uuid;not null;index;column:quote_id"`
	ProductID         *uuid.UUID    `gorm:"type:uuid;column:product_id"`
	ProductCode       string        `gorm:"type:varchar(100);column:product_code"`
	Description       string        `gorm:"type:varchar(500);not null"`
	LineType          QuoteLineType `gorm:"type:varchar(50);not null;default:'product';column:line_type"`
	Quantity          float64       `gorm:"type:decimal(10,2);not null;default:1"`
	UnitPrice         float64       `gorm:"type:decimal(15,2);not null;default:0;column:unit_price"`
	LineTotal         float64       `gorm:"type:decimal(15,2);not null;default:0;column:line_total"`
	DiscountAmount    float64       `gorm:"type:decimal(15,2);not null;default:0;column:discount_amount"`
	FinalLineTotal    float64       `gorm:"type:decimal(15,2);not null;default:0;column:final_line_total"`
	ParentQuoteItemID *uuid.UUID    `gorm:"type:uuid;column:parent_quote_item_id"`
	DisplayOrder      int           `gorm:"not null;default:0;column:display_order"`
}

// DiscountType represents how a discount value is interpreted
type DiscountType string

const (
	DiscountFixedAmount DiscountType = "FIXED_AMOUNT"
	DiscountPercentage  DiscountType = "PERCENTAGE"
)

// IsValid checks if the DiscountType is a valid enum value
func (dt DiscountType) IsValid() bool {
	return dt == DiscountFixedAmount || dt == DiscountPercentage
}

// DiscountScope represents what a discount applies to
type DiscountScope string

const (
	ScopeProduct DiscountScope = "PRODUCT"
	ScopeQuote   DiscountScope = "QUOTE"
)

// IsValid checks if the DiscountScope is a valid enum value
func (ds DiscountScope) IsValid() bool {
	return ds == ScopeProduct || ds == ScopeQuote
}

// DiscountTemplate is a reusable discount definition. Deactivated rather
// than deleted so historical applications keep their reference.
type DiscountTemplate struct {
	BaseModel
	Name       string        `gorm:"type:varchar(200);not null"`
	Type       DiscountType  `gorm:"type:varchar(50);not null"`
	Scope      DiscountScope `gorm:"type:varchar(50);not null"`
	Value      float64       `gorm:"type:decimal(15,2);not null;default:0"`
	IsGiveaway bool          `gorm:"not null;default:false;column:is_giveaway"`
	IsActive   bool          `gorm:"not null;default:true;column:is_active"`
}

// QuoteDiscount is an immutable audit record of one discount application.
// QuoteItemID null means the application was quote-scoped.
type QuoteDiscount struct {
	ID            uuid.UUID     `gorm:"type:uuid;primary_key"`
	QuoteID       uuid.UUID     `gorm:"type:uuid;not null;index;column:quote_id"`
	QuoteItemID   *uuid.UUID    `gorm:"type:uuid;index;column:quote_item_id"`
	TemplateID    *uuid.UUID    `gorm:"type:uuid;column:template_id"`
	Type          DiscountType  `gorm:"type:varchar(50);not null"`
	Scope         DiscountScope `gorm:"type:varchar(50);not null"`
	Value         float64       `gorm:"type:decimal(15,2);not null"`
	Amount        float64       `gorm:"type:decimal(15,2);not null"`
	AppliedByID   uuid.UUID     `gorm:"type:uuid;column:applied_by_id"`
	AppliedByName string        `gorm:"type:varchar(200);column:applied_by_name"`
	CreatedAt     time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// BeforeCreate assigns a UUID when none was provided by the caller.
func (d *QuoteDiscount) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}

// DiscountRequestStatus represents the review state of an ad hoc discount request
type DiscountRequestStatus string

const (
	DiscountRequestPending  DiscountRequestStatus = "pending"
	DiscountRequestApproved DiscountRequestStatus = "approved"
	DiscountRequestRejected DiscountRequestStatus = "rejected"
)

// DiscountRequest is the approval gate in front of ad hoc (non-template)
// discounts. At most one pending request exists per quote.
type DiscountRequest struct {
	BaseModel
	QuoteID         uuid.UUID             `gorm:"type:uuid;not null;index;column:quote_id"`
	Type            DiscountType          `gorm:"type:varchar(50);not null"`
	Scope           DiscountScope         `gorm:"type:varchar(50);not null"`
	Value           float64               `gorm:"type:decimal(15,2);not null"`
	Reason          string                `gorm:"type:varchar(500);not null"`
	Status          DiscountRequestStatus `gorm:"type:varchar(50);not null;default:'pending';index"`
	RequestedByID   uuid.UUID             `gorm:"type:uuid;column:requested_by_id"`
	RequestedByName string                `gorm:"type:varchar(200);column:requested_by_name"`
	ReviewedByID    *uuid.UUID            `gorm:"type:uuid;column:reviewed_by_id"`
	ReviewedAt      *time.Time            `gorm:"column:reviewed_at"`
	ReviewNotes     string                `gorm:"type:varchar(500);column:review_notes"`
}

// QuoteEmail tracks a quote being emailed to the customer and its opens.
// OpenedAt/OpenCount are fed by the tracking pixel callback.
type QuoteEmail struct {
	BaseModel
	QuoteID        uuid.UUID  `gorm:"type:uuid;not null;index;column:quote_id"`
	RecipientEmail string     `gorm:"type:varchar(255);not null;column:recipient_email"`
	Subject        string     `gorm:"type:varchar(500)"`
	SentAt         *time.Time `gorm:"column:sent_at"`
	OpenedAt       *time.Time `gorm:"column:opened_at"`
	OpenCount      int        `gorm:"not null;default:0;column:open_count"`
}

// QuoteDocument is a stored rendered artifact (quote PDF, site plan) attached
// to a quote. The bytes live in the storage backend at StoragePath.
type QuoteDocument struct {
	BaseModel
	QuoteID     uuid.UUID `gorm:"type:uuid;not null;index;column:quote_id"`
	Filename    string    `gorm:"type:varchar(255);not null"`
	ContentType string    `gorm:"type:varchar(100);not null;column:content_type"`
	Size        int64     `gorm:"not null"`
	StoragePath string    `gorm:"type:varchar(500);not null;unique;column:storage_path"`
}

// ReminderPriority represents the urgency of a surfaced action item
type ReminderPriority string

const (
	PriorityLow    ReminderPriority = "low"
	PriorityMedium ReminderPriority = "medium"
	PriorityHigh   ReminderPriority = "high"
	PriorityUrgent ReminderPriority = "urgent"
)

// IsValid checks if the ReminderPriority is a valid enum value
func (p ReminderPriority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Rank orders priorities for escalation comparisons (low=0 .. urgent=3).
func (p ReminderPriority) Rank() int {
	switch p {
	case PriorityLow:
		return 0
	case PriorityMedium:
		return 1
	case PriorityHigh:
		return 2
	case PriorityUrgent:
		return 3
	}
	return -1
}

// Bump returns the next-higher priority, or the same value when already urgent.
func (p ReminderPriority) Bump() ReminderPriority {
	switch p {
	case PriorityLow:
		return PriorityMedium
	case PriorityMedium:
		return PriorityHigh
	case PriorityHigh:
		return PriorityUrgent
	}
	return p
}

// Reminder is a surfaced action item produced by the staleness sweep.
// At most one active (non-dismissed) reminder exists per (entity, type).
type Reminder struct {
	BaseModel
	ReminderType    string           `gorm:"type:varchar(100);not null;index;column:reminder_type"`
	LeadID          *uuid.UUID       `gorm:"type:uuid;index;column:lead_id"`
	QuoteID         *uuid.UUID       `gorm:"type:uuid;index;column:quote_id"`
	CustomerID      *uuid.UUID       `gorm:"type:uuid;column:customer_id"`
	AssignedToID    uuid.UUID        `gorm:"type:uuid;not null;index;column:assigned_to_id"`
	Priority        ReminderPriority `gorm:"type:varchar(20);not null;default:'medium'"`
	DaysStale       int              `gorm:"not null;default:0;column:days_stale"`
	Message         string           `gorm:"type:varchar(500)"`
	SuggestedAction string           `gorm:"type:varchar(500);column:suggested_action"`
	DismissedAt     *time.Time       `gorm:"column:dismissed_at"`
	ActedUponAt     *time.Time       `gorm:"column:acted_upon_at"`
}

// ReminderEntityType represents the entity class a reminder rule scans
type ReminderEntityType string

const (
	ReminderEntityLead  ReminderEntityType = "lead"
	ReminderEntityQuote ReminderEntityType = "quote"
)

// IsValid checks if the ReminderEntityType is a valid enum value
func (t ReminderEntityType) IsValid() bool {
	return t == ReminderEntityLead || t == ReminderEntityQuote
}

// ReminderCheckType represents how staleness is measured for a rule
type ReminderCheckType string

const (
	CheckLastActivity   ReminderCheckType = "last_activity"
	CheckStatusDuration ReminderCheckType = "status_duration"
	CheckSentDate       ReminderCheckType = "sent_date"
	CheckValidUntil     ReminderCheckType = "valid_until"
	CheckSentNotOpened  ReminderCheckType = "sent_not_opened"
	CheckOpenedNoReply  ReminderCheckType = "opened_no_reply"
)

// IsValid checks if the ReminderCheckType is a valid enum value
func (t ReminderCheckType) IsValid() bool {
	switch t {
	case CheckLastActivity, CheckStatusDuration, CheckSentDate,
		CheckValidUntil, CheckSentNotOpened, CheckOpenedNoReply:
		return true
	}
	return false
}

// AppliesTo reports whether the check type is meaningful for the entity type.
func (t ReminderCheckType) AppliesTo(entity ReminderEntityType) bool {
	switch t {
	case CheckLastActivity, CheckStatusDuration:
		return true
	case CheckSentDate, CheckValidUntil, CheckSentNotOpened, CheckOpenedNoReply:
		return entity == ReminderEntityQuote
	}
	return false
}

// ReminderRule is an admin-configured staleness rule. Rules are read-only
// input to the sweep; invalid rows are rejected when loaded.
type ReminderRule struct {
	BaseModel
	Name            string             `gorm:"type:varchar(200);not null"`
	EntityType      ReminderEntityType `gorm:"type:varchar(50);not null;column:entity_type"`
	StatusFilter    string             `gorm:"type:varchar(50);not null;column:status_filter"`
	CheckType       ReminderCheckType  `gorm:"type:varchar(50);not null;column:check_type"`
	ThresholdDays   int                `gorm:"not null;column:threshold_days"`
	Priority        ReminderPriority   `gorm:"type:varchar(20);not null;default:'medium'"`
	SuggestedAction string             `gorm:"type:varchar(500);column:suggested_action"`
	IsActive        bool               `gorm:"not null;default:true;column:is_active"`
}

// Validate rejects rules with unknown enum values or nonsensical thresholds.
func (r *ReminderRule) Validate() error {
	if !r.EntityType.IsValid() {
		return &RuleConfigError{Field: "entity_type", Value: string(r.EntityType)}
	}
	if !r.CheckType.IsValid() {
		return &RuleConfigError{Field: "check_type", Value: string(r.CheckType)}
	}
	if !r.CheckType.AppliesTo(r.EntityType) {
		return &RuleConfigError{Field: "check_type", Value: string(r.CheckType) + " not valid for " + string(r.EntityType)}
	}
	switch r.EntityType {
	case ReminderEntityLead:
		if !LeadStatus(r.StatusFilter).IsValid() {
			return &RuleConfigError{Field: "status_filter", Value: r.StatusFilter}
		}
	case ReminderEntityQuote:
		if !QuoteStatus(r.StatusFilter).IsValid() {
			return &RuleConfigError{Field: "status_filter", Value: r.StatusFilter}
		}
	}
	if !r.Priority.IsValid() {
		return &RuleConfigError{Field: "priority", Value: string(r.Priority)}
	}
	if r.ThresholdDays < 0 {
		return &RuleConfigError{Field: "threshold_days", Value: "negative"}
	}
	return nil
}

// NumberSequence backs the PREFIX-YYYY-NNN number allocation for customers
// and quotes. Incremented under a row lock so concurrent creation cannot
// hand out duplicates.
type NumberSequence struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key"`
	Prefix       string    `gorm:"type:varchar(20);not null;uniqueIndex:idx_sequence_prefix_year"`
	Year         int       `gorm:"not null;uniqueIndex:idx_sequence_prefix_year"`
	LastSequence int       `gorm:"not null;default:0;column:last_sequence"`
	CreatedAt    time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt    time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// BeforeCreate assigns a UUID when none was provided by the caller.
func (n *NumberSequence) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}
