package domain

import (
	"time"

	"github.com/google/uuid"
)

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code,omitempty"`
}

// ---- Customers ----

type CustomerDTO struct {
	ID             uuid.UUID `json:"id"`
	CustomerNumber string    `json:"customerNumber"`
	Name           string    `json:"name"`
	Email          string    `json:"email,omitempty"`
	Phone          string    `json:"phone,omitempty"`
	AddressLine1   string    `json:"addressLine1,omitempty"`
	AddressLine2   string    `json:"addressLine2,omitempty"`
	City           string    `json:"city,omitempty"`
	County         string    `json:"county,omitempty"`
	Postcode       string    `json:"postcode,omitempty"`
	Country        string    `json:"country"`
	Source         string    `json:"source,omitempty"`
	Notes          string    `json:"notes,omitempty"`
	QuoteReady     bool      `json:"quoteReady"`
	MissingFields  []string  `json:"missingFields,omitempty"`
	CreatedAt      string    `json:"createdAt"` // ISO 8601
	UpdatedAt      string    `json:"updatedAt"` // ISO 8601
}

type CreateCustomerRequest struct {
	Name         string `json:"name" validate:"required,max=200"`
	Email        string `json:"email" validate:"omitempty,email,max=255"`
	Phone        string `json:"phone" validate:"omitempty,max=50"`
	AddressLine1 string `json:"addressLine1" validate:"omitempty,max=255"`
	AddressLine2 string `json:"addressLine2" validate:"omitempty,max=255"`
	City         string `json:"city" validate:"omitempty,max=100"`
	County       string `json:"county" validate:"omitempty,max=100"`
	Postcode     string `json:"postcode" validate:"omitempty,max=20"`
	Country      string `json:"country" validate:"omitempty,max=100"`
	Source       string `json:"source" validate:"omitempty,max=100"`
	Notes        string `json:"notes"`
}

type UpdateCustomerRequest struct {
	Name         *string `json:"name" validate:"omitempty,max=200"`
	Email        *string `json:"email" validate:"omitempty,max=255"`
	Phone        *string `json:"phone" validate:"omitempty,max=50"`
	AddressLine1 *string `json:"addressLine1" validate:"omitempty,max=255"`
	AddressLine2 *string `json:"addressLine2" validate:"omitempty,max=255"`
	City         *string `json:"city" validate:"omitempty,max=100"`
	County       *string `json:"county" validate:"omitempty,max=100"`
	Postcode     *string `json:"postcode" validate:"omitempty,max=20"`
	Country      *string `json:"country" validate:"omitempty,max=100"`
	Source       *string `json:"source" validate:"omitempty,max=100"`
	Notes        *string `json:"notes"`
}

// ---- Leads ----

type LeadDTO struct {
	ID             uuid.UUID    `json:"id"`
	ContactName    string       `json:"contactName"`
	ContactEmail   string       `json:"contactEmail,omitempty"`
	ContactPhone   string       `json:"contactPhone,omitempty"`
	Status         LeadStatus   `json:"status"`
	LeadType       LeadType     `json:"leadType"`
	LeadSource     LeadSource   `json:"leadSource"`
	AssignedToID   *uuid.UUID   `json:"assignedToId,omitempty"`
	AssignedToName string       `json:"assignedToName,omitempty"`
	CustomerID     *uuid.UUID   `json:"customerId,omitempty"`
	CustomerName   string       `json:"customerName,omitempty"`
	Notes          string       `json:"notes,omitempty"`
	LostReason     string       `json:"lostReason,omitempty"`
	SLABadge       SLABadge     `json:"slaBadge,omitempty"`
	AllowedTargets []LeadStatus `json:"allowedTargets,omitempty"`
	CreatedAt      string       `json:"createdAt"` // ISO 8601
	UpdatedAt      string       `json:"updatedAt"` // ISO 8601
}

type CreateLeadRequest struct {
	ContactName  string     `json:"contactName" validate:"required,max=200"`
	ContactEmail string     `json:"contactEmail" validate:"omitempty,email,max=255"`
	ContactPhone string     `json:"contactPhone" validate:"omitempty,max=50"`
	LeadType     LeadType   `json:"leadType" validate:"omitempty,oneof=stable cabin shed other"`
	LeadSource   LeadSource `json:"leadSource" validate:"omitempty,oneof=website phone messenger show_site referral other"`
	AssignedToID *uuid.UUID `json:"assignedToId"`
	CustomerID   *uuid.UUID `json:"customerId"`
	Notes        string     `json:"notes"`
}

type UpdateLeadRequest struct {
	ContactName  *string     `json:"contactName" validate:"omitempty,max=200"`
	ContactEmail *string     `json:"contactEmail" validate:"omitempty,max=255"`
	ContactPhone *string     `json:"contactPhone" validate:"omitempty,max=50"`
	LeadType     *LeadType   `json:"leadType" validate:"omitempty,oneof=stable cabin shed other"`
	LeadSource   *LeadSource `json:"leadSource" validate:"omitempty,oneof=website phone messenger show_site referral other"`
	AssignedToID *uuid.UUID  `json:"assignedToId"`
	Notes        *string     `json:"notes"`
}

// TransitionLeadRequest moves a lead to a new status. OverrideReason is
// required when Override is set.
type TransitionLeadRequest struct {
	TargetStatus   LeadStatus `json:"targetStatus" validate:"required,oneof=new contact_attempted engaged qualified quoted won lost"`
	Override       bool       `json:"override"`
	OverrideReason string     `json:"overrideReason" validate:"required_if=Override true,max=500"`
	LostReason     string     `json:"lostReason" validate:"omitempty,max=500"`
}

type LeadStatusHistoryDTO struct {
	ID             uuid.UUID   `json:"id"`
	LeadID         uuid.UUID   `json:"leadId"`
	FromStatus     *LeadStatus `json:"fromStatus,omitempty"`
	ToStatus       LeadStatus  `json:"toStatus"`
	ChangedByName  string      `json:"changedByName,omitempty"`
	OverrideReason string      `json:"overrideReason,omitempty"`
	ChangedAt      string      `json:"changedAt"` // ISO 8601
}

// ---- Activities ----

type ActivityDTO struct {
	ID           uuid.UUID    `json:"id"`
	CustomerID   uuid.UUID    `json:"customerId"`
	LeadID       *uuid.UUID   `json:"leadId,omitempty"`
	ActivityType ActivityType `json:"activityType"`
	Notes        string       `json:"notes,omitempty"`
	CreatorName  string       `json:"creatorName,omitempty"`
	OccurredAt   string       `json:"occurredAt"` // ISO 8601
	CreatedAt    string       `json:"createdAt"`  // ISO 8601
}

type CreateActivityRequest struct {
	CustomerID   uuid.UUID    `json:"customerId" validate:"required"`
	LeadID       *uuid.UUID   `json:"leadId"`
	ActivityType ActivityType `json:"activityType" validate:"required,oneof=email_sent email_received sms_sent sms_received whatsapp_received live_call call_attempted meeting note messenger_received"`
	Notes        string       `json:"notes"`
	OccurredAt   *time.Time   `json:"occurredAt"`
}

// ---- Quotes ----

type QuoteItemDTO struct {
	ID                uuid.UUID     `json:"id"`
	ProductID         *uuid.UUID    `json:"productId,omitempty"`
	ProductCode       string        `json:"productCode,omitempty"`
	Description       string        `json:"description"`
	LineType          QuoteLineType `json:"lineType"`
	Quantity          float64       `json:"quantity"`
	UnitPrice         float64       `json:"unitPrice"`
	LineTotal         float64       `json:"lineTotal"`
	DiscountAmount    float64       `json:"discountAmount"`
	FinalLineTotal    float64       `json:"finalLineTotal"`
	ParentQuoteItemID *uuid.UUID    `json:"parentQuoteItemId,omitempty"`
	DisplayOrder      int           `json:"displayOrder"`
}

type QuoteDiscountDTO struct {
	ID            uuid.UUID     `json:"id"`
	QuoteItemID   *uuid.UUID    `json:"quoteItemId,omitempty"`
	TemplateID    *uuid.UUID    `json:"templateId,omitempty"`
	Type          DiscountType  `json:"type"`
	Scope         DiscountScope `json:"scope"`
	Value         float64       `json:"value"`
	Amount        float64       `json:"amount"`
	AppliedByName string        `json:"appliedByName,omitempty"`
	CreatedAt     string        `json:"createdAt"` // ISO 8601
}

type QuoteDTO struct {
	ID            uuid.UUID          `json:"id"`
	QuoteNumber   string             `json:"quoteNumber"`
	CustomerID    uuid.UUID          `json:"customerId"`
	CustomerName  string             `json:"customerName,omitempty"`
	LeadID        *uuid.UUID         `json:"leadId,omitempty"`
	Version       int                `json:"version"`
	Status        QuoteStatus        `json:"status"`
	Subtotal      float64            `json:"subtotal"`
	DiscountTotal float64            `json:"discountTotal"`
	TotalAmount   float64            `json:"totalAmount"`
	DepositAmount float64            `json:"depositAmount"`
	BalanceAmount float64            `json:"balanceAmount"`
	Temperature   QuoteTemperature   `json:"temperature"`
	SentAt        *string            `json:"sentAt,omitempty"`
	ViewedAt      *string            `json:"viewedAt,omitempty"`
	LastViewedAt  *string            `json:"lastViewedAt,omitempty"`
	ValidUntil    *string            `json:"validUntil,omitempty"`
	CreatedByName string             `json:"createdByName,omitempty"`
	Notes         string             `json:"notes,omitempty"`
	Items         []QuoteItemDTO     `json:"items,omitempty"`
	Discounts     []QuoteDiscountDTO `json:"discounts,omitempty"`
	Opportunity   *OpportunityDTO    `json:"opportunity,omitempty"`
	CreatedAt     string             `json:"createdAt"` // ISO 8601
	UpdatedAt     string             `json:"updatedAt"` // ISO 8601
}

type CreateQuoteItemRequest struct {
	ProductID         *uuid.UUID    `json:"productId"`
	ProductCode       string        `json:"productCode" validate:"omitempty,max=100"`
	Description       string        `json:"description" validate:"required,max=500"`
	LineType          QuoteLineType `json:"lineType" validate:"omitempty,oneof=product delivery installation"`
	Quantity          float64       `json:"quantity" validate:"omitempty,gt=0"`
	UnitPrice         float64       `json:"unitPrice" validate:"gte=0"`
	ParentQuoteItemID *uuid.UUID    `json:"parentQuoteItemId"`
}

type CreateQuoteRequest struct {
	CustomerID  uuid.UUID                `json:"customerId" validate:"required"`
	LeadID      *uuid.UUID               `json:"leadId"`
	Items       []CreateQuoteItemRequest `json:"items" validate:"required,min=1,dive"`
	TemplateIDs []uuid.UUID              `json:"templateIds"`
	Deposit     *float64                 `json:"deposit" validate:"omitempty,gte=0"`
	ValidUntil  *time.Time               `json:"validUntil"`
	Notes       string                   `json:"notes"`
}

type UpdateQuoteRequest struct {
	Items      []CreateQuoteItemRequest `json:"items" validate:"omitempty,min=1,dive"`
	Deposit    *float64                 `json:"deposit" validate:"omitempty,gte=0"`
	ValidUntil *time.Time               `json:"validUntil"`
	Notes      *string                  `json:"notes"`
}

type SendQuoteRequest struct {
	RecipientEmail string `json:"recipientEmail" validate:"required,email,max=255"`
	Subject        string `json:"subject" validate:"omitempty,max=500"`
}

type ApplyDiscountsRequest struct {
	TemplateIDs []uuid.UUID `json:"templateIds" validate:"required,min=1"`
}

type SetDepositRequest struct {
	Deposit float64 `json:"deposit" validate:"gte=0"`
}

type QuoteDocumentDTO struct {
	ID          uuid.UUID `json:"id"`
	QuoteID     uuid.UUID `json:"quoteId"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"contentType"`
	Size        int64     `json:"size"`
	CreatedAt   string    `json:"createdAt"` // ISO 8601
}

// ---- Discount templates & requests ----

type DiscountTemplateDTO struct {
	ID         uuid.UUID     `json:"id"`
	Name       string        `json:"name"`
	Type       DiscountType  `json:"type"`
	Scope      DiscountScope `json:"scope"`
	Value      float64       `json:"value"`
	IsGiveaway bool          `json:"isGiveaway"`
	IsActive   bool          `json:"isActive"`
	CreatedAt  string        `json:"createdAt"` // ISO 8601
}

type CreateDiscountTemplateRequest struct {
	Name       string        `json:"name" validate:"required,max=200"`
	Type       DiscountType  `json:"type" validate:"required,oneof=FIXED_AMOUNT PERCENTAGE"`
	Scope      DiscountScope `json:"scope" validate:"required,oneof=PRODUCT QUOTE"`
	Value      float64       `json:"value" validate:"gte=0"`
	IsGiveaway bool          `json:"isGiveaway"`
}

type UpdateDiscountTemplateRequest struct {
	Name     *string  `json:"name" validate:"omitempty,max=200"`
	Value    *float64 `json:"value" validate:"omitempty,gte=0"`
	IsActive *bool    `json:"isActive"`
}

type DiscountRequestDTO struct {
	ID              uuid.UUID             `json:"id"`
	QuoteID         uuid.UUID             `json:"quoteId"`
	Type            DiscountType          `json:"type"`
	Scope           DiscountScope         `json:"scope"`
	Value           float64               `json:"value"`
	Reason          string                `json:"reason"`
	Status          DiscountRequestStatus `json:"status"`
	RequestedByName string                `json:"requestedByName,omitempty"`
	ReviewedAt      *string               `json:"reviewedAt,omitempty"`
	ReviewNotes     string                `json:"reviewNotes,omitempty"`
	CreatedAt       string                `json:"createdAt"` // ISO 8601
}

type CreateDiscountRequestRequest struct {
	Type   DiscountType  `json:"type" validate:"required,oneof=FIXED_AMOUNT PERCENTAGE"`
	Scope  DiscountScope `json:"scope" validate:"required,oneof=PRODUCT QUOTE"`
	Value  float64       `json:"value" validate:"gt=0"`
	Reason string        `json:"reason" validate:"required,max=500"`
}

type ReviewDiscountRequestRequest struct {
	Approve     bool   `json:"approve"`
	ReviewNotes string `json:"reviewNotes" validate:"omitempty,max=500"`
}

// ---- Opportunities ----

type OpportunityDTO struct {
	QuoteID           uuid.UUID        `json:"quoteId"`
	QuoteNumber       string           `json:"quoteNumber"`
	CustomerName      string           `json:"customerName,omitempty"`
	Stage             OpportunityStage `json:"stage"`
	CloseProbability  int              `json:"closeProbability"`
	NextAction        string           `json:"nextAction,omitempty"`
	NextActionDueDate *string          `json:"nextActionDueDate,omitempty"`
	ExpectedCloseDate *string          `json:"expectedCloseDate,omitempty"`
	OwnerID           *uuid.UUID       `json:"ownerId,omitempty"`
	TotalAmount       float64          `json:"totalAmount"`
	Temperature       QuoteTemperature `json:"temperature"`
}

type UpdateOpportunityRequest struct {
	Stage             *OpportunityStage `json:"stage" validate:"omitempty,oneof=discovery quote_sent negotiation won lost"`
	CloseProbability  *int              `json:"closeProbability" validate:"omitempty,gte=0,lte=100"`
	NextAction        *string           `json:"nextAction" validate:"omitempty,max=500"`
	NextActionDueDate *time.Time        `json:"nextActionDueDate"`
	ExpectedCloseDate *time.Time        `json:"expectedCloseDate"`
	OwnerID           *uuid.UUID        `json:"ownerId"`
}

// ---- Reminders ----

type ReminderDTO struct {
	ID              uuid.UUID        `json:"id"`
	ReminderType    string           `json:"reminderType"`
	LeadID          *uuid.UUID       `json:"leadId,omitempty"`
	QuoteID         *uuid.UUID       `json:"quoteId,omitempty"`
	AssignedToID    uuid.UUID        `json:"assignedToId"`
	Priority        ReminderPriority `json:"priority"`
	DaysStale       int              `json:"daysStale"`
	Message         string           `json:"message,omitempty"`
	SuggestedAction string           `json:"suggestedAction,omitempty"`
	DismissedAt     *string          `json:"dismissedAt,omitempty"`
	ActedUponAt     *string          `json:"actedUponAt,omitempty"`
	CreatedAt       string           `json:"createdAt"` // ISO 8601
	UpdatedAt       string           `json:"updatedAt"` // ISO 8601
}

type CreateReminderRuleRequest struct {
	Name            string             `json:"name" validate:"required,max=200"`
	EntityType      ReminderEntityType `json:"entityType" validate:"required,oneof=lead quote"`
	StatusFilter    string             `json:"statusFilter" validate:"required,max=50"`
	CheckType       ReminderCheckType  `json:"checkType" validate:"required,oneof=last_activity status_duration sent_date valid_until sent_not_opened opened_no_reply"`
	ThresholdDays   int                `json:"thresholdDays" validate:"gte=0"`
	Priority        ReminderPriority   `json:"priority" validate:"required,oneof=low medium high urgent"`
	SuggestedAction string             `json:"suggestedAction" validate:"omitempty,max=500"`
}

// ---- Users / auth ----

type LoginRequest struct {
	Email string `json:"email" validate:"required,email,max=255"`
}

type LoginResponse struct {
	Token string  `json:"token"`
	User  UserDTO `json:"user"`
}

type UserDTO struct {
	ID          uuid.UUID `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"displayName"`
	Role        SalesRole `json:"role"`
	IsActive    bool      `json:"isActive"`
}

// ---- Pagination ----

// PaginatedResponse wraps list results with paging metadata
type PaginatedResponse[T any] struct {
	Data       []T   `json:"data"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PageSize   int   `json:"pageSize"`
	TotalPages int   `json:"totalPages"`
}

// NewPaginatedResponse builds the paging envelope for a result page
func NewPaginatedResponse[T any](data []T, total int64, page, pageSize int) PaginatedResponse[T] {
	totalPages := int(total) / pageSize
	if int(total)%pageSize > 0 {
		totalPages++
	}
	return PaginatedResponse[T]{
		Data:       data,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}
}
