package mapper

import (
	"time"

	"github.com/hartwood-buildings/crm-api/internal/domain"
)

const isoFormat = "2006-01-02T15:04:05Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(isoFormat)
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t)
	return &s
}

// ToCustomerDTO converts Customer to CustomerDTO. The quote-readiness
// fields are derived from the profile, never stored.
func ToCustomerDTO(customer *domain.Customer) domain.CustomerDTO {
	missing := customer.MissingQuoteFields()
	return domain.CustomerDTO{
		ID:             customer.ID,
		CustomerNumber: customer.CustomerNumber,
		Name:           customer.Name,
		Email:          customer.Email,
		Phone:          customer.Phone,
		AddressLine1:   customer.AddressLine1,
		AddressLine2:   customer.AddressLine2,
		City:           customer.City,
		County:         customer.County,
		Postcode:       customer.Postcode,
		Country:        customer.Country,
		Source:         customer.Source,
		Notes:          customer.Notes,
		QuoteReady:     len(missing) == 0,
		MissingFields:  missing,
		CreatedAt:      formatTime(customer.CreatedAt),
		UpdatedAt:      formatTime(customer.UpdatedAt),
	}
}

// ToLeadDTO converts Lead to LeadDTO. Badge and allowed targets are
// supplied by the caller because they depend on the actor and the clock.
func ToLeadDTO(lead *domain.Lead, badge domain.SLABadge, allowedTargets []domain.LeadStatus) domain.LeadDTO {
	dto := domain.LeadDTO{
		ID:             lead.ID,
		ContactName:    lead.ContactName,
		ContactEmail:   lead.ContactEmail,
		ContactPhone:   lead.ContactPhone,
		Status:         lead.Status,
		LeadType:       lead.LeadType,
		LeadSource:     lead.LeadSource,
		AssignedToID:   lead.AssignedToID,
		CustomerID:     lead.CustomerID,
		Notes:          lead.Notes,
		LostReason:     lead.LostReason,
		SLABadge:       badge,
		AllowedTargets: allowedTargets,
		CreatedAt:      formatTime(lead.CreatedAt),
		UpdatedAt:      formatTime(lead.UpdatedAt),
	}
	if lead.AssignedTo != nil {
		dto.AssignedToName = lead.AssignedTo.DisplayName
	}
	if lead.Customer != nil {
		dto.CustomerName = lead.Customer.Name
	}
	return dto
}

// ToLeadStatusHistoryDTO converts LeadStatusHistory to its DTO
func ToLeadStatusHistoryDTO(h *domain.LeadStatusHistory) domain.LeadStatusHistoryDTO {
	return domain.LeadStatusHistoryDTO{
		ID:             h.ID,
		LeadID:         h.LeadID,
		FromStatus:     h.FromStatus,
		ToStatus:       h.ToStatus,
		ChangedByName:  h.ChangedByName,
		OverrideReason: h.OverrideReason,
		ChangedAt:      formatTime(h.ChangedAt),
	}
}

// ToActivityDTO converts Activity to ActivityDTO
func ToActivityDTO(a *domain.Activity) domain.ActivityDTO {
	return domain.ActivityDTO{
		ID:           a.ID,
		CustomerID:   a.CustomerID,
		LeadID:       a.LeadID,
		ActivityType: a.ActivityType,
		Notes:        a.Notes,
		CreatorName:  a.CreatorName,
		OccurredAt:   formatTime(a.OccurredAt),
		CreatedAt:    formatTime(a.CreatedAt),
	}
}

// ToQuoteItemDTO converts QuoteItem to QuoteItemDTO
func ToQuoteItemDTO(item *domain.QuoteItem) domain.QuoteItemDTO {
	return domain.QuoteItemDTO{
		ID:                item.ID,
		ProductID:         item.ProductID,
		ProductCode:       item.ProductCode,
		Description:       item.Description,
		LineType:          item.LineType,
		Quantity:          item.Quantity,
		UnitPrice:         item.UnitPrice,
		LineTotal:         item.LineTotal,
		DiscountAmount:    item.DiscountAmount,
		FinalLineTotal:    item.FinalLineTotal,
		ParentQuoteItemID: item.ParentQuoteItemID,
		DisplayOrder:      item.DisplayOrder,
	}
}

// ToQuoteDiscountDTO converts QuoteDiscount to QuoteDiscountDTO
func ToQuoteDiscountDTO(d *domain.QuoteDiscount) domain.QuoteDiscountDTO {
	return domain.QuoteDiscountDTO{
		ID:            d.ID,
		QuoteItemID:   d.QuoteItemID,
		TemplateID:    d.TemplateID,
		Type:          d.Type,
		Scope:         d.Scope,
		Value:         d.Value,
		Amount:        d.Amount,
		AppliedByName: d.AppliedByName,
		CreatedAt:     formatTime(d.CreatedAt),
	}
}

// ToQuoteDTO converts Quote to QuoteDTO including items, discounts and
// opportunity metadata when present.
func ToQuoteDTO(quote *domain.Quote) domain.QuoteDTO {
	dto := domain.QuoteDTO{
		ID:            quote.ID,
		QuoteNumber:   quote.QuoteNumber,
		CustomerID:    quote.CustomerID,
		LeadID:        quote.LeadID,
		Version:       quote.Version,
		Status:        quote.Status,
		Subtotal:      quote.Subtotal,
		DiscountTotal: quote.DiscountTotal,
		TotalAmount:   quote.TotalAmount,
		DepositAmount: quote.DepositAmount,
		BalanceAmount: quote.BalanceAmount,
		Temperature:   quote.Temperature,
		SentAt:        formatTimePtr(quote.SentAt),
		ViewedAt:      formatTimePtr(quote.ViewedAt),
		LastViewedAt:  formatTimePtr(quote.LastViewedAt),
		ValidUntil:    formatTimePtr(quote.ValidUntil),
		CreatedByName: quote.CreatedByName,
		Notes:         quote.Notes,
		CreatedAt:     formatTime(quote.CreatedAt),
		UpdatedAt:     formatTime(quote.UpdatedAt),
	}
	if quote.Customer != nil {
		dto.CustomerName = quote.Customer.Name
	}
	for i := range quote.Items {
		dto.Items = append(dto.Items, ToQuoteItemDTO(&quote.Items[i]))
	}
	for i := range quote.Discounts {
		dto.Discounts = append(dto.Discounts, ToQuoteDiscountDTO(&quote.Discounts[i]))
	}
	if quote.OpportunityStage != nil {
		opp := ToOpportunityDTO(quote)
		dto.Opportunity = &opp
	}
	return dto
}

// ToOpportunityDTO projects a quote's pipeline metadata. Only meaningful
// when the quote carries an opportunity stage.
func ToOpportunityDTO(quote *domain.Quote) domain.OpportunityDTO {
	dto := domain.OpportunityDTO{
		QuoteID:           quote.ID,
		QuoteNumber:       quote.QuoteNumber,
		CloseProbability:  quote.CloseProbability,
		NextAction:        quote.NextAction,
		NextActionDueDate: formatTimePtr(quote.NextActionDueDate),
		ExpectedCloseDate: formatTimePtr(quote.ExpectedCloseDate),
		OwnerID:           quote.OwnerID,
		TotalAmount:       quote.TotalAmount,
		Temperature:       quote.Temperature,
	}
	if quote.OpportunityStage != nil {
		dto.Stage = *quote.OpportunityStage
	}
	if quote.Customer != nil {
		dto.CustomerName = quote.Customer.Name
	}
	return dto
}

// ToDiscountTemplateDTO converts DiscountTemplate to its DTO
func ToDiscountTemplateDTO(t *domain.DiscountTemplate) domain.DiscountTemplateDTO {
	return domain.DiscountTemplateDTO{
		ID:         t.ID,
		Name:       t.Name,
		Type:       t.Type,
		Scope:      t.Scope,
		Value:      t.Value,
		IsGiveaway: t.IsGiveaway,
		IsActive:   t.IsActive,
		CreatedAt:  formatTime(t.CreatedAt),
	}
}

// ToQuoteDocumentDTO converts QuoteDocument metadata to its DTO
func ToQuoteDocumentDTO(d *domain.QuoteDocument) domain.QuoteDocumentDTO {
	return domain.QuoteDocumentDTO{
		ID:          d.ID,
		QuoteID:     d.QuoteID,
		Filename:    d.Filename,
		ContentType: d.ContentType,
		Size:        d.Size,
		CreatedAt:   formatTime(d.CreatedAt),
	}
}

// ToDiscountRequestDTO converts DiscountRequest to its DTO
func ToDiscountRequestDTO(r *domain.DiscountRequest) domain.DiscountRequestDTO {
	return domain.DiscountRequestDTO{
		ID:              r.ID,
		QuoteID:         r.QuoteID,
		Type:            r.Type,
		Scope:           r.Scope,
		Value:           r.Value,
		Reason:          r.Reason,
		Status:          r.Status,
		RequestedByName: r.RequestedByName,
		ReviewedAt:      formatTimePtr(r.ReviewedAt),
		ReviewNotes:     r.ReviewNotes,
		CreatedAt:       formatTime(r.CreatedAt),
	}
}

// ToReminderDTO converts Reminder to ReminderDTO
func ToReminderDTO(r *domain.Reminder) domain.ReminderDTO {
	return domain.ReminderDTO{
		ID:              r.ID,
		ReminderType:    r.ReminderType,
		LeadID:          r.LeadID,
		QuoteID:         r.QuoteID,
		AssignedToID:    r.AssignedToID,
		Priority:        r.Priority,
		DaysStale:       r.DaysStale,
		Message:         r.Message,
		SuggestedAction: r.SuggestedAction,
		DismissedAt:     formatTimePtr(r.DismissedAt),
		ActedUponAt:     formatTimePtr(r.ActedUponAt),
		CreatedAt:       formatTime(r.CreatedAt),
		UpdatedAt:       formatTime(r.UpdatedAt),
	}
}

// ToUserDTO converts User to UserDTO
func ToUserDTO(u *domain.User) domain.UserDTO {
	return domain.UserDTO{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		Role:        u.Role,
		IsActive:    u.IsActive,
	}
}
