package service

import "errors"

// Common service errors
var (
	// ErrNotFound is returned when a resource is not found
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")

	// ErrConflict is returned when there's a conflict (e.g., duplicate)
	ErrConflict = errors.New("resource conflict")

	// ErrPermissionDenied is returned when a user doesn't have permission for an action
	ErrPermissionDenied = errors.New("permission denied")

	// ErrUserNotFound is returned when a user is not found
	ErrUserNotFound = errors.New("user not found")

	// ErrQuoteHasNoItems is returned when a discount is applied to a quote without line items
	ErrQuoteHasNoItems = errors.New("quote has no items")

	// ErrDiscountTemplateNotFound is returned when a referenced discount template is missing or inactive
	ErrDiscountTemplateNotFound = errors.New("discount template not found or inactive")

	// ErrQuoteNotDraft is returned for mutations only valid on draft quotes
	ErrQuoteNotDraft = errors.New("quote is not in draft status")

	// ErrQuoteNotOpen is returned for decisions on quotes that are not sent or viewed
	ErrQuoteNotOpen = errors.New("quote is not awaiting a decision")

	// ErrPendingDiscountRequestExists is returned when a quote already has a pending discount request
	ErrPendingDiscountRequestExists = errors.New("quote already has a pending discount request")

	// ErrSelfReview is returned when a discount request reviewer is also the requester
	ErrSelfReview = errors.New("discount request cannot be reviewed by its requester")

	// ErrRequestNotPending is returned when reviewing a request that was already decided
	ErrRequestNotPending = errors.New("discount request is not pending")

	// ErrCustomerAlreadySet is returned when attempting to re-link a lead to a different customer
	ErrCustomerAlreadySet = errors.New("lead is already linked to a customer")
)
