package domain

import (
	"fmt"
	"strings"
)

// Transition error codes returned by the lead workflow engine.
const (
	CodeTransitionNotAllowed = "TRANSITION_NOT_ALLOWED"
	CodeNoCustomer           = "NO_CUSTOMER"
	CodeQuotePrereqsMissing  = "QUOTE_PREREQS_MISSING"
	CodeNoEngagementProof    = "NO_ENGAGEMENT_PROOF"
)

// TransitionError is the structured failure result of a lead status
// transition attempt. MissingFields is populated for QUOTE_PREREQS_MISSING.
type TransitionError struct {
	Code          string     `json:"code"`
	From          LeadStatus `json:"from_status"`
	To            LeadStatus `json:"to_status"`
	Role          SalesRole  `json:"role,omitempty"`
	MissingFields []string   `json:"missing_fields,omitempty"`
}

// Error implements the error interface
func (e *TransitionError) Error() string {
	switch e.Code {
	case CodeTransitionNotAllowed:
		return fmt.Sprintf("transition %s -> %s not allowed for role %s", e.From, e.To, e.Role)
	case CodeNoCustomer:
		return fmt.Sprintf("transition %s -> %s requires the lead to have a customer", e.From, e.To)
	case CodeQuotePrereqsMissing:
		return fmt.Sprintf("customer profile incomplete, missing: %s", strings.Join(e.MissingFields, ", "))
	case CodeNoEngagementProof:
		return "no engagement-proof activity recorded for the customer"
	}
	return e.Code
}

// RuleConfigError reports an invalid reminder rule field found at load time.
type RuleConfigError struct {
	Field string
	Value string
}

// Error implements the error interface
func (e *RuleConfigError) Error() string {
	return fmt.Sprintf("invalid reminder rule %s: %s", e.Field, e.Value)
}

// APIError represents a standardized API error with HTTP status code
type APIError struct {
	Type          string            `json:"type"`
	Title         string            `json:"title"`
	Status        int               `json:"status"`
	Detail        string            `json:"detail,omitempty"`
	Errors        map[string]string `json:"errors,omitempty"`
	MissingFields []string          `json:"missingFields,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return e.Title
}

// ValidationFieldError maps a field name to its validation error message
type ValidationFieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationMessages provides human-readable validation error messages
// These map validator tags to user-friendly messages
var ValidationMessages = map[string]string{
	"required":   "This field is required",
	"email":      "Must be a valid email address",
	"max":        "Exceeds maximum length",
	"min":        "Below minimum length",
	"gte":        "Must be greater than or equal to minimum value",
	"gt":         "Must be greater than minimum value",
	"lte":        "Must be less than or equal to maximum value",
	"lt":         "Must be less than maximum value",
	"uuid":       "Must be a valid UUID",
	"url":        "Must be a valid URL",
	"oneof":      "Must be one of the allowed values",
	"alphanum":   "Must contain only alphanumeric characters",
	"numeric":    "Must be a numeric value",
	"alpha":      "Must contain only alphabetic characters",
	"len":        "Must be exactly the specified length",
	"eq":         "Must equal the specified value",
	"ne":         "Must not equal the specified value",
	"contains":   "Must contain the specified value",
	"excludes":   "Must not contain the specified value",
	"startswith": "Must start with the specified value",
	"endswith":   "Must end with the specified value",
}

// GetValidationMessage returns a human-readable message for a validation tag
func GetValidationMessage(tag string) string {
	if msg, ok := ValidationMessages[tag]; ok {
		return msg
	}
	return "Validation failed: " + tag
}

// Common error types for RFC 7807 Problem Details
const (
	ErrorTypeValidation   = "validation_error"
	ErrorTypeNotFound     = "not_found"
	ErrorTypeBadRequest   = "bad_request"
	ErrorTypeConflict     = "conflict"
	ErrorTypeUnauthorized = "unauthorized"
	ErrorTypeForbidden    = "forbidden"
	ErrorTypeInternal     = "internal_error"
)
