package errors

import (
	"fmt"
)

// ErrorCategory represents the category of error for handling
type ErrorCategory string

const (
	CategoryApproved          ErrorCategory = "approved"
	CategoryDeclined          ErrorCategory = "declined"
	CategoryInsufficientFunds ErrorCategory = "insufficient_funds"
	CategoryInvalidCard       ErrorCategory = "invalid_card"
	CategoryExpiredCard       ErrorCategory = "expired_card"
	CategoryFraud             ErrorCategory = "fraud"
	CategorySystemError       ErrorCategory = "system_error"
	CategoryNetworkError      ErrorCategory = "network_error"
	CategoryGatewayError      ErrorCategory = "gateway_error"
	CategoryTimeout           ErrorCategory = "timeout"
	CategoryInvalidRequest    ErrorCategory = "invalid_request"
)

// PaymentError represents a payment processing error with detailed context
type PaymentError struct {
	Code           string
	Message        string
	GatewayMessage string
	IsRetriable    bool
	Category       ErrorCategory
	Details        map[string]interface{}
}

func (e *PaymentError) Error() string {
	if e.GatewayMessage != "" {
		return fmt.Sprintf("%s: %s (gateway: %s)", e.Code, e.Message, e.GatewayMessage)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewPaymentError creates a new payment error
func NewPaymentError(code, message string, category ErrorCategory, retriable bool) *PaymentError {
	return &PaymentError{
		Code:        code,
		Message:     message,
		Category:    category,
		IsRetriable: retriable,
		Details:     make(map[string]interface{}),
	}
}

// OrderLinkError is returned when a payment was approved but the ledger row
// could not be linked to an order or vaulted card. The charge must NOT be
// retried; the reference id is preserved for manual reconciliation.
type OrderLinkError struct {
	ReferenceID string
	Err         error
}

func (e *OrderLinkError) Error() string {
	return fmt.Sprintf("payment succeeded, please reconcile manually, reference: %s: %v", e.ReferenceID, e.Err)
}

func (e *OrderLinkError) Unwrap() error {
	return e.Err
}

// NewOrderLinkError creates a new order linkage error
func NewOrderLinkError(referenceID string, err error) *OrderLinkError {
	return &OrderLinkError{ReferenceID: referenceID, Err: err}
}

// ValidationError represents input validation errors
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
}

// NewValidationError creates a new validation error
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}
