// Package domain contains the core business entities and interfaces for the payment service.
package domain

import "errors"

// Domain errors represent business rule violations.
// These are used to communicate specific error conditions from the domain layer.
var (
	// ErrOrderNotFound is returned when an order cannot be resolved by its correlation key.
	ErrOrderNotFound = errors.New("order not found")

	// ErrMissingMerchantConfig is returned when the merchant id or encryption key
	// is not configured. Operations must abort rather than proceed unsigned.
	ErrMissingMerchantConfig = errors.New("merchant id or encryption key is not configured")

	// ErrOrderTotalOutOfRange is returned when the order total falls outside the
	// configured minimum/maximum thresholds for this payment method.
	ErrOrderTotalOutOfRange = errors.New("order total outside the configured Oxipay limits")

	// ErrCallbackRejected is returned when a callback fails gateway re-verification.
	ErrCallbackRejected = errors.New("callback failed gateway re-verification")

	// ErrRefundsDisabled is returned when online refunds are switched off in configuration.
	ErrRefundsDisabled = errors.New("online refunds are not enabled")

	// ErrRefundReferenceNotFound is returned when no order note carries the
	// gateway purchase reference required for a refund.
	ErrRefundReferenceNotFound = errors.New("no Oxipay purchase reference found in order notes")

	// ErrRefundReferenceAmbiguous is returned when more than one order note
	// matches the purchase reference marker.
	ErrRefundReferenceAmbiguous = errors.New("multiple Oxipay purchase references found in order notes")

	// ErrRefundFailed is returned when the gateway declines or errors a refund.
	ErrRefundFailed = errors.New("refund error")

	// ErrPaymentGatewayError is returned when there's an error communicating with Oxipay.
	ErrPaymentGatewayError = errors.New("payment gateway error")

	// ErrCoreAPIError is returned when there's an error communicating with the storefront core.
	ErrCoreAPIError = errors.New("error communicating with storefront core")
)

// PaymentError wraps a domain error with additional context.
type PaymentError struct {
	Err     error
	Message string
	Code    string
}

// Error implements the error interface.
func (e *PaymentError) Error() string {
	if e.Message != "" {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Err.Error()
}

// Unwrap allows errors.Is and errors.As to work with PaymentError.
func (e *PaymentError) Unwrap() error {
	return e.Err
}

// NewPaymentError creates a new PaymentError with the given error and message.
func NewPaymentError(err error, message, code string) *PaymentError {
	return &PaymentError{
		Err:     err,
		Message: message,
		Code:    code,
	}
}
