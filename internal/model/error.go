package model

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// Standard error codes for API responses
const (
	ErrCodeInvalidJSON        = "INVALID_JSON"
	ErrCodeEmptyOrder         = "EMPTY_ORDER"
	ErrCodeInvalidQuantity    = "INVALID_QUANTITY"
	ErrCodeProductNotFound    = "PRODUCT_NOT_FOUND"
	ErrCodeOrderNotFound      = "ORDER_NOT_FOUND"
	ErrCodePaymentNotFound    = "PAYMENT_NOT_FOUND"
	ErrCodeGatewayUnavailable = "GATEWAY_UNAVAILABLE"
	ErrCodeConflictingState   = "CONFLICTING_STATE"
	ErrCodeInvalidStatus      = "INVALID_STATUS"
	ErrCodeUnauthorised       = "UNAUTHORIZED"
	ErrCodeInternalError      = "INTERNAL_ERROR"
)

// DomainError carries a stable machine-readable code alongside the message.
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	// Validation: caller's fault, never retried.
	ErrEmptyOrder      = NewDomainError(ErrCodeEmptyOrder, "Order must contain at least one item")
	ErrInvalidQuantity = NewDomainError(ErrCodeInvalidQuantity, "Quantity must be greater than zero")
	ErrInvalidStatus   = NewDomainError(ErrCodeInvalidStatus, "Unknown or disallowed status")

	// Not found: unresolvable reference, no partial side effects.
	ErrProductNotFound = NewDomainError(ErrCodeProductNotFound, "One or more products not found")
	ErrOrderNotFound   = NewDomainError(ErrCodeOrderNotFound, "Order not found")
	ErrPaymentNotFound = NewDomainError(ErrCodePaymentNotFound, "Payment not found")

	// Transient: the whole checkout is safe to retry, nothing was persisted.
	ErrGatewayUnavailable = NewDomainError(ErrCodeGatewayUnavailable, "Payment gateway unavailable")

	// Business anomaly detected during reconciliation. Retrying cannot
	// change the conflicting fact, so this is surfaced to operators
	// instead of being retried.
	ErrConflictingOrderState = NewDomainError(ErrCodeConflictingState, "Order is not awaiting payment")

	// Fulfillment transition rejected by the order state machine.
	ErrInvalidTransition = NewDomainError(ErrCodeConflictingState, "Status transition not allowed")
)
