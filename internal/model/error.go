package model

import "errors"

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	OrderID string `json:"orderId,omitempty"`
}

// Standard error codes for API responses
const (
	ErrCodeInvalidJSON          = "INVALID_JSON"
	ErrCodeMissingField         = "MISSING_FIELD"
	ErrCodeInvalidHandle        = "INVALID_BUYER_HANDLE"
	ErrCodeHandleRequired       = "BUYER_HANDLE_REQUIRED"
	ErrCodeCourseNotFound       = "COURSE_NOT_FOUND"
	ErrCodeOrderNotFound        = "ORDER_NOT_FOUND"
	ErrCodeOrderCompleted       = "ORDER_ALREADY_COMPLETED"
	ErrCodeInvalidStatus        = "INVALID_ORDER_STATUS"
	ErrCodeCourseLinkRequired   = "COURSE_LINK_REQUIRED"
	ErrCodeCourseNameRequired   = "COURSE_NAME_REQUIRED"
	ErrCodeInvalidAccessCode    = "INVALID_ACCESS_CODE"
	ErrCodePurchaseLimitReached = "PURCHASE_LIMIT_REACHED"
	ErrCodeNotificationFailed   = "NOTIFICATION_FAILED"
	ErrCodeUnauthorised         = "UNAUTHORIZED"
	ErrCodeInternalError        = "INTERNAL_ERROR"
)

// Domain errors for business logic
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
	ErrInvalidHandle      = NewDomainError(ErrCodeInvalidHandle, "Telegram username must be 5-32 letters, digits or underscores")
	ErrHandleRequired     = NewDomainError(ErrCodeHandleRequired, "Please enter your Telegram username first")
	ErrCourseNotFound     = NewDomainError(ErrCodeCourseNotFound, "Course not found")
	ErrOrderNotFound      = NewDomainError(ErrCodeOrderNotFound, "Order not found")
	ErrOrderCompleted     = NewDomainError(ErrCodeOrderCompleted, "Order has already been completed")
	ErrInvalidStatus      = NewDomainError(ErrCodeInvalidStatus, "Order status must be pending or completed")
	ErrCourseLinkRequired = NewDomainError(ErrCodeCourseLinkRequired, "Please select an order and enter a course link")
	ErrCourseNameRequired = NewDomainError(ErrCodeCourseNameRequired, "Please enter a course name")
	ErrInvalidAccessCode  = NewDomainError(ErrCodeInvalidAccessCode, "The access code you entered is invalid")
	ErrNotificationFailed = NewDomainError(ErrCodeNotificationFailed, "Failed to notify the operator, please try again")
)

// AsDomainError returns the DomainError in err's chain, if any.
func AsDomainError(err error) (*DomainError, bool) {
	var de *DomainError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}
