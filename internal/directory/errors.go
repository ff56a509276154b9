package directory

import (
	"fmt"
	"net/http"

	"merchantdir/internal/models"
)

// ServiceError represents errors from the directory service with HTTP context
type ServiceError struct {
	Code       string
	Message    string
	StatusCode int
	Err        error
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewMerchantNotFoundError builds the 404 returned for an unknown slug. The
// message does not echo the slug back.
func NewMerchantNotFoundError(slug string, err error) *ServiceError {
	return &ServiceError{
		Code:       models.ErrorCodeMerchantNotFound,
		Message:    "Merchant not found",
		StatusCode: http.StatusNotFound,
		Err:        err,
	}
}

func NewInvalidRequestError(message string) *ServiceError {
	return &ServiceError{
		Code:       models.ErrorCodeInvalidRequest,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

func NewInternalError(message string, err error) *ServiceError {
	return &ServiceError{
		Code:       models.ErrorCodeInternalError,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Err:        err,
	}
}
