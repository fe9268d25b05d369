// Package services provides the business logic layer between HTTP handlers and the
// storage, cache and analytics packages.
package services

import (
	"errors"
	"net/http"
)

// Service error codes
const (
	CodeInvalidParameter = "INVALID_PARAMETER"
	CodeInvalidMetric    = "INVALID_METRIC"
	CodeQueryFailed      = "QUERY_FAILED"
	CodeNoData           = "NO_DATA"
	CodeDataIntegrity    = "DATA_INTEGRITY"
	CodeIngestFailed     = "INGEST_FAILED"
)

// ServiceError represents a service layer error
type ServiceError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func (e *ServiceError) Error() string {
	return e.Message
}

// HTTPStatus maps the error code to a response status
func (e *ServiceError) HTTPStatus() int {
	switch e.Code {
	case CodeInvalidParameter, CodeInvalidMetric, CodeNoData:
		return http.StatusBadRequest
	case CodeDataIntegrity:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// NewServiceError creates a new ServiceError
func NewServiceError(code, message string) *ServiceError {
	return &ServiceError{
		Code:    code,
		Message: message,
	}
}

// NewServiceErrorWithDetails creates a new ServiceError with details
func NewServiceErrorWithDetails(code, message string, details map[string]interface{}) *ServiceError {
	return &ServiceError{
		Code:    code,
		Message: message,
		Details: details,
	}
}

// AsServiceError extracts a ServiceError from err
func AsServiceError(err error) (*ServiceError, bool) {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		return svcErr, true
	}
	return nil, false
}

func queryFailed(message string, err error) *ServiceError {
	return NewServiceErrorWithDetails(CodeQueryFailed, message, map[string]interface{}{"error": err.Error()})
}
