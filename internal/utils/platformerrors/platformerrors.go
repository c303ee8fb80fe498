package platformerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType classifies a failure for HTTP mapping and logging.
type ErrorType int

const (
	ErrorTypeInternal ErrorType = iota
	ErrorTypeValidation
	ErrorTypeUnauthorized
	ErrorTypeForbidden
	ErrorTypeNotFound
	ErrorTypeRateLimited
	ErrorTypeExternal
)

// Layer identifies where an error originated.
type Layer string

const (
	LayerHandler    Layer = "handler"
	LayerDomain     Layer = "domain"
	LayerRepository Layer = "repository"
	LayerClient     Layer = "client"
)

// PlatformError is the structured error carried across layers.
type PlatformError struct {
	Type    ErrorType
	Layer   Layer
	Message string
	Err     error
}

func (e *PlatformError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *PlatformError) Unwrap() error {
	return e.Err
}

// NewError builds a PlatformError with an explicit type.
func NewError(layer Layer, errType ErrorType, message string, err error) *PlatformError {
	return &PlatformError{
		Type:    errType,
		Layer:   layer,
		Message: message,
		Err:     err,
	}
}

// AsError wraps err as an internal PlatformError unless it already is one,
// in which case the existing classification is preserved.
func AsError(layer Layer, err error, message string) *PlatformError {
	var platformErr *PlatformError
	if errors.As(err, &platformErr) {
		return &PlatformError{
			Type:    platformErr.Type,
			Layer:   layer,
			Message: message,
			Err:     err,
		}
	}
	return NewError(layer, ErrorTypeInternal, message, err)
}

// GetPlatformError extracts a PlatformError from err, or nil.
func GetPlatformError(err error) *PlatformError {
	var platformErr *PlatformError
	if errors.As(err, &platformErr) {
		return platformErr
	}
	return nil
}

// IsType reports whether err carries the given classification.
func IsType(err error, errType ErrorType) bool {
	platformErr := GetPlatformError(err)
	return platformErr != nil && platformErr.Type == errType
}

// ErrorTypeToHTTPStatus maps a classification to its response status code.
func ErrorTypeToHTTPStatus(t ErrorType) int {
	switch t {
	case ErrorTypeValidation:
		return http.StatusBadRequest
	case ErrorTypeUnauthorized:
		return http.StatusUnauthorized
	case ErrorTypeForbidden:
		return http.StatusForbidden
	case ErrorTypeNotFound:
		return http.StatusNotFound
	case ErrorTypeRateLimited:
		return http.StatusTooManyRequests
	case ErrorTypeExternal, ErrorTypeInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
