package router

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/chatdeploy/configurator/engine/bundle"
	"github.com/chatdeploy/configurator/engine/core"
	"github.com/chatdeploy/configurator/engine/deployment"
	"github.com/chatdeploy/configurator/engine/generator"
	"github.com/chatdeploy/configurator/engine/importer"
	"github.com/chatdeploy/configurator/engine/settings"
	"github.com/chatdeploy/configurator/engine/store"
)

// Error codes
const (
	ErrInternalCode           = "INTERNAL_ERROR"
	ErrBadRequestCode         = "BAD_REQUEST"
	ErrValidationCode         = "VALIDATION_FAILED"
	ErrNotFoundCode           = "NOT_FOUND"
	ErrConflictCode           = "CONFLICT"
	ErrPreconditionCode       = "PRECONDITION_FAILED"
	ErrPayloadTooLargeCode    = "PAYLOAD_TOO_LARGE"
	ErrRequestTimeoutCode     = "REQUEST_TIMEOUT"
	ErrServiceUnavailableCode = "SERVICE_UNAVAILABLE"
	ErrGenerationCode         = "GENERATION_FAILED"
)

const ErrMsgAppStateNotInitialized = "application state not initialized"

// RequestError carries the status and client-facing reason for a failed request.
type RequestError struct {
	StatusCode int
	Code       string
	Reason     string
	Err        error
}

func (e *RequestError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Reason, e.Err)
	}
	return e.Reason
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// NewRequestError creates a new RequestError
func NewRequestError(statusCode int, reason string, err error) *RequestError {
	return &RequestError{
		StatusCode: statusCode,
		Code:       codeFor(statusCode),
		Reason:     reason,
		Err:        err,
	}
}

// GenerationError marks a failure inside artifact generation.
func GenerationError(err error) *RequestError {
	return &RequestError{
		StatusCode: http.StatusInternalServerError,
		Code:       ErrGenerationCode,
		Reason:     "failed to generate package",
		Err:        err,
	}
}

// IsRequestError checks if the given error is a RequestError
func IsRequestError(err error) bool {
	var reqErr *RequestError
	return errors.As(err, &reqErr)
}

// ErrorInfo is the JSON body of every error response.
type ErrorInfo struct {
	Error   string                `json:"error"`
	Code    string                `json:"code"`
	Details string                `json:"details,omitempty"`
	Fields  []settings.FieldError `json:"fields,omitempty"`
}

// Classify maps domain errors to a RequestError. Errors that are already
// RequestErrors keep their status. Unknown errors become 500.
func Classify(err error) *RequestError {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr
	}
	var verrs settings.ValidationErrors
	var maxBytes *http.MaxBytesError
	switch {
	case errors.As(err, &verrs):
		return &RequestError{
			StatusCode: http.StatusBadRequest,
			Code:       ErrValidationCode,
			Reason:     "configuration is invalid",
			Err:        verrs,
		}
	case errors.Is(err, bundle.ErrGenerationFailed):
		return GenerationError(err)
	case errors.As(err, &maxBytes):
		return NewRequestError(http.StatusRequestEntityTooLarge, "request body too large", err)
	case errors.Is(err, store.ErrProfileNotFound),
		errors.Is(err, store.ErrHistoryNotFound),
		errors.Is(err, deployment.ErrNotFound):
		return NewRequestError(http.StatusNotFound, "resource not found", err)
	case errors.Is(err, store.ErrInvalidPatch),
		errors.Is(err, deployment.ErrInvalidInput),
		errors.Is(err, deployment.ErrUnknownPlatform),
		errors.Is(err, generator.ErrUnknownArtifact),
		errors.Is(err, importer.ErrEmptyInput),
		errors.Is(err, importer.ErrUnsupportedFormat),
		errors.Is(err, importer.ErrMalformedInput):
		return NewRequestError(http.StatusBadRequest, "invalid request", err)
	case errors.Is(err, deployment.ErrInvalidTransition):
		return NewRequestError(http.StatusConflict, "invalid status transition", err)
	case errors.Is(err, deployment.ErrQueueFull):
		return NewRequestError(http.StatusServiceUnavailable, "deployment queue is full", err)
	}
	return NewRequestError(http.StatusInternalServerError, "internal server error", err)
}

// Info builds the response body. Details of server errors are redacted so
// secrets in wrapped errors never leave the process.
func (e *RequestError) Info() *ErrorInfo {
	info := &ErrorInfo{Error: e.Reason, Code: e.Code}
	if info.Code == "" {
		info.Code = codeFor(e.StatusCode)
	}
	var verrs settings.ValidationErrors
	if errors.As(e.Err, &verrs) {
		info.Fields = verrs
		info.Details = core.RedactString(verrs.Error())
		return info
	}
	if e.Err != nil {
		info.Details = core.RedactString(e.Err.Error())
	}
	return info
}

func codeFor(status int) string {
	switch status {
	case http.StatusBadRequest:
		return ErrBadRequestCode
	case http.StatusNotFound:
		return ErrNotFoundCode
	case http.StatusConflict:
		return ErrConflictCode
	case http.StatusPreconditionFailed:
		return ErrPreconditionCode
	case http.StatusRequestEntityTooLarge:
		return ErrPayloadTooLargeCode
	case http.StatusRequestTimeout:
		return ErrRequestTimeoutCode
	case http.StatusServiceUnavailable:
		return ErrServiceUnavailableCode
	default:
		return ErrInternalCode
	}
}
