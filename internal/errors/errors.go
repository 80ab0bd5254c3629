/*
 * Copyright 2025 Cong Wang
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package errors

import (
	"errors"
	"fmt"
	"time"

	"github.com/servicecomb-go/swagger-adapter/internal/types"
)

// ErrorCode represents standardized error codes
type ErrorCode string

const (
	// Request errors
	ErrInvalidRequestFormat ErrorCode = "INVALID_REQUEST_FORMAT"
	ErrUnauthorized         ErrorCode = "UNAUTHORIZED"

	// Schema errors
	ErrSchemaNotFound        ErrorCode = "SCHEMA_NOT_FOUND"
	ErrSerializationFailed   ErrorCode = "SERIALIZATION_FAILED"
	ErrDocumentationNotFound ErrorCode = "DOCUMENTATION_NOT_FOUND"
	ErrDocumentationInvalid  ErrorCode = "DOCUMENTATION_INVALID"

	// Registry errors
	ErrRemoteOperationFailed ErrorCode = "REMOTE_OPERATION_FAILED"
	ErrRegistryUnavailable   ErrorCode = "REGISTRY_UNAVAILABLE"

	// System errors
	ErrInternalError      ErrorCode = "INTERNAL_ERROR"
	ErrServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
	ErrTimeout            ErrorCode = "TIMEOUT"
)

// AdapterError is a coded error carried through the adapter and the management API
type AdapterError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	RequestID string                 `json:"request_id,omitempty"`
	Cause     error                  `json:"-"`
}

// Error implements the error interface
func (e *AdapterError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause error
func (e *AdapterError) Unwrap() error {
	return e.Cause
}

// ToErrorResponse converts AdapterError to types.ErrorResponse
func (e *AdapterError) ToErrorResponse() types.ErrorResponse {
	return types.ErrorResponse{
		Error: types.ErrorDetail{
			Code:      string(e.Code),
			Message:   e.Message,
			Details:   e.Details,
			Timestamp: e.Timestamp,
			RequestID: e.RequestID,
		},
	}
}

// New creates a new AdapterError
func New(code ErrorCode, message string) *AdapterError {
	return &AdapterError{
		Code:      code,
		Message:   message,
		Timestamp: time.Now().UTC(),
	}
}

// Newf creates a new AdapterError with formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *AdapterError {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap creates a new AdapterError wrapping an existing error
func Wrap(code ErrorCode, message string, cause error) *AdapterError {
	return &AdapterError{
		Code:      code,
		Message:   message,
		Cause:     cause,
		Timestamp: time.Now().UTC(),
	}
}

// Wrapf creates a new AdapterError wrapping an existing error with formatted message
func Wrapf(code ErrorCode, cause error, format string, args ...interface{}) *AdapterError {
	return Wrap(code, fmt.Sprintf(format, args...), cause)
}

// WithDetails adds details to an AdapterError
func (e *AdapterError) WithDetails(details map[string]interface{}) *AdapterError {
	e.Details = details
	return e
}

// WithRequestID adds a request ID to an AdapterError
func (e *AdapterError) WithRequestID(requestID string) *AdapterError {
	e.RequestID = requestID
	return e
}

// GetHTTPStatus returns the appropriate HTTP status code for the error
func (e *AdapterError) GetHTTPStatus() int {
	switch e.Code {
	case ErrInvalidRequestFormat, ErrDocumentationInvalid:
		return 400
	case ErrUnauthorized:
		return 401
	case ErrSchemaNotFound, ErrDocumentationNotFound:
		return 404
	case ErrRemoteOperationFailed:
		return 502
	case ErrServiceUnavailable, ErrRegistryUnavailable:
		return 503
	case ErrTimeout:
		return 504
	default:
		return 500
	}
}

// NewSerializationError creates a serialization error for a schema id
func NewSerializationError(schemaID string, cause error) *AdapterError {
	return Wrapf(ErrSerializationFailed, cause, "failed to serialize schema %s", schemaID)
}

// NewRemoteError creates a remote registry error
func NewRemoteError(message string, cause error) *AdapterError {
	return Wrap(ErrRemoteOperationFailed, message, cause)
}

// NewSchemaNotFoundError creates a not found error for a schema id
func NewSchemaNotFoundError(schemaID string) *AdapterError {
	return Newf(ErrSchemaNotFound, "schema %s not found", schemaID).
		WithDetails(map[string]interface{}{"schema_id": schemaID})
}

// NewInternalError creates an internal error
func NewInternalError(message string, cause error) *AdapterError {
	return Wrap(ErrInternalError, message, cause)
}

// AsAdapterError finds the first AdapterError in err's chain
func AsAdapterError(err error) (*AdapterError, bool) {
	var adapterErr *AdapterError
	if errors.As(err, &adapterErr) {
		return adapterErr, true
	}
	return nil, false
}

// HasCode reports whether err carries the given code anywhere in its chain
func HasCode(err error, code ErrorCode) bool {
	adapterErr, ok := AsAdapterError(err)
	return ok && adapterErr.Code == code
}
