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
	"fmt"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrSchemaNotFound, "Test schema error")

	if err.Code != ErrSchemaNotFound {
		t.Errorf("Expected code %s, got %s", ErrSchemaNotFound, err.Code)
	}

	if err.Message != "Test schema error" {
		t.Errorf("Expected message 'Test schema error', got %s", err.Message)
	}

	if err.Timestamp.IsZero() {
		t.Error("Expected timestamp to be set")
	}

	if err.Cause != nil {
		t.Error("Expected no cause for new error")
	}
}

func TestNewf(t *testing.T) {
	err := Newf(ErrInvalidRequestFormat, "Invalid microservice ID: %s", "ms-1")

	expectedMessage := "Invalid microservice ID: ms-1"
	if err.Message != expectedMessage {
		t.Errorf("Expected message '%s', got %s", expectedMessage, err.Message)
	}
}

func TestWrapAndUnwrap(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := Wrapf(ErrRemoteOperationFailed, cause, "register %s failed", "HelloController")

	if err.Message != "register HelloController failed" {
		t.Errorf("Expected formatted message, got %s", err.Message)
	}

	if err.Unwrap() != cause {
		t.Errorf("Expected cause %v when unwrapping, got %v", cause, err.Unwrap())
	}

	expected := "REMOTE_OPERATION_FAILED: register HelloController failed (caused by: connection refused)"
	if err.Error() != expected {
		t.Errorf("Expected error string '%s', got %s", expected, err.Error())
	}
}

func TestToErrorResponse(t *testing.T) {
	err := NewSchemaNotFoundError("PetController").WithRequestID("req-123456")

	response := err.ToErrorResponse()

	if response.Error.Code != string(ErrSchemaNotFound) {
		t.Errorf("Expected code %s, got %s", ErrSchemaNotFound, response.Error.Code)
	}

	if response.Error.RequestID != "req-123456" {
		t.Errorf("Expected request ID 'req-123456', got %s", response.Error.RequestID)
	}

	if response.Error.Details["schema_id"] != "PetController" {
		t.Errorf("Expected schema_id detail, got %v", response.Error.Details["schema_id"])
	}
}

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		code           ErrorCode
		expectedStatus int
	}{
		{ErrInvalidRequestFormat, 400},
		{ErrDocumentationInvalid, 400},
		{ErrUnauthorized, 401},
		{ErrSchemaNotFound, 404},
		{ErrDocumentationNotFound, 404},
		{ErrRemoteOperationFailed, 502},
		{ErrServiceUnavailable, 503},
		{ErrRegistryUnavailable, 503},
		{ErrTimeout, 504},
		{ErrSerializationFailed, 500},
		{ErrInternalError, 500},
	}

	for _, test := range tests {
		err := New(test.code, "test")
		if status := err.GetHTTPStatus(); status != test.expectedStatus {
			t.Errorf("GetHTTPStatus() for %s = %d, expected %d", test.code, status, test.expectedStatus)
		}
	}
}

func TestAsAdapterError(t *testing.T) {
	inner := NewSerializationError("HelloController", fmt.Errorf("bad yaml"))
	wrapped := fmt.Errorf("export: %w", inner)

	got, ok := AsAdapterError(wrapped)
	if !ok {
		t.Fatal("Expected AdapterError in chain")
	}
	if got.Code != ErrSerializationFailed {
		t.Errorf("Expected code %s, got %s", ErrSerializationFailed, got.Code)
	}

	if !HasCode(wrapped, ErrSerializationFailed) {
		t.Error("Expected HasCode to find SERIALIZATION_FAILED")
	}
	if HasCode(fmt.Errorf("plain"), ErrSerializationFailed) {
		t.Error("Expected HasCode to be false for plain error")
	}
}
