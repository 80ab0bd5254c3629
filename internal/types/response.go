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

package types

import "time"

// ErrorResponse is the JSON envelope returned by the management API on failure
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail describes a single API error
type ErrorDetail struct {
	Code      string                 `json:"code"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	RequestID string                 `json:"request_id,omitempty"`
}

// RegisterRequest asks the adapter to push schemas for a microservice.
// An empty SchemaIDs list means every schema currently in the store.
type RegisterRequest struct {
	MicroserviceID string   `json:"microservice_id" binding:"required"`
	SchemaIDs      []string `json:"schema_ids,omitempty"`
}

// RegistrationResult is the outcome for one schema id within a batch
type RegistrationResult struct {
	SchemaID string `json:"schema_id"`
	Summary  string `json:"summary,omitempty"`
	Status   string `json:"status"`
	Error    string `json:"error,omitempty"`
}

// RegisterResponse is returned when a registration batch is accepted
type RegisterResponse struct {
	TaskID         string               `json:"task_id"`
	MicroserviceID string               `json:"microservice_id"`
	Mode           string               `json:"mode"`
	Done           bool                 `json:"done"`
	Results        []RegistrationResult `json:"results,omitempty"`
	Timestamp      time.Time            `json:"timestamp"`
}
