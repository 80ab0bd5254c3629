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

package storage

import (
	"context"
	"time"
)

// Registration statuses
const (
	StatusRegistered = "registered"
	StatusFailed     = "failed"
)

// Registration is the outcome of registering one schema
type Registration struct {
	TaskID         string        `json:"task_id"`
	MicroserviceID string        `json:"microservice_id"`
	SchemaID       string        `json:"schema_id"`
	Summary        string        `json:"summary,omitempty"`
	Mode           string        `json:"mode"`
	Status         string        `json:"status"`
	Error          string        `json:"error,omitempty"`
	ContentLength  int           `json:"content_length,omitempty"`
	Duration       time.Duration `json:"duration_ns"`
	Timestamp      time.Time     `json:"timestamp"`
}

// RegistrationStore keeps the history of schema registrations
type RegistrationStore interface {
	Record(ctx context.Context, registration *Registration) error
	List(ctx context.Context, filter RegistrationFilter) ([]*Registration, error)
	Stats(ctx context.Context) (RegistrationStats, error)

	// Maintenance operations
	Close() error
	HealthCheck(ctx context.Context) error
}

// RegistrationFilter defines filtering criteria for history queries
type RegistrationFilter struct {
	MicroserviceID string
	SchemaID       string
	TaskID         string
	Status         string
	Limit          int
}

// Matches reports whether r satisfies the filter
func (f RegistrationFilter) Matches(r *Registration) bool {
	if f.MicroserviceID != "" && r.MicroserviceID != f.MicroserviceID {
		return false
	}
	if f.SchemaID != "" && r.SchemaID != f.SchemaID {
		return false
	}
	if f.TaskID != "" && r.TaskID != f.TaskID {
		return false
	}
	if f.Status != "" && r.Status != f.Status {
		return false
	}
	return true
}

// RegistrationStats summarizes the registration history
type RegistrationStats struct {
	Total      int64 `json:"total"`
	Registered int64 `json:"registered"`
	Failed     int64 `json:"failed"`
}

func validateRegistration(r *Registration) error {
	switch {
	case r == nil:
		return errNilRegistration
	case r.SchemaID == "":
		return errEmptySchemaID
	case r.Status != StatusRegistered && r.Status != StatusFailed:
		return errInvalidStatus
	}
	return nil
}
