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

// Package registry contains the clients that publish schemas to a
// ServiceComb service-center.
package registry

import (
	"context"
	"fmt"
	"strings"

	"github.com/servicecomb-go/swagger-adapter/internal/config"
)

// Client is the remote registry consumed by schema registration
type Client interface {
	// RegisterSchema stores the content of one schema under a microservice
	RegisterSchema(ctx context.Context, microserviceID, schemaID, content, summary string) error

	// RegisterMicroservice registers the service, or finds it when it already
	// exists, and returns its id
	RegisterMicroservice(ctx context.Context, ms *Microservice) (string, error)

	// ListSchemas lists the schema summaries registered for a microservice
	ListSchemas(ctx context.Context, microserviceID string) ([]SchemaSummary, error)
}

// Microservice describes the service that owns the schemas
type Microservice struct {
	AppID       string   `json:"appId"`
	ServiceName string   `json:"serviceName"`
	Version     string   `json:"version"`
	Environment string   `json:"environment,omitempty"`
	Schemas     []string `json:"schemas,omitempty"`
	Status      string   `json:"status,omitempty"`
}

// Key identifies the microservice within a project
func (m *Microservice) Key() string {
	return strings.Join([]string{m.Environment, m.AppID, m.ServiceName, m.Version}, "/")
}

// SchemaSummary is a registered schema as reported by the registry
type SchemaSummary struct {
	SchemaID string `json:"schemaId"`
	Summary  string `json:"summary,omitempty"`
	Schema   string `json:"schema,omitempty"`
}

// RemoteOperationError reports a failed call to the registry
type RemoteOperationError struct {
	Operation  string
	StatusCode int
	Code       string
	Message    string
	Cause      error
}

// Error implements the error interface
func (e *RemoteOperationError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s failed", e.Operation)
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " with status %d", e.StatusCode)
	}
	if e.Code != "" {
		fmt.Fprintf(&b, " [%s]", e.Code)
	}
	if e.Message != "" {
		fmt.Fprintf(&b, ": %s", e.Message)
	}
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}
	return b.String()
}

// Unwrap returns the underlying cause error
func (e *RemoteOperationError) Unwrap() error {
	return e.Cause
}

// New creates the registry client selected by cfg
func New(cfg config.RegistryConfig) (Client, error) {
	switch strings.ToLower(cfg.Type) {
	case "", config.RegistryTypeHTTP:
		return NewHTTPClient(cfg), nil
	case config.RegistryTypeLocal:
		return NewLocalClient(cfg.Local)
	case config.RegistryTypeMock:
		return NewMockClient(), nil
	default:
		return nil, fmt.Errorf("unsupported registry type: %s", cfg.Type)
	}
}
