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

package registry

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Call records one RegisterSchema invocation seen by MockClient
type Call struct {
	MicroserviceID string
	SchemaID       string
	Content        string
	Summary        string
}

// MockClient implements Client for testing and dry runs. It records every
// call and can fail selected schema ids.
type MockClient struct {
	mu       sync.Mutex
	calls    []Call
	errors   map[string]error
	services map[string]string
	gate     chan struct{}
}

// NewMockClient creates a new mock registry client
func NewMockClient() *MockClient {
	return &MockClient{
		errors:   make(map[string]error),
		services: make(map[string]string),
	}
}

// SetError makes RegisterSchema fail for schemaID
func (m *MockClient) SetError(schemaID string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[schemaID] = err
}

// Hold blocks RegisterSchema until Release is called
func (m *MockClient) Hold() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.gate == nil {
		m.gate = make(chan struct{})
	}
}

// Release unblocks calls waiting after Hold
func (m *MockClient) Release() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.gate != nil {
		close(m.gate)
		m.gate = nil
	}
}

// RegisterSchema records the call and returns the configured error, if any
func (m *MockClient) RegisterSchema(ctx context.Context, microserviceID, schemaID, content, summary string) error {
	m.mu.Lock()
	gate := m.gate
	m.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return &RemoteOperationError{Operation: "register schema " + schemaID, Cause: ctx.Err()}
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, Call{
		MicroserviceID: microserviceID,
		SchemaID:       schemaID,
		Content:        content,
		Summary:        summary,
	})
	if err, ok := m.errors[schemaID]; ok {
		return err
	}
	return nil
}

// RegisterMicroservice returns a stable fake id per microservice key
func (m *MockClient) RegisterMicroservice(ctx context.Context, ms *Microservice) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := ms.Key()
	if id, ok := m.services[key]; ok {
		return id, nil
	}
	id := fmt.Sprintf("mock-%d", len(m.services)+1)
	m.services[key] = id
	return id, nil
}

// ListSchemas returns the latest successful registration per schema id
func (m *MockClient) ListSchemas(ctx context.Context, microserviceID string) ([]SchemaSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	latest := make(map[string]SchemaSummary)
	for _, call := range m.calls {
		if call.MicroserviceID != microserviceID {
			continue
		}
		if _, failed := m.errors[call.SchemaID]; failed {
			continue
		}
		latest[call.SchemaID] = SchemaSummary{SchemaID: call.SchemaID, Summary: call.Summary}
	}

	result := make([]SchemaSummary, 0, len(latest))
	for _, s := range latest {
		result = append(result, s)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].SchemaID < result[j].SchemaID })
	return result, nil
}

// Calls returns a copy of the recorded calls in invocation order
func (m *MockClient) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Call(nil), m.calls...)
}

// SchemaIDs returns the schema ids of the recorded calls in invocation order
func (m *MockClient) SchemaIDs() []string {
	calls := m.Calls()
	ids := make([]string, len(calls))
	for i, call := range calls {
		ids[i] = call.SchemaID
	}
	return ids
}
