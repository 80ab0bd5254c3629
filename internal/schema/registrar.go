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

package schema

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/servicecomb-go/swagger-adapter/internal/types"
)

// Registration modes
const (
	ModeSync  = "sync"
	ModeAsync = "async"
)

// Registrar decides where a registration batch runs
type Registrar interface {
	Mode() string
	Start(ctx context.Context, run func(ctx context.Context))
}

// SyncRegistrar runs the batch on the calling goroutine
type SyncRegistrar struct{}

// Mode implements Registrar
func (SyncRegistrar) Mode() string { return ModeSync }

// Start implements Registrar
func (SyncRegistrar) Start(ctx context.Context, run func(ctx context.Context)) {
	run(ctx)
}

// AsyncRegistrar runs the batch on a detached goroutine. The batch outlives
// the caller's context cancellation but keeps its values.
type AsyncRegistrar struct{}

// Mode implements Registrar
func (AsyncRegistrar) Mode() string { return ModeAsync }

// Start implements Registrar
func (AsyncRegistrar) Start(ctx context.Context, run func(ctx context.Context)) {
	go run(context.WithoutCancel(ctx))
}

// NewRegistrar picks the registrar matching the adapter mode
func NewRegistrar(javaChassis bool) Registrar {
	if javaChassis {
		return SyncRegistrar{}
	}
	return AsyncRegistrar{}
}

// RegistrationTask tracks one RegisterSwagger call
type RegistrationTask struct {
	ID             string
	MicroserviceID string
	Mode           string
	SchemaIDs      []string
	StartedAt      time.Time

	mu       sync.Mutex
	results  []types.RegistrationResult
	finished time.Time
	done     chan struct{}
}

func newRegistrationTask(microserviceID, mode string, schemaIDs []string) *RegistrationTask {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return &RegistrationTask{
		ID:             id.String(),
		MicroserviceID: microserviceID,
		Mode:           mode,
		SchemaIDs:      append([]string(nil), schemaIDs...),
		StartedAt:      time.Now(),
		results:        make([]types.RegistrationResult, 0, len(schemaIDs)),
		done:           make(chan struct{}),
	}
}

// Done is closed once every schema of the batch has been attempted
func (t *RegistrationTask) Done() <-chan struct{} {
	return t.done
}

// IsDone reports whether the batch has finished
func (t *RegistrationTask) IsDone() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}

// Wait blocks until the batch finishes or ctx is done
func (t *RegistrationTask) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Results returns the outcomes recorded so far, in registration order
func (t *RegistrationTask) Results() []types.RegistrationResult {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]types.RegistrationResult(nil), t.results...)
}

// Failed returns the number of failed items recorded so far
func (t *RegistrationTask) Failed() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for _, r := range t.results {
		if r.Error != "" {
			n++
		}
	}
	return n
}

// Duration returns the elapsed time of a finished batch, or the time spent so far
func (t *RegistrationTask) Duration() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.finished.IsZero() {
		return time.Since(t.StartedAt)
	}
	return t.finished.Sub(t.StartedAt)
}

// Response converts the task into its API representation
func (t *RegistrationTask) Response() types.RegisterResponse {
	return types.RegisterResponse{
		TaskID:         t.ID,
		MicroserviceID: t.MicroserviceID,
		Mode:           t.Mode,
		Done:           t.IsDone(),
		Results:        t.Results(),
		Timestamp:      t.StartedAt,
	}
}

func (t *RegistrationTask) add(result types.RegistrationResult) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.results = append(t.results, result)
}

func (t *RegistrationTask) finish() {
	t.mu.Lock()
	t.finished = time.Now()
	t.mu.Unlock()
	close(t.done)
}
