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
	"errors"
	"sync"
	"time"
)

var (
	errNilRegistration = errors.New("registration cannot be nil")
	errEmptySchemaID   = errors.New("schema ID cannot be empty")
	errInvalidStatus   = errors.New("registration status must be registered or failed")
)

// DefaultMaxRecords bounds the memory store when no limit is configured
const DefaultMaxRecords = 10000

// MemoryStore implements RegistrationStore in memory, dropping the oldest
// records once maxRecords is reached
type MemoryStore struct {
	mu         sync.RWMutex
	records    []*Registration
	maxRecords int
	stats      RegistrationStats
}

// NewMemoryStore creates a new in-memory registration store
func NewMemoryStore(maxRecords int) *MemoryStore {
	if maxRecords <= 0 {
		maxRecords = DefaultMaxRecords
	}
	return &MemoryStore{maxRecords: maxRecords}
}

// Record stores a copy of the registration
func (ms *MemoryStore) Record(ctx context.Context, registration *Registration) error {
	if err := validateRegistration(registration); err != nil {
		return err
	}

	rec := *registration
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	if len(ms.records) >= ms.maxRecords {
		ms.records = append(ms.records[:0], ms.records[1:]...)
	}
	ms.records = append(ms.records, &rec)

	ms.stats.Total++
	if rec.Status == StatusRegistered {
		ms.stats.Registered++
	} else {
		ms.stats.Failed++
	}
	return nil
}

// List returns matching registrations, newest first
func (ms *MemoryStore) List(ctx context.Context, filter RegistrationFilter) ([]*Registration, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	var result []*Registration
	for i := len(ms.records) - 1; i >= 0; i-- {
		rec := ms.records[i]
		if !filter.Matches(rec) {
			continue
		}
		dup := *rec
		result = append(result, &dup)
		if filter.Limit > 0 && len(result) >= filter.Limit {
			break
		}
	}
	return result, nil
}

// Stats returns counters over every record ever stored
func (ms *MemoryStore) Stats(ctx context.Context) (RegistrationStats, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	return ms.stats, nil
}

// Close is a no-op for the memory store
func (ms *MemoryStore) Close() error {
	return nil
}

// HealthCheck always succeeds for the memory store
func (ms *MemoryStore) HealthCheck(ctx context.Context) error {
	return nil
}
