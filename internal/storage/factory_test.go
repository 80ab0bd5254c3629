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
	"testing"

	"github.com/servicecomb-go/swagger-adapter/internal/config"
)

func TestNewRegistrationStore(t *testing.T) {
	tests := []struct {
		name        string
		cfg         config.StorageConfig
		expectError bool
	}{
		{name: "default", cfg: config.StorageConfig{}},
		{name: "memory", cfg: config.StorageConfig{Type: "memory"}},
		{name: "database without config", cfg: config.StorageConfig{Type: "database"}, expectError: true},
		{name: "unsupported", cfg: config.StorageConfig{Type: "redis"}, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := NewRegistrationStore(context.Background(), tt.cfg)
			if tt.expectError {
				if err == nil {
					t.Error("Expected error but got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if _, ok := store.(*MemoryStore); !ok {
				t.Errorf("Expected MemoryStore, got %T", store)
			}
		})
	}
}
