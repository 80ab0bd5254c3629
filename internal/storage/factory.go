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
	"fmt"
	"strings"

	"github.com/servicecomb-go/swagger-adapter/internal/config"
)

// NewRegistrationStore creates a registration store based on the configuration
func NewRegistrationStore(ctx context.Context, cfg config.StorageConfig) (RegistrationStore, error) {
	storageType := strings.ToLower(cfg.Type)
	if storageType == "" {
		storageType = config.StorageTypeMemory // Default to memory storage
	}

	switch storageType {
	case config.StorageTypeMemory:
		return NewMemoryStore(DefaultMaxRecords), nil

	case config.StorageTypeDatabase:
		if cfg.Database == nil {
			return nil, fmt.Errorf("database configuration is required for database storage")
		}
		store, err := NewDatabaseStore(*cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		if err := store.Migrate(ctx); err != nil {
			store.Close()
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
		return store, nil

	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
}
