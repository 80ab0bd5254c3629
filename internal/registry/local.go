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
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/servicecomb-go/swagger-adapter/internal/config"
)

const localIndexFile = "index.json"

// LocalClient implements Client on the local file system. Schemas are
// written to <base>/<microserviceID>/<schemaID>.yaml and tracked in index.json.
type LocalClient struct {
	basePath string
	mu       sync.RWMutex
	index    localIndex
}

type localIndex struct {
	Version       string                        `json:"version"`
	UpdatedAt     time.Time                     `json:"updated_at"`
	Microservices map[string]*localMicroservice `json:"microservices"`
}

type localMicroservice struct {
	ID           string                     `json:"id"`
	Microservice Microservice               `json:"microservice"`
	Schemas      map[string]*SchemaMetadata `json:"schemas"`
}

// SchemaMetadata describes a schema stored by the LocalClient
type SchemaMetadata struct {
	SchemaID  string    `json:"schema_id"`
	Summary   string    `json:"summary"`
	Checksum  string    `json:"checksum"`
	Size      int64     `json:"size"`
	FilePath  string    `json:"file_path"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewLocalClient creates a file-backed registry client
func NewLocalClient(cfg config.LocalRegistryConfig) (*LocalClient, error) {
	if cfg.BasePath == "" {
		cfg.BasePath = "./schemas"
	}

	if cfg.CreateDirs {
		if err := os.MkdirAll(cfg.BasePath, 0755); err != nil {
			return nil, fmt.Errorf("failed to create registry directory: %w", err)
		}
	}
	if info, err := os.Stat(cfg.BasePath); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("registry directory not found: %s", cfg.BasePath)
	}

	client := &LocalClient{
		basePath: cfg.BasePath,
		index: localIndex{
			Version:       "1.0",
			Microservices: make(map[string]*localMicroservice),
		},
	}
	if err := client.loadIndex(); err != nil {
		return nil, fmt.Errorf("failed to load registry: %w", err)
	}
	return client, nil
}

// RegisterSchema writes the schema file and updates the index
func (lc *LocalClient) RegisterSchema(ctx context.Context, microserviceID, schemaID, content, summary string) error {
	if err := ctx.Err(); err != nil {
		return &RemoteOperationError{Operation: "register schema " + schemaID, Cause: err}
	}

	lc.mu.Lock()
	defer lc.mu.Unlock()

	entry := lc.findByID(microserviceID)
	if entry == nil {
		return &RemoteOperationError{
			Operation:  "register schema " + schemaID,
			StatusCode: 400,
			Code:       errCodeServiceNotExists,
			Message:    fmt.Sprintf("microservice %s does not exist", microserviceID),
		}
	}

	relPath := filepath.Join(microserviceID, schemaID+".yaml")
	fullPath := filepath.Join(lc.basePath, relPath)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return &RemoteOperationError{Operation: "register schema " + schemaID, Cause: err}
	}
	if err := os.WriteFile(fullPath, []byte(content), 0644); err != nil {
		return &RemoteOperationError{Operation: "register schema " + schemaID, Cause: err}
	}

	checksum := sha256.Sum256([]byte(content))
	entry.Schemas[schemaID] = &SchemaMetadata{
		SchemaID:  schemaID,
		Summary:   summary,
		Checksum:  hex.EncodeToString(checksum[:]),
		Size:      int64(len(content)),
		FilePath:  relPath,
		UpdatedAt: time.Now().UTC(),
	}

	if err := lc.saveIndex(); err != nil {
		return &RemoteOperationError{Operation: "register schema " + schemaID, Cause: err}
	}
	return nil
}

// RegisterMicroservice returns the stored id for ms or allocates a new one
func (lc *LocalClient) RegisterMicroservice(ctx context.Context, ms *Microservice) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &RemoteOperationError{Operation: "register microservice", Cause: err}
	}

	lc.mu.Lock()
	defer lc.mu.Unlock()

	key := ms.Key()
	if entry, ok := lc.index.Microservices[key]; ok {
		return entry.ID, nil
	}

	entry := &localMicroservice{
		ID:           uuid.NewString(),
		Microservice: *ms,
		Schemas:      make(map[string]*SchemaMetadata),
	}
	lc.index.Microservices[key] = entry
	if err := lc.saveIndex(); err != nil {
		delete(lc.index.Microservices, key)
		return "", &RemoteOperationError{Operation: "register microservice", Cause: err}
	}
	return entry.ID, nil
}

// ListSchemas lists the schemas stored for a microservice, sorted by id
func (lc *LocalClient) ListSchemas(ctx context.Context, microserviceID string) ([]SchemaSummary, error) {
	lc.mu.RLock()
	defer lc.mu.RUnlock()

	entry := lc.findByID(microserviceID)
	if entry == nil {
		return nil, &RemoteOperationError{
			Operation:  "list schemas",
			StatusCode: 400,
			Code:       errCodeServiceNotExists,
			Message:    fmt.Sprintf("microservice %s does not exist", microserviceID),
		}
	}

	result := make([]SchemaSummary, 0, len(entry.Schemas))
	for id, meta := range entry.Schemas {
		result = append(result, SchemaSummary{SchemaID: id, Summary: meta.Summary})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].SchemaID < result[j].SchemaID })
	return result, nil
}

// ReadSchema returns the stored content of a schema
func (lc *LocalClient) ReadSchema(microserviceID, schemaID string) (string, error) {
	lc.mu.RLock()
	defer lc.mu.RUnlock()

	entry := lc.findByID(microserviceID)
	if entry == nil {
		return "", fmt.Errorf("microservice %s does not exist", microserviceID)
	}
	meta, ok := entry.Schemas[schemaID]
	if !ok {
		return "", fmt.Errorf("schema %s not found for microservice %s", schemaID, microserviceID)
	}
	data, err := os.ReadFile(filepath.Join(lc.basePath, meta.FilePath))
	if err != nil {
		return "", fmt.Errorf("failed to read schema file: %w", err)
	}
	return string(data), nil
}

func (lc *LocalClient) findByID(microserviceID string) *localMicroservice {
	for _, entry := range lc.index.Microservices {
		if entry.ID == microserviceID {
			return entry
		}
	}
	return nil
}

// loadIndex reads index.json when present
func (lc *LocalClient) loadIndex() error {
	data, err := os.ReadFile(filepath.Join(lc.basePath, localIndexFile))
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read index file: %w", err)
	}

	var index localIndex
	if err := json.Unmarshal(data, &index); err != nil {
		return fmt.Errorf("failed to parse index file: %w", err)
	}
	if index.Microservices == nil {
		index.Microservices = make(map[string]*localMicroservice)
	}
	for _, entry := range index.Microservices {
		if entry.Schemas == nil {
			entry.Schemas = make(map[string]*SchemaMetadata)
		}
	}
	lc.index = index
	return nil
}

// saveIndex writes index.json; the caller holds the write lock
func (lc *LocalClient) saveIndex() error {
	lc.index.UpdatedAt = time.Now().UTC()
	data, err := json.MarshalIndent(lc.index, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal index: %w", err)
	}
	tmp := filepath.Join(lc.basePath, localIndexFile+".tmp")
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write index file: %w", err)
	}
	return os.Rename(tmp, filepath.Join(lc.basePath, localIndexFile))
}
