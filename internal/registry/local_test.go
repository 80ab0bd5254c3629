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
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/servicecomb-go/swagger-adapter/internal/config"
)

func TestLocalClient_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	client, err := NewLocalClient(config.LocalRegistryConfig{BasePath: dir})
	if err != nil {
		t.Fatalf("Failed to create local client: %v", err)
	}

	ctx := context.Background()
	ms := &Microservice{AppID: "app", ServiceName: "hello", Version: "1.0.0"}

	id, err := client.RegisterMicroservice(ctx, ms)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	again, _ := client.RegisterMicroservice(ctx, ms)
	if again != id {
		t.Errorf("Expected stable microservice id, got %s and %s", id, again)
	}

	if err := client.RegisterSchema(ctx, id, "HelloController", "swagger: \"2.0\"\n", "sum"); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, id, "HelloController.yaml")); err != nil {
		t.Errorf("Expected schema file to be written: %v", err)
	}

	content, err := client.ReadSchema(id, "HelloController")
	if err != nil || content != "swagger: \"2.0\"\n" {
		t.Errorf("Unexpected content %q, err %v", content, err)
	}

	// A fresh client sees what the first one persisted
	reloaded, err := NewLocalClient(config.LocalRegistryConfig{BasePath: dir})
	if err != nil {
		t.Fatalf("Failed to reload local client: %v", err)
	}
	schemas, err := reloaded.ListSchemas(ctx, id)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if diff := cmp.Diff([]SchemaSummary{{SchemaID: "HelloController", Summary: "sum"}}, schemas); diff != "" {
		t.Errorf("Schemas mismatch (-want +got):\n%s", diff)
	}
}

func TestLocalClient_UnknownMicroservice(t *testing.T) {
	client, err := NewLocalClient(config.LocalRegistryConfig{BasePath: t.TempDir()})
	if err != nil {
		t.Fatalf("Failed to create local client: %v", err)
	}

	err = client.RegisterSchema(context.Background(), "missing", "A", "x", "y")
	var remote *RemoteOperationError
	if !errors.As(err, &remote) || remote.Code != errCodeServiceNotExists {
		t.Errorf("Expected microservice-not-exists error, got %v", err)
	}
}

func TestLocalClient_CreateDirs(t *testing.T) {
	base := filepath.Join(t.TempDir(), "nested", "schemas")

	if _, err := NewLocalClient(config.LocalRegistryConfig{BasePath: base}); err == nil {
		t.Error("Expected error for missing directory without create_dirs")
	}
	if _, err := NewLocalClient(config.LocalRegistryConfig{BasePath: base, CreateDirs: true}); err != nil {
		t.Errorf("Expected directory to be created: %v", err)
	}
}

func TestMockClient(t *testing.T) {
	mock := NewMockClient()
	mock.SetError("B", &RemoteOperationError{Operation: "register schema B", StatusCode: 500})
	ctx := context.Background()

	for _, id := range []string{"A", "B", "C"} {
		mock.RegisterSchema(ctx, "ms-1", id, "content-"+id, "sum-"+id) // #nosec G104 -- failures are inspected below
	}

	if diff := cmp.Diff([]string{"A", "B", "C"}, mock.SchemaIDs()); diff != "" {
		t.Errorf("Call order mismatch (-want +got):\n%s", diff)
	}

	schemas, _ := mock.ListSchemas(ctx, "ms-1")
	if len(schemas) != 2 {
		t.Errorf("Expected failed schema to be excluded, got %v", schemas)
	}
}

func TestMockClient_Hold(t *testing.T) {
	mock := NewMockClient()
	mock.Hold()

	done := make(chan error, 1)
	go func() {
		done <- mock.RegisterSchema(context.Background(), "ms-1", "A", "x", "y")
	}()

	select {
	case <-done:
		t.Fatal("Expected call to block while held")
	case <-time.After(20 * time.Millisecond):
	}

	mock.Release()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Unexpected error: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Expected call to complete after release")
	}
}
