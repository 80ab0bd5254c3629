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

package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/servicecomb-go/swagger-adapter/internal/config"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var entries []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]interface{}
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("Failed to decode log line %q: %v", line, err)
		}
		entries = append(entries, entry)
	}
	return entries
}

func TestLogger_ComponentAndFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(config.LoggingConfig{Level: "info", Format: "json"}, &buf)

	logger.WithComponent("registrar").WithField("schema_id", "HelloController").Infof("register swagger %s", "HelloController")

	entries := decodeLines(t, &buf)
	if len(entries) != 1 {
		t.Fatalf("Expected 1 entry, got %d", len(entries))
	}
	entry := entries[0]
	if entry["message"] != "register swagger HelloController" {
		t.Errorf("Unexpected message: %v", entry["message"])
	}
	if entry["component"] != "registrar" {
		t.Errorf("Expected component 'registrar', got %v", entry["component"])
	}
	if entry["schema_id"] != "HelloController" {
		t.Errorf("Expected schema_id field, got %v", entry["schema_id"])
	}
	if entry["level"] != "info" {
		t.Errorf("Expected level info, got %v", entry["level"])
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(config.LoggingConfig{Level: "warn", Format: "json"}, &buf)

	logger.Debug("debug")
	logger.Info("info")
	logger.Warn("warn")
	logger.Error("error", errors.New("boom"))

	entries := decodeLines(t, &buf)
	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries at warn level, got %d", len(entries))
	}
	if entries[1]["error"] != "boom" {
		t.Errorf("Expected error field 'boom', got %v", entries[1]["error"])
	}
}

func TestLogger_WithContext(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(config.LoggingConfig{Level: "info"}, &buf)

	ctx := WithMicroserviceID(WithRequestID(context.Background(), "req-1"), "ms-1")
	logger.WithContext(ctx).Info("hello")

	entries := decodeLines(t, &buf)
	if entries[0]["request_id"] != "req-1" {
		t.Errorf("Expected request_id 'req-1', got %v", entries[0]["request_id"])
	}
	if entries[0]["microservice_id"] != "ms-1" {
		t.Errorf("Expected microservice_id 'ms-1', got %v", entries[0]["microservice_id"])
	}
}

func TestLogger_LogRegistration(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(config.LoggingConfig{Level: "info"}, &buf)

	logger.LogRegistration("ms-1", "HelloController", "sync", 5*time.Millisecond, nil)
	logger.LogRegistration("ms-1", "PetController", "sync", time.Millisecond, errors.New("503"))

	entries := decodeLines(t, &buf)
	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(entries))
	}
	if entries[0]["level"] != "info" || entries[1]["level"] != "error" {
		t.Errorf("Unexpected levels: %v, %v", entries[0]["level"], entries[1]["level"])
	}
	if entries[1]["schema_id"] != "PetController" {
		t.Errorf("Expected schema_id PetController, got %v", entries[1]["schema_id"])
	}
}

func TestWithFieldsDoesNotMutateParent(t *testing.T) {
	parent := NewNopLogger().WithField("a", 1)
	child := parent.WithField("b", 2)

	if _, ok := parent.fields["b"]; ok {
		t.Error("Expected parent fields to be unchanged")
	}
	if len(child.fields) != 2 {
		t.Errorf("Expected 2 child fields, got %d", len(child.fields))
	}
}
