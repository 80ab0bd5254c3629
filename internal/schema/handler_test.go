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
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/go-openapi/spec"
	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/servicecomb-go/swagger-adapter/internal/docs"
	"github.com/servicecomb-go/swagger-adapter/internal/errors"
	"github.com/servicecomb-go/swagger-adapter/internal/metrics"
	"github.com/servicecomb-go/swagger-adapter/internal/registry"
	"github.com/servicecomb-go/swagger-adapter/internal/storage"
)

func keys(m map[string]*spec.Swagger) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

type testHandler struct {
	*Handler
	client  *registry.MockClient
	history *storage.MemoryStore
	metrics *metrics.Metrics
}

func newTestHandler(t *testing.T, javaChassis bool) *testHandler {
	t.Helper()

	cache := docs.NewCache()
	cache.Add(helloDocumentation())

	client := registry.NewMockClient()
	history := storage.NewMemoryStore(100)
	m := metrics.NewMetrics()

	h, err := NewHandler(Options{
		EnableJavaChassisAdapter: javaChassis,
		Source:                   cache,
		Client:                   client,
		History:                  history,
		Metrics:                  m,
	})
	if err != nil {
		t.Fatalf("Failed to create handler: %v", err)
	}
	if err := h.Init("springmvc", "hello-service"); err != nil {
		t.Fatalf("Failed to init handler: %v", err)
	}
	return &testHandler{Handler: h, client: client, history: history, metrics: m}
}

func TestNewHandler_Validation(t *testing.T) {
	if _, err := NewHandler(Options{Client: registry.NewMockClient()}); err == nil {
		t.Error("Expected error without documentation source")
	}
	if _, err := NewHandler(Options{Source: docs.NewCache()}); err == nil {
		t.Error("Expected error without registry client")
	}
}

func TestHandler_InitMissingGroup(t *testing.T) {
	h, err := NewHandler(Options{
		Group:  "missing",
		Source: docs.NewCache(),
		Client: registry.NewMockClient(),
	})
	if err != nil {
		t.Fatalf("Failed to create handler: %v", err)
	}

	err = h.Init("app", "svc")
	if !errors.HasCode(err, errors.ErrDocumentationNotFound) {
		t.Errorf("Expected DOCUMENTATION_NOT_FOUND, got %v", err)
	}
	if len(h.SchemaIDs()) != 0 {
		t.Error("Expected empty store after failed init")
	}
}

func TestHandler_SchemaIDs(t *testing.T) {
	th := newTestHandler(t, true)

	if diff := cmp.Diff([]string{"HelloController", "OrderController"}, th.SchemaIDs()); diff != "" {
		t.Errorf("Schema ids mismatch (-want +got):\n%s", diff)
	}
	if got := testutil.ToFloat64(th.metrics.SchemasLoaded); got != 2 {
		t.Errorf("Expected 2 schemas loaded, got %v", got)
	}
}

func TestHandler_InitReplacesStore(t *testing.T) {
	cache := docs.NewCache()
	cache.Add(helloDocumentation())
	h, err := NewHandler(Options{Source: cache, Client: registry.NewMockClient(), EnableJavaChassisAdapter: true})
	if err != nil {
		t.Fatalf("Failed to create handler: %v", err)
	}
	if err := h.Init("app", "svc"); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	cache.Add(&docs.Documentation{
		Listings: map[string][]*docs.APIListing{"pet-controller": {{ResourceType: "com.example.PetController"}}},
	})
	if err := h.Init("app", "svc"); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if diff := cmp.Diff([]string{"PetController"}, h.SchemaIDs()); diff != "" {
		t.Errorf("Schema ids mismatch after re-init (-want +got):\n%s", diff)
	}
}

func TestHandler_SchemasMapAndSummary(t *testing.T) {
	th := newTestHandler(t, true)

	contents := th.SchemasMap()
	summaries := th.SchemasSummaryMap()

	for _, id := range th.SchemaIDs() {
		content, ok := contents[id]
		if !ok || content == "" {
			t.Fatalf("Expected content for %s", id)
		}
		sum := sha256.Sum256([]byte(content))
		if summaries[id] != hex.EncodeToString(sum[:]) {
			t.Errorf("Summary of %s does not match sha256 of its content", id)
		}
	}

	if !strings.Contains(contents["HelloController"], "x-java-interface: cse.gen.springmvc.hello_service.HelloControllerIntf") {
		t.Errorf("Expected java interface in content:\n%s", contents["HelloController"])
	}
	if !strings.Contains(contents["HelloController"], "swagger: \"2.0\"\n") {
		t.Errorf("Expected quoted swagger version in content:\n%s", contents["HelloController"])
	}
}

func TestHandler_SerializationFailure(t *testing.T) {
	th := newTestHandler(t, true)

	broken := &spec.Swagger{SwaggerProps: spec.SwaggerProps{Swagger: "2.0", Info: &spec.Info{}}}
	broken.Info.AddExtension("x-broken", make(chan int))
	ok := &spec.Swagger{SwaggerProps: spec.SwaggerProps{Swagger: "2.0", Info: &spec.Info{}}}
	th.store.Replace(map[string]*spec.Swagger{"Broken": broken, "Ok": ok})

	contents := th.SchemasMap()
	summaries := th.SchemasSummaryMap()

	for _, m := range []map[string]string{contents, summaries} {
		value, present := m["Broken"]
		if !present {
			t.Fatal("Expected failed schema to keep its key")
		}
		if value != "" {
			t.Errorf("Expected empty value for failed schema, got %q", value)
		}
		if m["Ok"] == "" {
			t.Error("Expected healthy schema to serialize")
		}
	}
	if got := testutil.ToFloat64(th.metrics.SerializationErrors.WithLabelValues("contents")); got != 1 {
		t.Errorf("Expected 1 contents serialization error, got %v", got)
	}

	if _, err := th.Schema("Broken"); !errors.HasCode(err, errors.ErrSerializationFailed) {
		t.Errorf("Expected SERIALIZATION_FAILED, got %v", err)
	}
}

func TestHandler_Schema(t *testing.T) {
	th := newTestHandler(t, true)

	content, err := th.Schema("OrderController")
	if err != nil {
		t.Fatalf("Schema failed: %v", err)
	}
	if content != th.SchemasMap()["OrderController"] {
		t.Error("Expected Schema to match SchemasMap entry")
	}

	if _, err := th.Schema("Missing"); !errors.HasCode(err, errors.ErrSchemaNotFound) {
		t.Errorf("Expected SCHEMA_NOT_FOUND, got %v", err)
	}
}

func TestHandler_RegisterSwaggerSync(t *testing.T) {
	th := newTestHandler(t, true)
	th.client.SetError("HelloController", fmt.Errorf("boom"))

	task := th.RegisterSwagger(context.Background(), "ms-1", []string{"HelloController", "OrderController"})

	if task.Mode != ModeSync {
		t.Errorf("Expected sync mode, got %s", task.Mode)
	}
	if !task.IsDone() {
		t.Fatal("Expected sync task to be done on return")
	}

	if diff := cmp.Diff([]string{"HelloController", "OrderController"}, th.client.SchemaIDs()); diff != "" {
		t.Errorf("Client calls mismatch (-want +got):\n%s", diff)
	}

	results := task.Results()
	if len(results) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(results))
	}
	if results[0].Status != storage.StatusFailed || !strings.Contains(results[0].Error, "boom") {
		t.Errorf("Expected first item to fail, got %+v", results[0])
	}
	if results[1].Status != storage.StatusRegistered {
		t.Errorf("Expected second item to succeed, got %+v", results[1])
	}

	calls := th.client.Calls()
	if calls[1].Content != th.SchemasMap()["OrderController"] {
		t.Error("Expected registered content to be the YAML schema")
	}
	if calls[1].Summary != th.SchemasSummaryMap()["OrderController"] {
		t.Error("Expected registered summary to match the summary map")
	}
	if calls[1].MicroserviceID != "ms-1" {
		t.Errorf("Expected microservice ms-1, got %s", calls[1].MicroserviceID)
	}

	if got := testutil.ToFloat64(th.metrics.RegistrationsTotal.WithLabelValues(ModeSync, storage.StatusFailed)); got != 1 {
		t.Errorf("Expected 1 failed registration metric, got %v", got)
	}

	records, err := th.history.List(context.Background(), storage.RegistrationFilter{TaskID: task.ID})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(records) != 2 {
		t.Errorf("Expected 2 history records, got %d", len(records))
	}
}

func TestHandler_RegisterSwaggerUnknownID(t *testing.T) {
	th := newTestHandler(t, true)

	task := th.RegisterSwagger(context.Background(), "ms-1", []string{"Missing", "OrderController"})

	results := task.Results()
	if len(results) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(results))
	}
	if results[0].Status != storage.StatusFailed || !strings.Contains(results[0].Error, "SCHEMA_NOT_FOUND") {
		t.Errorf("Expected unknown id to fail, got %+v", results[0])
	}
	if diff := cmp.Diff([]string{"OrderController"}, th.client.SchemaIDs()); diff != "" {
		t.Errorf("Client calls mismatch (-want +got):\n%s", diff)
	}
	if task.Failed() != 1 {
		t.Errorf("Expected 1 failure, got %d", task.Failed())
	}
}

func TestHandler_RegisterSwaggerEmptyList(t *testing.T) {
	for _, javaChassis := range []bool{true, false} {
		th := newTestHandler(t, javaChassis)

		for _, ids := range [][]string{nil, {}} {
			task := th.RegisterSwagger(context.Background(), "ms-1", ids)

			waitCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := task.Wait(waitCtx); err != nil {
				t.Fatalf("Wait failed: %v", err)
			}
			cancel()

			if len(task.Results()) != 0 {
				t.Errorf("Expected no results for %v, got %+v", ids, task.Results())
			}
		}
		if calls := th.client.SchemaIDs(); len(calls) != 0 {
			t.Errorf("Expected no client calls for an empty list (java chassis %v), got %v", javaChassis, calls)
		}
	}
}

func TestHandler_RegisterSwaggerAsync(t *testing.T) {
	th := newTestHandler(t, false)
	ids := th.SchemaIDs()
	th.client.Hold()

	ctx, cancel := context.WithCancel(context.Background())
	task := th.RegisterSwagger(ctx, "ms-2", ids)

	if task.Mode != ModeAsync {
		t.Errorf("Expected async mode, got %s", task.Mode)
	}
	if task.IsDone() {
		t.Fatal("Expected async task to return before the batch completes")
	}
	if len(th.client.Calls()) != 0 {
		t.Error("Expected no completed client calls while held")
	}

	// Cancelling the caller's context must not abort the detached batch
	cancel()
	th.client.Release()

	waitCtx, waitCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer waitCancel()
	if err := task.Wait(waitCtx); err != nil {
		t.Fatalf("Wait failed: %v", err)
	}

	if diff := cmp.Diff(ids, th.client.SchemaIDs()); diff != "" {
		t.Errorf("Client calls mismatch (-want +got):\n%s", diff)
	}
	for _, r := range task.Results() {
		if r.Status != storage.StatusRegistered {
			t.Errorf("Expected %s to be registered, got %+v", r.SchemaID, r)
		}
	}
	if resp := task.Response(); !resp.Done || resp.TaskID != task.ID {
		t.Errorf("Unexpected response: %+v", resp)
	}
}

func TestRegistrationTask_WaitTimeout(t *testing.T) {
	task := newRegistrationTask("ms", ModeAsync, []string{"a"})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := task.Wait(ctx); err != context.DeadlineExceeded {
		t.Errorf("Expected deadline exceeded, got %v", err)
	}

	task.finish()
	if err := task.Wait(context.Background()); err != nil {
		t.Errorf("Expected nil after finish, got %v", err)
	}
}

func TestRegistrationTask_IDs(t *testing.T) {
	a := newRegistrationTask("ms", ModeSync, nil)
	b := newRegistrationTask("ms", ModeSync, nil)
	if a.ID == "" || a.ID == b.ID {
		t.Errorf("Expected unique task ids, got %q and %q", a.ID, b.ID)
	}
}

func TestStore(t *testing.T) {
	s := NewStore()
	if s.Len() != 0 || len(s.IDs()) != 0 {
		t.Error("Expected empty store")
	}

	s.Replace(map[string]*spec.Swagger{"b": {}, "a": {}})
	if diff := cmp.Diff([]string{"a", "b"}, s.IDs()); diff != "" {
		t.Errorf("Ids mismatch (-want +got):\n%s", diff)
	}
	if _, ok := s.Get("a"); !ok {
		t.Error("Expected schema a")
	}

	s.Replace(nil)
	if s.Len() != 0 {
		t.Error("Expected empty store after replace with nil")
	}
}
