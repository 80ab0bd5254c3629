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

package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_RecordRegistration(t *testing.T) {
	m := NewMetrics()

	m.RecordRegistration("sync", "registered", 10*time.Millisecond)
	m.RecordRegistration("sync", "registered", 5*time.Millisecond)
	m.RecordRegistration("async", "failed", time.Millisecond)

	if got := testutil.ToFloat64(m.RegistrationsTotal.WithLabelValues("sync", "registered")); got != 2 {
		t.Errorf("Expected 2 sync registrations, got %v", got)
	}
	if got := testutil.ToFloat64(m.RegistrationsTotal.WithLabelValues("async", "failed")); got != 1 {
		t.Errorf("Expected 1 async failure, got %v", got)
	}
}

func TestMetrics_Gauges(t *testing.T) {
	m := NewMetrics()

	m.SetSchemasLoaded(3)
	m.IncHTTPRequestsInFlight()
	m.IncHTTPRequestsInFlight()
	m.DecHTTPRequestsInFlight()
	m.RecordSerializationError("summary")

	if got := testutil.ToFloat64(m.SchemasLoaded); got != 3 {
		t.Errorf("Expected 3 schemas loaded, got %v", got)
	}
	if got := testutil.ToFloat64(m.HTTPRequestsInFlight); got != 1 {
		t.Errorf("Expected 1 request in flight, got %v", got)
	}
	if got := testutil.ToFloat64(m.SerializationErrors.WithLabelValues("summary")); got != 1 {
		t.Errorf("Expected 1 serialization error, got %v", got)
	}
}

func TestMetrics_Handler(t *testing.T) {
	m := NewMetrics()
	m.RecordHTTPRequest("GET", "/v1/schemas", 200, time.Millisecond)
	m.RecordError("registrar", "REMOTE_OPERATION_FAILED")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	for _, name := range []string{
		`swagger_http_requests_total{method="GET",path="/v1/schemas",status_code="200"} 1`,
		`swagger_errors_total{component="registrar",error_code="REMOTE_OPERATION_FAILED"} 1`,
		"go_goroutines",
	} {
		if !strings.Contains(body, name) {
			t.Errorf("Expected exposition to contain %q", name)
		}
	}
}

func TestNewMetrics_Independent(t *testing.T) {
	// Separate registries must not collide on registration
	a := NewMetrics()
	b := NewMetrics()
	a.SetSchemasLoaded(1)
	if got := testutil.ToFloat64(b.SchemasLoaded); got != 0 {
		t.Errorf("Expected independent registries, got %v", got)
	}
}

func TestNopProvider(t *testing.T) {
	var p Provider = NopProvider{}
	p.RecordRegistration("sync", "failed", time.Second)
	p.SetSchemasLoaded(10)
}

func TestTimer_Duration(t *testing.T) {
	timer := NewTimer()
	time.Sleep(10 * time.Millisecond)

	if d := timer.Duration(); d < 10*time.Millisecond {
		t.Errorf("Expected duration >= 10ms, got %v", d)
	}
}
