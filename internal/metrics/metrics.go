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
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Provider is the metrics surface used by the adapter and the server
type Provider interface {
	RecordHTTPRequest(method, path string, statusCode int, duration time.Duration)
	IncHTTPRequestsInFlight()
	DecHTTPRequestsInFlight()
	RecordRegistration(mode, status string, duration time.Duration)
	RecordSerializationError(operation string)
	SetSchemasLoaded(count int)
	RecordError(component, errorCode string)
}

// Metrics holds all Prometheus metrics
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Schema metrics
	RegistrationsTotal   *prometheus.CounterVec
	RegistrationDuration *prometheus.HistogramVec
	SerializationErrors  *prometheus.CounterVec
	SchemasLoaded        prometheus.Gauge

	// Error metrics
	ErrorsTotal *prometheus.CounterVec
}

// NewMetrics creates all Prometheus metrics on a dedicated registry that
// also carries the Go runtime and process collectors
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,

		// HTTP metrics
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "swagger_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status_code"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "swagger_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status_code"},
		),
		HTTPRequestsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "swagger_http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed",
			},
		),

		// Schema metrics
		RegistrationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "swagger_schema_registrations_total",
				Help: "Total number of schema registrations attempted",
			},
			[]string{"mode", "status"},
		),
		RegistrationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "swagger_schema_registration_duration_seconds",
				Help:    "Schema registration duration in seconds",
				Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10},
			},
			[]string{"mode"},
		),
		SerializationErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "swagger_schema_serialization_errors_total",
				Help: "Total number of schemas that failed to serialize",
			},
			[]string{"operation"},
		),
		SchemasLoaded: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "swagger_schemas_loaded",
				Help: "Number of schemas in the current schema store",
			},
		),

		// Error metrics
		ErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "swagger_errors_total",
				Help: "Total number of errors",
			},
			[]string{"component", "error_code"},
		),
	}
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RecordHTTPRequest records HTTP request metrics
func (m *Metrics) RecordHTTPRequest(method, path string, statusCode int, duration time.Duration) {
	status := strconv.Itoa(statusCode)
	m.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// IncHTTPRequestsInFlight increments in-flight HTTP requests
func (m *Metrics) IncHTTPRequestsInFlight() {
	m.HTTPRequestsInFlight.Inc()
}

// DecHTTPRequestsInFlight decrements in-flight HTTP requests
func (m *Metrics) DecHTTPRequestsInFlight() {
	m.HTTPRequestsInFlight.Dec()
}

// RecordRegistration records one schema registration outcome
func (m *Metrics) RecordRegistration(mode, status string, duration time.Duration) {
	m.RegistrationsTotal.WithLabelValues(mode, status).Inc()
	m.RegistrationDuration.WithLabelValues(mode).Observe(duration.Seconds())
}

// RecordSerializationError counts a schema that could not be serialized
func (m *Metrics) RecordSerializationError(operation string) {
	m.SerializationErrors.WithLabelValues(operation).Inc()
}

// SetSchemasLoaded sets the schema store size
func (m *Metrics) SetSchemasLoaded(count int) {
	m.SchemasLoaded.Set(float64(count))
}

// RecordError records error metrics
func (m *Metrics) RecordError(component, errorCode string) {
	m.ErrorsTotal.WithLabelValues(component, errorCode).Inc()
}

// NopProvider discards every metric
type NopProvider struct{}

func (NopProvider) RecordHTTPRequest(string, string, int, time.Duration) {}
func (NopProvider) IncHTTPRequestsInFlight()                             {}
func (NopProvider) DecHTTPRequestsInFlight()                             {}
func (NopProvider) RecordRegistration(string, string, time.Duration)     {}
func (NopProvider) RecordSerializationError(string)                      {}
func (NopProvider) SetSchemasLoaded(int)                                 {}
func (NopProvider) RecordError(string, string)                           {}

// Timer provides a convenient way to time operations
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Duration returns the elapsed duration
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
