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

// Package schema turns documentation into swagger schemas and registers
// them with the service registry.
package schema

import (
	"context"
	"fmt"
	"time"

	"github.com/go-openapi/spec"

	"github.com/servicecomb-go/swagger-adapter/internal/docs"
	"github.com/servicecomb-go/swagger-adapter/internal/errors"
	"github.com/servicecomb-go/swagger-adapter/internal/logging"
	"github.com/servicecomb-go/swagger-adapter/internal/metrics"
	"github.com/servicecomb-go/swagger-adapter/internal/registry"
	"github.com/servicecomb-go/swagger-adapter/internal/storage"
	"github.com/servicecomb-go/swagger-adapter/internal/swagger"
	"github.com/servicecomb-go/swagger-adapter/internal/types"
)

// Options configures a Handler
type Options struct {
	// EnableJavaChassisAdapter selects the java chassis mapper and
	// synchronous registration
	EnableJavaChassisAdapter bool
	Group                    string

	Source  docs.Source
	Client  registry.Client
	Mapper  swagger.Mapper
	History storage.RegistrationStore
	Metrics metrics.Provider
	Logger  *logging.Logger
}

// Handler builds the schema store and registers its schemas
type Handler struct {
	javaChassis bool
	group       string
	source      docs.Source
	client      registry.Client
	mapper      swagger.Mapper
	registrar   Registrar
	history     storage.RegistrationStore
	metrics     metrics.Provider
	logger      *logging.Logger

	store *Store
}

// NewHandler creates a handler. The registration strategy is fixed here.
func NewHandler(opts Options) (*Handler, error) {
	if opts.Source == nil {
		return nil, fmt.Errorf("documentation source is required")
	}
	if opts.Client == nil {
		return nil, fmt.Errorf("registry client is required")
	}

	h := &Handler{
		javaChassis: opts.EnableJavaChassisAdapter,
		group:       opts.Group,
		source:      opts.Source,
		client:      opts.Client,
		mapper:      opts.Mapper,
		registrar:   NewRegistrar(opts.EnableJavaChassisAdapter),
		history:     opts.History,
		metrics:     opts.Metrics,
		logger:      opts.Logger,
		store:       NewStore(),
	}
	if h.group == "" {
		h.group = docs.DefaultGroupName
	}
	if h.mapper == nil {
		h.mapper = swagger.NewModelMapper()
	}
	if h.metrics == nil {
		h.metrics = metrics.NopProvider{}
	}
	if h.logger == nil {
		h.logger = logging.NewNopLogger()
	}
	h.logger = h.logger.WithComponent("swagger-handler")
	return h, nil
}

// Mode returns the registration mode
func (h *Handler) Mode() string {
	return h.registrar.Mode()
}

// Init maps the documentation group into a fresh schema store
func (h *Handler) Init(appName, serviceName string) error {
	doc, err := h.source.Documentation(h.group)
	if err != nil {
		return errors.Wrap(errors.ErrDocumentationNotFound, "failed to load documentation", err).
			WithDetails(map[string]interface{}{"group": h.group})
	}

	mapper := NewDocumentationMapper(h.javaChassis, appName, serviceName, h.mapper)
	schemas := mapper.DocumentationToSwaggers(doc)
	h.store.Replace(schemas)
	h.metrics.SetSchemasLoaded(len(schemas))

	h.logger.WithFields(map[string]interface{}{
		"app_name":     appName,
		"service_name": serviceName,
		"group":        h.group,
		"mode":         h.Mode(),
	}).Infof("loaded %d swagger schemas", len(schemas))
	return nil
}

// SchemaIDs returns the ids of the current store, sorted
func (h *Handler) SchemaIDs() []string {
	return h.store.IDs()
}

// SchemasMap returns each schema serialized to YAML. A schema that fails
// to serialize is logged and mapped to the empty string.
func (h *Handler) SchemasMap() map[string]string {
	out := make(map[string]string, h.store.Len())
	for _, id := range h.store.IDs() {
		content, err := h.content(id)
		if err != nil {
			h.logger.Errorf(err, "failed to serialize swagger %s", id)
			h.metrics.RecordSerializationError("contents")
		}
		out[id] = content
	}
	return out
}

// SchemasSummaryMap returns the SHA-256 summary of each serialized schema,
// with the same failure policy as SchemasMap
func (h *Handler) SchemasSummaryMap() map[string]string {
	out := make(map[string]string, h.store.Len())
	for _, id := range h.store.IDs() {
		content, err := h.content(id)
		if err != nil {
			h.logger.Errorf(err, "failed to calculate summary of swagger %s", id)
			h.metrics.RecordSerializationError("summary")
			out[id] = ""
			continue
		}
		out[id] = swagger.Summary(content)
	}
	return out
}

// Schema returns one schema serialized to YAML
func (h *Handler) Schema(id string) (string, error) {
	if _, ok := h.store.Get(id); !ok {
		return "", errors.NewSchemaNotFoundError(id)
	}
	return h.content(id)
}

// Swagger returns the swagger object stored under id. Callers must not modify it.
func (h *Handler) Swagger(id string) (*spec.Swagger, bool) {
	return h.store.Get(id)
}

func (h *Handler) content(id string) (string, error) {
	sw, ok := h.store.Get(id)
	if !ok {
		return "", errors.NewSchemaNotFoundError(id)
	}
	content, err := swagger.ToYAML(sw)
	if err != nil {
		return "", errors.NewSerializationError(id, err)
	}
	return content, nil
}

// RegisterSwagger registers the listed schemas for microserviceID, once per
// id in list order. An empty list registers nothing. Item failures are logged
// and recorded on the returned task; they never stop the batch.
func (h *Handler) RegisterSwagger(ctx context.Context, microserviceID string, schemaIDs []string) *RegistrationTask {
	task := newRegistrationTask(microserviceID, h.Mode(), schemaIDs)
	ctx = logging.WithMicroserviceID(ctx, microserviceID)

	h.registrar.Start(ctx, func(ctx context.Context) {
		defer task.finish()
		for _, id := range task.SchemaIDs {
			task.add(h.registerOne(ctx, task, id))
		}
		h.logger.WithContext(ctx).WithFields(map[string]interface{}{
			"task_id": task.ID,
			"mode":    task.Mode,
			"failed":  task.Failed(),
		}).Infof("registered %d swagger schemas", len(task.SchemaIDs))
	})
	return task
}

func (h *Handler) registerOne(ctx context.Context, task *RegistrationTask, id string) types.RegistrationResult {
	timer := metrics.NewTimer()
	result := types.RegistrationResult{SchemaID: id, Status: storage.StatusRegistered}

	content, err := h.content(id)
	if err != nil {
		if errors.HasCode(err, errors.ErrSerializationFailed) {
			h.metrics.RecordSerializationError("register")
		}
	} else {
		result.Summary = swagger.Summary(content)
		h.logger.WithContext(ctx).Infof("register swagger %s, content: %s", id, content)
		if rerr := h.client.RegisterSchema(ctx, task.MicroserviceID, id, content, result.Summary); rerr != nil {
			err = errors.NewRemoteError(fmt.Sprintf("failed to register swagger %s", id), rerr)
		}
	}

	duration := timer.Duration()
	if err != nil {
		result.Status = storage.StatusFailed
		result.Error = err.Error()
		if ae, ok := errors.AsAdapterError(err); ok {
			h.metrics.RecordError("registrar", string(ae.Code))
		}
	}
	h.logger.WithContext(ctx).LogRegistration(task.MicroserviceID, id, task.Mode, duration, err)
	h.metrics.RecordRegistration(task.Mode, result.Status, duration)
	h.record(ctx, task, result, len(content), duration)
	return result
}

func (h *Handler) record(ctx context.Context, task *RegistrationTask, result types.RegistrationResult, size int, duration time.Duration) {
	if h.history == nil {
		return
	}
	err := h.history.Record(ctx, &storage.Registration{
		TaskID:         task.ID,
		MicroserviceID: task.MicroserviceID,
		SchemaID:       result.SchemaID,
		Summary:        result.Summary,
		Mode:           task.Mode,
		Status:         result.Status,
		Error:          result.Error,
		ContentLength:  size,
		Duration:       duration,
		Timestamp:      time.Now(),
	})
	if err != nil {
		h.logger.Errorf(err, "failed to record registration of swagger %s", result.SchemaID)
	}
}
