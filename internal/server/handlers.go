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

package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/servicecomb-go/swagger-adapter/internal/docs"
	"github.com/servicecomb-go/swagger-adapter/internal/errors"
	"github.com/servicecomb-go/swagger-adapter/internal/storage"
	"github.com/servicecomb-go/swagger-adapter/internal/swagger"
	"github.com/servicecomb-go/swagger-adapter/internal/types"
)

const (
	contentTypeYAML = "application/x-yaml; charset=utf-8"
	contentTypeJSON = "application/json; charset=utf-8"

	// SummaryHeader carries the SHA-256 summary of a returned schema
	SummaryHeader = "X-Schema-Summary"

	maxListLimit = 1000
)

// handleListSchemas returns the schema ids of the current store
func (s *Server) handleListSchemas(c *gin.Context) {
	ids := s.schemas.SchemaIDs()

	c.JSON(http.StatusOK, gin.H{
		"schema_ids": ids,
		"count":      len(ids),
		"mode":       s.schemas.Mode(),
		"timestamp":  time.Now().UTC(),
	})
}

// handleSchemaContents returns every schema serialized to YAML
func (s *Server) handleSchemaContents(c *gin.Context) {
	contents := s.schemas.SchemasMap()

	c.JSON(http.StatusOK, gin.H{
		"schemas":   contents,
		"count":     len(contents),
		"timestamp": time.Now().UTC(),
	})
}

// handleSchemaSummaries returns the summary of every schema
func (s *Server) handleSchemaSummaries(c *gin.Context) {
	summaries := s.schemas.SchemasSummaryMap()

	c.JSON(http.StatusOK, gin.H{
		"summaries": summaries,
		"count":     len(summaries),
		"timestamp": time.Now().UTC(),
	})
}

// handleGetSchema returns one schema as YAML, or as JSON with format=json
func (s *Server) handleGetSchema(c *gin.Context) {
	schemaID := c.Param("id")

	content, err := s.schemas.Schema(schemaID)
	if err != nil {
		s.respondWithAdapterError(c, asAdapterError(err))
		return
	}
	c.Header(SummaryHeader, swagger.Summary(content))

	switch c.DefaultQuery("format", "yaml") {
	case "yaml":
		c.Data(http.StatusOK, contentTypeYAML, []byte(content))
	case "json":
		sw, _ := s.schemas.Swagger(schemaID)
		data, err := swagger.ToJSON(sw)
		if err != nil {
			s.respondWithAdapterError(c, errors.NewSerializationError(schemaID, err))
			return
		}
		c.Data(http.StatusOK, contentTypeJSON, data)
	default:
		s.respondWithError(c, http.StatusBadRequest, string(errors.ErrInvalidRequestFormat),
			"Unsupported schema format", map[string]interface{}{
				"format":    c.Query("format"),
				"supported": []string{"yaml", "json"},
			})
	}
}

// handleRegisterSchemas registers schemas with the remote registry. In sync
// mode the response carries every result; in async mode the batch is accepted
// and its task can be polled.
func (s *Server) handleRegisterSchemas(c *gin.Context) {
	var req types.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondWithError(c, http.StatusBadRequest, string(errors.ErrInvalidRequestFormat),
			"Invalid registration request", map[string]interface{}{
				"error": err.Error(),
			})
		return
	}

	schemaIDs := req.SchemaIDs
	if len(schemaIDs) == 0 {
		schemaIDs = s.schemas.SchemaIDs()
	}

	task := s.schemas.RegisterSwagger(c.Request.Context(), req.MicroserviceID, schemaIDs)
	s.trackTask(task)

	statusCode := http.StatusAccepted
	if task.IsDone() {
		statusCode = http.StatusOK
	}
	c.JSON(statusCode, task.Response())
}

// handleGetRegistration returns the state of a tracked registration task
func (s *Server) handleGetRegistration(c *gin.Context) {
	taskID := c.Param("taskId")

	task, ok := s.task(taskID)
	if !ok {
		s.respondWithError(c, http.StatusNotFound, "REGISTRATION_NOT_FOUND",
			"Registration task not found", map[string]interface{}{
				"task_id": taskID,
			})
		return
	}

	c.JSON(http.StatusOK, task.Response())
}

// handleListRegistrations lists the registration history, newest first
func (s *Server) handleListRegistrations(c *gin.Context) {
	filter := storage.RegistrationFilter{
		MicroserviceID: c.Query("microservice_id"),
		SchemaID:       c.Query("schema_id"),
		TaskID:         c.Query("task_id"),
		Status:         c.Query("status"),
		Limit:          100,
	}

	if limitStr := c.Query("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit <= 0 || limit > maxListLimit {
			s.respondWithError(c, http.StatusBadRequest, string(errors.ErrInvalidRequestFormat),
				"Invalid limit parameter", map[string]interface{}{
					"limit": limitStr,
					"max":   maxListLimit,
				})
			return
		}
		filter.Limit = limit
	}

	registrations, err := s.history.List(c.Request.Context(), filter)
	if err != nil {
		s.respondWithAdapterError(c, errors.NewInternalError("Failed to list registrations", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"registrations": registrations,
		"count":         len(registrations),
		"timestamp":     time.Now().UTC(),
	})
}

// handleRegistrationStats returns counters over the registration history
func (s *Server) handleRegistrationStats(c *gin.Context) {
	stats, err := s.history.Stats(c.Request.Context())
	if err != nil {
		s.respondWithAdapterError(c, errors.NewInternalError("Failed to get registration stats", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"stats":           stats,
		"schemas_loaded":  len(s.schemas.SchemaIDs()),
		"mode":            s.schemas.Mode(),
		"microservice_id": s.MicroserviceID(),
		"timestamp":       time.Now().UTC(),
	})
}

func asAdapterError(err error) *errors.AdapterError {
	if adapterErr, ok := errors.AsAdapterError(err); ok {
		return adapterErr
	}
	return errors.NewInternalError("Unexpected error", err)
}

// managementRouteDocs describes the management routes beyond what gin knows
func managementRouteDocs() map[string]docs.RouteDoc {
	object := &docs.ModelRef{Type: "object"}
	notFound := docs.ResponseMessage{Code: http.StatusNotFound, Message: "Not Found"}
	badRequest := docs.ResponseMessage{Code: http.StatusBadRequest, Message: "Bad Request"}
	adminKey := docs.Parameter{
		Name:        "X-Admin-Key",
		In:          docs.InHeader,
		Description: "admin API key, required when an admin key file is configured",
		Model:       docs.ModelRef{Type: "string"},
	}

	return map[string]docs.RouteDoc{
		"GET /health": {
			Summary:   "Liveness probe",
			Responses: []docs.ResponseMessage{{Code: http.StatusOK, Message: "OK", Model: object}, {Code: http.StatusServiceUnavailable, Message: "Unhealthy"}},
		},
		"GET /ready": {
			Summary:   "Readiness probe",
			Responses: []docs.ResponseMessage{{Code: http.StatusOK, Message: "OK", Model: object}, {Code: http.StatusServiceUnavailable, Message: "Not Ready"}},
		},
		"GET /v1/schemas": {
			Summary:   "List schema ids",
			Responses: []docs.ResponseMessage{{Code: http.StatusOK, Message: "OK", Model: object}},
		},
		"GET /v1/schemas/contents": {
			Summary:   "Export every schema as YAML",
			Responses: []docs.ResponseMessage{{Code: http.StatusOK, Message: "OK", Model: object}},
		},
		"GET /v1/schemas/summaries": {
			Summary:   "SHA-256 summary of every schema",
			Responses: []docs.ResponseMessage{{Code: http.StatusOK, Message: "OK", Model: object}},
		},
		"GET /v1/schemas/:id": {
			Summary:  "Get one schema",
			Produces: []string{"application/x-yaml", "application/json"},
			Parameters: []docs.Parameter{{
				Name:        "format",
				In:          docs.InQuery,
				Description: "yaml or json",
				Model:       docs.ModelRef{Type: "string"},
			}},
			Responses: []docs.ResponseMessage{{Code: http.StatusOK, Message: "OK", Model: &docs.ModelRef{Type: "string"}}, badRequest, notFound},
		},
		"POST /v1/admin/registrations": {
			Summary: "Register schemas with the service center",
			Parameters: []docs.Parameter{adminKey, {
				Name:     "request",
				In:       docs.InBody,
				Required: true,
				Model:    docs.ModelRef{Type: "object"},
			}},
			Responses: []docs.ResponseMessage{
				{Code: http.StatusOK, Message: "Registered", Model: object},
				{Code: http.StatusAccepted, Message: "Accepted", Model: object},
				badRequest,
			},
		},
		"GET /v1/admin/registrations": {
			Summary: "List registration history",
			Parameters: []docs.Parameter{
				adminKey,
				{Name: "microservice_id", In: docs.InQuery, Model: docs.ModelRef{Type: "string"}},
				{Name: "schema_id", In: docs.InQuery, Model: docs.ModelRef{Type: "string"}},
				{Name: "task_id", In: docs.InQuery, Model: docs.ModelRef{Type: "string"}},
				{Name: "status", In: docs.InQuery, Model: docs.ModelRef{Type: "string"}},
				{Name: "limit", In: docs.InQuery, Model: docs.ModelRef{Type: "integer", Format: "int32"}},
			},
			Responses: []docs.ResponseMessage{{Code: http.StatusOK, Message: "OK", Model: object}, badRequest},
		},
		"GET /v1/admin/registrations/stats": {
			Summary:    "Registration statistics",
			Parameters: []docs.Parameter{adminKey},
			Responses:  []docs.ResponseMessage{{Code: http.StatusOK, Message: "OK", Model: object}},
		},
		"GET /v1/admin/registrations/:taskId": {
			Summary:    "Get a registration task",
			Parameters: []docs.Parameter{adminKey},
			Responses:  []docs.ResponseMessage{{Code: http.StatusOK, Message: "OK", Model: object}, notFound},
		},
	}
}
