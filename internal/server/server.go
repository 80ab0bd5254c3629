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
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/servicecomb-go/swagger-adapter/internal/config"
	"github.com/servicecomb-go/swagger-adapter/internal/docs"
	"github.com/servicecomb-go/swagger-adapter/internal/errors"
	"github.com/servicecomb-go/swagger-adapter/internal/logging"
	"github.com/servicecomb-go/swagger-adapter/internal/metrics"
	"github.com/servicecomb-go/swagger-adapter/internal/middleware"
	"github.com/servicecomb-go/swagger-adapter/internal/registry"
	"github.com/servicecomb-go/swagger-adapter/internal/schema"
	"github.com/servicecomb-go/swagger-adapter/internal/storage"
)

// maxTrackedTasks bounds the registration tasks kept for lookup
const maxTrackedTasks = 256

// Server is the management HTTP server of the swagger adapter
type Server struct {
	config     *config.Config
	httpServer *http.Server
	router     *gin.Engine
	docs       *docs.Cache
	schemas    *schema.Handler
	client     registry.Client
	history    storage.RegistrationStore
	logger     *logging.Logger
	metrics    *metrics.Metrics
	provider   metrics.Provider

	mu             sync.RWMutex
	microserviceID string
	tasks          map[string]*schema.RegistrationTask
	taskOrder      []string
}

// New creates the server, loads the documentation and builds the schema store
func New(cfg *config.Config) (*Server, error) {
	ctx := context.Background()

	// Create logger
	logger := logging.NewLogger(cfg.Logging)

	// Create metrics if enabled
	var metricsInstance *metrics.Metrics
	var provider metrics.Provider = metrics.NopProvider{}
	if cfg.Metrics.Enabled {
		metricsInstance = metrics.NewMetrics()
		provider = metricsInstance
	}

	// Create registration history
	history, err := storage.NewRegistrationStore(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to create registration store: %w", err)
	}

	// Create registry client
	client, err := registry.New(cfg.Registry)
	if err != nil {
		history.Close()
		return nil, fmt.Errorf("failed to create registry client: %w", err)
	}

	// Set Gin mode based on log level
	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	server := &Server{
		config:   cfg,
		router:   gin.New(),
		docs:     docs.NewCache(),
		client:   client,
		history:  history,
		logger:   logger.WithComponent("server"),
		metrics:  metricsInstance,
		provider: provider,
		tasks:    make(map[string]*schema.RegistrationTask),
	}

	server.setupMiddleware(logger)
	server.setupRoutes()

	// Routes must exist before the management API can document itself
	if err := server.loadDocumentation(ctx); err != nil {
		history.Close()
		return nil, err
	}

	handler, err := schema.NewHandler(schema.Options{
		EnableJavaChassisAdapter: cfg.Swagger.EnableJavaChassisAdapter,
		Group:                    cfg.Swagger.Group,
		Source:                   server.docs,
		Client:                   client,
		History:                  history,
		Metrics:                  provider,
		Logger:                   logger,
	})
	if err != nil {
		history.Close()
		return nil, fmt.Errorf("failed to create swagger handler: %w", err)
	}
	if err := handler.Init(cfg.Service.AppName, cfg.Service.ServiceName); err != nil {
		history.Close()
		return nil, fmt.Errorf("failed to init swagger schemas: %w", err)
	}
	server.schemas = handler

	server.httpServer = &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      server.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return server, nil
}

// Start starts the HTTP server
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server and releases the history store
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	if cerr := s.history.Close(); cerr != nil && err == nil {
		err = cerr
	}
	_ = s.logger.Sync()
	return err
}

// GetRouter returns the Gin router for testing purposes
func (s *Server) GetRouter() *gin.Engine {
	return s.router
}

// Schemas returns the swagger handler backing the server
func (s *Server) Schemas() *schema.Handler {
	return s.schemas
}

// Client returns the registry client schemas are published to
func (s *Server) Client() registry.Client {
	return s.client
}

// MicroserviceID returns the id assigned by the registry, empty before Publish
func (s *Server) MicroserviceID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.microserviceID
}

// Publish registers the microservice, declaring every schema id, and then
// registers the schema contents. ctx bounds only the microservice
// registration; each schema call is bounded by the registry client timeout.
// Schema failures are reported on the task.
func (s *Server) Publish(ctx context.Context) (*schema.RegistrationTask, error) {
	ms := &registry.Microservice{
		AppID:       s.config.Service.AppName,
		ServiceName: s.config.Service.ServiceName,
		Version:     s.config.Service.Version,
		Environment: s.config.Service.Environment,
		Schemas:     s.schemas.SchemaIDs(),
		Status:      "UP",
	}

	id, err := s.client.RegisterMicroservice(ctx, ms)
	if err != nil {
		s.provider.RecordError("publisher", string(errors.ErrRemoteOperationFailed))
		return nil, errors.NewRemoteError("failed to register microservice "+ms.Key(), err)
	}

	s.mu.Lock()
	s.microserviceID = id
	s.mu.Unlock()

	s.logger.WithFields(map[string]interface{}{
		"microservice_id": id,
		"schemas":         len(ms.Schemas),
	}).Infof("registered microservice %s", ms.Key())

	task := s.schemas.RegisterSwagger(context.WithoutCancel(ctx), id, ms.Schemas)
	s.trackTask(task)
	return task, nil
}

// setupMiddleware configures middleware for the server
func (s *Server) setupMiddleware(logger *logging.Logger) {
	s.router.Use(gin.Recovery())
	s.router.Use(middleware.RequestID())
	s.router.Use(middleware.Logger(logger.WithComponent("http")))
	s.router.Use(middleware.CORS())
	s.router.Use(middleware.RequestSizeLimit(s.config.Server.MaxRequestSize))
	s.router.Use(middleware.SecurityHeaders())
}

// setupRoutes configures routes for the server. Handlers are registered as
// method values so the route table documents itself by handler name.
func (s *Server) setupRoutes() {
	// Health check endpoints
	s.router.GET("/health", s.handleHealth)
	s.router.GET("/ready", s.handleReady)

	v1 := s.router.Group("/v1", s.requestMetrics())
	{
		// Schema export endpoints
		v1.GET("/schemas", s.handleListSchemas)
		v1.GET("/schemas/contents", s.handleSchemaContents)
		v1.GET("/schemas/summaries", s.handleSchemaSummaries)
		v1.GET("/schemas/:id", s.handleGetSchema)

		// Registration endpoints (admin protected)
		admin := v1.Group("/admin", middleware.AdminAuth(s.config.Auth))
		{
			admin.POST("/registrations", s.handleRegisterSchemas)
			admin.GET("/registrations", s.handleListRegistrations)
			admin.GET("/registrations/stats", s.handleRegistrationStats)
			admin.GET("/registrations/:taskId", s.handleGetRegistration)
		}
	}

	if s.metrics != nil {
		s.router.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}
}

// loadDocumentation fills the documentation cache from the configured
// OpenAPI file and, when enabled, from the management routes themselves
func (s *Server) loadDocumentation(ctx context.Context) error {
	group := s.config.Swagger.Group

	var doc *docs.Documentation
	if path := s.config.Swagger.OpenAPIFile; path != "" {
		loaded, err := docs.LoadOpenAPIFile(ctx, path, docs.OpenAPIOptions{Group: group})
		if err != nil {
			return fmt.Errorf("failed to load documentation: %w", err)
		}
		doc = loaded
	}

	if s.config.Swagger.IncludeManagementAPI {
		management := docs.FromRoutes(s.router.Routes(), docs.RoutesOptions{
			Group: group,
			Info: docs.Info{
				Title:       s.config.Service.ServiceName,
				Description: "Swagger adapter management API",
				Version:     s.config.Service.Version,
			},
			Docs: managementRouteDocs(),
			Skip: []string{"/metrics"},
		})
		if doc == nil {
			doc = management
		} else {
			docs.Merge(doc, management)
		}
	}

	if doc == nil {
		return fmt.Errorf("no documentation source: set swagger.openapi_file or enable swagger.include_management_api")
	}
	s.docs.Add(doc)
	return nil
}

// trackTask keeps a registration task available for lookup, evicting the oldest
func (s *Server) trackTask(task *schema.RegistrationTask) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tasks[task.ID] = task
	s.taskOrder = append(s.taskOrder, task.ID)
	if len(s.taskOrder) > maxTrackedTasks {
		delete(s.tasks, s.taskOrder[0])
		s.taskOrder = s.taskOrder[1:]
	}
}

func (s *Server) task(id string) (*schema.RegistrationTask, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	task, ok := s.tasks[id]
	return task, ok
}

// handleHealth handles health check requests (liveness probe)
func (s *Server) handleHealth(c *gin.Context) {
	health := s.checkHealth(c.Request.Context())

	statusCode := http.StatusOK
	if !health.Healthy {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, health)
}

// handleReady handles readiness check requests (readiness probe)
func (s *Server) handleReady(c *gin.Context) {
	readiness := s.checkReadiness(c.Request.Context())

	statusCode := http.StatusOK
	if !readiness.Ready {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, readiness)
}

// HealthStatus represents the health status of the adapter
type HealthStatus struct {
	Status     string            `json:"status"`
	Healthy    bool              `json:"healthy"`
	Timestamp  time.Time         `json:"timestamp"`
	Version    string            `json:"version"`
	Components map[string]string `json:"components"`
}

// ReadinessStatus represents the readiness status of the adapter
type ReadinessStatus struct {
	Status       string            `json:"status"`
	Ready        bool              `json:"ready"`
	Timestamp    time.Time         `json:"timestamp"`
	Version      string            `json:"version"`
	Mode         string            `json:"mode"`
	Dependencies map[string]string `json:"dependencies"`
}

// checkHealth performs basic health checks (liveness)
func (s *Server) checkHealth(ctx context.Context) HealthStatus {
	healthy := true
	components := make(map[string]string)

	if s.schemas == nil {
		healthy = false
		components["swagger_handler"] = "not_initialized"
	} else {
		components["swagger_handler"] = "healthy"
	}

	if s.client == nil {
		healthy = false
		components["registry_client"] = "not_initialized"
	} else {
		components["registry_client"] = "healthy"
	}

	if err := s.history.HealthCheck(ctx); err != nil {
		healthy = false
		components["registration_store"] = "unhealthy"
	} else {
		components["registration_store"] = "healthy"
	}

	status := "healthy"
	if !healthy {
		status = "unhealthy"
	}

	return HealthStatus{
		Status:     status,
		Healthy:    healthy,
		Timestamp:  time.Now().UTC(),
		Version:    s.config.Service.Version,
		Components: components,
	}
}

// checkReadiness reports ready once schemas are loaded and history is reachable.
// A pending microservice registration does not make the adapter unready.
func (s *Server) checkReadiness(ctx context.Context) ReadinessStatus {
	ready := true
	dependencies := make(map[string]string)

	mode := ""
	if s.schemas != nil && len(s.schemas.SchemaIDs()) > 0 {
		dependencies["schema_store"] = "ready"
		mode = s.schemas.Mode()
	} else {
		ready = false
		dependencies["schema_store"] = "empty"
	}

	if err := s.history.HealthCheck(ctx); err != nil {
		ready = false
		dependencies["registration_store"] = "unavailable"
	} else {
		dependencies["registration_store"] = "ready"
	}

	if s.MicroserviceID() != "" {
		dependencies["registry"] = "registered"
	} else {
		dependencies["registry"] = "pending"
	}

	status := "ready"
	if !ready {
		status = "not_ready"
	}

	return ReadinessStatus{
		Status:       status,
		Ready:        ready,
		Timestamp:    time.Now().UTC(),
		Version:      s.config.Service.Version,
		Mode:         mode,
		Dependencies: dependencies,
	}
}
