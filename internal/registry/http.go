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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/servicecomb-go/swagger-adapter/internal/config"
)

// Service-center error code returned when a microservice does not exist
const errCodeServiceNotExists = "400012"

// HTTPClient implements Client against the service-center v4 REST API
type HTTPClient struct {
	baseURL    string
	project    string
	domain     string
	authToken  string
	httpClient *http.Client
}

// NewHTTPClient creates a new service-center client
func NewHTTPClient(cfg config.RegistryConfig) *HTTPClient {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	project := cfg.Project
	if project == "" {
		project = "default"
	}
	domain := cfg.Domain
	if domain == "" {
		domain = "default"
	}

	return &HTTPClient{
		baseURL:   strings.TrimRight(cfg.Address, "/"),
		project:   project,
		domain:    domain,
		authToken: cfg.AuthToken,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type schemaRequest struct {
	Schema  string `json:"schema"`
	Summary string `json:"summary,omitempty"`
}

type serviceRequest struct {
	Service *Microservice `json:"service"`
}

type serviceIDResponse struct {
	ServiceID string `json:"serviceId"`
}

type schemasResponse struct {
	Schemas []SchemaSummary `json:"schemas"`
}

type errorResponse struct {
	ErrorCode    string `json:"errorCode"`
	ErrorMessage string `json:"errorMessage"`
	Detail       string `json:"detail"`
}

// RegisterSchema uploads one schema for a microservice
func (c *HTTPClient) RegisterSchema(ctx context.Context, microserviceID, schemaID, content, summary string) error {
	path := fmt.Sprintf("/registry/microservices/%s/schemas/%s", url.PathEscape(microserviceID), url.PathEscape(schemaID))

	body, err := json.Marshal(schemaRequest{Schema: content, Summary: summary})
	if err != nil {
		return &RemoteOperationError{Operation: "register schema " + schemaID, Cause: err}
	}

	resp, err := c.makeRequest(ctx, http.MethodPut, path, nil, bytes.NewReader(body))
	if err != nil {
		return &RemoteOperationError{Operation: "register schema " + schemaID, Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return remoteError("register schema "+schemaID, resp)
	}
	return nil
}

// RegisterMicroservice returns the id of an existing microservice or creates it
func (c *HTTPClient) RegisterMicroservice(ctx context.Context, ms *Microservice) (string, error) {
	if id, err := c.findMicroservice(ctx, ms); err != nil {
		return "", err
	} else if id != "" {
		return id, nil
	}

	body, err := json.Marshal(serviceRequest{Service: ms})
	if err != nil {
		return "", &RemoteOperationError{Operation: "register microservice", Cause: err}
	}

	resp, err := c.makeRequest(ctx, http.MethodPost, "/registry/microservices", nil, bytes.NewReader(body))
	if err != nil {
		return "", &RemoteOperationError{Operation: "register microservice", Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", remoteError("register microservice", resp)
	}

	var result serviceIDResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", &RemoteOperationError{Operation: "register microservice", Message: "failed to decode response", Cause: err}
	}
	if result.ServiceID == "" {
		return "", &RemoteOperationError{Operation: "register microservice", Message: "empty service id"}
	}
	return result.ServiceID, nil
}

func (c *HTTPClient) findMicroservice(ctx context.Context, ms *Microservice) (string, error) {
	query := url.Values{}
	query.Set("type", "microservice")
	query.Set("appId", ms.AppID)
	query.Set("serviceName", ms.ServiceName)
	query.Set("version", ms.Version)
	if ms.Environment != "" {
		query.Set("env", ms.Environment)
	}

	resp, err := c.makeRequest(ctx, http.MethodGet, "/registry/existence", query, nil)
	if err != nil {
		return "", &RemoteOperationError{Operation: "find microservice", Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		var result serviceIDResponse
		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
			return "", &RemoteOperationError{Operation: "find microservice", Message: "failed to decode response", Cause: err}
		}
		return result.ServiceID, nil
	}

	remote := remoteError("find microservice", resp)
	if remote.Code == errCodeServiceNotExists || resp.StatusCode == http.StatusNotFound {
		return "", nil
	}
	return "", remote
}

// ListSchemas lists the schemas registered for a microservice
func (c *HTTPClient) ListSchemas(ctx context.Context, microserviceID string) ([]SchemaSummary, error) {
	path := fmt.Sprintf("/registry/microservices/%s/schemas", url.PathEscape(microserviceID))
	query := url.Values{}
	query.Set("withSchema", "0")

	resp, err := c.makeRequest(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return nil, &RemoteOperationError{Operation: "list schemas", Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, remoteError("list schemas", resp)
	}

	var result schemasResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &RemoteOperationError{Operation: "list schemas", Message: "failed to decode response", Cause: err}
	}
	return result.Schemas, nil
}

// makeRequest makes an HTTP request to the project scoped registry API
func (c *HTTPClient) makeRequest(ctx context.Context, method, path string, query url.Values, body io.Reader) (*http.Response, error) {
	target := fmt.Sprintf("%s/v4/%s%s", c.baseURL, url.PathEscape(c.project), path)
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Domain-Name", c.domain)

	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}

	return c.httpClient.Do(req)
}

func remoteError(operation string, resp *http.Response) *RemoteOperationError {
	remote := &RemoteOperationError{Operation: operation, StatusCode: resp.StatusCode}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil || len(data) == 0 {
		remote.Message = http.StatusText(resp.StatusCode)
		return remote
	}

	var body errorResponse
	if err := json.Unmarshal(data, &body); err != nil || body.ErrorMessage == "" {
		remote.Message = strings.TrimSpace(string(data))
		return remote
	}
	remote.Code = body.ErrorCode
	remote.Message = body.ErrorMessage
	if body.Detail != "" {
		remote.Message += ": " + body.Detail
	}
	return remote
}
