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

package docs

import (
	"context"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/go-cmp/cmp"
)

const petstore = `
openapi: 3.0.3
info:
  title: Petstore
  version: 1.0.0
servers:
  - url: http://petstore.local/api
tags:
  - name: Pet Controller
    description: pet operations
paths:
  /pets:
    get:
      tags: [Pet Controller]
      operationId: listPets
      parameters:
        - name: limit
          in: query
          schema:
            type: integer
            format: int32
      responses:
        "200":
          description: all pets
          content:
            application/json:
              schema:
                type: array
                items:
                  $ref: '#/components/schemas/Pet'
    post:
      tags: [Pet Controller]
      operationId: createPet
      requestBody:
        required: true
        content:
          application/json:
            schema:
              $ref: '#/components/schemas/Pet'
      responses:
        "201":
          description: created
  /pets/{id}:
    get:
      tags: [Pet Controller]
      operationId: getPet
      parameters:
        - name: id
          in: path
          required: true
          schema:
            type: string
      responses:
        "200":
          description: one pet
          content:
            application/json:
              schema:
                $ref: '#/components/schemas/Pet'
  /health:
    get:
      operationId: health
      responses:
        "200":
          description: ok
components:
  schemas:
    Pet:
      type: object
      required: [name]
      properties:
        name:
          type: string
        owner:
          $ref: '#/components/schemas/Owner'
    Owner:
      type: object
      properties:
        email:
          type: string
`

func TestLoadOpenAPI(t *testing.T) {
	doc, err := LoadOpenAPI(context.Background(), []byte(petstore), OpenAPIOptions{Package: "com.example"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if doc.GroupName != DefaultGroupName {
		t.Errorf("Expected group %s, got %s", DefaultGroupName, doc.GroupName)
	}
	if doc.BasePath != "/api" || doc.Host != "petstore.local" {
		t.Errorf("Unexpected host/basePath: %s %s", doc.Host, doc.BasePath)
	}

	var groups []string
	for key := range doc.Listings {
		groups = append(groups, key)
	}
	if len(groups) != 2 {
		t.Fatalf("Expected 2 listings, got %v", groups)
	}

	pets := doc.Listings["pet-controller"]
	if len(pets) != 1 {
		t.Fatalf("Expected pet-controller listing, got %v", groups)
	}
	listing := pets[0]
	if listing.ResourceType != "com.example.PetController" {
		t.Errorf("Unexpected resource type %s", listing.ResourceType)
	}
	if listing.Description != "pet operations" {
		t.Errorf("Expected tag description, got %q", listing.Description)
	}

	ids := make([]string, 0)
	for _, op := range listing.Operations() {
		ids = append(ids, op.UniqueID)
	}
	if diff := cmp.Diff([]string{"listPets", "createPet", "getPet"}, ids); diff != "" {
		t.Errorf("Operation ids mismatch (-want +got):\n%s", diff)
	}

	if _, ok := listing.Models["Owner"]; !ok {
		t.Error("Expected transitively referenced model Owner")
	}
	pet := listing.Models["Pet"]
	if pet == nil || !pet.Properties["name"].Required {
		t.Errorf("Expected Pet.name to be required, got %+v", pet)
	}

	create := listing.APIs[0].Operations[1]
	if len(create.Parameters) != 1 || create.Parameters[0].In != InBody || create.Parameters[0].Model.Ref != "Pet" {
		t.Errorf("Unexpected body parameter: %+v", create.Parameters)
	}

	list := listing.APIs[0].Operations[0]
	if len(list.Responses) != 1 || list.Responses[0].Model == nil || !list.Responses[0].Model.IsArray() {
		t.Errorf("Expected array response, got %+v", list.Responses)
	}

	if _, ok := doc.Listings[DefaultResourceGroup]; !ok {
		t.Error("Expected untagged operation in default-controller")
	}
}

const ordersOpenAPI = `
openapi: 3.0.3
info:
  title: Orders
  version: 1.0.0
paths:
  /orders/{id}:
    parameters:
      - name: id
        in: path
        required: true
        description: shared id
        schema:
          type: string
      - name: X-Trace
        in: header
        schema:
          type: string
    get:
      tags: [orders]
      operationId: getOrder
      parameters:
        - name: id
          in: path
          required: true
          description: order number
          schema:
            type: integer
        - name: id
          in: query
          schema:
            type: string
      responses:
        "200":
          description: ok
`

func TestLoadOpenAPI_OperationParametersOverridePathParameters(t *testing.T) {
	doc, err := LoadOpenAPI(context.Background(), []byte(ordersOpenAPI), OpenAPIOptions{})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	listings := doc.Listings["orders"]
	if len(listings) != 1 {
		t.Fatalf("Expected orders listing, got %v", doc.Listings)
	}
	params := listings[0].APIs[0].Operations[0].Parameters

	type param struct{ Name, In, Description, Type string }
	var got []param
	for _, p := range params {
		got = append(got, param{p.Name, p.In, p.Description, p.Model.Type})
	}
	want := []param{
		{"id", InPath, "order number", "integer"},
		{"X-Trace", InHeader, "", "string"},
		{"id", InQuery, "", "string"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Parameters mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadOpenAPI_Empty(t *testing.T) {
	if _, err := LoadOpenAPI(context.Background(), nil, OpenAPIOptions{}); err == nil {
		t.Error("Expected error for empty document")
	}
}

func TestFromRoutes(t *testing.T) {
	routes := gin.RoutesInfo{
		{Method: "GET", Path: "/v1/schemas", Handler: "github.com/x/internal/server.(*Server).handleListSchemas-fm"},
		{Method: "GET", Path: "/v1/schemas/:id", Handler: "github.com/x/internal/server.(*Server).handleGetSchema-fm"},
		{Method: "GET", Path: "/health", Handler: "github.com/x/internal/server.(*HealthHandler).handleHealth-fm"},
		{Method: "GET", Path: "/metrics", Handler: "github.com/gin-gonic/gin.WrapH.func1"},
	}

	doc := FromRoutes(routes, RoutesOptions{
		Info: Info{Title: "management"},
		Skip: []string{"/metrics"},
		Docs: map[string]RouteDoc{
			"GET /v1/schemas/:id": {
				Summary:   "Get one schema",
				Responses: []ResponseMessage{{Code: 200, Message: "schema"}, {Code: 404, Message: "not found"}},
			},
		},
	})

	if len(doc.Listings) != 2 {
		t.Fatalf("Expected 2 listings, got %d", len(doc.Listings))
	}

	server := doc.Listings["server-controller"][0]
	if server.ResourceType != "github.com/x/internal/server.Server" {
		t.Errorf("Unexpected resource type %s", server.ResourceType)
	}

	var getSchema *Operation
	for _, op := range server.Operations() {
		if op.UniqueID == "getSchema" {
			getSchema = op
		}
	}
	if getSchema == nil {
		t.Fatal("Expected getSchema operation")
	}
	if getSchema.Summary != "Get one schema" || len(getSchema.Responses) != 2 {
		t.Errorf("Expected route doc applied, got %+v", getSchema)
	}
	if len(getSchema.Parameters) != 1 || getSchema.Parameters[0].Name != "id" || getSchema.Parameters[0].In != InPath {
		t.Errorf("Expected id path parameter, got %+v", getSchema.Parameters)
	}

	found := false
	for _, api := range server.APIs {
		if api.Path == "/v1/schemas/{id}" {
			found = true
		}
	}
	if !found {
		t.Error("Expected gin path converted to swagger template")
	}

	if _, ok := doc.Listings["health-handler-controller"]; !ok {
		t.Error("Expected health-handler-controller listing")
	}
}

func TestParseHandlerName(t *testing.T) {
	tests := []struct {
		handler  string
		typeName string
		funcName string
	}{
		{"github.com/x/server.(*Server).handleListSchemas-fm", "github.com/x/server.Server", "handleListSchemas"},
		{"github.com/x/server.Handler.Serve", "github.com/x/server", "Handler"},
		{"main.main.func1", "main", "main"},
	}

	for _, test := range tests {
		typeName, funcName := parseHandlerName(test.handler)
		if typeName != test.typeName || funcName != test.funcName {
			t.Errorf("parseHandlerName(%q) = (%q, %q), expected (%q, %q)",
				test.handler, typeName, funcName, test.typeName, test.funcName)
		}
	}
}

func TestCache(t *testing.T) {
	cache := NewCache()
	cache.Add(&Documentation{Info: Info{Title: "a"}})
	cache.Add(&Documentation{GroupName: "public"})

	if doc := cache.DocumentationByGroup(DefaultGroupName); doc == nil || doc.Info.Title != "a" {
		t.Errorf("Expected default group documentation, got %+v", doc)
	}
	if _, err := cache.Documentation("missing"); err == nil {
		t.Error("Expected error for missing group")
	}
	if diff := cmp.Diff([]string{"default", "public"}, cache.Groups()); diff != "" {
		t.Errorf("Groups mismatch (-want +got):\n%s", diff)
	}
}

func TestMerge(t *testing.T) {
	dst := &Documentation{Tags: []Tag{{Name: "a"}}, Listings: map[string][]*APIListing{"a": {{ResourceGroup: "a"}}}}
	src := &Documentation{Tags: []Tag{{Name: "a"}, {Name: "b"}}, Listings: map[string][]*APIListing{"b": {{ResourceGroup: "b"}}}}

	Merge(dst, src)

	if len(dst.Listings) != 2 || len(dst.Tags) != 2 {
		t.Errorf("Expected merged listings and deduplicated tags, got %d listings %d tags", len(dst.Listings), len(dst.Tags))
	}
}
