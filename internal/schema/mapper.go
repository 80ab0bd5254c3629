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
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/go-openapi/spec"

	"github.com/servicecomb-go/swagger-adapter/internal/docs"
	"github.com/servicecomb-go/swagger-adapter/internal/swagger"
)

// Naming used by the java chassis when it consumes registered schemas
const (
	TitlePrefix            = "swagger definition for "
	GeneratedPackagePrefix = "cse.gen."
	InterfaceSuffix        = "Intf"

	ExtJavaInterface = "x-java-interface"
	ExtJavaClass     = "x-java-class"
)

// operationSuffix matches the "UsingGET" and "UsingPOST_1" suffixes added
// to duplicated handler method names
var operationSuffix = regexp.MustCompile(`Using(GET|PUT|POST|DELETE|PATCH|HEAD|OPTIONS)(_[0-9]+)?$`)

// DocumentationMapper splits documentation into one swagger object per
// resource group, keyed by schema id
type DocumentationMapper interface {
	DocumentationToSwaggers(doc *docs.Documentation) map[string]*spec.Swagger
}

// NewDocumentationMapper returns the java chassis mapper when javaChassis is
// set and the native mapper otherwise
func NewDocumentationMapper(javaChassis bool, appName, serviceName string, mapper swagger.Mapper) DocumentationMapper {
	if mapper == nil {
		mapper = swagger.NewModelMapper()
	}
	if javaChassis {
		return NewServiceCombDocumentationMapper(appName, serviceName, mapper)
	}
	return NewSpringCloudDocumentationMapper(mapper)
}

// ServiceCombDocumentationMapper produces schemas the java chassis can turn
// into consumer interfaces
type ServiceCombDocumentationMapper struct {
	appName     string
	serviceName string
	mapper      swagger.Mapper
}

// NewServiceCombDocumentationMapper creates a java chassis mapper
func NewServiceCombDocumentationMapper(appName, serviceName string, mapper swagger.Mapper) *ServiceCombDocumentationMapper {
	return &ServiceCombDocumentationMapper{
		appName:     appName,
		serviceName: serviceName,
		mapper:      mapper,
	}
}

// DocumentationToSwaggers implements DocumentationMapper
func (m *ServiceCombDocumentationMapper) DocumentationToSwaggers(doc *docs.Documentation) map[string]*spec.Swagger {
	swaggers := make(map[string]*spec.Swagger)
	if doc == nil {
		return swaggers
	}

	for _, key := range listingKeys(doc) {
		listings := doc.Listings[key]
		resourceType := resourceTypeOf(listings)

		schemaID := uniqueSchemaID(swaggers, SchemaIDFor(key, resourceType))
		sw := m.mapper.MapDocumentation(scoped(doc, key))
		if sw == nil {
			continue
		}

		if sw.Info == nil {
			sw.Info = &spec.Info{}
		}
		qualified := resourceType
		if qualified == "" {
			qualified = schemaID
		}
		sw.Info.Title = TitlePrefix + qualified
		sw.Info.AddExtension(ExtJavaInterface, m.InterfaceName(schemaID))

		models := modelsOf(listings)
		for name, def := range sw.Definitions {
			class := m.className(schemaID, name)
			if model, ok := models[name]; ok && model.Type != "" {
				class = model.Type
			}
			def.AddExtension(ExtJavaClass, class)
			sw.Definitions[name] = def
		}

		normalizeOperationIDs(sw)
		swaggers[schemaID] = sw
	}
	return swaggers
}

// InterfaceName returns the generated consumer interface for schemaID
func (m *ServiceCombDocumentationMapper) InterfaceName(schemaID string) string {
	name := m.packageName() + "." + schemaID
	if !strings.HasSuffix(schemaID, InterfaceSuffix) {
		name += InterfaceSuffix
	}
	return name
}

func (m *ServiceCombDocumentationMapper) className(schemaID, model string) string {
	return m.packageName() + "." + schemaID + "." + model
}

func (m *ServiceCombDocumentationMapper) packageName() string {
	return GeneratedPackagePrefix + docs.IdentifierSegment(m.appName) + "." + docs.IdentifierSegment(m.serviceName)
}

// SpringCloudDocumentationMapper keys schemas by resource group and leaves
// the documentation otherwise untouched
type SpringCloudDocumentationMapper struct {
	mapper swagger.Mapper
}

// NewSpringCloudDocumentationMapper creates a native mapper
func NewSpringCloudDocumentationMapper(mapper swagger.Mapper) *SpringCloudDocumentationMapper {
	return &SpringCloudDocumentationMapper{mapper: mapper}
}

// DocumentationToSwaggers implements DocumentationMapper
func (m *SpringCloudDocumentationMapper) DocumentationToSwaggers(doc *docs.Documentation) map[string]*spec.Swagger {
	swaggers := make(map[string]*spec.Swagger)
	if doc == nil {
		return swaggers
	}

	for _, key := range listingKeys(doc) {
		sw := m.mapper.MapDocumentation(scoped(doc, key))
		if sw == nil {
			continue
		}
		if sw.Info == nil {
			sw.Info = &spec.Info{}
		}
		if sw.Info.Title == "" {
			sw.Info.Title = key
		}
		swaggers[key] = sw
	}
	return swaggers
}

// SchemaIDFor derives the java chassis schema id of a resource group
func SchemaIDFor(key, resourceType string) string {
	if name := docs.SimpleName(resourceType); name != "" {
		return docs.UpperCamel(name)
	}
	return docs.UpperCamel(key)
}

// NormalizeOperationID strips the suffix added to duplicated method names
func NormalizeOperationID(id string) string {
	if stripped := operationSuffix.ReplaceAllString(id, ""); stripped != "" {
		return stripped
	}
	return id
}

var methodOrder = []string{"GET", "PUT", "POST", "DELETE", "OPTIONS", "HEAD", "PATCH"}

// normalizeOperationIDs rewrites every operation id and numbers the ones
// that collide after normalization, walking paths in sorted order
func normalizeOperationIDs(sw *spec.Swagger) {
	if sw.Paths == nil {
		return
	}
	paths := make([]string, 0, len(sw.Paths.Paths))
	for path := range sw.Paths.Paths {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	seen := make(map[string]bool)
	for _, path := range paths {
		item := sw.Paths.Paths[path]
		for _, method := range methodOrder {
			op := operationFor(&item, method)
			if op == nil || op.ID == "" {
				continue
			}
			base := NormalizeOperationID(op.ID)
			id := base
			for n := 1; seen[id]; n++ {
				id = base + "_" + strconv.Itoa(n)
			}
			seen[id] = true
			op.ID = id
		}
	}
}

func operationFor(item *spec.PathItem, method string) *spec.Operation {
	switch method {
	case "GET":
		return item.Get
	case "PUT":
		return item.Put
	case "POST":
		return item.Post
	case "DELETE":
		return item.Delete
	case "OPTIONS":
		return item.Options
	case "HEAD":
		return item.Head
	case "PATCH":
		return item.Patch
	}
	return nil
}

// scoped returns a shallow copy of doc restricted to one resource group
func scoped(doc *docs.Documentation, key string) *docs.Documentation {
	dup := *doc
	dup.Listings = map[string][]*docs.APIListing{key: doc.Listings[key]}
	return &dup
}

func listingKeys(doc *docs.Documentation) []string {
	keys := make([]string, 0, len(doc.Listings))
	for key := range doc.Listings {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func resourceTypeOf(listings []*docs.APIListing) string {
	for _, l := range listings {
		if l != nil && l.ResourceType != "" {
			return l.ResourceType
		}
	}
	return ""
}

func modelsOf(listings []*docs.APIListing) map[string]*docs.Model {
	models := make(map[string]*docs.Model)
	for _, l := range listings {
		if l == nil {
			continue
		}
		for name, model := range l.Models {
			if _, ok := models[name]; !ok && model != nil {
				models[name] = model
			}
		}
	}
	return models
}

// uniqueSchemaID numbers id when two resource groups share a simple name
func uniqueSchemaID(existing map[string]*spec.Swagger, id string) string {
	if _, taken := existing[id]; !taken {
		return id
	}
	for n := 2; ; n++ {
		candidate := id + strconv.Itoa(n)
		if _, taken := existing[candidate]; !taken {
			return candidate
		}
	}
}
