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
	"fmt"
	"net/http"
	"net/url"
	"os"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

const (
	componentSchemaPrefix = "#/components/schemas/"

	// DefaultResourceGroup collects operations that carry no tag
	DefaultResourceGroup = "default-controller"
)

// OpenAPIOptions controls how an OpenAPI 3 document becomes Documentation
type OpenAPIOptions struct {
	// Group is the documentation group name, DefaultGroupName when empty
	Group string
	// Package qualifies resource types, for example "com.example.api"
	Package string
	// AllowExternalRefs permits references to other files or URLs
	AllowExternalRefs bool
}

// LoadOpenAPIFile reads an OpenAPI 3 document from path
func LoadOpenAPIFile(ctx context.Context, path string, opts OpenAPIOptions) (*Documentation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read openapi document %s: %w", path, err)
	}
	return LoadOpenAPI(ctx, data, opts)
}

// LoadOpenAPI converts an OpenAPI 3 document (JSON or YAML) into Documentation.
// Operations are grouped into listings by their first tag.
func LoadOpenAPI(ctx context.Context, data []byte, opts OpenAPIOptions) (*Documentation, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("openapi document is empty")
	}

	loader := &openapi3.Loader{
		Context:               ctx,
		IsExternalRefsAllowed: opts.AllowExternalRefs,
	}
	spec, err := loader.LoadFromData(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load openapi document: %w", err)
	}

	group := opts.Group
	if group == "" {
		group = DefaultGroupName
	}

	doc := &Documentation{
		GroupName: group,
		Listings:  make(map[string][]*APIListing),
	}
	if spec.Info != nil {
		doc.Info = Info{
			Title:          spec.Info.Title,
			Description:    spec.Info.Description,
			Version:        spec.Info.Version,
			TermsOfService: spec.Info.TermsOfService,
		}
		if c := spec.Info.Contact; c != nil {
			doc.Info.Contact = &Contact{Name: c.Name, URL: c.URL, Email: c.Email}
		}
		if l := spec.Info.License; l != nil {
			doc.Info.License = &License{Name: l.Name, URL: l.URL}
		}
	}
	if len(spec.Servers) > 0 && spec.Servers[0] != nil {
		if u, err := url.Parse(spec.Servers[0].URL); err == nil {
			doc.Host = u.Host
			doc.BasePath = u.Path
			if u.Scheme != "" {
				doc.Schemes = []string{u.Scheme}
			}
		}
	}
	for _, tag := range spec.Tags {
		if tag != nil {
			doc.Tags = append(doc.Tags, Tag{Name: tag.Name, Description: tag.Description})
		}
	}

	components := openapi3.Schemas{}
	if spec.Components != nil && spec.Components.Schemas != nil {
		components = spec.Components.Schemas
	}

	listings := make(map[string]*APIListing)
	refs := make(map[string]map[string]bool)

	if spec.Paths != nil {
		paths := make([]string, 0, spec.Paths.Len())
		for path := range spec.Paths.Map() {
			paths = append(paths, path)
		}
		sort.Strings(paths)

		for _, path := range paths {
			item := spec.Paths.Value(path)
			if item == nil {
				continue
			}
			for _, method := range methodOrder {
				op := item.GetOperation(method)
				if op == nil {
					continue
				}

				tagName := DefaultResourceGroup
				if len(op.Tags) > 0 && op.Tags[0] != "" {
					tagName = op.Tags[0]
				}
				key := KebabCase(tagName)

				listing, ok := listings[key]
				if !ok {
					listing = newOpenAPIListing(key, tagName, opts.Package, doc)
					listings[key] = listing
					refs[key] = make(map[string]bool)
				}

				operation := convertOperation(method, path, op, item.Parameters, refs[key])
				appendOperation(listing, path, operation)
			}
		}
	}

	for key, listing := range listings {
		listing.Models = collectModels(components, refs[key])
		doc.Listings[key] = []*APIListing{listing}
	}

	return doc, nil
}

var methodOrder = []string{
	http.MethodGet, http.MethodPut, http.MethodPost, http.MethodDelete,
	http.MethodOptions, http.MethodHead, http.MethodPatch,
}

func newOpenAPIListing(key, tagName, pkg string, doc *Documentation) *APIListing {
	resourceType := UpperCamel(key)
	if pkg != "" {
		resourceType = pkg + "." + resourceType
	}
	listing := &APIListing{
		ResourceGroup: key,
		ResourceType:  resourceType,
		BasePath:      doc.BasePath,
		Tags:          []string{tagName},
		Models:        make(map[string]*Model),
	}
	for _, tag := range doc.Tags {
		if tag.Name == tagName {
			listing.Description = tag.Description
		}
	}
	return listing
}

func appendOperation(listing *APIListing, path string, op *Operation) {
	for i := range listing.APIs {
		if listing.APIs[i].Path == path {
			listing.APIs[i].Operations = append(listing.APIs[i].Operations, op)
			return
		}
	}
	listing.APIs = append(listing.APIs, APIDescription{Path: path, Operations: []*Operation{op}})
}

func convertOperation(method, path string, op *openapi3.Operation, shared openapi3.Parameters, refs map[string]bool) *Operation {
	operation := &Operation{
		Method:     method,
		UniqueID:   op.OperationID,
		Summary:    op.Summary,
		Notes:      op.Description,
		Tags:       op.Tags,
		Deprecated: op.Deprecated,
	}
	if operation.UniqueID == "" {
		operation.UniqueID = strings.ToLower(method) + UpperCamel(strings.NewReplacer("/", "-", "{", "", "}", "").Replace(path))
	}

	for _, ref := range mergeParameters(shared, op.Parameters) {
		if ref == nil || ref.Value == nil {
			continue
		}
		p := ref.Value
		operation.Parameters = append(operation.Parameters, Parameter{
			Name:        p.Name,
			In:          p.In,
			Required:    p.Required,
			Description: p.Description,
			Model:       convertSchemaRef(p.Schema, refs),
		})
	}

	if body := op.RequestBody; body != nil && body.Value != nil {
		mediaTypes, schema := pickContent(body.Value.Content)
		operation.Consumes = mediaTypes
		if schema != nil {
			if isFormMedia(mediaTypes) && schema.Value != nil && len(schema.Value.Properties) > 0 {
				operation.Parameters = append(operation.Parameters, formParameters(schema.Value, refs)...)
			} else {
				operation.Parameters = append(operation.Parameters, Parameter{
					Name:        "body",
					In:          InBody,
					Required:    body.Value.Required,
					Description: body.Value.Description,
					Model:       convertSchemaRef(schema, refs),
				})
			}
		}
	}

	if op.Responses != nil {
		codes := make([]string, 0, op.Responses.Len())
		for code := range op.Responses.Map() {
			codes = append(codes, code)
		}
		sort.Strings(codes)

		produces := map[string]bool{}
		for _, code := range codes {
			ref := op.Responses.Value(code)
			if ref == nil || ref.Value == nil {
				continue
			}
			var status int
			if _, err := fmt.Sscanf(code, "%d", &status); err != nil {
				// "default" and ranges have no swagger 2 status code equivalent
				continue
			}
			msg := ResponseMessage{Code: status, Message: http.StatusText(status)}
			if ref.Value.Description != nil && *ref.Value.Description != "" {
				msg.Message = *ref.Value.Description
			}
			mediaTypes, schema := pickContent(ref.Value.Content)
			for _, mt := range mediaTypes {
				produces[mt] = true
			}
			if schema != nil {
				model := convertSchemaRef(schema, refs)
				msg.Model = &model
			}
			operation.Responses = append(operation.Responses, msg)
		}
		for mt := range produces {
			operation.Produces = append(operation.Produces, mt)
		}
		sort.Strings(operation.Produces)
	}

	return operation
}

func pickContent(content openapi3.Content) ([]string, *openapi3.SchemaRef) {
	if len(content) == 0 {
		return nil, nil
	}
	mediaTypes := make([]string, 0, len(content))
	for mt := range content {
		mediaTypes = append(mediaTypes, mt)
	}
	sort.Strings(mediaTypes)

	for _, preferred := range []string{"application/json", "application/x-www-form-urlencoded", "multipart/form-data"} {
		if mt, ok := content[preferred]; ok && mt != nil {
			return mediaTypes, mt.Schema
		}
	}
	if mt := content[mediaTypes[0]]; mt != nil {
		return mediaTypes, mt.Schema
	}
	return mediaTypes, nil
}

func isFormMedia(mediaTypes []string) bool {
	for _, mt := range mediaTypes {
		if mt == "application/json" {
			return false
		}
	}
	for _, mt := range mediaTypes {
		if mt == "application/x-www-form-urlencoded" || mt == "multipart/form-data" {
			return true
		}
	}
	return false
}

func formParameters(schema *openapi3.Schema, refs map[string]bool) []Parameter {
	required := make(map[string]bool, len(schema.Required))
	for _, name := range schema.Required {
		required[name] = true
	}
	names := make([]string, 0, len(schema.Properties))
	for name := range schema.Properties {
		names = append(names, name)
	}
	sort.Strings(names)

	params := make([]Parameter, 0, len(names))
	for _, name := range names {
		prop := schema.Properties[name]
		param := Parameter{
			Name:     name,
			In:       InFormData,
			Required: required[name],
			Model:    convertSchemaRef(prop, refs),
		}
		if prop != nil && prop.Value != nil {
			param.Description = prop.Value.Description
		}
		params = append(params, param)
	}
	return params
}

func convertSchemaRef(ref *openapi3.SchemaRef, refs map[string]bool) ModelRef {
	if ref == nil {
		return ModelRef{Type: "string"}
	}
	if strings.HasPrefix(ref.Ref, componentSchemaPrefix) {
		name := strings.TrimPrefix(ref.Ref, componentSchemaPrefix)
		refs[name] = true
		return ModelRef{Ref: name}
	}
	if ref.Value == nil {
		return ModelRef{Type: "object"}
	}
	s := ref.Value
	model := ModelRef{Type: schemaType(s), Format: s.Format}
	if s.Items != nil {
		item := convertSchemaRef(s.Items, refs)
		model.Type = "array"
		model.Item = &item
	}
	return model
}

func schemaType(s *openapi3.Schema) string {
	if s.Type == nil {
		if len(s.Properties) > 0 {
			return "object"
		}
		return ""
	}
	for _, t := range s.Type.Slice() {
		if t != "null" {
			return t
		}
	}
	return ""
}

// collectModels resolves the referenced component schemas and the
// schemas they reference in turn
func collectModels(components openapi3.Schemas, refs map[string]bool) map[string]*Model {
	models := make(map[string]*Model)
	pending := make([]string, 0, len(refs))
	for name := range refs {
		pending = append(pending, name)
	}

	for len(pending) > 0 {
		name := pending[len(pending)-1]
		pending = pending[:len(pending)-1]
		if _, done := models[name]; done {
			continue
		}
		ref, ok := components[name]
		if !ok || ref == nil || ref.Value == nil {
			continue
		}

		nested := make(map[string]bool)
		models[name] = convertModel(name, ref.Value, nested)
		for n := range nested {
			if _, done := models[n]; !done {
				pending = append(pending, n)
			}
		}
	}
	return models
}

func convertModel(name string, s *openapi3.Schema, refs map[string]bool) *Model {
	model := &Model{
		Name:        name,
		Description: s.Description,
		Properties:  make(map[string]ModelProperty, len(s.Properties)),
	}
	if t, ok := s.Extensions["x-java-class"].(string); ok {
		model.Type = t
	}

	required := make(map[string]bool, len(s.Required))
	for _, r := range s.Required {
		required[r] = true
	}
	names := make([]string, 0, len(s.Properties))
	for prop := range s.Properties {
		names = append(names, prop)
	}
	sort.Strings(names)

	for i, prop := range names {
		ref := s.Properties[prop]
		mp := ModelProperty{
			Position: i,
			Required: required[prop],
			Model:    convertSchemaRef(ref, refs),
		}
		if ref != nil && ref.Value != nil {
			mp.Description = ref.Value.Description
		}
		model.Properties[prop] = mp
	}
	return model
}

// mergeParameters combines path level and operation level parameters. An
// operation parameter replaces the path parameter with the same name and
// location.
func mergeParameters(shared, own openapi3.Parameters) openapi3.Parameters {
	type key struct{ name, in string }

	merged := make(openapi3.Parameters, 0, len(shared)+len(own))
	index := make(map[key]int)
	for _, params := range []openapi3.Parameters{shared, own} {
		for _, ref := range params {
			if ref == nil || ref.Value == nil {
				continue
			}
			k := key{ref.Value.Name, ref.Value.In}
			if i, ok := index[k]; ok {
				merged[i] = ref
				continue
			}
			index[k] = len(merged)
			merged = append(merged, ref)
		}
	}
	return merged
}
