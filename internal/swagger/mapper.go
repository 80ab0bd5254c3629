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

// Package swagger maps documentation into Swagger 2.0 objects and serializes them.
package swagger

import (
	"net/http"
	"sort"
	"strings"

	"github.com/go-openapi/spec"

	"github.com/servicecomb-go/swagger-adapter/internal/docs"
)

// Version is the swagger version written into every document
const Version = "2.0"

const definitionsPrefix = "#/definitions/"

// Mapper converts documentation into a swagger object
type Mapper interface {
	MapDocumentation(doc *docs.Documentation) *spec.Swagger
}

// ModelMapper is the default Mapper
type ModelMapper struct{}

// NewModelMapper creates a ModelMapper
func NewModelMapper() *ModelMapper {
	return &ModelMapper{}
}

// MapDocumentation builds a swagger object from every listing of doc. When a
// path and method pair is declared twice the first declaration wins.
func (m *ModelMapper) MapDocumentation(doc *docs.Documentation) *spec.Swagger {
	if doc == nil {
		return nil
	}

	sw := &spec.Swagger{
		SwaggerProps: spec.SwaggerProps{
			Swagger:     Version,
			Info:        mapInfo(doc.Info),
			Host:        doc.Host,
			BasePath:    doc.BasePath,
			Schemes:     doc.Schemes,
			Consumes:    doc.Consumes,
			Produces:    doc.Produces,
			Paths:       &spec.Paths{Paths: make(map[string]spec.PathItem)},
			Definitions: spec.Definitions{},
		},
	}
	for _, tag := range doc.Tags {
		sw.Tags = append(sw.Tags, spec.NewTag(tag.Name, tag.Description, nil))
	}

	keys := make([]string, 0, len(doc.Listings))
	for key := range doc.Listings {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		for _, listing := range doc.Listings[key] {
			m.mapListing(sw, listing)
		}
	}

	if len(sw.Definitions) == 0 {
		sw.Definitions = nil
	}
	return sw
}

func (m *ModelMapper) mapListing(sw *spec.Swagger, listing *docs.APIListing) {
	if listing == nil {
		return
	}
	for _, api := range listing.APIs {
		item := sw.Paths.Paths[api.Path]
		for _, op := range api.Operations {
			setOperation(&item, op.Method, mapOperation(op))
		}
		sw.Paths.Paths[api.Path] = item
	}

	names := make([]string, 0, len(listing.Models))
	for name := range listing.Models {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if _, exists := sw.Definitions[name]; exists {
			continue
		}
		sw.Definitions[name] = MapModel(listing.Models[name])
	}
}

func mapInfo(info docs.Info) *spec.Info {
	out := &spec.Info{
		InfoProps: spec.InfoProps{
			Title:          info.Title,
			Description:    info.Description,
			Version:        info.Version,
			TermsOfService: info.TermsOfService,
		},
	}
	if c := info.Contact; c != nil {
		out.Contact = &spec.ContactInfo{
			ContactInfoProps: spec.ContactInfoProps{Name: c.Name, URL: c.URL, Email: c.Email},
		}
	}
	if l := info.License; l != nil {
		out.License = &spec.License{
			LicenseProps: spec.LicenseProps{Name: l.Name, URL: l.URL},
		}
	}
	return out
}

// setOperation places op in the slot for method unless the slot is taken
func setOperation(item *spec.PathItem, method string, op *spec.Operation) {
	var slot **spec.Operation
	switch strings.ToUpper(method) {
	case http.MethodGet:
		slot = &item.Get
	case http.MethodPut:
		slot = &item.Put
	case http.MethodPost:
		slot = &item.Post
	case http.MethodDelete:
		slot = &item.Delete
	case http.MethodOptions:
		slot = &item.Options
	case http.MethodHead:
		slot = &item.Head
	case http.MethodPatch:
		slot = &item.Patch
	default:
		return
	}
	if *slot == nil {
		*slot = op
	}
}

func mapOperation(op *docs.Operation) *spec.Operation {
	out := spec.NewOperation(op.UniqueID)
	out.Summary = op.Summary
	out.Description = op.Notes
	out.Tags = op.Tags
	out.Produces = op.Produces
	out.Consumes = op.Consumes
	out.Deprecated = op.Deprecated

	for _, p := range op.Parameters {
		if param := MapParameter(p); param != nil {
			out.AddParam(param)
		}
	}

	responses := op.Responses
	if len(responses) == 0 {
		responses = []docs.ResponseMessage{{Code: http.StatusOK}}
	}
	for _, r := range responses {
		desc := r.Message
		if desc == "" {
			desc = http.StatusText(r.Code)
		}
		if desc == "" {
			desc = "OK"
		}
		resp := spec.NewResponse().WithDescription(desc)
		if r.Model != nil {
			resp.WithSchema(SchemaFor(*r.Model))
		}
		out.RespondsWith(r.Code, resp)
	}
	return out
}

// MapParameter converts a documented parameter. Unknown locations yield nil.
func MapParameter(p docs.Parameter) *spec.Parameter {
	var param *spec.Parameter
	switch p.In {
	case docs.InBody:
		param = spec.BodyParam(p.Name, SchemaFor(p.Model))
	case docs.InPath:
		param = spec.PathParam(p.Name)
	case docs.InQuery:
		param = spec.QueryParam(p.Name)
	case docs.InHeader:
		param = spec.HeaderParam(p.Name)
	case docs.InFormData:
		param = spec.FormDataParam(p.Name)
	default:
		return nil
	}

	if p.In != docs.InBody {
		typeParam(param, p.Model)
	}
	param.Description = p.Description
	if p.Required || p.In == docs.InPath {
		param.Required = true
	}
	return param
}

func typeParam(param *spec.Parameter, ref docs.ModelRef) {
	if ref.IsArray() {
		itemType, itemFormat := primitive(*ref.Item)
		param.CollectionOf(spec.NewItems().Typed(itemType, itemFormat), "multi")
		return
	}
	t, f := primitive(ref)
	param.Typed(t, f)
}

// primitive maps a reference onto a swagger primitive; models in non-body
// parameters degrade to string
func primitive(ref docs.ModelRef) (string, string) {
	switch ref.Type {
	case "integer", "number", "boolean", "string", "file":
		return ref.Type, ref.Format
	case "":
		if ref.Ref != "" {
			return "string", ""
		}
		return "string", ref.Format
	default:
		return "string", ""
	}
}

// SchemaFor converts a model reference into a schema
func SchemaFor(ref docs.ModelRef) *spec.Schema {
	if ref.Ref != "" {
		return spec.RefSchema(definitionsPrefix + ref.Ref)
	}
	if ref.IsArray() {
		return spec.ArrayProperty(SchemaFor(*ref.Item))
	}
	if ref.Type == "" {
		return &spec.Schema{}
	}
	return new(spec.Schema).Typed(ref.Type, ref.Format)
}

// MapModel converts a model into a definition
func MapModel(model *docs.Model) spec.Schema {
	schema := new(spec.Schema).Typed("object", "")
	if model == nil {
		return *schema
	}
	schema.Description = model.Description

	names := make([]string, 0, len(model.Properties))
	for name := range model.Properties {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		pi, pj := model.Properties[names[i]].Position, model.Properties[names[j]].Position
		if pi != pj {
			return pi < pj
		}
		return names[i] < names[j]
	})

	var required []string
	for _, name := range names {
		prop := model.Properties[name]
		ps := SchemaFor(prop.Model)
		if prop.Description != "" && ps.Ref.String() == "" {
			ps.Description = prop.Description
		}
		schema.SetProperty(name, *ps)
		if prop.Required {
			required = append(required, name)
		}
	}
	if len(required) > 0 {
		schema.WithRequired(required...)
	}
	return *schema
}
