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

// Package docs holds the framework-native API documentation model that is
// mapped into swagger schemas, along with the sources that produce it.
package docs

// DefaultGroupName is the documentation group consumed when none is configured
const DefaultGroupName = "default"

// Parameter locations
const (
	InPath     = "path"
	InQuery    = "query"
	InHeader   = "header"
	InBody     = "body"
	InFormData = "formData"
)

// Documentation is the documentation of one group, split into resource listings
type Documentation struct {
	GroupName string
	Info      Info
	BasePath  string
	Host      string
	Schemes   []string
	Produces  []string
	Consumes  []string
	Tags      []Tag

	// Listings is keyed by resource group, for example "hello-controller"
	Listings map[string][]*APIListing
}

// Info describes the documented API
type Info struct {
	Title          string
	Description    string
	Version        string
	TermsOfService string
	Contact        *Contact
	License        *License
}

// Contact information for the documented API
type Contact struct {
	Name  string
	URL   string
	Email string
}

// License information for the documented API
type License struct {
	Name string
	URL  string
}

// Tag groups operations
type Tag struct {
	Name        string
	Description string
}

// APIListing documents the operations of one resource type
type APIListing struct {
	ResourceGroup string
	// ResourceType is the fully qualified name of the handler type
	ResourceType string
	BasePath     string
	Description  string
	Produces     []string
	Consumes     []string
	Tags         []string
	APIs         []APIDescription
	Models       map[string]*Model
}

// APIDescription groups the operations sharing one path
type APIDescription struct {
	Path        string
	Description string
	Operations  []*Operation
}

// Operation is a single HTTP operation
type Operation struct {
	Method     string
	UniqueID   string
	Summary    string
	Notes      string
	Tags       []string
	Deprecated bool
	Produces   []string
	Consumes   []string
	Parameters []Parameter
	Responses  []ResponseMessage
}

// Parameter is an operation input
type Parameter struct {
	Name        string
	In          string
	Required    bool
	Description string
	Model       ModelRef
}

// ResponseMessage documents one response code
type ResponseMessage struct {
	Code    int
	Message string
	Model   *ModelRef
}

// ModelRef points at a primitive type, an array or a named model
type ModelRef struct {
	Type   string
	Format string
	Item   *ModelRef
	// Ref names a model in the listing's Models
	Ref string
}

// IsArray reports whether the reference describes an array
func (r ModelRef) IsArray() bool {
	return r.Type == "array" && r.Item != nil
}

// Model is a named structure referenced from operations
type Model struct {
	Name string
	// Type is the fully qualified type of the model, empty when not known
	Type        string
	Description string
	Properties  map[string]ModelProperty
}

// ModelProperty is a field of a model
type ModelProperty struct {
	Position    int
	Description string
	Required    bool
	Model       ModelRef
}

// Operations returns every operation of the listing in declaration order
func (l *APIListing) Operations() []*Operation {
	var ops []*Operation
	for _, api := range l.APIs {
		ops = append(ops, api.Operations...)
	}
	return ops
}
