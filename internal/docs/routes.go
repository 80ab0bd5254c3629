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
	"net/http"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"
)

// RouteDoc enriches a discovered route with documentation gin cannot infer
type RouteDoc struct {
	Summary    string
	Notes      string
	Tags       []string
	Produces   []string
	Consumes   []string
	Parameters []Parameter
	Responses  []ResponseMessage
}

// RoutesOptions controls how gin routes become Documentation
type RoutesOptions struct {
	Group    string
	Info     Info
	BasePath string
	// Docs is keyed by "METHOD path", for example "GET /v1/schemas/:id"
	Docs map[string]RouteDoc
	// Skip lists paths that are left out of the documentation
	Skip []string
}

// FromRoutes documents gin routes, grouping them into one listing per
// handler receiver type
func FromRoutes(routes gin.RoutesInfo, opts RoutesOptions) *Documentation {
	group := opts.Group
	if group == "" {
		group = DefaultGroupName
	}
	doc := &Documentation{
		GroupName: group,
		Info:      opts.Info,
		BasePath:  opts.BasePath,
		Produces:  []string{"application/json"},
		Consumes:  []string{"application/json"},
		Listings:  make(map[string][]*APIListing),
	}

	skip := make(map[string]bool, len(opts.Skip))
	for _, p := range opts.Skip {
		skip[p] = true
	}

	sorted := append(gin.RoutesInfo(nil), routes...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Path != sorted[j].Path {
			return sorted[i].Path < sorted[j].Path
		}
		return sorted[i].Method < sorted[j].Method
	})

	listings := make(map[string]*APIListing)
	for _, route := range sorted {
		if skip[route.Path] {
			continue
		}
		resourceType, funcName := parseHandlerName(route.Handler)
		key := resourceGroupFor(resourceType)

		listing, ok := listings[key]
		if !ok {
			listing = &APIListing{
				ResourceGroup: key,
				ResourceType:  resourceType,
				BasePath:      opts.BasePath,
				Tags:          []string{key},
				Models:        make(map[string]*Model),
			}
			listings[key] = listing
		}

		path, params := convertGinPath(route.Path)
		op := &Operation{
			Method:     route.Method,
			UniqueID:   operationIDFor(funcName, route.Method, path),
			Tags:       []string{key},
			Parameters: params,
		}
		if extra, ok := opts.Docs[route.Method+" "+route.Path]; ok {
			applyRouteDoc(op, extra)
		}
		if len(op.Responses) == 0 {
			op.Responses = []ResponseMessage{{Code: http.StatusOK, Message: "OK"}}
		}
		appendOperation(listing, path, op)
	}

	for key, listing := range listings {
		doc.Listings[key] = []*APIListing{listing}
		doc.Tags = append(doc.Tags, Tag{Name: key, Description: SimpleName(listing.ResourceType)})
	}
	sort.Slice(doc.Tags, func(i, j int) bool { return doc.Tags[i].Name < doc.Tags[j].Name })

	return doc
}

func applyRouteDoc(op *Operation, extra RouteDoc) {
	op.Summary = extra.Summary
	op.Notes = extra.Notes
	if len(extra.Tags) > 0 {
		op.Tags = extra.Tags
	}
	op.Produces = extra.Produces
	op.Consumes = extra.Consumes
	op.Responses = extra.Responses

	// Path parameters discovered from the route win over declared ones
	declared := make(map[string]bool, len(op.Parameters))
	for _, p := range op.Parameters {
		declared[p.In+":"+p.Name] = true
	}
	for _, p := range extra.Parameters {
		if !declared[p.In+":"+p.Name] {
			op.Parameters = append(op.Parameters, p)
		}
	}
}

// parseHandlerName splits a gin handler name such as
// "github.com/x/internal/server.(*Server).handleListSchemas-fm" into the
// qualified receiver type "github.com/x/internal/server.Server" and the
// function name "handleListSchemas"
func parseHandlerName(handler string) (string, string) {
	name := strings.TrimSuffix(handler, "-fm")

	prefix := ""
	if i := strings.LastIndex(name, "/"); i >= 0 {
		prefix, name = name[:i+1], name[i+1:]
	}
	dot := strings.Index(name, ".")
	if dot < 0 {
		return prefix + name, name
	}
	pkg, rest := name[:dot], name[dot+1:]

	if strings.HasPrefix(rest, "(") {
		end := strings.Index(rest, ")")
		if end > 0 {
			receiver := strings.Trim(rest[:end], "(*)")
			fn := strings.TrimPrefix(rest[end+1:], ".")
			if i := strings.Index(fn, "."); i >= 0 {
				fn = fn[:i]
			}
			return prefix + pkg + "." + receiver, fn
		}
	}

	fn := rest
	if i := strings.Index(fn, "."); i >= 0 {
		fn = fn[:i]
	}
	return prefix + pkg, fn
}

func resourceGroupFor(resourceType string) string {
	simple := SimpleName(resourceType)
	if simple == "" {
		return DefaultResourceGroup
	}
	group := KebabCase(simple)
	if !strings.HasSuffix(group, "-controller") {
		group += "-controller"
	}
	return group
}

func operationIDFor(funcName, method, path string) string {
	name := strings.TrimPrefix(funcName, "handle")
	if name == "" || strings.HasPrefix(name, "func") {
		name = strings.ToLower(method) + UpperCamel(strings.NewReplacer("/", "-", "{", "", "}", "").Replace(path))
	}
	return LowerCamel(name)
}

// convertGinPath turns "/v1/schemas/:id" into "/v1/schemas/{id}" plus the
// matching path parameters
func convertGinPath(path string) (string, []Parameter) {
	segments := strings.Split(path, "/")
	var params []Parameter
	for i, seg := range segments {
		if len(seg) < 2 || (seg[0] != ':' && seg[0] != '*') {
			continue
		}
		name := seg[1:]
		segments[i] = "{" + name + "}"
		params = append(params, Parameter{
			Name:     name,
			In:       InPath,
			Required: true,
			Model:    ModelRef{Type: "string"},
		})
	}
	return strings.Join(segments, "/"), params
}
