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
	"fmt"
	"sort"
	"sync"
)

// Source produces the documentation of a group
type Source interface {
	Documentation(group string) (*Documentation, error)
}

// Cache stores documentation by group name
type Cache struct {
	mu     sync.RWMutex
	groups map[string]*Documentation
}

// NewCache creates an empty documentation cache
func NewCache() *Cache {
	return &Cache{groups: make(map[string]*Documentation)}
}

// Add stores doc under its group name, replacing any previous entry.
// An empty group name is stored as DefaultGroupName.
func (c *Cache) Add(doc *Documentation) {
	if doc == nil {
		return
	}
	if doc.GroupName == "" {
		doc.GroupName = DefaultGroupName
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.groups[doc.GroupName] = doc
}

// DocumentationByGroup returns the documentation stored for group, or nil
func (c *Cache) DocumentationByGroup(group string) *Documentation {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.groups[group]
}

// Documentation implements Source
func (c *Cache) Documentation(group string) (*Documentation, error) {
	doc := c.DocumentationByGroup(group)
	if doc == nil {
		return nil, fmt.Errorf("documentation group not found: %s", group)
	}
	return doc, nil
}

// Groups returns the cached group names, sorted
func (c *Cache) Groups() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	groups := make([]string, 0, len(c.groups))
	for name := range c.groups {
		groups = append(groups, name)
	}
	sort.Strings(groups)
	return groups
}

// Merge folds the listings, models and tags of src into dst. Listings with a
// resource group already present in dst are appended to it.
func Merge(dst, src *Documentation) {
	if dst == nil || src == nil {
		return
	}
	if dst.Listings == nil {
		dst.Listings = make(map[string][]*APIListing)
	}
	for group, listings := range src.Listings {
		dst.Listings[group] = append(dst.Listings[group], listings...)
	}

	seen := make(map[string]bool, len(dst.Tags))
	for _, tag := range dst.Tags {
		seen[tag.Name] = true
	}
	for _, tag := range src.Tags {
		if !seen[tag.Name] {
			dst.Tags = append(dst.Tags, tag)
			seen[tag.Name] = true
		}
	}
}
