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
	"sort"
	"sync/atomic"

	"github.com/go-openapi/spec"
)

// Store holds the schemas built by the last Init. The map is replaced
// wholesale and never mutated once published.
type Store struct {
	schemas atomic.Pointer[map[string]*spec.Swagger]
}

// NewStore creates an empty store
func NewStore() *Store {
	s := &Store{}
	s.Replace(nil)
	return s
}

// Replace publishes a new schema set
func (s *Store) Replace(schemas map[string]*spec.Swagger) {
	if schemas == nil {
		schemas = make(map[string]*spec.Swagger)
	}
	s.schemas.Store(&schemas)
}

// Get returns the schema stored under id
func (s *Store) Get(id string) (*spec.Swagger, bool) {
	sw, ok := s.snapshot()[id]
	return sw, ok
}

// IDs returns every schema id, sorted
func (s *Store) IDs() []string {
	schemas := s.snapshot()
	ids := make([]string, 0, len(schemas))
	for id := range schemas {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of stored schemas
func (s *Store) Len() int {
	return len(s.snapshot())
}

func (s *Store) snapshot() map[string]*spec.Swagger {
	if p := s.schemas.Load(); p != nil {
		return *p
	}
	return nil
}
