// Copyright 2023 The Cayley Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package inspect

import "sort"

// IntermediateResult maps each typeable entity to its set of candidate
// types. A set size of zero means untyped, one means resolved, and more than
// one means the entity is used inconsistently.
//
// The value is immutable: With* methods return an updated copy, so inspector
// stages can thread results through the pipeline without shared mutation.
// Candidate sets only ever grow.
type IntermediateResult struct {
	entities map[TypeableEntity]map[TypeInfo]struct{}
}

// NewIntermediateResult returns an empty result.
func NewIntermediateResult() IntermediateResult {
	return IntermediateResult{entities: map[TypeableEntity]map[TypeInfo]struct{}{}}
}

func (r IntermediateResult) copy() IntermediateResult {
	out := IntermediateResult{entities: make(map[TypeableEntity]map[TypeInfo]struct{}, len(r.entities))}
	for e, types := range r.entities {
		set := make(map[TypeInfo]struct{}, len(types))
		for t := range types {
			set[t] = struct{}{}
		}
		out.entities[e] = set
	}
	return out
}

// WithEntity registers an entity, keeping its current candidate set if it is
// already known.
func (r IntermediateResult) WithEntity(e TypeableEntity) IntermediateResult {
	if _, ok := r.entities[e]; ok {
		return r
	}
	out := r.copy()
	out.entities[e] = map[TypeInfo]struct{}{}
	return out
}

// WithTypes adds candidate types for an entity by set union.
func (r IntermediateResult) WithTypes(e TypeableEntity, types ...TypeInfo) IntermediateResult {
	if len(types) == 0 {
		return r.WithEntity(e)
	}
	out := r.copy()
	set, ok := out.entities[e]
	if !ok {
		set = map[TypeInfo]struct{}{}
		out.entities[e] = set
	}
	for _, t := range types {
		set[t] = struct{}{}
	}
	return out
}

// Has reports whether the entity is registered.
func (r IntermediateResult) Has(e TypeableEntity) bool {
	_, ok := r.entities[e]
	return ok
}

// TypeCount returns the size of the entity's candidate set.
func (r IntermediateResult) TypeCount(e TypeableEntity) int {
	return len(r.entities[e])
}

// Types returns the entity's candidate types, sorted for determinism.
func (r IntermediateResult) Types(e TypeableEntity) []TypeInfo {
	set := r.entities[e]
	out := make([]TypeInfo, 0, len(set))
	for t := range set {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

// Entities returns all registered entities, sorted for determinism.
func (r IntermediateResult) Entities() []TypeableEntity {
	out := make([]TypeableEntity, 0, len(r.entities))
	for e := range r.entities {
		out = append(out, e)
	}
	sortEntities(out)
	return out
}

// Untyped returns all registered entities with an empty candidate set.
func (r IntermediateResult) Untyped() []TypeableEntity {
	var out []TypeableEntity
	for e, types := range r.entities {
		if len(types) == 0 {
			out = append(out, e)
		}
	}
	sortEntities(out)
	return out
}

func sortEntities(s []TypeableEntity) {
	sort.Slice(s, func(i, j int) bool {
		if s[i].Kind != s[j].Kind {
			return s[i].Kind < s[j].Kind
		}
		return s[i].Name < s[j].Name
	})
}
