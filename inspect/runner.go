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

import (
	"context"
	"fmt"
	"strings"

	"github.com/cayleygraph/gravsearch/clog"
	"github.com/cayleygraph/gravsearch/iri"
	"github.com/cayleygraph/gravsearch/ontology"
	"github.com/cayleygraph/gravsearch/sparql"
)

// Inspector is one stage of the type inspection pipeline. A stage assigns
// types to entities it has evidence for and merges its findings into the
// previous result by set union, never overwriting earlier findings.
type Inspector interface {
	Name() string
	Inspect(ctx context.Context, prev IntermediateResult, q *sparql.ConstructQuery) (IntermediateResult, error)
}

// Runner drives the inspector stages in order and resolves the final result.
type Runner struct {
	conv       *iri.Converter
	inspectors []Inspector
}

// NewRunner returns a Runner with the standard stages: the syntax-driven
// annotation inspector followed by the ontology-driven inference inspector.
func NewRunner(conv *iri.Converter, prov ontology.Provider) *Runner {
	return &Runner{
		conv: conv,
		inspectors: []Inspector{
			NewAnnotationInspector(conv),
			NewInferenceInspector(conv, prov),
		},
	}
}

// Inspect types every entity of the query's WHERE clause. It fails if any
// entity ends up with no type or with more than one.
func (r *Runner) Inspect(ctx context.Context, q *sparql.ConstructQuery) (*Result, error) {
	index, err := NewUsageIndex(q.Where, r.conv)
	if err != nil {
		return nil, err
	}
	result := NewIntermediateResult()
	for _, e := range index.Entities() {
		result = result.WithEntity(e)
	}
	for _, insp := range r.inspectors {
		result, err = insp.Inspect(ctx, result, q)
		if err != nil {
			return nil, fmt.Errorf("inspect: %s stage: %w", insp.Name(), err)
		}
		if clog.V(1) {
			clog.Infof("inspect: %s stage done, %d of %d entities typed",
				insp.Name(), len(result.Entities())-len(result.Untyped()), len(result.Entities()))
		}
	}
	return Resolve(result)
}

// Result is the finalized type map: exactly one type per entity.
type Result struct {
	types map[TypeableEntity]TypeInfo
}

// TypeOf returns the resolved type of an entity.
func (r *Result) TypeOf(e TypeableEntity) (TypeInfo, bool) {
	t, ok := r.types[e]
	return t, ok
}

// Entities returns all typed entities, sorted.
func (r *Result) Entities() []TypeableEntity {
	out := make([]TypeableEntity, 0, len(r.types))
	for e := range r.types {
		out = append(out, e)
	}
	sortEntities(out)
	return out
}

// Len returns the number of typed entities.
func (r *Result) Len() int { return len(r.types) }

// UntypedError reports entities whose type could not be determined. The
// query is underspecified.
type UntypedError struct {
	Entities []TypeableEntity
}

func (e *UntypedError) Error() string {
	names := make([]string, len(e.Entities))
	for i, ent := range e.Entities {
		names[i] = ent.String()
	}
	return fmt.Sprintf("inspect: the type of one or more entities could not be determined: %s",
		strings.Join(names, ", "))
}

// EntityTypes pairs an entity with its conflicting candidate types.
type EntityTypes struct {
	Entity TypeableEntity
	Types  []TypeInfo
}

// InconsistentError reports entities that ended up with more than one
// candidate type. The query uses them inconsistently.
type InconsistentError struct {
	Entities []EntityTypes
}

func (e *InconsistentError) Error() string {
	parts := make([]string, len(e.Entities))
	for i, et := range e.Entities {
		types := make([]string, len(et.Types))
		for j, t := range et.Types {
			types[j] = t.String()
		}
		parts[i] = fmt.Sprintf("%s (%s)", et.Entity, strings.Join(types, " vs "))
	}
	return fmt.Sprintf("inspect: one or more entities are used inconsistently: %s",
		strings.Join(parts, "; "))
}

// Resolve checks that every entity has exactly one candidate type and
// produces the finalized type map. It is pure and performs no I/O.
func Resolve(r IntermediateResult) (*Result, error) {
	out := &Result{types: map[TypeableEntity]TypeInfo{}}
	var untyped []TypeableEntity
	var inconsistent []EntityTypes
	for _, e := range r.Entities() {
		types := r.Types(e)
		switch len(types) {
		case 0:
			untyped = append(untyped, e)
		case 1:
			out.types[e] = types[0]
		default:
			inconsistent = append(inconsistent, EntityTypes{Entity: e, Types: types})
		}
	}
	if len(inconsistent) > 0 {
		return nil, &InconsistentError{Entities: inconsistent}
	}
	if len(untyped) > 0 {
		return nil, &UntypedError{Entities: untyped}
	}
	return out, nil
}
