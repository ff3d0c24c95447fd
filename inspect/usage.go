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
	"github.com/cayleygraph/quad"

	"github.com/cayleygraph/gravsearch/iri"
	"github.com/cayleygraph/gravsearch/sparql"
	"github.com/cayleygraph/gravsearch/voc/knora"
	"github.com/cayleygraph/gravsearch/voc/rdf"
)

// UsageIndex records, for one inspection pass, where each typeable entity is
// used in the WHERE clause. It is a pure function of the pattern tree and is
// rebuilt fresh for every pass, since new type information can change which
// statements are relevant.
type UsageIndex struct {
	// Classes and Properties are the ontology entities mentioned by the
	// query, normalized to the complex schema and keyed by IRI string.
	Classes    map[string]iri.SmartIri
	Properties map[string]iri.SmartIri

	// Statement usage per entity, partitioned by role.
	SubjectOf   map[TypeableEntity][]sparql.StatementPattern
	PredicateOf map[TypeableEntity][]sparql.StatementPattern
	ObjectOf    map[TypeableEntity][]sparql.StatementPattern

	// FILTER comparisons of a variable against IRIs and typed literals.
	ComparedIris     map[TypeableEntity][]iri.SmartIri
	ComparedLiterals map[TypeableEntity][]quad.IRI
}

// NewUsageIndex flattens the pattern tree and indexes entity usage. Nesting
// structure is not preserved; a statement in a union branch indexes the same
// way as a top-level one.
func NewUsageIndex(where []sparql.Pattern, conv *iri.Converter) (*UsageIndex, error) {
	idx := &UsageIndex{
		Classes:          map[string]iri.SmartIri{},
		Properties:       map[string]iri.SmartIri{},
		SubjectOf:        map[TypeableEntity][]sparql.StatementPattern{},
		PredicateOf:      map[TypeableEntity][]sparql.StatementPattern{},
		ObjectOf:         map[TypeableEntity][]sparql.StatementPattern{},
		ComparedIris:     map[TypeableEntity][]iri.SmartIri{},
		ComparedLiterals: map[TypeableEntity][]quad.IRI{},
	}
	for _, p := range sparql.Flatten(where) {
		switch p := p.(type) {
		case sparql.StatementPattern:
			if err := idx.indexStatement(conv, p); err != nil {
				return nil, err
			}
		case sparql.FilterPattern:
			if err := idx.indexExpression(conv, p.Expression); err != nil {
				return nil, err
			}
		}
	}
	return idx, nil
}

func (idx *UsageIndex) indexStatement(conv *iri.Converter, st sparql.StatementPattern) error {
	index := func(term sparql.Entity, into map[TypeableEntity][]sparql.StatementPattern) error {
		e, ok, err := typeable(conv, term)
		if err != nil || !ok {
			return err
		}
		into[e] = append(into[e], st)
		return nil
	}
	if err := index(st.Subject, idx.SubjectOf); err != nil {
		return err
	}
	if pred, ok := st.Predicate.(sparql.IriRef); ok && pred.Iri.IsOntologyEntity() {
		norm, err := conv.ToSchema(pred.Iri, iri.SchemaComplex)
		if err != nil {
			return err
		}
		// The objectType predicate and its object are annotation syntax,
		// not query entities.
		if norm.String() == knora.ObjectType {
			return nil
		}
	}
	if err := index(st.Predicate, idx.PredicateOf); err != nil {
		return err
	}
	if err := index(st.Object, idx.ObjectOf); err != nil {
		return err
	}
	pred, isIri := st.Predicate.(sparql.IriRef)
	if !isIri {
		return nil
	}
	if string(pred.Iri.Quad()) == rdf.Type {
		if obj, ok := st.Object.(sparql.IriRef); ok && obj.Iri.IsOntologyEntity() {
			norm, err := conv.ToSchema(obj.Iri, iri.SchemaComplex)
			if err != nil {
				return err
			}
			idx.Classes[norm.String()] = norm
		}
		return nil
	}
	if pred.Iri.IsOntologyEntity() {
		norm, err := conv.ToSchema(pred.Iri, iri.SchemaComplex)
		if err != nil {
			return err
		}
		idx.Properties[norm.String()] = norm
	}
	return nil
}

func (idx *UsageIndex) indexExpression(conv *iri.Converter, expr sparql.Expression) error {
	switch expr := expr.(type) {
	case sparql.And:
		if err := idx.indexExpression(conv, expr.Left); err != nil {
			return err
		}
		return idx.indexExpression(conv, expr.Right)
	case sparql.Or:
		if err := idx.indexExpression(conv, expr.Left); err != nil {
			return err
		}
		return idx.indexExpression(conv, expr.Right)
	case sparql.Compare:
		return idx.indexComparison(conv, expr)
	}
	return nil
}

// indexComparison records FILTER(?x = <iri>) and FILTER(?x = "v"^^dt) style
// type hints, with the variable on either side.
func (idx *UsageIndex) indexComparison(conv *iri.Converter, cmp sparql.Compare) error {
	v, other := comparedVar(cmp)
	if v == nil {
		return nil
	}
	e := TypeableEntity{Kind: KindVariable, Name: v.Name}
	switch other := other.(type) {
	case sparql.IriRef:
		idx.ComparedIris[e] = append(idx.ComparedIris[e], other.Iri)
		if other.Iri.IsOntologyEntity() {
			norm, err := conv.ToSchema(other.Iri, iri.SchemaComplex)
			if err != nil {
				return err
			}
			// The compared IRI may name either a class or a property;
			// request metadata under both roles and let the provider
			// answer for whichever it knows.
			idx.Properties[norm.String()] = norm
			idx.Classes[norm.String()] = norm
		}
	case sparql.Literal:
		idx.ComparedLiterals[e] = append(idx.ComparedLiterals[e], other.Datatype)
	}
	return nil
}

func comparedVar(cmp sparql.Compare) (*sparql.Var, sparql.Expression) {
	if v, ok := cmp.Left.(sparql.Var); ok {
		return &v, cmp.Right
	}
	if v, ok := cmp.Right.(sparql.Var); ok {
		return &v, cmp.Left
	}
	return nil, nil
}

// Entities returns every typeable entity the index has seen.
func (idx *UsageIndex) Entities() []TypeableEntity {
	seen := map[TypeableEntity]struct{}{}
	for _, m := range []map[TypeableEntity][]sparql.StatementPattern{idx.SubjectOf, idx.PredicateOf, idx.ObjectOf} {
		for e := range m {
			seen[e] = struct{}{}
		}
	}
	for e := range idx.ComparedIris {
		seen[e] = struct{}{}
	}
	for e := range idx.ComparedLiterals {
		seen[e] = struct{}{}
	}
	out := make([]TypeableEntity, 0, len(seen))
	for e := range seen {
		out = append(out, e)
	}
	sortEntities(out)
	return out
}
