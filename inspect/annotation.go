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

	"github.com/cayleygraph/gravsearch/iri"
	"github.com/cayleygraph/gravsearch/sparql"
	"github.com/cayleygraph/gravsearch/voc/knora"
	"github.com/cayleygraph/gravsearch/voc/rdf"
	"github.com/cayleygraph/gravsearch/voc/xsd"
)

// builtinPropertyTypes are the fixed object types of the well-known resource
// metadata properties. They are seeded without consulting the ontology.
var builtinPropertyTypes = map[string]string{
	knora.ArkURL:               xsd.AnyURI,
	knora.VersionArkURL:        xsd.AnyURI,
	knora.CreationDate:         xsd.DateTime,
	knora.LastModificationDate: xsd.DateTime,
	knora.IsDeleted:            xsd.Boolean,
}

// AnnotationInspector is the syntax-driven inspector stage. It reads the
// type annotations present in the query text itself: rdf:type statements
// with a well-known object, knora-api:objectType statements, and typed
// literal comparisons in FILTER expressions. It also seeds the built-in
// metadata property types.
type AnnotationInspector struct {
	conv *iri.Converter
}

// NewAnnotationInspector returns the syntax-driven inspector stage.
func NewAnnotationInspector(conv *iri.Converter) *AnnotationInspector {
	return &AnnotationInspector{conv: conv}
}

// Name implements Inspector.
func (a *AnnotationInspector) Name() string { return "annotation" }

// Inspect implements Inspector.
func (a *AnnotationInspector) Inspect(_ context.Context, prev IntermediateResult, q *sparql.ConstructQuery) (IntermediateResult, error) {
	result := prev
	index, err := NewUsageIndex(q.Where, a.conv)
	if err != nil {
		return prev, err
	}

	for _, e := range index.Entities() {
		if e.Kind != KindIri {
			continue
		}
		objType, ok := builtinPropertyTypes[e.Name]
		if !ok {
			continue
		}
		t, err := a.conv.Parse(objType)
		if err != nil {
			return prev, err
		}
		result = result.WithTypes(e, PropertyTypeInfo{ObjectType: t})
	}

	for _, st := range sparql.Statements(q.Where) {
		pred, ok := st.Predicate.(sparql.IriRef)
		if !ok {
			continue
		}
		subject, ok, err := typeable(a.conv, st.Subject)
		if err != nil {
			return prev, err
		}
		if !ok {
			continue
		}
		predIri := pred.Iri
		if predIri.IsOntologyEntity() {
			predIri, err = a.conv.ToSchema(predIri, iri.SchemaComplex)
			if err != nil {
				return prev, err
			}
		}
		switch predIri.String() {
		case rdf.Type:
			t, ok, err := a.annotationType(st.Object)
			if err != nil {
				return prev, err
			}
			if ok {
				result = result.WithTypes(subject, t)
			}
		case knora.ObjectType:
			obj, ok := st.Object.(sparql.IriRef)
			if !ok {
				continue
			}
			norm, err := a.conv.ToSchema(obj.Iri, iri.SchemaComplex)
			if err != nil {
				return prev, err
			}
			result = result.WithTypes(subject, PropertyTypeInfo{
				ObjectType:       norm,
				ObjectIsResource: norm.String() == knora.Resource,
			})
		}
	}

	for e, datatypes := range index.ComparedLiterals {
		for _, dt := range datatypes {
			t, err := a.conv.Parse(string(dt))
			if err != nil {
				return prev, err
			}
			result = result.WithTypes(e, NonPropertyTypeInfo{Type: t})
		}
	}
	return result, nil
}

// annotationType interprets an rdf:type object that is an explicit
// annotation rather than an ontology lookup: knora-api:Resource or an XSD
// datatype. Other classes are left to the inference stage.
func (a *AnnotationInspector) annotationType(obj sparql.Entity) (TypeInfo, bool, error) {
	ref, ok := obj.(sparql.IriRef)
	if !ok {
		return nil, false, nil
	}
	if ref.Iri.IsOntologyEntity() {
		norm, err := a.conv.ToSchema(ref.Iri, iri.SchemaComplex)
		if err != nil {
			return nil, false, err
		}
		if norm.String() == knora.Resource {
			return NonPropertyTypeInfo{Type: norm, IsResource: true}, true, nil
		}
		return nil, false, nil
	}
	if ref.Iri.IsVocab() {
		return NonPropertyTypeInfo{Type: ref.Iri}, true, nil
	}
	return nil, false, nil
}

// RemoveAnnotations strips type annotation statements from a pattern tree so
// they are not executed against the store: knora-api:objectType statements
// and rdf:type statements whose object is knora-api:Resource.
func RemoveAnnotations(conv *iri.Converter, patterns []sparql.Pattern) ([]sparql.Pattern, error) {
	out := make([]sparql.Pattern, 0, len(patterns))
	for _, p := range patterns {
		switch p := p.(type) {
		case sparql.StatementPattern:
			drop, err := isAnnotationStatement(conv, p)
			if err != nil {
				return nil, err
			}
			if !drop {
				out = append(out, p)
			}
		case sparql.FilterNotExistsPattern:
			ps, err := RemoveAnnotations(conv, p.Patterns)
			if err != nil {
				return nil, err
			}
			out = append(out, sparql.FilterNotExistsPattern{Patterns: ps})
		case sparql.MinusPattern:
			ps, err := RemoveAnnotations(conv, p.Patterns)
			if err != nil {
				return nil, err
			}
			out = append(out, sparql.MinusPattern{Patterns: ps})
		case sparql.OptionalPattern:
			ps, err := RemoveAnnotations(conv, p.Patterns)
			if err != nil {
				return nil, err
			}
			out = append(out, sparql.OptionalPattern{Patterns: ps})
		case sparql.UnionPattern:
			u := sparql.UnionPattern{Blocks: make([][]sparql.Pattern, 0, len(p.Blocks))}
			for _, b := range p.Blocks {
				ps, err := RemoveAnnotations(conv, b)
				if err != nil {
					return nil, err
				}
				u.Blocks = append(u.Blocks, ps)
			}
			out = append(out, u)
		default:
			out = append(out, p)
		}
	}
	return out, nil
}

func isAnnotationStatement(conv *iri.Converter, st sparql.StatementPattern) (bool, error) {
	pred, ok := st.Predicate.(sparql.IriRef)
	if !ok {
		return false, nil
	}
	predIri := pred.Iri
	if predIri.IsOntologyEntity() {
		var err error
		predIri, err = conv.ToSchema(predIri, iri.SchemaComplex)
		if err != nil {
			return false, err
		}
	}
	switch predIri.String() {
	case knora.ObjectType:
		return true, nil
	case rdf.Type:
		obj, ok := st.Object.(sparql.IriRef)
		if !ok || !obj.Iri.IsOntologyEntity() {
			return false, nil
		}
		norm, err := conv.ToSchema(obj.Iri, iri.SchemaComplex)
		if err != nil {
			return false, err
		}
		return norm.String() == knora.Resource, nil
	}
	return false, nil
}
