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

// Package inspect determines the ontology type of every variable and IRI in
// a Gravsearch WHERE clause.
//
// Inspection runs an ordered list of inspector stages over the query. Each
// stage contributes candidate types for entities using its own strategy and
// merges them into a shared intermediate result by set union. After the last
// stage the result is resolved: every entity must have exactly one candidate
// type, otherwise the query is rejected with a diagnostic naming the
// offending entities.
package inspect

import (
	"fmt"

	"github.com/cayleygraph/gravsearch/iri"
	"github.com/cayleygraph/gravsearch/sparql"
)

// EntityKind tells a typeable variable from a typeable IRI.
type EntityKind int

const (
	KindVariable EntityKind = iota
	KindIri
)

// TypeableEntity is a variable or ontology IRI that needs a resolved type.
// Identity is structural: the variable name, or the IRI string normalized to
// the complex schema. TypeableEntity is comparable and used as a map key.
type TypeableEntity struct {
	Kind EntityKind
	Name string
}

func (e TypeableEntity) String() string {
	if e.Kind == KindVariable {
		return "?" + e.Name
	}
	return "<" + e.Name + ">"
}

// typeable converts a query entity into a TypeableEntity. Literals and IRIs
// outside the Gravsearch-visible ontologies are not typeable.
func typeable(conv *iri.Converter, e sparql.Entity) (TypeableEntity, bool, error) {
	switch e := e.(type) {
	case sparql.Var:
		return TypeableEntity{Kind: KindVariable, Name: e.Name}, true, nil
	case sparql.IriRef:
		if !e.Iri.IsOntologyEntity() {
			return TypeableEntity{}, false, nil
		}
		norm, err := conv.ToSchema(e.Iri, iri.SchemaComplex)
		if err != nil {
			return TypeableEntity{}, false, err
		}
		return TypeableEntity{Kind: KindIri, Name: norm.String()}, true, nil
	}
	return TypeableEntity{}, false, nil
}

// TypeInfo is the inferred or declared type of an entity.
//
// All implementations are comparable value types, so candidate-type sets can
// deduplicate equal findings from different stages. Ontology-entity IRIs
// inside a TypeInfo are always normalized to the complex schema, and types
// naming a resource class are normalized to knora-api:Resource, so that the
// same conclusion reached along different paths compares equal.
type TypeInfo interface {
	isTypeInfo()
	String() string
}

// PropertyTypeInfo is the type of an entity used as a predicate: the type of
// the objects the property points to.
type PropertyTypeInfo struct {
	ObjectType       iri.SmartIri
	ObjectIsResource bool
}

func (PropertyTypeInfo) isTypeInfo() {}

func (t PropertyTypeInfo) String() string {
	return fmt.Sprintf("property with object type <%s>", t.ObjectType)
}

// NonPropertyTypeInfo is the type of an entity that is not a predicate: a
// resource class, value class or literal datatype.
type NonPropertyTypeInfo struct {
	Type       iri.SmartIri
	IsResource bool
}

func (NonPropertyTypeInfo) isTypeInfo() {}

func (t NonPropertyTypeInfo) String() string {
	return fmt.Sprintf("<%s>", t.Type)
}
