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

// Package ontology provides access to the class and property metadata that
// type inspection and inference simulation depend on.
package ontology

import (
	"context"
	"sort"

	"github.com/cayleygraph/gravsearch/iri"
)

// Cardinality restricts how many values of a property a class may carry.
// Max of -1 means unbounded.
type Cardinality struct {
	Min int
	Max int
}

// Class is the metadata of an ontology class.
type Class struct {
	Iri iri.SmartIri

	// Exactly one of these is set for classes defined by a Gravsearch
	// ontology; all are false for external classes such as XSD datatypes.
	IsResource bool
	IsValue    bool
	IsStandoff bool

	// SubClasses lists all known transitive subclasses, excluding the
	// class itself.
	SubClasses []iri.SmartIri

	// Cardinalities maps property IRI strings to the cardinality the class
	// declares for them.
	Cardinalities map[string]Cardinality
}

// Property is the metadata of an ontology property.
type Property struct {
	Iri iri.SmartIri

	// SubjectType and ObjectType are the declared subject and object class
	// constraints; the zero SmartIri if undeclared.
	SubjectType iri.SmartIri
	ObjectType  iri.SmartIri

	// IsLink reports that the property points to a resource.
	IsLink bool
	// IsValueProp reports that the property points to a value.
	IsValueProp bool
	// SubjectIsResource reports that the declared subject type is a
	// resource class.
	SubjectIsResource bool

	// SubProperties lists all known transitive subproperties, excluding
	// the property itself.
	SubProperties []iri.SmartIri
}

// Request names the entities a caller wants metadata for. Schema selects the
// naming convention of the returned metadata; the requested IRIs may be in
// any schema.
type Request struct {
	Classes    []iri.SmartIri
	Properties []iri.SmartIri
	Schema     iri.Schema
}

// Metadata is the response to a Request. Entities unknown to the provider
// are absent from the maps; both maps are keyed by IRI string in the
// requested schema.
type Metadata struct {
	Classes    map[string]Class
	Properties map[string]Property
}

// Class looks up class metadata by IRI.
func (m Metadata) Class(i iri.SmartIri) (Class, bool) {
	c, ok := m.Classes[i.String()]
	return c, ok
}

// Property looks up property metadata by IRI.
func (m Metadata) Property(i iri.SmartIri) (Property, bool) {
	p, ok := m.Properties[i.String()]
	return p, ok
}

func sortIris(s []iri.SmartIri) {
	sort.Slice(s, func(i, j int) bool { return s[i].String() < s[j].String() })
}

// Provider serves ontology metadata. An error aborts the whole inspection or
// transformation it was issued for; retry policy belongs to the
// implementation, not to the caller.
type Provider interface {
	Metadata(ctx context.Context, req Request) (Metadata, error)
}
