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

// Package iri implements SmartIri, a validated and structured representation
// of the IRIs appearing in Gravsearch queries.
//
// A SmartIri knows whether the IRI names an ontology entity, which ontology
// it belongs to, and in which naming schema it is expressed. Ontology-entity
// IRIs can be translated between the internal schema used by the triplestore
// and the complex and simple external schemas exposed by the API.
package iri

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cayleygraph/quad"

	"github.com/cayleygraph/gravsearch/voc/knora"
	"github.com/cayleygraph/gravsearch/voc/owl"
	"github.com/cayleygraph/gravsearch/voc/rdf"
	"github.com/cayleygraph/gravsearch/voc/rdfs"
	"github.com/cayleygraph/gravsearch/voc/xsd"
)

// Schema is the naming schema an ontology-entity IRI is expressed in.
type Schema int

const (
	// SchemaNone marks IRIs that do not belong to a Gravsearch-visible
	// ontology (well-known vocabulary terms and plain data IRIs).
	SchemaNone Schema = iota
	// SchemaInternal is the schema used by the triplestore.
	SchemaInternal
	// SchemaComplex is the complex external API schema.
	SchemaComplex
	// SchemaSimple is the simple external API schema.
	SchemaSimple
)

func (s Schema) String() string {
	switch s {
	case SchemaInternal:
		return "internal"
	case SchemaComplex:
		return "complex"
	case SchemaSimple:
		return "simple"
	}
	return "none"
}

type iriKind int

const (
	kindData iriKind = iota // plain data IRI, e.g. http://rdfh.ch/0001/a-thing
	kindVocab               // rdf, rdfs, owl, xsd term
	kindOntology            // entity of a Gravsearch-visible ontology
)

// SmartIri is a parsed, validated IRI. The zero value is invalid; values are
// created by Converter.Parse and are immutable. SmartIri is comparable and
// can be used as a map key.
type SmartIri struct {
	full     string
	kind     iriKind
	ontology string // internal ontology name, e.g. "knora-base" or "0001/anything"
	entity   string // local entity name within the ontology
	schema   Schema
}

// String returns the full IRI string.
func (i SmartIri) String() string { return i.full }

// Quad returns the IRI as a quad value.
func (i SmartIri) Quad() quad.IRI { return quad.IRI(i.full) }

// Schema returns the naming schema the IRI is expressed in.
func (i SmartIri) Schema() Schema { return i.schema }

// Ontology returns the internal name of the ontology the IRI belongs to, or
// an empty string for vocabulary terms and data IRIs.
func (i SmartIri) Ontology() string { return i.ontology }

// Entity returns the local entity name, or an empty string if the IRI does
// not name an ontology entity.
func (i SmartIri) Entity() string { return i.entity }

// IsOntologyEntity reports whether the IRI names a class or property of a
// Gravsearch-visible ontology.
func (i SmartIri) IsOntologyEntity() bool { return i.kind == kindOntology }

// IsVocab reports whether the IRI is a well-known vocabulary term (rdf,
// rdfs, owl or xsd).
func (i SmartIri) IsVocab() bool { return i.kind == kindVocab }

// IsData reports whether the IRI is a plain data IRI, such as the IRI of a
// stored resource.
func (i SmartIri) IsData() bool { return i.kind == kindData }

// ErrNotConfigured is returned when a Converter is used before it has been
// constructed with a valid configuration.
var ErrNotConfigured = errors.New("iri: converter is not configured")

// Converter parses raw IRI strings into SmartIri values and translates
// ontology-entity IRIs between schemas.
//
// A Converter must be created with NewConverter; the zero value returns
// ErrNotConfigured from all methods.
type Converter struct {
	apiHost string
}

// NewConverter returns a Converter for a server whose project ontologies are
// served under the given host, e.g. "0.0.0.0:3333". The built-in knora-api
// ontology is always recognized under api.knora.org.
func NewConverter(apiHost string) (*Converter, error) {
	if apiHost == "" {
		return nil, fmt.Errorf("iri: empty API host")
	}
	return &Converter{apiHost: apiHost}, nil
}

func (c *Converter) projectOntologyStart() string {
	return "http://" + c.apiHost + "/ontology/"
}

// Parse validates s and classifies it as an ontology entity, a vocabulary
// term or a data IRI.
func (c *Converter) Parse(s string) (SmartIri, error) {
	if c == nil || c.apiHost == "" {
		return SmartIri{}, ErrNotConfigured
	}
	if !strings.Contains(s, "://") {
		return SmartIri{}, fmt.Errorf("iri: not an absolute IRI: %q", s)
	}
	if strings.ContainsAny(s, " \t\n<>\"{}|\\^`") {
		return SmartIri{}, fmt.Errorf("iri: invalid characters in IRI: %q", s)
	}
	for _, ns := range []string{rdf.NS, rdfs.NS, owl.NS, xsd.NS} {
		if strings.HasPrefix(s, ns) {
			return SmartIri{full: s, kind: kindVocab}, nil
		}
	}
	switch {
	case strings.HasPrefix(s, knora.BaseNS):
		return c.makeEntity(s, "knora-base", strings.TrimPrefix(s, knora.BaseNS), SchemaInternal)
	case strings.HasPrefix(s, knora.APISimpleNS):
		return c.makeEntity(s, "knora-base", strings.TrimPrefix(s, knora.APISimpleNS), SchemaSimple)
	case strings.HasPrefix(s, knora.APINS):
		return c.makeEntity(s, "knora-base", strings.TrimPrefix(s, knora.APINS), SchemaComplex)
	case strings.HasPrefix(s, knora.InternalOntologyStart):
		rest := strings.TrimPrefix(s, knora.InternalOntologyStart)
		name, entity, ok := splitEntity(rest)
		if !ok {
			return SmartIri{}, fmt.Errorf("iri: invalid internal ontology IRI: %q", s)
		}
		return c.makeEntity(s, name, entity, SchemaInternal)
	case strings.HasPrefix(s, knora.ExternalOntologyStart), strings.HasPrefix(s, c.projectOntologyStart()):
		rest := strings.TrimPrefix(s, knora.ExternalOntologyStart)
		rest = strings.TrimPrefix(rest, c.projectOntologyStart())
		name, entity, ok := splitEntity(rest)
		if !ok {
			return SmartIri{}, fmt.Errorf("iri: invalid external ontology IRI: %q", s)
		}
		schema := SchemaComplex
		switch {
		case strings.HasSuffix(name, "/simple/v2"):
			schema = SchemaSimple
			name = strings.TrimSuffix(name, "/simple/v2")
		case strings.HasSuffix(name, "/v2"):
			name = strings.TrimSuffix(name, "/v2")
		default:
			return SmartIri{}, fmt.Errorf("iri: external ontology IRI has no schema segment: %q", s)
		}
		return c.makeEntity(s, name, entity, schema)
	}
	return SmartIri{full: s, kind: kindData}, nil
}

func (c *Converter) makeEntity(full, ontology, entity string, schema Schema) (SmartIri, error) {
	if !validEntityName(entity) {
		return SmartIri{}, fmt.Errorf("iri: invalid entity name in IRI: %q", full)
	}
	return SmartIri{
		full:     full,
		kind:     kindOntology,
		ontology: ontology,
		entity:   entity,
		schema:   schema,
	}, nil
}

// ToSchema translates an ontology-entity IRI into the target schema.
// Vocabulary terms and data IRIs are returned unchanged.
func (c *Converter) ToSchema(i SmartIri, target Schema) (SmartIri, error) {
	if c == nil || c.apiHost == "" {
		return SmartIri{}, ErrNotConfigured
	}
	if i.kind != kindOntology || i.schema == target {
		return i, nil
	}
	var full string
	switch target {
	case SchemaInternal:
		if i.ontology == "knora-base" {
			full = knora.BaseNS + i.entity
		} else {
			full = knora.InternalOntologyStart + i.ontology + "#" + i.entity
		}
	case SchemaComplex:
		if i.ontology == "knora-base" {
			full = knora.APINS + i.entity
		} else {
			full = c.projectOntologyStart() + i.ontology + "/v2#" + i.entity
		}
	case SchemaSimple:
		if i.ontology == "knora-base" {
			full = knora.APISimpleNS + i.entity
		} else {
			full = c.projectOntologyStart() + i.ontology + "/simple/v2#" + i.entity
		}
	default:
		return SmartIri{}, fmt.Errorf("iri: cannot translate %q to schema %v", i.full, target)
	}
	return SmartIri{
		full:     full,
		kind:     kindOntology,
		ontology: i.ontology,
		entity:   i.entity,
		schema:   target,
	}, nil
}

func splitEntity(rest string) (name, entity string, ok bool) {
	j := strings.IndexByte(rest, '#')
	if j <= 0 || j == len(rest)-1 {
		return "", "", false
	}
	return rest[:j], rest[j+1:], true
}

func validEntityName(s string) bool {
	if s == "" {
		return false
	}
	for k, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_':
		case k > 0 && (r >= '0' && r <= '9' || r == '-'):
		default:
			return false
		}
	}
	return true
}
