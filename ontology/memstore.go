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

package ontology

import (
	"context"
	"fmt"

	"github.com/cayleygraph/quad"

	"github.com/cayleygraph/gravsearch/iri"
	"github.com/cayleygraph/gravsearch/voc/knora"
	"github.com/cayleygraph/gravsearch/voc/owl"
	"github.com/cayleygraph/gravsearch/voc/rdf"
	"github.com/cayleygraph/gravsearch/voc/rdfs"
)

// MemStore is an in-memory Provider built from ontology quads in the
// internal schema. It understands rdfs:subClassOf and rdfs:subPropertyOf
// hierarchies, knora-base subject/object class constraints, and
// owl:Restriction cardinalities attached via blank nodes.
type MemStore struct {
	conv       *iri.Converter
	classes    map[quad.IRI]*classNode
	properties map[quad.IRI]*propertyNode

	// owl:Restriction blank nodes seen so far, linked to classes lazily.
	restrictions map[quad.BNode]*restriction
	restrictedBy map[quad.IRI][]quad.BNode
}

type classNode struct {
	name  quad.IRI
	super map[*classNode]struct{}
	sub   map[*classNode]struct{}
}

type propertyNode struct {
	name        quad.IRI
	super       map[*propertyNode]struct{}
	sub         map[*propertyNode]struct{}
	subjectType quad.IRI
	objectType  quad.IRI
}

type restriction struct {
	onProperty quad.IRI
	card       Cardinality
	hasCard    bool
}

// NewMemStore returns an empty store. Quads are added with ProcessQuad.
func NewMemStore(conv *iri.Converter) *MemStore {
	s := &MemStore{
		conv:         conv,
		classes:      map[quad.IRI]*classNode{},
		properties:   map[quad.IRI]*propertyNode{},
		restrictions: map[quad.BNode]*restriction{},
		restrictedBy: map[quad.IRI][]quad.BNode{},
	}
	for _, c := range []quad.IRI{knora.BaseResource, knora.BaseValue, knora.BaseStandoffTag} {
		s.addClass(c)
	}
	return s
}

func (s *MemStore) addClass(name quad.IRI) *classNode {
	if c, ok := s.classes[name]; ok {
		return c
	}
	c := &classNode{
		name:  name,
		super: map[*classNode]struct{}{},
		sub:   map[*classNode]struct{}{},
	}
	s.classes[name] = c
	return c
}

func (s *MemStore) addProperty(name quad.IRI) *propertyNode {
	if p, ok := s.properties[name]; ok {
		return p
	}
	p := &propertyNode{
		name:  name,
		super: map[*propertyNode]struct{}{},
		sub:   map[*propertyNode]struct{}{},
	}
	s.properties[name] = p
	return p
}

func (s *MemStore) restriction(b quad.BNode) *restriction {
	if r, ok := s.restrictions[b]; ok {
		return r
	}
	r := &restriction{}
	s.restrictions[b] = r
	return r
}

// ProcessQuad updates the store with one ontology quad.
func (s *MemStore) ProcessQuad(q quad.Quad) {
	pred, ok := q.Predicate.(quad.IRI)
	if !ok {
		return
	}
	switch string(pred) {
	case rdf.Type:
		obj, ok := q.Object.(quad.IRI)
		if !ok {
			return
		}
		subj, sok := q.Subject.(quad.IRI)
		switch string(obj) {
		case owl.Class, rdfs.Class:
			if sok {
				s.addClass(subj)
			}
		case owl.ObjectProperty, owl.DatatypeProperty, rdf.Property:
			if sok {
				s.addProperty(subj)
			}
		case owl.Restriction:
			if b, ok := q.Subject.(quad.BNode); ok {
				s.restriction(b)
			}
		}
	case rdfs.SubClassOf:
		subj, sok := q.Subject.(quad.IRI)
		if !sok {
			return
		}
		switch obj := q.Object.(type) {
		case quad.IRI:
			parent := s.addClass(obj)
			child := s.addClass(subj)
			parent.sub[child] = struct{}{}
			child.super[parent] = struct{}{}
		case quad.BNode:
			s.restriction(obj)
			s.restrictedBy[subj] = append(s.restrictedBy[subj], obj)
		}
	case rdfs.SubPropertyOf:
		subj, sok := q.Subject.(quad.IRI)
		obj, ook := q.Object.(quad.IRI)
		if !sok || !ook {
			return
		}
		parent := s.addProperty(obj)
		child := s.addProperty(subj)
		parent.sub[child] = struct{}{}
		child.super[parent] = struct{}{}
	case knora.BaseSubjectClassConstr:
		subj, sok := q.Subject.(quad.IRI)
		obj, ook := q.Object.(quad.IRI)
		if !sok || !ook {
			return
		}
		s.addProperty(subj).subjectType = obj
	case knora.BaseObjectClassConstr:
		subj, sok := q.Subject.(quad.IRI)
		obj, ook := q.Object.(quad.IRI)
		if !sok || !ook {
			return
		}
		s.addProperty(subj).objectType = obj
	case owl.OnProperty:
		b, bok := q.Subject.(quad.BNode)
		obj, ook := q.Object.(quad.IRI)
		if !bok || !ook {
			return
		}
		s.restriction(b).onProperty = obj
	case owl.Cardinality, owl.MinCardinality, owl.MaxCardinality:
		b, bok := q.Subject.(quad.BNode)
		if !bok {
			return
		}
		n, ok := cardinalityValue(q.Object)
		if !ok {
			return
		}
		r := s.restriction(b)
		r.hasCard = true
		switch string(pred) {
		case owl.Cardinality:
			r.card = Cardinality{Min: n, Max: n}
		case owl.MinCardinality:
			r.card = Cardinality{Min: n, Max: -1}
		case owl.MaxCardinality:
			r.card = Cardinality{Min: 0, Max: n}
		}
	}
}

func cardinalityValue(v quad.Value) (int, bool) {
	switch v := v.(type) {
	case quad.Int:
		return int(v), true
	case quad.TypedString:
		var n int
		if _, err := fmt.Sscanf(string(v.Value), "%d", &n); err == nil {
			return n, true
		}
	}
	return 0, false
}

// ProcessQuads updates the store with multiple ontology quads.
func (s *MemStore) ProcessQuads(quads []quad.Quad) {
	for _, q := range quads {
		s.ProcessQuad(q)
	}
}

func (c *classNode) isSubClassOf(name quad.IRI) bool {
	if c.name == name {
		return true
	}
	for super := range c.super {
		if super.isSubClassOf(name) {
			return true
		}
	}
	return false
}

func (c *classNode) collectSub(out map[quad.IRI]struct{}) {
	for sub := range c.sub {
		if _, seen := out[sub.name]; seen {
			continue
		}
		out[sub.name] = struct{}{}
		sub.collectSub(out)
	}
}

func (p *propertyNode) collectSub(out map[quad.IRI]struct{}) {
	for sub := range p.sub {
		if _, seen := out[sub.name]; seen {
			continue
		}
		out[sub.name] = struct{}{}
		sub.collectSub(out)
	}
}

// Metadata implements Provider. Unknown entities are simply absent from the
// result.
func (s *MemStore) Metadata(_ context.Context, req Request) (Metadata, error) {
	out := Metadata{
		Classes:    map[string]Class{},
		Properties: map[string]Property{},
	}
	for _, ci := range req.Classes {
		internal, err := s.conv.ToSchema(ci, iri.SchemaInternal)
		if err != nil {
			return Metadata{}, err
		}
		node, ok := s.classes[internal.Quad()]
		if !ok {
			continue
		}
		c, err := s.classMeta(node, req.Schema)
		if err != nil {
			return Metadata{}, err
		}
		out.Classes[c.Iri.String()] = c
	}
	for _, pi := range req.Properties {
		internal, err := s.conv.ToSchema(pi, iri.SchemaInternal)
		if err != nil {
			return Metadata{}, err
		}
		node, ok := s.properties[internal.Quad()]
		if !ok {
			continue
		}
		p, err := s.propertyMeta(node, req.Schema)
		if err != nil {
			return Metadata{}, err
		}
		out.Properties[p.Iri.String()] = p
	}
	return out, nil
}

func (s *MemStore) classMeta(node *classNode, schema iri.Schema) (Class, error) {
	self, err := s.translate(node.name, schema)
	if err != nil {
		return Class{}, err
	}
	c := Class{
		Iri:           self,
		IsResource:    node.isSubClassOf(knora.BaseResource),
		IsValue:       node.isSubClassOf(knora.BaseValue),
		IsStandoff:    node.isSubClassOf(knora.BaseStandoffTag),
		Cardinalities: map[string]Cardinality{},
	}
	subs := map[quad.IRI]struct{}{}
	node.collectSub(subs)
	for name := range subs {
		si, err := s.translate(name, schema)
		if err != nil {
			return Class{}, err
		}
		c.SubClasses = append(c.SubClasses, si)
	}
	sortIris(c.SubClasses)
	for _, b := range s.restrictedBy[node.name] {
		r := s.restrictions[b]
		if r.onProperty == "" || !r.hasCard {
			continue
		}
		pi, err := s.translate(r.onProperty, schema)
		if err != nil {
			return Class{}, err
		}
		c.Cardinalities[pi.String()] = r.card
	}
	return c, nil
}

func (s *MemStore) propertyMeta(node *propertyNode, schema iri.Schema) (Property, error) {
	self, err := s.translate(node.name, schema)
	if err != nil {
		return Property{}, err
	}
	p := Property{Iri: self}
	if node.subjectType != "" {
		p.SubjectType, err = s.translate(node.subjectType, schema)
		if err != nil {
			return Property{}, err
		}
		if subj, ok := s.classes[node.subjectType]; ok {
			p.SubjectIsResource = subj.isSubClassOf(knora.BaseResource)
		}
	}
	if node.objectType != "" {
		p.ObjectType, err = s.translate(node.objectType, schema)
		if err != nil {
			return Property{}, err
		}
		if obj, ok := s.classes[node.objectType]; ok {
			p.IsLink = obj.isSubClassOf(knora.BaseResource)
			p.IsValueProp = obj.isSubClassOf(knora.BaseValue)
		}
	}
	subs := map[quad.IRI]struct{}{}
	node.collectSub(subs)
	for name := range subs {
		si, err := s.translate(name, schema)
		if err != nil {
			return Property{}, err
		}
		p.SubProperties = append(p.SubProperties, si)
	}
	sortIris(p.SubProperties)
	return p, nil
}

func (s *MemStore) translate(name quad.IRI, schema iri.Schema) (iri.SmartIri, error) {
	parsed, err := s.conv.Parse(string(name))
	if err != nil {
		return iri.SmartIri{}, err
	}
	if schema == iri.SchemaNone {
		return parsed, nil
	}
	return s.conv.ToSchema(parsed, schema)
}
