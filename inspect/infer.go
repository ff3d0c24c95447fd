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
	"sort"

	"github.com/cayleygraph/gravsearch/clog"
	"github.com/cayleygraph/gravsearch/iri"
	"github.com/cayleygraph/gravsearch/ontology"
	"github.com/cayleygraph/gravsearch/sparql"
	"github.com/cayleygraph/gravsearch/voc/knora"
	"github.com/cayleygraph/gravsearch/voc/rdf"
)

// InferenceInspector is the ontology-driven inspector stage. It applies an
// ordered list of inference rules to every entity it has not typed yet,
// iterating to a fixpoint: each round may use types found in earlier rounds
// as additional evidence, and the loop stops as soon as a round produces no
// new assignment. Growth is monotonic, so the loop terminates after at most
// one round per entity.
type InferenceInspector struct {
	conv *iri.Converter
	prov ontology.Provider
}

// NewInferenceInspector returns the ontology-driven inspector stage.
func NewInferenceInspector(conv *iri.Converter, prov ontology.Provider) *InferenceInspector {
	return &InferenceInspector{conv: conv, prov: prov}
}

// Name implements Inspector.
func (in *InferenceInspector) Name() string { return "inference" }

// ruleContext is the evidence available to inference rules during one round.
type ruleContext struct {
	conv     *iri.Converter
	index    *UsageIndex
	meta     ontology.Metadata
	types    IntermediateResult
	resource iri.SmartIri // knora-api:Resource
}

// An inferenceRule tries to determine types for one entity from the current
// evidence. Rules are tried in declared order; the first rule that returns a
// non-empty set wins for that entity.
type inferenceRule struct {
	name  string
	apply func(rc *ruleContext, e TypeableEntity) []TypeInfo
}

var inferenceRules = []inferenceRule{
	{"type-of-subject-of-rdf-type", inferFromRdfType},
	{"type-of-class-from-iri", inferClassFromIri},
	{"type-of-property-from-iri", inferPropertyFromIri},
	{"type-of-object-from-predicate", inferObjectFromPredicate},
	{"type-of-subject-from-predicate", inferSubjectFromPredicate},
	{"type-of-predicate-from-object", inferPredicateFromObject},
	{"type-from-filter-comparison", inferFromComparison},
}

// Inspect implements Inspector.
func (in *InferenceInspector) Inspect(ctx context.Context, prev IntermediateResult, q *sparql.ConstructQuery) (IntermediateResult, error) {
	result := prev
	resource, err := in.conv.Parse(knora.Resource)
	if err != nil {
		return prev, err
	}
	// Entities this stage has already drawn a conclusion for. An entity is
	// inferred at most once; later rounds only handle the remainder, which
	// bounds the loop by the number of entities.
	inferred := map[TypeableEntity]struct{}{}
	for round := 0; ; round++ {
		index, err := NewUsageIndex(q.Where, in.conv)
		if err != nil {
			return prev, err
		}
		meta, err := in.fetchMetadata(ctx, index)
		if err != nil {
			return prev, err
		}
		rc := &ruleContext{conv: in.conv, index: index, meta: meta, types: result, resource: resource}
		changed := 0
		for _, e := range index.Entities() {
			if _, done := inferred[e]; done {
				continue
			}
			for _, rule := range inferenceRules {
				types := rule.apply(rc, e)
				if len(types) == 0 {
					continue
				}
				result = result.WithTypes(e, types...)
				rc.types = result
				inferred[e] = struct{}{}
				changed++
				if clog.V(2) {
					clog.Infof("inference round %d: %s determined %d type(s) for %s", round, rule.name, len(types), e)
				}
				break
			}
		}
		if changed == 0 {
			return result, nil
		}
	}
}

// fetchMetadata asks the ontology provider about every class and property
// the index mentions. A provider failure aborts the whole inspection.
func (in *InferenceInspector) fetchMetadata(ctx context.Context, index *UsageIndex) (ontology.Metadata, error) {
	req := ontology.Request{Schema: iri.SchemaComplex}
	for _, c := range index.Classes {
		req.Classes = append(req.Classes, c)
	}
	for _, p := range index.Properties {
		req.Properties = append(req.Properties, p)
	}
	sort.Slice(req.Classes, func(i, j int) bool { return req.Classes[i].String() < req.Classes[j].String() })
	sort.Slice(req.Properties, func(i, j int) bool { return req.Properties[i].String() < req.Properties[j].String() })
	return in.prov.Metadata(ctx, req)
}

// inferFromRdfType types an entity that is the subject of an rdf:type
// statement whose object is a known class. Resource classes are normalized
// to knora-api:Resource.
func inferFromRdfType(rc *ruleContext, e TypeableEntity) []TypeInfo {
	set := newTypeSet()
	for _, st := range rc.index.SubjectOf[e] {
		pred, ok := st.Predicate.(sparql.IriRef)
		if !ok || pred.Iri.String() != rdf.Type {
			continue
		}
		obj, ok := st.Object.(sparql.IriRef)
		if !ok || !obj.Iri.IsOntologyEntity() {
			continue
		}
		norm, err := rc.conv.ToSchema(obj.Iri, iri.SchemaComplex)
		if err != nil {
			continue
		}
		class, ok := rc.meta.Class(norm)
		if !ok {
			continue
		}
		set.add(rc.classType(class))
	}
	return set.list()
}

// inferClassFromIri types an IRI entity that is a known class as that class
// itself, e.g. the object of an rdf:type statement.
func inferClassFromIri(rc *ruleContext, e TypeableEntity) []TypeInfo {
	if e.Kind != KindIri {
		return nil
	}
	class, ok := rc.meta.Classes[e.Name]
	if !ok {
		return nil
	}
	return []TypeInfo{rc.classType(class)}
}

// inferPropertyFromIri types an IRI entity that is a known property from its
// declared object type.
func inferPropertyFromIri(rc *ruleContext, e TypeableEntity) []TypeInfo {
	if e.Kind != KindIri {
		return nil
	}
	prop, ok := rc.meta.Properties[e.Name]
	if !ok {
		return nil
	}
	t, ok := rc.propertyType(prop)
	if !ok {
		return nil
	}
	return []TypeInfo{t}
}

// inferObjectFromPredicate types an entity from the object type of the
// predicates it is the object of. The predicate's type may be declared in
// the ontology or already inferred for a predicate variable.
func inferObjectFromPredicate(rc *ruleContext, e TypeableEntity) []TypeInfo {
	set := newTypeSet()
	for _, st := range rc.index.ObjectOf[e] {
		for _, pt := range rc.predicateTypes(st.Predicate) {
			set.add(NonPropertyTypeInfo{Type: pt.ObjectType, IsResource: pt.ObjectIsResource})
		}
	}
	return set.list()
}

// inferSubjectFromPredicate types an entity from the declared subject type
// of the predicates it is the subject of.
func inferSubjectFromPredicate(rc *ruleContext, e TypeableEntity) []TypeInfo {
	set := newTypeSet()
	for _, st := range rc.index.SubjectOf[e] {
		pred, ok := st.Predicate.(sparql.IriRef)
		if !ok || !pred.Iri.IsOntologyEntity() {
			continue
		}
		norm, err := rc.conv.ToSchema(pred.Iri, iri.SchemaComplex)
		if err != nil {
			continue
		}
		prop, ok := rc.meta.Property(norm)
		if !ok || prop.SubjectType == (iri.SmartIri{}) {
			continue
		}
		if prop.SubjectIsResource {
			set.add(NonPropertyTypeInfo{Type: rc.resource, IsResource: true})
		} else {
			set.add(NonPropertyTypeInfo{Type: prop.SubjectType})
		}
	}
	return set.list()
}

// inferPredicateFromObject types a predicate variable from the types already
// known for its objects.
func inferPredicateFromObject(rc *ruleContext, e TypeableEntity) []TypeInfo {
	set := newTypeSet()
	for _, st := range rc.index.PredicateOf[e] {
		switch obj := st.Object.(type) {
		case sparql.Literal:
			if dt, err := rc.conv.Parse(string(obj.Datatype)); err == nil {
				set.add(PropertyTypeInfo{ObjectType: dt})
			}
		default:
			objEntity, ok, err := typeable(rc.conv, st.Object)
			if err != nil || !ok {
				continue
			}
			for _, t := range rc.types.Types(objEntity) {
				if npt, ok := t.(NonPropertyTypeInfo); ok {
					set.add(PropertyTypeInfo{ObjectType: npt.Type, ObjectIsResource: npt.IsResource})
				}
			}
		}
	}
	return set.list()
}

// inferFromComparison types a variable compared against IRIs in a FILTER: a
// known property yields its property type, a known class yields that class,
// and a plain data IRI marks the variable as a resource.
func inferFromComparison(rc *ruleContext, e TypeableEntity) []TypeInfo {
	set := newTypeSet()
	for _, compared := range rc.index.ComparedIris[e] {
		if compared.IsData() {
			set.add(NonPropertyTypeInfo{Type: rc.resource, IsResource: true})
			continue
		}
		if !compared.IsOntologyEntity() {
			continue
		}
		norm, err := rc.conv.ToSchema(compared, iri.SchemaComplex)
		if err != nil {
			continue
		}
		if prop, ok := rc.meta.Property(norm); ok {
			if t, ok := rc.propertyType(prop); ok {
				set.add(t)
			}
			continue
		}
		if class, ok := rc.meta.Class(norm); ok {
			set.add(rc.classType(class))
		}
	}
	return set.list()
}

func (rc *ruleContext) classType(class ontology.Class) TypeInfo {
	if class.IsResource {
		return NonPropertyTypeInfo{Type: rc.resource, IsResource: true}
	}
	return NonPropertyTypeInfo{Type: class.Iri}
}

func (rc *ruleContext) propertyType(prop ontology.Property) (TypeInfo, bool) {
	if prop.ObjectType == (iri.SmartIri{}) {
		return nil, false
	}
	if prop.IsLink {
		return PropertyTypeInfo{ObjectType: rc.resource, ObjectIsResource: true}, true
	}
	return PropertyTypeInfo{ObjectType: prop.ObjectType}, true
}

// predicateTypes returns the known property types of a predicate term,
// either declared in the ontology for a predicate IRI or inferred earlier
// for a predicate variable.
func (rc *ruleContext) predicateTypes(pred sparql.Entity) []PropertyTypeInfo {
	switch pred := pred.(type) {
	case sparql.IriRef:
		if !pred.Iri.IsOntologyEntity() {
			return nil
		}
		norm, err := rc.conv.ToSchema(pred.Iri, iri.SchemaComplex)
		if err != nil {
			return nil
		}
		prop, ok := rc.meta.Property(norm)
		if !ok {
			return nil
		}
		if t, ok := rc.propertyType(prop); ok {
			return []PropertyTypeInfo{t.(PropertyTypeInfo)}
		}
	case sparql.Var:
		e := TypeableEntity{Kind: KindVariable, Name: pred.Name}
		var out []PropertyTypeInfo
		for _, t := range rc.types.Types(e) {
			if pt, ok := t.(PropertyTypeInfo); ok {
				out = append(out, pt)
			}
		}
		return out
	}
	return nil
}

// typeSet deduplicates findings within one rule application.
type typeSet struct {
	set map[TypeInfo]struct{}
}

func newTypeSet() *typeSet {
	return &typeSet{set: map[TypeInfo]struct{}{}}
}

func (s *typeSet) add(t TypeInfo) {
	s.set[t] = struct{}{}
}

func (s *typeSet) list() []TypeInfo {
	if len(s.set) == 0 {
		return nil
	}
	out := make([]TypeInfo, 0, len(s.set))
	for t := range s.set {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}
