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

// Package transform rewrites the WHERE clause of a typed Gravsearch query
// into a form that is safe and efficient to execute against a triplestore
// without RDFS reasoning.
//
// Class and property references are expanded into unions covering their
// known subclasses and subproperties, full-text search pseudo-patterns are
// lowered to the store-native text-search predicate, and each pattern list
// is reordered so that cheap, highly selective patterns run first.
//
// The transformer assumes the query has already passed type inspection and
// performs no type checking of its own.
package transform

import (
	"context"
	"errors"
	"fmt"

	"github.com/cayleygraph/quad"

	"github.com/cayleygraph/gravsearch/clog"
	"github.com/cayleygraph/gravsearch/iri"
	"github.com/cayleygraph/gravsearch/ontology"
	"github.com/cayleygraph/gravsearch/sparql"
	"github.com/cayleygraph/gravsearch/voc/knora"
	"github.com/cayleygraph/gravsearch/voc/rdf"
	"github.com/cayleygraph/gravsearch/voc/xsd"
)

// Phase tags the position of a transformer in the query pipeline.
type Phase int

const (
	// PhaseLowering runs before inference expansion: full-text search
	// patterns are still legal and are lowered to statement patterns.
	PhaseLowering Phase = iota
	// PhaseExpansion runs after lowering: a surviving full-text search
	// pattern indicates a pipeline-ordering bug.
	PhaseExpansion
)

func (p Phase) String() string {
	if p == PhaseLowering {
		return "lowering"
	}
	return "expansion"
}

// ErrUnexpectedLucene indicates that a full-text search pattern reached a
// transformer stage that requires it to have been lowered already. This is
// an internal pipeline-ordering bug, not a user input error.
var ErrUnexpectedLucene = errors.New("transform: full-text search pattern after the lowering phase")

// Transformer rewrites query pattern trees. It is safe for concurrent use;
// every Transform call operates on its own inputs and produces a new tree.
type Transformer struct {
	conv     *iri.Converter
	prov     ontology.Provider
	phase    Phase
	restrict map[string]struct{}
}

// NewTransformer returns a Transformer for the given phase. If restrict is
// non-empty, inference simulation only expands into subclasses and
// subproperties belonging to the named ontologies (internal names, e.g.
// "0001/anything"); the exact entity named by a pattern is always kept.
func NewTransformer(conv *iri.Converter, prov ontology.Provider, phase Phase, restrict []string) *Transformer {
	t := &Transformer{conv: conv, prov: prov, phase: phase}
	if len(restrict) > 0 {
		t.restrict = make(map[string]struct{}, len(restrict))
		for _, name := range restrict {
			t.restrict[name] = struct{}{}
		}
	}
	return t
}

// Transform rewrites the query's WHERE clause. The input tree is not
// modified.
func (t *Transformer) Transform(ctx context.Context, q *sparql.ConstructQuery) (*sparql.ConstructQuery, error) {
	meta, err := t.fetchMetadata(ctx, q.Where)
	if err != nil {
		return nil, err
	}
	where, err := t.transformPatterns(meta, q.Where)
	if err != nil {
		return nil, err
	}
	out := *q
	out.Where = where
	if clog.V(2) {
		clog.Infof("transform: %s phase rewrote %d top-level pattern(s) into %d", t.phase, len(q.Where), len(where))
	}
	return &out, nil
}

// fetchMetadata asks the provider about every class and property the WHERE
// clause mentions, once per transformation. The rewriting itself is pure.
func (t *Transformer) fetchMetadata(ctx context.Context, where []sparql.Pattern) (ontology.Metadata, error) {
	req := ontology.Request{Schema: iri.SchemaComplex}
	seen := map[string]struct{}{}
	for _, st := range sparql.Statements(where) {
		pred, ok := st.Predicate.(sparql.IriRef)
		if !ok {
			continue
		}
		if pred.Iri.String() == rdf.Type {
			obj, ok := st.Object.(sparql.IriRef)
			if !ok || !obj.Iri.IsOntologyEntity() {
				continue
			}
			norm, err := t.conv.ToSchema(obj.Iri, iri.SchemaComplex)
			if err != nil {
				return ontology.Metadata{}, err
			}
			if _, dup := seen[norm.String()]; !dup {
				seen[norm.String()] = struct{}{}
				req.Classes = append(req.Classes, norm)
			}
			continue
		}
		if !pred.Iri.IsOntologyEntity() {
			continue
		}
		norm, err := t.conv.ToSchema(pred.Iri, iri.SchemaComplex)
		if err != nil {
			return ontology.Metadata{}, err
		}
		if _, dup := seen[norm.String()]; !dup {
			seen[norm.String()] = struct{}{}
			req.Properties = append(req.Properties, norm)
		}
	}
	return t.prov.Metadata(ctx, req)
}

func (t *Transformer) transformPatterns(meta ontology.Metadata, patterns []sparql.Pattern) ([]sparql.Pattern, error) {
	ps := Optimize(patterns)
	out := make([]sparql.Pattern, 0, len(ps))
	for _, p := range ps {
		switch p := p.(type) {
		case sparql.StatementPattern:
			expanded, err := t.expandStatement(meta, p)
			if err != nil {
				return nil, err
			}
			out = append(out, expanded)
		case sparql.LucenePattern:
			if t.phase == PhaseExpansion {
				return nil, fmt.Errorf("%w: subject %s, query %q", ErrUnexpectedLucene, p.Subject, p.Query)
			}
			lowered, err := t.lowerLucene(p)
			if err != nil {
				return nil, err
			}
			out = append(out, lowered)
		case sparql.FilterNotExistsPattern:
			nested, err := t.transformPatterns(meta, p.Patterns)
			if err != nil {
				return nil, err
			}
			out = append(out, sparql.FilterNotExistsPattern{Patterns: nested})
		case sparql.MinusPattern:
			nested, err := t.transformPatterns(meta, p.Patterns)
			if err != nil {
				return nil, err
			}
			out = append(out, sparql.MinusPattern{Patterns: nested})
		case sparql.OptionalPattern:
			nested, err := t.transformPatterns(meta, p.Patterns)
			if err != nil {
				return nil, err
			}
			out = append(out, sparql.OptionalPattern{Patterns: nested})
		case sparql.UnionPattern:
			// Branches are independent sub-queries: each one goes
			// through the same optimization and expansion on its own.
			u := sparql.UnionPattern{Blocks: make([][]sparql.Pattern, 0, len(p.Blocks))}
			for _, b := range p.Blocks {
				nested, err := t.transformPatterns(meta, b)
				if err != nil {
					return nil, err
				}
				u.Blocks = append(u.Blocks, nested)
			}
			out = append(out, u)
		default:
			out = append(out, p)
		}
	}
	return out, nil
}

// expandStatement simulates RDFS inference for one statement pattern: if the
// predicate has known subproperties, or the pattern is an rdf:type statement
// whose object has known subclasses, the statement becomes a union covering
// the named entity and each subtype.
func (t *Transformer) expandStatement(meta ontology.Metadata, st sparql.StatementPattern) (sparql.Pattern, error) {
	predAlts := []sparql.Entity{st.Predicate}
	objAlts := []sparql.Entity{st.Object}

	if pred, ok := st.Predicate.(sparql.IriRef); ok {
		switch {
		case pred.Iri.String() == rdf.Type:
			if obj, ok := st.Object.(sparql.IriRef); ok && obj.Iri.IsOntologyEntity() {
				norm, err := t.conv.ToSchema(obj.Iri, iri.SchemaComplex)
				if err != nil {
					return nil, err
				}
				if class, found := meta.Class(norm); found {
					for _, sub := range class.SubClasses {
						if t.allowed(sub) {
							objAlts = append(objAlts, sparql.IriRef{Iri: sub})
						}
					}
				}
			}
		case pred.Iri.IsOntologyEntity():
			norm, err := t.conv.ToSchema(pred.Iri, iri.SchemaComplex)
			if err != nil {
				return nil, err
			}
			if prop, found := meta.Property(norm); found {
				for _, sub := range prop.SubProperties {
					if t.allowed(sub) {
						predAlts = append(predAlts, sparql.IriRef{Iri: sub})
					}
				}
			}
		}
	}

	if len(predAlts) == 1 && len(objAlts) == 1 {
		return st, nil
	}
	u := sparql.UnionPattern{}
	for _, pa := range predAlts {
		for _, oa := range objAlts {
			u.Blocks = append(u.Blocks, []sparql.Pattern{
				sparql.StatementPattern{Subject: st.Subject, Predicate: pa, Object: oa},
			})
		}
	}
	return u, nil
}

func (t *Transformer) allowed(entity iri.SmartIri) bool {
	if t.restrict == nil {
		return true
	}
	_, ok := t.restrict[entity.Ontology()]
	return ok
}

// lowerLucene rewrites a full-text search pseudo-pattern into a statement
// against the store-native text-search predicate.
func (t *Transformer) lowerLucene(p sparql.LucenePattern) (sparql.StatementPattern, error) {
	pred, err := t.conv.Parse(knora.TextIndexPred)
	if err != nil {
		return sparql.StatementPattern{}, err
	}
	return sparql.StatementPattern{
		Subject:   p.Subject,
		Predicate: sparql.IriRef{Iri: pred},
		Object:    sparql.Literal{Value: p.Query, Datatype: quad.IRI(xsd.String)},
	}, nil
}
