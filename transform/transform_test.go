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

package transform

import (
	"context"
	"errors"
	"testing"

	"github.com/cayleygraph/quad"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cayleygraph/gravsearch/iri"
	"github.com/cayleygraph/gravsearch/ontology"
	"github.com/cayleygraph/gravsearch/sparql"
	"github.com/cayleygraph/gravsearch/voc/knora"
	"github.com/cayleygraph/gravsearch/voc/owl"
	"github.com/cayleygraph/gravsearch/voc/rdf"
	"github.com/cayleygraph/gravsearch/voc/rdfs"
	"github.com/cayleygraph/gravsearch/voc/xsd"
)

const (
	testHost   = "0.0.0.0:3333"
	anythingNS = "http://www.knora.org/ontology/0001/anything#"

	complexNS    = "http://" + testHost + "/ontology/0001/anything/v2#"
	complexThing = complexNS + "Thing"
	complexBlue  = complexNS + "BlueThing"
	complexText  = complexNS + "hasText"
	complexBText = complexNS + "hasBlueText"
)

func testConverter(t testing.TB) *iri.Converter {
	conv, err := iri.NewConverter(testHost)
	require.NoError(t, err)
	return conv
}

func testStore(t testing.TB, conv *iri.Converter) *ontology.MemStore {
	iq := func(s, p, o string) quad.Quad {
		return quad.Quad{Subject: quad.IRI(s), Predicate: quad.IRI(p), Object: quad.IRI(o)}
	}
	s := ontology.NewMemStore(conv)
	s.ProcessQuads([]quad.Quad{
		iq(anythingNS+"Thing", rdf.Type, owl.Class),
		iq(anythingNS+"Thing", rdfs.SubClassOf, knora.BaseResource),
		iq(anythingNS+"BlueThing", rdfs.SubClassOf, anythingNS+"Thing"),
		iq(anythingNS+"hasText", rdf.Type, owl.ObjectProperty),
		iq(anythingNS+"hasBlueText", rdfs.SubPropertyOf, anythingNS+"hasText"),
	})
	return s
}

func ref(t testing.TB, conv *iri.Converter, s string) sparql.IriRef {
	t.Helper()
	parsed, err := conv.Parse(s)
	require.NoError(t, err)
	return sparql.IriRef{Iri: parsed}
}

func TestOptimizeOrdering(t *testing.T) {
	conv := testConverter(t)
	st := sparql.StatementPattern{Subject: sparql.Var{Name: "x"}, Predicate: ref(t, conv, complexText), Object: sparql.Var{Name: "t"}}
	bind := sparql.BindPattern{Var: sparql.Var{Name: "n"}, Expression: sparql.Literal{Value: "1", Datatype: quad.IRI("http://www.w3.org/2001/XMLSchema#integer")}}
	lucene := sparql.LucenePattern{Subject: sparql.Var{Name: "t"}, Query: "Reise Land"}
	filter := sparql.FilterPattern{Expression: sparql.Compare{Left: sparql.Var{Name: "n"}, Op: sparql.OpGt, Right: sparql.Var{Name: "t"}}}

	got := Optimize([]sparql.Pattern{st, filter, bind, lucene})
	want := []sparql.Pattern{lucene, bind, st, filter}
	assert.Equal(t, want, got)

	// A second pass changes nothing.
	assert.Equal(t, want, Optimize(got))
}

func TestOptimizeKeepsOrderWithoutSpecialPatterns(t *testing.T) {
	conv := testConverter(t)
	a := sparql.StatementPattern{Subject: sparql.Var{Name: "a"}, Predicate: ref(t, conv, complexText), Object: sparql.Var{Name: "b"}}
	b := sparql.StatementPattern{Subject: sparql.Var{Name: "b"}, Predicate: ref(t, conv, complexText), Object: sparql.Var{Name: "c"}}
	in := []sparql.Pattern{a, b}
	assert.Equal(t, in, Optimize(in))
}

func TestOptimizeCollapsesIsDeleted(t *testing.T) {
	conv := testConverter(t)
	isDeleted := ref(t, conv, knora.IsDeleted)
	where := []sparql.Pattern{
		sparql.StatementPattern{Subject: sparql.Var{Name: "x"}, Predicate: isDeleted, Object: sparql.Var{Name: "d"}},
		sparql.FilterPattern{Expression: sparql.Compare{
			Left: sparql.Var{Name: "d"}, Op: sparql.OpEq,
			Right: sparql.Literal{Value: "false", Datatype: quad.IRI(xsd.Boolean)},
		}},
	}

	got := Optimize(where)
	require.Len(t, got, 1)
	assert.Equal(t, sparql.FilterNotExistsPattern{Patterns: []sparql.Pattern{
		sparql.StatementPattern{
			Subject:   sparql.Var{Name: "x"},
			Predicate: isDeleted,
			Object:    sparql.Literal{Value: "true", Datatype: quad.IRI(xsd.Boolean)},
		},
	}}, got[0])
}

func TestOptimizeCollapsesDecodedIsDeleted(t *testing.T) {
	conv := testConverter(t)
	isDeleted := ref(t, conv, knora.IsDeleted)
	// Decoded queries carry the absolute boolean datatype IRI.
	where := []sparql.Pattern{
		sparql.StatementPattern{Subject: sparql.Var{Name: "x"}, Predicate: isDeleted, Object: sparql.Var{Name: "d"}},
		sparql.FilterPattern{Expression: sparql.Compare{
			Left: sparql.Var{Name: "d"}, Op: sparql.OpEq,
			Right: sparql.Literal{Value: "false", Datatype: quad.IRI("http://www.w3.org/2001/XMLSchema#boolean")},
		}},
	}

	got := Optimize(where)
	require.Len(t, got, 1)
	_, collapsed := got[0].(sparql.FilterNotExistsPattern)
	assert.True(t, collapsed)
}

func TestOptimizeKeepsUnrelatedIsDeleted(t *testing.T) {
	conv := testConverter(t)
	isDeleted := ref(t, conv, knora.IsDeleted)
	// The filter checks a different variable, so nothing collapses.
	where := []sparql.Pattern{
		sparql.StatementPattern{Subject: sparql.Var{Name: "x"}, Predicate: isDeleted, Object: sparql.Var{Name: "d"}},
		sparql.FilterPattern{Expression: sparql.Compare{
			Left: sparql.Var{Name: "other"}, Op: sparql.OpEq,
			Right: sparql.Literal{Value: "false", Datatype: quad.IRI(xsd.Boolean)},
		}},
	}
	assert.Equal(t, where, Optimize(where))
}

func TestTransformExpandsSubclasses(t *testing.T) {
	conv := testConverter(t)
	thing := ref(t, conv, complexThing)
	rdfType := ref(t, conv, rdf.Type)
	q := &sparql.ConstructQuery{Where: []sparql.Pattern{
		sparql.StatementPattern{Subject: sparql.Var{Name: "x"}, Predicate: rdfType, Object: thing},
	}}

	tr := NewTransformer(conv, testStore(t, conv), PhaseLowering, nil)
	got, err := tr.Transform(context.Background(), q)
	require.NoError(t, err)
	require.Len(t, got.Where, 1)

	blue, err := conv.Parse(complexBlue)
	require.NoError(t, err)
	assert.Equal(t, sparql.UnionPattern{Blocks: [][]sparql.Pattern{
		{sparql.StatementPattern{Subject: sparql.Var{Name: "x"}, Predicate: rdfType, Object: thing}},
		{sparql.StatementPattern{Subject: sparql.Var{Name: "x"}, Predicate: rdfType, Object: sparql.IriRef{Iri: blue}}},
	}}, got.Where[0])
}

func TestTransformExpandsSubproperties(t *testing.T) {
	conv := testConverter(t)
	hasText := ref(t, conv, complexText)
	q := &sparql.ConstructQuery{Where: []sparql.Pattern{
		sparql.StatementPattern{Subject: sparql.Var{Name: "x"}, Predicate: hasText, Object: sparql.Var{Name: "t"}},
	}}

	tr := NewTransformer(conv, testStore(t, conv), PhaseLowering, nil)
	got, err := tr.Transform(context.Background(), q)
	require.NoError(t, err)
	require.Len(t, got.Where, 1)

	blueText, err := conv.Parse(complexBText)
	require.NoError(t, err)
	assert.Equal(t, sparql.UnionPattern{Blocks: [][]sparql.Pattern{
		{sparql.StatementPattern{Subject: sparql.Var{Name: "x"}, Predicate: hasText, Object: sparql.Var{Name: "t"}}},
		{sparql.StatementPattern{Subject: sparql.Var{Name: "x"}, Predicate: sparql.IriRef{Iri: blueText}, Object: sparql.Var{Name: "t"}}},
	}}, got.Where[0])
}

func TestTransformRestrictsExpansion(t *testing.T) {
	conv := testConverter(t)
	thing := ref(t, conv, complexThing)
	rdfType := ref(t, conv, rdf.Type)
	st := sparql.StatementPattern{Subject: sparql.Var{Name: "x"}, Predicate: rdfType, Object: thing}
	q := &sparql.ConstructQuery{Where: []sparql.Pattern{st}}

	// The only subclass lives in 0001/anything; restricting to knora-base
	// leaves the statement unexpanded.
	tr := NewTransformer(conv, testStore(t, conv), PhaseLowering, []string{"knora-base"})
	got, err := tr.Transform(context.Background(), q)
	require.NoError(t, err)
	require.Len(t, got.Where, 1)
	assert.Equal(t, st, got.Where[0])

	// Restricting to the ontology that declares the subclass expands again.
	tr = NewTransformer(conv, testStore(t, conv), PhaseLowering, []string{"0001/anything"})
	got, err = tr.Transform(context.Background(), q)
	require.NoError(t, err)
	_, isUnion := got.Where[0].(sparql.UnionPattern)
	assert.True(t, isUnion)
}

func TestTransformLowersLucene(t *testing.T) {
	conv := testConverter(t)
	st := sparql.StatementPattern{Subject: sparql.Var{Name: "x"}, Predicate: sparql.Var{Name: "p"}, Object: sparql.Var{Name: "t"}}
	q := &sparql.ConstructQuery{Where: []sparql.Pattern{
		st,
		sparql.LucenePattern{Subject: sparql.Var{Name: "t"}, Query: "Reise Land"},
	}}

	tr := NewTransformer(conv, testStore(t, conv), PhaseLowering, nil)
	got, err := tr.Transform(context.Background(), q)
	require.NoError(t, err)
	require.Len(t, got.Where, 2)

	// The full-text pattern runs first and is lowered to the store-native
	// text-index predicate.
	textIndex, err := conv.Parse(knora.TextIndexPred)
	require.NoError(t, err)
	assert.Equal(t, sparql.StatementPattern{
		Subject:   sparql.Var{Name: "t"},
		Predicate: sparql.IriRef{Iri: textIndex},
		Object:    sparql.Literal{Value: "Reise Land", Datatype: quad.IRI("http://www.w3.org/2001/XMLSchema#string")},
	}, got.Where[0])
	assert.Equal(t, st, got.Where[1])
}

func TestTransformExpansionPhaseRejectsLucene(t *testing.T) {
	conv := testConverter(t)
	q := &sparql.ConstructQuery{Where: []sparql.Pattern{
		sparql.LucenePattern{Subject: sparql.Var{Name: "t"}, Query: "Reise Land"},
	}}

	tr := NewTransformer(conv, testStore(t, conv), PhaseExpansion, nil)
	_, err := tr.Transform(context.Background(), q)
	assert.True(t, errors.Is(err, ErrUnexpectedLucene))
}

func TestTransformUnionBranchesIndependently(t *testing.T) {
	conv := testConverter(t)
	thing := ref(t, conv, complexThing)
	rdfType := ref(t, conv, rdf.Type)
	st := sparql.StatementPattern{Subject: sparql.Var{Name: "x"}, Predicate: rdfType, Object: thing}
	lucene := sparql.LucenePattern{Subject: sparql.Var{Name: "t"}, Query: "Reise"}
	q := &sparql.ConstructQuery{Where: []sparql.Pattern{
		sparql.UnionPattern{Blocks: [][]sparql.Pattern{
			{st, lucene},
			{st},
		}},
	}}

	tr := NewTransformer(conv, testStore(t, conv), PhaseLowering, nil)
	got, err := tr.Transform(context.Background(), q)
	require.NoError(t, err)
	require.Len(t, got.Where, 1)
	u, ok := got.Where[0].(sparql.UnionPattern)
	require.True(t, ok)
	require.Len(t, u.Blocks, 2)

	// First branch: the lucene pattern moved to the front and was lowered,
	// the rdf:type statement expanded into a nested union.
	require.Len(t, u.Blocks[0], 2)
	lowered, ok := u.Blocks[0][0].(sparql.StatementPattern)
	require.True(t, ok)
	assert.Equal(t, knora.TextIndexPred, lowered.Predicate.(sparql.IriRef).Iri.String())
	_, ok = u.Blocks[0][1].(sparql.UnionPattern)
	assert.True(t, ok)

	// Second branch expanded on its own.
	require.Len(t, u.Blocks[1], 1)
	_, ok = u.Blocks[1][0].(sparql.UnionPattern)
	assert.True(t, ok)
}

func TestTransformDoesNotMutateInput(t *testing.T) {
	conv := testConverter(t)
	thing := ref(t, conv, complexThing)
	rdfType := ref(t, conv, rdf.Type)
	where := []sparql.Pattern{
		sparql.StatementPattern{Subject: sparql.Var{Name: "x"}, Predicate: rdfType, Object: thing},
	}
	q := &sparql.ConstructQuery{Where: where}

	tr := NewTransformer(conv, testStore(t, conv), PhaseLowering, nil)
	_, err := tr.Transform(context.Background(), q)
	require.NoError(t, err)
	require.Len(t, q.Where, 1)
	assert.Equal(t, where[0], q.Where[0])
}
