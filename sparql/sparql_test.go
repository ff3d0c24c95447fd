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

package sparql

import (
	"testing"

	"github.com/cayleygraph/quad"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cayleygraph/gravsearch/iri"
)

func testConverter(t testing.TB) *iri.Converter {
	conv, err := iri.NewConverter("0.0.0.0:3333")
	require.NoError(t, err)
	return conv
}

func mustIri(t testing.TB, conv *iri.Converter, s string) IriRef {
	t.Helper()
	parsed, err := conv.Parse(s)
	require.NoError(t, err)
	return IriRef{Iri: parsed}
}

func TestFlatten(t *testing.T) {
	conv := testConverter(t)
	hasText := mustIri(t, conv, "http://www.knora.org/ontology/0001/anything#hasText")

	inner := StatementPattern{Subject: Var{Name: "x"}, Predicate: hasText, Object: Var{Name: "t"}}
	where := []Pattern{
		StatementPattern{Subject: Var{Name: "x"}, Predicate: Var{Name: "p"}, Object: Var{Name: "o"}},
		UnionPattern{Blocks: [][]Pattern{
			{inner},
			{OptionalPattern{Patterns: []Pattern{inner}}},
		}},
		MinusPattern{Patterns: []Pattern{
			FilterNotExistsPattern{Patterns: []Pattern{inner}},
		}},
		FilterPattern{Expression: Compare{Left: Var{Name: "t"}, Op: OpEq, Right: Literal{Value: "a"}}},
	}

	flat := Flatten(where)
	// 4 top-level + union + optional wrapper contents + minus/not-exists contents.
	assert.Len(t, flat, 9)

	sts := Statements(where)
	require.Len(t, sts, 4)
	assert.Equal(t, inner, sts[1])
	assert.Equal(t, inner, sts[2])
	assert.Equal(t, inner, sts[3])
}

func TestJSONRoundTrip(t *testing.T) {
	conv := testConverter(t)
	rdfType := mustIri(t, conv, "http://www.w3.org/1999/02/22-rdf-syntax-ns#type")
	thing := mustIri(t, conv, "http://0.0.0.0:3333/ontology/0001/anything/v2#Thing")
	hasText := mustIri(t, conv, "http://0.0.0.0:3333/ontology/0001/anything/v2#hasText")

	q := &ConstructQuery{
		Construct: []StatementPattern{
			{Subject: Var{Name: "x"}, Predicate: rdfType, Object: thing},
		},
		Where: []Pattern{
			StatementPattern{Subject: Var{Name: "x"}, Predicate: rdfType, Object: thing},
			StatementPattern{Subject: Var{Name: "x"}, Predicate: hasText, Object: Var{Name: "text"}},
			LucenePattern{Subject: Var{Name: "text"}, Query: "Reise Land"},
			UnionPattern{Blocks: [][]Pattern{
				{StatementPattern{Subject: Var{Name: "x"}, Predicate: Var{Name: "p"}, Object: Var{Name: "o"}}},
				{OptionalPattern{Patterns: []Pattern{
					StatementPattern{Subject: Var{Name: "x"}, Predicate: Var{Name: "p"}, Object: Var{Name: "o2"}},
				}}},
			}},
			BindPattern{Var: Var{Name: "n"}, Expression: Literal{Value: "1", Datatype: quad.IRI("http://www.w3.org/2001/XMLSchema#integer")}},
			FilterPattern{Expression: Or{
				Left: Compare{Left: Var{Name: "o"}, Op: OpGt, Right: Literal{Value: "5", Datatype: quad.IRI("http://www.w3.org/2001/XMLSchema#integer")}},
				Right: And{
					Left:  Compare{Left: Var{Name: "o"}, Op: OpEq, Right: Literal{Value: "x", Datatype: quad.IRI("http://www.w3.org/2001/XMLSchema#string")}},
					Right: FunctionCall{Function: "http://www.w3.org/2001/XMLSchema#boolean", Args: []Expression{Var{Name: "o"}}},
				},
			}},
			MinusPattern{Patterns: []Pattern{
				StatementPattern{Subject: Var{Name: "x"}, Predicate: hasText, Object: Literal{Value: "nope", Datatype: quad.IRI("http://www.w3.org/2001/XMLSchema#string")}},
			}},
			FilterNotExistsPattern{Patterns: []Pattern{
				StatementPattern{Subject: Var{Name: "x"}, Predicate: hasText, Object: Var{Name: "gone"}},
			}},
		},
		OrderBy: []OrderCriterion{{Var: Var{Name: "text"}, Descending: true}},
		Offset:  25,
		Limit:   100,
	}

	data, err := MarshalQuery(q)
	require.NoError(t, err)

	got, err := NewDecoder(conv).UnmarshalQuery(data)
	require.NoError(t, err)
	assert.Equal(t, q, got)
}

func TestUnmarshalStatementFormFullTextSearch(t *testing.T) {
	conv := testConverter(t)
	d := NewDecoder(conv)

	// A matchesTextIndex statement decodes as a full-text search pattern.
	q, err := d.UnmarshalQuery([]byte(`{"where": [{"statement": {
		"subject": {"var": "text"},
		"predicate": {"iri": "http://api.knora.org/ontology/knora-api/v2#matchesTextIndex"},
		"object": {"literal": "Reise Land"}
	}}]}`))
	require.NoError(t, err)
	require.Len(t, q.Where, 1)
	assert.Equal(t, LucenePattern{Subject: Var{Name: "text"}, Query: "Reise Land"}, q.Where[0])

	// The search term must be a literal.
	_, err = d.UnmarshalQuery([]byte(`{"where": [{"statement": {
		"subject": {"var": "text"},
		"predicate": {"iri": "http://api.knora.org/ontology/knora-api/v2#matchesTextIndex"},
		"object": {"var": "q"}
	}}]}`))
	assert.Error(t, err)
}

func TestUnmarshalRejectsBadDocuments(t *testing.T) {
	conv := testConverter(t)
	d := NewDecoder(conv)
	for name, doc := range map[string]string{
		"not json":         `{"where": [`,
		"unknown kind":     `{"where": [{"frobnicate": {}}]}`,
		"two kind keys":    `{"where": [{"filter": {}, "bind": {}}]}`,
		"bad entity":       `{"where": [{"statement": {"subject": {"nope": 1}, "predicate": {"var": "p"}, "object": {"var": "o"}}}]}`,
		"invalid iri":      `{"where": [{"statement": {"subject": {"iri": "no scheme"}, "predicate": {"var": "p"}, "object": {"var": "o"}}}]}`,
		"non-statement construct": `{"construct": [{"filter": {"var": "x"}}], "where": []}`,
		"junction arity":   `{"where": [{"filter": {"and": [{"var": "a"}]}}]}`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := d.UnmarshalQuery([]byte(doc))
			assert.Error(t, err)
		})
	}
}
