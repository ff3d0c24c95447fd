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

package iri

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testHost = "0.0.0.0:3333"

func testConverter(t testing.TB) *Converter {
	conv, err := NewConverter(testHost)
	require.NoError(t, err)
	return conv
}

func TestParseClassify(t *testing.T) {
	conv := testConverter(t)
	cases := []struct {
		iri      string
		kind     iriKind
		ontology string
		entity   string
		schema   Schema
	}{
		{
			iri:      "http://www.knora.org/ontology/knora-base#Resource",
			kind:     kindOntology,
			ontology: "knora-base", entity: "Resource", schema: SchemaInternal,
		},
		{
			iri:      "http://api.knora.org/ontology/knora-api/v2#Resource",
			kind:     kindOntology,
			ontology: "knora-base", entity: "Resource", schema: SchemaComplex,
		},
		{
			iri:      "http://api.knora.org/ontology/knora-api/simple/v2#Resource",
			kind:     kindOntology,
			ontology: "knora-base", entity: "Resource", schema: SchemaSimple,
		},
		{
			iri:      "http://www.knora.org/ontology/0001/anything#Thing",
			kind:     kindOntology,
			ontology: "0001/anything", entity: "Thing", schema: SchemaInternal,
		},
		{
			iri:      "http://" + testHost + "/ontology/0001/anything/v2#Thing",
			kind:     kindOntology,
			ontology: "0001/anything", entity: "Thing", schema: SchemaComplex,
		},
		{
			iri:      "http://" + testHost + "/ontology/0001/anything/simple/v2#Thing",
			kind:     kindOntology,
			ontology: "0001/anything", entity: "Thing", schema: SchemaSimple,
		},
		{
			iri:  "http://www.w3.org/1999/02/22-rdf-syntax-ns#type",
			kind: kindVocab,
		},
		{
			iri:  "http://www.w3.org/2001/XMLSchema#string",
			kind: kindVocab,
		},
		{
			iri:  "http://rdfh.ch/0001/a-thing",
			kind: kindData,
		},
	}
	for _, c := range cases {
		t.Run(c.iri, func(t *testing.T) {
			got, err := conv.Parse(c.iri)
			require.NoError(t, err)
			assert.Equal(t, c.iri, got.String())
			assert.Equal(t, c.kind, got.kind)
			assert.Equal(t, c.ontology, got.Ontology())
			assert.Equal(t, c.entity, got.Entity())
			assert.Equal(t, c.schema, got.Schema())
		})
	}
}

func TestParseRejectsMalformed(t *testing.T) {
	conv := testConverter(t)
	for _, s := range []string{
		"not-an-iri",
		"anything:Thing",
		"http://example.org/a b",
		"http://www.knora.org/ontology/0001/anything#",
		"http://www.knora.org/ontology/0001/anything#Thing Thing",
		"http://www.knora.org/ontology/0001/anything#9thing",
		// external project ontology IRI without a schema segment
		"http://" + testHost + "/ontology/0001/anything#Thing",
	} {
		_, err := conv.Parse(s)
		assert.Error(t, err, "expected parse error for %q", s)
	}
}

func TestToSchemaRoundTrip(t *testing.T) {
	conv := testConverter(t)
	cases := []struct {
		internal string
		complex  string
		simple   string
	}{
		{
			internal: "http://www.knora.org/ontology/knora-base#TextValue",
			complex:  "http://api.knora.org/ontology/knora-api/v2#TextValue",
			simple:   "http://api.knora.org/ontology/knora-api/simple/v2#TextValue",
		},
		{
			internal: "http://www.knora.org/ontology/0001/anything#hasText",
			complex:  "http://" + testHost + "/ontology/0001/anything/v2#hasText",
			simple:   "http://" + testHost + "/ontology/0001/anything/simple/v2#hasText",
		},
	}
	for _, c := range cases {
		orig, err := conv.Parse(c.internal)
		require.NoError(t, err)

		complex, err := conv.ToSchema(orig, SchemaComplex)
		require.NoError(t, err)
		assert.Equal(t, c.complex, complex.String())
		assert.Equal(t, SchemaComplex, complex.Schema())

		simple, err := conv.ToSchema(complex, SchemaSimple)
		require.NoError(t, err)
		assert.Equal(t, c.simple, simple.String())

		back, err := conv.ToSchema(simple, SchemaInternal)
		require.NoError(t, err)
		assert.Equal(t, orig, back)
	}
}

func TestToSchemaLeavesNonEntitiesAlone(t *testing.T) {
	conv := testConverter(t)
	data, err := conv.Parse("http://rdfh.ch/0001/a-thing")
	require.NoError(t, err)
	got, err := conv.ToSchema(data, SchemaComplex)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestConverterNotConfigured(t *testing.T) {
	var conv Converter
	_, err := conv.Parse("http://rdfh.ch/0001/a-thing")
	assert.True(t, errors.Is(err, ErrNotConfigured))
	_, err = conv.ToSchema(SmartIri{}, SchemaComplex)
	assert.True(t, errors.Is(err, ErrNotConfigured))

	_, err = NewConverter("")
	assert.Error(t, err)
}
