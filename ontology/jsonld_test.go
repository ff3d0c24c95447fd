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
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cayleygraph/gravsearch/iri"
)

const booksJSONLD = `{
  "@graph": [
    {
      "@id": "http://www.knora.org/ontology/0001/books#Book",
      "@type": "http://www.w3.org/2002/07/owl#Class",
      "http://www.w3.org/2000/01/rdf-schema#subClassOf": {
        "@id": "http://www.knora.org/ontology/knora-base#Resource"
      }
    },
    {
      "@id": "http://www.knora.org/ontology/0001/books#Novel",
      "@type": "http://www.w3.org/2002/07/owl#Class",
      "http://www.w3.org/2000/01/rdf-schema#subClassOf": {
        "@id": "http://www.knora.org/ontology/0001/books#Book"
      }
    },
    {
      "@id": "http://www.knora.org/ontology/0001/books#hasTitle",
      "@type": "http://www.w3.org/2002/07/owl#ObjectProperty",
      "http://www.knora.org/ontology/knora-base#subjectClassConstraint": {
        "@id": "http://www.knora.org/ontology/0001/books#Book"
      },
      "http://www.knora.org/ontology/knora-base#objectClassConstraint": {
        "@id": "http://www.knora.org/ontology/knora-base#TextValue"
      }
    },
    {
      "@id": "http://www.knora.org/ontology/knora-base#TextValue",
      "@type": "http://www.w3.org/2002/07/owl#Class",
      "http://www.w3.org/2000/01/rdf-schema#subClassOf": {
        "@id": "http://www.knora.org/ontology/knora-base#Value"
      }
    }
  ]
}`

func TestReadJSONLD(t *testing.T) {
	conv := testConverter(t)
	s := NewMemStore(conv)
	require.NoError(t, s.ReadJSONLD(strings.NewReader(booksJSONLD)))

	booksComplex := "http://" + testHost + "/ontology/0001/books/v2#"
	meta, err := s.Metadata(context.Background(), request(t, conv, iri.SchemaComplex,
		[]string{booksComplex + "Book"}, []string{booksComplex + "hasTitle"}))
	require.NoError(t, err)

	book, ok := meta.Classes[booksComplex+"Book"]
	require.True(t, ok)
	assert.True(t, book.IsResource)
	require.Len(t, book.SubClasses, 1)
	assert.Equal(t, booksComplex+"Novel", book.SubClasses[0].String())

	title, ok := meta.Properties[booksComplex+"hasTitle"]
	require.True(t, ok)
	assert.True(t, title.IsValueProp)
	assert.True(t, title.SubjectIsResource)
}

func TestReadJSONLDRejectsGarbage(t *testing.T) {
	s := NewMemStore(testConverter(t))
	assert.Error(t, s.ReadJSONLD(strings.NewReader("{not json")))
}
