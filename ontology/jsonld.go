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
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/cayleygraph/quad"
	"github.com/piprate/json-gold/ld"

	"github.com/cayleygraph/gravsearch/voc/xsd"
)

// ReadJSONLD loads ontology definitions from a JSON-LD document, as served
// by the ontology API, and adds them to the store.
func (s *MemStore) ReadJSONLD(r io.Reader) error {
	var doc interface{}
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return fmt.Errorf("ontology: invalid JSON-LD document: %w", err)
	}
	proc := ld.NewJsonLdProcessor()
	opts := ld.NewJsonLdOptions("")
	raw, err := proc.ToRDF(doc, opts)
	if err != nil {
		return fmt.Errorf("ontology: cannot convert JSON-LD to RDF: %w", err)
	}
	dataset, ok := raw.(*ld.RDFDataset)
	if !ok {
		return fmt.Errorf("ontology: unexpected RDF conversion result of type %T", raw)
	}
	for _, graph := range dataset.Graphs {
		for _, lq := range graph {
			q, err := datasetQuad(lq)
			if err != nil {
				return err
			}
			s.ProcessQuad(q)
		}
	}
	return nil
}

func datasetQuad(lq *ld.Quad) (quad.Quad, error) {
	s, err := datasetValue(lq.Subject)
	if err != nil {
		return quad.Quad{}, err
	}
	p, err := datasetValue(lq.Predicate)
	if err != nil {
		return quad.Quad{}, err
	}
	o, err := datasetValue(lq.Object)
	if err != nil {
		return quad.Quad{}, err
	}
	return quad.Quad{Subject: s, Predicate: p, Object: o}, nil
}

func datasetValue(n ld.Node) (quad.Value, error) {
	switch n := n.(type) {
	case *ld.IRI:
		return quad.IRI(n.Value), nil
	case *ld.BlankNode:
		return quad.BNode(strings.TrimPrefix(n.Attribute, "_:")), nil
	case *ld.Literal:
		if n.Language != "" {
			return quad.LangString{Value: quad.String(n.Value), Lang: n.Language}, nil
		}
		if n.Datatype == "" || n.Datatype == xsd.String {
			return quad.String(n.Value), nil
		}
		return quad.TypedString{Value: quad.String(n.Value), Type: quad.IRI(n.Datatype)}, nil
	}
	return nil, fmt.Errorf("ontology: unexpected RDF node of type %T", n)
}
