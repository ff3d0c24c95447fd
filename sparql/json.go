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
	"encoding/json"
	"fmt"

	"github.com/cayleygraph/quad"

	"github.com/cayleygraph/gravsearch/iri"
	"github.com/cayleygraph/gravsearch/voc/knora"
	"github.com/cayleygraph/gravsearch/voc/xsd"
)

// The JSON form of a query is kind-tagged: each pattern and expression is an
// object with a single key naming its kind. It is the interchange format used
// by callers that already parsed the query text, and the format the
// transformed query is serialized back to.

type jsonQuery struct {
	Construct []json.RawMessage `json:"construct,omitempty"`
	Where     []json.RawMessage `json:"where"`
	OrderBy   []jsonOrder       `json:"orderBy,omitempty"`
	Offset    int64             `json:"offset,omitempty"`
	Limit     int64             `json:"limit,omitempty"`
}

type jsonOrder struct {
	Var        string `json:"var"`
	Descending bool   `json:"descending,omitempty"`
}

type jsonStatement struct {
	Subject   json.RawMessage `json:"subject"`
	Predicate json.RawMessage `json:"predicate"`
	Object    json.RawMessage `json:"object"`
}

type jsonCompare struct {
	Left  json.RawMessage `json:"left"`
	Op    string          `json:"op"`
	Right json.RawMessage `json:"right"`
}

type jsonBind struct {
	Var        string          `json:"var"`
	Expression json.RawMessage `json:"expression"`
}

type jsonLucene struct {
	Subject json.RawMessage `json:"subject"`
	Query   string          `json:"query"`
}

type jsonLiteral struct {
	Value    string `json:"literal"`
	Datatype string `json:"datatype,omitempty"`
}

type jsonFunction struct {
	Function string            `json:"function"`
	Args     []json.RawMessage `json:"args"`
}

// MarshalQuery encodes a query into its JSON interchange form.
func MarshalQuery(q *ConstructQuery) ([]byte, error) {
	out := jsonQuery{Offset: q.Offset, Limit: q.Limit}
	for _, st := range q.Construct {
		raw, err := marshalPattern(st)
		if err != nil {
			return nil, err
		}
		out.Construct = append(out.Construct, raw)
	}
	var err error
	out.Where, err = marshalPatterns(q.Where)
	if err != nil {
		return nil, err
	}
	for _, o := range q.OrderBy {
		out.OrderBy = append(out.OrderBy, jsonOrder{Var: o.Var.Name, Descending: o.Descending})
	}
	return json.MarshalIndent(out, "", "  ")
}

func marshalPatterns(patterns []Pattern) ([]json.RawMessage, error) {
	out := make([]json.RawMessage, 0, len(patterns))
	for _, p := range patterns {
		raw, err := marshalPattern(p)
		if err != nil {
			return nil, err
		}
		out = append(out, raw)
	}
	return out, nil
}

func marshalPattern(p Pattern) (json.RawMessage, error) {
	wrap := func(kind string, v interface{}) (json.RawMessage, error) {
		return json.Marshal(map[string]interface{}{kind: v})
	}
	switch p := p.(type) {
	case StatementPattern:
		s, err := marshalEntity(p.Subject)
		if err != nil {
			return nil, err
		}
		pred, err := marshalEntity(p.Predicate)
		if err != nil {
			return nil, err
		}
		o, err := marshalEntity(p.Object)
		if err != nil {
			return nil, err
		}
		return wrap("statement", jsonStatement{Subject: s, Predicate: pred, Object: o})
	case FilterPattern:
		e, err := marshalExpression(p.Expression)
		if err != nil {
			return nil, err
		}
		return wrap("filter", e)
	case FilterNotExistsPattern:
		ps, err := marshalPatterns(p.Patterns)
		if err != nil {
			return nil, err
		}
		return wrap("filterNotExists", ps)
	case MinusPattern:
		ps, err := marshalPatterns(p.Patterns)
		if err != nil {
			return nil, err
		}
		return wrap("minus", ps)
	case OptionalPattern:
		ps, err := marshalPatterns(p.Patterns)
		if err != nil {
			return nil, err
		}
		return wrap("optional", ps)
	case UnionPattern:
		blocks := make([][]json.RawMessage, 0, len(p.Blocks))
		for _, b := range p.Blocks {
			ps, err := marshalPatterns(b)
			if err != nil {
				return nil, err
			}
			blocks = append(blocks, ps)
		}
		return wrap("union", blocks)
	case BindPattern:
		e, err := marshalExpression(p.Expression)
		if err != nil {
			return nil, err
		}
		return wrap("bind", jsonBind{Var: p.Var.Name, Expression: e})
	case LucenePattern:
		s, err := marshalEntity(p.Subject)
		if err != nil {
			return nil, err
		}
		return wrap("lucene", jsonLucene{Subject: s, Query: p.Query})
	}
	return nil, fmt.Errorf("sparql: cannot marshal pattern of type %T", p)
}

func marshalEntity(e Entity) (json.RawMessage, error) {
	switch e := e.(type) {
	case Var:
		return json.Marshal(map[string]string{"var": e.Name})
	case IriRef:
		return json.Marshal(map[string]string{"iri": e.Iri.String()})
	case Literal:
		dt := string(e.Datatype)
		if dt == xsd.String {
			dt = ""
		}
		return json.Marshal(jsonLiteral{Value: e.Value, Datatype: dt})
	}
	return nil, fmt.Errorf("sparql: cannot marshal entity of type %T", e)
}

func marshalExpression(e Expression) (json.RawMessage, error) {
	switch e := e.(type) {
	case Var, IriRef, Literal:
		return marshalEntity(e.(Entity))
	case Compare:
		l, err := marshalExpression(e.Left)
		if err != nil {
			return nil, err
		}
		r, err := marshalExpression(e.Right)
		if err != nil {
			return nil, err
		}
		return json.Marshal(map[string]interface{}{"compare": jsonCompare{Left: l, Op: string(e.Op), Right: r}})
	case And:
		return marshalJunction("and", e.Left, e.Right)
	case Or:
		return marshalJunction("or", e.Left, e.Right)
	case FunctionCall:
		args := make([]json.RawMessage, 0, len(e.Args))
		for _, a := range e.Args {
			raw, err := marshalExpression(a)
			if err != nil {
				return nil, err
			}
			args = append(args, raw)
		}
		return json.Marshal(map[string]interface{}{"call": jsonFunction{Function: string(e.Function), Args: args}})
	}
	return nil, fmt.Errorf("sparql: cannot marshal expression of type %T", e)
}

func marshalJunction(kind string, l, r Expression) (json.RawMessage, error) {
	lr, err := marshalExpression(l)
	if err != nil {
		return nil, err
	}
	rr, err := marshalExpression(r)
	if err != nil {
		return nil, err
	}
	return json.Marshal(map[string]interface{}{kind: []json.RawMessage{lr, rr}})
}

// Decoder decodes the JSON interchange form of a query, using a Converter to
// validate the IRIs it contains.
type Decoder struct {
	conv *iri.Converter
}

// NewDecoder returns a Decoder backed by the given IRI converter.
func NewDecoder(conv *iri.Converter) *Decoder {
	return &Decoder{conv: conv}
}

// UnmarshalQuery decodes a query from its JSON interchange form.
func (d *Decoder) UnmarshalQuery(data []byte) (*ConstructQuery, error) {
	var jq jsonQuery
	if err := json.Unmarshal(data, &jq); err != nil {
		return nil, fmt.Errorf("sparql: invalid query document: %w", err)
	}
	q := &ConstructQuery{Offset: jq.Offset, Limit: jq.Limit}
	for _, raw := range jq.Construct {
		p, err := d.unmarshalPattern(raw)
		if err != nil {
			return nil, err
		}
		st, ok := p.(StatementPattern)
		if !ok {
			return nil, fmt.Errorf("sparql: construct clause may contain only statement patterns, got %T", p)
		}
		q.Construct = append(q.Construct, st)
	}
	var err error
	q.Where, err = d.unmarshalPatterns(jq.Where)
	if err != nil {
		return nil, err
	}
	for _, o := range jq.OrderBy {
		q.OrderBy = append(q.OrderBy, OrderCriterion{Var: Var{Name: o.Var}, Descending: o.Descending})
	}
	return q, nil
}

func (d *Decoder) unmarshalPatterns(raws []json.RawMessage) ([]Pattern, error) {
	out := make([]Pattern, 0, len(raws))
	for _, raw := range raws {
		p, err := d.unmarshalPattern(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (d *Decoder) unmarshalPattern(raw json.RawMessage) (Pattern, error) {
	kind, body, err := splitKind(raw)
	if err != nil {
		return nil, err
	}
	switch kind {
	case "statement":
		var js jsonStatement
		if err := json.Unmarshal(body, &js); err != nil {
			return nil, err
		}
		s, err := d.unmarshalEntity(js.Subject)
		if err != nil {
			return nil, err
		}
		p, err := d.unmarshalEntity(js.Predicate)
		if err != nil {
			return nil, err
		}
		o, err := d.unmarshalEntity(js.Object)
		if err != nil {
			return nil, err
		}
		// A statement whose predicate is knora-api:matchesTextIndex is the
		// statement spelling of a full-text search pattern.
		if ref, ok := p.(IriRef); ok && ref.Iri.IsOntologyEntity() {
			norm, err := d.conv.ToSchema(ref.Iri, iri.SchemaComplex)
			if err != nil {
				return nil, err
			}
			if norm.String() == knora.MatchesTextIndex {
				lit, ok := o.(Literal)
				if !ok {
					return nil, fmt.Errorf("sparql: full-text search term must be a literal, got %T", o)
				}
				return LucenePattern{Subject: s, Query: lit.Value}, nil
			}
		}
		return StatementPattern{Subject: s, Predicate: p, Object: o}, nil
	case "filter":
		e, err := d.unmarshalExpression(body)
		if err != nil {
			return nil, err
		}
		return FilterPattern{Expression: e}, nil
	case "filterNotExists":
		ps, err := d.unmarshalPatternList(body)
		if err != nil {
			return nil, err
		}
		return FilterNotExistsPattern{Patterns: ps}, nil
	case "minus":
		ps, err := d.unmarshalPatternList(body)
		if err != nil {
			return nil, err
		}
		return MinusPattern{Patterns: ps}, nil
	case "optional":
		ps, err := d.unmarshalPatternList(body)
		if err != nil {
			return nil, err
		}
		return OptionalPattern{Patterns: ps}, nil
	case "union":
		var raws [][]json.RawMessage
		if err := json.Unmarshal(body, &raws); err != nil {
			return nil, err
		}
		u := UnionPattern{}
		for _, b := range raws {
			ps, err := d.unmarshalPatterns(b)
			if err != nil {
				return nil, err
			}
			u.Blocks = append(u.Blocks, ps)
		}
		return u, nil
	case "bind":
		var jb jsonBind
		if err := json.Unmarshal(body, &jb); err != nil {
			return nil, err
		}
		e, err := d.unmarshalExpression(jb.Expression)
		if err != nil {
			return nil, err
		}
		return BindPattern{Var: Var{Name: jb.Var}, Expression: e}, nil
	case "lucene":
		var jl jsonLucene
		if err := json.Unmarshal(body, &jl); err != nil {
			return nil, err
		}
		s, err := d.unmarshalEntity(jl.Subject)
		if err != nil {
			return nil, err
		}
		return LucenePattern{Subject: s, Query: jl.Query}, nil
	}
	return nil, fmt.Errorf("sparql: unknown pattern kind %q", kind)
}

func (d *Decoder) unmarshalPatternList(body json.RawMessage) ([]Pattern, error) {
	var raws []json.RawMessage
	if err := json.Unmarshal(body, &raws); err != nil {
		return nil, err
	}
	return d.unmarshalPatterns(raws)
}

func (d *Decoder) unmarshalEntity(raw json.RawMessage) (Entity, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	if v, ok := fields["var"]; ok {
		var name string
		if err := json.Unmarshal(v, &name); err != nil {
			return nil, err
		}
		return Var{Name: name}, nil
	}
	if v, ok := fields["iri"]; ok {
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return nil, err
		}
		parsed, err := d.conv.Parse(s)
		if err != nil {
			return nil, err
		}
		return IriRef{Iri: parsed}, nil
	}
	if _, ok := fields["literal"]; ok {
		var jl jsonLiteral
		if err := json.Unmarshal(raw, &jl); err != nil {
			return nil, err
		}
		dt := quad.IRI(jl.Datatype)
		if jl.Datatype == "" {
			dt = quad.IRI(xsd.String)
		}
		return Literal{Value: jl.Value, Datatype: dt}, nil
	}
	return nil, fmt.Errorf("sparql: cannot decode entity from %s", raw)
}

func (d *Decoder) unmarshalExpression(raw json.RawMessage) (Expression, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	if _, ok := fields["var"]; ok {
		return d.unmarshalEntity(raw)
	}
	if _, ok := fields["iri"]; ok {
		return d.unmarshalEntity(raw)
	}
	if _, ok := fields["literal"]; ok {
		return d.unmarshalEntity(raw)
	}
	if body, ok := fields["compare"]; ok {
		var jc jsonCompare
		if err := json.Unmarshal(body, &jc); err != nil {
			return nil, err
		}
		l, err := d.unmarshalExpression(jc.Left)
		if err != nil {
			return nil, err
		}
		r, err := d.unmarshalExpression(jc.Right)
		if err != nil {
			return nil, err
		}
		return Compare{Left: l, Op: CompareOp(jc.Op), Right: r}, nil
	}
	if body, ok := fields["and"]; ok {
		l, r, err := d.unmarshalJunction(body)
		if err != nil {
			return nil, err
		}
		return And{Left: l, Right: r}, nil
	}
	if body, ok := fields["or"]; ok {
		l, r, err := d.unmarshalJunction(body)
		if err != nil {
			return nil, err
		}
		return Or{Left: l, Right: r}, nil
	}
	if body, ok := fields["call"]; ok {
		var jf jsonFunction
		if err := json.Unmarshal(body, &jf); err != nil {
			return nil, err
		}
		fc := FunctionCall{Function: quad.IRI(jf.Function)}
		for _, a := range jf.Args {
			e, err := d.unmarshalExpression(a)
			if err != nil {
				return nil, err
			}
			fc.Args = append(fc.Args, e)
		}
		return fc, nil
	}
	return nil, fmt.Errorf("sparql: cannot decode expression from %s", raw)
}

func (d *Decoder) unmarshalJunction(body json.RawMessage) (Expression, Expression, error) {
	var raws []json.RawMessage
	if err := json.Unmarshal(body, &raws); err != nil {
		return nil, nil, err
	}
	if len(raws) != 2 {
		return nil, nil, fmt.Errorf("sparql: junction must have exactly two operands, got %d", len(raws))
	}
	l, err := d.unmarshalExpression(raws[0])
	if err != nil {
		return nil, nil, err
	}
	r, err := d.unmarshalExpression(raws[1])
	if err != nil {
		return nil, nil, err
	}
	return l, r, nil
}

func splitKind(raw json.RawMessage) (string, json.RawMessage, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return "", nil, fmt.Errorf("sparql: invalid pattern document: %w", err)
	}
	if len(fields) != 1 {
		return "", nil, fmt.Errorf("sparql: pattern document must have exactly one kind key, got %d", len(fields))
	}
	for k, v := range fields {
		return k, v, nil
	}
	return "", nil, nil
}
