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
	"github.com/cayleygraph/quad"

	"github.com/cayleygraph/gravsearch/sparql"
	"github.com/cayleygraph/gravsearch/voc/knora"
	"github.com/cayleygraph/gravsearch/voc/xsd"
)

// Optimize applies the pre-transform optimization pass to one pattern list:
//
//  1. the isDeleted statement-plus-filter idiom is collapsed into a single
//     FILTER NOT EXISTS, avoiding a redundant join;
//  2. BIND patterns are moved to the front, so bound values are available to
//     later patterns;
//  3. full-text search patterns are moved before everything else: they are
//     cheap and highly selective and should filter the candidate set before
//     expensive joins.
//
// All other patterns keep their relative order, and applying the pass to an
// already-optimized list changes nothing.
func Optimize(patterns []sparql.Pattern) []sparql.Pattern {
	ps := collapseIsDeleted(patterns)
	ps = moveToFront(ps, isBind)
	ps = moveToFront(ps, isLucene)
	return ps
}

func isBind(p sparql.Pattern) bool {
	_, ok := p.(sparql.BindPattern)
	return ok
}

func isLucene(p sparql.Pattern) bool {
	_, ok := p.(sparql.LucenePattern)
	return ok
}

// moveToFront stably partitions the list: patterns matching the predicate
// first, in their original order, then the rest in their original order.
func moveToFront(ps []sparql.Pattern, match func(sparql.Pattern) bool) []sparql.Pattern {
	out := make([]sparql.Pattern, 0, len(ps))
	for _, p := range ps {
		if match(p) {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return ps
	}
	for _, p := range ps {
		if !match(p) {
			out = append(out, p)
		}
	}
	return out
}

// collapseIsDeleted rewrites the idiom
//
//	?s knora-api:isDeleted ?d .
//	FILTER(?d = false)
//
// into FILTER NOT EXISTS { ?s knora-api:isDeleted true }, which lets the
// store skip binding the deletion flag entirely.
func collapseIsDeleted(ps []sparql.Pattern) []sparql.Pattern {
	out := make([]sparql.Pattern, 0, len(ps))
	for i := 0; i < len(ps); i++ {
		st, ok := ps[i].(sparql.StatementPattern)
		if !ok || !isDeletedPredicate(st.Predicate) {
			out = append(out, ps[i])
			continue
		}
		flag, ok := st.Object.(sparql.Var)
		if !ok || i+1 >= len(ps) {
			out = append(out, ps[i])
			continue
		}
		filter, ok := ps[i+1].(sparql.FilterPattern)
		if !ok || !isFalseCheck(filter.Expression, flag) {
			out = append(out, ps[i])
			continue
		}
		out = append(out, sparql.FilterNotExistsPattern{Patterns: []sparql.Pattern{
			sparql.StatementPattern{
				Subject:   st.Subject,
				Predicate: st.Predicate,
				Object:    sparql.Literal{Value: "true", Datatype: quad.IRI(xsd.Boolean)},
			},
		}})
		i++
	}
	return out
}

func isDeletedPredicate(e sparql.Entity) bool {
	ref, ok := e.(sparql.IriRef)
	if !ok {
		return false
	}
	s := ref.Iri.String()
	return s == knora.IsDeleted || s == knora.BaseIsDeleted
}

func isFalseCheck(expr sparql.Expression, flag sparql.Var) bool {
	cmp, ok := expr.(sparql.Compare)
	if !ok || cmp.Op != sparql.OpEq {
		return false
	}
	v, other := cmp.Left, cmp.Right
	if _, ok := v.(sparql.Var); !ok {
		v, other = cmp.Right, cmp.Left
	}
	vv, ok := v.(sparql.Var)
	if !ok || vv.Name != flag.Name {
		return false
	}
	lit, ok := other.(sparql.Literal)
	return ok && lit.Value == "false" && lit.Datatype == quad.IRI(xsd.Boolean)
}
