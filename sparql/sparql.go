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

// Package sparql defines the graph-pattern tree that makes up the WHERE
// clause of a Gravsearch query.
//
// The package does not parse query text; it is the structural form a parser
// produces and the form the transformer emits for execution. Pattern trees
// are treated as immutable: transformations build new trees instead of
// mutating in place.
package sparql

import (
	"fmt"
	"strings"

	"github.com/cayleygraph/quad"

	"github.com/cayleygraph/gravsearch/iri"
)

// Entity is a term of a statement pattern: a variable, an IRI or a literal.
type Entity interface {
	Expression
	isEntity()
}

// Var is a query variable.
type Var struct {
	Name string
}

func (Var) isEntity()     {}
func (Var) isExpression() {}

func (v Var) String() string { return "?" + v.Name }

// IriRef is an IRI used as a term.
type IriRef struct {
	Iri iri.SmartIri
}

func (IriRef) isEntity()     {}
func (IriRef) isExpression() {}

func (r IriRef) String() string { return r.Iri.Quad().String() }

// Literal is a typed literal value.
type Literal struct {
	Value    string
	Datatype quad.IRI
}

func (Literal) isEntity()     {}
func (Literal) isExpression() {}

func (l Literal) String() string {
	return quad.TypedString{Value: quad.String(l.Value), Type: l.Datatype}.String()
}

// Expression is a FILTER or BIND expression.
type Expression interface {
	isExpression()
	String() string
}

// CompareOp is a comparison operator in a filter expression.
type CompareOp string

const (
	OpEq CompareOp = "="
	OpNe CompareOp = "!="
	OpLt CompareOp = "<"
	OpLe CompareOp = "<="
	OpGt CompareOp = ">"
	OpGe CompareOp = ">="
)

// Compare is a binary comparison.
type Compare struct {
	Left  Expression
	Op    CompareOp
	Right Expression
}

func (Compare) isExpression() {}

func (e Compare) String() string {
	return fmt.Sprintf("(%s %s %s)", e.Left, e.Op, e.Right)
}

// And is a logical conjunction of two expressions.
type And struct {
	Left, Right Expression
}

func (And) isExpression() {}

func (e And) String() string { return fmt.Sprintf("(%s && %s)", e.Left, e.Right) }

// Or is a logical disjunction of two expressions.
type Or struct {
	Left, Right Expression
}

func (Or) isExpression() {}

func (e Or) String() string { return fmt.Sprintf("(%s || %s)", e.Left, e.Right) }

// FunctionCall is an invocation of a named filter function.
type FunctionCall struct {
	Function quad.IRI
	Args     []Expression
}

func (FunctionCall) isExpression() {}

func (e FunctionCall) String() string {
	args := make([]string, len(e.Args))
	for i, a := range e.Args {
		args[i] = a.String()
	}
	return fmt.Sprintf("%s(%s)", e.Function.String(), strings.Join(args, ", "))
}

// Pattern is a node of a WHERE-clause pattern tree.
type Pattern interface {
	isPattern()
}

// StatementPattern is a triple pattern.
type StatementPattern struct {
	Subject   Entity
	Predicate Entity
	Object    Entity
}

func (StatementPattern) isPattern() {}

func (p StatementPattern) String() string {
	return fmt.Sprintf("%s %s %s .", p.Subject, p.Predicate, p.Object)
}

// FilterPattern restricts solutions with a boolean expression.
type FilterPattern struct {
	Expression Expression
}

func (FilterPattern) isPattern() {}

// FilterNotExistsPattern excludes solutions for which the nested patterns
// match.
type FilterNotExistsPattern struct {
	Patterns []Pattern
}

func (FilterNotExistsPattern) isPattern() {}

// MinusPattern removes solutions compatible with the nested patterns.
type MinusPattern struct {
	Patterns []Pattern
}

func (MinusPattern) isPattern() {}

// OptionalPattern makes the nested patterns optional.
type OptionalPattern struct {
	Patterns []Pattern
}

func (OptionalPattern) isPattern() {}

// UnionPattern is an alternation of pattern blocks. Each block is an
// independent sub-query for optimization purposes.
type UnionPattern struct {
	Blocks [][]Pattern
}

func (UnionPattern) isPattern() {}

// BindPattern binds a variable to the value of an expression.
type BindPattern struct {
	Var        Var
	Expression Expression
}

func (BindPattern) isPattern() {}

// LucenePattern is the full-text search pseudo-pattern. It is only valid
// before lowering; the lowering phase of the transformer rewrites it into a
// statement pattern against the store-native text-search predicate.
type LucenePattern struct {
	Subject Entity
	Query   string
}

func (LucenePattern) isPattern() {}

// ConstructQuery is a graph-pattern query with a CONSTRUCT template. A Limit
// of zero means no limit.
type ConstructQuery struct {
	Construct []StatementPattern
	Where     []Pattern
	OrderBy   []OrderCriterion
	Offset    int64
	Limit     int64
}

// OrderCriterion orders query results by a variable.
type OrderCriterion struct {
	Var        Var
	Descending bool
}

// Flatten returns every pattern of the tree in document order, descending
// into union blocks and wrapper patterns. The returned slice shares pattern
// values with the input but carries no nesting information.
func Flatten(patterns []Pattern) []Pattern {
	var out []Pattern
	for _, p := range patterns {
		out = append(out, p)
		switch p := p.(type) {
		case FilterNotExistsPattern:
			out = append(out, Flatten(p.Patterns)...)
		case MinusPattern:
			out = append(out, Flatten(p.Patterns)...)
		case OptionalPattern:
			out = append(out, Flatten(p.Patterns)...)
		case UnionPattern:
			for _, b := range p.Blocks {
				out = append(out, Flatten(b)...)
			}
		}
	}
	return out
}

// Statements returns every statement pattern of the tree in document order.
func Statements(patterns []Pattern) []StatementPattern {
	var out []StatementPattern
	for _, p := range Flatten(patterns) {
		if st, ok := p.(StatementPattern); ok {
			out = append(out, st)
		}
	}
	return out
}
