// Package rdf contains constants of the RDF Concepts Vocabulary (RDF).
//
// Unlike quad/voc/rdf, the term constants here are full IRIs, so they can
// be compared directly against IRIs coming from parsed queries and
// expanded JSON-LD documents.
package rdf

import "github.com/cayleygraph/quad/voc"

func init() {
	voc.RegisterPrefix(Prefix, NS)
}

const (
	NS     = `http://www.w3.org/1999/02/22-rdf-syntax-ns#`
	Prefix = `rdf:`
)

const (
	Property   = NS + "Property"
	Statement  = NS + "Statement"
	LangString = NS + "langString"

	Type      = NS + "type"
	Value     = NS + "value"
	Subject   = NS + "subject"
	Predicate = NS + "predicate"
	Object    = NS + "object"
)
