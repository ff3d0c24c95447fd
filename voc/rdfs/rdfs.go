// Package rdfs contains constants of the RDF Schema vocabulary (RDFS).
//
// Unlike quad/voc/rdfs, the term constants here are full IRIs, so they can
// be compared directly against IRIs coming from parsed queries and
// expanded JSON-LD documents.
package rdfs

import "github.com/cayleygraph/quad/voc"

func init() {
	voc.RegisterPrefix(Prefix, NS)
}

const (
	NS     = `http://www.w3.org/2000/01/rdf-schema#`
	Prefix = `rdfs:`
)

const (
	Resource = NS + "Resource"
	Class    = NS + "Class"
	Literal  = NS + "Literal"
	Datatype = NS + "Datatype"

	SubClassOf    = NS + "subClassOf"
	SubPropertyOf = NS + "subPropertyOf"
	Comment       = NS + "comment"
	Label         = NS + "label"
	Domain        = NS + "domain"
	Range         = NS + "range"
)
