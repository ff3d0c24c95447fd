// Package owl contains constants of the Web Ontology Language (OWL)
package owl

import "github.com/cayleygraph/quad/voc"

func init() {
	voc.RegisterPrefix(Prefix, NS)
}

const (
	NS     = `http://www.w3.org/2002/07/owl#`
	Prefix = `owl:`
)

const (
	Class            = NS + "Class"
	ObjectProperty   = NS + "ObjectProperty"
	DatatypeProperty = NS + "DatatypeProperty"
	Ontology         = NS + "Ontology"

	UnionOf        = NS + "unionOf"
	Restriction    = NS + "Restriction"
	OnProperty     = NS + "onProperty"
	Cardinality    = NS + "cardinality"
	MinCardinality = NS + "minCardinality"
	MaxCardinality = NS + "maxCardinality"
)
