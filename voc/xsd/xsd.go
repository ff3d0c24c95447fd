// Package xsd contains constants of the XML Schema datatypes.
//
// Unlike quad/voc/xsd, the datatype constants here are full IRIs, matching
// the datatype field of literals in decoded queries.
package xsd

import "github.com/cayleygraph/quad/voc"

func init() {
	voc.RegisterPrefix(Prefix, NS)
}

const (
	NS     = `http://www.w3.org/2001/XMLSchema#`
	Prefix = `xsd:`
)

const (
	String  = NS + "string"
	Boolean = NS + "boolean"

	Integer = NS + "integer"
	Int     = NS + "int"
	Long    = NS + "long"
	Decimal = NS + "decimal"
	Double  = NS + "double"
	Float   = NS + "float"

	DateTime = NS + "dateTime"
	Date     = NS + "date"

	AnyURI = NS + "anyURI"
)
