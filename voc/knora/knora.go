// Package knora contains constants of the knora-base and knora-api
// ontologies used by Gravsearch queries.
//
// The same ontology is visible under three naming schemas: the internal
// schema used by the triplestore (knora-base), and the complex and simple
// external schemas exposed by the API (knora-api). Constants here are
// declared in the schema they are normally encountered in.
package knora

import "github.com/cayleygraph/quad/voc"

func init() {
	voc.RegisterPrefix(BasePrefix, BaseNS)
	voc.RegisterPrefix(APIPrefix, APINS)
	voc.RegisterPrefix(APISimplePrefix, APISimpleNS)
}

const (
	// BaseNS is the internal-schema namespace of the base ontology.
	BaseNS     = `http://www.knora.org/ontology/knora-base#`
	BasePrefix = `knora-base:`

	// APINS is the complex external-schema namespace of the API ontology.
	APINS     = `http://api.knora.org/ontology/knora-api/v2#`
	APIPrefix = `knora-api:`

	// APISimpleNS is the simple external-schema namespace of the API ontology.
	APISimpleNS     = `http://api.knora.org/ontology/knora-api/simple/v2#`
	APISimplePrefix = `knora-api-simple:`

	// InternalOntologyStart is the common prefix of all internal
	// project-ontology IRIs.
	InternalOntologyStart = `http://www.knora.org/ontology/`

	// ExternalOntologyStart is the common prefix of all external
	// project-ontology IRIs.
	ExternalOntologyStart = `http://api.knora.org/ontology/`
)

// Classes in the internal schema.
const (
	BaseResource    = BaseNS + "Resource"
	BaseValue       = BaseNS + "Value"
	BaseStandoffTag = BaseNS + "StandoffTag"
	BaseTextValue   = BaseNS + "TextValue"
	BaseIntValue    = BaseNS + "IntValue"
	BaseLinkValue   = BaseNS + "LinkValue"
)

// Properties in the internal schema.
const (
	BaseIsDeleted            = BaseNS + "isDeleted"
	BaseSubjectClassConstr   = BaseNS + "subjectClassConstraint"
	BaseObjectClassConstr    = BaseNS + "objectClassConstraint"
	BaseHasValue             = BaseNS + "hasValue"
	BaseHasLinkTo            = BaseNS + "hasLinkTo"
	BaseValueHasString       = BaseNS + "valueHasString"
	BaseCreationDate         = BaseNS + "creationDate"
	BaseLastModificationDate = BaseNS + "lastModificationDate"
)

// Classes in the complex external schema.
const (
	Resource    = APINS + "Resource"
	Value       = APINS + "Value"
	StandoffTag = APINS + "StandoffTag"
	TextValue   = APINS + "TextValue"
	IntValue    = APINS + "IntValue"
	LinkValue   = APINS + "LinkValue"
)

// Properties in the complex external schema.
const (
	IsDeleted            = APINS + "isDeleted"
	ObjectType           = APINS + "objectType"
	SubjectType          = APINS + "subjectType"
	MatchesTextIndex     = APINS + "matchesTextIndex"
	ArkURL               = APINS + "arkUrl"
	VersionArkURL        = APINS + "versionArkUrl"
	CreationDate         = APINS + "creationDate"
	LastModificationDate = APINS + "lastModificationDate"
)

// TextIndexPred is the store-native full-text search predicate that
// matchesTextIndex patterns are lowered to.
const TextIndexPred = `http://jena.apache.org/text#query`
