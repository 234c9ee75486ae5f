package types

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// FieldType enumerates the metadata-level data types a schema Field may
// declare; distinct from FieldKind, which tags a concrete runtime value.
type FieldType string

const (
	FieldTypeString          FieldType = "string"
	FieldTypeInteger         FieldType = "integer"
	FieldTypeBigInt          FieldType = "bigint"
	FieldTypeDecimal         FieldType = "decimal"
	FieldTypeFloat           FieldType = "float"
	FieldTypeBoolean         FieldType = "boolean"
	FieldTypeDateTime        FieldType = "datetime"
	FieldTypeUniqueIdentifier FieldType = "uniqueidentifier"
	FieldTypeLookup          FieldType = "lookup"
	FieldTypeOptionSet       FieldType = "optionset"
	FieldTypeMoney           FieldType = "money"
)

// SchemaField describes one attribute of an EntitySchema.
type SchemaField struct {
	Name             string
	DisplayName      string
	Type             FieldType
	IsPrimaryKey     bool
	IsValidForCreate bool
	IsValidForUpdate bool
	IsValidForRead   bool
	IsCustomField    bool
	MaxLength        int
	Precision        int
	// LookupTargets holds the target entity, or multiple entities for a
	// polymorphic lookup (wire form is "|"-delimited).
	LookupTargets []string
}

// Relationship describes either a many-to-many declaration or a one-to-many
// (lookup-backed) relationship. The planner does not read Relationships: its
// dependency edges come only from lookup SchemaFields.
type Relationship struct {
	Name               string
	IsManyToMany       bool
	RelatedEntityName  string
	ReferencingEntity  string
	ReferencingAttribute string
	ReferencedEntity   string
	ReferencedAttribute string
	// Many-to-many only:
	TargetEntity          string
	TargetEntityPrimaryKey string
	IntersectEntityName    string
}

// EntitySchema is one entity's metadata as carried through export/import.
type EntitySchema struct {
	LogicalName           string
	DisplayName            string
	PrimaryIDField          string
	PrimaryNameField        string
	Fields                  []SchemaField
	Relationships           []Relationship
	DisablePluginsDefault   bool
	FetchFilter             string
	ObjectTypeCode          int
}

// Field looks up a field by name (case-sensitive; logical names are
// case-normalized by the caller when needed).
func (e *EntitySchema) Field(name string) (*SchemaField, bool) {
	for i := range e.Fields {
		if e.Fields[i].Name == name {
			return &e.Fields[i], true
		}
	}
	return nil, false
}

// Validate checks the EntitySchema invariant that Fields contains the
// declared primary id field.
func (e *EntitySchema) Validate() error {
	if e.LogicalName == "" {
		return NewConfigurationError("entity schema missing logicalName", nil)
	}
	if _, ok := e.Field(e.PrimaryIDField); !ok {
		return NewConfigurationError(
			fmt.Sprintf("entity %q: fields[] does not contain primary id field %q", e.LogicalName, e.PrimaryIDField), nil)
	}
	return nil
}

// Schema is an ordered collection of EntitySchemas, unique on logicalName
// case-insensitively.
type Schema struct {
	Entities []EntitySchema
}

// Add appends an EntitySchema, rejecting a case-insensitive duplicate name.
func (s *Schema) Add(e EntitySchema) error {
	lower := strings.ToLower(e.LogicalName)
	for _, existing := range s.Entities {
		if strings.ToLower(existing.LogicalName) == lower {
			return NewConfigurationError(fmt.Sprintf("duplicate entity logicalName %q", e.LogicalName), nil)
		}
	}
	s.Entities = append(s.Entities, e)
	return nil
}

// Get returns the EntitySchema by logical name, case-insensitively.
func (s *Schema) Get(logicalName string) (*EntitySchema, bool) {
	lower := strings.ToLower(logicalName)
	for i := range s.Entities {
		if strings.ToLower(s.Entities[i].LogicalName) == lower {
			return &s.Entities[i], true
		}
	}
	return nil, false
}

// ManyToManyAssociation is a set-valued membership between one source
// record and a collection of target ids under one relationship name.
type ManyToManyAssociation struct {
	RelationshipName string
	SourceEntity     string
	SourceID         uuid.UUID
	TargetEntity     string
	TargetIDField    string
	TargetIDs        []uuid.UUID
}
