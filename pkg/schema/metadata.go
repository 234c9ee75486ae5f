package schema

import (
	"context"

	"github.com/joshsmithxrm/ppds-engine/pkg/types"
)

// EntitySummary is one row of ListEntities' output.
type EntitySummary struct {
	LogicalName    string
	DisplayName    string
	IsCustomEntity bool
}

// VirtualKind classifies a virtual attribute for the field-include policy
// (§4.5): an image, a multi-select picklist, or anything else.
type VirtualKind string

const (
	VirtualNone  VirtualKind = ""
	VirtualImage VirtualKind = "image"
	VirtualMSP   VirtualKind = "msp"
	VirtualOther VirtualKind = "other"
)

// AttributeMetadata is one field as reported by live metadata, before the
// field-include policy decides whether it survives into the schema.
type AttributeMetadata struct {
	LogicalName       string
	DisplayName       string
	Type              types.FieldType
	IsPrimaryKey      bool
	IsValidForCreate  bool
	IsValidForUpdate  bool
	IsValidForRead    bool
	IsCustomAttribute bool
	Virtual           VirtualKind
	MaxLength         int
	Precision         int
	LookupTargets     []string
}

// EntityMetadata is one entity's full live metadata.
type EntityMetadata struct {
	LogicalName      string
	DisplayName      string
	PrimaryIDField   string
	PrimaryNameField string
	ObjectTypeCode   int
	Attributes       []AttributeMetadata
	Relationships    []types.Relationship
}

// MetadataProvider is the capability the generator consumes instead of
// querying the remote directly: "given an entity name, describe its live
// metadata." How it is obtained (cached, fetched over OData, mocked in
// tests) is outside this package.
type MetadataProvider interface {
	ListEntities(ctx context.Context) ([]EntitySummary, error)
	DescribeEntity(ctx context.Context, logicalName string) (EntityMetadata, error)
}
