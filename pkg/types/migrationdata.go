package types

import "time"

// MigrationData is the in-memory (or streamed) payload of one export: a
// schema plus, per entity, an ordered record sequence and an ordered
// association sequence.
type MigrationData struct {
	Schema        Schema
	EntityRecords map[string][]*Record
	Associations  map[string][]ManyToManyAssociation
	ExportedAt    time.Time
}

// NewMigrationData returns an empty MigrationData bound to schema.
func NewMigrationData(schema Schema) *MigrationData {
	return &MigrationData{
		Schema:        schema,
		EntityRecords: make(map[string][]*Record),
		Associations:  make(map[string][]ManyToManyAssociation),
		ExportedAt:    time.Now().UTC(),
	}
}

// Tier is one wave of entities that may be processed in parallel; tier
// k+1 depends only on entities in tiers <= k.
type Tier struct {
	Index    int
	Entities []string
}

// TierPlan is the planner's output: ordered tiers plus the deferred-field
// work that must follow all tiers.
type TierPlan struct {
	Tiers           []Tier
	DeferredFields  []DeferredFieldSpec
	// EntityTier maps an entity's logical name to its tier index, for
	// O(1) lookup by the engine and executor.
	EntityTier map[string]int
}

// DeferredFieldSpec names a lookup field that must be written in a second
// pass because its target is in the same (or a cyclic) dependency cluster
// as the owning entity.
type DeferredFieldSpec struct {
	Entity    string
	FieldName string
}
