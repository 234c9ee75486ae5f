package types

import "github.com/google/uuid"

// OperationKind tags the wire intent of an Operation. Modeled as a tagged
// variant rather than an interface hierarchy: the wire adapter dispatches
// on the tag with a single switch, no inheritance required.
type OperationKind int

const (
	OpCreate OperationKind = iota
	OpUpdate
	OpUpsert
	OpDelete
	OpAssociate
	OpDisassociate
)

func (k OperationKind) String() string {
	switch k {
	case OpCreate:
		return "Create"
	case OpUpdate:
		return "Update"
	case OpUpsert:
		return "Upsert"
	case OpDelete:
		return "Delete"
	case OpAssociate:
		return "Associate"
	case OpDisassociate:
		return "Disassociate"
	default:
		return "Unknown"
	}
}

// RowRef is a stable identifier for the caller's source row (CSV row
// number, or a record id for export/import), used for error attribution.
// Exactly one result bucket (success or failure) ever carries a given
// RowRef — see pkg/executor's at-most-once invariant.
type RowRef string

// Operation is one per-record unit of work submitted to the executor.
// All operations in a Batch target the same Entity (see Batch).
type Operation struct {
	Kind   OperationKind
	Entity string
	RowRef RowRef
	Record *Record

	// KeyFields is populated only for OpUpsert: the alternate-key field
	// names used to match an existing record.
	KeyFields []string

	// Association fields, populated only for OpAssociate/OpDisassociate.
	RelationshipName string
	SourceID         uuid.UUID
	TargetEntity     string
	TargetID         uuid.UUID
}

// Batch is an ordered sequence of same-entity Operations, bounded to the
// configured batch size (default 100, clamped to [1, 1000] by pkg/config).
type Batch struct {
	Entity     string
	Operations []Operation
}

// Split divides the batch in half, used by the executor to isolate a
// poisoned record after exhausting the retry budget on the whole batch.
// Both halves carry the same Entity; an odd-length batch gives the larger
// half to the first return value.
func (b *Batch) Split() (*Batch, *Batch) {
	n := len(b.Operations)
	mid := (n + 1) / 2
	return &Batch{Entity: b.Entity, Operations: b.Operations[:mid]},
		&Batch{Entity: b.Entity, Operations: b.Operations[mid:]}
}
