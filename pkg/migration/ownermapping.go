package migration

import (
	"github.com/google/uuid"
	"github.com/joshsmithxrm/ppds-engine/pkg/types"
)

// ownerFields are the attributes §4.7 treats as ownership/audit metadata,
// never part of an entity's declared schema fields.
var ownerFields = []string{
	"ownerid",
	"createdby",
	"modifiedby",
	"createdonbehalfby",
	"modifiedonbehalfby",
}

// applyOwnerMapping rewrites rec in place per §4.7: userMapping is applied
// first (source id -> target id on each owner field present as an entity
// reference; a field whose source id has no mapping entry is dropped),
// then, if stripOwnerFields is set, every remaining owner field is removed
// unconditionally.
func applyOwnerMapping(rec *types.Record, userMapping map[uuid.UUID]uuid.UUID, stripOwnerFields bool) {
	if len(userMapping) > 0 {
		for _, name := range ownerFields {
			val, ok := rec.Get(name)
			if !ok {
				continue
			}
			ref, ok := val.AsEntityReference()
			if !ok {
				continue
			}
			target, mapped := userMapping[ref.RefID]
			if !mapped {
				rec.Remove(name)
				continue
			}
			ref.RefID = target
			rec.Set(name, types.NewEntityReferenceValue(ref))
		}
	}

	if stripOwnerFields {
		for _, name := range ownerFields {
			rec.Remove(name)
		}
	}
}
