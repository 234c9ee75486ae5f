package csvload

import (
	"context"

	"github.com/google/uuid"
)

// LookupResolver is the capability the loader consumes to turn a lookup
// column's raw key values into target record ids, kept out of core scope
// the same way migration.Reader keeps Export's query path out of scope.
// The loader calls it once per distinct (targetEntity, keyField) pair
// per file, batching every distinct key value seen across all rows
// (§4.9), rather than issuing one query per row.
type LookupResolver interface {
	ResolveLookups(ctx context.Context, targetEntity, keyField string, keyValues []string) (map[string]uuid.UUID, error)
}
