package migration

import (
	"context"

	"github.com/google/uuid"
	"github.com/joshsmithxrm/ppds-engine/pkg/types"
)

// DefaultPageSize is §4.7's default paged-query size for Export.
const DefaultPageSize = 5000

// Page is one page of a paged entity query.
type Page struct {
	Records       []*types.Record
	NextPageToken string
	HasMore       bool
}

// Reader is the capability the engine consumes to read source data during
// Export, kept out of core scope the same way source.ClientFactory keeps
// write-path transport/auth out of scope (§1 non-goals: "transport/auth
// acquisition"). How pages are fetched — OData, FetchXML, bulk export API
// — is entirely the implementation's concern.
type Reader interface {
	// QueryPage returns one page of entityName's records matching filter
	// (an opaque, source-defined query predicate; empty means "all
	// records"). pageToken is empty for the first page.
	QueryPage(ctx context.Context, entityName, filter string, pageSize int, pageToken string) (Page, error)

	// QueryAssociations returns the target ids associated with each of
	// sourceIDs under relationshipName.
	QueryAssociations(ctx context.Context, relationshipName string, sourceIDs []uuid.UUID) ([]types.ManyToManyAssociation, error)
}
