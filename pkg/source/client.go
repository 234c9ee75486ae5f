package source

import (
	"context"

	"github.com/google/uuid"
	"github.com/joshsmithxrm/ppds-engine/pkg/types"
)

// Identity is the opaque capability the core consumes instead of
// performing credential acquisition itself: "given an identity and an
// environment URL, return a ready request-issuing client." How Identity
// is obtained (device code, client secret, certificate) is a CLI/TUI
// concern outside this module.
type Identity struct {
	Principal string
}

// OperationResult is one record's outcome inside a BatchResponse, aligned
// back to the submitted Operation by RowRef.
type OperationResult struct {
	RowRef   types.RowRef
	RecordID uuid.UUID
	Err      error
}

// Response is the result of a single Execute call.
type Response struct {
	RecordID       uuid.UUID
	AffinityCookie string
}

// BatchResponse is the result of a single ExecuteBatched call: the remote
// may report partial success, so each record carries its own error.
type BatchResponse struct {
	Results        []OperationResult
	AffinityCookie string
}

// Client is the request-issuing surface handed out by a Source. A Client
// is not guaranteed to be the same instance across Acquire calls; callers
// must not assume client identity across acquisitions (§4.2).
type Client interface {
	Execute(ctx context.Context, op types.Operation) (Response, error)
	ExecuteBatched(ctx context.Context, batch types.Batch) (BatchResponse, error)
	Close() error
}

// ClientFactory constructs a Client for one identity+environment pair. It
// is the entire authentication surface the core depends on; everything
// about how the client authenticates (mTLS, bearer token, device code) is
// the factory's business, not the Source's.
type ClientFactory interface {
	NewClient(ctx context.Context, identity Identity, environmentURL string) (Client, error)
}
