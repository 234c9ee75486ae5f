package executor

import (
	"context"
	"sync/atomic"

	"github.com/joshsmithxrm/ppds-engine/pkg/source"
	"github.com/joshsmithxrm/ppds-engine/pkg/types"
)

// fakeRemote is an in-process stand-in for a Dataverse endpoint, grounded
// on the teacher's gRPC handler-dispatch idiom (pkg/api/server.go) but
// implemented as a plain in-memory source.Client so executor tests never
// touch the network.
type fakeRemote struct {
	calls   int64
	behave  func(callIndex int64, batch types.Batch) (source.BatchResponse, error)
}

func (r *fakeRemote) Execute(ctx context.Context, op types.Operation) (source.Response, error) {
	return source.Response{}, nil
}

func (r *fakeRemote) ExecuteBatched(ctx context.Context, batch types.Batch) (source.BatchResponse, error) {
	idx := atomic.AddInt64(&r.calls, 1) - 1
	return r.behave(idx, batch)
}

func (r *fakeRemote) Close() error { return nil }

func allSucceed(callIndex int64, batch types.Batch) (source.BatchResponse, error) {
	results := make([]source.OperationResult, len(batch.Operations))
	for i, op := range batch.Operations {
		results[i] = source.OperationResult{RowRef: op.RowRef}
	}
	return source.BatchResponse{Results: results}, nil
}

type fakeRemoteFactory struct {
	remote *fakeRemote
}

func (f *fakeRemoteFactory) NewClient(ctx context.Context, identity source.Identity, env string) (source.Client, error) {
	return f.remote, nil
}
