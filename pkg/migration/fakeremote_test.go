package migration

import (
	"context"
	"strconv"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/joshsmithxrm/ppds-engine/pkg/source"
	"github.com/joshsmithxrm/ppds-engine/pkg/types"
)

// fakeRemote is an in-process stand-in for a Dataverse endpoint, the same
// shape pkg/executor's tests use so migration tests never touch the
// network either.
type fakeRemote struct {
	calls int64
}

func (r *fakeRemote) Execute(ctx context.Context, op types.Operation) (source.Response, error) {
	return source.Response{}, nil
}

func (r *fakeRemote) ExecuteBatched(ctx context.Context, batch types.Batch) (source.BatchResponse, error) {
	atomic.AddInt64(&r.calls, 1)
	results := make([]source.OperationResult, len(batch.Operations))
	for i, op := range batch.Operations {
		results[i] = source.OperationResult{RowRef: op.RowRef, RecordID: op.Record.ID}
	}
	return source.BatchResponse{Results: results}, nil
}

func (r *fakeRemote) Close() error { return nil }

type fakeRemoteFactory struct {
	remote *fakeRemote
}

func (f *fakeRemoteFactory) NewClient(ctx context.Context, identity source.Identity, env string) (source.Client, error) {
	return f.remote, nil
}

// fakeReader serves Export from an in-memory fixture, one page at a time.
type fakeReader struct {
	pages       map[string][]types.Record
	assocations map[string][]types.ManyToManyAssociation
}

func (f *fakeReader) QueryPage(ctx context.Context, entityName, filter string, pageSize int, pageToken string) (Page, error) {
	all := f.pages[entityName]
	start := 0
	if pageToken != "" {
		start, _ = strconv.Atoi(pageToken)
	}
	end := start + pageSize
	if end > len(all) {
		end = len(all)
	}
	var recs []*types.Record
	for i := start; i < end; i++ {
		rec := all[i]
		recs = append(recs, &rec)
	}
	page := Page{Records: recs}
	if end < len(all) {
		page.HasMore = true
		page.NextPageToken = strconv.Itoa(end)
	}
	return page, nil
}

func (f *fakeReader) QueryAssociations(ctx context.Context, relationshipName string, sourceIDs []uuid.UUID) ([]types.ManyToManyAssociation, error) {
	return f.assocations[relationshipName], nil
}
