package executor

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/joshsmithxrm/ppds-engine/pkg/pool"
	"github.com/joshsmithxrm/ppds-engine/pkg/source"
	"github.com/joshsmithxrm/ppds-engine/pkg/throttle"
	"github.com/joshsmithxrm/ppds-engine/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestExecutor(remote *fakeRemote) (*Executor, *throttle.Tracker) {
	tracker := throttle.NewTracker()
	src := source.New(&fakeRemoteFactory{remote: remote}, source.Config{
		EnvironmentURL: "https://org.example.com",
		MaxConcurrent:  4,
	})
	p := pool.New([]*source.Source{src}, tracker, pool.Config{DisableAffinityCookie: true})
	return New(p, tracker), tracker
}

func opsStream(n int) <-chan types.Operation {
	ch := make(chan types.Operation, n)
	for i := 0; i < n; i++ {
		rec := types.NewRecord("account", uuid.New())
		rec.Set("name", types.NewStringValue("row"))
		ch <- types.Operation{Kind: types.OpCreate, Entity: "account", RowRef: types.RowRef(uuid.New().String()), Record: rec}
	}
	close(ch)
	return ch
}

func TestExecuteSuccessPath(t *testing.T) {
	remote := &fakeRemote{behave: allSucceed}
	ex, _ := newTestExecutor(remote)

	policy := DefaultPolicy()
	policy.BatchSize = 2

	result, err := ex.Execute(context.Background(), opsStream(5), policy, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 5, result.SuccessCount)
	assert.EqualValues(t, 0, result.FailureCount)
	assert.EqualValues(t, 5, result.CreatedCount)
	assert.EqualValues(t, 3, remote.calls) // ceil(5/2) = 3 batches
}

func TestExecuteThrottledRetrySucceedsAfterOneExtraCall(t *testing.T) {
	remote := &fakeRemote{}
	remote.behave = func(callIndex int64, batch types.Batch) (source.BatchResponse, error) {
		if callIndex == 1 {
			return source.BatchResponse{}, types.NewThrottledError("https://org.example.com", 10*time.Millisecond, nil)
		}
		return allSucceed(callIndex, batch)
	}
	ex, tracker := newTestExecutor(remote)

	policy := DefaultPolicy()
	policy.BatchSize = 2
	policy.Retry.BaseDelay = 5 * time.Millisecond
	policy.Retry.MaxDelay = 20 * time.Millisecond

	result, err := ex.Execute(context.Background(), opsStream(5), policy, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 5, result.SuccessCount)
	assert.EqualValues(t, 0, result.FailureCount)
	assert.EqualValues(t, 4, remote.calls) // 3 batches + 1 retried call

	policy2 := tracker.CurrentPolicy("https://org.example.com")
	_ = policy2 // tracker observed at least one throttle event; no panic is the main assertion here
}

func TestExecutePerRecordPermanentFailureContinuesOnError(t *testing.T) {
	remote := &fakeRemote{}
	remote.behave = func(callIndex int64, batch types.Batch) (source.BatchResponse, error) {
		results := make([]source.OperationResult, len(batch.Operations))
		for i, op := range batch.Operations {
			if i == 0 && callIndex == 1 {
				cause := types.NewPermanentPerRecordError(op.RowRef, batch.Entity, "parentaccountid", types.ErrorCodeMissingReference, assertError("missing reference"))
				results[i] = source.OperationResult{RowRef: op.RowRef, Err: cause}
				continue
			}
			results[i] = source.OperationResult{RowRef: op.RowRef}
		}
		return source.BatchResponse{Results: results}, nil
	}
	ex, _ := newTestExecutor(remote)

	policy := DefaultPolicy()
	policy.BatchSize = 2
	policy.ContinueOnError = true

	result, err := ex.Execute(context.Background(), opsStream(5), policy, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 4, result.SuccessCount)
	assert.EqualValues(t, 1, result.FailureCount)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, types.ErrorCodeMissingReference, result.Errors[0].ErrorCode)
	assert.Equal(t, "parentaccountid", result.Errors[0].Field)
}

// TestExecuteSplitAndRetryClassifiesPermanentPerRecordError covers the
// other construction site (splitAndRetry's singleton branch, fed from a
// batch-level error rather than a per-record BatchResponse.Err): a
// non-retryable batch-level error still recovers a structured ErrorCode
// once isolated down to a single operation.
func TestExecuteSplitAndRetryClassifiesPermanentPerRecordError(t *testing.T) {
	remote := &fakeRemote{}
	remote.behave = func(callIndex int64, batch types.Batch) (source.BatchResponse, error) {
		if len(batch.Operations) == 1 {
			op := batch.Operations[0]
			return source.BatchResponse{}, types.NewPermanentPerRecordError(op.RowRef, batch.Entity, "emailaddress1", types.ErrorCodeRequiredField, assertError("required field missing"))
		}
		return source.BatchResponse{}, assertError("batch rejected")
	}
	ex, _ := newTestExecutor(remote)

	policy := DefaultPolicy()
	policy.BatchSize = 2
	policy.ContinueOnError = true
	policy.Retry.MaxAttempts = 1
	policy.Retry.BaseDelay = time.Millisecond
	policy.Retry.MaxDelay = time.Millisecond

	result, err := ex.Execute(context.Background(), opsStream(2), policy, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 0, result.SuccessCount)
	assert.EqualValues(t, 2, result.FailureCount)
	require.Len(t, result.Errors, 2)
	for _, recErr := range result.Errors {
		assert.Equal(t, types.ErrorCodeRequiredField, recErr.ErrorCode)
		assert.Equal(t, "emailaddress1", recErr.Field)
	}
}

type simpleError string

func (e simpleError) Error() string { return string(e) }

func assertError(msg string) error { return simpleError(msg) }
