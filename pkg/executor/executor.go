package executor

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/joshsmithxrm/ppds-engine/pkg/log"
	"github.com/joshsmithxrm/ppds-engine/pkg/metrics"
	"github.com/joshsmithxrm/ppds-engine/pkg/pool"
	"github.com/joshsmithxrm/ppds-engine/pkg/source"
	"github.com/joshsmithxrm/ppds-engine/pkg/throttle"
	"github.com/joshsmithxrm/ppds-engine/pkg/types"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Executor is the Bulk Operation Executor. It borrows clients from a Pool
// for the span of one batch and never holds one across a sleep/backoff.
type Executor struct {
	pool    *pool.Pool
	tracker *throttle.Tracker
	logger  zerolog.Logger
}

// New constructs an Executor over pool, sharing tracker with the rest of
// the engine so throttle signals observed here feed DOP negotiation
// elsewhere (§9 "Global singletons" — threaded explicitly, never global).
func New(p *pool.Pool, tracker *throttle.Tracker) *Executor {
	return &Executor{pool: p, tracker: tracker, logger: log.WithComponent("executor")}
}

// Execute consumes stream until it is closed or ctx is cancelled,
// partitioning it per-entity into batches of policy.BatchSize, submitting
// up to Pool.EffectiveDop() batches concurrently, and emitting
// ProgressEvents on progress (if non-nil) at least every
// min(100 records, 1s). It returns the aggregate per-record accounting
// described in §4.4; each operation's RowRef appears in exactly one of
// SuccessCount/FailureCount (the at-most-once invariant, §4.4/§8).
func (e *Executor) Execute(ctx context.Context, stream <-chan types.Operation, policy Policy, progress chan<- types.ProgressEvent) (types.ExecutionResult, error) {
	policy = policy.normalize()

	var agg *aggregator
	aggCtx, cancelAgg := context.WithCancel(context.Background())
	var aggWg sync.WaitGroup
	if progress != nil {
		agg = newAggregator(progress)
		aggWg.Add(1)
		go func() {
			defer aggWg.Done()
			agg.run(aggCtx)
		}()
	}
	defer func() {
		if agg != nil {
			agg.close()
		}
		aggWg.Wait()
		cancelAgg()
	}()

	initialDop := e.pool.EffectiveDop()
	if initialDop < 1 {
		initialDop = 1
	}
	sem := make(chan struct{}, initialDop)

	g, gctx := errgroup.WithContext(ctx)

	var mu sync.Mutex
	result := types.ExecutionResult{}

	pending := make(map[string][]types.Operation)
	var order []string

	// resizeAdmission re-queries Pool.EffectiveDop() before every flush so a
	// DOP shrink or recovery observed mid-run (§5: "Effective DOP changes
	// are observed between batches") changes how many batches the next
	// flush is willing to admit, not just what GetClient saw at the top of
	// Execute. The channel's own capacity is fixed at initialDop, so a
	// shrink is realized by parking extra tokens in sem that no batch ever
	// releases (heldPlaceholders), and a recovery by draining them back out.
	// Only the single goroutine driving flush calls this, so heldPlaceholders
	// needs no lock of its own.
	heldPlaceholders := 0
	resizeAdmission := func() {
		dop := e.pool.EffectiveDop()
		if dop < 1 {
			dop = 1
		}
		if dop > initialDop {
			dop = initialDop
		}
		wantHeld := initialDop - dop
		for heldPlaceholders < wantHeld {
			select {
			case sem <- struct{}{}:
				heldPlaceholders++
			default:
				return
			}
		}
		for heldPlaceholders > wantHeld {
			select {
			case <-sem:
				heldPlaceholders--
			default:
				return
			}
		}
	}

	flush := func(entity string) {
		ops := pending[entity]
		if len(ops) == 0 {
			return
		}
		pending[entity] = nil
		batch := types.Batch{Entity: entity, Operations: ops}

		resizeAdmission()
		select {
		case sem <- struct{}{}:
		case <-gctx.Done():
			return
		}
		g.Go(func() error {
			defer func() { <-sem }()
			return e.executeBatchWithRetry(gctx, batch, policy, agg, &mu, &result)
		})
	}

readLoop:
	for {
		select {
		case op, ok := <-stream:
			if !ok {
				break readLoop
			}
			if _, seen := pending[op.Entity]; !seen {
				order = append(order, op.Entity)
			}
			pending[op.Entity] = append(pending[op.Entity], op)
			if len(pending[op.Entity]) >= policy.BatchSize {
				flush(op.Entity)
			}
		case <-gctx.Done():
			break readLoop
		}
	}

	for _, entity := range order {
		flush(entity)
	}

	err := g.Wait()
	if err != nil && types.IsCancelled(err) {
		return result, err
	}
	if err != nil && !policy.ContinueOnError {
		return result, err
	}
	return result, nil
}

// executeBatchWithRetry submits batch, retrying Transient/Throttled
// failures with exponential backoff per policy.Retry. Once the retry
// budget is exhausted (or a permanent per-batch error is returned), it
// isolates the failure by splitting the batch in half (§4.4 point 3).
func (e *Executor) executeBatchWithRetry(ctx context.Context, batch types.Batch, policy Policy, agg *aggregator, mu *sync.Mutex, result *types.ExecutionResult) error {
	b := newBackOff(policy.Retry)

	for attempt := 0; ; attempt++ {
		resp, err := e.callBatch(ctx, batch, policy)
		if err == nil {
			e.applySuccess(batch, resp, agg, mu, result)
			return nil
		}
		if types.IsCancelled(err) {
			return err
		}
		if !types.IsRetryable(err) || attempt >= policy.Retry.MaxAttempts {
			return e.splitAndRetry(ctx, batch, policy, err, agg, mu, result)
		}

		metrics.RetriesTotal.WithLabelValues(batch.Entity).Inc()
		wait := b.NextBackOff()
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return types.NewCancelledError(ctx.Err().Error())
		}
	}
}

// newBackOff builds a cenkalti/backoff/v4 ExponentialBackOff realizing
// §4.4's delay = min(maxDelay, baseDelay*2^attempt)*(1±jitter): Multiplier
// 2 doubles the interval on each NextBackOff call, MaxInterval caps it,
// and RandomizationFactor supplies the jitter term.
func newBackOff(retry RetryPolicy) *backoff.ExponentialBackOff {
	base := retry.BaseDelay
	if base <= 0 {
		base = 200 * time.Millisecond
	}
	max := retry.MaxDelay
	if max <= 0 {
		max = 30 * time.Second
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = base
	b.MaxInterval = max
	b.Multiplier = 2
	b.RandomizationFactor = retry.Jitter
	b.MaxElapsedTime = 0 // the executor owns the attempt cap, not the backoff clock
	b.Reset()
	return b
}

// splitAndRetry isolates a persistently failing batch: a singleton that
// still fails becomes a structured per-record failure; otherwise the
// batch is halved and each half is retried independently.
func (e *Executor) splitAndRetry(ctx context.Context, batch types.Batch, policy Policy, cause error, agg *aggregator, mu *sync.Mutex, result *types.ExecutionResult) error {
	if len(batch.Operations) <= 1 {
		if len(batch.Operations) == 0 {
			return nil
		}
		op := batch.Operations[0]
		code, field := classifyError(cause)
		message := "operation failed after exhausting retry budget"
		if cause != nil {
			message = cause.Error()
		}
		mu.Lock()
		result.FailureCount++
		metrics.RecordsTotal.WithLabelValues(batch.Entity, "failure").Inc()
		result.Errors = append(result.Errors, types.RecordError{
			RowRef:    op.RowRef,
			Entity:    batch.Entity,
			Field:     field,
			ErrorCode: code,
			Message:   message,
		})
		mu.Unlock()
		if agg != nil {
			agg.post(delta{entity: batch.Entity, failure: 1, errSample: &types.ErrorSample{RowRef: op.RowRef, Entity: batch.Entity, Message: message}})
		}
		if !policy.ContinueOnError {
			return types.NewPermanentPerBatchError(batch.Entity, cause)
		}
		return nil
	}

	left, right := batch.Split()
	if err := e.executeBatchWithRetry(ctx, *left, policy, agg, mu, result); err != nil {
		if !policy.ContinueOnError || types.IsCancelled(err) {
			return err
		}
	}
	if err := e.executeBatchWithRetry(ctx, *right, policy, agg, mu, result); err != nil {
		if !policy.ContinueOnError || types.IsCancelled(err) {
			return err
		}
	}
	return nil
}

// classifyError recovers a structured ErrorCode/Field from err when the
// remote tagged it as a PermanentPerRecordError (§7); otherwise it falls
// back to ErrorCodeUnknown so the progress reporter's clustering (§4.8)
// still has a bucket to put it in.
func classifyError(err error) (code, field string) {
	var perr *types.PermanentPerRecordError
	if errors.As(err, &perr) {
		return perr.ErrorCode, perr.Field
	}
	return types.ErrorCodeUnknown, ""
}

// callBatch borrows one client from the pool for the span of this single
// remote call, classifies the outcome for the Throttle Tracker, and
// releases (or poisons) the lease on every exit path.
func (e *Executor) callBatch(ctx context.Context, batch types.Batch, policy Policy) (source.BatchResponse, error) {
	lease, err := e.pool.GetClient(ctx, pool.Options{})
	if err != nil {
		return source.BatchResponse{}, err
	}

	timer := metrics.NewTimer()
	resp, callErr := lease.Client.ExecuteBatched(ctx, batch)
	latency := timer.Duration()
	timer.ObserveDurationVec(metrics.BatchDuration, batch.Entity)

	endpoint := lease.Environment()

	switch {
	case callErr == nil:
		e.tracker.OnResponse(endpoint, latency, false, 0)
		metrics.BatchesTotal.WithLabelValues(batch.Entity, "success").Inc()
		lease.MarkTransient()
		lease.Dispose()
		return resp, nil
	case types.IsThrottled(callErr):
		var te *types.ThrottledError
		retryAfter := time.Duration(0)
		if errors.As(callErr, &te) {
			retryAfter = te.RetryAfter
		}
		e.tracker.OnResponse(endpoint, latency, true, retryAfter)
		metrics.ThrottledTotal.WithLabelValues(endpoint).Inc()
		metrics.BatchesTotal.WithLabelValues(batch.Entity, "throttled").Inc()
		lease.MarkTransient()
		lease.Dispose()
		return resp, callErr
	case types.IsTransient(callErr):
		e.tracker.OnResponse(endpoint, latency, false, 0)
		metrics.BatchesTotal.WithLabelValues(batch.Entity, "transient").Inc()
		lease.MarkTransient()
		lease.Dispose()
		return resp, callErr
	default:
		metrics.BatchesTotal.WithLabelValues(batch.Entity, "permanent").Inc()
		lease.MarkPermanent()
		lease.Dispose()
		return resp, callErr
	}
}

// applySuccess maps a batch response to per-record accounting: the
// remote may report partial success, so each record's error is inspected
// independently (§4.4 point 4).
func (e *Executor) applySuccess(batch types.Batch, resp source.BatchResponse, agg *aggregator, mu *sync.Mutex, result *types.ExecutionResult) {
	byRowRef := make(map[types.RowRef]types.Operation, len(batch.Operations))
	for _, op := range batch.Operations {
		byRowRef[op.RowRef] = op
	}

	mu.Lock()
	defer mu.Unlock()

	var d delta
	d.entity = batch.Entity

	for _, res := range resp.Results {
		op := byRowRef[res.RowRef]
		if res.Err != nil {
			code, field := classifyError(res.Err)
			result.FailureCount++
			d.failure++
			metrics.RecordsTotal.WithLabelValues(batch.Entity, "failure").Inc()
			sample := types.ErrorSample{RowRef: res.RowRef, Entity: batch.Entity, Message: res.Err.Error()}
			result.Errors = append(result.Errors, types.RecordError{
				RowRef:    res.RowRef,
				Entity:    batch.Entity,
				Field:     field,
				ErrorCode: code,
				Message:   res.Err.Error(),
			})
			d.errSample = &sample
			continue
		}
		result.SuccessCount++
		d.success++
		metrics.RecordsTotal.WithLabelValues(batch.Entity, "success").Inc()
		switch op.Kind {
		case types.OpCreate:
			result.CreatedCount++
		case types.OpUpdate, types.OpUpsert:
			result.UpdatedCount++
		case types.OpDelete:
			result.SkippedCount += 0
		}
	}

	if agg != nil {
		agg.post(d)
	}
}
