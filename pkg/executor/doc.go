// Package executor implements the Bulk Operation Executor: it turns a
// stream of per-record operations into batched calls against the pool,
// with retry/backoff and per-record error attribution. Grounded on
// pkg/worker/worker.go's bounded concurrent bookkeeping (a mutex-guarded
// map plus sub-handler composition) and the NoiseFS workers.Pool
// task/result/progress-reporter split (other_examples), backed by
// cenkalti/backoff/v4 for retry timing and golang.org/x/sync/errgroup for
// bounding in-flight batches and propagating the first fatal error.
package executor
