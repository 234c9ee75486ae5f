package executor

import (
	"context"
	"time"

	"github.com/joshsmithxrm/ppds-engine/pkg/types"
)

// emitInterval and emitBatch together define "at least every
// min(100 records, 1s)" from §4.4.
const (
	emitBatch    = 100
	emitInterval = time.Second
	maxErrorSamples = 10
)

// delta is posted by worker goroutines; the aggregator is the sole
// consumer and the sole writer to the external progress channel (§4.4
// point 5, §9 "Event-driven progress").
type delta struct {
	entity    string
	success   int64
	failure   int64
	errSample *types.ErrorSample
}

type entityState struct {
	current      int64
	success      int64
	failure      int64
	sinceEmit    int64
	lastEmit     time.Time
	errorSamples []types.ErrorSample
}

// aggregator is the single-producer/single-consumer progress reporter for
// one Execute call. Workers post deltas on in; run() is the sole goroutine
// reading in and writing to out.
type aggregator struct {
	in  chan delta
	out chan<- types.ProgressEvent
}

func newAggregator(out chan<- types.ProgressEvent) *aggregator {
	return &aggregator{in: make(chan delta, 1024), out: out}
}

func (a *aggregator) post(d delta) {
	a.in <- d
}

func (a *aggregator) close() { close(a.in) }

// run drains deltas until the channel is closed, rate-limiting emission
// per entity to emitBatch records or emitInterval, whichever comes first.
func (a *aggregator) run(ctx context.Context) {
	state := make(map[string]*entityState)
	ticker := time.NewTicker(emitInterval)
	defer ticker.Stop()

	get := func(e string) *entityState {
		st, ok := state[e]
		if !ok {
			st = &entityState{lastEmit: time.Now()}
			state[e] = st
		}
		return st
	}

	for {
		select {
		case d, ok := <-a.in:
			if !ok {
				a.emitAll(state, true)
				return
			}
			st := get(d.entity)
			st.current += d.success + d.failure
			st.success += d.success
			st.failure += d.failure
			st.sinceEmit += d.success + d.failure
			if d.errSample != nil && len(st.errorSamples) < maxErrorSamples {
				st.errorSamples = append(st.errorSamples, *d.errSample)
			}
			if st.sinceEmit >= emitBatch {
				a.emit(d.entity, st)
			}
		case <-ticker.C:
			a.emitAll(state, false)
		case <-ctx.Done():
			return
		}
	}
}

func (a *aggregator) emitAll(state map[string]*entityState, final bool) {
	for entity, st := range state {
		if final || st.sinceEmit > 0 || time.Since(st.lastEmit) >= emitInterval {
			a.emit(entity, st)
		}
	}
}

func (a *aggregator) emit(entity string, st *entityState) {
	now := time.Now()
	elapsed := now.Sub(st.lastEmit).Seconds()
	rate := float64(0)
	if elapsed > 0 {
		rate = float64(st.sinceEmit) / elapsed
	}
	a.out <- types.ProgressEvent{
		Phase:        types.PhaseImporting,
		Entity:       entity,
		Current:      st.current,
		SuccessCount: st.success,
		FailureCount: st.failure,
		InstantRate:  rate,
		ErrorSamples: append([]types.ErrorSample(nil), st.errorSamples...),
	}
	st.sinceEmit = 0
	st.lastEmit = now
}
