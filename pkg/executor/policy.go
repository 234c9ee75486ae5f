package executor

import "time"

// BypassMode controls the wire-level plugin bypass header; the executor
// treats it as an opaque hint and forwards it unchanged (§4.4).
type BypassMode string

const (
	BypassNone  BypassMode = "none"
	BypassSync  BypassMode = "sync"
	BypassAsync BypassMode = "async"
	BypassAll   BypassMode = "all"
)

// RetryPolicy controls backoff on transient/throttled batch failures.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	// Jitter is a fraction in [0,1]; the realized delay is
	// baseDelay*2^attempt scaled by (1 ± Jitter), capped at MaxDelay.
	Jitter float64
}

// DefaultRetryPolicy mirrors §4.4's example backoff shape.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 5,
		BaseDelay:   200 * time.Millisecond,
		MaxDelay:    30 * time.Second,
		Jitter:      0.2,
	}
}

// Policy parameterizes one Execute call.
type Policy struct {
	BatchSize       int
	BypassPlugins   BypassMode
	BypassFlows     bool
	ContinueOnError bool
	Retry           RetryPolicy
}

// DefaultPolicy returns a Policy with the spec's documented defaults.
func DefaultPolicy() Policy {
	return Policy{
		BatchSize:       100,
		BypassPlugins:   BypassNone,
		ContinueOnError: true,
		Retry:           DefaultRetryPolicy(),
	}
}

// normalize clamps BatchSize to the documented [1, 1000] range and fills
// in a default retry policy when the caller left it zero-valued.
func (p Policy) normalize() Policy {
	if p.BatchSize <= 0 {
		p.BatchSize = 100
	}
	if p.BatchSize > 1000 {
		p.BatchSize = 1000
	}
	if p.Retry.MaxAttempts <= 0 {
		p.Retry = DefaultRetryPolicy()
	}
	return p
}
