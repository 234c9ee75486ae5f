package pool

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/joshsmithxrm/ppds-engine/pkg/log"
	"github.com/joshsmithxrm/ppds-engine/pkg/source"
	"github.com/joshsmithxrm/ppds-engine/pkg/throttle"
	"github.com/joshsmithxrm/ppds-engine/pkg/types"
	"github.com/rs/zerolog"
)

// ErrNoSource is returned when no Source can serve the requested
// affinity/endpoint.
var ErrNoSource = errors.New("pool: no source available")

// affinityTTL bounds how long a server-issued affinity cookie binds a
// caller to a specific source, mirroring the JoinToken TTL idiom.
const affinityTTL = 5 * time.Minute

// Options hints the Pool's source-selection policy for one GetClient call.
type Options struct {
	// AffinityCookie, if non-empty and affinity is not disabled, binds
	// this acquisition to whichever source previously issued the cookie.
	AffinityCookie string
}

type affinityBinding struct {
	sourceIndex int
	expiresAt   time.Time
}

// Config configures pool-wide policy.
type Config struct {
	// DisableAffinityCookie strips server affinity cookies so bulk load
	// spreads across back-end nodes instead of sticking to one (§4.3).
	// The zero value is false and New leaves it as given; config.Default
	// sets it to true.
	DisableAffinityCookie bool
}

// Pool multiplexes multiple Sources and applies pool-wide policy. It
// exclusively owns its set of Sources (§3 Ownership).
type Pool struct {
	cfg     Config
	tracker *throttle.Tracker
	logger  zerolog.Logger

	mu       sync.Mutex
	sources  []*source.Source
	rrIndex  int
	affinity map[string]*affinityBinding
}

// New constructs a Pool over sources, sharing tracker for DOP negotiation
// and throttle-aware admission. Both are constructed once by the engine
// and threaded explicitly (§9 "Global singletons").
func New(sources []*source.Source, tracker *throttle.Tracker, cfg Config) *Pool {
	return &Pool{
		cfg:      cfg,
		tracker:  tracker,
		sources:  sources,
		affinity: make(map[string]*affinityBinding),
		logger:   log.WithComponent("pool"),
	}
}

// Lease is a checked-out client; Dispose returns it to the pool exactly
// once, satisfying the "scoped resources" guarantee in §9: every acquired
// client is released on all exit paths from the batch-submission function.
type Lease struct {
	Client source.Client

	pool      *Pool
	src       *source.Source
	tracked   trackedRelease
	disposed  bool
	mu        sync.Mutex
}

type trackedRelease interface {
	Poison()
	Release()
}

// MarkTransient does nothing: it leaves the client unpoisoned, so Dispose
// returns it to the free-list — the Idle<-InUse transition on a transient
// error (§4.3 state machine).
func (l *Lease) MarkTransient() {}

// MarkPermanent poisons the underlying client so Dispose discards it
// instead of recycling it — the Poisoned<-InUse transition on auth or
// permanent error.
func (l *Lease) MarkPermanent() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.tracked != nil {
		l.tracked.Poison()
	}
}

// Environment returns the environment URL of the Source this lease was
// drawn from, used by the executor to key Throttle Tracker updates.
func (l *Lease) Environment() string { return l.src.Environment() }

// Dispose returns the leased client to its Source. Idempotent.
func (l *Lease) Dispose() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.disposed {
		return
	}
	l.disposed = true
	if l.tracked != nil {
		l.tracked.Release()
	}
}

// GetClient returns a leased client, optionally honoring an affinity
// hint. Fails with an AuthenticationError, ErrNoSource, or a
// CancelledError.
func (p *Pool) GetClient(ctx context.Context, opts Options) (*Lease, error) {
	src, err := p.selectSource(opts)
	if err != nil {
		return nil, err
	}

	policy := p.tracker.CurrentPolicy(src.Environment())
	if !policy.Admit {
		select {
		case <-time.After(policy.DeferFor):
		case <-ctx.Done():
			return nil, types.NewCancelledError("deferred: " + ctx.Err().Error())
		}
	}

	client, err := src.Acquire(ctx)
	if err != nil {
		return nil, err
	}

	tracked, _ := client.(trackedRelease)
	return &Lease{Client: client, pool: p, src: src, tracked: tracked}, nil
}

// BindAffinity records a server-issued affinity cookie against the source
// that produced it, honored by future GetClient calls carrying the same
// cookie unless DisableAffinityCookie is set.
func (p *Pool) BindAffinity(cookie string, src *source.Source) {
	if cookie == "" || p.cfg.DisableAffinityCookie {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, s := range p.sources {
		if s == src {
			p.affinity[cookie] = &affinityBinding{sourceIndex: i, expiresAt: time.Now().Add(affinityTTL)}
			return
		}
	}
}

func (p *Pool) selectSource(opts Options) (*source.Source, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.sources) == 0 {
		return nil, ErrNoSource
	}

	if !p.cfg.DisableAffinityCookie && opts.AffinityCookie != "" {
		if binding, ok := p.affinity[opts.AffinityCookie]; ok {
			if time.Now().Before(binding.expiresAt) {
				return p.sources[binding.sourceIndex], nil
			}
			delete(p.affinity, opts.AffinityCookie)
		}
	}

	// Round-robin over sources with spare capacity, matching
	// pkg/scheduler's selectNode fairness idiom.
	n := len(p.sources)
	for i := 0; i < n; i++ {
		idx := (p.rrIndex + i) % n
		src := p.sources[idx]
		if src.InFlight() < src.Capacity() {
			p.rrIndex = (idx + 1) % n
			return src, nil
		}
	}
	// All sources are saturated; still rotate so callers share the queue
	// fairly while blocking inside Source.Acquire.
	src := p.sources[p.rrIndex]
	p.rrIndex = (p.rrIndex + 1) % n
	return src, nil
}

// EffectiveDop is the negotiated maximum concurrent outstanding requests:
// the sum, across sources, of each source's capacity intersected with the
// Throttle Tracker's cap for that source's endpoint.
func (p *Pool) EffectiveDop() int {
	p.mu.Lock()
	sources := append([]*source.Source(nil), p.sources...)
	p.mu.Unlock()

	total := 0
	for _, src := range sources {
		total += p.tracker.EffectiveDop(src.Environment(), src.Capacity())
	}
	return total
}

// Invalidate invalidates every source; future acquisitions re-authenticate.
func (p *Pool) Invalidate(reason string) {
	p.mu.Lock()
	sources := append([]*source.Source(nil), p.sources...)
	p.affinity = make(map[string]*affinityBinding)
	p.mu.Unlock()

	p.logger.Warn().Str("reason", reason).Msg("invalidating pool")
	for _, src := range sources {
		src.Invalidate()
	}
}

// Capacity is the sum of each source's configured MaxConcurrent.
func (p *Pool) Capacity() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	total := 0
	for _, src := range p.sources {
		total += src.Capacity()
	}
	return total
}

// InFlight is the sum of each source's currently checked-out clients.
func (p *Pool) InFlight() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	total := 0
	for _, src := range p.sources {
		total += src.InFlight()
	}
	return total
}

// EndpointStat is one source's point-in-time DOP/in-flight snapshot, used
// by pkg/metrics.Collector to populate per-endpoint gauges on a tick.
type EndpointStat struct {
	Endpoint     string
	EffectiveDop int
	InFlight     int
}

// Snapshot returns a per-source stat for every source currently in the
// pool, read under the pool's lock to avoid racing with AddSource/removal.
func (p *Pool) Snapshot() []EndpointStat {
	p.mu.Lock()
	sources := append([]*source.Source(nil), p.sources...)
	p.mu.Unlock()

	stats := make([]EndpointStat, 0, len(sources))
	for _, src := range sources {
		stats = append(stats, EndpointStat{
			Endpoint:     src.Environment(),
			EffectiveDop: p.tracker.EffectiveDop(src.Environment(), src.Capacity()),
			InFlight:     src.InFlight(),
		})
	}
	return stats
}
