package source

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/joshsmithxrm/ppds-engine/pkg/log"
	"github.com/joshsmithxrm/ppds-engine/pkg/types"
	"github.com/rs/zerolog"
)

// DefaultMaxConcurrent is the default cap on concurrent outstanding
// clients per Source (§4.2).
const DefaultMaxConcurrent = 52

// Config configures one Source.
type Config struct {
	Identity       Identity
	EnvironmentURL string
	MaxConcurrent  int
}

type leasedClient struct {
	client     Client
	generation int64
	poisoned   bool
}

// Source produces authenticated clients for one identity+environment
// pair. It exclusively owns the clients it hands out (§3 Ownership); the
// Pool borrows from one or more Sources but never constructs clients
// itself.
type Source struct {
	factory ClientFactory
	cfg     Config
	logger  zerolog.Logger

	sem chan struct{}

	mu         sync.Mutex
	free       []*leasedClient
	generation int64
}

// New constructs a Source bound to factory and cfg. maxConcurrent<=0 uses
// DefaultMaxConcurrent.
func New(factory ClientFactory, cfg Config) *Source {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = DefaultMaxConcurrent
	}
	return &Source{
		factory: factory,
		cfg:     cfg,
		logger:  log.WithComponent("source").With().Str("environment", cfg.EnvironmentURL).Logger(),
		sem:     make(chan struct{}, cfg.MaxConcurrent),
	}
}

// Acquire returns a client whose request-issuing surface is a Client.
// It blocks, bounded by MaxConcurrent and ctx cancellation.
func (s *Source) Acquire(ctx context.Context) (Client, error) {
	select {
	case s.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, types.NewCancelledError("acquire: " + ctx.Err().Error())
	}

	s.mu.Lock()
	if n := len(s.free); n > 0 {
		lc := s.free[n-1]
		s.free = s.free[:n-1]
		gen := s.generation
		s.mu.Unlock()
		if lc.generation == gen {
			return &trackedClient{Client: lc.client, source: s, generation: gen}, nil
		}
		_ = lc.client.Close()
	} else {
		s.mu.Unlock()
	}

	gen := atomic.LoadInt64(&s.generation)
	client, err := s.factory.NewClient(ctx, s.cfg.Identity, s.cfg.EnvironmentURL)
	if err != nil {
		<-s.sem
		return nil, types.NewAuthenticationError(s.cfg.EnvironmentURL, err)
	}
	return &trackedClient{Client: client, source: s, generation: gen}, nil
}

// Release returns a client to the free-list, unless it was marked
// poisoned (e.g. by an Unauthorized response) or belongs to a prior
// generation (the Source was invalidated while it was checked out) — in
// either case it is discarded.
func (s *Source) release(lc *leasedClient) {
	defer func() { <-s.sem }()

	s.mu.Lock()
	current := s.generation
	s.mu.Unlock()

	if lc.poisoned || lc.generation != current {
		_ = lc.client.Close()
		return
	}

	s.mu.Lock()
	s.free = append(s.free, lc)
	s.mu.Unlock()
}

// Invalidate marks all cached clients poisoned; the next Acquire will
// re-authenticate via the factory.
func (s *Source) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, lc := range s.free {
		_ = lc.client.Close()
	}
	s.free = nil
	s.generation++
	s.logger.Info().Int64("generation", s.generation).Msg("source invalidated")
}

// Capacity returns the configured MaxConcurrent.
func (s *Source) Capacity() int { return s.cfg.MaxConcurrent }

// InFlight returns the number of clients currently checked out.
func (s *Source) InFlight() int { return len(s.sem) }

// Environment returns the environment URL this Source targets, used by
// the Pool for fairness and affinity routing.
func (s *Source) Environment() string { return s.cfg.EnvironmentURL }

// trackedClient wraps a Client so the Pool/Executor can mark it poisoned
// on auth/permanent errors and have that reflected when released.
type trackedClient struct {
	Client
	source     *Source
	generation int64
	poisoned   bool
}

// Poison marks this client instance so it is discarded rather than
// returned to the free-list on Release.
func (c *trackedClient) Poison() { c.poisoned = true }

// Release returns this client to its owning Source.
func (c *trackedClient) Release() {
	c.source.release(&leasedClient{client: c.Client, generation: c.generation, poisoned: c.poisoned})
}
