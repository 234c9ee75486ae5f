package metrics

import (
	"time"

	"github.com/joshsmithxrm/ppds-engine/pkg/pool"
)

// Collector polls a Pool on a fixed interval and publishes its
// per-endpoint DOP/in-flight state as gauges, mirroring the ticker-driven
// polling loop used for cluster-wide gauges, generalized from a
// long-lived node/service inventory to the one Pool an engine run holds.
type Collector struct {
	pool   *pool.Pool
	stopCh chan struct{}
}

// NewCollector creates a new metrics collector over p.
func NewCollector(p *pool.Pool) *Collector {
	return &Collector{
		pool:   p,
		stopCh: make(chan struct{}),
	}
}

// Start begins collecting metrics every 15 seconds until Stop is called.
func (c *Collector) Start() {
	ticker := time.NewTicker(15 * time.Second)
	go func() {
		c.collect()

		for {
			select {
			case <-ticker.C:
				c.collect()
			case <-c.stopCh:
				ticker.Stop()
				return
			}
		}
	}()
}

// Stop stops the collector.
func (c *Collector) Stop() {
	close(c.stopCh)
}

func (c *Collector) collect() {
	for _, stat := range c.pool.Snapshot() {
		EffectiveDop.WithLabelValues(stat.Endpoint).Set(float64(stat.EffectiveDop))
		SourcesInFlight.WithLabelValues(stat.Endpoint).Set(float64(stat.InFlight))
	}
}
