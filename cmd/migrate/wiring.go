package main

import (
	"github.com/joshsmithxrm/ppds-engine/pkg/config"
	"github.com/joshsmithxrm/ppds-engine/pkg/migration"
	"github.com/joshsmithxrm/ppds-engine/pkg/pool"
	"github.com/joshsmithxrm/ppds-engine/pkg/source"
	"github.com/joshsmithxrm/ppds-engine/pkg/throttle"
)

// buildEngine assembles one Source bound to environmentURL, the Pool and
// Tracker over it, and the Engine that drives them — the same
// constructor-wires-subcomponents shape the pkg/migration package doc
// describes.
func buildEngine(cfg config.Config, environmentURL string) (*pool.Pool, *throttle.Tracker, *migration.Engine) {
	tracker := throttle.NewTracker()
	src := source.New(clientFactory, source.Config{
		EnvironmentURL: environmentURL,
		MaxConcurrent:  cfg.Pool.RequestedDop,
	})
	p := pool.New([]*source.Source{src}, tracker, cfg.PoolOptions())
	engine := migration.NewEngine(p, tracker, sourceReader)
	return p, tracker, engine
}

// loadConfig resolves the --config flag via pkg/config, falling back to
// documented defaults when no file is given.
func loadConfig(path string) (config.Config, error) {
	return config.LoadFile(path)
}
