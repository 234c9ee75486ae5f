// Package config loads the run-time configuration document for the
// migration CLI: a YAML file (same library and flat-per-concern
// struct convention the teacher uses for its own manifest loading)
// covering batch size, retry policy, DOP, affinity, page size, tier
// concurrency, and progress format.
package config

import (
	"io"
	"os"
	"time"

	"github.com/joshsmithxrm/ppds-engine/pkg/executor"
	"github.com/joshsmithxrm/ppds-engine/pkg/migration"
	"github.com/joshsmithxrm/ppds-engine/pkg/pool"
	"github.com/joshsmithxrm/ppds-engine/pkg/progress"
	"github.com/joshsmithxrm/ppds-engine/pkg/types"
	"gopkg.in/yaml.v3"
)

// BatchConfig mirrors executor.Policy's wire-relevant fields.
type BatchConfig struct {
	Size            int    `yaml:"size"`
	ContinueOnError bool   `yaml:"continueOnError"`
	BypassPlugins   string `yaml:"bypassPlugins"`
	BypassFlows     bool   `yaml:"bypassFlows"`
}

// RetryConfig mirrors executor.RetryPolicy.
type RetryConfig struct {
	MaxAttempts int           `yaml:"maxAttempts"`
	BaseDelay   time.Duration `yaml:"baseDelay"`
	MaxDelay    time.Duration `yaml:"maxDelay"`
	Jitter      float64       `yaml:"jitter"`
}

// PoolConfig mirrors pool.Config plus the per-source DOP request the
// engine uses to construct each source.Source.
type PoolConfig struct {
	RequestedDop          int  `yaml:"requestedDop"`
	DisableAffinityCookie bool `yaml:"disableAffinityCookie"`
}

// MigrationConfig covers Import-specific knobs layered on top of the
// batch/retry settings shared with CSV load.
type MigrationConfig struct {
	TierConcurrency int `yaml:"tierConcurrency"`
	PageSize        int `yaml:"pageSize"`
}

// ProgressConfig mirrors progress.Options plus the output format choice.
type ProgressConfig struct {
	Format          string `yaml:"format"`
	NoColor         bool   `yaml:"noColor"`
	MaxErrorSamples int    `yaml:"maxErrorSamples"`
}

// Config is the top-level run configuration document.
type Config struct {
	Batch     BatchConfig     `yaml:"batch"`
	Retry     RetryConfig     `yaml:"retry"`
	Pool      PoolConfig      `yaml:"pool"`
	Migration MigrationConfig `yaml:"migration"`
	Progress  ProgressConfig  `yaml:"progress"`
}

// Default returns the spec's documented defaults (§4.4, §4.7, §4.8),
// used when no config file is supplied.
func Default() Config {
	return Config{
		Batch: BatchConfig{
			Size:            100,
			ContinueOnError: true,
			BypassPlugins:   string(executor.BypassNone),
		},
		Retry: RetryConfig{
			MaxAttempts: 5,
			BaseDelay:   200 * time.Millisecond,
			MaxDelay:    30 * time.Second,
			Jitter:      0.2,
		},
		Pool: PoolConfig{
			RequestedDop:          52,
			DisableAffinityCookie: true,
		},
		Migration: MigrationConfig{
			TierConcurrency: migration.DefaultTierConcurrency,
			PageSize:        migration.DefaultPageSize,
		},
		Progress: ProgressConfig{
			Format:          string(progress.FormatHuman),
			MaxErrorSamples: progress.DefaultMaxErrorSamples,
		},
	}
}

// Load reads and validates a Config document from r, filling any
// zero-valued section from Default().
func Load(r io.Reader) (Config, error) {
	cfg := Default()
	b, err := io.ReadAll(r)
	if err != nil {
		return Config{}, types.NewConfigurationError("reading config document", err)
	}
	if len(b) == 0 {
		return cfg, nil
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, types.NewConfigurationError("parsing config document", err)
	}
	return cfg, cfg.Validate()
}

// LoadFile opens path and calls Load; a missing path returns Default()
// rather than an error, since a config file is optional (§4.10).
func LoadFile(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return Config{}, types.NewConfigurationError("opening config file "+path, err)
	}
	defer f.Close()
	return Load(f)
}

// Validate checks the invariants §4.4/§4.7 place on these knobs.
func (c Config) Validate() error {
	if c.Batch.Size < 1 || c.Batch.Size > 1000 {
		return types.NewConfigurationError("batch.size must be in [1, 1000]", nil)
	}
	if c.Retry.MaxAttempts < 0 {
		return types.NewConfigurationError("retry.maxAttempts must be >= 0", nil)
	}
	if c.Retry.Jitter < 0 || c.Retry.Jitter > 1 {
		return types.NewConfigurationError("retry.jitter must be in [0, 1]", nil)
	}
	if c.Pool.RequestedDop < 1 {
		return types.NewConfigurationError("pool.requestedDop must be >= 1", nil)
	}
	if c.Migration.TierConcurrency < 1 {
		return types.NewConfigurationError("migration.tierConcurrency must be >= 1", nil)
	}
	if c.Migration.PageSize < 1 {
		return types.NewConfigurationError("migration.pageSize must be >= 1", nil)
	}
	switch progress.Format(c.Progress.Format) {
	case progress.FormatHuman, progress.FormatJSON:
	default:
		return types.NewConfigurationError("progress.format must be \"human\" or \"json\"", nil)
	}
	return nil
}

// RetryPolicy converts RetryConfig to executor.RetryPolicy.
func (c Config) RetryPolicy() executor.RetryPolicy {
	return executor.RetryPolicy{
		MaxAttempts: c.Retry.MaxAttempts,
		BaseDelay:   c.Retry.BaseDelay,
		MaxDelay:    c.Retry.MaxDelay,
		Jitter:      c.Retry.Jitter,
	}
}

// ExecutorPolicy converts Config to an executor.Policy.
func (c Config) ExecutorPolicy() executor.Policy {
	return executor.Policy{
		BatchSize:       c.Batch.Size,
		BypassPlugins:   executor.BypassMode(c.Batch.BypassPlugins),
		BypassFlows:     c.Batch.BypassFlows,
		ContinueOnError: c.Batch.ContinueOnError,
		Retry:           c.RetryPolicy(),
	}
}

// PoolOptions converts Config to a pool.Config.
func (c Config) PoolOptions() pool.Config {
	return pool.Config{DisableAffinityCookie: c.Pool.DisableAffinityCookie}
}

// ProgressOptions converts Config to progress.Options.
func (c Config) ProgressOptions() progress.Options {
	return progress.Options{
		NoColor:         c.Progress.NoColor,
		MaxErrorSamples: c.Progress.MaxErrorSamples,
	}
}
