package migration

import (
	"github.com/google/uuid"
	"github.com/joshsmithxrm/ppds-engine/pkg/executor"
	"github.com/joshsmithxrm/ppds-engine/pkg/types"
)

// Mode selects how Import writes each record.
type Mode int

const (
	ModeCreate Mode = iota
	ModeUpdate
	ModeUpsert
)

func (m Mode) String() string {
	switch m {
	case ModeCreate:
		return "Create"
	case ModeUpdate:
		return "Update"
	case ModeUpsert:
		return "Upsert"
	default:
		return "Unknown"
	}
}

// DefaultTierConcurrency is how many entities within one tier may have an
// Execute call in flight at once (§4.7); distinct from the pool's
// EffectiveDop, which bounds concurrent batches within a single entity's
// Execute call.
const DefaultTierConcurrency = 4

// ImportOptions configures one Import call.
type ImportOptions struct {
	Mode Mode

	// StripOwnerFields removes ownerid/createdby/modifiedby/
	// createdonbehalfby/modifiedonbehalfby from every record before
	// submission.
	StripOwnerFields bool

	// UserMapping translates a source user id to its target-environment
	// equivalent. Applied before StripOwnerFields: an owner field whose
	// source id is present in the mapping is rewritten to the target id
	// and kept; one absent from the mapping is dropped regardless of
	// StripOwnerFields.
	UserMapping map[uuid.UUID]uuid.UUID

	DryRun          bool
	ContinueOnError bool

	// DisablePlugins overrides each entity's EntitySchema.DisablePluginsDefault
	// when non-nil; nil defers to the schema.
	DisablePlugins *bool

	// BypassPlugins is the wire-level bypass hint (§4.4). A non-empty value
	// always wins over DisablePlugins/the schema default, letting a caller
	// pick a granular mode (sync/async/all) instead of the coarse on/off
	// DisablePlugins switch.
	BypassPlugins executor.BypassMode
	BypassFlows   bool

	BatchSize       int
	TierConcurrency int

	ExportFilter map[string]string
	PageSize     int
}

// normalize fills in zero-valued fields with their documented defaults.
func (o ImportOptions) normalize() ImportOptions {
	if o.BatchSize <= 0 {
		o.BatchSize = executor.DefaultPolicy().BatchSize
	}
	if o.TierConcurrency <= 0 {
		o.TierConcurrency = DefaultTierConcurrency
	}
	if o.PageSize <= 0 {
		o.PageSize = DefaultPageSize
	}
	return o
}

// policyFor derives the executor Policy for one entity's batches. The
// bypass-plugins wire hint defaults to es.DisablePluginsDefault, overridden
// by o.DisablePlugins if set, overridden in turn by a non-empty
// o.BypassPlugins (§4.7: "disablePlugins (overrides schema)"). es may be
// nil when the entity isn't in the schema (falls back to "no override").
func (o ImportOptions) policyFor(es *types.EntitySchema) executor.Policy {
	p := executor.DefaultPolicy()
	p.BatchSize = o.BatchSize
	p.BypassFlows = o.BypassFlows
	p.ContinueOnError = o.ContinueOnError

	disable := false
	if es != nil {
		disable = es.DisablePluginsDefault
	}
	if o.DisablePlugins != nil {
		disable = *o.DisablePlugins
	}

	switch {
	case o.BypassPlugins != "":
		p.BypassPlugins = o.BypassPlugins
	case disable:
		p.BypassPlugins = executor.BypassAll
	default:
		p.BypassPlugins = executor.BypassNone
	}
	return p
}
