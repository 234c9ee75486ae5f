package migration

import (
	"testing"

	"github.com/joshsmithxrm/ppds-engine/pkg/executor"
	"github.com/joshsmithxrm/ppds-engine/pkg/types"
	"github.com/stretchr/testify/assert"
)

func TestPolicyForDefaultsToSchemaDisablePluginsDefault(t *testing.T) {
	es := &types.EntitySchema{LogicalName: "account", DisablePluginsDefault: true}
	opts := ImportOptions{}

	p := opts.policyFor(es)
	assert.Equal(t, executor.BypassAll, p.BypassPlugins)
}

func TestPolicyForSchemaDefaultFalseYieldsBypassNone(t *testing.T) {
	es := &types.EntitySchema{LogicalName: "account", DisablePluginsDefault: false}
	opts := ImportOptions{}

	p := opts.policyFor(es)
	assert.Equal(t, executor.BypassNone, p.BypassPlugins)
}

func TestPolicyForDisablePluginsOverridesSchemaDefault(t *testing.T) {
	es := &types.EntitySchema{LogicalName: "account", DisablePluginsDefault: true}
	no := false
	opts := ImportOptions{DisablePlugins: &no}

	p := opts.policyFor(es)
	assert.Equal(t, executor.BypassNone, p.BypassPlugins)
}

func TestPolicyForExplicitBypassPluginsWinsOverEverything(t *testing.T) {
	es := &types.EntitySchema{LogicalName: "account", DisablePluginsDefault: true}
	no := false
	opts := ImportOptions{DisablePlugins: &no, BypassPlugins: executor.BypassAsync}

	p := opts.policyFor(es)
	assert.Equal(t, executor.BypassAsync, p.BypassPlugins)
}

func TestPolicyForNilSchemaFallsBackToNoOverride(t *testing.T) {
	opts := ImportOptions{}

	p := opts.policyFor(nil)
	assert.Equal(t, executor.BypassNone, p.BypassPlugins)
}
