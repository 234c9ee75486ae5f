package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEmptyDocumentReturnsDefaults(t *testing.T) {
	cfg, err := Load(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadOverridesOnlySpecifiedFields(t *testing.T) {
	doc := `
batch:
  size: 250
migration:
  tierConcurrency: 8
`
	cfg, err := Load(strings.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, 250, cfg.Batch.Size)
	assert.Equal(t, 8, cfg.Migration.TierConcurrency)
	assert.Equal(t, Default().Retry, cfg.Retry)
}

func TestLoadRejectsBatchSizeOutOfRange(t *testing.T) {
	_, err := Load(strings.NewReader("batch:\n  size: 5000\n"))
	require.Error(t, err)
}

func TestLoadRejectsUnknownProgressFormat(t *testing.T) {
	_, err := Load(strings.NewReader("progress:\n  format: xml\n"))
	require.Error(t, err)
}

func TestLoadFileMissingPathReturnsDefaults(t *testing.T) {
	cfg, err := LoadFile("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	cfg, err = LoadFile("/nonexistent/path/config.yaml")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestExecutorPolicyConversion(t *testing.T) {
	cfg := Default()
	policy := cfg.ExecutorPolicy()
	assert.Equal(t, cfg.Batch.Size, policy.BatchSize)
	assert.Equal(t, cfg.Retry.MaxAttempts, policy.Retry.MaxAttempts)
}
