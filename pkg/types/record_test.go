package types

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordSetGetPreservesOrder(t *testing.T) {
	r := NewRecord("account", uuid.New())
	r.Set("name", NewStringValue("Acme"))
	r.Set("revenue", NewDecimalValue("1000.50"))
	r.Set("name", NewStringValue("Acme Corp"))

	fields := r.Fields()
	require.Len(t, fields, 2)
	assert.Equal(t, "name", fields[0].Name)
	assert.Equal(t, "revenue", fields[1].Name)

	v, ok := r.Get("name")
	require.True(t, ok)
	s, ok := v.AsString()
	require.True(t, ok)
	assert.Equal(t, "Acme Corp", s)
}

func TestRecordRemove(t *testing.T) {
	r := NewRecord("account", uuid.New())
	r.Set("a", NewStringValue("1"))
	r.Set("b", NewStringValue("2"))
	r.Set("c", NewStringValue("3"))

	r.Remove("b")
	fields := r.Fields()
	require.Len(t, fields, 2)
	assert.Equal(t, "a", fields[0].Name)
	assert.Equal(t, "c", fields[1].Name)

	_, ok := r.Get("b")
	assert.False(t, ok)
}

func TestRecordCloneIsIndependent(t *testing.T) {
	r := NewRecord("account", uuid.New())
	r.Set("name", NewStringValue("Acme"))

	clone := r.Clone()
	clone.Set("name", NewStringValue("Other"))

	orig, _ := r.Get("name")
	cloned, _ := clone.Get("name")
	origStr, _ := orig.AsString()
	clonedStr, _ := cloned.AsString()

	assert.Equal(t, "Acme", origStr)
	assert.Equal(t, "Other", clonedStr)
}
