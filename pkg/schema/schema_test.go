package schema

import (
	"bytes"
	"context"
	"testing"

	"github.com/joshsmithxrm/ppds-engine/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	entities map[string]EntityMetadata
}

func (p *fakeProvider) ListEntities(ctx context.Context) ([]EntitySummary, error) {
	var out []EntitySummary
	for _, e := range p.entities {
		out = append(out, EntitySummary{LogicalName: e.LogicalName, DisplayName: e.DisplayName})
	}
	return out, nil
}

func (p *fakeProvider) DescribeEntity(ctx context.Context, logicalName string) (EntityMetadata, error) {
	return p.entities[logicalName], nil
}

func accountMetadata() EntityMetadata {
	return EntityMetadata{
		LogicalName:      "account",
		DisplayName:      "Account",
		PrimaryIDField:   "accountid",
		PrimaryNameField: "name",
		Attributes: []AttributeMetadata{
			{LogicalName: "accountid", Type: types.FieldTypeUniqueIdentifier, IsPrimaryKey: true, IsValidForRead: true, IsValidForCreate: true},
			{LogicalName: "name", Type: types.FieldTypeString, IsValidForRead: true, IsValidForCreate: true, IsValidForUpdate: true, IsCustomAttribute: false},
			{LogicalName: "new_customfield", Type: types.FieldTypeString, IsValidForRead: true, IsValidForCreate: true, IsValidForUpdate: true, IsCustomAttribute: true},
			{LogicalName: "createdon", Type: types.FieldTypeDateTime, IsValidForRead: true, IsValidForCreate: true},
			{LogicalName: "entityimageid", Type: types.FieldTypeUniqueIdentifier, IsValidForRead: true, IsValidForCreate: true},
			{LogicalName: "somevirtual", Type: types.FieldTypeString, IsValidForRead: true, IsValidForCreate: true, Virtual: VirtualOther},
			{LogicalName: "readonlycalc", Type: types.FieldTypeString, IsValidForRead: true},
		},
	}
}

func TestGenerateAppliesFieldIncludePolicy(t *testing.T) {
	g := New(&fakeProvider{entities: map[string]EntityMetadata{"account": accountMetadata()}})

	s, err := g.Generate(context.Background(), []string{"account"}, GenerateOptions{IncludeAuditFields: false})
	require.NoError(t, err)

	es, ok := s.Get("account")
	require.True(t, ok)

	names := map[string]bool{}
	for _, f := range es.Fields {
		names[f.Name] = true
	}
	assert.True(t, names["accountid"], "primary key always included")
	assert.True(t, names["new_customfield"], "custom field included")
	assert.True(t, names["entityimageid"], "BPF/image ref included")
	assert.False(t, names["createdon"], "audit field excluded when IncludeAuditFields=false")
	assert.False(t, names["somevirtual"], "virtual:other excluded")
	assert.False(t, names["readonlycalc"], "not writable, skipped")
}

func TestGenerateIncludeListOverridesExcludeList(t *testing.T) {
	g := New(&fakeProvider{entities: map[string]EntityMetadata{"account": accountMetadata()}})

	s, err := g.Generate(context.Background(), []string{"account"}, GenerateOptions{
		ExcludeAttributes: []string{"new_customfield"},
		IncludeAttributes: []string{"new_customfield"},
	})
	require.NoError(t, err)
	es, _ := s.Get("account")
	found := false
	for _, f := range es.Fields {
		if f.Name == "new_customfield" {
			found = true
		}
	}
	assert.True(t, found, "include list overrides exclude list")
}

func TestSchemaRoundTrip(t *testing.T) {
	g := New(&fakeProvider{entities: map[string]EntityMetadata{"account": accountMetadata()}})
	s, err := g.Generate(context.Background(), []string{"account"}, GenerateOptions{IncludeAuditFields: false})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteSchema(s, &buf))

	read, err := ReadSchema(&buf)
	require.NoError(t, err)

	var buf2 bytes.Buffer
	require.NoError(t, WriteSchema(read, &buf2))

	assert.Equal(t, buf.String(), buf2.String(), "round-trip codec: Read(Write(s)) re-written matches byte-for-byte")
	assert.Equal(t, len(s.Entities), len(read.Entities))

	orig, _ := s.Get("account")
	rt, _ := read.Get("account")
	assert.Equal(t, orig.PrimaryIDField, rt.PrimaryIDField)
	assert.Equal(t, len(orig.Fields), len(rt.Fields))
}
