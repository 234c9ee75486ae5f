package archive

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/joshsmithxrm/ppds-engine/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildSampleData(t *testing.T) *types.MigrationData {
	t.Helper()

	var s types.Schema
	require.NoError(t, s.Add(types.EntitySchema{
		LogicalName:    "account",
		DisplayName:    "Account",
		PrimaryIDField: "accountid",
		Fields: []types.SchemaField{
			{Name: "accountid", Type: types.FieldTypeUniqueIdentifier, IsPrimaryKey: true},
			{Name: "name", Type: types.FieldTypeString},
			{Name: "revenue", Type: types.FieldTypeMoney},
			{Name: "donotemail", Type: types.FieldTypeBoolean},
			{Name: "primarycontactid", Type: types.FieldTypeLookup, LookupTargets: []string{"contact"}},
		},
	}))

	data := types.NewMigrationData(s)
	data.ExportedAt = time.Date(2026, 1, 15, 10, 30, 0, 1234500, time.UTC)

	accountID := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	contactID := uuid.MustParse("22222222-2222-2222-2222-222222222222")

	rec := types.NewRecord("account", accountID)
	rec.Set("name", types.NewStringValue("Contoso"))
	rec.Set("revenue", types.NewMoneyValue("1000000.50"))
	rec.Set("donotemail", types.NewBoolValue(true))
	rec.Set("primarycontactid", types.NewEntityReferenceValue(types.EntityReference{
		RefEntity: "contact", RefID: contactID, DisplayName: "Jane Doe",
	}))
	data.EntityRecords["account"] = []*types.Record{rec}

	data.Associations["account"] = []types.ManyToManyAssociation{
		{
			RelationshipName: "account_list",
			SourceEntity:     "account",
			SourceID:         accountID,
			TargetEntity:     "list",
			TargetIDField:    "listid",
			TargetIDs:        []uuid.UUID{contactID},
		},
	}
	return data
}

func TestWriteReadRoundTrip(t *testing.T) {
	data := buildSampleData(t)

	fs := newMemFileSystem()
	require.NoError(t, NewWriter(fs).Write(data))

	got, err := NewReader(fs).Read()
	require.NoError(t, err)

	require.Len(t, got.Schema.Entities, 1)
	assert.Equal(t, "account", got.Schema.Entities[0].LogicalName)

	records := got.EntityRecords["account"]
	require.Len(t, records, 1)

	name, ok := records[0].Get("name")
	require.True(t, ok)
	s, _ := name.AsString()
	assert.Equal(t, "Contoso", s)

	revenue, ok := records[0].Get("revenue")
	require.True(t, ok)
	d, _ := revenue.AsDecimal()
	assert.Equal(t, "1000000.50", d)

	flag, ok := records[0].Get("donotemail")
	require.True(t, ok)
	b, _ := flag.AsBool()
	assert.True(t, b)

	ref, ok := records[0].Get("primarycontactid")
	require.True(t, ok)
	er, _ := ref.AsEntityReference()
	assert.Equal(t, "contact", er.RefEntity)
	assert.Equal(t, "Jane Doe", er.DisplayName)

	assocs := got.Associations["account"]
	require.Len(t, assocs, 1)
	assert.Equal(t, "account_list", assocs[0].RelationshipName)
	assert.Len(t, assocs[0].TargetIDs, 1)

	assert.WithinDuration(t, data.ExportedAt, got.ExportedAt, time.Microsecond)
}

func TestReadMissingContentTypesFails(t *testing.T) {
	fs := newMemFileSystem()
	_, err := NewReader(fs).Read()
	assert.Error(t, err)
}

func TestWriteSkipsEntitiesWithNoRecordsOrAssociations(t *testing.T) {
	var s types.Schema
	require.NoError(t, s.Add(types.EntitySchema{
		LogicalName:    "contact",
		PrimaryIDField: "contactid",
		Fields: []types.SchemaField{
			{Name: "contactid", Type: types.FieldTypeUniqueIdentifier, IsPrimaryKey: true},
		},
	}))
	data := types.NewMigrationData(s)

	fs := newMemFileSystem()
	require.NoError(t, NewWriter(fs).Write(data))

	got, err := NewReader(fs).Read()
	require.NoError(t, err)
	assert.Empty(t, got.EntityRecords["contact"])
}
