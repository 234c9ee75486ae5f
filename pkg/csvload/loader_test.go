package csvload

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/joshsmithxrm/ppds-engine/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const csvBody = `Name,Rev
Acme,1000
Globex,2500
`

func accountSchema() types.EntitySchema {
	return types.EntitySchema{
		LogicalName:    "account",
		PrimaryIDField: "accountid",
		Fields: []types.SchemaField{
			{Name: "accountid", IsPrimaryKey: true},
			{Name: "name", Type: types.FieldTypeString},
			{Name: "revenue", Type: types.FieldTypeDecimal},
		},
	}
}

func TestLoadSuccessPathEmitsOneCreatePerRow(t *testing.T) {
	mapping := MappingDocument{
		EntityLogicalName: "account",
		Columns: map[string]ColumnMapping{
			"Name": {TargetField: "name", Status: StatusAutoMatched},
			"Rev":  {TargetField: "revenue", Status: StatusAutoMatched},
		},
	}
	loader := NewLoader(mapping, accountSchema(), nil)

	ops, errs, err := loader.Load(context.Background(), strings.NewReader(csvBody))
	require.NoError(t, err)

	var got []types.Operation
	for op := range ops {
		got = append(got, op)
	}
	for e := range errs {
		t.Fatalf("unexpected row error: %+v", e)
	}

	require.Len(t, got, 2)
	assert.Equal(t, types.OpCreate, got[0].Kind)
	name, _ := got[0].Record.Get("name")
	s, _ := name.AsString()
	assert.Equal(t, "Acme", s)
	rev, _ := got[0].Record.Get("revenue")
	dec, _ := rev.AsDecimal()
	assert.Equal(t, "1000", dec)
}

func TestLoadUpsertModeWhenAlternateKeyFieldsSet(t *testing.T) {
	mapping := MappingDocument{
		EntityLogicalName:  "account",
		AlternateKeyFields: "name",
		Columns: map[string]ColumnMapping{
			"Name": {TargetField: "name", Status: StatusAutoMatched},
		},
	}
	loader := NewLoader(mapping, accountSchema(), nil)

	ops, _, err := loader.Load(context.Background(), strings.NewReader("Name\nAcme\n"))
	require.NoError(t, err)

	op := <-ops
	assert.Equal(t, types.OpUpsert, op.Kind)
	assert.Equal(t, []string{"name"}, op.KeyFields)
}

type fakeResolver struct {
	table map[string]uuid.UUID
}

func (f *fakeResolver) ResolveLookups(ctx context.Context, targetEntity, keyField string, keyValues []string) (map[string]uuid.UUID, error) {
	out := make(map[string]uuid.UUID)
	for _, v := range keyValues {
		if id, ok := f.table[v]; ok {
			out[v] = id
		}
	}
	return out, nil
}

func TestLoadResolvesLookupColumnInOneBatch(t *testing.T) {
	parentID := uuid.New()
	mapping := MappingDocument{
		EntityLogicalName: "contact",
		Columns: map[string]ColumnMapping{
			"Company": {TargetField: "parentcustomerid", Status: StatusAutoMatched, LookupTargetEntity: "account", LookupKeyField: "name"},
		},
	}
	schema := types.EntitySchema{
		LogicalName:    "contact",
		PrimaryIDField: "contactid",
		Fields: []types.SchemaField{
			{Name: "contactid", IsPrimaryKey: true},
			lookupFieldFor("parentcustomerid", "account"),
		},
	}
	resolver := &fakeResolver{table: map[string]uuid.UUID{"Acme": parentID}}
	loader := NewLoader(mapping, schema, resolver)

	body := "Company\nAcme\nAcme\nUnknownCo\n"
	ops, errs, err := loader.Load(context.Background(), strings.NewReader(body))
	require.NoError(t, err)

	var succeeded int
	for range ops {
		succeeded++
	}
	var failed []types.RecordError
	for e := range errs {
		failed = append(failed, e)
	}
	assert.Equal(t, 2, succeeded)
	require.Len(t, failed, 1)
	assert.Equal(t, types.RowRef("3"), failed[0].RowRef)
}

func lookupFieldFor(name string, target string) types.SchemaField {
	return types.SchemaField{Name: name, Type: types.FieldTypeLookup, LookupTargets: []string{target}}
}
