package migration

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/joshsmithxrm/ppds-engine/pkg/pool"
	"github.com/joshsmithxrm/ppds-engine/pkg/source"
	"github.com/joshsmithxrm/ppds-engine/pkg/throttle"
	"github.com/joshsmithxrm/ppds-engine/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(remote *fakeRemote, reader Reader) *Engine {
	tracker := throttle.NewTracker()
	src := source.New(&fakeRemoteFactory{remote: remote}, source.Config{
		EnvironmentURL: "https://org.example.com",
		MaxConcurrent:  4,
	})
	p := pool.New([]*source.Source{src}, tracker, pool.Config{DisableAffinityCookie: true})
	return NewEngine(p, tracker, reader)
}

func lookupField(name string, targets ...string) types.SchemaField {
	return types.SchemaField{Name: name, Type: types.FieldTypeLookup, LookupTargets: targets}
}

func accountContactSchema(t *testing.T) types.Schema {
	t.Helper()
	var s types.Schema
	require.NoError(t, s.Add(types.EntitySchema{
		LogicalName:   "account",
		PrimaryIDField: "accountid",
		Fields: []types.SchemaField{
			{Name: "accountid", IsPrimaryKey: true},
			{Name: "name", Type: types.FieldTypeString},
			lookupField("parentaccountid", "account"),
		},
	}))
	require.NoError(t, s.Add(types.EntitySchema{
		LogicalName:   "contact",
		PrimaryIDField: "contactid",
		Fields: []types.SchemaField{
			{Name: "contactid", IsPrimaryKey: true},
			{Name: "fullname", Type: types.FieldTypeString},
			lookupField("parentcustomerid", "account"),
		},
	}))
	return s
}

func TestImportTieredWithSelfReferenceDefersParentLookup(t *testing.T) {
	schema := accountContactSchema(t)

	parentID := uuid.New()
	childID := uuid.New()
	contactID := uuid.New()

	parent := types.NewRecord("account", parentID)
	parent.Set("name", types.NewStringValue("Parent Co"))
	child := types.NewRecord("account", childID)
	child.Set("name", types.NewStringValue("Child Co"))
	child.Set("parentaccountid", types.NewEntityReferenceValue(types.EntityReference{RefEntity: "account", RefID: parentID}))

	contact := types.NewRecord("contact", contactID)
	contact.Set("fullname", types.NewStringValue("Jane Doe"))
	contact.Set("parentcustomerid", types.NewEntityReferenceValue(types.EntityReference{RefEntity: "account", RefID: parentID}))

	data := types.NewMigrationData(schema)
	data.EntityRecords["account"] = []*types.Record{parent, child}
	data.EntityRecords["contact"] = []*types.Record{contact}

	remote := &fakeRemote{}
	engine := newTestEngine(remote, nil)

	result, err := engine.Import(context.Background(), data, ImportOptions{Mode: ModeCreate}, nil)
	require.NoError(t, err)
	assert.True(t, result.Success)
	// 2 account creates + 1 contact create + 1 deferred parentaccountid
	// update on child.
	assert.EqualValues(t, 4, result.SuccessCount)
	assert.EqualValues(t, 0, result.FailureCount)
	// account tier (1 batch), contact tier (1 batch), deferred pass (1
	// batch) — three Execute calls, one remote call each.
	assert.EqualValues(t, 3, remote.calls)
}

func TestImportConvertsAssociationsToOneOperationPerTargetID(t *testing.T) {
	schema := accountContactSchema(t)
	require.NoError(t, schema.Entities[0].Validate())

	data := types.NewMigrationData(schema)
	sourceID := uuid.New()
	data.EntityRecords["account"] = []*types.Record{types.NewRecord("account", sourceID)}
	data.Associations["account"] = []types.ManyToManyAssociation{
		{
			RelationshipName: "account_list",
			SourceEntity:     "account",
			SourceID:         sourceID,
			TargetEntity:     "list",
			TargetIDs:        []uuid.UUID{uuid.New(), uuid.New()},
		},
	}

	remote := &fakeRemote{}
	engine := newTestEngine(remote, nil)

	result, err := engine.Import(context.Background(), data, ImportOptions{Mode: ModeCreate}, nil)
	require.NoError(t, err)
	// 1 account create + 1 batch of 2 associate operations.
	assert.EqualValues(t, 3, result.SuccessCount)
	assert.EqualValues(t, 2, remote.calls)
}

func TestExportWalksTiersAndPagesUntilExhausted(t *testing.T) {
	schema := accountContactSchema(t)

	accountID := uuid.New()
	pages := map[string][]types.Record{
		"account": {*types.NewRecord("account", accountID)},
		"contact": {*types.NewRecord("contact", uuid.New()), *types.NewRecord("contact", uuid.New())},
	}
	reader := &fakeReader{pages: pages}

	engine := newTestEngine(&fakeRemote{}, reader)
	data, err := engine.Export(context.Background(), schema, nil, nil, 1)
	require.NoError(t, err)
	assert.Len(t, data.EntityRecords["account"], 1)
	assert.Len(t, data.EntityRecords["contact"], 2)
}

func TestImportDryRunSkipsWritesAndReportsPlannedCounts(t *testing.T) {
	schema := accountContactSchema(t)
	rec := types.NewRecord("account", uuid.New())
	rec.Set("name", types.NewStringValue("Acme"))

	data := types.NewMigrationData(schema)
	data.EntityRecords["account"] = []*types.Record{rec}

	remote := &fakeRemote{}
	engine := newTestEngine(remote, nil)

	result, err := engine.Import(context.Background(), data, ImportOptions{Mode: ModeCreate, DryRun: true}, nil)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.EqualValues(t, 0, result.SuccessCount)
	assert.EqualValues(t, 1, result.SkippedCount)
	assert.EqualValues(t, 0, remote.calls, "dry run must never submit a remote call")
}

func TestImportStripOwnerFieldsRemovesOwnerAttributes(t *testing.T) {
	schema := accountContactSchema(t)
	rec := types.NewRecord("account", uuid.New())
	rec.Set("name", types.NewStringValue("Acme"))
	rec.Set("ownerid", types.NewEntityReferenceValue(types.EntityReference{RefEntity: "systemuser", RefID: uuid.New()}))

	data := types.NewMigrationData(schema)
	data.EntityRecords["account"] = []*types.Record{rec}

	remote := &fakeRemote{}
	engine := newTestEngine(remote, nil)

	result, err := engine.Import(context.Background(), data, ImportOptions{Mode: ModeCreate, StripOwnerFields: true}, nil)
	require.NoError(t, err)
	assert.True(t, result.Success)

	_, stillPresent := rec.Get("ownerid")
	assert.True(t, stillPresent, "original record must be untouched; stripping operates on a clone")
}
