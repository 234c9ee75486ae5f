package main

import (
	"context"

	"github.com/joshsmithxrm/ppds-engine/pkg/csvload"
	"github.com/joshsmithxrm/ppds-engine/pkg/migration"
	"github.com/joshsmithxrm/ppds-engine/pkg/schema"
	"github.com/joshsmithxrm/ppds-engine/pkg/source"
	"github.com/joshsmithxrm/ppds-engine/pkg/types"
	"github.com/google/uuid"
)

// clientFactory, sourceReader, metadataProvider, and lookupResolver are
// the capabilities credential acquisition, environment discovery, and
// FetchXML/SQL transpiling would otherwise require (SPEC_FULL.md §10
// Non-goals). This binary stays a thin adapter around the core engine;
// a deployment that actually talks to a live environment replaces these
// package variables (in a fork's own init, or by building this package
// alongside a connector package that sets them) with real
// source.ClientFactory / migration.Reader / schema.MetadataProvider /
// csvload.LookupResolver implementations.
var (
	clientFactory    source.ClientFactory    = unconfiguredFactory{}
	sourceReader     migration.Reader        = unconfiguredReader{}
	metadataProvider schema.MetadataProvider = unconfiguredMetadataProvider{}
	lookupResolver   csvload.LookupResolver  = unconfiguredResolver{}
)

const unconfiguredMessage = "no connector configured for this environment; " +
	"this build of migrate has no source.ClientFactory/migration.Reader/" +
	"schema.MetadataProvider wired in (see cmd/migrate/connector.go)"

type unconfiguredFactory struct{}

func (unconfiguredFactory) NewClient(ctx context.Context, identity source.Identity, environmentURL string) (source.Client, error) {
	return nil, types.NewConfigurationError(unconfiguredMessage, nil)
}

type unconfiguredReader struct{}

func (unconfiguredReader) QueryPage(ctx context.Context, entityName, filter string, pageSize int, pageToken string) (migration.Page, error) {
	return migration.Page{}, types.NewConfigurationError(unconfiguredMessage, nil)
}

func (unconfiguredReader) QueryAssociations(ctx context.Context, relationshipName string, sourceIDs []uuid.UUID) ([]types.ManyToManyAssociation, error) {
	return nil, types.NewConfigurationError(unconfiguredMessage, nil)
}

type unconfiguredMetadataProvider struct{}

func (unconfiguredMetadataProvider) ListEntities(ctx context.Context) ([]schema.EntitySummary, error) {
	return nil, types.NewConfigurationError(unconfiguredMessage, nil)
}

func (unconfiguredMetadataProvider) DescribeEntity(ctx context.Context, logicalName string) (schema.EntityMetadata, error) {
	return schema.EntityMetadata{}, types.NewConfigurationError(unconfiguredMessage, nil)
}

type unconfiguredResolver struct{}

func (unconfiguredResolver) ResolveLookups(ctx context.Context, targetEntity, keyField string, keyValues []string) (map[string]uuid.UUID, error) {
	return nil, types.NewConfigurationError(unconfiguredMessage, nil)
}
