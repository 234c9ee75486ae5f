package schema

import (
	"context"
	"strings"

	"github.com/joshsmithxrm/ppds-engine/pkg/log"
	"github.com/joshsmithxrm/ppds-engine/pkg/types"
	"github.com/rs/zerolog"
)

// auditFields is the fixed set named in §4.5's field-include policy.
var auditFields = map[string]bool{
	"createdon":             true,
	"modifiedon":            true,
	"createdby":             true,
	"modifiedby":            true,
	"createdonbehalfby":     true,
	"modifiedonbehalfby":    true,
	"overriddencreatedon":   true,
}

// bpfFields is the "BPF/image ref" set named in §4.5.
var bpfFields = map[string]bool{
	"processid":     true,
	"stageid":       true,
	"entityimageid": true,
}

// GenerateOptions parameterizes Generate (§4.5).
type GenerateOptions struct {
	IncludeAuditFields       bool
	IncludeAttributes        []string
	ExcludeAttributes        []string
	ExcludeAttributePatterns []string
	DisablePluginsByDefault  bool
}

// Generator builds a Schema from live metadata.
type Generator struct {
	provider MetadataProvider
	logger   zerolog.Logger
}

// New constructs a Generator over provider.
func New(provider MetadataProvider) *Generator {
	return &Generator{provider: provider, logger: log.WithComponent("schema")}
}

// ListEntities delegates to the metadata provider.
func (g *Generator) ListEntities(ctx context.Context) ([]EntitySummary, error) {
	return g.provider.ListEntities(ctx)
}

// Generate builds a Schema for entityNames applying the field-include
// policy in decideInclude to every attribute.
func (g *Generator) Generate(ctx context.Context, entityNames []string, opts GenerateOptions) (types.Schema, error) {
	var out types.Schema
	for _, name := range entityNames {
		meta, err := g.provider.DescribeEntity(ctx, name)
		if err != nil {
			return out, err
		}

		es := types.EntitySchema{
			LogicalName:           meta.LogicalName,
			DisplayName:           meta.DisplayName,
			PrimaryIDField:        meta.PrimaryIDField,
			PrimaryNameField:      meta.PrimaryNameField,
			ObjectTypeCode:        meta.ObjectTypeCode,
			DisablePluginsDefault: opts.DisablePluginsByDefault,
			Relationships:         meta.Relationships,
		}

		for _, attr := range meta.Attributes {
			include, reason := decideInclude(attr, opts)
			g.logger.Debug().Str("entity", name).Str("field", attr.LogicalName).
				Bool("include", include).Str("reason", reason).Msg("field-include policy")
			if !include {
				continue
			}
			es.Fields = append(es.Fields, types.SchemaField{
				Name:             attr.LogicalName,
				DisplayName:      attr.DisplayName,
				Type:             attr.Type,
				IsPrimaryKey:     attr.IsPrimaryKey,
				IsValidForCreate: attr.IsValidForCreate,
				IsValidForUpdate: attr.IsValidForUpdate,
				IsValidForRead:   attr.IsValidForRead,
				IsCustomField:    attr.IsCustomAttribute,
				MaxLength:        attr.MaxLength,
				Precision:        attr.Precision,
				LookupTargets:    attr.LookupTargets,
			})
		}

		if err := es.Validate(); err != nil {
			return out, err
		}
		if err := out.Add(es); err != nil {
			return out, err
		}
	}
	return out, nil
}

// decideInclude applies §4.5's field-include policy table, then the
// explicit include/exclude lists (include overrides exclude overrides the
// table's default).
func decideInclude(attr AttributeMetadata, opts GenerateOptions) (bool, string) {
	if !attr.IsValidForRead {
		return false, "NotValidForRead"
	}
	if !attr.IsValidForCreate && !attr.IsValidForUpdate {
		return false, "NotWritable"
	}

	included, reason := defaultDecision(attr, opts)

	if matchesAny(opts.ExcludeAttributes, opts.ExcludeAttributePatterns, attr.LogicalName) {
		included = false
	}
	if contains(opts.IncludeAttributes, attr.LogicalName) {
		included = true
	}
	return included, reason
}

func defaultDecision(attr AttributeMetadata, opts GenerateOptions) (bool, string) {
	switch {
	case attr.IsPrimaryKey:
		return true, "PK"
	case auditFields[attr.LogicalName]:
		return opts.IncludeAuditFields, "Audit"
	case bpfFields[attr.LogicalName]:
		return true, "BPF"
	case attr.Virtual == VirtualImage:
		return true, "Image"
	case attr.Virtual == VirtualMSP:
		return true, "MSP"
	case attr.Virtual == VirtualOther:
		return false, "Virtual"
	case attr.IsCustomAttribute:
		return true, "Custom"
	default:
		return true, "Customizable"
	}
}

func contains(list []string, name string) bool {
	for _, n := range list {
		if strings.EqualFold(n, name) {
			return true
		}
	}
	return false
}

func matchesAny(list, patterns []string, name string) bool {
	if contains(list, name) {
		return true
	}
	for _, p := range patterns {
		if matchPattern(p, name) {
			return true
		}
	}
	return false
}

// matchPattern supports a single trailing "*" wildcard, the only pattern
// shape documented for excludeAttributePatterns.
func matchPattern(pattern, name string) bool {
	if strings.HasSuffix(pattern, "*") {
		return strings.HasPrefix(name, strings.TrimSuffix(pattern, "*"))
	}
	return strings.EqualFold(pattern, name)
}
