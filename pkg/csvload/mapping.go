package csvload

import (
	"io"
	"strings"

	"github.com/joshsmithxrm/ppds-engine/pkg/types"
	"gopkg.in/yaml.v3"
)

// ColumnStatus classifies how confidently a source column was matched to
// a target field, for display in a review UI; the loader itself only
// cares whether TargetField is set.
type ColumnStatus string

const (
	StatusAutoMatched        ColumnStatus = "auto-matched"
	StatusNeedsConfiguration ColumnStatus = "needs-configuration"
	StatusNoMatch            ColumnStatus = "no-match"
)

// ColumnMapping describes how one CSV column maps onto one entity field.
type ColumnMapping struct {
	TargetField        string       `yaml:"targetField"`
	Status             ColumnStatus `yaml:"status"`
	LookupTargetEntity string       `yaml:"lookupTargetEntity,omitempty"`
	LookupKeyField     string       `yaml:"lookupKeyField,omitempty"`
}

// MappingDocument is the CSV-to-entity mapping document (§6.2).
type MappingDocument struct {
	EntityLogicalName string                   `yaml:"entityLogicalName"`
	AlternateKeyFields string                  `yaml:"alternateKeyFields,omitempty"`
	Columns           map[string]ColumnMapping `yaml:"columns"`
}

// AlternateKeys splits AlternateKeyFields on commas, trimming whitespace;
// empty if AlternateKeyFields is unset (the loader then emits Create
// rather than Upsert operations).
func (m MappingDocument) AlternateKeys() []string {
	if m.AlternateKeyFields == "" {
		return nil
	}
	parts := strings.Split(m.AlternateKeyFields, ",")
	keys := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			keys = append(keys, p)
		}
	}
	return keys
}

// LoadMapping reads and validates a mapping document from r.
func LoadMapping(r io.Reader) (*MappingDocument, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, types.NewConfigurationError("reading mapping document", err)
	}
	var doc MappingDocument
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, types.NewConfigurationError("parsing mapping document", err)
	}
	if doc.EntityLogicalName == "" {
		return nil, types.NewConfigurationError("mapping document missing entityLogicalName", nil)
	}
	for col, cm := range doc.Columns {
		if cm.TargetField == "" {
			continue
		}
		switch cm.Status {
		case StatusAutoMatched, StatusNeedsConfiguration, StatusNoMatch, "":
		default:
			return nil, types.NewConfigurationError("column "+col+": unknown status "+string(cm.Status), nil)
		}
	}
	return &doc, nil
}
