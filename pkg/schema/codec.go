package schema

import (
	"encoding/xml"
	"io"

	"github.com/joshsmithxrm/ppds-engine/pkg/types"
)

// xmlSchema mirrors §6.1's schema document: root <entities>, strict and
// deterministic attribute order on write (struct field order == XML
// attribute order), lenient on read (missing optional attributes adopt
// documented defaults — see ReadSchema).
type xmlSchema struct {
	XMLName  xml.Name    `xml:"entities"`
	Entities []xmlEntity `xml:"entity"`
}

type xmlEntity struct {
	Name             string             `xml:"name,attr"`
	DisplayName      string             `xml:"displayname,attr,omitempty"`
	ObjectTypeCode   int                `xml:"etc,attr,omitempty"`
	PrimaryIDField   string             `xml:"primaryidfield,attr,omitempty"`
	PrimaryNameField string             `xml:"primarynamefield,attr,omitempty"`
	DisablePlugins   bool               `xml:"disableplugins,attr,omitempty"`
	Fields           xmlFieldList       `xml:"fields"`
	Relationships    *xmlRelationshipList `xml:"relationships,omitempty"`
	Filter           string             `xml:"filter,omitempty"`
}

type xmlFieldList struct {
	Fields []xmlField `xml:"field"`
}

type xmlField struct {
	Name             string `xml:"name,attr"`
	DisplayName      string `xml:"displayname,attr,omitempty"`
	Type             string `xml:"type,attr"`
	LookupType       string `xml:"lookupType,attr,omitempty"`
	PrimaryKey       bool   `xml:"primaryKey,attr,omitempty"`
	IsValidForCreate bool   `xml:"isValidForCreate,attr,omitempty"`
	IsValidForUpdate bool   `xml:"isValidForUpdate,attr,omitempty"`
	CustomField      bool   `xml:"customfield,attr,omitempty"`
	MaxLength        int    `xml:"maxlength,attr,omitempty"`
	Precision        int    `xml:"precision,attr,omitempty"`
}

type xmlRelationshipList struct {
	Relationships []xmlRelationship `xml:"relationship"`
}

type xmlRelationship struct {
	Name                      string `xml:"name,attr"`
	ManyToMany                bool   `xml:"manyToMany,attr,omitempty"`
	RelatedEntityName         string `xml:"relatedEntityName,attr,omitempty"`
	ReferencingEntity         string `xml:"referencingEntity,attr,omitempty"`
	ReferencingAttribute      string `xml:"referencingAttribute,attr,omitempty"`
	ReferencedEntity          string `xml:"referencedEntity,attr,omitempty"`
	ReferencedAttribute       string `xml:"referencedAttribute,attr,omitempty"`
	M2MTargetEntity           string `xml:"m2mTargetEntity,attr,omitempty"`
	M2MTargetEntityPrimaryKey string `xml:"m2mTargetEntityPrimaryKey,attr,omitempty"`
	IntersectEntityName       string `xml:"intersectEntityName,attr,omitempty"`
}

const (
	defaultPrimaryNameField = "name"
)

// WriteSchema serializes schema deterministically in the archive's XML
// schema document format.
func WriteSchema(s types.Schema, w io.Writer) error {
	doc := xmlSchema{Entities: make([]xmlEntity, 0, len(s.Entities))}
	for _, e := range s.Entities {
		doc.Entities = append(doc.Entities, toXMLEntity(e))
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return types.NewConfigurationError("failed to write schema document", err)
	}
	return nil
}

// ReadSchema deserializes a schema document, filling in documented
// defaults for optional attributes the writer omitted.
func ReadSchema(r io.Reader) (types.Schema, error) {
	var doc xmlSchema
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return types.Schema{}, types.NewConfigurationError("failed to read schema document", err)
	}

	var out types.Schema
	for _, xe := range doc.Entities {
		es := fromXMLEntity(xe)
		if err := out.Add(es); err != nil {
			return out, err
		}
	}
	return out, nil
}

func toXMLEntity(e types.EntitySchema) xmlEntity {
	xe := xmlEntity{
		Name:             e.LogicalName,
		DisplayName:      e.DisplayName,
		ObjectTypeCode:   e.ObjectTypeCode,
		PrimaryIDField:   e.PrimaryIDField,
		PrimaryNameField: e.PrimaryNameField,
		DisablePlugins:   e.DisablePluginsDefault,
		Filter:           e.FetchFilter,
	}
	for _, f := range e.Fields {
		xf := xmlField{
			Name:             f.Name,
			DisplayName:      f.DisplayName,
			Type:             string(f.Type),
			PrimaryKey:       f.IsPrimaryKey,
			IsValidForCreate: f.IsValidForCreate,
			IsValidForUpdate: f.IsValidForUpdate,
			CustomField:      f.IsCustomField,
			MaxLength:        f.MaxLength,
			Precision:        f.Precision,
		}
		if f.Type == types.FieldTypeLookup {
			xf.LookupType = joinLookupTargets(f.LookupTargets)
		}
		xe.Fields.Fields = append(xe.Fields.Fields, xf)
	}
	if len(e.Relationships) > 0 {
		rl := &xmlRelationshipList{}
		for _, r := range e.Relationships {
			rl.Relationships = append(rl.Relationships, xmlRelationship{
				Name:                      r.Name,
				ManyToMany:                r.IsManyToMany,
				RelatedEntityName:         r.RelatedEntityName,
				ReferencingEntity:         r.ReferencingEntity,
				ReferencingAttribute:      r.ReferencingAttribute,
				ReferencedEntity:          r.ReferencedEntity,
				ReferencedAttribute:       r.ReferencedAttribute,
				M2MTargetEntity:           r.TargetEntity,
				M2MTargetEntityPrimaryKey: r.TargetEntityPrimaryKey,
				IntersectEntityName:       r.IntersectEntityName,
			})
		}
		xe.Relationships = rl
	}
	return xe
}

func fromXMLEntity(xe xmlEntity) types.EntitySchema {
	e := types.EntitySchema{
		LogicalName:           xe.Name,
		DisplayName:           xe.DisplayName,
		ObjectTypeCode:        xe.ObjectTypeCode,
		PrimaryIDField:        xe.PrimaryIDField,
		PrimaryNameField:      xe.PrimaryNameField,
		DisablePluginsDefault: xe.DisablePlugins,
		FetchFilter:           xe.Filter,
	}
	if e.PrimaryIDField == "" {
		e.PrimaryIDField = e.LogicalName + "id"
	}
	if e.PrimaryNameField == "" {
		e.PrimaryNameField = defaultPrimaryNameField
	}

	for _, xf := range xe.Fields.Fields {
		f := types.SchemaField{
			Name:             xf.Name,
			DisplayName:      xf.DisplayName,
			Type:             types.FieldType(xf.Type),
			IsPrimaryKey:     xf.PrimaryKey,
			IsValidForCreate: xf.IsValidForCreate,
			IsValidForUpdate: xf.IsValidForUpdate,
			IsValidForRead:   true,
			IsCustomField:    xf.CustomField,
			MaxLength:        xf.MaxLength,
			Precision:        xf.Precision,
		}
		if xf.LookupType != "" {
			f.LookupTargets = splitLookupTargets(xf.LookupType)
		}
		e.Fields = append(e.Fields, f)
	}

	if xe.Relationships != nil {
		for _, xr := range xe.Relationships.Relationships {
			e.Relationships = append(e.Relationships, types.Relationship{
				Name:                  xr.Name,
				IsManyToMany:          xr.ManyToMany,
				RelatedEntityName:     xr.RelatedEntityName,
				ReferencingEntity:     xr.ReferencingEntity,
				ReferencingAttribute:  xr.ReferencingAttribute,
				ReferencedEntity:      xr.ReferencedEntity,
				ReferencedAttribute:   xr.ReferencedAttribute,
				TargetEntity:          xr.M2MTargetEntity,
				TargetEntityPrimaryKey: xr.M2MTargetEntityPrimaryKey,
				IntersectEntityName:   xr.IntersectEntityName,
			})
		}
	}
	return e
}

func joinLookupTargets(targets []string) string {
	out := ""
	for i, t := range targets {
		if i > 0 {
			out += "|"
		}
		out += t
	}
	return out
}

func splitLookupTargets(s string) []string {
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '|' {
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	out = append(out, s[start:])
	return out
}
