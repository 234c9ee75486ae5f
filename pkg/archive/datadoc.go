package archive

import (
	"encoding/xml"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/joshsmithxrm/ppds-engine/pkg/types"
)

// xmlDataDoc mirrors §6.1's data document: root <entities timestamp>,
// each <entity name displayname> holding its <records> and optional
// <m2mrelationships>.
type xmlDataDoc struct {
	XMLName   xml.Name        `xml:"entities"`
	Timestamp string          `xml:"timestamp,attr"`
	Entities  []xmlDataEntity `xml:"entity"`
}

type xmlDataEntity struct {
	Name        string         `xml:"name,attr"`
	DisplayName string         `xml:"displayname,attr,omitempty"`
	Records     xmlRecordList  `xml:"records"`
	M2M         *xmlM2MList    `xml:"m2mrelationships,omitempty"`
}

type xmlRecordList struct {
	Records []xmlRecordElem `xml:"record"`
}

type xmlRecordElem struct {
	ID     string         `xml:"id,attr"`
	Fields []xmlFieldElem `xml:"field"`
}

type xmlFieldElem struct {
	Name             string `xml:"name,attr"`
	Value            string `xml:"value,attr"`
	Type             string `xml:"type,attr,omitempty"`
	LookupEntity     string `xml:"lookupentity,attr,omitempty"`
	LookupEntityName string `xml:"lookupentityname,attr,omitempty"`
	Text             string `xml:",chardata"`
}

type xmlM2MList struct {
	Relationships []xmlM2MElem `xml:"m2mrelationship"`
}

type xmlM2MElem struct {
	SourceID            string          `xml:"sourceid,attr"`
	TargetEntityName    string          `xml:"targetentityname,attr"`
	TargetEntityIDField string          `xml:"targetentitynameidfield,attr"`
	RelationshipName    string          `xml:"m2mrelationshipname,attr"`
	TargetIDs           xmlTargetIDList `xml:"targetids"`
}

type xmlTargetIDList struct {
	TargetID []string `xml:"targetid"`
}

// WriteData serializes a MigrationData's records and associations in the
// order entities appear in data.Schema.Entities — deterministic output,
// independent of map iteration order.
func WriteData(data *types.MigrationData, w io.Writer) error {
	doc := xmlDataDoc{Timestamp: data.ExportedAt.UTC().Format(timestampLayout)}

	for _, es := range data.Schema.Entities {
		records := data.EntityRecords[es.LogicalName]
		assocs := data.Associations[es.LogicalName]
		if len(records) == 0 && len(assocs) == 0 {
			continue
		}

		de := xmlDataEntity{Name: es.LogicalName, DisplayName: es.DisplayName}
		for _, r := range records {
			re := xmlRecordElem{ID: r.ID.String()}
			for _, f := range r.Fields() {
				wf := encodeFieldValue(f.Value)
				re.Fields = append(re.Fields, xmlFieldElem{
					Name:             f.Name,
					Value:            wf.value,
					Type:             wf.typ,
					LookupEntity:     wf.lookupEntity,
					LookupEntityName: wf.lookupEntityName,
					Text:             wf.text,
				})
			}
			de.Records.Records = append(de.Records.Records, re)
		}
		if len(assocs) > 0 {
			m2m := &xmlM2MList{}
			for _, a := range assocs {
				targetIDs := make([]string, len(a.TargetIDs))
				for i, id := range a.TargetIDs {
					targetIDs[i] = id.String()
				}
				m2m.Relationships = append(m2m.Relationships, xmlM2MElem{
					SourceID:            a.SourceID.String(),
					TargetEntityName:    a.TargetEntity,
					TargetEntityIDField: a.TargetIDField,
					RelationshipName:    a.RelationshipName,
					TargetIDs:           xmlTargetIDList{TargetID: targetIDs},
				})
			}
			de.M2M = m2m
		}
		doc.Entities = append(doc.Entities, de)
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return types.NewConfigurationError("failed to write data document", err)
	}
	return nil
}

// ReadData deserializes a data document into schema's record and
// association maps. schema provides field type information is not
// required for decoding: the wire format carries an explicit "type"
// attribute per field, so ReadData is self-describing.
func ReadData(r io.Reader, schema types.Schema) (*types.MigrationData, error) {
	var doc xmlDataDoc
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, types.NewConfigurationError("failed to read data document", err)
	}

	data := types.NewMigrationData(schema)
	if doc.Timestamp != "" {
		if ts, err := time.Parse(timestampLayout, doc.Timestamp); err == nil {
			data.ExportedAt = ts
		}
	}

	for _, de := range doc.Entities {
		for _, re := range de.Records.Records {
			id, err := uuid.Parse(re.ID)
			if err != nil {
				return nil, types.NewConfigurationError("invalid record id "+re.ID, err)
			}
			rec := types.NewRecord(de.Name, id)
			for _, fe := range re.Fields {
				fv, err := decodeFieldValue(wireField{
					typ:              fe.Type,
					value:            fe.Value,
					text:             fe.Text,
					lookupEntity:     fe.LookupEntity,
					lookupEntityName: fe.LookupEntityName,
				})
				if err != nil {
					return nil, types.NewConfigurationError("entity "+de.Name+": field "+fe.Name, err)
				}
				rec.Set(fe.Name, fv)
			}
			data.EntityRecords[de.Name] = append(data.EntityRecords[de.Name], rec)
		}
		if de.M2M != nil {
			for _, m := range de.M2M.Relationships {
				sourceID, err := uuid.Parse(m.SourceID)
				if err != nil {
					return nil, types.NewConfigurationError("invalid m2m sourceid "+m.SourceID, err)
				}
				targetIDs := make([]uuid.UUID, len(m.TargetIDs.TargetID))
				for i, ts := range m.TargetIDs.TargetID {
					tid, err := uuid.Parse(ts)
					if err != nil {
						return nil, types.NewConfigurationError("invalid m2m targetid "+ts, err)
					}
					targetIDs[i] = tid
				}
				data.Associations[de.Name] = append(data.Associations[de.Name], types.ManyToManyAssociation{
					RelationshipName: m.RelationshipName,
					SourceEntity:     de.Name,
					SourceID:         sourceID,
					TargetEntity:     m.TargetEntityName,
					TargetIDField:    m.TargetEntityIDField,
					TargetIDs:        targetIDs,
				})
			}
		}
	}

	return data, nil
}
