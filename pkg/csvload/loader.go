package csvload

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/joshsmithxrm/ppds-engine/pkg/log"
	"github.com/joshsmithxrm/ppds-engine/pkg/metrics"
	"github.com/joshsmithxrm/ppds-engine/pkg/types"
	"github.com/jszwec/csvutil"
	"github.com/rs/zerolog"
)

// Loader turns one CSV file into a stream of Operations for one entity,
// per a MappingDocument and the entity's EntitySchema (needed to know
// each target field's wire type).
type Loader struct {
	mapping  MappingDocument
	schema   types.EntitySchema
	resolver LookupResolver
	logger   zerolog.Logger
}

// NewLoader constructs a Loader. resolver may be nil if mapping declares
// no lookup columns.
func NewLoader(mapping MappingDocument, schema types.EntitySchema, resolver LookupResolver) *Loader {
	return &Loader{
		mapping:  mapping,
		schema:   schema,
		resolver: resolver,
		logger:   log.WithComponent("csvload").With().Str("entity", mapping.EntityLogicalName).Logger(),
	}
}

type lookupColumn struct {
	sourceColumn string
	targetField  string
	targetEntity string
	keyField     string
}

// Load reads every row from r, resolves lookup columns in one
// deduplicated batch per (lookupTargetEntity, lookupKeyField) pair, and
// returns a stream of Create/Upsert Operations plus a stream of
// row-level conversion/resolution failures. Both channels are closed
// once every row has been processed or ctx is cancelled.
func (l *Loader) Load(ctx context.Context, r io.Reader) (<-chan types.Operation, <-chan types.RecordError, error) {
	dec, err := csvutil.NewDecoder(csv.NewReader(r))
	if err != nil {
		return nil, nil, types.NewConfigurationError("reading CSV header", err)
	}

	var rows []map[string]string
	for {
		raw := make(map[string]string)
		if err := dec.Decode(&raw); err != nil {
			if err == io.EOF {
				break
			}
			return nil, nil, types.NewConfigurationError("decoding CSV row", err)
		}
		row := make(map[string]string, len(raw))
		for k, v := range raw {
			row[strings.TrimSpace(k)] = v
		}
		rows = append(rows, row)
	}

	var lookupCols []lookupColumn
	for col, cm := range l.mapping.Columns {
		if cm.TargetField == "" || cm.LookupTargetEntity == "" {
			continue
		}
		lookupCols = append(lookupCols, lookupColumn{
			sourceColumn: col,
			targetField:  cm.TargetField,
			targetEntity: cm.LookupTargetEntity,
			keyField:     cm.LookupKeyField,
		})
	}

	resolved, err := l.resolveLookups(ctx, rows, lookupCols)
	if err != nil {
		return nil, nil, err
	}

	ops := make(chan types.Operation, 64)
	errs := make(chan types.RecordError, 64)
	keyFields := l.mapping.AlternateKeys()

	timer := metrics.NewTimer()
	go func() {
		defer close(ops)
		defer close(errs)
		defer timer.ObserveDuration(metrics.CSVLoadDuration)
		for i, row := range rows {
			rowRef := types.RowRef(strconv.Itoa(i + 1))
			select {
			case <-ctx.Done():
				return
			default:
			}
			rec, recErr := l.buildRecord(row, lookupCols, resolved)
			if recErr != nil {
				errs <- types.RecordError{RowRef: rowRef, Entity: l.mapping.EntityLogicalName, Message: recErr.Error()}
				continue
			}
			op := types.Operation{Entity: l.mapping.EntityLogicalName, RowRef: rowRef, Record: rec}
			if len(keyFields) > 0 {
				op.Kind = types.OpUpsert
				op.KeyFields = keyFields
			} else {
				op.Kind = types.OpCreate
			}
			ops <- op
		}
	}()

	return ops, errs, nil
}

func (l *Loader) buildRecord(row map[string]string, lookupCols []lookupColumn, resolved map[lookupColKey]map[string]uuid.UUID) (*types.Record, error) {
	rec := types.NewRecord(l.mapping.EntityLogicalName, uuid.New())

	lookupByColumn := make(map[string]lookupColumn, len(lookupCols))
	for _, lc := range lookupCols {
		lookupByColumn[lc.sourceColumn] = lc
	}

	for col, cm := range l.mapping.Columns {
		if cm.TargetField == "" {
			continue
		}
		raw, present := row[col]
		if !present || raw == "" {
			continue
		}

		if lc, isLookup := lookupByColumn[col]; isLookup {
			table := resolved[lookupColKey{entity: lc.targetEntity, field: lc.keyField}]
			targetID, ok := table[raw]
			if !ok {
				return nil, fmt.Errorf("column %q: no %s matching %s=%q", col, lc.targetEntity, lc.keyField, raw)
			}
			rec.Set(cm.TargetField, types.NewEntityReferenceValue(types.EntityReference{RefEntity: lc.targetEntity, RefID: targetID}))
			continue
		}

		field, ok := l.schema.Field(cm.TargetField)
		if !ok {
			return nil, fmt.Errorf("column %q: target field %q not in schema", col, cm.TargetField)
		}
		val, err := convertScalar(field.Type, raw)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", col, err)
		}
		rec.Set(cm.TargetField, val)
	}

	return rec, nil
}

type lookupColKey struct {
	entity string
	field  string
}

// resolveLookups collects every distinct raw key value seen for each
// lookup column's (targetEntity, keyField) pair and issues exactly one
// ResolveLookups call per pair (§4.9), rather than one query per row.
func (l *Loader) resolveLookups(ctx context.Context, rows []map[string]string, lookupCols []lookupColumn) (map[lookupColKey]map[string]uuid.UUID, error) {
	if len(lookupCols) == 0 {
		return nil, nil
	}

	distinct := make(map[lookupColKey]map[string]struct{})
	for _, lc := range lookupCols {
		key := lookupColKey{entity: lc.targetEntity, field: lc.keyField}
		set, ok := distinct[key]
		if !ok {
			set = make(map[string]struct{})
			distinct[key] = set
		}
		for _, row := range rows {
			if v := row[lc.sourceColumn]; v != "" {
				set[v] = struct{}{}
			}
		}
	}

	resolved := make(map[lookupColKey]map[string]uuid.UUID, len(distinct))
	for key, set := range distinct {
		values := make([]string, 0, len(set))
		for v := range set {
			values = append(values, v)
		}
		if l.resolver == nil {
			return nil, types.NewConfigurationError(fmt.Sprintf("mapping references lookup %s.%s but no LookupResolver was configured", key.entity, key.field), nil)
		}
		table, err := l.resolver.ResolveLookups(ctx, key.entity, key.field, values)
		if err != nil {
			return nil, err
		}
		resolved[key] = table
		l.logger.Debug().Str("targetEntity", key.entity).Str("keyField", key.field).Int("distinctValues", len(values)).Msg("resolved lookup batch")
	}
	return resolved, nil
}
