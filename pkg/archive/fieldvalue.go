package archive

import (
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/joshsmithxrm/ppds-engine/pkg/types"
)

// timestampLayout is §6.1's ISO 8601 UTC form with 7 fractional-second
// digits.
const timestampLayout = "2006-01-02T15:04:05.0000000Z"

// wireField is the decomposed form of one <field/> element: the encoding
// conventions in §6.1 (booleans as "1"/"0", invariant-culture decimals,
// entity references written as a value attribute only; the reader also
// accepts a legacy element-text GUID).
type wireField struct {
	typ              string
	value            string
	text             string
	lookupEntity     string
	lookupEntityName string
}

// encodeFieldValue converts a FieldValue to its wire representation.
func encodeFieldValue(v types.FieldValue) wireField {
	switch v.Kind() {
	case types.KindString:
		s, _ := v.AsString()
		return wireField{typ: "string", value: s}
	case types.KindInt:
		i, _ := v.AsInt()
		return wireField{typ: "int", value: strconv.FormatInt(i, 10)}
	case types.KindBigInt:
		i, _ := v.AsInt()
		return wireField{typ: "bigint", value: strconv.FormatInt(i, 10)}
	case types.KindDecimal:
		d, _ := v.AsDecimal()
		return wireField{typ: "decimal", value: d}
	case types.KindFloat:
		f, _ := v.AsFloat()
		return wireField{typ: "float", value: strconv.FormatFloat(f, 'g', -1, 64)}
	case types.KindBool:
		b, _ := v.AsBool()
		if b {
			return wireField{typ: "bool", value: "1"}
		}
		return wireField{typ: "bool", value: "0"}
	case types.KindTimestamp:
		t, _ := v.AsTimestamp()
		return wireField{typ: "timestamp", value: t.UTC().Format(timestampLayout)}
	case types.KindGUID:
		g, _ := v.AsGUID()
		return wireField{typ: "guid", value: g.String()}
	case types.KindEntityReference:
		// §9 open question, decided: the writer emits only the
		// value-attribute lookup form; the reader stays lenient and also
		// accepts the legacy element-text form (see decodeFieldValue).
		ref, _ := v.AsEntityReference()
		return wireField{
			typ:              "entityreference",
			value:            ref.RefID.String(),
			lookupEntity:     ref.RefEntity,
			lookupEntityName: ref.DisplayName,
		}
	case types.KindOptionValue:
		o, _ := v.AsOptionValue()
		return wireField{typ: "optionvalue", value: strconv.FormatInt(int64(o), 10)}
	case types.KindMoney:
		d, _ := v.AsDecimal()
		return wireField{typ: "money", value: d}
	default:
		return wireField{typ: "string"}
	}
}

// decodeFieldValue is encodeFieldValue's inverse.
func decodeFieldValue(f wireField) (types.FieldValue, error) {
	switch f.typ {
	case "", "string":
		return types.NewStringValue(f.value), nil
	case "int":
		i, err := strconv.ParseInt(f.value, 10, 64)
		if err != nil {
			return types.FieldValue{}, fmt.Errorf("archive: decode int field: %w", err)
		}
		return types.NewIntValue(i), nil
	case "bigint":
		i, err := strconv.ParseInt(f.value, 10, 64)
		if err != nil {
			return types.FieldValue{}, fmt.Errorf("archive: decode bigint field: %w", err)
		}
		return types.NewBigIntValue(i), nil
	case "decimal":
		return types.NewDecimalValue(f.value), nil
	case "float":
		fl, err := strconv.ParseFloat(f.value, 64)
		if err != nil {
			return types.FieldValue{}, fmt.Errorf("archive: decode float field: %w", err)
		}
		return types.NewFloatValue(fl), nil
	case "bool":
		return types.NewBoolValue(f.value == "1"), nil
	case "timestamp":
		t, err := time.Parse(timestampLayout, f.value)
		if err != nil {
			return types.FieldValue{}, fmt.Errorf("archive: decode timestamp field: %w", err)
		}
		return types.NewTimestampValue(t), nil
	case "guid":
		g, err := uuid.Parse(f.value)
		if err != nil {
			return types.FieldValue{}, fmt.Errorf("archive: decode guid field: %w", err)
		}
		return types.NewGUIDValue(g), nil
	case "entityreference":
		id := f.value
		if f.text != "" {
			id = f.text
		}
		g, err := uuid.Parse(id)
		if err != nil {
			return types.FieldValue{}, fmt.Errorf("archive: decode entityreference field: %w", err)
		}
		return types.NewEntityReferenceValue(types.EntityReference{
			RefEntity:   f.lookupEntity,
			RefID:       g,
			DisplayName: f.lookupEntityName,
		}), nil
	case "optionvalue":
		o, err := strconv.ParseInt(f.value, 10, 32)
		if err != nil {
			return types.FieldValue{}, fmt.Errorf("archive: decode optionvalue field: %w", err)
		}
		return types.NewOptionValue(int32(o)), nil
	case "money":
		return types.NewMoneyValue(f.value), nil
	default:
		return types.FieldValue{}, fmt.Errorf("archive: unknown field type %q", f.typ)
	}
}
