package csvload

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joshsmithxrm/ppds-engine/pkg/types"
)

// timeLayouts are tried in order when parsing a datetime column; the
// archive's own wire layout first, then RFC3339, covering both a
// previously-exported CSV and a hand-authored one.
var timeLayouts = []string{
	"2006-01-02T15:04:05.0000000Z",
	time.RFC3339,
	"2006-01-02",
}

// convertScalar parses raw into a FieldValue of the given type. Lookup
// fields are not handled here — they are resolved separately via
// LookupResolver and built by the caller.
func convertScalar(ft types.FieldType, raw string) (types.FieldValue, error) {
	switch ft {
	case types.FieldTypeString:
		return types.NewStringValue(raw), nil
	case types.FieldTypeInteger:
		n, err := strconv.ParseInt(raw, 10, 32)
		if err != nil {
			return types.FieldValue{}, fmt.Errorf("invalid integer %q: %w", raw, err)
		}
		return types.NewIntValue(n), nil
	case types.FieldTypeBigInt:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return types.FieldValue{}, fmt.Errorf("invalid bigint %q: %w", raw, err)
		}
		return types.NewBigIntValue(n), nil
	case types.FieldTypeDecimal:
		if _, err := strconv.ParseFloat(raw, 64); err != nil {
			return types.FieldValue{}, fmt.Errorf("invalid decimal %q: %w", raw, err)
		}
		return types.NewDecimalValue(raw), nil
	case types.FieldTypeMoney:
		if _, err := strconv.ParseFloat(raw, 64); err != nil {
			return types.FieldValue{}, fmt.Errorf("invalid money %q: %w", raw, err)
		}
		return types.NewMoneyValue(raw), nil
	case types.FieldTypeFloat:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return types.FieldValue{}, fmt.Errorf("invalid float %q: %w", raw, err)
		}
		return types.NewFloatValue(f), nil
	case types.FieldTypeBoolean:
		b, err := parseBool(raw)
		if err != nil {
			return types.FieldValue{}, err
		}
		return types.NewBoolValue(b), nil
	case types.FieldTypeDateTime:
		t, err := parseTime(raw)
		if err != nil {
			return types.FieldValue{}, err
		}
		return types.NewTimestampValue(t), nil
	case types.FieldTypeUniqueIdentifier:
		id, err := uuid.Parse(raw)
		if err != nil {
			return types.FieldValue{}, fmt.Errorf("invalid uniqueidentifier %q: %w", raw, err)
		}
		return types.NewGUIDValue(id), nil
	case types.FieldTypeOptionSet:
		n, err := strconv.ParseInt(raw, 10, 32)
		if err != nil {
			return types.FieldValue{}, fmt.Errorf("invalid optionset %q: %w", raw, err)
		}
		return types.NewOptionValue(int32(n)), nil
	default:
		return types.FieldValue{}, fmt.Errorf("unsupported column field type %q for CSV load", ft)
	}
}

func parseBool(raw string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes":
		return true, nil
	case "0", "false", "no", "":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean %q", raw)
	}
}

func parseTime(raw string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid datetime %q", raw)
}
