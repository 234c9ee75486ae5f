package types

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// FieldKind tags the concrete representation held by a FieldValue.
type FieldKind int

const (
	KindString FieldKind = iota
	KindInt
	KindBigInt
	KindDecimal
	KindFloat
	KindBool
	KindTimestamp
	KindGUID
	KindEntityReference
	KindOptionValue
	KindMoney
)

func (k FieldKind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindBigInt:
		return "bigint"
	case KindDecimal:
		return "decimal"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindTimestamp:
		return "timestamp"
	case KindGUID:
		return "guid"
	case KindEntityReference:
		return "entityreference"
	case KindOptionValue:
		return "optionvalue"
	case KindMoney:
		return "money"
	default:
		return "unknown"
	}
}

// EntityReference is a lookup value: the target entity, its id, and an
// optional display name carried for convenience (never authoritative).
type EntityReference struct {
	RefEntity   string
	RefID       uuid.UUID
	DisplayName string
}

// FieldValue is a closed sum type over the wire value kinds a Record field
// may hold. It is immutable once constructed; callers build a new value
// rather than mutating one in place.
type FieldValue struct {
	kind FieldKind
	s    string
	i    int64
	f    float64
	b    bool
	t    time.Time
	guid uuid.UUID
	ref  EntityReference
	opt  int32
	// dec holds decimal/money values as a string to preserve exact
	// precision; the wire codec never round-trips through float64.
	dec string
}

func (v FieldValue) Kind() FieldKind { return v.kind }

func NewStringValue(s string) FieldValue { return FieldValue{kind: KindString, s: s} }

func NewIntValue(i int64) FieldValue { return FieldValue{kind: KindInt, i: i} }

func NewBigIntValue(i int64) FieldValue { return FieldValue{kind: KindBigInt, i: i} }

func NewDecimalValue(dec string) FieldValue { return FieldValue{kind: KindDecimal, dec: dec} }

func NewFloatValue(f float64) FieldValue { return FieldValue{kind: KindFloat, f: f} }

func NewBoolValue(b bool) FieldValue { return FieldValue{kind: KindBool, b: b} }

func NewTimestampValue(t time.Time) FieldValue { return FieldValue{kind: KindTimestamp, t: t.UTC()} }

func NewGUIDValue(id uuid.UUID) FieldValue { return FieldValue{kind: KindGUID, guid: id} }

func NewEntityReferenceValue(ref EntityReference) FieldValue {
	return FieldValue{kind: KindEntityReference, ref: ref}
}

func NewOptionValue(code int32) FieldValue { return FieldValue{kind: KindOptionValue, opt: code} }

func NewMoneyValue(dec string) FieldValue { return FieldValue{kind: KindMoney, dec: dec} }

// AsString returns the string payload; ok is false if Kind() != KindString.
func (v FieldValue) AsString() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.s, true
}

func (v FieldValue) AsInt() (int64, bool) {
	if v.kind != KindInt && v.kind != KindBigInt {
		return 0, false
	}
	return v.i, true
}

func (v FieldValue) AsDecimal() (string, bool) {
	if v.kind != KindDecimal && v.kind != KindMoney {
		return "", false
	}
	return v.dec, true
}

func (v FieldValue) AsFloat() (float64, bool) {
	if v.kind != KindFloat {
		return 0, false
	}
	return v.f, true
}

func (v FieldValue) AsBool() (bool, bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.b, true
}

func (v FieldValue) AsTimestamp() (time.Time, bool) {
	if v.kind != KindTimestamp {
		return time.Time{}, false
	}
	return v.t, true
}

func (v FieldValue) AsGUID() (uuid.UUID, bool) {
	if v.kind != KindGUID {
		return uuid.Nil, false
	}
	return v.guid, true
}

func (v FieldValue) AsEntityReference() (EntityReference, bool) {
	if v.kind != KindEntityReference {
		return EntityReference{}, false
	}
	return v.ref, true
}

func (v FieldValue) AsOptionValue() (int32, bool) {
	if v.kind != KindOptionValue {
		return 0, false
	}
	return v.opt, true
}

// String renders a human-readable form used for logging and CSV output;
// it is not the wire encoding (see pkg/archive for that).
func (v FieldValue) String() string {
	switch v.kind {
	case KindString:
		return v.s
	case KindInt, KindBigInt:
		return fmt.Sprintf("%d", v.i)
	case KindDecimal, KindMoney:
		return v.dec
	case KindFloat:
		return fmt.Sprintf("%g", v.f)
	case KindBool:
		if v.b {
			return "1"
		}
		return "0"
	case KindTimestamp:
		return v.t.Format("2006-01-02T15:04:05.0000000Z")
	case KindGUID:
		return v.guid.String()
	case KindEntityReference:
		return v.ref.RefID.String()
	case KindOptionValue:
		return fmt.Sprintf("%d", v.opt)
	default:
		return ""
	}
}
