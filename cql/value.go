package cql

import (
	"math"
)

// Value is a flat tagged union over every representable CQL value,
// including null. Exactly one of the typed fields below is meaningful for
// a given Tag; the rest are zero. This mirrors the teacher's preference
// for a closed tag-switch over open polymorphism (no per-kind interface
// implementations, no boxing beyond what the Go runtime already does for
// the List/Map/Tuple/Fields slices).
type Value struct {
	Tag    Type
	Null   bool
	Bool   bool
	I8     int8
	I16    int16
	I32    int32
	I64    int64
	F32    float32
	F64    float64
	Text   string
	Blob   []byte
	UUID   [16]byte
	List   []Value
	Map    []MapEntry
	Tuple  []Value
	Fields []UdtField
	// UdtName is the qualified "keyspace.name" of a UDT-tagged value. It is
	// set on both decode paths, including the embedded fallback (§4.D),
	// where only the field names are synthesized.
	UdtName string
	// Frozen records whether this value was wrapped by the Frozen marker
	// on disk. Two values that are otherwise identical but differ in
	// Frozen are not Equal: frozen list(int) and list(int) are distinct.
	Frozen bool
}

// MapEntry is one (key, value) pair of a decoded map, kept in on-disk
// order; Value.Map is a slice rather than a Go map so that order survives
// round-tripping (spec.md §8 item 5).
type MapEntry struct {
	Key   Value
	Value Value
}

// UdtField is one named field of a decoded UDT instance. Name is the
// declared field name when a UdtTypeDef was available at decode time, or
// "field_<i>" when decoding fell back to the embedded path (§4.D).
type UdtField struct {
	Name  string
	Value Value
}

// Null constructs the null value for a given tag. Tag is retained so a
// null list(int) still carries enough information to re-encode correctly
// inside a typed container.
func Null(tag Type) Value { return Value{Tag: tag, Null: true} }

func BoolValue(b bool) Value      { return Value{Tag: TypeBoolean, Bool: b} }
func Int8Value(v int8) Value      { return Value{Tag: TypeInt8, I8: v} }
func Int16Value(v int16) Value    { return Value{Tag: TypeInt16, I16: v} }
func Int32Value(v int32) Value    { return Value{Tag: TypeInt32, I32: v} }
func Int64Value(v int64) Value    { return Value{Tag: TypeInt64, I64: v} }
func Float32Value(v float32) Value { return Value{Tag: TypeFloat32, F32: v} }
func Float64Value(v float64) Value { return Value{Tag: TypeFloat64, F64: v} }
func TextValue(s string) Value    { return Value{Tag: TypeText, Text: s} }
func BlobValue(b []byte) Value    { return Value{Tag: TypeBlob, Blob: b} }
func UUIDValue(u [16]byte) Value  { return Value{Tag: TypeUUID, UUID: u} }
func TimestampValue(micros int64) Value { return Value{Tag: TypeTimestamp, I64: micros} }
func CounterValue(v int64) Value  { return Value{Tag: TypeCounter, I64: v} }

// IsNull reports whether v represents a SQL/CQL null, regardless of tag.
func (v Value) IsNull() bool { return v.Null }

// Equal implements element-wise equality per spec.md §3: NaN != NaN,
// +0 and -0 compare equal (ordinary float equality, not bitwise). Use
// HashWithNaNBits-backed comparison when bitwise float identity is
// required for set/map keys.
func (v Value) Equal(other Value) bool {
	return v.equal(other, false)
}

// EqualBitwise is like Equal but compares floats by bit pattern, so NaN
// equals NaN (of the same payload) and +0 != -0. This is the opt-in mode
// spec.md §3 reserves for set/map key comparison.
func (v Value) EqualBitwise(other Value) bool {
	return v.equal(other, true)
}

func (v Value) equal(o Value, bitwise bool) bool {
	if v.Tag != o.Tag || v.Frozen != o.Frozen {
		return false
	}
	if v.Null || o.Null {
		return v.Null == o.Null
	}

	switch v.Tag {
	case TypeBoolean:
		return v.Bool == o.Bool
	case TypeInt8:
		return v.I8 == o.I8
	case TypeInt16:
		return v.I16 == o.I16
	case TypeInt32, TypeDate:
		return v.I32 == o.I32
	case TypeInt64, TypeTimestamp, TypeTime, TypeCounter:
		return v.I64 == o.I64
	case TypeFloat32:
		if bitwise {
			return math.Float32bits(v.F32) == math.Float32bits(o.F32)
		}
		return v.F32 == o.F32
	case TypeFloat64:
		if bitwise {
			return math.Float64bits(v.F64) == math.Float64bits(o.F64)
		}
		return v.F64 == o.F64
	case TypeText, TypeAscii, TypeVarchar:
		return v.Text == o.Text
	case TypeBlob, TypeInet:
		return bytesEqual(v.Blob, o.Blob)
	case TypeUUID, TypeTimeUUID:
		return v.UUID == o.UUID
	case TypeList, TypeSet:
		if len(v.List) != len(o.List) {
			return false
		}
		for i := range v.List {
			if !v.List[i].equal(o.List[i], bitwise) {
				return false
			}
		}
		return true
	case TypeMap:
		if len(v.Map) != len(o.Map) {
			return false
		}
		for i := range v.Map {
			if !v.Map[i].Key.equal(o.Map[i].Key, bitwise) || !v.Map[i].Value.equal(o.Map[i].Value, bitwise) {
				return false
			}
		}
		return true
	case TypeTuple:
		if len(v.Tuple) != len(o.Tuple) {
			return false
		}
		for i := range v.Tuple {
			if !v.Tuple[i].equal(o.Tuple[i], bitwise) {
				return false
			}
		}
		return true
	case TypeUdt:
		if v.UdtName != o.UdtName || len(v.Fields) != len(o.Fields) {
			return false
		}
		for i := range v.Fields {
			if v.Fields[i].Name != o.Fields[i].Name || !v.Fields[i].Value.equal(o.Fields[i].Value, bitwise) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
