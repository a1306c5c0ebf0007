package cql

import "bytes"

// Compare orders two values of the same Tag, returning -1, 0, or 1. It
// panics if v and o have different tags; callers that need a total order
// across mixed tags should compare Tag first. Compare is used by tests
// that assert on sorted output and by callers building their own ordered
// map/set views (spec.md §3 leaves key ordering to the caller).
func (v Value) Compare(o Value) int {
	if v.Tag != o.Tag {
		panic("cql: Compare called on values of different tags")
	}
	if v.Null || o.Null {
		switch {
		case v.Null && o.Null:
			return 0
		case v.Null:
			return -1
		default:
			return 1
		}
	}

	switch v.Tag {
	case TypeBoolean:
		return compareBool(v.Bool, o.Bool)
	case TypeInt8:
		return compareInt(int64(v.I8), int64(o.I8))
	case TypeInt16:
		return compareInt(int64(v.I16), int64(o.I16))
	case TypeInt32, TypeDate:
		return compareInt(int64(v.I32), int64(o.I32))
	case TypeInt64, TypeTimestamp, TypeTime, TypeCounter:
		return compareInt(v.I64, o.I64)
	case TypeFloat32:
		return compareFloat(float64(v.F32), float64(o.F32))
	case TypeFloat64:
		return compareFloat(v.F64, o.F64)
	case TypeText, TypeAscii, TypeVarchar:
		return bytes.Compare([]byte(v.Text), []byte(o.Text))
	case TypeBlob, TypeInet:
		return bytes.Compare(v.Blob, o.Blob)
	case TypeUUID, TypeTimeUUID:
		return bytes.Compare(v.UUID[:], o.UUID[:])
	default:
		panic("cql: Compare is not defined for composite type " + v.Tag.String())
	}
}

func compareBool(a, b bool) int {
	if a == b {
		return 0
	}
	if !a && b {
		return -1
	}
	return 1
}

func compareInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
