package cql

import (
	"math"

	"github.com/heliumdb/sstable/endian"
	"github.com/heliumdb/sstable/errs"
	"github.com/heliumdb/sstable/vint"
)

// nullLength is the length-prefix sentinel that marks a null value at the
// position a scalar or complex value would otherwise occupy (§4.B).
const nullLength int64 = -1

var engine = endian.GetBigEndianEngine()

// AppendScalar encodes v, which must carry a scalar Tag (Type.IsScalar),
// onto buf and returns the extended slice. Null values of any tag encode
// as the nullLength vint with no payload.
func AppendScalar(buf []byte, v Value) ([]byte, error) {
	if v.Null {
		return vint.Append(buf, nullLength), nil
	}

	switch v.Tag {
	case TypeBoolean:
		b := byte(0)
		if v.Bool {
			b = 1
		}
		return append(buf, b), nil
	case TypeInt8:
		return append(buf, byte(v.I8)), nil
	case TypeInt16:
		return engine.AppendUint16(buf, uint16(v.I16)), nil
	case TypeInt32:
		return engine.AppendUint32(buf, uint32(v.I32)), nil
	case TypeInt64, TypeCounter:
		return engine.AppendUint64(buf, uint64(v.I64)), nil
	case TypeFloat32:
		return engine.AppendUint32(buf, math.Float32bits(v.F32)), nil
	case TypeFloat64:
		return engine.AppendUint64(buf, math.Float64bits(v.F64)), nil
	case TypeText, TypeAscii, TypeVarchar:
		buf = vint.Append(buf, int64(len(v.Text)))
		return append(buf, v.Text...), nil
	case TypeBlob, TypeInet:
		buf = vint.Append(buf, int64(len(v.Blob)))
		return append(buf, v.Blob...), nil
	case TypeUUID, TypeTimeUUID:
		return append(buf, v.UUID[:]...), nil
	case TypeTimestamp:
		return engine.AppendUint64(buf, uint64(v.I64)), nil
	case TypeDate:
		return engine.AppendUint32(buf, uint32(v.I32)), nil
	case TypeTime:
		return engine.AppendUint64(buf, uint64(v.I64)), nil
	default:
		return nil, errs.New(errs.Internal, "AppendScalar called with non-scalar tag "+v.Tag.String())
	}
}

// DecodeScalar reads one value of the given tag from the front of data,
// returning the value and the number of bytes consumed. For the
// length-prefixed tags (Text, Ascii, Varchar, Blob, Inet) a nullLength
// prefix decodes to Null(tag); fixed-width tags carry no length prefix
// and are always read as their fixed layout.
func DecodeScalar(tag Type, data []byte) (Value, int, error) {
	if tag == TypeText || tag == TypeAscii || tag == TypeVarchar || tag == TypeBlob || tag == TypeInet {
		length, n, err := vint.Decode(data)
		if err != nil {
			return Value{}, 0, err
		}
		if length == nullLength {
			return Null(tag), n, nil
		}
		if length < 0 {
			return Value{}, 0, errs.Corruptf("scalar", 0, "negative length-prefixed field %d", length)
		}
		end := n + int(length)
		if end > len(data) {
			return Value{}, 0, errs.Corruptf("scalar", int64(n), "length-prefixed field exceeds remaining bytes")
		}
		payload := data[n:end]
		if tag == TypeBlob || tag == TypeInet {
			b := make([]byte, len(payload))
			copy(b, payload)
			return Value{Tag: tag, Blob: b}, end, nil
		}
		return Value{Tag: tag, Text: string(payload)}, end, nil
	}

	width := fixedWidth(tag)
	if len(data) < width {
		return Value{}, 0, errs.Corruptf("scalar", 0, "%s needs %d bytes, have %d", tag, width, len(data))
	}

	switch tag {
	case TypeBoolean:
		return Value{Tag: tag, Bool: data[0] != 0}, 1, nil
	case TypeInt8:
		return Value{Tag: tag, I8: int8(data[0])}, 1, nil
	case TypeInt16:
		return Value{Tag: tag, I16: int16(engine.Uint16(data))}, 2, nil
	case TypeInt32:
		return Value{Tag: tag, I32: int32(engine.Uint32(data))}, 4, nil
	case TypeInt64, TypeCounter:
		return Value{Tag: tag, I64: int64(engine.Uint64(data))}, 8, nil
	case TypeFloat32:
		return Value{Tag: tag, F32: math.Float32frombits(engine.Uint32(data))}, 4, nil
	case TypeFloat64:
		return Value{Tag: tag, F64: math.Float64frombits(engine.Uint64(data))}, 8, nil
	case TypeUUID, TypeTimeUUID:
		var u [16]byte
		copy(u[:], data[:16])
		return Value{Tag: tag, UUID: u}, 16, nil
	case TypeTimestamp:
		return Value{Tag: tag, I64: int64(engine.Uint64(data))}, 8, nil
	case TypeDate:
		return Value{Tag: tag, I32: int32(engine.Uint32(data))}, 4, nil
	case TypeTime:
		return Value{Tag: tag, I64: int64(engine.Uint64(data))}, 8, nil
	default:
		return Value{}, 0, errs.New(errs.Internal, "DecodeScalar called with non-scalar tag "+tag.String())
	}
}

// fixedWidth returns the on-disk width of a fixed-width scalar tag; the
// length-prefixed tags (Text/Ascii/Varchar/Blob/Inet) are handled before
// this is consulted.
func fixedWidth(tag Type) int {
	switch tag {
	case TypeBoolean, TypeInt8:
		return 1
	case TypeInt16:
		return 2
	case TypeInt32, TypeDate:
		return 4
	case TypeInt64, TypeCounter, TypeFloat64, TypeTimestamp, TypeTime:
		return 8
	case TypeFloat32:
		return 4
	case TypeUUID, TypeTimeUUID:
		return 16
	default:
		return 0
	}
}
