package cql

import (
	"encoding/binary"
	"math"

	"github.com/cespare/xxhash/v2"
)

// HashWithNaNBits returns a hash consistent with EqualBitwise: floats hash
// by bit pattern, so two NaNs with the same payload hash identically, for
// callers that key deduplication on bitwise identity rather than the
// default NaN-never-equal comparison.
func (v Value) HashWithNaNBits() uint64 {
	d := xxhash.New()
	v.writeHash(d, true)
	return d.Sum64()
}

// Hash is like HashWithNaNBits but follows Equal's ordinary float
// semantics: every NaN hashes the same regardless of payload, consistent
// with NaN never comparing equal to itself under Equal (so NaN values
// should never be deduplicated via this hash; callers dealing with
// set/map float keys should prefer HashWithNaNBits).
func (v Value) Hash() uint64 {
	d := xxhash.New()
	v.writeHash(d, false)
	return d.Sum64()
}

func (v Value) writeHash(d *xxhash.Digest, bitwise bool) {
	var tmp [9]byte
	tmp[0] = byte(v.Tag)
	if v.Null {
		tmp[1] = 1
	}
	if v.Frozen {
		tmp[2] = 1
	}
	_, _ = d.Write(tmp[:3])

	if v.Null {
		return
	}

	switch v.Tag {
	case TypeBoolean:
		b := byte(0)
		if v.Bool {
			b = 1
		}
		_, _ = d.Write([]byte{b})
	case TypeInt8:
		_, _ = d.Write([]byte{byte(v.I8)})
	case TypeInt16:
		binary.BigEndian.PutUint16(tmp[:2], uint16(v.I16))
		_, _ = d.Write(tmp[:2])
	case TypeInt32, TypeDate:
		binary.BigEndian.PutUint32(tmp[:4], uint32(v.I32))
		_, _ = d.Write(tmp[:4])
	case TypeInt64, TypeTimestamp, TypeTime, TypeCounter:
		binary.BigEndian.PutUint64(tmp[:8], uint64(v.I64))
		_, _ = d.Write(tmp[:8])
	case TypeFloat32:
		bits := math.Float32bits(v.F32)
		if !bitwise && math.IsNaN(float64(v.F32)) {
			bits = 0x7fc00000
		}
		if !bitwise && v.F32 == 0 {
			bits = 0 // -0 == +0 under Equal
		}
		binary.BigEndian.PutUint32(tmp[:4], bits)
		_, _ = d.Write(tmp[:4])
	case TypeFloat64:
		bits := math.Float64bits(v.F64)
		if !bitwise && math.IsNaN(v.F64) {
			bits = 0x7ff8000000000000
		}
		if !bitwise && v.F64 == 0 {
			bits = 0 // -0 == +0 under Equal
		}
		binary.BigEndian.PutUint64(tmp[:8], bits)
		_, _ = d.Write(tmp[:8])
	case TypeText, TypeAscii, TypeVarchar:
		_, _ = d.WriteString(v.Text)
	case TypeBlob, TypeInet:
		_, _ = d.Write(v.Blob)
	case TypeUUID, TypeTimeUUID:
		_, _ = d.Write(v.UUID[:])
	case TypeList, TypeSet:
		for _, e := range v.List {
			e.writeHash(d, bitwise)
		}
	case TypeMap:
		for _, e := range v.Map {
			e.Key.writeHash(d, bitwise)
			e.Value.writeHash(d, bitwise)
		}
	case TypeTuple:
		for _, e := range v.Tuple {
			e.writeHash(d, bitwise)
		}
	case TypeUdt:
		_, _ = d.WriteString(v.UdtName)
		for _, f := range v.Fields {
			_, _ = d.WriteString(f.Name)
			f.Value.writeHash(d, bitwise)
		}
	}
}
