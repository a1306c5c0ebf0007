package cql

import (
	"github.com/heliumdb/sstable/errs"
	"github.com/heliumdb/sstable/vint"
)

// DefaultMaxDepth bounds the recursion of nested complex-type decode
// (§4.D); a value this deep is almost certainly a corrupt or adversarial
// input rather than a legitimate schema.
const DefaultMaxDepth = 16

// UdtResolver looks up a UDT definition by qualified name so the complex
// codec can decode a UDT's fields by declared name and type instead of
// falling back to the embedded path. *udt.Registry satisfies this without
// this package importing udt, avoiding an import cycle (udt references
// CqlType from this package to describe field types).
type UdtResolver interface {
	ResolveField(qualifiedName string) (fields []UdtFieldSpec, ok bool)
}

// UdtFieldSpec is the subset of a UDT field definition the codec needs.
type UdtFieldSpec struct {
	Name     string
	Type     CqlType
	Nullable bool
}

// Codec decodes and encodes complex (and scalar) values against a
// resolver and a depth budget. The zero value uses DefaultMaxDepth and no
// resolver, which forces every UDT through the embedded fallback path.
type Codec struct {
	Resolver UdtResolver
	MaxDepth int
}

// NewCodec builds a Codec bound to resolver with DefaultMaxDepth.
func NewCodec(resolver UdtResolver) *Codec {
	return &Codec{Resolver: resolver, MaxDepth: DefaultMaxDepth}
}

func (c *Codec) maxDepth() int {
	if c.MaxDepth <= 0 {
		return DefaultMaxDepth
	}
	return c.MaxDepth
}

// Decode reads one value of type t from the front of data, returning the
// value and the number of bytes consumed.
func (c *Codec) Decode(t CqlType, data []byte) (Value, int, error) {
	return c.decode(t, data, 0)
}

func (c *Codec) decode(t CqlType, data []byte, depth int) (Value, int, error) {
	if depth > c.maxDepth() {
		return Value{}, 0, errs.ErrDepthExceeded
	}

	switch t.Tag {
	case TypeList, TypeSet:
		return c.decodeCollection(t, data, depth)
	case TypeMap:
		return c.decodeMap(t, data, depth)
	case TypeTuple:
		return c.decodeTuple(t, data, depth)
	case TypeUdt:
		return c.decodeUdt(t, data, depth)
	case TypeFrozen:
		inner, n, err := c.decode(*t.Elem, data, depth+1)
		if err != nil {
			return Value{}, 0, err
		}
		inner.Frozen = true
		return inner, n, nil
	default:
		if !t.Tag.IsScalar() {
			return Value{}, 0, errs.New(errs.SchemaMismatch, "unknown type tag "+t.Tag.String())
		}
		return DecodeScalar(t.Tag, data)
	}
}

func (c *Codec) decodeCollection(t CqlType, data []byte, depth int) (Value, int, error) {
	count, n, err := vint.Decode(data)
	if err != nil {
		return Value{}, 0, err
	}
	if count == -1 {
		return Null(t.Tag), n, nil
	}
	if count < 0 {
		return Value{}, 0, errs.Corruptf("collection", int64(n), "negative element count %d", count)
	}

	offset := n
	elems := make([]Value, 0, count)
	for i := int64(0); i < count; i++ {
		if offset >= len(data) {
			return Value{}, 0, errs.Corruptf("collection", int64(offset), "truncated element %d", i)
		}
		v, consumed, err := c.decodeElement(*t.Elem, data[offset:], depth+1)
		if err != nil {
			return Value{}, 0, errs.Wrap(errs.Corrupt, "decoding collection element", err)
		}
		elems = append(elems, v)
		offset += consumed
	}

	if t.Tag == TypeSet {
		elems = dedupSet(elems)
	}

	return Value{Tag: t.Tag, List: elems}, offset, nil
}

// dedupSet drops duplicates under Value.Equal while preserving the first
// occurrence's position; order is not otherwise guaranteed by the format
// (spec.md §8's complex round-trip property only requires duplicates be
// dropped, not any particular surviving order).
func dedupSet(elems []Value) []Value {
	out := make([]Value, 0, len(elems))
	for _, e := range elems {
		dup := false
		for _, seen := range out {
			if e.Equal(seen) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, e)
		}
	}
	return out
}

func (c *Codec) decodeMap(t CqlType, data []byte, depth int) (Value, int, error) {
	count, n, err := vint.Decode(data)
	if err != nil {
		return Value{}, 0, err
	}
	if count == -1 {
		return Null(TypeMap), n, nil
	}
	if count < 0 {
		return Value{}, 0, errs.Corruptf("map", int64(n), "negative pair count %d", count)
	}

	offset := n
	pairs := make([]MapEntry, 0, count)
	for i := int64(0); i < count; i++ {
		k, consumed, err := c.decodeElement(*t.Key, data[offset:], depth+1)
		if err != nil {
			return Value{}, 0, errs.Wrap(errs.Corrupt, "decoding map key", err)
		}
		offset += consumed

		v, consumed, err := c.decodeElement(*t.Value, data[offset:], depth+1)
		if err != nil {
			return Value{}, 0, errs.Wrap(errs.Corrupt, "decoding map value", err)
		}
		offset += consumed

		pairs = append(pairs, MapEntry{Key: k, Value: v})
	}

	return Value{Tag: TypeMap, Map: pairs}, offset, nil
}

func (c *Codec) decodeTuple(t CqlType, data []byte, depth int) (Value, int, error) {
	count, n, err := vint.Decode(data)
	if err != nil {
		return Value{}, 0, err
	}
	if count == -1 {
		return Null(TypeTuple), n, nil
	}
	if int(count) != len(t.Elems) {
		return Value{}, 0, errs.ErrTupleArity
	}

	offset := n
	out := make([]Value, 0, count)
	for i, elemType := range t.Elems {
		if offset >= len(data) {
			return Value{}, 0, errs.Corruptf("tuple", int64(offset), "truncated field %d", i)
		}
		idByte := data[offset]
		offset++
		if Type(idByte) != elemType.Tag && Type(idByte) != TypeFrozen {
			return Value{}, 0, errs.Wrap(errs.SchemaMismatch, "tuple field type mismatch", errs.ErrUnknownType)
		}
		v, consumed, err := c.decodeElement(elemType, data[offset:], depth+1)
		if err != nil {
			return Value{}, 0, err
		}
		out = append(out, v)
		offset += consumed
	}

	return Value{Tag: TypeTuple, Tuple: out}, offset, nil
}

func (c *Codec) decodeUdt(t CqlType, data []byte, depth int) (Value, int, error) {
	count, n, err := vint.Decode(data)
	if err != nil {
		return Value{}, 0, err
	}
	if count == -1 {
		return Null(TypeUdt), n, nil
	}
	if count < 0 {
		return Value{}, 0, errs.Corruptf("udt", int64(n), "negative field count %d", count)
	}

	specs, resolved := c.resolveSpecs(t.Name)
	offset := n
	fields := make([]UdtField, 0, count)

	for i := int64(0); i < count; i++ {
		if offset+4 > len(data) {
			return Value{}, 0, errs.Corruptf("udt", int64(offset), "truncated field length for field %d", i)
		}
		length := int32(engine.Uint32(data[offset : offset+4]))
		offset += 4

		name := fieldName(specs, resolved, int(i))

		if length == -1 {
			fieldType := fieldType(specs, resolved, int(i))
			fields = append(fields, UdtField{Name: name, Value: Null(fieldType.Tag)})
			continue
		}
		if length < 0 {
			return Value{}, 0, errs.Corruptf("udt", int64(offset), "negative field length %d", length)
		}
		if offset+int(length) > len(data) {
			return Value{}, 0, errs.Corruptf("udt", int64(offset), "field %d length exceeds remaining bytes", i)
		}

		body := data[offset : offset+int(length)]
		var v Value
		if resolved && int(i) < len(specs) {
			v, _, err = c.decode(specs[i].Type, body, depth+1)
			if err != nil {
				return Value{}, 0, errs.Wrap(errs.Corrupt, "decoding udt field "+name, err)
			}
		} else {
			// Embedded fallback: a one-byte type id precedes the value.
			if len(body) == 0 {
				return Value{}, 0, errs.Corruptf("udt", int64(offset), "empty embedded field body")
			}
			fieldType := CqlType{Tag: Type(body[0])}
			v, _, err = c.decode(fieldType, body[1:], depth+1)
			if err != nil {
				return Value{}, 0, errs.Wrap(errs.Corrupt, "decoding embedded udt field", err)
			}
		}
		offset += int(length)
		fields = append(fields, UdtField{Name: name, Value: v})
	}

	return Value{Tag: TypeUdt, UdtName: t.Name, Fields: fields}, offset, nil
}

// decodeElement reads one length-prefixed element from the front of data:
// a vint giving the element's encoded byte length, or nullLength with no
// payload when the element is null (§4.D: "the length prefix rule from
// §4.B applies"). Collection, map, and tuple elements go through this
// instead of calling c.decode directly, because a fixed-width scalar's
// on-disk shape has no bit pattern reserved for "this is null" the way
// text/blob's length prefix or a UDT field's own 4-byte length does — a
// Boolean true, for instance, is the single byte 0x01, which is exactly
// what AppendScalar also writes for nullLength's 1-byte vint encoding.
// Wrapping every element in its own length prefix, the same way UDT
// fields already are, removes that ambiguity instead of trying to peek
// past it.
func (c *Codec) decodeElement(t CqlType, data []byte, depth int) (Value, int, error) {
	length, n, err := vint.Decode(data)
	if err != nil {
		return Value{}, 0, err
	}
	if length == nullLength {
		return Null(t.Tag), n, nil
	}
	if length < 0 {
		return Value{}, 0, errs.Corruptf("element", int64(n), "negative element length %d", length)
	}
	end := n + int(length)
	if end > len(data) {
		return Value{}, 0, errs.Corruptf("element", int64(n), "element length exceeds remaining bytes")
	}

	v, consumed, err := c.decode(t, data[n:end], depth)
	if err != nil {
		return Value{}, 0, err
	}
	if consumed != int(length) {
		return Value{}, 0, errs.Corruptf("element", int64(n), "element consumed %d bytes, length prefix said %d", consumed, length)
	}
	return v, end, nil
}

// encodeElement is decodeElement's inverse: it writes v's length-prefixed
// encoding (nullLength with no payload if v is null) for use as a
// collection, map, or tuple element.
func (c *Codec) encodeElement(buf []byte, t CqlType, v Value) ([]byte, error) {
	if v.Null {
		return vint.Append(buf, nullLength), nil
	}
	body, err := c.Encode(nil, t, v)
	if err != nil {
		return nil, err
	}
	buf = vint.Append(buf, int64(len(body)))
	return append(buf, body...), nil
}

func (c *Codec) resolveSpecs(qualifiedName string) ([]UdtFieldSpec, bool) {
	if c.Resolver == nil {
		return nil, false
	}
	specs, ok := c.Resolver.ResolveField(qualifiedName)
	return specs, ok
}

func fieldName(specs []UdtFieldSpec, resolved bool, i int) string {
	if resolved && i < len(specs) {
		return specs[i].Name
	}
	return fieldIndexName(i)
}

func fieldType(specs []UdtFieldSpec, resolved bool, i int) Type {
	if resolved && i < len(specs) {
		return specs[i].Type.Tag
	}
	return TypeNull
}

func fieldIndexName(i int) string {
	return "field_" + itoa(i)
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	var buf [20]byte
	pos := len(buf)
	neg := i < 0
	if neg {
		i = -i
	}
	for i > 0 {
		pos--
		buf[pos] = byte('0' + i%10)
		i /= 10
	}
	if neg {
		pos--
		buf[pos] = '-'
	}
	return string(buf[pos:])
}

// Encode appends the on-disk encoding of v (whose Tag must match t.Tag)
// to buf.
func (c *Codec) Encode(buf []byte, t CqlType, v Value) ([]byte, error) {
	if v.Null {
		return vint.Append(buf, -1), nil
	}

	switch t.Tag {
	case TypeList, TypeSet:
		buf = vint.Append(buf, int64(len(v.List)))
		for _, e := range v.List {
			var err error
			buf, err = c.encodeElement(buf, *t.Elem, e)
			if err != nil {
				return nil, err
			}
		}
		return buf, nil
	case TypeMap:
		buf = vint.Append(buf, int64(len(v.Map)))
		for _, e := range v.Map {
			var err error
			buf, err = c.encodeElement(buf, *t.Key, e.Key)
			if err != nil {
				return nil, err
			}
			buf, err = c.encodeElement(buf, *t.Value, e.Value)
			if err != nil {
				return nil, err
			}
		}
		return buf, nil
	case TypeTuple:
		buf = vint.Append(buf, int64(len(v.Tuple)))
		for i, e := range v.Tuple {
			buf = append(buf, byte(t.Elems[i].Tag))
			var err error
			buf, err = c.encodeElement(buf, t.Elems[i], e)
			if err != nil {
				return nil, err
			}
		}
		return buf, nil
	case TypeUdt:
		buf = vint.Append(buf, int64(len(v.Fields)))
		specs, resolved := c.resolveSpecs(t.Name)
		for i, f := range v.Fields {
			if f.Value.Null {
				buf = engine.AppendUint32(buf, uint32(int32(-1)))
				continue
			}
			var fieldBuf []byte
			var err error
			if resolved && i < len(specs) {
				fieldBuf, err = c.Encode(fieldBuf, specs[i].Type, f.Value)
			} else {
				fieldBuf = append(fieldBuf, byte(f.Value.Tag))
				fieldBuf, err = c.Encode(fieldBuf, CqlType{Tag: f.Value.Tag}, f.Value)
			}
			if err != nil {
				return nil, err
			}
			buf = engine.AppendUint32(buf, uint32(int32(len(fieldBuf))))
			buf = append(buf, fieldBuf...)
		}
		return buf, nil
	case TypeFrozen:
		return c.Encode(buf, *t.Elem, v)
	default:
		return AppendScalar(buf, v)
	}
}
