// Package schema implements the table-shape and type-grammar layer the
// reader consumes to make sense of a file's column descriptors (§3
// TableSchema, §6 "Schema input"): parsing the canonical CQL type-string
// grammar into a cql.CqlType tree, and ingesting a TableSchema from JSON.
package schema

import (
	"strings"

	"github.com/heliumdb/sstable/cql"
	"github.com/heliumdb/sstable/errs"
	"github.com/heliumdb/sstable/udt"
)

var builtinTypes = map[string]cql.Type{
	"boolean":   cql.TypeBoolean,
	"tinyint":   cql.TypeInt8,
	"smallint":  cql.TypeInt16,
	"int":       cql.TypeInt32,
	"bigint":    cql.TypeInt64,
	"float":     cql.TypeFloat32,
	"double":    cql.TypeFloat64,
	"text":      cql.TypeText,
	"ascii":     cql.TypeAscii,
	"varchar":   cql.TypeVarchar,
	"blob":      cql.TypeBlob,
	"inet":      cql.TypeInet,
	"uuid":      cql.TypeUUID,
	"timeuuid":  cql.TypeTimeUUID,
	"timestamp": cql.TypeTimestamp,
	"date":      cql.TypeDate,
	"time":      cql.TypeTime,
	"counter":   cql.TypeCounter,
}

// ParseType parses a canonical CQL type string (§6: "text", "int",
// "list<text>", "map<text,int>", "frozen<address>") into a cql.CqlType
// tree. Names that are neither a builtin keyword nor a recognized
// parameterized form are resolved as UDT references against reg; reg may
// be nil if the caller knows the schema carries no UDT columns, in which
// case an unresolved name fails with errs.ErrUnknownType.
func ParseType(s string, reg *udt.Registry) (cql.CqlType, error) {
	p := &typeParser{input: s, reg: reg}
	t, err := p.parseType()
	if err != nil {
		return cql.CqlType{}, err
	}
	p.skipSpace()
	if p.pos != len(p.input) {
		return cql.CqlType{}, errs.Wrap(errs.SchemaMismatch,
			"trailing input after type "+s, errs.ErrUnknownType)
	}
	return t, nil
}

type typeParser struct {
	input string
	pos   int
	reg   *udt.Registry
}

func (p *typeParser) skipSpace() {
	for p.pos < len(p.input) && p.input[p.pos] == ' ' {
		p.pos++
	}
}

func (p *typeParser) parseType() (cql.CqlType, error) {
	p.skipSpace()
	name, err := p.parseName()
	if err != nil {
		return cql.CqlType{}, err
	}

	p.skipSpace()
	if p.pos < len(p.input) && p.input[p.pos] == '<' {
		return p.parseParameterized(name)
	}

	return p.resolveBareName(name)
}

func (p *typeParser) parseName() (string, error) {
	start := p.pos
	for p.pos < len(p.input) {
		c := p.input[p.pos]
		if c == '<' || c == '>' || c == ',' || c == ' ' {
			break
		}
		p.pos++
	}
	if p.pos == start {
		return "", errs.Wrap(errs.SchemaMismatch, "expected type name in "+p.input, errs.ErrUnknownType)
	}
	return p.input[start:p.pos], nil
}

func (p *typeParser) expect(c byte) error {
	p.skipSpace()
	if p.pos >= len(p.input) || p.input[p.pos] != c {
		return errs.Wrap(errs.SchemaMismatch,
			"expected '"+string(c)+"' in type "+p.input, errs.ErrUnknownType)
	}
	p.pos++
	return nil
}

func (p *typeParser) parseParameterized(name string) (cql.CqlType, error) {
	if err := p.expect('<'); err != nil {
		return cql.CqlType{}, err
	}

	switch strings.ToLower(name) {
	case "list":
		elem, err := p.parseType()
		if err != nil {
			return cql.CqlType{}, err
		}
		if err := p.expect('>'); err != nil {
			return cql.CqlType{}, err
		}
		return cql.ListOf(elem), nil

	case "set":
		elem, err := p.parseType()
		if err != nil {
			return cql.CqlType{}, err
		}
		if err := p.expect('>'); err != nil {
			return cql.CqlType{}, err
		}
		return cql.SetOf(elem), nil

	case "map":
		key, err := p.parseType()
		if err != nil {
			return cql.CqlType{}, err
		}
		if err := p.expect(','); err != nil {
			return cql.CqlType{}, err
		}
		value, err := p.parseType()
		if err != nil {
			return cql.CqlType{}, err
		}
		if err := p.expect('>'); err != nil {
			return cql.CqlType{}, err
		}
		return cql.MapOf(key, value), nil

	case "tuple":
		var elems []cql.CqlType
		for {
			e, err := p.parseType()
			if err != nil {
				return cql.CqlType{}, err
			}
			elems = append(elems, e)
			p.skipSpace()
			if p.pos < len(p.input) && p.input[p.pos] == ',' {
				p.pos++
				continue
			}
			break
		}
		if err := p.expect('>'); err != nil {
			return cql.CqlType{}, err
		}
		return cql.TupleOf(elems...), nil

	case "frozen":
		inner, err := p.parseType()
		if err != nil {
			return cql.CqlType{}, err
		}
		if err := p.expect('>'); err != nil {
			return cql.CqlType{}, err
		}
		return cql.FrozenOf(inner), nil

	default:
		return cql.CqlType{}, errs.Wrap(errs.SchemaMismatch,
			"unknown parameterized type "+name, errs.ErrUnknownType)
	}
}

func (p *typeParser) resolveBareName(name string) (cql.CqlType, error) {
	if tag, ok := builtinTypes[strings.ToLower(name)]; ok {
		return cql.Scalar(tag), nil
	}

	// Not a builtin: treat as a UDT reference. Bare names default to the
	// keyspace of the table being parsed, which the caller supplies by
	// pre-qualifying the name ("keyspace.name") before calling ParseType
	// when ambiguity matters; an unqualified name is looked up as-is.
	if p.reg != nil {
		if _, ok := p.reg.Get(qualifyKeyspace(name)); ok {
			return cql.UdtRef(name), nil
		}
	}

	return cql.CqlType{}, errs.Wrap(errs.SchemaMismatch, "unknown type "+name, errs.ErrUnknownType)
}

// qualifyKeyspace splits a possibly "keyspace.name" qualified name into
// its two parts for udt.Registry.Get, which takes them separately. An
// unqualified name is looked up with an empty keyspace; callers that
// register UDTs under a non-empty keyspace should pre-qualify.
func qualifyKeyspace(name string) (string, string) {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[:i], name[i+1:]
	}
	return "", name
}
