package schema

import (
	"encoding/json"
	"strings"

	"github.com/heliumdb/sstable/errs"
	"github.com/heliumdb/sstable/udt"
)

type jsonKeyColumn struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Position int    `json:"position"`
	Order    string `json:"order,omitempty"`
	Nullable bool   `json:"nullable,omitempty"`
}

type jsonColumn struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Nullable bool   `json:"nullable"`
	Default  string `json:"default,omitempty"`
}

type jsonTableSchema struct {
	Keyspace       string          `json:"keyspace"`
	Table          string          `json:"table"`
	PartitionKeys  []jsonKeyColumn `json:"partition_keys"`
	ClusteringKeys []jsonKeyColumn `json:"clustering_keys"`
	Columns        []jsonColumn    `json:"columns"`
}

// FromJSON parses the object shape specified in §6 ("Schema input") into
// a TableSchema, resolving every column's type string against ParseType.
// reg may be nil if the schema is known to reference no UDTs.
func FromJSON(data []byte, reg *udt.Registry) (*TableSchema, error) {
	var raw jsonTableSchema
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errs.Wrap(errs.SchemaMismatch, "parsing schema JSON", err)
	}

	out := &TableSchema{Keyspace: raw.Keyspace, Table: raw.Table}

	for _, pk := range raw.PartitionKeys {
		t, err := ParseType(pk.Type, reg)
		if err != nil {
			return nil, errs.Wrap(errs.SchemaMismatch, "partition key "+pk.Name, err)
		}
		out.PartitionKeys = append(out.PartitionKeys, KeyColumn{
			ColumnDef: ColumnDef{Name: pk.Name, Type: t, Nullable: pk.Nullable},
			Position:  pk.Position,
		})
	}

	for _, ck := range raw.ClusteringKeys {
		t, err := ParseType(ck.Type, reg)
		if err != nil {
			return nil, errs.Wrap(errs.SchemaMismatch, "clustering key "+ck.Name, err)
		}
		out.ClusteringKeys = append(out.ClusteringKeys, KeyColumn{
			ColumnDef: ColumnDef{Name: ck.Name, Type: t, Nullable: ck.Nullable},
			Position:  ck.Position,
			Order:     parseSortOrder(ck.Order),
		})
	}

	for _, c := range raw.Columns {
		t, err := ParseType(c.Type, reg)
		if err != nil {
			return nil, errs.Wrap(errs.SchemaMismatch, "column "+c.Name, err)
		}
		out.Columns = append(out.Columns, ColumnDef{
			Name:     c.Name,
			Type:     t,
			Nullable: c.Nullable,
			Default:  c.Default,
		})
	}

	return out, nil
}

func parseSortOrder(s string) SortOrder {
	if strings.EqualFold(s, "desc") || strings.EqualFold(s, "descending") {
		return Descending
	}
	return Ascending
}
