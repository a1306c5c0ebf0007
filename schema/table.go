package schema

import "github.com/heliumdb/sstable/cql"

// SortOrder is a clustering column's declared sort direction.
type SortOrder int

const (
	Ascending SortOrder = iota
	Descending
)

// ColumnDef is one column of a TableSchema: its name, resolved type, and
// nullability. Default is the JSON-supplied default value text, if any;
// the reader does not interpret it (defaulting is a write-path concern),
// it is carried through for callers that need it.
type ColumnDef struct {
	Name     string
	Type     cql.CqlType
	Nullable bool
	Default  string
}

// KeyColumn is a partition- or clustering-key column: its definition plus
// its position in the key (§3's "partition-key columns, clustering-key
// columns with sort direction").
type KeyColumn struct {
	ColumnDef
	Position int
	Order    SortOrder // meaningful for clustering keys only
}

// TableSchema is (keyspace, table-name, partition-key columns,
// clustering-key columns with sort direction, regular columns) per §3,
// used by the reader to decode row bodies when a file's embedded column
// descriptors are insufficient on their own.
type TableSchema struct {
	Keyspace       string
	Table          string
	PartitionKeys  []KeyColumn
	ClusteringKeys []KeyColumn
	Columns        []ColumnDef
}

// ColumnByName returns the regular column definition matching name.
func (s *TableSchema) ColumnByName(name string) (ColumnDef, bool) {
	for _, c := range s.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return ColumnDef{}, false
}

// AllColumns returns partition-key, clustering-key, and regular columns
// as a single flat list in that order, for callers (like block.ColumnSpec
// construction) that don't need to distinguish key role.
func (s *TableSchema) AllColumns() []ColumnDef {
	out := make([]ColumnDef, 0, len(s.PartitionKeys)+len(s.ClusteringKeys)+len(s.Columns))
	for _, k := range s.PartitionKeys {
		out = append(out, k.ColumnDef)
	}
	for _, k := range s.ClusteringKeys {
		out = append(out, k.ColumnDef)
	}
	out = append(out, s.Columns...)
	return out
}
