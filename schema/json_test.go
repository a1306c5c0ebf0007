package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heliumdb/sstable/cql"
)

const sampleSchemaJSON = `{
	"keyspace": "analytics",
	"table": "events",
	"partition_keys": [
		{"name": "tenant_id", "type": "uuid", "position": 0}
	],
	"clustering_keys": [
		{"name": "event_time", "type": "timestamp", "position": 0, "order": "desc"}
	],
	"columns": [
		{"name": "payload", "type": "blob", "nullable": true},
		{"name": "tags", "type": "set<text>", "nullable": true},
		{"name": "counters", "type": "map<text,bigint>", "nullable": true}
	]
}`

func TestFromJSONParsesSampleSchema(t *testing.T) {
	s, err := FromJSON([]byte(sampleSchemaJSON), nil)
	require.NoError(t, err)

	assert.Equal(t, "analytics", s.Keyspace)
	assert.Equal(t, "events", s.Table)

	require.Len(t, s.PartitionKeys, 1)
	assert.Equal(t, "tenant_id", s.PartitionKeys[0].Name)
	assert.Equal(t, cql.TypeUUID, s.PartitionKeys[0].Type.Tag)

	require.Len(t, s.ClusteringKeys, 1)
	assert.Equal(t, Descending, s.ClusteringKeys[0].Order)

	col, ok := s.ColumnByName("tags")
	require.True(t, ok)
	assert.Equal(t, cql.TypeSet, col.Type.Tag)
}

func TestFromJSONRejectsUnknownType(t *testing.T) {
	_, err := FromJSON([]byte(`{"keyspace":"k","table":"t","columns":[{"name":"c","type":"bogus"}]}`), nil)
	assert.Error(t, err)
}

func TestFromJSONRejectsMalformedJSON(t *testing.T) {
	_, err := FromJSON([]byte(`{not json`), nil)
	assert.Error(t, err)
}

func TestAllColumnsOrdersKeysBeforeRegular(t *testing.T) {
	s, err := FromJSON([]byte(sampleSchemaJSON), nil)
	require.NoError(t, err)

	all := s.AllColumns()
	require.Len(t, all, 5)
	assert.Equal(t, "tenant_id", all[0].Name)
	assert.Equal(t, "event_time", all[1].Name)
}
