package udt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heliumdb/sstable/cql"
	"github.com/heliumdb/sstable/errs"
)

func TestRegisterWithValidationRejectsUnknownRef(t *testing.T) {
	r := NewRegistry()
	def := TypeDef{Keyspace: "ks", Name: "person", Fields: []FieldDef{
		{Name: "home", Type: cql.UdtRef("ks.address")},
	}}

	err := r.RegisterWithValidation(def)
	assert.ErrorIs(t, err, errs.ErrUnknownType)
}

func TestRegisterWithValidationRejectsSelfReference(t *testing.T) {
	r := NewRegistry()
	def := TypeDef{Keyspace: "ks", Name: "node", Fields: []FieldDef{
		{Name: "next", Type: cql.UdtRef("ks.node")},
	}}

	err := r.RegisterWithValidation(def)
	assert.ErrorIs(t, err, errs.ErrCircularRef)
}

func TestTopologicalOrderRejectsIndirectCycle(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(TypeDef{
		Keyspace: "ks", Name: "a", Fields: []FieldDef{{Name: "b", Type: cql.UdtRef("ks.b")}},
	}))

	// ks.b references ks.a, which references ks.b. Both are added through
	// Register, which bypasses validation so the cycle can be constructed
	// for the test; TopologicalOrder must then reject it.
	require.NoError(t, r.Register(TypeDef{
		Keyspace: "ks", Name: "b", Fields: []FieldDef{{Name: "a", Type: cql.UdtRef("ks.a")}},
	}))

	_, err := r.TopologicalOrder()
	assert.ErrorIs(t, err, errs.ErrCircularRef)
}

func TestRegisterWithValidationRejectsDuplicateName(t *testing.T) {
	r := NewRegistry()
	def := TypeDef{Keyspace: "ks", Name: "address", Fields: []FieldDef{
		{Name: "city", Type: cql.Scalar(cql.TypeText)},
	}}
	require.NoError(t, r.RegisterWithValidation(def))

	err := r.RegisterWithValidation(def)
	assert.ErrorIs(t, err, errs.ErrDuplicateName)
}

func buildLinearRegistry(t *testing.T) *Registry {
	t.Helper()
	r := NewRegistry()
	require.NoError(t, r.RegisterWithValidation(TypeDef{
		Keyspace: "ks", Name: "zip", Fields: []FieldDef{{Name: "code", Type: cql.Scalar(cql.TypeInt32)}},
	}))
	require.NoError(t, r.RegisterWithValidation(TypeDef{
		Keyspace: "ks", Name: "address", Fields: []FieldDef{
			{Name: "street", Type: cql.Scalar(cql.TypeText)},
			{Name: "zip", Type: cql.UdtRef("ks.zip")},
		},
	}))
	require.NoError(t, r.RegisterWithValidation(TypeDef{
		Keyspace: "ks", Name: "person", Fields: []FieldDef{
			{Name: "name", Type: cql.Scalar(cql.TypeText)},
			{Name: "home", Type: cql.FrozenOf(cql.UdtRef("ks.address"))},
		},
	}))
	return r
}

func TestTopologicalOrderRespectsDependencies(t *testing.T) {
	r := buildLinearRegistry(t)

	order, err := r.TopologicalOrder()
	require.NoError(t, err)
	require.Len(t, order, 3)

	position := map[string]int{}
	for i, def := range order {
		position[def.QualifiedName()] = i
	}

	assert.Less(t, position["ks.zip"], position["ks.address"])
	assert.Less(t, position["ks.address"], position["ks.person"])
}

func TestDependentsOfIsTransitive(t *testing.T) {
	r := buildLinearRegistry(t)

	deps := r.DependentsOf("ks", "zip")
	names := make([]string, len(deps))
	for i, d := range deps {
		names[i] = d.QualifiedName()
	}

	assert.ElementsMatch(t, []string{"ks.address", "ks.person"}, names)
}

func TestResolveWithDependencies(t *testing.T) {
	r := buildLinearRegistry(t)

	defs, err := r.ResolveWithDependencies("ks", "person")
	require.NoError(t, err)

	names := make([]string, len(defs))
	for i, d := range defs {
		names[i] = d.QualifiedName()
	}
	assert.ElementsMatch(t, []string{"ks.person", "ks.address", "ks.zip"}, names)
}

func TestExportDefinitionsPreservesInsertionOrder(t *testing.T) {
	r := buildLinearRegistry(t)

	exported := r.ExportDefinitions()
	require.Len(t, exported, 3)
	assert.Equal(t, "ks.zip", exported[0].QualifiedName())
	assert.Equal(t, "ks.address", exported[1].QualifiedName())
	assert.Equal(t, "ks.person", exported[2].QualifiedName())
}

func TestResolveFieldSatisfiesCqlUdtResolver(t *testing.T) {
	r := buildLinearRegistry(t)

	var resolver cql.UdtResolver = r
	specs, ok := resolver.ResolveField("ks.address")
	require.True(t, ok)
	require.Len(t, specs, 2)
	assert.Equal(t, "street", specs[0].Name)
	assert.Equal(t, "zip", specs[1].Name)
}
