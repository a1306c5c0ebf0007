// Package udt implements the user-defined-type registry: named, ordered,
// typed records keyed by (keyspace, name), with dependency validation and
// a topological order usable for serialization.
package udt

import (
	"fmt"
	"sort"

	"github.com/heliumdb/sstable/cql"
	"github.com/heliumdb/sstable/errs"
)

// FieldDef is one field of a UDT: a name, its declared type, and whether
// the column accepts null.
type FieldDef struct {
	Name     string
	Type     cql.CqlType
	Nullable bool
}

// TypeDef is a UDT definition: (keyspace, name, ordered fields). Field
// order is significant; it is the on-disk field position (§3).
type TypeDef struct {
	Keyspace string
	Name     string
	Fields   []FieldDef
}

// QualifiedName returns "keyspace.name", the identity two TypeDefs are
// compared by (§3: "structural comparison is never implicit").
func (d TypeDef) QualifiedName() string {
	return d.Keyspace + "." + d.Name
}

// Registry maps qualified UDT names to their definitions and enforces
// name uniqueness, acyclicity, and referential closure across them.
type Registry struct {
	defs map[string]TypeDef
	// order records insertion sequence, the order ExportDefinitions and
	// DependentsOf return definitions in. TopologicalOrder breaks ties
	// between independent types by qualified name instead.
	order []string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{defs: make(map[string]TypeDef)}
}

// Register adds def without validating its references. Callers that want
// the acyclicity/closure/uniqueness guarantees should use
// RegisterWithValidation instead; Register exists for bulk-loading a set
// of definitions that are only mutually consistent once all are present
// (e.g. deserializing an exported registry). Register checks only name
// uniqueness; a cycle it lets in is reported by TopologicalOrder.
func (r *Registry) Register(def TypeDef) error {
	name := def.QualifiedName()
	if _, exists := r.defs[name]; exists {
		return errs.Wrap(errs.SchemaMismatch, fmt.Sprintf("udt %q already registered", name), errs.ErrDuplicateName)
	}
	r.defs[name] = def
	r.order = append(r.order, name)
	return nil
}

// RegisterWithValidation adds def only after confirming, via depth-first
// traversal of its referenced types, that every udt(...) reference it
// transitively makes resolves within the registry and introduces no
// cycle. Validation is pessimistic (§4.C): def is rejected, not rolled
// back, on any failure.
func (r *Registry) RegisterWithValidation(def TypeDef) error {
	name := def.QualifiedName()
	if _, exists := r.defs[name]; exists {
		return errs.Wrap(errs.SchemaMismatch, fmt.Sprintf("udt %q already registered", name), errs.ErrDuplicateName)
	}

	visiting := map[string]bool{name: true}
	visited := map[string]bool{}
	if err := r.validateRefs(def, visiting, visited); err != nil {
		return err
	}

	r.defs[name] = def
	r.order = append(r.order, name)
	return nil
}

// validateRefs walks every udt(...) reference reachable from def (through
// fields, including inside list/set/map/tuple/frozen parameters),
// failing on an unresolved reference or one that closes a cycle back to
// a type currently on the visiting stack.
func (r *Registry) validateRefs(def TypeDef, visiting, visited map[string]bool) error {
	for _, f := range def.Fields {
		if err := r.validateType(f.Type, visiting, visited); err != nil {
			return err
		}
	}
	return nil
}

func (r *Registry) validateType(t cql.CqlType, visiting, visited map[string]bool) error {
	switch t.Tag {
	case cql.TypeList, cql.TypeSet, cql.TypeFrozen:
		if t.Elem == nil {
			return nil
		}
		return r.validateType(*t.Elem, visiting, visited)
	case cql.TypeMap:
		if t.Key != nil {
			if err := r.validateType(*t.Key, visiting, visited); err != nil {
				return err
			}
		}
		if t.Value != nil {
			return r.validateType(*t.Value, visiting, visited)
		}
		return nil
	case cql.TypeTuple:
		for _, e := range t.Elems {
			if err := r.validateType(e, visiting, visited); err != nil {
				return err
			}
		}
		return nil
	case cql.TypeUdt:
		return r.visitUdtRef(t.Name, visiting, visited)
	default:
		return nil
	}
}

func (r *Registry) visitUdtRef(name string, visiting, visited map[string]bool) error {
	if visiting[name] {
		return errs.Wrap(errs.SchemaMismatch, fmt.Sprintf("udt %q is circularly referenced", name), errs.ErrCircularRef)
	}
	if visited[name] {
		return nil
	}

	def, ok := r.defs[name]
	if !ok {
		return errs.Wrap(errs.SchemaMismatch, fmt.Sprintf("udt %q is not registered", name), errs.ErrUnknownType)
	}

	visiting[name] = true
	if err := r.validateRefs(def, visiting, visited); err != nil {
		return err
	}
	delete(visiting, name)
	visited[name] = true

	return nil
}

// Get returns the definition for (keyspace, name), if registered.
func (r *Registry) Get(keyspace, name string) (TypeDef, bool) {
	def, ok := r.defs[keyspace+"."+name]
	return def, ok
}

// ResolveWithDependencies returns def and every TypeDef it transitively
// references, in no particular order (callers that need an order should
// intersect the result with TopologicalOrder).
func (r *Registry) ResolveWithDependencies(keyspace, name string) ([]TypeDef, error) {
	root, ok := r.Get(keyspace, name)
	if !ok {
		return nil, errs.ErrUnknownType
	}

	seen := map[string]bool{root.QualifiedName(): true}
	out := []TypeDef{root}

	var walk func(def TypeDef) error
	walk = func(def TypeDef) error {
		for _, f := range def.Fields {
			if err := r.collectRefs(f.Type, seen, &out, walk); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(root); err != nil {
		return nil, err
	}

	return out, nil
}

func (r *Registry) collectRefs(t cql.CqlType, seen map[string]bool, out *[]TypeDef, walk func(TypeDef) error) error {
	switch t.Tag {
	case cql.TypeList, cql.TypeSet, cql.TypeFrozen:
		if t.Elem == nil {
			return nil
		}
		return r.collectRefs(*t.Elem, seen, out, walk)
	case cql.TypeMap:
		if t.Key != nil {
			if err := r.collectRefs(*t.Key, seen, out, walk); err != nil {
				return err
			}
		}
		if t.Value != nil {
			return r.collectRefs(*t.Value, seen, out, walk)
		}
		return nil
	case cql.TypeTuple:
		for _, e := range t.Elems {
			if err := r.collectRefs(e, seen, out, walk); err != nil {
				return err
			}
		}
		return nil
	case cql.TypeUdt:
		if seen[t.Name] {
			return nil
		}
		def, ok := r.defs[t.Name]
		if !ok {
			return errs.ErrUnknownType
		}
		seen[t.Name] = true
		*out = append(*out, def)
		return walk(def)
	default:
		return nil
	}
}

// DependentsOf returns every registered type that references (keyspace,
// name), directly or transitively, in time linear in registry size (§3).
func (r *Registry) DependentsOf(keyspace, name string) []TypeDef {
	target := keyspace + "." + name

	// referencedBy[a] = names that directly reference a.
	referencedBy := make(map[string][]string, len(r.defs))
	for qname, def := range r.defs {
		refs := map[string]bool{}
		for _, f := range def.Fields {
			collectDirectRefs(f.Type, refs)
		}
		for ref := range refs {
			referencedBy[ref] = append(referencedBy[ref], qname)
		}
	}

	dependents := map[string]bool{}
	var mark func(qname string)
	mark = func(qname string) {
		for _, candidate := range referencedBy[qname] {
			if !dependents[candidate] {
				dependents[candidate] = true
				mark(candidate)
			}
		}
	}
	mark(target)

	out := make([]TypeDef, 0, len(dependents))
	for _, qname := range r.order {
		if dependents[qname] {
			out = append(out, r.defs[qname])
		}
	}
	return out
}

func collectDirectRefs(t cql.CqlType, refs map[string]bool) {
	switch t.Tag {
	case cql.TypeList, cql.TypeSet, cql.TypeFrozen:
		if t.Elem != nil {
			collectDirectRefs(*t.Elem, refs)
		}
	case cql.TypeMap:
		if t.Key != nil {
			collectDirectRefs(*t.Key, refs)
		}
		if t.Value != nil {
			collectDirectRefs(*t.Value, refs)
		}
	case cql.TypeTuple:
		for _, e := range t.Elems {
			collectDirectRefs(e, refs)
		}
	case cql.TypeUdt:
		refs[t.Name] = true
	}
}

// TopologicalOrder returns every registered definition ordered so that
// each type appears after all types it references, using Kahn's
// algorithm over the direct-reference graph. Since RegisterWithValidation
// already forbids cycles, this never fails for a registry built that
// way; Register-populated registries can still contain cycles, in which
// case TopologicalOrder returns an error rather than an incomplete order.
func (r *Registry) TopologicalOrder() ([]TypeDef, error) {
	inDegree := make(map[string]int, len(r.defs))
	dependents := make(map[string][]string, len(r.defs))

	for qname := range r.defs {
		inDegree[qname] = 0
	}
	for qname, def := range r.defs {
		refs := map[string]bool{}
		for _, f := range def.Fields {
			collectDirectRefs(f.Type, refs)
		}
		for ref := range refs {
			if _, ok := r.defs[ref]; !ok {
				continue // unresolved refs are reported by validation, not here
			}
			dependents[ref] = append(dependents[ref], qname)
			inDegree[qname]++
		}
	}

	var ready []string
	for _, qname := range r.order {
		if inDegree[qname] == 0 {
			ready = append(ready, qname)
		}
	}
	sort.Strings(ready)

	var out []TypeDef
	for len(ready) > 0 {
		next := ready[0]
		ready = ready[1:]
		out = append(out, r.defs[next])

		var newlyReady []string
		for _, dep := range dependents[next] {
			inDegree[dep]--
			if inDegree[dep] == 0 {
				newlyReady = append(newlyReady, dep)
			}
		}
		sort.Strings(newlyReady)
		ready = append(ready, newlyReady...)
		sort.Strings(ready)
	}

	if len(out) != len(r.defs) {
		return nil, errs.ErrCircularRef
	}

	return out, nil
}

// ExportDefinitions returns every registered definition in insertion
// order, suitable for serializing a registry snapshot.
func (r *Registry) ExportDefinitions() []TypeDef {
	out := make([]TypeDef, 0, len(r.order))
	for _, qname := range r.order {
		out = append(out, r.defs[qname])
	}
	return out
}

// ResolveField implements cql.UdtResolver, letting the complex-type codec
// decode UDT fields by declared name/type instead of falling back to the
// embedded path.
func (r *Registry) ResolveField(qualifiedName string) ([]cql.UdtFieldSpec, bool) {
	def, ok := r.defs[qualifiedName]
	if !ok {
		return nil, false
	}

	specs := make([]cql.UdtFieldSpec, len(def.Fields))
	for i, f := range def.Fields {
		specs[i] = cql.UdtFieldSpec{Name: f.Name, Type: f.Type, Nullable: f.Nullable}
	}
	return specs, true
}
