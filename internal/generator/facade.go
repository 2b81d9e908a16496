// Package generator models adapter facades over extracted module
// inventories and renders them as Python scaffolds. The in-memory
// facade mirrors what the rendered scaffold does at runtime: bind the
// backend all-or-nothing, then route string method keys through a
// dispatch table to placeholder stubs.
package generator

import (
	"time"

	"shimsync/internal/extractor"
)

// SymbolSource resolves the top-level symbol names of a backend module.
type SymbolSource interface {
	Resolve(name string) (any, bool)
}

// InventorySource treats an extracted inventory as a backend: a symbol
// resolves when the inventory declares it. It stands in for a live
// import when only source text is available.
type InventorySource struct {
	Inventory *extractor.ModuleInventory
}

func (s InventorySource) Resolve(name string) (any, bool) {
	if class, ok := s.Inventory.Class(name); ok {
		return class, true
	}
	if s.Inventory.HasFunction(name) {
		return name, true
	}
	return nil, false
}

// BindingSet holds the resolved backend symbols of a facade. The zero
// value is the unavailable state. A set is either complete or empty;
// binding never leaves partial results behind.
type BindingSet struct {
	refs map[string]any
}

// BindAll resolves every class and function name in the inventory
// against the source. Any one failure discards the lot.
func BindAll(inv *extractor.ModuleInventory, src SymbolSource) BindingSet {
	refs := make(map[string]any)
	for _, name := range inv.BindNames() {
		ref, ok := src.Resolve(name)
		if !ok {
			return BindingSet{}
		}
		refs[name] = ref
	}
	return BindingSet{refs: refs}
}

// Available reports whether the backend bound completely.
func (b BindingSet) Available() bool { return b.refs != nil }

// Ref returns the bound symbol for name.
func (b BindingSet) Ref(name string) (any, bool) {
	ref, ok := b.refs[name]
	return ref, ok
}

// Facade is the in-memory counterpart of a generated adapter: a
// dispatch table over one module inventory plus an optional binding to
// the backend. Every dispatched call returns a StubRecord; no path
// panics.
type Facade struct {
	module   string
	inv      *extractor.ModuleInventory
	table    *KeyTable
	bindings BindingSet
}

// NewFacade builds the facade for an inventory. It fails only when two
// declarations derive the same dispatch key.
func NewFacade(inv *extractor.ModuleInventory) (*Facade, error) {
	table, err := BuildKeyTable(inv)
	if err != nil {
		return nil, err
	}
	return &Facade{module: inv.Module, inv: inv, table: table}, nil
}

// Inventory returns the inventory the facade was built from.
func (f *Facade) Inventory() *extractor.ModuleInventory { return f.inv }

// Keys returns the facade's dispatch keys in derivation order.
func (f *Facade) Keys() []string { return f.table.Keys() }

// Bind attempts to resolve the whole backend surface and reports
// whether the facade is now available. An unbound facade still
// dispatches; every call just returns the unavailable record.
func (f *Facade) Bind(src SymbolSource) bool {
	f.bindings = BindAll(f.inv, src)
	return f.bindings.Available()
}

// Available reports whether the backend bound completely.
func (f *Facade) Available() bool { return f.bindings.Available() }

// Dispatch routes a method key to its stub and returns the resulting
// record. Arguments are accepted and discarded, which is all a
// placeholder can do with them. Unknown keys produce an error record;
// an unbound backend produces the same unavailable record no matter
// which key was asked for.
func (f *Facade) Dispatch(method string, _ ...any) StubRecord {
	start := time.Now()
	if !f.bindings.Available() {
		return stamped(unavailableRecord(f.module), start)
	}
	target, ok := f.table.Target(method)
	if !ok {
		return stamped(unknownRecord(f.module, method), start)
	}
	return stamped(stubRecord(f.module, target), start)
}

// stamped sets the elapsed time measured from dispatch entry.
func stamped(rec StubRecord, start time.Time) StubRecord {
	rec.Elapsed = time.Since(start).Seconds()
	return rec
}
