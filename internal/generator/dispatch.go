package generator

import (
	"fmt"
	"strings"

	"shimsync/internal/extractor"
)

// GlobalClass is the pseudo-class that owns top-level functions, so
// that every dispatch key derives from a class/method pair the same
// way.
const GlobalClass = "Global"

// StubTarget identifies the declaration a dispatch key routes to.
type StubTarget struct {
	Class  string
	Method string
}

// DispatchKey derives the dispatch-table key for a class/method pair:
// lowercased class name, an underscore, then the method name with any
// leading and trailing dunder markers stripped. "Foo" + "__init__"
// becomes "foo_init".
func DispatchKey(class, method string) string {
	m := strings.TrimPrefix(method, "__")
	m = strings.TrimSuffix(m, "__")
	return strings.ToLower(class) + "_" + m
}

// FunctionKey derives the dispatch key for a top-level function, which
// lives under the Global pseudo-class.
func FunctionKey(name string) string {
	return DispatchKey(GlobalClass, name)
}

// AmbiguousKeyError reports two declarations whose derived dispatch
// keys collide. A table with colliding keys would silently drop one of
// the stubs, so generation refuses to proceed instead.
type AmbiguousKeyError struct {
	Key    string
	First  StubTarget
	Second StubTarget
}

func (e *AmbiguousKeyError) Error() string {
	return fmt.Sprintf("dispatch key %q is ambiguous: %s and %s both derive it",
		e.Key, e.First, e.Second)
}

func (t StubTarget) String() string {
	if t.Class == GlobalClass {
		return t.Method
	}
	return t.Class + "." + t.Method
}

// KeyTable maps derived dispatch keys back to their declarations, in
// inventory order: class methods first, then top-level functions.
type KeyTable struct {
	keys    []string
	targets map[string]StubTarget
}

// BuildKeyTable derives a dispatch key for every method and function in
// the inventory. It fails with an AmbiguousKeyError on the first
// collision; the table is all-or-nothing.
func BuildKeyTable(inv *extractor.ModuleInventory) (*KeyTable, error) {
	table := &KeyTable{targets: make(map[string]StubTarget)}
	for _, class := range inv.Classes {
		for _, method := range class.Methods {
			target := StubTarget{Class: class.Name, Method: method}
			if err := table.add(DispatchKey(class.Name, method), target); err != nil {
				return nil, err
			}
		}
	}
	for _, fn := range inv.Functions {
		target := StubTarget{Class: GlobalClass, Method: fn}
		if err := table.add(FunctionKey(fn), target); err != nil {
			return nil, err
		}
	}
	return table, nil
}

func (t *KeyTable) add(key string, target StubTarget) error {
	if first, ok := t.targets[key]; ok {
		return &AmbiguousKeyError{Key: key, First: first, Second: target}
	}
	t.targets[key] = target
	t.keys = append(t.keys, key)
	return nil
}

// Keys returns every dispatch key in derivation order.
func (t *KeyTable) Keys() []string { return t.keys }

// Target resolves a dispatch key.
func (t *KeyTable) Target(key string) (StubTarget, bool) {
	target, ok := t.targets[key]
	return target, ok
}

// Len reports the number of dispatchable declarations.
func (t *KeyTable) Len() int { return len(t.keys) }
