package extractor

// ClassDecl is one top-level class with the methods declared directly in
// its body, in declaration order.
type ClassDecl struct {
	Name    string   `json:"name"`
	Methods []string `json:"methods"`
}

// ModuleInventory is the structural surface of a single source module:
// every top-level class with its methods, and every top-level function.
// Declarations nested inside function bodies are not part of the surface.
//
// An inventory is built once per extraction and treated as read-only by
// everything downstream.
type ModuleInventory struct {
	Module    string      `json:"module"`
	Classes   []ClassDecl `json:"classes"`
	Functions []string    `json:"functions"`
}

// TotalCount counts each class once, each method once, and each
// top-level function once.
func (inv *ModuleInventory) TotalCount() int {
	total := len(inv.Classes) + len(inv.Functions)
	for _, class := range inv.Classes {
		total += len(class.Methods)
	}
	return total
}

// MethodCount counts methods across all classes.
func (inv *ModuleInventory) MethodCount() int {
	n := 0
	for _, class := range inv.Classes {
		n += len(class.Methods)
	}
	return n
}

// Class returns the declaration for name, if the module declares it.
func (inv *ModuleInventory) Class(name string) (ClassDecl, bool) {
	for _, class := range inv.Classes {
		if class.Name == name {
			return class, true
		}
	}
	return ClassDecl{}, false
}

// HasFunction reports whether the module declares a top-level function
// with the given name.
func (inv *ModuleInventory) HasFunction(name string) bool {
	for _, fn := range inv.Functions {
		if fn == name {
			return true
		}
	}
	return false
}

// BindNames returns the importable symbol names of the module: class
// names followed by function names, in declaration order. These are the
// names an adapter has to resolve against a live backend.
func (inv *ModuleInventory) BindNames() []string {
	names := make([]string, 0, len(inv.Classes)+len(inv.Functions))
	for _, class := range inv.Classes {
		names = append(names, class.Name)
	}
	names = append(names, inv.Functions...)
	return names
}
