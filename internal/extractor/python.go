package extractor

import (
	sitter "github.com/smacker/go-tree-sitter"
)

// Tree-sitter grammar node types we care about. Everything else at
// module level (imports, assignments, conditionals) is skipped: the
// inventory covers top-level declarations only.
const (
	nodeClassDef     = "class_definition"
	nodeFunctionDef  = "function_definition"
	nodeDecoratedDef = "decorated_definition"
)

// collectInventory walks the module node and records every top-level
// class (with the methods declared directly in its body) and every
// top-level function. Redeclared names follow the host language's
// runtime semantics: the later declaration wins, but the name keeps the
// position of its first appearance.
func collectInventory(module string, root *sitter.Node, source []byte) *ModuleInventory {
	inv := &ModuleInventory{Module: module}
	classIndex := make(map[string]int)
	funcSeen := make(map[string]bool)

	for i := 0; i < int(root.NamedChildCount()); i++ {
		node := unwrapDecorated(root.NamedChild(i))
		if node == nil {
			continue
		}
		switch node.Type() {
		case nodeClassDef:
			name := fieldContent(node, "name", source)
			if name == "" {
				continue
			}
			decl := ClassDecl{Name: name, Methods: methodNames(node, source)}
			if at, ok := classIndex[name]; ok {
				inv.Classes[at] = decl
				continue
			}
			classIndex[name] = len(inv.Classes)
			inv.Classes = append(inv.Classes, decl)
		case nodeFunctionDef:
			name := fieldContent(node, "name", source)
			if name == "" || funcSeen[name] {
				continue
			}
			funcSeen[name] = true
			inv.Functions = append(inv.Functions, name)
		}
	}
	return inv
}

// methodNames collects the functions declared directly in a class body.
// Declarations nested deeper (inside methods, inner classes) are out of
// scope for the inventory.
func methodNames(classDef *sitter.Node, source []byte) []string {
	body := classDef.ChildByFieldName("body")
	if body == nil {
		return nil
	}
	var methods []string
	seen := make(map[string]bool)
	for i := 0; i < int(body.NamedChildCount()); i++ {
		node := unwrapDecorated(body.NamedChild(i))
		if node == nil || node.Type() != nodeFunctionDef {
			continue
		}
		name := fieldContent(node, "name", source)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		methods = append(methods, name)
	}
	return methods
}

// unwrapDecorated looks through a decorated_definition wrapper to the
// class or function it decorates. Other nodes pass through unchanged.
func unwrapDecorated(node *sitter.Node) *sitter.Node {
	if node == nil || node.Type() != nodeDecoratedDef {
		return node
	}
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		switch child.Type() {
		case nodeClassDef, nodeFunctionDef:
			return child
		}
	}
	return nil
}

func fieldContent(node *sitter.Node, field string, source []byte) string {
	child := node.ChildByFieldName(field)
	if child == nil {
		return ""
	}
	return child.Content(source)
}
