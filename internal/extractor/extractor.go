package extractor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

// ParseError reports a backend module whose source could not be turned
// into an inventory, either because the file is unreadable or because
// the parse tree contains syntax errors.
type ParseError struct {
	Module string
	Path   string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("module %s: %v", e.Module, e.Err)
	}
	return fmt.Sprintf("module %s: source contains syntax errors", e.Module)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ModuleName derives the module name from a source file path,
// e.g. "models/causal_graph.py" -> "causal_graph".
func ModuleName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// ExtractFile parses a single Python source file and builds its
// inventory. The module name is derived from the file name.
func ExtractFile(path string) (*ModuleInventory, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, &ParseError{Module: ModuleName(path), Path: path, Err: err}
	}
	inv, err := Extract(ModuleName(path), source)
	if err != nil {
		if perr, ok := err.(*ParseError); ok {
			perr.Path = path
		}
		return nil, err
	}
	return inv, nil
}

// Extract parses Python source and builds the module inventory. The
// source is never executed; only its declarations are read. Extraction
// is deterministic, so the same source always yields the same inventory.
func Extract(module string, source []byte) (*ModuleInventory, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(python.GetLanguage())
	tree, err := parser.ParseCtx(context.Background(), nil, source)
	if err != nil {
		return nil, &ParseError{Module: module, Err: err}
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return nil, &ParseError{Module: module}
	}

	return collectInventory(module, root, source), nil
}
