package generator

import (
	"fmt"
	"os"
	"strings"

	"shimsync/internal/extractor"
)

// RenderScaffold renders the Python adapter scaffold for an inventory:
// a module doc block, all-or-nothing backend binding, the dispatch
// table, and one placeholder stub per method and function. The output
// is a pure function of the inventory and backend name, so regenerating
// without a source change reproduces the file byte for byte.
//
// backend is the import path the scaffold binds against; when empty it
// defaults to the inventory's module name.
func RenderScaffold(inv *extractor.ModuleInventory, backend string) (string, error) {
	table, err := BuildKeyTable(inv)
	if err != nil {
		return "", err
	}
	if backend == "" {
		backend = inv.Module
	}

	var sb strings.Builder
	writeDocBlock(&sb, inv)
	writeBinding(&sb, inv, backend)
	writeRecordHelper(&sb, inv)
	writeStubs(&sb, table)
	writeDispatch(&sb, inv, table)
	return sb.String(), nil
}

// WriteScaffold renders the scaffold and writes it to path, replacing
// whatever was there. The scaffold file is the only thing the generator
// ever writes.
func WriteScaffold(path string, inv *extractor.ModuleInventory, backend string) error {
	content, err := RenderScaffold(inv, backend)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write scaffold %s: %w", path, err)
	}
	return nil
}

func writeDocBlock(sb *strings.Builder, inv *extractor.ModuleInventory) {
	sb.WriteString(fmt.Sprintf("\"\"\"Adapter scaffold for %s.\n\n", inv.Module))
	sb.WriteString("Generated by shimsync; regenerate rather than editing by hand.\n")
	if len(inv.Classes) > 0 {
		sb.WriteString("\nClasses:\n")
		for _, class := range inv.Classes {
			sb.WriteString("    " + class.Name + " (" + countNoun(len(class.Methods), "method") + ")")
			if len(class.Methods) > 0 {
				sb.WriteString(": " + strings.Join(class.Methods, ", "))
			}
			sb.WriteString("\n")
		}
	}
	if len(inv.Functions) > 0 {
		sb.WriteString("\nFunctions:\n")
		for _, fn := range inv.Functions {
			sb.WriteString("    " + fn + "\n")
		}
	}
	sb.WriteString("\"\"\"\n\n")
	sb.WriteString("import importlib\n")
	sb.WriteString("import time\n\n")
}

func writeBinding(sb *strings.Builder, inv *extractor.ModuleInventory, backend string) {
	sb.WriteString("_BACKEND = " + pyQuote(backend) + "\n\n\n")
	sb.WriteString("def _bind():\n")
	sb.WriteString("    \"\"\"Resolve every backend symbol; any failure discards the lot.\"\"\"\n")
	sb.WriteString("    try:\n")
	sb.WriteString("        backend = importlib.import_module(_BACKEND)\n")
	sb.WriteString("        bindings = {}\n")
	for _, name := range inv.BindNames() {
		sb.WriteString(fmt.Sprintf("        bindings[%s] = backend.%s\n", pyQuote(name), name))
	}
	sb.WriteString("        return bindings\n")
	sb.WriteString("    except (ImportError, AttributeError):\n")
	sb.WriteString("        return None\n\n\n")
	sb.WriteString("_BINDINGS = _bind()\n\n\n")
}

func writeRecordHelper(sb *strings.Builder, inv *extractor.ModuleInventory) {
	sb.WriteString("def _record(class_name, method_name, status, data, evidence, confidence):\n")
	sb.WriteString("    return {\n")
	sb.WriteString("        'module_name': " + pyQuote(inv.Module) + ",\n")
	sb.WriteString("        'class_name': class_name,\n")
	sb.WriteString("        'method_name': method_name,\n")
	sb.WriteString("        'status': status,\n")
	sb.WriteString("        'data': data,\n")
	sb.WriteString("        'evidence': evidence,\n")
	sb.WriteString("        'confidence': confidence,\n")
	sb.WriteString("        'execution_time': 0.0,\n")
	sb.WriteString("    }\n\n\n")
}

func writeStubs(sb *strings.Builder, table *KeyTable) {
	for _, key := range table.Keys() {
		target, _ := table.Target(key)
		sb.WriteString(fmt.Sprintf("def _stub_%s(*args, **kwargs):\n", key))
		sb.WriteString(fmt.Sprintf("    evidence = [%s]\n", pyQuote("placeholder stub for "+target.String())))
		sb.WriteString(fmt.Sprintf("    return _record(%s, %s, 'success', {'stub': True}, evidence, 0.5)\n\n\n",
			pyQuote(target.Class), pyQuote(target.Method)))
	}
}

func writeDispatch(sb *strings.Builder, inv *extractor.ModuleInventory, table *KeyTable) {
	sb.WriteString("_DISPATCH = {\n")
	for _, key := range table.Keys() {
		sb.WriteString(fmt.Sprintf("    %s: _stub_%s,\n", pyQuote(key), key))
	}
	sb.WriteString("}\n\n\n")

	sb.WriteString("def execute(method_name, *args, **kwargs):\n")
	sb.WriteString("    \"\"\"Route a method key to its stub. Never raises.\"\"\"\n")
	sb.WriteString("    started = time.time()\n")
	sb.WriteString("    if _BINDINGS is None:\n")
	sb.WriteString("        record = _record('', '', 'unavailable', None,\n")
	sb.WriteString(fmt.Sprintf("                         [%s], 0.0)\n",
		pyQuote("backend module "+inv.Module+" could not be bound")))
	sb.WriteString("    else:\n")
	sb.WriteString("        stub = _DISPATCH.get(method_name)\n")
	sb.WriteString("        if stub is None:\n")
	sb.WriteString("            record = _record('', method_name, 'error', None,\n")
	sb.WriteString("                             ['no stub registered for method key: ' + method_name], 0.0)\n")
	sb.WriteString("        else:\n")
	sb.WriteString("            record = stub(*args, **kwargs)\n")
	sb.WriteString("    record['execution_time'] = time.time() - started\n")
	sb.WriteString("    return record\n")
}

func countNoun(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

// pyQuote renders s as a single-quoted Python string literal.
func pyQuote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "'", `\'`)
	return "'" + s + "'"
}
