// Package correspond checks how much of an expected module surface an
// adapter actually covers. Structural mode compares two inventories
// declaration by declaration; lexical mode searches the adapter source
// as plain text, which tolerates string-keyed dispatch tables that have
// no matching class or function declarations.
package correspond

import (
	"strings"

	"shimsync/internal/extractor"
)

// Mode selects how expected items are looked up in the adapter.
type Mode string

const (
	ModeStructural Mode = "structural"
	ModeLexical    Mode = "lexical"
)

// Result is the outcome of checking one expected module. Found never
// exceeds Total, and Missing holds one entry per expected item that the
// adapter does not cover, in inventory order.
type Result struct {
	Module  string
	Mode    Mode
	Found   int
	Total   int
	Missing []string
}

// Complete reports whether every expected item was found.
func (r Result) Complete() bool { return r.Found == r.Total }

// Structural compares an expected inventory against the adapter's own
// inventory. A class counts once and each of its methods once; when the
// class itself is absent its methods still count toward the total but
// are not listed individually, the absent class stands for all of them.
func Structural(expected, actual *extractor.ModuleInventory) Result {
	r := Result{Module: expected.Module, Mode: ModeStructural}
	for _, class := range expected.Classes {
		r.Total += 1 + len(class.Methods)
		actualClass, ok := actual.Class(class.Name)
		if !ok {
			r.Missing = append(r.Missing, classItem(class.Name))
			continue
		}
		r.Found++
		declared := make(map[string]bool, len(actualClass.Methods))
		for _, m := range actualClass.Methods {
			declared[m] = true
		}
		for _, m := range class.Methods {
			if declared[m] {
				r.Found++
			} else {
				r.Missing = append(r.Missing, methodItem(class.Name, m))
			}
		}
	}
	for _, fn := range expected.Functions {
		r.Total++
		if actual.HasFunction(fn) {
			r.Found++
		} else {
			r.Missing = append(r.Missing, functionItem(fn))
		}
	}
	return r
}

// Lexical checks every expected item independently against the adapter
// source as a flat corpus. Items missed structurally are still credited
// when the adapter mentions them by name, e.g. as dispatch keys.
func Lexical(expected *extractor.ModuleInventory, corpus string) Result {
	r := Result{Module: expected.Module, Mode: ModeLexical}
	for _, class := range expected.Classes {
		r.Total++
		if corpusContains(corpus, class.Name) {
			r.Found++
		} else {
			r.Missing = append(r.Missing, classItem(class.Name))
		}
		for _, m := range class.Methods {
			r.Total++
			if corpusContains(corpus, m) {
				r.Found++
			} else {
				r.Missing = append(r.Missing, methodItem(class.Name, m))
			}
		}
	}
	for _, fn := range expected.Functions {
		r.Total++
		if corpusContains(corpus, fn) {
			r.Found++
		} else {
			r.Missing = append(r.Missing, functionItem(fn))
		}
	}
	return r
}

// corpusContains reports whether the corpus mentions a name in any of
// the shapes an adapter tends to use it: a quoted string key, a def, or
// the bare identifier. The bare check subsumes the first two; they are
// spelled out because those are the shapes the heuristic is after. This
// is substring matching, deliberately loose, and never misses an item
// that a stricter reading would have found.
func corpusContains(corpus, name string) bool {
	if strings.Contains(corpus, "'"+name+"'") || strings.Contains(corpus, `"`+name+`"`) {
		return true
	}
	if strings.Contains(corpus, "def "+name) {
		return true
	}
	return strings.Contains(corpus, name)
}

func classItem(name string) string { return "Class: " + name }

func methodItem(class, method string) string { return "  Method: " + class + "." + method }

func functionItem(name string) string { return "Function: " + name }
