// Package report renders a verification run as plain text for the
// terminal.
package report

import (
	"fmt"
	"strings"
	"time"

	"shimsync/internal/verify"
)

// maxMissingShown bounds the missing-items listing per module; the rest
// collapses into a single count so one hollow module cannot flood the
// report.
const maxMissingShown = 10

// Render formats the complete report: per-module inventories, per-module
// correspondence counts with a truncated missing list, the aggregate
// score, and the final verdict.
func Render(run *verify.Run) string {
	var sb strings.Builder

	sb.WriteString("adapter correspondence report\n")
	sb.WriteString(fmt.Sprintf("run %s started %s (%s mode)\n",
		run.ID, run.StartedAt.Format(time.RFC3339), run.Mode))
	sb.WriteString(fmt.Sprintf("adapter: %s\n", run.AdapterPath))

	sb.WriteString("\nmodules\n")
	if len(run.Outcomes) == 0 {
		sb.WriteString("  none\n")
	}
	for _, o := range run.Outcomes {
		if o.Failed() {
			sb.WriteString(fmt.Sprintf("  %s: not checkable: %v\n", o.Module, o.Err))
			continue
		}
		inv := o.Inventory
		sb.WriteString(fmt.Sprintf("  %s: %s, %s, %s\n", inv.Module,
			plural(len(inv.Classes), "class", "classes"),
			plural(inv.MethodCount(), "method", "methods"),
			plural(len(inv.Functions), "function", "functions")))
		for _, class := range inv.Classes {
			sb.WriteString(fmt.Sprintf("    class %s (%s)", class.Name, plural(len(class.Methods), "method", "methods")))
			if len(class.Methods) > 0 {
				sb.WriteString(": " + strings.Join(class.Methods, ", "))
			}
			sb.WriteString("\n")
		}
		if len(inv.Functions) > 0 {
			sb.WriteString("    functions: " + strings.Join(inv.Functions, ", ") + "\n")
		}
	}

	sb.WriteString("\ncorrespondence\n")
	checked := 0
	for _, o := range run.Outcomes {
		if o.Failed() {
			continue
		}
		checked++
		res := o.Result
		sb.WriteString(fmt.Sprintf("  %s: %d/%d found (%.1f%%)\n",
			o.Module, res.Found, res.Total, percentage(res.Found, res.Total)))
		writeMissing(&sb, res.Missing)
	}
	if checked == 0 {
		sb.WriteString("  nothing checked\n")
	}

	sb.WriteString("\naggregate\n")
	sb.WriteString(fmt.Sprintf("  found %d of %d expected items (%.1f%%), threshold %.1f%%\n",
		run.Report.Found, run.Report.Total, run.Report.Percentage, run.Report.Threshold))
	sb.WriteString(fmt.Sprintf("  modules checked: %d of %d", checked, len(run.Outcomes)))
	if failures := run.Failures(); failures > 0 {
		sb.WriteString(fmt.Sprintf(" (%d failed)", failures))
	}
	sb.WriteString("\n")

	if run.Passed() {
		sb.WriteString("verdict: PASS\n")
	} else {
		sb.WriteString("verdict: FAIL\n")
	}
	return sb.String()
}

func writeMissing(sb *strings.Builder, missing []string) {
	if len(missing) == 0 {
		return
	}
	sb.WriteString("    missing:\n")
	shown := missing
	if len(shown) > maxMissingShown {
		shown = shown[:maxMissingShown]
	}
	for _, item := range shown {
		sb.WriteString("      " + item + "\n")
	}
	if rest := len(missing) - len(shown); rest > 0 {
		sb.WriteString(fmt.Sprintf("      ... and %d more\n", rest))
	}
}

func percentage(found, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(found) / float64(total) * 100
}

func plural(n int, singular, pluralForm string) string {
	if n == 1 {
		return "1 " + singular
	}
	return fmt.Sprintf("%d %s", n, pluralForm)
}
