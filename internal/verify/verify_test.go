package verify

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shimsync/internal/correspond"
	"shimsync/internal/extractor"
	"shimsync/internal/generator"
)

const backendSource = `class CausalGraph:
    def __init__(self, max_nodes=64):
        self.max_nodes = max_nodes

    def build(self, evidence):
        return []

    def prune(self, floor=0.2):
        return None


def segment_text(raw):
    return raw.split(".")
`

const ledgerSource = `class EvidenceLedger:
    def record(self, item):
        self.items.append(item)
`

func writeSource(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRunner_LexicalPass(t *testing.T) {
	dir := t.TempDir()
	backend := writeSource(t, dir, "causal_graph.py", backendSource)
	adapter := writeSource(t, dir, "adapter.py",
		"_DISPATCH = {'CausalGraph': 0, '__init__': 0, 'build': 0, 'prune': 0, 'segment_text': 0}\n")

	runner := NewRunner(nil, Options{})
	run, err := runner.Run(context.Background(), adapter, []string{backend})
	require.NoError(t, err)

	require.Len(t, run.Outcomes, 1)
	assert.Equal(t, correspond.ModeLexical, run.Mode)
	assert.Equal(t, "causal_graph", run.Outcomes[0].Module)
	assert.Equal(t, 5, run.Report.Total, "1 class + 3 methods + 1 function")
	assert.Equal(t, 5, run.Report.Found)
	assert.True(t, run.Passed())
	assert.Equal(t, 0, run.ExitCode())
	assert.NotEmpty(t, run.ID)
}

func TestRunner_MissingBackendContinues(t *testing.T) {
	dir := t.TempDir()
	backend := writeSource(t, dir, "causal_graph.py", backendSource)
	adapter := writeSource(t, dir, "adapter.py", "'CausalGraph' '__init__' 'build' 'prune' 'segment_text'")
	missing := filepath.Join(dir, "gone.py")

	runner := NewRunner(nil, Options{})
	run, err := runner.Run(context.Background(), adapter, []string{missing, backend})
	require.NoError(t, err, "A missing backend fails that module, not the run")

	require.Len(t, run.Outcomes, 2)
	assert.True(t, run.Outcomes[0].Failed())
	assert.False(t, run.Outcomes[1].Failed())
	assert.Equal(t, 1, run.Failures())
	assert.Equal(t, 5, run.Report.Total, "Only checkable modules enter the aggregate")
	assert.False(t, run.Passed(), "A module that could not be checked fails the run")
	assert.Equal(t, 1, run.ExitCode())
}

func TestRunner_ParseErrorContinues(t *testing.T) {
	dir := t.TempDir()
	good := writeSource(t, dir, "causal_graph.py", backendSource)
	broken := writeSource(t, dir, "broken.py", "class Unfinished(\n    def x(self):\n")
	adapter := writeSource(t, dir, "adapter.py", "'CausalGraph' '__init__' 'build' 'prune' 'segment_text'")

	runner := NewRunner(nil, Options{})
	run, err := runner.Run(context.Background(), adapter, []string{broken, good})
	require.NoError(t, err)

	require.Len(t, run.Outcomes, 2)
	var perr *extractor.ParseError
	require.True(t, errors.As(run.Outcomes[0].Err, &perr))
	assert.Equal(t, "broken", perr.Module)
	assert.Equal(t, 1, run.ExitCode())
}

func TestRunner_AdapterMissingIsFatal(t *testing.T) {
	dir := t.TempDir()
	backend := writeSource(t, dir, "causal_graph.py", backendSource)

	runner := NewRunner(nil, Options{})
	_, err := runner.Run(context.Background(), filepath.Join(dir, "no_adapter.py"), []string{backend})
	require.Error(t, err, "Without an adapter there is nothing to verify against")
}

func TestRunner_StructuralMode(t *testing.T) {
	dir := t.TempDir()
	backend := writeSource(t, dir, "ledger.py", ledgerSource)
	adapter := writeSource(t, dir, "adapter.py",
		"class EvidenceLedger:\n    def record(self, item):\n        return None\n")

	runner := NewRunner(nil, Options{Mode: correspond.ModeStructural})
	run, err := runner.Run(context.Background(), adapter, []string{backend})
	require.NoError(t, err)

	require.Len(t, run.Outcomes, 1)
	assert.Equal(t, correspond.ModeStructural, run.Outcomes[0].Result.Mode)
	assert.True(t, run.Passed(), "The adapter redeclares the full surface")
}

func TestRunner_StructuralModeRejectsBrokenAdapter(t *testing.T) {
	dir := t.TempDir()
	backend := writeSource(t, dir, "ledger.py", ledgerSource)
	adapter := writeSource(t, dir, "adapter.py", "class Unfinished(\n")

	runner := NewRunner(nil, Options{Mode: correspond.ModeStructural})
	_, err := runner.Run(context.Background(), adapter, []string{backend})
	require.Error(t, err)
}

func TestRunner_DirectoryInputs(t *testing.T) {
	dir := t.TempDir()
	modules := filepath.Join(dir, "models")
	require.NoError(t, os.MkdirAll(modules, 0o755))
	writeSource(t, modules, "causal_graph.py", backendSource)
	writeSource(t, modules, "ledger.py", ledgerSource)
	adapter := writeSource(t, dir, "adapter.py",
		"'CausalGraph' '__init__' 'build' 'prune' 'segment_text' 'EvidenceLedger' 'record'")

	runner := NewRunner(nil, Options{Parallelism: 2})
	run, err := runner.Run(context.Background(), adapter, []string{modules})
	require.NoError(t, err)

	require.Len(t, run.Outcomes, 2)
	assert.Equal(t, "causal_graph", run.Outcomes[0].Module, "Outcomes keep expansion order")
	assert.Equal(t, "ledger", run.Outcomes[1].Module)
	assert.Equal(t, 7, run.Report.Total)
	assert.True(t, run.Passed())
}

func TestRunner_PartialCoverageFailsThreshold(t *testing.T) {
	dir := t.TempDir()
	backend := writeSource(t, dir, "causal_graph.py", backendSource)
	adapter := writeSource(t, dir, "adapter.py", "'CausalGraph' 'build'")

	runner := NewRunner(nil, Options{})
	run, err := runner.Run(context.Background(), adapter, []string{backend})
	require.NoError(t, err)

	assert.False(t, run.Passed())
	assert.NotEmpty(t, run.Outcomes[0].Result.Missing)
}

func TestRunner_GeneratedScaffoldCoversBackend(t *testing.T) {
	dir := t.TempDir()
	backend := writeSource(t, dir, "causal_graph.py", backendSource)

	inv, err := extractor.ExtractFile(backend)
	require.NoError(t, err)
	scaffold := filepath.Join(dir, "adapter_scaffold.py")
	require.NoError(t, generator.WriteScaffold(scaffold, inv, "causal_graph"))

	runner := NewRunner(nil, Options{})
	run, err := runner.Run(context.Background(), scaffold, []string{backend})
	require.NoError(t, err)

	assert.Equal(t, run.Report.Total, run.Report.Found,
		"A freshly generated scaffold covers every inventoried name lexically")
	assert.True(t, run.Passed())
	assert.Equal(t, 0, run.ExitCode())
}
