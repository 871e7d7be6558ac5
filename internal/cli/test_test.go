package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var goldenDir = filepath.Join("..", "harness", "testdata", "golden")

func runTestCommand(t *testing.T, rootOpts *RootOptions, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewTestCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestTestCommandMissingArgs(t *testing.T) {
	_, err := runTestCommand(t, &RootOptions{Format: "text"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}

func TestTestCommandNonExistentScenariosDir(t *testing.T) {
	_, err := runTestCommand(t, &RootOptions{Format: "text"}, "/nonexistent/scenarios")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "scenarios directory not found")
}

func TestTestCommandEmptyScenariosDir(t *testing.T) {
	out, err := runTestCommand(t, &RootOptions{Format: "text"}, t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found")
}

func TestTestCommandEmptyScenariosDirJSON(t *testing.T) {
	out, err := runTestCommand(t, &RootOptions{Format: "json"}, t.TempDir())
	require.NoError(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 0, resp.Data.Total)
	assert.Empty(t, resp.Data.Scenarios)
}

func TestTestCommandAllScenariosPass(t *testing.T) {
	out, err := runTestCommand(t, &RootOptions{Format: "text"}, scenariosDir)
	require.NoError(t, err)

	assert.Contains(t, out, "✓ implicit_flow_armed (fail)")
	assert.Contains(t, out, "✓ implicit_flow_guarded (pass)")
	assert.Contains(t, out, "✓ leaky_start_rejected (fail)")
	assert.Contains(t, out, "Test Summary: 6 passed, 0 failed, 6 total")
	assert.Contains(t, out, "✓ All scenarios passed")
}

func TestTestCommandJSON(t *testing.T) {
	out, err := runTestCommand(t, &RootOptions{Format: "json"}, scenariosDir, "--filter", "implicit_*")
	require.NoError(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 3, resp.Data.Total)
	assert.Equal(t, 3, resp.Data.Passed)
	for _, s := range resp.Data.Scenarios {
		assert.True(t, s.Pass, s.Name)
		assert.Len(t, s.TraceHash, 64, s.Name)
	}
}

func TestTestCommandUpdateWritesGoldenFiles(t *testing.T) {
	dir := t.TempDir()

	out, err := runTestCommand(t, &RootOptions{Format: "text"}, scenariosDir, "--update", "--golden-dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "6 passed")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 6)

	got, err := os.ReadFile(filepath.Join(dir, "implicit_flow_armed.golden"))
	require.NoError(t, err)
	want, err := os.ReadFile(filepath.Join(goldenDir, "implicit_flow_armed.golden"))
	require.NoError(t, err)
	assert.Equal(t, string(want), string(got))

	_, err = runTestCommand(t, &RootOptions{Format: "text"}, scenariosDir, "--golden-dir", dir)
	require.NoError(t, err)
}

func TestTestCommandGoldenMismatch(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "implicit_flow_armed.golden"), []byte("{}"), 0644))

	out, err := runTestCommand(t, &RootOptions{Format: "text"}, scenariosDir,
		"--golden-dir", dir, "--filter", "implicit_flow_*")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Equal(t, "1 scenario(s) failed", err.Error())

	assert.Contains(t, out, "✗ implicit_flow_armed")
	assert.Contains(t, out, "trace does not match golden file")
	assert.Contains(t, out, "✓ implicit_flow_disabled (pass)")
	assert.Contains(t, out, "Test Summary: 2 passed, 1 failed, 3 total")
	assert.NotContains(t, out, "Usage:")
}

func TestTestCommandUnmetExpectationJSON(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "scenarios")
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "wrong.yaml"), []byte(`name: wrong_expectation
description: expects a pass from a program that branches on a secret
mode: armed
instructions:
  - {op: SkipNext, src1: InputHigh}
  - {op: Not, src1: Zero, dst: OutputLow}
inputs:
  - {high1: true, high2: false, low: false}
expect:
  verdict: pass
`), 0644))

	out, err := runTestCommand(t, &RootOptions{Format: "json"}, dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
		Error  *CLIError  `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeTestFailed, resp.Error.Code)
	require.Len(t, resp.Data.Scenarios, 1)
	s := resp.Data.Scenarios[0]
	assert.Equal(t, "wrong_expectation", s.Name)
	assert.Equal(t, "fail", s.Verdict)
	assert.False(t, s.Pass)
	require.NotEmpty(t, s.Errors)
	assert.Contains(t, s.Errors[0], "verdict")
}

func TestTestCommandLoadError(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte("name: broken\nexpects: {}\n"), 0644))

	out, err := runTestCommand(t, &RootOptions{Format: "text"}, dir)
	require.Error(t, err)
	assert.Contains(t, out, "✗ broken.yaml")
	assert.Contains(t, out, "failed to load scenario")
}

func TestTestHelpText(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewTestCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--help"})

	require.NoError(t, cmd.Execute())

	output := buf.String()
	assert.Contains(t, output, "--update")
	assert.Contains(t, output, "--filter")
	assert.Contains(t, output, "--golden-dir")
	assert.Contains(t, output, "scenarios-dir")
}

func TestFindScenarioFiles(t *testing.T) {
	files, err := findScenarioFiles(scenariosDir, "")
	require.NoError(t, err)
	assert.Len(t, files, 6)
}

func TestFindScenarioFilesWithFilter(t *testing.T) {
	files, err := findScenarioFiles(scenariosDir, "leaky_*")
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "leaky_start_direct.yaml", filepath.Base(files[0]))
	assert.Equal(t, "leaky_start_rejected.yaml", filepath.Base(files[1]))

	_, err = findScenarioFiles(scenariosDir, "[")
	require.Error(t, err)
}

func TestFindScenarioFilesSubdirectories(t *testing.T) {
	tmpDir := t.TempDir()
	subDir := filepath.Join(tmpDir, "nested")
	require.NoError(t, os.MkdirAll(subDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "a.yaml"), nil, 0644))
	require.NoError(t, os.WriteFile(filepath.Join(subDir, "b.yml"), nil, 0644))
	require.NoError(t, os.WriteFile(filepath.Join(subDir, "c.txt"), nil, 0644))

	files, err := findScenarioFiles(tmpDir, "")
	require.NoError(t, err)
	assert.Len(t, files, 2)
}
