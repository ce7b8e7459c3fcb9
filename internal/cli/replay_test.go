package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const passingScenario = `
name: passing
steps:
  - post: { type: Person, id: p1, name: Alice }
  - get: { type: Person, id: p1 }
    expect: { name: Alice }
`

const failingScenario = `
name: failing
steps:
  - post: { type: Person, id: p1, name: Alice }
  - get: { type: Person, id: p1 }
    expect: { name: Bob }
`

func writeScenarios(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	return dir
}

func TestReplay_AllPass(t *testing.T) {
	dir := writeScenarios(t, map[string]string{"passing.yaml": passingScenario, "notes.txt": "ignored"})

	out, err := runCLI(t, "", "replay", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ passing")
	assert.Contains(t, out, "1 passed, 0 failed, 1 total")
}

func TestReplay_FailureExitCode(t *testing.T) {
	dir := writeScenarios(t, map[string]string{"passing.yaml": passingScenario, "failing.yaml": failingScenario})

	out, err := runCLI(t, "", "replay", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ failing")
	assert.Contains(t, out, "1 passed, 1 failed, 2 total")
}

func TestReplay_FilterAndJSONTrace(t *testing.T) {
	dir := writeScenarios(t, map[string]string{"passing.yaml": passingScenario, "failing.yaml": failingScenario})

	out, err := runCLI(t, "", "replay", dir, "--filter", "pass*", "--trace", "--format", "json")
	require.NoError(t, err)

	var resp struct {
		Status string       `json:"status"`
		Data   ReplayResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	require.Len(t, resp.Data.Scenarios, 1)
	assert.Equal(t, "passing", resp.Data.Scenarios[0].Name)
	assert.Contains(t, string(resp.Data.Scenarios[0].Trace), `"op":"get"`)
}

func TestReplay_MissingPath(t *testing.T) {
	_, err := runCLI(t, "", "replay", "/does/not/exist")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestReplay_LoadError(t *testing.T) {
	dir := writeScenarios(t, map[string]string{"broken.yaml": "name: broken\n"})

	out, err := runCLI(t, "", "replay", dir)
	require.Error(t, err)
	assert.Contains(t, out, "failed to load scenario")
}
