package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_Subcommands(t *testing.T) {
	cmd := NewRootCommand()

	var names []string
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"flatten", "replay", "query", "serve"}, names)
}

func TestRootCommand_InvalidFormat(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--format", "xml", "query"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitCommandError, GetExitCode(NewExitError(ExitCommandError, "bad")))
	assert.Equal(t, ExitFailure, GetExitCode(assert.AnError))

	wrapped := WrapExitError(ExitCommandError, "outer", assert.AnError)
	assert.ErrorIs(t, wrapped, assert.AnError)
	assert.Equal(t, "outer: "+assert.AnError.Error(), wrapped.Error())
}

func TestParseRef(t *testing.T) {
	ref, err := parseRef("WebPage:https://example.com/a")
	require.NoError(t, err)
	assert.Equal(t, "WebPage", ref.Key().Type)
	assert.Equal(t, "https://example.com/a", ref.Key().ID)

	_, err = parseRef("nocolon")
	assert.Error(t, err)
	_, err = parseRef(":id")
	assert.Error(t, err)
}

func TestExecute_Success(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := Execute([]string{"query"}, &stdout, &stderr)

	assert.Equal(t, ExitSuccess, code)
	assert.JSONEq(t, `{"records":0}`, stdout.String())
	assert.Empty(t, stderr.String())
}

func TestExecute_JSONErrorEnvelope(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := Execute([]string{"--format", "json", "query", "--filter", `{"age":{"$near":1}}`}, &stdout, &stderr)

	assert.Equal(t, ExitCommandError, code)
	var resp Response
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeFilter, resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "unknown operator")
}

func TestExecute_TextErrorOnStderr(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := Execute([]string{"flatten", filepath.Join(t.TempDir(), "missing.json")}, &stdout, &stderr)

	assert.Equal(t, ExitCommandError, code)
	assert.Empty(t, stdout.String())
	assert.Contains(t, stderr.String(), "Error [E002]: input not found")
}

func TestErrorCode(t *testing.T) {
	assert.Equal(t, ErrCodeGeneric, errorCode(assert.AnError))
	assert.Equal(t, ErrCodeParse, errorCode(WrapExitError(ExitCommandError, "bad", &json.SyntaxError{})))
}
