package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServe_BadVocabulary(t *testing.T) {
	_, err := runCLI(t, "", "--vocab", filepath.Join(t.TempDir(), "missing.cue"), "serve")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "failed to load vocabulary")
}

func TestServe_RejectsArgs(t *testing.T) {
	_, err := runCLI(t, "", "serve", "extra")
	require.Error(t, err)
}
