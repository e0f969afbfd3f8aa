package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"hash", "--file-path", filepath.Join("..", "..", "internal", "artifact", "testdata", "casm_class.json")})

	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), "Program hash: 0x")
	assert.Contains(t, out.String(), "Version: 2")
	assert.Contains(t, out.String(), "Layout: recursive_with_poseidon")
}

func TestHashCommandMissingFile(t *testing.T) {
	rootCmd.SetOut(&bytes.Buffer{})
	rootCmd.SetArgs([]string{"hash", "--file-path", filepath.Join(t.TempDir(), "missing.json")})

	assert.Error(t, rootCmd.Execute())
}
