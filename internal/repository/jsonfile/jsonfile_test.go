package jsonfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteCreatesParentsAndReplaces(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "doc.json")

	require.NoError(t, Write(path, map[string]int{"x": 1}))
	require.NoError(t, Write(path, []string{"y"}))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `["y"]`, string(raw))
	assert.NoFileExists(t, path+".tmp")
}

func TestWriteFailureLeavesNoTempFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.json")
	require.NoError(t, os.Mkdir(path, 0o755))

	require.Error(t, Write(path, []int{1}))
	assert.NoFileExists(t, path+".tmp")
}
