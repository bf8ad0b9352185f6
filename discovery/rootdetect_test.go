package discovery

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRootPrefersTestsSubdir(t *testing.T) {
	moduleDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(moduleDir, "go.mod"), []byte("module example.com/x\n\ngo 1.23\n"), 0o644))
	testsDir := filepath.Join(moduleDir, "tests")
	require.NoError(t, os.MkdirAll(testsDir, 0o755))

	nested := filepath.Join(moduleDir, "cmd", "sub")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	root, err := DefaultRoot(nested)
	require.NoError(t, err)
	assert.Equal(t, testsDir, root)
}

func TestDefaultRootFallsBackToModuleDirWithoutTestsSubdir(t *testing.T) {
	moduleDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(moduleDir, "go.mod"), []byte("module example.com/y\n\ngo 1.23\n"), 0o644))

	root, err := DefaultRoot(moduleDir)
	require.NoError(t, err)
	assert.Equal(t, moduleDir, root)
}

func TestDefaultRootFailsWithoutGoMod(t *testing.T) {
	dir := t.TempDir()
	_, err := DefaultRoot(dir)
	require.Error(t, err)
}
