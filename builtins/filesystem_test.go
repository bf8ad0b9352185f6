package builtins

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/toolproof/toolproof/registry"
	"github.com/toolproof/toolproof/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestContext(t *testing.T) *types.TestContext {
	t.Helper()
	dir := t.TempDir()
	return types.NewTestContext("t", dir, types.Defaults())
}

func TestFilesystemWriteThenRead(t *testing.T) {
	reg := registry.New()
	RegisterFilesystem(reg)
	tc := newTestContext(t)

	_, writeHandler, err := reg.ResolveInstruction("I have a 'greeting.txt' file with the content 'hello'", nil)
	require.NoError(t, err)
	require.NoError(t, writeHandler(context.Background(), tc, map[string]types.Value{
		"filename": types.NewString("greeting.txt"),
		"contents": types.NewString("hello"),
	}))

	raw, err := os.ReadFile(filepath.Join(tc.TempDir, "greeting.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(raw))

	_, readHandler, err := reg.ResolveRetrieval("the file 'greeting.txt'", nil)
	require.NoError(t, err)
	value, err := readHandler(context.Background(), tc, map[string]types.Value{"filename": types.NewString("greeting.txt")})
	require.NoError(t, err)
	assert.Equal(t, "hello", value.Str)
}

func TestFilesystemRejectsEscapingTempDir(t *testing.T) {
	tc := newTestContext(t)
	_, err := resolveUnderTempDir(tc.TempDir, "../outside.txt")
	require.Error(t, err)
	var stepErr *types.StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, types.ErrFileEscapesTempDir, stepErr.Kind)
}

func TestFilesystemReadMissingFile(t *testing.T) {
	reg := registry.New()
	RegisterFilesystem(reg)
	tc := newTestContext(t)

	_, readHandler, err := reg.ResolveRetrieval("the file 'missing.txt'", nil)
	require.NoError(t, err)
	_, err = readHandler(context.Background(), tc, map[string]types.Value{"filename": types.NewString("missing.txt")})
	require.Error(t, err)
	var stepErr *types.StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, types.ErrFileMissing, stepErr.Kind)
}

func TestFilesystemRejectsNonUtf8Content(t *testing.T) {
	tc := newTestContext(t)
	require.NoError(t, os.WriteFile(filepath.Join(tc.TempDir, "binary.dat"), []byte{0xff, 0xfe, 0x00, 0x80}, 0o644))

	reg := registry.New()
	RegisterFilesystem(reg)
	_, readHandler, err := reg.ResolveRetrieval("the file 'binary.dat'", nil)
	require.NoError(t, err)
	_, err = readHandler(context.Background(), tc, map[string]types.Value{"filename": types.NewString("binary.dat")})
	require.Error(t, err)
	var stepErr *types.StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, types.ErrFileNotUtf8, stepErr.Kind)
}
