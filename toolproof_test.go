package toolproof

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toolproof/toolproof/types"
)

func writeTestDoc(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestRunPassesAllFilesystemSteps(t *testing.T) {
	dir := t.TempDir()
	writeTestDoc(t, dir, "a.toolproof.yml", `
name: writes and reads a file
steps:
  - "I have a 'greeting.txt' file with the content 'hi'"
  - step: "the file 'greeting.txt' should contain 'hi'"
`)

	settings := types.Defaults()
	settings.Root = dir

	result, err := Run(context.Background(), settings, "", log.New())
	require.NoError(t, err)
	assert.Equal(t, types.TestStatusPass, result.Status)
	assert.Equal(t, 1, result.Stats.Total)
	assert.Equal(t, 1, result.Stats.Passed)
}

func TestRunReturnsTestFailureErrorOnFailingAssertion(t *testing.T) {
	dir := t.TempDir()
	writeTestDoc(t, dir, "b.toolproof.yml", `
name: mismatched assertion
steps:
  - "I have a 'greeting.txt' file with the content 'hi'"
  - step: "the file 'greeting.txt' should contain 'bye'"
`)

	settings := types.Defaults()
	settings.Root = dir

	result, err := Run(context.Background(), settings, "", log.New())
	require.Error(t, err)
	assert.True(t, IsTestFailureError(err))
	assert.Equal(t, types.TestStatusFail, result.Status)
}

func TestRunExcludesReferenceDocumentsByDefault(t *testing.T) {
	dir := t.TempDir()
	writeTestDoc(t, dir, "shared.toolproof.yml", `
name: shared setup
type: reference
steps:
  - "I have a 'shared.txt' file with the content 'x'"
`)
	writeTestDoc(t, dir, "user.toolproof.yml", `
name: uses shared setup
steps:
  - ref: "./shared.toolproof.yml"
  - step: "the file 'shared.txt' should contain 'x'"
`)

	settings := types.Defaults()
	settings.Root = dir

	result, err := Run(context.Background(), settings, "", log.New())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Stats.Total)
	assert.Equal(t, "uses shared setup", result.Results[0].Name)
}

func TestRunWritesFailureLogsWhenLogDirGiven(t *testing.T) {
	dir := t.TempDir()
	writeTestDoc(t, dir, "c.toolproof.yml", `
name: mismatched assertion again
steps:
  - "I have a 'greeting.txt' file with the content 'hi'"
  - step: "the file 'greeting.txt' should contain 'bye'"
`)

	logDir := t.TempDir()
	settings := types.Defaults()
	settings.Root = dir

	_, err := Run(context.Background(), settings, logDir, log.New())
	require.Error(t, err)

	entries, err := os.ReadDir(logDir)
	require.NoError(t, err)
	assert.NotEmpty(t, entries)
}
