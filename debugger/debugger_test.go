package debugger

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toolproof/toolproof/builtins"
	"github.com/toolproof/toolproof/registry"
	"github.com/toolproof/toolproof/types"
)

func writeDoc(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestRunErrorsWhenNamedTestNotFound(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "a.toolproof.yml", `
name: present test
steps:
  - "I have a 'greeting.txt' file with the content 'hi'"
`)

	settings := types.Defaults()
	settings.Root = dir
	settings.Name = "missing test"
	settings.Concurrency = 1

	reg := registry.New()
	builtins.Register(reg)

	_, err := Run(context.Background(), settings, reg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing test")
}

func TestRunErrorsOnUnresolvableRoot(t *testing.T) {
	settings := types.Defaults()
	settings.Root = filepath.Join(t.TempDir(), "does-not-exist")
	settings.Name = "anything"

	reg := registry.New()
	builtins.Register(reg)

	_, err := Run(context.Background(), settings, reg)
	require.Error(t, err)
}
