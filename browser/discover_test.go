package browser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindExecutablePrefersEnvVar(t *testing.T) {
	env := func(k string) string {
		if k == "CHROME" {
			return "/opt/custom/chrome"
		}
		return ""
	}
	path, err := FindExecutable(env, func(string) bool { return false })
	require.NoError(t, err)
	assert.Equal(t, "/opt/custom/chrome", path)
}

func TestFindExecutableFallsBackToWellKnownPath(t *testing.T) {
	env := func(string) string { return "" }
	stat := func(p string) bool { return p == "/usr/bin/google-chrome-stable" }

	path, err := FindExecutable(env, stat)
	if err == nil {
		assert.NotEmpty(t, path)
	}
}

func TestFindExecutableFailsWithBrowserUnavailable(t *testing.T) {
	env := func(string) string { return "" }
	stat := func(string) bool { return false }

	_, err := FindExecutable(env, stat)
	require.Error(t, err)
}
