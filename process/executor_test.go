package process

import (
	"context"
	"os"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunExpectSuccess(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses /bin/sh")
	}
	res, err := RunExpectSuccess(context.Background(), t.TempDir(), "echo hello", nil)
	require.NoError(t, err)
	assert.Contains(t, res.Stdout, "hello")
}

func TestRunExpectSuccessFailsOnNonZeroExit(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses /bin/sh")
	}
	_, err := RunExpectSuccess(context.Background(), t.TempDir(), "exit 1", nil)
	require.Error(t, err)
}

func TestRunExpectFailureSucceedsOnNonZero(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses /bin/sh")
	}
	_, err := RunExpectFailure(context.Background(), t.TempDir(), "exit 1", nil)
	require.NoError(t, err)
}

func TestRunEnvOverlayPreservesAmbientEnv(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses /bin/sh")
	}
	res, err := RunExpectSuccess(context.Background(), t.TempDir(), "echo $PATH:$FOO", map[string]string{"FOO": "bar"})
	require.NoError(t, err)
	assert.Contains(t, res.Stdout, "bar")
	assert.Contains(t, res.Stdout, os.Getenv("PATH")+":bar")
}

func TestRunTimeout(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses /bin/sh")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := Run(ctx, t.TempDir(), "sleep 5", nil)
	require.Error(t, err)
}
