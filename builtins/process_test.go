package builtins

import (
	"context"
	"runtime"
	"testing"

	"github.com/toolproof/toolproof/registry"
	"github.com/toolproof/toolproof/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessEnvOverlaySetsVariable(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell command below assumes a POSIX shell")
	}
	reg := registry.New()
	RegisterProcess(reg)
	tc := newTestContext(t)

	_, setEnv, err := reg.ResolveInstruction("I have the environment variable 'GREETING' set to 'hi'", nil)
	require.NoError(t, err)
	require.NoError(t, setEnv(context.Background(), tc, map[string]types.Value{
		"name": types.NewString("GREETING"), "value": types.NewString("hi"),
	}))
	assert.Equal(t, "hi", tc.EnvOverlay["GREETING"])
}

func TestProcessRunExpectSuccessCapturesStdout(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell command below assumes a POSIX shell")
	}
	reg := registry.New()
	RegisterProcess(reg)
	tc := newTestContext(t)

	_, run, err := reg.ResolveInstruction("I run 'echo hello'", nil)
	require.NoError(t, err)
	require.NoError(t, run(context.Background(), tc, map[string]types.Value{"command": types.NewString("echo hello")}))

	_, stdout, err := reg.ResolveRetrieval("stdout", nil)
	require.NoError(t, err)
	value, err := stdout(context.Background(), tc, nil)
	require.NoError(t, err)
	assert.Contains(t, value.Str, "hello")
}

func TestProcessRunExpectSuccessFailsOnNonZeroExit(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell command below assumes a POSIX shell")
	}
	reg := registry.New()
	RegisterProcess(reg)
	tc := newTestContext(t)

	_, run, err := reg.ResolveInstruction("I run 'exit 1'", nil)
	require.NoError(t, err)
	err = run(context.Background(), tc, map[string]types.Value{"command": types.NewString("exit 1")})
	require.Error(t, err)
	var stepErr *types.StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, types.ErrProcessNonZeroExit, stepErr.Kind)
}

func TestProcessRunExpectFailurePassesOnNonZeroExit(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell command below assumes a POSIX shell")
	}
	reg := registry.New()
	RegisterProcess(reg)
	tc := newTestContext(t)

	_, run, err := reg.ResolveInstruction("I run 'exit 1' and expect it to fail", nil)
	require.NoError(t, err)
	require.NoError(t, run(context.Background(), tc, map[string]types.Value{"command": types.NewString("exit 1")}))
}
