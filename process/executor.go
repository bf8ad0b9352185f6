// Package process implements the "I run {command}" instruction family
// (spec.md 4.2): spawning a shell-invoked child in the test's temp
// directory, capturing stdout/stderr, and enforcing per-step timeouts. It
// is grounded on the teacher's runner/executor.go, which spawns `go test`
// subprocesses the same way: exec.CommandContext, a bounded tail buffer on
// stdout, and exit-code interpretation that distinguishes an expected
// failure from an unexpected one.
package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"

	"github.com/toolproof/toolproof/types"
)

const defaultStdoutTailBytes = 64 * 1024

// Result is the outcome of running one shell command.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
	TimedOut bool
}

// Run spawns command via the platform shell inside dir, with env layered on
// top of the current process environment (spec.md 4.2: "updates env_overlay"
// never replaces the ambient environment — a detail confirmed against
// original_source, since a bare replace would silently drop PATH and break
// every subsequent step).
func Run(ctx context.Context, dir string, command string, env map[string]string) (Result, error) {
	shell, flag := "/bin/sh", "-c"
	if runtime.GOOS == "windows" {
		shell, flag = "cmd", "/C"
	}

	cmd := exec.CommandContext(ctx, shell, flag, command)
	cmd.Dir = dir
	cmd.Env = mergeEnv(os.Environ(), env)

	var stderrBuf bytes.Buffer
	stdoutTail := newTailBuffer(defaultStdoutTailBytes)
	cmd.Stdout = stdoutTail
	cmd.Stderr = &stderrBuf

	runErr := cmd.Run()

	result := Result{
		Stdout: stdoutTail.String(),
		Stderr: stderrBuf.String(),
	}

	if ctx.Err() == context.DeadlineExceeded {
		result.TimedOut = true
		return result, types.NewStepError(types.ErrStepTimeout, command, ctx.Err())
	}

	if runErr != nil {
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}
		return result, types.NewStepError(types.ErrProcessSpawnFailed, command, runErr)
	}

	return result, nil
}

// RunExpectSuccess runs command and fails with ProcessNonZeroExit unless it
// exits zero ("I run {command}").
func RunExpectSuccess(ctx context.Context, dir, command string, env map[string]string) (Result, error) {
	res, err := Run(ctx, dir, command, env)
	if err != nil {
		return res, err
	}
	if res.ExitCode != 0 {
		return res, types.NewStepError(types.ErrProcessNonZeroExit, command,
			fmt.Errorf("exit code %d: %s", res.ExitCode, res.Stderr))
	}
	return res, nil
}

// RunExpectFailure runs command and fails with
// ProcessZeroExitButFailureExpected unless it exits non-zero ("I run
// {command} and expect it to fail").
func RunExpectFailure(ctx context.Context, dir, command string, env map[string]string) (Result, error) {
	res, err := Run(ctx, dir, command, env)
	if err != nil {
		return res, err
	}
	if res.ExitCode == 0 {
		return res, types.NewStepError(types.ErrProcessZeroExitButFailure, command,
			errors.New("command succeeded but a failure was expected"))
	}
	return res, nil
}

func mergeEnv(base []string, overlay map[string]string) []string {
	out := make([]string, len(base), len(base)+len(overlay))
	copy(out, base)
	for k, v := range overlay {
		out = append(out, k+"="+v)
	}
	return out
}
