package builtins

import (
	"context"

	"github.com/toolproof/toolproof/process"
	"github.com/toolproof/toolproof/registry"
	"github.com/toolproof/toolproof/types"
)

// RegisterProcess adds the environment-overlay and process-running
// handlers of spec.md 4.2.
func RegisterProcess(reg *registry.Registry) {
	reg.RegisterInstruction("I have the environment variable {name} set to {value}",
		func(ctx context.Context, tc *types.TestContext, args map[string]types.Value) error {
			if tc.EnvOverlay == nil {
				tc.EnvOverlay = make(map[string]string)
			}
			tc.EnvOverlay[args["name"].Str] = args["value"].Str
			return nil
		})

	reg.RegisterInstruction("I run {command}",
		func(ctx context.Context, tc *types.TestContext, args map[string]types.Value) error {
			res, err := process.RunExpectSuccess(ctx, tc.TempDir, args["command"].Str, tc.EnvOverlay)
			tc.Capture.Reset(res.Stdout, res.Stderr)
			return err
		})

	reg.RegisterInstruction("I run {command} and expect it to fail",
		func(ctx context.Context, tc *types.TestContext, args map[string]types.Value) error {
			res, err := process.RunExpectFailure(ctx, tc.TempDir, args["command"].Str, tc.EnvOverlay)
			tc.Capture.Reset(res.Stdout, res.Stderr)
			return err
		})

	reg.RegisterRetrieval("stdout",
		func(ctx context.Context, tc *types.TestContext, args map[string]types.Value) (types.Value, error) {
			out, _ := tc.Capture.Read()
			return types.NewString(out), nil
		})

	reg.RegisterRetrieval("stderr",
		func(ctx context.Context, tc *types.TestContext, args map[string]types.Value) (types.Value, error) {
			_, errOut := tc.Capture.Read()
			return types.NewString(errOut), nil
		})
}
