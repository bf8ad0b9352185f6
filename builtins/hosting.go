package builtins

import (
	"context"

	"github.com/toolproof/toolproof/registry"
	"github.com/toolproof/toolproof/serve"
	"github.com/toolproof/toolproof/types"
)

// RegisterHosting adds the "I serve the directory {dir}" instruction
// (spec.md 4.2). The bound server is torn down automatically when the test
// ends via tc.AddCleanup, satisfying "one per test max" / "the server exits
// when the test ends".
func RegisterHosting(reg *registry.Registry) {
	reg.RegisterInstruction("I serve the directory {dir}",
		func(ctx context.Context, tc *types.TestContext, args map[string]types.Value) error {
			path, err := resolveUnderTempDir(tc.TempDir, args["dir"].Str)
			if err != nil {
				return err
			}
			srv, err := serve.Start(path)
			if err != nil {
				return err
			}
			tc.SetServePort(srv.Port())
			tc.AddCleanup(srv.Stop)
			return nil
		})
}
