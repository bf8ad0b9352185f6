// Package debugger runs exactly one test with a visible browser and pauses
// before every step, grounded on the scheduler's single-worker path plus
// readline for the pause-on-Enter loop (the teacher has no browser, so
// headed-vs-headless is new here, but "force serial" mirrors
// Config.Serial gating in nat.go/config.go).
package debugger

import (
	"context"
	"fmt"
	"os"

	"github.com/chzyer/readline"

	"github.com/toolproof/toolproof/browser"
	"github.com/toolproof/toolproof/discovery"
	"github.com/toolproof/toolproof/macro"
	"github.com/toolproof/toolproof/registry"
	"github.com/toolproof/toolproof/runner"
	"github.com/toolproof/toolproof/types"
)

// Run discovers settings.Root, finds the single document named
// settings.Name, and steps through it one step at a time, headed, with no
// retries — settings.Validate() already requires Name to be set. The test
// runs directly on the calling goroutine, without the scheduler, so
// settings.Concurrency is not consulted.
func Run(ctx context.Context, settings types.RunSettings, reg *registry.Registry) (types.Attempt, error) {
	found, err := discovery.Discover(settings.Root)
	if err != nil {
		return types.Attempt{}, fmt.Errorf("discovering tests under %s: %w", settings.Root, err)
	}

	var target *types.TestDocument
	for _, doc := range found.Tests {
		if doc.Name == settings.Name {
			target = doc
			break
		}
	}
	if target == nil {
		return types.Attempt{}, fmt.Errorf("no test named %q under %s", settings.Name, settings.Root)
	}

	expander := macro.New(found.Macros, found.ReferenceLoaderFor())
	steps, err := expander.Expand(target)
	if err != nil {
		return types.Attempt{}, fmt.Errorf("expanding %s: %w", target.Name, err)
	}

	rl, err := readline.New("press Enter to run next step> ")
	if err != nil {
		return types.Attempt{}, fmt.Errorf("initializing debugger prompt: %w", err)
	}
	defer rl.Close()

	pool, err := browser.NewPool(settings.Browser, false)
	if err != nil {
		return types.Attempt{}, fmt.Errorf("creating headed browser pool: %w", err)
	}
	defer pool.Close()

	tempDir, err := os.MkdirTemp("", "toolproof-debug-*")
	if err != nil {
		return types.Attempt{}, err
	}
	defer os.RemoveAll(tempDir)

	tc := types.NewTestContext(target.Name, tempDir, settings)
	tc.BrowserPool = pool

	deps := &runner.Deps{
		Registry: reg,
		Expander: expander,
		BeforeStep: func(index int, step types.Step) {
			fmt.Fprintf(rl.Stdout(), "\nstep %d: %s\n", index, step.DisplayText())
			rl.Readline() // nolint:errcheck — any input, including EOF, continues
		},
	}

	attempt := runner.RunAttempt(ctx, target, steps, tc, deps)
	for _, err := range tc.RunCleanups(ctx) {
		fmt.Fprintf(rl.Stderr(), "cleanup error: %v\n", err)
	}
	return attempt, nil
}
