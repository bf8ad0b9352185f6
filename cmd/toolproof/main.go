// Command toolproof wires the CLI surface, grounded on the teacher's
// cmd/main.go: a single urfave/cli/v2.App with one Action, an
// ExitErrHandler mapping the two application error types (plus SIGINT) to
// exit codes, stripped of the Optimism-specific telemetry/devnet-sdk
// wiring that has no home in this domain.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/ethereum/go-ethereum/log"
	"github.com/urfave/cli/v2"

	"github.com/toolproof/toolproof"
	"github.com/toolproof/toolproof/builtins"
	"github.com/toolproof/toolproof/debugger"
	"github.com/toolproof/toolproof/exitcodes"
	"github.com/toolproof/toolproof/flags"
	"github.com/toolproof/toolproof/registry"
	"github.com/toolproof/toolproof/types"
)

var Version = "dev"

func main() {
	app := &cli.App{
		Name:    "toolproof",
		Usage:   "Run YAML-described end-to-end tests against a browser, filesystem, and local processes",
		Version: Version,
		Flags:   flags.Flags,
		Action:  run,
		ExitErrHandler: func(ctx *cli.Context, err error) {
			if err == nil {
				return
			}
			fmt.Fprintln(ctx.App.ErrWriter, err)

			code := exitcodes.RuntimeErr
			switch {
			case toolproof.IsTestFailureError(err):
				code = exitcodes.TestFailure
			case toolproof.IsRuntimeError(err):
				code = exitcodes.RuntimeErr
			default:
				if coder, ok := err.(cli.ExitCoder); ok {
					code = coder.ExitCode()
				}
			}
			os.Exit(code)
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitcodes.RuntimeErr)
	}
}

func run(ctx *cli.Context) error {
	logger := log.NewLogger(log.NewTerminalHandlerWithLevel(os.Stderr, log.LevelInfo, true))
	if ctx.Bool(flags.Verbose.Name) {
		logger = log.NewLogger(log.NewTerminalHandlerWithLevel(os.Stderr, log.LevelDebug, true))
	}

	settings, err := toolproof.NewSettings(ctx, logger)
	if err != nil {
		return toolproof.NewRuntimeError(err)
	}

	runCtx, cancel := signal.NotifyContext(ctx.Context, os.Interrupt)
	defer cancel()

	logDir := ctx.String(flags.LogDir.Name)

	if settings.Debugger {
		return runDebugger(runCtx, *settings, logger)
	}

	_, runErr := toolproof.Run(runCtx, *settings, logDir, logger)
	if runCtx.Err() != nil {
		return cli.Exit("interrupted", 130)
	}
	return runErr
}

func runDebugger(ctx context.Context, settings types.RunSettings, logger log.Logger) error {
	logger.Info("starting debugger", "test", settings.Name, "browser", settings.Browser)

	reg := registry.New()
	builtins.Register(reg)

	attempt, err := debugger.Run(ctx, settings, reg)
	if err != nil {
		return toolproof.NewRuntimeError(err)
	}

	switch attempt.Status {
	case types.TestStatusPass:
		fmt.Println("PASS", settings.Name)
		return nil
	case types.TestStatusTimeout:
		return toolproof.NewTestFailureError(fmt.Sprintf("%s: timed out: %v", settings.Name, attempt.Err))
	default:
		return toolproof.NewTestFailureError(fmt.Sprintf("%s: %v", settings.Name, attempt.Err))
	}
}
