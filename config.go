package toolproof

import (
	"fmt"
	"path/filepath"

	"github.com/ethereum/go-ethereum/log"
	"github.com/urfave/cli/v2"

	"github.com/toolproof/toolproof/discovery"
	"github.com/toolproof/toolproof/flags"
	"github.com/toolproof/toolproof/types"
)

// NewSettings builds a types.RunSettings from a cli.Context, the way
// nat.NewConfig built Config: flag lookups, filepath.Abs resolution of the
// root directory, and defaulting through types.Defaults().
func NewSettings(ctx *cli.Context, logger log.Logger) (*types.RunSettings, error) {
	settings := types.Defaults()

	root := ctx.String(flags.Root.Name)
	if root == "" {
		defaulted, err := discovery.DefaultRoot(".")
		if err != nil {
			return nil, fmt.Errorf("no --root given and no go.mod found to default it from: %w", err)
		}
		root = defaulted
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path for root %q: %w", root, err)
	}
	settings.Root = absRoot

	if ctx.IsSet(flags.Concurrency.Name) {
		settings.Concurrency = ctx.Int(flags.Concurrency.Name)
	}
	if ctx.IsSet(flags.Timeout.Name) {
		settings.Timeout = ctx.Duration(flags.Timeout.Name)
	}
	if ctx.IsSet(flags.BrowserTimeout.Name) {
		settings.BrowserTimeout = ctx.Duration(flags.BrowserTimeout.Name)
	}
	settings.BeforeAll = ctx.StringSlice(flags.BeforeAll.Name)
	settings.SkipHooks = ctx.Bool(flags.SkipHooks.Name)
	if browser := ctx.String(flags.Browser.Name); browser != "" {
		settings.Browser = types.BrowserKind(browser)
	}
	settings.RetryCount = ctx.Int(flags.RetryCount.Name)
	settings.Name = ctx.String(flags.Name.Name)
	settings.Path = ctx.String(flags.Path.Name)
	settings.Interactive = ctx.Bool(flags.Interactive.Name)
	settings.All = ctx.Bool(flags.All.Name)
	settings.Debugger = ctx.Bool(flags.Debugger.Name)
	settings.FailureScreenshotLocation = ctx.String(flags.FailureScreenshotLocation.Name)
	settings.Porcelain = ctx.Bool(flags.Porcelain.Name)
	settings.Verbose = ctx.Bool(flags.Verbose.Name)

	if err := settings.Validate(); err != nil {
		return nil, err
	}

	logger.Debug("resolved run settings",
		"root", settings.Root,
		"concurrency", settings.Concurrency,
		"timeout", settings.Timeout,
		"browser_timeout", settings.BrowserTimeout,
		"browser", settings.Browser,
		"interactive", settings.Interactive,
	)

	return &settings, nil
}
