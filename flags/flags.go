// Package flags declares the CLI surface, grounded on the teacher's
// flags.go: a TOOLPROOF_* env var prefix per flag, hyphenated long names,
// and a fixed short-flag set for the most common overrides.
package flags

import (
	"fmt"
	"time"

	"github.com/urfave/cli/v2"
)

const EnvVarPrefix = "TOOLPROOF"

func prefixEnvVar(name string) []string {
	return []string{EnvVarPrefix + "_" + name}
}

var (
	Root = &cli.StringFlag{
		Name:    "root",
		EnvVars: prefixEnvVar("ROOT"),
		Usage:   "Directory to discover *.toolproof.yml documents from. Defaults to tests/ next to the nearest go.mod, or that go.mod's directory when tests/ is absent.",
	}
	Concurrency = &cli.IntFlag{
		Name:    "concurrency",
		Aliases: []string{"c"},
		Value:   1,
		EnvVars: prefixEnvVar("CONCURRENCY"),
		Usage:   "Number of tests to run in parallel",
	}
	Timeout = &cli.DurationFlag{
		Name:    "timeout",
		Value:   10 * time.Second,
		EnvVars: prefixEnvVar("TIMEOUT"),
		Usage:   "Per-step timeout",
	}
	BrowserTimeout = &cli.DurationFlag{
		Name:    "browser-timeout",
		Value:   8 * time.Second,
		EnvVars: prefixEnvVar("BROWSER_TIMEOUT"),
		Usage:   "Per-browser-action timeout; must be strictly less than --timeout",
	}
	BeforeAll = &cli.StringSliceFlag{
		Name:    "before-all",
		EnvVars: prefixEnvVar("BEFORE_ALL"),
		Usage:   "Shell command to run once before any test starts, repeatable",
	}
	SkipHooks = &cli.BoolFlag{
		Name:    "skip-hooks",
		Aliases: []string{"s"},
		EnvVars: prefixEnvVar("SKIP_HOOKS"),
		Usage:   "Skip before_all hooks",
	}
	Browser = &cli.StringFlag{
		Name:    "browser",
		Value:   "chrome",
		EnvVars: prefixEnvVar("BROWSER"),
		Usage:   "Browser family to drive: chrome or pagebrowse",
	}
	RetryCount = &cli.IntFlag{
		Name:    "retry-count",
		Aliases: []string{"r"},
		EnvVars: prefixEnvVar("RETRY_COUNT"),
		Usage:   "Number of retries for a failing test before it is reported failed",
	}
	Name = &cli.StringFlag{
		Name:    "name",
		Aliases: []string{"n"},
		EnvVars: prefixEnvVar("NAME"),
		Usage:   "Run only the test with this exact name",
	}
	Path = &cli.StringFlag{
		Name:    "path",
		Aliases: []string{"p"},
		EnvVars: prefixEnvVar("PATH"),
		Usage:   "Run only documents whose path has this prefix",
	}
	Interactive = &cli.BoolFlag{
		Name:    "interactive",
		Aliases: []string{"i"},
		EnvVars: prefixEnvVar("INTERACTIVE"),
		Usage:   "Prompt to accept snapshot mismatches instead of failing; forces concurrency=1",
	}
	All = &cli.BoolFlag{
		Name:    "all",
		Aliases: []string{"a"},
		EnvVars: prefixEnvVar("ALL"),
		Usage:   "Keep reference documents in the list handed to the scheduler; the scheduler still never runs a reference document directly",
	}
	Debugger = &cli.BoolFlag{
		Name:    "debugger",
		EnvVars: prefixEnvVar("DEBUGGER"),
		Usage:   "Run a single test in the visible, pause-per-step debugger",
	}
	FailureScreenshotLocation = &cli.StringFlag{
		Name:    "failure-screenshot-location",
		EnvVars: prefixEnvVar("FAILURE_SCREENSHOT_LOCATION"),
		Usage:   "Directory to save a screenshot to when a browser step fails",
	}
	Porcelain = &cli.BoolFlag{
		Name:    "porcelain",
		EnvVars: prefixEnvVar("PORCELAIN"),
		Usage:   "Print line-oriented, script-friendly output instead of the rich table",
	}
	Verbose = &cli.BoolFlag{
		Name:    "verbose",
		Aliases: []string{"v"},
		EnvVars: prefixEnvVar("VERBOSE"),
		Usage:   "Verbose logging",
	}
	LogDir = &cli.StringFlag{
		Name:    "log-dir",
		Value:   "logs",
		EnvVars: prefixEnvVar("LOG_DIR"),
		Usage:   "Directory to write per-run log files to",
	}
)

var Flags = []cli.Flag{
	Root, Concurrency, Timeout, BrowserTimeout, BeforeAll, SkipHooks, Browser,
	RetryCount, Name, Path, Interactive, All, Debugger,
	FailureScreenshotLocation, Porcelain, Verbose, LogDir,
}

// CheckUnique fails if two flags share a name, guarding against accidental
// collisions as the flag set grows (mirrors the teacher's TestUniqueFlags).
func CheckUnique(flags []cli.Flag) error {
	seen := make(map[string]struct{}, len(flags))
	for _, f := range flags {
		for _, name := range f.Names() {
			if _, ok := seen[name]; ok {
				return fmt.Errorf("duplicate flag name: %s", name)
			}
			seen[name] = struct{}{}
		}
	}
	return nil
}
