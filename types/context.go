package types

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strconv"
	"sync"
)

// Placeholder keys for the built-in bindings every TestContext exposes
// (spec.md 3).
const (
	PlaceholderProcessDir     = "toolproof_process_directory"
	PlaceholderProcessDirUnix = "toolproof_process_directory_unix"
	PlaceholderTestDir        = "toolproof_test_directory"
	PlaceholderTestDirUnix    = "toolproof_test_directory_unix"
	PlaceholderTestPort       = "toolproof_test_port"
)

// Capture holds the most recent process stdout/stderr capture for a test
// (spec.md 4.2, 5: "last wins" per the Open Question resolved in
// SPEC_FULL.md).
type Capture struct {
	mu     sync.Mutex
	Stdout bytes.Buffer
	Stderr bytes.Buffer
}

func (c *Capture) Reset(stdout, stderr string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Stdout.Reset()
	c.Stdout.WriteString(stdout)
	c.Stderr.Reset()
	c.Stderr.WriteString(stderr)
}

func (c *Capture) Read() (stdout, stderr string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Stdout.String(), c.Stderr.String()
}

// TestContext is the mutable, per-test state threaded through every step
// handler (spec.md 3). Exactly one TestContext is live per running test;
// two tests never share a TempDir, ServePort, or browser page.
type TestContext struct {
	TestName string
	TempDir  string

	HostPlatform Platform

	EnvOverlay map[string]string

	ServePort int // 0 if no server bound

	Capture Capture

	// BrowserPool holds the owning worker's *browser.Pool (an interface{}
	// here to avoid types depending on the browser package); set by the
	// scheduler before a test's first step runs.
	BrowserPool any

	// BrowserPage holds the driver's per-test page handle (an
	// interface{} here to avoid types depending on the browser package);
	// nil until the first browser operation of the test.
	BrowserPage any

	// PlaceholderBindings are macro-argument bindings currently in scope,
	// pushed/popped as macro expansion materialises (spec.md 4.3); they
	// shadow RunSettings.Placeholders and the built-ins below.
	PlaceholderBindings []map[string]string

	Builtins map[string]string

	RunSettings RunSettings

	// cleanups are torn down in reverse order once the attempt that owns
	// this context finishes (spec.md 5: e.g. "the server exits when the test
	// ends"), regardless of pass/fail/timeout.
	cleanups []func(context.Context) error

	mu sync.Mutex
}

// AddCleanup registers fn to run when the test ends, most-recently-added
// first.
func (tc *TestContext) AddCleanup(fn func(context.Context) error) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.cleanups = append(tc.cleanups, fn)
}

// RunCleanups tears down every registered cleanup in LIFO order, collecting
// but not stopping on individual errors.
func (tc *TestContext) RunCleanups(ctx context.Context) []error {
	tc.mu.Lock()
	fns := tc.cleanups
	tc.cleanups = nil
	tc.mu.Unlock()

	var errs []error
	for i := len(fns) - 1; i >= 0; i-- {
		if err := fns[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

// NewTestContext builds the initial context for one test run/attempt.
func NewTestContext(name, tempDir string, settings RunSettings) *TestContext {
	env := make(map[string]string, len(settings.Placeholders))
	processDir, _ := os.Getwd()
	return &TestContext{
		TestName:     name,
		TempDir:      tempDir,
		HostPlatform: HostPlatform(),
		EnvOverlay:   env,
		Builtins: map[string]string{
			PlaceholderProcessDir:     processDir,
			PlaceholderProcessDirUnix: filepath.ToSlash(processDir),
			PlaceholderTestDir:        tempDir,
			PlaceholderTestDirUnix:    filepath.ToSlash(tempDir),
		},
		RunSettings: settings,
	}
}

// EffectivePlaceholders returns the fully merged placeholders_effective map
// (spec.md 3): RunSettings.placeholders, overlaid with built-ins, overlaid
// with any active macro-argument bindings (innermost wins).
func (tc *TestContext) EffectivePlaceholders() map[string]string {
	tc.mu.Lock()
	defer tc.mu.Unlock()

	out := make(map[string]string, len(tc.RunSettings.Placeholders)+len(tc.Builtins))
	for k, v := range tc.RunSettings.Placeholders {
		out[k] = v
	}
	for k, v := range tc.Builtins {
		out[k] = v
	}
	for _, binding := range tc.PlaceholderBindings {
		for k, v := range binding {
			out[k] = v
		}
	}
	return out
}

// PushBindings adds one macro invocation's argument bindings to the active
// scope, returning a function that pops them back off.
func (tc *TestContext) PushBindings(bindings map[string]string) func() {
	tc.mu.Lock()
	tc.PlaceholderBindings = append(tc.PlaceholderBindings, bindings)
	tc.mu.Unlock()
	return func() {
		tc.mu.Lock()
		defer tc.mu.Unlock()
		if len(tc.PlaceholderBindings) > 0 {
			tc.PlaceholderBindings = tc.PlaceholderBindings[:len(tc.PlaceholderBindings)-1]
		}
	}
}

// SetServePort records the bound ephemeral port and updates the
// toolproof_test_port builtin.
func (tc *TestContext) SetServePort(port int) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.ServePort = port
	tc.Builtins[PlaceholderTestPort] = strconv.Itoa(port)
}
