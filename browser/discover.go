// Package browser implements the browser driver of spec.md 4.5: one
// Chromium-family process per worker, one page (tab) per test, an in-page
// `toolproof` harness, and the click/hover/type/screenshot/console
// operations. It is grounded on the teacher's addons.Addon lifecycle shape
// (Start/Stop) for the per-worker process and per-test page, generalized
// from a devnet faucet sidecar to a browser session; chromedp/cdproto
// themselves have no counterpart anywhere in the retrieved pack and are
// adopted as an out-of-pack ecosystem dependency, named rather than
// grounded, per the browser-driving requirement of spec.md 4.5.
package browser

import (
	"os/exec"
	"runtime"

	"github.com/toolproof/toolproof/types"
)

// candidateNames is the PATH lookup order of spec.md 4.5 step 2.
var candidateNames = []string{
	"chrome", "chrome-browser", "google-chrome-stable",
	"chromium", "chromium-browser",
	"msedge", "microsoft-edge", "microsoft-edge-stable",
}

// wellKnownPaths are platform-specific install locations checked as step 3,
// supplemented from original_source with the exact candidate list the
// original probes.
var wellKnownPaths = map[string][]string{
	"darwin": {
		"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
		"/Applications/Chromium.app/Contents/MacOS/Chromium",
		"/Applications/Microsoft Edge.app/Contents/MacOS/Microsoft Edge",
	},
	"linux": {
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium",
		"/usr/bin/chromium-browser",
		"/usr/bin/microsoft-edge-stable",
		"/snap/bin/chromium",
	},
	"windows": {
		`C:\Program Files\Google\Chrome\Application\chrome.exe`,
		`C:\Program Files (x86)\Google\Chrome\Application\chrome.exe`,
		`C:\Program Files (x86)\Microsoft\Edge\Application\msedge.exe`,
	},
}

// FindExecutable resolves the Chrome-family binary to launch, in the exact
// order of spec.md 4.5: env var, then PATH, then well-known install paths,
// then (Windows only) the registry. Failure to find any is
// BrowserUnavailable.
func FindExecutable(env func(string) string, statFn func(string) bool) (string, error) {
	if path := env("CHROME"); path != "" {
		return path, nil
	}

	for _, name := range candidateNames {
		if path, err := exec.LookPath(name); err == nil {
			return path, nil
		}
	}

	for _, path := range wellKnownPaths[runtime.GOOS] {
		if statFn(path) {
			return path, nil
		}
	}

	if runtime.GOOS == "windows" {
		if path, ok := lookupWindowsRegistry(); ok {
			return path, nil
		}
	}

	return "", types.NewStepError(types.ErrBrowserUnavailable, "",
		errNoBrowserFound)
}

var errNoBrowserFound = browserNotFoundError{}

type browserNotFoundError struct{}

func (browserNotFoundError) Error() string {
	return "no Chrome, Chromium, or Edge executable found via CHROME env var, PATH, or well-known install paths"
}
