package types

import "time"

// BrowserKind selects the browser family driven by the browser subsystem
// (spec.md 3).
type BrowserKind string

const (
	BrowserChrome    BrowserKind = "chrome"
	BrowserPagebrowse BrowserKind = "pagebrowse"
)

// RunSettings is the fully-resolved input to the step-execution kernel
// (spec.md 3). Config-file loading and env merging that produce it are an
// external collaborator's concern (spec.md 1); the kernel only ever sees a
// resolved value.
type RunSettings struct {
	Root                     string
	Concurrency              int
	Timeout                  time.Duration
	BrowserTimeout           time.Duration
	Placeholders             map[string]string
	PlaceholderDelimiter     byte
	BeforeAll                []string
	SkipHooks                bool
	Browser                  BrowserKind
	RetryCount               int
	Name                     string
	Path                     string
	Platforms                Platform
	Interactive              bool
	All                      bool
	Debugger                 bool
	FailureScreenshotLocation string
	Porcelain                bool
	Verbose                  bool
	SupportedVersions        string
}

// Defaults returns a RunSettings with every spec.md-mandated default value
// applied (timeout=10s, browser_timeout=8s, placeholder_delimiter='%').
func Defaults() RunSettings {
	return RunSettings{
		Timeout:              10 * time.Second,
		BrowserTimeout:       8 * time.Second,
		PlaceholderDelimiter: '%',
		Concurrency:          1,
		Browser:              BrowserChrome,
		Platforms:            HostPlatform(),
	}
}

// Validate enforces the invariants RunSettings itself can check before the
// kernel starts (spec.md 4.6: browser_timeout must be strictly less than
// timeout, concurrency >= 1, retry_count >= 0).
func (s RunSettings) Validate() error {
	if s.Concurrency < 1 {
		return errInvalid("concurrency must be >= 1")
	}
	if s.RetryCount < 0 {
		return errInvalid("retry_count must be >= 0")
	}
	if s.BrowserTimeout >= s.Timeout {
		return errInvalid("browser_timeout must be strictly less than timeout")
	}
	if s.Debugger && s.Name == "" {
		return errInvalid("debugger mode requires -name to select exactly one test")
	}
	return nil
}

type validationError string

func (e validationError) Error() string { return string(e) }
func errInvalid(msg string) error       { return validationError(msg) }
