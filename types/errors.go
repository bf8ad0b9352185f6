package types

import "fmt"

// StepErrorKind enumerates the error taxonomy of spec.md 7. These are
// kinds, not Go types: every StepError carries one.
type StepErrorKind string

const (
	ErrResolutionError           StepErrorKind = "ResolutionError"
	ErrStepUnresolved            StepErrorKind = "StepUnresolved"
	ErrStepTimeout                StepErrorKind = "StepTimeout"
	ErrPlaceholderMissing        StepErrorKind = "PlaceholderMissing"
	ErrFileMissing               StepErrorKind = "FileMissing"
	ErrFileNotUtf8               StepErrorKind = "FileNotUtf8"
	ErrFileEscapesTempDir        StepErrorKind = "FileEscapesTempDir"
	ErrProcessSpawnFailed        StepErrorKind = "ProcessSpawnFailed"
	ErrProcessNonZeroExit        StepErrorKind = "ProcessNonZeroExit"
	ErrProcessZeroExitButFailure StepErrorKind = "ProcessZeroExitButFailureExpected"
	ErrServeBindFailed           StepErrorKind = "ServeBindFailed"
	ErrBrowserUnavailable        StepErrorKind = "BrowserUnavailable"
	ErrBrowserNavFailed          StepErrorKind = "BrowserNavFailed"
	ErrBrowserJsError            StepErrorKind = "BrowserJsError"
	ErrAssertionFailedInBrowser  StepErrorKind = "AssertionFailedInBrowser"
	ErrClickAmbiguous            StepErrorKind = "ClickAmbiguous"
	ErrElementNotFound           StepErrorKind = "ElementNotFound"
	ErrTypeUnsupportedCharacter  StepErrorKind = "TypeUnsupportedCharacter"
	ErrAssertionFailed           StepErrorKind = "AssertionFailed"
	ErrAssertionTypeMismatch     StepErrorKind = "AssertionTypeMismatch"
	ErrSnapshotMismatch          StepErrorKind = "SnapshotMismatch"
	ErrVersionUnsupported        StepErrorKind = "VersionUnsupported"
)

// StepError is the step-execution-kernel's typed error: every failure
// surfaced out of a handler, the dispatcher, or resolution carries one of
// these, per spec.md 7's propagation policy (first error terminates the
// step; no in-step recovery).
type StepError struct {
	Kind  StepErrorKind
	Step  string // DisplayText of the offending step, empty if not step-scoped
	Cause error
}

func NewStepError(kind StepErrorKind, step string, cause error) *StepError {
	return &StepError{Kind: kind, Step: step, Cause: cause}
}

func (e *StepError) Error() string {
	if e.Step == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Cause)
	}
	return fmt.Sprintf("%s (step %q): %v", e.Kind, e.Step, e.Cause)
}

func (e *StepError) Unwrap() error { return e.Cause }

// Is allows errors.Is(err, &StepError{Kind: ...}) to match on kind alone.
func (e *StepError) Is(target error) bool {
	t, ok := target.(*StepError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}
