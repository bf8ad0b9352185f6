// Package runner implements the per-test state machine of spec.md 4.6:
// Pending → Resolving → Running(i) → Failed|Passed → Terminated. It is
// grounded on the teacher's runner/runner.go per-test execution flow. An
// attempt's outcome is a types.Attempt (Number, Status, Steps, Err,
// Duration); nested macro steps are tracked by Step.MacroDepth and
// Step.MacroTrail rather than by nested results.
package runner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/toolproof/toolproof/macro"
	"github.com/toolproof/toolproof/registry"
	"github.com/toolproof/toolproof/snapshot"
	"github.com/toolproof/toolproof/types"
)

// State names the test state machine's position (spec.md 4.6), kept for
// diagnostics/debugger display; the machine itself is driven by RunAttempt
// returning once a terminal state is reached.
type State string

const (
	StatePending   State = "pending"
	StateResolving State = "resolving"
	StateRunning   State = "running"
	StateFailed    State = "failed"
	StatePassed    State = "passed"
	StateTerminated State = "terminated"
)

// Deps bundles everything one test attempt needs beyond its own document
// and TestContext: the immutable handler table shared across every worker,
// and the interactive snapshot prompter (nil outside interactive mode).
// Browser lifecycle is not a runner concern: built-in browser handlers
// reach the current worker's session through TestContext.BrowserPage/
// BrowserPool, opened lazily on first use by the scheduler's per-worker
// browser.Pool.
type Deps struct {
	Registry *registry.Registry
	Expander *macro.Expander
	Prompter SnapshotPrompter // nil in non-interactive mode

	// BeforeStep, if set, is called synchronously just before each step
	// executes; the debugger uses it to pause and print the step.
	BeforeStep func(index int, step types.Step)
}

// SnapshotPrompter is the narrow surface RunAttempt needs from
// snapshot.Prompter, to keep this package testable without a real TTY.
type SnapshotPrompter interface {
	Confirm(testName string, diff []snapshot.DiffLine) bool
}

// RunAttempt executes one scheduling attempt of doc against tc, to
// completion: Resolving (macro/reference expansion already materialised by
// the caller, so Resolving here only covers platform filtering already
// done by the scheduler) through sequential step execution to Failed or
// Passed.
func RunAttempt(ctx context.Context, doc *types.TestDocument, steps []types.Step, tc *types.TestContext, deps *Deps) types.Attempt {
	start := time.Now()
	attempt := types.Attempt{Status: types.TestStatusPass}

	for i, step := range steps {
		if deps.BeforeStep != nil {
			deps.BeforeStep(i, step)
		}
		stepStart := time.Now()
		err := runStep(ctx, step, tc, deps)
		outcome := types.StepOutcome{Step: step, Index: i, Err: err, Duration: time.Since(stepStart)}
		attempt.Steps = append(attempt.Steps, outcome)

		if err != nil {
			attempt.Status = types.TestStatusFail
			if isTimeout(err) {
				attempt.Status = types.TestStatusTimeout
			}
			attempt.Err = err
			attempt.Duration = time.Since(start)
			return attempt
		}
	}

	attempt.Duration = time.Since(start)
	return attempt
}

func isTimeout(err error) bool {
	var stepErr *types.StepError
	if se, ok := err.(*types.StepError); ok {
		stepErr = se
	}
	return stepErr != nil && stepErr.Kind == types.ErrStepTimeout
}

func runStep(ctx context.Context, step types.Step, tc *types.TestContext, deps *Deps) error {
	pop := tc.PushBindings(step.MacroBindings)
	defer pop()

	stepCtx, cancel := context.WithTimeout(ctx, tc.RunSettings.Timeout)
	defer cancel()

	switch step.Kind {
	case types.StepInstruction:
		return runInstruction(stepCtx, step, tc, deps)
	case types.StepRetrievalAssertion:
		return runRetrievalAssertion(stepCtx, step, tc, deps)
	case types.StepSnapshot:
		return runSnapshot(stepCtx, step, tc, deps)
	case types.StepExtract:
		return runExtract(stepCtx, step, tc, deps)
	default:
		return types.NewStepError(types.ErrResolutionError, step.DisplayText(),
			fmt.Errorf("unexpanded %s step reached the state machine", step.Kind))
	}
}

func runInstruction(ctx context.Context, step types.Step, tc *types.TestContext, deps *Deps) error {
	resolved, handler, err := deps.Registry.ResolveInstruction(step.Sentence, step.Values)
	if err != nil {
		return err
	}
	args, err := substituteArgs(resolved.Args, tc)
	if err != nil {
		return err
	}
	return handler(ctx, tc, args)
}

func runRetrievalAssertion(ctx context.Context, step types.Step, tc *types.TestContext, deps *Deps) error {
	value, err := retrieve(ctx, step.RetrievalSentence, step.Values, tc, deps)
	if err != nil {
		return err
	}

	resolved, assertion, err := deps.Registry.ResolveAssertion(step.AssertionSentence, step.Values)
	if err != nil {
		return err
	}
	args, err := substituteArgs(resolved.Args, tc)
	if err != nil {
		return err
	}
	var expected *types.Value
	if v, ok := args["expected"]; ok {
		expected = &v
	}
	return assertion(value, expected)
}

func runSnapshot(ctx context.Context, step types.Step, tc *types.TestContext, deps *Deps) error {
	value, err := retrieve(ctx, step.RetrievalSentence, step.Values, tc, deps)
	if err != nil {
		return err
	}

	outcome, err := snapshot.Compare(value, step.SnapshotContent)
	if err != nil {
		return err
	}
	if outcome.Matched {
		return nil
	}

	if tc.RunSettings.Interactive && deps.Prompter != nil {
		snapshot.InteractiveLock.Lock()
		accept := deps.Prompter.Confirm(tc.TestName, outcome.Diff)
		snapshot.InteractiveLock.Unlock()
		if accept {
			return snapshot.AcceptAndRewrite(step.SourceFile, step.SourceLine, outcome.Rendered)
		}
	}

	return types.NewStepError(types.ErrSnapshotMismatch, step.DisplayText(),
		fmt.Errorf("snapshot mismatch:\n%s", snapshot.RenderDiff(outcome.Diff)))
}

func runExtract(ctx context.Context, step types.Step, tc *types.TestContext, deps *Deps) error {
	value, err := retrieve(ctx, step.RetrievalSentence, step.Values, tc, deps)
	if err != nil {
		return err
	}

	body, err := snapshot.RenderExtract(value)
	if err != nil {
		return err
	}

	location, err := types.Substitute(step.ExtractLocation, tc.RunSettings.PlaceholderDelimiter, tc.EffectivePlaceholders())
	if err != nil {
		return err
	}
	if !filepath.IsAbs(location) {
		location = filepath.Join(tc.TempDir, location)
	}
	if err := os.MkdirAll(filepath.Dir(location), 0o755); err != nil {
		return err
	}
	return os.WriteFile(location, []byte(body), 0o644)
}

func retrieve(ctx context.Context, sentence string, values map[string]types.Value, tc *types.TestContext, deps *Deps) (types.Value, error) {
	resolved, handler, err := deps.Registry.ResolveRetrieval(sentence, values)
	if err != nil {
		return types.Value{}, err
	}
	args, err := substituteArgs(resolved.Args, tc)
	if err != nil {
		return types.Value{}, err
	}
	return handler(ctx, tc, args)
}

func substituteArgs(args map[string]types.Value, tc *types.TestContext) (map[string]types.Value, error) {
	placeholders := tc.EffectivePlaceholders()
	out := make(map[string]types.Value, len(args))
	for k, v := range args {
		sv, err := types.SubstituteAll(v, tc.RunSettings.PlaceholderDelimiter, placeholders)
		if err != nil {
			return nil, err
		}
		out[k] = sv
	}
	return out, nil
}
