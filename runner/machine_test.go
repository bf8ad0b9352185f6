package runner

import (
	"context"
	"testing"
	"time"

	"github.com/toolproof/toolproof/registry"
	"github.com/toolproof/toolproof/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDeps() *Deps {
	reg := registry.New()
	reg.RegisterInstruction("I have a {filename} file with the content {contents}",
		func(ctx context.Context, tc *types.TestContext, args map[string]types.Value) error {
			tc.Builtins["last_written"] = args["contents"].Str
			return nil
		})
	reg.RegisterRetrieval("the last written content",
		func(ctx context.Context, tc *types.TestContext, args map[string]types.Value) (types.Value, error) {
			return types.NewString(tc.Builtins["last_written"]), nil
		})
	reg.RegisterAssertion("be exactly {expected}",
		func(actual types.Value, expected *types.Value) error {
			if expected == nil || !actual.Equal(*expected) {
				return types.NewStepError(types.ErrAssertionFailed, "", nil)
			}
			return nil
		})
	return &Deps{Registry: reg}
}

func newTestContext() *types.TestContext {
	settings := types.Defaults()
	settings.Timeout = time.Second
	settings.BrowserTimeout = 100 * time.Millisecond
	return types.NewTestContext("t", "/tmp/x", settings)
}

func TestRunAttemptPassesOnAllStepsOK(t *testing.T) {
	deps := newTestDeps()
	tc := newTestContext()

	steps := []types.Step{
		{
			Kind:     types.StepInstruction,
			Sentence: "I have a 'a.txt' file with the content 'hi'",
		},
		{
			Kind:              types.StepRetrievalAssertion,
			RetrievalSentence: "the last written content",
			AssertionSentence: "be exactly 'hi'",
		},
	}

	attempt := RunAttempt(context.Background(), nil, steps, tc, deps)
	assert.Equal(t, types.TestStatusPass, attempt.Status)
	assert.Len(t, attempt.Steps, 2)
}

func TestRunAttemptFailsOnAssertionMismatch(t *testing.T) {
	deps := newTestDeps()
	tc := newTestContext()

	steps := []types.Step{
		{Kind: types.StepInstruction, Sentence: "I have a 'a.txt' file with the content 'hi'"},
		{
			Kind:              types.StepRetrievalAssertion,
			RetrievalSentence: "the last written content",
			AssertionSentence: "be exactly 'nope'",
		},
	}

	attempt := RunAttempt(context.Background(), nil, steps, tc, deps)
	assert.Equal(t, types.TestStatusFail, attempt.Status)
	require.Error(t, attempt.Err)
}

func TestRunAttemptFailsOnUnexpandedReference(t *testing.T) {
	deps := newTestDeps()
	tc := newTestContext()

	steps := []types.Step{{Kind: types.StepReference, RefPath: "/x.toolproof.yml"}}
	attempt := RunAttempt(context.Background(), nil, steps, tc, deps)
	assert.Equal(t, types.TestStatusFail, attempt.Status)
	var stepErr *types.StepError
	require.ErrorAs(t, attempt.Err, &stepErr)
	assert.Equal(t, types.ErrResolutionError, stepErr.Kind)
}

func TestRunAttemptSubstitutesPlaceholdersInArgs(t *testing.T) {
	deps := newTestDeps()
	tc := newTestContext()
	tc.Builtins["greeting"] = "hello"

	steps := []types.Step{
		{Kind: types.StepInstruction, Sentence: "I have a 'a.txt' file with the content '%greeting% world'"},
		{
			Kind:              types.StepRetrievalAssertion,
			RetrievalSentence: "the last written content",
			AssertionSentence: "be exactly 'hello world'",
		},
	}

	attempt := RunAttempt(context.Background(), nil, steps, tc, deps)
	assert.Equal(t, types.TestStatusPass, attempt.Status)
}
