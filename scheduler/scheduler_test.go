package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/toolproof/toolproof/macro"
	"github.com/toolproof/toolproof/registry"
	"github.com/toolproof/toolproof/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry() *registry.Registry {
	reg := registry.New()
	reg.RegisterInstruction("I note {value}",
		func(ctx context.Context, tc *types.TestContext, args map[string]types.Value) error {
			tc.Builtins["noted"] = args["value"].Str
			return nil
		})
	reg.RegisterRetrieval("the noted value",
		func(ctx context.Context, tc *types.TestContext, args map[string]types.Value) (types.Value, error) {
			return types.NewString(tc.Builtins["noted"]), nil
		})
	reg.RegisterAssertion("be exactly {expected}",
		func(actual types.Value, expected *types.Value) error {
			if expected == nil || !actual.Equal(*expected) {
				return types.NewStepError(types.ErrAssertionFailed, "", nil)
			}
			return nil
		})
	return reg
}

func newSettings() types.RunSettings {
	s := types.Defaults()
	s.Timeout = 2 * time.Second
	s.BrowserTimeout = 500 * time.Millisecond
	s.Concurrency = 2
	return s
}

func TestSchedulerRunsAllDocumentsAndPasses(t *testing.T) {
	reg := newTestRegistry()
	expander := macro.New(nil, nil)
	sched := New(&Deps{Registry: reg, Expander: expander}, newSettings())

	docA := &types.TestDocument{
		Name: "a", Type: types.DocumentTest, Path: "/tests/a.toolproof.yml",
		Steps: []types.Step{
			{Kind: types.StepInstruction, Sentence: "I note 'x'"},
			{Kind: types.StepRetrievalAssertion, RetrievalSentence: "the noted value", AssertionSentence: "be exactly 'x'"},
		},
	}
	docB := &types.TestDocument{
		Name: "b", Type: types.DocumentTest, Path: "/tests/b.toolproof.yml",
		Steps: []types.Step{
			{Kind: types.StepInstruction, Sentence: "I note 'y'"},
			{Kind: types.StepRetrievalAssertion, RetrievalSentence: "the noted value", AssertionSentence: "be exactly 'y'"},
		},
	}

	result, err := sched.Run(context.Background(), []*types.TestDocument{docA, docB})
	require.NoError(t, err)
	assert.Equal(t, types.TestStatusPass, result.Status)
	assert.Equal(t, 2, result.Stats.Total)
	assert.Equal(t, 2, result.Stats.Passed)
}

func TestSchedulerSkipsReferenceDocuments(t *testing.T) {
	reg := newTestRegistry()
	expander := macro.New(nil, nil)
	sched := New(&Deps{Registry: reg, Expander: expander}, newSettings())

	ref := &types.TestDocument{Name: "helper", Type: types.DocumentReference, Path: "/tests/helper.toolproof.yml"}
	result, err := sched.Run(context.Background(), []*types.TestDocument{ref})
	require.NoError(t, err)
	assert.Equal(t, 0, result.Stats.Total)
}

func TestSchedulerSkipsDisjointPlatform(t *testing.T) {
	reg := newTestRegistry()
	expander := macro.New(nil, nil)
	settings := newSettings()
	settings.Platforms = types.PlatformLinux
	sched := New(&Deps{Registry: reg, Expander: expander}, settings)

	other := types.PlatformWindows
	if settings.Platforms == types.PlatformWindows {
		other = types.PlatformLinux
	}
	doc := &types.TestDocument{
		Name: "windows-only", Type: types.DocumentTest, Path: "/tests/w.toolproof.yml",
		Platforms: types.NewPlatformSet(other),
		Steps:     []types.Step{{Kind: types.StepInstruction, Sentence: "I note 'x'"}},
	}

	result, err := sched.Run(context.Background(), []*types.TestDocument{doc})
	require.NoError(t, err)
	require.Len(t, result.Results, 1)
	assert.Equal(t, types.TestStatusSkip, result.Results[0].Status)
	assert.Equal(t, types.TestStatusPass, result.Status)
}

func TestSchedulerRetriesAndMarksFlaky(t *testing.T) {
	reg := registry.New()
	attempts := 0
	reg.RegisterInstruction("I flake once",
		func(ctx context.Context, tc *types.TestContext, args map[string]types.Value) error {
			attempts++
			if attempts == 1 {
				return types.NewStepError(types.ErrAssertionFailed, "", nil)
			}
			return nil
		})

	expander := macro.New(nil, nil)
	settings := newSettings()
	settings.Concurrency = 1
	settings.RetryCount = 1
	sched := New(&Deps{Registry: reg, Expander: expander}, settings)

	doc := &types.TestDocument{
		Name: "flaky", Type: types.DocumentTest, Path: "/tests/flaky.toolproof.yml",
		Steps: []types.Step{{Kind: types.StepInstruction, Sentence: "I flake once"}},
	}

	result, err := sched.Run(context.Background(), []*types.TestDocument{doc})
	require.NoError(t, err)
	require.Len(t, result.Results, 1)
	assert.Equal(t, types.TestStatusPass, result.Results[0].Status)
	assert.True(t, result.Results[0].IsFlaky())
	assert.Equal(t, 1, result.Stats.Flaky)
}

func TestSchedulerRunsBeforeAllHook(t *testing.T) {
	reg := newTestRegistry()
	expander := macro.New(nil, nil)
	settings := newSettings()
	settings.Root = t.TempDir()
	settings.BeforeAll = []string{"true"}
	sched := New(&Deps{Registry: reg, Expander: expander}, settings)

	result, err := sched.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Stats.Total)
}

func TestSchedulerBeforeAllFailureAbortsRun(t *testing.T) {
	reg := newTestRegistry()
	expander := macro.New(nil, nil)
	settings := newSettings()
	settings.Root = t.TempDir()
	settings.BeforeAll = []string{"exit 1"}
	sched := New(&Deps{Registry: reg, Expander: expander}, settings)

	_, err := sched.Run(context.Background(), nil)
	require.Error(t, err)
}

func TestSlugLowercasesAndHyphenatesNonAlnum(t *testing.T) {
	assert.Equal(t, "logs-in-with-valid-credentials", slug("Logs in with Valid Credentials!"))
	assert.Equal(t, "a-b", slug("  a___b  "))
	assert.Equal(t, "", slug("***"))
}

func TestCaptureFailureScreenshotNoopWithoutLocation(t *testing.T) {
	sched := New(&Deps{Registry: registry.New(), Expander: macro.New(nil, nil)}, newSettings())
	tc := types.NewTestContext("t", t.TempDir(), sched.settings)

	path, err := sched.captureFailureScreenshot(tc, "some test", 0)
	require.NoError(t, err)
	assert.Empty(t, path)
}

func TestCaptureFailureScreenshotNoopWithoutBrowserPage(t *testing.T) {
	settings := newSettings()
	settings.FailureScreenshotLocation = t.TempDir()
	sched := New(&Deps{Registry: registry.New(), Expander: macro.New(nil, nil)}, settings)
	tc := types.NewTestContext("t", t.TempDir(), sched.settings)

	path, err := sched.captureFailureScreenshot(tc, "some test", 0)
	require.NoError(t, err)
	assert.Empty(t, path)
}
