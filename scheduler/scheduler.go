// Package scheduler runs a discovered set of test documents to completion:
// before_all hooks, a bounded worker pool with per-worker browser lifecycle,
// retry/flaky bookkeeping, and deterministic ordering (spec.md 4.7). It is
// grounded on the teacher's runner/parallel.go ParallelExecutor: the same
// buffered work/result channel shape and worker-goroutine loop, generalized
// from Go-test validators to YAML step documents, and additionally owning a
// *browser.Pool per worker so a browser process is guaranteed torn down on
// shutdown (spec.md 5).
package scheduler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/toolproof/toolproof/browser"
	"github.com/toolproof/toolproof/macro"
	"github.com/toolproof/toolproof/process"
	"github.com/toolproof/toolproof/registry"
	"github.com/toolproof/toolproof/runner"
	"github.com/toolproof/toolproof/types"
)

// Deps bundles the immutable collaborators the scheduler wires into every
// worker's runner.Deps.
type Deps struct {
	Registry *registry.Registry
	Expander *macro.Expander
	Prompter runner.SnapshotPrompter // nil unless RunSettings.Interactive
}

// Scheduler owns one run of a discovery root's test documents.
type Scheduler struct {
	deps     *Deps
	settings types.RunSettings
}

func New(deps *Deps, settings types.RunSettings) *Scheduler {
	return &Scheduler{deps: deps, settings: settings}
}

type workItem struct {
	doc   *types.TestDocument
	steps []types.Step
}

type workResult struct {
	result types.TestResult
}

// Run executes settings.BeforeAll (unless SkipHooks), then schedules every
// eligible document in docs across settings.Concurrency workers, returning
// the aggregated RunResult. Reference documents (types.DocumentReference)
// are never scheduled (spec.md 3: "skipped by the scheduler").
func (s *Scheduler) Run(ctx context.Context, docs []*types.TestDocument) (*types.RunResult, error) {
	start := time.Now()
	runID := fmt.Sprintf("run-%d", start.UnixNano())

	if !s.settings.SkipHooks {
		if err := s.runBeforeAll(ctx); err != nil {
			return nil, err
		}
	}

	scheduled := s.selectAndSort(docs)

	result := &types.RunResult{RunID: runID, Started: start, Status: types.TestStatusPass}
	if len(scheduled) == 0 {
		result.Duration = time.Since(start)
		return result, nil
	}

	items := make([]workItem, 0, len(scheduled))
	for _, doc := range scheduled {
		if !doc.Platforms.Allows(s.settings.Platforms) {
			result.Results = append(result.Results, types.TestResult{Name: doc.Name, Path: doc.Path, Status: types.TestStatusSkip})
			result.Stats.Skipped++
			result.Stats.Total++
			continue
		}
		steps, err := s.deps.Expander.Expand(doc)
		if err != nil {
			return nil, fmt.Errorf("expanding %s: %w", doc.Name, err)
		}
		items = append(items, workItem{doc: doc, steps: steps})
	}

	concurrency := s.settings.Concurrency
	if s.settings.Interactive && concurrency > 1 {
		concurrency = 1
	}
	if concurrency > len(items) {
		concurrency = len(items)
	}
	if concurrency < 1 {
		concurrency = 1
	}

	workChan := make(chan workItem, len(items))
	resultChan := make(chan workResult, len(items))
	for _, it := range items {
		workChan <- it
	}
	close(workChan)

	var wg sync.WaitGroup
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go s.worker(ctx, &wg, workChan, resultChan)
	}
	go func() {
		wg.Wait()
		close(resultChan)
	}()

	for wr := range resultChan {
		result.Results = append(result.Results, wr.result)
		result.Stats.Total++
		switch wr.result.Status {
		case types.TestStatusPass:
			result.Stats.Passed++
			if wr.result.IsFlaky() {
				result.Stats.Flaky++
			}
		case types.TestStatusSkip:
			result.Stats.Skipped++
		default:
			result.Stats.Failed++
			result.Status = types.TestStatusFail
		}
	}

	sort.Slice(result.Results, func(i, j int) bool { return result.Results[i].Name < result.Results[j].Name })
	result.Duration = time.Since(start)
	return result, nil
}

// selectAndSort drops reference documents and any that fail settings.Name/
// settings.Path filters, then orders the rest lexicographically by path
// then name for deterministic scheduling (spec.md 4.7).
func (s *Scheduler) selectAndSort(docs []*types.TestDocument) []*types.TestDocument {
	var out []*types.TestDocument
	for _, doc := range docs {
		if doc.Type == types.DocumentReference {
			continue
		}
		if s.settings.Name != "" && doc.Name != s.settings.Name {
			continue
		}
		if s.settings.Path != "" && !strings.HasPrefix(doc.Path, s.settings.Path) {
			continue
		}
		out = append(out, doc)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Path != out[j].Path {
			return out[i].Path < out[j].Path
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// runBeforeAll runs settings.BeforeAll sequentially in settings.Root before
// any test starts (spec.md 3: before_all hooks), aborting the whole run on
// the first failing command.
func (s *Scheduler) runBeforeAll(ctx context.Context) error {
	for _, command := range s.settings.BeforeAll {
		if _, err := process.RunExpectSuccess(ctx, s.settings.Root, command, nil); err != nil {
			return fmt.Errorf("before_all hook %q failed: %w", command, err)
		}
	}
	return nil
}

// worker drains workChan, running each document to a terminal TestResult
// (including retries) and owning exactly one *browser.Pool for its whole
// lifetime, closed unconditionally on exit so no browser process outlives
// the run (spec.md 5).
func (s *Scheduler) worker(ctx context.Context, wg *sync.WaitGroup, workChan <-chan workItem, resultChan chan<- workResult) {
	defer wg.Done()

	pool, err := browser.NewPool(s.settings.Browser, !s.settings.Debugger)
	if err != nil {
		for it := range workChan {
			resultChan <- workResult{result: s.failResult(it.doc, err)}
		}
		return
	}
	defer pool.Close()

	for it := range workChan {
		select {
		case <-ctx.Done():
			resultChan <- workResult{result: s.failResult(it.doc, ctx.Err())}
			continue
		default:
		}
		resultChan <- workResult{result: s.runWithRetries(ctx, pool, it)}
	}
}

func (s *Scheduler) failResult(doc *types.TestDocument, err error) types.TestResult {
	return types.TestResult{
		Name: doc.Name, Path: doc.Path, Status: types.TestStatusFail,
		FailedStepErr: err,
	}
}

// runWithRetries drives one document through up to 1+RetryCount attempts,
// each with a fresh temp_dir and browser page, stopping at the first pass
// (marked flaky if attempt > 1) or after the final attempt fails.
func (s *Scheduler) runWithRetries(ctx context.Context, pool *browser.Pool, it workItem) types.TestResult {
	result := types.TestResult{Name: it.doc.Name, Path: it.doc.Path}
	start := time.Now()

	deps := &runner.Deps{Registry: s.deps.Registry, Expander: s.deps.Expander, Prompter: s.deps.Prompter}

	for attemptNum := 1; attemptNum <= 1+s.settings.RetryCount; attemptNum++ {
		tempDir, err := os.MkdirTemp("", "toolproof-*")
		if err != nil {
			result.Status = types.TestStatusFail
			result.FailedStepErr = err
			break
		}

		tc := types.NewTestContext(it.doc.Name, tempDir, s.settings)
		tc.BrowserPool = pool

		attempt := runner.RunAttempt(ctx, it.doc, it.steps, tc, deps)
		attempt.Number = attemptNum

		stepIx := -1
		if len(attempt.Steps) > 0 {
			stepIx = attempt.Steps[len(attempt.Steps)-1].Index
		}
		if attempt.Status != types.TestStatusPass {
			// On entry to Failed (spec.md 4.6): capture a viewport
			// screenshot before cleanup closes the page.
			if path, err := s.captureFailureScreenshot(tc, it.doc.Name, stepIx); err == nil && path != "" {
				result.ScreenshotPath = path
			}
		}

		cleanupErrs := tc.RunCleanups(ctx)
		_ = cleanupErrs // surfaced via logging in the reporting layer, not fatal to the attempt
		os.RemoveAll(tempDir)

		result.Attempts = append(result.Attempts, attempt)

		if attempt.Status == types.TestStatusPass {
			result.Status = types.TestStatusPass
			break
		}

		result.Status = attempt.Status
		result.FailedStepErr = attempt.Err
		if stepIx >= 0 {
			result.FailedStepIndex = stepIx
		}
	}

	result.Duration = time.Since(start)
	return result
}

// captureFailureScreenshot implements spec.md 4.6's on-entry-to-Failed
// action: if failure_screenshot_location is set and a browser page was
// opened for this attempt, write a viewport screenshot to
// <dir>/<slug(name)>-<stepIx>.png. A no-op when either precondition is
// unmet, since screenshotting is only meaningful for browser-driven tests.
func (s *Scheduler) captureFailureScreenshot(tc *types.TestContext, testName string, stepIx int) (string, error) {
	dir := s.settings.FailureScreenshotLocation
	if dir == "" || tc.BrowserPage == nil {
		return "", nil
	}
	page, ok := tc.BrowserPage.(*browser.Page)
	if !ok {
		return "", nil
	}
	path := filepath.Join(dir, fmt.Sprintf("%s-%d.png", slug(testName), stepIx))
	if err := page.ScreenshotViewport(path); err != nil {
		return "", err
	}
	return path, nil
}

// slug lowercases name and replaces every run of non-alphanumeric
// characters with a single hyphen, trimming leading/trailing hyphens, so
// it is safe to embed in a filename regardless of the test's display name.
func slug(name string) string {
	var b strings.Builder
	prevHyphen := false
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			prevHyphen = false
		default:
			if !prevHyphen && b.Len() > 0 {
				b.WriteByte('-')
				prevHyphen = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
