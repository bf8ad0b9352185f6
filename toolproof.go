// Package toolproof wires the discovery, registry, macro-expansion,
// scheduler, reporting, and logging subsystems into the one-shot run the
// CLI drives, grounded on nat.go's New/Start/runTests shape but rebuilt
// around a single Run call instead of a periodic run-interval loop: this
// domain has no long-running acceptance service to keep polling, spec.md 1
// describes a CLI test runner invoked once per process.
package toolproof

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/log"

	"github.com/toolproof/toolproof/builtins"
	"github.com/toolproof/toolproof/discovery"
	"github.com/toolproof/toolproof/logging"
	"github.com/toolproof/toolproof/macro"
	"github.com/toolproof/toolproof/metrics"
	"github.com/toolproof/toolproof/registry"
	"github.com/toolproof/toolproof/reporting"
	"github.com/toolproof/toolproof/runner"
	"github.com/toolproof/toolproof/scheduler"
	"github.com/toolproof/toolproof/snapshot"
	"github.com/toolproof/toolproof/types"
)

// Run discovers every test/macro document under settings.Root, schedules
// the selected tests, renders the result, and returns the aggregated
// outcome. logDir controls where per-test failure traces are written; pass
// "" to skip file logging.
func Run(ctx context.Context, settings types.RunSettings, logDir string, logger log.Logger) (*types.RunResult, error) {
	found, err := discovery.Discover(settings.Root)
	if err != nil {
		return nil, NewRuntimeError(fmt.Errorf("discovering tests under %s: %w", settings.Root, err))
	}
	logger.Info("discovered documents", "tests", len(found.Tests), "macros", len(found.Macros))

	reg := registry.New()
	builtins.Register(reg)

	expander := macro.New(found.Macros, found.ReferenceLoaderFor())

	var prompter runner.SnapshotPrompter
	if settings.Interactive {
		p, err := snapshot.NewPrompter()
		if err != nil {
			return nil, NewRuntimeError(fmt.Errorf("initializing interactive prompter: %w", err))
		}
		defer p.Close()
		prompter = p
	}

	deps := &scheduler.Deps{Registry: reg, Expander: expander, Prompter: prompter}
	sched := scheduler.New(deps, settings)

	docsToRun := found.Tests
	if !settings.All {
		docsToRun = excludeReferences(found.Tests)
	}

	result, err := sched.Run(ctx, docsToRun)
	if err != nil {
		return nil, NewRuntimeError(err)
	}

	for _, test := range result.Results {
		metrics.RecordTest(test.Status, test.Duration)
	}

	if logDir != "" {
		if err := writeLogs(result, logDir, logger); err != nil {
			logger.Error("failed to write run logs", "error", err)
		}
	}

	sink := reportingSink(settings)
	if err := sink.Render(result); err != nil {
		logger.Error("failed to render results", "error", err)
	}

	if result.Status == types.TestStatusFail {
		return result, NewTestFailureError(fmt.Sprintf("%d of %d tests failed", result.Stats.Failed, result.Stats.Total))
	}
	return result, nil
}

func reportingSink(settings types.RunSettings) reporting.Sink {
	if settings.Porcelain {
		return reporting.NewPorcelainSink()
	}
	return reporting.NewTableSink()
}

func writeLogs(result *types.RunResult, logDir string, logger log.Logger) error {
	fileLogger, err := logging.NewFileLogger(logDir, result.RunID)
	if err != nil {
		return err
	}
	for i := range result.Results {
		if err := fileLogger.LogTestResult(&result.Results[i]); err != nil {
			logger.Warn("failed to log test result", "test", result.Results[i].Name, "error", err)
		}
	}
	return fileLogger.Complete()
}

// excludeReferences drops documents marked type: reference (spec.md 3):
// they exist to be pulled in via `ref:` steps, not scheduled directly.
// With --all this filter is skipped, but the scheduler drops reference
// documents as well.
func excludeReferences(docs []*types.TestDocument) []*types.TestDocument {
	out := make([]*types.TestDocument, 0, len(docs))
	for _, doc := range docs {
		if doc.Type == types.DocumentReference {
			continue
		}
		out = append(out, doc)
	}
	return out
}
