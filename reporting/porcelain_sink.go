package reporting

import (
	"fmt"
	"io"
	"os"

	"github.com/toolproof/toolproof/types"
)

// PorcelainSink implements spec.md 7's line-oriented machine-readable
// output, selected by --porcelain: one line per test, `PASS`/`FAIL`/
// `FLAKY`/`SKIP` followed by the test name and status-specific detail.
// Never colors or wraps, so it is safe to pipe.
type PorcelainSink struct {
	Out io.Writer
}

// NewPorcelainSink returns a PorcelainSink writing to stdout.
func NewPorcelainSink() *PorcelainSink {
	return &PorcelainSink{Out: os.Stdout}
}

func (s *PorcelainSink) Render(result *types.RunResult) error {
	out := s.Out
	if out == nil {
		out = os.Stdout
	}

	for _, test := range result.Results {
		switch {
		case test.IsFlaky():
			fmt.Fprintf(out, "FLAKY %s attempts=%d\n", test.Name, len(test.Attempts))
		case test.Status == types.TestStatusPass:
			fmt.Fprintf(out, "PASS %s\n", test.Name)
		case test.Status == types.TestStatusSkip:
			fmt.Fprintf(out, "SKIP %s\n", test.Name)
		default:
			fmt.Fprintf(out, "FAIL %s step=%d %s\n", test.Name, test.FailedStepIndex, shortError(test.FailedStepErr))
		}
	}

	fmt.Fprintf(out, "TOTAL %d passed=%d failed=%d skipped=%d flaky=%d status=%s\n",
		result.Stats.Total, result.Stats.Passed, result.Stats.Failed,
		result.Stats.Skipped, result.Stats.Flaky, result.Status)
	return nil
}
