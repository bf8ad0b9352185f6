package reporting

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/toolproof/toolproof/types"
	"github.com/toolproof/toolproof/ui"
)

// TableSink prints the default, human-oriented rich view: one colored
// go-pretty table with a row per test, and (when ShowAttempts is set) one
// indented sub-row per retry attempt beneath a flaky or failed test.
type TableSink struct {
	Out          io.Writer
	ShowAttempts bool
}

// NewTableSink returns a TableSink writing to stdout with attempt detail on.
func NewTableSink() *TableSink {
	return &TableSink{Out: os.Stdout, ShowAttempts: true}
}

func (s *TableSink) Render(result *types.RunResult) error {
	out := s.Out
	if out == nil {
		out = os.Stdout
	}

	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetTitle(fmt.Sprintf("toolproof run %s (%s)", result.RunID, formatDuration(result.Duration)))
	t.AppendHeader(table.Row{"Test", "Duration", "Attempts", "Status", "Error"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Duration", Align: text.AlignRight},
		{Name: "Attempts", Align: text.AlignRight},
		{Name: "Error", WidthMax: 80, WidthMaxEnforcer: text.WrapSoft},
	})

	for i, test := range result.Results {
		t.AppendRow(table.Row{
			ui.BuildTreePrefix(1, i == len(result.Results)-1, nil) + test.Name,
			formatDuration(test.Duration),
			len(test.Attempts),
			statusString(test.Status, test.IsFlaky()),
			errorMessage(test),
		})

		if s.ShowAttempts && len(test.Attempts) > 1 {
			for j, attempt := range test.Attempts {
				t.AppendRow(table.Row{
					"    " + ui.BuildTreePrefix(1, j == len(test.Attempts)-1, nil) +
						fmt.Sprintf("attempt %d", attempt.Number),
					formatDuration(attempt.Duration),
					"",
					statusString(attempt.Status, false),
					shortError(attempt.Err),
				})
			}
		}
	}

	switch result.Status {
	case types.TestStatusPass:
		t.SetStyle(table.StyleColoredBlackOnGreenWhite)
	case types.TestStatusSkip:
		t.SetStyle(table.StyleColoredBlackOnYellowWhite)
	default:
		t.SetStyle(table.StyleColoredBlackOnRedWhite)
	}

	t.AppendFooter(table.Row{
		"TOTAL", formatDuration(result.Duration), result.Stats.Total,
		statusString(result.Status, result.Stats.Flaky > 0), "",
	})

	t.Render()
	return nil
}

func errorMessage(test types.TestResult) string {
	if test.FailedStepErr == nil {
		return ""
	}
	return fmt.Sprintf("step %d: %s", test.FailedStepIndex, shortError(test.FailedStepErr))
}

func shortError(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func statusString(status types.TestStatus, flaky bool) string {
	if flaky {
		return "~ flaky"
	}
	switch status {
	case types.TestStatusPass:
		return "✓ pass"
	case types.TestStatusSkip:
		return "- skip"
	case types.TestStatusTimeout:
		return "⏱ timeout"
	default:
		return "✗ fail"
	}
}

func formatDuration(d time.Duration) string {
	return fmt.Sprintf("%.1fs", d.Seconds())
}
