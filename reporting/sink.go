// Package reporting renders a types.RunResult for a human or a script,
// grounded on nat.go's printResultsTable (rebuilt on go-pretty/v6/table
// exactly as the teacher does, with pass/fail colored styles) and on
// text_sink.go's plain line-oriented style generalized here into the
// porcelain sink required by spec.md 7.
package reporting

import "github.com/toolproof/toolproof/types"

// Sink renders a finished run to an io.Writer-backed destination chosen by
// the caller (table sinks print to stdout with color; the porcelain sink is
// meant for scripts and never colors its output).
type Sink interface {
	Render(result *types.RunResult) error
}
