package snapshot

import (
	"github.com/toolproof/toolproof/types"
)

// Outcome is the result of comparing a fresh capture to a stored snapshot.
type Outcome struct {
	Matched  bool
	Rendered string // the fresh rendering, always computed
	Diff     []DiffLine
}

// Compare renders v and checks it for strict equality against the stored
// snapshot_content (spec.md 4.4). stored == nil means no snapshot_content
// was present at all, which is always a mismatch (there is nothing to
// compare against, equivalent to an empty stored string for diffing
// purposes).
func Compare(v types.Value, stored *string) (Outcome, error) {
	rendered, err := Render(v)
	if err != nil {
		return Outcome{}, err
	}

	expected := ""
	if stored != nil {
		expected = *stored
	}

	if expected == rendered {
		return Outcome{Matched: true, Rendered: rendered}, nil
	}
	return Outcome{
		Matched:  false,
		Rendered: rendered,
		Diff:     Diff(expected, rendered),
	}, nil
}
