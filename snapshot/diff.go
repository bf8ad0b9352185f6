package snapshot

import "strings"

// DiffLine is one line of a line-oriented diff between an expected
// (stored) rendering and an actual (freshly captured) one.
type DiffLine struct {
	Kind string // "same", "removed", "added"
	Text string
}

// Diff computes a minimal line diff between expected and actual renderings,
// via a longest-common-subsequence backtrack — the plain line-oriented
// presentation spec.md 4.4 requires on a SnapshotMismatch, grounded on the
// teacher's reporting sinks' preference for flat textual output over
// structured diff objects.
func Diff(expected, actual string) []DiffLine {
	a := strings.Split(expected, "\n")
	b := strings.Split(actual, "\n")
	return diffLines(a, b)
}

func diffLines(a, b []string) []DiffLine {
	n, m := len(a), len(b)
	lcs := make([][]int, n+1)
	for i := range lcs {
		lcs[i] = make([]int, m+1)
	}
	for i := n - 1; i >= 0; i-- {
		for j := m - 1; j >= 0; j-- {
			if a[i] == b[j] {
				lcs[i][j] = lcs[i+1][j+1] + 1
			} else if lcs[i+1][j] >= lcs[i][j+1] {
				lcs[i][j] = lcs[i+1][j]
			} else {
				lcs[i][j] = lcs[i][j+1]
			}
		}
	}

	var out []DiffLine
	i, j := 0, 0
	for i < n && j < m {
		switch {
		case a[i] == b[j]:
			out = append(out, DiffLine{Kind: "same", Text: a[i]})
			i++
			j++
		case lcs[i+1][j] >= lcs[i][j+1]:
			out = append(out, DiffLine{Kind: "removed", Text: a[i]})
			i++
		default:
			out = append(out, DiffLine{Kind: "added", Text: b[j]})
			j++
		}
	}
	for ; i < n; i++ {
		out = append(out, DiffLine{Kind: "removed", Text: a[i]})
	}
	for ; j < m; j++ {
		out = append(out, DiffLine{Kind: "added", Text: b[j]})
	}
	return out
}

// RenderDiff formats a diff for the rich, non-porcelain report: "-" prefixed
// removed lines, "+" prefixed added lines, unprefixed unchanged lines.
func RenderDiff(lines []DiffLine) string {
	var b strings.Builder
	for _, l := range lines {
		switch l.Kind {
		case "removed":
			b.WriteString("- ")
		case "added":
			b.WriteString("+ ")
		default:
			b.WriteString("  ")
		}
		b.WriteString(l.Text)
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n")
}
