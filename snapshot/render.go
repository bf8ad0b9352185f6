// Package snapshot implements the capture/compare/interactively-accept
// engine of spec.md 4.4: rendering a retrieval's Value into the sentinel
// line form, diffing against stored snapshot_content, and — in interactive
// mode — prompting the operator and rewriting the source YAML in place.
// The diff printer is grounded on the teacher's reporting/text_sink.go
// plain textual formatting; the interactive rewrite is grounded on
// original_source's snapshot-acceptance path, which edits the existing
// document tree rather than re-marshalling it wholesale.
package snapshot

import (
	"strings"

	"github.com/toolproof/toolproof/types"
)

// Sentinel prefixes every rendered line, per spec.md 4.4/6 (U+254E).
const Sentinel = "╎"

// Render produces the stored form of a retrieved value: strings are split
// on newlines and sentinel-prefixed; structured values are first
// serialised to stable YAML (sorted keys, block style) and then
// sentinel-prefixed the same way.
func Render(v types.Value) (string, error) {
	body, err := renderBody(v)
	if err != nil {
		return "", err
	}
	return prefixLines(body, Sentinel), nil
}

// RenderExtract is identical to Render but without the sentinel, per
// spec.md 4.4: "Extract steps render identically but without the sentinel
// prefix".
func RenderExtract(v types.Value) (string, error) {
	return renderBody(v)
}

func renderBody(v types.Value) (string, error) {
	if v.Kind == types.KindString {
		return v.Str, nil
	}
	return v.ToYAMLStable()
}

func prefixLines(body, sentinel string) string {
	if body == "" {
		return sentinel
	}
	// Matches Rust str::lines(): a single trailing line terminator does not
	// produce a spurious empty final line.
	body = strings.TrimSuffix(body, "\n")
	body = strings.TrimSuffix(body, "\r")
	lines := strings.Split(body, "\n")
	for i, line := range lines {
		lines[i] = sentinel + strings.TrimSuffix(line, "\r")
	}
	return strings.Join(lines, "\n")
}
