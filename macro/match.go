package macro

import (
	"fmt"
	"sort"
	"strings"

	"github.com/toolproof/toolproof/types"
)

// matchMacro resolves a MacroInvocation step against every loaded macro
// template by the same matching and ambiguity rules as dispatcher
// resolution (spec.md 4.3: "matched ... by the same rules as dispatcher
// matching"): fewest holes wins, ties broken by longest literal length,
// then by registration (load) order.
func matchMacro(macros []*types.MacroDocument, step types.Step) (*types.MacroDocument, map[string]string, error) {
	type candidate struct {
		doc  *types.MacroDocument
		args map[string]string
	}
	var candidates []candidate

	for _, m := range macros {
		if !m.MacroTemplate.MatchLiterals(step.Sentence) {
			continue
		}
		args, ok := bindMacroArgs(m.MacroTemplate, step.Sentence, step.Values)
		if !ok {
			continue
		}
		candidates = append(candidates, candidate{doc: m, args: args})
	}

	if len(candidates) == 0 {
		return nil, nil, types.NewStepError(types.ErrResolutionError, step.DisplayText(),
			fmt.Errorf("no macro template matches %q", step.Sentence))
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		hi, hj := candidates[i].doc.MacroTemplate.HoleCount(), candidates[j].doc.MacroTemplate.HoleCount()
		if hi != hj {
			return hi < hj
		}
		li, lj := candidates[i].doc.MacroTemplate.LiteralLength(), candidates[j].doc.MacroTemplate.LiteralLength()
		if li != lj {
			return li > lj
		}
		return false
	})

	best := candidates[0]
	return best.doc, best.args, nil
}

// bindMacroArgs mirrors registry.bindHoles: each hole is satisfied by an
// inline quoted token at its position or a sibling YAML key of the same
// name, and the result is rendered to strings since macro bindings are
// pushed onto placeholders_effective (a map[string]string, spec.md 3).
func bindMacroArgs(tmpl types.Template, sentence string, siblingValues map[string]types.Value) (map[string]string, bool) {
	args := make(map[string]string)
	pos := 0
	for _, seg := range tmpl.Segments {
		if seg.Kind == types.SegmentLiteral {
			idx := strings.Index(sentence[pos:], seg.Text)
			if idx == -1 {
				return nil, false
			}
			pos += idx + len(seg.Text)
			continue
		}
		if val, next, ok := inlineQuotedAt(sentence, pos); ok {
			args[seg.Text] = val
			pos = next
			continue
		}
		if v, ok := siblingValues[seg.Text]; ok {
			args[seg.Text] = v.String()
			continue
		}
		return nil, false
	}
	return args, true
}

func inlineQuotedAt(sentence string, pos int) (string, int, bool) {
	i := pos
	for i < len(sentence) && sentence[i] == ' ' {
		i++
	}
	if i >= len(sentence) || (sentence[i] != '\'' && sentence[i] != '"') {
		return "", 0, false
	}
	q := sentence[i]
	end := strings.IndexByte(sentence[i+1:], q)
	if end == -1 {
		return "", 0, false
	}
	return sentence[i+1 : i+1+end], i + 1 + end + 1, true
}
