// Package registry holds the global table of step handlers: instructions,
// retrievals, and assertions, keyed by their sentence template (spec.md
// 4.1-4.2). It is built once at startup from explicit registration calls
// and never mutated afterwards (the "no runtime monkey-patching" design note
// in spec.md 9), mirroring how the teacher's validator registry is loaded
// once from config and read thereafter under an RWMutex.
package registry

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/toolproof/toolproof/types"
)

// Instruction mutates the world: files, processes, the browser, ctx itself.
type Instruction func(ctx context.Context, tc *types.TestContext, args map[string]types.Value) error

// Retrieval is side-effect-free by contract (spec.md 4.2): it may read
// console buffers or the DOM, but must not mutate state.
type Retrieval func(ctx context.Context, tc *types.TestContext, args map[string]types.Value) (types.Value, error)

// Assertion compares an actual value (and an optional expected value) and
// returns a non-nil error — always a *types.StepError with Kind
// AssertionFailed or AssertionTypeMismatch — on failure.
type Assertion func(actual types.Value, expected *types.Value) error

type entry struct {
	template types.Template
	name     string // template string; key of the handler maps
}

// Registry is the immutable, shared handler table. A zero Registry is not
// usable; build one with New and a sequence of Register* calls, then treat
// it as read-only.
type Registry struct {
	instructionTemplates []entry
	instructions         map[string]Instruction

	retrievalTemplates []entry
	retrievals         map[string]Retrieval

	assertionTemplates []entry
	assertions         map[string]Assertion
}

func New() *Registry {
	return &Registry{
		instructions: make(map[string]Instruction),
		retrievals:   make(map[string]Retrieval),
		assertions:   make(map[string]Assertion),
	}
}

// RegisterInstruction adds an instruction handler under the given sentence
// template. Panics on a duplicate template, enforcing the "sentence
// templates are pairwise distinct" invariant (spec.md 3) at startup rather
// than silently shadowing.
func (r *Registry) RegisterInstruction(sentence string, h Instruction) {
	tmpl := types.ParseTemplate(sentence)
	key := tmpl.String()
	if _, exists := r.instructions[key]; exists {
		panic(fmt.Sprintf("registry: duplicate instruction template %q", key))
	}
	r.instructions[key] = h
	r.instructionTemplates = append(r.instructionTemplates, entry{template: tmpl, name: key})
}

func (r *Registry) RegisterRetrieval(sentence string, h Retrieval) {
	tmpl := types.ParseTemplate(sentence)
	key := tmpl.String()
	if _, exists := r.retrievals[key]; exists {
		panic(fmt.Sprintf("registry: duplicate retrieval template %q", key))
	}
	r.retrievals[key] = h
	r.retrievalTemplates = append(r.retrievalTemplates, entry{template: tmpl, name: key})
}

func (r *Registry) RegisterAssertion(sentence string, h Assertion) {
	tmpl := types.ParseTemplate(sentence)
	key := tmpl.String()
	if _, exists := r.assertions[key]; exists {
		panic(fmt.Sprintf("registry: duplicate assertion template %q", key))
	}
	r.assertions[key] = h
	r.assertionTemplates = append(r.assertionTemplates, entry{template: tmpl, name: key})
}

// Resolved is the outcome of a successful dispatcher lookup: the matched
// template's key (for calling the right handler) and the hole bindings
// extracted from inline quoting or sibling YAML keys.
type Resolved struct {
	Key  string
	Args map[string]types.Value
}

// ResolveInstruction finds the registered instruction whose template best
// matches sentence, given the step's sibling YAML values, per the matching
// and ambiguity rules of spec.md 4.1.
func (r *Registry) ResolveInstruction(sentence string, siblingValues map[string]types.Value) (Resolved, Instruction, error) {
	res, key, err := resolve(r.instructionTemplates, sentence, siblingValues)
	if err != nil {
		return Resolved{}, nil, err
	}
	return res, r.instructions[key], nil
}

func (r *Registry) ResolveRetrieval(sentence string, siblingValues map[string]types.Value) (Resolved, Retrieval, error) {
	res, key, err := resolve(r.retrievalTemplates, sentence, siblingValues)
	if err != nil {
		return Resolved{}, nil, err
	}
	return res, r.retrievals[key], nil
}

func (r *Registry) ResolveAssertion(sentence string, siblingValues map[string]types.Value) (Resolved, Assertion, error) {
	res, key, err := resolve(r.assertionTemplates, sentence, siblingValues)
	if err != nil {
		return Resolved{}, nil, err
	}
	return res, r.assertions[key], nil
}

// resolve implements the shared matching algorithm for all three handler
// kinds: filter to templates whose literals occur in order, bind holes from
// inline quoted tokens or sibling keys, then break ties by fewest holes and
// longest total literal length — and, should that still tie, by
// registration order (the Open Question resolved in SPEC_FULL.md).
func resolve(entries []entry, sentence string, siblingValues map[string]types.Value) (Resolved, string, error) {
	type candidate struct {
		entry entry
		args  map[string]types.Value
	}
	var candidates []candidate

	for _, e := range entries {
		if !e.template.MatchLiterals(sentence) {
			continue
		}
		args, ok := bindHoles(e.template, sentence, siblingValues)
		if !ok {
			continue
		}
		candidates = append(candidates, candidate{entry: e, args: args})
	}

	if len(candidates) == 0 {
		return Resolved{}, "", unresolvedError(entries, sentence)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		hi, hj := candidates[i].entry.template.HoleCount(), candidates[j].entry.template.HoleCount()
		if hi != hj {
			return hi < hj
		}
		li, lj := candidates[i].entry.template.LiteralLength(), candidates[j].entry.template.LiteralLength()
		if li != lj {
			return li > lj
		}
		return false // preserve registration order (stable sort)
	})

	best := candidates[0]
	return Resolved{Key: best.entry.name, Args: best.args}, best.entry.name, nil
}

// bindHoles attempts to satisfy every hole in tmpl either from an inline
// quoted token at the hole's position in sentence, or from a sibling YAML
// key of the same name (spec.md 4.1). Returns ok=false if any hole cannot
// be satisfied, so the template is not a candidate.
func bindHoles(tmpl types.Template, sentence string, siblingValues map[string]types.Value) (map[string]types.Value, bool) {
	args := make(map[string]types.Value)
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
		// Hole: first try an inline quoted token starting at/after pos.
		if val, next, ok := inlineQuotedAt(sentence, pos); ok {
			args[seg.Text] = types.NewString(val)
			pos = next
			continue
		}
		if v, ok := siblingValues[seg.Text]; ok {
			args[seg.Text] = v
			continue
		}
		return nil, false
	}
	return args, true
}

// inlineQuotedAt looks for a quoted token beginning at the first non-space
// character at or after pos, so that a hole immediately followed by a
// literal doesn't greedily consume a quoted token belonging to a later
// hole.
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

// unresolvedError builds the StepUnresolved error, listing the closest
// templates by literal overlap (spec.md 4.1).
func unresolvedError(entries []entry, sentence string) error {
	type scored struct {
		tmpl  string
		score int
	}
	var scoredList []scored
	for _, e := range entries {
		scoredList = append(scoredList, scored{tmpl: e.template.String(), score: e.template.LiteralOverlap(sentence)})
	}
	sort.Slice(scoredList, func(i, j int) bool { return scoredList[i].score > scoredList[j].score })

	limit := 3
	if len(scoredList) < limit {
		limit = len(scoredList)
	}
	var names []string
	for _, s := range scoredList[:limit] {
		names = append(names, s.tmpl)
	}

	return types.NewStepError(types.ErrStepUnresolved, sentence,
		fmt.Errorf("no registered template matches; closest: %s", strings.Join(names, "; ")))
}
