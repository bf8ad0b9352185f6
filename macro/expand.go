// Package macro implements reference (`ref:`) and macro (`macro:`)
// expansion (spec.md 4.3): materialising a test's flat step sequence before
// the state machine begins. Cycle detection is grounded on
// types/gate.go's ResolveInherited/resolveInheritedRecursive, which walks a
// GateConfig's inherits-from chain with a processed map[string]bool marked
// on push and cleared on pop; the same shape here detects both reference
// cycles (keyed by absolute path) and macro-invocation cycles (keyed by
// matched template).
package macro

import (
	"fmt"

	"github.com/toolproof/toolproof/types"
)

// maxDepth is the nesting cap for macro expansion (spec.md 4.3 requires at
// least 16; the teacher's gate inheritance has no comparable numeric limit,
// so this is chosen generously above the spec's floor).
const maxDepth = 32

// ReferenceLoader resolves a Reference step's path to the document whose
// steps should be spliced in, keyed by canonical absolute path so cycle
// detection matches spec.md 4.3's "chain of absolute paths being expanded".
type ReferenceLoader func(absPath string) (*types.TestDocument, error)

// Expander materialises a test document's steps against a fixed set of
// loaded macro templates and a reference loader. One Expander is reused
// across every test in a run; it holds no per-expansion state itself.
type Expander struct {
	macros []*types.MacroDocument
	load   ReferenceLoader
}

func New(macros []*types.MacroDocument, load ReferenceLoader) *Expander {
	return &Expander{macros: macros, load: load}
}

// Expand returns doc's steps with every Reference and MacroInvocation
// replaced in place, recursively, until only concrete steps remain
// (spec.md 4.3: "materialised before the test state machine begins").
func (e *Expander) Expand(doc *types.TestDocument) ([]types.Step, error) {
	st := &expansionState{
		refPath:   map[string]bool{doc.Path: true},
		macroPath: map[string]bool{},
	}
	return e.expandSteps(doc.Steps, st, 0, nil, nil)
}

// expansionState carries the two independent path-stacks (references and
// macros can each recurse into the other), mirroring
// resolveInheritedRecursive's single processed map but split in two since
// references and macros are keyed differently.
type expansionState struct {
	refPath   map[string]bool
	macroPath map[string]bool
}

func (e *Expander) expandSteps(steps []types.Step, st *expansionState, depth int, trail []string, bindings map[string]string) ([]types.Step, error) {
	if depth > maxDepth {
		return nil, types.NewStepError(types.ErrResolutionError, "",
			fmt.Errorf("macro/reference nesting exceeds depth %d", maxDepth))
	}

	var out []types.Step
	for _, step := range steps {
		switch step.Kind {
		case types.StepReference:
			expanded, err := e.expandReference(step, st, depth, trail, bindings)
			if err != nil {
				return nil, err
			}
			out = append(out, expanded...)
		case types.StepMacroInvocation:
			expanded, err := e.expandMacro(step, st, depth, trail, bindings)
			if err != nil {
				return nil, err
			}
			out = append(out, expanded...)
		default:
			step.MacroDepth = depth
			step.MacroTrail = trail
			step.MacroBindings = bindings
			out = append(out, step)
		}
	}
	return out, nil
}

func (e *Expander) expandReference(step types.Step, st *expansionState, depth int, trail []string, bindings map[string]string) ([]types.Step, error) {
	if st.refPath[step.RefPath] {
		return nil, types.NewStepError(types.ErrResolutionError, step.DisplayText(),
			fmt.Errorf("reference cycle detected at %q", step.RefPath))
	}
	doc, err := e.load(step.RefPath)
	if err != nil {
		return nil, types.NewStepError(types.ErrResolutionError, step.DisplayText(), err)
	}

	st.refPath[step.RefPath] = true
	defer delete(st.refPath, step.RefPath)

	inner, err := e.expandSteps(doc.Steps, st, depth+1, trail, bindings)
	if err != nil {
		return nil, err
	}

	// Intersect the reference's own platform filter with each included
	// step's filter (spec.md 4.3).
	for i := range inner {
		inner[i].Platforms = step.Platforms.Intersect(inner[i].Platforms)
	}
	return inner, nil
}

func (e *Expander) expandMacro(step types.Step, st *expansionState, depth int, trail []string, bindings map[string]string) ([]types.Step, error) {
	matched, args, err := matchMacro(e.macros, step)
	if err != nil {
		return nil, err
	}

	key := matched.RawTemplate
	if st.macroPath[key] {
		return nil, types.NewStepError(types.ErrResolutionError, step.DisplayText(),
			fmt.Errorf("macro recursion cycle at %q", key))
	}

	st.macroPath[key] = true
	defer delete(st.macroPath, key)

	merged := make(map[string]string, len(bindings)+len(args))
	for k, v := range bindings {
		merged[k] = v
	}
	for k, v := range args {
		merged[k] = v // innermost invocation shadows outer placeholders
	}

	innerTrail := append(append([]string{}, trail...), key)
	return e.expandSteps(matched.Steps, st, depth+1, innerTrail, merged)
}
