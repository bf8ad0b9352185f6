package types

import "fmt"

// StepKind discriminates the tagged Step variant (spec.md 3).
type StepKind int

const (
	StepInstruction StepKind = iota
	StepRetrievalAssertion
	StepSnapshot
	StepExtract
	StepReference
	StepMacroInvocation
)

func (k StepKind) String() string {
	switch k {
	case StepInstruction:
		return "instruction"
	case StepRetrievalAssertion:
		return "retrieval_assertion"
	case StepSnapshot:
		return "snapshot"
	case StepExtract:
		return "extract"
	case StepReference:
		return "reference"
	case StepMacroInvocation:
		return "macro_invocation"
	default:
		return "unknown"
	}
}

// Step is one atomic operation inside a test (spec.md 3).
type Step struct {
	Kind StepKind

	// Instruction, RetrievalAssertion, Snapshot, Extract, MacroInvocation
	Sentence           string // Instruction.sentence / MacroInvocation.sentence
	RetrievalSentence  string // RetrievalAssertion/Snapshot/Extract .retrieval_sentence
	AssertionSentence  string // RetrievalAssertion.assertion_sentence
	Values             map[string]Value
	SnapshotContent    *string // Snapshot.snapshot_content, nil if absent
	ExtractLocation    string  // Extract.extract_location

	// Reference
	RefPath string

	Platforms PlatformSet

	// SourceFile/SourceLine locate this step in its origin YAML document, used
	// by interactive snapshot acceptance to rewrite the right node, and by
	// diagnostics.
	SourceFile string
	SourceLine int

	// MacroDepth records nesting depth for logging "inner macro steps as
	// nested" per spec.md 4.3, without losing the outer step's identity.
	MacroDepth int
	// MacroTrail is the chain of macro template strings this step was
	// expanded through, outermost first.
	MacroTrail []string
	// MacroBindings is the fully merged argument bindings in scope for this
	// step after materialisation (innermost macro invocation wins),
	// pushed onto placeholders_effective for the duration of the step.
	MacroBindings map[string]string
}

// DisplayText returns a short human label for logs/reports.
func (s Step) DisplayText() string {
	switch s.Kind {
	case StepInstruction, StepMacroInvocation:
		return s.Sentence
	case StepRetrievalAssertion:
		return fmt.Sprintf("%s -> %s", s.RetrievalSentence, s.AssertionSentence)
	case StepSnapshot:
		return fmt.Sprintf("snapshot: %s", s.RetrievalSentence)
	case StepExtract:
		return fmt.Sprintf("extract: %s -> %s", s.RetrievalSentence, s.ExtractLocation)
	case StepReference:
		return fmt.Sprintf("ref: %s", s.RefPath)
	default:
		return "<step>"
	}
}

// DocumentType discriminates a test document from a reference document
// (spec.md 3). Macro documents are parsed separately (MacroDocument).
type DocumentType string

const (
	DocumentTest      DocumentType = "test"
	DocumentReference DocumentType = "reference"
)

// TestDocument is one discovered *.toolproof.yml file.
type TestDocument struct {
	Name      string
	Type      DocumentType
	Platforms PlatformSet
	Steps     []Step

	// Path is the absolute path this document was loaded from, used as the
	// canonical key for reference-cycle detection (spec.md 4.3) and for
	// interactive snapshot rewriting.
	Path string
}

// MacroDocument is one *.toolproof.macro.yml file.
type MacroDocument struct {
	MacroTemplate Template
	RawTemplate   string
	Steps         []Step
	Path          string
}
