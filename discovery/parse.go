package discovery

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/toolproof/toolproof/types"
	"gopkg.in/yaml.v3"
)

// reservedStepKeys are sibling keys with their own meaning rather than hole
// values (spec.md 6).
var reservedStepKeys = map[string]bool{
	"step": true, "snapshot": true, "extract": true, "ref": true, "macro": true,
	"snapshot_content": true, "extract_location": true, "platforms": true,
}

func parseTestDocument(path string, raw []byte) (*types.TestDocument, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(raw, &root); err != nil {
		return nil, types.NewStepError(types.ErrResolutionError, "", err)
	}
	if len(root.Content) == 0 {
		return nil, types.NewStepError(types.ErrResolutionError, "", fmt.Errorf("empty document"))
	}
	docNode := root.Content[0]

	var raw2 struct {
		Name      string   `yaml:"name"`
		Type      string   `yaml:"type"`
		Platforms []string `yaml:"platforms"`
	}
	if err := docNode.Decode(&raw2); err != nil {
		return nil, types.NewStepError(types.ErrResolutionError, "", err)
	}

	docType := types.DocumentTest
	if raw2.Type == "reference" {
		docType = types.DocumentReference
	}
	if raw2.Name == "" && docType == types.DocumentTest {
		return nil, types.NewStepError(types.ErrResolutionError, "", fmt.Errorf("missing required key 'name'"))
	}

	stepsNode := findKey(docNode, "steps")
	if stepsNode == nil {
		return nil, types.NewStepError(types.ErrResolutionError, "", fmt.Errorf("missing required key 'steps'"))
	}
	steps, err := parseSteps(stepsNode, path)
	if err != nil {
		return nil, err
	}

	return &types.TestDocument{
		Name:      raw2.Name,
		Type:      docType,
		Platforms: platformSet(raw2.Platforms),
		Steps:     steps,
		Path:      path,
	}, nil
}

func parseMacroDocument(path string, raw []byte) (*types.MacroDocument, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(raw, &root); err != nil {
		return nil, types.NewStepError(types.ErrResolutionError, "", err)
	}
	if len(root.Content) == 0 {
		return nil, types.NewStepError(types.ErrResolutionError, "", fmt.Errorf("empty document"))
	}
	docNode := root.Content[0]

	var raw2 struct {
		Macro string `yaml:"macro"`
	}
	if err := docNode.Decode(&raw2); err != nil {
		return nil, types.NewStepError(types.ErrResolutionError, "", err)
	}
	if raw2.Macro == "" {
		return nil, types.NewStepError(types.ErrResolutionError, "", fmt.Errorf("missing required key 'macro'"))
	}

	stepsNode := findKey(docNode, "steps")
	if stepsNode == nil {
		return nil, types.NewStepError(types.ErrResolutionError, "", fmt.Errorf("missing required key 'steps'"))
	}
	steps, err := parseSteps(stepsNode, path)
	if err != nil {
		return nil, err
	}

	return &types.MacroDocument{
		MacroTemplate: types.ParseTemplate(raw2.Macro),
		RawTemplate:   raw2.Macro,
		Steps:         steps,
		Path:          path,
	}, nil
}

func parseSteps(seq *yaml.Node, sourceFile string) ([]types.Step, error) {
	if seq.Kind != yaml.SequenceNode {
		return nil, types.NewStepError(types.ErrResolutionError, "", fmt.Errorf("'steps' must be a list"))
	}
	steps := make([]types.Step, 0, len(seq.Content))
	for _, item := range seq.Content {
		step, err := parseStep(item, sourceFile)
		if err != nil {
			return nil, err
		}
		steps = append(steps, step)
	}
	return steps, nil
}

func parseStep(node *yaml.Node, sourceFile string) (types.Step, error) {
	if node.Kind == yaml.ScalarNode {
		return buildInstructionOrAssertion(node.Value, nil, sourceFile, node.Line), nil
	}
	if node.Kind != yaml.MappingNode {
		return types.Step{}, types.NewStepError(types.ErrResolutionError, "", fmt.Errorf("step must be a string or mapping"))
	}

	values, err := siblingValues(node)
	if err != nil {
		return types.Step{}, err
	}
	platforms := platformSet(stringSliceAt(node, "platforms"))

	switch {
	case hasKey(node, "ref"):
		ref := stringAt(node, "ref")
		if !filepath.IsAbs(ref) {
			ref = filepath.Join(filepath.Dir(sourceFile), ref)
		}
		step := types.Step{Kind: types.StepReference, RefPath: ref,
			Platforms: platforms, SourceFile: sourceFile, SourceLine: node.Line}
		return step, nil

	case hasKey(node, "snapshot"):
		var content *string
		if c, ok := stringAtOk(node, "snapshot_content"); ok {
			content = &c
		}
		return types.Step{
			Kind: types.StepSnapshot, RetrievalSentence: stringAt(node, "snapshot"),
			Values: values, SnapshotContent: content, Platforms: platforms,
			SourceFile: sourceFile, SourceLine: node.Line,
		}, nil

	case hasKey(node, "extract"):
		return types.Step{
			Kind: types.StepExtract, RetrievalSentence: stringAt(node, "extract"),
			Values: values, ExtractLocation: stringAt(node, "extract_location"),
			Platforms: platforms, SourceFile: sourceFile, SourceLine: node.Line,
		}, nil

	case hasKey(node, "macro"):
		return types.Step{
			Kind: types.StepMacroInvocation, Sentence: stringAt(node, "macro"),
			Values: values, Platforms: platforms, SourceFile: sourceFile, SourceLine: node.Line,
		}, nil

	case hasKey(node, "step"):
		step := buildInstructionOrAssertion(stringAt(node, "step"), values, sourceFile, node.Line)
		step.Platforms = platforms
		return step, nil

	default:
		return types.Step{}, types.NewStepError(types.ErrResolutionError, "",
			fmt.Errorf("step has no recognised discriminating key (step/snapshot/extract/ref/macro)"))
	}
}

// buildInstructionOrAssertion splits a sentence on " should " into a
// RetrievalAssertion, following the original implementation's grammar
// (parser.rs's parse_step); a sentence without " should " is a plain
// Instruction.
func buildInstructionOrAssertion(sentence string, values map[string]types.Value, sourceFile string, line int) types.Step {
	if retrieval, assertion, ok := strings.Cut(sentence, " should "); ok {
		return types.Step{
			Kind: types.StepRetrievalAssertion, RetrievalSentence: retrieval, AssertionSentence: assertion,
			Values: values, SourceFile: sourceFile, SourceLine: line,
		}
	}
	return types.Step{Kind: types.StepInstruction, Sentence: sentence, Values: values, SourceFile: sourceFile, SourceLine: line}
}

func findKey(mapping *yaml.Node, key string) *yaml.Node {
	if mapping.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			return mapping.Content[i+1]
		}
	}
	return nil
}

func hasKey(mapping *yaml.Node, key string) bool {
	return findKey(mapping, key) != nil
}

func stringAt(mapping *yaml.Node, key string) string {
	s, _ := stringAtOk(mapping, key)
	return s
}

func stringAtOk(mapping *yaml.Node, key string) (string, bool) {
	n := findKey(mapping, key)
	if n == nil {
		return "", false
	}
	return n.Value, true
}

func stringSliceAt(mapping *yaml.Node, key string) []string {
	n := findKey(mapping, key)
	if n == nil || n.Kind != yaml.SequenceNode {
		return nil
	}
	out := make([]string, 0, len(n.Content))
	for _, c := range n.Content {
		out = append(out, c.Value)
	}
	return out
}

// siblingValues collects every non-reserved sibling key on a step mapping
// into the hole-value map (spec.md 6: "sibling keys on a step object supply
// hole values").
func siblingValues(mapping *yaml.Node) (map[string]types.Value, error) {
	values := make(map[string]types.Value)
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		key := mapping.Content[i].Value
		if reservedStepKeys[key] {
			continue
		}
		v, err := types.FromYAML(mapping.Content[i+1])
		if err != nil {
			return nil, types.NewStepError(types.ErrResolutionError, "", err)
		}
		values[key] = v
	}
	return values, nil
}

func platformSet(names []string) types.PlatformSet {
	if len(names) == 0 {
		return nil
	}
	platforms := make([]types.Platform, 0, len(names))
	for _, n := range names {
		platforms = append(platforms, types.Platform(n))
	}
	return types.NewPlatformSet(platforms...)
}
