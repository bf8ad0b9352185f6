package snapshot

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/chzyer/readline"
	"gopkg.in/yaml.v3"
)

// InteractiveLock is the single global lock serialising snapshot-acceptance
// prompts across workers (spec.md 4.4, 5: "Only one interactive prompt is
// active at a time across workers").
var InteractiveLock sync.Mutex

// Prompter asks the operator whether to accept a mismatch, printing the
// diff first. Held behind InteractiveLock by the caller for the duration
// of one prompt.
type Prompter struct {
	rl *readline.Instance
}

func NewPrompter() (*Prompter, error) {
	rl, err := readline.New("")
	if err != nil {
		return nil, fmt.Errorf("initializing interactive prompt: %w", err)
	}
	return &Prompter{rl: rl}, nil
}

func (p *Prompter) Close() error {
	return p.rl.Close()
}

// Confirm prints the diff and asks "accept? [y/N]", returning true only on
// an explicit "y"/"yes" (case-insensitive); anything else, including a
// read error or EOF, is treated as "no".
func (p *Prompter) Confirm(testName string, diff []DiffLine) bool {
	fmt.Fprintf(p.rl.Stdout(), "snapshot mismatch in %s:\n%s\n", testName, RenderDiff(diff))
	p.rl.SetPrompt("accept? [y/N] ")
	line, err := p.rl.Readline()
	if err != nil {
		return false
	}
	line = strings.ToLower(strings.TrimSpace(line))
	return line == "y" || line == "yes"
}

// AcceptAndRewrite rewrites the source YAML file so the step's
// snapshot_content equals newContent, preserving surrounding nodes,
// comments, and key order of unaffected keys (spec.md 4.4), by editing the
// existing yaml.Node tree in place rather than re-marshalling a fresh
// structure — the approach original_source's acceptance path takes.
func AcceptAndRewrite(path string, sourceLine int, newContent string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s for snapshot rewrite: %w", path, err)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("parsing %s for snapshot rewrite: %w", path, err)
	}

	stepNode := findStepNode(&doc, sourceLine)
	if stepNode == nil {
		return fmt.Errorf("snapshot rewrite: no step node found at %s:%d", path, sourceLine)
	}

	setMappingScalar(stepNode, "snapshot_content", newContent, yaml.LiteralStyle)

	var out bytes.Buffer
	enc := yaml.NewEncoder(&out)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return fmt.Errorf("re-encoding %s after snapshot rewrite: %w", path, err)
	}
	if err := enc.Close(); err != nil {
		return err
	}

	return os.WriteFile(path, out.Bytes(), 0o644)
}

// findStepNode walks the document for the mapping node whose own line
// matches sourceLine — the step object that owns (or should own) a
// snapshot_content key.
func findStepNode(n *yaml.Node, line int) *yaml.Node {
	if n.Kind == yaml.DocumentNode {
		for _, c := range n.Content {
			if found := findStepNode(c, line); found != nil {
				return found
			}
		}
		return nil
	}
	if n.Kind == yaml.MappingNode && n.Line == line {
		return n
	}
	for _, c := range n.Content {
		if found := findStepNode(c, line); found != nil {
			return found
		}
	}
	return nil
}

// setMappingScalar finds key in mapping (a MappingNode) and overwrites its
// value node, or appends a new key/value pair at the end if absent —
// preserving every other key's position and comments.
func setMappingScalar(mapping *yaml.Node, key, value string, style yaml.Style) {
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			mapping.Content[i+1].Kind = yaml.ScalarNode
			mapping.Content[i+1].Tag = "!!str"
			mapping.Content[i+1].Style = style
			mapping.Content[i+1].Value = value
			return
		}
	}
	mapping.Content = append(mapping.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Style: style, Value: value},
	)
}
