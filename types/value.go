package types

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Kind discriminates the concrete shape of a Value.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindSequence
	KindMapping
)

// Value is a recursive structure isomorphic to YAML scalars, sequences and
// mappings. It is the common currency passed between retrievals, assertions
// and the snapshot engine.
type Value struct {
	Kind Kind
	Bool bool
	Num  float64
	Str  string
	Seq  []Value
	Map  map[string]Value
	// keys preserves insertion order for Map, as returned by Keys();
	// rendering (String, ToYAMLStable) sorts keys instead.
	keys []string
}

func Null() Value                { return Value{Kind: KindNull} }
func NewBool(b bool) Value       { return Value{Kind: KindBool, Bool: b} }
func NewNumber(n float64) Value  { return Value{Kind: KindNumber, Num: n} }
func NewString(s string) Value   { return Value{Kind: KindString, Str: s} }
func NewSequence(v []Value) Value { return Value{Kind: KindSequence, Seq: v} }

// NewMapping builds a Value from an ordered slice of key/value pairs.
func NewMapping(pairs ...struct {
	Key string
	Val Value
}) Value {
	m := Value{Kind: KindMapping, Map: make(map[string]Value, len(pairs))}
	for _, p := range pairs {
		m.Set(p.Key, p.Val)
	}
	return m
}

// Set inserts or overwrites a key in a mapping Value, preserving first-seen
// key order.
func (v *Value) Set(key string, val Value) {
	if v.Map == nil {
		v.Map = make(map[string]Value)
	}
	v.Kind = KindMapping
	if _, exists := v.Map[key]; !exists {
		v.keys = append(v.keys, key)
	}
	v.Map[key] = val
}

// Keys returns the mapping's keys in insertion order.
func (v Value) Keys() []string {
	out := make([]string, len(v.keys))
	copy(out, v.keys)
	return out
}

// FromYAML converts a decoded yaml.v3 node into a Value.
func FromYAML(node *yaml.Node) (Value, error) {
	if node == nil {
		return Null(), nil
	}
	switch node.Kind {
	case yaml.DocumentNode:
		if len(node.Content) == 0 {
			return Null(), nil
		}
		return FromYAML(node.Content[0])
	case yaml.ScalarNode:
		return scalarFromYAML(node), nil
	case yaml.SequenceNode:
		seq := make([]Value, 0, len(node.Content))
		for _, c := range node.Content {
			cv, err := FromYAML(c)
			if err != nil {
				return Value{}, err
			}
			seq = append(seq, cv)
		}
		return NewSequence(seq), nil
	case yaml.MappingNode:
		m := Value{Kind: KindMapping, Map: make(map[string]Value)}
		for i := 0; i+1 < len(node.Content); i += 2 {
			key := node.Content[i].Value
			val, err := FromYAML(node.Content[i+1])
			if err != nil {
				return Value{}, err
			}
			m.Set(key, val)
		}
		return m, nil
	case yaml.AliasNode:
		return FromYAML(node.Alias)
	default:
		return Value{}, fmt.Errorf("unsupported yaml node kind %v", node.Kind)
	}
}

func scalarFromYAML(node *yaml.Node) Value {
	switch node.Tag {
	case "!!null":
		return Null()
	case "!!bool":
		b, _ := strconv.ParseBool(node.Value)
		return NewBool(b)
	case "!!int", "!!float":
		n, err := strconv.ParseFloat(node.Value, 64)
		if err != nil {
			return NewString(node.Value)
		}
		return NewNumber(n)
	default:
		return NewString(node.Value)
	}
}

// FromAny converts a generic Go value (as produced by encoding/json
// unmarshalling of a browser evaluation result) into a Value.
func FromAny(v interface{}) Value {
	switch t := v.(type) {
	case nil:
		return Null()
	case bool:
		return NewBool(t)
	case float64:
		return NewNumber(t)
	case int:
		return NewNumber(float64(t))
	case string:
		return NewString(t)
	case []interface{}:
		seq := make([]Value, 0, len(t))
		for _, e := range t {
			seq = append(seq, FromAny(e))
		}
		return NewSequence(seq)
	case map[string]interface{}:
		m := Value{Kind: KindMapping, Map: make(map[string]Value)}
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			m.Set(k, FromAny(t[k]))
		}
		return m
	default:
		return NewString(fmt.Sprintf("%v", t))
	}
}

// Equal implements deep structural equality used by the "be exactly"
// assertion.
func (v Value) Equal(other Value) bool {
	if v.Kind != other.Kind {
		return false
	}
	switch v.Kind {
	case KindNull:
		return true
	case KindBool:
		return v.Bool == other.Bool
	case KindNumber:
		return v.Num == other.Num
	case KindString:
		return v.Str == other.Str
	case KindSequence:
		if len(v.Seq) != len(other.Seq) {
			return false
		}
		for i := range v.Seq {
			if !v.Seq[i].Equal(other.Seq[i]) {
				return false
			}
		}
		return true
	case KindMapping:
		if len(v.Map) != len(other.Map) {
			return false
		}
		for k, val := range v.Map {
			ov, ok := other.Map[k]
			if !ok || !val.Equal(ov) {
				return false
			}
		}
		return true
	}
	return false
}

// IsEmpty reports whether v is the empty string, empty sequence, or empty
// mapping, per the "be empty" assertion contract.
func (v Value) IsEmpty() bool {
	switch v.Kind {
	case KindNull:
		return true
	case KindString:
		return v.Str == ""
	case KindSequence:
		return len(v.Seq) == 0
	case KindMapping:
		return len(v.Map) == 0
	default:
		return false
	}
}

// Contains implements the "contain" assertion: substring for strings,
// element/value containment for sequences and mappings.
func (v Value) Contains(needle Value) (bool, error) {
	switch v.Kind {
	case KindString:
		if needle.Kind != KindString {
			return false, fmt.Errorf("cannot check string containment against %v", needle.Kind)
		}
		return strings.Contains(v.Str, needle.Str), nil
	case KindSequence:
		for _, e := range v.Seq {
			if e.Equal(needle) {
				return true, nil
			}
		}
		return false, nil
	case KindMapping:
		for _, e := range v.Map {
			if e.Equal(needle) {
				return true, nil
			}
		}
		return false, nil
	default:
		return false, fmt.Errorf("value of kind %v does not support containment", v.Kind)
	}
}

// String renders a human-readable, non-canonical form, used in error
// messages and diffs.
func (v Value) String() string {
	switch v.Kind {
	case KindNull:
		return "null"
	case KindBool:
		return strconv.FormatBool(v.Bool)
	case KindNumber:
		return strconv.FormatFloat(v.Num, 'g', -1, 64)
	case KindString:
		return v.Str
	case KindSequence:
		parts := make([]string, len(v.Seq))
		for i, e := range v.Seq {
			parts[i] = e.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case KindMapping:
		keys := v.sortedKeys()
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = fmt.Sprintf("%s: %s", k, v.Map[k].String())
		}
		return "{" + strings.Join(parts, ", ") + "}"
	}
	return ""
}

func (v Value) sortedKeys() []string {
	keys := make([]string, 0, len(v.Map))
	for k := range v.Map {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ToYAMLStable serialises the value to YAML with sorted map keys and block
// (non-flow) style, as required by the snapshot engine for structured
// retrievals (spec.md 4.4).
func (v Value) ToYAMLStable() (string, error) {
	node := v.toYAMLNode()
	out, err := yaml.Marshal(node)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(string(out), "\n"), nil
}

func (v Value) toYAMLNode() *yaml.Node {
	switch v.Kind {
	case KindNull:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
	case KindBool:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(v.Bool)}
	case KindNumber:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: strconv.FormatFloat(v.Num, 'g', -1, 64)}
	case KindString:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v.Str}
	case KindSequence:
		n := &yaml.Node{Kind: yaml.SequenceNode, Style: 0}
		for _, e := range v.Seq {
			n.Content = append(n.Content, e.toYAMLNode())
		}
		return n
	case KindMapping:
		n := &yaml.Node{Kind: yaml.MappingNode, Style: 0}
		for _, k := range v.sortedKeys() {
			n.Content = append(n.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k},
				v.Map[k].toYAMLNode())
		}
		return n
	}
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
}
