package types

import (
	"strings"
)

// SegmentKind discriminates a Literal from a Hole within a Template.
type SegmentKind int

const (
	SegmentLiteral SegmentKind = iota
	SegmentHole
)

// Segment is one piece of a parsed sentence template.
type Segment struct {
	Kind SegmentKind
	Text string // literal text, or hole name
}

// Template is a sentence template: the parsed form of a registered handler's
// sentence, used for dispatcher matching (spec.md 4.1).
type Template struct {
	Segments []Segment
}

// ParseTemplate tokenises a registration string such as
// "I have the environment variable {name} set to {value}" into a sequence of
// Literal and Hole segments. Holes are written as {name}.
func ParseTemplate(text string) Template {
	var segs []Segment
	var lit strings.Builder
	i := 0
	for i < len(text) {
		if text[i] == '{' {
			if end := strings.IndexByte(text[i:], '}'); end != -1 {
				if lit.Len() > 0 {
					segs = append(segs, Segment{Kind: SegmentLiteral, Text: lit.String()})
					lit.Reset()
				}
				name := text[i+1 : i+end]
				segs = append(segs, Segment{Kind: SegmentHole, Text: name})
				i += end + 1
				continue
			}
		}
		lit.WriteByte(text[i])
		i++
	}
	if lit.Len() > 0 {
		segs = append(segs, Segment{Kind: SegmentLiteral, Text: lit.String()})
	}
	return Template{Segments: segs}
}

// HoleCount returns the number of holes in the template.
func (t Template) HoleCount() int {
	n := 0
	for _, s := range t.Segments {
		if s.Kind == SegmentHole {
			n++
		}
	}
	return n
}

// LiteralLength returns the total length of literal text in the template,
// used as the dispatcher's tie-break metric (spec.md 4.1).
func (t Template) LiteralLength() int {
	n := 0
	for _, s := range t.Segments {
		if s.Kind == SegmentLiteral {
			n += len(s.Text)
		}
	}
	return n
}

// HoleNames returns the ordered list of hole names in the template.
func (t Template) HoleNames() []string {
	var names []string
	for _, s := range t.Segments {
		if s.Kind == SegmentHole {
			names = append(names, s.Text)
		}
	}
	return names
}

func (t Template) String() string {
	var b strings.Builder
	for _, s := range t.Segments {
		if s.Kind == SegmentHole {
			b.WriteByte('{')
			b.WriteString(s.Text)
			b.WriteByte('}')
		} else {
			b.WriteString(s.Text)
		}
	}
	return b.String()
}

// MatchLiterals reports whether the template's literal segments occur, in
// order, within sentence. It does not resolve holes; that is the
// dispatcher's job once a candidate template is chosen.
func (t Template) MatchLiterals(sentence string) bool {
	pos := 0
	for _, s := range t.Segments {
		if s.Kind != SegmentLiteral {
			continue
		}
		idx := strings.Index(sentence[pos:], s.Text)
		if idx == -1 {
			return false
		}
		pos += idx + len(s.Text)
	}
	return true
}

// literalOverlap is a crude score used only to rank candidate templates for
// the StepUnresolved error message (spec.md 4.1): the length of literal text
// from the template that does appear, in order, somewhere in the sentence.
func (t Template) literalOverlap(sentence string) int {
	score := 0
	pos := 0
	for _, s := range t.Segments {
		if s.Kind != SegmentLiteral {
			continue
		}
		idx := strings.Index(sentence[pos:], s.Text)
		if idx == -1 {
			continue
		}
		score += len(s.Text)
		pos += idx + len(s.Text)
	}
	return score
}

// LiteralOverlap exposes literalOverlap for use outside the package (e.g.
// registry's closest-match error reporting).
func (t Template) LiteralOverlap(sentence string) int {
	return t.literalOverlap(sentence)
}
