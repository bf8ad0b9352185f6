package types

import (
	"fmt"
	"strings"
)

// Substitute scans s for `D key D` tokens, where D is delim, and replaces
// each with values[key]. Substitution is performed once, not recursively
// (spec.md 4.1): a replacement value is never re-scanned for further
// placeholders, satisfying the idempotence invariant in spec.md 8.
func Substitute(s string, delim byte, values map[string]string) (string, error) {
	var b strings.Builder
	i := 0
	for i < len(s) {
		if s[i] != delim {
			b.WriteByte(s[i])
			i++
			continue
		}
		end := strings.IndexByte(s[i+1:], delim)
		if end == -1 {
			// Unmatched delimiter: treat as a literal character, same as the
			// original source's lenient scanner.
			b.WriteByte(s[i])
			i++
			continue
		}
		key := s[i+1 : i+1+end]
		val, ok := values[key]
		if !ok {
			return "", NewStepError(ErrPlaceholderMissing, "", fmt.Errorf("unknown placeholder %q", key))
		}
		b.WriteString(val)
		i += end + 2
	}
	return b.String(), nil
}

// SubstituteAll applies Substitute to every string in a Value tree,
// returning a new Value. Non-string scalars, sequences and mappings are
// walked but left structurally intact.
func SubstituteAll(v Value, delim byte, values map[string]string) (Value, error) {
	switch v.Kind {
	case KindString:
		s, err := Substitute(v.Str, delim, values)
		if err != nil {
			return Value{}, err
		}
		return NewString(s), nil
	case KindSequence:
		out := make([]Value, len(v.Seq))
		for i, e := range v.Seq {
			sv, err := SubstituteAll(e, delim, values)
			if err != nil {
				return Value{}, err
			}
			out[i] = sv
		}
		return NewSequence(out), nil
	case KindMapping:
		out := Value{Kind: KindMapping, Map: make(map[string]Value, len(v.Map))}
		for _, k := range v.Keys() {
			sv, err := SubstituteAll(v.Map[k], delim, values)
			if err != nil {
				return Value{}, err
			}
			out.Set(k, sv)
		}
		return out, nil
	default:
		return v, nil
	}
}
