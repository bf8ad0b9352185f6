package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestValueEqual(t *testing.T) {
	a := NewSequence([]Value{NewString("x"), NewNumber(1)})
	b := NewSequence([]Value{NewString("x"), NewNumber(1)})
	c := NewSequence([]Value{NewString("x"), NewNumber(2)})

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
}

func TestValueContains(t *testing.T) {
	s := NewString("hello world")
	ok, err := s.Contains(NewString("world"))
	require.NoError(t, err)
	assert.True(t, ok)

	seq := NewSequence([]Value{NewString("a"), NewString("b")})
	ok, err = seq.Contains(NewString("b"))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestValueIsEmpty(t *testing.T) {
	assert.True(t, NewString("").IsEmpty())
	assert.False(t, NewString("x").IsEmpty())
	assert.True(t, NewSequence(nil).IsEmpty())
}

func TestFromYAMLRoundtrip(t *testing.T) {
	var node yaml.Node
	require.NoError(t, yaml.Unmarshal([]byte("foo: bar\nnum: 3\nlist: [1, 2]\n"), &node))

	v, err := FromYAML(&node)
	require.NoError(t, err)

	require.Equal(t, KindMapping, v.Kind)
	assert.Equal(t, "bar", v.Map["foo"].Str)
	assert.Equal(t, float64(3), v.Map["num"].Num)
	assert.Equal(t, 2, len(v.Map["list"].Seq))
}

func TestToYAMLStableSortsKeys(t *testing.T) {
	v := Value{Kind: KindMapping, Map: map[string]Value{
		"b": NewString("2"),
		"a": NewString("1"),
	}}
	out, err := v.ToYAMLStable()
	require.NoError(t, err)
	assert.Equal(t, "a: \"1\"\nb: \"2\"", out)
}

func TestParseTemplate(t *testing.T) {
	tmpl := ParseTemplate("I have a {filename} file with the content {contents}")
	assert.Equal(t, 2, tmpl.HoleCount())
	assert.Equal(t, []string{"filename", "contents"}, tmpl.HoleNames())
	assert.True(t, tmpl.MatchLiterals("I have a 'a.txt' file with the content 'hi'"))
	assert.False(t, tmpl.MatchLiterals("I have a file"))
}
