package ui

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildTreePrefixRoot(t *testing.T) {
	assert.Equal(t, "", BuildTreePrefix(0, true, nil))
}

func TestBuildTreePrefixBranchVsLast(t *testing.T) {
	assert.Equal(t, TreeBranch, BuildTreePrefix(1, false, nil))
	assert.Equal(t, TreeLastBranch, BuildTreePrefix(1, true, nil))
}

func TestBuildTreePrefixNestedIndent(t *testing.T) {
	prefix := BuildTreePrefix(2, true, []bool{false})
	assert.Equal(t, TreeContinue+TreeLastBranch, prefix)

	prefix = BuildTreePrefix(2, false, []bool{true})
	assert.Equal(t, TreeIndent+TreeBranch, prefix)
}

func TestBuildBoxHeaderContainsTitle(t *testing.T) {
	header := BuildBoxHeader("Results", 20)
	assert.True(t, strings.Contains(header, "Results"))
	assert.True(t, strings.HasPrefix(header, BoxTopLeft))
}

func TestBuildBoxFooterWidth(t *testing.T) {
	footer := BuildBoxFooter(10)
	assert.True(t, strings.HasPrefix(footer, BoxBottomLeft))
	assert.True(t, strings.HasSuffix(footer, BoxBottomRight+"\n"))
}
