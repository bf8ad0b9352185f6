package snapshot

import (
	"testing"

	"github.com/toolproof/toolproof/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderStringSplitsLinesWithSentinel(t *testing.T) {
	rendered, err := Render(types.NewString("x\ny"))
	require.NoError(t, err)
	assert.Equal(t, "╎x\n╎y", rendered)
}

func TestRenderStringDropsSingleTrailingNewline(t *testing.T) {
	rendered, err := Render(types.NewString("x\ny\n"))
	require.NoError(t, err)
	assert.Equal(t, "╎x\n╎y", rendered)
}

func TestRenderStringDropsTrailingCRLF(t *testing.T) {
	rendered, err := Render(types.NewString("x\r\ny\r\n"))
	require.NoError(t, err)
	assert.Equal(t, "╎x\n╎y", rendered)
}

func TestRenderEmptyStringIsSoloSentinel(t *testing.T) {
	rendered, err := Render(types.NewString(""))
	require.NoError(t, err)
	assert.Equal(t, "╎", rendered)
}

func TestRenderStructuredSortsMapKeys(t *testing.T) {
	v := types.Value{}
	v.Set("zeta", types.NewString("z"))
	v.Set("alpha", types.NewString("a"))

	rendered, err := Render(v)
	require.NoError(t, err)
	assert.Contains(t, rendered, "╎alpha:")
	assert.True(t, indexOf(rendered, "alpha") < indexOf(rendered, "zeta"))
}

func TestRenderExtractHasNoSentinel(t *testing.T) {
	rendered, err := RenderExtract(types.NewString("x\ny"))
	require.NoError(t, err)
	assert.Equal(t, "x\ny", rendered)
}

func indexOf(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}
