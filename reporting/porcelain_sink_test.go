package reporting

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toolproof/toolproof/types"
)

func TestPorcelainSinkLineFormat(t *testing.T) {
	var buf bytes.Buffer
	sink := &PorcelainSink{Out: &buf}
	require.NoError(t, sink.Render(sampleResult()))

	lines := buf.String()
	assert.Contains(t, lines, "PASS alpha\n")
	assert.Contains(t, lines, "FAIL beta step=2 ")
	assert.Contains(t, lines, "TOTAL 2 passed=1 failed=1 skipped=0 flaky=0 status=fail\n")
}

func TestPorcelainSinkMarksFlakyTests(t *testing.T) {
	result := sampleResult()
	result.Results[0].Attempts = []types.Attempt{
		{Number: 1, Status: types.TestStatusFail},
		{Number: 2, Status: types.TestStatusPass},
	}

	var buf bytes.Buffer
	sink := &PorcelainSink{Out: &buf}
	require.NoError(t, sink.Render(result))
	assert.Contains(t, buf.String(), "FLAKY alpha attempts=2\n")
}
