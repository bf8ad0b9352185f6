package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/toolproof/toolproof/types"
)

func TestRecordStepIncrementsCounter(t *testing.T) {
	before := testutil.ToFloat64(stepsTotal.WithLabelValues("instruction", "pass"))
	RecordStep("instruction", nil)
	after := testutil.ToFloat64(stepsTotal.WithLabelValues("instruction", "pass"))
	assert.Equal(t, before+1, after)
}

func TestRecordStepLabelsFailuresByError(t *testing.T) {
	RecordStep("assertion", errors.New("assertion failed: mismatch"))
	label := errToLabel(errors.New("assertion failed: mismatch"))
	assert.Equal(t, float64(1), testutil.ToFloat64(stepsTotal.WithLabelValues("assertion", label)))
}

func TestRecordTestIncrementsTestCounter(t *testing.T) {
	before := testutil.ToFloat64(testsTotal.WithLabelValues("pass"))
	RecordTest(types.TestStatusPass, 250*time.Millisecond)
	after := testutil.ToFloat64(testsTotal.WithLabelValues("pass"))
	assert.Equal(t, before+1, after)
}

func TestRecordBrowserSessionIncrementsPerKind(t *testing.T) {
	before := testutil.ToFloat64(browserSessionsTotal.WithLabelValues("chrome"))
	RecordBrowserSession(types.BrowserChrome)
	after := testutil.ToFloat64(browserSessionsTotal.WithLabelValues("chrome"))
	assert.Equal(t, before+1, after)
}
