// Package metrics instruments a run with prometheus counters and a test
// duration histogram (no gauges), grounded on the teacher's
// metrics.go: the same promauto + errToLabel pattern, generalized from
// per-gate/validator counters to the step/test/run shape of this domain.
package metrics

import (
	"regexp"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/toolproof/toolproof/types"
)

const Namespace = "toolproof"

var nonAlphanumericRegex = regexp.MustCompile(`[^a-zA-Z ]+`)

var (
	stepsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "steps_total",
		Help:      "Count of steps executed, by step kind and outcome",
	}, []string{"kind", "result"})

	testsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "tests_total",
		Help:      "Count of tests scheduled, by terminal result",
	}, []string{"result"})

	testDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: Namespace,
		Name:      "test_duration_seconds",
		Help:      "Wall-clock duration of a scheduled test, including retries",
		Buckets:   prometheus.DefBuckets,
	}, []string{"result"})

	browserSessionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "browser_sessions_total",
		Help:      "Count of browser pages opened, by browser kind",
	}, []string{"browser"})
)

// errToLabel sanitizes an error string into a valid-ish Prometheus label
// value, exactly as the teacher's errToLabel does.
func errToLabel(err error) string {
	if err == nil {
		return "nil"
	}
	clean := nonAlphanumericRegex.ReplaceAllString(err.Error(), "")
	clean = strings.ReplaceAll(clean, " ", "_")
	clean = strings.ReplaceAll(clean, "__", "_")
	return clean
}

// RecordStep increments the step counter for one step kind/outcome.
func RecordStep(kind string, err error) {
	result := "pass"
	if err != nil {
		result = errToLabel(err)
	}
	stepsTotal.WithLabelValues(kind, result).Inc()
}

// RecordTest increments the test counter and observes its duration.
func RecordTest(status types.TestStatus, duration time.Duration) {
	testsTotal.WithLabelValues(string(status)).Inc()
	testDuration.WithLabelValues(string(status)).Observe(duration.Seconds())
}

// RecordBrowserSession increments the browser-session counter.
func RecordBrowserSession(browser types.BrowserKind) {
	browserSessionsTotal.WithLabelValues(string(browser)).Inc()
}
