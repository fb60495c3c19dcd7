package cutter

import (
	cutio "github.com/dcos/pipe-cutter/io"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the counters updated by a run.
type Metrics struct {
	ReadOutcomes   *prometheus.CounterVec
	BytesRead      prometheus.Counter
	BytesForwarded prometheus.Counter
	RunDuration    prometheus.Histogram
}

// NewMetrics creates the run metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		ReadOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pipe_cutter_read_outcomes_total",
			Help: "Timed reads by outcome",
		}, []string{"outcome"}),
		BytesRead: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pipe_cutter_read_bytes_total",
			Help: "Bytes read from the source",
		}),
		BytesForwarded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pipe_cutter_forwarded_bytes_total",
			Help: "Bytes written to the sink",
		}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "pipe_cutter_run_duration_seconds",
			Help:    "Time taken by a whole run",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 10),
		}),
	}

	for _, c := range []prometheus.Collector{m.ReadOutcomes, m.BytesRead, m.BytesForwarded, m.RunDuration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) observeOutcome(out cutio.Outcome) {
	if m == nil {
		return
	}
	m.ReadOutcomes.WithLabelValues(out.Kind.String()).Inc()
	if out.Kind == cutio.Data {
		m.BytesRead.Add(float64(out.N))
	}
}

func (m *Metrics) observeForwarded(n int) {
	if m == nil {
		return
	}
	m.BytesForwarded.Add(float64(n))
}

func (m *Metrics) observeRun(seconds float64) {
	if m == nil {
		return
	}
	m.RunDuration.Observe(seconds)
}
