// Package stats counts what the obfuscation passes did.
//
// Counters live on a private Prometheus registry so several pipelines can
// run in one process without clashing. A nil *Collector is valid and
// records nothing.
//
// Metrics:
//   - irobf_substitutions_total: rewritten instructions by operator
//   - irobf_bogus_blocks_total: blocks given a decoy clone
//   - irobf_functions_total: per-function outcomes by transform
//   - irobf_pass_duration_seconds: wall time of each pass over a unit
package stats

import (
	"sort"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

const namespace = "irobf"

// Outcome of running one transform over one function.
type Outcome string

const (
	OutcomeChanged    Outcome = "changed"
	OutcomeUnchanged  Outcome = "unchanged"
	OutcomeSkipped    Outcome = "skipped"
	OutcomeRolledBack Outcome = "rolled_back"
)

// Collector owns the pass counters.
type Collector struct {
	registry *prometheus.Registry

	substitutions *prometheus.CounterVec
	bogusBlocks   prometheus.Counter
	functions     *prometheus.CounterVec
	passDuration  *prometheus.HistogramVec
}

// New creates a collector on a fresh registry.
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		substitutions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "substitutions_total",
				Help:      "Instructions replaced by an equivalent sequence",
			},
			[]string{"op"},
		),
		bogusBlocks: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "bogus_blocks_total",
				Help:      "Blocks guarded by opaque predicates with a decoy clone",
			},
		),
		functions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "functions_total",
				Help:      "Functions visited by a transform, by outcome",
			},
			[]string{"transform", "outcome"},
		),
		passDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "pass_duration_seconds",
				Help:      "Duration of one transform over a compilation unit",
				Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10), // 10µs to 2.6s
			},
			[]string{"transform"},
		),
	}

	c.registry.MustRegister(
		c.substitutions,
		c.bogusBlocks,
		c.functions,
		c.passDuration,
	)
	return c
}

// Registry exposes the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// Substituted counts one rewritten instruction of the given operator.
func (c *Collector) Substituted(op string) {
	if c == nil {
		return
	}
	c.substitutions.WithLabelValues(op).Inc()
}

// BogusBlock counts one block given a decoy clone.
func (c *Collector) BogusBlock() {
	if c == nil {
		return
	}
	c.bogusBlocks.Inc()
}

// Function counts one per-function outcome of a transform.
func (c *Collector) Function(transform string, o Outcome) {
	if c == nil {
		return
	}
	c.functions.WithLabelValues(transform, string(o)).Inc()
}

// ObservePass records how long a transform took over a unit.
func (c *Collector) ObservePass(transform string, d time.Duration) {
	if c == nil {
		return
	}
	c.passDuration.WithLabelValues(transform).Observe(d.Seconds())
}

// Sample is one counter value from a snapshot.
type Sample struct {
	Name   string
	Labels map[string]string
	Value  float64
}

// Label renders the sample's labels as k=v pairs sorted by key.
func (s Sample) Label() string {
	keys := make([]string, 0, len(s.Labels))
	for k := range s.Labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + s.Labels[k]
	}
	return strings.Join(parts, ",")
}

// Snapshot gathers the current counter values, sorted by name then labels.
// Histograms report their sample count.
func (c *Collector) Snapshot() ([]Sample, error) {
	if c == nil {
		return nil, nil
	}
	families, err := c.registry.Gather()
	if err != nil {
		return nil, err
	}
	var out []Sample
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			out = append(out, Sample{
				Name:   mf.GetName(),
				Labels: labels(m),
				Value:  value(mf.GetType(), m),
			})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Label() < out[j].Label()
	})
	return out, nil
}

func labels(m *dto.Metric) map[string]string {
	out := make(map[string]string, len(m.GetLabel()))
	for _, lp := range m.GetLabel() {
		out[lp.GetName()] = lp.GetValue()
	}
	return out
}

func value(t dto.MetricType, m *dto.Metric) float64 {
	switch t {
	case dto.MetricType_COUNTER:
		return m.GetCounter().GetValue()
	case dto.MetricType_GAUGE:
		return m.GetGauge().GetValue()
	case dto.MetricType_HISTOGRAM:
		return float64(m.GetHistogram().GetSampleCount())
	}
	return 0
}
