package stats

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_Counters(t *testing.T) {
	c := New()

	c.Substituted("add")
	c.Substituted("add")
	c.Substituted("xor")
	c.BogusBlock()
	c.Function("bcf", OutcomeChanged)
	c.Function("bcf", OutcomeSkipped)
	c.Function("bcf", OutcomeSkipped)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.substitutions.WithLabelValues("add")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.substitutions.WithLabelValues("xor")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.bogusBlocks))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.functions.WithLabelValues("bcf", "skipped")))
}

func TestCollector_Snapshot(t *testing.T) {
	c := New()
	c.Substituted("sub")
	c.BogusBlock()
	c.BogusBlock()
	c.ObservePass("sub", 3*time.Millisecond)

	samples, err := c.Snapshot()
	require.NoError(t, err)

	byName := map[string]Sample{}
	for _, s := range samples {
		byName[s.Name+"{"+s.Label()+"}"] = s
	}
	assert.Equal(t, 2.0, byName["irobf_bogus_blocks_total{}"].Value)
	assert.Equal(t, 1.0, byName["irobf_substitutions_total{op=sub}"].Value)
	assert.Equal(t, 1.0, byName["irobf_pass_duration_seconds{transform=sub}"].Value)

	for i := 1; i < len(samples); i++ {
		assert.LessOrEqual(t, samples[i-1].Name, samples[i].Name)
	}
}

func TestCollector_Nil(t *testing.T) {
	var c *Collector
	c.Substituted("add")
	c.BogusBlock()
	c.Function("sub", OutcomeChanged)
	c.ObservePass("sub", time.Second)
	assert.Nil(t, c.Registry())

	samples, err := c.Snapshot()
	require.NoError(t, err)
	assert.Empty(t, samples)
}

func TestSample_Label(t *testing.T) {
	s := Sample{Labels: map[string]string{"outcome": "changed", "transform": "bcf"}}
	assert.Equal(t, "outcome=changed,transform=bcf", s.Label())
	assert.Equal(t, "", Sample{}.Label())
}
