package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCollectorRegisters(t *testing.T) {
	reg := prometheus.NewPedanticRegistry()
	c := NewCollector(reg)

	c.ObserveRun(9, 3, 150*time.Millisecond)
	c.ObserveRun(4, 2, 50*time.Millisecond)

	assert.Equal(t, 13.0, testutil.ToFloat64(c.PairsConsidered))
	assert.Equal(t, 5.0, testutil.ToFloat64(c.MappedPairs))

	families, err := reg.Gather()
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["spsm_filter_pairs_considered_total"])
	assert.True(t, names["spsm_filter_mapped_pairs_total"])
	assert.True(t, names["spsm_filter_duration_seconds"])
}

func TestDuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewCollector(reg)
	assert.Panics(t, func() { NewCollector(reg) })
}
