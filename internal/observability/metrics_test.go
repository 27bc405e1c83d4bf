package observability_test

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/fray/internal/observability"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *observability.Metrics
	assert.NotPanics(t, func() {
		m.ObserveTick(time.Millisecond)
		m.SetActiveSessions(3)
		m.IncRounds()
		m.IncAttack("hit")
		m.IncKills()
		m.IncPlayerDeaths()
		m.IncTransfer("begun")
		m.IncPersistDropped()
	})
}

func TestMetricsRegisterAndCount(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := observability.NewMetrics(reg)

	m.IncRounds()
	m.IncRounds()
	m.IncAttack("miss")
	m.IncAttack("crit")
	m.IncAttack("crit")
	m.SetActiveSessions(4)

	n, err := testutil.GatherAndCount(reg, "fray_combat_attacks_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n, "one series per outcome label")

	families, err := reg.Gather()
	require.NoError(t, err)
	values := make(map[string]float64)
	for _, f := range families {
		for _, metric := range f.GetMetric() {
			switch {
			case metric.GetCounter() != nil:
				values[f.GetName()] += metric.GetCounter().GetValue()
			case metric.GetGauge() != nil:
				values[f.GetName()] = metric.GetGauge().GetValue()
			}
		}
	}
	assert.Equal(t, 2.0, values["fray_combat_rounds_total"])
	assert.Equal(t, 3.0, values["fray_combat_attacks_total"])
	assert.Equal(t, 4.0, values["fray_combat_sessions_active"])
}

func TestMetricsDuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	observability.NewMetrics(reg)
	assert.Panics(t, func() { observability.NewMetrics(reg) })
}
