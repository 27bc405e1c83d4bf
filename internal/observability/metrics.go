package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the combat engine's Prometheus collectors.
//
// Labels are bounded: no per-player or per-NPC label values are emitted.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	tickDuration   prometheus.Histogram
	activeSessions prometheus.Gauge
	rounds         prometheus.Counter
	attacks        *prometheus.CounterVec
	kills          prometheus.Counter
	playerDeaths   prometheus.Counter
	transfers      *prometheus.CounterVec
	persistDropped prometheus.Counter
}

// NewMetrics registers the combat collectors on reg.
//
// Precondition: reg must be non-nil and must not already hold collectors with these names.
// Postcondition: Returns a Metrics whose collectors are registered on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		tickDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "fray_combat_tick_duration_seconds",
			Help:    "Time spent resolving one combat tick",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1},
		}),
		activeSessions: f.NewGauge(prometheus.GaugeOpts{
			Name: "fray_combat_sessions_active",
			Help: "Current number of active combat sessions",
		}),
		rounds: f.NewCounter(prometheus.CounterOpts{
			Name: "fray_combat_rounds_total",
			Help: "Total combat rounds resolved",
		}),
		attacks: f.NewCounterVec(prometheus.CounterOpts{
			Name: "fray_combat_attacks_total",
			Help: "Attacks resolved, by outcome",
		}, []string{"outcome"}), // bounded: miss, dodge, hit, crit
		kills: f.NewCounter(prometheus.CounterOpts{
			Name: "fray_combat_npc_kills_total",
			Help: "NPCs killed in combat",
		}),
		playerDeaths: f.NewCounter(prometheus.CounterOpts{
			Name: "fray_combat_player_deaths_total",
			Help: "Players killed in combat",
		}),
		transfers: f.NewCounterVec(prometheus.CounterOpts{
			Name: "fray_combat_transfers_total",
			Help: "Session transfers, by result",
		}, []string{"result"}), // bounded: begun, resolved, expired, reconstructed
		persistDropped: f.NewCounter(prometheus.CounterOpts{
			Name: "fray_persist_dropped_total",
			Help: "Player state snapshots dropped because the persist queue was full",
		}),
	}
}

// ObserveTick records the wall time spent on one tick.
func (m *Metrics) ObserveTick(d time.Duration) {
	if m == nil {
		return
	}
	m.tickDuration.Observe(d.Seconds())
}

// SetActiveSessions records the current session count.
func (m *Metrics) SetActiveSessions(n int) {
	if m == nil {
		return
	}
	m.activeSessions.Set(float64(n))
}

// IncRounds counts one resolved round.
func (m *Metrics) IncRounds() {
	if m == nil {
		return
	}
	m.rounds.Inc()
}

// IncAttack counts one attack with the given outcome label.
//
// Precondition: outcome is one of "miss", "dodge", "hit", "crit".
func (m *Metrics) IncAttack(outcome string) {
	if m == nil {
		return
	}
	m.attacks.WithLabelValues(outcome).Inc()
}

// IncKills counts one NPC death.
func (m *Metrics) IncKills() {
	if m == nil {
		return
	}
	m.kills.Inc()
}

// IncPlayerDeaths counts one player death.
func (m *Metrics) IncPlayerDeaths() {
	if m == nil {
		return
	}
	m.playerDeaths.Inc()
}

// IncTransfer counts one transfer protocol event.
//
// Precondition: result is one of "begun", "resolved", "expired", "reconstructed".
func (m *Metrics) IncTransfer(result string) {
	if m == nil {
		return
	}
	m.transfers.WithLabelValues(result).Inc()
}

// IncPersistDropped counts one dropped persistence snapshot.
func (m *Metrics) IncPersistDropped() {
	if m == nil {
		return
	}
	m.persistDropped.Inc()
}
