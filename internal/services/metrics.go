// Prometheus instrumentation for the reminder lifecycle.
//
// Counters are registered at package init; the armed-timer gauge follows the
// live timer facility and is registered once from main, after the facility
// exists.
package services

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/tbourn/go-reminder-backend/internal/scheduler"
)

var (
	// reminderPushes counts push attempts by outcome ("delivered", "failed",
	// "skipped" for already-fired or missing events).
	reminderPushes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reminder_pushes_total",
			Help: "Total reminder push attempts by outcome.",
		},
		[]string{"outcome"},
	)

	// reminderArms counts arm operations by result ("armed", "disarmed",
	// "rejected").
	reminderArms = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reminder_arms_total",
			Help: "Total reminder arm operations by result.",
		},
		[]string{"result"},
	)
)

func init() {
	prometheus.MustRegister(reminderPushes, reminderArms)
}

// RegisterArmedGauge exposes the facility's outstanding timer count as a
// gauge. Call once at process start.
func RegisterArmedGauge(t scheduler.TimerFacility) {
	prometheus.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "reminder_armed_timers",
			Help: "Number of currently armed reminder timers.",
		},
		func() float64 { return float64(t.ArmedCount()) },
	))
}
