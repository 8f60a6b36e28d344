// Package telemetry collects and exposes Prometheus metrics for a
// running overwatcher test.
package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds all overwatcher-specific Prometheus metrics. Every
// Set/Observe/Inc method has a nil receiver guard, so a nil *Collector
// is a valid, inert value the engine can carry unconditionally.
// Handler has no such guard and needs a non-nil Collector.
type Collector struct {
	registry *prometheus.Registry

	StatesObservedTotal   *prometheus.CounterVec
	TriggersFiredTotal    *prometheus.CounterVec
	ModifiersFiredTotal   *prometheus.CounterVec
	TimeoutsConsumedTotal prometheus.Counter
	CommandsSentTotal     prometheus.Counter
	LinkReopenTotal       prometheus.Counter
	OutcomeTotal          *prometheus.CounterVec
	BuildInfo             *prometheus.GaugeVec
}

// New creates and registers overwatcher metrics.
func New() *Collector {
	reg := prometheus.NewRegistry()

	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	c := &Collector{
		registry: reg,

		StatesObservedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "overwatcher_states_observed_total",
				Help: "Total number of times a named state was matched against a console line.",
			},
			[]string{"state"},
		),

		TriggersFiredTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "overwatcher_triggers_fired_total",
				Help: "Total number of trigger-list commands sent for an observed state.",
			},
			[]string{"state"},
		),

		ModifiersFiredTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "overwatcher_modifiers_fired_total",
				Help: "Total number of times a modifier token was invoked.",
			},
			[]string{"modifier"},
		),

		TimeoutsConsumedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "overwatcher_timeouts_consumed_total",
				Help: "Total number of main-timer fires that consumed a soft-timeout budget entry.",
			},
		),

		CommandsSentTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "overwatcher_commands_sent_total",
				Help: "Total number of commands written to the link.",
			},
		),

		LinkReopenTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "overwatcher_link_reopen_total",
				Help: "Total number of times the link was reopened after a fault.",
			},
		),

		OutcomeTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "overwatcher_outcome_total",
				Help: "Final outcome of a completed run.",
			},
			[]string{"outcome"},
		),

		BuildInfo: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "overwatcher_build_info",
				Help: "Build information about the overwatcher binary.",
			},
			[]string{"version", "go_version"},
		),
	}

	reg.MustRegister(
		c.StatesObservedTotal,
		c.TriggersFiredTotal,
		c.ModifiersFiredTotal,
		c.TimeoutsConsumedTotal,
		c.CommandsSentTotal,
		c.LinkReopenTotal,
		c.OutcomeTotal,
		c.BuildInfo,
	)

	return c
}

// Handler returns an http.Handler that serves the /metrics endpoint.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// SetBuildInfo sets the constant build info gauge.
func (c *Collector) SetBuildInfo(version, goVersion string) {
	if c == nil {
		return
	}
	c.BuildInfo.WithLabelValues(version, goVersion).Set(1)
}

// ObserveState records a state match.
func (c *Collector) ObserveState(state string) {
	if c == nil {
		return
	}
	c.StatesObservedTotal.WithLabelValues(state).Inc()
}

// ObserveTrigger records a trigger-list command sent for state.
func (c *Collector) ObserveTrigger(state string) {
	if c == nil {
		return
	}
	c.TriggersFiredTotal.WithLabelValues(state).Inc()
}

// ObserveModifier records a modifier invocation.
func (c *Collector) ObserveModifier(name string) {
	if c == nil {
		return
	}
	c.ModifiersFiredTotal.WithLabelValues(name).Inc()
}

// IncTimeoutConsumed records a main-timer fire that consumed budget.
func (c *Collector) IncTimeoutConsumed() {
	if c == nil {
		return
	}
	c.TimeoutsConsumedTotal.Inc()
}

// IncCommandSent records a command written to the link.
func (c *Collector) IncCommandSent() {
	if c == nil {
		return
	}
	c.CommandsSentTotal.Inc()
}

// IncLinkReopen records a link reopen.
func (c *Collector) IncLinkReopen() {
	if c == nil {
		return
	}
	c.LinkReopenTotal.Inc()
}

// ObserveOutcome records the final run outcome.
func (c *Collector) ObserveOutcome(outcome string) {
	if c == nil {
		return
	}
	c.OutcomeTotal.WithLabelValues(outcome).Inc()
}
