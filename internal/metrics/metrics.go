// Package metrics exposes machine activity as Prometheus metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/cjeanneret/SprayGo/internal/logic/machine"
	"github.com/cjeanneret/SprayGo/internal/logic/motion"
	"github.com/cjeanneret/SprayGo/internal/logic/pattern"
	"github.com/cjeanneret/SprayGo/internal/operator"
)

const namespace = "spraygo"

// Collector implements machine.Observer. All methods are counter or gauge
// updates and never block the control tick.
type Collector struct {
	Transitions      *prometheus.CounterVec
	State            *prometheus.GaugeVec
	OperatorCommands *prometheus.CounterVec
	GuardViolations  *prometheus.CounterVec
	Executed         *prometheus.CounterVec
	EmergencyStops   prometheus.Counter
	Faults           prometheus.Counter
	Cycles           prometheus.Counter
	SelectedSides    prometheus.Gauge
}

var _ machine.Observer = (*Collector)(nil)

// New registers the collector's metrics on reg.
func New(reg prometheus.Registerer) *Collector {
	f := promauto.With(reg)
	c := &Collector{
		Transitions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "state_transitions_total",
			Help:      "State machine transitions",
		}, []string{"from", "to"}),
		State: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "state",
			Help:      "1 for the active state, 0 otherwise",
		}, []string{"state"}),
		OperatorCommands: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operator_commands_total",
			Help:      "Operator commands consumed by the control loop",
		}, []string{"kind"}),
		GuardViolations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "guard_violations_total",
			Help:      "Operator commands dropped because the machine was in the wrong state",
		}, []string{"kind", "state"}),
		Executed: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pattern_commands_total",
			Help:      "Pattern commands executed",
		}, []string{"side", "kind"}),
		EmergencyStops: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "emergency_stops_total",
			Help:      "Emergency stops",
		}),
		Faults: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "faults_total",
			Help:      "Hardware faults that forced the machine into error",
		}),
		Cycles: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cycles_completed_total",
			Help:      "Pattern cycles run to completion",
		}),
		SelectedSides: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "selected_sides",
			Help:      "Number of sides in the current selection",
		}),
	}
	c.setState(machine.Idle)
	c.SelectionChanged(pattern.AllSides())
	return c
}

func (c *Collector) setState(s machine.State) {
	for _, st := range machine.States {
		v := 0.0
		if st == s {
			v = 1
		}
		c.State.WithLabelValues(st.String()).Set(v)
	}
}

func (c *Collector) StateChanged(from, to machine.State) {
	c.Transitions.WithLabelValues(from.String(), to.String()).Inc()
	c.setState(to)
}

func (c *Collector) SelectionChanged(sel pattern.Selection) {
	n := 0
	for _, v := range sel {
		if v {
			n++
		}
	}
	c.SelectedSides.Set(float64(n))
}

func (c *Collector) OperatorCommand(cmd operator.Command) {
	c.OperatorCommands.WithLabelValues(cmd.Kind.String()).Inc()
}

func (c *Collector) GuardViolation(s machine.State, cmd operator.Command) {
	c.GuardViolations.WithLabelValues(cmd.Kind.String(), s.String()).Inc()
}

func (c *Collector) CommandExecuted(cur pattern.Cursor, cmd motion.Command) {
	c.Executed.WithLabelValues(sideLabel(cur.Side), cmd.Kind()).Inc()
}

func (c *Collector) EmergencyStop(machine.State) { c.EmergencyStops.Inc() }
func (c *Collector) Fault(error)                 { c.Faults.Inc() }
func (c *Collector) CycleCompleted(string)       { c.Cycles.Inc() }

func sideLabel(side int) string {
	if side < 0 || side >= pattern.Sides {
		return "none"
	}
	return string(rune('1' + side))
}
