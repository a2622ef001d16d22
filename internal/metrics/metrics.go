// Package metrics exposes Prometheus collectors for board refresh cycles.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "defconboard"

// refresh results used as label values
const (
	ResultSuccess  = "success"
	ResultFailure  = "failure"
	ResultCanceled = "canceled"
)

// Recorder owns a registry and the collectors the board updates.
type Recorder struct {
	registry *prometheus.Registry

	refreshes       *prometheus.CounterVec
	refreshDuration prometheus.Histogram
	defconLevel     prometheus.Gauge
	commandRaised   *prometheus.GaugeVec
	transitions     *prometheus.CounterVec
	lastSuccess     prometheus.Gauge
}

// New creates a Recorder on a fresh registry. When registry is nil a new one
// is created together with the Go and process collectors.
func New(registry *prometheus.Registry) *Recorder {
	if registry == nil {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	factory := promauto.With(registry)

	return &Recorder{
		registry: registry,
		refreshes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refresh_total",
			Help:      "Total number of refresh cycles by result",
		}, []string{"result"}),
		refreshDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "refresh_duration_seconds",
			Help:      "Duration of refresh cycles, fetch included",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0, 20.0},
		}),
		defconLevel: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "level",
			Help:      "Last extracted DEFCON level, 0 when the page carried none",
		}),
		commandRaised: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "command_raised",
			Help:      "1 when the command is raised, 0 when normal",
		}, []string{"command"}),
		transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "command_transitions_total",
			Help:      "Number of observed command state transitions",
		}, []string{"command", "to"}),
		lastSuccess: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last published snapshot",
		}),
	}
}

// ObserveRefresh counts a finished cycle and its duration.
func (r *Recorder) ObserveRefresh(result string, d time.Duration) {
	r.refreshes.WithLabelValues(result).Inc()
	r.refreshDuration.Observe(d.Seconds())
}

// SetLevel records the extracted level; ok=false stores 0.
func (r *Recorder) SetLevel(level int, ok bool) {
	if !ok {
		level = 0
	}
	r.defconLevel.Set(float64(level))
}

// SetCommand records the current state of a command.
func (r *Recorder) SetCommand(command string, raised bool) {
	v := 0.0
	if raised {
		v = 1
	}
	r.commandRaised.WithLabelValues(command).Set(v)
}

// Transition counts a state change of command into state to.
func (r *Recorder) Transition(command, to string) {
	r.transitions.WithLabelValues(command, to).Inc()
}

// SetLastSuccess records when the latest snapshot was published.
func (r *Recorder) SetLastSuccess(t time.Time) {
	r.lastSuccess.Set(float64(t.Unix()))
}

// Registry returns the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}
