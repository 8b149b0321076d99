// Package metrics exposes round controller events as Prometheus metrics.
package metrics

import (
	"net/http"

	"github.com/bnema/evo/internal/ports"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "evo"

type Recorder struct {
	registry *prometheus.Registry

	// RoundsStarted counts rounds that began generating.
	RoundsStarted prometheus.Counter

	// RoundsSettled counts finished rounds.
	// Labels: outcome (success, soft_failure, hard_failure)
	RoundsSettled *prometheus.CounterVec

	// GenerationAttempts counts single backend requests.
	// Labels: outcome (success, fatal, no_image, safety_block)
	GenerationAttempts *prometheus.CounterVec

	// Votes counts votes by where they came from.
	// Labels: source (direct, remote, http), result (accepted, decided, rejected, invalid)
	Votes *prometheus.CounterVec

	PoolRemaining prometheus.Gauge
}

var _ ports.Metrics = (*Recorder)(nil)

// NewRecorder registers the evo metrics plus the Go runtime collectors on a
// dedicated registry.
func NewRecorder() *Recorder {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(registry)

	return &Recorder{
		registry: registry,
		RoundsStarted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rounds",
			Name:      "started_total",
			Help:      "Total number of rounds that started generating",
		}),
		RoundsSettled: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rounds",
			Name:      "settled_total",
			Help:      "Total number of finished rounds by outcome",
		}, []string{"outcome"}),
		GenerationAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "generator",
			Name:      "attempts_total",
			Help:      "Total image backend requests by outcome",
		}, []string{"outcome"}),
		Votes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "votes_total",
			Help:      "Total votes by source and result",
		}, []string{"source", "result"}),
		PoolRemaining: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pool",
			Name:      "instructions_remaining",
			Help:      "Instructions left in the pool",
		}),
	}
}

func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

func (r *Recorder) RoundStarted() {
	r.RoundsStarted.Inc()
}

func (r *Recorder) RoundSettled(outcome string) {
	r.RoundsSettled.WithLabelValues(outcome).Inc()
}

func (r *Recorder) GenerationAttempt(outcome string) {
	r.GenerationAttempts.WithLabelValues(outcome).Inc()
}

func (r *Recorder) Vote(source string, result string) {
	r.Votes.WithLabelValues(source, result).Inc()
}

func (r *Recorder) PoolSize(size int) {
	r.PoolRemaining.Set(float64(size))
}
