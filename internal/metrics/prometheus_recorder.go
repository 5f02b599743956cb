package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	generateDuration *prom.HistogramVec
	buildDuration    prom.Histogram
	generateResults  *prom.CounterVec
	buildOutcome     *prom.CounterVec
	watchEvents      prom.Counter
	queueDepth       prom.Gauge
}

// NewPrometheusRecorder constructs and registers Prometheus metrics on reg.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		generateDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "doxbuilder",
			Name:      "generate_duration_seconds",
			Help:      "Duration of individual doxygen generation runs",
			Buckets:   prom.DefBuckets,
		}, []string{"format"}),
		buildDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: "doxbuilder",
			Name:      "build_duration_seconds",
			Help:      "Total build duration across all requested formats",
			Buckets:   prom.DefBuckets,
		}),
		generateResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "doxbuilder",
			Name:      "generate_results_total",
			Help:      "Generation result counts by format and outcome",
		}, []string{"format", "result"}),
		buildOutcome: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "doxbuilder",
			Name:      "build_outcomes_total",
			Help:      "Build outcomes by final status",
		}, []string{"outcome"}),
		watchEvents: prom.NewCounter(prom.CounterOpts{
			Namespace: "doxbuilder",
			Name:      "watch_events_total",
			Help:      "Filesystem events observed by the source watcher",
		}),
		queueDepth: prom.NewGauge(prom.GaugeOpts{
			Namespace: "doxbuilder",
			Name:      "queue_depth",
			Help:      "Number of build jobs currently queued",
		}),
	}
	reg.MustRegister(pr.generateDuration, pr.buildDuration, pr.generateResults,
		pr.buildOutcome, pr.watchEvents, pr.queueDepth)
	return pr
}

func (p *PrometheusRecorder) ObserveGenerateDuration(format string, d time.Duration) {
	p.generateDuration.WithLabelValues(format).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveBuildDuration(d time.Duration) {
	p.buildDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncGenerateResult(format string, result ResultLabel) {
	p.generateResults.WithLabelValues(format, string(result)).Inc()
}

func (p *PrometheusRecorder) IncBuildOutcome(outcome string) {
	p.buildOutcome.WithLabelValues(outcome).Inc()
}

func (p *PrometheusRecorder) IncWatchEvent() {
	p.watchEvents.Inc()
}

func (p *PrometheusRecorder) SetQueueDepth(n int) {
	p.queueDepth.Set(float64(n))
}
