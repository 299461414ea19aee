package metrics

import (
	"net/http"
	"time"

	"github.com/bisa-app/factcheck/internal/model"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder exports fact-check run and source audit metrics on its own
// registry
type Recorder struct {
	registry *prometheus.Registry

	runsTotal    *prometheus.CounterVec
	runDuration  *prometheus.HistogramVec
	inFlight     prometheus.Gauge
	rejected     *prometheus.CounterVec
	sourcesTotal *prometheus.GaugeVec
	lastAudit    prometheus.Gauge
}

// NewRecorder creates a recorder with Go runtime collectors attached
func NewRecorder() *Recorder {
	r := &Recorder{registry: prometheus.NewRegistry()}

	r.runsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "factcheck",
		Name:      "runs_total",
		Help:      "Finished fact-check runs by final status",
	}, []string{"status"})
	r.runDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "factcheck",
		Name:      "run_duration_seconds",
		Help:      "Time from PENDING to a final status",
		Buckets:   []float64{0.005, 0.05, 0.25, 1, 2.5, 5, 10, 30},
	}, []string{"status"})
	r.inFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "factcheck",
		Name:      "runs_in_flight",
		Help:      "Runs currently PENDING in this process",
	})
	r.rejected = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "factcheck",
		Name:      "runs_rejected_total",
		Help:      "Run requests refused because the post already had one in flight",
	}, []string{"reason"})
	r.sourcesTotal = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "factcheck",
		Name:      "audit_sources",
		Help:      "Reference sources by outcome of the last audit",
	}, []string{"outcome"})
	r.lastAudit = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "factcheck",
		Name:      "audit_last_run_timestamp_seconds",
		Help:      "Unix timestamp of the last source audit",
	})

	r.registry.MustRegister(
		r.runsTotal, r.runDuration, r.inFlight, r.rejected,
		r.sourcesTotal, r.lastAudit,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

func (r *Recorder) RunStarted() {
	r.inFlight.Inc()
}

func (r *Recorder) RunFinished(status model.RunStatus, elapsed time.Duration) {
	r.inFlight.Dec()
	r.runsTotal.WithLabelValues(string(status)).Inc()
	r.runDuration.WithLabelValues(string(status)).Observe(elapsed.Seconds())
}

func (r *Recorder) RunRejected(reason string) {
	r.rejected.WithLabelValues(reason).Inc()
}

// AuditFinished records the outcome counts of a source audit
func (r *Recorder) AuditFinished(accessible, dead, disallowed int, at time.Time) {
	r.sourcesTotal.WithLabelValues("accessible").Set(float64(accessible))
	r.sourcesTotal.WithLabelValues("dead").Set(float64(dead))
	r.sourcesTotal.WithLabelValues("disallowed").Set(float64(disallowed))
	r.lastAudit.Set(float64(at.Unix()))
}

// Handler serves the registry in the Prometheus exposition format
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}
