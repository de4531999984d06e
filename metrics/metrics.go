package metrics

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/push"

	"iara.com/iarasync/core"
)

const namespace = "iarasync"

// Recorder exports sync counters on its own registry.
type Recorder struct {
	Registry *prometheus.Registry

	Records       *prometheus.CounterVec
	StageDuration *prometheus.HistogramVec
	Runs          *prometheus.CounterVec
	LastSuccess   prometheus.Gauge
}

func NewRecorder() *Recorder {
	r := &Recorder{
		Registry: prometheus.NewRegistry(),
		Records: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "records_total",
				Help:      "Records reconciled, by stage and outcome",
			},
			[]string{"stage", "outcome"},
		),
		StageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "stage_duration_seconds",
				Help:      "Wall time of each entity stage",
				Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
			},
			[]string{"stage"},
		),
		Runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_total",
				Help:      "Sync runs, by status",
			},
			[]string{"status"},
		),
		LastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Finish time of the last successful run",
		}),
	}
	r.Registry.MustRegister(r.Records, r.StageDuration, r.Runs, r.LastSuccess)
	return r
}

// ObserveStage matches core.Options.OnStage.
func (r *Recorder) ObserveStage(s core.StageReport) {
	r.Records.WithLabelValues(s.Name, core.Applied.String()).Add(float64(s.Applied))
	r.Records.WithLabelValues(s.Name, core.Skipped.String()).Add(float64(s.Skipped))
	r.Records.WithLabelValues(s.Name, core.Failed.String()).Add(float64(s.Failed))
	r.StageDuration.WithLabelValues(s.Name).Observe(s.Duration.Seconds())
}

// ObserveRun counts a run by status. A nil report is a run that failed
// before producing one.
func (r *Recorder) ObserveRun(report *core.RunReport) {
	if report != nil && report.Succeeded() {
		r.Runs.WithLabelValues("succeeded").Inc()
		r.LastSuccess.Set(float64(report.FinishedAt.Unix()))
		return
	}
	r.Runs.WithLabelValues("failed").Inc()
}

// Push sends the registry to a Prometheus pushgateway.
func (r *Recorder) Push(ctx context.Context, url string) error {
	return push.New(url, namespace).Gatherer(r.Registry).PushContext(ctx)
}

func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.Registry, promhttp.HandlerOpts{})
}
