package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const namespace = "lifsheet"

// Metrics holds the collectors of one process. All methods are nil-safe so a
// disabled instance can be passed around.
type Metrics struct {
	Registry *prometheus.Registry

	filesTotal    *prometheus.CounterVec
	discrepancies prometheus.Counter
	reportDur     prometheus.Summary
	pages         prometheus.Histogram
	sinkTotal     *prometheus.CounterVec
	lastSuccessTS prometheus.Gauge
	requestsTotal *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{Registry: prometheus.NewRegistry()}
	m.filesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "files_processed_total",
		Help:      "LIF files handled by the pipeline by status",
	}, []string{"status"})
	m.discrepancies = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "discrepancies_total",
		Help:      "Competitors flagged as potential mismatches",
	})
	m.reportDur = prometheus.NewSummary(prometheus.SummaryOpts{
		Namespace: namespace,
		Name:      "report_duration_seconds",
		Help:      "Time spent parsing and laying out one report",
	})
	m.pages = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "report_pages",
		Help:      "Pages per generated report",
		Buckets:   []float64{1, 2, 3, 5, 10},
	})
	m.sinkTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sink_push_total",
		Help:      "Report pushes by sink and status",
	}, []string{"sink", "status"})
	m.lastSuccessTS = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "last_success_timestamp_seconds",
		Help:      "Unix timestamp of the last cycle without failures",
	})
	m.requestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "API requests by route and status code",
	}, []string{"route", "code"})

	m.Registry.MustRegister(
		m.filesTotal, m.discrepancies, m.reportDur, m.pages,
		m.sinkTotal, m.lastSuccessTS, m.requestsTotal,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// FileProcessed counts one file. status is ok, parse_error, layout_error or
// sink_error.
func (m *Metrics) FileProcessed(status string) {
	if m == nil {
		return
	}
	m.filesTotal.WithLabelValues(status).Inc()
}

func (m *Metrics) ReportGenerated(d time.Duration, pages, flags int) {
	if m == nil {
		return
	}
	m.reportDur.Observe(d.Seconds())
	m.pages.Observe(float64(pages))
	m.discrepancies.Add(float64(flags))
}

func (m *Metrics) SinkPush(sink string, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.sinkTotal.WithLabelValues(sink, status).Inc()
}

func (m *Metrics) CycleSucceeded(t time.Time) {
	if m == nil {
		return
	}
	m.lastSuccessTS.Set(float64(t.Unix()))
}

func (m *Metrics) Request(route, code string) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(route, code).Inc()
}
