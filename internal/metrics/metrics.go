// Package metrics exposes Prometheus collectors for background jobs and
// realtime connections.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	jobsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "openkaraoke_jobs_total",
			Help: "Finished background jobs by type and final status",
		},
		[]string{"type", "status"},
	)
	jobDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "openkaraoke_job_duration_seconds",
			Help:    "Job processing time",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200},
		},
		[]string{"type"},
	)
	jobsRunning = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "openkaraoke_jobs_running",
			Help: "Jobs currently executing",
		},
	)
	wsClients = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "openkaraoke_websocket_clients",
			Help: "Connected WebSocket clients",
		},
	)

	registerOnce sync.Once
)

// Register adds the collectors to the default registry. Safe to call more than once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(jobsTotal, jobDuration, jobsRunning, wsClients)
	})
}

func Handler() http.Handler {
	return promhttp.Handler()
}

// JobStarted marks a job as running and returns a func recording its outcome.
func JobStarted(jobType string) func(status string) {
	jobsRunning.Inc()
	start := time.Now()
	return func(status string) {
		jobsRunning.Dec()
		jobsTotal.WithLabelValues(jobType, status).Inc()
		jobDuration.WithLabelValues(jobType).Observe(time.Since(start).Seconds())
	}
}

func ClientConnected()    { wsClients.Inc() }
func ClientDisconnected() { wsClients.Dec() }
