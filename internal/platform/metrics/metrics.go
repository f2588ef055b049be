// Package metrics exposes battle engine counters and HTTP latency to Prometheus.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Recorder struct {
	registry     *prometheus.Registry
	matchmaking  *prometheus.CounterVec
	votes        *prometheus.CounterVec
	conclusions  *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

func NewRecorder(namespace string) *Recorder {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	r := &Recorder{
		registry: registry,
		matchmaking: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "matchmaking_attempts_total",
			Help:      "Matchmaking attempts by outcome.",
		}, []string{"outcome"}),
		votes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "votes_total",
			Help:      "Vote requests by outcome.",
		}, []string{"outcome"}),
		conclusions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "battles_concluded_total",
			Help:      "Concluded battles by result.",
		}, []string{"outcome"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route pattern and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
	registry.MustRegister(r.matchmaking, r.votes, r.conclusions, r.httpDuration)
	return r
}

func (r *Recorder) ObserveMatchmaking(outcome string) {
	r.matchmaking.WithLabelValues(outcome).Inc()
}

func (r *Recorder) ObserveVote(outcome string) {
	r.votes.WithLabelValues(outcome).Inc()
}

func (r *Recorder) ObserveBattleConcluded(outcome string) {
	r.conclusions.WithLabelValues(outcome).Inc()
}

func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Middleware records request latency labelled by the matched mux pattern.
func (r *Recorder) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		started := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, req)

		route := req.Pattern
		if route == "" {
			route = "unmatched"
		}
		r.httpDuration.
			WithLabelValues(req.Method, route, strconv.Itoa(recorder.status)).
			Observe(time.Since(started).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}
